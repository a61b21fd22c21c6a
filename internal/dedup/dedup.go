// Package dedup rejects notes that duplicate previously stored content.
//
// Two layers: an md5 hash set catches exact repeats, then a character
// level similarity ratio against the same category's history catches
// near-duplicates.
package dedup

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
)

// Kind classifies the outcome of a duplicate check.
type Kind string

const (
	Exact   Kind = "exact"
	Similar Kind = "similar"
	Unique  Kind = "unique"
)

// DefaultThreshold is the similarity ratio above which a candidate is
// rejected as a near-duplicate. Heuristic, tune per corpus.
const DefaultThreshold = 0.85

// generalCategory buckets all content when category mode is off.
const generalCategory = "General"

// Deduper is the in-memory two-layer gate. History grows monotonically
// within a process; see Persistent for the snapshot-backed variant.
type Deduper struct {
	threshold     float64
	categoryBased bool

	contents map[string][]string
	hashes   map[string]bool
}

// New creates a gate. When categoryBased is true the similarity layer
// only compares against prior content in the same category.
func New(threshold float64, categoryBased bool) *Deduper {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Deduper{
		threshold:     threshold,
		categoryBased: categoryBased,
		contents:      make(map[string][]string),
		hashes:        make(map[string]bool),
	}
}

// ContentHash returns the md5 hex digest of content.
func ContentHash(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])
}

func (d *Deduper) bucket(category string) string {
	if !d.categoryBased || category == "" {
		return generalCategory
	}
	return category
}

// IsDuplicate runs both layers and reports whether the candidate
// duplicates stored content and how.
func (d *Deduper) IsDuplicate(content, category string) (bool, Kind) {
	if d.hashes[ContentHash(content)] {
		return true, Exact
	}
	for _, saved := range d.contents[d.bucket(category)] {
		if similarity(content, saved) > d.threshold {
			return true, Similar
		}
	}
	return false, Unique
}

// Save records accepted content into both layers.
func (d *Deduper) Save(content, category string) {
	d.hashes[ContentHash(content)] = true
	b := d.bucket(category)
	d.contents[b] = append(d.contents[b], content)
}

// Stats summarizes the gate's history.
type Stats struct {
	TotalContents int            `json:"total_contents"`
	TotalHashes   int            `json:"total_hashes"`
	Categories    int            `json:"categories"`
	ByCategory    map[string]int `json:"category_breakdown"`
}

// GetStats reports history sizes per category.
func (d *Deduper) GetStats() Stats {
	st := Stats{
		TotalHashes: len(d.hashes),
		Categories:  len(d.contents),
		ByCategory:  make(map[string]int, len(d.contents)),
	}
	for cat, cs := range d.contents {
		st.TotalContents += len(cs)
		st.ByCategory[cat] = len(cs)
	}
	return st
}

// similarity is the Ratcliff/Obershelp-style sequence ratio over runes:
// 2*M / (len(a)+len(b)) where M is the length of the longest common
// subsequence. 1.0 means identical, 0.0 no overlap.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra)+len(rb) == 0 {
		return 1.0
	}
	m := lcs(ra, rb)
	return 2 * float64(m) / float64(len(ra)+len(rb))
}

// lcs computes longest-common-subsequence length with a rolling row.
func lcs(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// sortedHashes returns the hash set in stable order for persistence.
func (d *Deduper) sortedHashes() []string {
	out := make([]string, 0, len(d.hashes))
	for h := range d.hashes {
		out = append(out, h)
	}
	sort.Strings(out)
	return out
}
