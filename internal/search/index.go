package search

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/cwhuang/recall/internal/model"
)

// snapshotVersion tags the on-disk index format.
const snapshotVersion = 1

// Index is the inverted keyword index over memory segments. It owns
// the segment set; the inverted map is derived and rebuilt on load.
type Index struct {
	cachePath string
	segments  []model.MemorySegment
	byID      map[string]int      // id -> position in segments
	inverted  map[string][]string // token -> segment ids, insertion order
}

// NewIndex creates an empty index. cachePath is the JSON snapshot
// location; pass "" to keep the index in memory only.
func NewIndex(cachePath string) *Index {
	return &Index{
		cachePath: cachePath,
		byID:      make(map[string]int),
		inverted:  make(map[string][]string),
	}
}

// SegmentID derives the stable content-based identifier.
func SegmentID(content string) string {
	sum := md5.Sum([]byte(content))
	return hex.EncodeToString(sum[:])[:8]
}

// Add indexes a segment. Missing id and keywords are derived from the
// content. Re-adding an existing id is a no-op, which makes rebuilds
// idempotent.
func (ix *Index) Add(seg model.MemorySegment) model.MemorySegment {
	if seg.ID == "" {
		seg.ID = SegmentID(seg.Content)
	}
	if _, ok := ix.byID[seg.ID]; ok {
		return seg
	}
	if len(seg.Keywords) == 0 {
		seg.Keywords = Tokenize(seg.Content)
	}
	if seg.Priority == "" {
		seg.Priority = model.Normal
	}

	ix.byID[seg.ID] = len(ix.segments)
	ix.segments = append(ix.segments, seg)
	for _, kw := range seg.Keywords {
		ix.inverted[kw] = append(ix.inverted[kw], seg.ID)
	}
	return seg
}

// Segments returns the indexed segments in insertion order.
func (ix *Index) Segments() []model.MemorySegment {
	return ix.segments
}

// Len reports the number of indexed segments.
func (ix *Index) Len() int { return len(ix.segments) }

// Get looks a segment up by id.
func (ix *Index) Get(id string) (model.MemorySegment, bool) {
	pos, ok := ix.byID[id]
	if !ok {
		return model.MemorySegment{}, false
	}
	return ix.segments[pos], true
}

// Reset drops all segments and the derived inverted map.
func (ix *Index) Reset() {
	ix.segments = nil
	ix.byID = make(map[string]int)
	ix.inverted = make(map[string][]string)
}

// Search runs the weighted query: 0.7 on original-token matches, 0.3
// on synonym-expanded matches, boosted by segment priority and capped
// at 1.0. Results are sorted descending, ties broken by insertion
// order, truncated to topK.
func (ix *Index) Search(query string, topK int) []model.SearchResult {
	if topK <= 0 {
		topK = 5
	}
	original, expanded := Expand(Tokenize(query))
	if len(original) == 0 {
		return nil
	}

	origHits := ix.countMatches(original)
	expHits := ix.countMatches(expanded)

	type candidate struct {
		pos   int
		score float64
	}
	var cands []candidate
	for pos := range ix.segments {
		o := float64(origHits[pos]) / float64(len(original))
		var e float64
		if len(expanded) > 0 {
			e = float64(expHits[pos]) / float64(len(expanded))
		}
		score := 0.7*o + 0.3*e
		if score == 0 {
			continue
		}
		score *= ix.segments[pos].Priority.SearchBoost()
		if score > 1.0 {
			score = 1.0
		}
		cands = append(cands, candidate{pos, score})
	}

	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].score > cands[j].score
	})
	if len(cands) > topK {
		cands = cands[:topK]
	}

	out := make([]model.SearchResult, 0, len(cands))
	for _, c := range cands {
		seg := ix.segments[c.pos]
		out = append(out, model.SearchResult{
			Content:    seg.Content,
			Score:      c.score,
			Source:     seg.Source,
			LineNumber: seg.LineNumber,
			Category:   seg.Category,
			Priority:   seg.Priority,
		})
	}
	return out
}

// SearchBasic is the plain variant: matching-token counts min-max
// normalized against the best candidate, no expansion, no boost.
func (ix *Index) SearchBasic(query string, topK int) []model.SearchResult {
	if topK <= 0 {
		topK = 5
	}
	tokens := Tokenize(query)
	hits := ix.countMatches(tokens)
	if len(hits) == 0 {
		return nil
	}

	maxHits := 0
	for _, n := range hits {
		if n > maxHits {
			maxHits = n
		}
	}

	type candidate struct {
		pos   int
		score float64
	}
	cands := make([]candidate, 0, len(hits))
	for pos, n := range hits {
		cands = append(cands, candidate{pos, float64(n) / float64(maxHits)})
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].pos < cands[j].pos
	})
	if len(cands) > topK {
		cands = cands[:topK]
	}

	out := make([]model.SearchResult, 0, len(cands))
	for _, c := range cands {
		seg := ix.segments[c.pos]
		out = append(out, model.SearchResult{
			Content:    seg.Content,
			Score:      c.score,
			Source:     seg.Source,
			LineNumber: seg.LineNumber,
			Category:   seg.Category,
			Priority:   seg.Priority,
		})
	}
	return out
}

// countMatches counts, per segment position, how many of the given
// tokens appear in that segment's keyword set.
func (ix *Index) countMatches(tokens []string) map[int]int {
	hits := make(map[int]int)
	for _, tok := range tokens {
		for _, id := range ix.inverted[tok] {
			hits[ix.byID[id]]++
		}
	}
	return hits
}

type indexSnapshot struct {
	Version  int                   `json:"version"`
	Segments []model.MemorySegment `json:"segments"`
}

// Load restores segments from the JSON snapshot and rebuilds the
// inverted map. Returns false when the snapshot is missing or corrupt
// so the caller rebuilds from the note log instead.
func (ix *Index) Load() bool {
	if ix.cachePath == "" {
		return false
	}
	data, err := os.ReadFile(ix.cachePath)
	if err != nil {
		return false
	}
	var snap indexSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return false
	}
	ix.Reset()
	for _, seg := range snap.Segments {
		ix.Add(seg)
	}
	return true
}

// Save rewrites the full snapshot.
func (ix *Index) Save() error {
	if ix.cachePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(ix.cachePath), 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	data, err := json.MarshalIndent(indexSnapshot{
		Version:  snapshotVersion,
		Segments: ix.segments,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(ix.cachePath, data, 0o644); err != nil {
		return fmt.Errorf("write index snapshot: %w", err)
	}
	return nil
}
