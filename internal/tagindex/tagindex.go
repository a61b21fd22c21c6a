// Package tagindex maintains the secondary multi-tag inverted index
// with AND/OR combinator search and priority-weighted scoring.
package tagindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cwhuang/recall/internal/model"
	"github.com/cwhuang/recall/internal/topics"
)

// Operator selects how multiple query tags combine.
type Operator string

const (
	And Operator = "AND"
	Or  Operator = "OR"
)

// Entry is one indexed occurrence of a tag.
type Entry struct {
	File     string         `json:"file"`
	Line     int            `json:"line"`
	Weight   int            `json:"weight"`
	Priority model.Priority `json:"priority"`
	Score    float64        `json:"score"`
}

// Result is a combined search hit for one (file, line) location.
type Result struct {
	File        string         `json:"file"`
	Line        int            `json:"line"`
	Priority    model.Priority `json:"priority"`
	Score       float64        `json:"score"`
	MatchedTags []string       `json:"matched_tags"`
}

// TagCount pairs a tag with its entry count.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}

// Stats summarizes the index.
type Stats struct {
	TotalTags    int        `json:"total_tags"`
	TotalEntries int        `json:"total_entries"`
	TotalFiles   int        `json:"total_files"`
	TopTags      []TagCount `json:"top_tags"`
}

// Index is the tag index plus its reverse file-to-tags map.
type Index struct {
	path    string
	index   map[string][]Entry
	reverse map[string][]string
}

// NewIndex loads the snapshot at path, starting empty when it is
// missing or corrupt. Pass "" to keep the index in memory only.
func NewIndex(path string) *Index {
	ix := &Index{
		path:    path,
		index:   make(map[string][]Entry),
		reverse: make(map[string][]string),
	}
	ix.load()
	return ix
}

// Add records weighted tags for one note location. The stored score is
// the tag weight scaled by the priority multiplier.
func (ix *Index) Add(tags []topics.TagScore, file string, line int, pri model.Priority) {
	file = filepath.Base(file)
	for _, tw := range tags {
		ix.index[tw.Tag] = append(ix.index[tw.Tag], Entry{
			File:     file,
			Line:     line,
			Weight:   tw.Score,
			Priority: pri,
			Score:    float64(tw.Score) * pri.TagWeight(),
		})
	}
	for _, tw := range tags {
		if !contains(ix.reverse[file], tw.Tag) {
			ix.reverse[file] = append(ix.reverse[file], tw.Tag)
		}
	}
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

// Search combines entries for the query tags. Every matching entry's
// score accumulates per location; AND additionally keeps only locations
// whose matched tags cover the full query set. Results are sorted
// descending by accumulated score.
func (ix *Index) Search(tags []string, op Operator) []Result {
	if len(tags) == 0 {
		return nil
	}

	type key struct {
		file string
		line int
	}
	results := make(map[key]*Result)
	var order []key

	for _, tag := range tags {
		for _, e := range ix.index[tag] {
			k := key{e.File, e.Line}
			r, ok := results[k]
			if !ok {
				r = &Result{File: e.File, Line: e.Line, Priority: e.Priority, Score: e.Score}
				results[k] = r
				order = append(order, k)
			} else {
				r.Score += e.Score
			}
			if !contains(r.MatchedTags, tag) {
				r.MatchedTags = append(r.MatchedTags, tag)
			}
		}
	}

	out := make([]Result, 0, len(results))
	for _, k := range order {
		r := results[k]
		if op == And && !coversAll(r.MatchedTags, tags) {
			continue
		}
		out = append(out, *r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

func coversAll(matched, query []string) bool {
	for _, q := range query {
		if !contains(matched, q) {
			return false
		}
	}
	return true
}

// TagsForFile returns the tags recorded against a source file.
func (ix *Index) TagsForFile(file string) []string {
	return ix.reverse[filepath.Base(file)]
}

// GetStats reports index-wide counts and the top-N most frequent tags.
func (ix *Index) GetStats(topN int) Stats {
	if topN <= 0 {
		topN = 10
	}
	st := Stats{
		TotalTags:  len(ix.index),
		TotalFiles: len(ix.reverse),
	}
	counts := make([]TagCount, 0, len(ix.index))
	for tag, entries := range ix.index {
		st.TotalEntries += len(entries)
		counts = append(counts, TagCount{tag, len(entries)})
	}
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Tag < counts[j].Tag
	})
	if len(counts) > topN {
		counts = counts[:topN]
	}
	st.TopTags = counts
	return st
}

type snapshot struct {
	Index        map[string][]Entry  `json:"index"`
	ReverseIndex map[string][]string `json:"reverse_index"`
	UpdatedAt    string              `json:"updated_at"`
}

func (ix *Index) load() {
	if ix.path == "" {
		return
	}
	data, err := os.ReadFile(ix.path)
	if err != nil {
		return
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return
	}
	if snap.Index != nil {
		ix.index = snap.Index
	}
	if snap.ReverseIndex != nil {
		ix.reverse = snap.ReverseIndex
	}
}

// Sync rewrites the whole snapshot.
func (ix *Index) Sync() error {
	if ix.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(ix.path), 0o755); err != nil {
		return fmt.Errorf("create tag index dir: %w", err)
	}
	data, err := json.MarshalIndent(snapshot{
		Index:        ix.index,
		ReverseIndex: ix.reverse,
		UpdatedAt:    time.Now().UTC().Format(time.RFC3339),
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(ix.path, data, 0o644); err != nil {
		return fmt.Errorf("write tag index: %w", err)
	}
	return nil
}
