// Package engine wires the classifiers, dedup gate, indexes and heat
// tracker into the memory pipeline. All collaborators are injected at
// construction; nothing here reaches for globals.
package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/cwhuang/recall/internal/archive"
	"github.com/cwhuang/recall/internal/config"
	"github.com/cwhuang/recall/internal/dedup"
	"github.com/cwhuang/recall/internal/heat"
	"github.com/cwhuang/recall/internal/model"
	"github.com/cwhuang/recall/internal/notelog"
	"github.com/cwhuang/recall/internal/priority"
	"github.com/cwhuang/recall/internal/search"
	"github.com/cwhuang/recall/internal/tagindex"
	"github.com/cwhuang/recall/internal/topics"
	"github.com/cwhuang/recall/internal/vcs"
)

// Engine is the memory pipeline over one data directory.
type Engine struct {
	dataDir    string
	cfg        config.Config
	log        *notelog.Log
	parser     *priority.Parser
	classifier *topics.Classifier
	mapping    map[string]topics.Layered
	deduper    *dedup.Persistent
	index      *search.Index
	heat       *heat.Tracker
	tags       *tagindex.Index
	snap       *vcs.Snapshotter
}

// Open builds an engine rooted at dataDir, creating the directory
// layout as needed and loading every snapshot. A missing or corrupt
// search snapshot triggers a rebuild from the note log.
func Open(dataDir string, cfg config.Config) (*Engine, error) {
	for _, d := range []string{dataDir, filepath.Join(dataDir, "cache"), filepath.Join(dataDir, "data")} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	parser := priority.NewParser()
	parser.AutoDetect = cfg.Classify.AutoDetect

	heatCfg := heat.DefaultConfig()
	if !cfg.Decay.Exponential {
		heatCfg = heatCfg.LinearRates()
	}
	heatCfg.ArchiveThreshold = cfg.Decay.ArchiveThreshold
	heatCfg.DeleteThreshold = cfg.Decay.DeleteThreshold

	e := &Engine{
		dataDir:    dataDir,
		cfg:        cfg,
		log:        notelog.New(filepath.Join(dataDir, "MEMORY.md")),
		parser:     parser,
		classifier: topics.NewClassifier(filepath.Join(dataDir, "cache", "categories.json")),
		mapping:    topics.DefaultMapping,
		deduper:    dedup.NewPersistent(filepath.Join(dataDir, "data", "dedup.json"), cfg.Dedup.Threshold, cfg.Dedup.CategoryBased),
		index:      search.NewIndex(filepath.Join(dataDir, "cache", "index.json")),
		heat:       heat.NewTracker(filepath.Join(dataDir, "cache", "heat_map.json"), heatCfg),
		tags:       tagindex.NewIndex(filepath.Join(dataDir, "data", "tag_index.json")),
		snap:       vcs.NewSnapshotter(dataDir, time.Duration(cfg.Snapshot.TimeoutSeconds)*time.Second),
	}

	if _, err := e.classifier.LearnFromLog(e.log.Path(), false); err != nil {
		return nil, fmt.Errorf("learn categories: %w", err)
	}
	if !e.index.Load() {
		if _, err := e.Rebuild(); err != nil {
			return nil, fmt.Errorf("rebuild index: %w", err)
		}
	}

	return e, nil
}

// AddResult reports what happened to a submitted note.
type AddResult struct {
	Accepted  bool                `json:"accepted"`
	Duplicate dedup.Kind          `json:"duplicate,omitempty"`
	Segment   model.MemorySegment `json:"segment,omitempty"`
	Tags      []topics.TagScore   `json:"tags,omitempty"`
	Snapshot  *vcs.Result         `json:"snapshot,omitempty"`
}

// AddNote runs the full pipeline for one note: classify, gate, append,
// index, register heat, index tags, optionally snapshot. Rejected
// duplicates leave every store untouched.
func (e *Engine) AddNote(ctx context.Context, text string) (AddResult, error) {
	parsed := e.parser.Parse(text)
	content := parsed.Content
	if content == "" {
		return AddResult{}, fmt.Errorf("empty note")
	}

	tagScores := topics.ClassifyContent(content, e.mapping)
	pri := parsed.Priority
	if !parsed.Explicit {
		if tp := topics.PriorityFromTags(tagScores); rank(tp) > rank(pri) {
			pri = tp
		}
	}
	// Long important notes tend to be reference material worth pinning.
	if pri == model.Important && e.cfg.Classify.EscalateLength > 0 &&
		utf8.RuneCountInString(content) >= e.cfg.Classify.EscalateLength {
		pri = model.Critical
	}

	category := e.categoryFor(content)

	if dup, kind := e.deduper.IsDuplicate(content, category); dup {
		return AddResult{Accepted: false, Duplicate: kind}, nil
	}

	if err := e.log.Append(content, pri); err != nil {
		return AddResult{}, fmt.Errorf("append note: %w", err)
	}
	if err := e.deduper.Save(content, category); err != nil {
		return AddResult{}, fmt.Errorf("save dedup state: %w", err)
	}

	line, err := e.lastLine()
	if err != nil {
		return AddResult{}, err
	}

	seg := e.index.Add(model.MemorySegment{
		Content:    content,
		Source:     filepath.Base(e.log.Path()),
		LineNumber: line,
		Category:   category,
		Priority:   pri,
	})
	if err := e.index.Save(); err != nil {
		return AddResult{}, fmt.Errorf("save index: %w", err)
	}

	if err := e.heat.Register(seg.ID, dedup.ContentHash(content), pri); err != nil {
		return AddResult{}, fmt.Errorf("register heat: %w", err)
	}

	if len(tagScores) > 0 {
		e.tags.Add(tagScores, e.log.Path(), line, pri)
		if err := e.tags.Sync(); err != nil {
			return AddResult{}, fmt.Errorf("sync tag index: %w", err)
		}
	}

	res := AddResult{Accepted: true, Segment: seg, Tags: tagScores}
	if e.cfg.Snapshot.GitCommit {
		snap := e.snap.Snapshot(ctx, commitMessage(content))
		res.Snapshot = &snap
	}
	return res, nil
}

// Search runs the weighted keyword query and records an access on every
// hit so hot memories stay hot.
func (e *Engine) Search(query string, topK int) ([]model.SearchResult, error) {
	results := e.index.Search(query, topK)
	for _, r := range results {
		if err := e.heat.RecordAccess(search.SegmentID(r.Content)); err != nil {
			return nil, fmt.Errorf("record access: %w", err)
		}
	}
	return results, nil
}

// Classify reports the priority, tags and category the pipeline would
// assign to text, without storing anything.
func (e *Engine) Classify(text string) (model.ParsedNote, []topics.TagScore, string) {
	parsed := e.parser.Parse(text)
	tagScores := topics.ClassifyContent(parsed.Content, e.mapping)
	if !parsed.Explicit {
		if tp := topics.PriorityFromTags(tagScores); rank(tp) > rank(parsed.Priority) {
			parsed.Priority = tp
		}
	}
	return parsed, tagScores, e.categoryFor(parsed.Content)
}

// CheckDuplicate runs only the dedup gate.
func (e *Engine) CheckDuplicate(text string) (bool, dedup.Kind) {
	parsed := e.parser.Parse(text)
	return e.deduper.IsDuplicate(parsed.Content, e.categoryFor(parsed.Content))
}

// Rebuild reconstructs the search index from the note log and saves
// the fresh snapshot. Returns the number of indexed segments.
func (e *Engine) Rebuild() (int, error) {
	entries, err := e.log.Read()
	if err != nil {
		return 0, fmt.Errorf("read note log: %w", err)
	}

	e.index.Reset()
	for _, entry := range entries {
		category := entry.Category
		if category == "" {
			category = e.categoryFor(entry.Content)
		}
		e.index.Add(model.MemorySegment{
			Content:    entry.Content,
			Source:     filepath.Base(entry.Source),
			LineNumber: entry.LineNumber,
			Category:   category,
			Priority:   entry.Priority,
		})
	}
	if err := e.index.Save(); err != nil {
		return 0, fmt.Errorf("save index: %w", err)
	}
	return e.index.Len(), nil
}

// CleanupResult lists what cleanup archived and deleted, or would.
type CleanupResult struct {
	Archived []heat.Scored `json:"archived"`
	Deleted  []heat.Scored `json:"deleted"`
	Applied  bool          `json:"applied"`
}

// Cleanup decays every memory and partitions the cold ones. With apply
// false it only reports candidates. With apply true both groups move
// into the archive database, tagged with their removal reason, and
// leave the heat map and search index.
func (e *Engine) Cleanup(ctx context.Context, apply bool) (CleanupResult, error) {
	archiveList, deleteList, err := e.heat.CleanupSuggestions()
	if err != nil {
		return CleanupResult{}, fmt.Errorf("cleanup suggestions: %w", err)
	}
	res := CleanupResult{Archived: archiveList, Deleted: deleteList}
	if !apply || (len(archiveList) == 0 && len(deleteList) == 0) {
		return res, nil
	}

	store, err := archive.Open(filepath.Join(e.dataDir, "archive.db"))
	if err != nil {
		return res, fmt.Errorf("open archive: %w", err)
	}
	defer store.Close()

	removed := make(map[string]bool)
	move := func(scored []heat.Scored, reason archive.Reason) error {
		for _, s := range scored {
			rec := archive.Record{
				SegmentID:  s.MemoryID,
				DecayScore: s.Score,
				Reason:     reason,
			}
			if seg, ok := e.index.Get(s.MemoryID); ok {
				rec.Content = seg.Content
				rec.Source = seg.Source
				rec.Category = seg.Category
				rec.Priority = seg.Priority
				rec.Keywords = seg.Keywords
			}
			if _, err := store.Put(ctx, rec); err != nil {
				return fmt.Errorf("archive %s: %w", s.MemoryID, err)
			}
			removed[s.MemoryID] = true
		}
		return nil
	}
	if err := move(archiveList, archive.ReasonArchived); err != nil {
		return res, err
	}
	if err := move(deleteList, archive.ReasonDeleted); err != nil {
		return res, err
	}

	ids := make([]string, 0, len(removed))
	for id := range removed {
		ids = append(ids, id)
	}
	if err := e.heat.Remove(ids...); err != nil {
		return res, fmt.Errorf("remove heat records: %w", err)
	}

	// The index has no in-place delete; rebuild it without the moved
	// segments.
	kept := make([]model.MemorySegment, 0, e.index.Len())
	for _, seg := range e.index.Segments() {
		if !removed[seg.ID] {
			kept = append(kept, seg)
		}
	}
	e.index.Reset()
	for _, seg := range kept {
		e.index.Add(seg)
	}
	if err := e.index.Save(); err != nil {
		return res, fmt.Errorf("save index: %w", err)
	}

	res.Applied = true
	return res, nil
}

// Stats aggregates state across every component.
type Stats struct {
	Segments   int            `json:"segments"`
	Categories int            `json:"categories"`
	Heat       heat.Summary   `json:"heat"`
	Dedup      dedup.Stats    `json:"dedup"`
	Tags       tagindex.Stats `json:"tags"`
}

// GetStats reports aggregate statistics.
func (e *Engine) GetStats() Stats {
	return Stats{
		Segments:   e.index.Len(),
		Categories: len(e.classifier.Categories()),
		Heat:       e.heat.GetSummary(),
		Dedup:      e.deduper.GetStats(),
		Tags:       e.tags.GetStats(5),
	}
}

// Snapshot commits the data directory regardless of the auto-commit
// setting.
func (e *Engine) Snapshot(ctx context.Context, message string) vcs.Result {
	if message == "" {
		message = "manual memory snapshot"
	}
	return e.snap.Snapshot(ctx, message)
}

// Component accessors for the CLI layer.

func (e *Engine) Classifier() *topics.Classifier { return e.classifier }
func (e *Engine) Heat() *heat.Tracker            { return e.heat }
func (e *Engine) Tags() *tagindex.Index          { return e.tags }
func (e *Engine) Log() *notelog.Log              { return e.log }
func (e *Engine) Versions() []vcs.Version        { return e.snap.Versions() }

// ArchiveStore opens the cold store; the caller owns the handle.
func (e *Engine) ArchiveStore() (*archive.Store, error) {
	return archive.Open(filepath.Join(e.dataDir, "archive.db"))
}

func (e *Engine) categoryFor(content string) string {
	if picks := e.classifier.SelectForQuery(content); len(picks) > 0 {
		return picks[0]
	}
	return "General"
}

// lastLine returns the line number of the newest log entry.
func (e *Engine) lastLine() (int, error) {
	entries, err := e.log.Read()
	if err != nil {
		return 0, fmt.Errorf("read note log: %w", err)
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("note log empty after append")
	}
	return entries[len(entries)-1].LineNumber, nil
}

func rank(p model.Priority) int {
	switch p {
	case model.Critical:
		return 2
	case model.Important:
		return 1
	default:
		return 0
	}
}

func commitMessage(content string) string {
	const max = 48
	runes := []rune(content)
	if len(runes) > max {
		return "memory update: " + string(runes[:max]) + "…"
	}
	return "memory update: " + content
}
