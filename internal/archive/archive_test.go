package archive

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/cwhuang/recall/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "archive.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Put(ctx, Record{
		SegmentID:  "abc12345",
		Content:    "old design decision",
		Source:     "MEMORY.md",
		Category:   "Project",
		Priority:   model.Normal,
		Keywords:   []string{"design", "decision"},
		DecayScore: 0.21,
		Reason:     ReasonArchived,
	})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if rec.ID == "" {
		t.Error("expected non-empty ID")
	}
	if rec.ArchivedAt.IsZero() {
		t.Error("expected ArchivedAt to be set")
	}

	got, err := s.Get(ctx, "abc12345")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "old design decision" {
		t.Errorf("expected content round-trip, got %q", got.Content)
	}
	if got.Priority != model.Normal {
		t.Errorf("expected priority N, got %q", got.Priority)
	}
	if len(got.Keywords) != 2 || got.Keywords[0] != "design" {
		t.Errorf("expected keywords round-trip, got %v", got.Keywords)
	}
	if got.Reason != ReasonArchived {
		t.Errorf("expected reason archived, got %q", got.Reason)
	}
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	if _, err := s.Get(ctx, "nope"); err == nil {
		t.Error("expected error for missing segment")
	}
}

func TestGetReturnsLatest(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, Record{SegmentID: "seg1", Content: "first", ArchivedAt: time.Now().Add(-time.Hour)})
	s.Put(ctx, Record{SegmentID: "seg1", Content: "second"})

	got, err := s.Get(ctx, "seg1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Content != "second" {
		t.Errorf("expected latest record, got %q", got.Content)
	}
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, Record{SegmentID: "a", Content: "one", Category: "Project", Reason: ReasonArchived})
	s.Put(ctx, Record{SegmentID: "b", Content: "two", Category: "Project", Reason: ReasonDeleted})
	s.Put(ctx, Record{SegmentID: "c", Content: "three", Category: "Theory", Reason: ReasonArchived})

	all, err := s.List(ctx, ListParams{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}

	archived, _ := s.List(ctx, ListParams{Reason: ReasonArchived})
	if len(archived) != 2 {
		t.Errorf("expected 2 archived records, got %d", len(archived))
	}

	project, _ := s.List(ctx, ListParams{Category: "Project"})
	if len(project) != 2 {
		t.Errorf("expected 2 Project records, got %d", len(project))
	}

	limited, _ := s.List(ctx, ListParams{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("expected 1 record with limit, got %d", len(limited))
	}
}

func TestCount(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	s.Put(ctx, Record{SegmentID: "a", Content: "one", Reason: ReasonArchived})
	s.Put(ctx, Record{SegmentID: "b", Content: "two", Reason: ReasonArchived})
	s.Put(ctx, Record{SegmentID: "c", Content: "three", Reason: ReasonDeleted})

	counts, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if counts[ReasonArchived] != 2 {
		t.Errorf("expected 2 archived, got %d", counts[ReasonArchived])
	}
	if counts[ReasonDeleted] != 1 {
		t.Errorf("expected 1 deleted, got %d", counts[ReasonDeleted])
	}
}

func TestDefaultReason(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	rec, err := s.Put(ctx, Record{SegmentID: "x", Content: "y"})
	if err != nil {
		t.Fatalf("put: %v", err)
	}
	if rec.Reason != ReasonArchived {
		t.Errorf("expected default reason archived, got %q", rec.Reason)
	}
}
