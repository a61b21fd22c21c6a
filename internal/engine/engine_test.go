package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwhuang/recall/internal/archive"
	"github.com/cwhuang/recall/internal/config"
	"github.com/cwhuang/recall/internal/dedup"
	"github.com/cwhuang/recall/internal/model"
	"github.com/cwhuang/recall/internal/search"
)

func newTestEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	dir := t.TempDir()
	e, err := Open(dir, config.Default())
	require.NoError(t, err)
	return e, dir
}

func TestAddNoteExplicitTag(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	res, err := e.AddNote(ctx, "[C] 暗物質理論的 framework 核心公式")
	require.NoError(t, err)

	assert.True(t, res.Accepted)
	assert.Equal(t, model.Critical, res.Segment.Priority)
	assert.Equal(t, "Theory", res.Segment.Category)
	assert.Equal(t, 1, res.Segment.LineNumber)
	assert.Equal(t, "MEMORY.md", res.Segment.Source)
	assert.NotEmpty(t, res.Segment.ID)
	require.NotEmpty(t, res.Tags)
	assert.Equal(t, 10, res.Tags[0].Score)
	assert.Nil(t, res.Snapshot, "auto-commit is off by default")
}

func TestAddNoteEmpty(t *testing.T) {
	e, _ := newTestEngine(t)
	_, err := e.AddNote(context.Background(), "   ")
	assert.Error(t, err)
}

func TestAddNoteAutoDetect(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	res, err := e.AddNote(ctx, "記住這個重要結論")
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, model.Critical, res.Segment.Priority)
}

func TestAddNoteTagWeightUpgrade(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	// No priority keywords, but "deploy" carries a weight-10 mapping
	// entry, which lifts an untagged note to critical.
	res, err := e.AddNote(ctx, "deploy 新的 website 上線了")
	require.NoError(t, err)
	assert.Equal(t, model.Critical, res.Segment.Priority)
}

func TestAddNoteLongImportantEscalates(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Classify.EscalateLength = 10
	e, err := Open(dir, cfg)
	require.NoError(t, err)

	res, err := e.AddNote(ctx, "討論下季雲端平台遷移流程的想法")
	require.NoError(t, err)
	assert.Equal(t, model.Critical, res.Segment.Priority)

	// Short important notes stay important.
	res2, err := e.AddNote(ctx, "討論遷移")
	require.NoError(t, err)
	assert.Equal(t, model.Important, res2.Segment.Priority)
}

func TestAddNoteExactDuplicate(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	_, err := e.AddNote(ctx, "[C] API 金鑰已設定完成")
	require.NoError(t, err)

	res, err := e.AddNote(ctx, "[C] API 金鑰已設定完成")
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, dedup.Exact, res.Duplicate)

	entries, err := e.Log().Read()
	require.NoError(t, err)
	assert.Len(t, entries, 1, "rejected duplicate must not reach the log")
}

func TestAddNoteSimilarDuplicate(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	_, err := e.AddNote(ctx, "API 金鑰是 sk-123456 請妥善保管")
	require.NoError(t, err)

	res, err := e.AddNote(ctx, "API 金鑰是 sk-123457 請妥善保管")
	require.NoError(t, err)
	assert.False(t, res.Accepted)
	assert.Equal(t, dedup.Similar, res.Duplicate)
}

func TestSearchRanksAndRecordsAccess(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	_, err := e.AddNote(ctx, "[C] 暗物質理論的核心概念")
	require.NoError(t, err)
	_, err = e.AddNote(ctx, "[N] 今天天氣很好")
	require.NoError(t, err)
	_, err = e.AddNote(ctx, "[I] 專案進度排程")
	require.NoError(t, err)

	results, err := e.Search("暗物質", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "暗物質理論的核心概念", results[0].Content)
	assert.Equal(t, model.Critical, results[0].Priority)

	rec, ok := e.Heat().Get(search.SegmentID(results[0].Content))
	require.True(t, ok)
	assert.Equal(t, 2, rec.AccessCount, "one register plus one search access")
}

func TestClassifyDoesNotStore(t *testing.T) {
	e, _ := newTestEngine(t)

	parsed, tags, category := e.Classify("deploy 新的 website")
	assert.Equal(t, model.Critical, parsed.Priority)
	assert.NotEmpty(t, tags)
	assert.Equal(t, "Deployment", category)

	assert.Zero(t, e.GetStats().Segments)
}

func TestCheckDuplicate(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	dup, _ := e.CheckDuplicate("從未見過的內容")
	assert.False(t, dup)

	_, err := e.AddNote(ctx, "從未見過的內容")
	require.NoError(t, err)

	dup, kind := e.CheckDuplicate("從未見過的內容")
	assert.True(t, dup)
	assert.Equal(t, dedup.Exact, kind)
}

func TestStatePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()

	e1, err := Open(dir, cfg)
	require.NoError(t, err)
	_, err = e1.AddNote(ctx, "[I] 資料庫連線設定已更新")
	require.NoError(t, err)

	e2, err := Open(dir, cfg)
	require.NoError(t, err)

	res, err := e2.AddNote(ctx, "[I] 資料庫連線設定已更新")
	require.NoError(t, err)
	assert.False(t, res.Accepted, "dedup state must survive a restart")

	results, err := e2.Search("資料庫", 5)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestCorruptIndexRebuildsFromLog(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := config.Default()

	e1, err := Open(dir, cfg)
	require.NoError(t, err)
	_, err = e1.AddNote(ctx, "[C] 量子糾纏實驗結果")
	require.NoError(t, err)

	indexPath := filepath.Join(dir, "cache", "index.json")
	require.NoError(t, os.WriteFile(indexPath, []byte("{broken"), 0o644))

	e2, err := Open(dir, cfg)
	require.NoError(t, err)

	results, err := e2.Search("量子", 5)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "量子糾纏實驗結果", results[0].Content)
}

func TestRebuildCountsEntries(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	_, err := e.AddNote(ctx, "[N] 筆記甲")
	require.NoError(t, err)
	_, err = e.AddNote(ctx, "[N] 筆記乙")
	require.NoError(t, err)

	n, err := e.Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCleanup(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	res1, err := e.AddNote(ctx, "[N] 臨時記錄甲 aaa")
	require.NoError(t, err)
	res2, err := e.AddNote(ctx, "[N] 臨時記錄乙 bbb")
	require.NoError(t, err)

	// Push the scores into the archive and delete bands.
	require.NoError(t, e.Heat().Boost(res1.Segment.ID, -0.9))
	require.NoError(t, e.Heat().Boost(res2.Segment.ID, -0.98))

	dry, err := e.Cleanup(ctx, false)
	require.NoError(t, err)
	assert.False(t, dry.Applied)
	require.Len(t, dry.Archived, 1)
	require.Len(t, dry.Deleted, 1)
	assert.Equal(t, res1.Segment.ID, dry.Archived[0].MemoryID)
	assert.Equal(t, res2.Segment.ID, dry.Deleted[0].MemoryID)
	assert.Equal(t, 2, e.GetStats().Segments, "dry run must not remove anything")

	applied, err := e.Cleanup(ctx, true)
	require.NoError(t, err)
	assert.True(t, applied.Applied)
	assert.Zero(t, e.Heat().Len())
	assert.Zero(t, e.GetStats().Segments)

	store, err := e.ArchiveStore()
	require.NoError(t, err)
	defer store.Close()

	recs, err := store.List(ctx, archive.ListParams{})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	moved, err := store.Get(ctx, res1.Segment.ID)
	require.NoError(t, err)
	assert.Equal(t, "臨時記錄甲 aaa", moved.Content)
	assert.Equal(t, archive.ReasonArchived, moved.Reason)

	gone, err := store.Get(ctx, res2.Segment.ID)
	require.NoError(t, err)
	assert.Equal(t, archive.ReasonDeleted, gone.Reason)
}

func TestCleanupNeverTouchesCritical(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	res, err := e.AddNote(ctx, "[C] 永久保存的決策")
	require.NoError(t, err)
	require.NoError(t, e.Heat().Boost(res.Segment.ID, -0.99))

	dry, err := e.Cleanup(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, dry.Archived)
	assert.Empty(t, dry.Deleted)
}

func TestGetStats(t *testing.T) {
	ctx := context.Background()
	e, _ := newTestEngine(t)

	_, err := e.AddNote(ctx, "[C] deploy 設定完成")
	require.NoError(t, err)
	_, err = e.AddNote(ctx, "[N] 隨手記")
	require.NoError(t, err)

	st := e.GetStats()
	assert.Equal(t, 2, st.Segments)
	assert.Equal(t, 2, st.Heat.TotalMemories)
	assert.Equal(t, 1, st.Heat.ByPriority[model.Critical])
	assert.Equal(t, 2, st.Dedup.TotalHashes)
	assert.NotZero(t, st.Categories)
}

func TestSnapshotOutsideRepo(t *testing.T) {
	e, _ := newTestEngine(t)

	res := e.Snapshot(context.Background(), "manual save")
	assert.False(t, res.Success, "temp dir is not a git repo")

	versions := e.Versions()
	require.Len(t, versions, 1)
	assert.Equal(t, "manual save", versions[0].Message)
}
