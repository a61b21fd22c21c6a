package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 0.85, cfg.Dedup.Threshold)
	assert.True(t, cfg.Dedup.CategoryBased)
	assert.True(t, cfg.Decay.Exponential)
	assert.Equal(t, 0.3, cfg.Decay.ArchiveThreshold)
	assert.Equal(t, 0.05, cfg.Decay.DeleteThreshold)
	assert.True(t, cfg.Classify.AutoDetect)
	assert.Equal(t, 200, cfg.Classify.EscalateLength)
	assert.False(t, cfg.Snapshot.GitCommit)
	assert.Equal(t, 30, cfg.Snapshot.TimeoutSeconds)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	body := `dedup:
  threshold: 0.9
  category_based: false
decay:
  exponential: false
  archive_threshold: 0.25
  delete_threshold: 0.02
classify:
  auto_detect: false
  escalate_length: 500
  merge_threshold: 0.6
snapshot:
  git_commit: true
  timeout_seconds: 10
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Dedup.Threshold)
	assert.False(t, cfg.Dedup.CategoryBased)
	assert.False(t, cfg.Decay.Exponential)
	assert.Equal(t, 0.25, cfg.Decay.ArchiveThreshold)
	assert.Equal(t, 0.02, cfg.Decay.DeleteThreshold)
	assert.False(t, cfg.Classify.AutoDetect)
	assert.Equal(t, 500, cfg.Classify.EscalateLength)
	assert.Equal(t, 0.6, cfg.Classify.MergeThreshold)
	assert.True(t, cfg.Snapshot.GitCommit)
	assert.Equal(t, 10, cfg.Snapshot.TimeoutSeconds)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	body := "dedup:\n  threshold: 0.75\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.75, cfg.Dedup.Threshold)
	assert.Equal(t, 0.3, cfg.Decay.ArchiveThreshold)
	assert.True(t, cfg.Classify.AutoDetect)
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("dedup: [not a map"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RECALL_DEDUP_THRESHOLD", "0.95")
	t.Setenv("RECALL_CLASSIFY_AUTO_DETECT", "false")
	t.Setenv("RECALL_CLASSIFY_ESCALATE_LENGTH", "100")
	t.Setenv("RECALL_SNAPSHOT_GIT_COMMIT", "true")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0.95, cfg.Dedup.Threshold)
	assert.False(t, cfg.Classify.AutoDetect)
	assert.Equal(t, 100, cfg.Classify.EscalateLength)
	assert.True(t, cfg.Snapshot.GitCommit)
}

func TestEnvOverridesBeatFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("dedup:\n  threshold: 0.5\n"), 0o644))
	t.Setenv("RECALL_DEDUP_THRESHOLD", "0.99")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 0.99, cfg.Dedup.Threshold)
}

func TestEnvInvalidValueIgnored(t *testing.T) {
	t.Setenv("RECALL_DEDUP_THRESHOLD", "not-a-number")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0.85, cfg.Dedup.Threshold)
}
