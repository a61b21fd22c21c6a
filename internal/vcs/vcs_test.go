package vcs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "MEMORY.md"), []byte("note\n"), 0o644))

	s := NewSnapshotter(dir, time.Second)
	res := s.Snapshot(context.Background(), "save note")

	// TempDir is not a git repo, so the commit fails but the call
	// still returns and logs a version.
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)

	versions := s.Versions()
	require.Len(t, versions, 1)
	assert.Equal(t, "save note", versions[0].Message)
	assert.NotEmpty(t, versions[0].ID)
	assert.Empty(t, versions[0].CommitHash)
}

func TestVersionLogAccumulates(t *testing.T) {
	dir := t.TempDir()
	s := NewSnapshotter(dir, time.Second)

	s.Snapshot(context.Background(), "first")
	s.Snapshot(context.Background(), "second")

	versions := s.Versions()
	require.Len(t, versions, 2)
	assert.Equal(t, "first", versions[0].Message)
	assert.Equal(t, "second", versions[1].Message)
	assert.NotEqual(t, versions[0].ID, versions[1].ID)
}

func TestVersionsMissingLog(t *testing.T) {
	s := NewSnapshotter(t.TempDir(), time.Second)
	assert.Nil(t, s.Versions())
}

func TestVersionsCorruptLog(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "versions.json"), []byte("{broken"), 0o644))

	s := NewSnapshotter(dir, time.Second)
	assert.Nil(t, s.Versions())
}
