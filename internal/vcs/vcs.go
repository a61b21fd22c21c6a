// Package vcs snapshots the memory data directory with git and keeps a
// local versions.json log. Git failures are reported in the Result, not
// returned as errors; a missing git binary or repo must never block a
// memory write.
package vcs

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Result reports the outcome of one snapshot attempt.
type Result struct {
	Success    bool   `json:"success"`
	CommitHash string `json:"commit_hash,omitempty"`
	Message    string `json:"message"`
}

// Version is one entry of the local version log.
type Version struct {
	ID         string    `json:"id"`
	Message    string    `json:"message"`
	CommitHash string    `json:"commit_hash,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Snapshotter commits the data directory and appends to versions.json.
type Snapshotter struct {
	dir     string
	logPath string
	timeout time.Duration
	entropy *rand.Rand
}

// NewSnapshotter builds a snapshotter for the given data directory.
func NewSnapshotter(dir string, timeout time.Duration) *Snapshotter {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Snapshotter{
		dir:     dir,
		logPath: filepath.Join(dir, "versions.json"),
		timeout: timeout,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Snapshot stages the data directory and commits it with the given
// message. The version log entry is written even when git fails, so the
// local history stays complete on machines without a repo.
func (s *Snapshotter) Snapshot(ctx context.Context, message string) Result {
	res := s.commit(ctx, message)

	v := Version{
		ID:         ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String(),
		Message:    message,
		CommitHash: res.CommitHash,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.appendVersion(v); err != nil {
		res.Message = fmt.Sprintf("%s; version log: %v", res.Message, err)
	}
	return res
}

func (s *Snapshotter) commit(ctx context.Context, message string) Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.git(ctx, "add", "-A"); err != nil {
		return Result{Success: false, Message: fmt.Sprintf("git add: %v", err)}
	}

	out, err := s.git(ctx, "commit", "-m", message)
	if err != nil {
		// "nothing to commit" is not a failure worth surfacing loudly,
		// but the snapshot did not produce a commit either way.
		return Result{Success: false, Message: fmt.Sprintf("git commit: %v: %s", err, strings.TrimSpace(out))}
	}

	hash, err := s.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return Result{Success: true, Message: "committed, hash unavailable"}
	}
	return Result{Success: true, CommitHash: strings.TrimSpace(hash), Message: "committed"}
}

func (s *Snapshotter) git(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = s.dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// Versions returns the local version log, oldest first. A missing or
// corrupt log reads as empty.
func (s *Snapshotter) Versions() []Version {
	data, err := os.ReadFile(s.logPath)
	if err != nil {
		return nil
	}
	var versions []Version
	if err := json.Unmarshal(data, &versions); err != nil {
		return nil
	}
	return versions
}

func (s *Snapshotter) appendVersion(v Version) error {
	versions := s.Versions()
	versions = append(versions, v)

	data, err := json.MarshalIndent(versions, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.logPath, data, 0o644)
}
