// Package config loads recall configuration from an optional YAML file
// with RECALL_-prefixed environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all tunable engine parameters. The numeric defaults are
// heuristics carried over from earlier versions of the system; treat
// them as starting points, not derived truths.
type Config struct {
	Dedup    DedupConfig    `yaml:"dedup"`
	Decay    DecayConfig    `yaml:"decay"`
	Classify ClassifyConfig `yaml:"classify"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
}

// DedupConfig controls the deduplication gate.
type DedupConfig struct {
	// Threshold is the similarity ratio above which a note is rejected.
	Threshold float64 `yaml:"threshold"`
	// CategoryBased limits similarity checks to the same category.
	CategoryBased bool `yaml:"category_based"`
}

// DecayConfig controls the heat tracker.
type DecayConfig struct {
	// Exponential selects exp(-rate*days); false selects (1-rate)^days.
	Exponential      bool    `yaml:"exponential"`
	ArchiveThreshold float64 `yaml:"archive_threshold"`
	DeleteThreshold  float64 `yaml:"delete_threshold"`
}

// ClassifyConfig controls the priority and topic classifiers.
type ClassifyConfig struct {
	// AutoDetect enables keyword-based priority detection.
	AutoDetect bool `yaml:"auto_detect"`
	// EscalateLength promotes Important notes at or above this rune
	// count to Critical. Zero disables escalation.
	EscalateLength int `yaml:"escalate_length"`
	// MergeThreshold is the Jaccard similarity for merge suggestions.
	MergeThreshold float64 `yaml:"merge_threshold"`
}

// SnapshotConfig controls the revision-control wrapper.
type SnapshotConfig struct {
	// GitCommit enables a git commit after each accepted note.
	GitCommit bool `yaml:"git_commit"`
	// TimeoutSeconds bounds each git subprocess call.
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Dedup: DedupConfig{
			Threshold:     0.85,
			CategoryBased: true,
		},
		Decay: DecayConfig{
			Exponential:      true,
			ArchiveThreshold: 0.3,
			DeleteThreshold:  0.05,
		},
		Classify: ClassifyConfig{
			AutoDetect:     true,
			EscalateLength: 200,
			MergeThreshold: 0.7,
		},
		Snapshot: SnapshotConfig{
			GitCommit:      false,
			TimeoutSeconds: 30,
		},
	}
}

// Load reads config.yaml under dataDir when present, then applies
// environment overrides. A missing file is not an error; a malformed
// one is.
func Load(dataDir string) (Config, error) {
	cfg := Default()

	path := filepath.Join(dataDir, "config.yaml")
	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv overlays RECALL_* environment variables onto cfg.
func applyEnv(cfg *Config) {
	envFloat("RECALL_DEDUP_THRESHOLD", &cfg.Dedup.Threshold)
	envBool("RECALL_DEDUP_CATEGORY_BASED", &cfg.Dedup.CategoryBased)
	envBool("RECALL_DECAY_EXPONENTIAL", &cfg.Decay.Exponential)
	envFloat("RECALL_DECAY_ARCHIVE_THRESHOLD", &cfg.Decay.ArchiveThreshold)
	envFloat("RECALL_DECAY_DELETE_THRESHOLD", &cfg.Decay.DeleteThreshold)
	envBool("RECALL_CLASSIFY_AUTO_DETECT", &cfg.Classify.AutoDetect)
	envInt("RECALL_CLASSIFY_ESCALATE_LENGTH", &cfg.Classify.EscalateLength)
	envFloat("RECALL_CLASSIFY_MERGE_THRESHOLD", &cfg.Classify.MergeThreshold)
	envBool("RECALL_SNAPSHOT_GIT_COMMIT", &cfg.Snapshot.GitCommit)
	envInt("RECALL_SNAPSHOT_TIMEOUT_SECONDS", &cfg.Snapshot.TimeoutSeconds)
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envBool(key string, dst *bool) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
