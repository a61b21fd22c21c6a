package dedup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persistent wraps Deduper with a JSON snapshot that is reloaded at
// startup and fully rewritten after every acceptance.
type Persistent struct {
	*Deduper
	path string
}

type snapshot struct {
	Threshold     float64             `json:"threshold"`
	CategoryBased bool                `json:"category_based"`
	SavedHashes   []string            `json:"saved_hashes"`
	SavedContents map[string][]string `json:"saved_contents"`
}

// NewPersistent creates a snapshot-backed gate. A missing snapshot
// starts empty; a corrupt one is discarded.
func NewPersistent(path string, threshold float64, categoryBased bool) *Persistent {
	p := &Persistent{
		Deduper: New(threshold, categoryBased),
		path:    path,
	}
	p.load()
	return p
}

func (p *Persistent) load() {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return
	}
	if snap.Threshold > 0 {
		p.threshold = snap.Threshold
	}
	p.categoryBased = snap.CategoryBased
	for _, h := range snap.SavedHashes {
		p.hashes[h] = true
	}
	if snap.SavedContents != nil {
		p.contents = snap.SavedContents
	}
}

// Save records accepted content and rewrites the snapshot.
func (p *Persistent) Save(content, category string) error {
	p.Deduper.Save(content, category)
	return p.sync()
}

func (p *Persistent) sync() error {
	snap := snapshot{
		Threshold:     p.threshold,
		CategoryBased: p.categoryBased,
		SavedHashes:   p.sortedHashes(),
		SavedContents: p.contents,
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o755); err != nil {
		return fmt.Errorf("create dedup dir: %w", err)
	}
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.path, data, 0o644); err != nil {
		return fmt.Errorf("write dedup snapshot: %w", err)
	}
	return nil
}
