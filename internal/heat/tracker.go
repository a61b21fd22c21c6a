// Package heat tracks access recency and frequency per memory and
// computes time-decayed relevance scores used for cleanup decisions.
package heat

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/cwhuang/recall/internal/model"
)

// Record is the heat state of one memory.
type Record struct {
	MemoryID     string         `json:"memory_id"`
	ContentHash  string         `json:"content_hash"`
	Priority     model.Priority `json:"priority"`
	CreatedAt    float64        `json:"created_at"`
	LastAccessed float64        `json:"last_accessed"`
	AccessCount  int            `json:"access_count"`
	DecayScore   float64        `json:"decay_score"`
}

// Config holds the decay model parameters. Thresholds and rates are
// heuristic; they are configuration, not constants.
type Config struct {
	// Exponential selects score*exp(-rate*days); otherwise the linear
	// model score*(1-rate)^days is used.
	Exponential bool

	// Per-priority exponential rate constants. Critical must stay zero:
	// critical memories never decay.
	CriticalRate  float64
	ImportantRate float64
	NormalRate    float64

	// Per-priority access bonuses.
	CriticalBonus  float64
	ImportantBonus float64
	NormalBonus    float64

	MaxScore float64

	// InitialScore seeds new records; critical memories start at
	// CriticalInitialScore so they outrank fresh lower tiers.
	InitialScore         float64
	CriticalInitialScore float64

	ArchiveThreshold float64
	DeleteThreshold  float64
}

// DefaultConfig matches half-lives of 90 days for Important and 30
// days for Normal under the exponential model.
func DefaultConfig() Config {
	return Config{
		Exponential:      true,
		CriticalRate:     0,
		ImportantRate:    math.Ln2 / 90,
		NormalRate:       math.Ln2 / 30,
		CriticalBonus:    0.1,
		ImportantBonus:   0.15,
		NormalBonus:      0.2,
		MaxScore:             1.5,
		InitialScore:         1.0,
		CriticalInitialScore: 1.5,
		ArchiveThreshold:     0.3,
		DeleteThreshold:      0.05,
	}
}

// LinearRates switches cfg to the legacy linear model with its daily
// rates.
func (c Config) LinearRates() Config {
	c.Exponential = false
	c.ImportantRate = 0.02
	c.NormalRate = 0.1
	return c
}

// Tracker maintains the heat map and its JSON snapshot.
type Tracker struct {
	cachePath string
	cfg       Config
	records   map[string]*Record
	now       func() time.Time
}

// NewTracker loads the heat snapshot at cachePath (missing or corrupt
// snapshots start empty). Pass "" to keep state in memory only.
func NewTracker(cachePath string, cfg Config) *Tracker {
	t := &Tracker{
		cachePath: cachePath,
		cfg:       cfg,
		records:   make(map[string]*Record),
		now:       time.Now,
	}
	t.load()
	return t
}

func (t *Tracker) rate(p model.Priority) float64 {
	switch p {
	case model.Critical:
		return t.cfg.CriticalRate
	case model.Important:
		return t.cfg.ImportantRate
	default:
		return t.cfg.NormalRate
	}
}

func (t *Tracker) initial(p model.Priority) float64 {
	if p == model.Critical {
		return t.cfg.CriticalInitialScore
	}
	return t.cfg.InitialScore
}

func (t *Tracker) bonus(p model.Priority) float64 {
	switch p {
	case model.Critical:
		return t.cfg.CriticalBonus
	case model.Important:
		return t.cfg.ImportantBonus
	default:
		return t.cfg.NormalBonus
	}
}

// Register creates a heat record for a new memory. If the content hash
// is already tracked under another id, the existing record is touched
// instead.
func (t *Tracker) Register(memoryID, contentHash string, pri model.Priority) error {
	for _, r := range t.records {
		if r.ContentHash == contentHash {
			return t.RecordAccess(r.MemoryID)
		}
	}
	now := float64(t.now().Unix())
	t.records[memoryID] = &Record{
		MemoryID:     memoryID,
		ContentHash:  contentHash,
		Priority:     pri,
		CreatedAt:    now,
		LastAccessed: now,
		AccessCount:  1,
		DecayScore:   t.initial(pri),
	}
	return t.save()
}

// RecordAccess bumps the access stats and applies the priority bonus,
// clamped to the max score. Unknown ids are ignored.
func (t *Tracker) RecordAccess(memoryID string) error {
	r, ok := t.records[memoryID]
	if !ok {
		return nil
	}
	r.LastAccessed = float64(t.now().Unix())
	r.AccessCount++
	r.DecayScore = math.Min(r.DecayScore+t.bonus(r.Priority), t.cfg.MaxScore)
	return t.save()
}

// Score returns the current decayed score without mutating the record.
func (t *Tracker) Score(memoryID string) float64 {
	r, ok := t.records[memoryID]
	if !ok {
		return 0
	}
	return t.decayed(r)
}

func (t *Tracker) decayed(r *Record) float64 {
	rate := t.rate(r.Priority)
	if rate == 0 {
		return r.DecayScore
	}
	days := (float64(t.now().Unix()) - r.LastAccessed) / 86400
	if days < 0 {
		days = 0
	}
	var score float64
	if t.cfg.Exponential {
		score = r.DecayScore * math.Exp(-rate*days)
	} else {
		score = r.DecayScore * math.Pow(1-rate, days)
	}
	return math.Max(score, 0)
}

// Decay applies decay to one memory, or to all when memoryID is "".
// Returns the updated scores.
func (t *Tracker) Decay(memoryID string) (map[string]float64, error) {
	out := make(map[string]float64)
	apply := func(r *Record) {
		r.DecayScore = t.decayed(r)
		out[r.MemoryID] = r.DecayScore
	}
	if memoryID != "" {
		if r, ok := t.records[memoryID]; ok {
			apply(r)
		}
	} else {
		for _, r := range t.records {
			apply(r)
		}
	}
	return out, t.save()
}

// Scored pairs a memory id with its score.
type Scored struct {
	MemoryID string  `json:"memory_id"`
	Score    float64 `json:"score"`
}

// CleanupSuggestions applies decay, then partitions non-critical
// memories into archive (below the archive threshold) and delete
// (below the lower delete threshold) lists, each sorted ascending by
// score. Critical memories are never candidates.
func (t *Tracker) CleanupSuggestions() (archive, del []Scored, err error) {
	if _, err := t.Decay(""); err != nil {
		return nil, nil, err
	}
	for _, r := range t.records {
		if r.Priority == model.Critical {
			continue
		}
		switch {
		case r.DecayScore < t.cfg.DeleteThreshold:
			del = append(del, Scored{r.MemoryID, r.DecayScore})
		case r.DecayScore < t.cfg.ArchiveThreshold:
			archive = append(archive, Scored{r.MemoryID, r.DecayScore})
		}
	}
	byScore := func(s []Scored) {
		sort.Slice(s, func(i, j int) bool {
			if s[i].Score != s[j].Score {
				return s[i].Score < s[j].Score
			}
			return s[i].MemoryID < s[j].MemoryID
		})
	}
	byScore(archive)
	byScore(del)
	return archive, del, nil
}

// HotMemories returns the top-N memories by current decayed score.
func (t *Tracker) HotMemories(topN int) []Scored {
	if topN <= 0 {
		topN = 10
	}
	out := make([]Scored, 0, len(t.records))
	for _, r := range t.records {
		out = append(out, Scored{r.MemoryID, t.decayed(r)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].MemoryID < out[j].MemoryID
	})
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}

// Boost manually raises a memory's score, clamped to the max.
func (t *Tracker) Boost(memoryID string, amount float64) error {
	r, ok := t.records[memoryID]
	if !ok {
		return fmt.Errorf("unknown memory %q", memoryID)
	}
	r.DecayScore = math.Min(r.DecayScore+amount, t.cfg.MaxScore)
	return t.save()
}

// UpdatePriority changes a memory's tier and decay behavior.
// Promoting to Critical also lifts the score back to at least the
// critical initial value.
func (t *Tracker) UpdatePriority(memoryID string, pri model.Priority) error {
	r, ok := t.records[memoryID]
	if !ok {
		return fmt.Errorf("unknown memory %q", memoryID)
	}
	r.Priority = pri
	if pri == model.Critical {
		r.DecayScore = math.Max(r.DecayScore, t.cfg.CriticalInitialScore)
	}
	return t.save()
}

// Remove drops records, e.g. after their memories were archived.
func (t *Tracker) Remove(memoryIDs ...string) error {
	for _, id := range memoryIDs {
		delete(t.records, id)
	}
	return t.save()
}

// Get returns a copy of the record for a memory id.
func (t *Tracker) Get(memoryID string) (Record, bool) {
	r, ok := t.records[memoryID]
	if !ok {
		return Record{}, false
	}
	return *r, true
}

// Len reports the number of tracked memories.
func (t *Tracker) Len() int { return len(t.records) }

// Summary aggregates heat statistics per priority.
type Summary struct {
	TotalMemories int                    `json:"total_memories"`
	AvgScore      float64                `json:"avg_score"`
	ByPriority    map[model.Priority]int `json:"by_priority"`
}

// GetSummary reports aggregate heat statistics.
func (t *Tracker) GetSummary() Summary {
	s := Summary{ByPriority: map[model.Priority]int{
		model.Critical: 0, model.Important: 0, model.Normal: 0,
	}}
	if len(t.records) == 0 {
		return s
	}
	total := 0.0
	for _, r := range t.records {
		s.ByPriority[r.Priority]++
		total += t.decayed(r)
	}
	s.TotalMemories = len(t.records)
	s.AvgScore = total / float64(len(t.records))
	return s
}

type heatSnapshot struct {
	LastUpdated float64            `json:"last_updated"`
	HeatMap     map[string]*Record `json:"heat_map"`
}

func (t *Tracker) load() {
	if t.cachePath == "" {
		return
	}
	data, err := os.ReadFile(t.cachePath)
	if err != nil {
		return
	}
	var snap heatSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return
	}
	if snap.HeatMap != nil {
		t.records = snap.HeatMap
	}
}

func (t *Tracker) save() error {
	if t.cachePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.cachePath), 0o755); err != nil {
		return fmt.Errorf("create heat dir: %w", err)
	}
	data, err := json.MarshalIndent(heatSnapshot{
		LastUpdated: float64(t.now().Unix()),
		HeatMap:     t.records,
	}, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(t.cachePath, data, 0o644); err != nil {
		return fmt.Errorf("write heat snapshot: %w", err)
	}
	return nil
}
