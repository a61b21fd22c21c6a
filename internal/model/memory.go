// Package model defines the core memory data types.
package model

// Priority is the importance tier of a memory, written as a single
// bracket letter in the note log: [C], [I] or [N].
type Priority string

const (
	Critical  Priority = "C"
	Important Priority = "I"
	Normal    Priority = "N"
)

// Valid reports whether p is one of the three known tiers.
func (p Priority) Valid() bool {
	return p == Critical || p == Important || p == Normal
}

// ParsePriority maps a single tag letter (any case) to a Priority.
// Unknown letters fall back to Normal.
func ParsePriority(s string) Priority {
	switch s {
	case "C", "c":
		return Critical
	case "I", "i":
		return Important
	default:
		return Normal
	}
}

// SearchBoost is the score multiplier applied to search results by tier.
func (p Priority) SearchBoost() float64 {
	switch p {
	case Critical:
		return 1.3
	case Important:
		return 1.1
	default:
		return 1.0
	}
}

// TagWeight is the multiplier applied to tag weights in the tag index.
func (p Priority) TagWeight() float64 {
	switch p {
	case Critical:
		return 1.5
	case Important:
		return 1.2
	default:
		return 1.0
	}
}

// ParsedNote is the result of priority classification over raw text.
type ParsedNote struct {
	Original string   `json:"original"`
	Priority Priority `json:"priority"`
	Content  string   `json:"content"`
	Explicit bool     `json:"explicit"`
}

// MemorySegment is one stored, classified unit of note text.
// Immutable once indexed except for keyword/category re-derivation
// on a rebuild.
type MemorySegment struct {
	ID         string   `json:"id"`
	Content    string   `json:"content"`
	Source     string   `json:"source"`
	LineNumber int      `json:"line_number"`
	Category   string   `json:"category,omitempty"`
	Priority   Priority `json:"priority"`
	Keywords   []string `json:"keywords"`
}

// SearchResult is a ranked hit returned by the keyword index.
type SearchResult struct {
	Content    string   `json:"content"`
	Score      float64  `json:"score"`
	Source     string   `json:"source"`
	LineNumber int      `json:"line_number"`
	Category   string   `json:"category,omitempty"`
	Priority   Priority `json:"priority"`
}
