// Package pattern tracks how often each coding idiom recurs across a
// repository and turns that into guidance an AI assistant can act on:
// which name is the team's canonical choice for a category, whether usage
// of a pattern is rising, stable, or declining, and a short natural
// language sentence to surface in a preflight card.
package pattern

import "time"

// Category groups related pattern names, e.g. "error-handling" groups
// "wrap-with-%w" and "sentinel-errors".
type Category string

// Occurrence is one observed use of a pattern in a file.
type Occurrence struct {
	Category  Category
	Name      string
	FilePath  string
	Line      int
	ModTime   time.Time // from git log or filesystem mtime
	InCoreDir bool       // true if FilePath sits under a "core" or "shared" directory
}

// NameState aggregates every occurrence of one (Category, Name) pair.
type NameState struct {
	Category        Category
	Name            string
	Count           int
	Occurrences     []Occurrence
	CanonicalFile   string
	CanonicalLine   int
}

// Trend classifies how a pattern's usage is moving over time. The zero
// value means no timestamp was available to classify.
type Trend string

const (
	TrendRising    Trend = "rising"
	TrendStable    Trend = "stable"
	TrendDeclining Trend = "declining"
)

// CanonicalExample points at the representative occurrence selected for a
// name: the file (and line) a reader should look at to see the pattern in
// practice.
type CanonicalExample struct {
	FilePath string
	Line     int
}

// PatternConsensusEntry is one name's rendering within a category's
// consensus: its share of occurrences, trend, and the guidance sentence
// derived from the guidance table.
type PatternConsensusEntry struct {
	Name             string
	Count            int
	FrequencyPct     float64
	Trend            Trend
	Guidance         string
	CanonicalExample *CanonicalExample
}

// Consensus is the derived view of a category: the leading name plus up to
// three runner-up alternatives, each carrying its own frequency, trend, and
// guidance. Nil when no name has a strict lead (e.g. a tie for first).
type Consensus struct {
	Primary      *PatternConsensusEntry
	AlsoDetected []*PatternConsensusEntry
}

// CategoryState is the full consensus view for one category: every name
// observed, their counts, and which one the team has converged on.
type CategoryState struct {
	Category  Category
	Names     map[string]*NameState
	Consensus *Consensus
}
