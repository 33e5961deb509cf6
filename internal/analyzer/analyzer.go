// Package analyzer detects framework- and language-specific idioms in a
// chunk's raw content — dependency-injection style, error-wrapping
// convention, hook usage, middleware registration — and records them as
// detectedPatterns metadata the pattern detector (internal/pattern) later
// tracks for team-wide consensus.
package analyzer

import "github.com/sourcelens-dev/sourcelens/internal/chunk"

// Analyzer inspects one chunk and reports the idioms it recognizes in it.
// Implementations are stateless and safe for concurrent use.
type Analyzer interface {
	// Name identifies the analyzer for logging and conflict resolution.
	Name() string

	// Priority orders analyzers when more than one CanAnalyze a chunk;
	// higher runs first and its patterns win a same-category conflict.
	Priority() int

	// CanAnalyze reports whether this analyzer applies to the chunk's
	// language/content.
	CanAnalyze(c *chunk.Chunk) bool

	// Analyze returns the patterns detected in c, as category/name pairs
	// ready for pattern.Occurrence.
	Analyze(c *chunk.Chunk) []Pattern
}

// Pattern is one idiom an analyzer recognized in a chunk.
type Pattern struct {
	Category string
	Name     string
}

// Registry holds the analyzers available for a run, in priority order.
type Registry struct {
	analyzers []Analyzer
}

// NewRegistry builds a registry from the given analyzers, sorted by
// descending priority so CanAnalyze is tried highest-priority first.
func NewRegistry(analyzers ...Analyzer) *Registry {
	sorted := make([]Analyzer, len(analyzers))
	copy(sorted, analyzers)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].Priority() > sorted[j-1].Priority(); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}
	return &Registry{analyzers: sorted}
}

// Default returns the registry shipped with the shipped analyzer set, the
// generic analyzer last so it only fires when nothing more specific did.
func Default() *Registry {
	return NewRegistry(
		&TypeScriptReactAnalyzer{},
		&NodeExpressAnalyzer{},
		&GoAnalyzer{},
		&GenericAnalyzer{},
	)
}

// Analyze runs every applicable analyzer against c and returns the union of
// detected patterns, highest-priority analyzer's patterns first.
func (r *Registry) Analyze(c *chunk.Chunk) []Pattern {
	var patterns []Pattern
	for _, a := range r.analyzers {
		if !a.CanAnalyze(c) {
			continue
		}
		patterns = append(patterns, a.Analyze(c)...)
	}
	return patterns
}
