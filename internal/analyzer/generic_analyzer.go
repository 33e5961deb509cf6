package analyzer

import "github.com/sourcelens-dev/sourcelens/internal/chunk"

// GenericAnalyzer applies to any chunk the language registry recognizes,
// regardless of framework. It's the floor of the registry: it only reports
// a symbol-density signal, since anything idiom-specific belongs to a more
// targeted analyzer.
type GenericAnalyzer struct{}

// Name identifies this analyzer.
func (a *GenericAnalyzer) Name() string { return "generic" }

// Priority is zero: GenericAnalyzer always runs, and its patterns never
// take precedence over a more specific analyzer's.
func (a *GenericAnalyzer) Priority() int { return 0 }

// CanAnalyze always returns true; this is the catch-all analyzer.
func (a *GenericAnalyzer) CanAnalyze(c *chunk.Chunk) bool { return true }

// Analyze reports a coarse symbol-density bucket for c, useful for tracking
// whether a codebase trends toward many small functions or few large ones.
func (a *GenericAnalyzer) Analyze(c *chunk.Chunk) []Pattern {
	n := len(c.Symbols)
	switch {
	case n == 0:
		return nil
	case n == 1:
		return []Pattern{{Category: "chunk-granularity", Name: "single-symbol-chunk"}}
	default:
		return []Pattern{{Category: "chunk-granularity", Name: "multi-symbol-chunk"}}
	}
}
