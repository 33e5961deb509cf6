package analyzer

import (
	"strings"

	"github.com/sourcelens-dev/sourcelens/internal/chunk"
)

// GoAnalyzer recognizes a handful of idioms common to Go codebases:
// constructor-injection vs functional-options dependency wiring, explicit
// context propagation, and error-wrapping style.
type GoAnalyzer struct{}

// Name identifies this analyzer.
func (a *GoAnalyzer) Name() string { return "go" }

// Priority places GoAnalyzer ahead of the generic fallback.
func (a *GoAnalyzer) Priority() int { return 50 }

// CanAnalyze reports whether c is Go source.
func (a *GoAnalyzer) CanAnalyze(c *chunk.Chunk) bool {
	return c.Language == "go"
}

// Analyze detects Go-specific idioms in c.
func (a *GoAnalyzer) Analyze(c *chunk.Chunk) []Pattern {
	var patterns []Pattern
	content := c.RawContent
	if content == "" {
		content = c.Content
	}

	for _, sym := range c.Symbols {
		if sym.Type != chunk.SymbolTypeFunction && sym.Type != chunk.SymbolTypeMethod {
			continue
		}
		if style := diStyle(sym.Name, sym.Signature); style != "" {
			patterns = append(patterns, Pattern{Category: "dependency-injection", Name: style})
		}
		if strings.Contains(sym.Signature, "context.Context") {
			patterns = append(patterns, Pattern{Category: "context-propagation", Name: "explicit-context-param"})
		}
	}

	switch {
	case strings.Contains(content, "fmt.Errorf") && strings.Contains(content, "%w"):
		patterns = append(patterns, Pattern{Category: "error-wrapping", Name: "wrap-with-%w"})
	case strings.Contains(content, "errors.Wrap("):
		patterns = append(patterns, Pattern{Category: "error-wrapping", Name: "pkg-errors-wrap"})
	}

	return patterns
}

// diStyle classifies a Go constructor by its parameter shape: a functional-
// options constructor takes variadic Option values, while a constructor-
// injection one takes its collaborators as plain positional parameters.
func diStyle(name, signature string) string {
	if !strings.HasPrefix(name, "New") {
		return ""
	}
	switch {
	case strings.Contains(signature, "...Option") || strings.Contains(signature, "...func("):
		return "functional-options"
	case strings.Contains(signature, "("):
		if strings.Contains(signature, "()") {
			return ""
		}
		return "constructor-injection"
	}
	return ""
}
