package analyzer

import (
	"strings"

	"github.com/sourcelens-dev/sourcelens/internal/chunk"
)

// TypeScriptReactAnalyzer recognizes React component idioms: hooks-based
// function components versus class components, and whether a component
// pairs useState with useEffect (a common reactivity pattern worth tracking
// for consensus).
type TypeScriptReactAnalyzer struct{}

// Name identifies this analyzer.
func (a *TypeScriptReactAnalyzer) Name() string { return "typescript-react" }

// Priority places this ahead of GoAnalyzer and the generic fallback, since a
// .tsx file with JSX is unambiguously a React file once detected.
func (a *TypeScriptReactAnalyzer) Priority() int { return 60 }

// CanAnalyze reports whether c looks like React source: a TS/JS/TSX/JSX
// file whose content actually imports or references React.
func (a *TypeScriptReactAnalyzer) CanAnalyze(c *chunk.Chunk) bool {
	if c.Language != "typescript" && c.Language != "javascript" {
		return false
	}
	content := c.Content
	return strings.Contains(content, "react") || strings.Contains(content, "React") ||
		strings.Contains(content, "useState") || strings.Contains(content, "extends Component")
}

// Analyze detects React component idioms in c.
func (a *TypeScriptReactAnalyzer) Analyze(c *chunk.Chunk) []Pattern {
	var patterns []Pattern
	content := c.Content

	hasHooks := strings.Contains(content, "useState(") || strings.Contains(content, "useEffect(") ||
		strings.Contains(content, "useContext(") || strings.Contains(content, "useReducer(")
	isClass := strings.Contains(content, "extends Component") || strings.Contains(content, "extends React.Component")

	switch {
	case isClass:
		patterns = append(patterns, Pattern{Category: "react-component-style", Name: "class-component"})
	case hasHooks:
		patterns = append(patterns, Pattern{Category: "react-component-style", Name: "hooks-function-component"})
	}

	if strings.Contains(content, "useState(") && strings.Contains(content, "useEffect(") {
		patterns = append(patterns, Pattern{Category: "react-reactivity", Name: "state-plus-effect"})
	}

	return patterns
}
