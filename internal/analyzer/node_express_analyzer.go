package analyzer

import (
	"regexp"
	"strings"

	"github.com/sourcelens-dev/sourcelens/internal/chunk"
)

// NodeExpressAnalyzer recognizes Express.js middleware and routing idioms:
// whether routes are registered inline on the app/router object or grouped
// through a dedicated router module, and whether middleware is applied
// globally (app.use) or scoped per-route.
type NodeExpressAnalyzer struct{}

// Name identifies this analyzer.
func (a *NodeExpressAnalyzer) Name() string { return "node-express" }

// Priority places this ahead of GoAnalyzer and the generic fallback.
func (a *NodeExpressAnalyzer) Priority() int { return 55 }

var (
	expressRouteRegistration  = regexp.MustCompile(`\b(?:app|router)\.(get|post|put|delete|patch)\(`)
	expressPerRouteMiddleware = regexp.MustCompile(`\b(?:app|router)\.(get|post|put|delete|patch)\([^)]*,[^)]*,`)
)

// CanAnalyze reports whether c looks like Express route/middleware code.
func (a *NodeExpressAnalyzer) CanAnalyze(c *chunk.Chunk) bool {
	if c.Language != "typescript" && c.Language != "javascript" {
		return false
	}
	content := c.Content
	return strings.Contains(content, "express") || expressRouteRegistration.MatchString(content) ||
		strings.Contains(content, "app.use(")
}

// Analyze detects Express routing/middleware idioms in c.
func (a *NodeExpressAnalyzer) Analyze(c *chunk.Chunk) []Pattern {
	var patterns []Pattern
	content := c.Content

	if strings.Contains(content, "express.Router()") {
		patterns = append(patterns, Pattern{Category: "route-registration", Name: "dedicated-router-module"})
	} else if expressRouteRegistration.MatchString(content) {
		patterns = append(patterns, Pattern{Category: "route-registration", Name: "inline-app-routes"})
	}

	if strings.Contains(content, "app.use(") {
		patterns = append(patterns, Pattern{Category: "middleware-scope", Name: "global-middleware"})
	}
	if expressPerRouteMiddleware.MatchString(content) {
		patterns = append(patterns, Pattern{Category: "middleware-scope", Name: "per-route-middleware"})
	}

	return patterns
}
