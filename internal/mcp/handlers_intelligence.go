package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/sourcelens-dev/sourcelens/internal/chunk"
	"github.com/sourcelens-dev/sourcelens/internal/graph"
	"github.com/sourcelens-dev/sourcelens/internal/memory"
	"github.com/sourcelens-dev/sourcelens/internal/refs"
)

// getMemoryStore returns the server's memory.Store, creating it (and its
// backing directory) on first use.
func (s *Server) getMemoryStore() (*memory.Store, error) {
	s.memoryMu.Lock()
	defer s.memoryMu.Unlock()
	if s.memoryStore == nil {
		store, err := memory.NewStore(s.dataDir)
		if err != nil {
			return nil, err
		}
		s.memoryStore = store
	}
	return s.memoryStore, nil
}

// mcpGetSymbolReferencesHandler is the MCP SDK handler for get_symbol_references.
func (s *Server) mcpGetSymbolReferencesHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetSymbolReferencesInput) (
	*mcp.CallToolResult,
	GetSymbolReferencesOutput,
	error,
) {
	if strings.TrimSpace(input.Symbol) == "" {
		return nil, GetSymbolReferencesOutput{}, NewInvalidParamsError("symbol parameter is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	found, err := s.findReferences(ctx, input.Symbol)
	if err != nil {
		return nil, GetSymbolReferencesOutput{}, MapError(err)
	}

	output := GetSymbolReferencesOutput{Symbol: input.Symbol}
	if len(found) > limit {
		output.Truncated = true
		found = found[:limit]
	}
	for _, r := range found {
		output.References = append(output.References, SymbolReferenceOutput{
			FilePath: r.FilePath,
			Line:     r.Line,
			Column:   r.Column,
			Snippet:  r.Snippet,
		})
	}
	return nil, output, nil
}

// mcpGetComponentUsageHandler is the MCP SDK handler for get_component_usage.
func (s *Server) mcpGetComponentUsageHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetComponentUsageInput) (
	*mcp.CallToolResult,
	GetComponentUsageOutput,
	error,
) {
	if strings.TrimSpace(input.Component) == "" {
		return nil, GetComponentUsageOutput{}, NewInvalidParamsError("component parameter is required")
	}

	// SearchSymbols confirms the component is a known declared symbol and
	// gives the caller a cheap "does this exist" signal even when usage is
	// zero; the store doesn't expose each symbol's defining file, so
	// defined-in is reported by the finder pass below instead.
	if _, err := s.metadata.SearchSymbols(ctx, input.Component, 20); err != nil {
		return nil, GetComponentUsageOutput{}, MapError(err)
	}

	found, err := s.findReferences(ctx, input.Component)
	if err != nil {
		return nil, GetComponentUsageOutput{}, MapError(err)
	}

	output := GetComponentUsageOutput{Component: input.Component}
	seen := make(map[string]bool)
	for _, r := range found {
		if !seen[r.FilePath] {
			seen[r.FilePath] = true
			output.UsedInFiles = append(output.UsedInFiles, r.FilePath)
		}
		output.UsageCount++
	}
	sort.Strings(output.UsedInFiles)
	return nil, output, nil
}

// findReferences reads every indexed file from disk and runs the symbol
// reference finder over them. It serializes access to the shared
// tree-sitter-backed finder since go-tree-sitter parsers aren't safe for
// concurrent use.
func (s *Server) findReferences(ctx context.Context, symbol string) ([]refs.Reference, error) {
	paths, err := s.metadata.GetFilePathsByProject(ctx, s.projectID)
	if err != nil {
		return nil, err
	}

	registry := chunk.DefaultRegistry()
	sources := make([]refs.FileSource, 0, len(paths))
	for _, p := range paths {
		content, err := os.ReadFile(filepath.Join(s.rootPath, p))
		if err != nil {
			continue // file removed since indexing; skip rather than fail the whole call
		}
		lang := ""
		if cfg, ok := registry.GetByExtension(filepath.Ext(p)); ok {
			lang = cfg.Name
		}
		sources = append(sources, refs.FileSource{Path: p, Content: content, Language: lang})
	}

	s.refsMu.Lock()
	defer s.refsMu.Unlock()
	return s.refsFinder.FindReferences(ctx, symbol, sources), nil
}

// mcpGetTeamPatternsHandler is the MCP SDK handler for get_team_patterns.
func (s *Server) mcpGetTeamPatternsHandler(_ context.Context, _ *mcp.CallToolRequest, _ GetTeamPatternsInput) (
	*mcp.CallToolResult,
	GetTeamPatternsOutput,
	error,
) {
	intel, err := s.loadIntelligenceSnapshot()
	if err != nil {
		return nil, GetTeamPatternsOutput{}, MapError(err)
	}

	output := GetTeamPatternsOutput{}
	names := make([]string, 0, len(intel.Categories))
	for name := range intel.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cat := intel.Categories[name]
		if cat.Primary == nil {
			continue
		}
		output.Categories = append(output.Categories, TeamPatternOutput{
			Category:         name,
			Consensus:        cat.Primary.Name,
			FrequencyPct:     cat.Primary.FrequencyPct,
			Trend:            cat.Primary.Trend,
			Guidance:         cat.Primary.Guidance,
			CanonicalExample: canonicalExampleOutput(cat.Primary),
			AlsoDetected:     alsoDetectedOutputs(cat.AlsoDetected),
		})
	}
	for _, c := range intel.Conflicts {
		output.Conflicts = append(output.Conflicts, PatternConflictOutput{CategoryA: c.CategoryA, CategoryB: c.CategoryB})
	}
	return nil, output, nil
}

func alsoDetectedOutputs(entries []*patternEntrySnapshotFile) []TeamPatternAltOutput {
	var out []TeamPatternAltOutput
	for _, e := range entries {
		if e == nil {
			continue
		}
		out = append(out, TeamPatternAltOutput{
			Name:             e.Name,
			FrequencyPct:     e.FrequencyPct,
			Trend:            e.Trend,
			Guidance:         e.Guidance,
			CanonicalExample: canonicalExampleOutput(e),
		})
	}
	return out
}

func canonicalExampleOutput(e *patternEntrySnapshotFile) *CanonicalExampleOutput {
	if e == nil || e.CanonicalFile == "" {
		return nil
	}
	return &CanonicalExampleOutput{FilePath: e.CanonicalFile, Line: e.CanonicalLine}
}

// mcpGetStyleGuideHandler is the MCP SDK handler for get_style_guide.
func (s *Server) mcpGetStyleGuideHandler(_ context.Context, _ *mcp.CallToolRequest, _ GetStyleGuideInput) (
	*mcp.CallToolResult,
	GetStyleGuideOutput,
	error,
) {
	intel, err := s.loadIntelligenceSnapshot()
	if err != nil {
		return nil, GetStyleGuideOutput{}, MapError(err)
	}

	output := GetStyleGuideOutput{}
	names := make([]string, 0, len(intel.Categories))
	for name := range intel.Categories {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cat := intel.Categories[name]
		if cat.Primary == nil {
			continue
		}
		entry := TeamPatternOutput{
			Category:         name,
			Consensus:        cat.Primary.Name,
			FrequencyPct:     cat.Primary.FrequencyPct,
			Trend:            cat.Primary.Trend,
			Guidance:         cat.Primary.Guidance,
			CanonicalExample: canonicalExampleOutput(cat.Primary),
			AlsoDetected:     alsoDetectedOutputs(cat.AlsoDetected),
		}
		if cat.Primary.Trend == "declining" {
			output.Avoid = append(output.Avoid, entry)
		} else {
			output.Prefer = append(output.Prefer, entry)
		}
	}
	return nil, output, nil
}

// mcpDetectCircularDependenciesHandler is the MCP SDK handler for detect_circular_dependencies.
func (s *Server) mcpDetectCircularDependenciesHandler(_ context.Context, _ *mcp.CallToolRequest, _ DetectCircularDependenciesInput) (
	*mcp.CallToolResult,
	DetectCircularDependenciesOutput,
	error,
) {
	rel, err := s.loadRelationshipsSnapshot()
	if err != nil {
		return nil, DetectCircularDependenciesOutput{}, MapError(err)
	}

	output := DetectCircularDependenciesOutput{}
	for _, c := range rel.Cycles {
		output.Cycles = append(output.Cycles, CycleOutput{Files: c.Files})
	}
	for _, e := range rel.UnusedExports {
		output.UnusedExports = append(output.UnusedExports, ExportOutput{Name: e.Name, FilePath: e.FilePath, Line: e.Line})
	}
	return nil, output, nil
}

// mcpRememberHandler is the MCP SDK handler for remember.
func (s *Server) mcpRememberHandler(_ context.Context, _ *mcp.CallToolRequest, input RememberInput) (
	*mcp.CallToolResult,
	RememberOutput,
	error,
) {
	if strings.TrimSpace(input.Text) == "" {
		return nil, RememberOutput{}, NewInvalidParamsError("text parameter is required")
	}
	store, err := s.getMemoryStore()
	if err != nil {
		return nil, RememberOutput{}, MapError(err)
	}
	id, err := store.Remember(input.Text, input.Tags, time.Now())
	if err != nil {
		return nil, RememberOutput{}, MapError(err)
	}
	return nil, RememberOutput{ID: id}, nil
}

// mcpGetMemoryHandler is the MCP SDK handler for get_memory.
func (s *Server) mcpGetMemoryHandler(_ context.Context, _ *mcp.CallToolRequest, input GetMemoryInput) (
	*mcp.CallToolResult,
	GetMemoryOutput,
	error,
) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	store, err := s.getMemoryStore()
	if err != nil {
		return nil, GetMemoryOutput{}, MapError(err)
	}
	entries, err := store.Recall(input.Tag, limit)
	if err != nil {
		return nil, GetMemoryOutput{}, MapError(err)
	}

	output := GetMemoryOutput{}
	for _, e := range entries {
		output.Memories = append(output.Memories, MemoryEntryOutput{
			ID:        e.ID,
			Text:      e.Text,
			Tags:      e.Tags,
			CreatedAt: e.CreatedAt.Format(time.RFC3339),
		})
	}
	return nil, output, nil
}

// patternEntrySnapshotFile mirrors internal/index.patternEntrySnapshot.
type patternEntrySnapshotFile struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	FrequencyPct  float64 `json:"frequencyPct"`
	Trend         string  `json:"trend"`
	Guidance      string  `json:"guidance"`
	CanonicalFile string  `json:"canonicalFile,omitempty"`
	CanonicalLine int     `json:"canonicalLine,omitempty"`
}

// patternSnapshotFile mirrors internal/index.patternSnapshot.
type patternSnapshotFile struct {
	Primary      *patternEntrySnapshotFile   `json:"primary,omitempty"`
	AlsoDetected []*patternEntrySnapshotFile `json:"alsoDetected,omitempty"`
}

// conflictSnapshotFile mirrors internal/index.conflictSnapshot.
type conflictSnapshotFile struct {
	CategoryA string `json:"categoryA"`
	CategoryB string `json:"categoryB"`
}

// intelligenceSnapshotFile mirrors internal/index.intelligenceSnapshot; kept
// as a local, decoding-only type so this package doesn't need to depend on
// internal/index just to read the file it writes.
type intelligenceSnapshotFile struct {
	Categories map[string]patternSnapshotFile `json:"categories"`
	Conflicts  []conflictSnapshotFile         `json:"conflicts,omitempty"`
}

func (s *Server) loadIntelligenceSnapshot() (intelligenceSnapshotFile, error) {
	var snap intelligenceSnapshotFile
	data, err := os.ReadFile(filepath.Join(s.dataDir, "intelligence.json"))
	if os.IsNotExist(err) {
		return intelligenceSnapshotFile{Categories: map[string]patternSnapshotFile{}}, nil
	}
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, err
	}
	return snap, nil
}

// relationshipsSnapshotFile mirrors internal/index.relationshipsSnapshot.
type relationshipsSnapshotFile struct {
	Cycles        []graph.Cycle  `json:"cycles"`
	UnusedExports []graph.Export `json:"unusedExports"`
}

func (s *Server) loadRelationshipsSnapshot() (relationshipsSnapshotFile, error) {
	var snap relationshipsSnapshotFile
	data, err := os.ReadFile(filepath.Join(s.dataDir, "relationships.json"))
	if os.IsNotExist(err) {
		return relationshipsSnapshotFile{}, nil
	}
	if err != nil {
		return snap, err
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return snap, err
	}
	return snap, nil
}
