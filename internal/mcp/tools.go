package mcp

// SearchCodeInput defines the input schema for the search_code tool.
type SearchCodeInput struct {
	Query      string   `json:"query" jsonschema:"the code search query to execute"`
	Language   string   `json:"language,omitempty" jsonschema:"filter by programming language (go, typescript, python)"`
	SymbolType string   `json:"symbol_type,omitempty" jsonschema:"filter by symbol type: function, class, interface, type, method, or any"`
	Limit      int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Scope      []string `json:"scope,omitempty" jsonschema:"filter by path prefixes (OR logic)"`
}

// SearchDocsInput defines the input schema for the search_docs tool.
type SearchDocsInput struct {
	Query string   `json:"query" jsonschema:"the documentation search query to execute"`
	Limit int      `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	Scope []string `json:"scope,omitempty" jsonschema:"filter by path prefixes (OR logic)"`
}

// IndexStatusInput defines the input schema for the index_status tool (no parameters).
type IndexStatusInput struct{}

// IndexStatusOutput defines the output schema for the index_status tool.
type IndexStatusOutput struct {
	Project    ProjectInfo       `json:"project"`
	Stats      IndexStats        `json:"stats"`
	Embeddings EmbeddingInfo     `json:"embeddings"`
	Indexing   *IndexingProgress `json:"indexing,omitempty"` // Present during background indexing
}

// IndexingProgress contains information about ongoing background indexing.
type IndexingProgress struct {
	Status         string  `json:"status"`                     // "indexing", "ready", or "error"
	Stage          string  `json:"stage,omitempty"`            // "scanning", "chunking", "embedding", "indexing"
	FilesTotal     int     `json:"files_total"`                // Total files to process
	FilesProcessed int     `json:"files_processed"`            // Files processed so far
	ChunksIndexed  int     `json:"chunks_indexed"`             // Chunks indexed so far
	ProgressPct    float64 `json:"progress_pct"`               // Progress percentage (0-100)
	ElapsedSeconds int     `json:"elapsed_seconds"`            // Time since indexing started
	ErrorMessage   string  `json:"error_message,omitempty"`    // Error message if status is "error"
}

// ProjectInfo contains information about the indexed project.
type ProjectInfo struct {
	Name     string `json:"name"`
	RootPath string `json:"root_path"`
	Type     string `json:"type"`
}

// IndexStats contains statistics about the index.
type IndexStats struct {
	FileCount      int    `json:"file_count"`
	ChunkCount     int    `json:"chunk_count"`
	IndexSizeBytes int64  `json:"index_size_bytes"`
	LastIndexed    string `json:"last_indexed"`
}

// GetSymbolReferencesInput defines the input schema for the get_symbol_references tool.
type GetSymbolReferencesInput struct {
	Symbol string `json:"symbol" jsonschema:"the symbol name to find references for"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of references to return, default 50"`
}

// GetSymbolReferencesOutput defines the output schema for the get_symbol_references tool.
type GetSymbolReferencesOutput struct {
	Symbol     string              `json:"symbol"`
	References []SymbolReferenceOutput `json:"references"`
	Truncated  bool                `json:"truncated,omitempty" jsonschema:"true if more references exist than were returned"`
}

// SymbolReferenceOutput is one occurrence of a symbol.
type SymbolReferenceOutput struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
	Snippet  string `json:"snippet"`
}

// GetComponentUsageInput defines the input schema for the get_component_usage tool.
type GetComponentUsageInput struct {
	Component string `json:"component" jsonschema:"the exported symbol/component name to look up usage for"`
}

// GetComponentUsageOutput defines the output schema for the get_component_usage tool.
type GetComponentUsageOutput struct {
	Component   string   `json:"component"`
	UsageCount  int      `json:"usage_count"`
	UsedInFiles []string `json:"used_in_files" jsonschema:"distinct files referencing this symbol"`
}

// GetTeamPatternsInput defines the input schema for the get_team_patterns tool (no parameters).
type GetTeamPatternsInput struct{}

// GetTeamPatternsOutput defines the output schema for the get_team_patterns tool.
type GetTeamPatternsOutput struct {
	Categories []TeamPatternOutput     `json:"categories"`
	Conflicts  []PatternConflictOutput `json:"conflicts,omitempty" jsonschema:"category pairs with simultaneous strong, competing consensus"`
}

// TeamPatternOutput is one category's consensus state: the primary name
// plus up to three detected alternatives.
type TeamPatternOutput struct {
	Category         string                  `json:"category"`
	Consensus        string                  `json:"consensus"`
	FrequencyPct     float64                 `json:"frequency_pct"`
	Trend            string                  `json:"trend"`
	Guidance         string                  `json:"guidance"`
	CanonicalExample *CanonicalExampleOutput `json:"canonical_example,omitempty"`
	AlsoDetected     []TeamPatternAltOutput  `json:"also_detected,omitempty"`
}

// CanonicalExampleOutput points at the file/line the detector picked as the
// clearest illustration of a consensus name.
type CanonicalExampleOutput struct {
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
}

// TeamPatternAltOutput is one runner-up alternative to a category's primary
// consensus name.
type TeamPatternAltOutput struct {
	Name             string                  `json:"name"`
	FrequencyPct     float64                 `json:"frequency_pct"`
	Trend            string                  `json:"trend"`
	Guidance         string                  `json:"guidance"`
	CanonicalExample *CanonicalExampleOutput `json:"canonical_example,omitempty"`
}

// PatternConflictOutput names two categories whose simultaneous strong
// consensus signals an unresolved split rather than agreement.
type PatternConflictOutput struct {
	CategoryA string `json:"category_a"`
	CategoryB string `json:"category_b"`
}

// GetStyleGuideInput defines the input schema for the get_style_guide tool (no parameters).
type GetStyleGuideInput struct{}

// GetStyleGuideOutput defines the output schema for the get_style_guide tool.
type GetStyleGuideOutput struct {
	Prefer []TeamPatternOutput `json:"prefer" jsonschema:"conventions with rising or stable consensus"`
	Avoid  []TeamPatternOutput `json:"avoid" jsonschema:"conventions with declining consensus"`
}

// DetectCircularDependenciesInput defines the input schema for the detect_circular_dependencies tool (no parameters).
type DetectCircularDependenciesInput struct{}

// DetectCircularDependenciesOutput defines the output schema for the detect_circular_dependencies tool.
type DetectCircularDependenciesOutput struct {
	Cycles        []CycleOutput  `json:"cycles"`
	UnusedExports []ExportOutput `json:"unused_exports"`
}

// CycleOutput is one import cycle among project files.
type CycleOutput struct {
	Files []string `json:"files"`
}

// ExportOutput is one symbol a file exposes that nothing imports.
type ExportOutput struct {
	Name     string `json:"name"`
	FilePath string `json:"file_path"`
	Line     int    `json:"line"`
}

// RememberInput defines the input schema for the remember tool.
type RememberInput struct {
	Text string   `json:"text" jsonschema:"the fact or note to remember"`
	Tags []string `json:"tags,omitempty" jsonschema:"optional labels to file this memory under"`
}

// RememberOutput defines the output schema for the remember tool.
type RememberOutput struct {
	ID string `json:"id"`
}

// GetMemoryInput defines the input schema for the get_memory tool.
type GetMemoryInput struct {
	Tag   string `json:"tag,omitempty" jsonschema:"only return memories filed under this tag"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of memories to return, default 20"`
}

// GetMemoryOutput defines the output schema for the get_memory tool.
type GetMemoryOutput struct {
	Memories []MemoryEntryOutput `json:"memories"`
}

// MemoryEntryOutput is one remembered note.
type MemoryEntryOutput struct {
	ID        string   `json:"id"`
	Text      string   `json:"text"`
	Tags      []string `json:"tags,omitempty"`
	CreatedAt string   `json:"created_at"`
}

// EmbeddingInfo contains information about the embedding configuration.
type EmbeddingInfo struct {
	// Config values
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Status   string `json:"status"`

	// Runtime state - allows AI clients to adjust search strategy
	ActualProvider   string `json:"actual_provider"`    // "hugot" or "static"
	ActualModel      string `json:"actual_model"`       // e.g., "embeddinggemma-300m" or "static"
	Dimensions       int    `json:"dimensions"`         // 768 (hugot) or 256 (static)
	IsFallbackActive bool   `json:"is_fallback_active"` // true if using static fallback
	SemanticQuality  string `json:"semantic_quality"`   // "high" (hugot) or "low" (static)
}
