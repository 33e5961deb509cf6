// Package graph builds the two dependency graphs the intelligence layer
// reasons about: an ImportGraph of external packages to the files that use
// them, and an InternalFileGraph of which project files import which other
// project files, used for cycle detection and unused-export reporting.
package graph

// ImportGraph maps an external import path to the project files that
// import it.
type ImportGraph struct {
	Usages map[string][]string // import path -> file paths
}

// NewImportGraph returns an empty ImportGraph.
func NewImportGraph() *ImportGraph {
	return &ImportGraph{Usages: make(map[string][]string)}
}

// Add records that filePath imports importPath.
func (g *ImportGraph) Add(importPath, filePath string) {
	g.Usages[importPath] = append(g.Usages[importPath], filePath)
}

// Export describes one symbol a file exposes to other project files.
type Export struct {
	Name     string
	FilePath string
	Line     int
}

// Import describes one project-internal import edge.
type Import struct {
	FromFile string
	ToFile   string
	Symbols  []string // named imports pulled from ToFile, empty for a bare/side-effect import
}

// InternalFileGraph is a directed multigraph over project files: an edge
// fromFile -> toFile exists once per import statement, and the reverse map
// tracks which symbols of toFile were actually pulled in, so an unused
// export can be told apart from one nobody has imported yet.
type InternalFileGraph struct {
	Files             map[string]bool
	Edges             map[string][]Import // fromFile -> its imports
	ReverseImportedBy map[string]map[string]bool // file -> symbol -> imported anywhere
	Exports           map[string][]Export
}

// NewInternalFileGraph returns an empty InternalFileGraph.
func NewInternalFileGraph() *InternalFileGraph {
	return &InternalFileGraph{
		Files:             make(map[string]bool),
		Edges:             make(map[string][]Import),
		ReverseImportedBy: make(map[string]map[string]bool),
		Exports:           make(map[string][]Export),
	}
}

// AddFile registers a project file even if it has no edges yet.
func (g *InternalFileGraph) AddFile(path string) {
	g.Files[path] = true
}

// AddImport records an internal import edge and updates the reverse map.
func (g *InternalFileGraph) AddImport(imp Import) {
	g.Files[imp.FromFile] = true
	g.Files[imp.ToFile] = true
	g.Edges[imp.FromFile] = append(g.Edges[imp.FromFile], imp)

	if g.ReverseImportedBy[imp.ToFile] == nil {
		g.ReverseImportedBy[imp.ToFile] = make(map[string]bool)
	}
	for _, sym := range imp.Symbols {
		g.ReverseImportedBy[imp.ToFile][sym] = true
	}
}

// AddExport records a symbol a file exposes.
func (g *InternalFileGraph) AddExport(exp Export) {
	g.Exports[exp.FilePath] = append(g.Exports[exp.FilePath], exp)
}
