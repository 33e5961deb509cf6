// Package refs finds every place a symbol is referenced across a project,
// using the tree-sitter parse tree for supported languages and a word-
// boundary regex as a fail-open fallback for anything else.
package refs

import (
	"context"
	"regexp"
	"strings"

	"github.com/sourcelens-dev/sourcelens/internal/chunk"
)

// Reference is one occurrence of a symbol name in a file.
type Reference struct {
	FilePath string
	Line     int
	Column   int
	Snippet  string // the full source line, trimmed
}

// Finder locates references to a named symbol across a set of files.
type Finder struct {
	parser   *chunk.Parser
	registry *chunk.LanguageRegistry
}

// NewFinder creates a Finder with its own tree-sitter parser instance.
func NewFinder() *Finder {
	registry := chunk.DefaultRegistry()
	return &Finder{
		parser:   chunk.NewParserWithRegistry(registry),
		registry: registry,
	}
}

// Close releases the underlying parser.
func (f *Finder) Close() {
	if f.parser != nil {
		f.parser.Close()
	}
}

// FileSource is one file's content handed to FindReferences.
type FileSource struct {
	Path     string
	Content  []byte
	Language string
}

// FindReferences returns every occurrence of symbolName across files,
// preferring AST identifier matches and falling back to a word-boundary
// regex scan when the language isn't supported or parsing fails.
func (f *Finder) FindReferences(ctx context.Context, symbolName string, files []FileSource) []Reference {
	var refs []Reference
	for _, file := range files {
		if _, supported := f.registry.GetByName(file.Language); supported {
			tree, err := f.parser.Parse(ctx, file.Content, file.Language)
			if err == nil {
				refs = append(refs, f.referencesFromTree(tree, file, symbolName)...)
				continue
			}
		}
		refs = append(refs, referencesFromRegex(file, symbolName)...)
	}
	return refs
}

func (f *Finder) referencesFromTree(tree *chunk.Tree, file FileSource, symbolName string) []Reference {
	var refs []Reference
	identifierTypes := map[string]bool{
		"identifier": true, "field_identifier": true, "type_identifier": true,
		"property_identifier": true, "shorthand_property_identifier": true,
	}

	tree.Root.Walk(func(n *chunk.Node) bool {
		if identifierTypes[n.Type] && n.GetContent(tree.Source) == symbolName {
			refs = append(refs, Reference{
				FilePath: file.Path,
				Line:     int(n.StartPoint.Row) + 1,
				Column:   int(n.StartPoint.Column) + 1,
				Snippet:  lineAt(file.Content, int(n.StartPoint.Row)),
			})
		}
		return true
	})
	return refs
}

var identBoundary = `(^|[^A-Za-z0-9_])`

func referencesFromRegex(file FileSource, symbolName string) []Reference {
	pattern := regexp.MustCompile(identBoundary + regexp.QuoteMeta(symbolName) + `($|[^A-Za-z0-9_])`)
	var refs []Reference
	lines := strings.Split(string(file.Content), "\n")
	for i, line := range lines {
		if loc := pattern.FindStringIndex(line); loc != nil {
			refs = append(refs, Reference{
				FilePath: file.Path,
				Line:     i + 1,
				Column:   loc[0] + 1,
				Snippet:  strings.TrimSpace(line),
			})
		}
	}
	return refs
}

func lineAt(content []byte, row int) string {
	lines := strings.Split(string(content), "\n")
	if row < 0 || row >= len(lines) {
		return ""
	}
	return strings.TrimSpace(lines[row])
}
