package graph

import "strings"

// UnusedExportOptions controls which files are exempt from unused-export
// reporting: barrel files re-export for convenience and are expected to
// have "unused" direct importers, test files export helpers for their own
// package only, and a language's default export is often consumed without
// ever naming the symbol.
type UnusedExportOptions struct {
	BarrelFiles      map[string]bool
	TestFileSuffixes []string
	DefaultExports   map[string]bool // filePath -> has a default export
}

// FindUnusedExports reports every export that no recorded internal import
// ever pulled in by name, skipping barrel files, test files, and default
// exports.
func (g *InternalFileGraph) FindUnusedExports(opts UnusedExportOptions) []Export {
	var unused []Export

	for file, exports := range g.Exports {
		if opts.BarrelFiles[file] {
			continue
		}
		if isTestFile(file, opts.TestFileSuffixes) {
			continue
		}

		imported := g.ReverseImportedBy[file]
		for _, exp := range exports {
			if opts.DefaultExports[file] && exp.Name == "default" {
				continue
			}
			if imported != nil && imported[exp.Name] {
				continue
			}
			unused = append(unused, exp)
		}
	}

	return unused
}

func isTestFile(path string, suffixes []string) bool {
	for _, suf := range suffixes {
		if strings.HasSuffix(path, suf) {
			return true
		}
	}
	return false
}
