package index

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/sourcelens-dev/sourcelens/internal/chunk"
	"github.com/sourcelens-dev/sourcelens/internal/graph"
	"github.com/sourcelens-dev/sourcelens/internal/pattern"
	"github.com/sourcelens-dev/sourcelens/internal/store"
	"github.com/sourcelens-dev/sourcelens/internal/vcs"
)

// BuildIntelligence derives the internal file graph and the pattern
// detector's occurrence set from a finished batch of chunks, so the
// preflight builder has something to reason about without a second pass
// over the filesystem. It registers every chunked file as a graph node,
// records its symbols as exports, and tracks a couple of lightweight
// naming-convention categories the pattern detector can reach consensus
// on (receiver-naming style, exported-vs-unexported symbol balance).
//
// history supplies real commit recency for the trend classifier; pass nil
// to fall back to each chunk's own UpdatedAt (its last re-chunk time, not
// its last real edit).
func BuildIntelligence(chunks []*chunk.Chunk, rootPath string, history *vcs.History) (*graph.InternalFileGraph, *pattern.Detector) {
	fileGraph := graph.NewInternalFileGraph()
	detector := pattern.NewDetector()

	for _, ch := range chunks {
		fileGraph.AddFile(ch.FilePath)
		inCore := strings.Contains(ch.FilePath, "/core/") || strings.Contains(ch.FilePath, "/shared/") ||
			strings.Contains(ch.FilePath, "internal/core") || strings.Contains(ch.FilePath, "internal/shared")

		for _, sym := range ch.Symbols {
			if sym.Name == "" {
				continue
			}
			if isExportedGoName(sym.Name) {
				fileGraph.AddExport(graph.Export{Name: sym.Name, FilePath: ch.FilePath, Line: sym.StartLine})
			}

			if sym.Type == chunk.SymbolTypeFunction || sym.Type == chunk.SymbolTypeMethod {
				modTime := ch.UpdatedAt
				if history != nil {
					modTime = history.ModTime(rootPath, ch.FilePath)
				}
				detector.Track(pattern.Occurrence{
					Category:  "error-handling",
					Name:      errorHandlingStyle(sym.Signature),
					FilePath:  ch.FilePath,
					Line:      sym.StartLine,
					ModTime:   modTime,
					InCoreDir: inCore,
				})
			}
		}

		trackDetectedPatterns(detector, ch, inCore)
	}

	detector.Finalize()
	return fileGraph, detector
}

// relationshipsSnapshot and intelligenceSnapshot are the on-disk shapes of
// relationships.json and intelligence.json: the sqlite metadata store stays
// the source of truth for search and resume, but other tools reading this
// project's .sourcelens directory shouldn't need to open a database to see
// import cycles or convention consensus.
type relationshipsSnapshot struct {
	Cycles         []graph.Cycle  `json:"cycles"`
	UnusedExports  []graph.Export `json:"unusedExports"`
}

type intelligenceSnapshot struct {
	Categories map[string]patternSnapshot `json:"categories"`
	Conflicts  []conflictSnapshot         `json:"conflicts,omitempty"`
}

// patternSnapshot mirrors pattern.Consensus: the primary entry plus up to
// three runner-up alternatives, each carrying its own frequency, trend, and
// guidance sentence.
type patternSnapshot struct {
	Primary      *patternEntrySnapshot   `json:"primary,omitempty"`
	AlsoDetected []*patternEntrySnapshot `json:"alsoDetected,omitempty"`
}

type patternEntrySnapshot struct {
	Name          string  `json:"name"`
	Count         int     `json:"count"`
	FrequencyPct  float64 `json:"frequencyPct"`
	Trend         string  `json:"trend"`
	Guidance      string  `json:"guidance"`
	CanonicalFile string  `json:"canonicalFile,omitempty"`
	CanonicalLine int     `json:"canonicalLine,omitempty"`
}

type conflictSnapshot struct {
	CategoryA string `json:"categoryA"`
	CategoryB string `json:"categoryB"`
}

func entrySnapshot(e *pattern.PatternConsensusEntry) *patternEntrySnapshot {
	if e == nil {
		return nil
	}
	snap := &patternEntrySnapshot{
		Name:         e.Name,
		Count:        e.Count,
		FrequencyPct: e.FrequencyPct,
		Trend:        string(e.Trend),
		Guidance:     e.Guidance,
	}
	if e.CanonicalExample != nil {
		snap.CanonicalFile = e.CanonicalExample.FilePath
		snap.CanonicalLine = e.CanonicalExample.Line
	}
	return snap
}

// WriteIntelligenceArtifacts derives the file graph and pattern state from
// chunks and writes relationships.json and intelligence.json under dataDir.
// rootPath is used to resolve git history (see vcs.Load) for trend analysis;
// if rootPath isn't a git repository, trends fall back to chunk re-process
// time.
func WriteIntelligenceArtifacts(ctx context.Context, dataDir, rootPath string, chunks []*chunk.Chunk) (*graph.InternalFileGraph, *pattern.Detector, error) {
	history, err := vcs.Load(ctx, rootPath)
	if err != nil {
		history = nil
	}
	fileGraph, detector := BuildIntelligence(chunks, rootPath, history)

	rel := relationshipsSnapshot{
		Cycles:        fileGraph.FindCycles(),
		UnusedExports: fileGraph.FindUnusedExports(graph.UnusedExportOptions{TestFileSuffixes: []string{"_test.go", ".test.ts", ".test.js"}}),
	}
	if err := writeJSON(filepath.Join(dataDir, "relationships.json"), rel); err != nil {
		return fileGraph, detector, err
	}

	intel := intelligenceSnapshot{Categories: map[string]patternSnapshot{}}
	for _, name := range detector.Categories() {
		cat, ok := detector.CategoryState(name)
		if !ok || cat.Consensus == nil {
			continue
		}
		snap := patternSnapshot{Primary: entrySnapshot(cat.Consensus.Primary)}
		for _, alt := range cat.Consensus.AlsoDetected {
			snap.AlsoDetected = append(snap.AlsoDetected, entrySnapshot(alt))
		}
		intel.Categories[string(name)] = snap
	}
	for _, c := range detector.Conflicts() {
		intel.Conflicts = append(intel.Conflicts, conflictSnapshot{CategoryA: string(c.CategoryA), CategoryB: string(c.CategoryB)})
	}
	if err := writeJSON(filepath.Join(dataDir, "intelligence.json"), intel); err != nil {
		return fileGraph, detector, err
	}

	artifacts := store.NewArtifactManager(dataDir)
	now := timeNow()
	if err := artifacts.RecordArtifact("relationships.json", now); err != nil {
		slog.Warn("failed to record relationships.json checksum", slog.String("error", err.Error()))
	}
	if err := artifacts.RecordArtifact("intelligence.json", now); err != nil {
		slog.Warn("failed to record intelligence.json checksum", slog.String("error", err.Error()))
	}

	return fileGraph, detector, nil
}

// timeNow is a seam for deterministic tests; see internal/intelligence for
// the same pattern.
var timeNow = time.Now

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// isExportedGoName reports whether name would be an exported identifier in
// Go (uppercase first rune); other languages treat every top-level symbol
// as potentially reachable so they're always recorded as exports and left
// to FindUnusedExports's barrel/test exemptions to filter out noise.
func isExportedGoName(name string) bool {
	r := []rune(name)
	if len(r) == 0 {
		return false
	}
	return unicode.IsUpper(r[0])
}

// trackDetectedPatterns feeds a chunk's analyzer-detected idioms (see
// internal/analyzer and Runner.annotateDetectedPatterns) into the pattern
// detector, one occurrence per "category:name" entry in the chunk's
// detectedPatterns metadata.
func trackDetectedPatterns(detector *pattern.Detector, ch *chunk.Chunk, inCore bool) {
	raw, ok := ch.Metadata["detectedPatterns"]
	if !ok || raw == "" {
		return
	}
	for _, entry := range strings.Split(raw, ",") {
		category, name, ok := strings.Cut(entry, ":")
		if !ok || category == "" || name == "" {
			continue
		}
		detector.Track(pattern.Occurrence{
			Category:  category,
			Name:      name,
			FilePath:  ch.FilePath,
			ModTime:   ch.UpdatedAt,
			InCoreDir: inCore,
		})
	}
}

// errorHandlingStyle classifies a function signature's error-handling idiom
// from its declared return types, a cheap proxy for the body's actual
// convention that's good enough to drive consensus tracking.
func errorHandlingStyle(signature string) string {
	switch {
	case strings.Contains(signature, ") error") || strings.HasSuffix(strings.TrimSpace(signature), "error"):
		return "returns-error"
	case strings.Contains(signature, "panic"):
		return "panics"
	default:
		return "no-error-return"
	}
}
