package index

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcelens-dev/sourcelens/internal/chunk"
)

func sampleChunks() []*chunk.Chunk {
	return []*chunk.Chunk{
		{
			FilePath: "internal/core/service.go",
			Symbols: []*chunk.Symbol{
				{Name: "DoThing", Type: chunk.SymbolTypeFunction, StartLine: 10, Signature: "func DoThing() error"},
			},
			UpdatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			FilePath: "internal/widget/widget.go",
			Symbols: []*chunk.Symbol{
				{Name: "Render", Type: chunk.SymbolTypeMethod, StartLine: 20, Signature: "func (w *Widget) Render()"},
				{Name: "helper", Type: chunk.SymbolTypeFunction, StartLine: 30, Signature: "func helper()"},
			},
			UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestBuildIntelligence_RegistersFilesExportsAndPatterns(t *testing.T) {
	fileGraph, detector := BuildIntelligence(sampleChunks(), "", nil)

	assert.True(t, fileGraph.Files["internal/core/service.go"])
	assert.True(t, fileGraph.Files["internal/widget/widget.go"])

	state, ok := detector.CategoryState("error-handling")
	require.True(t, ok)
	require.NotNil(t, state.Consensus)
	require.NotNil(t, state.Consensus.Primary)
	assert.Equal(t, "returns-error", state.Consensus.Primary.Name)
}

func TestBuildIntelligence_NoHistory_FallsBackToChunkUpdatedAt(t *testing.T) {
	chunks := sampleChunks()
	_, detector := BuildIntelligence(chunks, "", nil)

	state, ok := detector.CategoryState("error-handling")
	require.True(t, ok)
	require.NotNil(t, state.Consensus)
	require.NotNil(t, state.Consensus.Primary)
	assert.NotEmpty(t, state.Consensus.Primary.Name)
}

func TestWriteIntelligenceArtifacts_WritesBothSnapshotFiles(t *testing.T) {
	dataDir := t.TempDir()

	_, _, err := WriteIntelligenceArtifacts(context.Background(), dataDir, t.TempDir(), sampleChunks())
	require.NoError(t, err)

	relData, err := os.ReadFile(filepath.Join(dataDir, "relationships.json"))
	require.NoError(t, err)
	var rel map[string]any
	require.NoError(t, json.Unmarshal(relData, &rel))
	assert.Contains(t, rel, "cycles")
	assert.Contains(t, rel, "unusedExports")

	intelData, err := os.ReadFile(filepath.Join(dataDir, "intelligence.json"))
	require.NoError(t, err)
	var intel map[string]any
	require.NoError(t, json.Unmarshal(intelData, &intel))
	assert.Contains(t, intel, "categories")
}

func TestBuildIntelligence_TracksDetectedPatternsMetadata(t *testing.T) {
	chunks := sampleChunks()
	chunks[0].Metadata = map[string]string{"detectedPatterns": "dependency-injection:functional-options,route-registration:inline-app-routes"}

	_, detector := BuildIntelligence(chunks, "", nil)

	state, ok := detector.CategoryState("dependency-injection")
	require.True(t, ok)
	require.NotNil(t, state.Consensus)
	require.NotNil(t, state.Consensus.Primary)
	assert.Equal(t, "functional-options", state.Consensus.Primary.Name)

	state, ok = detector.CategoryState("route-registration")
	require.True(t, ok)
	require.NotNil(t, state.Consensus)
	require.NotNil(t, state.Consensus.Primary)
	assert.Equal(t, "inline-app-routes", state.Consensus.Primary.Name)
}

func TestIsExportedGoName(t *testing.T) {
	assert.True(t, isExportedGoName("DoThing"))
	assert.False(t, isExportedGoName("doThing"))
	assert.False(t, isExportedGoName(""))
}

func TestErrorHandlingStyle(t *testing.T) {
	assert.Equal(t, "returns-error", errorHandlingStyle("func DoThing() error"))
	assert.Equal(t, "panics", errorHandlingStyle("func DoThing() { panic(\"no\") }"))
	assert.Equal(t, "no-error-return", errorHandlingStyle("func DoThing() int"))
}
