package lifecycle

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcelens-dev/sourcelens/internal/store"
)

func TestAutoHealer_ValidManifest_SkipsRebuild(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "metadata.db"), []byte("content"), 0o644))
	require.NoError(t, store.NewArtifactManager(dataDir).RecordArtifact("metadata.db", time.Now()))

	healer := NewAutoHealer(dataDir)
	rebuildCalled := false
	err := healer.EnsureValidOrAutoHeal(context.Background(), func(ctx context.Context) error {
		rebuildCalled = true
		return nil
	})
	require.NoError(t, err)
	assert.False(t, rebuildCalled)
}

func TestAutoHealer_MissingManifest_TriggersRebuild(t *testing.T) {
	healer := NewAutoHealer(t.TempDir())
	rebuildCalled := false
	err := healer.EnsureValidOrAutoHeal(context.Background(), func(ctx context.Context) error {
		rebuildCalled = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, rebuildCalled)
}

func TestAutoHealer_RebuildFails_ReturnsError(t *testing.T) {
	healer := NewAutoHealer(t.TempDir())
	err := healer.EnsureValidOrAutoHeal(context.Background(), func(ctx context.Context) error {
		return errors.New("disk full")
	})
	require.Error(t, err)
}

func TestAutoHealer_NoRebuildFunc_ReturnsError(t *testing.T) {
	healer := NewAutoHealer(t.TempDir())
	err := healer.EnsureValidOrAutoHeal(context.Background(), nil)
	require.Error(t, err)
}
