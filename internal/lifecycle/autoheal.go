package lifecycle

import (
	"context"
	"fmt"

	"github.com/sourcelens-dev/sourcelens/internal/store"
)

// RebuildFunc performs a full reindex and is supplied by the caller
// (internal/index.Runner.Run, typically) so AutoHealer doesn't need to
// depend on the indexing package itself.
type RebuildFunc func(ctx context.Context) error

// AutoHealer checks a project's .sourcelens artifact manifest before a
// search or serve operation and triggers a full rebuild if the artifacts
// look corrupted or incomplete, rather than surfacing a confusing
// downstream error (a truncated bm25 index, a checksum mismatch on
// metadata.db) to the user.
type AutoHealer struct {
	artifacts *store.ArtifactManager
}

// NewAutoHealer returns an AutoHealer for the given .sourcelens data
// directory.
func NewAutoHealer(dataDir string) *AutoHealer {
	return &AutoHealer{artifacts: store.NewArtifactManager(dataDir)}
}

// EnsureValidOrAutoHeal validates the artifact manifest and, if it's
// missing or inconsistent, calls rebuild to regenerate the index from
// scratch. It returns an error only if validation itself fails
// unexpectedly or rebuild does; a missing manifest on first run is not an
// error; it's the expected trigger for rebuild.
func (h *AutoHealer) EnsureValidOrAutoHeal(ctx context.Context, rebuild RebuildFunc) error {
	valid, err := h.artifacts.Validate()
	if err != nil {
		return fmt.Errorf("validate index artifacts: %w", err)
	}
	if valid {
		return nil
	}
	if rebuild == nil {
		return fmt.Errorf("index artifacts are missing or corrupted and no rebuild function was supplied")
	}
	if err := rebuild(ctx); err != nil {
		return fmt.Errorf("auto-heal rebuild: %w", err)
	}
	return nil
}
