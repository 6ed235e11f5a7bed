package engine

import (
	"context"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// Export writes a JSONL backup of the whole store into dir.
func (e *Engine) Export(ctx context.Context, dir string) error {
	return types.AsPersistence("Export", e.store.Export(ctx, dir))
}

// Import replaces the whole store with the backup in dir and refreshes agg.
func (e *Engine) Import(ctx context.Context, agg *cache.Aggregate, dir string) error {
	const op = "Import"
	if err := e.store.Import(ctx, dir); err != nil {
		return types.AsPersistence(op, err)
	}
	return e.refresh(ctx, op, agg)
}
