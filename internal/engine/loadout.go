package engine

import (
	"context"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// WriteLoadOut creates or replaces a load out. A zero LoadOutID allocates a
// new id. Every active plugin must exist.
func (e *Engine) WriteLoadOut(ctx context.Context, agg *cache.Aggregate, l types.LoadOut) (types.LoadOut, error) {
	const op = "WriteLoadOut"
	if err := l.Validate(); err != nil {
		return types.LoadOut{}, types.NewValidationError(op, err)
	}
	err := e.update(ctx, op, agg, func(tx types.Tx) error {
		if err := requireGroupSet(tx, op, l.GroupSetID); err != nil {
			return err
		}
		for _, id := range l.ActivePlugins {
			if _, err := tx.Plugin(id); err != nil {
				return retag(op, err, types.KindPlugin, id)
			}
		}
		if l.LoadOutID == 0 {
			id, err := tx.NextLoadOutID()
			if err != nil {
				return err
			}
			l.LoadOutID = id
		}
		return tx.PutLoadOut(l)
	})
	if err != nil {
		return types.LoadOut{}, err
	}
	e.logger.Debug("wrote loadout", "loadout_id", l.LoadOutID, "active", len(l.ActivePlugins))
	return l, nil
}

// SetPluginActive enables or disables pluginID in loadOutID.
func (e *Engine) SetPluginActive(ctx context.Context, agg *cache.Aggregate, loadOutID, pluginID int64, active bool) error {
	const op = "SetPluginActive"
	return e.update(ctx, op, agg, func(tx types.Tx) error {
		if _, err := tx.LoadOut(loadOutID); err != nil {
			return retag(op, err, types.KindLoadOut, loadOutID)
		}
		if _, err := tx.Plugin(pluginID); err != nil {
			return retag(op, err, types.KindPlugin, pluginID)
		}
		return tx.SetPluginActive(loadOutID, pluginID, active)
	})
}
