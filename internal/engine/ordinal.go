package engine

import (
	"context"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// NextOrdinal returns the ordinal a new entity of kind would take under
// groupID in groupSetID: one past the largest ordinal of its future siblings.
// Reserved children do not count toward a group's siblings. An unset
// groupID or groupSetID yields 1, and a reserved groupID is always resolved
// against the default group set.
func (e *Engine) NextOrdinal(ctx context.Context, kind types.Kind, groupID, groupSetID int64) (int, error) {
	const op = "NextOrdinal"
	if groupID == 0 || groupSetID == 0 {
		return 1, nil
	}
	switch kind {
	case types.KindGroup, types.KindPlugin:
	case types.KindLoadOut, types.KindGroupSet, types.KindURL:
		return 0, types.NewValidationError(op, types.ErrUnsupportedKind)
	case types.KindInvalid:
		return 0, types.NewValidationError(op, types.ErrInvalidKind)
	default:
		return 0, types.NewValidationError(op, types.ErrInvalidKind)
	}
	if types.IsReserved(groupID) {
		groupSetID = types.DefaultGroupSetID
	}

	var next int
	err := e.view(ctx, op, func(tx types.Tx) error {
		var err error
		if kind == types.KindGroup {
			next, err = nextGroupOrdinal(tx, groupSetID, types.ParentPtr(groupID))
		} else {
			next, err = nextPluginOrdinal(tx, groupSetID, groupID)
		}
		return err
	})
	return next, err
}

func nextGroupOrdinal(tx types.Tx, groupSetID int64, parentID *int64) (int, error) {
	top, err := tx.MaxGroupOrdinal(groupSetID, parentID)
	if err != nil {
		return 0, err
	}
	return max(top+1, 1), nil
}

func nextPluginOrdinal(tx types.Tx, groupSetID, groupID int64) (int, error) {
	top, err := tx.MaxPluginOrdinal(groupSetID, groupID)
	if err != nil {
		return 0, err
	}
	return max(top+1, 1), nil
}

// CleanOrdinals renumbers every partition of every group set in one
// transaction: plugins to 1..N, user groups to 1..N and reserved groups to
// their pinned ordinal. Existing relative order is kept, ties broken by id.
// It returns the number of membership rows rewritten.
func (e *Engine) CleanOrdinals(ctx context.Context, agg *cache.Aggregate) (int64, error) {
	const op = "CleanOrdinals"
	var plugins, groups int64
	err := e.update(ctx, op, agg, func(tx types.Tx) error {
		var err error
		if plugins, err = tx.RenumberPlugins(); err != nil {
			return err
		}
		groups, err = tx.RenumberGroups()
		return err
	})
	if err != nil {
		return 0, err
	}
	e.logger.Debug("cleaned ordinals", "plugin_rows", plugins, "group_rows", groups)
	return plugins + groups, nil
}
