package engine

import (
	"context"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// WritePlugin creates or updates the canonical plugin row. A zero PluginID
// allocates a new id.
func (e *Engine) WritePlugin(ctx context.Context, agg *cache.Aggregate, p types.Plugin) (types.Plugin, error) {
	const op = "WritePlugin"
	if err := p.Validate(); err != nil {
		return types.Plugin{}, types.NewValidationError(op, err)
	}
	err := e.update(ctx, op, agg, func(tx types.Tx) error {
		if p.PluginID == 0 {
			id, err := tx.NextPluginID()
			if err != nil {
				return err
			}
			p.PluginID = id
		}
		return tx.PutPlugin(p)
	})
	if err != nil {
		return types.Plugin{}, err
	}
	e.logger.Debug("wrote plugin", "plugin_id", p.PluginID)
	return p, nil
}

// AddPlugin places pluginID at the end of groupID in groupSetID.
func (e *Engine) AddPlugin(ctx context.Context, agg *cache.Aggregate, pluginID, groupID, groupSetID int64) (types.PluginMembership, error) {
	const op = "AddPlugin"
	if types.IsRoot(groupID) {
		return types.PluginMembership{}, types.NewValidationError(op, types.ErrRootGroup)
	}
	var m types.PluginMembership
	err := e.update(ctx, op, agg, func(tx types.Tx) error {
		if err := pluginTarget(tx, op, pluginID, groupID, groupSetID); err != nil {
			return err
		}
		var err error
		m, err = appendPlugin(tx, groupSetID, groupID, pluginID)
		return err
	})
	if err != nil {
		return types.PluginMembership{}, err
	}
	e.logger.Debug("added plugin", "plugin_id", pluginID, "group_id", groupID, "group_set_id", groupSetID, "ordinal", m.Ordinal)
	return m, nil
}

// MovePlugin moves the plugin membership named by ref to the end of
// newGroupID in the same group set and compacts the group it left. Reserved
// groups are valid targets.
func (e *Engine) MovePlugin(ctx context.Context, agg *cache.Aggregate, ref types.Ref, newGroupID int64) error {
	const op = "MovePlugin"
	if ref.Kind != types.KindPlugin {
		return types.NewValidationError(op, types.ErrUnsupportedKind)
	}
	if err := ref.Validate(); err != nil {
		return types.NewValidationError(op, err)
	}
	if types.IsRoot(newGroupID) {
		return types.NewValidationError(op, types.ErrRootGroup)
	}

	var moved types.PluginMembership
	err := e.update(ctx, op, agg, func(tx types.Tx) error {
		current, err := tx.PluginMembership(ref.GroupSetID, ref.GroupID, ref.ID)
		if err != nil {
			return retag(op, err, types.KindPlugin, ref.ID)
		}
		if newGroupID != current.GroupID {
			if err := pluginTarget(tx, op, ref.ID, newGroupID, ref.GroupSetID); err != nil {
				return err
			}
		}
		if err := tx.DeletePluginMembership(current.GroupSetID, current.GroupID, current.PluginID); err != nil {
			return err
		}
		if err := tx.ClosePluginGap(current.GroupSetID, current.GroupID, current.Ordinal, current.PluginID); err != nil {
			return err
		}
		moved, err = appendPlugin(tx, ref.GroupSetID, newGroupID, ref.ID)
		return err
	})
	if err != nil {
		return err
	}
	e.logger.Debug("moved plugin", "plugin_id", ref.ID, "from_group_id", ref.GroupID,
		"group_id", newGroupID, "ordinal", moved.Ordinal)
	return nil
}

// pluginTarget checks that pluginID exists, that groupID is a member of
// groupSetID and that the plugin is not already in that group.
func pluginTarget(tx types.Tx, op string, pluginID, groupID, groupSetID int64) error {
	if _, err := tx.Plugin(pluginID); err != nil {
		return retag(op, err, types.KindPlugin, pluginID)
	}
	if _, err := groupMembership(tx, op, groupSetID, groupID); err != nil {
		return err
	}
	_, err := tx.PluginMembership(groupSetID, groupID, pluginID)
	switch {
	case err == nil:
		return types.NewValidationError(op, types.ErrAlreadyMember)
	case types.IsNotFound(err):
		return nil
	default:
		return err
	}
}

// appendPlugin inserts pluginID after the last plugin of groupID.
func appendPlugin(tx types.Tx, groupSetID, groupID, pluginID int64) (types.PluginMembership, error) {
	ordinal, err := nextPluginOrdinal(tx, groupSetID, groupID)
	if err != nil {
		return types.PluginMembership{}, err
	}
	m := types.PluginMembership{GroupSetID: groupSetID, GroupID: groupID, PluginID: pluginID, Ordinal: ordinal}
	if err := tx.InsertPluginMembership(m); err != nil {
		return types.PluginMembership{}, err
	}
	return m, nil
}
