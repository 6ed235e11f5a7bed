package engine

import (
	"context"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// Clone adds groupID, as a member of sourceSetID, to targetSetID at the top
// level after the existing top-level groups. The group's plugin memberships
// are copied in their source order and numbered 1..N in the target. The
// canonical group row and the source set are not modified.
func (e *Engine) Clone(ctx context.Context, agg *cache.Aggregate, groupID, sourceSetID, targetSetID int64) (types.GroupMembership, error) {
	const op = "Clone"
	if err := movable(op, groupID); err != nil {
		return types.GroupMembership{}, err
	}

	var cloned types.GroupMembership
	var plugins int
	err := e.update(ctx, op, agg, func(tx types.Tx) error {
		if _, err := groupMembership(tx, op, sourceSetID, groupID); err != nil {
			return err
		}
		if err := requireGroupSet(tx, op, targetSetID); err != nil {
			return err
		}
		_, err := tx.GroupMembership(targetSetID, groupID)
		switch {
		case err == nil:
			return types.NewValidationError(op, types.ErrAlreadyMember)
		case !types.IsNotFound(err):
			return err
		}

		if cloned, err = appendGroup(tx, targetSetID, groupID, nil); err != nil {
			return err
		}

		source, err := tx.PluginMemberships(sourceSetID, groupID)
		if err != nil {
			return err
		}
		for _, p := range source {
			if _, err := appendPlugin(tx, targetSetID, groupID, p.PluginID); err != nil {
				return err
			}
		}
		plugins = len(source)
		return nil
	})
	if err != nil {
		return types.GroupMembership{}, err
	}
	e.logger.Debug("cloned group", "group_id", groupID, "from", sourceSetID, "to", targetSetID,
		"ordinal", cloned.Ordinal, "plugins", plugins)
	return cloned, nil
}

// CreateGroupSet adds an empty variant holding only the root and the reserved
// groups.
func (e *Engine) CreateGroupSet(ctx context.Context, agg *cache.Aggregate, name string) (types.GroupSet, error) {
	const op = "CreateGroupSet"
	var set types.GroupSet
	err := e.update(ctx, op, agg, func(tx types.Tx) error {
		var err error
		if set, err = newGroupSet(tx, op, name); err != nil {
			return err
		}
		root := types.GroupMembership{GroupSetID: set.GroupSetID, GroupID: types.RootGroupID, Ordinal: types.RootOrdinal}
		if err := tx.InsertGroupMembership(root); err != nil {
			return err
		}
		for _, g := range types.ReservedGroups {
			m := types.GroupMembership{
				GroupSetID: set.GroupSetID,
				GroupID:    g.GroupID,
				ParentID:   types.ParentPtr(types.RootGroupID),
				Ordinal:    types.ReservedOrdinal(g.GroupID),
			}
			if err := tx.InsertGroupMembership(m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.GroupSet{}, err
	}
	e.logger.Debug("created group set", "group_set_id", set.GroupSetID, "name", set.Name)
	return set, nil
}

// ForkGroupSet adds a variant whose group and plugin memberships are an exact
// copy of sourceSetID. Load outs are not copied.
func (e *Engine) ForkGroupSet(ctx context.Context, agg *cache.Aggregate, sourceSetID int64, name string) (types.GroupSet, error) {
	const op = "ForkGroupSet"
	var set types.GroupSet
	err := e.update(ctx, op, agg, func(tx types.Tx) error {
		if err := requireGroupSet(tx, op, sourceSetID); err != nil {
			return err
		}
		var err error
		if set, err = newGroupSet(tx, op, name); err != nil {
			return err
		}

		groups, err := tx.GroupMemberships(sourceSetID)
		if err != nil {
			return err
		}
		for _, m := range groups {
			m.GroupSetID = set.GroupSetID
			if err := tx.InsertGroupMembership(m); err != nil {
				return err
			}
		}
		plugins, err := tx.PluginMembershipsInSet(sourceSetID)
		if err != nil {
			return err
		}
		for _, m := range plugins {
			m.GroupSetID = set.GroupSetID
			if err := tx.InsertPluginMembership(m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.GroupSet{}, err
	}
	e.logger.Debug("forked group set", "group_set_id", set.GroupSetID, "from", sourceSetID)
	return set, nil
}

// newGroupSet validates name and stores a group set under the next id.
func newGroupSet(tx types.Tx, op, name string) (types.GroupSet, error) {
	set := types.GroupSet{Name: name}
	if err := set.Validate(); err != nil {
		return types.GroupSet{}, types.NewValidationError(op, err)
	}
	existing, err := tx.GroupSets()
	if err != nil {
		return types.GroupSet{}, err
	}
	for _, s := range existing {
		if s.Name == name {
			return types.GroupSet{}, types.NewValidationError(op, types.ErrDuplicateName)
		}
	}
	if set.GroupSetID, err = tx.NextGroupSetID(); err != nil {
		return types.GroupSet{}, err
	}
	return set, tx.PutGroupSet(set)
}
