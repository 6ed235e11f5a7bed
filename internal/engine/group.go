package engine

import (
	"context"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// WriteGroup creates or updates a group. A zero GroupID allocates a new id.
// When GroupSetID is set the group is also placed in that set: a new member
// is appended under ParentID, an existing member whose ParentID changed is
// reparented, and an existing member under the same parent keeps its ordinal.
func (e *Engine) WriteGroup(ctx context.Context, agg *cache.Aggregate, g types.ModGroup) (types.ModGroup, error) {
	const op = "WriteGroup"
	if err := g.Group.Validate(); err != nil {
		return types.ModGroup{}, types.NewValidationError(op, err)
	}
	if g.GroupID != 0 {
		if err := movable(op, g.GroupID); err != nil {
			return types.ModGroup{}, err
		}
	}

	var out types.ModGroup
	err := e.update(ctx, op, agg, func(tx types.Tx) error {
		if g.GroupID == 0 {
			id, err := tx.NextGroupID()
			if err != nil {
				return err
			}
			g.GroupID = id
		} else if _, err := tx.Group(g.GroupID); err != nil {
			return retag(op, err, types.KindGroup, g.GroupID)
		}
		if err := tx.PutGroup(g.Group); err != nil {
			return err
		}
		out = types.ModGroup{Group: g.Group}
		if g.GroupSetID == 0 {
			return nil
		}

		if err := requireGroupSet(tx, op, g.GroupSetID); err != nil {
			return err
		}
		current, err := tx.GroupMembership(g.GroupSetID, g.GroupID)
		switch {
		case types.IsNotFound(err):
			if err := checkParent(tx, op, g.GroupSetID, g.GroupID, g.ParentID); err != nil {
				return err
			}
			m, err := appendGroup(tx, g.GroupSetID, g.GroupID, g.ParentID)
			if err != nil {
				return err
			}
			out = modGroup(g.Group, m)
			return nil
		case err != nil:
			return err
		case sameParent(current.ParentID, g.ParentID):
			out = modGroup(g.Group, current)
			return nil
		}
		m, err := reparent(tx, op, current, g.ParentID)
		if err != nil {
			return err
		}
		out = modGroup(g.Group, m)
		return nil
	})
	if err != nil {
		return types.ModGroup{}, err
	}
	e.logger.Debug("wrote group", "group_id", out.GroupID, "group_set_id", out.GroupSetID, "ordinal", out.Ordinal)
	return out, nil
}

// ChangeGroup moves groupID under newParentID within groupSetID. The former
// sibling set is compacted and the group is appended after its new siblings.
// A zero newParentID moves the group to the top level.
func (e *Engine) ChangeGroup(ctx context.Context, agg *cache.Aggregate, groupID, groupSetID, newParentID int64) error {
	const op = "ChangeGroup"
	if err := movable(op, groupID); err != nil {
		return err
	}
	if types.IsReserved(newParentID) {
		return types.NewValidationError(op, types.ErrReservedGroup)
	}

	var moved types.GroupMembership
	err := e.update(ctx, op, agg, func(tx types.Tx) error {
		current, err := groupMembership(tx, op, groupSetID, groupID)
		if err != nil {
			return err
		}
		moved, err = reparent(tx, op, current, types.ParentPtr(newParentID))
		return err
	})
	if err != nil {
		return err
	}
	e.logger.Debug("changed group", "group_id", groupID, "group_set_id", groupSetID,
		"parent_id", newParentID, "ordinal", moved.Ordinal)
	return nil
}

// reparent removes m from its sibling set, closes the gap it leaves and
// appends it under newParent.
func reparent(tx types.Tx, op string, m types.GroupMembership, newParent *int64) (types.GroupMembership, error) {
	if err := movable(op, m.GroupID); err != nil {
		return types.GroupMembership{}, err
	}
	if err := checkParent(tx, op, m.GroupSetID, m.GroupID, newParent); err != nil {
		return types.GroupMembership{}, err
	}
	if err := detachGroup(tx, m); err != nil {
		return types.GroupMembership{}, err
	}
	return appendGroup(tx, m.GroupSetID, m.GroupID, newParent)
}

// detachGroup deletes the membership m and compacts its former siblings.
func detachGroup(tx types.Tx, m types.GroupMembership) error {
	if err := tx.DeleteGroupMembership(m.GroupSetID, m.GroupID); err != nil {
		return err
	}
	return tx.CloseGroupGap(m.GroupSetID, m.ParentID, m.Ordinal, m.GroupID)
}

// appendGroup inserts a membership for groupID after the last non-reserved
// child of parent.
func appendGroup(tx types.Tx, groupSetID, groupID int64, parent *int64) (types.GroupMembership, error) {
	ordinal, err := nextGroupOrdinal(tx, groupSetID, parent)
	if err != nil {
		return types.GroupMembership{}, err
	}
	m := types.GroupMembership{GroupSetID: groupSetID, GroupID: groupID, ParentID: parent, Ordinal: ordinal}
	if err := tx.InsertGroupMembership(m); err != nil {
		return types.GroupMembership{}, err
	}
	return m, nil
}

// checkParent validates parent as the new parent of groupID: it must not be
// reserved, must be a member of the set, and must not be groupID or one of
// its descendants.
func checkParent(tx types.Tx, op string, groupSetID, groupID int64, parent *int64) error {
	if parent == nil {
		return nil
	}
	if types.IsReserved(*parent) {
		return types.NewValidationError(op, types.ErrReservedGroup)
	}
	if *parent == groupID {
		return types.NewValidationError(op, types.ErrSelfParent)
	}
	if _, err := groupMembership(tx, op, groupSetID, *parent); err != nil {
		return err
	}
	path, err := ancestors(tx, op, groupSetID, *parent)
	if err != nil {
		return err
	}
	for _, id := range path {
		if id == groupID {
			return types.NewValidationError(op, types.ErrSelfParent)
		}
	}
	return nil
}

// ancestors returns groupID and its ancestors in groupSetID, nearest first.
// The walk stops at the root or at a top-level group and fails with a
// ConsistencyError when it revisits a group.
func ancestors(tx types.Tx, op string, groupSetID, groupID int64) ([]int64, error) {
	visited := make(map[int64]bool)
	var path []int64
	for cur := groupID; ; {
		if visited[cur] {
			return nil, &types.ConsistencyError{Op: op, Path: append(path, cur), Err: types.ErrCycle}
		}
		visited[cur] = true
		path = append(path, cur)
		if types.IsRoot(cur) {
			return path, nil
		}
		m, err := tx.GroupMembership(groupSetID, cur)
		if err != nil {
			if types.IsNotFound(err) {
				return nil, &types.ConsistencyError{Op: op, Path: path, Err: types.ErrNotFound}
			}
			return nil, err
		}
		if m.ParentID == nil {
			return path, nil
		}
		cur = *m.ParentID
	}
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// DeleteGroup removes groupID from groupSetID. Its child groups move up to
// its parent, appended in their existing order; its plugins move into the
// Uncategorized group, appended in their existing order; the sibling gap is
// closed. The canonical group row is deleted once no group set references it.
func (e *Engine) DeleteGroup(ctx context.Context, agg *cache.Aggregate, groupID, groupSetID int64) error {
	const op = "DeleteGroup"
	if err := movable(op, groupID); err != nil {
		return err
	}

	var orphaned bool
	err := e.update(ctx, op, agg, func(tx types.Tx) error {
		m, err := groupMembership(tx, op, groupSetID, groupID)
		if err != nil {
			return err
		}
		if err := detachGroup(tx, m); err != nil {
			return err
		}

		children, err := tx.ChildGroups(groupSetID, &groupID)
		if err != nil {
			return err
		}
		for _, child := range children {
			if err := tx.DeleteGroupMembership(child.GroupSetID, child.GroupID); err != nil {
				return err
			}
			if _, err := appendGroup(tx, groupSetID, child.GroupID, m.ParentID); err != nil {
				return err
			}
		}

		plugins, err := tx.PluginMemberships(groupSetID, groupID)
		if err != nil {
			return err
		}
		for _, p := range plugins {
			if err := tx.DeletePluginMembership(p.GroupSetID, p.GroupID, p.PluginID); err != nil {
				return err
			}
			_, err := tx.PluginMembership(groupSetID, types.GroupUncategorized, p.PluginID)
			if err == nil {
				continue
			}
			if !types.IsNotFound(err) {
				return err
			}
			if _, err := appendPlugin(tx, groupSetID, types.GroupUncategorized, p.PluginID); err != nil {
				return err
			}
		}

		n, err := tx.CountGroupMemberships(groupID)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		orphaned = true
		return tx.DeleteGroup(groupID)
	})
	if err != nil {
		return err
	}
	e.logger.Debug("deleted group", "group_id", groupID, "group_set_id", groupSetID, "canonical_deleted", orphaned)
	return nil
}
