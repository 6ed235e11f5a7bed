package engine

import (
	"context"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

// LoadGroup returns groupID as positioned in groupSetID.
func (e *Engine) LoadGroup(ctx context.Context, groupID, groupSetID int64) (types.ModGroup, error) {
	const op = "LoadGroup"
	var g types.ModGroup
	err := e.view(ctx, op, func(tx types.Tx) error {
		m, err := groupMembership(tx, op, groupSetID, groupID)
		if err != nil {
			return err
		}
		canonical, err := tx.Group(groupID)
		if err != nil {
			return retag(op, err, types.KindGroup, groupID)
		}
		g = modGroup(canonical, m)
		return nil
	})
	return g, err
}

// LoadGroupsForVariant returns every group of groupSetID in sibling order.
func (e *Engine) LoadGroupsForVariant(ctx context.Context, groupSetID int64) ([]types.ModGroup, error) {
	const op = "LoadGroupsForVariant"
	var groups []types.ModGroup
	err := e.view(ctx, op, func(tx types.Tx) error {
		if err := requireGroupSet(tx, op, groupSetID); err != nil {
			return err
		}
		ms, err := tx.GroupMemberships(groupSetID)
		if err != nil {
			return err
		}
		groups = make([]types.ModGroup, 0, len(ms))
		for _, m := range ms {
			canonical, err := tx.Group(m.GroupID)
			if err != nil {
				return err
			}
			groups = append(groups, modGroup(canonical, m))
		}
		return nil
	})
	return groups, err
}

// GetGroupByID returns the canonical group regardless of group set.
func (e *Engine) GetGroupByID(ctx context.Context, groupID int64) (types.Group, error) {
	const op = "GetGroupByID"
	g, err := e.store.GetGroupByID(ctx, groupID)
	if err != nil {
		return types.Group{}, types.AsPersistence(op, retag(op, err, types.KindGroup, groupID))
	}
	return g, nil
}

// GroupSets lists every group set.
func (e *Engine) GroupSets(ctx context.Context) ([]types.GroupSet, error) {
	var sets []types.GroupSet
	err := e.view(ctx, "GroupSets", func(tx types.Tx) error {
		var err error
		sets, err = tx.GroupSets()
		return err
	})
	return sets, err
}

// LoadOuts lists the load outs of groupSetID.
func (e *Engine) LoadOuts(ctx context.Context, groupSetID int64) ([]types.LoadOut, error) {
	const op = "LoadOuts"
	var loadOuts []types.LoadOut
	err := e.view(ctx, op, func(tx types.Tx) error {
		if err := requireGroupSet(tx, op, groupSetID); err != nil {
			return err
		}
		var err error
		loadOuts, err = tx.LoadOuts(groupSetID)
		return err
	})
	return loadOuts, err
}

func modGroup(g types.Group, m types.GroupMembership) types.ModGroup {
	return types.ModGroup{Group: g, GroupSetID: m.GroupSetID, ParentID: m.ParentID, Ordinal: m.Ordinal}
}
