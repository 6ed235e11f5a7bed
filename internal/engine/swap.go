package engine

import (
	"context"
	"errors"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// Swap exchanges the positions of two memberships of the same kind: for
// groups the (group set, parent, ordinal) triples, for plugins the
// (group set, group, ordinal) triples. Swapping twice restores the original
// state. Refs of different kinds are rejected without touching the store.
// Groups swapped across two group sets must both be leaves: neither may hold
// child groups or plugins in its current set.
func (e *Engine) Swap(ctx context.Context, agg *cache.Aggregate, a, b types.Ref) error {
	const op = "Swap"
	if a.Kind != b.Kind {
		return types.NewValidationError(op, types.ErrKindMismatch)
	}
	if err := a.Validate(); err != nil {
		return types.NewValidationError(op, err)
	}
	if err := b.Validate(); err != nil {
		return types.NewValidationError(op, err)
	}
	// Exchanging two memberships of one entity leaves the same rows behind.
	if a.ID == b.ID {
		return nil
	}

	var fn func(tx types.Tx) error
	switch a.Kind {
	case types.KindGroup:
		if err := movable(op, a.ID); err != nil {
			return err
		}
		if err := movable(op, b.ID); err != nil {
			return err
		}
		fn = func(tx types.Tx) error { return swapGroups(tx, op, a, b) }
	case types.KindPlugin:
		fn = func(tx types.Tx) error { return swapPlugins(tx, op, a, b) }
	case types.KindLoadOut, types.KindGroupSet, types.KindURL, types.KindInvalid:
		return types.NewValidationError(op, types.ErrUnsupportedKind)
	default:
		return types.NewValidationError(op, types.ErrInvalidKind)
	}

	if err := e.update(ctx, op, agg, fn); err != nil {
		return err
	}
	e.logger.Debug("swapped", "kind", a.Kind, "a", a.String(), "b", b.String())
	return nil
}

func swapGroups(tx types.Tx, op string, a, b types.Ref) error {
	ma, err := groupMembership(tx, op, a.GroupSetID, a.ID)
	if err != nil {
		return err
	}
	mb, err := groupMembership(tx, op, b.GroupSetID, b.ID)
	if err != nil {
		return err
	}

	// A membership that leaves its group set would strand its children there.
	if ma.GroupSetID != mb.GroupSetID {
		for _, m := range []types.GroupMembership{ma, mb} {
			if err := requireLeaf(tx, op, m); err != nil {
				return err
			}
		}
	}

	newA := types.GroupMembership{GroupSetID: mb.GroupSetID, GroupID: a.ID, ParentID: mb.ParentID, Ordinal: mb.Ordinal}
	newB := types.GroupMembership{GroupSetID: ma.GroupSetID, GroupID: b.ID, ParentID: ma.ParentID, Ordinal: ma.Ordinal}
	if err := tx.UpdateGroupMembership(ma.GroupSetID, a.ID, newA); err != nil {
		return err
	}
	if err := tx.UpdateGroupMembership(mb.GroupSetID, b.ID, newB); err != nil {
		return err
	}

	// Swapping a group with one of its descendants would close a loop.
	for _, m := range []types.GroupMembership{newA, newB} {
		if _, err := ancestors(tx, op, m.GroupSetID, m.GroupID); err != nil {
			if errors.Is(err, types.ErrCycle) {
				return types.NewValidationError(op, types.ErrSelfParent)
			}
			return err
		}
	}
	return nil
}

// requireLeaf rejects a group that has child groups or plugins in the group
// set of m.
func requireLeaf(tx types.Tx, op string, m types.GroupMembership) error {
	children, err := tx.ChildGroups(m.GroupSetID, types.ParentPtr(m.GroupID))
	if err != nil {
		return err
	}
	plugins, err := tx.PluginMemberships(m.GroupSetID, m.GroupID)
	if err != nil {
		return err
	}
	if len(children) > 0 || len(plugins) > 0 {
		return types.NewValidationError(op, types.ErrHasMembers)
	}
	return nil
}

func swapPlugins(tx types.Tx, op string, a, b types.Ref) error {
	pa, err := tx.PluginMembership(a.GroupSetID, a.GroupID, a.ID)
	if err != nil {
		return retag(op, err, types.KindPlugin, a.ID)
	}
	pb, err := tx.PluginMembership(b.GroupSetID, b.GroupID, b.ID)
	if err != nil {
		return retag(op, err, types.KindPlugin, b.ID)
	}

	newA := types.PluginMembership{GroupSetID: pb.GroupSetID, GroupID: pb.GroupID, PluginID: a.ID, Ordinal: pb.Ordinal}
	newB := types.PluginMembership{GroupSetID: pa.GroupSetID, GroupID: pa.GroupID, PluginID: b.ID, Ordinal: pa.Ordinal}
	if err := tx.UpdatePluginMembership(pa.GroupSetID, pa.GroupID, a.ID, newA); err != nil {
		return err
	}
	return tx.UpdatePluginMembership(pb.GroupSetID, pb.GroupID, b.ID, newB)
}
