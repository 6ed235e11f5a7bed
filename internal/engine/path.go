package engine

import (
	"slices"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// PathToRoot resolves the ancestor chain of groupID in the aggregate's group
// set. The result starts with the root and ends with groupID. A top-level
// group hangs directly off the root. A chain that revisits a group, or that
// reaches a parent missing from the set, yields a ConsistencyError instead of
// looping.
func (e *Engine) PathToRoot(agg *cache.Aggregate, groupID int64) ([]int64, error) {
	return PathToRoot(agg, groupID)
}

// PathToRoot is the free-standing form of Engine.PathToRoot. It reads only
// the aggregate, which must not be nil.
func PathToRoot(agg *cache.Aggregate, groupID int64) ([]int64, error) {
	const op = "PathToRoot"
	if agg == nil {
		return nil, types.NewValidationError(op, types.ErrNoAggregate)
	}
	if _, ok := agg.Membership(groupID); !ok {
		return nil, types.NewNotFoundError(op, types.KindGroup, groupID)
	}

	visited := make(map[int64]bool)
	var walk []int64
	for cur := groupID; ; {
		if visited[cur] {
			return nil, &types.ConsistencyError{Op: op, Path: append(walk, cur), Err: types.ErrCycle}
		}
		visited[cur] = true
		walk = append(walk, cur)
		if types.IsRoot(cur) {
			break
		}
		m, ok := agg.Membership(cur)
		if !ok {
			return nil, &types.ConsistencyError{Op: op, Path: walk, Err: types.ErrNotFound}
		}
		if m.ParentID == nil {
			walk = append(walk, types.RootGroupID)
			break
		}
		cur = *m.ParentID
	}
	slices.Reverse(walk)
	return walk, nil
}
