package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

func TestPathToRoot(t *testing.T) {
	f := newTree(t)
	tests := []struct {
		name    string
		groupID int64
		want    []int64
	}{
		{"root", types.RootGroupID, []int64{types.RootGroupID}},
		{"top level", visuals, []int64{types.RootGroupID, visuals}},
		{"nested", magic, []int64{types.RootGroupID, gameplay, magic}},
		{"reserved", types.GroupNeverLoad, []int64{types.RootGroupID, types.GroupNeverLoad}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.eng.PathToRoot(f.agg, tt.groupID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := f.eng.PathToRoot(f.agg, 99)
	assert.True(t, types.IsNotFound(err))
}

func TestPathToRootDetectsCycle(t *testing.T) {
	f := newTree(t)
	// gameplay -> combat -> gameplay
	f.corrupt(t, func(tx types.Tx) error {
		return tx.UpdateGroupMembership(types.DefaultGroupSetID, gameplay, types.GroupMembership{
			GroupSetID: types.DefaultGroupSetID,
			GroupID:    gameplay,
			ParentID:   types.ParentPtr(combat),
			Ordinal:    1,
		})
	})

	for _, id := range []int64{magic, gameplay, combat} {
		_, err := PathToRoot(f.agg, id)
		require.Error(t, err, "group %d", id)
		assert.True(t, types.IsConsistency(err), "got %v", err)
		assert.ErrorIs(t, err, types.ErrCycle)
	}

	violations, err := f.eng.Check(f.ctx)
	require.NoError(t, err)
	var rules []Rule
	for _, v := range violations {
		rules = append(rules, v.Rule)
	}
	assert.Contains(t, rules, RuleCycle)

	// Structural edits refuse to build on the broken chain.
	err = f.eng.ChangeGroup(f.ctx, f.agg, visuals, types.DefaultGroupSetID, magic)
	require.Error(t, err)
	assert.True(t, types.IsConsistency(err), "got %v", err)
}

func TestPathToRootMissingParent(t *testing.T) {
	f := newTree(t)
	f.corrupt(t, func(tx types.Tx) error {
		return tx.DeleteGroupMembership(types.DefaultGroupSetID, gameplay)
	})

	_, err := PathToRoot(f.agg, combat)
	require.Error(t, err)
	assert.True(t, types.IsConsistency(err))
	assert.ErrorIs(t, err, types.ErrNotFound)

	violations, err := f.eng.Check(f.ctx)
	require.NoError(t, err)
	require.NotEmpty(t, violations)
	assert.Equal(t, RuleParent, violations[0].Rule)
}

func TestPathToRootRequiresAggregate(t *testing.T) {
	_, err := PathToRoot(nil, gameplay)
	require.Error(t, err)
	assert.True(t, types.IsValidation(err), "got %v", err)
	assert.ErrorIs(t, err, types.ErrNoAggregate)
}
