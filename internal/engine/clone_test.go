package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

func TestClone(t *testing.T) {
	f := newTree(t)
	set2, err := f.eng.CreateGroupSet(f.ctx, f.agg, "Survival")
	require.NoError(t, err)
	source, err := f.store.LoadSnapshot(f.ctx, types.DefaultGroupSetID)
	require.NoError(t, err)

	cloned, err := f.eng.Clone(f.ctx, f.agg, gameplay, types.DefaultGroupSetID, set2.GroupSetID)
	require.NoError(t, err)
	assert.Equal(t, types.GroupMembership{GroupSetID: set2.GroupSetID, GroupID: gameplay, Ordinal: 1}, cloned)

	cloned, err = f.eng.Clone(f.ctx, f.agg, combat, types.DefaultGroupSetID, set2.GroupSetID)
	require.NoError(t, err)
	assert.Nil(t, cloned.ParentID, "clones land at the top level")
	assert.Equal(t, 2, cloned.Ordinal)

	after, err := f.store.LoadSnapshot(f.ctx, types.DefaultGroupSetID)
	require.NoError(t, err)
	assert.Equal(t, source.GroupMemberships, after.GroupMemberships, "source set is unchanged")
	assert.Equal(t, source.PluginMemberships, after.PluginMemberships)
	assert.Equal(t, source.Groups[gameplay], after.Groups[gameplay])

	require.NoError(t, f.agg.Select(f.ctx, set2.GroupSetID))
	assert.Equal(t, []int64{1, 2, 3}, f.pluginOrder(t, gameplay))
	assert.Equal(t, []int64{gameplay, combat}, f.childOrder(0))
	assert.Empty(t, f.childOrder(gameplay), "children are not cloned")
	f.requireHealthy(t)

	path, err := PathToRoot(f.agg, combat)
	require.NoError(t, err)
	assert.Equal(t, []int64{types.RootGroupID, combat}, path)
}

func TestCloneErrors(t *testing.T) {
	f := newTree(t)
	set2, err := f.eng.CreateGroupSet(f.ctx, f.agg, "Survival")
	require.NoError(t, err)
	_, err = f.eng.Clone(f.ctx, f.agg, visuals, types.DefaultGroupSetID, set2.GroupSetID)
	require.NoError(t, err)

	tests := []struct {
		name    string
		groupID int64
		from    int64
		to      int64
		check   func(error) bool
	}{
		{"root", types.RootGroupID, 1, set2.GroupSetID, types.IsValidation},
		{"reserved", types.GroupUncategorized, 1, set2.GroupSetID, types.IsValidation},
		{"already a member", visuals, 1, set2.GroupSetID, types.IsValidation},
		{"into its own set", gameplay, 1, 1, types.IsValidation},
		{"missing source membership", gameplay, set2.GroupSetID, 1, types.IsNotFound},
		{"missing target set", gameplay, 1, 42, types.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.eng.Clone(f.ctx, f.agg, tt.groupID, tt.from, tt.to)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
		})
	}
	f.requireHealthy(t)
}

func TestCreateGroupSet(t *testing.T) {
	f := newTree(t)
	set, err := f.eng.CreateGroupSet(f.ctx, f.agg, "Survival")
	require.NoError(t, err)
	assert.Equal(t, types.GroupSet{GroupSetID: 2, Name: "Survival"}, set)

	snap, err := f.store.LoadSnapshot(f.ctx, set.GroupSetID)
	require.NoError(t, err)
	assert.Len(t, snap.GroupMemberships, 1+len(types.ReservedGroups))
	assert.Empty(t, snap.PluginMemberships)
	f.requireHealthy(t)

	_, err = f.eng.CreateGroupSet(f.ctx, f.agg, "Survival")
	assert.ErrorIs(t, err, types.ErrDuplicateName)
	_, err = f.eng.CreateGroupSet(f.ctx, f.agg, "")
	assert.ErrorIs(t, err, types.ErrInvalidName)
}

func TestForkGroupSet(t *testing.T) {
	f := newTree(t)
	fork, err := f.eng.ForkGroupSet(f.ctx, f.agg, types.DefaultGroupSetID, "Hardcore")
	require.NoError(t, err)

	source, err := f.store.LoadSnapshot(f.ctx, types.DefaultGroupSetID)
	require.NoError(t, err)
	copied, err := f.store.LoadSnapshot(f.ctx, fork.GroupSetID)
	require.NoError(t, err)

	require.Len(t, copied.GroupMemberships, len(source.GroupMemberships))
	for i, m := range source.GroupMemberships {
		m.GroupSetID = fork.GroupSetID
		assert.Equal(t, m, copied.GroupMemberships[i])
	}
	require.Len(t, copied.PluginMemberships, len(source.PluginMemberships))
	for i, m := range source.PluginMemberships {
		m.GroupSetID = fork.GroupSetID
		assert.Equal(t, m, copied.PluginMemberships[i])
	}

	// The fork evolves independently.
	require.NoError(t, f.eng.ChangeGroup(f.ctx, f.agg, combat, fork.GroupSetID, audio))
	g, err := f.eng.LoadGroup(f.ctx, combat, types.DefaultGroupSetID)
	require.NoError(t, err)
	assert.Equal(t, gameplay, *g.ParentID)
	f.requireHealthy(t)

	_, err = f.eng.ForkGroupSet(f.ctx, f.agg, 42, "Ghost")
	assert.True(t, types.IsNotFound(err))
}
