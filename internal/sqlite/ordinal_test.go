package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

func TestRenumberGroups(t *testing.T) {
	b := attachedBackend(t)
	ctx := context.Background()
	putGroups(t, b,
		membership(2, 1, 5),
		membership(3, 1, 5),
		membership(4, 1, 12),
		membership(5, 2, 3),
		membership(6, 0, 7),
	)
	require.NoError(t, b.Update(ctx, func(tx types.Tx) error {
		m := membership(types.GroupNeverLoad, 1, 4)
		return tx.UpdateGroupMembership(types.DefaultGroupSetID, types.GroupNeverLoad, m)
	}))

	var n int64
	require.NoError(t, b.Update(ctx, func(tx types.Tx) error {
		var err error
		n, err = tx.RenumberGroups()
		return err
	}))
	assert.Equal(t, int64(6), n)

	snap, err := b.LoadSnapshot(ctx, types.DefaultGroupSetID)
	require.NoError(t, err)
	got := map[int64]int{}
	for _, m := range snap.GroupMemberships {
		got[m.GroupID] = m.Ordinal
	}
	assert.Equal(t, map[int64]int{
		1: 0,
		2: 1, 3: 2, 4: 3,
		5: 1,
		6: 1,
		types.GroupUncategorized: 9997, types.GroupNeverLoad: 9998, types.GroupInactive: 9999,
	}, got)

	require.NoError(t, b.Update(ctx, func(tx types.Tx) error {
		var err error
		n, err = tx.RenumberGroups()
		return err
	}))
	assert.Zero(t, n, "second pass is a no-op")
}

func TestRenumberPlugins(t *testing.T) {
	b := attachedBackend(t)
	ctx := context.Background()
	putGroups(t, b, membership(2, 1, 1))

	require.NoError(t, b.Update(ctx, func(tx types.Tx) error {
		ordinals := map[int64]int{1: 4, 2: 4, 3: 9}
		for id, ord := range ordinals {
			if err := tx.PutPlugin(types.Plugin{PluginID: id, Name: "p"}); err != nil {
				return err
			}
			m := types.PluginMembership{GroupSetID: 1, GroupID: 2, PluginID: id, Ordinal: ord}
			if err := tx.InsertPluginMembership(m); err != nil {
				return err
			}
		}
		_, err := tx.RenumberPlugins()
		return err
	}))

	require.NoError(t, b.View(ctx, func(tx types.Tx) error {
		ms, err := tx.PluginMemberships(1, 2)
		require.NoError(t, err)
		require.Len(t, ms, 3)
		for i, want := range []int64{1, 2, 3} {
			assert.Equal(t, want, ms[i].PluginID)
			assert.Equal(t, i+1, ms[i].Ordinal)
		}
		return nil
	}))
}
