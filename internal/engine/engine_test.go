package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/internal/sqlite"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// Fixture ids. The tree in the default set is
//
//	root(1)
//	├── gameplay(2)
//	│   ├── combat(5)
//	│   └── magic(6)
//	├── visuals(3)
//	├── audio(4)
//	└── reserved groups
//
// with plugins 1, 2, 3 in gameplay in that order.
const (
	gameplay = int64(2)
	visuals  = int64(3)
	audio    = int64(4)
	combat   = int64(5)
	magic    = int64(6)
)

type fixture struct {
	ctx   context.Context
	store *sqlite.Backend
	eng   *Engine
	agg   *cache.Aggregate
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := sqlite.NewBackend(nil)
	require.NoError(t, store.Attach(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}))
	t.Cleanup(func() { store.Detach() })

	f := &fixture{
		ctx:   context.Background(),
		store: store,
		eng:   New(store, nil),
		agg:   cache.New(store, types.DefaultGroupSetID, nil),
	}
	require.NoError(t, f.agg.Refresh(f.ctx))
	return f
}

// newTree returns a fixture holding the tree described above.
func newTree(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	root := types.ParentPtr(types.RootGroupID)
	for _, g := range []struct {
		name   string
		parent *int64
	}{
		{"Gameplay", root},
		{"Visuals", root},
		{"Audio", root},
		{"Combat", types.ParentPtr(gameplay)},
		{"Magic", types.ParentPtr(gameplay)},
	} {
		_, err := f.eng.WriteGroup(f.ctx, f.agg, types.ModGroup{
			Group:      types.Group{Name: g.name},
			GroupSetID: types.DefaultGroupSetID,
			ParentID:   g.parent,
		})
		require.NoError(t, err)
	}
	for _, name := range []string{"Unofficial Patch", "Immersive Armors", "Frostfall"} {
		p, err := f.eng.WritePlugin(f.ctx, f.agg, types.Plugin{Name: name})
		require.NoError(t, err)
		_, err = f.eng.AddPlugin(f.ctx, f.agg, p.PluginID, gameplay, types.DefaultGroupSetID)
		require.NoError(t, err)
	}
	return f
}

// position returns groupID's membership from the aggregate.
func (f *fixture) position(t *testing.T, groupID int64) types.GroupMembership {
	t.Helper()
	m, ok := f.agg.Membership(groupID)
	require.True(t, ok, "group %d not in aggregate", groupID)
	return m
}

// pluginOrder returns the plugin ids under groupID in ordinal order and
// asserts the ordinals are 1..N.
func (f *fixture) pluginOrder(t *testing.T, groupID int64) []int64 {
	t.Helper()
	var ids []int64
	for i, m := range f.agg.Plugins(groupID) {
		assert.Equal(t, i+1, m.Ordinal, "plugin %d ordinal", m.PluginID)
		ids = append(ids, m.PluginID)
	}
	return ids
}

// childOrder returns the non-reserved children of parentID in ordinal order.
func (f *fixture) childOrder(parentID int64) []int64 {
	var ids []int64
	for _, g := range f.agg.Children(parentID) {
		if !g.Reserved() {
			ids = append(ids, g.GroupID)
		}
	}
	return ids
}

// requireHealthy asserts that Check finds nothing.
func (f *fixture) requireHealthy(t *testing.T) {
	t.Helper()
	violations, err := f.eng.Check(f.ctx)
	require.NoError(t, err)
	require.Empty(t, violations)
}

// corrupt writes membership rows directly, bypassing the engine.
func (f *fixture) corrupt(t *testing.T, fn func(tx types.Tx) error) {
	t.Helper()
	require.NoError(t, f.store.Update(f.ctx, fn))
	require.NoError(t, f.agg.Refresh(f.ctx))
}

func TestFixtureIsHealthy(t *testing.T) {
	f := newTree(t)
	f.requireHealthy(t)

	assert.Equal(t, []int64{gameplay, visuals, audio}, f.childOrder(types.RootGroupID))
	assert.Equal(t, []int64{combat, magic}, f.childOrder(gameplay))
	assert.Equal(t, []int64{1, 2, 3}, f.pluginOrder(t, gameplay))
}

func TestMutationsRefreshAggregate(t *testing.T) {
	f := newTree(t)
	var events []cache.Event
	f.agg.Subscribe(func(ev cache.Event) { events = append(events, ev) })
	before := f.agg.Revision()

	require.NoError(t, f.eng.ChangeGroup(f.ctx, f.agg, combat, types.DefaultGroupSetID, visuals))
	require.Len(t, events, 1)
	assert.Equal(t, cache.SnapshotReplaced, events[0].Type)
	assert.Equal(t, before+1, f.agg.Revision())
	assert.Equal(t, visuals, f.position(t, combat).Parent())

	err := f.eng.ChangeGroup(f.ctx, f.agg, combat, types.DefaultGroupSetID, types.GroupInactive)
	require.Error(t, err)
	assert.Len(t, events, 1, "failed operations do not refresh")
}

func TestBatchEmitsOneEvent(t *testing.T) {
	f := newTree(t)
	count := 0
	f.agg.Subscribe(func(cache.Event) { count++ })

	err := f.agg.Batch(f.ctx, func() error {
		if err := f.eng.ChangeGroup(f.ctx, f.agg, combat, types.DefaultGroupSetID, visuals); err != nil {
			return err
		}
		return f.eng.ChangeGroup(f.ctx, f.agg, magic, types.DefaultGroupSetID, visuals)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, []int64{combat, magic}, f.childOrder(visuals))
}

func TestNilAggregateIsAllowed(t *testing.T) {
	f := newTree(t)
	require.NoError(t, f.eng.ChangeGroup(f.ctx, nil, combat, types.DefaultGroupSetID, audio))

	g, err := f.eng.LoadGroup(f.ctx, combat, types.DefaultGroupSetID)
	require.NoError(t, err)
	assert.Equal(t, audio, *g.ParentID)
	assert.Equal(t, 1, g.Ordinal)
	assert.Equal(t, "Combat", g.Name)
}

func TestQueries(t *testing.T) {
	f := newTree(t)

	groups, err := f.eng.LoadGroupsForVariant(f.ctx, types.DefaultGroupSetID)
	require.NoError(t, err)
	assert.Len(t, groups, 1+len(types.ReservedGroups)+5)

	_, err = f.eng.LoadGroupsForVariant(f.ctx, 42)
	var nf *types.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "LoadGroupsForVariant", nf.Op)
	assert.Equal(t, types.KindGroupSet, nf.Kind)

	g, err := f.eng.GetGroupByID(f.ctx, magic)
	require.NoError(t, err)
	assert.Equal(t, "Magic", g.Name)

	_, err = f.eng.GetGroupByID(f.ctx, 99)
	assert.True(t, types.IsNotFound(err))

	_, err = f.eng.LoadGroup(f.ctx, magic, 42)
	assert.True(t, types.IsNotFound(err))

	sets, err := f.eng.GroupSets(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, []types.GroupSet{types.DefaultGroupSet}, sets)
}
