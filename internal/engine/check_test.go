package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

func healthySnapshot() *types.Snapshot {
	root := types.ParentPtr(types.RootGroupID)
	snap := &types.Snapshot{
		GroupSet: types.DefaultGroupSet,
		GroupMemberships: []types.GroupMembership{
			{GroupSetID: 1, GroupID: types.RootGroupID, Ordinal: types.RootOrdinal},
			{GroupSetID: 1, GroupID: 2, ParentID: root, Ordinal: 1},
			{GroupSetID: 1, GroupID: 3, ParentID: root, Ordinal: 2},
		},
		PluginMemberships: []types.PluginMembership{
			{GroupSetID: 1, GroupID: 2, PluginID: 1, Ordinal: 1},
			{GroupSetID: 1, GroupID: 2, PluginID: 2, Ordinal: 2},
		},
	}
	for _, g := range types.ReservedGroups {
		snap.GroupMemberships = append(snap.GroupMemberships, types.GroupMembership{
			GroupSetID: 1, GroupID: g.GroupID, ParentID: root, Ordinal: types.ReservedOrdinal(g.GroupID),
		})
	}
	return snap
}

func TestCheckSnapshot(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *types.Snapshot)
		want   []Rule
	}{
		{"healthy", func(*types.Snapshot) {}, nil},
		{
			name:   "root ordinal",
			mutate: func(s *types.Snapshot) { s.GroupMemberships[0].Ordinal = 5 },
			want:   []Rule{RuleRoot},
		},
		{
			name: "cycle",
			mutate: func(s *types.Snapshot) {
				s.GroupMemberships[1].ParentID = types.ParentPtr(3)
				s.GroupMemberships[2].ParentID = types.ParentPtr(2)
			},
			want: []Rule{RuleDensity, RuleCycle, RuleCycle},
		},
		{
			name:   "reserved ordinal drift",
			mutate: func(s *types.Snapshot) { s.GroupMemberships[3].Ordinal = 3 },
			want:   []Rule{RuleReserved},
		},
		{
			name:   "missing reserved group",
			mutate: func(s *types.Snapshot) { s.GroupMemberships = s.GroupMemberships[:5] },
			want:   []Rule{RuleReserved},
		},
		{
			name:   "group gap",
			mutate: func(s *types.Snapshot) { s.GroupMemberships[2].Ordinal = 3 },
			want:   []Rule{RuleDensity},
		},
		{
			name:   "duplicate plugin ordinal",
			mutate: func(s *types.Snapshot) { s.PluginMemberships[1].Ordinal = 1 },
			want:   []Rule{RuleDensity},
		},
		{
			name: "plugin in missing group",
			mutate: func(s *types.Snapshot) {
				s.PluginMemberships = append(s.PluginMemberships, types.PluginMembership{GroupSetID: 1, GroupID: 9, PluginID: 3, Ordinal: 1})
			},
			want: []Rule{RuleParent},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := healthySnapshot()
			tt.mutate(snap)
			var got []Rule
			for _, v := range CheckSnapshot(snap) {
				assert.Equal(t, int64(1), v.GroupSetID)
				assert.NotEmpty(t, v.String())
				got = append(got, v.Rule)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}
