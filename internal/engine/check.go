package engine

import (
	"context"
	"fmt"
	"slices"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

// Rule names the structural invariant a Violation breaks.
type Rule string

// Checked invariants.
const (
	RuleRoot     Rule = "root"
	RuleReserved Rule = "reserved"
	RuleParent   Rule = "parent"
	RuleCycle    Rule = "cycle"
	RuleDensity  Rule = "density"
)

// Violation is one invariant breach found by Check.
type Violation struct {
	GroupSetID int64      `json:"group_set_id"`
	Rule       Rule       `json:"rule"`
	Kind       types.Kind `json:"kind"`
	ID         int64      `json:"id"`
	Detail     string     `json:"detail"`
}

func (v Violation) String() string {
	return fmt.Sprintf("set %d: %s: %s %d: %s", v.GroupSetID, v.Rule, v.Kind, v.ID, v.Detail)
}

// Check verifies every group set without modifying anything and returns the
// violations found, in group set order. A healthy store returns none.
func (e *Engine) Check(ctx context.Context) ([]Violation, error) {
	const op = "Check"
	var sets []types.GroupSet
	if err := e.view(ctx, op, func(tx types.Tx) error {
		var err error
		sets, err = tx.GroupSets()
		return err
	}); err != nil {
		return nil, err
	}

	var out []Violation
	for _, set := range sets {
		snap, err := e.store.LoadSnapshot(ctx, set.GroupSetID)
		if err != nil {
			return nil, types.AsPersistence(op, err)
		}
		out = append(out, CheckSnapshot(snap)...)
	}
	return out, nil
}

// CheckSnapshot verifies one materialised group set.
func CheckSnapshot(snap *types.Snapshot) []Violation {
	setID := snap.GroupSet.GroupSetID
	var out []Violation
	add := func(rule Rule, kind types.Kind, id int64, format string, args ...any) {
		out = append(out, Violation{GroupSetID: setID, Rule: rule, Kind: kind, ID: id, Detail: fmt.Sprintf(format, args...)})
	}

	byGroup := make(map[int64]types.GroupMembership, len(snap.GroupMemberships))
	for _, m := range snap.GroupMemberships {
		byGroup[m.GroupID] = m
	}

	root, ok := byGroup[types.RootGroupID]
	switch {
	case !ok:
		add(RuleRoot, types.KindGroup, types.RootGroupID, "root membership missing")
	case root.ParentID != nil || root.Ordinal != types.RootOrdinal:
		add(RuleRoot, types.KindGroup, types.RootGroupID, "root has parent %d and ordinal %d", root.Parent(), root.Ordinal)
	}

	for _, g := range types.ReservedGroups {
		m, ok := byGroup[g.GroupID]
		if !ok {
			add(RuleReserved, types.KindGroup, g.GroupID, "%s membership missing", g.Name)
			continue
		}
		if want := types.ReservedOrdinal(g.GroupID); m.Ordinal != want {
			add(RuleReserved, types.KindGroup, g.GroupID, "ordinal %d, want %d", m.Ordinal, want)
		}
	}

	partitions := make(map[int64][]int)
	for _, m := range snap.GroupMemberships {
		if types.IsRoot(m.GroupID) {
			continue
		}
		if m.ParentID != nil {
			if _, ok := byGroup[*m.ParentID]; !ok {
				add(RuleParent, types.KindGroup, m.GroupID, "parent %d is not in the set", *m.ParentID)
			}
		}
		if !types.IsReserved(m.GroupID) {
			partitions[m.Parent()] = append(partitions[m.Parent()], m.Ordinal)
		}
	}
	for _, parent := range sortedKeys(partitions) {
		if detail, ok := dense(partitions[parent]); !ok {
			add(RuleDensity, types.KindGroup, parent, "children of group %d: %s", parent, detail)
		}
	}

	for _, m := range snap.GroupMemberships {
		visited := map[int64]bool{}
		for cur, ok := m, true; ok && cur.ParentID != nil; cur, ok = byGroup[*cur.ParentID] {
			if visited[cur.GroupID] {
				add(RuleCycle, types.KindGroup, m.GroupID, "ancestor chain revisits group %d", cur.GroupID)
				break
			}
			visited[cur.GroupID] = true
		}
	}

	pluginPartitions := make(map[int64][]int)
	for _, m := range snap.PluginMemberships {
		if _, ok := byGroup[m.GroupID]; !ok {
			add(RuleParent, types.KindPlugin, m.PluginID, "group %d is not in the set", m.GroupID)
		}
		pluginPartitions[m.GroupID] = append(pluginPartitions[m.GroupID], m.Ordinal)
	}
	for _, groupID := range sortedKeys(pluginPartitions) {
		if detail, ok := dense(pluginPartitions[groupID]); !ok {
			add(RuleDensity, types.KindPlugin, groupID, "plugins of group %d: %s", groupID, detail)
		}
	}
	return out
}

// dense reports whether ordinals are exactly 1..N in some order.
func dense(ordinals []int) (string, bool) {
	sorted := slices.Clone(ordinals)
	slices.Sort(sorted)
	for i, o := range sorted {
		if o != i+1 {
			return fmt.Sprintf("ordinals %v are not 1..%d", sorted, len(sorted)), false
		}
	}
	return "", true
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
