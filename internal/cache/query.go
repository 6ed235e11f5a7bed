package cache

import "github.com/mesh-intelligence/loadout/pkg/types"

// Snapshot returns the current snapshot, or nil before the first load. The
// returned value is replaced, never mutated, by later reloads.
func (a *Aggregate) Snapshot() *types.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snap
}

// Membership returns the membership of groupID in the active group set.
func (a *Aggregate) Membership(groupID int64) (types.GroupMembership, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.byGroup[groupID]
	return m, ok
}

// Group returns groupID as positioned in the active group set.
func (a *Aggregate) Group(groupID int64) (types.ModGroup, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	m, ok := a.byGroup[groupID]
	if !ok {
		return types.ModGroup{}, false
	}
	return a.modGroup(m), true
}

func (a *Aggregate) modGroup(m types.GroupMembership) types.ModGroup {
	return types.ModGroup{
		Group:      a.snap.Groups[m.GroupID],
		GroupSetID: m.GroupSetID,
		ParentID:   m.ParentID,
		Ordinal:    m.Ordinal,
	}
}

// Children returns the groups under parentID in ordinal order, reserved
// groups last. Pass 0 for the top level.
func (a *Aggregate) Children(parentID int64) []types.ModGroup {
	a.mu.RLock()
	defer a.mu.RUnlock()
	list := a.children[parentID]
	out := make([]types.ModGroup, 0, len(list))
	for _, m := range list {
		out = append(out, a.modGroup(m))
	}
	return out
}

// Plugins returns the plugin memberships under groupID in ordinal order.
func (a *Aggregate) Plugins(groupID int64) []types.PluginMembership {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return append([]types.PluginMembership(nil), a.plugins[groupID]...)
}

// Plugin returns the canonical plugin row if it belongs to the active set.
func (a *Aggregate) Plugin(pluginID int64) (types.Plugin, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.snap == nil {
		return types.Plugin{}, false
	}
	p, ok := a.snap.Plugins[pluginID]
	return p, ok
}
