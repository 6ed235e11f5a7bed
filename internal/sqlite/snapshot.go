package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

// loadSnapshot materialises one group set through the Tx primitives.
func loadSnapshot(tx types.Tx, groupSetID int64) (*types.Snapshot, error) {
	set, err := tx.GroupSet(groupSetID)
	if err != nil {
		return nil, err
	}
	groupMemberships, err := tx.GroupMemberships(groupSetID)
	if err != nil {
		return nil, err
	}
	pluginMemberships, err := tx.PluginMembershipsInSet(groupSetID)
	if err != nil {
		return nil, err
	}
	loadOuts, err := tx.LoadOuts(groupSetID)
	if err != nil {
		return nil, err
	}

	snap := &types.Snapshot{
		GroupSet:          set,
		Groups:            make(map[int64]types.Group, len(groupMemberships)),
		Plugins:           make(map[int64]types.Plugin, len(pluginMemberships)),
		GroupMemberships:  groupMemberships,
		PluginMemberships: pluginMemberships,
		LoadOuts:          loadOuts,
	}
	for _, m := range groupMemberships {
		g, err := tx.Group(m.GroupID)
		if err != nil {
			return nil, fmt.Errorf("loading group %d of set %d: %w", m.GroupID, groupSetID, err)
		}
		snap.Groups[g.GroupID] = g
	}
	for _, m := range pluginMemberships {
		if _, ok := snap.Plugins[m.PluginID]; ok {
			continue
		}
		p, err := tx.Plugin(m.PluginID)
		if err != nil {
			return nil, fmt.Errorf("loading plugin %d of set %d: %w", m.PluginID, groupSetID, err)
		}
		snap.Plugins[p.PluginID] = p
	}
	return snap, nil
}
