// This file implements the canonical plugin rows and load outs.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

func (t *txn) Plugin(pluginID int64) (types.Plugin, error) {
	var p types.Plugin
	err := t.queryRow(
		"SELECT plugin_id, name, description, url FROM plugins WHERE plugin_id = ?",
		pluginID,
	).Scan(&p.PluginID, &p.Name, &p.Description, &p.URL)
	if err != nil {
		return types.Plugin{}, notFound(err, "get", types.KindPlugin, pluginID)
	}
	return p, nil
}

func (t *txn) Plugins() ([]types.Plugin, error) {
	rows, err := t.query("SELECT plugin_id, name, description, url FROM plugins ORDER BY plugin_id")
	if err != nil {
		return nil, fmt.Errorf("querying plugins: %w", err)
	}
	defer rows.Close()

	var plugins []types.Plugin
	for rows.Next() {
		var p types.Plugin
		if err := rows.Scan(&p.PluginID, &p.Name, &p.Description, &p.URL); err != nil {
			return nil, fmt.Errorf("scanning plugin: %w", err)
		}
		plugins = append(plugins, p)
	}
	return plugins, rows.Err()
}

func (t *txn) PutPlugin(p types.Plugin) error {
	if p.PluginID == 0 {
		return types.ErrInvalidID
	}
	_, err := t.exec(
		`INSERT INTO plugins (plugin_id, name, description, url) VALUES (?, ?, ?, ?)
		 ON CONFLICT (plugin_id) DO UPDATE SET
		   name = excluded.name, description = excluded.description, url = excluded.url`,
		p.PluginID, p.Name, p.Description, p.URL,
	)
	if err != nil {
		return fmt.Errorf("persisting plugin %d: %w", p.PluginID, err)
	}
	return nil
}

func (t *txn) NextPluginID() (int64, error) {
	id, err := t.scalarInt("SELECT COALESCE(MAX(plugin_id), 0) + 1 FROM plugins")
	if err != nil {
		return 0, fmt.Errorf("allocating plugin id: %w", err)
	}
	return id, nil
}

func (t *txn) LoadOut(loadOutID int64) (types.LoadOut, error) {
	var l types.LoadOut
	err := t.queryRow(
		"SELECT loadout_id, name, group_set_id FROM loadouts WHERE loadout_id = ?",
		loadOutID,
	).Scan(&l.LoadOutID, &l.Name, &l.GroupSetID)
	if err != nil {
		return types.LoadOut{}, notFound(err, "get", types.KindLoadOut, loadOutID)
	}
	active, err := t.activePlugins(loadOutID)
	if err != nil {
		return types.LoadOut{}, err
	}
	l.ActivePlugins = active
	return l, nil
}

func (t *txn) LoadOuts(groupSetID int64) ([]types.LoadOut, error) {
	rows, err := t.query(
		"SELECT loadout_id, name, group_set_id FROM loadouts WHERE group_set_id = ? ORDER BY loadout_id",
		groupSetID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying loadouts: %w", err)
	}
	var loadOuts []types.LoadOut
	for rows.Next() {
		var l types.LoadOut
		if err := rows.Scan(&l.LoadOutID, &l.Name, &l.GroupSetID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning loadout: %w", err)
		}
		loadOuts = append(loadOuts, l)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range loadOuts {
		active, err := t.activePlugins(loadOuts[i].LoadOutID)
		if err != nil {
			return nil, err
		}
		loadOuts[i].ActivePlugins = active
	}
	return loadOuts, nil
}

func (t *txn) activePlugins(loadOutID int64) ([]int64, error) {
	rows, err := t.query(
		"SELECT plugin_id FROM loadout_plugins WHERE loadout_id = ? ORDER BY plugin_id",
		loadOutID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying active plugins of loadout %d: %w", loadOutID, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning active plugin: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// PutLoadOut upserts the load out row and replaces its active plugin set.
func (t *txn) PutLoadOut(l types.LoadOut) error {
	if l.LoadOutID == 0 {
		return types.ErrInvalidID
	}
	_, err := t.exec(
		`INSERT INTO loadouts (loadout_id, name, group_set_id) VALUES (?, ?, ?)
		 ON CONFLICT (loadout_id) DO UPDATE SET name = excluded.name, group_set_id = excluded.group_set_id`,
		l.LoadOutID, l.Name, l.GroupSetID,
	)
	if err != nil {
		return fmt.Errorf("persisting loadout %d: %w", l.LoadOutID, err)
	}
	if _, err := t.exec("DELETE FROM loadout_plugins WHERE loadout_id = ?", l.LoadOutID); err != nil {
		return fmt.Errorf("clearing loadout %d plugins: %w", l.LoadOutID, err)
	}
	for _, pluginID := range l.ActivePlugins {
		if err := t.SetPluginActive(l.LoadOutID, pluginID, true); err != nil {
			return err
		}
	}
	return nil
}

func (t *txn) NextLoadOutID() (int64, error) {
	id, err := t.scalarInt("SELECT COALESCE(MAX(loadout_id), 0) + 1 FROM loadouts")
	if err != nil {
		return 0, fmt.Errorf("allocating loadout id: %w", err)
	}
	return id, nil
}

func (t *txn) SetPluginActive(loadOutID, pluginID int64, active bool) error {
	var err error
	if active {
		_, err = t.exec(
			"INSERT OR IGNORE INTO loadout_plugins (loadout_id, plugin_id) VALUES (?, ?)",
			loadOutID, pluginID,
		)
	} else {
		_, err = t.exec(
			"DELETE FROM loadout_plugins WHERE loadout_id = ? AND plugin_id = ?",
			loadOutID, pluginID,
		)
	}
	if err != nil {
		return fmt.Errorf("setting plugin %d active=%t in loadout %d: %w", pluginID, active, loadOutID, err)
	}
	return nil
}
