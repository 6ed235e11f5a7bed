// This file implements group and plugin membership rows, the per-group-set
// placement of canonical entities.
package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

const groupMembershipColumns = "group_set_id, group_id, parent_id, ordinal"

// Sibling order within a group set: top-level rows first, then by parent,
// ordinal and id.
const groupMembershipOrder = "ORDER BY parent_id IS NOT NULL, parent_id, ordinal, group_id"

func scanGroupMembership(row interface{ Scan(...any) error }) (types.GroupMembership, error) {
	var (
		m      types.GroupMembership
		parent sql.NullInt64
	)
	if err := row.Scan(&m.GroupSetID, &m.GroupID, &parent, &m.Ordinal); err != nil {
		return types.GroupMembership{}, err
	}
	m.ParentID = fromNull(parent)
	return m, nil
}

func (t *txn) collectGroupMemberships(query string, args ...any) ([]types.GroupMembership, error) {
	rows, err := t.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying group memberships: %w", err)
	}
	defer rows.Close()

	var out []types.GroupMembership
	for rows.Next() {
		m, err := scanGroupMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning group membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *txn) GroupMembership(groupSetID, groupID int64) (types.GroupMembership, error) {
	m, err := scanGroupMembership(t.queryRow(
		"SELECT "+groupMembershipColumns+" FROM group_membership WHERE group_set_id = ? AND group_id = ?",
		groupSetID, groupID,
	))
	if err != nil {
		return types.GroupMembership{}, notFound(err, "get membership", types.KindGroup, groupID)
	}
	return m, nil
}

func (t *txn) GroupMemberships(groupSetID int64) ([]types.GroupMembership, error) {
	return t.collectGroupMemberships(
		"SELECT "+groupMembershipColumns+" FROM group_membership WHERE group_set_id = ? "+groupMembershipOrder,
		groupSetID,
	)
}

// ChildGroups returns the memberships whose parent is parentID, reserved
// groups included, in ordinal order. A nil parentID selects the top level.
func (t *txn) ChildGroups(groupSetID int64, parentID *int64) ([]types.GroupMembership, error) {
	return t.collectGroupMemberships(
		"SELECT "+groupMembershipColumns+" FROM group_membership WHERE group_set_id = ? AND parent_id IS ? AND group_id <> ? "+groupMembershipOrder,
		groupSetID, nullable(parentID), types.RootGroupID,
	)
}

func (t *txn) InsertGroupMembership(m types.GroupMembership) error {
	_, err := t.exec(
		"INSERT INTO group_membership ("+groupMembershipColumns+") VALUES (?, ?, ?, ?)",
		m.GroupSetID, m.GroupID, nullable(m.ParentID), m.Ordinal,
	)
	if err != nil {
		return fmt.Errorf("inserting membership of group %d in set %d: %w", m.GroupID, m.GroupSetID, err)
	}
	return nil
}

// UpdateGroupMembership rewrites the row keyed by (groupSetID, groupID) with
// every field of m, key columns included.
func (t *txn) UpdateGroupMembership(groupSetID, groupID int64, m types.GroupMembership) error {
	res, err := t.exec(
		`UPDATE group_membership SET group_set_id = ?, group_id = ?, parent_id = ?, ordinal = ?
		 WHERE group_set_id = ? AND group_id = ?`,
		m.GroupSetID, m.GroupID, nullable(m.ParentID), m.Ordinal, groupSetID, groupID,
	)
	if err != nil {
		return fmt.Errorf("updating membership of group %d in set %d: %w", groupID, groupSetID, err)
	}
	return requireRow(res, "update membership", types.KindGroup, groupID)
}

func (t *txn) DeleteGroupMembership(groupSetID, groupID int64) error {
	res, err := t.exec(
		"DELETE FROM group_membership WHERE group_set_id = ? AND group_id = ?",
		groupSetID, groupID,
	)
	if err != nil {
		return fmt.Errorf("deleting membership of group %d in set %d: %w", groupID, groupSetID, err)
	}
	return requireRow(res, "delete membership", types.KindGroup, groupID)
}

func (t *txn) CountGroupMemberships(groupID int64) (int, error) {
	n, err := t.scalarInt("SELECT COUNT(*) FROM group_membership WHERE group_id = ?", groupID)
	if err != nil {
		return 0, fmt.Errorf("counting memberships of group %d: %w", groupID, err)
	}
	return int(n), nil
}

func (t *txn) MaxGroupOrdinal(groupSetID int64, parentID *int64) (int, error) {
	n, err := t.scalarInt(
		`SELECT COALESCE(MAX(ordinal), 0) FROM group_membership
		 WHERE group_set_id = ? AND parent_id IS ? AND group_id > ?`,
		groupSetID, nullable(parentID), types.RootGroupID,
	)
	if err != nil {
		return 0, fmt.Errorf("reading max group ordinal: %w", err)
	}
	return int(n), nil
}

func (t *txn) CloseGroupGap(groupSetID int64, parentID *int64, ordinal int, exclude int64) error {
	_, err := t.exec(
		`UPDATE group_membership SET ordinal = ordinal - 1
		 WHERE group_set_id = ? AND parent_id IS ? AND group_id > ? AND group_id <> ? AND ordinal > ?`,
		groupSetID, nullable(parentID), types.RootGroupID, exclude, ordinal,
	)
	if err != nil {
		return fmt.Errorf("closing group ordinal gap: %w", err)
	}
	return nil
}

const pluginMembershipColumns = "group_set_id, group_id, plugin_id, ordinal"

func (t *txn) collectPluginMemberships(query string, args ...any) ([]types.PluginMembership, error) {
	rows, err := t.query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying plugin memberships: %w", err)
	}
	defer rows.Close()

	var out []types.PluginMembership
	for rows.Next() {
		var m types.PluginMembership
		if err := rows.Scan(&m.GroupSetID, &m.GroupID, &m.PluginID, &m.Ordinal); err != nil {
			return nil, fmt.Errorf("scanning plugin membership: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (t *txn) PluginMembership(groupSetID, groupID, pluginID int64) (types.PluginMembership, error) {
	var m types.PluginMembership
	err := t.queryRow(
		"SELECT "+pluginMembershipColumns+" FROM plugin_membership WHERE group_set_id = ? AND group_id = ? AND plugin_id = ?",
		groupSetID, groupID, pluginID,
	).Scan(&m.GroupSetID, &m.GroupID, &m.PluginID, &m.Ordinal)
	if err != nil {
		return types.PluginMembership{}, notFound(err, "get membership", types.KindPlugin, pluginID)
	}
	return m, nil
}

func (t *txn) PluginMemberships(groupSetID, groupID int64) ([]types.PluginMembership, error) {
	return t.collectPluginMemberships(
		"SELECT "+pluginMembershipColumns+" FROM plugin_membership WHERE group_set_id = ? AND group_id = ? ORDER BY ordinal, plugin_id",
		groupSetID, groupID,
	)
}

func (t *txn) PluginMembershipsInSet(groupSetID int64) ([]types.PluginMembership, error) {
	return t.collectPluginMemberships(
		"SELECT "+pluginMembershipColumns+" FROM plugin_membership WHERE group_set_id = ? ORDER BY group_id, ordinal, plugin_id",
		groupSetID,
	)
}

func (t *txn) InsertPluginMembership(m types.PluginMembership) error {
	_, err := t.exec(
		"INSERT INTO plugin_membership ("+pluginMembershipColumns+") VALUES (?, ?, ?, ?)",
		m.GroupSetID, m.GroupID, m.PluginID, m.Ordinal,
	)
	if err != nil {
		return fmt.Errorf("inserting membership of plugin %d in group %d: %w", m.PluginID, m.GroupID, err)
	}
	return nil
}

func (t *txn) UpdatePluginMembership(groupSetID, groupID, pluginID int64, m types.PluginMembership) error {
	res, err := t.exec(
		`UPDATE plugin_membership SET group_set_id = ?, group_id = ?, plugin_id = ?, ordinal = ?
		 WHERE group_set_id = ? AND group_id = ? AND plugin_id = ?`,
		m.GroupSetID, m.GroupID, m.PluginID, m.Ordinal, groupSetID, groupID, pluginID,
	)
	if err != nil {
		return fmt.Errorf("updating membership of plugin %d in group %d: %w", pluginID, groupID, err)
	}
	return requireRow(res, "update membership", types.KindPlugin, pluginID)
}

func (t *txn) DeletePluginMembership(groupSetID, groupID, pluginID int64) error {
	res, err := t.exec(
		"DELETE FROM plugin_membership WHERE group_set_id = ? AND group_id = ? AND plugin_id = ?",
		groupSetID, groupID, pluginID,
	)
	if err != nil {
		return fmt.Errorf("deleting membership of plugin %d in group %d: %w", pluginID, groupID, err)
	}
	return requireRow(res, "delete membership", types.KindPlugin, pluginID)
}

func (t *txn) MaxPluginOrdinal(groupSetID, groupID int64) (int, error) {
	n, err := t.scalarInt(
		"SELECT COALESCE(MAX(ordinal), 0) FROM plugin_membership WHERE group_set_id = ? AND group_id = ?",
		groupSetID, groupID,
	)
	if err != nil {
		return 0, fmt.Errorf("reading max plugin ordinal: %w", err)
	}
	return int(n), nil
}

func (t *txn) ClosePluginGap(groupSetID, groupID int64, ordinal int, exclude int64) error {
	_, err := t.exec(
		`UPDATE plugin_membership SET ordinal = ordinal - 1
		 WHERE group_set_id = ? AND group_id = ? AND plugin_id <> ? AND ordinal > ?`,
		groupSetID, groupID, exclude, ordinal,
	)
	if err != nil {
		return fmt.Errorf("closing plugin ordinal gap: %w", err)
	}
	return nil
}

// requireRow reports a not-found error when res touched no row.
func requireRow(res sql.Result, op string, kind types.Kind, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s %s %d: %w", op, kind, id, err)
	}
	if n == 0 {
		return types.NewNotFoundError(op, kind, id)
	}
	return nil
}
