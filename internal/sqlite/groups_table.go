// This file implements the canonical group and group set rows.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

func (t *txn) Group(groupID int64) (types.Group, error) {
	var g types.Group
	err := t.queryRow(
		"SELECT group_id, name, description FROM groups WHERE group_id = ?",
		groupID,
	).Scan(&g.GroupID, &g.Name, &g.Description)
	if err != nil {
		return types.Group{}, notFound(err, "get", types.KindGroup, groupID)
	}
	return g, nil
}

func (t *txn) Groups() ([]types.Group, error) {
	rows, err := t.query("SELECT group_id, name, description FROM groups ORDER BY group_id")
	if err != nil {
		return nil, fmt.Errorf("querying groups: %w", err)
	}
	defer rows.Close()

	var groups []types.Group
	for rows.Next() {
		var g types.Group
		if err := rows.Scan(&g.GroupID, &g.Name, &g.Description); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// PutGroup inserts g or updates the canonical fields of an existing row.
func (t *txn) PutGroup(g types.Group) error {
	if g.GroupID == 0 {
		return types.ErrInvalidID
	}
	_, err := t.exec(
		`INSERT INTO groups (group_id, name, description) VALUES (?, ?, ?)
		 ON CONFLICT (group_id) DO UPDATE SET name = excluded.name, description = excluded.description`,
		g.GroupID, g.Name, g.Description,
	)
	if err != nil {
		return fmt.Errorf("persisting group %d: %w", g.GroupID, err)
	}
	t.touched[g.GroupID] = struct{}{}
	return nil
}

func (t *txn) DeleteGroup(groupID int64) error {
	res, err := t.exec("DELETE FROM groups WHERE group_id = ?", groupID)
	if err != nil {
		return fmt.Errorf("deleting group %d: %w", groupID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting group %d: %w", groupID, err)
	}
	if n == 0 {
		return types.NewNotFoundError("delete", types.KindGroup, groupID)
	}
	t.touched[groupID] = struct{}{}
	return nil
}

// NextGroupID returns max(group_id)+1, never less than 2 so that user groups
// cannot collide with the root.
func (t *txn) NextGroupID() (int64, error) {
	id, err := t.scalarInt("SELECT COALESCE(MAX(group_id), ?) + 1 FROM groups", types.RootGroupID)
	if err != nil {
		return 0, fmt.Errorf("allocating group id: %w", err)
	}
	return max(id, types.RootGroupID+1), nil
}

func (t *txn) GroupSet(groupSetID int64) (types.GroupSet, error) {
	var s types.GroupSet
	err := t.queryRow(
		"SELECT group_set_id, name FROM group_sets WHERE group_set_id = ?",
		groupSetID,
	).Scan(&s.GroupSetID, &s.Name)
	if err != nil {
		return types.GroupSet{}, notFound(err, "get", types.KindGroupSet, groupSetID)
	}
	return s, nil
}

func (t *txn) GroupSets() ([]types.GroupSet, error) {
	rows, err := t.query("SELECT group_set_id, name FROM group_sets ORDER BY group_set_id")
	if err != nil {
		return nil, fmt.Errorf("querying group sets: %w", err)
	}
	defer rows.Close()

	var sets []types.GroupSet
	for rows.Next() {
		var s types.GroupSet
		if err := rows.Scan(&s.GroupSetID, &s.Name); err != nil {
			return nil, fmt.Errorf("scanning group set: %w", err)
		}
		sets = append(sets, s)
	}
	return sets, rows.Err()
}

func (t *txn) PutGroupSet(s types.GroupSet) error {
	if s.GroupSetID == 0 {
		return types.ErrInvalidID
	}
	_, err := t.exec(
		`INSERT INTO group_sets (group_set_id, name) VALUES (?, ?)
		 ON CONFLICT (group_set_id) DO UPDATE SET name = excluded.name`,
		s.GroupSetID, s.Name,
	)
	if err != nil {
		return fmt.Errorf("persisting group set %d: %w", s.GroupSetID, err)
	}
	return nil
}

func (t *txn) NextGroupSetID() (int64, error) {
	id, err := t.scalarInt("SELECT COALESCE(MAX(group_set_id), 0) + 1 FROM group_sets")
	if err != nil {
		return 0, fmt.Errorf("allocating group set id: %w", err)
	}
	return id, nil
}
