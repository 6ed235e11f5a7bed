// This file implements seeding of the well-known rows on attach.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

// seedHierarchy makes sure the root group, the reserved groups and the default
// group set exist, and that every group set carries the root and reserved
// memberships. Existing rows are left alone, so seeding runs on every attach
// and after every import.
func seedHierarchy(ctx context.Context, tx *sql.Tx) error {
	canonical := append([]types.Group{types.RootGroup}, types.ReservedGroups...)
	for _, g := range canonical {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO groups (group_id, name, description) VALUES (?, ?, ?)",
			g.GroupID, g.Name, g.Description,
		)
		if err != nil {
			return fmt.Errorf("seeding group %s: %w", g.Name, err)
		}
	}

	_, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_sets (group_set_id, name) VALUES (?, ?)",
		types.DefaultGroupSet.GroupSetID, types.DefaultGroupSet.Name,
	)
	if err != nil {
		return fmt.Errorf("seeding default group set: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT group_set_id FROM group_sets ORDER BY group_set_id")
	if err != nil {
		return fmt.Errorf("listing group sets for seeding: %w", err)
	}
	var sets []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scanning group set for seeding: %w", err)
		}
		sets = append(sets, id)
	}
	if err := rows.Close(); err != nil {
		return err
	}

	for _, setID := range sets {
		if err := seedGroupSet(ctx, tx, setID); err != nil {
			return err
		}
	}
	return nil
}

// seedGroupSet inserts the root and reserved memberships of one group set.
func seedGroupSet(ctx context.Context, tx *sql.Tx, groupSetID int64) error {
	_, err := tx.ExecContext(ctx,
		"INSERT OR IGNORE INTO group_membership (group_set_id, group_id, parent_id, ordinal) VALUES (?, ?, NULL, ?)",
		groupSetID, types.RootGroupID, types.RootOrdinal,
	)
	if err != nil {
		return fmt.Errorf("seeding root membership in set %d: %w", groupSetID, err)
	}
	for _, g := range types.ReservedGroups {
		_, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO group_membership (group_set_id, group_id, parent_id, ordinal) VALUES (?, ?, ?, ?)",
			groupSetID, g.GroupID, types.RootGroupID, types.ReservedOrdinal(g.GroupID),
		)
		if err != nil {
			return fmt.Errorf("seeding %s membership in set %d: %w", g.Name, groupSetID, err)
		}
	}
	return nil
}
