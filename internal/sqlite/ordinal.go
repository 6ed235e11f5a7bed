// This file implements the bulk ordinal renumbering statements.
package sqlite

import (
	"fmt"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

// renumberPluginsSQL ranks each (group set, group) plugin partition by its
// current order, ties broken by plugin id, and rewrites rows whose ordinal
// differs from the rank.
const renumberPluginsSQL = `UPDATE plugin_membership SET ordinal = ranked.rn
FROM (
    SELECT group_set_id, group_id, plugin_id,
           ROW_NUMBER() OVER (PARTITION BY group_set_id, group_id ORDER BY ordinal, plugin_id) AS rn
    FROM plugin_membership
) AS ranked
WHERE plugin_membership.group_set_id = ranked.group_set_id
  AND plugin_membership.group_id = ranked.group_id
  AND plugin_membership.plugin_id = ranked.plugin_id
  AND plugin_membership.ordinal <> ranked.rn`

// pinReservedSQL moves every reserved group to its fixed ordinal.
const pinReservedSQL = `UPDATE group_membership SET ordinal = ? - group_id
WHERE group_id < 0 AND ordinal <> ? - group_id`

// renumberGroupsSQL ranks each (group set, parent) partition of user groups.
// The root and reserved groups are outside every partition.
const renumberGroupsSQL = `UPDATE group_membership SET ordinal = ranked.rn
FROM (
    SELECT group_set_id, group_id,
           ROW_NUMBER() OVER (PARTITION BY group_set_id, parent_id ORDER BY ordinal, group_id) AS rn
    FROM group_membership
    WHERE group_id > ?
) AS ranked
WHERE group_membership.group_set_id = ranked.group_set_id
  AND group_membership.group_id = ranked.group_id
  AND group_membership.ordinal <> ranked.rn`

func (t *txn) RenumberPlugins() (int64, error) {
	res, err := t.exec(renumberPluginsSQL)
	if err != nil {
		return 0, fmt.Errorf("renumbering plugin ordinals: %w", err)
	}
	return res.RowsAffected()
}

func (t *txn) RenumberGroups() (int64, error) {
	pinned, err := t.exec(pinReservedSQL, types.ReservedOrdinalBase, types.ReservedOrdinalBase)
	if err != nil {
		return 0, fmt.Errorf("pinning reserved group ordinals: %w", err)
	}
	res, err := t.exec(renumberGroupsSQL, types.RootGroupID)
	if err != nil {
		return 0, fmt.Errorf("renumbering group ordinals: %w", err)
	}
	a, err := pinned.RowsAffected()
	if err != nil {
		return 0, err
	}
	b, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return a + b, nil
}
