package sqlite

// Schema DDL for all tables. Statements are idempotent so Attach can run them
// against an existing database file.
const (
	createGroups = `CREATE TABLE IF NOT EXISTS groups (
    group_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT ''
);`

	createGroupSets = `CREATE TABLE IF NOT EXISTS group_sets (
    group_set_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
);`

	createPlugins = `CREATE TABLE IF NOT EXISTS plugins (
    plugin_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    url TEXT NOT NULL DEFAULT ''
);`

	createGroupMembership = `CREATE TABLE IF NOT EXISTS group_membership (
    group_set_id INTEGER NOT NULL,
    group_id INTEGER NOT NULL,
    parent_id INTEGER,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (group_set_id, group_id),
    FOREIGN KEY (group_set_id) REFERENCES group_sets(group_set_id) ON DELETE CASCADE,
    FOREIGN KEY (group_id) REFERENCES groups(group_id),
    FOREIGN KEY (parent_id) REFERENCES groups(group_id)
);`

	createPluginMembership = `CREATE TABLE IF NOT EXISTS plugin_membership (
    group_set_id INTEGER NOT NULL,
    group_id INTEGER NOT NULL,
    plugin_id INTEGER NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (group_set_id, group_id, plugin_id),
    FOREIGN KEY (group_set_id) REFERENCES group_sets(group_set_id) ON DELETE CASCADE,
    FOREIGN KEY (group_id) REFERENCES groups(group_id),
    FOREIGN KEY (plugin_id) REFERENCES plugins(plugin_id)
);`

	createLoadOuts = `CREATE TABLE IF NOT EXISTS loadouts (
    loadout_id INTEGER PRIMARY KEY,
    name TEXT NOT NULL,
    group_set_id INTEGER NOT NULL,
    FOREIGN KEY (group_set_id) REFERENCES group_sets(group_set_id) ON DELETE CASCADE
);`

	createLoadOutPlugins = `CREATE TABLE IF NOT EXISTS loadout_plugins (
    loadout_id INTEGER NOT NULL,
    plugin_id INTEGER NOT NULL,
    PRIMARY KEY (loadout_id, plugin_id),
    FOREIGN KEY (loadout_id) REFERENCES loadouts(loadout_id) ON DELETE CASCADE,
    FOREIGN KEY (plugin_id) REFERENCES plugins(plugin_id)
);`
)

// Index DDL for sibling and partition lookups.
const (
	idxGroupMembershipParent = `CREATE INDEX IF NOT EXISTS idx_group_membership_parent ON group_membership(group_set_id, parent_id, ordinal);`
	idxGroupMembershipGroup  = `CREATE INDEX IF NOT EXISTS idx_group_membership_group ON group_membership(group_id);`
	idxPluginMembershipGroup = `CREATE INDEX IF NOT EXISTS idx_plugin_membership_group ON plugin_membership(group_set_id, group_id, ordinal);`
	idxLoadOutsGroupSet      = `CREATE INDEX IF NOT EXISTS idx_loadouts_group_set ON loadouts(group_set_id);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createGroups,
	createGroupSets,
	createPlugins,
	createGroupMembership,
	createPluginMembership,
	createLoadOuts,
	createLoadOutPlugins,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxGroupMembershipParent,
	idxGroupMembershipGroup,
	idxPluginMembershipGroup,
	idxLoadOutsGroupSet,
}
