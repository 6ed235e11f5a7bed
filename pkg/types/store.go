package types

import "context"

// Store defines the interface for backend-agnostic hierarchy storage.
// Callers attach to a backend, run transactions through View and Update, and
// detach when done.
type Store interface {
	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist, applies the schema and seeds
	// the root group, the reserved groups and the default group set.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, operations return ErrStoreDetached.
	Detach() error

	// View runs fn inside a read-only transaction.
	View(ctx context.Context, fn func(tx Tx) error) error

	// Update runs fn inside a read-write transaction. The transaction commits
	// when fn returns nil and rolls back otherwise; no partial state is ever
	// committed.
	Update(ctx context.Context, fn func(tx Tx) error) error

	// LoadSnapshot materialises the whole of one group set.
	LoadSnapshot(ctx context.Context, groupSetID int64) (*Snapshot, error)

	// GetGroupByID returns the canonical group, served from an LRU cache
	// that Update invalidates for every group it writes.
	GetGroupByID(ctx context.Context, groupID int64) (Group, error)

	// Export writes every table to JSONL files in dir.
	Export(ctx context.Context, dir string) error

	// Import replaces the store content with the JSONL files in dir.
	Import(ctx context.Context, dir string) error
}

// Tx exposes the row-level primitives the engine composes into hierarchy
// operations. Every method runs inside the transaction that produced the Tx.
// Lookups of a missing row return a *NotFoundError.
type Tx interface {
	Group(groupID int64) (Group, error)
	Groups() ([]Group, error)
	PutGroup(g Group) error
	DeleteGroup(groupID int64) error
	NextGroupID() (int64, error)

	GroupSet(groupSetID int64) (GroupSet, error)
	GroupSets() ([]GroupSet, error)
	PutGroupSet(s GroupSet) error
	NextGroupSetID() (int64, error)

	Plugin(pluginID int64) (Plugin, error)
	Plugins() ([]Plugin, error)
	PutPlugin(p Plugin) error
	NextPluginID() (int64, error)

	GroupMembership(groupSetID, groupID int64) (GroupMembership, error)
	GroupMemberships(groupSetID int64) ([]GroupMembership, error)
	ChildGroups(groupSetID int64, parentID *int64) ([]GroupMembership, error)
	InsertGroupMembership(m GroupMembership) error
	UpdateGroupMembership(groupSetID, groupID int64, m GroupMembership) error
	DeleteGroupMembership(groupSetID, groupID int64) error
	CountGroupMemberships(groupID int64) (int, error)

	// MaxGroupOrdinal returns the largest ordinal among the non-reserved
	// children of parentID in groupSetID, or 0 when there are none.
	MaxGroupOrdinal(groupSetID int64, parentID *int64) (int, error)

	// CloseGroupGap decrements the ordinal of every non-reserved child of
	// parentID whose ordinal is greater than ordinal, skipping exclude.
	CloseGroupGap(groupSetID int64, parentID *int64, ordinal int, exclude int64) error

	PluginMembership(groupSetID, groupID, pluginID int64) (PluginMembership, error)
	PluginMemberships(groupSetID, groupID int64) ([]PluginMembership, error)
	PluginMembershipsInSet(groupSetID int64) ([]PluginMembership, error)
	InsertPluginMembership(m PluginMembership) error
	UpdatePluginMembership(groupSetID, groupID, pluginID int64, m PluginMembership) error
	DeletePluginMembership(groupSetID, groupID, pluginID int64) error

	// MaxPluginOrdinal returns the largest plugin ordinal under groupID in
	// groupSetID, or 0 when the group holds no plugins.
	MaxPluginOrdinal(groupSetID, groupID int64) (int, error)

	// ClosePluginGap decrements the ordinal of every plugin under groupID
	// whose ordinal is greater than ordinal, skipping exclude.
	ClosePluginGap(groupSetID, groupID int64, ordinal int, exclude int64) error

	// RenumberPlugins compacts every (group set, group) plugin partition to
	// 1..N by existing order. It returns the number of rows rewritten.
	RenumberPlugins() (int64, error)

	// RenumberGroups pins reserved groups to ReservedOrdinal and compacts
	// every (group set, parent) partition of non-reserved groups to 1..N by
	// existing order. It returns the number of rows rewritten.
	RenumberGroups() (int64, error)

	LoadOut(loadOutID int64) (LoadOut, error)
	LoadOuts(groupSetID int64) ([]LoadOut, error)
	PutLoadOut(l LoadOut) error
	NextLoadOutID() (int64, error)
	SetPluginActive(loadOutID, pluginID int64, active bool) error
}
