package types

// Snapshot is the materialised content of one group set: every canonical
// row it references and every membership row it owns. Membership slices are
// sorted by (parent, ordinal) for groups and (group, ordinal) for plugins.
type Snapshot struct {
	GroupSet          GroupSet           `json:"group_set"`
	Groups            map[int64]Group    `json:"groups"`
	Plugins           map[int64]Plugin   `json:"plugins"`
	GroupMemberships  []GroupMembership  `json:"group_memberships"`
	PluginMemberships []PluginMembership `json:"plugin_memberships"`
	LoadOuts          []LoadOut          `json:"loadouts"`
}

// InstallLocator supplies the active game install. It is used for display
// labels only and never influences hierarchy logic.
type InstallLocator interface {
	GameName() string
	GamePath() string
}
