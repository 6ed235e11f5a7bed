package types

// Plugin is the canonical row of a game plugin. Plugin contents are owned
// elsewhere; the store only keeps what the hierarchy needs to display and
// validate memberships.
type Plugin struct {
	PluginID    int64  `json:"plugin_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// Validate checks the canonical fields of p.
func (p Plugin) Validate() error {
	if p.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// PluginMembership places a plugin inside one group of one group set. The
// ordinal is scoped to (GroupSetID, GroupID).
type PluginMembership struct {
	GroupSetID int64 `json:"group_set_id"`
	GroupID    int64 `json:"group_id"`
	PluginID   int64 `json:"plugin_id"`
	Ordinal    int   `json:"ordinal"`
}

// Validate checks that m carries the ids needed to key a membership row.
func (m PluginMembership) Validate() error {
	if m.GroupSetID == 0 || m.GroupID == 0 || m.PluginID == 0 {
		return ErrInvalidID
	}
	return nil
}

// Ref returns the membership reference of m.
func (m PluginMembership) Ref() Ref { return PluginRef(m.PluginID, m.GroupID, m.GroupSetID) }
