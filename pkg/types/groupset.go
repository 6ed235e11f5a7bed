package types

// GroupSet is a named variant of the whole hierarchy. Group and plugin
// memberships, parent links and ordinals are instantiated independently
// under each group set.
type GroupSet struct {
	GroupSetID int64  `json:"group_set_id"`
	Name       string `json:"name"`
}

// Validate checks the fields of s.
func (s GroupSet) Validate() error {
	if s.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// DefaultGroupSet is the master variant seeded into every store.
var DefaultGroupSet = GroupSet{GroupSetID: DefaultGroupSetID, Name: "Default"}
