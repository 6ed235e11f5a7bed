package types

import "slices"

// LoadOut is a named selection of active plugins within one group set.
type LoadOut struct {
	LoadOutID     int64   `json:"loadout_id"`
	Name          string  `json:"name"`
	GroupSetID    int64   `json:"group_set_id"`
	ActivePlugins []int64 `json:"active_plugins"`
}

// Validate checks the fields of l.
func (l LoadOut) Validate() error {
	if l.Name == "" {
		return ErrInvalidName
	}
	if l.GroupSetID == 0 {
		return ErrInvalidID
	}
	return nil
}

// IsActive reports whether pluginID is enabled in l.
func (l LoadOut) IsActive(pluginID int64) bool {
	return slices.Contains(l.ActivePlugins, pluginID)
}
