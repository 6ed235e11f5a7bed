package types

import "fmt"

// Kind is the closed set of entity kinds the hierarchy and its presentation
// deal with. Switches over Kind list every constant; KindInvalid is the zero
// value and never names a real entity.
type Kind uint8

// Entity kinds.
const (
	KindInvalid Kind = iota
	KindGroup
	KindPlugin
	KindLoadOut
	KindGroupSet
	KindURL
)

// Kinds lists every valid kind in display order.
var Kinds = []Kind{KindGroup, KindPlugin, KindLoadOut, KindGroupSet, KindURL}

func (k Kind) String() string {
	switch k {
	case KindGroup:
		return "group"
	case KindPlugin:
		return "plugin"
	case KindLoadOut:
		return "loadout"
	case KindGroupSet:
		return "groupset"
	case KindURL:
		return "url"
	case KindInvalid:
		return "invalid"
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds other than KindInvalid.
func (k Kind) Valid() bool {
	switch k {
	case KindGroup, KindPlugin, KindLoadOut, KindGroupSet, KindURL:
		return true
	case KindInvalid:
		return false
	}
	return false
}

// Ordered reports whether entities of kind k carry a sibling ordinal.
func (k Kind) Ordered() bool {
	switch k {
	case KindGroup, KindPlugin:
		return true
	case KindLoadOut, KindGroupSet, KindURL, KindInvalid:
		return false
	}
	return false
}

// ParseKind returns the Kind named by s. It returns ErrInvalidKind for any
// name that String does not produce for a valid kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if k.String() == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// Ref identifies one membership row of an ordered entity. For groups, ID is
// the group id and GroupID is ignored. For plugins, ID is the plugin id and
// GroupID names the containing group, because a plugin membership is keyed
// by (GroupSetID, GroupID, PluginID).
type Ref struct {
	Kind       Kind
	ID         int64
	GroupID    int64
	GroupSetID int64
}

// GroupRef returns the Ref of group id's membership in groupSetID.
func GroupRef(id, groupSetID int64) Ref {
	return Ref{Kind: KindGroup, ID: id, GroupSetID: groupSetID}
}

// PluginRef returns the Ref of plugin id's membership under groupID in
// groupSetID.
func PluginRef(id, groupID, groupSetID int64) Ref {
	return Ref{Kind: KindPlugin, ID: id, GroupID: groupID, GroupSetID: groupSetID}
}

// Validate checks that r names a membership row: the kind must be ordered
// and every key component must be set.
func (r Ref) Validate() error {
	switch r.Kind {
	case KindGroup:
		if r.ID == 0 || r.GroupSetID == 0 {
			return ErrInvalidID
		}
		return nil
	case KindPlugin:
		if r.ID == 0 || r.GroupID == 0 || r.GroupSetID == 0 {
			return ErrInvalidID
		}
		return nil
	case KindLoadOut, KindGroupSet, KindURL:
		return ErrUnsupportedKind
	case KindInvalid:
		return ErrInvalidKind
	}
	return ErrInvalidKind
}

func (r Ref) String() string {
	if r.Kind == KindPlugin {
		return fmt.Sprintf("plugin %d in group %d (set %d)", r.ID, r.GroupID, r.GroupSetID)
	}
	return fmt.Sprintf("%s %d (set %d)", r.Kind, r.ID, r.GroupSetID)
}
