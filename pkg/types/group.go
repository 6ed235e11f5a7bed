package types

// Well-known group and group set identities.
const (
	// RootGroupID is the canonical root of every group set's hierarchy.
	RootGroupID int64 = 1

	// DefaultGroupSetID is the master variant. Reserved groups are anchored
	// to it for ordinal allocation.
	DefaultGroupSetID int64 = 1
)

// Reserved group identities. Reserved groups are system buckets present in
// every group set.
const (
	GroupUncategorized int64 = -997
	GroupNeverLoad     int64 = -998
	GroupInactive      int64 = -999
)

// ReservedOrdinalBase offsets reserved group ordinals past any user ordinal.
const ReservedOrdinalBase = 9000

// RootOrdinal is the fixed ordinal of the root group's membership.
const RootOrdinal = 0

// Group is the canonical, group-set independent identity of a tree node.
type Group struct {
	GroupID     int64  `json:"group_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Reserved reports whether g is one of the fixed system buckets.
func (g Group) Reserved() bool { return IsReserved(g.GroupID) }

// Validate checks the canonical fields of g.
func (g Group) Validate() error {
	if g.Name == "" {
		return ErrInvalidName
	}
	return nil
}

// IsReserved reports whether id denotes a reserved group.
func IsReserved(id int64) bool { return id < 0 }

// IsRoot reports whether id is the canonical root group.
func IsRoot(id int64) bool { return id == RootGroupID }

// ReservedOrdinal returns the pinned ordinal of reserved group id.
func ReservedOrdinal(id int64) int {
	return ReservedOrdinalBase + int(-id)
}

// ReservedGroups lists the system buckets seeded into every store, in
// ordinal order.
var ReservedGroups = []Group{
	{GroupID: GroupUncategorized, Name: "Uncategorized", Description: "Plugins not yet assigned to a group"},
	{GroupID: GroupNeverLoad, Name: "Never Load", Description: "Plugins that must never be activated"},
	{GroupID: GroupInactive, Name: "Inactive", Description: "Plugins kept installed but disabled"},
}

// RootGroup is the canonical root seeded into every store.
var RootGroup = Group{GroupID: RootGroupID, Name: "Root", Description: "Top of the group hierarchy"}

// GroupMembership places a group in one group set. ParentID nil means the
// group sits at the top level of the set.
type GroupMembership struct {
	GroupSetID int64  `json:"group_set_id"`
	GroupID    int64  `json:"group_id"`
	ParentID   *int64 `json:"parent_id"`
	Ordinal    int    `json:"ordinal"`
}

// Parent returns the parent id, or 0 when the membership has no parent.
func (m GroupMembership) Parent() int64 {
	if m.ParentID == nil {
		return 0
	}
	return *m.ParentID
}

// Validate checks that m carries the ids needed to key a membership row.
func (m GroupMembership) Validate() error {
	if m.GroupSetID == 0 || m.GroupID == 0 {
		return ErrInvalidID
	}
	if m.ParentID != nil && *m.ParentID == m.GroupID {
		return ErrSelfParent
	}
	return nil
}

// ModGroup is a group as seen from one group set: canonical fields plus the
// membership that positions it.
type ModGroup struct {
	Group
	GroupSetID int64  `json:"group_set_id"`
	ParentID   *int64 `json:"parent_id"`
	Ordinal    int    `json:"ordinal"`
}

// Membership returns the membership row described by g.
func (g ModGroup) Membership() GroupMembership {
	return GroupMembership{
		GroupSetID: g.GroupSetID,
		GroupID:    g.GroupID,
		ParentID:   g.ParentID,
		Ordinal:    g.Ordinal,
	}
}

// Ref returns the membership reference of g.
func (g ModGroup) Ref() Ref { return GroupRef(g.GroupID, g.GroupSetID) }

// ParentPtr returns a pointer to id, or nil when id is 0. It converts the
// "no parent" sentinel used by callers into the nullable column form.
func ParentPtr(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}
