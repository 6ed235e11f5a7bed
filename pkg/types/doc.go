// Package types defines the Store and Tx interfaces, the entity types of the
// group hierarchy (groups, group sets, plugins, load outs), the closed entity
// Kind variant, and the error taxonomy shared by the store and the engine.
//
// A Group's canonical identity (id, name, description) is independent of any
// GroupSet. Its position in a particular GroupSet lives in a GroupMembership
// row: the parent link and the sibling ordinal. Plugins work the same way
// through PluginMembership rows scoped to their containing group.
package types
