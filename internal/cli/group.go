package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/loadout/internal/engine"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

func newGroupCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage groups of the selected group set",
	}
	cmd.AddCommand(
		newGroupListCmd(a),
		newGroupShowCmd(a),
		newGroupWriteCmd(a),
		newGroupMoveCmd(a),
		newGroupSwapCmd(a),
		newGroupCloneCmd(a),
		newGroupDeleteCmd(a),
		newGroupPathCmd(a),
	)
	return cmd
}

func newGroupListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every group of the group set in sibling order",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, s *session, _ []string) error {
			groups, err := s.eng.LoadGroupsForVariant(cmd.Context(), s.agg.GroupSetID())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, groups)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tPARENT\tORDINAL\tNAME")
			for _, g := range groups {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", g.GroupID, parentLabel(g.ParentID), g.Ordinal, g.Name)
			}
			return tw.Flush()
		}),
	}
}

func parentLabel(parent *int64) string {
	if parent == nil {
		return "-"
	}
	return strconv.FormatInt(*parent, 10)
}

// groupDetail is the JSON shape of "group show".
type groupDetail struct {
	types.ModGroup
	Path    []int64 `json:"path"`
	Plugins []int64 `json:"plugins"`
}

func newGroupShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <group-id>",
		Short: "Show one group, its position and its plugins",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID("group id", args[0])
			if err != nil {
				return err
			}
			g, err := s.eng.LoadGroup(cmd.Context(), id, s.agg.GroupSetID())
			if err != nil {
				return err
			}
			path, err := s.eng.PathToRoot(s.agg, id)
			if err != nil {
				return err
			}
			detail := groupDetail{ModGroup: g, Path: path, Plugins: []int64{}}
			for _, m := range s.agg.Plugins(id) {
				detail.Plugins = append(detail.Plugins, m.PluginID)
			}
			if a.flags.jsonMode {
				return printJSON(cmd, detail)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render(g.Name))
			if g.Description != "" {
				fmt.Fprintln(w, mutedStyle.Render(g.Description))
			}
			fmt.Fprintf(w, "id:       %d\n", g.GroupID)
			fmt.Fprintf(w, "set:      %d\n", g.GroupSetID)
			fmt.Fprintf(w, "parent:   %s\n", parentLabel(g.ParentID))
			fmt.Fprintf(w, "ordinal:  %d\n", g.Ordinal)
			fmt.Fprintf(w, "path:     %s\n", pathLabel(s, path))
			fmt.Fprintf(w, "plugins:  %d\n", len(detail.Plugins))
			for _, m := range s.agg.Plugins(id) {
				p, _ := s.agg.Plugin(m.PluginID)
				fmt.Fprintf(w, "  %d. %s\n", m.Ordinal, p.Name)
			}
			return nil
		}),
	}
}

// pathLabel joins the names of path's groups.
func pathLabel(s *session, path []int64) string {
	names := make([]string, len(path))
	for i, id := range path {
		names[i] = strconv.FormatInt(id, 10)
		if g, ok := s.agg.Group(id); ok {
			names[i] = g.Name
		}
	}
	return strings.Join(names, " > ")
}

func newGroupWriteCmd(a *app) *cobra.Command {
	var (
		id          int64
		name        string
		description string
		parent      int64
	)
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Create a group or update an existing one",
		Long: "Create a group when --id is omitted, appending it under --parent.\n" +
			"With --id the group is updated; a changed --parent reparents it.",
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, s *session, _ []string) error {
			g := types.ModGroup{
				Group:      types.Group{GroupID: id, Name: name, Description: description},
				GroupSetID: s.agg.GroupSetID(),
				ParentID:   types.ParentPtr(parent),
			}
			if id != 0 {
				current, err := s.eng.LoadGroup(cmd.Context(), id, g.GroupSetID)
				switch {
				case err == nil:
					if !cmd.Flags().Changed("parent") {
						g.ParentID = current.ParentID
					}
					if !cmd.Flags().Changed("name") {
						g.Name = current.Name
					}
					if !cmd.Flags().Changed("description") {
						g.Description = current.Description
					}
				case !types.IsNotFound(err):
					return err
				}
			}

			written, err := s.eng.WriteGroup(cmd.Context(), s.agg, g)
			if err != nil {
				return err
			}
			return a.done(cmd, written, "Wrote group %d %q at ordinal %d", written.GroupID, written.Name, written.Ordinal)
		}),
	}
	cmd.Flags().Int64Var(&id, "id", 0, "group id to update (default: allocate a new group)")
	cmd.Flags().StringVar(&name, "name", "", "group name")
	cmd.Flags().StringVar(&description, "description", "", "group description")
	cmd.Flags().Int64Var(&parent, "parent", types.RootGroupID, "parent group id (0 for the top level)")
	return cmd
}

func newGroupMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <group-id> <parent-id>",
		Short: "Move a group to the end of another parent",
		Long:  "Move a group under a new parent. A parent id of 0 moves it to the top level.",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			ids, err := parseIDs(args, "group id", "parent id")
			if err != nil {
				return err
			}
			if err := s.eng.ChangeGroup(cmd.Context(), s.agg, ids[0], s.agg.GroupSetID(), ids[1]); err != nil {
				return err
			}
			m, _ := s.agg.Membership(ids[0])
			return a.done(cmd, m, "Moved group %d under %d at ordinal %d", ids[0], ids[1], m.Ordinal)
		}),
	}
}

func newGroupSwapCmd(a *app) *cobra.Command {
	var otherSet int64
	cmd := &cobra.Command{
		Use:   "swap <group-a> <group-b>",
		Short: "Exchange the positions of two groups",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			ids, err := parseIDs(args, "group id", "group id")
			if err != nil {
				return err
			}
			setB := s.agg.GroupSetID()
			if otherSet != 0 {
				setB = otherSet
			}
			refA := types.GroupRef(ids[0], s.agg.GroupSetID())
			refB := types.GroupRef(ids[1], setB)
			if err := s.eng.Swap(cmd.Context(), s.agg, refA, refB); err != nil {
				return err
			}
			return a.done(cmd, []types.Ref{refA, refB}, "Swapped %s and %s", refA, refB)
		}),
	}
	cmd.Flags().Int64Var(&otherSet, "other-set", 0, "group set of the second group (default: --set)")
	return cmd
}

func newGroupCloneCmd(a *app) *cobra.Command {
	var target int64
	cmd := &cobra.Command{
		Use:   "clone <group-id>",
		Short: "Copy a group and its plugins into another group set",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID("group id", args[0])
			if err != nil {
				return err
			}
			m, err := s.eng.Clone(cmd.Context(), s.agg, id, s.agg.GroupSetID(), target)
			if err != nil {
				return err
			}
			return a.done(cmd, m, "Cloned group %d into set %d at ordinal %d", id, target, m.Ordinal)
		}),
	}
	cmd.Flags().Int64Var(&target, "to", 0, "target group set id")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func newGroupDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <group-id>",
		Short: "Remove a group from the group set",
		Long: "Remove a group from the group set. Its child groups move up to its parent\n" +
			"and its plugins move to Uncategorized.",
		Args: cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID("group id", args[0])
			if err != nil {
				return err
			}
			if err := s.eng.DeleteGroup(cmd.Context(), s.agg, id, s.agg.GroupSetID()); err != nil {
				return err
			}
			return a.done(cmd, map[string]int64{"group_id": id, "group_set_id": s.agg.GroupSetID()},
				"Deleted group %d from set %d", id, s.agg.GroupSetID())
		}),
	}
}

func newGroupPathCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "path <group-id>",
		Short: "Print the ancestor chain of a group from the root",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			id, err := parseID("group id", args[0])
			if err != nil {
				return err
			}
			path, err := engine.PathToRoot(s.agg, id)
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, path)
			}
			fmt.Fprintln(cmd.OutOrStdout(), pathLabel(s, path))
			return nil
		}),
	}
}
