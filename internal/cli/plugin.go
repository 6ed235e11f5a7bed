package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

func newPluginCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plugin",
		Short: "Manage plugins and their group memberships",
	}
	cmd.AddCommand(
		newPluginWriteCmd(a),
		newPluginAddCmd(a),
		newPluginMoveCmd(a),
		newPluginSwapCmd(a),
		newPluginListCmd(a),
	)
	return cmd
}

func newPluginWriteCmd(a *app) *cobra.Command {
	var p types.Plugin
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Create a plugin or update an existing one",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, s *session, _ []string) error {
			written, err := s.eng.WritePlugin(cmd.Context(), s.agg, p)
			if err != nil {
				return err
			}
			return a.done(cmd, written, "Wrote plugin %d %q", written.PluginID, written.Name)
		}),
	}
	cmd.Flags().Int64Var(&p.PluginID, "id", 0, "plugin id to update (default: allocate a new plugin)")
	cmd.Flags().StringVar(&p.Name, "name", "", "plugin file name")
	cmd.Flags().StringVar(&p.Description, "description", "", "plugin description")
	cmd.Flags().StringVar(&p.URL, "url", "", "download page")
	return cmd
}

func newPluginAddCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "add <plugin-id> <group-id>",
		Short: "Append a plugin to a group",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			ids, err := parseIDs(args, "plugin id", "group id")
			if err != nil {
				return err
			}
			m, err := s.eng.AddPlugin(cmd.Context(), s.agg, ids[0], ids[1], s.agg.GroupSetID())
			if err != nil {
				return err
			}
			return a.done(cmd, m, "Added plugin %d to group %d at ordinal %d", m.PluginID, m.GroupID, m.Ordinal)
		}),
	}
}

func newPluginMoveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "move <plugin-id> <from-group-id> <to-group-id>",
		Short: "Move a plugin to the end of another group",
		Args:  cobra.ExactArgs(3),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			ids, err := parseIDs(args, "plugin id", "group id", "group id")
			if err != nil {
				return err
			}
			ref := types.PluginRef(ids[0], ids[1], s.agg.GroupSetID())
			if err := s.eng.MovePlugin(cmd.Context(), s.agg, ref, ids[2]); err != nil {
				return err
			}
			return a.done(cmd, types.PluginRef(ids[0], ids[2], s.agg.GroupSetID()),
				"Moved plugin %d from group %d to group %d", ids[0], ids[1], ids[2])
		}),
	}
}

func newPluginSwapCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "swap <plugin-a> <group-a> <plugin-b> <group-b>",
		Short: "Exchange the positions of two plugin memberships",
		Args:  cobra.ExactArgs(4),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			ids, err := parseIDs(args, "plugin id", "group id", "plugin id", "group id")
			if err != nil {
				return err
			}
			refA := types.PluginRef(ids[0], ids[1], s.agg.GroupSetID())
			refB := types.PluginRef(ids[2], ids[3], s.agg.GroupSetID())
			if err := s.eng.Swap(cmd.Context(), s.agg, refA, refB); err != nil {
				return err
			}
			return a.done(cmd, []types.Ref{refA, refB}, "Swapped %s and %s", refA, refB)
		}),
	}
}

// pluginRow is the JSON shape of "plugin list".
type pluginRow struct {
	types.PluginMembership
	Name string `json:"name"`
}

func newPluginListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list [group-id]",
		Short: "List plugin memberships, optionally of one group",
		Args:  cobra.MaximumNArgs(1),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			var memberships []types.PluginMembership
			if len(args) == 1 {
				id, err := parseID("group id", args[0])
				if err != nil {
					return err
				}
				if _, ok := s.agg.Membership(id); !ok {
					return types.NewNotFoundError("PluginList", types.KindGroup, id)
				}
				memberships = s.agg.Plugins(id)
			} else {
				memberships = s.agg.Snapshot().PluginMemberships
			}

			rows := make([]pluginRow, 0, len(memberships))
			for _, m := range memberships {
				p, _ := s.agg.Plugin(m.PluginID)
				rows = append(rows, pluginRow{PluginMembership: m, Name: p.Name})
			}
			if a.flags.jsonMode {
				return printJSON(cmd, rows)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tGROUP\tORDINAL\tNAME")
			for _, r := range rows {
				fmt.Fprintf(tw, "%d\t%d\t%d\t%s\n", r.PluginID, r.GroupID, r.Ordinal, r.Name)
			}
			return tw.Flush()
		}),
	}
}
