package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

func newLoadOutCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "loadout",
		Short: "Manage load outs of the selected group set",
	}
	cmd.AddCommand(newLoadOutWriteCmd(a), newLoadOutActivateCmd(a), newLoadOutListCmd(a))
	return cmd
}

func newLoadOutWriteCmd(a *app) *cobra.Command {
	var l types.LoadOut
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Create a load out or replace an existing one",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, s *session, _ []string) error {
			l.GroupSetID = s.agg.GroupSetID()
			written, err := s.eng.WriteLoadOut(cmd.Context(), s.agg, l)
			if err != nil {
				return err
			}
			return a.done(cmd, written, "Wrote load out %d %q with %d active plugins",
				written.LoadOutID, written.Name, len(written.ActivePlugins))
		}),
	}
	cmd.Flags().Int64Var(&l.LoadOutID, "id", 0, "load out id to replace (default: allocate a new load out)")
	cmd.Flags().StringVar(&l.Name, "name", "", "load out name")
	cmd.Flags().Int64SliceVar(&l.ActivePlugins, "plugins", nil, "active plugin ids")
	return cmd
}

func newLoadOutActivateCmd(a *app) *cobra.Command {
	var off bool
	cmd := &cobra.Command{
		Use:   "activate <loadout-id> <plugin-id>",
		Short: "Enable or disable a plugin in a load out",
		Args:  cobra.ExactArgs(2),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			ids, err := parseIDs(args, "load out id", "plugin id")
			if err != nil {
				return err
			}
			if err := s.eng.SetPluginActive(cmd.Context(), s.agg, ids[0], ids[1], !off); err != nil {
				return err
			}
			state := "Enabled"
			if off {
				state = "Disabled"
			}
			return a.done(cmd, map[string]any{"loadout_id": ids[0], "plugin_id": ids[1], "active": !off},
				"%s plugin %d in load out %d", state, ids[1], ids[0])
		}),
	}
	cmd.Flags().BoolVar(&off, "off", false, "disable instead of enable")
	return cmd
}

func newLoadOutListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List load outs",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, s *session, _ []string) error {
			loadOuts, err := s.eng.LoadOuts(cmd.Context(), s.agg.GroupSetID())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, loadOuts)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\tACTIVE")
			for _, l := range loadOuts {
				active := make([]string, len(l.ActivePlugins))
				for i, id := range l.ActivePlugins {
					active[i] = fmt.Sprint(id)
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", l.LoadOutID, l.Name, strings.Join(active, ","))
			}
			return tw.Flush()
		}),
	}
}
