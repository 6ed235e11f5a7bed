package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSetCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Manage group sets (hierarchy variants)",
	}
	cmd.AddCommand(newSetListCmd(a), newSetCreateCmd(a), newSetForkCmd(a))
	return cmd
}

func newSetListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List group sets",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, s *session, _ []string) error {
			sets, err := s.eng.GroupSets(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				return printJSON(cmd, sets)
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "ID\tNAME\t")
			for _, set := range sets {
				marker := ""
				if set.GroupSetID == s.agg.GroupSetID() {
					marker = "*"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\n", set.GroupSetID, set.Name, marker)
			}
			return tw.Flush()
		}),
	}
}

func newSetCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an empty group set",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			set, err := s.eng.CreateGroupSet(cmd.Context(), s.agg, args[0])
			if err != nil {
				return err
			}
			return a.done(cmd, set, "Created group set %d %q", set.GroupSetID, set.Name)
		}),
	}
}

func newSetForkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "fork <name>",
		Short: "Copy the selected group set into a new one",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			set, err := s.eng.ForkGroupSet(cmd.Context(), s.agg, s.agg.GroupSetID(), args[0])
			if err != nil {
				return err
			}
			return a.done(cmd, set, "Forked group set %d into %d %q", s.agg.GroupSetID(), set.GroupSetID, set.Name)
		}),
	}
}
