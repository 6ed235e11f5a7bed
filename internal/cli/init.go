package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize loadout storage",
		Long: "Create the configuration and data directories, then initialize the store\n" +
			"with the root group, the reserved groups and the default group set.",
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, s *session, _ []string) error {
			if a.flags.jsonMode {
				return printJSON(cmd, map[string]any{"data_dir": s.dataDir, "group_set_id": s.agg.GroupSetID()})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Loadout initialized in %s\n", s.dataDir)
			return nil
		}),
	}
}
