package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/loadout/internal/engine"
)

// errViolations reports that check found broken invariants.
var errViolations = errors.New("hierarchy has violations")

func newCleanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Renumber every ordinal partition of every group set",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, s *session, _ []string) error {
			n, err := s.eng.CleanOrdinals(cmd.Context(), s.agg)
			if err != nil {
				return err
			}
			return a.done(cmd, map[string]int64{"rewritten": n}, "Rewrote %d ordinals", n)
		}),
	}
}

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the hierarchy invariants of every group set",
		Long:  "Verify every group set without modifying it. Exits 1 when violations are found.",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, s *session, _ []string) error {
			violations, err := s.eng.Check(cmd.Context())
			if err != nil {
				return err
			}
			if a.flags.jsonMode {
				if violations == nil {
					violations = []engine.Violation{}
				}
				if err := printJSON(cmd, violations); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				for _, v := range violations {
					fmt.Fprintln(w, warningStyle.Render(v.String()))
				}
				if len(violations) == 0 {
					fmt.Fprintln(w, successStyle.Render("No violations found"))
				}
			}
			if len(violations) > 0 {
				return fmt.Errorf("%w: %d found; run \"loadout clean\" to renumber ordinals", errViolations, len(violations))
			}
			return nil
		}),
	}
}

func newExportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write a JSONL backup of the store",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			if err := s.eng.Export(cmd.Context(), args[0]); err != nil {
				return err
			}
			return a.done(cmd, map[string]string{"dir": args[0]}, "Exported store to %s", args[0])
		}),
	}
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <dir>",
		Short: "Replace the store with a JSONL backup",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, s *session, args []string) error {
			if err := s.eng.Import(cmd.Context(), s.agg, args[0]); err != nil {
				return err
			}
			return a.done(cmd, map[string]string{"dir": args[0]}, "Imported store from %s", args[0])
		}),
	}
}
