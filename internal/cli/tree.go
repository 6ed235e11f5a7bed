package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss/tree"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

func newTreeCmd(a *app) *cobra.Command {
	var plugins bool
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Render the hierarchy of the selected group set",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, s *session, _ []string) error {
			if a.flags.jsonMode {
				return printJSON(cmd, s.agg.Snapshot())
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTree(s.agg, a.install(), plugins))
			return nil
		}),
	}
	cmd.Flags().BoolVar(&plugins, "plugins", true, "list plugins under their groups")
	return cmd
}

// renderTree draws the group hierarchy of agg. Groups at the top level of
// the set hang off the root like its children. A group reached twice is
// drawn once and marked.
func renderTree(agg *cache.Aggregate, install types.InstallLocator, withPlugins bool) string {
	snap := agg.Snapshot()
	label := snap.GroupSet.Name
	if name := install.GameName(); name != "" {
		label = fmt.Sprintf("%s: %s", name, label)
	}
	if path := install.GamePath(); path != "" {
		label += " " + mutedStyle.Render("("+path+")")
	}
	t := tree.Root(titleStyle.Render(label)).
		Enumerator(tree.RoundedEnumerator).
		EnumeratorStyle(mutedStyle)

	seen := map[int64]bool{types.RootGroupID: true}
	for _, parent := range []int64{types.RootGroupID, 0} {
		for _, g := range agg.Children(parent) {
			t.Child(groupNode(agg, g, seen, withPlugins))
		}
	}
	return t.String()
}

func groupNode(agg *cache.Aggregate, g types.ModGroup, seen map[int64]bool, withPlugins bool) any {
	label := fmt.Sprintf("%d. %s", g.Ordinal, g.Name)
	if g.Reserved() {
		label = mutedStyle.Render(g.Name)
	}
	if seen[g.GroupID] {
		return warningStyle.Render(label + " (cycle)")
	}
	seen[g.GroupID] = true

	children := agg.Children(g.GroupID)
	var plugins []types.PluginMembership
	if withPlugins {
		plugins = agg.Plugins(g.GroupID)
	}
	if len(children) == 0 && len(plugins) == 0 {
		return label
	}

	node := tree.Root(label).Enumerator(tree.RoundedEnumerator).EnumeratorStyle(mutedStyle)
	for _, child := range children {
		node.Child(groupNode(agg, child, seen, withPlugins))
	}
	for _, m := range plugins {
		p, _ := agg.Plugin(m.PluginID)
		node.Child(mutedStyle.Render(fmt.Sprintf("%d. %s", m.Ordinal, p.Name)))
	}
	return node
}
