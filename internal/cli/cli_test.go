package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/loadout/internal/engine"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// workspace runs commands against one config and data directory.
type workspace struct {
	t    *testing.T
	root string
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	w := &workspace{t: t, root: t.TempDir()}
	w.mustRun("init")
	return w
}

func (w *workspace) configDir() string { return filepath.Join(w.root, "config") }
func (w *workspace) dataDir() string { return filepath.Join(w.root, "data") }

// run executes the loadout command with args and returns its stdout.
func (w *workspace) run(args ...string) (string, error) {
	w.t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config-dir", w.configDir(), "--data-dir", w.dataDir()}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func (w *workspace) mustRun(args ...string) string {
	w.t.Helper()
	out, err := w.run(args...)
	require.NoError(w.t, err, "loadout %s", strings.Join(args, " "))
	return out
}

// runJSON executes args with --json and decodes the output into v.
func (w *workspace) runJSON(v any, args ...string) {
	w.t.Helper()
	out := w.mustRun(append([]string{"--json"}, args...)...)
	require.NoError(w.t, json.Unmarshal([]byte(out), v), out)
}

// seed writes the groups Gameplay(2), Visuals(3) and Combat(4) under
// Gameplay, and plugins 1 and 2 in Gameplay.
func (w *workspace) seed() {
	w.t.Helper()
	w.mustRun("group", "write", "--name", "Gameplay")
	w.mustRun("group", "write", "--name", "Visuals")
	w.mustRun("group", "write", "--name", "Combat", "--parent", "2")
	w.mustRun("plugin", "write", "--name", "Unofficial Patch.esp")
	w.mustRun("plugin", "write", "--name", "Frostfall.esp")
	w.mustRun("plugin", "add", "1", "2")
	w.mustRun("plugin", "add", "2", "2")
}

func TestVersion(t *testing.T) {
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "loadout v"+Version)
	assert.Contains(t, out.String(), modulePath)
}

func TestInit(t *testing.T) {
	w := newWorkspace(t)

	data, err := os.ReadFile(filepath.Join(w.configDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "backend: sqlite")
	assert.Contains(t, string(data), "data_dir: "+w.dataDir())
	assert.FileExists(t, filepath.Join(w.dataDir(), "loadout.db"))

	// Idempotent.
	out := w.mustRun("init")
	assert.Contains(t, out, "Loadout initialized")
}

func TestGroupCommands(t *testing.T) {
	w := newWorkspace(t)
	w.seed()

	var groups []types.ModGroup
	w.runJSON(&groups, "group", "list")
	names := map[string]types.ModGroup{}
	for _, g := range groups {
		names[g.Name] = g
	}
	require.Contains(t, names, "Combat")
	assert.Equal(t, int64(2), *names["Combat"].ParentID)
	assert.Equal(t, 2, names["Visuals"].Ordinal)
	assert.Equal(t, 9997, names["Uncategorized"].Ordinal)

	out := w.mustRun("group", "path", "4")
	assert.Equal(t, "Root > Gameplay > Combat\n", out)

	w.mustRun("group", "move", "4", "1")
	var path []int64
	w.runJSON(&path, "group", "path", "4")
	assert.Equal(t, []int64{1, 4}, path)

	var swapped []types.Ref
	w.runJSON(&swapped, "group", "swap", "2", "4")
	require.Len(t, swapped, 2)
	var detail groupDetail
	w.runJSON(&detail, "group", "show", "2")
	assert.Equal(t, 3, detail.Ordinal)
	assert.Equal(t, []int64{1, 2}, detail.Plugins)

	out = w.mustRun("group", "show", "2")
	assert.Contains(t, out, "Gameplay")
	assert.Contains(t, out, "1. Unofficial Patch.esp")

	var renamed types.ModGroup
	w.runJSON(&renamed, "group", "write", "--id", "3", "--name", "Graphics")
	assert.Equal(t, "Graphics", renamed.Name)
	assert.Equal(t, 2, renamed.Ordinal, "renaming keeps the position")

	w.mustRun("group", "delete", "2")
	var plugins []pluginRow
	w.runJSON(&plugins, "plugin", "list", "--", "-997")
	require.Len(t, plugins, 2)
	assert.Equal(t, "Unofficial Patch.esp", plugins[0].Name)

	w.mustRun("check")
}

func TestGroupCommandErrors(t *testing.T) {
	w := newWorkspace(t)
	w.seed()

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"move root", []string{"group", "move", "1", "2"}, exitUserError},
		{"move under reserved", []string{"group", "move", "--", "4", "-998"}, exitUserError},
		{"move under descendant", []string{"group", "move", "2", "4"}, exitUserError},
		{"missing group", []string{"group", "show", "99"}, exitUserError},
		{"bad id", []string{"group", "path", "abc"}, exitUserError},
		{"missing args", []string{"group", "swap", "2"}, exitUserError},
		{"unknown group set", []string{"--set", "42", "group", "list"}, exitUserError},
		{"bad log level", []string{"--log-level", "loud", "group", "list"}, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := w.run(tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, exitCode(err))
		})
	}
	w.mustRun("check")
}

func TestPluginCommands(t *testing.T) {
	w := newWorkspace(t)
	w.seed()

	w.mustRun("plugin", "swap", "1", "2", "2", "2")
	var plugins []pluginRow
	w.runJSON(&plugins, "plugin", "list", "2")
	require.Len(t, plugins, 2)
	assert.Equal(t, int64(2), plugins[0].PluginID)
	assert.Equal(t, 1, plugins[0].Ordinal)

	w.mustRun("plugin", "move", "2", "2", "3")
	w.runJSON(&plugins, "plugin", "list", "3")
	require.Len(t, plugins, 1)
	assert.Equal(t, "Frostfall.esp", plugins[0].Name)

	out := w.mustRun("plugin", "list")
	assert.Contains(t, out, "Unofficial Patch.esp")

	_, err := w.run("plugin", "add", "1", "2")
	require.Error(t, err)
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestSetCommands(t *testing.T) {
	w := newWorkspace(t)
	w.seed()

	var set types.GroupSet
	w.runJSON(&set, "set", "create", "Survival")
	assert.Equal(t, int64(2), set.GroupSetID)

	var cloned types.GroupMembership
	w.runJSON(&cloned, "group", "clone", "2", "--to", "2")
	assert.Equal(t, 1, cloned.Ordinal)
	assert.Nil(t, cloned.ParentID)

	var plugins []pluginRow
	w.runJSON(&plugins, "--set", "2", "plugin", "list", "2")
	assert.Len(t, plugins, 2)

	var fork types.GroupSet
	w.runJSON(&fork, "set", "fork", "Hardcore")
	var forked []types.ModGroup
	w.runJSON(&forked, "--set", "3", "group", "list")
	assert.Len(t, forked, 1+len(types.ReservedGroups)+3)

	var sets []types.GroupSet
	w.runJSON(&sets, "set", "list")
	assert.Len(t, sets, 3)

	_, err := w.run("set", "create", "Survival")
	assert.Equal(t, exitUserError, exitCode(err))
	w.mustRun("check")
}

func TestLoadOutCommands(t *testing.T) {
	w := newWorkspace(t)
	w.seed()

	var l types.LoadOut
	w.runJSON(&l, "loadout", "write", "--name", "Playthrough", "--plugins", "1,2")
	assert.Equal(t, []int64{1, 2}, l.ActivePlugins)

	w.mustRun("loadout", "activate", "1", "2", "--off")
	var loadOuts []types.LoadOut
	w.runJSON(&loadOuts, "loadout", "list")
	require.Len(t, loadOuts, 1)
	assert.Equal(t, []int64{1}, loadOuts[0].ActivePlugins)

	_, err := w.run("loadout", "activate", "9", "1")
	assert.Equal(t, exitUserError, exitCode(err))
}

func TestTree(t *testing.T) {
	w := newWorkspace(t)
	w.seed()

	out := w.mustRun("tree")
	for _, want := range []string{"Default", "1. Gameplay", "1. Combat", "2. Visuals", "Unofficial Patch.esp", "Never Load"} {
		assert.Contains(t, out, want)
	}

	out = w.mustRun("tree", "--plugins=false")
	assert.NotContains(t, out, "Frostfall.esp")
}

func TestCleanAndCheck(t *testing.T) {
	w := newWorkspace(t)
	w.seed()

	var violations []engine.Violation
	w.runJSON(&violations, "check")
	assert.Empty(t, violations)

	var result map[string]int64
	w.runJSON(&result, "clean")
	assert.Zero(t, result["rewritten"])
	assert.Contains(t, w.mustRun("check"), "No violations")
}

func TestExportImport(t *testing.T) {
	w := newWorkspace(t)
	w.seed()
	backup := filepath.Join(w.root, "backup")
	w.mustRun("export", backup)
	assert.FileExists(t, filepath.Join(backup, "manifest.json"))

	w.mustRun("group", "delete", "3")
	w.mustRun("import", backup)

	var g types.ModGroup
	w.runJSON(&g, "group", "show", "3")
	assert.Equal(t, "Visuals", g.Name)
	assert.Equal(t, 2, g.Ordinal)
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitSuccess},
		{"validation", types.NewValidationError("Swap", types.ErrKindMismatch), exitUserError},
		{"not found", types.NewNotFoundError("LoadGroup", types.KindGroup, 9), exitUserError},
		{"consistency", &types.ConsistencyError{Op: "PathToRoot", Err: types.ErrCycle}, exitUserError},
		{"persistence", &types.PersistenceError{Op: "Swap", Err: os.ErrClosed}, exitSysError},
		{"system", sysError(os.ErrPermission), exitSysError},
		{"violations", errViolations, exitUserError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
