// Package cli implements the loadout command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/loadout/internal/logging"
	"github.com/mesh-intelligence/loadout/internal/paths"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	jsonMode  bool
	groupSet  int64
	logLevel  string
}

// app is the state shared by one command tree: the parsed global flags, the
// loaded configuration and the logger built from it.
type app struct {
	flags  rootFlags
	config *viper.Viper
	logger *log.Logger
}

// NewRootCmd creates the top-level "loadout" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "loadout",
		Short: "Organise game plugins into ordered groups",
		Long: "Loadout keeps a hierarchy of plugin groups per group set (variant),\n" +
			"with dense sibling ordinals, fixed system groups and load outs.",
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/"+paths.DefaultDataDirName+")")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.Int64Var(&a.flags.groupSet, "set", 0, "group set to operate on (default: config active_group_set)")
	pf.StringVar(&a.flags.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newVersionCmd(),
		newInitCmd(a),
		newGroupCmd(a),
		newPluginCmd(a),
		newSetCmd(a),
		newLoadOutCmd(a),
		newCleanCmd(a),
		newCheckCmd(a),
		newTreeCmd(a),
		newExportCmd(a),
		newImportCmd(a),
	)
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	err := NewRootCmd().Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error:"), err)
	}
	os.Exit(exitCode(err))
}

// setup loads the configuration and builds the logger before any command
// other than version runs.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Name() == "version" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return sysError(fmt.Errorf("resolve config dir: %w", err))
	}
	if a.config, err = loadConfig(configDir, a.flags.dataDir); err != nil {
		return sysError(err)
	}

	level := a.flags.logLevel
	if level == "" {
		level = a.config.GetString(cfgKeyLogLevel)
	}
	if a.logger, err = logging.New(level, cmd.ErrOrStderr()); err != nil {
		return err
	}
	return nil
}

// groupSetID returns the group set selected by --set or the configuration.
func (a *app) groupSetID() int64 {
	if a.flags.groupSet != 0 {
		return a.flags.groupSet
	}
	if id := a.config.GetInt64(cfgKeyActiveGroupSet); id != 0 {
		return id
	}
	return types.DefaultGroupSetID
}

// exitError carries the process exit code for err.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }

func (e *exitError) Unwrap() error { return e.err }

// sysError marks err as an environment or storage failure.
func sysError(err error) error {
	return &exitError{code: exitSysError, err: err}
}

// exitCode maps err to a process exit code. Persistence failures are system
// errors; every other failure is the user's to fix.
func exitCode(err error) int {
	if err == nil {
		return exitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	if types.IsPersistence(err) {
		return exitSysError
	}
	return exitUserError
}
