package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/internal/engine"
	"github.com/mesh-intelligence/loadout/internal/paths"
	"github.com/mesh-intelligence/loadout/internal/sqlite"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// session is an attached store with the engine and the aggregate of the
// selected group set.
type session struct {
	dataDir string
	store   *sqlite.Backend
	eng     *engine.Engine
	agg     *cache.Aggregate
}

// open resolves the data directory, attaches the store and loads the
// aggregate. The caller must close the session.
func (a *app) open(cmd *cobra.Command) (*session, error) {
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, a.config.GetString(cfgKeyDataDir))
	if err != nil {
		return nil, sysError(fmt.Errorf("resolve data dir: %w", err))
	}
	cfg := types.Config{
		Backend:   a.config.GetString(cfgKeyBackend),
		DataDir:   dataDir,
		CacheSize: a.config.GetInt(cfgKeyCacheSize),
	}

	store := sqlite.NewBackend(a.logger)
	if err := store.Attach(cfg); err != nil {
		return nil, sysError(fmt.Errorf("attach store: %w", err))
	}
	s := &session{
		dataDir: dataDir,
		store:   store,
		eng:     engine.New(store, a.logger),
		agg:     cache.New(store, a.groupSetID(), a.logger),
	}
	if err := s.agg.Refresh(cmd.Context()); err != nil {
		store.Detach()
		return nil, types.AsPersistence("LoadGroupSet", err)
	}
	return s, nil
}

func (s *session) close() error {
	return s.store.Detach()
}

// run wraps fn so it executes against an open session.
func (a *app) run(fn func(cmd *cobra.Command, s *session, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		s, err := a.open(cmd)
		if err != nil {
			return err
		}
		defer s.close()
		return fn(cmd, s, args)
	}
}

// parseID parses a positional id argument.
func parseID(name, arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: must be an integer", name, arg)
	}
	return id, nil
}

// parseIDs parses every argument with parseID, using names in order.
func parseIDs(args []string, names ...string) ([]int64, error) {
	ids := make([]int64, len(args))
	for i, arg := range args {
		id, err := parseID(names[i], arg)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
