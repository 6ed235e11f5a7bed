// Package sqlite implements the SQLite storage backend for the group
// hierarchy. The database file lives in the configured data directory and is
// the source of truth; JSONL files are only produced by Export and consumed by
// Import.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

// DatabaseFile is the name of the SQLite file inside the data directory.
const DatabaseFile = "loadout.db"

// dsnPragmas enables WAL, a busy timeout and foreign key enforcement on every
// connection.
const dsnPragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

var _ types.Store = (*Backend)(nil)

// Backend implements types.Store on top of a single SQLite database.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	groups   *lru.Cache[int64, types.Group]
	logger   *log.Logger
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
// A nil logger discards all output.
func NewBackend(logger *log.Logger) *Backend {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Backend{logger: logger.With("component", "store")}
}

// Attach opens (or creates) the database in config.DataDir, applies the schema
// and seeds the well-known rows.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(filepath.Clean(dataDir), DatabaseFile)
	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	// One connection serialises writers and keeps every transaction on the
	// same pragma state.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("pinging database: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return err
	}
	if err := withTx(context.Background(), db, func(tx *sql.Tx) error {
		return seedHierarchy(context.Background(), tx)
	}); err != nil {
		db.Close()
		return fmt.Errorf("seeding hierarchy: %w", err)
	}

	cache, err := lru.New[int64, types.Group](config.GetCacheSize())
	if err != nil {
		db.Close()
		return fmt.Errorf("creating group cache: %w", err)
	}

	b.db = db
	b.config = config
	b.groups = cache
	b.attached = true
	b.logger.Info("store attached", "path", dbPath, "cache_size", config.GetCacheSize())
	return nil
}

// applySchema creates every table and index that does not exist yet.
func applySchema(db *sql.DB) error {
	for _, ddl := range schemaDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	for _, ddl := range indexDDL {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("creating index: %w", err)
		}
	}
	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrStoreDetached.
// Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.groups = nil
	b.attached = false
	b.logger.Info("store detached")
	return nil
}

// conn returns the open database or ErrStoreDetached.
func (b *Backend) conn() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.db, nil
}

// withTx runs fn in a transaction that commits when fn returns nil.
func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// View runs fn in a transaction that is always rolled back. Write primitives
// fail inside it.
func (b *Backend) View(ctx context.Context, fn func(tx types.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db, err := b.conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()
	return fn(newTxn(ctx, tx, true))
}

// Update runs fn in a read-write transaction. Canonical groups written by fn
// are evicted from the lookup cache once the transaction commits.
func (b *Backend) Update(ctx context.Context, fn func(tx types.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	db, err := b.conn()
	if err != nil {
		return err
	}
	var t *txn
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		t = newTxn(ctx, tx, false)
		return fn(t)
	})
	if err != nil {
		return err
	}
	b.evict(t.touched)
	return nil
}

func (b *Backend) evict(ids map[int64]struct{}) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.groups == nil {
		return
	}
	for id := range ids {
		b.groups.Remove(id)
	}
}

// GetGroupByID returns the canonical group, consulting the LRU cache first.
func (b *Backend) GetGroupByID(ctx context.Context, groupID int64) (types.Group, error) {
	b.mu.RLock()
	cache := b.groups
	b.mu.RUnlock()
	if cache != nil {
		if g, ok := cache.Get(groupID); ok {
			return g, nil
		}
	}

	var g types.Group
	err := b.View(ctx, func(tx types.Tx) error {
		var err error
		g, err = tx.Group(groupID)
		return err
	})
	if err != nil {
		return types.Group{}, err
	}
	if cache != nil {
		cache.Add(groupID, g)
	}
	return g, nil
}

// LoadSnapshot reads the whole of one group set in a single transaction.
func (b *Backend) LoadSnapshot(ctx context.Context, groupSetID int64) (*types.Snapshot, error) {
	var snap *types.Snapshot
	err := b.View(ctx, func(tx types.Tx) error {
		var err error
		snap, err = loadSnapshot(tx, groupSetID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Export writes every table to dir as JSONL.
func (b *Backend) Export(ctx context.Context, dir string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	manifest, err := exportTables(ctx, tx, dir)
	if err != nil {
		return err
	}
	b.logger.Info("exported store", "dir", dir, "export_id", manifest.ExportID)
	return nil
}

// Import replaces the store content with the JSONL files in dir and reseeds
// the well-known rows. The replacement is one transaction.
func (b *Backend) Import(ctx context.Context, dir string) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	manifest, err := readManifest(dir)
	if err != nil {
		return err
	}

	var n int
	err = withTx(ctx, db, func(tx *sql.Tx) error {
		var err error
		if n, err = importTables(ctx, tx, dir); err != nil {
			return err
		}
		return seedHierarchy(ctx, tx)
	})
	if err != nil {
		return err
	}

	b.mu.RLock()
	if b.groups != nil {
		b.groups.Purge()
	}
	b.mu.RUnlock()
	b.logger.Info("imported store", "dir", dir, "records", n, "export_id", manifest.ExportID)
	return nil
}

// readManifest reads the export manifest in dir. A directory without one
// imports with an empty manifest.
func readManifest(dir string) (manifestJSON, error) {
	var m manifestJSON
	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if errors.Is(err, fs.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("reading manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("parsing manifest: %w", err)
	}
	return m, nil
}
