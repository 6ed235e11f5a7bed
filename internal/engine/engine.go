// Package engine keeps the group hierarchy of every group set structurally
// valid while it is edited.
//
// Each mutating operation runs in exactly one store transaction. On commit the
// caller-owned *cache.Aggregate, when one is passed, is refreshed wholesale;
// on failure nothing is committed and the aggregate is left as it was.
// Errors are classified into the four types of pkg/types: ValidationError,
// NotFoundError, PersistenceError and ConsistencyError.
package engine

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/mesh-intelligence/loadout/internal/cache"
	"github.com/mesh-intelligence/loadout/internal/logging"
	"github.com/mesh-intelligence/loadout/pkg/types"
)

// Engine applies hierarchy operations to a Store.
type Engine struct {
	store  types.Store
	logger *log.Logger
}

// New returns an Engine over an attached store. A nil logger discards output.
func New(store types.Store, logger *log.Logger) *Engine {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{store: store, logger: logger.With("component", "engine")}
}

// update runs fn in one read-write transaction and refreshes agg after commit.
func (e *Engine) update(ctx context.Context, op string, agg *cache.Aggregate, fn func(tx types.Tx) error) error {
	if err := e.store.Update(ctx, fn); err != nil {
		return types.AsPersistence(op, err)
	}
	return e.refresh(ctx, op, agg)
}

// view runs fn in one read-only transaction.
func (e *Engine) view(ctx context.Context, op string, fn func(tx types.Tx) error) error {
	return types.AsPersistence(op, e.store.View(ctx, fn))
}

func (e *Engine) refresh(ctx context.Context, op string, agg *cache.Aggregate) error {
	if agg == nil {
		return nil
	}
	return types.AsPersistence(op, agg.Refresh(ctx))
}

// retag rewrites a not-found error from a store primitive so it names op.
func retag(op string, err error, kind types.Kind, id int64) error {
	if types.IsNotFound(err) {
		return types.NewNotFoundError(op, kind, id)
	}
	return err
}

func groupMembership(tx types.Tx, op string, groupSetID, groupID int64) (types.GroupMembership, error) {
	m, err := tx.GroupMembership(groupSetID, groupID)
	return m, retag(op, err, types.KindGroup, groupID)
}

func requireGroupSet(tx types.Tx, op string, groupSetID int64) error {
	_, err := tx.GroupSet(groupSetID)
	return retag(op, err, types.KindGroupSet, groupSetID)
}

// movable rejects the root and reserved groups as the subject of a structural
// edit.
func movable(op string, groupID int64) error {
	switch {
	case groupID == 0:
		return types.NewValidationError(op, types.ErrInvalidID)
	case types.IsRoot(groupID):
		return types.NewValidationError(op, types.ErrRootGroup)
	case types.IsReserved(groupID):
		return types.NewValidationError(op, types.ErrReservedGroup)
	}
	return nil
}
