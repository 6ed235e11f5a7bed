package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/mesh-intelligence/loadout/pkg/types"
)

var _ types.Tx = (*txn)(nil)

// errReadOnly is returned by write primitives called from View.
var errReadOnly = errors.New("write in read-only transaction")

// txn adapts one *sql.Tx to the types.Tx primitives. It records the canonical
// groups it writes so the backend can evict them from its lookup cache after
// commit.
type txn struct {
	ctx      context.Context
	tx       *sql.Tx
	readOnly bool
	touched  map[int64]struct{}
}

func newTxn(ctx context.Context, tx *sql.Tx, readOnly bool) *txn {
	return &txn{ctx: ctx, tx: tx, readOnly: readOnly, touched: make(map[int64]struct{})}
}

func (t *txn) exec(query string, args ...any) (sql.Result, error) {
	if t.readOnly {
		return nil, errReadOnly
	}
	return t.tx.ExecContext(t.ctx, query, args...)
}

func (t *txn) query(query string, args ...any) (*sql.Rows, error) {
	return t.tx.QueryContext(t.ctx, query, args...)
}

func (t *txn) queryRow(query string, args ...any) *sql.Row {
	return t.tx.QueryRowContext(t.ctx, query, args...)
}

// scalarInt runs a single-value integer query.
func (t *txn) scalarInt(query string, args ...any) (int64, error) {
	var v int64
	if err := t.queryRow(query, args...).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// nullable converts an optional id into a driver value; nil becomes NULL.
func nullable(id *int64) any {
	if id == nil {
		return nil
	}
	return *id
}

// fromNull converts a scanned nullable id back into its pointer form.
func fromNull(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	id := v.Int64
	return &id
}

// notFound maps sql.ErrNoRows to a typed not-found error and wraps anything
// else with context.
func notFound(err error, op string, kind types.Kind, id int64) error {
	if errors.Is(err, sql.ErrNoRows) {
		return types.NewNotFoundError(op, kind, id)
	}
	return fmt.Errorf("%s %s %d: %w", op, kind, id, err)
}
