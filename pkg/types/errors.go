package types

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)

// Entity and operation errors. They are wrapped by the typed errors below;
// callers match them with errors.Is.
var (
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidID       = errors.New("invalid entity ID")
	ErrInvalidName     = errors.New("invalid name")
	ErrDuplicateName   = errors.New("name already in use")
	ErrInvalidKind     = errors.New("invalid entity kind")
	ErrKindMismatch    = errors.New("entity kinds differ")
	ErrUnsupportedKind = errors.New("operation does not support entity kind")
	ErrReservedGroup   = errors.New("reserved group")
	ErrRootGroup       = errors.New("root group")
	ErrSelfParent      = errors.New("group cannot be its own ancestor")
	ErrAlreadyMember   = errors.New("already a member of the group set")
	ErrHasMembers      = errors.New("group has child groups or plugins")
	ErrNoAggregate     = errors.New("aggregate is required")
	ErrCycle           = errors.New("cycle in group hierarchy")
	ErrTooDeep         = errors.New("ancestor chain exceeds hierarchy size")
)

// ValidationError reports a request the engine refuses before touching the
// store: a reserved reparent target, mismatched swap kinds, or a malformed
// membership.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports a referenced group, plugin, group set, or membership
// that does not exist. It always unwraps to ErrNotFound.
type NotFoundError struct {
	Op   string
	Kind Kind
	ID   int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s: %s %d not found", e.Op, e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PersistenceError reports a transaction or constraint failure at the store
// boundary. The transaction it came from was rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persistence failure: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ConsistencyError reports hierarchy data that breaks a structural invariant,
// such as a parent cycle found while resolving an ancestor path. Path holds
// the group ids visited before the problem was detected.
type ConsistencyError struct {
	Op   string
	Path []int64
	Err  error
}

func (e *ConsistencyError) Error() string {
	if len(e.Path) == 0 {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	ids := make([]string, len(e.Path))
	for i, id := range e.Path {
		ids[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("%s: %v: %s", e.Op, e.Err, strings.Join(ids, " -> "))
}

func (e *ConsistencyError) Unwrap() error { return e.Err }

// NewValidationError returns a *ValidationError for op wrapping err.
func NewValidationError(op string, err error) error {
	return &ValidationError{Op: op, Err: err}
}

// NewNotFoundError returns a *NotFoundError for an entity of kind with id.
func NewNotFoundError(op string, kind Kind, id int64) error {
	return &NotFoundError{Op: op, Kind: kind, ID: id}
}

// AsPersistence classifies err for op. Errors that already belong to one of
// the typed classes pass through unchanged; anything else is wrapped in a
// *PersistenceError. A nil err returns nil.
func AsPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	var (
		ve *ValidationError
		nf *NotFoundError
		pe *PersistenceError
		ce *ConsistencyError
	)
	switch {
	case errors.As(err, &ve), errors.As(err, &nf), errors.As(err, &pe), errors.As(err, &ce):
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConsistency reports whether err is a *ConsistencyError.
func IsConsistency(err error) bool {
	var ce *ConsistencyError
	return errors.As(err, &ce)
}

// IsPersistence reports whether err is a *PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}
