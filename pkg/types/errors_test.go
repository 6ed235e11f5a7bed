package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTypedErrorsUnwrap(t *testing.T) {
	nf := NewNotFoundError("Clone", KindGroupSet, 4)
	assert.True(t, IsNotFound(nf))
	assert.ErrorIs(t, nf, ErrNotFound)
	assert.Equal(t, "Clone: groupset 4 not found", nf.Error())

	ve := NewValidationError("ChangeGroup", ErrReservedGroup)
	assert.True(t, IsValidation(ve))
	assert.ErrorIs(t, ve, ErrReservedGroup)
	assert.False(t, IsNotFound(ve))

	ce := &ConsistencyError{Op: "PathToRoot", Path: []int64{5, 6, 5}, Err: ErrCycle}
	assert.True(t, IsConsistency(ce))
	assert.ErrorIs(t, ce, ErrCycle)
	assert.Equal(t, "PathToRoot: cycle in group hierarchy: 5 -> 6 -> 5", ce.Error())
}

func TestAsPersistence(t *testing.T) {
	assert.NoError(t, AsPersistence("Swap", nil))

	raw := errors.New("UNIQUE constraint failed")
	err := AsPersistence("Swap", raw)
	assert.True(t, IsPersistence(err))
	assert.ErrorIs(t, err, raw)

	typed := []error{
		NewValidationError("Swap", ErrKindMismatch),
		NewNotFoundError("Swap", KindGroup, 3),
		&ConsistencyError{Op: "Swap", Err: ErrCycle},
		err,
	}
	for _, e := range typed {
		wrapped := fmt.Errorf("outer: %w", e)
		assert.Same(t, wrapped, AsPersistence("Other", wrapped))
	}
}
