package shared

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapError_CarriesKindMessageAndCause(t *testing.T) {
	cause := errors.New("duplicate key value violates unique constraint")

	err := WrapError("deadline", "Save", ErrAlreadyExists, "duplicate session exam deadline", cause)
	require.Error(t, err)

	assert.True(t, errors.Is(err, ErrAlreadyExists))
	assert.Equal(t, cause, errors.Unwrap(err))
	assert.Contains(t, err.Error(), "deadline.Save")
	assert.Contains(t, err.Error(), "duplicate session exam deadline")
	assert.Contains(t, err.Error(), cause.Error())
}

func TestNewDomainError_UnwrapsToKind(t *testing.T) {
	err := NewDomainError("calendar", "Find", ErrNotFound, "academic calendar not found")

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, ErrNotFound, errors.Unwrap(err))
	assert.Equal(t, "calendar.Find: academic calendar not found", err.Error())
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(ErrAcademicCalendarNotFound))
	assert.True(t, IsNotFound(ErrDeadlineNotFound))
	assert.False(t, IsNotFound(ErrOfferCalendarExists))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(ErrChronologyViolation))
	assert.True(t, IsValidation(ErrMandatoryDateMissing))
	assert.True(t, IsValidation(ErrDateOutOfParentRange))
	assert.False(t, IsValidation(ErrNotFound))
}

func TestIsLookupFailure(t *testing.T) {
	assert.True(t, IsLookupFailure(ErrLookupMissing))
	assert.True(t, IsLookupFailure(ErrAmbiguousLookup))
	assert.True(t, IsLookupFailure(ErrNoSessionNumber))
	assert.False(t, IsLookupFailure(ErrStorage))
}
