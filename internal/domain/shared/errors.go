// Package shared contains common domain errors and events that are used
// across all domain packages.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Input validation errors, raised at save time and surfaced to the
	// caller bound to a field. They never reach the deadline computer.
	ErrValidation           = errors.New("validation error")
	ErrMandatoryDateMissing = errors.New("mandatory date missing")
	ErrChronologyViolation  = errors.New("start date must not be after end date")
	ErrDateOutOfParentRange = errors.New("date outside parent calendar range")

	// Computation errors, swallowed at the computer's boundary.
	ErrNoCandidateDates = errors.New("no candidate dates for deadline")
	ErrLookupMissing    = errors.New("paired calendar not found")
	ErrAmbiguousLookup  = errors.New("paired calendar lookup is ambiguous")
	ErrNoSessionNumber  = errors.New("calendar has no session number")

	// Storage errors
	ErrStorage = errors.New("storage error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "calendar", "offer", "deadline"
	Op      string // Operation that failed, e.g., "Save", "Compute"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Calendar domain errors
var (
	ErrAcademicYearNotFound     = NewDomainError("calendar", "Find", ErrNotFound, "academic year not found")
	ErrAcademicCalendarNotFound = NewDomainError("calendar", "Find", ErrNotFound, "academic calendar not found")
	ErrSessionNumberNotFound    = NewDomainError("calendar", "FindSession", ErrNoSessionNumber, "no session number mapped to calendar")
	ErrInvalidReference         = NewDomainError("calendar", "Validate", ErrInvalidEntity, "unknown calendar reference")
	ErrInvalidSessionNumber     = NewDomainError("calendar", "Validate", ErrInvalidEntity, "session number must be 1, 2 or 3")
)

// Offer domain errors
var (
	ErrOfferCalendarNotFound = NewDomainError("offer", "Find", ErrNotFound, "offer year calendar not found")
	ErrOfferCalendarExists   = NewDomainError("offer", "Create", ErrAlreadyExists, "offer year calendar already exists for this calendar and education group year")
)

// Deadline domain errors
var (
	ErrDeadlineNotFound = NewDomainError("deadline", "Find", ErrNotFound, "session exam deadline not found")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation checks if the error is an input validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrMandatoryDateMissing) ||
		errors.Is(err, ErrChronologyViolation) ||
		errors.Is(err, ErrDateOutOfParentRange)
}

// IsLookupFailure checks for the non-fatal lookup conditions the computer
// logs and skips instead of raising.
func IsLookupFailure(err error) bool {
	return errors.Is(err, ErrLookupMissing) ||
		errors.Is(err, ErrAmbiguousLookup) ||
		errors.Is(err, ErrNoSessionNumber)
}
