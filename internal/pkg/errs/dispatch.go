package errs

import (
	"errors"
	"fmt"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrInvalidTransition      = errors.New("invalid transition")
	ErrInvalidState           = errors.New("invalid state")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrDriverUnavailable      = errors.New("driver unavailable")
	ErrOracleTimeout          = errors.New("geo cost oracle timeout")
)

// ValidationError is bad operation input that is safe to show to the user.
type ValidationError struct {
	EntityID string
	Reason   string
	Cause    error
}

func NewValidationError(entityID, reason string) *ValidationError {
	return &ValidationError{EntityID: entityID, Reason: reason}
}

func NewValidationErrorWithCause(entityID, reason string, cause error) *ValidationError {
	return &ValidationError{EntityID: entityID, Reason: reason, Cause: cause}
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", ErrValidation, e.EntityID, e.Reason)
	if e.Cause != nil {
		return fmt.Sprintf("%s (cause: %v)", msg, e.Cause)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// InvalidTransitionError is a state machine violation. State is never mutated when it is returned.
type InvalidTransitionError struct {
	Entity   string
	EntityID string
	From     string
	To       string
}

func NewInvalidTransitionError(entity, entityID, from, to string) *InvalidTransitionError {
	return &InvalidTransitionError{Entity: entity, EntityID: entityID, From: from, To: to}
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: %s %s cannot move from %s to %s", ErrInvalidTransition, e.Entity, e.EntityID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}

// InvalidStateError means the actor is not eligible for the operation, e.g. a suspended driver.
type InvalidStateError struct {
	Entity   string
	EntityID string
	State    string
	Reason   string
}

func NewInvalidStateError(entity, entityID, state, reason string) *InvalidStateError {
	return &InvalidStateError{Entity: entity, EntityID: entityID, State: state, Reason: reason}
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("%s: %s %s is %s: %s", ErrInvalidState, e.Entity, e.EntityID, e.State, e.Reason)
}

func (e *InvalidStateError) Unwrap() error {
	return ErrInvalidState
}

// ConcurrentModificationError is a lost compare-and-swap race. Callers should retry the read-modify-write.
type ConcurrentModificationError struct {
	Entity   string
	EntityID string
}

func NewConcurrentModificationError(entity, entityID string) *ConcurrentModificationError {
	return &ConcurrentModificationError{Entity: entity, EntityID: entityID}
}

func (e *ConcurrentModificationError) Error() string {
	return fmt.Sprintf("%s: %s %s was changed by another writer", ErrConcurrentModification, e.Entity, e.EntityID)
}

func (e *ConcurrentModificationError) Unwrap() error {
	return ErrConcurrentModification
}

type DriverUnavailableError struct {
	DriverID string
	Status   string
}

func NewDriverUnavailableError(driverID, status string) *DriverUnavailableError {
	return &DriverUnavailableError{DriverID: driverID, Status: status}
}

func (e *DriverUnavailableError) Error() string {
	return fmt.Sprintf("%s: %s is %s", ErrDriverUnavailable, e.DriverID, e.Status)
}

func (e *DriverUnavailableError) Unwrap() error {
	return ErrDriverUnavailable
}

// OracleTimeoutError never leaves the route builder; it switches stop ordering to the straight-line fallback.
type OracleTimeoutError struct {
	EntityID string
	Cause    error
}

func NewOracleTimeoutError(entityID string, cause error) *OracleTimeoutError {
	return &OracleTimeoutError{EntityID: entityID, Cause: cause}
}

func (e *OracleTimeoutError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", ErrOracleTimeout, e.EntityID, e.Cause)
	}
	return fmt.Sprintf("%s: %s", ErrOracleTimeout, e.EntityID)
}

func (e *OracleTimeoutError) Unwrap() error {
	return ErrOracleTimeout
}

// IsValidation reports whether err is any flavour of bad input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrValueIsInvalid) ||
		errors.Is(err, ErrValueIsRequired) ||
		errors.Is(err, ErrValueIsOutOfRange)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrObjectNotFound)
}

func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
