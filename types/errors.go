package types

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Sentinels matched by the typed errors below via errors.Is.
var (
	ErrValidation           = errors.New("captable: validation failed")
	ErrEmptyBatch           = errors.New("captable: batch has no operations")
	ErrConflict             = errors.New("captable: aggregate version superseded")
	ErrNotFound             = errors.New("captable: not found")
	ErrInsufficientResource = errors.New("captable: insufficient value resources")
	ErrProtocol             = errors.New("captable: protocol mismatch")
)

// ValidationError reports a missing or malformed required field. It is
// raised before any ledger access.
type ValidationError struct {
	Kind    string
	ID      string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Kind != "" && e.ID != "":
		return fmt.Sprintf("captable: validation failed for %s %q at %s: %s", e.Kind, e.ID, e.Field, e.Message)
	case e.Kind != "":
		return fmt.Sprintf("captable: validation failed for %s at %s: %s", e.Kind, e.Field, e.Message)
	default:
		return fmt.Sprintf("captable: validation failed at %s: %s", e.Field, e.Message)
	}
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// NewValidationError builds a ValidationError for field.
func NewValidationError(kind, field, message string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: message}
}

// ConflictError reports a submission against a superseded aggregate version.
// Retrying is the caller's decision: re-fetch the current version first.
type ConflictError struct {
	ContractID string
	Cause      error
}

func (e *ConflictError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("captable: contract %q is no longer active: %v", e.ContractID, e.Cause)
	}
	return fmt.Sprintf("captable: contract %q is no longer active", e.ContractID)
}

// Is reports whether target is ErrConflict.
func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

func (e *ConflictError) Unwrap() error { return e.Cause }

// NotFoundError reports that an expected creation event or referenced
// resource is absent. It indicates a response-shape mismatch and is fatal.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("captable: %s not found", e.Resource)
	}
	return fmt.Sprintf("captable: %s %q not found", e.Resource, e.ID)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// InsufficientResourceError reports that the payer's value resources cannot
// cover the required amount.
type InsufficientResourceError struct {
	Payer     string
	Required  decimal.Decimal
	Available decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientResourceError) Error() string {
	return fmt.Sprintf("captable: insufficient value resources for %q: required %s, available %s, shortfall %s",
		e.Payer, e.Required, e.Available, e.Shortfall)
}

// Is reports whether target is ErrInsufficientResource.
func (e *InsufficientResourceError) Is(target error) bool { return target == ErrInsufficientResource }

// ProtocolError reports a malformed disclosure reaching submission or an
// execution result of unexpected shape.
type ProtocolError struct {
	Op      string
	Message string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("captable: %s: %s", e.Op, e.Message)
}

// Is reports whether target is ErrProtocol.
func (e *ProtocolError) Is(target error) bool { return target == ErrProtocol }

// EmptyBatchError is returned by Execute when no operation was accumulated.
type EmptyBatchError struct {
	AggregateID string
}

func (e *EmptyBatchError) Error() string {
	return fmt.Sprintf("captable: batch against %q has no operations", e.AggregateID)
}

// Is reports whether target is ErrEmptyBatch.
func (e *EmptyBatchError) Is(target error) bool { return target == ErrEmptyBatch }
