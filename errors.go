package captable

import (
	"errors"

	"github.com/xraph/captable/batch"
	"github.com/xraph/captable/ledger"
	"github.com/xraph/captable/types"
)

// Sentinel errors for common failure scenarios. Typed errors from the
// types package match these via errors.Is.
var (
	// Client-side errors, raised before any ledger access
	ErrValidation = types.ErrValidation
	ErrEmptyBatch = types.ErrEmptyBatch
	ErrExecuted   = batch.ErrExecuted

	// Ledger-side errors
	ErrConflict         = types.ErrConflict
	ErrDuplicateCommand = ledger.ErrDuplicateCommand
	ErrUnknownContract  = ledger.ErrUnknownContract
	ErrRejected         = ledger.ErrRejected

	// Lookup and payment errors
	ErrNotFound             = types.ErrNotFound
	ErrInsufficientResource = types.ErrInsufficientResource
	ErrProtocol             = types.ErrProtocol
)

// Typed errors re-exported from the types package.
type (
	ValidationError           = types.ValidationError
	ConflictError             = types.ConflictError
	NotFoundError             = types.NotFoundError
	InsufficientResourceError = types.InsufficientResourceError
	ProtocolError             = types.ProtocolError
	EmptyBatchError           = types.EmptyBatchError
)

// IsConflict returns true if the batch targeted a superseded aggregate version.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsNotFound returns true if an expected event or resource was absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidation returns true if the error was raised before any ledger access.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrEmptyBatch)
}

// IsInsufficientFunds returns true if the payer's value resources could not
// cover a payment.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientResource)
}

// IsRetryable returns true if re-fetching the current aggregate version and
// rebuilding the batch may succeed. Only conflicts qualify.
func IsRetryable(err error) bool {
	return IsConflict(err)
}
