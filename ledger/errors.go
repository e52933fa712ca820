package ledger

import "errors"

// Ledger-side rejections. Conflicts on superseded contracts are reported
// as *types.ConflictError instead.
var (
	ErrDuplicateCommand = errors.New("ledger: duplicate command id")
	ErrUnknownContract  = errors.New("ledger: unknown contract")
	ErrRejected         = errors.New("ledger: command rejected")
	ErrMalformed        = errors.New("ledger: malformed command")
)
