// Package protocol defines the error taxonomy and shared limits of
// the agent commerce ledger. Every failing operation in tipledger,
// escrow and registry surfaces exactly one of these kinds, matchable
// with errors.Is, so callers can decide between retrying with
// different arguments (re-approve an allowance, fix a typo) and
// abandoning the call.
package protocol

import "errors"

var (
	// ErrInvalidArgument covers zero amounts, zero or
	// self-referential counterparties, empty descriptions, past
	// deadlines at creation, and malformed batches.
	ErrInvalidArgument = errors.New("protocol: invalid argument")

	// ErrNotFound means the referenced bounty id was never allocated.
	ErrNotFound = errors.New("protocol: not found")

	// ErrUnauthorized means the caller is not permitted to perform
	// the operation (not the poster, or claiming own bounty).
	ErrUnauthorized = errors.New("protocol: unauthorized")

	// ErrInvalidState means the bounty is not Active.
	ErrInvalidState = errors.New("protocol: invalid state")

	// ErrPreconditionFailed means claimExpired was called with no
	// deadline set or a deadline still in the future.
	ErrPreconditionFailed = errors.New("protocol: precondition failed")

	// ErrCustodyTransfer means the underlying token movement did not
	// succeed; insufficient balance and insufficient allowance both
	// land here. The enclosing operation has no partial effect.
	ErrCustodyTransfer = errors.New("protocol: custody transfer failed")
)

// MaxBatchTip bounds the recipient count of a single batch tip.
// Guards against unbounded-cost operations.
const MaxBatchTip = 50
