// Package token defines the fungible token capability the ledger and
// escrow operate against, and an in-memory implementation of it.
//
// The ledger never assumes more of a token than the five-method
// surface below: balances, allowances, and boolean-result transfers.
// A false result from any transfer is an unconditional failure of the
// enclosing operation.
package token

import (
	"github.com/holiman/uint256"
)

// Token is the external token capability.
//
// The acting account is always passed explicitly: Transfer moves the
// caller's own funds, TransferFrom spends an allowance previously
// granted by owner to spender. Implementations must treat amounts as
// immutable and never retain the *uint256.Int arguments.
type Token interface {
	// BalanceOf returns the balance of addr. Never nil.
	BalanceOf(addr Address) *uint256.Int

	// Allowance returns how much spender may still pull from owner.
	Allowance(owner, spender Address) *uint256.Int

	// Approve sets spender's allowance over owner's balance.
	Approve(owner, spender Address, amount *uint256.Int) bool

	// Transfer moves amount from the caller's balance to to.
	Transfer(from, to Address, amount *uint256.Int) bool

	// TransferFrom moves amount from owner to to, spending the
	// allowance owner granted to spender.
	TransferFrom(spender, owner, to Address, amount *uint256.Int) bool
}
