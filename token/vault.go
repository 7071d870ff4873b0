package token

import (
	"sort"
	"sync"

	"github.com/holiman/uint256"
)

// Vault is a deterministic in-memory Token. It backs the
// self-contained CLI economy and every test in this repository.
//
// Semantics mirror a standard non-rebasing, non-fee-on-transfer
// fungible token: transfers to the zero address fail, transfers of
// more than the balance fail, TransferFrom additionally requires and
// consumes allowance.
type Vault struct {
	mu         sync.RWMutex
	balances   map[Address]*uint256.Int
	allowances map[Address]map[Address]*uint256.Int
	supply     *uint256.Int
}

// NewVault creates an empty vault with zero total supply.
func NewVault() *Vault {
	return &Vault{
		balances:   make(map[Address]*uint256.Int),
		allowances: make(map[Address]map[Address]*uint256.Int),
		supply:     uint256.NewInt(0),
	}
}

// Mint credits amount to addr, growing total supply. Fails when the
// supply would exceed 2^256-1, so balances can never wrap either.
// The CLI faucet is a thin wrapper over this.
func (v *Vault) Mint(addr Address, amount *uint256.Int) bool {
	if addr.IsZero() || amount == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	grown, overflow := new(uint256.Int).AddOverflow(v.supply, amount)
	if overflow {
		return false
	}
	v.supply = grown
	v.credit(addr, amount)
	return true
}

// TotalSupply returns the sum of all balances.
func (v *Vault) TotalSupply() *uint256.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.supply.Clone()
}

// BalanceOf returns addr's balance.
func (v *Vault) BalanceOf(addr Address) *uint256.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if b, ok := v.balances[addr]; ok {
		return b.Clone()
	}
	return uint256.NewInt(0)
}

// Allowance returns what spender may still pull from owner.
func (v *Vault) Allowance(owner, spender Address) *uint256.Int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if m, ok := v.allowances[owner]; ok {
		if a, ok := m[spender]; ok {
			return a.Clone()
		}
	}
	return uint256.NewInt(0)
}

// Approve sets spender's allowance over owner's balance, replacing
// any previous value.
func (v *Vault) Approve(owner, spender Address, amount *uint256.Int) bool {
	if owner.IsZero() || spender.IsZero() || amount == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	m, ok := v.allowances[owner]
	if !ok {
		m = make(map[Address]*uint256.Int)
		v.allowances[owner] = m
	}
	m[spender] = amount.Clone()
	return true
}

// Transfer moves amount from from's own balance to to.
func (v *Vault) Transfer(from, to Address, amount *uint256.Int) bool {
	if from.IsZero() || to.IsZero() || amount == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.move(from, to, amount)
}

// TransferFrom moves amount from owner to to, consuming the
// allowance owner granted to spender.
func (v *Vault) TransferFrom(spender, owner, to Address, amount *uint256.Int) bool {
	if spender.IsZero() || owner.IsZero() || to.IsZero() || amount == nil {
		return false
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	allowed, ok := v.allowances[owner][spender]
	if !ok || allowed.Lt(amount) {
		return false
	}
	if !v.move(owner, to, amount) {
		return false
	}
	allowed.Sub(allowed, amount)
	return true
}

// move debits from and credits to. Caller holds the lock.
func (v *Vault) move(from, to Address, amount *uint256.Int) bool {
	bal, ok := v.balances[from]
	if !ok || bal.Lt(amount) {
		return false
	}
	bal.Sub(bal, amount)
	v.credit(to, amount)
	return true
}

// credit adds amount to addr's balance. Caller holds the lock.
func (v *Vault) credit(addr Address, amount *uint256.Int) {
	if b, ok := v.balances[addr]; ok {
		b.Add(b, amount)
		return
	}
	v.balances[addr] = amount.Clone()
}

// AccountBalance is one row of a vault export.
type AccountBalance struct {
	Address Address      `cbor:"address"`
	Balance *uint256.Int `cbor:"balance"`
}

// AllowanceGrant is one allowance row of a vault export.
type AllowanceGrant struct {
	Owner   Address      `cbor:"owner"`
	Spender Address      `cbor:"spender"`
	Amount  *uint256.Int `cbor:"amount"`
}

// VaultState is a full serializable capture of a vault.
type VaultState struct {
	Balances   []AccountBalance `cbor:"balances"`
	Allowances []AllowanceGrant `cbor:"allowances"`
	Supply     *uint256.Int     `cbor:"supply"`
}

// Export captures the vault deterministically (rows sorted by
// address so identical vaults export identical bytes).
func (v *Vault) Export() VaultState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	st := VaultState{Supply: v.supply.Clone()}
	for addr, b := range v.balances {
		st.Balances = append(st.Balances, AccountBalance{Address: addr, Balance: b.Clone()})
	}
	sort.Slice(st.Balances, func(i, j int) bool {
		return st.Balances[i].Address.String() < st.Balances[j].Address.String()
	})
	for owner, m := range v.allowances {
		for spender, a := range m {
			if a.IsZero() {
				continue
			}
			st.Allowances = append(st.Allowances, AllowanceGrant{Owner: owner, Spender: spender, Amount: a.Clone()})
		}
	}
	sort.Slice(st.Allowances, func(i, j int) bool {
		a, b := st.Allowances[i], st.Allowances[j]
		if a.Owner != b.Owner {
			return a.Owner.String() < b.Owner.String()
		}
		return a.Spender.String() < b.Spender.String()
	})
	return st
}

// Restore replaces the vault's contents with a prior export.
func (v *Vault) Restore(st VaultState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances = make(map[Address]*uint256.Int, len(st.Balances))
	v.allowances = make(map[Address]map[Address]*uint256.Int)
	for _, row := range st.Balances {
		v.balances[row.Address] = row.Balance.Clone()
	}
	for _, row := range st.Allowances {
		m, ok := v.allowances[row.Owner]
		if !ok {
			m = make(map[Address]*uint256.Int)
			v.allowances[row.Owner] = m
		}
		m[row.Spender] = row.Amount.Clone()
	}
	if st.Supply != nil {
		v.supply = st.Supply.Clone()
	} else {
		v.supply = uint256.NewInt(0)
	}
}
