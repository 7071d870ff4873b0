package token

import (
	"testing"

	"github.com/holiman/uint256"
)

var (
	alice = MustAddress("0x00000000000000000000000000000000000000a1")
	bob   = MustAddress("0x00000000000000000000000000000000000000b2")
	carol = MustAddress("0x00000000000000000000000000000000000000c3")
)

func TestParseAddress(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"0x00000000000000000000000000000000000000a1", false},
		{"00000000000000000000000000000000000000a1", false},
		{"0xa1", true},
		{"", true},
		{"0xzz000000000000000000000000000000000000a1", true},
	}
	for _, tc := range tests {
		_, err := ParseAddress(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseAddress(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
		}
	}

	a := MustAddress("0x00000000000000000000000000000000000000a1")
	if a.String() != "0x00000000000000000000000000000000000000a1" {
		t.Errorf("round trip mismatch: %s", a)
	}
	if a.IsZero() {
		t.Error("non-zero address reported zero")
	}
	if !ZeroAddress.IsZero() {
		t.Error("zero address not reported zero")
	}
}

func TestVaultTransfer(t *testing.T) {
	v := NewVault()
	v.Mint(alice, uint256.NewInt(1000))

	if !v.Transfer(alice, bob, uint256.NewInt(300)) {
		t.Fatal("transfer should succeed")
	}
	if got := v.BalanceOf(alice); !got.Eq(uint256.NewInt(700)) {
		t.Errorf("alice balance = %s, want 700", got)
	}
	if got := v.BalanceOf(bob); !got.Eq(uint256.NewInt(300)) {
		t.Errorf("bob balance = %s, want 300", got)
	}

	// Overdraw fails without side effects.
	if v.Transfer(alice, bob, uint256.NewInt(701)) {
		t.Error("overdraw should fail")
	}
	if got := v.BalanceOf(alice); !got.Eq(uint256.NewInt(700)) {
		t.Errorf("alice balance changed on failed transfer: %s", got)
	}

	// Zero address is never a valid endpoint.
	if v.Transfer(alice, ZeroAddress, uint256.NewInt(1)) {
		t.Error("transfer to zero address should fail")
	}
}

func TestVaultTransferFrom(t *testing.T) {
	v := NewVault()
	v.Mint(alice, uint256.NewInt(1000))

	// No allowance yet.
	if v.TransferFrom(carol, alice, bob, uint256.NewInt(100)) {
		t.Fatal("transferFrom without allowance should fail")
	}

	v.Approve(alice, carol, uint256.NewInt(250))
	if !v.TransferFrom(carol, alice, bob, uint256.NewInt(100)) {
		t.Fatal("transferFrom within allowance should succeed")
	}
	if got := v.Allowance(alice, carol); !got.Eq(uint256.NewInt(150)) {
		t.Errorf("allowance = %s, want 150", got)
	}

	// Exceeding the remaining allowance fails even with balance.
	if v.TransferFrom(carol, alice, bob, uint256.NewInt(151)) {
		t.Error("transferFrom over allowance should fail")
	}

	// Allowance is not consumed when the balance check fails.
	v.Approve(alice, carol, uint256.NewInt(5000))
	if v.TransferFrom(carol, alice, bob, uint256.NewInt(2000)) {
		t.Error("transferFrom over balance should fail")
	}
	if got := v.Allowance(alice, carol); !got.Eq(uint256.NewInt(5000)) {
		t.Errorf("allowance consumed on failed transfer: %s", got)
	}
}

func TestVaultConservation(t *testing.T) {
	v := NewVault()
	v.Mint(alice, uint256.NewInt(600))
	v.Mint(bob, uint256.NewInt(400))

	v.Transfer(alice, bob, uint256.NewInt(150))
	v.Approve(bob, carol, uint256.NewInt(100))
	v.TransferFrom(carol, bob, carol, uint256.NewInt(100))

	sum := uint256.NewInt(0)
	for _, row := range v.Export().Balances {
		sum.Add(sum, row.Balance)
	}
	if !sum.Eq(v.TotalSupply()) {
		t.Errorf("balances sum to %s, supply is %s", sum, v.TotalSupply())
	}
}

func TestVaultMintOverflow(t *testing.T) {
	v := NewVault()
	max := new(uint256.Int).Not(uint256.NewInt(0))
	if !v.Mint(alice, max) {
		t.Fatal("minting the maximum supply failed")
	}

	if v.Mint(bob, uint256.NewInt(1)) {
		t.Error("mint past maximum supply succeeded")
	}
	if got := v.TotalSupply(); !got.Eq(max) {
		t.Errorf("supply = %s after rejected mint, want unchanged", got)
	}
	if got := v.BalanceOf(bob); !got.IsZero() {
		t.Errorf("bob balance = %s after rejected mint, want 0", got)
	}
}

func TestVaultExportRestore(t *testing.T) {
	v := NewVault()
	v.Mint(alice, uint256.NewInt(600))
	v.Mint(bob, uint256.NewInt(400))
	v.Approve(alice, carol, uint256.NewInt(50))

	st := v.Export()

	restored := NewVault()
	restored.Restore(st)
	if got := restored.BalanceOf(alice); !got.Eq(uint256.NewInt(600)) {
		t.Errorf("restored alice balance = %s", got)
	}
	if got := restored.Allowance(alice, carol); !got.Eq(uint256.NewInt(50)) {
		t.Errorf("restored allowance = %s", got)
	}
	if !restored.TotalSupply().Eq(uint256.NewInt(1000)) {
		t.Errorf("restored supply = %s", restored.TotalSupply())
	}

	// Export is deterministic.
	again := restored.Export()
	if len(again.Balances) != len(st.Balances) || len(again.Allowances) != len(st.Allowances) {
		t.Fatal("re-export shape mismatch")
	}
	for i := range st.Balances {
		if again.Balances[i].Address != st.Balances[i].Address || !again.Balances[i].Balance.Eq(st.Balances[i].Balance) {
			t.Errorf("balance row %d differs", i)
		}
	}
}
