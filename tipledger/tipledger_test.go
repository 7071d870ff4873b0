package tipledger

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"

	"github.com/joshlevylabs/agent-commerce-protocol/event"
	"github.com/joshlevylabs/agent-commerce-protocol/protocol"
	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

var (
	custody = token.MustAddress("0x00000000000000000000000000000000000000cc")
	alice   = token.MustAddress("0x00000000000000000000000000000000000000a1")
	bob     = token.MustAddress("0x00000000000000000000000000000000000000b2")
	carol   = token.MustAddress("0x00000000000000000000000000000000000000c3")
)

func newLedger(t *testing.T) (*Ledger, *token.Vault, *event.MemorySink) {
	t.Helper()
	vault := token.NewVault()
	sink := event.NewMemorySink()
	return New(vault, custody, sink), vault, sink
}

func fund(v *token.Vault, addr token.Address, amount uint64) {
	v.Mint(addr, uint256.NewInt(amount))
	v.Approve(addr, custody, uint256.NewInt(amount))
}

func TestTip(t *testing.T) {
	l, vault, sink := newLedger(t)
	fund(vault, alice, 1000)

	if err := l.Tip(alice, bob, uint256.NewInt(100), "post-1", "nice work"); err != nil {
		t.Fatalf("tip: %v", err)
	}

	if got := vault.BalanceOf(alice); !got.Eq(uint256.NewInt(900)) {
		t.Errorf("alice balance = %s, want 900", got)
	}
	if got := vault.BalanceOf(bob); !got.Eq(uint256.NewInt(100)) {
		t.Errorf("bob balance = %s, want 100", got)
	}

	as := l.AgentStats(alice)
	if !as.TotalSent.Eq(uint256.NewInt(100)) || as.ReceivedCount != 0 {
		t.Errorf("alice stats = %+v", as)
	}
	bs := l.AgentStats(bob)
	if !bs.TotalReceived.Eq(uint256.NewInt(100)) || bs.ReceivedCount != 1 {
		t.Errorf("bob stats = %+v", bs)
	}

	events := sink.ByType(event.TypeTipSent)
	if len(events) != 1 {
		t.Fatalf("emitted %d TipSent events, want 1", len(events))
	}
	payload := events[0].Payload.(*event.TipSent)
	if payload.Message != "nice work" || payload.PostRef != "post-1" {
		t.Errorf("event payload = %+v", payload)
	}
}

func TestTipValidation(t *testing.T) {
	l, vault, _ := newLedger(t)
	fund(vault, alice, 1000)

	tests := []struct {
		name      string
		sender    token.Address
		recipient token.Address
		amount    *uint256.Int
	}{
		{"zero recipient", alice, token.ZeroAddress, uint256.NewInt(1)},
		{"self tip", alice, alice, uint256.NewInt(1)},
		{"zero amount", alice, bob, uint256.NewInt(0)},
		{"nil amount", alice, bob, nil},
		{"zero sender", token.ZeroAddress, bob, uint256.NewInt(1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := l.Tip(tc.sender, tc.recipient, tc.amount, "", "")
			if !errors.Is(err, protocol.ErrInvalidArgument) {
				t.Errorf("got %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestTipInsufficientAllowance(t *testing.T) {
	l, vault, sink := newLedger(t)
	vault.Mint(alice, uint256.NewInt(1000))
	// No approval granted.

	err := l.Tip(alice, bob, uint256.NewInt(100), "", "")
	if !errors.Is(err, protocol.ErrCustodyTransfer) {
		t.Fatalf("got %v, want ErrCustodyTransfer", err)
	}

	// No partial effect anywhere.
	if got := vault.BalanceOf(alice); !got.Eq(uint256.NewInt(1000)) {
		t.Errorf("alice balance changed: %s", got)
	}
	if s := l.AgentStats(bob); s.ReceivedCount != 0 || !s.TotalReceived.IsZero() {
		t.Errorf("bob stats changed: %+v", s)
	}
	if s := l.AgentStats(alice); !s.TotalSent.IsZero() {
		t.Errorf("alice stats changed: %+v", s)
	}
	if sink.Len() != 0 {
		t.Errorf("emitted %d events on failure", sink.Len())
	}
}

func TestBatchTip(t *testing.T) {
	l, vault, sink := newLedger(t)
	fund(vault, alice, 1000)

	recipients := []token.Address{bob, carol}
	amounts := []*uint256.Int{uint256.NewInt(100), uint256.NewInt(250)}

	if err := l.BatchTip(alice, recipients, amounts); err != nil {
		t.Fatalf("batch tip: %v", err)
	}

	if got := vault.BalanceOf(alice); !got.Eq(uint256.NewInt(650)) {
		t.Errorf("alice balance = %s, want 650", got)
	}
	if got := vault.BalanceOf(bob); !got.Eq(uint256.NewInt(100)) {
		t.Errorf("bob balance = %s, want 100", got)
	}
	if got := vault.BalanceOf(carol); !got.Eq(uint256.NewInt(250)) {
		t.Errorf("carol balance = %s, want 250", got)
	}
	// Nothing remains staged in custody.
	if got := vault.BalanceOf(custody); !got.IsZero() {
		t.Errorf("custody balance = %s, want 0", got)
	}

	if s := l.AgentStats(alice); !s.TotalSent.Eq(uint256.NewInt(350)) {
		t.Errorf("alice TotalSent = %s, want 350", s.TotalSent)
	}
	if s := l.AgentStats(carol); s.ReceivedCount != 1 || !s.TotalReceived.Eq(uint256.NewInt(250)) {
		t.Errorf("carol stats = %+v", s)
	}

	events := sink.ByType(event.TypeBatchTipSent)
	if len(events) != 1 {
		t.Fatalf("emitted %d BatchTipSent events, want 1", len(events))
	}
	payload := events[0].Payload.(*event.BatchTipSent)
	if len(payload.Recipients) != 2 || !payload.Total.Eq(uint256.NewInt(350)) {
		t.Errorf("event payload = %+v", payload)
	}
}

func TestBatchTipValidation(t *testing.T) {
	l, vault, _ := newLedger(t)
	fund(vault, alice, 100000)

	many := make([]token.Address, protocol.MaxBatchTip+1)
	manyAmounts := make([]*uint256.Int, protocol.MaxBatchTip+1)
	for i := range many {
		many[i] = bob
		manyAmounts[i] = uint256.NewInt(1)
	}

	tests := []struct {
		name       string
		recipients []token.Address
		amounts    []*uint256.Int
	}{
		{"empty", nil, nil},
		{"length mismatch", []token.Address{bob}, []*uint256.Int{uint256.NewInt(1), uint256.NewInt(2)}},
		{"over limit", many, manyAmounts},
		{"zero recipient", []token.Address{token.ZeroAddress}, []*uint256.Int{uint256.NewInt(1)}},
		{"self in batch", []token.Address{alice}, []*uint256.Int{uint256.NewInt(1)}},
		{"zero amount", []token.Address{bob}, []*uint256.Int{uint256.NewInt(0)}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := l.BatchTip(alice, tc.recipients, tc.amounts)
			if !errors.Is(err, protocol.ErrInvalidArgument) {
				t.Errorf("got %v, want ErrInvalidArgument", err)
			}
		})
	}

	// Validation rejects before any transfer happens.
	if got := vault.BalanceOf(alice); !got.Eq(uint256.NewInt(100000)) {
		t.Errorf("alice balance changed by rejected batches: %s", got)
	}
}

func TestBatchTipInsufficientFunds(t *testing.T) {
	l, vault, sink := newLedger(t)
	fund(vault, alice, 100)

	err := l.BatchTip(alice,
		[]token.Address{bob, carol},
		[]*uint256.Int{uint256.NewInt(80), uint256.NewInt(80)})
	if !errors.Is(err, protocol.ErrCustodyTransfer) {
		t.Fatalf("got %v, want ErrCustodyTransfer", err)
	}
	if got := vault.BalanceOf(alice); !got.Eq(uint256.NewInt(100)) {
		t.Errorf("alice balance = %s, want unchanged 100", got)
	}
	if got := vault.BalanceOf(bob); !got.IsZero() {
		t.Errorf("bob received a partial batch: %s", got)
	}
	if sink.Len() != 0 {
		t.Errorf("emitted %d events on failed batch", sink.Len())
	}
}

func TestBatchTipTotalOverflow(t *testing.T) {
	l, vault, sink := newLedger(t)
	fund(vault, alice, 1000)

	// 60 + 60 + (2^256 - 20) wraps to 100, which alice can cover.
	// The wrapped sum must be rejected, not pulled and distributed.
	huge := new(uint256.Int).Not(uint256.NewInt(19))
	err := l.BatchTip(alice,
		[]token.Address{bob, carol, bob},
		[]*uint256.Int{uint256.NewInt(60), uint256.NewInt(60), huge})
	if !errors.Is(err, protocol.ErrInvalidArgument) {
		t.Fatalf("got %v, want ErrInvalidArgument", err)
	}
	if got := vault.BalanceOf(alice); !got.Eq(uint256.NewInt(1000)) {
		t.Errorf("alice balance = %s, want unchanged 1000", got)
	}
	if got := vault.BalanceOf(bob); !got.IsZero() {
		t.Errorf("bob received a partial batch: %s", got)
	}
	if got := vault.BalanceOf(carol); !got.IsZero() {
		t.Errorf("carol received a partial batch: %s", got)
	}
	if sink.Len() != 0 {
		t.Errorf("emitted %d events on rejected batch", sink.Len())
	}
}

func TestStatsMonotonic(t *testing.T) {
	l, vault, _ := newLedger(t)
	fund(vault, alice, 10000)
	fund(vault, bob, 10000)

	prevSent := uint256.NewInt(0)
	prevReceived := uint256.NewInt(0)
	var prevCount uint64

	for i := 0; i < 10; i++ {
		l.Tip(alice, bob, uint256.NewInt(uint64(i+1)), "", "")
		// Interleave a failure; stats must not move.
		l.Tip(alice, bob, uint256.NewInt(0), "", "")

		as := l.AgentStats(alice)
		bs := l.AgentStats(bob)
		if as.TotalSent.Lt(prevSent) || bs.TotalReceived.Lt(prevReceived) || bs.ReceivedCount < prevCount {
			t.Fatalf("stats decreased at step %d", i)
		}
		prevSent = as.TotalSent
		prevReceived = bs.TotalReceived
		prevCount = bs.ReceivedCount
	}
}

func TestExportRestore(t *testing.T) {
	l, vault, _ := newLedger(t)
	fund(vault, alice, 1000)
	l.Tip(alice, bob, uint256.NewInt(123), "", "")

	records := l.Export()

	restored := New(vault, custody, nil)
	restored.Restore(records)
	if s := restored.AgentStats(bob); !s.TotalReceived.Eq(uint256.NewInt(123)) || s.ReceivedCount != 1 {
		t.Errorf("restored bob stats = %+v", s)
	}
}
