package registry

import (
	"testing"
	"time"

	"github.com/holiman/uint256"

	"github.com/joshlevylabs/agent-commerce-protocol/escrow"
	"github.com/joshlevylabs/agent-commerce-protocol/event"
	"github.com/joshlevylabs/agent-commerce-protocol/tipledger"
	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

var (
	tipsCustody   = token.MustAddress("0x00000000000000000000000000000000000000cc")
	escrowCustody = token.MustAddress("0x00000000000000000000000000000000000000ee")
	alice         = token.MustAddress("0x00000000000000000000000000000000000000a1")
	bob           = token.MustAddress("0x00000000000000000000000000000000000000b2")
)

type world struct {
	vault    *token.Vault
	tips     *tipledger.Ledger
	bounties *escrow.Escrow
	registry *Registry
	sink     *event.MemorySink
}

func newWorld(t *testing.T) *world {
	t.Helper()
	w := &world{
		vault: token.NewVault(),
		sink:  event.NewMemorySink(),
	}
	w.tips = tipledger.New(w.vault, tipsCustody, w.sink)
	w.bounties = escrow.New(w.vault, escrowCustody, w.sink)
	w.registry = New(w.vault, w.tips, w.bounties, w.sink)
	return w
}

func TestRegisterAgentIdempotent(t *testing.T) {
	w := newWorld(t)

	w.registry.RegisterAgent(alice, "alice", "ipfs://profile-1")
	w.registry.RegisterAgent(alice, "alice-v2", "ipfs://profile-2")

	id, ok := w.registry.Agent(alice)
	if !ok {
		t.Fatal("alice not registered")
	}
	if id.Name != "alice-v2" || id.Profile != "ipfs://profile-2" {
		t.Errorf("identity = %+v, want latest values only", id)
	}

	if n := len(w.sink.ByType(event.TypeAgentRegistered)); n != 2 {
		t.Errorf("emitted %d AgentRegistered events, want 2", n)
	}

	if _, ok := w.registry.Agent(bob); ok {
		t.Error("bob should not be registered")
	}
}

func TestFullAgentStats(t *testing.T) {
	w := newWorld(t)
	w.vault.Mint(alice, uint256.NewInt(2000))
	w.vault.Approve(alice, tipsCustody, uint256.NewInt(1000))
	w.vault.Approve(alice, escrowCustody, uint256.NewInt(1000))

	w.registry.RegisterAgent(bob, "bob", "")
	if err := w.tips.Tip(alice, bob, uint256.NewInt(150), "", "gg"); err != nil {
		t.Fatalf("tip: %v", err)
	}
	id, err := w.bounties.CreateBounty(alice, uint256.NewInt(500), time.Time{}, "write docs", "")
	if err != nil {
		t.Fatalf("create bounty: %v", err)
	}
	if err := w.bounties.ApproveClaim(alice, id, bob, "done"); err != nil {
		t.Fatalf("approve claim: %v", err)
	}

	full := w.registry.FullAgentStats(bob)
	if full.Identity.Name != "bob" {
		t.Errorf("identity = %+v", full.Identity)
	}
	if !full.Tips.TotalReceived.Eq(uint256.NewInt(150)) || full.Tips.ReceivedCount != 1 {
		t.Errorf("tip stats = %+v", full.Tips)
	}
	if full.Bounties.ClaimedCount != 1 || !full.Bounties.AmountEarned.Eq(uint256.NewInt(500)) {
		t.Errorf("bounty stats = %+v", full.Bounties)
	}

	// Unregistered agent composes to zero values, never fails.
	empty := w.registry.FullAgentStats(token.MustAddress("0x00000000000000000000000000000000000000dd"))
	if empty.Identity.Name != "" || empty.Tips.ReceivedCount != 0 || empty.Bounties.PostedCount != 0 {
		t.Errorf("unknown agent stats = %+v", empty)
	}
}

func TestPassThroughReads(t *testing.T) {
	w := newWorld(t)
	w.vault.Mint(alice, uint256.NewInt(777))
	w.vault.Approve(alice, tipsCustody, uint256.NewInt(50))
	w.vault.Approve(alice, escrowCustody, uint256.NewInt(60))

	if got := w.registry.Balance(alice); !got.Eq(uint256.NewInt(777)) {
		t.Errorf("balance = %s", got)
	}
	if got := w.registry.TipsAllowance(alice); !got.Eq(uint256.NewInt(50)) {
		t.Errorf("tips allowance = %s", got)
	}
	if got := w.registry.BountiesAllowance(alice); !got.Eq(uint256.NewInt(60)) {
		t.Errorf("bounties allowance = %s", got)
	}
}

func TestExportRestore(t *testing.T) {
	w := newWorld(t)
	w.registry.RegisterAgent(alice, "alice", "p1")
	w.registry.RegisterAgent(bob, "bob", "p2")

	records := w.registry.Export()
	if len(records) != 2 {
		t.Fatalf("exported %d records, want 2", len(records))
	}

	restored := New(w.vault, w.tips, w.bounties, nil)
	restored.Restore(records)
	if id, ok := restored.Agent(bob); !ok || id.Name != "bob" {
		t.Errorf("restored bob = %+v, ok %v", id, ok)
	}
}
