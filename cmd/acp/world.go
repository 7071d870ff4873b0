package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/holiman/uint256"

	"github.com/joshlevylabs/agent-commerce-protocol/escrow"
	"github.com/joshlevylabs/agent-commerce-protocol/event"
	"github.com/joshlevylabs/agent-commerce-protocol/registry"
	"github.com/joshlevylabs/agent-commerce-protocol/snapshot"
	"github.com/joshlevylabs/agent-commerce-protocol/tipledger"
	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

// Well-known custody accounts. Senders approve these before tipping
// or posting bounties.
var (
	tipsCustody   = token.MustAddress("0x0000000000000000000000000000000000000101")
	escrowCustody = token.MustAddress("0x0000000000000000000000000000000000000102")
)

// world is the CLI's assembled ledger: components wired over one
// vault, restored from the snapshot, journaling every event.
type world struct {
	cfg      *Config
	vault    *token.Vault
	tips     *tipledger.Ledger
	bounties *escrow.Escrow
	registry *registry.Registry
	journal  *event.Journal
}

// openWorld loads the snapshot (if any) and opens the journal.
func openWorld(cfg *Config) (*world, error) {
	journal, err := event.OpenJournal(cfg.JournalPath, slog.Default())
	if err != nil {
		return nil, err
	}

	w := &world{cfg: cfg, vault: token.NewVault(), journal: journal}
	w.tips = tipledger.New(w.vault, tipsCustody, journal)
	w.bounties = escrow.New(w.vault, escrowCustody, journal)
	w.registry = registry.New(w.vault, w.tips, w.bounties, journal)

	st, err := snapshot.Load(cfg.StatePath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// Fresh world.
	case err != nil:
		journal.Close()
		return nil, err
	default:
		st.Restore(w.vault, w.tips, w.bounties, w.registry)
	}
	return w, nil
}

// save persists the world snapshot.
func (w *world) save() error {
	return snapshot.Save(w.cfg.StatePath, snapshot.Capture(w.vault, w.tips, w.bounties, w.registry))
}

func (w *world) close() {
	if err := w.journal.Close(); err != nil {
		slog.Warn("journal close failed", "error", err)
	}
}

// withWorld runs fn against the loaded world and saves afterwards if
// fn succeeded.
func withWorld(fn func(*world) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	w, err := openWorld(cfg)
	if err != nil {
		return err
	}
	defer w.close()

	if err := fn(w); err != nil {
		return err
	}
	return w.save()
}

// resolveAgent parses an address flag, falling back to the
// configured default agent.
func (w *world) resolveAgent(flagValue string) (token.Address, error) {
	s := flagValue
	if s == "" {
		s = w.cfg.DefaultAgent
	}
	if s == "" {
		return token.ZeroAddress, fmt.Errorf("no agent given and no default_agent configured")
	}
	return token.ParseAddress(s)
}

// ensureAllowance approves custody for the required amount when the
// current allowance is short. Client-side convenience, not a ledger
// guarantee.
func (w *world) ensureAllowance(owner, custody token.Address, required *uint256.Int) {
	if w.vault.Allowance(owner, custody).Lt(required) {
		slog.Info("granting allowance", "owner", owner, "custody", custody, "amount", required)
		w.vault.Approve(owner, custody, required)
	}
}

// parseAmount parses a decimal token amount.
func parseAmount(s string) (*uint256.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, err := uint256.FromDecimal(s)
	if err != nil {
		return nil, fmt.Errorf("bad amount %q: %w", s, err)
	}
	return amount, nil
}
