// Package registry is the thin aggregation layer over the tip ledger
// and the bounty escrow: an optional identity mapping plus composite
// read views. It owns no tip or bounty state of its own.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/joshlevylabs/agent-commerce-protocol/escrow"
	"github.com/joshlevylabs/agent-commerce-protocol/event"
	"github.com/joshlevylabs/agent-commerce-protocol/tipledger"
	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

// Identity is an agent's self-declared display record. Both fields
// are overwritten wholesale on each registration; no history is kept.
type Identity struct {
	Name    string `cbor:"name" json:"name"`
	Profile string `cbor:"profile,omitempty" json:"profile,omitempty"`
}

// FullAgentStats composes the identity record with both components'
// per-agent totals into one view. Each source is independently
// read-consistent at call time; no cross-source coordination is
// needed because none of them can move backwards.
type FullAgentStats struct {
	Agent    token.Address   `json:"agent"`
	Identity Identity        `json:"identity"`
	Tips     tipledger.Stats `json:"tips"`
	Bounties escrow.Stats    `json:"bounties"`
}

// Registry composes the read paths of both components and owns the
// identity map.
type Registry struct {
	mu     sync.RWMutex
	idents map[token.Address]Identity

	token    token.Token
	tips     *tipledger.Ledger
	bounties *escrow.Escrow
	sink     event.Sink

	// Now supplies event timestamps. Tests override it.
	Now func() time.Time
}

// New creates a registry over the given components.
func New(tok token.Token, tips *tipledger.Ledger, bounties *escrow.Escrow, sink event.Sink) *Registry {
	if sink == nil {
		sink = event.Discard
	}
	return &Registry{
		idents:   make(map[token.Address]Identity),
		token:    tok,
		tips:     tips,
		bounties: bounties,
		sink:     sink,
		Now:      time.Now,
	}
}

// RegisterAgent sets the caller's display record, replacing any
// previous one. Re-registration is not an error; only the latest
// values are visible.
func (r *Registry) RegisterAgent(caller token.Address, name, profile string) {
	r.mu.Lock()
	r.idents[caller] = Identity{Name: name, Profile: profile}
	r.mu.Unlock()

	r.sink.Emit(event.New(event.TypeAgentRegistered, r.Now(), &event.AgentRegistered{
		Agent:   caller,
		Name:    name,
		Profile: profile,
	}))
}

// Agent returns the identity record for agent, and whether one was
// ever registered.
func (r *Registry) Agent(agent token.Address) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.idents[agent]
	return id, ok
}

// FullAgentStats composes identity, tip stats and bounty stats for
// agent. Pure read; unknown agents yield zero values throughout.
func (r *Registry) FullAgentStats(agent token.Address) FullAgentStats {
	id, _ := r.Agent(agent)
	return FullAgentStats{
		Agent:    agent,
		Identity: id,
		Tips:     r.tips.AgentStats(agent),
		Bounties: r.bounties.AgentStats(agent),
	}
}

// Balance is a pass-through read of agent's token balance.
func (r *Registry) Balance(agent token.Address) *uint256.Int {
	return r.token.BalanceOf(agent)
}

// TipsAllowance returns what the tip ledger may still pull from
// agent.
func (r *Registry) TipsAllowance(agent token.Address) *uint256.Int {
	return r.token.Allowance(agent, r.tips.CustodyAddress())
}

// BountiesAllowance returns what the escrow may still pull from
// agent.
func (r *Registry) BountiesAllowance(agent token.Address) *uint256.Int {
	return r.token.Allowance(agent, r.bounties.CustodyAddress())
}

// IdentityRecord is one row of a registry export.
type IdentityRecord struct {
	Agent    token.Address `cbor:"agent" json:"agent"`
	Identity Identity      `cbor:"identity" json:"identity"`
}

// Export captures every registered identity.
func (r *Registry) Export() []IdentityRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]IdentityRecord, 0, len(r.idents))
	for agent, id := range r.idents {
		out = append(out, IdentityRecord{Agent: agent, Identity: id})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Agent.String() < out[j].Agent.String()
	})
	return out
}

// Restore replaces the identity map with a prior export.
func (r *Registry) Restore(records []IdentityRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idents = make(map[token.Address]Identity, len(records))
	for _, rec := range records {
		r.idents[rec.Agent] = rec.Identity
	}
}
