package escrow

import (
	"sort"

	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

// AgentRecord is one stats row of an escrow export.
type AgentRecord struct {
	Agent token.Address `cbor:"agent" json:"agent"`
	Stats Stats         `cbor:"stats" json:"stats"`
}

// ClaimRecord preserves one agent's claim history. Claim order is
// call order, which cannot be rebuilt from the bounty records alone
// when claim timestamps collide.
type ClaimRecord struct {
	Agent token.Address `cbor:"agent" json:"agent"`
	IDs   []uint64      `cbor:"ids" json:"ids"`
}

// State is a full serializable capture of an escrow.
type State struct {
	Bounties []Bounty      `cbor:"bounties" json:"bounties"`
	Stats    []AgentRecord `cbor:"stats" json:"stats"`
	Claims   []ClaimRecord `cbor:"claims" json:"claims"`
}

// Export captures the escrow deterministically.
func (e *Escrow) Export() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := State{Bounties: make([]Bounty, 0, len(e.bounties))}
	for _, b := range e.bounties {
		st.Bounties = append(st.Bounties, b.clone())
	}
	for agent, s := range e.stats {
		st.Stats = append(st.Stats, AgentRecord{Agent: agent, Stats: s.clone()})
	}
	sort.Slice(st.Stats, func(i, j int) bool {
		return st.Stats[i].Agent.String() < st.Stats[j].Agent.String()
	})
	for agent, ids := range e.byClaimer {
		rec := ClaimRecord{Agent: agent, IDs: make([]uint64, len(ids))}
		copy(rec.IDs, ids)
		st.Claims = append(st.Claims, rec)
	}
	sort.Slice(st.Claims, func(i, j int) bool {
		return st.Claims[i].Agent.String() < st.Claims[j].Agent.String()
	})
	return st
}

// Restore replaces the escrow's contents with a prior export,
// rebuilding the poster and active indexes from the bounty records.
func (e *Escrow) Restore(st State) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.bounties = make([]*Bounty, 0, len(st.Bounties))
	e.activeIDs = nil
	e.byPoster = make(map[token.Address][]uint64)
	e.byClaimer = make(map[token.Address][]uint64)
	e.stats = make(map[token.Address]Stats, len(st.Stats))

	for i := range st.Bounties {
		b := st.Bounties[i].clone()
		e.bounties = append(e.bounties, &b)
		e.byPoster[b.Poster] = append(e.byPoster[b.Poster], b.ID)
		if b.Status == StatusActive {
			e.activeIDs = append(e.activeIDs, b.ID)
		}
	}
	for _, rec := range st.Stats {
		e.stats[rec.Agent] = rec.Stats.clone()
	}
	for _, rec := range st.Claims {
		ids := make([]uint64, len(rec.IDs))
		copy(ids, rec.IDs)
		e.byClaimer[rec.Agent] = ids
	}
}
