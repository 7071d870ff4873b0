package escrow

import (
	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

// Bounty returns a copy of the record for id, including historical
// (terminal) bounties.
func (e *Escrow) Bounty(id uint64) (Bounty, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, err := e.lookup(id)
	if err != nil {
		return Bounty{}, err
	}
	return b.clone(), nil
}

// PosterBounties returns every bounty id the agent has posted, in
// creation order.
func (e *Escrow) PosterBounties(agent token.Address) []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := e.byPoster[agent]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

// ClaimerBounties returns every bounty id the agent has successfully
// claimed, in claim order.
func (e *Escrow) ClaimerBounties(agent token.Address) []uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := e.byClaimer[agent]
	out := make([]uint64, len(ids))
	copy(out, ids)
	return out
}

// ActiveBounties returns a page of bounties that are Active and not
// past their deadline, ascending by id. Expiry is evaluated at read
// time even though the stored status only changes on the next
// mutating call. offset skips that many matching bounties; limit <= 0
// means no limit. An offset at or past the end yields an empty page.
//
// The walk is over the incrementally maintained active index, not
// the full history, so a page costs O(active), not O(ever created).
func (e *Escrow) ActiveBounties(offset, limit int) []Bounty {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.Now()
	var out []Bounty
	skipped := 0
	for _, id := range e.activeIDs {
		b := e.bounties[id-1]
		if b.expiredAt(now) {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		out = append(out, b.clone())
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// ActiveCount returns how many bounties are Active and unexpired
// right now.
func (e *Escrow) ActiveCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.Now()
	n := 0
	for _, id := range e.activeIDs {
		if !e.bounties[id-1].expiredAt(now) {
			n++
		}
	}
	return n
}

// AgentStats returns a copy of the agent's bounty totals. Unknown
// agents read as all-zero. Never fails.
func (e *Escrow) AgentStats(agent token.Address) Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s, ok := e.stats[agent]; ok {
		return s.clone()
	}
	return zeroStats()
}
