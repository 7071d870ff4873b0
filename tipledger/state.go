package tipledger

import (
	"sort"

	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

// AgentRecord is one row of a ledger export.
type AgentRecord struct {
	Agent token.Address `cbor:"agent" json:"agent"`
	Stats Stats         `cbor:"stats" json:"stats"`
}

// Export captures all per-agent stats, sorted by agent address.
func (l *Ledger) Export() []AgentRecord {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]AgentRecord, 0, len(l.stats))
	for agent, s := range l.stats {
		out = append(out, AgentRecord{Agent: agent, Stats: s.clone()})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Agent.String() < out[j].Agent.String()
	})
	return out
}

// Restore replaces the ledger's stats with a prior export.
func (l *Ledger) Restore(records []AgentRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stats = make(map[token.Address]Stats, len(records))
	for _, rec := range records {
		l.stats[rec.Agent] = rec.Stats.clone()
	}
}
