// Package event carries the durable record of every ledger mutation.
//
// Tips, bounty transitions and registrations each emit one event; the
// event stream is the only durable channel for free-form text (tip
// messages, claim proofs) beyond the bounty record itself. Sinks
// range from an in-memory buffer for tests to a tamper-evident
// SQLite journal for external indexers.
package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

// Type names an event kind.
type Type string

const (
	TypeTipSent         Type = "TipSent"
	TypeBatchTipSent    Type = "BatchTipSent"
	TypeBountyCreated   Type = "BountyCreated"
	TypeBountyClaimed   Type = "BountyClaimed"
	TypeBountyCancelled Type = "BountyCancelled"
	TypeBountyExpired   Type = "BountyExpired"
	TypeAgentRegistered Type = "AgentRegistered"
)

// Event is a single emitted record. Payload is one of the typed
// payload structs below.
type Event struct {
	ID        string    `cbor:"id" json:"id"`
	Type      Type      `cbor:"type" json:"type"`
	Timestamp time.Time `cbor:"timestamp" json:"timestamp"`
	Payload   any       `cbor:"payload" json:"payload"`
}

// New creates an event with a fresh unique id.
func New(typ Type, ts time.Time, payload any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      typ,
		Timestamp: ts,
		Payload:   payload,
	}
}

// Sink consumes emitted events. Emission is fire-and-forget from the
// core's point of view: the stream feeds external indexers and is not
// part of the ledger's own consistency envelope.
type Sink interface {
	Emit(e Event)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(Event)

// Emit calls f(e).
func (f SinkFunc) Emit(e Event) { f(e) }

// Discard drops every event.
var Discard Sink = SinkFunc(func(Event) {})

// Fanout emits each event to every sink in order.
func Fanout(sinks ...Sink) Sink {
	return SinkFunc(func(e Event) {
		for _, s := range sinks {
			s.Emit(e)
		}
	})
}

// TipSent is the payload of a single tip.
type TipSent struct {
	Sender    token.Address `cbor:"sender" json:"sender"`
	Recipient token.Address `cbor:"recipient" json:"recipient"`
	Amount    *uint256.Int  `cbor:"amount" json:"amount"`
	PostRef   string        `cbor:"post_ref,omitempty" json:"post_ref,omitempty"`
	Message   string        `cbor:"message,omitempty" json:"message,omitempty"`
}

// BatchTipSent is the payload of a batch tip; one event covers the
// whole batch.
type BatchTipSent struct {
	Sender     token.Address   `cbor:"sender" json:"sender"`
	Recipients []token.Address `cbor:"recipients" json:"recipients"`
	Amounts    []*uint256.Int  `cbor:"amounts" json:"amounts"`
	Total      *uint256.Int    `cbor:"total" json:"total"`
}

// BountyCreated is emitted when funds enter escrow custody.
type BountyCreated struct {
	BountyID    uint64        `cbor:"bounty_id" json:"bounty_id"`
	Poster      token.Address `cbor:"poster" json:"poster"`
	Amount      *uint256.Int  `cbor:"amount" json:"amount"`
	Deadline    time.Time     `cbor:"deadline,omitempty" json:"deadline,omitempty"`
	Description string        `cbor:"description" json:"description"`
	PostRef     string        `cbor:"post_ref,omitempty" json:"post_ref,omitempty"`
}

// BountyClaimed is emitted when the poster releases funds to a
// claimer. ProofRef is the claimer's free-form proof reference.
type BountyClaimed struct {
	BountyID uint64        `cbor:"bounty_id" json:"bounty_id"`
	Poster   token.Address `cbor:"poster" json:"poster"`
	Claimer  token.Address `cbor:"claimer" json:"claimer"`
	Amount   *uint256.Int  `cbor:"amount" json:"amount"`
	ProofRef string        `cbor:"proof_ref,omitempty" json:"proof_ref,omitempty"`
}

// BountyCancelled is emitted when the poster withdraws an active
// bounty and is refunded.
type BountyCancelled struct {
	BountyID uint64        `cbor:"bounty_id" json:"bounty_id"`
	Poster   token.Address `cbor:"poster" json:"poster"`
	Amount   *uint256.Int  `cbor:"amount" json:"amount"`
}

// BountyExpired is emitted when a past-deadline bounty is resolved
// and refunded, whether through claimExpired or the lazy check inside
// approveClaim.
type BountyExpired struct {
	BountyID uint64        `cbor:"bounty_id" json:"bounty_id"`
	Poster   token.Address `cbor:"poster" json:"poster"`
	Amount   *uint256.Int  `cbor:"amount" json:"amount"`
}

// AgentRegistered is emitted on every registration, including
// overwrites.
type AgentRegistered struct {
	Agent   token.Address `cbor:"agent" json:"agent"`
	Name    string        `cbor:"name" json:"name"`
	Profile string        `cbor:"profile,omitempty" json:"profile,omitempty"`
}
