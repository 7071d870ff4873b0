// Package escrow holds bounty funds in custody from creation until
// claim, cancellation or expiry.
//
// Each bounty is a small state machine: Active is the initial state,
// Claimed, Expired and Cancelled are terminal, and exactly one
// outbound transition ever fires. The central custody invariant is
// that the escrow's own token balance always equals the sum of
// amounts over bounties currently Active.
package escrow

import (
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/joshlevylabs/agent-commerce-protocol/event"
	"github.com/joshlevylabs/agent-commerce-protocol/protocol"
	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

// Status is a bounty's lifecycle state.
type Status uint8

const (
	StatusActive Status = iota + 1
	StatusClaimed
	StatusExpired
	StatusCancelled
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusClaimed:
		return "claimed"
	case StatusExpired:
		return "expired"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// Bounty is one escrow record. Ids start at 1 and are never reused;
// records are never deleted, so historical bounties stay queryable.
type Bounty struct {
	ID          uint64        `cbor:"id" json:"id"`
	Poster      token.Address `cbor:"poster" json:"poster"`
	Amount      *uint256.Int  `cbor:"amount" json:"amount"`
	Deadline    time.Time     `cbor:"deadline,omitempty" json:"deadline,omitempty"`
	Description string        `cbor:"description" json:"description"`
	ExternalRef string        `cbor:"external_ref,omitempty" json:"external_ref,omitempty"`
	Status      Status        `cbor:"status" json:"status"`
	ClaimedBy   token.Address `cbor:"claimed_by,omitempty" json:"claimed_by,omitempty"`
	CreatedAt   time.Time     `cbor:"created_at" json:"created_at"`
	ClaimedAt   time.Time     `cbor:"claimed_at,omitempty" json:"claimed_at,omitempty"`
}

// HasDeadline reports whether the bounty has a deadline at all; the
// zero time means "no deadline".
func (b *Bounty) HasDeadline() bool {
	return !b.Deadline.IsZero()
}

// expiredAt reports whether the deadline is set and has passed.
func (b *Bounty) expiredAt(now time.Time) bool {
	return b.HasDeadline() && now.After(b.Deadline)
}

func (b *Bounty) clone() Bounty {
	c := *b
	c.Amount = b.Amount.Clone()
	return c
}

// Stats are the per-agent bounty totals. AmountPosted counts every
// amount ever locked by the agent as poster, including bounties later
// cancelled or expired; AmountEarned counts only successful claims.
type Stats struct {
	PostedCount  uint64       `cbor:"posted_count" json:"posted_count"`
	ClaimedCount uint64       `cbor:"claimed_count" json:"claimed_count"`
	AmountPosted *uint256.Int `cbor:"amount_posted" json:"amount_posted"`
	AmountEarned *uint256.Int `cbor:"amount_earned" json:"amount_earned"`
}

func zeroStats() Stats {
	return Stats{
		AmountPosted: uint256.NewInt(0),
		AmountEarned: uint256.NewInt(0),
	}
}

func (s Stats) clone() Stats {
	return Stats{
		PostedCount:  s.PostedCount,
		ClaimedCount: s.ClaimedCount,
		AmountPosted: s.AmountPosted.Clone(),
		AmountEarned: s.AmountEarned.Clone(),
	}
}

// Escrow is the bounty custodian. All mutating calls are serialized
// by a single mutex, and the fallible token movement in each
// operation happens before any in-memory update, so failures leave
// no partial state.
type Escrow struct {
	mu      sync.Mutex
	token   token.Token
	custody token.Address
	sink    event.Sink

	bounties  []*Bounty // bounty id n lives at index n-1
	activeIDs []uint64  // ascending; trimmed on every transition
	byPoster  map[token.Address][]uint64
	byClaimer map[token.Address][]uint64
	stats     map[token.Address]Stats

	// Now supplies the caller-observed current time for deadline
	// checks and timestamps. Tests override it.
	Now func() time.Time
}

// New creates an escrow. custody is the escrow's own token account;
// posters grant it allowance and it holds every Active bounty's
// funds. sink receives one event per transition; nil discards.
func New(tok token.Token, custody token.Address, sink event.Sink) *Escrow {
	if sink == nil {
		sink = event.Discard
	}
	return &Escrow{
		token:     tok,
		custody:   custody,
		sink:      sink,
		byPoster:  make(map[token.Address][]uint64),
		byClaimer: make(map[token.Address][]uint64),
		stats:     make(map[token.Address]Stats),
		Now:       time.Now,
	}
}

// CustodyAddress returns the account posters must approve before
// creating bounties.
func (e *Escrow) CustodyAddress() token.Address {
	return e.custody
}

// CreateBounty pulls amount from the poster into custody and opens a
// new Active bounty. A zero deadline means the bounty never expires;
// a non-zero deadline must be in the future. Returns the new id.
func (e *Escrow) CreateBounty(poster token.Address, amount *uint256.Int, deadline time.Time, description, externalRef string) (uint64, error) {
	if poster.IsZero() {
		return 0, fmt.Errorf("%w: zero poster", protocol.ErrInvalidArgument)
	}
	if amount == nil || amount.IsZero() {
		return 0, fmt.Errorf("%w: amount must be positive", protocol.ErrInvalidArgument)
	}
	if description == "" {
		return 0, fmt.Errorf("%w: empty description", protocol.ErrInvalidArgument)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.Now()
	if !deadline.IsZero() && !deadline.After(now) {
		return 0, fmt.Errorf("%w: deadline %s is not in the future", protocol.ErrInvalidArgument, deadline)
	}

	if !e.token.TransferFrom(e.custody, poster, e.custody, amount) {
		return 0, fmt.Errorf("%w: escrow of %s from %s", protocol.ErrCustodyTransfer, amount, poster)
	}

	b := &Bounty{
		ID:          uint64(len(e.bounties)) + 1,
		Poster:      poster,
		Amount:      amount.Clone(),
		Deadline:    deadline,
		Description: description,
		ExternalRef: externalRef,
		Status:      StatusActive,
		CreatedAt:   now,
	}
	e.bounties = append(e.bounties, b)
	e.activeIDs = append(e.activeIDs, b.ID)
	e.byPoster[poster] = append(e.byPoster[poster], b.ID)

	s, ok := e.stats[poster]
	if !ok {
		s = zeroStats()
	}
	s.PostedCount++
	s.AmountPosted.Add(s.AmountPosted, amount)
	e.stats[poster] = s

	e.sink.Emit(event.New(event.TypeBountyCreated, now, &event.BountyCreated{
		BountyID:    b.ID,
		Poster:      poster,
		Amount:      amount.Clone(),
		Deadline:    deadline,
		Description: description,
		PostRef:     externalRef,
	}))
	return b.ID, nil
}

// ApproveClaim releases the escrowed amount to claimer. Poster-only.
//
// If the bounty's deadline has already passed, the call instead
// resolves it as Expired and refunds the poster, emitting
// BountyExpired and returning nil: expiry is evaluated
// opportunistically on the next poster interaction rather than by a
// scheduled process, and callers must be prepared to observe
// BountyExpired where they expected BountyClaimed.
func (e *Escrow) ApproveClaim(caller token.Address, id uint64, claimer token.Address, proofRef string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.lookup(id)
	if err != nil {
		return err
	}
	if caller != b.Poster {
		return fmt.Errorf("%w: only the poster of bounty %d may approve a claim", protocol.ErrUnauthorized, id)
	}
	if b.Status != StatusActive {
		return fmt.Errorf("%w: bounty %d is %s", protocol.ErrInvalidState, id, b.Status)
	}
	if claimer.IsZero() {
		return fmt.Errorf("%w: zero claimer", protocol.ErrInvalidArgument)
	}
	if claimer == caller {
		return fmt.Errorf("%w: poster cannot claim own bounty", protocol.ErrUnauthorized)
	}

	now := e.Now()
	if b.expiredAt(now) {
		return e.expire(b, now)
	}

	if !e.token.Transfer(e.custody, claimer, b.Amount) {
		return fmt.Errorf("%w: payout of bounty %d to %s", protocol.ErrCustodyTransfer, id, claimer)
	}

	b.Status = StatusClaimed
	b.ClaimedBy = claimer
	b.ClaimedAt = now
	e.dropActive(b.ID)
	e.byClaimer[claimer] = append(e.byClaimer[claimer], b.ID)

	s, ok := e.stats[claimer]
	if !ok {
		s = zeroStats()
	}
	s.ClaimedCount++
	s.AmountEarned.Add(s.AmountEarned, b.Amount)
	e.stats[claimer] = s

	e.sink.Emit(event.New(event.TypeBountyClaimed, now, &event.BountyClaimed{
		BountyID: b.ID,
		Poster:   b.Poster,
		Claimer:  claimer,
		Amount:   b.Amount.Clone(),
		ProofRef: proofRef,
	}))
	return nil
}

// CancelBounty refunds an Active bounty to its poster. Available
// regardless of the deadline: an unenforced deadline does not take
// cancellation away from the poster.
func (e *Escrow) CancelBounty(caller token.Address, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.lookup(id)
	if err != nil {
		return err
	}
	if caller != b.Poster {
		return fmt.Errorf("%w: only the poster of bounty %d may cancel it", protocol.ErrUnauthorized, id)
	}
	if b.Status != StatusActive {
		return fmt.Errorf("%w: bounty %d is %s", protocol.ErrInvalidState, id, b.Status)
	}

	now := e.Now()
	if !e.token.Transfer(e.custody, b.Poster, b.Amount) {
		return fmt.Errorf("%w: refund of bounty %d", protocol.ErrCustodyTransfer, id)
	}

	b.Status = StatusCancelled
	e.dropActive(b.ID)

	e.sink.Emit(event.New(event.TypeBountyCancelled, now, &event.BountyCancelled{
		BountyID: b.ID,
		Poster:   b.Poster,
		Amount:   b.Amount.Clone(),
	}))
	return nil
}

// ClaimExpired resolves a past-deadline Active bounty as Expired and
// refunds the poster. The explicit path to reclaim funds without
// waiting for an ApproveClaim attempt.
func (e *Escrow) ClaimExpired(caller token.Address, id uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, err := e.lookup(id)
	if err != nil {
		return err
	}
	if caller != b.Poster {
		return fmt.Errorf("%w: only the poster of bounty %d may reclaim it", protocol.ErrUnauthorized, id)
	}
	if b.Status != StatusActive {
		return fmt.Errorf("%w: bounty %d is %s", protocol.ErrInvalidState, id, b.Status)
	}
	if !b.HasDeadline() {
		return fmt.Errorf("%w: bounty %d has no deadline", protocol.ErrPreconditionFailed, id)
	}
	now := e.Now()
	if !now.After(b.Deadline) {
		return fmt.Errorf("%w: bounty %d deadline has not passed", protocol.ErrPreconditionFailed, id)
	}

	return e.expire(b, now)
}

// expire refunds b to its poster and marks it Expired. Caller holds
// the lock and has verified b is Active.
func (e *Escrow) expire(b *Bounty, now time.Time) error {
	if !e.token.Transfer(e.custody, b.Poster, b.Amount) {
		return fmt.Errorf("%w: refund of expired bounty %d", protocol.ErrCustodyTransfer, b.ID)
	}

	b.Status = StatusExpired
	e.dropActive(b.ID)

	e.sink.Emit(event.New(event.TypeBountyExpired, now, &event.BountyExpired{
		BountyID: b.ID,
		Poster:   b.Poster,
		Amount:   b.Amount.Clone(),
	}))
	return nil
}

// lookup returns the bounty record for id. Caller holds the lock.
func (e *Escrow) lookup(id uint64) (*Bounty, error) {
	if id == 0 || id > uint64(len(e.bounties)) {
		return nil, fmt.Errorf("%w: bounty %d", protocol.ErrNotFound, id)
	}
	return e.bounties[id-1], nil
}

// dropActive removes id from the active index. Ids enter the index
// in ascending order, so a binary search finds the slot. Caller
// holds the lock.
func (e *Escrow) dropActive(id uint64) {
	lo, hi := 0, len(e.activeIDs)
	for lo < hi {
		mid := (lo + hi) / 2
		if e.activeIDs[mid] < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	if lo < len(e.activeIDs) && e.activeIDs[lo] == id {
		e.activeIDs = append(e.activeIDs[:lo], e.activeIDs[lo+1:]...)
	}
}
