// Package tipledger implements immediate, irreversible peer-to-peer
// token tips with per-agent running totals.
//
// Tips are intentionally final: there is no refund path, mirroring
// cash-like semantics. The ledger never holds tip funds beyond the
// instant of a batch settlement; a single tip moves directly from
// sender to recipient.
package tipledger

import (
	"fmt"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/joshlevylabs/agent-commerce-protocol/event"
	"github.com/joshlevylabs/agent-commerce-protocol/protocol"
	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

// Stats are the per-agent running totals. All fields are
// monotonically non-decreasing; records are created lazily on the
// first tip involving an agent and never destroyed.
type Stats struct {
	TotalReceived *uint256.Int `cbor:"total_received" json:"total_received"`
	TotalSent     *uint256.Int `cbor:"total_sent" json:"total_sent"`
	ReceivedCount uint64       `cbor:"received_count" json:"received_count"`
}

func zeroStats() Stats {
	return Stats{
		TotalReceived: uint256.NewInt(0),
		TotalSent:     uint256.NewInt(0),
	}
}

func (s Stats) clone() Stats {
	return Stats{
		TotalReceived: s.TotalReceived.Clone(),
		TotalSent:     s.TotalSent.Clone(),
		ReceivedCount: s.ReceivedCount,
	}
}

// Ledger moves tips through the external token and tracks stats.
// Every mutating call is serialized by a single mutex; the fallible
// token movement always happens before any in-memory update, so a
// failed operation leaves no trace.
type Ledger struct {
	mu      sync.Mutex
	token   token.Token
	custody token.Address
	stats   map[token.Address]Stats
	sink    event.Sink

	// Now supplies operation timestamps. Tests override it.
	Now func() time.Time
}

// New creates a ledger. custody is the ledger's own token account:
// senders grant it allowance, and batch tips stage through it. sink
// receives one event per successful operation; nil discards events.
func New(tok token.Token, custody token.Address, sink event.Sink) *Ledger {
	if sink == nil {
		sink = event.Discard
	}
	return &Ledger{
		token:   tok,
		custody: custody,
		stats:   make(map[token.Address]Stats),
		sink:    sink,
		Now:     time.Now,
	}
}

// CustodyAddress returns the account senders must approve before
// tipping.
func (l *Ledger) CustodyAddress() token.Address {
	return l.custody
}

// Tip moves amount from sender to recipient and records it.
//
// The token movement is a single pull-with-authorization from the
// sender's balance straight to the recipient; insufficient balance or
// allowance aborts the whole operation with ErrCustodyTransfer.
func (l *Ledger) Tip(sender, recipient token.Address, amount *uint256.Int, postRef, message string) error {
	if sender.IsZero() || recipient.IsZero() {
		return fmt.Errorf("%w: zero address", protocol.ErrInvalidArgument)
	}
	if recipient == sender {
		return fmt.Errorf("%w: cannot tip yourself", protocol.ErrInvalidArgument)
	}
	if amount == nil || amount.IsZero() {
		return fmt.Errorf("%w: amount must be positive", protocol.ErrInvalidArgument)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.token.TransferFrom(l.custody, sender, recipient, amount) {
		return fmt.Errorf("%w: tip of %s from %s", protocol.ErrCustodyTransfer, amount, sender)
	}

	l.creditRecipient(recipient, amount)
	l.debitSender(sender, amount)

	l.sink.Emit(event.New(event.TypeTipSent, l.Now(), &event.TipSent{
		Sender:    sender,
		Recipient: recipient,
		Amount:    amount.Clone(),
		PostRef:   postRef,
		Message:   message,
	}))
	return nil
}

// BatchTip tips each recipient its matching amount from sender,
// all-or-nothing, and emits a single event for the whole batch.
//
// Settlement is staged: the summed total is pulled into the ledger's
// custody account with one authorized transfer, then pushed to each
// recipient. The pull is the only step that can fail against a
// standard token; if a push fails anyway, every undistributed unit is
// returned to the sender before the error is surfaced.
func (l *Ledger) BatchTip(sender token.Address, recipients []token.Address, amounts []*uint256.Int) error {
	if sender.IsZero() {
		return fmt.Errorf("%w: zero sender", protocol.ErrInvalidArgument)
	}
	if len(recipients) == 0 {
		return fmt.Errorf("%w: empty batch", protocol.ErrInvalidArgument)
	}
	if len(recipients) != len(amounts) {
		return fmt.Errorf("%w: %d recipients but %d amounts",
			protocol.ErrInvalidArgument, len(recipients), len(amounts))
	}
	if len(recipients) > protocol.MaxBatchTip {
		return fmt.Errorf("%w: batch of %d exceeds limit of %d",
			protocol.ErrInvalidArgument, len(recipients), protocol.MaxBatchTip)
	}

	total := uint256.NewInt(0)
	for i, r := range recipients {
		if r.IsZero() {
			return fmt.Errorf("%w: zero recipient at index %d", protocol.ErrInvalidArgument, i)
		}
		if r == sender {
			return fmt.Errorf("%w: cannot tip yourself (index %d)", protocol.ErrInvalidArgument, i)
		}
		if amounts[i] == nil || amounts[i].IsZero() {
			return fmt.Errorf("%w: amount must be positive (index %d)", protocol.ErrInvalidArgument, i)
		}
		var overflow bool
		if total, overflow = total.AddOverflow(total, amounts[i]); overflow {
			return fmt.Errorf("%w: batch total overflows at index %d", protocol.ErrInvalidArgument, i)
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.token.TransferFrom(l.custody, sender, l.custody, total) {
		return fmt.Errorf("%w: batch total %s from %s", protocol.ErrCustodyTransfer, total, sender)
	}

	remaining := total.Clone()
	for i, r := range recipients {
		if !l.token.Transfer(l.custody, r, amounts[i]) {
			l.token.Transfer(l.custody, sender, remaining)
			return fmt.Errorf("%w: batch settlement to %s", protocol.ErrCustodyTransfer, r)
		}
		remaining.Sub(remaining, amounts[i])
	}

	for i, r := range recipients {
		l.creditRecipient(r, amounts[i])
	}
	l.debitSender(sender, total)

	rcpts := make([]token.Address, len(recipients))
	copy(rcpts, recipients)
	amts := make([]*uint256.Int, len(amounts))
	for i, a := range amounts {
		amts[i] = a.Clone()
	}
	l.sink.Emit(event.New(event.TypeBatchTipSent, l.Now(), &event.BatchTipSent{
		Sender:     sender,
		Recipients: rcpts,
		Amounts:    amts,
		Total:      total,
	}))
	return nil
}

// AgentStats returns a copy of the agent's running totals. Unknown
// agents read as all-zero. Never fails.
func (l *Ledger) AgentStats(agent token.Address) Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	if s, ok := l.stats[agent]; ok {
		return s.clone()
	}
	return zeroStats()
}

// creditRecipient bumps received totals. Caller holds the lock.
func (l *Ledger) creditRecipient(agent token.Address, amount *uint256.Int) {
	s, ok := l.stats[agent]
	if !ok {
		s = zeroStats()
	}
	s.TotalReceived.Add(s.TotalReceived, amount)
	s.ReceivedCount++
	l.stats[agent] = s
}

// debitSender bumps sent totals. Caller holds the lock.
func (l *Ledger) debitSender(agent token.Address, amount *uint256.Int) {
	s, ok := l.stats[agent]
	if !ok {
		s = zeroStats()
	}
	s.TotalSent.Add(s.TotalSent, amount)
	l.stats[agent] = s
}
