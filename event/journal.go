package event

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrChainMismatch means a journal record's stored commitment does
// not match the recomputed chain, i.e. the journal was altered.
var ErrChainMismatch = errors.New("event: commitment chain mismatch")

// Record is one persisted journal row.
type Record struct {
	Seq        uint64
	Event      Event
	Commitment Commitment
}

// Journal is an append-only SQLite event store with a MiMC
// commitment chain over its payloads. It implements Sink; Emit
// failures are logged and dropped because the stream feeds external
// indexers, not the ledger's own state.
type Journal struct {
	mu    sync.Mutex
	db    *sql.DB
	chain *Chain
	log   *slog.Logger
}

// OpenJournal opens or creates a journal at path (":memory:" for an
// ephemeral one) and resumes the commitment chain from the last
// persisted record.
func OpenJournal(path string, log *slog.Logger) (*Journal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("event: open journal: %w", err)
	}
	if _, err := db.Exec(journalSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("event: migrate journal: %w", err)
	}
	if log == nil {
		log = slog.Default()
	}

	j := &Journal{db: db, chain: NewChain(), log: log}
	if err := j.resume(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

const journalSchema = `
CREATE TABLE IF NOT EXISTS events (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT    NOT NULL,
	type       TEXT    NOT NULL,
	ts         INTEGER NOT NULL,
	payload    BLOB    NOT NULL,
	commitment BLOB    NOT NULL
);
CREATE INDEX IF NOT EXISTS events_type ON events(type);
`

func (j *Journal) resume() error {
	var head []byte
	err := j.db.QueryRow(`SELECT commitment FROM events ORDER BY seq DESC LIMIT 1`).Scan(&head)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return nil
	case err != nil:
		return fmt.Errorf("event: read journal head: %w", err)
	}
	if len(head) != CommitmentSize {
		return fmt.Errorf("event: journal head has %d bytes, want %d", len(head), CommitmentSize)
	}
	var c Commitment
	copy(c[:], head)
	j.chain = ResumeChain(c)
	return nil
}

// Append persists e and extends the commitment chain. Returns the
// assigned sequence number.
func (j *Journal) Append(e Event) (uint64, error) {
	payload, err := Marshal(e.Payload)
	if err != nil {
		return 0, fmt.Errorf("event: encode payload: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	head, err := j.chain.Extend(payload)
	if err != nil {
		return 0, fmt.Errorf("event: extend chain: %w", err)
	}

	res, err := j.db.Exec(
		`INSERT INTO events (id, type, ts, payload, commitment) VALUES (?, ?, ?, ?, ?)`,
		e.ID, string(e.Type), e.Timestamp.UnixNano(), payload, head[:],
	)
	if err != nil {
		return 0, fmt.Errorf("event: append: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("event: append: %w", err)
	}
	return uint64(seq), nil
}

// Emit implements Sink. Append failures are logged, not surfaced.
func (j *Journal) Emit(e Event) {
	if _, err := j.Append(e); err != nil {
		j.log.Warn("journal append failed", "type", e.Type, "id", e.ID, "error", err)
	}
}

// Read returns up to limit records with seq >= fromSeq in sequence
// order. limit <= 0 means no limit. Payloads are decoded into the
// typed payload struct for the record's event type.
func (j *Journal) Read(fromSeq uint64, limit int) ([]Record, error) {
	q := `SELECT seq, id, type, ts, payload, commitment FROM events WHERE seq >= ? ORDER BY seq`
	args := []any{fromSeq}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("event: read: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec     Record
			id, typ string
			ts      int64
			payload []byte
			head    []byte
		)
		if err := rows.Scan(&rec.Seq, &id, &typ, &ts, &payload, &head); err != nil {
			return nil, fmt.Errorf("event: scan: %w", err)
		}
		decoded, err := decodePayload(Type(typ), payload)
		if err != nil {
			return nil, err
		}
		rec.Event = Event{
			ID:        id,
			Type:      Type(typ),
			Timestamp: time.Unix(0, ts).UTC(),
			Payload:   decoded,
		}
		copy(rec.Commitment[:], head)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Head returns the number of records and the current chain
// commitment.
func (j *Journal) Head() (uint64, Commitment, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var count uint64
	if err := j.db.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&count); err != nil {
		return 0, Commitment{}, fmt.Errorf("event: head: %w", err)
	}
	return count, j.chain.Head(), nil
}

// Verify recomputes the commitment chain over every record and
// compares it with the stored commitments. Returns ErrChainMismatch
// on the first divergence.
func (j *Journal) Verify() error {
	rows, err := j.db.Query(`SELECT seq, payload, commitment FROM events ORDER BY seq`)
	if err != nil {
		return fmt.Errorf("event: verify: %w", err)
	}
	defer rows.Close()

	chain := NewChain()
	for rows.Next() {
		var (
			seq     uint64
			payload []byte
			stored  []byte
		)
		if err := rows.Scan(&seq, &payload, &stored); err != nil {
			return fmt.Errorf("event: verify scan: %w", err)
		}
		head, err := chain.Extend(payload)
		if err != nil {
			return fmt.Errorf("event: verify extend: %w", err)
		}
		if len(stored) != CommitmentSize || Commitment(stored) != head {
			return fmt.Errorf("%w at seq %d", ErrChainMismatch, seq)
		}
	}
	return rows.Err()
}

// Close releases the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// decodePayload decodes CBOR payload bytes into the typed struct for
// typ. Unknown types decode into a generic map.
func decodePayload(typ Type, data []byte) (any, error) {
	var target any
	switch typ {
	case TypeTipSent:
		target = &TipSent{}
	case TypeBatchTipSent:
		target = &BatchTipSent{}
	case TypeBountyCreated:
		target = &BountyCreated{}
	case TypeBountyClaimed:
		target = &BountyClaimed{}
	case TypeBountyCancelled:
		target = &BountyCancelled{}
	case TypeBountyExpired:
		target = &BountyExpired{}
	case TypeAgentRegistered:
		target = &AgentRegistered{}
	default:
		m := map[string]any{}
		if err := Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("event: decode %s payload: %w", typ, err)
		}
		return m, nil
	}
	if err := Unmarshal(data, target); err != nil {
		return nil, fmt.Errorf("event: decode %s payload: %w", typ, err)
	}
	return target, nil
}
