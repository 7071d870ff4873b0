package event

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// jsonlRecord is the line shape of a journal export.
type jsonlRecord struct {
	Seq        uint64    `json:"seq"`
	ID         string    `json:"id"`
	Type       Type      `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	Payload    any       `json:"payload"`
	Commitment string    `json:"commitment"`
}

// ExportJSONL writes journal records as JSON Lines, one record per
// line, for consumption by external indexers and notification
// services. The export starts at fromSeq; limit <= 0 exports
// everything from there.
func (j *Journal) ExportJSONL(w io.Writer, fromSeq uint64, limit int) (int, error) {
	recs, err := j.Read(fromSeq, limit)
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, rec := range recs {
		line := jsonlRecord{
			Seq:        rec.Seq,
			ID:         rec.Event.ID,
			Type:       rec.Event.Type,
			Timestamp:  rec.Event.Timestamp,
			Payload:    rec.Event.Payload,
			Commitment: rec.Commitment.String(),
		}
		if err := enc.Encode(line); err != nil {
			return 0, fmt.Errorf("event: encode jsonl line: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("event: flush jsonl: %w", err)
	}
	return len(recs), nil
}
