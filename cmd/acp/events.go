package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joshlevylabs/agent-commerce-protocol/event"
)

func eventsCmd(args []string) error {
	fs := flag.NewFlagSet("events", flag.ExitOnError)
	fromFlag := fs.Uint64("from", 1, "First sequence number to show")
	limitFlag := fs.Int("limit", 50, "Maximum events to show (0 for all)")
	typeFlag := fs.String("type", "", "Only show events of this type")
	jsonFlag := fs.Bool("json", false, "Print events as JSON Lines")
	verifyFlag := fs.Bool("verify", false, "Verify the journal's commitment chain and exit")
	exportFlag := fs.String("export", "", "Export events as JSON Lines to this file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: acp events [options]

Inspect the append-only event journal.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  acp events --type TipSent --limit 10
  acp events --verify
  acp events --export events.jsonl
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		if *verifyFlag {
			if err := w.journal.Verify(); err != nil {
				return err
			}
			count, head, err := w.journal.Head()
			if err != nil {
				return err
			}
			fmt.Printf("Journal intact: %d events, head %x\n", count, head[:8])
			return nil
		}

		if *exportFlag != "" {
			f, err := os.Create(*exportFlag)
			if err != nil {
				return err
			}
			n, err := w.journal.ExportJSONL(f, *fromFlag, *limitFlag)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d events to %s\n", n, *exportFlag)
			return nil
		}

		records, err := w.journal.Read(*fromFlag, *limitFlag)
		if err != nil {
			return err
		}
		for _, rec := range records {
			if *typeFlag != "" && rec.Event.Type != event.Type(*typeFlag) {
				continue
			}
			if *jsonFlag {
				line, err := json.Marshal(map[string]any{
					"seq":     rec.Seq,
					"id":      rec.Event.ID,
					"type":    rec.Event.Type,
					"ts":      rec.Event.Timestamp.Format(time.RFC3339Nano),
					"payload": rec.Event.Payload,
				})
				if err != nil {
					return err
				}
				fmt.Println(string(line))
				continue
			}
			fmt.Printf("%-6d %-20s %s  %s\n",
				rec.Seq, rec.Event.Type,
				rec.Event.Timestamp.Format(time.RFC3339),
				summarizePayload(rec.Event.Payload))
		}
		return nil
	})
}

func summarizePayload(payload any) string {
	switch p := payload.(type) {
	case *event.TipSent:
		return fmt.Sprintf("%s -> %s %s", p.Sender, p.Recipient, p.Amount.Dec())
	case *event.BatchTipSent:
		return fmt.Sprintf("%s -> %d recipients %s", p.Sender, len(p.Recipients), p.Total.Dec())
	case *event.BountyCreated:
		return fmt.Sprintf("bounty %d by %s for %s", p.BountyID, p.Poster, p.Amount.Dec())
	case *event.BountyClaimed:
		return fmt.Sprintf("bounty %d to %s", p.BountyID, p.Claimer)
	case *event.BountyCancelled:
		return fmt.Sprintf("bounty %d refunded", p.BountyID)
	case *event.BountyExpired:
		return fmt.Sprintf("bounty %d expired", p.BountyID)
	case *event.AgentRegistered:
		return fmt.Sprintf("%s as %q", p.Agent, p.Name)
	default:
		return fmt.Sprintf("%v", payload)
	}
}
