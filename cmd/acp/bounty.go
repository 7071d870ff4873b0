package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joshlevylabs/agent-commerce-protocol/escrow"
	"github.com/joshlevylabs/agent-commerce-protocol/proof"
	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

func bountyCmd(args []string) error {
	if len(args) == 0 {
		printBountyUsage()
		return fmt.Errorf("bounty requires a subcommand")
	}
	switch args[0] {
	case "create":
		return bountyCreateCmd(args[1:])
	case "list":
		return bountyListCmd(args[1:])
	case "view":
		return bountyViewCmd(args[1:])
	case "award":
		return bountyAwardCmd(args[1:])
	case "cancel":
		return bountyCancelCmd(args[1:])
	case "reclaim":
		return bountyReclaimCmd(args[1:])
	default:
		printBountyUsage()
		return fmt.Errorf("unknown bounty subcommand: %s", args[0])
	}
}

func printBountyUsage() {
	fmt.Fprintf(os.Stderr, `Usage: acp bounty <subcommand> [options]

Subcommands:
  create   Post a new bounty with escrowed funds
  list     List open bounties
  view     Show one bounty in full
  award    Release an escrowed bounty to a claimer
  cancel   Cancel an open bounty and refund the poster
  reclaim  Refund an expired bounty back to its poster
`)
}

func bountyCreateCmd(args []string) error {
	fs := flag.NewFlagSet("bounty create", flag.ExitOnError)
	fromFlag := fs.String("from", "", "Poster address (default: configured default_agent)")
	amountFlag := fs.String("amount", "", "Amount to escrow")
	deadlineFlag := fs.String("deadline", "", "RFC 3339 deadline, empty for none")
	descFlag := fs.String("description", "", "What the bounty is for")
	refFlag := fs.String("ref", "", "External reference (task or issue id)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		poster, err := w.resolveAgent(*fromFlag)
		if err != nil {
			return err
		}
		amount, err := parseAmount(*amountFlag)
		if err != nil {
			return err
		}
		var deadline time.Time
		if *deadlineFlag != "" {
			deadline, err = time.Parse(time.RFC3339, *deadlineFlag)
			if err != nil {
				return fmt.Errorf("parsing deadline: %w", err)
			}
		}

		w.ensureAllowance(poster, escrowCustody, amount)
		id, err := w.bounties.CreateBounty(poster, amount, deadline, *descFlag, *refFlag)
		if err != nil {
			return err
		}
		fmt.Printf("Created bounty %d (%s escrowed)\n", id, amount.Dec())
		return nil
	})
}

func bountyListCmd(args []string) error {
	fs := flag.NewFlagSet("bounty list", flag.ExitOnError)
	offsetFlag := fs.Int("offset", 0, "Number of open bounties to skip")
	limitFlag := fs.Int("limit", 20, "Maximum bounties to show (0 for all)")
	posterFlag := fs.String("poster", "", "Show bounties posted by this address instead")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		if *posterFlag != "" {
			poster, err := token.ParseAddress(*posterFlag)
			if err != nil {
				return err
			}
			for _, id := range w.bounties.PosterBounties(poster) {
				b, err := w.bounties.Bounty(id)
				if err != nil {
					continue
				}
				printBountyLine(b)
			}
			return nil
		}

		open := w.bounties.ActiveBounties(*offsetFlag, *limitFlag)
		if len(open) == 0 {
			fmt.Println("No open bounties")
			return nil
		}
		for _, b := range open {
			printBountyLine(b)
		}
		return nil
	})
}

func bountyViewCmd(args []string) error {
	fs := flag.NewFlagSet("bounty view", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: acp bounty view <id>")
	}
	id, err := strconv.ParseUint(fs.Arg(0), 10, 64)
	if err != nil {
		return fmt.Errorf("parsing bounty id: %w", err)
	}

	return withWorld(func(w *world) error {
		b, err := w.bounties.Bounty(id)
		if err != nil {
			return err
		}
		fmt.Printf("Bounty:      %d\n", b.ID)
		fmt.Printf("Status:      %s\n", b.Status)
		fmt.Printf("Poster:      %s\n", b.Poster)
		fmt.Printf("Amount:      %s\n", b.Amount.Dec())
		if b.HasDeadline() {
			fmt.Printf("Deadline:    %s\n", b.Deadline.Format(time.RFC3339))
		} else {
			fmt.Printf("Deadline:    none\n")
		}
		if b.Description != "" {
			fmt.Printf("Description: %s\n", b.Description)
		}
		if b.ExternalRef != "" {
			fmt.Printf("Reference:   %s\n", b.ExternalRef)
		}
		if !b.ClaimedBy.IsZero() {
			fmt.Printf("Claimed by:  %s at %s\n", b.ClaimedBy, b.ClaimedAt.Format(time.RFC3339))
		}
		return nil
	})
}

func bountyAwardCmd(args []string) error {
	fs := flag.NewFlagSet("bounty award", flag.ExitOnError)
	fromFlag := fs.String("from", "", "Poster address (default: configured default_agent)")
	idFlag := fs.Uint64("id", 0, "Bounty id")
	claimerFlag := fs.String("claimer", "", "Address the bounty is released to")
	proofFlag := fs.String("proof", "", "Proof-of-work reference recorded with the claim")
	zkFlag := fs.Bool("zk", false, "Prove and verify knowledge of the proof text before awarding")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		poster, err := w.resolveAgent(*fromFlag)
		if err != nil {
			return err
		}
		claimer, err := token.ParseAddress(*claimerFlag)
		if err != nil {
			return err
		}

		proofRef := *proofFlag
		if *zkFlag {
			if proofRef == "" {
				return fmt.Errorf("--zk requires --proof")
			}
			sys, err := proof.Setup()
			if err != nil {
				return err
			}
			prf, commitment, err := sys.Prove(proofRef)
			if err != nil {
				return err
			}
			if err := sys.Verify(prf, commitment); err != nil {
				return err
			}
			// Record the commitment, not the raw proof text.
			proofRef = commitment.String()
			fmt.Printf("Proof verified, commitment %s\n", proofRef)
		}

		if err := w.bounties.ApproveClaim(poster, *idFlag, claimer, proofRef); err != nil {
			return err
		}
		b, err := w.bounties.Bounty(*idFlag)
		if err != nil {
			return err
		}
		if b.Status == escrow.StatusExpired {
			fmt.Printf("Bounty %d had expired; funds returned to poster\n", *idFlag)
			return nil
		}
		fmt.Printf("Awarded bounty %d to %s\n", *idFlag, claimer)
		return nil
	})
}

func bountyCancelCmd(args []string) error {
	fs := flag.NewFlagSet("bounty cancel", flag.ExitOnError)
	fromFlag := fs.String("from", "", "Poster address (default: configured default_agent)")
	idFlag := fs.Uint64("id", 0, "Bounty id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		poster, err := w.resolveAgent(*fromFlag)
		if err != nil {
			return err
		}
		if err := w.bounties.CancelBounty(poster, *idFlag); err != nil {
			return err
		}
		fmt.Printf("Cancelled bounty %d\n", *idFlag)
		return nil
	})
}

func bountyReclaimCmd(args []string) error {
	fs := flag.NewFlagSet("bounty reclaim", flag.ExitOnError)
	fromFlag := fs.String("from", "", "Caller address (default: configured default_agent)")
	idFlag := fs.Uint64("id", 0, "Bounty id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		caller, err := w.resolveAgent(*fromFlag)
		if err != nil {
			return err
		}
		if err := w.bounties.ClaimExpired(caller, *idFlag); err != nil {
			return err
		}
		fmt.Printf("Reclaimed bounty %d for its poster\n", *idFlag)
		return nil
	})
}

func printBountyLine(b escrow.Bounty) {
	deadline := "open-ended"
	if b.HasDeadline() {
		deadline = "until " + b.Deadline.Format(time.RFC3339)
	}
	fmt.Printf("#%-6d %-9s %12s  %s  %s\n", b.ID, b.Status, b.Amount.Dec(), deadline, b.Description)
}
