package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/holiman/uint256"

	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

func tipCmd(args []string) error {
	fs := flag.NewFlagSet("tip", flag.ExitOnError)
	fromFlag := fs.String("from", "", "Sender address (default: configured default_agent)")
	toFlag := fs.String("to", "", "Recipient address")
	amountFlag := fs.String("amount", "", "Amount to tip")
	postFlag := fs.String("post", "", "Content reference the tip relates to")
	messageFlag := fs.String("message", "", "Message for the recipient")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: acp tip [options]

Send an immediate, irreversible tip. Approves the tip ledger's
allowance automatically when the current one is too small.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  acp tip --to 0xb0b... --amount 100 --message "great answer"
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		sender, err := w.resolveAgent(*fromFlag)
		if err != nil {
			return err
		}
		recipient, err := token.ParseAddress(*toFlag)
		if err != nil {
			return err
		}
		amount, err := parseAmount(*amountFlag)
		if err != nil {
			return err
		}

		w.ensureAllowance(sender, tipsCustody, amount)
		if err := w.tips.Tip(sender, recipient, amount, *postFlag, *messageFlag); err != nil {
			return err
		}
		fmt.Printf("Tipped %s to %s\n", amount.Dec(), recipient)
		return nil
	})
}

func batchTipCmd(args []string) error {
	fs := flag.NewFlagSet("batch-tip", flag.ExitOnError)
	fromFlag := fs.String("from", "", "Sender address (default: configured default_agent)")
	toFlag := fs.String("to", "", "Comma-separated recipient addresses")
	amountsFlag := fs.String("amounts", "", "Comma-separated amounts, one per recipient")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: acp batch-tip [options]

Tip up to 50 agents in one all-or-nothing operation.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  acp batch-tip --to 0xb0b...,0xca1... --amounts 100,250
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		sender, err := w.resolveAgent(*fromFlag)
		if err != nil {
			return err
		}

		var recipients []token.Address
		for _, s := range strings.Split(*toFlag, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			addr, err := token.ParseAddress(s)
			if err != nil {
				return err
			}
			recipients = append(recipients, addr)
		}

		var amounts []*uint256.Int
		total := uint256.NewInt(0)
		for _, s := range strings.Split(*amountsFlag, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			amount, err := parseAmount(s)
			if err != nil {
				return err
			}
			amounts = append(amounts, amount)
			total.Add(total, amount)
		}

		w.ensureAllowance(sender, tipsCustody, total)
		if err := w.tips.BatchTip(sender, recipients, amounts); err != nil {
			return err
		}
		fmt.Printf("Tipped %s across %d recipients\n", total.Dec(), len(recipients))
		return nil
	})
}
