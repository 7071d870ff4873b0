package main

import (
	"flag"
	"fmt"
	"os"
)

func balanceCmd(args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	agentFlag := fs.String("agent", "", "Agent address (default: configured default_agent)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: acp balance [options]

Show an agent's token balance and the allowances granted to the tip
ledger and the bounty escrow.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		agent, err := w.resolveAgent(*agentFlag)
		if err != nil {
			return err
		}
		fmt.Printf("Agent:              %s\n", agent)
		fmt.Printf("Balance:            %s\n", w.registry.Balance(agent).Dec())
		fmt.Printf("Tips allowance:     %s\n", w.registry.TipsAllowance(agent).Dec())
		fmt.Printf("Bounties allowance: %s\n", w.registry.BountiesAllowance(agent).Dec())
		return nil
	})
}

func faucetCmd(args []string) error {
	fs := flag.NewFlagSet("faucet", flag.ExitOnError)
	agentFlag := fs.String("agent", "", "Agent address (default: configured default_agent)")
	amountFlag := fs.String("amount", "1000", "Amount to mint")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: acp faucet [options]

Mint test tokens to an agent.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  acp faucet --agent 0xabc... --amount 5000
`)
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		agent, err := w.resolveAgent(*agentFlag)
		if err != nil {
			return err
		}
		amount, err := parseAmount(*amountFlag)
		if err != nil {
			return err
		}
		if !w.vault.Mint(agent, amount) {
			return fmt.Errorf("mint of %s to %s failed", amount.Dec(), agent)
		}
		fmt.Printf("Minted %s to %s (balance now %s)\n", amount.Dec(), agent, w.vault.BalanceOf(agent).Dec())
		return nil
	})
}

func approveCmd(args []string) error {
	fs := flag.NewFlagSet("approve", flag.ExitOnError)
	fromFlag := fs.String("from", "", "Owner address (default: configured default_agent)")
	amountFlag := fs.String("amount", "", "Allowance to grant")
	targetFlag := fs.String("target", "tips", "Which custody to approve: tips or bounties")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: acp approve [options]

Grant the tip ledger or the bounty escrow an allowance over your
balance. Tips and bounty creation pull funds through this allowance.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		owner, err := w.resolveAgent(*fromFlag)
		if err != nil {
			return err
		}
		amount, err := parseAmount(*amountFlag)
		if err != nil {
			return err
		}
		var custody = tipsCustody
		switch *targetFlag {
		case "tips":
		case "bounties":
			custody = escrowCustody
		default:
			return fmt.Errorf("bad target %q: want tips or bounties", *targetFlag)
		}
		if !w.vault.Approve(owner, custody, amount) {
			return fmt.Errorf("approve failed")
		}
		fmt.Printf("Approved %s allowance for %s custody\n", amount.Dec(), *targetFlag)
		return nil
	})
}
