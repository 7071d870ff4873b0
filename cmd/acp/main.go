package main

import (
	"fmt"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	run := func(fn func([]string) error) {
		if err := fn(args); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	switch command {
	case "balance":
		run(balanceCmd)
	case "faucet":
		run(faucetCmd)
	case "approve":
		run(approveCmd)
	case "tip":
		run(tipCmd)
	case "batch-tip":
		run(batchTipCmd)
	case "bounty":
		run(bountyCmd)
	case "register":
		run(registerCmd)
	case "stats":
		run(statsCmd)
	case "events":
		run(eventsCmd)
	case "help", "-h", "--help":
		printUsage()
	case "version", "-v", "--version":
		fmt.Println("acp version 1.0.0")
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`acp - agent commerce protocol ledger

Usage: acp <command> [options]

Wallet:
  balance      Show an agent's token balance and allowances
  faucet       Mint test tokens to an agent
  approve      Grant the tip ledger or escrow an allowance

Tips:
  tip          Send a tip to another agent
  batch-tip    Send tips to up to 50 agents in one operation

Bounties:
  bounty create   Lock funds for a new bounty
  bounty list     List active, unexpired bounties
  bounty view     Show one bounty, current or historical
  bounty award    Release an active bounty to a claimer
  bounty cancel   Cancel an active bounty and get refunded
  bounty reclaim  Reclaim funds from a past-deadline bounty

Agents:
  register     Set your display name and profile
  stats        Show an agent's combined tip and bounty stats

Events:
  events       List, verify or export the event journal

Run 'acp <command> -h' for command options.`)
}
