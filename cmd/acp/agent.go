package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joshlevylabs/agent-commerce-protocol/token"
)

func registerCmd(args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	fromFlag := fs.String("from", "", "Agent address (default: configured default_agent)")
	nameFlag := fs.String("name", "", "Display name")
	profileFlag := fs.String("profile", "", "Profile text or URL")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: acp register [options]

Register or update an agent's display record. Re-registering
replaces the previous record.

Options:
`)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		agent, err := w.resolveAgent(*fromFlag)
		if err != nil {
			return err
		}
		w.registry.RegisterAgent(agent, *nameFlag, *profileFlag)
		fmt.Printf("Registered %s as %q\n", agent, *nameFlag)
		return nil
	})
}

func statsCmd(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	agentFlag := fs.String("agent", "", "Agent address (default: configured default_agent)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	return withWorld(func(w *world) error {
		var agent token.Address
		var err error
		if *agentFlag != "" {
			agent, err = token.ParseAddress(*agentFlag)
		} else {
			agent, err = w.resolveAgent("")
		}
		if err != nil {
			return err
		}

		full := w.registry.FullAgentStats(agent)
		fmt.Printf("Agent:            %s\n", full.Agent)
		if full.Identity.Name != "" {
			fmt.Printf("Name:             %s\n", full.Identity.Name)
		}
		if full.Identity.Profile != "" {
			fmt.Printf("Profile:          %s\n", full.Identity.Profile)
		}
		fmt.Printf("Balance:          %s\n", w.registry.Balance(agent).Dec())
		fmt.Printf("Tips received:    %s (%d tips)\n", full.Tips.TotalReceived.Dec(), full.Tips.ReceivedCount)
		fmt.Printf("Tips sent:        %s\n", full.Tips.TotalSent.Dec())
		fmt.Printf("Bounties posted:  %d (%s escrowed all-time)\n", full.Bounties.PostedCount, full.Bounties.AmountPosted.Dec())
		fmt.Printf("Bounties earned:  %d (%s)\n", full.Bounties.ClaimedCount, full.Bounties.AmountEarned.Dec())
		return nil
	})
}
