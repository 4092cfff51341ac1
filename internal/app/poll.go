package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"tradepilot/internal/engine"
	"tradepilot/internal/executor"
	"tradepilot/internal/oracle"
)

// PollOnce runs exactly one poll cycle against the configured
// collaborators and prints the summary. This is the manual counterpart
// of a scheduler tick.
func (a *App) PollOnce(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	priceOracle, err := a.newOracle()
	if err != nil {
		return err
	}
	swapExecutor, err := a.newExecutor()
	if err != nil {
		return err
	}

	poller := a.newPoller(store, priceOracle, swapExecutor)
	summary, err := poller.RunPollCycle(ctx)
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

// SimulateCycle runs one poll cycle with fixture prices and the
// simulated executor, against the real rule store. Decision-log entries
// are still written, marked simulated.
func (a *App) SimulateCycle(ctx context.Context, quotes map[string]oracle.Quote) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	poller := a.newPoller(store, oracle.NewStatic(quotes), executor.NewSimulate(a.Logger))
	summary, err := poller.RunPollCycle(ctx)
	if err != nil {
		return err
	}

	printSummary(summary)
	return nil
}

func printSummary(summary engine.Summary) {
	fmt.Fprintf(os.Stdout, "checked: %d\n", summary.Checked)
	if ids := summary.TriggeredIDs(); len(ids) > 0 {
		fmt.Fprintf(os.Stdout, "triggered: %s\n", strings.Join(ids, ", "))
	} else {
		fmt.Fprintln(os.Stdout, "triggered: none")
	}
	for _, ruleErr := range summary.Errors {
		fmt.Fprintf(os.Stdout, "error: rule %s: %s\n", ruleErr.RuleID, ruleErr.Err)
	}
}
