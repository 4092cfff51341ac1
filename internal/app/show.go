package app

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
)

// Show prints recent decision-log entries.
func (a *App) Show(ctx context.Context, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	entries, err := store.ListRecentLogs(ctx, opts.Limit)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(os.Stdout, "no log entries found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Time (UTC)\tRule\tAction\tStatus\tDetails")

	for _, entry := range entries {
		ruleID := "-"
		if entry.RuleID != nil {
			ruleID = *entry.RuleID
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\n",
			entry.CreatedAt.UTC().Format(time.RFC3339),
			ruleID,
			entry.Action,
			entry.Status,
			summarizeDetails(entry.Details),
		)
	}

	writer.Flush()
	return nil
}

// summarizeDetails flattens the structured payload to a short inline
// description for terminal output.
func summarizeDetails(details json.RawMessage) string {
	if len(details) == 0 {
		return ""
	}

	var payload struct {
		Matched *bool `json:"matched"`
		Plan    *struct {
			TotalSpendUSD string `json:"total_spend_usd"`
		} `json:"plan"`
		TxID  string `json:"tx_id"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(details, &payload); err != nil {
		return sanitizeInline(string(details))
	}

	parts := make([]string, 0, 3)
	if payload.Matched != nil {
		parts = append(parts, fmt.Sprintf("matched=%t", *payload.Matched))
	}
	if payload.Plan != nil {
		parts = append(parts, fmt.Sprintf("spend=%s", payload.Plan.TotalSpendUSD))
	}
	if payload.TxID != "" {
		parts = append(parts, "tx="+payload.TxID)
	}
	if payload.Error != "" {
		parts = append(parts, "error="+sanitizeInline(payload.Error))
	}
	if len(parts) == 0 {
		return sanitizeInline(string(details))
	}
	return strings.Join(parts, " ")
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	return cleaned
}
