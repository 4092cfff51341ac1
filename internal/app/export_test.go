package app

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tradepilot/internal/rules"
)

func makeEntries(n int) []rules.LogEntry {
	base := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	entries := make([]rules.LogEntry, 0, n)
	for i := 0; i < n; i++ {
		entries = append(entries, rules.LogEntry{
			ID:        fmt.Sprintf("e%d", i),
			Action:    rules.ActionPollerChecked,
			Status:    rules.EntrySuccess,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}
	return entries
}

func TestDownsampleEntriesKeepsEndpoints(t *testing.T) {
	entries := makeEntries(1000)
	sampled := downsampleEntries(entries, 100)

	require.Len(t, sampled, 100)
	require.Equal(t, entries[0].ID, sampled[0].ID)
	require.Equal(t, entries[len(entries)-1].ID, sampled[len(sampled)-1].ID)
}

func TestDownsampleEntriesNoOpBelowLimit(t *testing.T) {
	entries := makeEntries(50)
	require.Len(t, downsampleEntries(entries, 100), 50)
	require.Len(t, downsampleEntries(entries, 0), 50)
}
