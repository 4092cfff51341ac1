package app

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarizeDetails(t *testing.T) {
	checked := json.RawMessage(`{"matched":true,"targets":["BTC"]}`)
	require.Equal(t, "matched=true", summarizeDetails(checked))

	fired := json.RawMessage(`{"plan":{"total_spend_usd":"200"},"tx_id":"tx-1"}`)
	require.Equal(t, "spend=200 tx=tx-1", summarizeDetails(fired))

	failed := json.RawMessage(`{"plan":{"total_spend_usd":"200"},"error":"venue rejected\norder"}`)
	require.Equal(t, "spend=200 error=venue rejected order", summarizeDetails(failed))
}

func TestSummarizeDetailsFallsBackToRawPayload(t *testing.T) {
	require.Equal(t, `{"note":"x"}`, summarizeDetails(json.RawMessage(`{"note":"x"}`)))
	require.Equal(t, "", summarizeDetails(nil))
}
