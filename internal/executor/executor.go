package executor

import (
	"context"

	"github.com/shopspring/decimal"
)

// SwapRequest describes one swap submission: spend AmountUSD of the
// funding asset to acquire the output asset.
type SwapRequest struct {
	InAsset        string
	OutAsset       string
	AmountUSD      decimal.Decimal
	MaxSlippagePct decimal.Decimal
	// ClientID makes retried submissions idempotent at the venue.
	ClientID string
}

// SwapResult identifies a submitted swap.
type SwapResult struct {
	TxID      string
	Simulated bool
}

// Executor submits a single swap attempt. No retry semantics: a failed
// attempt is the caller's to record and the next cycle's to repeat.
type Executor interface {
	Swap(ctx context.Context, req SwapRequest) (SwapResult, error)
}
