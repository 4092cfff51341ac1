package executor

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Simulate accepts every swap without touching a venue. Results carry
// Simulated so the decision log can record the firing as simulated
// rather than executed.
type Simulate struct {
	logger zerolog.Logger
}

// NewSimulate constructs a dry-run executor.
func NewSimulate(logger zerolog.Logger) *Simulate {
	return &Simulate{logger: logger.With().Str("component", "executor_simulate").Logger()}
}

// Swap returns a synthetic transaction identifier.
func (s *Simulate) Swap(ctx context.Context, req SwapRequest) (SwapResult, error) {
	if !req.AmountUSD.IsPositive() {
		return SwapResult{}, errors.New("swap amount must be positive")
	}

	txID := "sim-" + uuid.NewString()
	s.logger.Info().
		Str("out_asset", req.OutAsset).
		Str("spend_usd", req.AmountUSD.String()).
		Str("tx_id", txID).
		Msg("simulated swap")

	return SwapResult{TxID: txID, Simulated: true}, nil
}

var _ Executor = (*Simulate)(nil)
