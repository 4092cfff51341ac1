package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog"
)

// BinanceOptions parameterise the exchange executor.
type BinanceOptions struct {
	APIKey    string
	APISecret string
}

// Binance submits market buys on Binance spot. The slippage cap cannot
// be attached to a market order; it travels in the audit log only.
type Binance struct {
	client *binance.Client
	logger zerolog.Logger
}

// NewBinance constructs an exchange-backed executor.
func NewBinance(opts BinanceOptions, logger zerolog.Logger) *Binance {
	return &Binance{
		client: binance.NewClient(opts.APIKey, opts.APISecret),
		logger: logger.With().Str("component", "executor_binance").Logger(),
	}
}

// Swap places a market buy for OutAsset sized by the USD spend.
func (b *Binance) Swap(ctx context.Context, req SwapRequest) (SwapResult, error) {
	if !req.AmountUSD.IsPositive() {
		return SwapResult{}, errors.New("swap amount must be positive")
	}

	symbol := strings.ToUpper(req.OutAsset) + strings.ToUpper(req.InAsset)

	order := b.client.NewCreateOrderService().
		Symbol(symbol).
		Side(binance.SideTypeBuy).
		Type(binance.OrderTypeMarket).
		QuoteOrderQty(req.AmountUSD.RoundFloor(2).String())
	if req.ClientID != "" {
		order = order.NewClientOrderID(req.ClientID)
	}

	res, err := order.Do(ctx)
	if err != nil {
		return SwapResult{}, fmt.Errorf("submit market buy %s: %w", symbol, err)
	}

	b.logger.Info().
		Str("symbol", symbol).
		Int64("order_id", res.OrderID).
		Str("spend_usd", req.AmountUSD.String()).
		Msg("swap submitted")

	return SwapResult{TxID: strconv.FormatInt(res.OrderID, 10)}, nil
}

var _ Executor = (*Binance)(nil)
