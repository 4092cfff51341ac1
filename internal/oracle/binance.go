package oracle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultQuoteAsset = "USDT"

// BinanceOptions parameterise the exchange oracle.
type BinanceOptions struct {
	APIKey     string
	APISecret  string
	QuoteAsset string
}

// Binance quotes assets from Binance spot tickers, using the opening
// price of the kline at the start of the window as the reference.
type Binance struct {
	client     *binance.Client
	quoteAsset string
	logger     zerolog.Logger
	now        func() time.Time
}

// NewBinance constructs an exchange-backed oracle.
func NewBinance(opts BinanceOptions, logger zerolog.Logger) *Binance {
	quoteAsset := strings.ToUpper(opts.QuoteAsset)
	if quoteAsset == "" {
		quoteAsset = defaultQuoteAsset
	}

	return &Binance{
		client:     binance.NewClient(opts.APIKey, opts.APISecret),
		quoteAsset: quoteAsset,
		logger:     logger.With().Str("component", "oracle_binance").Logger(),
		now:        time.Now,
	}
}

// GetQuote fetches the latest ticker price and the window reference.
func (b *Binance) GetQuote(ctx context.Context, assetID string, window time.Duration) (Quote, error) {
	symbol := b.symbol(assetID)

	prices, err := b.client.NewListPricesService().Symbol(symbol).Do(ctx)
	if err != nil {
		return Quote{}, fmt.Errorf("fetch ticker %s: %w", symbol, err)
	}
	if len(prices) == 0 {
		return Quote{}, errors.New("empty ticker response for " + symbol)
	}

	latest, err := decimal.NewFromString(prices[0].Price)
	if err != nil {
		return Quote{}, fmt.Errorf("parse ticker price %s: %w", symbol, err)
	}

	quote := Quote{Latest: latest}
	if window <= 0 {
		return quote, nil
	}

	start := b.now().Add(-window)
	klines, err := b.client.NewKlinesService().
		Symbol(symbol).
		Interval("1h").
		StartTime(start.UnixMilli()).
		Limit(1).
		Do(ctx)
	if err != nil {
		// Missing reference degrades to "no change" rather than failing
		// the whole quote.
		b.logger.Warn().Err(err).Str("symbol", symbol).Dur("window", window).Msg("reference kline unavailable")
		return quote, nil
	}
	if len(klines) == 0 {
		return quote, nil
	}

	reference, err := decimal.NewFromString(klines[0].Open)
	if err != nil {
		return Quote{}, fmt.Errorf("parse kline open %s: %w", symbol, err)
	}
	quote.Reference = reference

	return quote, nil
}

func (b *Binance) symbol(assetID string) string {
	return strings.ToUpper(assetID) + b.quoteAsset
}

var _ Oracle = (*Binance)(nil)
