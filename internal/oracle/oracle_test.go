package oracle

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestChangePct(t *testing.T) {
	q := Quote{Latest: decimal.NewFromInt(94), Reference: decimal.NewFromInt(100)}
	require.True(t, q.ChangePct().Equal(decimal.NewFromInt(-6)))

	q = Quote{Latest: decimal.NewFromInt(103), Reference: decimal.NewFromInt(100)}
	require.True(t, q.ChangePct().Equal(decimal.NewFromInt(3)))
}

func TestChangePctWithoutReference(t *testing.T) {
	q := Quote{Latest: decimal.NewFromInt(100)}
	require.True(t, q.ChangePct().IsZero(), "a missing reference reads as no change")

	q = Quote{Latest: decimal.NewFromInt(100), Reference: decimal.NewFromInt(-1)}
	require.True(t, q.ChangePct().IsZero())
}

func TestStaticOracle(t *testing.T) {
	static := NewStatic(map[string]Quote{
		"btc": {Latest: decimal.NewFromInt(50000)},
	})

	quote, err := static.GetQuote(context.Background(), "BTC", 24*time.Hour)
	require.NoError(t, err)
	require.True(t, quote.Latest.Equal(decimal.NewFromInt(50000)))

	_, err = static.GetQuote(context.Background(), "DOGE", 24*time.Hour)
	require.Error(t, err)
}
