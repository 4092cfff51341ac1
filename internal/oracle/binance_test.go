package oracle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func newBinanceAgainst(t *testing.T, handler http.Handler) *Binance {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	oracle := NewBinance(BinanceOptions{}, zerolog.Nop())
	oracle.client.BaseURL = srv.URL
	oracle.now = func() time.Time { return time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC) }
	return oracle
}

func TestBinanceGetQuote(t *testing.T) {
	var klineSymbol string
	oracle := newBinanceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/ticker/price":
			require.Equal(t, "BTCUSDT", r.URL.Query().Get("symbol"))
			_, _ = w.Write([]byte(`[{"symbol":"BTCUSDT","price":"94"}]`))
		case "/api/v3/klines":
			klineSymbol = r.URL.Query().Get("symbol")
			_, _ = w.Write([]byte(`[[1756548000000,"100","105","93","94","1000",1756551599999,"100000",100,"500","50000","0"]]`))
		default:
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
	}))

	quote, err := oracle.GetQuote(context.Background(), "btc", 24*time.Hour)
	require.NoError(t, err)
	require.Equal(t, "BTCUSDT", klineSymbol)
	require.True(t, quote.Latest.Equal(decimal.NewFromInt(94)))
	require.True(t, quote.Reference.Equal(decimal.NewFromInt(100)))
	require.True(t, quote.ChangePct().Equal(decimal.NewFromInt(-6)))
}

func TestBinanceGetQuoteSpotOnly(t *testing.T) {
	oracle := newBinanceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Fatalf("no kline request expected for a zero window, got %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"symbol":"ETHUSDT","price":"2000"}]`))
	}))

	quote, err := oracle.GetQuote(context.Background(), "ETH", 0)
	require.NoError(t, err)
	require.True(t, quote.Latest.Equal(decimal.NewFromInt(2000)))
	require.True(t, quote.Reference.IsZero())
}

func TestBinanceGetQuoteKlineFailureDegrades(t *testing.T) {
	oracle := newBinanceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/ticker/price":
			_, _ = w.Write([]byte(`[{"symbol":"BTCUSDT","price":"94"}]`))
		case "/api/v3/klines":
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"code":-1000,"msg":"internal"}`))
		}
	}))

	quote, err := oracle.GetQuote(context.Background(), "BTC", 24*time.Hour)
	require.NoError(t, err, "a missing reference must not fail the quote")
	require.True(t, quote.Latest.Equal(decimal.NewFromInt(94)))
	require.True(t, quote.Reference.IsZero())
}

func TestBinanceGetQuoteTickerFailure(t *testing.T) {
	oracle := newBinanceAgainst(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))

	_, err := oracle.GetQuote(context.Background(), "BTC", 24*time.Hour)
	require.Error(t, err)
}
