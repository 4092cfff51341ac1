package executor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestBinanceSwapPlacesMarketBuy(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v3/order", r.URL.Path)
		require.NoError(t, r.ParseForm())
		form = map[string]string{
			"symbol":           r.FormValue("symbol"),
			"side":             r.FormValue("side"),
			"type":             r.FormValue("type"),
			"quoteOrderQty":    r.FormValue("quoteOrderQty"),
			"newClientOrderId": r.FormValue("newClientOrderId"),
		}
		_, _ = w.Write([]byte(`{"symbol":"BTCUSDT","orderId":12345,"clientOrderId":"rule-r1-1"}`))
	}))
	defer srv.Close()

	exec := NewBinance(BinanceOptions{APIKey: "key", APISecret: "secret"}, zerolog.Nop())
	exec.client.BaseURL = srv.URL

	res, err := exec.Swap(context.Background(), SwapRequest{
		InAsset:        "usdt",
		OutAsset:       "btc",
		AmountUSD:      decimal.NewFromFloat(100.456),
		MaxSlippagePct: decimal.NewFromInt(1),
		ClientID:       "rule-r1-1",
	})
	require.NoError(t, err)
	require.Equal(t, "12345", res.TxID)
	require.False(t, res.Simulated)

	require.Equal(t, "BTCUSDT", form["symbol"])
	require.Equal(t, "BUY", form["side"])
	require.Equal(t, "MARKET", form["type"])
	require.Equal(t, "100.45", form["quoteOrderQty"], "spend is floored to cents")
	require.Equal(t, "rule-r1-1", form["newClientOrderId"])
}

func TestBinanceSwapRejectsNonPositiveAmount(t *testing.T) {
	exec := NewBinance(BinanceOptions{APIKey: "key", APISecret: "secret"}, zerolog.Nop())

	_, err := exec.Swap(context.Background(), SwapRequest{AmountUSD: decimal.Zero})
	require.Error(t, err)
}

func TestBinanceSwapVenueError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-2010,"msg":"Account has insufficient balance."}`))
	}))
	defer srv.Close()

	exec := NewBinance(BinanceOptions{APIKey: "key", APISecret: "secret"}, zerolog.Nop())
	exec.client.BaseURL = srv.URL

	_, err := exec.Swap(context.Background(), SwapRequest{AmountUSD: decimal.NewFromInt(10)})
	require.Error(t, err)
}
