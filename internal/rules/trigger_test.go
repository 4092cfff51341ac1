package rules

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDecodeTriggerPriceDrop(t *testing.T) {
	trigger, err := DecodeTrigger([]byte(`{"type":"price_drop_pct","value":"5"}`))
	require.NoError(t, err)

	drop, ok := trigger.(PriceDropTrigger)
	require.True(t, ok)
	require.True(t, drop.DropPct.Equal(decimal.NewFromInt(5)))
	require.Equal(t, 24*time.Hour, drop.ReferenceWindow(24*time.Hour))
}

func TestDecodeTriggerTrend(t *testing.T) {
	trigger, err := DecodeTrigger([]byte(`{"type":"trend_pct","value":"3","window":"72h"}`))
	require.NoError(t, err)

	trend, ok := trigger.(TrendTrigger)
	require.True(t, ok)
	require.True(t, trend.RisePct.Equal(decimal.NewFromInt(3)))
	require.Equal(t, 72*time.Hour, trend.ReferenceWindow(24*time.Hour))
}

func TestDecodeTriggerTrendWithoutWindowUsesFallback(t *testing.T) {
	trigger, err := DecodeTrigger([]byte(`{"type":"trend_pct","value":"3"}`))
	require.NoError(t, err)
	require.Equal(t, 24*time.Hour, trigger.ReferenceWindow(24*time.Hour))
}

func TestDecodeTriggerMomentum(t *testing.T) {
	trigger, err := DecodeTrigger([]byte(`{"type":"momentum_pct","value":"10","lookback_days":7}`))
	require.NoError(t, err)

	momentum, ok := trigger.(MomentumTrigger)
	require.True(t, ok)
	require.Equal(t, 7, momentum.LookbackDays)
	require.Equal(t, 7*24*time.Hour, momentum.ReferenceWindow(24*time.Hour))
}

func TestDecodeTriggerRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"unknown type":      `{"type":"volume_pct","value":"1"}`,
		"bad window":        `{"type":"trend_pct","value":"1","window":"tomorrow"}`,
		"negative lookback": `{"type":"momentum_pct","value":"1","lookback_days":-2}`,
		"not json":          `{`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeTrigger([]byte(raw))
			require.Error(t, err)
		})
	}
}

func TestEncodeTriggerRoundTrip(t *testing.T) {
	original := TrendTrigger{RisePct: decimal.NewFromFloat(2.5), Window: 48 * time.Hour}

	raw, err := EncodeTrigger(original)
	require.NoError(t, err)

	decoded, err := DecodeTrigger(raw)
	require.NoError(t, err)

	trend, ok := decoded.(TrendTrigger)
	require.True(t, ok)
	require.True(t, trend.RisePct.Equal(original.RisePct))
	require.Equal(t, original.Window, trend.Window)
}
