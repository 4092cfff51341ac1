package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tradepilot/internal/oracle"
	"tradepilot/internal/rules"
)

func quote(latest, reference float64) oracle.Quote {
	return oracle.Quote{
		Latest:    decimal.NewFromFloat(latest),
		Reference: decimal.NewFromFloat(reference),
	}
}

func TestEvaluatePriceDrop(t *testing.T) {
	rule := rules.Rule{
		Targets: []string{"BTC"},
		Trigger: rules.PriceDropTrigger{DropPct: decimal.NewFromInt(5)},
	}

	require.True(t, Evaluate(rule, map[string]oracle.Quote{"BTC": quote(94, 100)}), "a 6 percent drop should match a 5 percent threshold")
	require.True(t, Evaluate(rule, map[string]oracle.Quote{"BTC": quote(95, 100)}), "exactly the threshold should match")
	require.False(t, Evaluate(rule, map[string]oracle.Quote{"BTC": quote(96, 100)}), "a 4 percent drop should not match")
	require.False(t, Evaluate(rule, map[string]oracle.Quote{"BTC": quote(105, 100)}), "rises never match a drop trigger")
}

func TestEvaluatePriceDropAnyTarget(t *testing.T) {
	rule := rules.Rule{
		Targets: []string{"BTC", "ETH"},
		Trigger: rules.PriceDropTrigger{DropPct: decimal.NewFromInt(5)},
	}
	prices := map[string]oracle.Quote{
		"BTC": quote(99, 100),
		"ETH": quote(90, 100),
	}
	require.True(t, Evaluate(rule, prices), "a single qualifying target is enough")
}

func TestEvaluateTrend(t *testing.T) {
	rule := rules.Rule{
		Targets: []string{"ETH"},
		Trigger: rules.TrendTrigger{RisePct: decimal.NewFromInt(3)},
	}

	require.True(t, Evaluate(rule, map[string]oracle.Quote{"ETH": quote(104, 100)}))
	require.True(t, Evaluate(rule, map[string]oracle.Quote{"ETH": quote(103, 100)}))
	require.False(t, Evaluate(rule, map[string]oracle.Quote{"ETH": quote(102, 100)}))
	require.False(t, Evaluate(rule, map[string]oracle.Quote{"ETH": quote(95, 100)}))
}

func TestEvaluateMomentumMirrorsTrend(t *testing.T) {
	trend := rules.Rule{
		Targets: []string{"SOL"},
		Trigger: rules.TrendTrigger{RisePct: decimal.NewFromInt(10)},
	}
	momentum := rules.Rule{
		Targets: []string{"SOL"},
		Trigger: rules.MomentumTrigger{RisePct: decimal.NewFromInt(10), LookbackDays: 7},
	}

	for _, prices := range []map[string]oracle.Quote{
		{"SOL": quote(111, 100)},
		{"SOL": quote(110, 100)},
		{"SOL": quote(109, 100)},
	} {
		require.Equal(t, Evaluate(trend, prices), Evaluate(momentum, prices))
	}
}

func TestEvaluateZeroReferenceNeverMatches(t *testing.T) {
	dropRule := rules.Rule{
		Targets: []string{"BTC"},
		Trigger: rules.PriceDropTrigger{DropPct: decimal.NewFromInt(1)},
	}
	trendRule := rules.Rule{
		Targets: []string{"BTC"},
		Trigger: rules.TrendTrigger{RisePct: decimal.NewFromInt(1)},
	}
	prices := map[string]oracle.Quote{"BTC": {Latest: decimal.NewFromInt(100)}}

	require.False(t, Evaluate(dropRule, prices))
	require.False(t, Evaluate(trendRule, prices))
}

func TestEvaluateGuards(t *testing.T) {
	prices := map[string]oracle.Quote{"BTC": quote(50, 100)}

	noTargets := rules.Rule{Trigger: rules.PriceDropTrigger{DropPct: decimal.NewFromInt(5)}}
	require.False(t, Evaluate(noTargets, prices))

	noTrigger := rules.Rule{Targets: []string{"BTC"}}
	require.False(t, Evaluate(noTrigger, prices))
}
