package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tradepilot/internal/oracle"
	"tradepilot/internal/rules"
)

func TestBuildPlanSplitsBudgetEvenly(t *testing.T) {
	rule := rules.Rule{
		Targets:     []string{"AAA", "BBB"},
		MaxSpendUSD: decimal.NewFromInt(100),
	}
	prices := map[string]oracle.Quote{
		"AAA": {Latest: decimal.NewFromInt(50)},
		"BBB": {Latest: decimal.NewFromInt(25)},
	}

	plan := BuildPlan(rule, prices)

	require.Len(t, plan.Legs, 2)
	require.True(t, plan.TotalSpendUSD.Equal(decimal.NewFromInt(100)))

	require.Equal(t, "AAA", plan.Legs[0].AssetID)
	require.Equal(t, rules.SideBuy, plan.Legs[0].Side)
	require.True(t, plan.Legs[0].SpendUSD.Equal(decimal.NewFromInt(50)))
	require.True(t, plan.Legs[0].Quantity.Equal(decimal.NewFromInt(1)))

	require.Equal(t, "BBB", plan.Legs[1].AssetID)
	require.True(t, plan.Legs[1].SpendUSD.Equal(decimal.NewFromInt(50)))
	require.True(t, plan.Legs[1].Quantity.Equal(decimal.NewFromInt(2)))
}

func TestBuildPlanUnpricedAssetGetsZeroQuantity(t *testing.T) {
	rule := rules.Rule{
		Targets:     []string{"AAA", "UNKNOWN"},
		MaxSpendUSD: decimal.NewFromInt(80),
	}
	prices := map[string]oracle.Quote{"AAA": {Latest: decimal.NewFromInt(40)}}

	plan := BuildPlan(rule, prices)

	require.Len(t, plan.Legs, 2)
	require.True(t, plan.Legs[1].Quantity.IsZero())
	require.True(t, plan.Legs[1].SpendUSD.Equal(decimal.NewFromInt(40)), "spend is still allocated to the unpriced leg")
}

func TestBuildPlanEmptyTargets(t *testing.T) {
	plan := BuildPlan(rules.Rule{MaxSpendUSD: decimal.NewFromInt(100)}, nil)
	require.Empty(t, plan.Legs)
	require.True(t, plan.TotalSpendUSD.IsZero())
}
