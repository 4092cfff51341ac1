package rules

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestFirstActionableSkipsUnpricedLegs(t *testing.T) {
	plan := TradePlan{
		Legs: []Leg{
			{AssetID: "XYZ", Side: SideBuy, Price: decimal.Zero, Quantity: decimal.Zero, SpendUSD: decimal.NewFromInt(50)},
			{AssetID: "ETH", Side: SideBuy, Price: decimal.NewFromInt(2000), Quantity: decimal.NewFromFloat(0.025), SpendUSD: decimal.NewFromInt(50)},
		},
	}

	leg, ok := plan.FirstActionable()
	require.True(t, ok)
	require.Equal(t, "ETH", leg.AssetID)
}

func TestFirstActionableEmptyPlan(t *testing.T) {
	_, ok := TradePlan{}.FirstActionable()
	require.False(t, ok)
}
