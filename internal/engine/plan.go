package engine

import (
	"github.com/shopspring/decimal"

	"tradepilot/internal/oracle"
	"tradepilot/internal/rules"
)

// BuildPlan splits the rule's budget evenly across its targets. Pure
// and deterministic: preview and execution paths share it and must
// agree. An unpriced asset yields a zero-quantity leg rather than an
// error.
func BuildPlan(rule rules.Rule, prices map[string]oracle.Quote) rules.TradePlan {
	if len(rule.Targets) == 0 {
		return rules.TradePlan{TotalSpendUSD: decimal.Zero}
	}

	perLegSpend := rule.MaxSpendUSD.Div(decimal.NewFromInt(int64(len(rule.Targets))))

	plan := rules.TradePlan{Legs: make([]rules.Leg, 0, len(rule.Targets))}
	for _, asset := range rule.Targets {
		price := prices[asset].Latest
		quantity := decimal.Zero
		if price.IsPositive() {
			quantity = perLegSpend.Div(price)
		}
		plan.Legs = append(plan.Legs, rules.Leg{
			AssetID:  asset,
			Side:     rules.SideBuy,
			Price:    price,
			Quantity: quantity,
			SpendUSD: perLegSpend,
		})
		plan.TotalSpendUSD = plan.TotalSpendUSD.Add(perLegSpend)
	}

	return plan
}
