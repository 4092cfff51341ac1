package rules

import "github.com/shopspring/decimal"

// SideBuy is the only side the planner emits.
const SideBuy = "buy"

// Leg is one per-asset allocation inside a trade plan.
type Leg struct {
	AssetID  string          `json:"asset_id"`
	Side     string          `json:"side"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
	SpendUSD decimal.Decimal `json:"spend_usd"`
}

// TradePlan is the computed allocation for one firing. It is ephemeral:
// never persisted on its own, only embedded in a log entry's details.
type TradePlan struct {
	TotalSpendUSD decimal.Decimal `json:"total_spend_usd"`
	Legs          []Leg           `json:"legs"`
}

// FirstActionable returns the first leg that can actually be submitted
// as a swap: positive price and positive quantity.
func (p TradePlan) FirstActionable() (Leg, bool) {
	for _, leg := range p.Legs {
		if leg.Price.IsPositive() && leg.Quantity.IsPositive() {
			return leg, true
		}
	}
	return Leg{}, false
}
