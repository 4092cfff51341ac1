package engine

import (
	"time"

	"tradepilot/internal/rules"
)

// CanFire reports whether enough time has passed since the last
// successful firing. lastFired is nil when the decision log holds no
// successful firing for the rule; failed attempts never appear there,
// so they never consume cooldown.
func CanFire(rule rules.Rule, lastFired *time.Time, now time.Time) bool {
	if rule.Cooldown <= 0 || lastFired == nil {
		return true
	}
	return now.Sub(*lastFired) >= rule.Cooldown
}
