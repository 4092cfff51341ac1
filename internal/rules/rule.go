package rules

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies the automation strategy a rule implements.
type Kind string

const (
	KindDCA       Kind = "dca"
	KindRebalance Kind = "rebalance"
	KindRotate    Kind = "rotate"
)

// Status gates whether a rule is considered by the poller.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
)

// Rule is a user's standing automation instruction. The engine never
// mutates rules; status and limits are changed through the operator
// surfaces only.
type Rule struct {
	ID             string
	OwnerAddress   string
	Kind           Kind
	Targets        []string
	RotateTopN     int
	MaxSpendUSD    decimal.Decimal
	MaxSlippagePct decimal.Decimal
	Trigger        Trigger
	// RawTrigger preserves the stored wire form, including payloads that
	// failed to decode (Trigger is nil in that case and the rule
	// evaluates as no-match).
	RawTrigger json.RawMessage
	Cooldown   time.Duration
	Status     Status
	CreatedAt  time.Time
}

// IsActive reports whether the poller should evaluate the rule.
func (r Rule) IsActive() bool {
	return r.Status == StatusActive
}

// CooldownMinutes returns the stored cooldown granularity.
func (r Rule) CooldownMinutes() int {
	return int(r.Cooldown / time.Minute)
}
