package rules

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TriggerType tags the wire form of a trigger payload.
type TriggerType string

const (
	TriggerPriceDrop TriggerType = "price_drop_pct"
	TriggerTrend     TriggerType = "trend_pct"
	TriggerMomentum  TriggerType = "momentum_pct"
)

// Trigger is the market condition attached to a rule. Exactly one
// variant exists per trigger type; payloads are decoded once at the
// storage boundary, never probed as free-form JSON at evaluation time.
type Trigger interface {
	Type() TriggerType
	// ReferenceWindow selects the historical window the evaluator
	// compares against, falling back to the engine default when the
	// trigger does not carry its own.
	ReferenceWindow(fallback time.Duration) time.Duration

	isTrigger()
}

// PriceDropTrigger fires when any target fell by at least DropPct
// against the reference price.
type PriceDropTrigger struct {
	DropPct decimal.Decimal
}

func (PriceDropTrigger) Type() TriggerType { return TriggerPriceDrop }
func (PriceDropTrigger) isTrigger()        {}

func (PriceDropTrigger) ReferenceWindow(fallback time.Duration) time.Duration {
	return fallback
}

// TrendTrigger fires when any target rose by at least RisePct over
// Window.
type TrendTrigger struct {
	RisePct decimal.Decimal
	Window  time.Duration
}

func (TrendTrigger) Type() TriggerType { return TriggerTrend }
func (TrendTrigger) isTrigger()        {}

func (t TrendTrigger) ReferenceWindow(fallback time.Duration) time.Duration {
	if t.Window <= 0 {
		return fallback
	}
	return t.Window
}

// MomentumTrigger fires on the same rise comparator as TrendTrigger,
// with the window derived from a lookback in days. The comparator is
// intentionally identical to trend; only the window differs.
type MomentumTrigger struct {
	RisePct      decimal.Decimal
	LookbackDays int
}

func (MomentumTrigger) Type() TriggerType { return TriggerMomentum }
func (MomentumTrigger) isTrigger()        {}

func (t MomentumTrigger) ReferenceWindow(fallback time.Duration) time.Duration {
	if t.LookbackDays <= 0 {
		return fallback
	}
	return time.Duration(t.LookbackDays) * 24 * time.Hour
}

type triggerWire struct {
	Type         TriggerType     `json:"type"`
	Value        decimal.Decimal `json:"value"`
	Window       string          `json:"window,omitempty"`
	LookbackDays int             `json:"lookback_days,omitempty"`
}

// DecodeTrigger parses the stored wire form into its variant.
func DecodeTrigger(raw []byte) (Trigger, error) {
	var wire triggerWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("decode trigger: %w", err)
	}

	switch wire.Type {
	case TriggerPriceDrop:
		return PriceDropTrigger{DropPct: wire.Value}, nil
	case TriggerTrend:
		window := time.Duration(0)
		if wire.Window != "" {
			parsed, err := time.ParseDuration(wire.Window)
			if err != nil {
				return nil, fmt.Errorf("decode trigger window: %w", err)
			}
			window = parsed
		}
		return TrendTrigger{RisePct: wire.Value, Window: window}, nil
	case TriggerMomentum:
		if wire.LookbackDays < 0 {
			return nil, fmt.Errorf("decode trigger: negative lookback_days %d", wire.LookbackDays)
		}
		return MomentumTrigger{RisePct: wire.Value, LookbackDays: wire.LookbackDays}, nil
	default:
		return nil, fmt.Errorf("decode trigger: unknown type %q", wire.Type)
	}
}

// EncodeTrigger renders a trigger back to its wire form.
func EncodeTrigger(t Trigger) ([]byte, error) {
	var wire triggerWire
	switch v := t.(type) {
	case PriceDropTrigger:
		wire = triggerWire{Type: TriggerPriceDrop, Value: v.DropPct}
	case TrendTrigger:
		wire = triggerWire{Type: TriggerTrend, Value: v.RisePct}
		if v.Window > 0 {
			wire.Window = v.Window.String()
		}
	case MomentumTrigger:
		wire = triggerWire{Type: TriggerMomentum, Value: v.RisePct, LookbackDays: v.LookbackDays}
	default:
		return nil, fmt.Errorf("encode trigger: unsupported type %T", t)
	}
	return json.Marshal(wire)
}
