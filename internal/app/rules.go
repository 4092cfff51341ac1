package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tradepilot/internal/rules"
)

// AddRuleOptions collect the operator inputs for a new rule.
type AddRuleOptions struct {
	OwnerAddress   string
	Kind           string
	Targets        []string
	RotateTopN     int
	MaxSpendUSD    float64
	MaxSlippagePct float64
	TriggerType    string
	TriggerValue   float64
	TriggerWindow  time.Duration
	LookbackDays   int
	Cooldown       time.Duration
}

// AddRule persists a new rule definition.
func (a *App) AddRule(ctx context.Context, opts AddRuleOptions) error {
	trigger, err := buildTrigger(opts)
	if err != nil {
		return err
	}

	kind := rules.Kind(opts.Kind)
	switch kind {
	case rules.KindDCA, rules.KindRebalance, rules.KindRotate:
	default:
		return fmt.Errorf("unknown rule kind %q", opts.Kind)
	}

	if opts.MaxSpendUSD < 0 {
		return fmt.Errorf("--max-spend cannot be negative")
	}
	if opts.MaxSlippagePct < 0 {
		return fmt.Errorf("--max-slippage cannot be negative")
	}
	if len(opts.Targets) == 0 && kind != rules.KindRotate {
		return fmt.Errorf("--targets is required for %s rules", kind)
	}

	raw, err := rules.EncodeTrigger(trigger)
	if err != nil {
		return err
	}

	rule := rules.Rule{
		ID:             uuid.NewString(),
		OwnerAddress:   opts.OwnerAddress,
		Kind:           kind,
		Targets:        normalizeTargets(opts.Targets),
		RotateTopN:     opts.RotateTopN,
		MaxSpendUSD:    decimal.NewFromFloat(opts.MaxSpendUSD),
		MaxSlippagePct: decimal.NewFromFloat(opts.MaxSlippagePct),
		Trigger:        trigger,
		RawTrigger:     raw,
		Cooldown:       opts.Cooldown,
		Status:         rules.StatusActive,
		CreatedAt:      time.Now().UTC(),
	}

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.CreateRule(ctx, rule); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "created rule %s\n", rule.ID)
	return nil
}

func buildTrigger(opts AddRuleOptions) (rules.Trigger, error) {
	value := decimal.NewFromFloat(opts.TriggerValue)
	switch rules.TriggerType(opts.TriggerType) {
	case rules.TriggerPriceDrop:
		return rules.PriceDropTrigger{DropPct: value}, nil
	case rules.TriggerTrend:
		return rules.TrendTrigger{RisePct: value, Window: opts.TriggerWindow}, nil
	case rules.TriggerMomentum:
		return rules.MomentumTrigger{RisePct: value, LookbackDays: opts.LookbackDays}, nil
	default:
		return nil, fmt.Errorf("unknown trigger type %q", opts.TriggerType)
	}
}

func normalizeTargets(targets []string) []string {
	normalized := make([]string, 0, len(targets))
	for _, target := range targets {
		target = strings.ToUpper(strings.TrimSpace(target))
		if target != "" {
			normalized = append(normalized, target)
		}
	}
	return normalized
}

// ListRules prints every stored rule.
func (a *App) ListRules(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	list, err := store.ListRules(ctx)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stdout, "no rules found")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "ID\tOwner\tKind\tTargets\tTrigger\tMaxSpend\tCooldown\tStatus")

	for _, rule := range list {
		triggerType := "invalid"
		if rule.Trigger != nil {
			triggerType = string(rule.Trigger.Type())
		}
		fmt.Fprintf(
			writer,
			"%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rule.ID,
			rule.OwnerAddress,
			rule.Kind,
			strings.Join(rule.Targets, ","),
			triggerType,
			rule.MaxSpendUSD.StringFixed(2),
			rule.Cooldown,
			rule.Status,
		)
	}

	writer.Flush()
	return nil
}

// SetRuleStatus pauses or resumes a rule.
func (a *App) SetRuleStatus(ctx context.Context, id string, status rules.Status) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.SetRuleStatus(ctx, id, status); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "rule %s is now %s\n", id, status)
	return nil
}
