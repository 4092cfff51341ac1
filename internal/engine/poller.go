package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tradepilot/internal/executor"
	"tradepilot/internal/oracle"
	"tradepilot/internal/rules"
)

// ErrCycleInProgress is returned when a poll cycle is requested while a
// previous one is still running. Overlapping cycles could double-fire a
// rule past its cooldown, so the late invocation is skipped outright.
var ErrCycleInProgress = errors.New("engine: poll cycle already in progress")

const (
	defaultWindow      = 24 * time.Hour
	defaultParallelism = 4
)

// RuleSource lists the rules the poller must consider.
type RuleSource interface {
	ListActiveRules(ctx context.Context) ([]rules.Rule, error)
}

// LogSink appends decision records and reconstructs cooldown state from
// them. The poller never reads back anything else.
type LogSink interface {
	AppendLog(ctx context.Context, entry rules.LogEntry) error
	LastSuccessfulFire(ctx context.Context, ruleID string) (*time.Time, error)
}

// Firing describes one executed (or simulated) rule firing.
type Firing struct {
	RuleID       string
	OwnerAddress string
	Kind         rules.Kind
	TxID         string
	Plan         rules.TradePlan
	Simulated    bool
}

// RuleError pairs a rule with the failure that stopped its processing.
type RuleError struct {
	RuleID string
	Err    string
}

// Summary is the outcome of one poll cycle.
type Summary struct {
	Checked   int
	Triggered []Firing
	Errors    []RuleError
}

// TriggeredIDs lists the rule ids that fired this cycle.
func (s Summary) TriggeredIDs() []string {
	ids := make([]string, 0, len(s.Triggered))
	for _, firing := range s.Triggered {
		ids = append(ids, firing.RuleID)
	}
	return ids
}

// Options tune poller behaviour.
type Options struct {
	// FundingAsset is the asset sold on every swap.
	FundingAsset string
	// DefaultWindow is the reference window for triggers that carry
	// none of their own.
	DefaultWindow time.Duration
	// FetchParallelism bounds concurrent oracle calls per cycle.
	FetchParallelism int
}

// Poller runs discrete evaluation cycles over all active rules. Rules
// are processed sequentially; only the oracle prefetch fans out.
type Poller struct {
	ruleSource RuleSource
	logs       LogSink
	oracle     oracle.Oracle
	executor   executor.Executor
	opts       Options
	logger     zerolog.Logger

	mu  sync.Mutex
	now func() time.Time
}

// NewPoller wires the orchestrator.
func NewPoller(ruleSource RuleSource, logs LogSink, priceOracle oracle.Oracle, swapExecutor executor.Executor, opts Options, logger zerolog.Logger) *Poller {
	if opts.FundingAsset == "" {
		opts.FundingAsset = "USDT"
	}
	if opts.DefaultWindow <= 0 {
		opts.DefaultWindow = defaultWindow
	}
	if opts.FetchParallelism <= 0 {
		opts.FetchParallelism = defaultParallelism
	}

	return &Poller{
		ruleSource: ruleSource,
		logs:       logs,
		oracle:     priceOracle,
		executor:   swapExecutor,
		opts:       opts,
		logger:     logger.With().Str("component", "poller").Logger(),
		now:        time.Now,
	}
}

// RunPollCycle loads all active rules, evaluates each against a shared
// price snapshot, and coordinates planning, cooldown checks, execution,
// and audit logging. A summary is always returned; the error is non-nil
// only when the rule set itself could not be loaded.
func (p *Poller) RunPollCycle(ctx context.Context) (Summary, error) {
	if !p.mu.TryLock() {
		return Summary{}, ErrCycleInProgress
	}
	defer p.mu.Unlock()

	now := p.now().UTC()

	active, err := p.ruleSource.ListActiveRules(ctx)
	if err != nil {
		loadErr := fmt.Errorf("list active rules: %w", err)
		p.appendBestEffort(ctx, rules.LogEntry{
			ID:        uuid.NewString(),
			Action:    rules.ActionPollerError,
			Details:   errorDetails(loadErr.Error()),
			Status:    rules.EntryError,
			CreatedAt: now,
		})
		return Summary{}, loadErr
	}

	quotes := p.fetchQuotes(ctx, active, now)

	summary := Summary{}
	for _, rule := range active {
		if len(rule.Targets) == 0 {
			// No targets, nothing to evaluate: skipped without a log
			// entry for this cycle.
			p.logger.Debug().Str("rule_id", rule.ID).Msg("rule has no targets; skipping")
			continue
		}
		p.processRule(ctx, rule, p.pricesFor(rule, quotes), now, &summary)
	}

	p.logger.Info().
		Int("checked", summary.Checked).
		Strs("triggered", summary.TriggeredIDs()).
		Int("errors", len(summary.Errors)).
		Msg("poll cycle complete")

	return summary, nil
}

type quoteKey struct {
	asset  string
	window time.Duration
}

// fetchQuotes prefetches the union of (asset, window) pairs the cycle
// needs, fanning out oracle calls with bounded parallelism. A failed
// fetch degrades to a zero quote so the cycle never aborts on oracle
// trouble.
func (p *Poller) fetchQuotes(ctx context.Context, active []rules.Rule, now time.Time) map[quoteKey]oracle.Quote {
	keys := make(map[quoteKey]struct{})
	for _, rule := range active {
		if rule.Trigger == nil {
			continue
		}
		window := rule.Trigger.ReferenceWindow(p.opts.DefaultWindow)
		for _, asset := range rule.Targets {
			keys[quoteKey{asset: asset, window: window}] = struct{}{}
		}
	}

	quotes := make(map[quoteKey]oracle.Quote, len(keys))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(p.opts.FetchParallelism)
	for key := range keys {
		group.Go(func() error {
			quote, err := p.oracle.GetQuote(groupCtx, key.asset, key.window)
			if err != nil {
				p.logger.Warn().Err(err).
					Str("asset", key.asset).
					Dur("window", key.window).
					Msg("oracle fetch failed; degrading to zero price")
				quote = oracle.Quote{}
			}
			mu.Lock()
			quotes[key] = quote
			mu.Unlock()
			return nil
		})
	}
	_ = group.Wait()

	return quotes
}

func (p *Poller) pricesFor(rule rules.Rule, quotes map[quoteKey]oracle.Quote) map[string]oracle.Quote {
	prices := make(map[string]oracle.Quote, len(rule.Targets))
	window := p.opts.DefaultWindow
	if rule.Trigger != nil {
		window = rule.Trigger.ReferenceWindow(p.opts.DefaultWindow)
	}
	for _, asset := range rule.Targets {
		prices[asset] = quotes[quoteKey{asset: asset, window: window}]
	}
	return prices
}

// processRule walks one rule through the cycle state machine:
// evaluated, cooldown-checked, planned, executed, logged. Every failure
// mode terminates in a log entry; a panic anywhere inside is contained
// to this rule.
func (p *Poller) processRule(ctx context.Context, rule rules.Rule, prices map[string]oracle.Quote, now time.Time, summary *Summary) {
	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("rule processing panicked: %v", rec)
			p.logger.Error().Str("rule_id", rule.ID).Msg(err.Error())
			p.appendBestEffort(ctx, p.errorEntry(rule, err, now))
			summary.Errors = append(summary.Errors, RuleError{RuleID: rule.ID, Err: err.Error()})
		}
	}()

	summary.Checked++

	matched := Evaluate(rule, prices)
	if err := p.logs.AppendLog(ctx, p.checkedEntry(rule, matched, prices, now)); err != nil {
		p.failRule(ctx, rule, fmt.Errorf("append poller_checked: %w", err), now, summary)
		return
	}
	if !matched {
		return
	}

	lastFired, err := p.logs.LastSuccessfulFire(ctx, rule.ID)
	if err != nil {
		p.failRule(ctx, rule, fmt.Errorf("query last successful fire: %w", err), now, summary)
		return
	}
	if !CanFire(rule, lastFired, now) {
		p.logger.Debug().
			Str("rule_id", rule.ID).
			Dur("cooldown", rule.Cooldown).
			Msg("trigger matched but cooldown still active")
		return
	}

	plan := BuildPlan(rule, prices)

	leg, ok := plan.FirstActionable()
	if !ok {
		entry := p.firingEntry(rule, rules.ActionPollerTriggerFailed, rules.EntryFailed, plan, "", "plan has no actionable leg", now)
		if err := p.logs.AppendLog(ctx, entry); err != nil {
			p.failRule(ctx, rule, fmt.Errorf("append poller_trigger_failed: %w", err), now, summary)
		}
		return
	}

	result, err := p.executor.Swap(ctx, executor.SwapRequest{
		InAsset:        p.opts.FundingAsset,
		OutAsset:       leg.AssetID,
		AmountUSD:      leg.SpendUSD,
		MaxSlippagePct: rule.MaxSlippagePct,
		ClientID:       fmt.Sprintf("rule-%s-%d", rule.ID, now.Unix()),
	})
	if err != nil {
		// Recorded, not retried this cycle. The failed attempt writes no
		// success entry, so cooldown is not consumed.
		entry := p.firingEntry(rule, rules.ActionPollerTriggerFailed, rules.EntryFailed, plan, "", err.Error(), now)
		if appendErr := p.logs.AppendLog(ctx, entry); appendErr != nil {
			p.failRule(ctx, rule, fmt.Errorf("append poller_trigger_failed: %w", appendErr), now, summary)
			return
		}
		summary.Errors = append(summary.Errors, RuleError{RuleID: rule.ID, Err: err.Error()})
		return
	}

	status := rules.EntrySuccess
	if result.Simulated {
		status = rules.EntrySimulated
	}
	entry := p.firingEntry(rule, rules.ActionPollerTriggered, status, plan, result.TxID, "", now)
	if err := p.logs.AppendLog(ctx, entry); err != nil {
		// The swap already happened; surface the missing audit row but
		// still report the firing.
		p.failRule(ctx, rule, fmt.Errorf("append poller_triggered: %w", err), now, summary)
	}

	summary.Triggered = append(summary.Triggered, Firing{
		RuleID:       rule.ID,
		OwnerAddress: rule.OwnerAddress,
		Kind:         rule.Kind,
		TxID:         result.TxID,
		Plan:         plan,
		Simulated:    result.Simulated,
	})
}

// failRule records an unexpected per-rule failure and surfaces it in
// the cycle summary. The remaining steps for the rule are abandoned.
func (p *Poller) failRule(ctx context.Context, rule rules.Rule, err error, now time.Time, summary *Summary) {
	p.logger.Error().Err(err).Str("rule_id", rule.ID).Msg("rule processing failed")
	p.appendBestEffort(ctx, p.errorEntry(rule, err, now))
	summary.Errors = append(summary.Errors, RuleError{RuleID: rule.ID, Err: err.Error()})
}

func (p *Poller) appendBestEffort(ctx context.Context, entry rules.LogEntry) {
	if err := p.logs.AppendLog(ctx, entry); err != nil {
		p.logger.Warn().Err(err).Str("action", string(entry.Action)).Msg("failed to append log entry")
	}
}

type priceDetails struct {
	Latest    decimal.Decimal `json:"latest"`
	Reference decimal.Decimal `json:"reference"`
	ChangePct decimal.Decimal `json:"change_pct"`
}

type checkDetails struct {
	Trigger json.RawMessage         `json:"trigger"`
	Targets []string                `json:"targets"`
	Matched bool                    `json:"matched"`
	Prices  map[string]priceDetails `json:"prices"`
}

type firingDetails struct {
	Plan  rules.TradePlan `json:"plan"`
	TxID  string          `json:"tx_id,omitempty"`
	Error string          `json:"error,omitempty"`
}

func (p *Poller) checkedEntry(rule rules.Rule, matched bool, prices map[string]oracle.Quote, now time.Time) rules.LogEntry {
	snapshot := make(map[string]priceDetails, len(prices))
	for asset, quote := range prices {
		snapshot[asset] = priceDetails{
			Latest:    quote.Latest,
			Reference: quote.Reference,
			ChangePct: quote.ChangePct(),
		}
	}

	details, _ := json.Marshal(checkDetails{
		Trigger: rule.RawTrigger,
		Targets: rule.Targets,
		Matched: matched,
		Prices:  snapshot,
	})

	return p.ruleEntry(rule, rules.ActionPollerChecked, rules.EntrySuccess, details, now)
}

func (p *Poller) firingEntry(rule rules.Rule, action rules.Action, status rules.EntryStatus, plan rules.TradePlan, txID, errMsg string, now time.Time) rules.LogEntry {
	details, _ := json.Marshal(firingDetails{Plan: plan, TxID: txID, Error: errMsg})
	return p.ruleEntry(rule, action, status, details, now)
}

func (p *Poller) errorEntry(rule rules.Rule, err error, now time.Time) rules.LogEntry {
	return p.ruleEntry(rule, rules.ActionPollerError, rules.EntryError, errorDetails(err.Error()), now)
}

func (p *Poller) ruleEntry(rule rules.Rule, action rules.Action, status rules.EntryStatus, details json.RawMessage, now time.Time) rules.LogEntry {
	ruleID := rule.ID
	return rules.LogEntry{
		ID:           uuid.NewString(),
		OwnerAddress: rule.OwnerAddress,
		RuleID:       &ruleID,
		Action:       action,
		Details:      details,
		Status:       status,
		CreatedAt:    now,
	}
}

func errorDetails(msg string) json.RawMessage {
	details, _ := json.Marshal(map[string]string{"error": msg})
	return details
}
