package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"tradepilot/internal/rules"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	insertRuleSQL = `INSERT INTO rules (
        id,
        owner_address,
        kind,
        targets,
        rotate_top_n,
        max_spend_usd,
        max_slippage_pct,
        trigger,
        cooldown_minutes,
        status,
        created_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11
    );`

	listRulesSQL = `SELECT
        id,
        owner_address,
        kind,
        targets,
        rotate_top_n,
        max_spend_usd,
        max_slippage_pct,
        trigger,
        cooldown_minutes,
        status,
        created_at
    FROM rules
    ORDER BY created_at;`

	listActiveRulesSQL = `SELECT
        id,
        owner_address,
        kind,
        targets,
        rotate_top_n,
        max_spend_usd,
        max_slippage_pct,
        trigger,
        cooldown_minutes,
        status,
        created_at
    FROM rules
    WHERE status = 'active'
    ORDER BY created_at;`

	setRuleStatusSQL = `UPDATE rules SET status = $2 WHERE id = $1;`

	insertLogSQL = `INSERT INTO rule_logs (
        id,
        owner_address,
        rule_id,
        action,
        details,
        status,
        created_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7
    );`

	lastSuccessfulFireSQL = `SELECT created_at
    FROM rule_logs
    WHERE rule_id = $1
      AND action IN ('poller_triggered', 'execute_rule')
      AND status IN ('success', 'simulated')
    ORDER BY created_at DESC
    LIMIT 1;`

	listRecentLogsSQL = `SELECT
        id,
        owner_address,
        rule_id,
        action,
        details,
        status,
        created_at
    FROM rule_logs
    ORDER BY created_at DESC
    LIMIT $1;`

	listLogsBetweenSQL = `SELECT
        id,
        owner_address,
        rule_id,
        action,
        details,
        status,
        created_at
    FROM rule_logs
    WHERE created_at >= $1
      AND created_at < $2
    ORDER BY created_at;`

	tryAdvisoryLockSQL = `SELECT pg_try_advisory_lock($1);`
	advisoryUnlockSQL  = `SELECT pg_advisory_unlock($1);`
)

// RuleStore defines operations over persisted rule definitions. The
// engine only lists; the mutating operations back the operator CLI.
type RuleStore interface {
	CreateRule(ctx context.Context, rule rules.Rule) error
	ListRules(ctx context.Context) ([]rules.Rule, error)
	ListActiveRules(ctx context.Context) ([]rules.Rule, error)
	SetRuleStatus(ctx context.Context, id string, status rules.Status) error
}

// LogStore defines operations over the append-only decision log.
type LogStore interface {
	AppendLog(ctx context.Context, entry rules.LogEntry) error
	LastSuccessfulFire(ctx context.Context, ruleID string) (*time.Time, error)
	ListRecentLogs(ctx context.Context, limit int) ([]rules.LogEntry, error)
	ListLogsBetween(ctx context.Context, from, to time.Time) ([]rules.LogEntry, error)
}

// AdvisoryLocker exposes advisory lock helpers.
type AdvisoryLocker interface {
	TryAdvisoryLock(ctx context.Context, key int64) (unlock func(), acquired bool, err error)
}

// Store aggregates access to rules and the decision log.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// TryAdvisoryLock attempts to acquire a postgres advisory lock and returns a release func.
func (s *Store) TryAdvisoryLock(ctx context.Context, key int64) (func(), bool, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, false, err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire connection: %w", err)
	}

	var acquired bool
	if err := conn.QueryRow(ctx, tryAdvisoryLockSQL, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock: %w", err)
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	unlock := func() {
		ctxUnlock, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if _, err := conn.Exec(ctxUnlock, advisoryUnlockSQL, key); err != nil {
			// unlock best effort; log omitted in storage package
		}
		conn.Release()
	}
	return unlock, true, nil
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// CreateRule persists a new rule definition.
func (s *Store) CreateRule(ctx context.Context, rule rules.Rule) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	trigger := rule.RawTrigger
	if trigger == nil && rule.Trigger != nil {
		encoded, encodeErr := rules.EncodeTrigger(rule.Trigger)
		if encodeErr != nil {
			return encodeErr
		}
		trigger = encoded
	}
	if trigger == nil {
		return errors.New("rule has no trigger")
	}

	var topN interface{}
	if rule.RotateTopN > 0 {
		topN = rule.RotateTopN
	}

	_, execErr := pool.Exec(ctx, insertRuleSQL,
		rule.ID,
		rule.OwnerAddress,
		string(rule.Kind),
		rule.Targets,
		topN,
		rule.MaxSpendUSD.String(),
		rule.MaxSlippagePct.String(),
		[]byte(trigger),
		rule.CooldownMinutes(),
		string(rule.Status),
		rule.CreatedAt,
	)
	if execErr != nil {
		return fmt.Errorf("insert rule: %w", execErr)
	}
	return nil
}

// ListRules lists every stored rule.
func (s *Store) ListRules(ctx context.Context) ([]rules.Rule, error) {
	return s.queryRules(ctx, listRulesSQL)
}

// ListActiveRules lists only rules the poller should evaluate.
func (s *Store) ListActiveRules(ctx context.Context) ([]rules.Rule, error) {
	return s.queryRules(ctx, listActiveRulesSQL)
}

func (s *Store) queryRules(ctx context.Context, query string) ([]rules.Rule, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, query)
	if queryErr != nil {
		return nil, fmt.Errorf("list rules: %w", queryErr)
	}
	defer rows.Close()

	list := make([]rules.Rule, 0)
	for rows.Next() {
		rule, scanErr := scanRule(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		list = append(list, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return list, nil
}

// SetRuleStatus flips a rule between active and paused.
func (s *Store) SetRuleStatus(ctx context.Context, id string, status rules.Status) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	cmdTag, execErr := pool.Exec(ctx, setRuleStatusSQL, id, string(status))
	if execErr != nil {
		return fmt.Errorf("set rule status: %w", execErr)
	}
	if cmdTag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AppendLog inserts one immutable decision-log row.
func (s *Store) AppendLog(ctx context.Context, entry rules.LogEntry) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	var ruleID interface{}
	if entry.RuleID != nil {
		ruleID = *entry.RuleID
	}

	var details interface{}
	if len(entry.Details) > 0 {
		details = []byte(entry.Details)
	}

	_, execErr := pool.Exec(ctx, insertLogSQL,
		entry.ID,
		entry.OwnerAddress,
		ruleID,
		string(entry.Action),
		details,
		string(entry.Status),
		entry.CreatedAt,
	)
	if execErr != nil {
		return fmt.Errorf("append log: %w", execErr)
	}
	return nil
}

// LastSuccessfulFire returns when the rule last fired successfully, or
// nil when the log holds no such entry.
func (s *Store) LastSuccessfulFire(ctx context.Context, ruleID string) (*time.Time, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	var firedAt time.Time
	scanErr := pool.QueryRow(ctx, lastSuccessfulFireSQL, ruleID).Scan(&firedAt)
	if scanErr != nil {
		if errors.Is(scanErr, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query last successful fire: %w", scanErr)
	}
	return &firedAt, nil
}

// ListRecentLogs lists the most recent decision-log entries.
func (s *Store) ListRecentLogs(ctx context.Context, limit int) ([]rules.LogEntry, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listRecentLogsSQL, limit)
	if queryErr != nil {
		return nil, fmt.Errorf("list recent logs: %w", queryErr)
	}
	defer rows.Close()

	return collectLogEntries(rows, limit)
}

// ListLogsBetween lists decision-log entries within a time window.
func (s *Store) ListLogsBetween(ctx context.Context, from, to time.Time) ([]rules.LogEntry, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listLogsBetweenSQL, from, to)
	if queryErr != nil {
		return nil, fmt.Errorf("list logs between: %w", queryErr)
	}
	defer rows.Close()

	return collectLogEntries(rows, 0)
}

func collectLogEntries(rows pgx.Rows, capacity int) ([]rules.LogEntry, error) {
	entries := make([]rules.LogEntry, 0, capacity)
	for rows.Next() {
		entry, scanErr := scanLogEntry(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		entries = append(entries, entry)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return entries, nil
}

func scanRule(rows pgx.Rows) (rules.Rule, error) {
	var (
		id              string
		owner           string
		kind            string
		targets         []string
		topN            sql.NullInt64
		maxSpendStr     string
		maxSlippageStr  string
		trigger         json.RawMessage
		cooldownMinutes int
		status          string
		createdAt       time.Time
	)

	if err := rows.Scan(
		&id,
		&owner,
		&kind,
		&targets,
		&topN,
		&maxSpendStr,
		&maxSlippageStr,
		&trigger,
		&cooldownMinutes,
		&status,
		&createdAt,
	); err != nil {
		return rules.Rule{}, err
	}

	maxSpend, err := decimal.NewFromString(maxSpendStr)
	if err != nil {
		return rules.Rule{}, fmt.Errorf("parse max spend: %w", err)
	}
	maxSlippage, err := decimal.NewFromString(maxSlippageStr)
	if err != nil {
		return rules.Rule{}, fmt.Errorf("parse max slippage: %w", err)
	}

	rule := rules.Rule{
		ID:             id,
		OwnerAddress:   owner,
		Kind:           rules.Kind(kind),
		Targets:        targets,
		MaxSpendUSD:    maxSpend,
		MaxSlippagePct: maxSlippage,
		RawTrigger:     trigger,
		Cooldown:       time.Duration(cooldownMinutes) * time.Minute,
		Status:         rules.Status(status),
		CreatedAt:      createdAt,
	}

	if topN.Valid {
		rule.RotateTopN = int(topN.Int64)
	}

	// Decoded exactly once here. A malformed payload leaves Trigger nil
	// and the rule evaluates as no-match instead of crashing the cycle.
	if decoded, decodeErr := rules.DecodeTrigger(trigger); decodeErr == nil {
		rule.Trigger = decoded
	}

	return rule, nil
}

func scanLogEntry(rows pgx.Rows) (rules.LogEntry, error) {
	var (
		id        string
		owner     string
		ruleID    sql.NullString
		action    string
		details   json.RawMessage
		status    string
		createdAt time.Time
	)

	if err := rows.Scan(
		&id,
		&owner,
		&ruleID,
		&action,
		&details,
		&status,
		&createdAt,
	); err != nil {
		return rules.LogEntry{}, err
	}

	entry := rules.LogEntry{
		ID:           id,
		OwnerAddress: owner,
		Action:       rules.Action(action),
		Details:      details,
		Status:       rules.EntryStatus(status),
		CreatedAt:    createdAt,
	}

	if ruleID.Valid {
		value := ruleID.String
		entry.RuleID = &value
	}

	return entry, nil
}
