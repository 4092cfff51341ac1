package storage

import (
	"context"
	"fmt"
)

// schemaDDL creates the rule and decision-log tables. rule_logs is
// append-only; the composite index backs the last-successful-fire query
// the cooldown guard re-runs every cycle.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS rules (
    id               UUID PRIMARY KEY,
    owner_address    TEXT NOT NULL,
    kind             TEXT NOT NULL,
    targets          TEXT[] NOT NULL DEFAULT '{}',
    rotate_top_n     INT,
    max_spend_usd    NUMERIC NOT NULL DEFAULT 0,
    max_slippage_pct NUMERIC NOT NULL DEFAULT 0,
    trigger          JSONB NOT NULL,
    cooldown_minutes INT NOT NULL DEFAULT 0,
    status           TEXT NOT NULL DEFAULT 'active',
    created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_rules_status ON rules (status);

CREATE TABLE IF NOT EXISTS rule_logs (
    id            UUID PRIMARY KEY,
    owner_address TEXT NOT NULL,
    rule_id       UUID,
    action        TEXT NOT NULL,
    details       JSONB,
    status        TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_rule_logs_last_fire
    ON rule_logs (rule_id, action, status, created_at DESC);

CREATE INDEX IF NOT EXISTS idx_rule_logs_created_at
    ON rule_logs (created_at);
`

// EnsureSchema applies the schema DDL. Safe to run repeatedly.
func (s *Store) EnsureSchema(ctx context.Context) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}
	if _, execErr := pool.Exec(ctx, schemaDDL); execErr != nil {
		return fmt.Errorf("apply schema: %w", execErr)
	}
	return nil
}
