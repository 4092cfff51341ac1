package rules

import (
	"encoding/json"
	"time"
)

// Action names one engine decision point in the audit log.
type Action string

const (
	ActionPollerChecked       Action = "poller_checked"
	ActionPollerTriggered     Action = "poller_triggered"
	ActionPollerTriggerFailed Action = "poller_trigger_failed"
	ActionPollerError         Action = "poller_error"
	ActionExecuteRule         Action = "execute_rule"
)

// EntryStatus classifies the outcome captured by a log entry.
type EntryStatus string

const (
	EntrySuccess   EntryStatus = "success"
	EntrySimulated EntryStatus = "simulated"
	EntryFailed    EntryStatus = "failed"
	EntryError     EntryStatus = "error"
)

// LogEntry is one immutable row of the append-only decision log. The
// log is the sole source of truth for cooldown reconstruction; no
// last-fired field exists anywhere else.
type LogEntry struct {
	ID           string
	OwnerAddress string
	// RuleID is nil for events that are not attributable to a single
	// rule, such as a failed rule load.
	RuleID    *string
	Action    Action
	Details   json.RawMessage
	Status    EntryStatus
	CreatedAt time.Time
}
