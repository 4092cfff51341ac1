package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tradepilot/internal/rules"
)

func TestCanFire(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	rule := rules.Rule{Cooldown: 60 * time.Minute}

	recent := now.Add(-30 * time.Minute)
	require.False(t, CanFire(rule, &recent, now), "30m since last fire is inside a 60m cooldown")

	boundary := now.Add(-60 * time.Minute)
	require.True(t, CanFire(rule, &boundary, now), "exactly the cooldown duration is enough")

	stale := now.Add(-61 * time.Minute)
	require.True(t, CanFire(rule, &stale, now))
}

func TestCanFireWithoutHistory(t *testing.T) {
	now := time.Now().UTC()
	require.True(t, CanFire(rules.Rule{Cooldown: time.Hour}, nil, now), "no prior firing means no cooldown")
}

func TestCanFireZeroCooldown(t *testing.T) {
	now := time.Now().UTC()
	justFired := now.Add(-time.Second)
	require.True(t, CanFire(rules.Rule{}, &justFired, now))
}
