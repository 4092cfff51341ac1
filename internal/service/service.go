package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"tradepilot/internal/alerting"
	"tradepilot/internal/config"
	"tradepilot/internal/engine"
	"tradepilot/internal/scheduler"
	"tradepilot/internal/storage"
)

// Service drives the poll loop: scheduler ticks, cross-process advisory
// locking, poll cycles, and firing notifications.
type Service struct {
	scheduler *scheduler.Scheduler
	poller    *engine.Poller
	notifier  alerting.Notifier
	logger    zerolog.Logger

	locker  storage.AdvisoryLocker
	lockKey int64
}

// New constructs the polling service.
func New(cfg *config.Config, sched *scheduler.Scheduler, poller *engine.Poller, notifier alerting.Notifier, locker storage.AdvisoryLocker, logger zerolog.Logger) *Service {
	return &Service{
		scheduler: sched,
		poller:    poller,
		notifier:  notifier,
		logger:    logger.With().Str("component", "service").Logger(),
		locker:    locker,
		lockKey:   cfg.Scheduler.AdvisoryLockKey,
	}
}

// Run begins the scheduled polling loop.
func (s *Service) Run(ctx context.Context) error {
	if s.scheduler == nil {
		return fmt.Errorf("scheduler not configured")
	}
	return s.scheduler.Run(ctx, s.Tick)
}

// Tick executes one poll cycle under the advisory lock.
func (s *Service) Tick(ctx context.Context, at time.Time) error {
	unlock, proceed, err := s.acquireLock(ctx)
	if err != nil {
		return err
	}
	if !proceed {
		s.logger.Debug().Time("tick", at).Msg("skip tick because advisory lock held elsewhere")
		return nil
	}
	if unlock != nil {
		defer unlock()
	}

	summary, err := s.poller.RunPollCycle(ctx)
	if err != nil {
		if errors.Is(err, engine.ErrCycleInProgress) {
			s.logger.Debug().Time("tick", at).Msg("skip tick because a cycle is still running")
			return nil
		}
		return err
	}

	s.notifyFirings(ctx, summary)
	return nil
}

// notifyFirings dispatches best-effort notifications for each executed
// firing. Delivery failures never affect the cycle outcome.
func (s *Service) notifyFirings(ctx context.Context, summary engine.Summary) {
	if s.notifier == nil {
		return
	}

	for _, firing := range summary.Triggered {
		note := alerting.Notification{
			RuleID:        firing.RuleID,
			OwnerAddress:  firing.OwnerAddress,
			Kind:          string(firing.Kind),
			TxID:          firing.TxID,
			TotalSpendUSD: firing.Plan.TotalSpendUSD,
			Legs:          len(firing.Plan.Legs),
			Simulated:     firing.Simulated,
			FiredAt:       time.Now().UTC(),
		}
		if err := s.notifier.Notify(ctx, note); err != nil {
			s.logger.Error().Err(err).Str("rule_id", firing.RuleID).Msg("failed to dispatch firing notification")
		}
	}
}

func (s *Service) acquireLock(ctx context.Context) (func(), bool, error) {
	if s.lockKey == 0 || s.locker == nil {
		return nil, true, nil
	}
	unlock, acquired, err := s.locker.TryAdvisoryLock(ctx, s.lockKey)
	if err != nil {
		return nil, false, fmt.Errorf("acquire advisory lock: %w", err)
	}
	if !acquired {
		return nil, false, nil
	}
	return unlock, true, nil
}
