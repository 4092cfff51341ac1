package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"tradepilot/internal/alerting"
	"tradepilot/internal/config"
	"tradepilot/internal/engine"
	"tradepilot/internal/executor"
	"tradepilot/internal/oracle"
	"tradepilot/internal/scheduler"
	"tradepilot/internal/service"
	"tradepilot/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newOracle() (oracle.Oracle, error) {
	switch a.Config.Oracle.Provider {
	case "binance":
		return oracle.NewBinance(oracle.BinanceOptions{
			APIKey:     a.Config.Oracle.Binance.APIKey,
			APISecret:  a.Config.Oracle.Binance.APISecret,
			QuoteAsset: a.Config.Oracle.Binance.QuoteAsset,
		}, a.Logger), nil
	case "chainlink":
		return oracle.NewChainlink(oracle.ChainlinkOptions{
			RPCURL:  a.Config.Oracle.Chainlink.RPCURL,
			Feeds:   a.Config.Oracle.Chainlink.Feeds,
			Timeout: a.Config.Oracle.Chainlink.RequestTimeout,
		}, a.Logger), nil
	default:
		return nil, fmt.Errorf("unknown oracle provider %q", a.Config.Oracle.Provider)
	}
}

func (a *App) newExecutor() (executor.Executor, error) {
	switch a.Config.Executor.Mode {
	case "binance":
		return executor.NewBinance(executor.BinanceOptions{
			APIKey:    a.Config.Executor.Binance.APIKey,
			APISecret: a.Config.Executor.Binance.APISecret,
		}, a.Logger), nil
	case "simulate":
		return executor.NewSimulate(a.Logger), nil
	default:
		return nil, fmt.Errorf("unknown executor mode %q", a.Config.Executor.Mode)
	}
}

func (a *App) newNotifier() alerting.Notifier {
	if !a.Config.Alerting.Enabled {
		return nil
	}
	if a.Config.Alerting.Telegram.Enabled {
		cfg := a.Config.Alerting.Telegram
		return alerting.NewTelegramNotifier(cfg.BotToken, cfg.ChatID, cfg.APIBase, 10*time.Second, a.Logger)
	}
	return nil
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, errors.New("database.dsn not configured")
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newPoller(store *storage.Store, priceOracle oracle.Oracle, swapExecutor executor.Executor) *engine.Poller {
	return engine.NewPoller(store, store, priceOracle, swapExecutor, engine.Options{
		FundingAsset:     a.Config.Executor.FundingAsset,
		DefaultWindow:    a.Config.Oracle.DefaultWindow,
		FetchParallelism: a.Config.Oracle.FetchParallelism,
	}, a.Logger)
}

// Run executes the long-running polling service.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	priceOracle, err := a.newOracle()
	if err != nil {
		return err
	}
	swapExecutor, err := a.newExecutor()
	if err != nil {
		return err
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.Interval,
		AlignToStart: a.Config.Scheduler.AlignToInterval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
	}, a.Logger)

	poller := a.newPoller(store, priceOracle, swapExecutor)
	svc := service.New(a.Config, sched, poller, a.newNotifier(), store, a.Logger)

	a.Logger.Info().
		Str("oracle", a.Config.Oracle.Provider).
		Str("executor", a.Config.Executor.Mode).
		Dur("interval", a.Config.Scheduler.Interval).
		Msg("starting rule polling service")

	err = svc.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("service terminated with error")
		return err
	}

	a.Logger.Info().Msg("rule polling service stopped")
	return nil
}

// Migrate applies the storage schema.
func (a *App) Migrate(ctx context.Context) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	if err := store.EnsureSchema(ctx); err != nil {
		return err
	}
	a.Logger.Info().Msg("schema up to date")
	return nil
}

// ExportOptions hold parameters for exporting decision history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
