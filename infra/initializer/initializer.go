// Package initializer wires configuration into concrete dependencies:
// logger, database, unit of work, event bus, orders source and the
// recompute retry client.
package initializer

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sellerhub/payouts/infra"
	infra_eventbus "github.com/sellerhub/payouts/infra/eventbus"
	"github.com/sellerhub/payouts/infra/provider/mockorders"
	infra_repository "github.com/sellerhub/payouts/infra/repository"
	"github.com/sellerhub/payouts/pkg/config"
	"github.com/sellerhub/payouts/pkg/domain/common"
	"github.com/sellerhub/payouts/pkg/domain/events"
	"github.com/sellerhub/payouts/pkg/domain/ledger"
	"github.com/sellerhub/payouts/pkg/eventbus"
	"github.com/sellerhub/payouts/pkg/reconciler"
	"github.com/sellerhub/payouts/pkg/retry"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (
	deps *config.Deps,
	err error,
) {
	deps = &config.Deps{Config: cfg}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger

	// Initialize database
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return nil, err
	}

	// Initialize unit of work
	deps.Uow = infra_repository.NewUoW(db)

	// Initialize event bus and the reconciler riding on it
	if err = wireEventing(deps, cfg, logger); err != nil {
		return nil, err
	}

	// Initialize the orders source and the retry client that guards
	// recalculation against its outages.
	deps.OrdersSource = mockorders.NewMockOrdersSource()
	deps.Recompute = newRecomputeClient(cfg.Recompute, logger)

	return
}

// wireEventing sets up the event bus and the reconciler that relays
// ledger pushes to attached dashboard sessions.
func wireEventing(deps *config.Deps, cfg *config.App, logger *slog.Logger) error {
	bus, err := initEventBus(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	deps.EventBus = bus
	deps.Reconciler = reconciler.New(bus, logger)
	return nil
}

// initEventBus picks the bus implementation from configuration. A set
// Redis URL selects the Redis Streams bus; a connection failure falls
// back to the in-process bus so a broker outage never blocks startup.
func initEventBus(cfg *config.App, logger *slog.Logger) (eventbus.Bus, error) {
	if cfg.Redis.URL == "" {
		return infra_eventbus.NewWithMemory(logger), nil
	}
	if cfg.Redis.Stream == "" || cfg.Redis.Group == "" {
		return nil, errors.New("redis event bus requires a stream and a consumer group")
	}
	bus, err := infra_eventbus.NewWithRedis(
		cfg.Redis.URL,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		eventFactories(),
		logger,
	)
	if err != nil {
		logger.Warn("Redis event bus unavailable; using in-memory bus", "error", err)
		return infra_eventbus.NewWithMemory(logger), nil
	}
	return bus, nil
}

// newRecomputeClient builds the retry client the ledger service uses
// when it pulls order sums. Only source outages are retryable;
// everything else fails fast.
func newRecomputeClient(cfg retry.Config, logger *slog.Logger) *retry.Client {
	return retry.New(cfg, retry.NewMonitor(), func(err error) bool {
		return errors.Is(err, ledger.ErrSourceDataUnavailable)
	}, logger)
}

// eventFactories maps wire event types to fresh payloads so the Redis
// bus can decode consumed entries.
func eventFactories() map[string]func() common.Event {
	return map[string]func() common.Event{
		events.EventTypeLedgerRecalculated: func() common.Event {
			return &events.LedgerRecalculated{}
		},
		events.EventTypeWithdrawalCreated: func() common.Event {
			return &events.WithdrawalCreated{}
		},
		events.EventTypeWithdrawalTransitioned: func() common.Event {
			return &events.WithdrawalTransitioned{}
		},
	}
}
