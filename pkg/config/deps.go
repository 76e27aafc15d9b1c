package config

import (
	"log/slog"

	"github.com/sellerhub/payouts/pkg/eventbus"
	"github.com/sellerhub/payouts/pkg/provider"
	"github.com/sellerhub/payouts/pkg/reconciler"
	"github.com/sellerhub/payouts/pkg/repository"
	"github.com/sellerhub/payouts/pkg/retry"
)

// Deps holds all infrastructure dependencies for building the app and services.
type Deps struct {
	Uow          repository.UnitOfWork
	OrdersSource provider.OrdersSource
	EventBus     eventbus.Bus
	Reconciler   *reconciler.Reconciler
	Recompute    *retry.Client
	Logger       *slog.Logger
	Config       *App
}
