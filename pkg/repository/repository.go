// Package repository defines the data-access contracts consumed by the
// service layer. Implementations live in infra/repository.
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/domain/destination"
	"github.com/sellerhub/payouts/pkg/domain/ledger"
	"github.com/sellerhub/payouts/pkg/domain/withdrawal"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/money"
)

// LedgerRepository accesses the one-row-per-store earnings ledger.
type LedgerRepository interface {
	Get(ctx context.Context, storeID uuid.UUID) (*ledger.Ledger, error)

	// GetForUpdate locks the store's ledger row for the duration of the
	// surrounding transaction. Every writer goes through this.
	GetForUpdate(ctx context.Context, storeID uuid.UUID) (*ledger.Ledger, error)

	// Upsert writes the ledger row in place; there is never more than
	// one row per store.
	Upsert(ctx context.Context, l *ledger.Ledger) error
}

// WithdrawalRepository accesses withdrawal requests.
type WithdrawalRepository interface {
	Create(ctx context.Context, r *withdrawal.Request) error
	Get(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error)

	// GetForUpdate locks the request row for the surrounding transaction.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error)

	Update(ctx context.Context, r *withdrawal.Request) error
	List(ctx context.Context, storeID uuid.UUID, filter dto.WithdrawalFilter) ([]*withdrawal.Request, error)

	// SumCompleted returns the total amount of completed withdrawals for
	// a store, in the smallest currency unit.
	SumCompleted(ctx context.Context, storeID uuid.UUID) (money.Amount, error)
}

// HistoryRepository accesses the append-only status audit trail.
type HistoryRepository interface {
	// Append inserts one transition row. Entries are never updated or
	// deleted; the implementation assigns the per-withdrawal sequence.
	Append(ctx context.Context, e *withdrawal.StatusHistoryEntry) error

	List(ctx context.Context, withdrawalID uuid.UUID) ([]withdrawal.StatusHistoryEntry, error)
}

// DestinationRepository accesses saved payout destinations.
type DestinationRepository interface {
	Upsert(ctx context.Context, d *destination.Destination) error
	Get(ctx context.Context, storeID, id uuid.UUID) (*destination.Destination, error)
	List(ctx context.Context, storeID uuid.UUID) ([]*destination.Destination, error)

	// ClearDefault unsets is_default on every destination of the store.
	// Callers pair it with SetDefault inside one transaction so there is
	// no window with zero or two defaults.
	ClearDefault(ctx context.Context, storeID uuid.UUID) error
	SetDefault(ctx context.Context, storeID, id uuid.UUID) error
}
