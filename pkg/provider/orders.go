// Package provider defines contracts for the external systems the
// payout core depends on.
package provider

import (
	"context"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/money"
)

// OrdersSource is the read-only aggregation surface of the order and
// commission subsystem. Both sums are eventually consistent and
// monotonically non-decreasing. Implementations signal an unreachable
// backend with ledger.ErrSourceDataUnavailable (wrapped), which the
// recompute client treats as retryable.
type OrdersSource interface {
	// SumCompletedOrderValue returns the total value of completed orders
	// attributable to the store, in the smallest currency unit.
	SumCompletedOrderValue(ctx context.Context, storeID uuid.UUID) (money.Amount, error)

	// SumCommission returns the total platform commission accrued by the
	// store, computed at the rate in force at each order's time.
	SumCommission(ctx context.Context, storeID uuid.UUID) (money.Amount, error)
}
