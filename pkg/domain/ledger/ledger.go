// Package ledger contains the per-store earnings ledger aggregate.
//
// A Ledger is the single aggregate record of a store's revenue, platform
// commission and withdrawals. The available balance is derived, never
// authoritative on its own:
//
//	available = total_revenue − total_platform_commission − total_withdrawn
//
// Invariants:
//   - All monetary fields share the ledger currency.
//   - TotalRevenue, TotalPlatformCommission and TotalWithdrawn are
//     monotonically non-decreasing.
//   - AvailableBalance is never negative.
package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/money"
)

var (
	// ErrLedgerNotFound is returned when a store has no ledger row yet.
	// Callers are expected to create one lazily with zero totals.
	ErrLedgerNotFound = errors.New("ledger not found")

	// ErrSourceDataUnavailable is returned when the authoritative order
	// aggregation source cannot be reached. It is retryable.
	ErrSourceDataUnavailable = errors.New("order source data unavailable")

	// ErrInsufficientBalance is returned when a withdrawal exceeds the
	// available balance.
	ErrInsufficientBalance = errors.New("insufficient available balance")

	// ErrNegativeBalance signals a broken ledger invariant. It must never
	// surface to callers; the balance is clamped to zero and the
	// violation logged.
	ErrNegativeBalance = errors.New("negative available balance invariant violation")

	// ErrInvalidCommissionRate is returned for a rate outside [0, 1].
	ErrInvalidCommissionRate = errors.New("commission rate must be within [0, 1]")
)

// Ledger is the per-store earnings aggregate. One row per store,
// upserted in place on every recalculation.
type Ledger struct {
	StoreID                 uuid.UUID
	Currency                money.Code
	TotalRevenue            money.Money
	TotalPlatformCommission money.Money
	TotalWithdrawn          money.Money
	CommissionRate          float64
	AvailableBalance        money.Money
	LastCalculatedAt        time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// New creates a zero-valued ledger for a store, used for lazy creation
// on first balance query.
func New(storeID uuid.UUID, currency money.Code, commissionRate float64) (*Ledger, error) {
	if !currency.IsValid() {
		return nil, money.ErrInvalidCurrency
	}
	if commissionRate < 0 || commissionRate > 1 {
		return nil, ErrInvalidCommissionRate
	}
	now := time.Now().UTC()
	return &Ledger{
		StoreID:                 storeID,
		Currency:                currency,
		TotalRevenue:            money.Zero(currency),
		TotalPlatformCommission: money.Zero(currency),
		TotalWithdrawn:          money.Zero(currency),
		CommissionRate:          commissionRate,
		AvailableBalance:        money.Zero(currency),
		LastCalculatedAt:        now,
		CreatedAt:               now,
		UpdatedAt:               now,
	}, nil
}

// Recompute rewrites the ledger totals from authoritative source sums and
// rederives the available balance. It reports whether the derived balance
// had to be clamped to zero, which the caller must treat as an internal
// defect and log with ErrNegativeBalance.
func (l *Ledger) Recompute(revenue, commission, withdrawn money.Money, at time.Time) (clamped bool, err error) {
	for _, m := range []money.Money{revenue, commission, withdrawn} {
		if m.Currency() != l.Currency {
			return false, money.ErrCurrencyMismatch
		}
	}
	l.TotalRevenue = revenue
	l.TotalPlatformCommission = commission
	l.TotalWithdrawn = withdrawn
	l.LastCalculatedAt = at
	l.UpdatedAt = at
	return l.rederive()
}

// Debit records a completed withdrawal against the ledger: it re-checks
// the amount against the available balance, increments TotalWithdrawn
// and rederives the available balance. The check and the increment are
// one step so a caller holding the row lock gets linearizable
// check-and-debit semantics.
func (l *Ledger) Debit(amount money.Money, at time.Time) error {
	if amount.Currency() != l.Currency {
		return money.ErrCurrencyMismatch
	}
	if !amount.IsPositive() {
		return ErrInsufficientBalance
	}
	if over, err := amount.GreaterThan(l.AvailableBalance); err != nil {
		return err
	} else if over {
		return ErrInsufficientBalance
	}
	withdrawn, err := l.TotalWithdrawn.Add(amount)
	if err != nil {
		return err
	}
	l.TotalWithdrawn = withdrawn
	l.UpdatedAt = at
	_, err = l.rederive()
	return err
}

// Available returns the cached derived balance.
func (l *Ledger) Available() money.Money {
	return l.AvailableBalance
}

// Fresh reports whether the last full recalculation happened within the
// given freshness window.
func (l *Ledger) Fresh(window time.Duration, now time.Time) bool {
	if window <= 0 {
		return false
	}
	return now.Sub(l.LastCalculatedAt) <= window
}

// rederive recomputes AvailableBalance from the totals, clamping to zero
// when the invariant would be violated.
func (l *Ledger) rederive() (clamped bool, err error) {
	net, err := l.TotalRevenue.Subtract(l.TotalPlatformCommission)
	if err != nil {
		return false, err
	}
	available, err := net.Subtract(l.TotalWithdrawn)
	if err != nil {
		return false, err
	}
	if available.IsNegative() {
		l.AvailableBalance = money.Zero(l.Currency)
		return true, nil
	}
	l.AvailableBalance = available
	return false, nil
}
