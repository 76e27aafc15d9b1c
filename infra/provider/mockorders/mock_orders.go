// Package mockorders provides an in-memory OrdersSource for tests and
// local development.
package mockorders

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/domain/ledger"
	"github.com/sellerhub/payouts/pkg/money"
	"github.com/sellerhub/payouts/pkg/provider"
)

type storeTotals struct {
	revenue    money.Amount
	commission money.Amount
}

// MockOrdersSource simulates the order/commission aggregation backend.
//
// Usage:
//   - RecordOrder accumulates completed order value and commission for a
//     store; sums only ever grow, matching the real source's
//     monotonicity guarantee.
//   - SetUnavailable makes every query fail with
//     ledger.ErrSourceDataUnavailable, for exercising the retry path.
//
// This is NOT for production use; the real source is the order
// subsystem's aggregation query.
type MockOrdersSource struct {
	mu          sync.Mutex
	totals      map[uuid.UUID]*storeTotals
	unavailable bool
}

// NewMockOrdersSource creates an empty orders source.
func NewMockOrdersSource() *MockOrdersSource {
	return &MockOrdersSource{totals: make(map[uuid.UUID]*storeTotals)}
}

// RecordOrder adds a completed order's value and commission to the
// store's running sums.
func (m *MockOrdersSource) RecordOrder(storeID uuid.UUID, value, commission money.Amount) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.totals[storeID]
	if !ok {
		t = &storeTotals{}
		m.totals[storeID] = t
	}
	t.revenue += value
	t.commission += commission
}

// SetUnavailable toggles simulated backend downtime.
func (m *MockOrdersSource) SetUnavailable(down bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unavailable = down
}

// SumCompletedOrderValue implements provider.OrdersSource.
func (m *MockOrdersSource) SumCompletedOrderValue(ctx context.Context, storeID uuid.UUID) (money.Amount, error) {
	return m.sum(storeID, func(t *storeTotals) money.Amount { return t.revenue })
}

// SumCommission implements provider.OrdersSource.
func (m *MockOrdersSource) SumCommission(ctx context.Context, storeID uuid.UUID) (money.Amount, error) {
	return m.sum(storeID, func(t *storeTotals) money.Amount { return t.commission })
}

func (m *MockOrdersSource) sum(storeID uuid.UUID, pick func(*storeTotals) money.Amount) (money.Amount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return 0, ledger.ErrSourceDataUnavailable
	}
	t, ok := m.totals[storeID]
	if !ok {
		return 0, nil
	}
	return pick(t), nil
}

var _ provider.OrdersSource = (*MockOrdersSource)(nil)
