// Package mocks holds testify doubles for the repository and provider
// contracts, shared by the service and handler tests.
package mocks

import (
	"context"
	"reflect"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/domain/destination"
	"github.com/sellerhub/payouts/pkg/domain/ledger"
	"github.com/sellerhub/payouts/pkg/domain/withdrawal"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/money"
	"github.com/sellerhub/payouts/pkg/repository"
	"github.com/stretchr/testify/mock"
)

// MockUnitOfWork fakes the transaction boundary. Do runs the callback
// against the mock itself so a test wires repository expectations once.
type MockUnitOfWork struct {
	mock.Mock
}

func (m *MockUnitOfWork) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	args := m.Called(ctx, fn)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(m)
}

func (m *MockUnitOfWork) GetRepository(repoType reflect.Type) (any, error) {
	args := m.Called(repoType)
	return args.Get(0), args.Error(1)
}

func (m *MockUnitOfWork) LedgerRepository() (repository.LedgerRepository, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.LedgerRepository), args.Error(1)
}

func (m *MockUnitOfWork) WithdrawalRepository() (repository.WithdrawalRepository, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.WithdrawalRepository), args.Error(1)
}

func (m *MockUnitOfWork) HistoryRepository() (repository.HistoryRepository, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.HistoryRepository), args.Error(1)
}

func (m *MockUnitOfWork) DestinationRepository() (repository.DestinationRepository, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(repository.DestinationRepository), args.Error(1)
}

// MockLedgerRepository fakes repository.LedgerRepository.
type MockLedgerRepository struct {
	mock.Mock
}

func (m *MockLedgerRepository) Get(ctx context.Context, storeID uuid.UUID) (*ledger.Ledger, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Ledger), args.Error(1)
}

func (m *MockLedgerRepository) GetForUpdate(ctx context.Context, storeID uuid.UUID) (*ledger.Ledger, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Ledger), args.Error(1)
}

func (m *MockLedgerRepository) Upsert(ctx context.Context, l *ledger.Ledger) error {
	args := m.Called(ctx, l)
	return args.Error(0)
}

// MockWithdrawalRepository fakes repository.WithdrawalRepository.
type MockWithdrawalRepository struct {
	mock.Mock
}

func (m *MockWithdrawalRepository) Create(ctx context.Context, r *withdrawal.Request) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) Get(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*withdrawal.Request, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalRepository) Update(ctx context.Context, r *withdrawal.Request) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockWithdrawalRepository) List(ctx context.Context, storeID uuid.UUID, filter dto.WithdrawalFilter) ([]*withdrawal.Request, error) {
	args := m.Called(ctx, storeID, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*withdrawal.Request), args.Error(1)
}

func (m *MockWithdrawalRepository) SumCompleted(ctx context.Context, storeID uuid.UUID) (money.Amount, error) {
	args := m.Called(ctx, storeID)
	return args.Get(0).(money.Amount), args.Error(1)
}

// MockHistoryRepository fakes repository.HistoryRepository.
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, e *withdrawal.StatusHistoryEntry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockHistoryRepository) List(ctx context.Context, withdrawalID uuid.UUID) ([]withdrawal.StatusHistoryEntry, error) {
	args := m.Called(ctx, withdrawalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]withdrawal.StatusHistoryEntry), args.Error(1)
}

// MockDestinationRepository fakes repository.DestinationRepository.
type MockDestinationRepository struct {
	mock.Mock
}

func (m *MockDestinationRepository) Upsert(ctx context.Context, d *destination.Destination) error {
	args := m.Called(ctx, d)
	return args.Error(0)
}

func (m *MockDestinationRepository) Get(ctx context.Context, storeID, id uuid.UUID) (*destination.Destination, error) {
	args := m.Called(ctx, storeID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*destination.Destination), args.Error(1)
}

func (m *MockDestinationRepository) List(ctx context.Context, storeID uuid.UUID) ([]*destination.Destination, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*destination.Destination), args.Error(1)
}

func (m *MockDestinationRepository) ClearDefault(ctx context.Context, storeID uuid.UUID) error {
	args := m.Called(ctx, storeID)
	return args.Error(0)
}

func (m *MockDestinationRepository) SetDefault(ctx context.Context, storeID, id uuid.UUID) error {
	args := m.Called(ctx, storeID, id)
	return args.Error(0)
}

// MockOrdersSource fakes provider.OrdersSource.
type MockOrdersSource struct {
	mock.Mock
}

func (m *MockOrdersSource) SumCompletedOrderValue(ctx context.Context, storeID uuid.UUID) (money.Amount, error) {
	args := m.Called(ctx, storeID)
	return args.Get(0).(money.Amount), args.Error(1)
}

func (m *MockOrdersSource) SumCommission(ctx context.Context, storeID uuid.UUID) (money.Amount, error) {
	args := m.Called(ctx, storeID)
	return args.Get(0).(money.Amount), args.Error(1)
}
