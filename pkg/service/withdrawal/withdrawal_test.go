package withdrawal_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	infra_eventbus "github.com/sellerhub/payouts/infra/eventbus"
	"github.com/sellerhub/payouts/internal/fixtures/mocks"
	"github.com/sellerhub/payouts/pkg/config"
	ledgerdomain "github.com/sellerhub/payouts/pkg/domain/ledger"
	withdrawaldomain "github.com/sellerhub/payouts/pkg/domain/withdrawal"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/money"
	withdrawalsvc "github.com/sellerhub/payouts/pkg/service/withdrawal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testDeps(uow *mocks.MockUnitOfWork, bus *infra_eventbus.MemoryEventBus) config.Deps {
	return config.Deps{
		Uow:      uow,
		EventBus: bus,
		Logger:   testLogger(),
		Config: &config.App{
			Payouts: config.Payouts{
				MinWithdrawal:         1000,
				DefaultCommissionRate: 0.10,
				FreshnessWindow:       30 * time.Second,
				Currency:              "USD",
			},
		},
	}
}

func ledgerWithAvailable(t *testing.T, storeID uuid.UUID, available money.Amount) *ledgerdomain.Ledger {
	t.Helper()
	l, err := ledgerdomain.New(storeID, money.USD, 0.10)
	require.NoError(t, err)
	_, err = l.Recompute(
		money.Must(available, money.USD),
		money.Zero(money.USD),
		money.Zero(money.USD),
		time.Now().UTC(),
	)
	require.NoError(t, err)
	return l
}

func mobileMoneyJSON(t *testing.T) []byte {
	t.Helper()
	raw, err := json.Marshal(withdrawaldomain.MobileMoneyDetails{
		Phone:      "+254700000000",
		Operator:   "m-pesa",
		Country:    "KE",
		HolderName: "Asha Mwangi",
	})
	require.NoError(t, err)
	return raw
}

func processingRequest(t *testing.T, storeID uuid.UUID, amount money.Amount) *withdrawaldomain.Request {
	t.Helper()
	r, err := withdrawaldomain.New().
		WithStoreID(storeID).
		WithAmount(money.Must(amount, money.USD)).
		WithDetails(withdrawaldomain.MobileMoneyDetails{
			Phone:      "+254700000000",
			Operator:   "m-pesa",
			Country:    "KE",
			HolderName: "Asha Mwangi",
		}).
		WithRequestedBy(uuid.New()).
		Build()
	require.NoError(t, err)
	_, err = r.Apply(withdrawaldomain.Transition{
		To:    withdrawaldomain.StatusProcessing,
		Actor: uuid.New(),
	}, time.Now().UTC())
	require.NoError(t, err)
	return r
}

func TestCreate_Success(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	ledgerRepo := new(mocks.MockLedgerRepository)
	withdrawalRepo := new(mocks.MockWithdrawalRepository)
	historyRepo := new(mocks.MockHistoryRepository)
	bus := infra_eventbus.NewWithMemory(testLogger())
	storeID := uuid.New()

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("LedgerRepository").Return(ledgerRepo, nil)
	uow.On("WithdrawalRepository").Return(withdrawalRepo, nil)
	uow.On("HistoryRepository").Return(historyRepo, nil)
	ledgerRepo.On("GetForUpdate", mock.Anything, storeID).
		Return(ledgerWithAvailable(t, storeID, 50_000), nil).Once()
	withdrawalRepo.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Once()

	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	read, err := svc.Create(context.Background(), dto.WithdrawalCreate{
		StoreID:     storeID,
		Amount:      5_000,
		Method:      "mobile_money",
		Details:     mobileMoneyJSON(t),
		Notes:       "rent",
		RequestedBy: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", read.Status)
	assert.Equal(t, money.Amount(5_000), read.Amount.Amount())

	require.Len(t, bus.Published(), 1)
	withdrawalRepo.AssertExpectations(t)
	historyRepo.AssertExpectations(t)
}

func TestCreate_BelowMinimum(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	bus := infra_eventbus.NewWithMemory(testLogger())

	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	_, err := svc.Create(context.Background(), dto.WithdrawalCreate{
		StoreID:     uuid.New(),
		Amount:      999,
		Method:      "mobile_money",
		Details:     mobileMoneyJSON(t),
		RequestedBy: uuid.New(),
	})
	require.ErrorIs(t, err, withdrawaldomain.ErrBelowMinimumThreshold)

	// Validation failures never reach the database.
	uow.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
	assert.Empty(t, bus.Published())
}

func TestCreate_NonPositiveAmount(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	bus := infra_eventbus.NewWithMemory(testLogger())

	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	_, err := svc.Create(context.Background(), dto.WithdrawalCreate{
		StoreID:     uuid.New(),
		Amount:      0,
		Method:      "mobile_money",
		Details:     mobileMoneyJSON(t),
		RequestedBy: uuid.New(),
	})
	require.ErrorIs(t, err, withdrawaldomain.ErrAmountMustBePositive)
	uow.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
}

func TestCreate_InvalidDetails(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	bus := infra_eventbus.NewWithMemory(testLogger())

	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	_, err := svc.Create(context.Background(), dto.WithdrawalCreate{
		StoreID:     uuid.New(),
		Amount:      5_000,
		Method:      "mobile_money",
		Details:     []byte(`{"phone": ""}`),
		RequestedBy: uuid.New(),
	})
	require.ErrorIs(t, err, withdrawaldomain.ErrInvalidPaymentDetails)
	uow.AssertNotCalled(t, "Do", mock.Anything, mock.Anything)
}

func TestCreate_InsufficientBalance(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	ledgerRepo := new(mocks.MockLedgerRepository)
	withdrawalRepo := new(mocks.MockWithdrawalRepository)
	historyRepo := new(mocks.MockHistoryRepository)
	bus := infra_eventbus.NewWithMemory(testLogger())
	storeID := uuid.New()

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("LedgerRepository").Return(ledgerRepo, nil)
	uow.On("WithdrawalRepository").Return(withdrawalRepo, nil)
	uow.On("HistoryRepository").Return(historyRepo, nil)
	ledgerRepo.On("GetForUpdate", mock.Anything, storeID).
		Return(ledgerWithAvailable(t, storeID, 2_000), nil).Once()

	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	_, err := svc.Create(context.Background(), dto.WithdrawalCreate{
		StoreID:     storeID,
		Amount:      5_000,
		Method:      "mobile_money",
		Details:     mobileMoneyJSON(t),
		RequestedBy: uuid.New(),
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInsufficientBalance)

	withdrawalRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	assert.Empty(t, bus.Published())
}

func TestTransition_CompleteDebitsLedger(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	ledgerRepo := new(mocks.MockLedgerRepository)
	withdrawalRepo := new(mocks.MockWithdrawalRepository)
	historyRepo := new(mocks.MockHistoryRepository)
	bus := infra_eventbus.NewWithMemory(testLogger())
	storeID := uuid.New()

	r := processingRequest(t, storeID, 5_000)
	l := ledgerWithAvailable(t, storeID, 50_000)

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("LedgerRepository").Return(ledgerRepo, nil)
	uow.On("WithdrawalRepository").Return(withdrawalRepo, nil)
	uow.On("HistoryRepository").Return(historyRepo, nil)
	withdrawalRepo.On("GetForUpdate", mock.Anything, r.ID).Return(r, nil).Once()
	withdrawalRepo.On("Update", mock.Anything, r).Return(nil).Once()
	ledgerRepo.On("GetForUpdate", mock.Anything, storeID).Return(l, nil).Once()
	ledgerRepo.On("Upsert", mock.Anything, l).Return(nil).Once()
	historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil).Once()

	actor := uuid.New()
	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	read, err := svc.Transition(context.Background(), dto.WithdrawalTransition{
		RequestID:            r.ID,
		NewStatus:            "completed",
		Actor:                actor,
		TransactionReference: "MPESA-89AB",
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", read.Status)
	assert.Equal(t, "MPESA-89AB", read.TransactionReference)

	assert.Equal(t, money.Amount(5_000), l.TotalWithdrawn.Amount())
	assert.Equal(t, money.Amount(45_000), l.Available().Amount())
	require.Len(t, bus.Published(), 1)
	ledgerRepo.AssertExpectations(t)
	historyRepo.AssertExpectations(t)
}

func TestTransition_NoDoubleSpend(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	ledgerRepo := new(mocks.MockLedgerRepository)
	withdrawalRepo := new(mocks.MockWithdrawalRepository)
	historyRepo := new(mocks.MockHistoryRepository)
	bus := infra_eventbus.NewWithMemory(testLogger())
	storeID := uuid.New()

	// Both requests individually fit within the 1000 balance, but not
	// together. The shared ledger row stands in for the locked DB row.
	first := processingRequest(t, storeID, 600)
	second := processingRequest(t, storeID, 600)
	l := ledgerWithAvailable(t, storeID, 1_000)

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("LedgerRepository").Return(ledgerRepo, nil)
	uow.On("WithdrawalRepository").Return(withdrawalRepo, nil)
	uow.On("HistoryRepository").Return(historyRepo, nil)
	withdrawalRepo.On("GetForUpdate", mock.Anything, first.ID).Return(first, nil).Once()
	withdrawalRepo.On("GetForUpdate", mock.Anything, second.ID).Return(second, nil).Once()
	withdrawalRepo.On("Update", mock.Anything, mock.Anything).Return(nil)
	ledgerRepo.On("GetForUpdate", mock.Anything, storeID).Return(l, nil)
	ledgerRepo.On("Upsert", mock.Anything, l).Return(nil)
	historyRepo.On("Append", mock.Anything, mock.Anything).Return(nil)

	actor := uuid.New()
	svc := withdrawalsvc.NewService(testDeps(uow, bus))

	_, err := svc.Transition(context.Background(), dto.WithdrawalTransition{
		RequestID: first.ID, NewStatus: "completed", Actor: actor,
	})
	require.NoError(t, err)

	_, err = svc.Transition(context.Background(), dto.WithdrawalTransition{
		RequestID: second.ID, NewStatus: "completed", Actor: actor,
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInsufficientBalance)

	// Exactly one completion debited the ledger.
	assert.Equal(t, money.Amount(600), l.TotalWithdrawn.Amount())
	assert.Equal(t, money.Amount(400), l.Available().Amount())
	require.Len(t, bus.Published(), 1)
}

func TestTransition_TerminalIdempotent(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	ledgerRepo := new(mocks.MockLedgerRepository)
	withdrawalRepo := new(mocks.MockWithdrawalRepository)
	historyRepo := new(mocks.MockHistoryRepository)
	bus := infra_eventbus.NewWithMemory(testLogger())
	storeID := uuid.New()

	r := processingRequest(t, storeID, 5_000)
	_, err := r.Apply(withdrawaldomain.Transition{
		To:    withdrawaldomain.StatusCompleted,
		Actor: uuid.New(),
	}, time.Now().UTC())
	require.NoError(t, err)

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("LedgerRepository").Return(ledgerRepo, nil)
	uow.On("WithdrawalRepository").Return(withdrawalRepo, nil)
	uow.On("HistoryRepository").Return(historyRepo, nil)
	withdrawalRepo.On("GetForUpdate", mock.Anything, r.ID).Return(r, nil).Once()

	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	read, err := svc.Transition(context.Background(), dto.WithdrawalTransition{
		RequestID: r.ID, NewStatus: "completed", Actor: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, "completed", read.Status)

	// A repeated terminal apply writes nothing and publishes nothing.
	withdrawalRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	ledgerRepo.AssertNotCalled(t, "GetForUpdate", mock.Anything, mock.Anything)
	historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	assert.Empty(t, bus.Published())
}

func TestTransition_StoreScopeHidesForeignRequest(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	withdrawalRepo := new(mocks.MockWithdrawalRepository)
	historyRepo := new(mocks.MockHistoryRepository)
	bus := infra_eventbus.NewWithMemory(testLogger())

	r, err := withdrawaldomain.New().
		WithStoreID(uuid.New()).
		WithAmount(money.Must(5_000, money.USD)).
		WithDetails(withdrawaldomain.MobileMoneyDetails{
			Phone: "+254700000000", Operator: "m-pesa", Country: "KE",
		}).
		WithRequestedBy(uuid.New()).
		Build()
	require.NoError(t, err)

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("WithdrawalRepository").Return(withdrawalRepo, nil)
	uow.On("HistoryRepository").Return(historyRepo, nil)
	withdrawalRepo.On("GetForUpdate", mock.Anything, r.ID).Return(r, nil).Once()

	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	_, err = svc.Transition(context.Background(), dto.WithdrawalTransition{
		RequestID: r.ID,
		StoreID:   uuid.New(),
		NewStatus: "cancelled",
		Actor:     uuid.New(),
	})
	require.ErrorIs(t, err, withdrawaldomain.ErrRequestNotFound)
	assert.Equal(t, withdrawaldomain.StatusPending, r.Status)
	withdrawalRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	historyRepo.AssertNotCalled(t, "Append", mock.Anything, mock.Anything)
	assert.Empty(t, bus.Published())
}

func TestAnnotate_TerminalRequest(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	withdrawalRepo := new(mocks.MockWithdrawalRepository)
	bus := infra_eventbus.NewWithMemory(testLogger())
	storeID := uuid.New()

	r := processingRequest(t, storeID, 5_000)
	_, err := r.Apply(withdrawaldomain.Transition{
		To:    withdrawaldomain.StatusFailed,
		Actor: uuid.New(),
	}, time.Now().UTC())
	require.NoError(t, err)

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("WithdrawalRepository").Return(withdrawalRepo, nil)
	withdrawalRepo.On("GetForUpdate", mock.Anything, r.ID).Return(r, nil).Once()
	withdrawalRepo.On("Update", mock.Anything, r).Return(nil).Once()

	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	read, err := svc.Annotate(context.Background(), storeID, r.ID, "bank rejected the account number")
	require.NoError(t, err)
	assert.Contains(t, read.AdminNotes, "bank rejected the account number")
	withdrawalRepo.AssertExpectations(t)
}

func TestAnnotate_OtherStoreHidden(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	withdrawalRepo := new(mocks.MockWithdrawalRepository)
	bus := infra_eventbus.NewWithMemory(testLogger())

	r := processingRequest(t, uuid.New(), 5_000)

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("WithdrawalRepository").Return(withdrawalRepo, nil)
	withdrawalRepo.On("GetForUpdate", mock.Anything, r.ID).Return(r, nil).Once()

	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	_, err := svc.Annotate(context.Background(), uuid.New(), r.ID, "note")
	assert.ErrorIs(t, err, withdrawaldomain.ErrRequestNotFound)
	withdrawalRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestTransition_Illegal(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	withdrawalRepo := new(mocks.MockWithdrawalRepository)
	historyRepo := new(mocks.MockHistoryRepository)
	bus := infra_eventbus.NewWithMemory(testLogger())
	storeID := uuid.New()

	r, err := withdrawaldomain.New().
		WithStoreID(storeID).
		WithAmount(money.Must(5_000, money.USD)).
		WithDetails(withdrawaldomain.MobileMoneyDetails{
			Phone:      "+254700000000",
			Operator:   "m-pesa",
			Country:    "KE",
			HolderName: "Asha Mwangi",
		}).
		WithRequestedBy(uuid.New()).
		Build()
	require.NoError(t, err)

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("WithdrawalRepository").Return(withdrawalRepo, nil)
	uow.On("HistoryRepository").Return(historyRepo, nil)
	withdrawalRepo.On("GetForUpdate", mock.Anything, r.ID).Return(r, nil).Once()

	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	_, err = svc.Transition(context.Background(), dto.WithdrawalTransition{
		RequestID: r.ID, NewStatus: "completed", Actor: uuid.New(),
	})
	require.ErrorIs(t, err, withdrawaldomain.ErrInvalidTransition)
	assert.Equal(t, withdrawaldomain.StatusPending, r.Status)
	assert.Empty(t, bus.Published())
}

func TestHistory_MapsEntries(t *testing.T) {
	t.Parallel()
	uow := new(mocks.MockUnitOfWork)
	historyRepo := new(mocks.MockHistoryRepository)
	bus := infra_eventbus.NewWithMemory(testLogger())
	withdrawalID := uuid.New()
	actor := uuid.New()

	entries := []withdrawaldomain.StatusHistoryEntry{
		withdrawaldomain.NewHistoryEntry(withdrawalID, "", withdrawaldomain.StatusPending, actor, "", time.Now().UTC()),
		withdrawaldomain.NewHistoryEntry(withdrawalID, withdrawaldomain.StatusPending, withdrawaldomain.StatusProcessing, actor, "paying out", time.Now().UTC()),
	}
	entries[0].Sequence = 1
	entries[1].Sequence = 2

	uow.On("Do", mock.Anything, mock.Anything).Return(nil)
	uow.On("HistoryRepository").Return(historyRepo, nil)
	historyRepo.On("List", mock.Anything, withdrawalID).Return(entries, nil).Once()

	svc := withdrawalsvc.NewService(testDeps(uow, bus))
	got, err := svc.History(context.Background(), withdrawalID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Sequence)
	assert.Equal(t, "processing", got[1].NewStatus)
	assert.Equal(t, "paying out", got[1].Reason)
}
