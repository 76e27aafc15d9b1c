package reconciler_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	infra_eventbus "github.com/sellerhub/payouts/infra/eventbus"
	"github.com/sellerhub/payouts/pkg/domain/events"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/money"
	"github.com/sellerhub/payouts/pkg/reconciler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func view(storeID uuid.UUID, available money.Amount, at time.Time) dto.LedgerRead {
	return dto.LedgerRead{
		StoreID:          storeID,
		Currency:         "USD",
		AvailableBalance: money.Must(available, money.USD),
		LastCalculatedAt: at,
	}
}

func emit(t *testing.T, bus *infra_eventbus.MemoryEventBus, v dto.LedgerRead) {
	t.Helper()
	require.NoError(t, bus.Emit(context.Background(), &events.LedgerRecalculated{
		StoreID:       v.StoreID,
		Ledger:        v,
		CorrelationID: uuid.New(),
		OccurredAt:    v.LastCalculatedAt,
	}))
}

func TestAttach_AppliesServerPush(t *testing.T) {
	t.Parallel()
	bus := infra_eventbus.NewWithMemory(testLogger())
	r := reconciler.New(bus, testLogger())
	storeID := uuid.New()

	r.Attach(storeID)
	state, ok := r.StateOf(storeID)
	require.True(t, ok)
	assert.Equal(t, reconciler.Idle, state)

	emit(t, bus, view(storeID, 65_000, time.Now().UTC()))

	state, _ = r.StateOf(storeID)
	assert.Equal(t, reconciler.Reconciled, state)
	got, ok := r.View(storeID)
	require.True(t, ok)
	assert.Equal(t, money.Amount(65_000), got.AvailableBalance.Amount())
}

func TestPush_IgnoresOtherStores(t *testing.T) {
	t.Parallel()
	bus := infra_eventbus.NewWithMemory(testLogger())
	r := reconciler.New(bus, testLogger())
	storeID := uuid.New()

	r.Attach(storeID)
	emit(t, bus, view(uuid.New(), 99_000, time.Now().UTC()))

	_, ok := r.View(storeID)
	assert.False(t, ok)
}

func TestOptimistic_QueuesServerPush(t *testing.T) {
	t.Parallel()
	bus := infra_eventbus.NewWithMemory(testLogger())
	r := reconciler.New(bus, testLogger())
	storeID := uuid.New()
	base := time.Now().UTC()

	r.Attach(storeID)
	emit(t, bus, view(storeID, 10_000, base))

	// The client predicts the balance after a 4000 withdrawal.
	require.NoError(t, r.BeginOptimistic(storeID, view(storeID, 6_000, base)))

	// A stale push arrives mid-mutation. It must not clobber the
	// optimistic value.
	emit(t, bus, view(storeID, 10_000, base.Add(time.Second)))
	got, _ := r.View(storeID)
	assert.Equal(t, money.Amount(6_000), got.AvailableBalance.Amount())
	state, _ := r.StateOf(storeID)
	assert.Equal(t, reconciler.OptimisticPending, state)
}

func TestResolve_NewerQueuedPushWins(t *testing.T) {
	t.Parallel()
	bus := infra_eventbus.NewWithMemory(testLogger())
	r := reconciler.New(bus, testLogger())
	storeID := uuid.New()
	base := time.Now().UTC()

	r.Attach(storeID)
	require.NoError(t, r.BeginOptimistic(storeID, view(storeID, 6_000, base)))

	// Another recalculation lands during the mutation, newer than the
	// mutation's own result.
	emit(t, bus, view(storeID, 5_500, base.Add(2*time.Second)))

	require.NoError(t, r.Resolve(storeID, view(storeID, 6_000, base.Add(time.Second))))
	got, _ := r.View(storeID)
	assert.Equal(t, money.Amount(5_500), got.AvailableBalance.Amount())
	state, _ := r.StateOf(storeID)
	assert.Equal(t, reconciler.Reconciled, state)
}

func TestResolve_ResultWinsWithoutQueuedPush(t *testing.T) {
	t.Parallel()
	bus := infra_eventbus.NewWithMemory(testLogger())
	r := reconciler.New(bus, testLogger())
	storeID := uuid.New()
	base := time.Now().UTC()

	r.Attach(storeID)
	require.NoError(t, r.BeginOptimistic(storeID, view(storeID, 6_000, base)))
	require.NoError(t, r.Resolve(storeID, view(storeID, 6_200, base.Add(time.Second))))

	got, _ := r.View(storeID)
	assert.Equal(t, money.Amount(6_200), got.AvailableBalance.Amount())
}

func TestAbort_RestoresPriorView(t *testing.T) {
	t.Parallel()
	bus := infra_eventbus.NewWithMemory(testLogger())
	r := reconciler.New(bus, testLogger())
	storeID := uuid.New()
	base := time.Now().UTC()

	r.Attach(storeID)
	emit(t, bus, view(storeID, 10_000, base))
	require.NoError(t, r.BeginOptimistic(storeID, view(storeID, 6_000, base)))
	require.NoError(t, r.Abort(storeID))

	got, _ := r.View(storeID)
	assert.Equal(t, money.Amount(10_000), got.AvailableBalance.Amount())
	state, _ := r.StateOf(storeID)
	assert.Equal(t, reconciler.Reconciled, state)
}

func TestAbort_AppliesQueuedPush(t *testing.T) {
	t.Parallel()
	bus := infra_eventbus.NewWithMemory(testLogger())
	r := reconciler.New(bus, testLogger())
	storeID := uuid.New()
	base := time.Now().UTC()

	r.Attach(storeID)
	require.NoError(t, r.BeginOptimistic(storeID, view(storeID, 6_000, base)))
	emit(t, bus, view(storeID, 7_000, base.Add(time.Second)))
	require.NoError(t, r.Abort(storeID))

	got, _ := r.View(storeID)
	assert.Equal(t, money.Amount(7_000), got.AvailableBalance.Amount())
}

func TestOnlyOneMutationInFlight(t *testing.T) {
	t.Parallel()
	bus := infra_eventbus.NewWithMemory(testLogger())
	r := reconciler.New(bus, testLogger())
	storeID := uuid.New()
	base := time.Now().UTC()

	r.Attach(storeID)
	require.NoError(t, r.BeginOptimistic(storeID, view(storeID, 6_000, base)))
	err := r.BeginOptimistic(storeID, view(storeID, 5_000, base))
	assert.ErrorIs(t, err, reconciler.ErrMutationInFlight)
}

func TestNotAttached(t *testing.T) {
	t.Parallel()
	bus := infra_eventbus.NewWithMemory(testLogger())
	r := reconciler.New(bus, testLogger())
	storeID := uuid.New()

	assert.ErrorIs(t, r.BeginOptimistic(storeID, dto.LedgerRead{}), reconciler.ErrNotAttached)
	assert.ErrorIs(t, r.Resolve(storeID, dto.LedgerRead{}), reconciler.ErrNotAttached)
	assert.ErrorIs(t, r.Abort(storeID), reconciler.ErrNotAttached)
	_, _, err := r.Subscribe(storeID)
	assert.ErrorIs(t, err, reconciler.ErrNotAttached)
}

func TestSubscribe_StreamsAppliedViews(t *testing.T) {
	t.Parallel()
	bus := infra_eventbus.NewWithMemory(testLogger())
	r := reconciler.New(bus, testLogger())
	storeID := uuid.New()
	base := time.Now().UTC()

	r.Attach(storeID)
	ch, cancel, err := r.Subscribe(storeID)
	require.NoError(t, err)
	defer cancel()

	emit(t, bus, view(storeID, 10_000, base))
	require.NoError(t, r.BeginOptimistic(storeID, view(storeID, 6_000, base)))
	require.NoError(t, r.Resolve(storeID, view(storeID, 6_000, base.Add(time.Second))))

	// Server push, optimistic view, resolved view, in order.
	got := []money.Amount{}
	for i := 0; i < 3; i++ {
		select {
		case v := <-ch:
			got = append(got, v.AvailableBalance.Amount())
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for view")
		}
	}
	assert.Equal(t, []money.Amount{10_000, 6_000, 6_000}, got)
}

func TestDetach_ClosesSubscribers(t *testing.T) {
	t.Parallel()
	bus := infra_eventbus.NewWithMemory(testLogger())
	r := reconciler.New(bus, testLogger())
	storeID := uuid.New()

	r.Attach(storeID)
	ch, _, err := r.Subscribe(storeID)
	require.NoError(t, err)

	r.Detach(storeID)
	_, open := <-ch
	assert.False(t, open)

	// Pushes after detach go nowhere.
	emit(t, bus, view(storeID, 10_000, time.Now().UTC()))
	_, ok := r.View(storeID)
	assert.False(t, ok)
}
