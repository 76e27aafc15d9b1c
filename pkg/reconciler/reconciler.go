// Package reconciler keeps interactive clients' balance views
// consistent while mutations are in flight.
//
// Each attached store runs a small state machine. A server push arriving
// while the client shows an optimistic view is queued instead of applied,
// so the stale-but-authoritative push cannot clobber the optimistic
// value mid-mutation; the newest queued push is reconciled against the
// mutation's own result once it lands.
package reconciler

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/domain/common"
	"github.com/sellerhub/payouts/pkg/domain/events"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/eventbus"
)

var (
	// ErrNotAttached is returned for operations on a store that has no
	// active attachment.
	ErrNotAttached = errors.New("store is not attached")

	// ErrMutationInFlight is returned when a second optimistic mutation
	// starts before the first resolves.
	ErrMutationInFlight = errors.New("optimistic mutation already in flight")

	// ErrNoMutationInFlight is returned when Resolve or Abort is called
	// without a preceding BeginOptimistic.
	ErrNoMutationInFlight = errors.New("no optimistic mutation in flight")
)

// State is the per-store reconciliation phase.
type State int

// Per-store phases.
const (
	// Idle: attached, no view applied yet.
	Idle State = iota
	// OptimisticPending: the client shows a locally predicted view while
	// a mutation is in flight; server pushes are queued.
	OptimisticPending
	// Reconciled: the applied view is the authoritative server view.
	Reconciled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case OptimisticPending:
		return "optimistic_pending"
	case Reconciled:
		return "reconciled"
	}
	return "unknown"
}

type storeState struct {
	state State

	// view is what the client currently shows; prior backs it up while
	// an optimistic view is displayed, for Abort.
	view  *dto.LedgerRead
	prior *dto.LedgerRead

	// queued is the newest server push deferred during an in-flight
	// mutation. Latest wins; older pushes are dropped.
	queued *dto.LedgerRead

	subs        map[int]chan dto.LedgerRead
	unsubscribe eventbus.UnsubscribeFunc
}

// Reconciler tracks attached stores and routes ledger pushes to them.
type Reconciler struct {
	bus    eventbus.Bus
	logger *slog.Logger

	mu      sync.Mutex
	stores  map[uuid.UUID]*storeState
	nextSub int
}

// New creates a Reconciler on the given bus.
func New(bus eventbus.Bus, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		bus:    bus,
		logger: logger.With("component", "reconciler"),
		stores: make(map[uuid.UUID]*storeState),
	}
}

// Attach starts tracking a store and subscribes it to ledger pushes.
// Attaching an already attached store is a no-op.
func (r *Reconciler) Attach(storeID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.stores[storeID]; ok {
		return
	}
	st := &storeState{
		state: Idle,
		subs:  make(map[int]chan dto.LedgerRead),
	}
	r.stores[storeID] = st
	st.unsubscribe = r.bus.Register(events.EventTypeLedgerRecalculated,
		func(ctx context.Context, e common.Event) error {
			evt, ok := e.(*events.LedgerRecalculated)
			if !ok || evt.StoreID != storeID {
				return nil
			}
			r.push(storeID, evt.Ledger)
			return nil
		})
}

// Detach stops tracking a store, unsubscribes it from the bus and
// closes its subscriber channels. Detaching an unattached store is a
// no-op.
func (r *Reconciler) Detach(storeID uuid.UUID) {
	r.mu.Lock()
	st, ok := r.stores[storeID]
	if ok {
		delete(r.stores, storeID)
	}
	r.mu.Unlock()
	if !ok {
		return
	}
	st.unsubscribe()
	for _, ch := range st.subs {
		close(ch)
	}
}

// push applies or queues one authoritative server view.
func (r *Reconciler) push(storeID uuid.UUID, view dto.LedgerRead) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[storeID]
	if !ok {
		return
	}
	if st.state == OptimisticPending {
		st.queued = &view
		r.logger.Debug("server push queued behind optimistic view", "store_id", storeID)
		return
	}
	st.view = &view
	st.state = Reconciled
	r.broadcast(st, view)
}

// BeginOptimistic applies a locally predicted view ahead of the
// mutation's result. Exactly one mutation may be in flight per store.
func (r *Reconciler) BeginOptimistic(storeID uuid.UUID, predicted dto.LedgerRead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[storeID]
	if !ok {
		return ErrNotAttached
	}
	if st.state == OptimisticPending {
		return ErrMutationInFlight
	}
	st.prior = st.view
	st.view = &predicted
	st.state = OptimisticPending
	r.broadcast(st, predicted)
	return nil
}

// Resolve completes the in-flight mutation with its authoritative
// result. A server push queued during the mutation wins over the result
// when it is newer.
func (r *Reconciler) Resolve(storeID uuid.UUID, result dto.LedgerRead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[storeID]
	if !ok {
		return ErrNotAttached
	}
	if st.state != OptimisticPending {
		return ErrNoMutationInFlight
	}
	final := result
	if st.queued != nil && st.queued.LastCalculatedAt.After(result.LastCalculatedAt) {
		final = *st.queued
	}
	st.queued = nil
	st.prior = nil
	st.view = &final
	st.state = Reconciled
	r.broadcast(st, final)
	return nil
}

// Abort rolls back the optimistic view after a failed mutation. A
// queued server push is applied; otherwise the pre-mutation view is
// restored.
func (r *Reconciler) Abort(storeID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[storeID]
	if !ok {
		return ErrNotAttached
	}
	if st.state != OptimisticPending {
		return ErrNoMutationInFlight
	}
	switch {
	case st.queued != nil:
		st.view = st.queued
		st.state = Reconciled
	case st.prior != nil:
		st.view = st.prior
		st.state = Reconciled
	default:
		st.view = nil
		st.state = Idle
	}
	st.queued = nil
	st.prior = nil
	if st.view != nil {
		r.broadcast(st, *st.view)
	}
	return nil
}

// View returns the store's current client-facing view, if any.
func (r *Reconciler) View(storeID uuid.UUID) (dto.LedgerRead, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[storeID]
	if !ok || st.view == nil {
		return dto.LedgerRead{}, false
	}
	return *st.view, true
}

// StateOf returns the store's reconciliation phase.
func (r *Reconciler) StateOf(storeID uuid.UUID) (State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[storeID]
	if !ok {
		return Idle, false
	}
	return st.state, true
}

// Subscribe streams every applied view for the store. The channel is
// buffered; a subscriber that falls behind misses intermediate views
// rather than blocking the reconciler. The returned func removes the
// subscription.
func (r *Reconciler) Subscribe(storeID uuid.UUID) (<-chan dto.LedgerRead, func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.stores[storeID]
	if !ok {
		return nil, nil, ErrNotAttached
	}
	id := r.nextSub
	r.nextSub++
	ch := make(chan dto.LedgerRead, 16)
	st.subs[id] = ch
	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if cur, ok := r.stores[storeID]; ok {
			if c, ok := cur.subs[id]; ok {
				delete(cur.subs, id)
				close(c)
			}
		}
	}
	return ch, cancel, nil
}

// broadcast fans one view out to the store's subscribers. Callers hold
// r.mu.
func (r *Reconciler) broadcast(st *storeState, view dto.LedgerRead) {
	for _, ch := range st.subs {
		select {
		case ch <- view:
		default:
		}
	}
}
