// Package events defines the domain events published on the event bus.
// The realtime reconciler and the out-of-scope notification layer are
// the consumers.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/money"
)

// Event type discriminators used for bus routing.
const (
	EventTypeLedgerRecalculated     = "LedgerRecalculated"
	EventTypeWithdrawalCreated      = "WithdrawalCreated"
	EventTypeWithdrawalTransitioned = "WithdrawalTransitioned"
)

// LedgerRecalculated is published after every successful ledger rewrite,
// carrying the authoritative post-recalculation view.
type LedgerRecalculated struct {
	StoreID       uuid.UUID      `json:"store_id"`
	Ledger        dto.LedgerRead `json:"ledger"`
	CorrelationID uuid.UUID      `json:"correlation_id"`
	OccurredAt    time.Time      `json:"occurred_at"`
}

// Type implements common.Event.
func (LedgerRecalculated) Type() string { return EventTypeLedgerRecalculated }

// WithdrawalCreated is published when a request is persisted in pending.
type WithdrawalCreated struct {
	StoreID      uuid.UUID   `json:"store_id"`
	WithdrawalID uuid.UUID   `json:"withdrawal_id"`
	Amount       money.Money `json:"amount"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

// Type implements common.Event.
func (WithdrawalCreated) Type() string { return EventTypeWithdrawalCreated }

// WithdrawalTransitioned is published on every applied status change.
type WithdrawalTransitioned struct {
	StoreID      uuid.UUID `json:"store_id"`
	WithdrawalID uuid.UUID `json:"withdrawal_id"`
	OldStatus    string    `json:"old_status"`
	NewStatus    string    `json:"new_status"`
	ChangedBy    uuid.UUID `json:"changed_by"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Type implements common.Event.
func (WithdrawalTransitioned) Type() string { return EventTypeWithdrawalTransitioned }
