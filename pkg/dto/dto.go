// Package dto defines the read and write models exchanged between the
// service layer, the HTTP surface and the event bus. They decouple
// callers from domain aggregates and repository rows.
package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/money"
)

// LedgerRead is the balance view handed to callers and pushed to
// subscribers.
type LedgerRead struct {
	StoreID                 uuid.UUID   `json:"store_id"`
	Currency                string      `json:"currency"`
	TotalRevenue            money.Money `json:"total_revenue"`
	TotalPlatformCommission money.Money `json:"total_platform_commission"`
	TotalWithdrawn          money.Money `json:"total_withdrawn"`
	CommissionRate          float64     `json:"commission_rate"`
	AvailableBalance        money.Money `json:"available_balance"`
	LastCalculatedAt        time.Time   `json:"last_calculated_at"`
}

// WithdrawalCreate carries a seller's withdrawal request into the
// service layer. Details is the raw variant payload, decoded against
// Method.
type WithdrawalCreate struct {
	StoreID     uuid.UUID
	Amount      money.Amount
	Currency    string
	Method      string
	Details     []byte
	Notes       string
	RequestedBy uuid.UUID
}

// WithdrawalTransition carries a status-change command. A non-nil
// StoreID restricts the command to requests of that store; foreign
// requests surface as not found.
type WithdrawalTransition struct {
	RequestID            uuid.UUID
	StoreID              uuid.UUID
	NewStatus            string
	Actor                uuid.UUID
	Reason               string
	TransactionReference string
	ProofURL             string
}

// WithdrawalRead is the request view returned to callers.
type WithdrawalRead struct {
	ID                   uuid.UUID   `json:"id"`
	StoreID              uuid.UUID   `json:"store_id"`
	Amount               money.Money `json:"amount"`
	Method               string      `json:"method"`
	Details              any         `json:"details"`
	Status               string      `json:"status"`
	Notes                string      `json:"notes,omitempty"`
	AdminNotes           string      `json:"admin_notes,omitempty"`
	TransactionReference string      `json:"transaction_reference,omitempty"`
	ProofURL             string      `json:"proof_url,omitempty"`
	RequestedBy          uuid.UUID   `json:"requested_by"`
	ProcessedBy          uuid.UUID   `json:"processed_by,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
	ProcessingAt         *time.Time  `json:"processing_at,omitempty"`
	CompletedAt          *time.Time  `json:"completed_at,omitempty"`
	FailedAt             *time.Time  `json:"failed_at,omitempty"`
	CancelledAt          *time.Time  `json:"cancelled_at,omitempty"`
}

// WithdrawalFilter narrows ListWithdrawals.
type WithdrawalFilter struct {
	Status        string
	Method        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// HistoryRead is one audit-trail row.
type HistoryRead struct {
	WithdrawalID uuid.UUID `json:"withdrawal_id"`
	Sequence     int       `json:"sequence"`
	OldStatus    string    `json:"old_status"`
	NewStatus    string    `json:"new_status"`
	ChangedBy    uuid.UUID `json:"changed_by"`
	Reason       string    `json:"reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DestinationUpsert carries a destination create-or-update.
type DestinationUpsert struct {
	ID      uuid.UUID // Nil for create
	StoreID uuid.UUID
	Label   string
	Method  string
	Details []byte
}

// DestinationRead is the destination view returned to callers.
type DestinationRead struct {
	ID        uuid.UUID `json:"id"`
	StoreID   uuid.UUID `json:"store_id"`
	Method    string    `json:"method"`
	Label     string    `json:"label"`
	Details   any       `json:"details"`
	IsDefault bool      `json:"is_default"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
