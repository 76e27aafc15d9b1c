package withdrawal

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistoryEntry is one row of the append-only audit trail. Entries
// are never updated or deleted; Sequence orders them per withdrawal.
type StatusHistoryEntry struct {
	ID           uuid.UUID
	WithdrawalID uuid.UUID
	Sequence     int
	OldStatus    Status
	NewStatus    Status
	ChangedBy    uuid.UUID
	Reason       string
	CreatedAt    time.Time
}

// NewHistoryEntry records a single transition for the audit trail.
func NewHistoryEntry(withdrawalID uuid.UUID, old, next Status, actor uuid.UUID, reason string, at time.Time) StatusHistoryEntry {
	return StatusHistoryEntry{
		ID:           uuid.New(),
		WithdrawalID: withdrawalID,
		OldStatus:    old,
		NewStatus:    next,
		ChangedBy:    actor,
		Reason:       reason,
		CreatedAt:    at,
	}
}
