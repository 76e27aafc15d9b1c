package history

import (
	"time"

	"github.com/google/uuid"
)

// Entry is one append-only status transition row. Rows are never
// updated or deleted.
type Entry struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	WithdrawalID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_withdrawal_seq"`
	Sequence     int       `gorm:"not null;uniqueIndex:idx_withdrawal_seq"`
	OldStatus    string    `gorm:"type:varchar(16)"`
	NewStatus    string    `gorm:"type:varchar(16);not null"`
	ChangedBy    uuid.UUID `gorm:"type:uuid"`
	Reason       string
	CreatedAt    time.Time
}

// TableName specifies the table name for the Entry model.
func (Entry) TableName() string {
	return "withdrawal_status_history"
}
