package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Ledger is the earnings ledger row. One row per store, keyed by the
// store itself.
type Ledger struct {
	StoreID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	Currency                string    `gorm:"type:varchar(3);not null;default:'USD'"`
	TotalRevenue            int64     `gorm:"not null;default:0"`
	TotalPlatformCommission int64     `gorm:"not null;default:0"`
	TotalWithdrawn          int64     `gorm:"not null;default:0"`
	CommissionRate          float64   `gorm:"not null;default:0"`
	AvailableBalance        int64     `gorm:"not null;default:0"`
	LastCalculatedAt        time.Time
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

// TableName specifies the table name for the Ledger model.
func (Ledger) TableName() string {
	return "earnings_ledgers"
}
