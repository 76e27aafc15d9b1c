package destination

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Destination is a saved payout destination row.
type Destination struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreID   uuid.UUID `gorm:"type:uuid;index;not null"`
	Method    string    `gorm:"type:varchar(32);not null"`
	Label     string    `gorm:"not null"`
	Details   datatypes.JSON
	IsDefault bool `gorm:"not null;default:false"`
	IsActive  bool `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for the Destination model.
func (Destination) TableName() string {
	return "payout_destinations"
}
