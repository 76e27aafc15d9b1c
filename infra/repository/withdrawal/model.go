package withdrawal

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Request is a withdrawal request row. The payment details variant is
// stored as JSON next to its method discriminator.
type Request struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreID              uuid.UUID `gorm:"type:uuid;index;not null"`
	Amount               int64     `gorm:"not null"`
	Currency             string    `gorm:"type:varchar(3);not null;default:'USD'"`
	Method               string    `gorm:"type:varchar(32);not null"`
	Details              datatypes.JSON
	Status               string `gorm:"type:varchar(16);index;not null"`
	Notes                string
	AdminNotes           string
	TransactionReference string
	ProofURL             string
	RequestedBy          uuid.UUID `gorm:"type:uuid"`
	ProcessedBy          uuid.UUID `gorm:"type:uuid"`
	CreatedAt            time.Time `gorm:"index"`
	UpdatedAt            time.Time
	ProcessingAt         *time.Time
	CompletedAt          *time.Time
	FailedAt             *time.Time
	CancelledAt          *time.Time
}

// TableName specifies the table name for the Request model.
func (Request) TableName() string {
	return "withdrawal_requests"
}
