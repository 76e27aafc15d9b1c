// Package destination contains seller-declared payout destinations.
//
// A destination is pure data: a labelled payment-details variant plus a
// default flag. At most one destination per store may be the default,
// across all methods; the registry service enforces that inside one
// transaction.
package destination

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/domain/withdrawal"
)

var (
	// ErrDestinationNotFound is returned when a destination does not
	// exist for the store.
	ErrDestinationNotFound = errors.New("payment destination not found")

	// ErrLabelRequired is returned when a destination carries no label.
	ErrLabelRequired = errors.New("destination label is required")
)

// Destination is a saved payout target for a store.
type Destination struct {
	ID        uuid.UUID
	StoreID   uuid.UUID
	Method    withdrawal.Method
	Label     string
	Details   withdrawal.Details
	IsDefault bool
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// New validates the inputs and returns an active destination.
func New(storeID uuid.UUID, label string, details withdrawal.Details) (*Destination, error) {
	if storeID == uuid.Nil {
		return nil, errors.New("store id is required")
	}
	if strings.TrimSpace(label) == "" {
		return nil, ErrLabelRequired
	}
	if details == nil {
		return nil, withdrawal.ErrInvalidPaymentDetails
	}
	if err := details.Validate(); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Destination{
		ID:        uuid.New(),
		StoreID:   storeID,
		Method:    details.Method(),
		Label:     label,
		Details:   details,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
