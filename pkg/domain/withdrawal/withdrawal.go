// Package withdrawal contains the withdrawal request aggregate and its
// state machine.
//
// A request is created in pending and only ever mutated through Apply,
// which enforces the transition table in status.go. The ledger is debited
// exactly once, when a request reaches completed; creation never holds
// funds.
package withdrawal

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/money"
)

var (
	// ErrAmountMustBePositive is returned when a request amount is not positive.
	ErrAmountMustBePositive = errors.New("withdrawal amount must be positive")

	// ErrBelowMinimumThreshold is returned when a request amount is below
	// the platform minimum.
	ErrBelowMinimumThreshold = errors.New("withdrawal amount below minimum threshold")

	// ErrInvalidPaymentDetails is returned when the details variant is
	// malformed or does not match the declared method.
	ErrInvalidPaymentDetails = errors.New("invalid payment details")

	// ErrInvalidTransition is returned for a move the state machine forbids.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrRequestNotFound is returned when a withdrawal request does not exist.
	ErrRequestNotFound = errors.New("withdrawal request not found")
)

// Request is a seller's withdrawal request.
type Request struct {
	ID         uuid.UUID
	StoreID    uuid.UUID
	Amount     money.Money
	Method     Method
	Details    Details
	Status     Status
	Notes      string
	AdminNotes string

	// Set by the external payment processor once funds actually move.
	TransactionReference string
	ProofURL             string

	RequestedBy uuid.UUID
	ProcessedBy uuid.UUID

	CreatedAt    time.Time
	UpdatedAt    time.Time
	ProcessingAt *time.Time
	CompletedAt  *time.Time
	FailedAt     *time.Time
	CancelledAt  *time.Time
}

// Builder constructs valid withdrawal requests.
type Builder struct {
	id          uuid.UUID
	storeID     uuid.UUID
	amount      money.Money
	details     Details
	notes       string
	requestedBy uuid.UUID
	createdAt   time.Time
}

// New returns a Builder with a generated ID and creation time.
func New() *Builder {
	return &Builder{
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
	}
}

// WithID overrides the generated ID, used for hydration.
func (b *Builder) WithID(id uuid.UUID) *Builder {
	b.id = id
	return b
}

// WithStoreID sets the owning store. Mandatory.
func (b *Builder) WithStoreID(storeID uuid.UUID) *Builder {
	b.storeID = storeID
	return b
}

// WithAmount sets the requested amount. Mandatory.
func (b *Builder) WithAmount(amount money.Money) *Builder {
	b.amount = amount
	return b
}

// WithDetails sets the payout destination details. The method is taken
// from the variant itself. Mandatory.
func (b *Builder) WithDetails(details Details) *Builder {
	b.details = details
	return b
}

// WithNotes sets the seller's free-text note.
func (b *Builder) WithNotes(notes string) *Builder {
	b.notes = notes
	return b
}

// WithRequestedBy sets the requesting actor.
func (b *Builder) WithRequestedBy(actor uuid.UUID) *Builder {
	b.requestedBy = actor
	return b
}

// Build validates the inputs and returns a pending request.
func (b *Builder) Build() (*Request, error) {
	if b.storeID == uuid.Nil {
		return nil, errors.New("store id is required")
	}
	if !b.amount.IsPositive() {
		return nil, ErrAmountMustBePositive
	}
	if b.details == nil {
		return nil, fmt.Errorf("%w: details are required", ErrInvalidPaymentDetails)
	}
	if err := b.details.Validate(); err != nil {
		return nil, err
	}
	return &Request{
		ID:          b.id,
		StoreID:     b.storeID,
		Amount:      b.amount,
		Method:      b.details.Method(),
		Details:     b.details,
		Status:      StatusPending,
		Notes:       b.notes,
		RequestedBy: b.requestedBy,
		CreatedAt:   b.createdAt,
		UpdatedAt:   b.createdAt,
	}, nil
}

// Transition describes a requested status change.
type Transition struct {
	To                   Status
	Actor                uuid.UUID
	Reason               string
	TransactionReference string
	ProofURL             string
}

// Apply moves the request to t.To, stamping the matching timestamp and
// actor. Re-applying the current terminal status is a no-op so retried
// admin actions stay idempotent; any other illegal move returns
// ErrInvalidTransition.
func (r *Request) Apply(t Transition, at time.Time) (noop bool, err error) {
	if r.Status.IsTerminal() && t.To == r.Status {
		return true, nil
	}
	if !r.Status.CanTransitionTo(t.To) {
		return false, fmt.Errorf("%w: %s → %s", ErrInvalidTransition, r.Status, t.To)
	}

	r.Status = t.To
	r.ProcessedBy = t.Actor
	r.UpdatedAt = at
	switch t.To {
	case StatusProcessing:
		r.ProcessingAt = &at
	case StatusCompleted:
		r.CompletedAt = &at
		r.TransactionReference = t.TransactionReference
		r.ProofURL = t.ProofURL
	case StatusFailed:
		r.FailedAt = &at
	case StatusCancelled:
		r.CancelledAt = &at
	}
	if t.Reason != "" {
		if r.AdminNotes != "" {
			r.AdminNotes += "\n"
		}
		r.AdminNotes += t.Reason
	}
	return false, nil
}

// Annotate appends an admin note. Terminal requests stay immutable
// otherwise; the note is the only correction allowed after settlement.
func (r *Request) Annotate(note string, at time.Time) error {
	if note == "" {
		return errors.New("note is required")
	}
	if r.AdminNotes != "" {
		r.AdminNotes += "\n"
	}
	r.AdminNotes += note
	r.UpdatedAt = at
	return nil
}
