package webapi

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/config"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/middleware"
	withdrawalsvc "github.com/sellerhub/payouts/pkg/service/withdrawal"
)

// CreateWithdrawalRequest is the create payload.
type CreateWithdrawalRequest struct {
	Amount   int64           `json:"amount" validate:"required,gt=0"`
	Currency string          `json:"currency" validate:"omitempty,len=3"`
	Method   string          `json:"method" validate:"required,oneof=mobile_money bank_card bank_transfer"`
	Details  json.RawMessage `json:"details" validate:"required"`
	Notes    string          `json:"notes" validate:"omitempty,max=500"`
}

// UpdateStatusRequest is the transition payload.
type UpdateStatusRequest struct {
	Status               string `json:"status" validate:"required,oneof=processing completed failed cancelled"`
	Reason               string `json:"reason" validate:"omitempty,max=500"`
	TransactionReference string `json:"transaction_reference" validate:"omitempty,max=128"`
	ProofURL             string `json:"proof_url" validate:"omitempty,url"`
}

// AnnotateRequest is the admin-note payload.
type AnnotateRequest struct {
	Note string `json:"note" validate:"required,max=500"`
}

// WithdrawalRoutes registers the withdrawal lifecycle endpoints.
//
// Routes:
//   - POST  /withdrawals             : Create a new pending request.
//   - GET   /withdrawals             : List the store's requests.
//   - GET   /withdrawals/:id         : One request.
//   - PATCH /withdrawals/:id/status  : Move a request through its state machine.
//   - PATCH /withdrawals/:id/notes   : Append an admin note.
//   - GET   /withdrawals/:id/history : The request's status audit trail.
func WithdrawalRoutes(app *fiber.App, withdrawalSvc *withdrawalsvc.Service, cfg *config.App) {
	app.Post("/withdrawals", middleware.JwtProtected(cfg.Jwt), CreateWithdrawal(withdrawalSvc))
	app.Get("/withdrawals", middleware.JwtProtected(cfg.Jwt), ListWithdrawals(withdrawalSvc))
	app.Get("/withdrawals/:id", middleware.JwtProtected(cfg.Jwt), GetWithdrawal(withdrawalSvc))
	app.Patch("/withdrawals/:id/status", middleware.JwtProtected(cfg.Jwt), UpdateWithdrawalStatus(withdrawalSvc))
	app.Patch("/withdrawals/:id/notes", middleware.JwtProtected(cfg.Jwt), AnnotateWithdrawal(withdrawalSvc))
	app.Get("/withdrawals/:id/history", middleware.JwtProtected(cfg.Jwt), GetWithdrawalHistory(withdrawalSvc))
}

// CreateWithdrawal returns a Fiber handler creating a pending request
// for the caller's store.
func CreateWithdrawal(withdrawalSvc *withdrawalsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := middleware.StoreID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		actor, err := middleware.UserID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		input, err := BindAndValidate[CreateWithdrawalRequest](c)
		if input == nil {
			return err // error response already written
		}

		read, err := withdrawalSvc.Create(c.Context(), dto.WithdrawalCreate{
			StoreID:     storeID,
			Amount:      input.Amount,
			Currency:    input.Currency,
			Method:      input.Method,
			Details:     input.Details,
			Notes:       input.Notes,
			RequestedBy: actor,
		})
		if err != nil {
			log.Errorf("Failed to create withdrawal for store %s: %v", storeID, err)
			return DomainErrorJSON(c, "Failed to create withdrawal", err)
		}
		return SuccessResponseJSON(c, fiber.StatusCreated, "Withdrawal request created", read)
	}
}

// ListWithdrawals returns a Fiber handler listing the store's requests.
// Status, method, limit and offset narrow the result via query params.
func ListWithdrawals(withdrawalSvc *withdrawalsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := middleware.StoreID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		filter := dto.WithdrawalFilter{
			Status: c.Query("status"),
			Method: c.Query("method"),
			Limit:  queryInt(c, "limit", 50),
			Offset: queryInt(c, "offset", 0),
		}
		if after := c.Query("created_after"); after != "" {
			if ts, err := time.Parse(time.RFC3339, after); err == nil {
				filter.CreatedAfter = &ts
			}
		}
		if before := c.Query("created_before"); before != "" {
			if ts, err := time.Parse(time.RFC3339, before); err == nil {
				filter.CreatedBefore = &ts
			}
		}

		reads, err := withdrawalSvc.List(c.Context(), storeID, filter)
		if err != nil {
			log.Errorf("Failed to list withdrawals for store %s: %v", storeID, err)
			return DomainErrorJSON(c, "Failed to list withdrawals", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Withdrawals retrieved", reads)
	}
}

// GetWithdrawal returns a Fiber handler serving one request. A request
// of another store is reported as not found, never as forbidden.
func GetWithdrawal(withdrawalSvc *withdrawalsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := middleware.StoreID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid withdrawal ID", err.Error())
		}
		read, err := withdrawalSvc.Get(c.Context(), id)
		if err != nil {
			return DomainErrorJSON(c, "Failed to get withdrawal", err)
		}
		if read.StoreID != storeID {
			return ErrorResponseJSON(c, fiber.StatusNotFound, "Withdrawal not found", nil)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Withdrawal retrieved", read)
	}
}

// UpdateWithdrawalStatus returns a Fiber handler moving a request
// through its state machine.
func UpdateWithdrawalStatus(withdrawalSvc *withdrawalsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		actor, err := middleware.UserID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid withdrawal ID", err.Error())
		}
		input, err := BindAndValidate[UpdateStatusRequest](c)
		if input == nil {
			return err // error response already written
		}

		// Cancellation is the seller's own action, so it is scoped to
		// the token's store. The remaining transitions come from the
		// platform's payout operators, whose tokens the upstream
		// gateway issues; their store claim is not the request's store.
		var storeScope uuid.UUID
		if input.Status == "cancelled" {
			storeScope, err = middleware.StoreID(c)
			if err != nil {
				return DomainErrorJSON(c, "Unauthorized", err)
			}
		}

		read, err := withdrawalSvc.Transition(c.Context(), dto.WithdrawalTransition{
			RequestID:            id,
			StoreID:              storeScope,
			NewStatus:            input.Status,
			Actor:                actor,
			Reason:               input.Reason,
			TransactionReference: input.TransactionReference,
			ProofURL:             input.ProofURL,
		})
		if err != nil {
			log.Errorf("Failed to transition withdrawal %s: %v", id, err)
			return DomainErrorJSON(c, "Failed to update withdrawal status", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Withdrawal status updated", read)
	}
}

// AnnotateWithdrawal returns a Fiber handler appending an admin note
// to a request. Notes are the only mutation allowed on settled
// requests.
func AnnotateWithdrawal(withdrawalSvc *withdrawalsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := middleware.StoreID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid withdrawal ID", err.Error())
		}
		input, err := BindAndValidate[AnnotateRequest](c)
		if input == nil {
			return err // error response already written
		}

		read, err := withdrawalSvc.Annotate(c.Context(), storeID, id, input.Note)
		if err != nil {
			log.Errorf("Failed to annotate withdrawal %s: %v", id, err)
			return DomainErrorJSON(c, "Failed to annotate withdrawal", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Withdrawal annotated", read)
	}
}

// GetWithdrawalHistory returns a Fiber handler serving the audit trail.
func GetWithdrawalHistory(withdrawalSvc *withdrawalsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := middleware.StoreID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid withdrawal ID", err.Error())
		}
		read, err := withdrawalSvc.Get(c.Context(), id)
		if err != nil {
			return DomainErrorJSON(c, "Failed to get withdrawal", err)
		}
		if read.StoreID != storeID {
			return ErrorResponseJSON(c, fiber.StatusNotFound, "Withdrawal not found", nil)
		}

		history, err := withdrawalSvc.History(c.Context(), id)
		if err != nil {
			return DomainErrorJSON(c, "Failed to get withdrawal history", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Withdrawal history retrieved", history)
	}
}

func queryInt(c *fiber.Ctx, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}
