package webapi

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/sellerhub/payouts/pkg/config"
	"github.com/sellerhub/payouts/pkg/dto"
	"github.com/sellerhub/payouts/pkg/middleware"
	destinationsvc "github.com/sellerhub/payouts/pkg/service/destination"
)

// UpsertDestinationRequest is the create/update payload.
type UpsertDestinationRequest struct {
	Label   string          `json:"label" validate:"required,max=100"`
	Method  string          `json:"method" validate:"required,oneof=mobile_money bank_card bank_transfer"`
	Details json.RawMessage `json:"details" validate:"required"`
}

// DestinationRoutes registers the payout destination endpoints.
//
// Routes:
//   - POST /destinations             : Save a new destination.
//   - GET  /destinations             : List the store's destinations.
//   - PUT  /destinations/:id         : Update a destination.
//   - PUT  /destinations/:id/default : Mark a destination as the store default.
func DestinationRoutes(app *fiber.App, destinationSvc *destinationsvc.Service, cfg *config.App) {
	app.Post("/destinations", middleware.JwtProtected(cfg.Jwt), CreateDestination(destinationSvc))
	app.Get("/destinations", middleware.JwtProtected(cfg.Jwt), ListDestinations(destinationSvc))
	app.Put("/destinations/:id", middleware.JwtProtected(cfg.Jwt), UpdateDestination(destinationSvc))
	app.Put("/destinations/:id/default", middleware.JwtProtected(cfg.Jwt), SetDefaultDestination(destinationSvc))
}

// CreateDestination returns a Fiber handler saving a new destination.
func CreateDestination(destinationSvc *destinationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := middleware.StoreID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		input, err := BindAndValidate[UpsertDestinationRequest](c)
		if input == nil {
			return err // error response already written
		}

		read, err := destinationSvc.Upsert(c.Context(), dto.DestinationUpsert{
			StoreID: storeID,
			Label:   input.Label,
			Method:  input.Method,
			Details: input.Details,
		})
		if err != nil {
			log.Errorf("Failed to create destination for store %s: %v", storeID, err)
			return DomainErrorJSON(c, "Failed to create destination", err)
		}
		return SuccessResponseJSON(c, fiber.StatusCreated, "Destination created", read)
	}
}

// ListDestinations returns a Fiber handler listing the store's saved
// destinations.
func ListDestinations(destinationSvc *destinationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := middleware.StoreID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		reads, err := destinationSvc.List(c.Context(), storeID)
		if err != nil {
			log.Errorf("Failed to list destinations for store %s: %v", storeID, err)
			return DomainErrorJSON(c, "Failed to list destinations", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Destinations retrieved", reads)
	}
}

// UpdateDestination returns a Fiber handler updating a saved
// destination in place.
func UpdateDestination(destinationSvc *destinationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := middleware.StoreID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid destination ID", err.Error())
		}
		input, err := BindAndValidate[UpsertDestinationRequest](c)
		if input == nil {
			return err // error response already written
		}

		read, err := destinationSvc.Upsert(c.Context(), dto.DestinationUpsert{
			ID:      id,
			StoreID: storeID,
			Label:   input.Label,
			Method:  input.Method,
			Details: input.Details,
		})
		if err != nil {
			log.Errorf("Failed to update destination %s: %v", id, err)
			return DomainErrorJSON(c, "Failed to update destination", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Destination updated", read)
	}
}

// SetDefaultDestination returns a Fiber handler marking one destination
// as the store default.
func SetDefaultDestination(destinationSvc *destinationsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := middleware.StoreID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		id, err := uuid.Parse(c.Params("id"))
		if err != nil {
			return ErrorResponseJSON(c, fiber.StatusBadRequest, "Invalid destination ID", err.Error())
		}
		if err := destinationSvc.SetDefault(c.Context(), storeID, id); err != nil {
			log.Errorf("Failed to set default destination %s: %v", id, err)
			return DomainErrorJSON(c, "Failed to set default destination", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Default destination set", nil)
	}
}
