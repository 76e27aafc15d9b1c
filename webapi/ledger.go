package webapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/sellerhub/payouts/pkg/config"
	"github.com/sellerhub/payouts/pkg/middleware"
	ledgersvc "github.com/sellerhub/payouts/pkg/service/ledger"
)

// LedgerRoutes registers the balance endpoints.
//
// Routes:
//   - GET  /balance             : Current earnings view for the caller's store.
//   - POST /balance/recalculate : Force a full recalculation from the order source.
func LedgerRoutes(app *fiber.App, ledgerSvc *ledgersvc.Service, cfg *config.App) {
	app.Get("/balance", middleware.JwtProtected(cfg.Jwt), GetBalance(ledgerSvc))
	app.Post("/balance/recalculate", middleware.JwtProtected(cfg.Jwt), Recalculate(ledgerSvc))
}

// GetBalance returns a Fiber handler serving the store's balance view.
// A stale or missing ledger row is recalculated before responding.
func GetBalance(ledgerSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := middleware.StoreID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		read, err := ledgerSvc.GetBalance(c.Context(), storeID)
		if err != nil {
			log.Errorf("Failed to get balance for store %s: %v", storeID, err)
			return DomainErrorJSON(c, "Failed to get balance", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Balance retrieved", read)
	}
}

// Recalculate returns a Fiber handler forcing a full recalculation.
func Recalculate(ledgerSvc *ledgersvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		storeID, err := middleware.StoreID(c)
		if err != nil {
			return DomainErrorJSON(c, "Unauthorized", err)
		}
		read, err := ledgerSvc.Recalculate(c.Context(), storeID)
		if err != nil {
			log.Errorf("Failed to recalculate ledger for store %s: %v", storeID, err)
			return DomainErrorJSON(c, "Failed to recalculate ledger", err)
		}
		return SuccessResponseJSON(c, fiber.StatusOK, "Ledger recalculated", read)
	}
}
