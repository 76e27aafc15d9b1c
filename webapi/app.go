package webapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sellerhub/payouts/pkg/config"
	destinationsvc "github.com/sellerhub/payouts/pkg/service/destination"
	ledgersvc "github.com/sellerhub/payouts/pkg/service/ledger"
	withdrawalsvc "github.com/sellerhub/payouts/pkg/service/withdrawal"
)

// NewApp builds the Fiber application with all routes and middleware
// wired from the provided dependencies.
func NewApp(deps config.Deps) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
			return ErrorResponseJSON(c, status, "Internal Server Error", err.Error())
		},
	})

	app.Use(limiter.New(limiter.Config{
		Max:        deps.Config.RateLimit.MaxRequests,
		Expiration: deps.Config.RateLimit.Window,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return ErrorResponseJSON(c, fiber.StatusTooManyRequests, "Too Many Requests", "Rate limit exceeded")
		},
	}))
	app.Use(recover.New())

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("App is working! 🚀")
	})

	LedgerRoutes(app, ledgersvc.NewService(deps), deps.Config)
	WithdrawalRoutes(app, withdrawalsvc.NewService(deps), deps.Config)
	DestinationRoutes(app, destinationsvc.NewService(deps), deps.Config)

	return app
}
