// Package config loads and holds the application configuration from the
// environment.
package config

import (
	"time"

	"github.com/sellerhub/payouts/pkg/retry"
)

// DB holds database connection settings.
type DB struct {
	Url string `envconfig:"URL"`
}

// Server holds HTTP listener settings.
type Server struct {
	Scheme string `envconfig:"SCHEME" default:"http"`
	Host   string `envconfig:"HOST" default:"localhost"`
	Port   int    `envconfig:"PORT" default:"3000"`
}

// Jwt holds token verification settings for actor extraction.
type Jwt struct {
	Secret string        `envconfig:"SECRET" required:"true"`
	Expiry time.Duration `envconfig:"EXPIRY" default:"24h"`
}

// Log holds logger settings.
type Log struct {
	Level      int    `envconfig:"LEVEL" default:"0"`
	Format     string `envconfig:"FORMAT" default:"text"`
	Prefix     string `envconfig:"PREFIX" default:"payouts 💸"`
	TimeFormat string `envconfig:"TIME_FORMAT" default:"15:04:05"`
}

// Redis holds event stream settings. When URL is empty the in-memory
// bus is used instead.
type Redis struct {
	URL    string `envconfig:"URL" default:""`
	Stream string `envconfig:"STREAM" default:"payouts-events"`
	Group  string `envconfig:"GROUP" default:"payouts"`
}

// RateLimit bounds request rates on the HTTP surface.
type RateLimit struct {
	MaxRequests int           `envconfig:"MAX_REQUESTS" default:"100"`
	Window      time.Duration `envconfig:"WINDOW" default:"1m"`
}

// Payouts holds the platform's withdrawal policy.
type Payouts struct {
	// MinWithdrawal is the smallest request amount, in the smallest
	// currency unit.
	MinWithdrawal int64 `envconfig:"MIN_WITHDRAWAL" default:"1000"`

	// DefaultCommissionRate applies to stores without a seller-specific
	// override, as a fraction in [0, 1].
	DefaultCommissionRate float64 `envconfig:"DEFAULT_COMMISSION_RATE" default:"0.10"`

	// FreshnessWindow bounds how old a cached ledger may be before a
	// balance query forces recalculation.
	FreshnessWindow time.Duration `envconfig:"FRESHNESS_WINDOW" default:"30s"`

	// Currency is the platform settlement currency.
	Currency string `envconfig:"CURRENCY" default:"USD"`
}

// App is the root configuration.
type App struct {
	Env       string       `envconfig:"APP_ENV" default:"development"`
	Server    Server       `envconfig:"SERVER"`
	DB        DB           `envconfig:"DATABASE"`
	Log       Log          `envconfig:"LOG"`
	Jwt       Jwt          `envconfig:"JWT"`
	Redis     Redis        `envconfig:"REDIS"`
	RateLimit RateLimit    `envconfig:"RATE_LIMIT"`
	Payouts   Payouts      `envconfig:"PAYOUTS"`
	Recompute retry.Config `envconfig:"RECOMPUTE"`
}
