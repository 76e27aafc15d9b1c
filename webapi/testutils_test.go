package webapi_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	infra_eventbus "github.com/sellerhub/payouts/infra/eventbus"
	"github.com/sellerhub/payouts/internal/fixtures/mocks"
	"github.com/sellerhub/payouts/pkg/config"
	ledgerdomain "github.com/sellerhub/payouts/pkg/domain/ledger"
	"github.com/sellerhub/payouts/pkg/retry"
	"github.com/sellerhub/payouts/webapi"
	"github.com/stretchr/testify/require"

	"github.com/gofiber/fiber/v2"
)

const testJwtSecret = "webapi-test-secret"

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.App {
	return &config.App{
		Env: "test",
		Jwt: config.Jwt{Secret: testJwtSecret, Expiry: time.Hour},
		RateLimit: config.RateLimit{
			MaxRequests: 1000,
			Window:      time.Minute,
		},
		Payouts: config.Payouts{
			MinWithdrawal:         1000,
			DefaultCommissionRate: 0.10,
			FreshnessWindow:       30 * time.Second,
			Currency:              "USD",
		},
	}
}

func newTestApp(t *testing.T, uow *mocks.MockUnitOfWork, orders *mocks.MockOrdersSource) *fiber.App {
	t.Helper()
	logger := testLogger()
	deps := config.Deps{
		Uow:          uow,
		OrdersSource: orders,
		EventBus:     infra_eventbus.NewWithMemory(logger),
		Recompute: retry.New(
			retry.Config{
				BaseDelay:      time.Millisecond,
				MaxDelay:       5 * time.Millisecond,
				Multiplier:     2,
				MaxAttempts:    2,
				JitterFraction: 0.3,
			},
			nil,
			func(err error) bool { return errors.Is(err, ledgerdomain.ErrSourceDataUnavailable) },
			logger,
		),
		Logger: logger,
		Config: testConfig(),
	}
	return webapi.NewApp(deps)
}

func bearerToken(t *testing.T, userID, storeID uuid.UUID) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userID.String(),
		"store_id": storeID.String(),
		"exp":      time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testJwtSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func jsonRequest(t *testing.T, method, target string, body any, auth string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close() //nolint:errcheck
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}
