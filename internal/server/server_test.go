package server

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/congo-pay/pos_trust/internal/config"
	"github.com/congo-pay/pos_trust/internal/logging"
)

func devConfig() config.Config {
	return config.Config{
		AppName:               "PosTrust",
		AppEnv:                "test",
		Port:                  "0",
		AdminAPIKey:           "k",
		BcryptCost:            4,
		TokenSigningSecret:    "server-test-secret",
		TokenLifetime:         time.Hour,
		GeofenceMaxDistanceKm: 0.5,
		GeofenceMaxAccuracyM:  100,
		IdempotencyTTL:        time.Minute,
	}
}

func TestNewWiresRoutesWithoutBackends(t *testing.T) {
	srv, err := New(devConfig(), nil, nil, logging.Discard())
	require.NoError(t, err)

	resp, err := srv.App().Test(httptest.NewRequest(fiber.MethodGet, "/healthz", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestErrorHandlerUsesJSONEnvelope(t *testing.T) {
	srv, err := New(devConfig(), nil, nil, logging.Discard())
	require.NoError(t, err)

	resp, err := srv.App().Test(httptest.NewRequest(fiber.MethodPost, "/api/v1/admin/terminals", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "admin authentication required", body["error"])
}

func TestErrorHandlerHidesUnknownErrors(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: errorHandler})
	app.Get("/", func(c *fiber.Ctx) error { return errors.New("pq: connection refused at 10.0.0.3") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "internal error", body["error"])
}

func TestNewRejectsMissingBackendsInProduction(t *testing.T) {
	cfg := devConfig()
	cfg.AppEnv = "production"
	_, err := New(cfg, nil, nil, logging.Discard())
	assert.Error(t, err)
}
