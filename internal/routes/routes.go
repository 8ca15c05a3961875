package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/pos_trust/internal/audit"
	"github.com/congo-pay/pos_trust/internal/auth"
	"github.com/congo-pay/pos_trust/internal/binding"
	"github.com/congo-pay/pos_trust/internal/clock"
	"github.com/congo-pay/pos_trust/internal/config"
	"github.com/congo-pay/pos_trust/internal/credential"
	"github.com/congo-pay/pos_trust/internal/geofence"
	"github.com/congo-pay/pos_trust/internal/logging"
	"github.com/congo-pay/pos_trust/internal/metrics"
	"github.com/congo-pay/pos_trust/internal/middleware"
	"github.com/congo-pay/pos_trust/internal/notification"
	"github.com/congo-pay/pos_trust/internal/registration"
	"github.com/congo-pay/pos_trust/internal/terminal"
	"github.com/congo-pay/pos_trust/internal/token"
)

// Deps aggregates shared dependencies required to wire routes. Logger, Clock
// and Metrics are optional.
type Deps struct {
	Cfg     config.Config
	DB      *pgxpool.Pool
	Cache   *redis.Client
	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDevelopment() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		d.Logger = logging.Discard()
	}
	if d.Clock == nil {
		d.Clock = clock.System{}
	}
	if d.Metrics == nil {
		d.Metrics = metrics.New()
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.AccessLog(d.Logger))
	if d.Cfg.IsDevelopment() {
		app.Use(logger.New(logger.Config{
			Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
			TimeFormat: "15:04:05",
			TimeZone:   "Local",
		}))
	}

	RegisterHealthRoutes(app, d)
	RegisterMetricsRoute(app, d.Metrics)

	var (
		terminalRepo terminal.Repository
		auditStore   audit.Store
	)
	if d.DB != nil {
		terminalRepo = terminal.NewPostgresRepository(d.DB)
		auditStore = audit.NewPostgresStore(d.DB)
	} else {
		terminalRepo = terminal.NewMemoryRepository()
		auditStore = audit.NewMemoryStore()
	}
	registry := terminal.NewRegistry(terminalRepo)

	issuer, err := token.NewIssuer(token.Config{
		Secret:   []byte(d.Cfg.TokenSigningSecret),
		Issuer:   d.Cfg.TokenIssuer,
		Lifetime: d.Cfg.TokenLifetime,
	}, d.Clock, registry)
	if err != nil {
		return err
	}

	var revocations token.RevocationList
	if d.Cfg.TokenRevocationEnabled {
		if d.Cache != nil {
			revocations = token.NewRedisRevocationList(d.Cache, issuer.Lifetime())
		} else {
			revocations = token.NewMemoryRevocationList()
		}
	}

	authSvc := auth.NewService(auth.Deps{
		Registry: registry,
		Verifier: credential.NewVerifier(),
		Guard:    binding.NewGuard(),
		Geofence: geofence.NewValidator(geofence.Config{
			MaxDistanceKm:     d.Cfg.GeofenceMaxDistanceKm,
			MaxAccuracyMeters: d.Cfg.GeofenceMaxAccuracyM,
		}),
		Issuer:      issuer,
		Trail:       audit.NewTrail(auditStore, d.Clock, d.Logger),
		Revocations: revocations,
		Notifier:    notification.NewLoggerNotifier(d.Logger),
		Metrics:     d.Metrics,
		Clock:       d.Clock,
		Logger:      d.Logger,
	})
	registrationSvc := registration.NewService(registry, credential.NewHasher(d.Cfg.BcryptCost), d.Clock, d.Metrics, d.Cfg.PublicBaseURL)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals(middleware.RequestIDHeader).(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  d.Clock.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	rateLimiter := middleware.LoginRateLimit(d.Cache, d.Cfg.LoginRateLimitPerMinute, d.Logger, authSvc.RecordRateLimited)
	bearer := middleware.TerminalAuth(authSvc)
	RegisterAuthRoutes(api, auth.NewHandler(authSvc), rateLimiter, bearer)

	admin := api.Group("/admin", middleware.AdminKey(d.Cfg.AdminAPIKey))
	RegisterAdminRoutes(admin, AdminHandlers{
		Registration: registration.NewHandler(registrationSvc, d.Logger),
		Lifecycle:    auth.NewAdminHandler(authSvc),
		Idempotency:  middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger),
	})

	return nil
}
