package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAppName         = "PosTrust"
	defaultAppEnv          = "development"
	defaultPort            = "8080"
	defaultLogLevel        = "info"
	defaultShutdownDelay   = 10 * time.Second
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultTokenLifetime   = 12 * time.Hour
	defaultTokenIssuer     = "pos-trust"
	defaultMaxDistanceKm   = 0.5
	defaultMaxAccuracyM    = 100.0
	defaultLoginRateLimit  = 5
	defaultBcryptCost      = 10
	devSigningSecret       = "dev-signing-secret-change-me"
	devAdminKey            = "dev-admin-key"
	idemTTLSecondsEnvVar   = "IDEMPOTENCY_TTL_SECONDS"
	idemTTLDurEnvVar       = "IDEMPOTENCY_TTL"
	shutdownSecondsEnvVar  = "SHUTDOWN_TIMEOUT_SECONDS"
	shutdownDurationEnvVar = "SHUTDOWN_TIMEOUT"
	tokenSecondsEnvVar     = "TOKEN_LIFETIME_SECONDS"
	tokenDurationEnvVar    = "TOKEN_LIFETIME"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	PublicBaseURL string
	AdminAPIKey   string
	BcryptCost    int

	TokenSigningSecret     string
	TokenIssuer            string
	TokenLifetime          time.Duration
	TokenRevocationEnabled bool

	GeofenceMaxDistanceKm float64
	GeofenceMaxAccuracyM  float64

	LoginRateLimitPerMinute int
}

// Load reads configuration values from the environment and populates a Config instance.
func Load() (Config, error) {
	cfg := Config{
		AppName:        getEnv("APP_NAME", defaultAppName),
		AppEnv:         getEnv("APP_ENV", defaultAppEnv),
		Port:           getEnv("PORT", defaultPort),
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ShutdownPeriod: defaultShutdownDelay,
		IdempotencyTTL: defaultIdempotencyTTL,

		PublicBaseURL: strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:"+defaultPort), "/"),
		AdminAPIKey:   os.Getenv("ADMIN_API_KEY"),
		BcryptCost:    defaultBcryptCost,

		TokenSigningSecret: os.Getenv("TOKEN_SIGNING_SECRET"),
		TokenIssuer:        getEnv("TOKEN_ISSUER", defaultTokenIssuer),
		TokenLifetime:      defaultTokenLifetime,

		GeofenceMaxDistanceKm:   defaultMaxDistanceKm,
		GeofenceMaxAccuracyM:    defaultMaxAccuracyM,
		LoginRateLimitPerMinute: defaultLoginRateLimit,
	}

	var err error
	if cfg.ShutdownPeriod, err = durationEnv(shutdownSecondsEnvVar, shutdownDurationEnvVar, cfg.ShutdownPeriod); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = durationEnv(idemTTLSecondsEnvVar, idemTTLDurEnvVar, cfg.IdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.TokenLifetime, err = durationEnv(tokenSecondsEnvVar, tokenDurationEnvVar, cfg.TokenLifetime); err != nil {
		return Config{}, err
	}
	if cfg.GeofenceMaxDistanceKm, err = floatEnv("GEOFENCE_MAX_DISTANCE_KM", cfg.GeofenceMaxDistanceKm); err != nil {
		return Config{}, err
	}
	if cfg.GeofenceMaxAccuracyM, err = floatEnv("GEOFENCE_MAX_ACCURACY_M", cfg.GeofenceMaxAccuracyM); err != nil {
		return Config{}, err
	}
	if cfg.LoginRateLimitPerMinute, err = intEnv("LOGIN_RATE_LIMIT_PER_MINUTE", cfg.LoginRateLimitPerMinute); err != nil {
		return Config{}, err
	}
	if cfg.BcryptCost, err = intEnv("BCRYPT_COST", cfg.BcryptCost); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("TOKEN_REVOCATION_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TOKEN_REVOCATION_ENABLED: %w", err)
		}
		cfg.TokenRevocationEnabled = enabled
	}

	if cfg.TokenLifetime <= 0 {
		return Config{}, fmt.Errorf("token lifetime must be positive")
	}
	if cfg.GeofenceMaxDistanceKm <= 0 || cfg.GeofenceMaxAccuracyM <= 0 {
		return Config{}, fmt.Errorf("geofence thresholds must be positive")
	}

	if cfg.IsDevelopment() {
		if cfg.TokenSigningSecret == "" {
			cfg.TokenSigningSecret = devSigningSecret
		}
		if cfg.AdminAPIKey == "" {
			cfg.AdminAPIKey = devAdminKey
		}
		return cfg, nil
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL must be set")
	}
	if cfg.RedisURL == "" {
		return Config{}, fmt.Errorf("REDIS_URL must be set")
	}
	if len(cfg.TokenSigningSecret) < 32 {
		return Config{}, fmt.Errorf("TOKEN_SIGNING_SECRET must be at least 32 bytes")
	}
	if cfg.AdminAPIKey == "" {
		return Config{}, fmt.Errorf("ADMIN_API_KEY must be set")
	}

	return cfg, nil
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

// IsDevelopment reports whether the app runs in a local/dev environment where
// Postgres and Redis are optional.
func (c Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func durationEnv(secondsKey, durationKey string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(secondsKey); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", secondsKey, err)
		}
		return time.Duration(seconds) * time.Second, nil
	}
	if v := os.Getenv(durationKey); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", durationKey, err)
		}
		return d, nil
	}
	return fallback, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
