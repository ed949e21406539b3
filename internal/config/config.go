package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Confirmation ConfirmationConfig
	RateLimit    RateLimitConfig
	Auth         AuthConfig
	Mailer       MailerConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// ConfirmationConfig parameterizes the confirmation code lifecycle. The
// initial and resend TTLs differ on purpose: resends are assumed to be
// requested promptly.
type ConfirmationConfig struct {
	InitialCodeTTLHours  int
	ResendCodeTTLMinutes int
	SweepIntervalMinutes int
}

// RateLimitConfig parameterizes the admission-control budgets per guarded
// operation. Budgets are shared across callers, not identity-scoped.
type RateLimitConfig struct {
	Backend string // "local" or "redis"

	RegisterPermits       int
	RegisterPeriodSeconds int
	ConfirmPermits        int
	ConfirmPeriodSeconds  int
	ResendPermits         int
	ResendPeriodSeconds   int
}

// AuthConfig defines temporary-credential parameters.
type AuthConfig struct {
	JWTSecret                string
	TemporaryTokenTTLSeconds int
	BcryptCost               int
}

// MailerConfig holds notification gateway settings. An empty APIToken
// selects the log-only mailer.
type MailerConfig struct {
	APIToken       string
	FromEmail      string
	APIURL         string
	TimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "membership-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Confirmation: ConfirmationConfig{
			InitialCodeTTLHours:  getEnvAsInt("CONFIRMATION_INITIAL_TTL_HOURS", 24),
			ResendCodeTTLMinutes: getEnvAsInt("CONFIRMATION_RESEND_TTL_MINUTES", 5),
			SweepIntervalMinutes: getEnvAsInt("CONFIRMATION_SWEEP_INTERVAL_MINUTES", 60),
		},
		RateLimit: RateLimitConfig{
			Backend:               getEnv("RATE_LIMIT_BACKEND", "local"),
			RegisterPermits:       getEnvAsInt("RATE_LIMIT_REGISTER_PERMITS", 10),
			RegisterPeriodSeconds: getEnvAsInt("RATE_LIMIT_REGISTER_PERIOD_SECONDS", 60),
			ConfirmPermits:        getEnvAsInt("RATE_LIMIT_CONFIRM_PERMITS", 10),
			ConfirmPeriodSeconds:  getEnvAsInt("RATE_LIMIT_CONFIRM_PERIOD_SECONDS", 60),
			ResendPermits:         getEnvAsInt("RATE_LIMIT_RESEND_PERMITS", 5),
			ResendPeriodSeconds:   getEnvAsInt("RATE_LIMIT_RESEND_PERIOD_SECONDS", 60),
		},
		Auth: AuthConfig{
			JWTSecret:                getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TemporaryTokenTTLSeconds: getEnvAsInt("AUTH_TEMPORARY_TOKEN_TTL_SECONDS", 900),
			BcryptCost:               getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Mailer: MailerConfig{
			APIToken:       os.Getenv("MAILER_API_TOKEN"),
			FromEmail:      getEnv("MAILER_EMAIL_FROM", "noreply@example.com"),
			APIURL:         getEnv("MAILER_API_URL", "https://api.postmarkapp.com/email"),
			TimeoutSeconds: getEnvAsInt("MAILER_TIMEOUT_SECONDS", 5),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// InitialCodeTTL returns the validity window for codes issued at registration.
func (c ConfirmationConfig) InitialCodeTTL() time.Duration {
	return time.Duration(c.InitialCodeTTLHours) * time.Hour
}

// ResendCodeTTL returns the validity window for explicitly resent codes.
func (c ConfirmationConfig) ResendCodeTTL() time.Duration {
	return time.Duration(c.ResendCodeTTLMinutes) * time.Minute
}

// SweepInterval returns how often the expired-code sweeper runs.
func (c ConfirmationConfig) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalMinutes) * time.Minute
}

// TemporaryTokenTTL returns the temporary credential validity window.
func (a AuthConfig) TemporaryTokenTTL() time.Duration {
	return time.Duration(a.TemporaryTokenTTLSeconds) * time.Second
}

// Timeout returns the outbound mailer call timeout.
func (m MailerConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
