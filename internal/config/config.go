package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the engine.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	SLA          SLAConfig
	Notification NotificationConfig
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
	Level       string
	Development bool
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// SLAWindow is a response/resolution deadline pair parsed from env.
type SLAWindow struct {
	Response   time.Duration
	Resolution time.Duration
}

// SLAConfig tunes the deadline table and the breach monitor. Windows are a
// configuration table: deadlines stay a pure function of priority and
// creation time.
type SLAConfig struct {
	MonitorInterval time.Duration
	AutoEscalate    bool
	Emergency       SLAWindow
	Critical        SLAWindow
	High            SLAWindow
	Medium          SLAWindow
	Low             SLAWindow
}

// NotificationConfig holds fanout settings for the delivery collaborator.
type NotificationConfig struct {
	RedisChannel string
	WebhookURL   string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	slaCfg, err := loadSLA()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "hazard-ticket-engine"),
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
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		SLA: slaCfg,
		Notification: NotificationConfig{
			RedisChannel: getEnv("NOTIFY_REDIS_CHANNEL", "hazard.ticket.events"),
			WebhookURL:   getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

func loadSLA() (SLAConfig, error) {
	cfg := SLAConfig{
		MonitorInterval: time.Duration(getEnvAsInt("SLA_MONITOR_INTERVAL_SECONDS", 60)) * time.Second,
		AutoEscalate:    getEnvAsBool("SLA_AUTO_ESCALATE", false),
	}

	windows := []struct {
		key      string
		fallback string
		dest     *SLAWindow
	}{
		{"SLA_WINDOW_EMERGENCY", "15m:2h", &cfg.Emergency},
		{"SLA_WINDOW_CRITICAL", "30m:4h", &cfg.Critical},
		{"SLA_WINDOW_HIGH", "1h:8h", &cfg.High},
		{"SLA_WINDOW_MEDIUM", "4h:24h", &cfg.Medium},
		{"SLA_WINDOW_LOW", "24h:72h", &cfg.Low},
	}
	for _, w := range windows {
		window, err := parseSLAWindow(getEnv(w.key, w.fallback))
		if err != nil {
			return SLAConfig{}, fmt.Errorf("invalid %s: %w", w.key, err)
		}
		*w.dest = window
	}
	return cfg, nil
}

// parseSLAWindow parses "response:resolution" duration pairs, e.g. "1h:8h".
func parseSLAWindow(raw string) (SLAWindow, error) {
	parts := strings.SplitN(strings.TrimSpace(raw), ":", 2)
	if len(parts) != 2 {
		return SLAWindow{}, fmt.Errorf("expected response:resolution, got %q", raw)
	}
	response, err := time.ParseDuration(parts[0])
	if err != nil {
		return SLAWindow{}, err
	}
	resolution, err := time.ParseDuration(parts[1])
	if err != nil {
		return SLAWindow{}, err
	}
	if resolution <= response || response <= 0 {
		return SLAWindow{}, fmt.Errorf("window %q must satisfy resolution > response > 0", raw)
	}
	return SLAWindow{Response: response, Resolution: resolution}, nil
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
