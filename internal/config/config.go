package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the back-office client and the
// development backend.
type Config struct {
	App      AppConfig
	API      APIConfig
	Realtime RealtimeConfig
	Session  SessionConfig
	Redis    RedisConfig
	Postgres PostgresConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Console  ConsoleConfig
	DevAPI   DevAPIConfig
}

// AppConfig controls process level behavior.
type AppConfig struct {
	Name    string
	Env     string
	Version string
}

// APIConfig points the client at the REST backend.
type APIConfig struct {
	BaseURL               string
	RequestTimeoutSeconds int
}

// RealtimeConfig tunes the STOMP channel.
type RealtimeConfig struct {
	Path                 string
	ReconnectDelayMillis int
	MaxReconnectAttempts int
	HeartbeatMillis      int
}

// SessionConfig selects where the session token is persisted.
type SessionConfig struct {
	Backend     string
	KeyPrefix   string
	TTLHours    int
	LoginRoute  string
	DeniedRoute string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// PostgresConfig holds DB connection values for the development backend.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines token parameters used by the development backend.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
}

// ConsoleConfig carries the credentials the headless console logs in with.
type ConsoleConfig struct {
	Username          string
	Password          string
	NotificationLimit int
}

// DevAPIConfig controls the development backend listeners.
type DevAPIConfig struct {
	Host      string
	Port      string
	SeedUsers bool
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := getEnv("SESSION_BACKEND", "memory")
	if backend != "memory" && backend != "redis" {
		return nil, fmt.Errorf("invalid SESSION_BACKEND %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "restaurant-backoffice"),
			Env:     getEnv("APP_ENV", "development"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		API: APIConfig{
			BaseURL:               getEnv("API_BASE_URL", "http://localhost:8080"),
			RequestTimeoutSeconds: getEnvAsInt("API_REQUEST_TIMEOUT_SECONDS", 15),
		},
		Realtime: RealtimeConfig{
			Path:                 getEnv("REALTIME_PATH", "/ws"),
			ReconnectDelayMillis: getEnvAsInt("REALTIME_RECONNECT_DELAY_MS", 5000),
			MaxReconnectAttempts: getEnvAsInt("REALTIME_MAX_RECONNECT_ATTEMPTS", 5),
			HeartbeatMillis:      getEnvAsInt("REALTIME_HEARTBEAT_MS", 4000),
		},
		Session: SessionConfig{
			Backend:     backend,
			KeyPrefix:   getEnv("SESSION_KEY_PREFIX", "backoffice:session"),
			TTLHours:    getEnvAsInt("SESSION_TTL_HOURS", 24),
			LoginRoute:  getEnv("SESSION_LOGIN_ROUTE", "/login"),
			DeniedRoute: getEnv("SESSION_DENIED_ROUTE", "/unauthorized"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Console: ConsoleConfig{
			Username:          os.Getenv("BACKOFFICE_USERNAME"),
			Password:          os.Getenv("BACKOFFICE_PASSWORD"),
			NotificationLimit: getEnvAsInt("BACKOFFICE_NOTIFICATION_LIMIT", 5),
		},
		DevAPI: DevAPIConfig{
			Host:      getEnv("DEVAPI_HOST", "0.0.0.0"),
			Port:      getEnv("DEVAPI_PORT", "8080"),
			SeedUsers: getEnvAsBool("DEVAPI_SEED_USERS", true),
		},
	}

	return cfg, nil
}

// Addr returns the development backend bind address.
func (d DevAPIConfig) Addr() string {
	return fmt.Sprintf("%s:%s", d.Host, d.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a APIConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// ReconnectDelay returns the fixed delay between reconnect attempts.
func (r RealtimeConfig) ReconnectDelay() time.Duration {
	return time.Duration(r.ReconnectDelayMillis) * time.Millisecond
}

// Heartbeat returns the STOMP heart-beat interval.
func (r RealtimeConfig) Heartbeat() time.Duration {
	return time.Duration(r.HeartbeatMillis) * time.Millisecond
}

// TTL returns the persistence horizon of a stored session.
func (s SessionConfig) TTL() time.Duration {
	if s.TTLHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(s.TTLHours) * time.Hour
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
