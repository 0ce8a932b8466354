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
	Auth         AuthConfig
	Telegram     TelegramConfig
	Notification NotificationConfig
	Workflow     WorkflowConfig
	Lock         LockConfig
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

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	// Bootstrap admin, created at startup when no user has this email.
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// TelegramConfig points the dispatcher at the bot API. The token is never compiled in.
type TelegramConfig struct {
	APIBaseURL          string
	BotToken            string
	RequestTimeout      time.Duration
	DisableNotification bool
}

// NotificationConfig tunes the delivery queue and worker pool.
type NotificationConfig struct {
	Enabled        bool
	QueueBackend   string
	QueueKey       string
	QueueLength    int
	EnqueueTimeout time.Duration
	Workers        int
	MaxAttempts    int
	RetryBackoff   time.Duration
}

// WorkflowConfig controls ticket transition rules.
type WorkflowConfig struct {
	PolicyPath string
	// EnforceBoardPermission applies CanAct to board drag moves as well.
	EnforceBoardPermission bool
}

// LockConfig selects the per-ticket lock implementation.
type LockConfig struct {
	Backend string
	Expiry  time.Duration
}

// Queue and lock backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Load reads configuration from environment variables, applying defaults where possible.
func Load(envFiles ...string) (*Config, error) {
	_ = godotenv.Load(envFiles...)

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "taskboard"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
			AdminName:             getEnv("BOOTSTRAP_ADMIN_NAME", "Administrator"),
			AdminEmail:            os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
			AdminPassword:         os.Getenv("BOOTSTRAP_ADMIN_PASSWORD"),
		},
		Telegram: TelegramConfig{
			APIBaseURL:          getEnv("TELEGRAM_API_BASE_URL", "https://api.telegram.org"),
			BotToken:            os.Getenv("TELEGRAM_BOT_TOKEN"),
			RequestTimeout:      getEnvAsDuration("TELEGRAM_REQUEST_TIMEOUT", 10*time.Second),
			DisableNotification: getEnvAsBool("TELEGRAM_DISABLE_NOTIFICATION", true),
		},
		Notification: NotificationConfig{
			Enabled:        getEnvAsBool("NOTIFY_ENABLED", true),
			QueueBackend:   getEnv("NOTIFY_QUEUE_BACKEND", BackendMemory),
			QueueKey:       getEnv("NOTIFY_QUEUE_KEY", "taskboard:notifications"),
			QueueLength:    getEnvAsInt("NOTIFY_QUEUE_LENGTH", 1024),
			EnqueueTimeout: getEnvAsDuration("NOTIFY_ENQUEUE_TIMEOUT", 500*time.Millisecond),
			Workers:        getEnvAsInt("NOTIFY_WORKERS", 4),
			MaxAttempts:    getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 3),
			RetryBackoff:   getEnvAsDuration("NOTIFY_RETRY_BACKOFF", time.Second),
		},
		Workflow: WorkflowConfig{
			PolicyPath:             os.Getenv("WORKFLOW_POLICY_PATH"),
			EnforceBoardPermission: getEnvAsBool("WORKFLOW_ENFORCE_BOARD_PERMISSION", false),
		},
		Lock: LockConfig{
			Backend: getEnv("LOCK_BACKEND", BackendMemory),
			Expiry:  getEnvAsDuration("LOCK_EXPIRY", 8*time.Second),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Notification.QueueBackend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("invalid NOTIFY_QUEUE_BACKEND %q", c.Notification.QueueBackend)
	}
	switch c.Lock.Backend {
	case BackendMemory, BackendRedis:
	default:
		return fmt.Errorf("invalid LOCK_BACKEND %q", c.Lock.Backend)
	}
	if c.Notification.Workers <= 0 {
		c.Notification.Workers = 1
	}
	if c.Notification.MaxAttempts <= 0 {
		c.Notification.MaxAttempts = 1
	}
	return nil
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}
