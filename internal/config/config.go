package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Collaborator CollaboratorConfig
	Notification NotificationConfig
	Feed         FeedConfig
	Session      SessionConfig
	AMQP         AMQPConfig
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

// RedisConfig holds Redis connection values for the session store.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines session token inspection parameters.
type AuthConfig struct {
	// JWTSecret enables signature verification when set; otherwise claims are read unverified.
	JWTSecret string
}

// CollaboratorConfig points at the remote lead/notification API.
type CollaboratorConfig struct {
	BaseURL        string
	TimeoutSeconds int
	MaxRetries     int
	RetryBaseMS    int
	RetryMaxMS     int
}

// NotificationConfig controls the notification poller.
type NotificationConfig struct {
	PollIntervalSeconds   int
	DiscardStaleFetches   bool
	RevertFailedMutations bool
}

// FeedConfig sizes the activity feed.
type FeedConfig struct {
	NotificationTake int
	ActivityLimit    int
	Cap              int
	PageSize         int
}

// SessionConfig defines navigational gating.
type SessionConfig struct {
	ProtectedPrefixes []string
	PublicPrefixes    []string
	SignInPath        string
}

// AMQPConfig enables fan-out of pipeline events. Empty URL disables it.
type AMQPConfig struct {
	URL      string
	Exchange string
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
			Name:                  getEnv("APP_NAME", "leadsync"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password:  os.Getenv("REDIS_PASSWORD"),
			DB:        redisDB,
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "leadsync:session"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		},
		Collaborator: CollaboratorConfig{
			BaseURL:        getEnv("COLLABORATOR_BASE_URL", "http://127.0.0.1:5000/api"),
			TimeoutSeconds: getEnvAsInt("COLLABORATOR_TIMEOUT_SECONDS", 20),
			MaxRetries:     getEnvAsInt("COLLABORATOR_MAX_RETRIES", 3),
			RetryBaseMS:    getEnvAsInt("COLLABORATOR_RETRY_BASE_MS", 300),
			RetryMaxMS:     getEnvAsInt("COLLABORATOR_RETRY_MAX_MS", 3000),
		},
		Notification: NotificationConfig{
			PollIntervalSeconds:   getEnvAsInt("NOTIFY_POLL_INTERVAL_SECONDS", 30),
			DiscardStaleFetches:   getEnvAsBool("NOTIFY_DISCARD_STALE_FETCHES", false),
			RevertFailedMutations: getEnvAsBool("NOTIFY_REVERT_FAILED_MUTATIONS", false),
		},
		Feed: FeedConfig{
			NotificationTake: getEnvAsInt("FEED_NOTIFICATION_TAKE", 5),
			ActivityLimit:    getEnvAsInt("FEED_ACTIVITY_LIMIT", 5),
			Cap:              getEnvAsInt("FEED_CAP", 8),
			PageSize:         getEnvAsInt("FEED_PAGE_SIZE", 20),
		},
		Session: SessionConfig{
			ProtectedPrefixes: getEnvAsList("SESSION_PROTECTED_PREFIXES", []string{"/dashboard"}),
			PublicPrefixes:    getEnvAsList("SESSION_PUBLIC_PREFIXES", []string{"/", "/login", "/projects", "/units"}),
			SignInPath:        getEnv("SESSION_SIGN_IN_PATH", "/login"),
		},
		AMQP: AMQPConfig{
			URL:      os.Getenv("AMQP_URL"),
			Exchange: getEnv("AMQP_EXCHANGE", "leads.events"),
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

// Timeout returns the per-attempt HTTP timeout for collaborator calls.
func (c CollaboratorConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 20 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// PollInterval returns the notification poll period.
func (n NotificationConfig) PollInterval() time.Duration {
	if n.PollIntervalSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(n.PollIntervalSeconds) * time.Second
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

func getEnvAsList(key string, fallback []string) []string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
