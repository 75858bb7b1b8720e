package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Remote backends
const (
	RemoteBackendPostgres = "postgres"
	RemoteBackendMemory   = "memory"
)

type Config struct {
	Port              string
	Environment       string
	SupabaseURL       string
	SupabaseJWKSURL   string // Constructed from SupabaseURL + /auth/v1/.well-known/jwks.json
	SupabaseJWTSecret string // HS256 secret; used instead of JWKS when set
	SupabaseDBURL     string
	SupabaseKey       string // Service role key; only the seeder uses it
	CORSOrigins       string
	TablePrefix       string
	// Sync engine
	RemoteBackend      string
	CachePath          string // empty = in-process cache (nothing survives a restart)
	InitialLoadTimeout time.Duration
	OutboxWorkers      int
	// Logging
	LogDir      string
	LogMaxFiles int
	// Debug flags
	Debug bool
}

func Load() *Config {
	env := getEnv("ENVIRONMENT", "dev")
	supabaseURL := strings.TrimRight(getEnv("SUPABASE_URL", ""), "/")

	jwksURL := ""
	if supabaseURL != "" {
		jwksURL = supabaseURL + "/auth/v1/.well-known/jwks.json"
	}

	return &Config{
		Port:               getEnv("PORT", "8787"),
		Environment:        env,
		SupabaseURL:        supabaseURL,
		SupabaseJWKSURL:    jwksURL,
		SupabaseJWTSecret:  getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseDBURL:      getEnv("SUPABASE_DB_URL", ""),
		SupabaseKey:        getEnv("SUPABASE_KEY", ""),
		CORSOrigins:        getEnv("CORS_ORIGINS", "http://localhost:3000"),
		TablePrefix:        getTablePrefix(env),
		RemoteBackend:      getEnv("REMOTE_BACKEND", RemoteBackendPostgres),
		CachePath:          getEnv("CACHE_PATH", defaultCachePath()),
		InitialLoadTimeout: getEnvAsDuration("INITIAL_LOAD_TIMEOUT", DefaultInitialLoadTimeout),
		OutboxWorkers:      getEnvAsInt("OUTBOX_WORKERS", DefaultOutboxWorkers),
		LogDir:             getEnv("LOG_DIR", ""),
		LogMaxFiles:        getEnvAsInt("LOG_MAX_FILES", 5),
		Debug:              getEnv("DEBUG", getDefaultDebug(env)) == "true",
	}
}

// Validate rejects settings the daemon cannot start with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.RemoteBackend {
	case RemoteBackendPostgres:
		if c.SupabaseDBURL == "" {
			return fmt.Errorf("SUPABASE_DB_URL is required when REMOTE_BACKEND=%s", RemoteBackendPostgres)
		}
	case RemoteBackendMemory:
	default:
		return fmt.Errorf("unknown REMOTE_BACKEND %q", c.RemoteBackend)
	}

	if c.SupabaseJWKSURL == "" && c.SupabaseJWTSecret == "" {
		return fmt.Errorf("either SUPABASE_URL or SUPABASE_JWT_SECRET is required")
	}

	if c.InitialLoadTimeout <= 0 || c.InitialLoadTimeout > MaxInitialLoadTimeout {
		return fmt.Errorf("INITIAL_LOAD_TIMEOUT must be in (0, %s]", MaxInitialLoadTimeout)
	}

	if c.OutboxWorkers < 1 {
		return fmt.Errorf("OUTBOX_WORKERS must be at least 1")
	}

	return nil
}

// LogLevel returns the slog level for the environment
func (c *Config) LogLevel() slog.Level {
	if c.Environment == "dev" || c.Debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func getDefaultDebug(env string) string {
	if env == "prod" {
		return "false"
	}
	return "true"
}

// getTablePrefix returns the table prefix based on environment
func getTablePrefix(env string) string {
	if prefix, ok := os.LookupEnv("TABLE_PREFIX"); ok {
		return prefix
	}

	switch env {
	case "prod":
		return ""
	case "test":
		return "test_"
	default:
		return "dev_"
	}
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return dir + string(os.PathSeparator) + "searchedia" + string(os.PathSeparator) + "workspace.db"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "default", defaultValue)
		return defaultValue
	}
	return value
}
