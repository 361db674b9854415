package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Supported storage drivers.
const (
	DriverSQLite           = "sqlite"
	DriverPostgres         = "postgres"
	DriverEmbeddedPostgres = "embedded-postgres"
)

// Config captures all runtime configuration derived from environment variables.
type Config struct {
	APIKey            string
	OMDbURL           string
	OMDbTimeoutSecs   int
	DBDriver          string
	DBPath            string
	DBURL             string
	DBMaxConns        int
	DBMinConns        int
	DBMaxIdleSecs     int
	DBMaxLifeSecs     int
	DBConnTimeoutSecs int
	DBStatementCache  int
	EmbeddedPGDir     string
	EmbeddedPGPort    int
	TemplatePath      string
	OutputDir         string
	Port              string
	LogLevel          string
	LogFormat         string
}

// Load reads .env files and environment variables, applying defaults and validation.
// Variables already present in the environment win over .env entries.
func Load() (Config, error) {
	loadEnvFiles()

	cfg := Config{
		APIKey:            os.Getenv("API_KEY"),
		OMDbURL:           getEnv("OMDB_URL", "http://www.omdbapi.com/"),
		OMDbTimeoutSecs:   getEnvInt("OMDB_TIMEOUT_SECS", 10),
		DBDriver:          getEnv("DB_DRIVER", DriverSQLite),
		DBPath:            getEnv("DB_PATH", "_data/movies.db"),
		DBURL:             os.Getenv("DB_URL"),
		DBMaxConns:        getEnvInt("DB_MAX_CONNS", 4),
		DBMinConns:        getEnvInt("DB_MIN_CONNS", 0),
		DBMaxIdleSecs:     getEnvInt("DB_MAX_CONN_IDLE_SECS", 300),
		DBMaxLifeSecs:     getEnvInt("DB_MAX_CONN_LIFETIME_SECS", 3600),
		DBConnTimeoutSecs: getEnvInt("DB_CONN_TIMEOUT_SECS", 10),
		DBStatementCache:  getEnvInt("DB_STATEMENT_CACHE_CAPACITY", 64),
		EmbeddedPGDir:     getEnv("EMBEDDED_PG_DIR", "_data/postgres"),
		EmbeddedPGPort:    getEnvInt("EMBEDDED_PG_PORT", 5433),
		TemplatePath:      os.Getenv("TEMPLATE_PATH"),
		OutputDir:         getEnv("OUTPUT_DIR", "_static"),
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "warn"),
		LogFormat:         getEnv("LOG_FORMAT", "console"),
	}

	switch cfg.DBDriver {
	case DriverSQLite:
		if cfg.DBPath == "" {
			return Config{}, fmt.Errorf("DB_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if cfg.DBURL == "" {
			return Config{}, fmt.Errorf("DB_URL is required for the postgres driver")
		}
	case DriverEmbeddedPostgres:
		if cfg.EmbeddedPGPort <= 0 || cfg.EmbeddedPGPort > 65535 {
			return Config{}, fmt.Errorf("EMBEDDED_PG_PORT must be a valid port")
		}
	default:
		return Config{}, fmt.Errorf("DB_DRIVER %q is not supported", cfg.DBDriver)
	}
	if cfg.OMDbURL == "" {
		return Config{}, fmt.Errorf("OMDB_URL is required")
	}
	if cfg.OMDbTimeoutSecs <= 0 {
		return Config{}, fmt.Errorf("OMDB_TIMEOUT_SECS must be positive")
	}
	if cfg.DBMaxConns <= 0 {
		return Config{}, fmt.Errorf("DB_MAX_CONNS must be positive")
	}
	if cfg.DBMinConns < 0 {
		return Config{}, fmt.Errorf("DB_MIN_CONNS must be non-negative")
	}
	if cfg.DBMinConns > cfg.DBMaxConns {
		return Config{}, fmt.Errorf("DB_MIN_CONNS cannot exceed DB_MAX_CONNS")
	}
	if cfg.DBStatementCache < 0 {
		return Config{}, fmt.Errorf("DB_STATEMENT_CACHE_CAPACITY must be non-negative")
	}
	if cfg.OutputDir == "" {
		return Config{}, fmt.Errorf("OUTPUT_DIR is required")
	}

	return cfg, nil
}

func loadEnvFiles() {
	for _, file := range []string{".env", ".env.local"} {
		_ = godotenv.Load(file)
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}
