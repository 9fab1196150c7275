package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// LoadEnv loads environment variables from .env.local if APP_ENV is "local"
func LoadEnv(log zerolog.Logger) {
	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development" // Default to development if not set
		os.Setenv("APP_ENV", appEnv)
	}

	if appEnv == "local" {
		err := godotenv.Load(".env.local") // Assumes .env.local exists in root or where app is run
		if err != nil {
			log.Warn().Err(err).Msg(".env.local file not found or unreadable, relying on system environment variables")
		} else {
			log.Info().Msg("Loaded .env.local for local development.")
		}
	} else {
		log.Info().Str("app_env", appEnv).Msg("Not loading .env.local.")
	}
}

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Database holds the PostgreSQL connection settings.
type Database struct {
	Host         string
	Port         string
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
}

// Redis holds the product cache settings. An empty Addr disables the cache.
type Redis struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Config holds every runtime knob of the service.
type Config struct {
	AppEnv          string
	HTTPAddr        string
	GRPCAddr        string
	StorageDriver   string
	Database        Database
	Redis           Redis
	CORSOrigins     []string
	LogLevel        string
	ShutdownTimeout time.Duration
}

// IsLocal reports whether the service runs on a developer machine.
func (c Config) IsLocal() bool { return c.AppEnv == "local" }

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvs(key string, defSec int) time.Duration {
	return time.Duration(atoienv(key, defSec)) * time.Second
}

func listenv(key, def string) []string {
	var out []string
	for _, v := range strings.Split(getenv(key, def), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		AppEnv:        getenv("APP_ENV", "development"),
		HTTPAddr:      ":" + getenv("PORT", "8000"),
		GRPCAddr:      getenv("GRPC_ADDR", ""),
		StorageDriver: strings.ToLower(getenv("STORAGE_DRIVER", DriverPostgres)),
		Database: Database{
			Host:         getenv("DB_HOST", "localhost"),
			Port:         getenv("DB_PORT", "5432"),
			User:         getenv("DB_USER", "postgres"),
			Password:     getenv("DB_PASSWORD", ""),
			Name:         getenv("DB_NAME", "inventory"),
			SSLMode:      getenv("DB_SSLMODE", "disable"),
			MaxOpenConns: atoienv("DB_MAX_OPEN_CONNS", 25),
		},
		Redis: Redis{
			Addr:     getenv("REDIS_ADDR", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       atoienv("REDIS_DB", 0),
			TTL:      durenvs("CACHE_TTL_SECONDS", 300),
		},
		CORSOrigins:     listenv("CORS_ORIGINS", "http://localhost:5173"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT_SECONDS", 15),
	}
}
