package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Store         StoreConfig
	Storage       StorageConfig
	Import        ImportConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
	AllowedOrigins     []string
	ReadHeaderTimeout  time.Duration
	ShutdownTimeout    time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// StoreConfig selects the campaign record store. The store is only reachable
// when both URL and Key are set.
type StoreConfig struct {
	Driver        string // postgres, sqlite or mongo
	URL           string
	Key           string
	SQLitePath    string
	MongoDatabase string
}

type StorageConfig struct {
	LocalPath     string
	RetentionDays int
}

type ImportConfig struct {
	UpdateLookAheadRows  int
	HeaderLookBackRows   int
	HeaderScanRows       int
	DelimiterSampleLines int
	MaxUploadBytes       int64
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	LogLevel       slog.Level
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 20),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 40),
			AllowedOrigins:     getEnvAsList("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),
			ReadHeaderTimeout:  getEnvAsDuration("SERVER_READ_HEADER_TIMEOUT", 10*time.Second),
			ShutdownTimeout:    getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "adreport-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

			MaxConns:        getEnvAsInt("POSTGRES_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("POSTGRES_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("POSTGRES_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("POSTGRES_MAX_CONN_IDLE_TIME", 10*time.Minute),
		},
		Store: StoreConfig{
			Driver:        getEnv("STORE_DRIVER", "postgres"),
			URL:           getEnv("STORE_URL", ""),
			Key:           getEnv("STORE_KEY", ""),
			SQLitePath:    getEnv("STORE_SQLITE_PATH", "adreport.db"),
			MongoDatabase: getEnv("STORE_MONGO_DATABASE", "adreport"),
		},
		Storage: StorageConfig{
			LocalPath:     getEnv("STORAGE_LOCAL_PATH", "./uploads"),
			RetentionDays: getEnvAsInt("STORAGE_RETENTION_DAYS", 30),
		},
		Import: ImportConfig{
			UpdateLookAheadRows:  getEnvAsInt("IMPORT_UPDATE_LOOK_AHEAD_ROWS", 5),
			HeaderLookBackRows:   getEnvAsInt("IMPORT_HEADER_LOOK_BACK_ROWS", 3),
			HeaderScanRows:       getEnvAsInt("IMPORT_HEADER_SCAN_ROWS", 20),
			DelimiterSampleLines: getEnvAsInt("IMPORT_DELIMITER_SAMPLE_LINES", 10),
			MaxUploadBytes:       int64(getEnvAsInt("IMPORT_MAX_UPLOAD_BYTES", 32<<20)),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			LogLevel:       parseLevel(getEnv("LOG_LEVEL", "info")),
		},
	}

	switch cfg.Store.Driver {
	case "postgres", "sqlite", "mongo":
	default:
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.Store.Driver)
	}

	return cfg, nil
}

// Enabled reports whether the record store settings are present.
func (c *StoreConfig) Enabled() bool {
	return c.URL != "" && c.Key != ""
}

// PostgresDSN returns STORE_URL when it is a connection string and the
// POSTGRES_* settings otherwise.
func (c *Config) PostgresDSN() string {
	if strings.Contains(c.Store.URL, "://") || strings.Contains(c.Store.URL, "=") {
		return c.Store.URL
	}
	return c.Database.DSN()
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
