package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE_URL", "")
	t.Setenv("STORE_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadHeaderTimeout)
	assert.Equal(t, 5, cfg.Import.UpdateLookAheadRows)
	assert.Equal(t, 3, cfg.Import.HeaderLookBackRows)
	assert.Equal(t, 20, cfg.Import.HeaderScanRows)
	assert.Equal(t, 10, cfg.Import.DelimiterSampleLines)
	assert.Equal(t, slog.LevelInfo, cfg.Observability.LogLevel)
	assert.False(t, cfg.Store.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "sqlite")
	t.Setenv("STORE_URL", "file:reports.db")
	t.Setenv("STORE_KEY", "secret")
	t.Setenv("SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("IMPORT_UPDATE_LOOK_AHEAD_ROWS", "8")
	t.Setenv("SERVER_SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Store.Enabled())
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.Observability.LogLevel)
	assert.Equal(t, 8, cfg.Import.UpdateLookAheadRows)
	assert.Equal(t, 3*time.Second, cfg.Server.ShutdownTimeout)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORE_DRIVER", "dynamo")
	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", c.DSN())
}

func TestConfig_PostgresDSN(t *testing.T) {
	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable"}

	tests := []struct {
		name string
		url  string
		want string
	}{
		{"url", "postgres://app@db:5432/reports", "postgres://app@db:5432/reports"},
		{"keyword dsn", "host=db dbname=reports", "host=db dbname=reports"},
		{"bare flag falls back", "on", db.DSN()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{Database: db, Store: StoreConfig{URL: tt.url}}
			assert.Equal(t, tt.want, cfg.PostgresDSN())
		})
	}
}
