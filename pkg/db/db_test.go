package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "reports.db")

	sqlDB, err := OpenSQLite(ctx, path)
	require.NoError(t, err)

	var n int
	require.NoError(t, sqlDB.QueryRowContext(ctx, `SELECT count(*) FROM campaign_reports`).Scan(&n))
	assert.Zero(t, n)
	require.NoError(t, sqlDB.Close())

	// reopening finds nothing left to apply
	sqlDB, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer sqlDB.Close()
	applied, err := Migrate(ctx, sqlDB, goose.DialectSQLite3)
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestMigrate_UnknownDialect(t *testing.T) {
	_, err := Migrate(context.Background(), nil, goose.DialectMySQL)
	assert.Error(t, err)
}
