package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/db"
)

func newSQLiteRepo(t *testing.T) (*SQLiteReportRepository, *time.Time) {
	t.Helper()
	sqlDB, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)

	repo := NewSQLiteReportRepository(sqlDB)
	clock := time.Date(2026, 3, 4, 9, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return clock }
	t.Cleanup(func() { _ = repo.Close() })
	return repo, &clock
}

func TestSQLiteReportRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo, clock := newSQLiteRepo(t)

	rec := &reports.Record{
		Name:    "Q1 Launch",
		Metrics: []string{"Campaign Name", "Impressions"},
		Data:    [][]string{{"Campaign Name", "Impressions"}, {"Ad1", "1000"}},
	}
	require.NoError(t, repo.Create(ctx, rec))
	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, *clock, rec.CreatedAt)

	got, err := repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Name, got.Name)
	assert.Equal(t, rec.Metrics, got.Metrics)
	assert.Equal(t, rec.Data, got.Data)
	assert.True(t, got.CreatedAt.Equal(*clock))

	*clock = clock.Add(time.Hour)
	rec.Name = "Q1 Launch v2"
	rec.Data = append(rec.Data, []string{"Ad2", "500"})
	require.NoError(t, repo.Update(ctx, rec))
	assert.True(t, rec.CreatedAt.Equal(clock.Add(-time.Hour)))
	assert.Equal(t, *clock, rec.UpdatedAt)

	got, err = repo.Get(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Q1 Launch v2", got.Name)
	assert.Len(t, got.Data, 3)

	require.NoError(t, repo.Delete(ctx, rec.ID))
	_, err = repo.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, reports.ErrRecordNotFound)
}

func TestSQLiteReportRepository_ListAndSearch(t *testing.T) {
	ctx := context.Background()
	repo, clock := newSQLiteRepo(t)

	for _, name := range []string{"Spring Sale", "Q1_Brand", "Q1 Retargeting"} {
		require.NoError(t, repo.Create(ctx, &reports.Record{Name: name}))
		*clock = clock.Add(time.Minute)
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Q1 Retargeting", all[0].Name)
	assert.Equal(t, "Spring Sale", all[2].Name)
	assert.Equal(t, []string{}, all[0].Metrics)

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"case insensitive", "q1", []string{"Q1 Retargeting", "Q1_Brand"}},
		{"underscore is literal", "q1_", []string{"Q1_Brand"}},
		{"percent is literal", "%", nil},
		{"empty matches all", "", []string{"Q1 Retargeting", "Q1_Brand", "Spring Sale"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			found, err := repo.Search(ctx, tt.query)
			require.NoError(t, err)
			var names []string
			for _, r := range found {
				names = append(names, r.Name)
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestSQLiteReportRepository_NotFound(t *testing.T) {
	ctx := context.Background()
	repo, _ := newSQLiteRepo(t)

	err := repo.Update(ctx, &reports.Record{ID: uuid.New(), Name: "missing"})
	assert.ErrorIs(t, err, reports.ErrRecordNotFound)

	err = repo.Delete(ctx, uuid.New())
	assert.ErrorIs(t, err, reports.ErrRecordNotFound)
}
