package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports/repository"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/db"
)

var defaults = []string{"Campaign Name", "Date", "Impressions"}

func newTestService(t *testing.T) *ReportService {
	t.Helper()
	sqlDB, err := db.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	svc := NewReportService(repository.NewSQLiteReportRepository(sqlDB), slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func testSheet() *sheet.Sheet {
	return &sheet.Sheet{
		Metrics: []string{"Campaign Name", "Impressions"},
		Data:    [][]string{{"Campaign Name", "Impressions"}, {"Ad1", "1000"}},
	}
}

func TestReportService_SaveLoad(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	rec, err := svc.SaveAs(ctx, "  Q1 Launch ", testSheet())
	require.NoError(t, err)
	assert.Equal(t, "Q1 Launch", rec.Name)

	sh := testSheet()
	sh.Data = append(sh.Data, []string{"Ad2", "50"})
	_, err = svc.Save(ctx, rec.ID, "Q1 Launch", sh)
	require.NoError(t, err)

	got, loaded, err := svc.Load(ctx, rec.ID, defaults)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, sh.Metrics, loaded.Metrics)
	assert.Equal(t, sh.Data, loaded.Data)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	found, err := svc.Search(ctx, "launch")
	require.NoError(t, err)
	assert.Len(t, found, 1)

	require.NoError(t, svc.Delete(ctx, rec.ID))
	_, _, err = svc.Load(ctx, rec.ID, defaults)
	assert.ErrorIs(t, err, reports.ErrRecordNotFound)

	var perr *reports.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "load", perr.Op)
}

func TestReportService_LoadDefaultsMetrics(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	rec, err := svc.SaveAs(ctx, "bare", &sheet.Sheet{Data: [][]string{{"x"}}})
	require.NoError(t, err)

	_, loaded, err := svc.Load(ctx, rec.ID, defaults)
	require.NoError(t, err)
	assert.Equal(t, defaults, loaded.Metrics)
}

func TestReportService_EmptyName(t *testing.T) {
	svc := newTestService(t)
	_, err := svc.SaveAs(context.Background(), "   ", testSheet())
	assert.ErrorIs(t, err, reports.ErrEmptyName)
}

func TestReportService_Disabled(t *testing.T) {
	var logs bytes.Buffer
	svc := NewReportService(nil, slog.New(slog.NewTextHandler(&logs, nil)))
	ctx := context.Background()
	id := uuid.New()

	assert.False(t, svc.Enabled())
	assert.Contains(t, logs.String(), "record store disabled")

	calls := map[string]func() error{
		"save as": func() error { _, err := svc.SaveAs(ctx, "x", testSheet()); return err },
		"save":    func() error { _, err := svc.Save(ctx, id, "x", testSheet()); return err },
		"load":    func() error { _, _, err := svc.Load(ctx, id, defaults); return err },
		"list":    func() error { _, err := svc.List(ctx); return err },
		"search":  func() error { _, err := svc.Search(ctx, "x"); return err },
		"delete":  func() error { return svc.Delete(ctx, id) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, call(), reports.ErrConfigurationMissing)
		})
	}
	assert.NoError(t, svc.Close())
}

type failingRepo struct {
	repository.ReportRepository
	err error
}

func (f failingRepo) Create(context.Context, *reports.Record) error { return f.err }

func TestReportService_PersistenceError(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewReportService(failingRepo{err: boom}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, err := svc.SaveAs(context.Background(), "Q1", testSheet())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "failed to create campaign report: connection refused", err.Error())
}
