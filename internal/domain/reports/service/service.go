// Package service saves and loads campaign reports through the configured
// record store.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports/repository"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
)

// ReportService wraps a record store. Without one it runs disabled and every
// call fails with reports.ErrConfigurationMissing.
type ReportService struct {
	repo   repository.ReportRepository
	logger *slog.Logger
}

// NewReportService creates a report service; repo may be nil.
func NewReportService(repo repository.ReportRepository, logger *slog.Logger) *ReportService {
	if repo == nil {
		logger.Warn("record store disabled", "error", reports.ErrConfigurationMissing)
	}
	return &ReportService{repo: repo, logger: logger}
}

// Enabled reports whether a record store is configured
func (s *ReportService) Enabled() bool {
	return s.repo != nil
}

// SaveAs stores the sheet as a new report
func (s *ReportService) SaveAs(ctx context.Context, name string, sh *sheet.Sheet) (*reports.Record, error) {
	if !s.Enabled() {
		return nil, reports.ErrConfigurationMissing
	}
	rec, err := reports.NewRecord(name, sh)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, s.fail("create", err)
	}
	s.logger.Info("campaign report saved", slog.String("id", rec.ID.String()), slog.String("name", rec.Name))
	return rec, nil
}

// Save overwrites the report id with the sheet
func (s *ReportService) Save(ctx context.Context, id uuid.UUID, name string, sh *sheet.Sheet) (*reports.Record, error) {
	if !s.Enabled() {
		return nil, reports.ErrConfigurationMissing
	}
	rec, err := reports.NewRecord(name, sh)
	if err != nil {
		return nil, err
	}
	rec.ID = id
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, s.fail("update", err)
	}
	return rec, nil
}

func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*reports.Record, error) {
	if !s.Enabled() {
		return nil, reports.ErrConfigurationMissing
	}
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, s.fail("load", err)
	}
	return rec, nil
}

// Load fetches a report as a sheet ready to replace a tab; a report without
// metrics gets defaults.
func (s *ReportService) Load(ctx context.Context, id uuid.UUID, defaults []string) (*reports.Record, *sheet.Sheet, error) {
	rec, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return rec, rec.Sheet(defaults), nil
}

func (s *ReportService) List(ctx context.Context) ([]*reports.Record, error) {
	if !s.Enabled() {
		return nil, reports.ErrConfigurationMissing
	}
	out, err := s.repo.List(ctx)
	if err != nil {
		return nil, s.fail("list", err)
	}
	return out, nil
}

// Search finds reports by name substring, ignoring case
func (s *ReportService) Search(ctx context.Context, q string) ([]*reports.Record, error) {
	if !s.Enabled() {
		return nil, reports.ErrConfigurationMissing
	}
	out, err := s.repo.Search(ctx, q)
	if err != nil {
		return nil, s.fail("search", err)
	}
	return out, nil
}

func (s *ReportService) Delete(ctx context.Context, id uuid.UUID) error {
	if !s.Enabled() {
		return reports.ErrConfigurationMissing
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return s.fail("delete", err)
	}
	s.logger.Info("campaign report deleted", slog.String("id", id.String()))
	return nil
}

// Close releases the record store
func (s *ReportService) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.repo.Close()
}

func (s *ReportService) fail(op string, err error) error {
	if !errors.Is(err, reports.ErrRecordNotFound) {
		s.logger.Error("record store call failed", slog.String("op", op), "error", err)
	}
	return &reports.PersistenceError{Op: op, Err: err}
}
