// Package service provides the brand workspace operations: brands, tabs,
// sheet edits, imports and exports.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand/repository"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/export"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reconcile"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/observability"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/storage"
)

// ErrNothingSelected is returned by an import without selected campaigns.
var ErrNothingSelected = errors.New("no campaigns selected")

// ImportRequest carries the extracted records and the confirmed selection.
type ImportRequest struct {
	Mode      sheet.Mode          `json:"mode"`
	Records   []campaign.Record   `json:"records"`
	Selection reconcile.Selection `json:"selection"`
}

// ImportResult is the tab after the import plus what the splice did.
type ImportResult struct {
	Sheet  *sheet.Sheet  `json:"sheet"`
	Report *sheet.Report `json:"report"`
}

// Export is a rendered workbook.
type Export struct {
	FileName string
	Data     []byte
	Stored   *storage.FileInfo
}

// Service provides brand workspace business logic
type Service struct {
	repo     repository.BrandRepository
	registry *catalog.Registry
	splicer  *sheet.Splicer
	search   *catalog.SearchIndex
	storage  storage.Storage
	metrics  *observability.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new brand service
func NewService(repo repository.BrandRepository, registry *catalog.Registry, splicer *sheet.Splicer, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		registry: registry,
		splicer:  splicer,
		logger:   logger,
		now:      time.Now,
	}
}

// WithStorage keeps a copy of every exported workbook
func (s *Service) WithStorage(st storage.Storage) *Service {
	s.storage = st
	return s
}

// WithMetrics records splice counters
func (s *Service) WithMetrics(m *observability.Metrics) *Service {
	s.metrics = m
	return s
}

// WithSearchIndex adds custom metrics to the catalog search
func (s *Service) WithSearchIndex(si *catalog.SearchIndex) *Service {
	s.search = si
	return s
}

// CreateBrand creates a brand with one default tab
func (s *Service) CreateBrand(ctx context.Context, name, logo string) (*brand.Brand, error) {
	b, err := brand.New(name, s.registry.Defaults())
	if err != nil {
		return nil, err
	}
	b.Logo = strings.TrimSpace(logo)
	if err := s.repo.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create brand: %w", err)
	}
	s.logger.Info("brand created", slog.String("brand_id", b.ID.String()), slog.String("name", b.Name))
	return b, nil
}

func (s *Service) GetBrand(ctx context.Context, id uuid.UUID) (*brand.Brand, error) {
	return s.repo.Get(ctx, id)
}

// ListBrands returns the listing view of every brand
func (s *Service) ListBrands(ctx context.Context) ([]brand.Summary, error) {
	brands, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}
	out := make([]brand.Summary, len(brands))
	for i, b := range brands {
		out[i] = b.Summary()
	}
	return out, nil
}

// UpdateBrand renames a brand or changes its logo. Nil fields are left as is.
func (s *Service) UpdateBrand(ctx context.Context, id uuid.UUID, name, logo *string) (*brand.Brand, error) {
	return s.mutate(ctx, id, func(b *brand.Brand) error {
		if name != nil {
			n := strings.TrimSpace(*name)
			if n == "" {
				return brand.ErrEmptyName
			}
			b.Name = n
		}
		if logo != nil {
			b.Logo = strings.TrimSpace(*logo)
		}
		return nil
	})
}

func (s *Service) DeleteBrand(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("brand deleted", slog.String("brand_id", id.String()))
	return nil
}

// AddTab adds a tab with a fresh sheet. An empty name picks "Campaign N".
func (s *Service) AddTab(ctx context.Context, id uuid.UUID, name string) (*brand.Brand, string, error) {
	var tab string
	b, err := s.mutate(ctx, id, func(b *brand.Brand) error {
		var err error
		tab, err = b.AddTab(name, s.registry.Defaults())
		return err
	})
	return b, tab, err
}

// DuplicateTab copies a tab and its sheet to "<tab> Copy"
func (s *Service) DuplicateTab(ctx context.Context, id uuid.UUID, tab string) (*brand.Brand, string, error) {
	var name string
	b, err := s.mutate(ctx, id, func(b *brand.Brand) error {
		var err error
		name, err = b.DuplicateTab(tab)
		return err
	})
	return b, name, err
}

func (s *Service) RenameTab(ctx context.Context, id uuid.UUID, from, to string) (*brand.Brand, error) {
	return s.mutate(ctx, id, func(b *brand.Brand) error {
		return b.RenameTab(from, to)
	})
}

func (s *Service) DeleteTab(ctx context.Context, id uuid.UUID, tab string) (*brand.Brand, error) {
	return s.mutate(ctx, id, func(b *brand.Brand) error {
		return b.DeleteTab(tab)
	})
}

// GetSheet returns the sheet of a tab
func (s *Service) GetSheet(ctx context.Context, id uuid.UUID, tab string) (*sheet.Sheet, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.Sheet(tab)
}

// ReplaceSheet swaps a tab's sheet for a loaded one. A sheet without a
// metric list gets the default metrics.
func (s *Service) ReplaceSheet(ctx context.Context, id uuid.UUID, tab string, sh *sheet.Sheet) (*sheet.Sheet, error) {
	next := sh.Clone()
	if len(next.Metrics) == 0 {
		next.Metrics = s.registry.Defaults()
	}
	return s.editSheet(ctx, id, tab, func(*sheet.Sheet) (*sheet.Sheet, error) {
		return next, nil
	})
}

// SetCell overwrites one cell, growing the grid when needed
func (s *Service) SetCell(ctx context.Context, id uuid.UUID, tab string, row, col int, value string) (*sheet.Sheet, error) {
	return s.editSheet(ctx, id, tab, func(sh *sheet.Sheet) (*sheet.Sheet, error) {
		return sh.SetCell(row, col, value)
	})
}

// ToggleMetric removes a selected metric's column or inserts an unselected
// one, backfilled from the brand's uploaded campaign data.
func (s *Service) ToggleMetric(ctx context.Context, id uuid.UUID, tab, metric string) (*sheet.Sheet, error) {
	var out *sheet.Sheet
	_, err := s.mutate(ctx, id, func(b *brand.Brand) error {
		sh, err := b.Sheet(tab)
		if err != nil {
			return err
		}
		out, err = sheet.Toggle(sh, s.registry, metric, b.UploadedCampaignData)
		if err != nil {
			return err
		}
		return b.SetSheet(tab, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ReorderMetrics rewrites the metric order of a tab
func (s *Service) ReorderMetrics(ctx context.Context, id uuid.UUID, tab string, metrics []string) (*sheet.Sheet, error) {
	return s.editSheet(ctx, id, tab, func(sh *sheet.Sheet) (*sheet.Sheet, error) {
		return sheet.Reorder(sh, metrics)
	})
}

// AddCustomMetric registers a custom metric and selects it on the tab
func (s *Service) AddCustomMetric(ctx context.Context, id uuid.UUID, tab string, c catalog.CustomMetric) (*sheet.Sheet, catalog.CustomMetric, error) {
	c, _, err := s.registry.AddCustom(c)
	if err != nil {
		return nil, c, err
	}
	if s.search != nil {
		if err := s.search.Add(c.Name); err != nil {
			s.logger.Warn("failed to index custom metric", slog.String("metric", c.Name), "error", err)
		}
	}

	var out *sheet.Sheet
	_, err = s.mutate(ctx, id, func(b *brand.Brand) error {
		sh, err := b.Sheet(tab)
		if err != nil {
			return err
		}
		if sh.Column(c.Name) >= 0 {
			out = sh
			return nil
		}
		out, err = sheet.Toggle(sh, s.registry, c.Name, b.UploadedCampaignData)
		if err != nil {
			return err
		}
		return b.SetSheet(tab, out)
	})
	if err != nil {
		return nil, c, err
	}
	return out, c, nil
}

// Import splices the selected campaigns into a tab and keeps them as the
// brand's latest uploaded data. Update mismatches are part of the report,
// not an error.
func (s *Service) Import(ctx context.Context, id uuid.UUID, tab string, req ImportRequest) (*ImportResult, error) {
	records, targets := req.Selection.Records(req.Records)
	if len(records) == 0 {
		return nil, ErrNothingSelected
	}

	var result *ImportResult
	_, err := s.mutate(ctx, id, func(b *brand.Brand) error {
		sh, err := b.Sheet(tab)
		if err != nil {
			return err
		}
		next, report, err := s.splicer.Splice(ctx, sh, sheet.Request{
			Mode:       req.Mode,
			Records:    records,
			Clusters:   req.Selection.Clusters,
			NewMetrics: targets,
		})
		if err != nil {
			return err
		}
		if err := b.SetSheet(tab, next); err != nil {
			return err
		}
		b.MergeUploaded(records)
		result = &ImportResult{Sheet: next, Report: report}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.Spliced(string(result.Report.Mode), len(result.Report.Mismatches))
	s.logger.Info("campaigns imported",
		slog.String("brand_id", id.String()),
		slog.String("tab", tab),
		slog.String("mode", string(result.Report.Mode)),
		slog.Int("inserted", len(result.Report.Inserted)),
		slog.Int("updated", len(result.Report.Updated)),
		slog.Int("mismatches", len(result.Report.Mismatches)),
		slog.Any("added_metrics", result.Report.AddedMetrics),
	)
	if err := result.Report.Err(); err != nil {
		s.logger.Warn("some campaigns were not updated", slog.String("brand_id", id.String()), "error", err)
	}
	return result, nil
}

// Export renders a tab as a workbook and keeps a copy when storage is set.
func (s *Service) Export(ctx context.Context, id uuid.UUID, tab string) (*Export, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sh, err := b.Sheet(tab)
	if err != nil {
		return nil, err
	}

	now := s.now()
	buf, err := export.Write(tab, sh, s.registry.Defaults(), now)
	if err != nil {
		return nil, err
	}
	out := &Export{FileName: export.FileName(b.Name, tab, now), Data: buf.Bytes()}

	if s.storage != nil {
		info, err := s.storage.Save(ctx, b.ID, storage.KindExport, out.FileName, export.ContentType, bytes.NewReader(out.Data))
		if err != nil {
			s.logger.Warn("failed to store export", slog.String("brand_id", id.String()), "error", err)
		} else {
			out.Stored = info
		}
	}
	return out, nil
}

func (s *Service) editSheet(ctx context.Context, id uuid.UUID, tab string, fn func(*sheet.Sheet) (*sheet.Sheet, error)) (*sheet.Sheet, error) {
	var out *sheet.Sheet
	_, err := s.mutate(ctx, id, func(b *brand.Brand) error {
		sh, err := b.Sheet(tab)
		if err != nil {
			return err
		}
		out, err = fn(sh)
		if err != nil {
			return err
		}
		return b.SetSheet(tab, out)
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// mutate loads a brand, applies fn and stores the result. Nothing is stored
// when fn fails.
func (s *Service) mutate(ctx context.Context, id uuid.UUID, fn func(*brand.Brand) error) (*brand.Brand, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(b); err != nil {
		return nil, err
	}
	b.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to update brand: %w", err)
	}
	return b, nil
}
