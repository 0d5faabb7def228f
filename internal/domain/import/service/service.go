// Package service provides the import orchestration logic.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/extract"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/parser"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/platform"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/sniffer"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/observability"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/storage"
)

// ErrAllFilesFailed is returned when no file of a batch produced campaigns.
var ErrAllFilesFailed = errors.New("no campaign data could be extracted from any file")

// File is one uploaded file.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// FileError reports why a single file of a batch was skipped.
type FileError struct {
	File string `json:"file"`
	Err  error  `json:"-"`
}

func (e FileError) Error() string { return fmt.Sprintf("%s: %v", e.File, e.Err) }

func (e FileError) Unwrap() error { return e.Err }

// FileResult is the extraction outcome of one file.
type FileResult struct {
	File        string                 `json:"file"`
	Fingerprint string                 `json:"fingerprint"`
	Format      parser.Format          `json:"format"`
	Platform    platform.Platform      `json:"platform"`
	Header      sniffer.HeaderLocation `json:"header"`
	Records     []campaign.Record      `json:"records"`
	Skipped     int                    `json:"skipped"`
	StoredAs    *uuid.UUID             `json:"storedAs,omitempty"`
}

// BatchResult merges the records of every successful file in upload order.
type BatchResult struct {
	Files      []FileResult      `json:"files"`
	Records    []campaign.Record `json:"records"`
	FileErrors []FileError       `json:"-"`
}

// Messages returns the per-file errors as display strings.
func (b *BatchResult) Messages() []string {
	out := make([]string, len(b.FileErrors))
	for i, fe := range b.FileErrors {
		out[i] = fe.Error()
	}
	return out
}

// ImportService orchestrates parsing and extraction of uploaded files
type ImportService struct {
	parser    *parser.Parser
	extractor *extract.Extractor
	storage   storage.Storage // Optional: nil keeps uploads in memory only
	metrics   *observability.Metrics
	tracer    trace.Tracer
	workers   int
	logger    *slog.Logger
}

// NewImportService creates a new import service
func NewImportService(p *parser.Parser, e *extract.Extractor, logger *slog.Logger) *ImportService {
	return &ImportService{
		parser:    p,
		extractor: e,
		tracer:    observability.Tracer("import"),
		workers:   runtime.GOMAXPROCS(0),
		logger:    logger,
	}
}

// WithStorage keeps a copy of every uploaded file per brand
func (s *ImportService) WithStorage(st storage.Storage) *ImportService {
	s.storage = st
	return s
}

// WithMetrics records per-file counters
func (s *ImportService) WithMetrics(m *observability.Metrics) *ImportService {
	s.metrics = m
	return s
}

// ProcessFile parses and extracts a single file.
func (s *ImportService) ProcessFile(ctx context.Context, file File) (*FileResult, error) {
	ctx, span := s.tracer.Start(ctx, "import.ProcessFile", trace.WithAttributes(
		attribute.String("file.name", file.Name),
		attribute.Int("file.size", len(file.Data)),
	))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	parsed, err := s.parser.Parse(file.Name, bytes.NewReader(file.Data))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, err
	}

	extracted, err := s.extractor.Extract(parsed.Grid)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extract failed")
		return nil, err
	}
	span.SetAttributes(
		attribute.String("import.platform", extracted.Platform.String()),
		attribute.Int("import.campaigns", len(extracted.Records)),
	)

	return &FileResult{
		File:        file.Name,
		Fingerprint: sniffer.Fingerprint(extracted.Header.Headers),
		Format:      parsed.Format,
		Platform:    extracted.Platform,
		Header:      extracted.Header,
		Records:     extracted.Records,
		Skipped:     extracted.Skipped,
	}, nil
}

// ProcessBatch extracts every file concurrently. A failing file is reported
// in FileErrors and does not stop the others; ErrAllFilesFailed is returned
// together with the result when nothing could be extracted.
func (s *ImportService) ProcessBatch(ctx context.Context, brandID uuid.UUID, files []File) (*BatchResult, error) {
	results := make([]*FileResult, len(files))
	errs := make([]error, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, f := range files {
		g.Go(func() error {
			res, err := s.ProcessFile(gctx, f)
			if err != nil {
				errs[i] = err
				return nil
			}
			results[i] = res
			s.store(gctx, brandID, f, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &BatchResult{}
	for i, f := range files {
		if errs[i] != nil {
			s.metrics.FileParsed("failed")
			s.logger.Warn("skipping uploaded file",
				slog.String("file", f.Name),
				slog.Any("error", errs[i]),
			)
			batch.FileErrors = append(batch.FileErrors, FileError{File: f.Name, Err: errs[i]})
			continue
		}
		res := results[i]
		s.metrics.FileParsed("ok")
		s.metrics.Extracted(res.Platform.String(), len(res.Records))
		batch.Files = append(batch.Files, *res)
		batch.Records = append(batch.Records, res.Records...)
	}

	s.logger.Info("import batch processed",
		slog.Int("files", len(files)),
		slog.Int("failed", len(batch.FileErrors)),
		slog.Int("campaigns", len(batch.Records)),
	)

	if len(batch.Records) == 0 {
		return batch, ErrAllFilesFailed
	}
	return batch, nil
}

func (s *ImportService) store(ctx context.Context, brandID uuid.UUID, f File, res *FileResult) {
	if s.storage == nil || brandID == uuid.Nil {
		return
	}
	info, err := s.storage.Save(ctx, brandID, storage.KindUpload, f.Name, f.ContentType, bytes.NewReader(f.Data))
	if err != nil {
		s.logger.Warn("failed to store uploaded file",
			slog.String("file", f.Name),
			slog.Any("error", err),
		)
		return
	}
	res.StoredAs = &info.ID
}
