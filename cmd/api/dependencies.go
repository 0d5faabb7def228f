package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	brandhandler "github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand/handler"
	brandrepo "github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand/repository"
	brandservice "github.com/FACorreiaa/ad-reporting-tool/internal/domain/brand/service"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
	cataloghandler "github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog/handler"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/extract"
	importhandler "github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/handler"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/mapper"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/parser"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/platform"
	importservice "github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/service"
	reporthandler "github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports/handler"
	reportrepo "github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports/repository"
	reportservice "github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports/service"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/config"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/cron"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/db"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/observability"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/storage"
)

// Dependencies holds all application dependencies
type Dependencies struct {
	Config *config.Config
	DB     *db.DB
	Logger *slog.Logger

	Registry     *catalog.Registry
	SearchIndex  *catalog.SearchIndex
	PromRegistry *prometheus.Registry
	Metrics      *observability.Metrics
	FileStorage  storage.Storage
	Scheduler    *cron.Scheduler

	// Repositories
	BrandRepo  brandrepo.BrandRepository
	ReportRepo reportrepo.ReportRepository

	// Services
	ImportService *importservice.ImportService
	BrandService  *brandservice.Service
	ReportService *reportservice.ReportService

	// Handlers
	ImportHandler  *importhandler.ImportHandler
	BrandHandler   *brandhandler.BrandHandler
	ReportHandler  *reporthandler.ReportHandler
	CatalogHandler *cataloghandler.CatalogHandler
}

// InitDependencies initializes all application dependencies
func InitDependencies(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config: cfg,
		Logger: logger,
	}

	if err := deps.initRecordStore(ctx); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init record store: %w", err)
	}

	if err := deps.initRepositories(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}

	if err := deps.initServices(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	if err := deps.initHandlers(); err != nil {
		deps.Cleanup()
		return nil, fmt.Errorf("failed to init handlers: %w", err)
	}

	logger.Info("all dependencies initialized successfully")

	return deps, nil
}

// initRecordStore connects the campaign report store selected by
// STORE_DRIVER. Missing STORE_URL or STORE_KEY leaves it disabled.
func (d *Dependencies) initRecordStore(ctx context.Context) error {
	store := d.Config.Store
	if !store.Enabled() {
		return nil
	}

	switch store.Driver {
	case "postgres":
		database, err := db.New(db.Config{
			DSN:             d.Config.PostgresDSN(),
			Password:        store.Key,
			MaxConns:        int32(d.Config.Database.MaxConns),
			MinConns:        int32(d.Config.Database.MinConns),
			MaxConnLifetime: d.Config.Database.MaxConnLifetime,
			MaxConnIdleTime: d.Config.Database.MaxConnIdleTime,
		}, d.Logger)
		if err != nil {
			return err
		}
		d.DB = database

		if err := d.DB.RunMigrations(); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		d.ReportRepo = reportrepo.NewPostgresReportRepository(d.DB.Pool)

	case "sqlite":
		sqlDB, err := db.OpenSQLite(ctx, store.URL)
		if err != nil {
			return err
		}
		d.ReportRepo = reportrepo.NewSQLiteReportRepository(sqlDB)

	case "mongo":
		repo, err := reportrepo.NewMongoReportRepository(ctx, store.URL, store.MongoDatabase)
		if err != nil {
			return err
		}
		d.ReportRepo = repo

	default:
		return fmt.Errorf("unknown store driver %q", store.Driver)
	}

	d.Logger.Info("record store connected", slog.String("driver", store.Driver))
	return nil
}

// initRepositories initializes all repository layer dependencies
func (d *Dependencies) initRepositories() error {
	d.BrandRepo = brandrepo.NewMemoryBrandRepository()

	d.Logger.Info("repositories initialized")
	return nil
}

// initServices initializes all service layer dependencies
func (d *Dependencies) initServices() error {
	d.Registry = catalog.NewDefaultRegistry()

	index, err := catalog.NewSearchIndex(d.Registry)
	if err != nil {
		return err
	}
	d.SearchIndex = index

	d.PromRegistry = prometheus.NewRegistry()
	d.PromRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	if d.Config.Observability.MetricsEnabled {
		d.Metrics = observability.NewMetrics(d.PromRegistry)
	}

	fileStorage, err := storage.New(storage.Config{LocalPath: d.Config.Storage.LocalPath})
	if err != nil {
		return fmt.Errorf("failed to init file storage: %w", err)
	}
	d.FileStorage = fileStorage

	m, err := mapper.New(d.Registry)
	if err != nil {
		return err
	}
	parserCfg := parser.DefaultConfig()
	if n := d.Config.Import.DelimiterSampleLines; n > 0 {
		parserCfg.SampleLines = n
	}
	d.ImportService = importservice.NewImportService(
		parser.NewParser(parserCfg),
		extract.New(platform.NewDetector(), m, d.Config.Import.HeaderScanRows),
		d.Logger,
	).WithStorage(d.FileStorage).WithMetrics(d.Metrics)

	splicer := sheet.NewSplicer(d.Registry, sheet.UpdateOptions{
		LookAhead: d.Config.Import.UpdateLookAheadRows,
		LookBack:  d.Config.Import.HeaderLookBackRows,
	})
	d.BrandService = brandservice.NewService(d.BrandRepo, d.Registry, splicer, d.Logger).
		WithStorage(d.FileStorage).
		WithMetrics(d.Metrics).
		WithSearchIndex(d.SearchIndex)

	d.ReportService = reportservice.NewReportService(d.ReportRepo, d.Logger)

	retention := time.Duration(d.Config.Storage.RetentionDays) * 24 * time.Hour
	d.Scheduler = cron.NewScheduler(d.FileStorage, retention, d.Logger)

	d.Logger.Info("services initialized")
	return nil
}

// initHandlers initializes all handler dependencies
func (d *Dependencies) initHandlers() error {
	d.ImportHandler = importhandler.NewImportHandler(d.ImportService, d.BrandService, d.Registry, d.Config.Import.MaxUploadBytes, d.Logger)
	d.BrandHandler = brandhandler.NewBrandHandler(d.BrandService, d.Logger)
	d.ReportHandler = reporthandler.NewReportHandler(d.ReportService, d.Registry.Defaults, d.Logger)
	d.CatalogHandler = cataloghandler.NewCatalogHandler(d.Registry, d.SearchIndex, d.Logger)

	d.Logger.Info("handlers initialized")
	return nil
}

// Cleanup closes all resources
func (d *Dependencies) Cleanup() {
	if d.ReportService != nil {
		if err := d.ReportService.Close(); err != nil {
			d.Logger.Warn("failed to close record store", "error", err)
		}
	} else if d.ReportRepo != nil {
		_ = d.ReportRepo.Close()
	}
	if d.DB != nil {
		d.DB.Close()
	}
	if d.SearchIndex != nil {
		_ = d.SearchIndex.Close()
	}
	d.Logger.Info("cleanup completed")
}
