package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/catalog"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/extract"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/mapper"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/parser"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/platform"
	importservice "github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/service"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/config"
)

// app is what every subcommand shares once the root command has run.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *catalog.Registry
	verbose  bool
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "adreport",
		Short: "Import ad platform exports into campaign report sheets",
		Long: `adreport reads CSV, TSV and XLSX exports from Meta, Google Ads and
other ad platforms, extracts one record per campaign and splices them into a
campaign report sheet.

Example Usage:
  adreport reconcile meta.csv --metrics "Campaign Name,Impressions,Clicks"
  adreport import meta.csv google.tsv --out report.xlsx
  adreport records list`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			level := cfg.Observability.LogLevel
			if a.verbose {
				level = slog.LevelDebug
			} else if level < slog.LevelWarn {
				level = slog.LevelWarn
			}
			a.cfg = cfg
			a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
			a.registry = catalog.NewDefaultRegistry()
			return nil
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output for debugging")

	root.AddCommand(
		newImportCmd(a),
		newReconcileCmd(a),
		newExportCmd(a),
		newRecordsCmd(a),
	)
	return root
}

func (a *app) importService() (*importservice.ImportService, error) {
	m, err := mapper.New(a.registry)
	if err != nil {
		return nil, err
	}
	cfg := parser.DefaultConfig()
	if n := a.cfg.Import.DelimiterSampleLines; n > 0 {
		cfg.SampleLines = n
	}
	return importservice.NewImportService(
		parser.NewParser(cfg),
		extract.New(platform.NewDetector(), m, a.cfg.Import.HeaderScanRows),
		a.logger,
	), nil
}

func (a *app) splicer() *sheet.Splicer {
	return sheet.NewSplicer(a.registry, sheet.UpdateOptions{
		LookAhead: a.cfg.Import.UpdateLookAheadRows,
		LookBack:  a.cfg.Import.HeaderLookBackRows,
	})
}

func readFiles(paths []string) ([]importservice.File, error) {
	files := make([]importservice.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, importservice.File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

// loadSheet reads a sheet saved as JSON. Without a path it starts a new sheet
// with metrics, or the default metrics.
func (a *app) loadSheet(path string, metrics []string) (*sheet.Sheet, error) {
	if path == "" {
		if len(metrics) == 0 {
			metrics = a.registry.Defaults()
		}
		for _, m := range metrics {
			if _, err := a.registry.Register(m); err != nil {
				return nil, err
			}
		}
		return sheet.New(a.registry.Order(metrics)), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	var sh sheet.Sheet
	if err := json.Unmarshal(data, &sh); err != nil {
		return nil, fmt.Errorf("failed to decode sheet %s: %w", path, err)
	}
	if len(sh.Metrics) == 0 {
		sh.Metrics = a.registry.Defaults()
	}
	return &sh, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
