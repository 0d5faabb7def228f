package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/export"
)

func newExportCmd(a *app) *cobra.Command {
	var sheetPath, brandName, tab, outDir string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Render a sheet as a styled workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sheetPath == "" {
				return errors.New("--sheet is required")
			}
			sh, err := a.loadSheet(sheetPath, nil)
			if err != nil {
				return err
			}

			now := time.Now()
			buf, err := export.Write(tab, sh, a.registry.Defaults(), now)
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("failed to create %s: %w", outDir, err)
			}
			path := filepath.Join(outDir, export.FileName(brandName, tab, now))
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&sheetPath, "sheet", "", "Sheet as JSON")
	f.StringVar(&brandName, "brand", "", "Brand name used in the file name")
	f.StringVar(&tab, "tab", "Campaign 1", "Tab name used for the sheet and file name")
	f.StringVar(&outDir, "out", ".", "Output directory")
	return cmd
}
