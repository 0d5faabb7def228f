package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports/repository"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reports/service"
	"github.com/FACorreiaa/ad-reporting-tool/pkg/db"
)

func newRecordsCmd(a *app) *cobra.Command {
	var dbPath string
	var svc *service.ReportService

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Manage campaign reports saved in the local SQLite store",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmd.Root().PersistentPreRunE(cmd, args); err != nil {
				return err
			}
			if dbPath == "" {
				dbPath = a.cfg.Store.SQLitePath
			}
			sqlDB, err := db.OpenSQLite(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			svc = service.NewReportService(repository.NewSQLiteReportRepository(sqlDB), a.logger)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return svc.Close()
		},
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database file (default: STORE_SQLITE_PATH)")

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			return writeRecordTable(cmd.OutOrStdout(), out)
		},
	}

	search := &cobra.Command{
		Use:   "search <text>",
		Short: "Find saved reports whose name contains text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := svc.Search(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeRecordTable(cmd.OutOrStdout(), out)
		},
	}

	var name, sheetPath string
	save := &cobra.Command{
		Use:   "save",
		Short: "Save a sheet as a new report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := a.loadSheet(sheetPath, nil)
			if err != nil {
				return err
			}
			rec, err := svc.SaveAs(cmd.Context(), name, sh)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
			return nil
		},
	}
	save.Flags().StringVar(&name, "name", "", "Report name")
	save.Flags().StringVar(&sheetPath, "sheet", "", "Sheet as JSON")
	_ = save.MarkFlagRequired("name")
	_ = save.MarkFlagRequired("sheet")

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a saved report's sheet as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid report ID: %w", err)
			}
			_, sh, err := svc.Load(cmd.Context(), id, a.registry.Defaults())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(sh)
		},
	}

	remove := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("invalid report ID: %w", err)
			}
			return svc.Delete(cmd.Context(), id)
		},
	}

	cmd.AddCommand(list, search, save, show, remove)
	return cmd
}

func writeRecordTable(w io.Writer, recs []*reports.Record) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tMETRICS\tROWS\tUPDATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%s\n", r.ID, r.Name, len(r.Metrics), len(r.Data), r.UpdatedAt.Format(time.RFC3339))
	}
	return tw.Flush()
}
