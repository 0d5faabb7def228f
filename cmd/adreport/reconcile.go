package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reconcile"
)

func newReconcileCmd(a *app) *cobra.Command {
	var sheetPath, metrics, format string
	cmd := &cobra.Command{
		Use:   "reconcile <files...>",
		Short: "Compare the metrics of ad exports with a sheet's metrics",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sh, err := a.loadSheet(sheetPath, splitList(metrics))
			if err != nil {
				return err
			}
			files, err := readFiles(args)
			if err != nil {
				return err
			}
			svc, err := a.importService()
			if err != nil {
				return err
			}
			batch, err := svc.ProcessBatch(cmd.Context(), uuid.Nil, files)
			printFileErrors(cmd.ErrOrStderr(), batch)
			if err != nil {
				return err
			}

			matcher := reconcile.NewMatcher(a.registry)
			analysis := matcher.Analyze(batch.Records, sh.Metrics)
			rows := reconcile.Report(analysis, matcher.AutoMap(analysis.Unmatched, sh.Metrics))

			switch format {
			case "csv":
				return reconcile.WriteCSV(cmd.OutOrStdout(), rows)
			case "table":
				return writeReportTable(cmd.OutOrStdout(), rows)
			}
			return fmt.Errorf("unknown format %q", format)
		},
	}
	f := cmd.Flags()
	f.StringVar(&sheetPath, "sheet", "", "Sheet as JSON whose metrics are compared")
	f.StringVar(&metrics, "metrics", "", "Comma separated metrics to compare against (default: the default metrics)")
	f.StringVar(&format, "format", "table", "Output format: table or csv")
	return cmd
}

func writeReportTable(w io.Writer, rows []*reconcile.ReportRow) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "METRIC\tSTATUS\tCONFIDENCE\tSUGGESTIONS\tMAPPED TO")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", r.Metric, r.Status, r.Confidence, r.Suggestions, r.MappedTo)
	}
	return tw.Flush()
}
