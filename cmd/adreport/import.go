package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/campaign"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/export"
	importservice "github.com/FACorreiaa/ad-reporting-tool/internal/domain/import/service"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/reconcile"
	"github.com/FACorreiaa/ad-reporting-tool/internal/domain/sheet"
)

type importOptions struct {
	sheetPath string
	metrics   string
	mode      string
	out       string
	campaigns string
	filter    string
	fuzzy     string
	clusters  []string
	mapping   map[string]string
	autoMap   bool
	tab       string
}

func newImportCmd(a *app) *cobra.Command {
	opts := &importOptions{}
	cmd := &cobra.Command{
		Use:   "import <files...>",
		Short: "Extract campaigns from ad exports and splice them into a sheet",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(cmd, a, opts, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.sheetPath, "sheet", "", "Existing sheet as JSON (default: a new sheet)")
	f.StringVar(&opts.metrics, "metrics", "", "Comma separated metrics of a new sheet (default: the default metrics)")
	f.StringVar(&opts.mode, "mode", string(sheet.ModeInsert), "Import mode: insert or update")
	f.StringVarP(&opts.out, "out", "o", "-", "Output file, .json or .xlsx; - writes JSON to stdout")
	f.StringVar(&opts.campaigns, "campaigns", "", "Comma separated campaigns to import (default: all)")
	f.StringVar(&opts.filter, "filter", "", "Import only campaigns whose name contains this text")
	f.StringVar(&opts.fuzzy, "fuzzy", "", "Import only campaigns fuzzily matching this text, closest first")
	f.StringArrayVar(&opts.clusters, "cluster", nil, "Group campaigns under a label, e.g. --cluster Retargeting=Retarget_A,Retarget_B")
	f.StringToStringVar(&opts.mapping, "map", nil, "Uploaded metric to sheet metric, e.g. --map Conversions=Leads")
	f.BoolVar(&opts.autoMap, "auto-map", false, "Map unmatched metrics to their most likely sheet metric")
	f.StringVar(&opts.tab, "tab", "Campaign 1", "Sheet name used for .xlsx output")
	return cmd
}

func runImport(cmd *cobra.Command, a *app, opts *importOptions, args []string) error {
	ctx := cmd.Context()
	mode, err := sheet.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	sh, err := a.loadSheet(opts.sheetPath, splitList(opts.metrics))
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
	batch, err := svc.ProcessBatch(ctx, uuid.Nil, files)
	printFileErrors(cmd.ErrOrStderr(), batch)
	if err != nil {
		return err
	}

	session, err := buildSession(a, opts, batch.Records, sh.Metrics)
	if err != nil {
		return err
	}
	selection := session.Confirm()

	records, targets := selection.Records(batch.Records)
	if len(records) == 0 {
		return errors.New("none of the selected campaigns were extracted")
	}
	next, report, err := a.splicer().Splice(ctx, sh, sheet.Request{
		Mode:       mode,
		Records:    records,
		Clusters:   selection.Clusters,
		NewMetrics: targets,
	})
	if err != nil {
		return err
	}

	printReport(cmd.ErrOrStderr(), report)
	return writeSheet(cmd.OutOrStdout(), opts.out, opts.tab, next, a.registry.Defaults())
}

// buildSession selects campaigns, clusters and mapping from the flags the way
// an interactive review would.
func buildSession(a *app, opts *importOptions, records []campaign.Record, available []string) (*reconcile.Session, error) {
	session := reconcile.NewSession(records)
	names := campaign.Names(records)

	switch {
	case opts.campaigns != "":
		for _, name := range splitList(opts.campaigns) {
			if session.IsSelected(name) {
				continue
			}
			if err := session.Toggle(name); err != nil {
				return nil, fmt.Errorf("%w: %s", err, name)
			}
		}
	case opts.filter != "" || opts.fuzzy != "":
		picked := names
		if opts.filter != "" {
			picked = reconcile.FilterCampaigns(picked, opts.filter)
		}
		if opts.fuzzy != "" {
			picked = reconcile.RankCampaigns(picked, opts.fuzzy)
		}
		for _, name := range picked {
			if err := session.Toggle(name); err != nil {
				return nil, err
			}
		}
	default:
		session.SelectAll("")
	}

	for _, spec := range opts.clusters {
		label, list, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("invalid cluster %q, want name=campaign,campaign", spec)
		}
		c, err := session.CreateCluster(label)
		if err != nil {
			return nil, err
		}
		for _, name := range splitList(list) {
			if !session.IsSelected(name) {
				if err := session.Toggle(name); err != nil {
					return nil, fmt.Errorf("%w: %s", err, name)
				}
			}
			if err := session.Assign(name, c.ID); err != nil {
				return nil, err
			}
		}
	}

	if opts.autoMap {
		matcher := reconcile.NewMatcher(a.registry)
		analysis := matcher.Analyze(records, available)
		session.MergeMapping(matcher.AutoMap(analysis.Unmatched, available))
	}
	session.MergeMapping(opts.mapping)
	return session, nil
}

func printFileErrors(w io.Writer, batch *importservice.BatchResult) {
	if batch == nil {
		return
	}
	for _, msg := range batch.Messages() {
		fmt.Fprintf(w, "skipped %s\n", msg)
	}
}

func printReport(w io.Writer, r *sheet.Report) {
	fmt.Fprintf(w, "%s: %d inserted, %d updated\n", r.Mode, len(r.Inserted), len(r.Updated))
	if len(r.AddedMetrics) > 0 {
		fmt.Fprintf(w, "added metrics: %s\n", strings.Join(r.AddedMetrics, ", "))
	}
	for _, m := range r.Mismatches {
		fmt.Fprintf(w, "not updated: %v\n", m)
	}
}

func writeSheet(stdout io.Writer, out, tab string, sh *sheet.Sheet, defaults []string) error {
	if out == "" || out == "-" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sh)
	}

	var data []byte
	switch strings.ToLower(filepath.Ext(out)) {
	case ".xlsx":
		buf, err := export.Write(tab, sh, defaults, time.Now())
		if err != nil {
			return err
		}
		data = buf.Bytes()
	default:
		var err error
		if data, err = json.MarshalIndent(sh, "", "  "); err != nil {
			return fmt.Errorf("failed to encode sheet: %w", err)
		}
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Fprintf(stdout, "wrote %s\n", out)
	return nil
}
