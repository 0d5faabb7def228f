package reconcile

import (
	"io"
	"strings"

	"github.com/gocarina/gocsv"
)

// ReportRow is one line of the metric reconciliation report.
type ReportRow struct {
	Metric      string `csv:"uploaded_metric"`
	Status      string `csv:"status"`
	Confidence  string `csv:"confidence"`
	Suggestions string `csv:"suggestions"`
	MappedTo    string `csv:"mapped_to"`
}

// Report flattens an analysis, with an optional mapping, into report rows.
func Report(a Analysis, mapping MetricMapping) []*ReportRow {
	rows := make([]*ReportRow, 0, len(a.Uploaded))
	for _, m := range a.Exact {
		rows = append(rows, &ReportRow{Metric: m, Status: "exact", MappedTo: m})
	}
	for _, s := range a.Suggestions {
		rows = append(rows, &ReportRow{
			Metric:      s.Uploaded,
			Status:      "unmatched",
			Confidence:  string(s.Confidence),
			Suggestions: strings.Join(s.Candidates, "; "),
			MappedTo:    mapping[s.Uploaded],
		})
	}
	return rows
}

// WriteCSV writes the report as CSV with a header line.
func WriteCSV(w io.Writer, rows []*ReportRow) error {
	return gocsv.Marshal(rows, w)
}
