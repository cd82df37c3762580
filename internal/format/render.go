package format

import (
	"fmt"
	"io"
	"strings"

	"xgb/internal/datastore"
	"xgb/internal/ledger"
)

// NameList writes a titled bullet list, or empty when names is empty.
func NameList(w io.Writer, title string, names []string, empty string) {
	if len(names) == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, n := range names {
		fmt.Fprintf(w, "- %s\n", n)
	}
}

// Project writes a project's header fields followed by its run table.
func Project(w io.Writer, info ledger.ProjectInfo, m Mode) {
	champion := "-"
	if info.Champion != nil {
		champion = *info.Champion
	}
	fmt.Fprintf(w, "Project Name: %s\n", info.Name)
	fmt.Fprintf(w, "Created At: %s\n", info.CreatedAt)
	fmt.Fprintf(w, "Prediction Type: %s\n", info.PredictionType)
	fmt.Fprintf(w, "Champion: %s\n", champion)
	if len(info.Models) == 0 {
		fmt.Fprintln(w, "Model Runs: none")
		return
	}
	fmt.Fprintln(w, "Model Runs:")
	fmt.Fprintln(w, Runs(info, m))
}

// Runs renders the run history, one row per run, with one column per metric
// seen across all runs.
func Runs(info ledger.ProjectInfo, m Mode) string {
	seen := map[string]bool{}
	var metrics []string
	for _, r := range info.Models {
		for _, n := range r.Metrics.Names() {
			if !seen[n] {
				seen[n] = true
				metrics = append(metrics, n)
			}
		}
	}

	tb := NewTable(m)
	header := []string{"#", "Model", "Run Time", "Dataset"}
	header = append(header, metrics...)
	header = append(header, "Train Time", "Champion")
	tb.Header(header...)
	for i, r := range info.Models {
		row := []any{i + 1, r.Name, r.RunTime, r.Dataset}
		for _, n := range metrics {
			if v, ok := r.Metrics.Values[n]; ok {
				row = append(row, FmtMetric(v))
			} else {
				row = append(row, "")
			}
		}
		isChampion := info.Champion != nil && *info.Champion == r.Name
		row = append(row, r.Metrics.TrainTime, BoolMark(isChampion))
		tb.Row(row...)
	}
	cfgs := []ColumnConfig{{Number: 1, Align: AlignRight}}
	for i := range metrics {
		cfgs = append(cfgs, ColumnConfig{Number: 5 + i, Align: AlignRight})
	}
	tb.Columns(cfgs...)
	return tb.String()
}

// Dataset renders a dataset summary.
func Dataset(w io.Writer, s *datastore.Summary, m Mode) {
	tb := NewTable(m)
	tb.Header("Dataset", "Rows", "Columns", "Size")
	tb.Row(s.Name, s.Rows, len(s.Columns), FmtBytes(s.Size))
	tb.Columns(ColumnConfig{Number: 2, Align: AlignRight}, ColumnConfig{Number: 3, Align: AlignRight})
	fmt.Fprintln(w, tb.String())
	fmt.Fprintf(w, "Columns: %s\n", strings.Join(s.Columns, ", "))
}

// Models renders the saved models of a project with their latest run.
func Models(names []string, info ledger.ProjectInfo, m Mode) string {
	tb := NewTable(m)
	tb.Header("Model", "Last Run", "Dataset", "Params", "Champion")
	for _, n := range names {
		r, ok := info.LatestRun(n)
		if !ok {
			tb.Row(n, "-", "-", "", "")
			continue
		}
		isChampion := info.Champion != nil && *info.Champion == n
		tb.Row(n, r.RunTime, r.Dataset, Truncate(FmtParams(r.Params), 60), BoolMark(isChampion))
	}
	return tb.String()
}
