// Package report writes the unmatched-bridge CSV and the run summary.
package report

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"

	"github.com/sells-group/bridge-geocode/internal/enrich"
	"github.com/sells-group/bridge-geocode/internal/model"
)

var csvHeader = []string{"file", "section", "bezirk", "name"}

// WriteUnmatched writes rows as CSV with every field quoted and rows
// separated by "\n". There is no trailing newline.
func WriteUnmatched(w io.Writer, rows []model.Unmatched) error {
	lines := make([]string, 0, len(rows)+1)
	lines = append(lines, strings.Join(csvHeader, ","))
	for _, u := range rows {
		lines = append(lines, strings.Join([]string{
			quote(u.File),
			quote(u.Section),
			quote(u.Area),
			quote(u.Name),
		}, ","))
	}
	if _, err := io.WriteString(w, strings.Join(lines, "\n")); err != nil {
		return eris.Wrap(err, "report: write unmatched csv")
	}
	return nil
}

// WriteUnmatchedFile writes the unmatched CSV to path. Nothing is written
// when rows is empty; the returned bool reports whether a file was written.
func WriteUnmatchedFile(path string, rows []model.Unmatched) (bool, error) {
	if len(rows) == 0 {
		return false, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return false, eris.Wrapf(err, "report: create %s", path)
	}
	if err := WriteUnmatched(f, rows); err != nil {
		f.Close() //nolint:errcheck
		return false, err
	}
	if err := f.Close(); err != nil {
		return false, eris.Wrapf(err, "report: close %s", path)
	}
	return true, nil
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

const rule = "=================================================="

// WriteSummary prints the run totals followed by hit counts per strategy
// and per source.
func WriteSummary(out io.Writer, res enrich.Result) {
	_, _ = fmt.Fprintln(out, rule)
	_, _ = fmt.Fprintln(out, "SUMMARY")
	_, _ = fmt.Fprintln(out, rule)
	_, _ = fmt.Fprintf(out, "  Already had coordinates: %d\n", res.Already)
	_, _ = fmt.Fprintf(out, "  Newly matched:           %d\n", res.Matched)
	_, _ = fmt.Fprintf(out, "  Unmatched:               %d\n", len(res.Unmatched))
	_, _ = fmt.Fprintf(out, "  Total bridges:           %d\n", res.Total)
	_, _ = fmt.Fprintln(out, rule)

	if res.Matched == 0 {
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "STRATEGY\tMATCHES")
	for _, k := range sortedKeys(res.ByStrategy) {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", k, res.ByStrategy[k])
	}
	_, _ = fmt.Fprintln(w, "\t")
	_, _ = fmt.Fprintln(w, "SOURCE\tMATCHES")
	for _, k := range sortedKeys(res.BySource) {
		_, _ = fmt.Fprintf(w, "%s\t%d\n", k, res.BySource[k])
	}
	_ = w.Flush()
}

func sortedKeys[K ~string](m map[K]int) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
