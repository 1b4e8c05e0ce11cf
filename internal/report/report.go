// Package report renders a reconciliation result into human-readable and
// CSV output. It is a consumer of the core's DiffResult and RunMetrics; the
// engine never depends on it.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/recondo/recondo/pkg/errors"
	"github.com/recondo/recondo/pkg/metrics"
	"github.com/recondo/recondo/pkg/reconcile"
)

// detailLimit caps the per-field mismatch rows in the text summary.
const detailLimit = 10

// Renderer writes report files into a timestamped directory under Base.
type Renderer struct {
	// Base is the parent directory for report directories.
	Base string

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Render writes summary.txt and mismatches.csv and returns the report
// directory path.
func (r *Renderer) Render(result *reconcile.Result, m metrics.RunMetrics, sourceA, sourceB string) (string, error) {
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	dir := filepath.Join(r.Base, "reconciliation_report_"+now().Format("20060102_150405"))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.WrapIO("create", dir, err)
	}

	if err := r.writeSummary(filepath.Join(dir, "summary.txt"), result, m, sourceA, sourceB, now()); err != nil {
		return "", err
	}
	if err := r.writeCSV(filepath.Join(dir, "mismatches.csv"), result); err != nil {
		return "", err
	}
	return dir, nil
}

// writeSummary writes the human-readable report.
func (r *Renderer) writeSummary(path string, result *reconcile.Result, m metrics.RunMetrics, sourceA, sourceB string, now time.Time) error {
	var b strings.Builder

	b.WriteString("Reconciliation Report\n")
	b.WriteString("====================\n\n")
	fmt.Fprintf(&b, "Run Date: %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "Sides Compared: %s, %s\n\n", sourceA, sourceB)

	b.WriteString("Summary Metrics:\n")
	fmt.Fprintf(&b, "- Total Records: %d\n", m.TotalRecords)
	fmt.Fprintf(&b, "- Matching Records: %d\n", m.MatchedRecords)
	fmt.Fprintf(&b, "- Match Rate: %.2f%%\n", m.MatchRate*100)
	fmt.Fprintf(&b, "- Records only in %s: %d\n", sourceA, len(result.OnlyInA))
	fmt.Fprintf(&b, "- Records only in %s: %d\n", sourceB, len(result.OnlyInB))
	fmt.Fprintf(&b, "- Unkeyable records: %d\n", m.Unkeyable)
	fmt.Fprintf(&b, "- Duplicate keys: %d\n", m.DuplicateKeys)
	fmt.Fprintf(&b, "- Fields with mismatches: %d\n\n", len(result.Mismatches))

	b.WriteString("Detailed Mismatches:\n")
	for _, field := range sortedFields(result.Mismatches) {
		list := result.Mismatches[field]
		fmt.Fprintf(&b, "\n%s:\n", field)
		for i, mm := range list {
			if i == detailLimit {
				fmt.Fprintf(&b, "  ... and %d more\n", len(list)-detailLimit)
				break
			}
			fmt.Fprintf(&b, "  %d. Key: %s, %s: %s, %s: %s\n",
				i+1, mm.Key, sourceA, mm.A, sourceB, mm.B)
		}
	}

	return errors.WrapIO("write", path, os.WriteFile(path, []byte(b.String()), 0o644))
}

// writeCSV writes every mismatch as one CSV row.
func (r *Renderer) writeCSV(path string, result *reconcile.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"field", "key", "value_a", "value_b"}); err != nil {
		return errors.WrapIO("write", path, err)
	}
	for _, field := range sortedFields(result.Mismatches) {
		for _, mm := range result.Mismatches[field] {
			row := []string{
				field,
				strings.Join(mm.Key.Parts(), "|"),
				mm.A.String(),
				mm.B.String(),
			}
			if err := w.Write(row); err != nil {
				return errors.WrapIO("write", path, err)
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}

func sortedFields(mismatches map[string][]reconcile.Mismatch) []string {
	out := make([]string, 0, len(mismatches))
	for f := range mismatches {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}
