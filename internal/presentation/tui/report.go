package tui

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/aretw0/covenant/pkg/domain"
	"github.com/muesli/termenv"
)

// CheckResult is the verdict for one method descriptor.
type CheckResult struct {
	ID     string
	Record domain.ClassificationRecord
	Err    error
}

// PrintCheckReport writes one line per result, sorted by ID, and returns the
// number of failures.
func PrintCheckReport(w io.Writer, results []CheckResult) int {
	out := termenv.NewOutput(w)
	ok := out.String("ok  ").Foreground(out.Color("#34d399")).Bold()
	fail := out.String("FAIL").Foreground(out.Color("#f87171")).Bold()

	sort.Slice(results, func(i, j int) bool { return results[i].ID < results[j].ID })

	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			fmt.Fprintf(w, "%s %s\n", fail, r.ID)
			for _, be := range domain.BuildErrors(r.Err) {
				for _, reason := range be.Reasons {
					fmt.Fprintf(w, "     %s\n", out.String(reason).Faint())
				}
			}
			if len(domain.BuildErrors(r.Err)) == 0 {
				fmt.Fprintf(w, "     %s\n", out.String(r.Err.Error()).Faint())
			}
			continue
		}
		fmt.Fprintf(w, "%s %s %s\n", ok, r.ID, summary(r.Record))
	}
	fmt.Fprintf(w, "\n%d checked, %d failed\n", len(results), failures)
	return failures
}

func summary(rec domain.ClassificationRecord) string {
	parts := []string{rec.Kind.String()}
	if rec.Payable {
		parts = append(parts, "payable")
	}
	if rec.Private {
		parts = append(parts, "private")
	}
	parts = append(parts, rec.Return.Kind.String())
	if rec.Return.PersistOnError {
		parts = append(parts, "persist_on_error")
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
