// Package report presents batch summaries: a terminal table, a
// markdown/HTML report, and a bar chart of per-group outcomes.
package report

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/converter"
)

var (
	okColor   = color.New(color.FgGreen)
	failColor = color.New(color.FgRed)
)

// DisableColorIfNotTerminal turns off ANSI colors when f is not
// attached to a terminal, so piped output stays clean.
func DisableColorIfNotTerminal(f *os.File) {
	if !isatty.IsTerminal(f.Fd()) && !isatty.IsCygwinTerminal(f.Fd()) {
		color.NoColor = true
	}
}

// PrintSummary writes the batch summary table to w.
func PrintSummary(w io.Writer, sum *converter.Summary) {
	fmt.Fprintf(w, "\nConversion Summary:\n")
	for _, g := range sum.Groups {
		fmt.Fprintf(w, "  %s\n", g.Group)
		fmt.Fprintf(w, "    attempted=%d  %s  %s\n",
			g.Attempted,
			okColor.Sprintf("succeeded=%d", g.Succeeded),
			failColor.Sprintf("failed=%d", g.Failed))
	}
	fmt.Fprintf(w, "  Total: attempted=%d  %s  %s  (%s)\n",
		sum.Attempted,
		okColor.Sprintf("succeeded=%d", sum.Succeeded),
		failColor.Sprintf("failed=%d", sum.Failed),
		sum.Elapsed.Round(time.Millisecond))

	if sum.Failed > 0 {
		fmt.Fprintf(w, "\nFailed files:\n")
		for _, r := range sum.Results {
			if !r.OK {
				fmt.Fprintf(w, "  - %s: %s\n", r.Source, r.Err)
			}
		}
	}
}
