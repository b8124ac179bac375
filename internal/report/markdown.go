package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/converter"
	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/filelock"
)

// Markdown renders the batch summary as a markdown report.
func Markdown(sum *converter.Summary) []byte {
	var b bytes.Buffer

	fmt.Fprintf(&b, "# Conversion Report\n\n")
	fmt.Fprintf(&b, "Elapsed: %s\n\n", sum.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(&b, "| Group | Attempted | Succeeded | Failed |\n")
	fmt.Fprintf(&b, "| --- | ---: | ---: | ---: |\n")
	for _, g := range sum.Groups {
		fmt.Fprintf(&b, "| %s | %d | %d | %d |\n", g.Group, g.Attempted, g.Succeeded, g.Failed)
	}
	fmt.Fprintf(&b, "| **Total** | %d | %d | %d |\n", sum.Attempted, sum.Succeeded, sum.Failed)

	if sum.Failed > 0 {
		fmt.Fprintf(&b, "\n## Failed files\n\n")
		for _, r := range sum.Results {
			if !r.OK {
				fmt.Fprintf(&b, "- `%s`: %s\n", r.Source, r.Err)
			}
		}
	}

	var notes []converter.Result
	for _, r := range sum.Results {
		if r.OK && r.Note != "" {
			notes = append(notes, r)
		}
	}
	if len(notes) > 0 {
		fmt.Fprintf(&b, "\n## Partial exports\n\n")
		for _, r := range notes {
			fmt.Fprintf(&b, "- `%s`: %s\n", r.Source, r.Note)
		}
	}

	return b.Bytes()
}

// WriteHTML converts the markdown report to HTML and writes it
// atomically to path.
func WriteHTML(path string, sum *converter.Summary) error {
	md := goldmark.New(goldmark.WithExtensions(extension.Table))

	var out bytes.Buffer
	if err := md.Convert(Markdown(sum), &out); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	return filelock.AtomicWrite(path, out.Bytes())
}
