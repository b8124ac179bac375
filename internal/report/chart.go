package report

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/converter"
)

// WriteChart renders a stacked bar chart of per-group successes and
// failures. The output format follows the file extension (png, svg,
// pdf, ...).
func WriteChart(path string, sum *converter.Summary) error {
	if len(sum.Groups) == 0 {
		return fmt.Errorf("no groups to chart")
	}

	p := plot.New()
	p.Title.Text = "Conversion results by group"
	p.Y.Label.Text = "files"

	ok := make(plotter.Values, len(sum.Groups))
	fail := make(plotter.Values, len(sum.Groups))
	names := make([]string, len(sum.Groups))
	for i, g := range sum.Groups {
		ok[i] = float64(g.Succeeded)
		fail[i] = float64(g.Failed)
		names[i] = chartLabel(g.Group)
	}

	width := vg.Points(24)
	okBars, err := plotter.NewBarChart(ok, width)
	if err != nil {
		return fmt.Errorf("building success bars: %w", err)
	}
	okBars.Color = color.RGBA{R: 44, G: 160, B: 44, A: 255}

	failBars, err := plotter.NewBarChart(fail, width)
	if err != nil {
		return fmt.Errorf("building failure bars: %w", err)
	}
	failBars.Color = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	failBars.StackOn(okBars)

	p.Add(okBars, failBars)
	p.Legend.Add("succeeded", okBars)
	p.Legend.Add("failed", failBars)
	p.Legend.Top = true
	p.NominalX(names...)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating chart directory: %w", err)
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("saving chart: %w", err)
	}
	return nil
}

// chartLabel shortens a group path to its base name so axis labels
// stay readable.
func chartLabel(group string) string {
	if group == "files" {
		return group
	}
	return filepath.Base(group)
}
