// Package exporter serializes decoded NetCDF variables into tabular
// output files (CSV, optionally xlsx workbooks).
package exporter

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/engine"
)

// Exporter writes the tabular outputs for one conversion batch. It is
// not safe for concurrent use; the batch driver is sequential.
type Exporter struct {
	outputDir string
	preserve  bool
	workbook  bool

	// used tracks flat-mode base names so colliding sources get
	// numeric suffixes instead of overwriting each other.
	used map[string]int
}

// New returns an Exporter writing under outputDir. With preserve set,
// the input directory layout is mirrored and every source gets its own
// subdirectory; otherwise all outputs land flat in outputDir.
func New(outputDir string, preserve, workbook bool) *Exporter {
	return &Exporter{
		outputDir: outputDir,
		preserve:  preserve,
		workbook:  workbook,
		used:      make(map[string]int),
	}
}

// Export writes one CSV per variable plus a best-effort combined CSV
// (and an xlsx workbook when enabled) for ds. root is the resolution
// root the source was found under, empty for explicitly listed files.
//
// The returned note carries partial-export detail (combined export
// skipped or failed, workbook failed); err is reserved for failures
// that leave the per-variable exports incomplete.
func (e *Exporter) Export(ds *engine.Dataset, root string) (paths []string, note string, err error) {
	dir, base := e.target(ds.Path, root)

	if len(ds.Variables) == 0 {
		return nil, "no numeric variables found", nil
	}

	for _, v := range ds.Variables {
		p := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", base, sanitize(v.Name)))
		if err := writeVariableCSV(p, v); err != nil {
			return paths, note, fmt.Errorf("exporting variable %s: %w", v.Name, err)
		}
		paths = append(paths, p)
	}

	// Combined export is best effort: only variables sharing one shape
	// can share rows, and a failure here never undoes the per-variable
	// files.
	var notes []string
	if len(ds.Variables) > 1 {
		if sameShape(ds.Variables) {
			p := filepath.Join(dir, base+"_all_variables.csv")
			if err := writeCombinedCSV(p, ds.Variables); err != nil {
				notes = append(notes, fmt.Sprintf("combined export failed: %v", err))
			} else {
				paths = append(paths, p)
			}
		} else {
			notes = append(notes, "combined export skipped: variables have incompatible shapes")
		}
	}

	if e.workbook {
		p := filepath.Join(dir, base+".xlsx")
		if err := writeWorkbook(p, ds.Variables); err != nil {
			notes = append(notes, fmt.Sprintf("workbook export failed: %v", err))
		} else {
			paths = append(paths, p)
		}
	}

	return paths, strings.Join(notes, "; "), nil
}

// target decides the output directory and base name for one source.
func (e *Exporter) target(source, root string) (dir, base string) {
	base = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))

	if !e.preserve {
		e.used[base]++
		if n := e.used[base]; n > 1 {
			base = fmt.Sprintf("%s_%d", base, n)
		}
		return e.outputDir, base
	}

	rel := ""
	if root != "" {
		if r, err := filepath.Rel(root, filepath.Dir(source)); err == nil && !strings.HasPrefix(r, "..") && r != "." {
			rel = r
		}
	} else {
		// Explicitly listed files have no resolution root; keep their
		// parent directory name so same-named files from different
		// directories stay apart.
		if parent := filepath.Base(filepath.Dir(source)); parent != "." && parent != string(filepath.Separator) {
			rel = parent
		}
	}
	return filepath.Join(e.outputDir, rel, base), base
}

// sameShape reports whether every variable has the shape of the first.
func sameShape(vars []engine.Variable) bool {
	first := vars[0].Data.Shape
	for _, v := range vars[1:] {
		shape := v.Data.Shape
		if len(shape) != len(first) {
			return false
		}
		for i := range shape {
			if shape[i] != first[i] {
				return false
			}
		}
	}
	return true
}

// sanitize makes a variable name safe for use in a file name.
func sanitize(name string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		}
		return r
	}, name)
}
