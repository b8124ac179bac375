package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tealeg/xlsx"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/engine"
)

// maxSheetRows is the xlsx row limit minus the header row.
const maxSheetRows = 1048575

// writeWorkbook writes one xlsx workbook with a sheet per variable.
// Variables longer than the sheet row limit are truncated.
func writeWorkbook(path string, vars []engine.Variable) error {
	f := xlsx.NewFile()

	for _, v := range vars {
		sheet, err := f.AddSheet(sheetName(v.Name))
		if err != nil {
			return fmt.Errorf("adding sheet for %s: %w", v.Name, err)
		}

		header := sheet.AddRow()
		for _, d := range v.Dims {
			header.AddCell().SetString(d)
		}
		header.AddCell().SetString(v.Name)

		n := len(v.Data.Elements)
		if n > maxSheetRows {
			n = maxSheetRows
		}
		for i := 0; i < n; i++ {
			row := sheet.AddRow()
			for _, j := range v.Data.IndexNd(i) {
				row.AddCell().SetInt(j)
			}
			row.AddCell().SetFloat(v.Data.Elements[i])
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	return f.Save(path)
}

// sheetName trims and sanitizes a variable name to the 31-character
// sheet name limit.
func sheetName(name string) string {
	s := sanitize(name)
	if len(s) > 31 {
		s = s[:31]
	}
	return s
}
