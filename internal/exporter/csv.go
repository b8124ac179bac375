package exporter

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/engine"
	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/filelock"
)

// writeVariableCSV writes one variable as CSV: one column per dimension
// holding the index along that dimension, then the value column.
func writeVariableCSV(path string, v engine.Variable) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(v.Dims)+1)
	header = append(header, v.Dims...)
	header = append(header, v.Name)
	if err := w.Write(header); err != nil {
		return err
	}

	for i, val := range v.Data.Elements {
		rec := indexRecord(v.Data.IndexNd(i), len(v.Dims))
		rec = append(rec, formatValue(val))
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return filelock.AtomicWrite(path, buf.Bytes())
}

// writeCombinedCSV writes variables sharing one shape side by side:
// the dimension columns of the first variable, then one value column
// per variable.
func writeCombinedCSV(path string, vars []engine.Variable) error {
	first := vars[0]

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := make([]string, 0, len(first.Dims)+len(vars))
	header = append(header, first.Dims...)
	for _, v := range vars {
		header = append(header, v.Name)
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range first.Data.Elements {
		rec := indexRecord(first.Data.IndexNd(i), len(first.Dims))
		for _, v := range vars {
			rec = append(rec, formatValue(v.Data.Elements[i]))
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return filelock.AtomicWrite(path, buf.Bytes())
}

// indexRecord renders an n-dimensional index as CSV fields, padded in
// case the index has fewer entries than there are dimension columns.
func indexRecord(idx []int, dims int) []string {
	rec := make([]string, 0, dims+1)
	for _, j := range idx {
		rec = append(rec, strconv.Itoa(j))
	}
	for len(rec) < dims {
		rec = append(rec, "0")
	}
	return rec
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
