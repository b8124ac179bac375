package engine

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
)

// scipyBackend reads classic-format (CDF-1/CDF-2) NetCDF files. It has
// the same format coverage as the Python scipy engine: HDF5-based
// netCDF-4 files are rejected at open time.
type scipyBackend struct{}

func (scipyBackend) open(path string) ([]Variable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	cf, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("parsing %s as classic netcdf: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	var vars []Variable
	for _, name := range cf.Header.Variables() {
		// Character variables are not tabular data.
		if _, isChar := cf.Header.ZeroValue(name, 0).(string); isChar {
			continue
		}

		dims := cf.Header.Dimensions(name)
		lengths := cf.Header.Lengths(name)
		if len(lengths) > 0 && lengths[0] == 0 {
			// Record dimension: the header stores 0, the actual count
			// comes from the file size.
			lengths = append([]int(nil), lengths...)
			lengths[0] = int(cf.Header.NumRecs(fi.Size()))
		}
		if len(lengths) == 0 {
			lengths = []int{1}
		}

		r := cf.Reader(name, nil, nil)
		buf := r.Zero(-1)
		if _, err := r.Read(buf); err != nil {
			return nil, fmt.Errorf("reading variable %s from %s: %w", name, path, err)
		}
		data, ok := denseFromSlice(buf, lengths)
		if !ok {
			continue
		}
		if len(dims) != len(data.Shape) {
			dims = syntheticDims(len(data.Shape))
		}
		vars = append(vars, Variable{Name: name, Dims: dims, Data: data})
	}
	return vars, nil
}

// denseFromSlice converts a typed slice read from a classic NetCDF file
// into a DenseArray with the given shape. Returns ok=false for
// non-numeric buffers. A shape that does not match the element count
// degrades to one dimension.
func denseFromSlice(buf interface{}, shape []int) (*sparse.DenseArray, bool) {
	var elems []float64
	switch b := buf.(type) {
	case []float64:
		elems = append(elems, b...)
	case []float32:
		elems = make([]float64, len(b))
		for i, v := range b {
			elems[i] = float64(v)
		}
	case []int32:
		elems = make([]float64, len(b))
		for i, v := range b {
			elems[i] = float64(v)
		}
	case []int16:
		elems = make([]float64, len(b))
		for i, v := range b {
			elems[i] = float64(v)
		}
	case []uint8:
		elems = make([]float64, len(b))
		for i, v := range b {
			elems[i] = float64(v)
		}
	default:
		return nil, false
	}

	n := 1
	for _, s := range shape {
		n *= s
	}
	if n != len(elems) {
		shape = []int{len(elems)}
	}
	data := sparse.ZerosDense(shape...)
	copy(data.Elements, elems)
	return data, true
}
