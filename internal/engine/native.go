package engine

import (
	"fmt"
	"reflect"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"github.com/batchatco/go-native-netcdf/netcdf/hdf5"
	"github.com/ctessum/sparse"
)

// nativeBackend auto-detects the file format (classic CDF or HDF5-based
// netCDF-4), mirroring the coverage of the Python netcdf4 engine.
type nativeBackend struct{}

func (nativeBackend) open(path string) ([]Variable, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s as netcdf: %w", path, err)
	}
	return groupVariables(g, path)
}

// hdf5Backend reads HDF5-based netCDF-4 files only, like the Python
// h5netcdf engine. Classic-format files are rejected at open time.
type hdf5Backend struct{}

func (hdf5Backend) open(path string) ([]Variable, error) {
	g, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s as hdf5 netcdf: %w", path, err)
	}
	return groupVariables(g, path)
}

// groupVariables decodes every numeric variable in the root group.
// The group (and with it the source file handle) is closed before
// returning.
func groupVariables(g api.Group, path string) ([]Variable, error) {
	defer g.Close()

	var vars []Variable
	for _, name := range g.ListVariables() {
		v, err := g.GetVariable(name)
		if err != nil {
			return nil, fmt.Errorf("reading variable %s from %s: %w", name, path, err)
		}
		elems, shape, ok := flattenValues(v.Values)
		if !ok {
			continue
		}
		dims := v.Dimensions
		if len(dims) != len(shape) {
			dims = syntheticDims(len(shape))
		}
		data := sparse.ZerosDense(shape...)
		copy(data.Elements, elems)
		vars = append(vars, Variable{Name: name, Dims: dims, Data: data})
	}
	return vars, nil
}

// flattenValues converts the nested-slice representation returned by
// the native reader into a flat row-major float slice plus its shape.
// Non-numeric values (character data) return ok=false. Scalars become
// a single-element one-dimensional array.
func flattenValues(val interface{}) (elems []float64, shape []int, ok bool) {
	rv := reflect.ValueOf(val)
	if !rv.IsValid() {
		return nil, nil, false
	}
	if numericKind(rv.Kind()) {
		return []float64{numericValue(rv)}, []int{1}, true
	}
	if rv.Kind() != reflect.Slice {
		return nil, nil, false
	}

	base := rv.Type()
	for base.Kind() == reflect.Slice {
		base = base.Elem()
	}
	if !numericKind(base.Kind()) {
		return nil, nil, false
	}

	for v := rv; v.Kind() == reflect.Slice; {
		shape = append(shape, v.Len())
		if v.Len() == 0 {
			break
		}
		v = v.Index(0)
	}

	var walk func(v reflect.Value)
	walk = func(v reflect.Value) {
		if v.Kind() != reflect.Slice {
			elems = append(elems, numericValue(v))
			return
		}
		for i := 0; i < v.Len(); i++ {
			walk(v.Index(i))
		}
	}
	walk(rv)

	n := 1
	for _, s := range shape {
		n *= s
	}
	if n != len(elems) {
		// Ragged input; degrade to one dimension rather than guessing.
		shape = []int{len(elems)}
	}
	return elems, shape, true
}

func numericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func numericValue(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return v.Float()
	}
}
