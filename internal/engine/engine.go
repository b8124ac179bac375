// Package engine opens NetCDF files through interchangeable backends
// and decodes their numeric variables into dense arrays.
//
// Three engines are available, named after the equivalent xarray
// engines so that invocations translate directly:
//
//   - netcdf4:  pure-Go reader that auto-detects classic (CDF) and
//     HDF5-based netCDF-4 files (github.com/batchatco/go-native-netcdf)
//   - scipy:    classic-format-only reader (github.com/ctessum/cdf)
//   - h5netcdf: HDF5-based netCDF-4 files only
//
// A file is always tried with the requested engine first and then with
// the remaining engines in the fixed order netcdf4, scipy, h5netcdf.
// Fallback is decided per file; an engine that fails on one file is
// still tried on the next.
package engine

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
)

// Engine identifiers.
const (
	Netcdf4  = "netcdf4"
	Scipy    = "scipy"
	H5netcdf = "h5netcdf"
)

// ErrUnknownEngine reports a requested engine id that is not registered.
var ErrUnknownEngine = errors.New("unknown engine")

// fallbackOrder is the fixed order engines are tried in after the
// requested one.
var fallbackOrder = []string{Netcdf4, Scipy, H5netcdf}

var backends = map[string]backend{
	Netcdf4:  nativeBackend{},
	Scipy:    scipyBackend{},
	H5netcdf: hdf5Backend{},
}

// backend opens a NetCDF file and decodes its numeric variables.
type backend interface {
	open(path string) ([]Variable, error)
}

// Variable is a named multi-dimensional array read from a source file.
// Character variables are never decoded; only numeric data appears here.
type Variable struct {
	Name string
	// Dims holds the dimension names, synthesized (dim0, dim1, ...)
	// when the source does not carry usable names.
	Dims []string
	Data *sparse.DenseArray
}

// Dataset is the decoded content of one source file.
type Dataset struct {
	Path string
	// Engine is the id of the backend that succeeded, which may differ
	// from the one requested.
	Engine    string
	Variables []Variable
}

// Engines returns the known engine ids in fallback order.
func Engines() []string {
	return append([]string(nil), fallbackOrder...)
}

// Known reports whether id names a registered engine.
func Known(id string) bool {
	_, ok := backends[id]
	return ok
}

// Open decodes the file at path, trying the preferred engine first and
// falling back to the remaining engines in fixed order. The source
// file handle is released before Open returns, success or not. On
// total exhaustion the error carries every backend's failure detail.
func Open(path, preferred string) (*Dataset, error) {
	if !Known(preferred) {
		return nil, fmt.Errorf("engine: %w %q (known: %s)", ErrUnknownEngine, preferred, strings.Join(Engines(), ", "))
	}

	var errs []error
	for _, id := range chain(preferred) {
		vars, err := backends[id].open(path)
		if err != nil {
			logrus.WithFields(logrus.Fields{"engine": id, "file": path}).Debugf("backend failed: %v", err)
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
			continue
		}
		if id != preferred {
			logrus.WithField("file", path).Infof("engine %s failed, fell back to %s", preferred, id)
		}
		return &Dataset{Path: path, Engine: id, Variables: vars}, nil
	}
	return nil, fmt.Errorf("engine: no backend could open %s: %w", path, errors.Join(errs...))
}

// chain returns the engine ids to try for one file: the preferred id
// followed by the rest of the fallback order.
func chain(preferred string) []string {
	out := []string{preferred}
	for _, id := range fallbackOrder {
		if id != preferred {
			out = append(out, id)
		}
	}
	return out
}

// syntheticDims returns placeholder dimension names for variables whose
// source carries none.
func syntheticDims(n int) []string {
	dims := make([]string, n)
	for i := range dims {
		dims[i] = fmt.Sprintf("dim%d", i)
	}
	return dims
}
