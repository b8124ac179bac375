package converter

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/engine"
)

// writeClassicFile writes a minimal classic-format NetCDF file with a
// single 2x3 float32 variable.
func writeClassicFile(t *testing.T, path string) {
	t.Helper()

	h := cdf.NewHeader([]string{"y", "x"}, []int{2, 3})
	h.AddVariable("temp", []string{"y", "x"}, []float32{0})
	h.Define()

	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	cf, err := cdf.Create(f, h)
	require.NoError(t, err)
	w := cf.Writer("temp", []int{0, 0}, []int{2, 3})
	_, err = w.Write([]float32{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
}

func TestRunBatchWithCorruptFile(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	writeClassicFile(t, filepath.Join(in, "a.nc"))
	writeClassicFile(t, filepath.Join(in, "b.nc"))
	require.NoError(t, os.WriteFile(filepath.Join(in, "c.nc"), []byte("garbage"), 0644))

	sum, err := Run(context.Background(), Request{
		Inputs:    []string{in},
		Patterns:  []string{"*.nc"},
		OutputDir: out,
		Engine:    engine.Scipy,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, sum.Attempted)
	assert.Equal(t, 2, sum.Succeeded)
	assert.Equal(t, 1, sum.Failed)
	require.Len(t, sum.Groups, 1)
	assert.Equal(t, sum.Groups[0].Attempted, sum.Groups[0].Succeeded+sum.Groups[0].Failed)

	// Every attempted file appears in the results, the corrupt one
	// with its error detail.
	require.Len(t, sum.Results, 3)
	var failed *Result
	for i := range sum.Results {
		if !sum.Results[i].OK {
			failed = &sum.Results[i]
		}
	}
	require.NotNil(t, failed)
	assert.Contains(t, failed.Source, "c.nc")
	assert.NotEmpty(t, failed.Err)
}

func TestRunEmptyDirectory(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	sum, err := Run(context.Background(), Request{
		Inputs:    []string{in},
		Patterns:  []string{"*.nc"},
		OutputDir: out,
		Engine:    engine.Netcdf4,
	})
	require.NoError(t, err, "zero matches must not be an error")

	assert.Equal(t, 0, sum.Attempted)
	assert.Equal(t, 0, sum.Succeeded)
	assert.Equal(t, 0, sum.Failed)
	// The group still gets a zero-count summary row.
	require.Len(t, sum.Groups, 1)
	assert.Equal(t, 0, sum.Groups[0].Attempted)
}

func TestRunExplicitFileGroup(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	source := filepath.Join(in, "single.nc")
	writeClassicFile(t, source)

	sum, err := Run(context.Background(), Request{
		Inputs:    []string{source},
		OutputDir: out,
		Engine:    engine.Scipy,
	})
	require.NoError(t, err)

	require.Len(t, sum.Groups, 1)
	assert.Equal(t, "files", sum.Groups[0].Group)
	assert.Equal(t, 1, sum.Groups[0].Succeeded)
	require.Len(t, sum.Results, 1)
	assert.Equal(t, engine.Scipy, sum.Results[0].Engine)
	assert.NotEmpty(t, sum.Results[0].Outputs)
}

func TestRunUnknownEngine(t *testing.T) {
	_, err := Run(context.Background(), Request{
		Inputs:    []string{t.TempDir()},
		OutputDir: t.TempDir(),
		Engine:    "pygrib",
	})
	require.ErrorIs(t, err, engine.ErrUnknownEngine)
}

func TestRunNonexistentInput(t *testing.T) {
	_, err := Run(context.Background(), Request{
		Inputs:    []string{filepath.Join(t.TempDir(), "missing")},
		OutputDir: t.TempDir(),
		Engine:    engine.Netcdf4,
	})
	require.Error(t, err, "nonexistent root path aborts the invocation")
}

func TestRunCancelledContext(t *testing.T) {
	in := t.TempDir()
	writeClassicFile(t, filepath.Join(in, "a.nc"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Run(ctx, Request{
		Inputs:    []string{in},
		OutputDir: t.TempDir(),
		Engine:    engine.Scipy,
	})
	require.ErrorIs(t, err, context.Canceled)
}

func TestAggregatorInvariant(t *testing.T) {
	agg := newAggregator()
	agg.addGroup("g1")
	agg.record(Result{Group: "g1", OK: true})
	agg.record(Result{Group: "g1", OK: false})
	agg.record(Result{Group: "g2", OK: true})

	sum := agg.summary()
	assert.Equal(t, sum.Attempted, sum.Succeeded+sum.Failed)
	for _, g := range sum.Groups {
		assert.Equal(t, g.Attempted, g.Succeeded+g.Failed, "group %s", g.Group)
	}
	// Groups keep first-seen order.
	require.Len(t, sum.Groups, 2)
	assert.Equal(t, "g1", sum.Groups[0].Group)
}
