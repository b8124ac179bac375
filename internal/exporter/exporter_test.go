package exporter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Bluemvmt/bcp-sidecar-toolkit/internal/engine"
)

func makeVar(name string, dims []string, shape []int, vals ...float64) engine.Variable {
	data := sparse.ZerosDense(shape...)
	copy(data.Elements, vals)
	return engine.Variable{Name: name, Dims: dims, Data: data}
}

func TestExportPerVariableCSV(t *testing.T) {
	out := t.TempDir()
	e := New(out, false, false)

	ds := &engine.Dataset{
		Path:   "/data/model.nc",
		Engine: engine.Scipy,
		Variables: []engine.Variable{
			makeVar("temp", []string{"y", "x"}, []int{2, 2}, 1, 2, 3, 4),
		},
	}

	paths, note, err := e.Export(ds, "")
	require.NoError(t, err)
	assert.Empty(t, note)
	require.Len(t, paths, 1)
	assert.Equal(t, filepath.Join(out, "model_temp.csv"), paths[0])

	content, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "y,x,temp", lines[0])
	assert.Equal(t, "0,0,1", lines[1])
	assert.Equal(t, "1,1,4", lines[4])
}

func TestExportCombined(t *testing.T) {
	out := t.TempDir()
	e := New(out, false, false)

	ds := &engine.Dataset{
		Path: "/data/model.nc",
		Variables: []engine.Variable{
			makeVar("temp", []string{"y", "x"}, []int{2, 2}, 1, 2, 3, 4),
			makeVar("salt", []string{"y", "x"}, []int{2, 2}, 30, 31, 32, 33),
		},
	}

	paths, note, err := e.Export(ds, "")
	require.NoError(t, err)
	assert.Empty(t, note)
	require.Len(t, paths, 3)

	combined := filepath.Join(out, "model_all_variables.csv")
	assert.Contains(t, paths, combined)

	content, err := os.ReadFile(combined)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(content)), "\n")
	assert.Equal(t, "y,x,temp,salt", lines[0])
	assert.Equal(t, "0,1,2,31", lines[2])
}

func TestExportIncompatibleShapesSkipsCombined(t *testing.T) {
	out := t.TempDir()
	e := New(out, false, false)

	ds := &engine.Dataset{
		Path: "/data/model.nc",
		Variables: []engine.Variable{
			makeVar("temp", []string{"y", "x"}, []int{2, 2}, 1, 2, 3, 4),
			makeVar("time", []string{"t"}, []int{3}, 0, 1, 2),
		},
	}

	paths, note, err := e.Export(ds, "")
	require.NoError(t, err)
	// Per-variable exports must survive the combined failure.
	assert.Len(t, paths, 2)
	assert.Contains(t, note, "incompatible")
	_, statErr := os.Stat(filepath.Join(out, "model_all_variables.csv"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestExportFlatCollision(t *testing.T) {
	out := t.TempDir()
	e := New(out, false, false)

	mk := func(path string) *engine.Dataset {
		return &engine.Dataset{
			Path: path,
			Variables: []engine.Variable{
				makeVar("v", []string{"i"}, []int{1}, 9),
			},
		}
	}

	first, _, err := e.Export(mk("/a/model.nc"), "")
	require.NoError(t, err)
	second, _, err := e.Export(mk("/b/model.nc"), "")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(out, "model_v.csv"), first[0])
	assert.Equal(t, filepath.Join(out, "model_2_v.csv"), second[0])
}

func TestExportPreserveStructure(t *testing.T) {
	root := t.TempDir()
	out := t.TempDir()

	source := filepath.Join(root, "run1", "model.nc")
	ds := &engine.Dataset{
		Path: source,
		Variables: []engine.Variable{
			makeVar("temp", []string{"i"}, []int{2}, 1, 2),
		},
	}

	e := New(out, true, false)
	paths, _, err := e.Export(ds, root)
	require.NoError(t, err)
	want := filepath.Join(out, "run1", "model", "model_temp.csv")
	require.Len(t, paths, 1)
	assert.Equal(t, want, paths[0])

	// Re-running against an unchanged source produces the same layout.
	again, _, err := New(out, true, false).Export(ds, root)
	require.NoError(t, err)
	assert.Equal(t, paths, again)
}

func TestExportPreserveExplicitFilesKeepParentDir(t *testing.T) {
	out := t.TempDir()
	e := New(out, true, false)

	mk := func(path string) *engine.Dataset {
		return &engine.Dataset{
			Path: path,
			Variables: []engine.Variable{
				makeVar("v", []string{"i"}, []int{1}, 9),
			},
		}
	}

	dirA := filepath.Join(t.TempDir(), "runA")
	dirB := filepath.Join(t.TempDir(), "runB")

	// Same base name from two directories: the parent directory name
	// keeps the outputs apart instead of the second overwriting the
	// first.
	first, _, err := e.Export(mk(filepath.Join(dirA, "model.nc")), "")
	require.NoError(t, err)
	second, _, err := e.Export(mk(filepath.Join(dirB, "model.nc")), "")
	require.NoError(t, err)

	require.Len(t, first, 1)
	require.Len(t, second, 1)
	assert.Equal(t, filepath.Join(out, "runA", "model", "model_v.csv"), first[0])
	assert.Equal(t, filepath.Join(out, "runB", "model", "model_v.csv"), second[0])
	assert.NotEqual(t, first[0], second[0])

	for _, p := range []string{first[0], second[0]} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("missing output %s: %v", p, err)
		}
	}
}

func TestExportWorkbook(t *testing.T) {
	out := t.TempDir()
	e := New(out, false, true)

	ds := &engine.Dataset{
		Path: "/data/model.nc",
		Variables: []engine.Variable{
			makeVar("temp", []string{"y", "x"}, []int{2, 2}, 1, 2, 3, 4),
		},
	}

	paths, note, err := e.Export(ds, "")
	require.NoError(t, err)
	assert.Empty(t, note)
	assert.Contains(t, paths, filepath.Join(out, "model.xlsx"))
}

func TestExportNoVariables(t *testing.T) {
	e := New(t.TempDir(), false, false)
	paths, note, err := e.Export(&engine.Dataset{Path: "/data/empty.nc"}, "")
	require.NoError(t, err)
	assert.Empty(t, paths)
	assert.Contains(t, note, "no numeric variables")
}
