package report

import (
	"bytes"
	"go/format"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/star/vissim/internal/sim"
	"github.com/star/vissim/internal/transform"
)

func testResult() *sim.Result {
	res := &sim.Result{
		Case:     sim.CaseZenith,
		Target:   transform.Vec3{0.1, 0.2, -0.5},
		Pixel:    42,
		Baseline: transform.Vec3{400, 0, 0},
		Freqs:    []float64{0.1, 0.15, 0.2},
	}
	for i := 0; i < 5; i++ {
		res.Steps = append(res.Steps, sim.Step{
			Index:   i,
			JD:      2454500.24 + float64(i)/8640,
			LST:     float64(i) * 0.01,
			Vis:     []complex128{1, complex(float64(i), -1), 2i},
			SumFlux: []float64{1, 1, 1},
		})
	}
	return res
}

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	meta := Meta{Dataset: "test.uv", Cal: "psa898_v003", AntI: 0, AntJ: 16, Nside: 64, Inttime: 10}
	require.NoError(t, Write(path, meta, testResult()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Summary", "Timesteps", "Visibilities"}, f.GetSheetList())

	v, err := f.GetCellValue("Summary", "B4")
	require.NoError(t, err)
	assert.Equal(t, "zenith", v)

	rows, err := f.GetRows("Timesteps")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, "Re(vis)", rows[0][4])
	re, err := strconv.ParseFloat(rows[4][4], 64)
	require.NoError(t, err)
	assert.Equal(t, 3.0, re)

	rows, err = f.GetRows("Visibilities")
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Len(t, rows[0], 7)
	assert.Equal(t, "Im 0.200000", rows[0][6])
}

func TestWriteEmpty(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "r.xlsx"), Meta{}, &sim.Result{})
	assert.Error(t, err)
}

func TestSourcesFormatted(t *testing.T) {
	files, err := filepath.Glob("*.go")
	require.NoError(t, err)
	require.NotEmpty(t, files)
	for _, name := range files {
		src, err := os.ReadFile(name)
		require.NoError(t, err)
		got, err := format.Source(src)
		require.NoError(t, err, name)
		assert.True(t, bytes.Equal(src, got), "%s is not gofmt-formatted", name)
	}
}
