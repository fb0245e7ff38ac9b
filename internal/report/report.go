// Package report writes the results of a run to an xlsx workbook for
// side-by-side comparison with other simulators.
package report

import (
	"errors"
	"fmt"
	"math/cmplx"

	"github.com/xuri/excelize/v2"

	"github.com/star/vissim/internal/sim"
)

const (
	summarySheet = "Summary"
	stepsSheet   = "Timesteps"
	visSheet     = "Visibilities"
)

// Meta is the run description written to the summary sheet.
type Meta struct {
	Dataset string
	Cal     string
	AntI    int
	AntJ    int
	Nside   int
	Inttime float64
	Command string
}

// Write saves a workbook for res at path. The summary sheet describes the
// run, the timestep sheet holds one row per step for the middle channel
// and the visibility sheet holds Re and Im of every channel per step.
func Write(path string, meta Meta, res *sim.Result) error {
	if res == nil || len(res.Steps) == 0 {
		return errors.New("report: no time steps")
	}

	xlsx := excelize.NewFile()
	defer xlsx.Close()

	if err := xlsx.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := writeSummary(xlsx, meta, res); err != nil {
		return fmt.Errorf("report summary: %w", err)
	}
	if err := writeSteps(xlsx, res); err != nil {
		return fmt.Errorf("report timesteps: %w", err)
	}
	if err := writeVis(xlsx, res); err != nil {
		return fmt.Errorf("report visibilities: %w", err)
	}

	if err := xlsx.SaveAs(path); err != nil {
		return fmt.Errorf("report: saving %s: %w", path, err)
	}
	return nil
}

func writeSummary(xlsx *excelize.File, meta Meta, res *sim.Result) error {
	rows := [][]any{
		{"Dataset", meta.Dataset},
		{"Command", meta.Command},
		{"Calibration", meta.Cal},
		{"Case", res.Case.String()},
		{"Antenna i", meta.AntI},
		{"Antenna j", meta.AntJ},
		{"Baseline x (ns)", res.Baseline[0]},
		{"Baseline y (ns)", res.Baseline[1]},
		{"Baseline z (ns)", res.Baseline[2]},
		{"Source x", res.Target[0]},
		{"Source y", res.Target[1]},
		{"Source z", res.Target[2]},
		{"Source pixel", res.Pixel},
		{"Nside", meta.Nside},
		{"Channels", len(res.Freqs)},
		{"Start freq (GHz)", res.Freqs[0]},
		{"Integration (s)", meta.Inttime},
		{"Timesteps", len(res.Steps)},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := xlsx.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}
	return xlsx.SetColWidth(summarySheet, "A", "A", 20)
}

func writeSteps(xlsx *excelize.File, res *sim.Result) error {
	if _, err := xlsx.NewSheet(stepsSheet); err != nil {
		return err
	}
	ch := len(res.Freqs) / 2
	header := []any{"Step", "JD", "LST (rad)", "Sum flux", "Re(vis)", "Im(vis)", "|vis|", "Freq (GHz)"}
	if err := xlsx.SetSheetRow(stepsSheet, "A1", &header); err != nil {
		return err
	}
	for i, st := range res.Steps {
		v := st.Vis[ch]
		row := []any{st.Index, st.JD, st.LST, st.SumFlux[ch], real(v), imag(v), cmplx.Abs(v), res.Freqs[ch]}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := xlsx.SetSheetRow(stepsSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

func writeVis(xlsx *excelize.File, res *sim.Result) error {
	if _, err := xlsx.NewSheet(visSheet); err != nil {
		return err
	}
	header := []any{"Step"}
	for _, f := range res.Freqs {
		header = append(header, fmt.Sprintf("Re %.6f", f), fmt.Sprintf("Im %.6f", f))
	}
	if err := xlsx.SetSheetRow(visSheet, "A1", &header); err != nil {
		return err
	}
	for i, st := range res.Steps {
		row := make([]any, 0, 1+2*len(st.Vis))
		row = append(row, st.Index)
		for _, v := range st.Vis {
			row = append(row, real(v), imag(v))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := xlsx.SetSheetRow(visSheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
