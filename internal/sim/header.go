package sim

import (
	"fmt"

	"github.com/star/vissim/internal/antenna"
	"github.com/star/vissim/internal/miriad"
)

// Schema holds the dataset-level parameters written before any record.
type Schema struct {
	Nchan       int
	Sfreq       float64 // GHz
	Sdf         float64 // GHz
	Inttime     float64 // s
	CommandLine string
}

type varDef struct {
	name  string
	typ   miriad.VarType
	value any // nil for per-record variables
}

// InitDataset writes the header items, history and variable declarations
// of a fresh dataset. Constants are given their values here; per-record
// variables are only declared.
func InitDataset(w *miriad.Writer, aa *antenna.Array, s Schema) error {
	if err := w.SetItem("obstype", "mixed-auto-cross"); err != nil {
		return err
	}
	w.AppendHistory("MDLVIS: created file.\n")
	w.AppendHistory("MDLVIS: " + s.CommandLine + "\n")

	lat, lon := aa.Lat(), aa.Long()
	defs := []varDef{
		// constants
		{"telescop", miriad.TypeASCII, "AIPY"},
		{"operator", miriad.TypeASCII, "AIPY"},
		{"version", miriad.TypeASCII, "0.0.1"},
		{"epoch", miriad.TypeReal, 2000.0},
		{"nchan", miriad.TypeInt, s.Nchan},
		{"sdf", miriad.TypeDouble, s.Sdf},
		{"sfreq", miriad.TypeDouble, s.Sfreq},
		{"freq", miriad.TypeDouble, s.Sfreq},
		{"restfreq", miriad.TypeDouble, s.Sfreq},
		{"nschan", miriad.TypeInt, s.Nchan},
		{"inttime", miriad.TypeReal, s.Inttime},
		{"npol", miriad.TypeInt, 1},
		{"nspect", miriad.TypeInt, 1},
		{"nants", miriad.TypeInt, aa.Len()},

		// unused but expected by readers
		{"vsource", miriad.TypeReal, 0.0},
		{"ischan", miriad.TypeInt, 1},
		{"tscale", miriad.TypeReal, 0.0},
		{"veldop", miriad.TypeReal, 0.0},

		// array
		{"latitud", miriad.TypeDouble, lat},
		{"dec", miriad.TypeDouble, lat},
		{"obsdec", miriad.TypeDouble, lat},
		{"longitu", miriad.TypeDouble, lon},
		{"antpos", miriad.TypeDouble, aa.AntPos()},

		// per record
		{"coord", miriad.TypeDouble, nil},
		{"time", miriad.TypeDouble, nil},
		{"lst", miriad.TypeDouble, nil},
		{"ra", miriad.TypeDouble, nil},
		{"obsra", miriad.TypeDouble, nil},
		{"baseline", miriad.TypeReal, nil},
		{"pol", miriad.TypeInt, nil},
	}

	for _, d := range defs {
		if err := w.AddVar(d.name, d.typ); err != nil {
			return fmt.Errorf("init dataset: %w", err)
		}
		if d.value == nil {
			continue
		}
		if err := w.SetVar(d.name, d.value); err != nil {
			return fmt.Errorf("init dataset: %w", err)
		}
	}
	return nil
}
