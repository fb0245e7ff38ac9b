package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/star/vissim/internal/miriad"
)

func TestDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "d.uv")
	w, err := miriad.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.SetItem("obstype", "mixed-auto-cross"); err != nil {
		t.Fatal(err)
	}
	w.AppendHistory("MDLVIS: created file.\n")
	for _, name := range []string{"lst", "pol"} {
		typ := miriad.TypeDouble
		if name == "pol" {
			typ = miriad.TypeInt
		}
		if err := w.AddVar(name, typ); err != nil {
			t.Fatal(err)
		}
	}
	for i := 0; i < 3; i++ {
		if err := w.SetVar("lst", float64(i)); err != nil {
			t.Fatal(err)
		}
		if err := w.SetVar("pol", miriad.Str2Pol["xx"]); err != nil {
			t.Fatal(err)
		}
		p := miriad.Preamble{Time: 2454500 + float64(i), I: 0, J: 16}
		if err := w.Write(p, []complex64{1, 2}, []bool{false, true}); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := dump(&out, path, 2, []string{"lst"}); err != nil {
		t.Fatalf("dump: %v", err)
	}
	s := out.String()
	for _, want := range []string{
		"mixed-auto-cross",
		"MDLVIS: created file.",
		"  d lst",
		"bl=(0,16) pol=xx nchan=2 flagged=1 lst=[1]",
		"3 records",
	} {
		if !strings.Contains(s, want) {
			t.Errorf("output missing %q:\n%s", want, s)
		}
	}
	if strings.Contains(s, "lst=[2]") {
		t.Error("record limit not applied")
	}
}

func TestDumpMissing(t *testing.T) {
	var out bytes.Buffer
	if err := dump(&out, filepath.Join(t.TempDir(), "none.uv"), 1, nil); err == nil {
		t.Error("expected error for missing dataset")
	}
}

func TestExportRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.uv")
	w, err := miriad.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write(miriad.Preamble{Time: 2454500, J: 1}, []complex64{1, 2, 3}, make([]bool, 3)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "x.csv.gz")
	n, err := exportRecords(path, out)
	if err != nil {
		t.Fatalf("exportRecords: %v", err)
	}
	if n != 1 {
		t.Errorf("exported %d records, want 1", n)
	}
}
