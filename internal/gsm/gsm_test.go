package gsm

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		if err := os.WriteFile(filepath.Join(dir, n), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestScan(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "gsm1003.fits", "gsm1001.fits", "gsm1004.fits", "gsmabc.fits", "notes.txt", "gsm1002.fit")
	if err := os.Mkdir(filepath.Join(dir, "gsm1005.fits"), 0755); err != nil {
		t.Fatal(err)
	}

	c, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if c.Len() != 3 {
		t.Fatalf("Len = %d, want 3: %+v", c.Len(), c.Maps)
	}

	lo, hi, ok := c.Range()
	if !ok || lo != 1001 || hi != 1004 {
		t.Errorf("Range = (%d, %d, %v), want (1001, 1004, true)", lo, hi, ok)
	}
	if got := c.Missing(); !reflect.DeepEqual(got, []int{1002}) {
		t.Errorf("Missing = %v, want [1002]", got)
	}

	p, ok := c.Path(1003)
	if !ok || p != filepath.Join(dir, "gsm1003.fits") {
		t.Errorf("Path(1003) = %q, %v", p, ok)
	}
	if _, ok := c.Path(1002); ok {
		t.Error("Path(1002) found a missing map")
	}
}

func TestScanMissingDir(t *testing.T) {
	c, err := Scan(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
	if _, _, ok := c.Range(); ok {
		t.Error("Range ok on empty catalog")
	}
	if c.Missing() != nil {
		t.Error("Missing non-nil on empty catalog")
	}
}
