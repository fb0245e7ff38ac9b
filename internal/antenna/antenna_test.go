package antenna

import (
	"errors"
	"math"
	"testing"

	"github.com/star/vissim/internal/transform"
)

func testArray(t *testing.T) *Array {
	t.Helper()
	obs := transform.NewObserver(-30.7215, 21.4283, 1051)
	pos := []transform.Vec3{
		{0, 0, 0},
		{100, 0, 0},
		{0, 50, 1},
	}
	beams := []Beam{IsotropicBeam{}, IsotropicBeam{}, IsotropicBeam{}}
	aa, err := NewArray("test", obs, pos, beams, 0.1, 0.001, 4)
	if err != nil {
		t.Fatalf("NewArray: %v", err)
	}
	return aa
}

func TestNewArrayFreqs(t *testing.T) {
	aa := testArray(t)
	want := []float64{0.1, 0.101, 0.102, 0.103}
	got := aa.Freqs()
	if len(got) != len(want) {
		t.Fatalf("len(Freqs) = %d, want %d", len(got), len(want))
	}
	for k := range want {
		if math.Abs(got[k]-want[k]) > 1e-15 {
			t.Errorf("freq[%d] = %.15f, want %.15f", k, got[k], want[k])
		}
	}
}

func TestNewArrayMismatch(t *testing.T) {
	obs := transform.NewObserver(0, 0, 0)
	if _, err := NewArray("bad", obs, []transform.Vec3{{}}, nil, 0.1, 0.1, 1); err == nil {
		t.Error("expected error for positions/beams mismatch")
	}
	if _, err := NewArray("bad", obs, nil, nil, 0.1, 0.1, 0); err == nil {
		t.Error("expected error for nchan = 0")
	}
}

// TestBaselineIsTopocentric verifies that the baseline comes back in the
// frame the positions were given in, independent of the clock.
func TestBaselineIsTopocentric(t *testing.T) {
	aa := testArray(t)
	for _, jd := range []float64{2454500.0, 2454500.37} {
		aa.SetJulTime(jd)
		bl, err := aa.Baseline(0, 2)
		if err != nil {
			t.Fatal(err)
		}
		want := transform.Vec3{0, 50, 1}
		for k := range want {
			if math.Abs(bl[k]-want[k]) > 1e-9 {
				t.Errorf("jd %.2f: bl[%d] = %.12f, want %.12f", jd, k, bl[k], want[k])
			}
		}
	}
}

func TestBaselineOutOfRange(t *testing.T) {
	aa := testArray(t)
	if _, err := aa.Baseline(0, 16); !errors.Is(err, ErrAntennaIndex) {
		t.Errorf("Baseline(0, 16) error = %v, want ErrAntennaIndex", err)
	}
}

// TestEquatorialPositions checks that an antenna due north at the equator
// maps onto the celestial pole axis.
func TestEquatorialPositions(t *testing.T) {
	obs := transform.NewObserver(0, 0, 0)
	aa, err := NewArray("eq", obs, []transform.Vec3{{0, 10, 0}}, []Beam{IsotropicBeam{}}, 0.1, 0.1, 1)
	if err != nil {
		t.Fatal(err)
	}
	a, _ := aa.Antenna(0)
	if math.Abs(a.Pos[2]-10) > 1e-12 || math.Abs(a.Pos[0]) > 1e-12 || math.Abs(a.Pos[1]) > 1e-12 {
		t.Errorf("equatorial position = %v, want (0, 0, 10)", a.Pos)
	}
}

func TestAntPosOrder(t *testing.T) {
	aa := testArray(t)
	ap := aa.AntPos()
	if len(ap) != 9 {
		t.Fatalf("len(AntPos) = %d, want 9", len(ap))
	}
	for i := 0; i < aa.Len(); i++ {
		a, _ := aa.Antenna(i)
		for k := 0; k < 3; k++ {
			if ap[k*aa.Len()+i] != a.Pos[k] {
				t.Errorf("AntPos[%d] = %v, want antenna %d component %d = %v", k*aa.Len()+i, ap[k*aa.Len()+i], i, k, a.Pos[k])
			}
		}
	}
}

func TestSiderealTimeFollowsClock(t *testing.T) {
	aa := testArray(t)
	aa.SetJulTime(2454500.24)
	want := transform.LocalSiderealTime(2454500.24, aa.Long())
	if got := aa.SiderealTime(); got != want {
		t.Errorf("SiderealTime = %v, want %v", got, want)
	}
	if aa.JulTime() != 2454500.24 {
		t.Errorf("JulTime = %v", aa.JulTime())
	}
}
