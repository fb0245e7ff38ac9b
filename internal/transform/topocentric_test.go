package transform

import (
	"math"
	"testing"
)

func TestEq2TopMOrthonormal(t *testing.T) {
	for _, ha := range []float64{0, 0.3, 1.7, 4.2} {
		for _, dec := range []float64{-0.536, 0, 0.7} {
			m := Eq2TopM(ha, dec)
			mt := m.Transpose()
			for i := 0; i < 3; i++ {
				for j := 0; j < 3; j++ {
					var s float64
					for k := 0; k < 3; k++ {
						s += m[i][k] * mt[k][j]
					}
					want := 0.0
					if i == j {
						want = 1
					}
					if math.Abs(s-want) > 1e-12 {
						t.Errorf("ha=%.2f dec=%.3f: (M·Mᵀ)[%d][%d] = %.3e, want %v", ha, dec, i, j, s, want)
					}
				}
			}
		}
	}
}

func TestTop2EqMInvertsEq2TopM(t *testing.T) {
	const ha, lat = 1.234, -0.536
	v := Vec3{0.3, -0.4, 0.866}
	back := Top2EqM(ha, lat).Apply(Eq2TopM(ha, lat).Apply(v))
	for i := range v {
		if math.Abs(back[i]-v[i]) > 1e-12 {
			t.Errorf("round trip component %d = %.15f, want %.15f", i, back[i], v[i])
		}
	}
}

// TestZenithDeclination checks that the observer's zenith lands at
// declination = latitude in the equatorial frame.
func TestZenithDeclination(t *testing.T) {
	const lst, lat = 2.1, -0.536
	eq := Top2EqM(lst, lat).Apply(Vec3{0, 0, 1})

	if math.Abs(eq[2]-math.Sin(lat)) > 1e-12 {
		t.Errorf("zenith z = %.12f, want sin(lat) = %.12f", eq[2], math.Sin(lat))
	}
	if math.Abs(eq[0]-math.Cos(lat)*math.Cos(lst)) > 1e-12 {
		t.Errorf("zenith x = %.12f, want %.12f", eq[0], math.Cos(lat)*math.Cos(lst))
	}
	if math.Abs(eq[1]+math.Cos(lat)*math.Sin(lst)) > 1e-12 {
		t.Errorf("zenith y = %.12f, want %.12f", eq[1], -math.Cos(lat)*math.Sin(lst))
	}
}

// TestSouthPoleAltitude verifies that the south celestial pole sits at an
// altitude equal to -latitude, independent of sidereal time.
func TestSouthPoleAltitude(t *testing.T) {
	const lat = -30.7215 * math.Pi / 180
	for _, lst := range []float64{0, 1, 2, 3, 4, 5, 6} {
		top := Eq2TopM(lst, lat).Apply(Vec3{0, 0, -1})
		h := TopToHorizontal(top)
		if math.Abs(h.ElevationDeg-30.7215) > 1e-9 {
			t.Errorf("lst=%.1f: south pole elevation = %.6f deg, want 30.7215", lst, h.ElevationDeg)
		}
	}
}

func TestTopToHorizontal(t *testing.T) {
	tests := []struct {
		name   string
		top    Vec3
		az, el float64
	}{
		{"north horizon", Vec3{0, 1, 0}, 0, 0},
		{"east horizon", Vec3{1, 0, 0}, 90, 0},
		{"south horizon", Vec3{0, -1, 0}, 180, 0},
		{"west horizon", Vec3{-1, 0, 0}, 270, 0},
		{"zenith unnormalized", Vec3{0, 1e-12, 5}, 0, 90},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := TopToHorizontal(tt.top)
			if math.Abs(h.AzimuthDeg-tt.az) > 1e-6 {
				t.Errorf("azimuth = %.6f, want %.6f", h.AzimuthDeg, tt.az)
			}
			if math.Abs(h.ElevationDeg-tt.el) > 1e-6 {
				t.Errorf("elevation = %.6f, want %.6f", h.ElevationDeg, tt.el)
			}
		})
	}
}

func TestParseSexagesimal(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"-30:43:17.5", -(30 + 43.0/60 + 17.5/3600), false},
		{"21:25:41.9", 21 + 25.0/60 + 41.9/3600, false},
		{"-0:30", -0.5, false},
		{"+12.5", 12.5, false},
		{"", 0, true},
		{"1:2:3:4", 0, true},
		{"10:x", 0, true},
		{"10:-5", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSexagesimal(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseSexagesimal(%q) = %v, want error", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseSexagesimal(%q): %v", tt.in, err)
			}
			if math.Abs(got-tt.want) > 1e-12 {
				t.Errorf("ParseSexagesimal(%q) = %.12f, want %.12f", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewObserver(t *testing.T) {
	obs := NewObserver(-30.7215, 21.4283, 1051)
	if math.Abs(obs.LatRad+0.536191) > 1e-5 {
		t.Errorf("LatRad = %.6f, want ~-0.536191", obs.LatRad)
	}
	if obs.ElevM != 1051 {
		t.Errorf("ElevM = %v, want 1051", obs.ElevM)
	}
}
