package transform

import (
	"math"
	"testing"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// JulianDate converts a time.Time (UTC) to Julian Date, for comparisons
// with libraries that take calendar times.
// Uses the standard astronomical algorithm valid for dates after March 1, 4801 BC.
func JulianDate(t time.Time) float64 {
	t = t.UTC()
	y := float64(t.Year())
	m := float64(t.Month())
	d := float64(t.Day())
	h := float64(t.Hour())
	min := float64(t.Minute())
	s := float64(t.Second()) + float64(t.Nanosecond())/1e9

	// Adjust year/month for Jan/Feb (treat as months 13/14 of previous year).
	if m <= 2 {
		y -= 1
		m += 12
	}

	A := math.Floor(y / 100)
	B := 2 - A + math.Floor(A/4)

	jd := math.Floor(365.25*(y+4716)) + math.Floor(30.6001*(m+1)) + d + B - 1524.5
	jd += (h + min/60.0 + s/3600.0) / 24.0

	return jd
}

// GMST calculates Greenwich Mean Sidereal Time in radians for a given UTC time.
func GMST(t time.Time) float64 {
	return GMSTFromJD(JulianDate(t))
}

// TestJulianDate verifies our Julian Date calculation against known values.
func TestJulianDate(t *testing.T) {
	tests := []struct {
		name     string
		time     time.Time
		expected float64
	}{
		{
			name:     "J2000.0 epoch",
			time:     time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
			expected: 2451545.0,
		},
		{
			name:     "Unix epoch",
			time:     time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC),
			expected: 2440587.5,
		},
		{
			// Vallado Example 3-15: April 6, 2004, 07:51:28.386 UTC
			name:     "Vallado example date",
			time:     time.Date(2004, 4, 6, 7, 51, 28, 386009000, time.UTC),
			expected: 2453101.827411875,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := JulianDate(tt.time)
			diff := math.Abs(got - tt.expected)
			if diff > 1e-6 {
				t.Errorf("JulianDate(%v) = %.10f, want %.10f (diff=%.2e)", tt.time, got, tt.expected, diff)
			}
		})
	}
}

// TestGMST validates our GMST calculation against the go-satellite library's
// GSTimeFromDate function, which uses the same IAU-82 model.
func TestGMST(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
	}{
		{
			name: "J2000.0 epoch",
			time: time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "Vallado example date",
			time: time.Date(2004, 4, 6, 7, 51, 28, 0, time.UTC), // integer seconds for library compat
		},
		{
			name: "recent date 2026",
			time: time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			our := GMST(tt.time)
			// go-satellite's GSTimeFromDate returns GMST in radians.
			ref := satellite.GSTimeFromDate(
				tt.time.Year(), int(tt.time.Month()), tt.time.Day(),
				tt.time.Hour(), tt.time.Minute(), tt.time.Second(),
			)

			diff := math.Abs(our - ref)
			// Allow small difference for float precision; 1e-8 radians ≈ 0.06 arcsec.
			if diff > 1e-8 {
				t.Errorf("GMST(%v) = %.12f rad, go-satellite = %.12f rad (diff=%.2e)", tt.time, our, ref, diff)
			}
		})
	}
}

// TestGMSTFromJD verifies that the Julian-date entry point agrees with the
// time.Time one, since the simulator clock is kept as a Julian Date.
func TestGMSTFromJD(t *testing.T) {
	times := []time.Time{
		time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2008, 2, 10, 17, 45, 36, 0, time.UTC),
		time.Date(2026, 2, 6, 4, 1, 0, 0, time.UTC),
	}

	for _, tm := range times {
		got := GMSTFromJD(JulianDate(tm))
		want := GMST(tm)
		if got != want {
			t.Errorf("GMSTFromJD(JulianDate(%v)) = %.12f, GMST = %.12f", tm, got, want)
		}
	}
}

func TestLocalSiderealTime(t *testing.T) {
	tests := []struct {
		name string
		jd   float64
		lon  float64
	}{
		{"greenwich", 2454500.0, 0},
		{"karoo", 2454500.25, 21.428305 * math.Pi / 180},
		{"far west", 2454500.5, -179.9 * math.Pi / 180},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lst := LocalSiderealTime(tt.jd, tt.lon)
			if lst < 0 || lst >= 2*math.Pi {
				t.Fatalf("LST = %.6f rad, want in [0, 2π)", lst)
			}
			diff := math.Remainder(lst-GMSTFromJD(tt.jd)-EquationOfEquinoxes(tt.jd)-tt.lon, 2*math.Pi)
			if math.Abs(diff) > 1e-12 {
				t.Errorf("LST - GAST - lon = %.3e rad, want 0", diff)
			}
		})
	}
}

// TestEquationOfEquinoxes checks the apparent minus mean sidereal time
// against a hand evaluation at JD 2454500.0 (+0.63 s of time) and its
// bound of about 1.2 s.
func TestEquationOfEquinoxes(t *testing.T) {
	const secToRad = 2 * math.Pi / SecondsPerDay
	got := EquationOfEquinoxes(2454500.0)
	if got < 0.60*secToRad || got > 0.66*secToRad {
		t.Errorf("EquationOfEquinoxes(2454500.0) = %.3e rad (%.3f s), want ~0.63 s", got, got/secToRad)
	}
	for jd := 2451545.0; jd < 2451545.0+6800; jd += 17 {
		if e := EquationOfEquinoxes(jd); math.Abs(e) > 1.2*secToRad {
			t.Fatalf("EquationOfEquinoxes(%.1f) = %.3f s, want |e| <= 1.2 s", jd, e/secToRad)
		}
	}
}

// TestLocalSiderealTimeAdvance checks that one mean solar day advances LST by
// ~3m56s of sidereal rotation.
func TestLocalSiderealTimeAdvance(t *testing.T) {
	const jd = 2454500.24
	d := math.Remainder(LocalSiderealTime(jd+1, 0)-LocalSiderealTime(jd, 0), 2*math.Pi)
	want := 2 * math.Pi * (1.00273790935 - 1)
	if math.Abs(d-want) > 1e-6 {
		t.Errorf("daily LST advance = %.9f rad, want %.9f", d, want)
	}
}

func TestTimeFromJulianDate(t *testing.T) {
	tm := time.Date(2008, 2, 10, 17, 45, 36, 0, time.UTC)
	jd := JulianDate(tm)
	back := TimeFromJulianDate(jd)
	if d := back.Sub(tm); d < -time.Millisecond || d > time.Millisecond {
		t.Errorf("TimeFromJulianDate(JulianDate(%v)) = %v (diff %v)", tm, back, d)
	}

	if got := TimeFromJulianDate(2440587.5); !got.Equal(time.Unix(0, 0)) {
		t.Errorf("TimeFromJulianDate(unix epoch) = %v", got)
	}
}
