package transform

import (
	"math"
	"time"
)

// j2000 is the Julian Date of the J2000.0 epoch (January 1, 2000, 12:00:00 TT).
const j2000 = 2451545.0

// SecondsPerDay is the number of SI seconds in a Julian day.
const SecondsPerDay = 86400.0

// TimeFromJulianDate converts a Julian Date to UTC time, rounded to the microsecond.
func TimeFromJulianDate(jd float64) time.Time {
	const unixEpochJD = 2440587.5
	us := math.Round((jd - unixEpochJD) * SecondsPerDay * 1e6)
	return time.UnixMicro(int64(us)).UTC()
}

// GMSTFromJD calculates Greenwich Mean Sidereal Time in radians for a Julian Date (UT1).
// Uses the IAU-82 model as described in Vallado "Fundamentals of Astrodynamics".
//
// Formula (Vallado Eq 3-47):
//
//	θ_GMST = 67310.54841 + (876600h + 8640184.812866)*T + 0.093104*T² - 6.2e-6*T³
//
// where T is Julian centuries of UT1 from J2000.0, result is in seconds of time.
func GMSTFromJD(jd float64) float64 {
	tUT1 := (jd - j2000) / 36525.0

	// 876600h = 876600 * 3600 = 3155760000 seconds.
	gmstSec := 67310.54841 +
		(3155760000.0+8640184.812866)*tUT1 +
		0.093104*tUT1*tUT1 -
		6.2e-6*tUT1*tUT1*tUT1

	// Normalize to [0, 86400) seconds, then convert to radians.
	gmstSec = math.Mod(gmstSec, SecondsPerDay)
	if gmstSec < 0 {
		gmstSec += SecondsPerDay
	}
	return gmstSec / SecondsPerDay * 2.0 * math.Pi
}

// EquationOfEquinoxes returns the difference between apparent and mean
// sidereal time in radians at jd, from the two leading nutation terms.
// Accurate to about 0.1 s of time.
func EquationOfEquinoxes(jd float64) float64 {
	const deg = math.Pi / 180
	d := jd - j2000
	omega := (125.04 - 0.052954*d) * deg // ascending node of the Moon
	l := (280.47 + 0.98565*d) * deg      // mean longitude of the Sun
	eps := (23.4393 - 0.0000004*d) * deg
	dpsiHours := -0.000319*math.Sin(omega) - 0.000024*math.Sin(2*l)
	return dpsiHours * math.Cos(eps) * math.Pi / 12
}

// LocalSiderealTime returns the apparent local sidereal time in radians, in
// [0, 2π), for an observer at east longitude lonRad.
func LocalSiderealTime(jd, lonRad float64) float64 {
	lst := math.Mod(GMSTFromJD(jd)+EquationOfEquinoxes(jd)+lonRad, 2*math.Pi)
	if lst < 0 {
		lst += 2 * math.Pi
	}
	return lst
}
