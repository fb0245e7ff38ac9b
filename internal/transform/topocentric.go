package transform

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Observer holds a ground observer's geodetic location.
type Observer struct {
	LatRad, LonRad float64 // geodetic latitude, east longitude (radians)
	ElevM          float64 // meters above the ellipsoid
}

// Horizontal holds azimuth and elevation of a direction as seen by an observer.
type Horizontal struct {
	AzimuthDeg   float64 // 0 = North, clockwise
	ElevationDeg float64 // 0 = horizon, 90 = zenith
}

// NewObserver creates an Observer from latitude and longitude in degrees and
// elevation in meters.
func NewObserver(latDeg, lonDeg, elevM float64) Observer {
	return Observer{
		LatRad: latDeg * math.Pi / 180.0,
		LonRad: lonDeg * math.Pi / 180.0,
		ElevM:  elevM,
	}
}

// ParseSexagesimal parses an angle written as "d:m:s" (or a plain decimal
// number) and returns it in degrees. A leading minus sign applies to the
// whole angle, so "-30:43:17.5" is -(30 + 43/60 + 17.5/3600).
func ParseSexagesimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty angle")
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("angle %q has too many fields", s)
	}

	var deg float64
	scale := 1.0
	for _, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid angle field %q: %w", p, err)
		}
		if v < 0 {
			return 0, fmt.Errorf("angle field %q must not be negative", p)
		}
		deg += v / scale
		scale *= 60
	}

	if neg {
		deg = -deg
	}
	return deg, nil
}

// TopToHorizontal converts a topocentric (east, north, up) direction to
// azimuth and elevation. The vector does not need to be normalized.
func TopToHorizontal(top Vec3) Horizontal {
	r := top.Norm()
	if r == 0 {
		return Horizontal{}
	}

	el := math.Asin(top[2] / r)

	// Azimuth: measured clockwise from North.
	az := math.Atan2(top[0], top[1])
	if az < 0 {
		az += 2 * math.Pi
	}

	return Horizontal{
		AzimuthDeg:   az * 180.0 / math.Pi,
		ElevationDeg: el * 180.0 / math.Pi,
	}
}
