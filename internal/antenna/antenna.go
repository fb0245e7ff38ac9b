// Package antenna models a radio interferometer: antenna positions, the
// observatory location, the channel frequency axis, per-antenna beams and
// the array clock from which local sidereal time is derived.
package antenna

import (
	"errors"
	"fmt"

	"github.com/star/vissim/internal/transform"
)

var (
	// ErrAntennaIndex is returned for an antenna index outside the array.
	ErrAntennaIndex = errors.New("antenna index out of range")
	// ErrPolarization is returned for a polarization other than x or y.
	ErrPolarization = errors.New("polarization must be x or y")
)

// Antenna is a single array element. Pos is in nanoseconds in the
// equatorial array frame (see NewArray).
type Antenna struct {
	Pos  transform.Vec3
	Beam Beam
}

// BmResponse returns the beam gain of the antenna toward topocentric
// direction top for polarization pol ('x' or 'y'). The y dipole is the x
// dipole rotated by 90 degrees about the zenith.
func (a Antenna) BmResponse(top transform.Vec3, freq float64, pol byte) (float64, error) {
	switch pol {
	case 'x':
	case 'y':
		top = transform.Vec3{-top[1], top[0], top[2]}
	default:
		return 0, fmt.Errorf("%w: %q", ErrPolarization, pol)
	}
	return a.Beam.Response(top, freq), nil
}

// Array is an antenna array with an observatory location, a channel axis
// and a clock. It is not safe for concurrent mutation of the clock.
type Array struct {
	name     string
	observer transform.Observer
	ants     []Antenna
	freqs    []float64
	eq2zen   transform.Matrix3
	jd       float64
}

// NewArray builds an array from antennas whose positions are given in
// topocentric (east, north, up) nanoseconds. The channel axis is
// sfreq + k·sdf GHz for k in [0, nchan).
func NewArray(name string, obs transform.Observer, topPos []transform.Vec3, beams []Beam, sfreq, sdf float64, nchan int) (*Array, error) {
	if len(topPos) != len(beams) {
		return nil, fmt.Errorf("array %s: %d positions but %d beams", name, len(topPos), len(beams))
	}
	if nchan < 1 {
		return nil, fmt.Errorf("array %s: nchan must be positive, got %d", name, nchan)
	}

	aa := &Array{
		name:     name,
		observer: obs,
		eq2zen:   transform.Eq2TopM(0, obs.LatRad),
	}

	zen2eq := aa.eq2zen.Transpose()
	aa.ants = make([]Antenna, len(topPos))
	for i, p := range topPos {
		aa.ants[i] = Antenna{Pos: zen2eq.Apply(p), Beam: beams[i]}
	}

	aa.freqs = make([]float64, nchan)
	for k := range aa.freqs {
		aa.freqs[k] = sfreq + float64(k)*sdf
	}
	return aa, nil
}

// Name returns the calibration profile name the array was built from.
func (aa *Array) Name() string { return aa.name }

// Len returns the number of antennas.
func (aa *Array) Len() int { return len(aa.ants) }

// Antenna returns antenna i.
func (aa *Array) Antenna(i int) (Antenna, error) {
	if i < 0 || i >= len(aa.ants) {
		return Antenna{}, fmt.Errorf("%w: %d (array has %d)", ErrAntennaIndex, i, len(aa.ants))
	}
	return aa.ants[i], nil
}

// Lat returns the observatory latitude in radians.
func (aa *Array) Lat() float64 { return aa.observer.LatRad }

// Long returns the observatory east longitude in radians.
func (aa *Array) Long() float64 { return aa.observer.LonRad }

// Freqs returns a copy of the channel frequencies in GHz.
func (aa *Array) Freqs() []float64 {
	return append([]float64(nil), aa.freqs...)
}

// SetJulTime sets the array clock.
func (aa *Array) SetJulTime(jd float64) { aa.jd = jd }

// JulTime returns the array clock.
func (aa *Array) JulTime() float64 { return aa.jd }

// SiderealTime returns the local sidereal time in radians at the array clock.
func (aa *Array) SiderealTime() float64 {
	return transform.LocalSiderealTime(aa.jd, aa.observer.LonRad)
}

// Eq2Top returns the equatorial-to-topocentric rotation at the array clock.
func (aa *Array) Eq2Top() transform.Matrix3 {
	return transform.Eq2TopM(aa.SiderealTime(), aa.observer.LatRad)
}

// Baseline returns the separation of antenna j from antenna i in topocentric
// nanoseconds. The rotation uses zero hour angle, so the result does not
// depend on the clock.
func (aa *Array) Baseline(i, j int) (transform.Vec3, error) {
	ai, err := aa.Antenna(i)
	if err != nil {
		return transform.Vec3{}, err
	}
	aj, err := aa.Antenna(j)
	if err != nil {
		return transform.Vec3{}, err
	}
	return aa.eq2zen.Apply(aj.Pos.Sub(ai.Pos)), nil
}

// AntPos returns the antenna positions in Miriad order: all x, then all y,
// then all z (the transpose of the per-antenna position list, flattened).
func (aa *Array) AntPos() []float64 {
	n := len(aa.ants)
	out := make([]float64, 3*n)
	for i, a := range aa.ants {
		out[i] = a.Pos[0]
		out[n+i] = a.Pos[1]
		out[2*n+i] = a.Pos[2]
	}
	return out
}
