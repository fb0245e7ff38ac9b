package antenna

import (
	"fmt"
	"math"

	"github.com/star/vissim/internal/transform"
)

// Beam is the primary-beam power response of a single antenna element.
type Beam interface {
	// Response returns the gain toward topocentric direction top at
	// frequency freq (GHz). top is expected to be a unit vector.
	Response(top transform.Vec3, freq float64) float64
}

// IsotropicBeam responds equally in every direction.
type IsotropicBeam struct{}

// Response implements Beam.
func (IsotropicBeam) Response(transform.Vec3, float64) float64 { return 1 }

// GaussianBeam is a frequency-independent elliptical Gaussian. The direction
// cosines are mapped to angles with arcsin before being scaled by the widths
// (radians), so the response below the horizon mirrors the one above it.
type GaussianBeam struct {
	XWidth, YWidth float64
}

// Response implements Beam.
func (b GaussianBeam) Response(top transform.Vec3, _ float64) float64 {
	x := math.Asin(clampUnit(top[0])) / b.XWidth
	y := math.Asin(clampUnit(top[1])) / b.YWidth
	return math.Exp(-0.5 * (x*x + y*y))
}

// PolynomialBeam is a circular Gaussian in zenith angle whose width (radians)
// is a polynomial in frequency: sigma(f) = Σ Coeffs[k]·f^k.
type PolynomialBeam struct {
	Coeffs []float64
}

// Width returns sigma at frequency freq.
func (b PolynomialBeam) Width(freq float64) float64 {
	var w float64
	for k := len(b.Coeffs) - 1; k >= 0; k-- {
		w = w*freq + b.Coeffs[k]
	}
	return w
}

// Response implements Beam.
func (b PolynomialBeam) Response(top transform.Vec3, freq float64) float64 {
	za := math.Acos(clampUnit(top[2]))
	s := b.Width(freq)
	return math.Exp(-0.5 * za * za / (s * s))
}

func clampUnit(v float64) float64 {
	switch {
	case v > 1:
		return 1
	case v < -1:
		return -1
	}
	return v
}

// BeamSpec describes a beam model in a calibration profile.
type BeamSpec struct {
	Type   string    `mapstructure:"type"`
	XWidth float64   `mapstructure:"xwidth"`
	YWidth float64   `mapstructure:"ywidth"`
	Poly   []float64 `mapstructure:"poly"`
}

// Build returns the Beam described by the spec.
func (s BeamSpec) Build() (Beam, error) {
	switch s.Type {
	case "", "isotropic":
		return IsotropicBeam{}, nil
	case "gaussian":
		if s.XWidth <= 0 || s.YWidth <= 0 {
			return nil, fmt.Errorf("gaussian beam widths must be positive, got %v/%v", s.XWidth, s.YWidth)
		}
		return GaussianBeam{XWidth: s.XWidth, YWidth: s.YWidth}, nil
	case "polynomial":
		if len(s.Poly) == 0 {
			return nil, fmt.Errorf("polynomial beam needs at least one coefficient")
		}
		return PolynomialBeam{Coeffs: append([]float64(nil), s.Poly...)}, nil
	default:
		return nil, fmt.Errorf("unknown beam type %q", s.Type)
	}
}
