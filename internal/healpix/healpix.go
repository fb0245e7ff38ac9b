// Package healpix implements the RING-ordered HEALPix pixelization of the
// sphere: pixel index <-> direction conversion and bilinear interpolation
// over the four pixels nearest a direction.
//
// The algorithms follow Górski et al. 2005 and the reference healpix_base
// implementation. Only the RING scheme is provided.
package healpix

import (
	"errors"
	"fmt"
	"math"

	"github.com/star/vissim/internal/transform"
)

// ErrInvalidNside is returned for a resolution that is not a positive power of two.
var ErrInvalidNside = errors.New("nside must be a positive power of two")

const (
	halfPi    = math.Pi / 2
	twoThirds = 2.0 / 3.0
)

// Base holds the derived constants of a RING-ordered HEALPix grid.
type Base struct {
	nside int
	ncap  int
	npix  int
	fact1 float64
	fact2 float64
}

// NewBase returns the grid for the given nside.
func NewBase(nside int) (*Base, error) {
	if nside <= 0 || nside&(nside-1) != 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidNside, nside)
	}
	npix := 12 * nside * nside
	fact2 := 4.0 / float64(npix)
	return &Base{
		nside: nside,
		ncap:  2 * nside * (nside - 1),
		npix:  npix,
		fact2: fact2,
		fact1: float64(2*nside) * fact2,
	}, nil
}

// Nside returns the grid resolution parameter.
func (b *Base) Nside() int { return b.nside }

// Npix returns the number of pixels, 12·nside².
func (b *Base) Npix() int { return b.npix }

// isqrt returns floor(sqrt(v)) for non-negative v.
func isqrt(v int) int {
	r := int(math.Sqrt(float64(v) + 0.5))
	for r*r > v {
		r--
	}
	for (r+1)*(r+1) <= v {
		r++
	}
	return r
}

// Pix2Loc returns z = cos(theta) and phi for the centre of pixel pix.
func (b *Base) Pix2Loc(pix int) (z, phi float64) {
	switch {
	case pix < b.ncap: // north polar cap
		iring := (1 + isqrt(1+2*pix)) >> 1
		iphi := (pix + 1) - 2*iring*(iring-1)
		z = 1 - float64(iring*iring)*b.fact2
		phi = (float64(iphi) - 0.5) * halfPi / float64(iring)
	case pix < b.npix-b.ncap: // equatorial region
		nl4 := 4 * b.nside
		ip := pix - b.ncap
		tmp := ip / nl4
		iring := tmp + b.nside
		iphi := ip - nl4*tmp + 1
		fodd := 0.5
		if (iring+b.nside)&1 != 0 {
			fodd = 1
		}
		z = float64(2*b.nside-iring) * b.fact1
		phi = (float64(iphi) - fodd) * math.Pi * 0.75 * b.fact1
	default: // south polar cap
		ip := b.npix - pix
		iring := (1 + isqrt(2*ip-1)) >> 1
		iphi := 4*iring + 1 - (ip - 2*iring*(iring-1))
		z = float64(iring*iring)*b.fact2 - 1
		phi = (float64(iphi) - 0.5) * halfPi / float64(iring)
	}
	return z, phi
}

// Pix2Vec returns the unit direction vector of the centre of pixel pix.
func (b *Base) Pix2Vec(pix int) transform.Vec3 {
	z, phi := b.Pix2Loc(pix)
	sth := math.Sqrt((1 - z) * (1 + z))
	return transform.Vec3{sth * math.Cos(phi), sth * math.Sin(phi), z}
}

// Loc2Pix returns the pixel containing the direction (z = cos(theta), phi).
func (b *Base) Loc2Pix(z, phi float64) int {
	za := math.Abs(z)
	tt := math.Mod(phi/halfPi, 4.0)
	if tt < 0 {
		tt += 4.0
	}

	if za <= twoThirds { // equatorial region
		nl4 := 4 * b.nside
		temp1 := float64(b.nside) * (0.5 + tt)
		temp2 := float64(b.nside) * z * 0.75
		jp := int(temp1 - temp2) // index of ascending edge line
		jm := int(temp1 + temp2) // index of descending edge line

		ir := b.nside + 1 + jp - jm // ring number counted from z=2/3
		kshift := 1 - (ir & 1)

		t1 := jp + jm - b.nside + kshift + 1 + 2*nl4
		ip := (t1 >> 1) % nl4

		return b.ncap + (ir-1)*nl4 + ip
	}

	// polar caps
	tp := tt - math.Floor(tt)
	tmp := float64(b.nside) * math.Sqrt(3*(1-za))

	jp := int(tp * tmp)
	jm := int((1 - tp) * tmp)

	ir := jp + jm + 1 // ring number counted from the closest pole
	ip := int(tt * float64(ir))
	if ip >= 4*ir {
		ip -= 4 * ir
	}

	if z > 0 {
		return 2*ir*(ir-1) + ip
	}
	return b.npix - 2*ir*(ir+1) + ip
}

// vecToLoc converts an arbitrary (non-zero) vector to z = cos(theta) and phi.
func vecToLoc(v transform.Vec3) (z, theta, phi float64) {
	theta = math.Atan2(math.Sqrt(v[0]*v[0]+v[1]*v[1]), v[2])
	phi = math.Atan2(v[1], v[0])
	if phi < 0 {
		phi += 2 * math.Pi
	}
	return math.Cos(theta), theta, phi
}

// Vec2Pix returns the pixel containing direction v. v need not be normalized.
func (b *Base) Vec2Pix(v transform.Vec3) int {
	z, _, phi := vecToLoc(v)
	return b.Loc2Pix(z, phi)
}

// ringAbove returns the number of the next ring to the north of z. Ring 0 is
// the north pole itself.
func (b *Base) ringAbove(z float64) int {
	az := math.Abs(z)
	if az <= twoThirds {
		return int(float64(b.nside) * (2 - 1.5*z))
	}
	iring := int(float64(b.nside) * math.Sqrt(3*(1-az)))
	if z > 0 {
		return iring
	}
	return 4*b.nside - iring - 1
}

// ringInfo describes one iso-latitude ring.
type ringInfo struct {
	startPix int
	ringPix  int
	theta    float64
	shifted  bool
}

func (b *Base) ringInfo(ring int) ringInfo {
	northRing := ring
	if ring > 2*b.nside {
		northRing = 4*b.nside - ring
	}

	var ri ringInfo
	if northRing < b.nside {
		tmp := float64(northRing*northRing) * b.fact2
		cosTheta := 1 - tmp
		sinTheta := math.Sqrt(tmp * (2 - tmp))
		ri.theta = math.Atan2(sinTheta, cosTheta)
		ri.ringPix = 4 * northRing
		ri.shifted = true
		ri.startPix = 2 * northRing * (northRing - 1)
	} else {
		ri.theta = math.Acos(float64(2*b.nside-northRing) * b.fact1)
		ri.ringPix = 4 * b.nside
		ri.shifted = (northRing-b.nside)&1 == 0
		ri.startPix = b.ncap + (northRing-b.nside)*ri.ringPix
	}

	if northRing != ring { // southern hemisphere
		ri.theta = math.Pi - ri.theta
		ri.startPix = b.npix - ri.startPix - ri.ringPix
	}
	return ri
}

// ringNeighbours returns the two pixels of ring ri bracketing longitude phi
// and the weight of the second one.
func ringNeighbours(ri ringInfo, phi float64) (p1, p2 int, w2 float64) {
	dphi := 2 * math.Pi / float64(ri.ringPix)
	shift := 0.0
	if ri.shifted {
		shift = 0.5
	}
	tmp := phi/dphi - shift
	i1 := int(tmp)
	if tmp < 0 {
		i1--
	}
	w2 = (phi - (float64(i1)+shift)*dphi) / dphi
	i2 := i1 + 1
	if i1 < 0 {
		i1 += ri.ringPix
	}
	if i2 >= ri.ringPix {
		i2 -= ri.ringPix
	}
	return ri.startPix + i1, ri.startPix + i2, w2
}

// Interpolation holds the four pixels surrounding a direction and their
// bilinear weights. The weights sum to one.
type Interpolation struct {
	Pix     [4]int
	Weights [4]float64
}

// Interpolate returns the four nearest pixels to direction v and their
// bilinear interpolation weights, bilinear in (theta, phi) between the two
// rings bracketing v.
func (b *Base) Interpolate(v transform.Vec3) Interpolation {
	z, theta, phi := vecToLoc(v)

	var in Interpolation
	ir1 := b.ringAbove(z)
	ir2 := ir1 + 1
	var theta1, theta2 float64

	if ir1 > 0 {
		ri := b.ringInfo(ir1)
		theta1 = ri.theta
		p1, p2, w := ringNeighbours(ri, phi)
		in.Pix[0], in.Pix[1] = p1, p2
		in.Weights[0], in.Weights[1] = 1-w, w
	}
	if ir2 < 4*b.nside {
		ri := b.ringInfo(ir2)
		theta2 = ri.theta
		p1, p2, w := ringNeighbours(ri, phi)
		in.Pix[2], in.Pix[3] = p1, p2
		in.Weights[2], in.Weights[3] = 1-w, w
	}

	switch {
	case ir1 == 0: // between the north pole and the first ring
		wtheta := theta / theta2
		in.Weights[2] *= wtheta
		in.Weights[3] *= wtheta
		fac := (1 - wtheta) * 0.25
		in.Weights[0] = fac
		in.Weights[1] = fac
		in.Weights[2] += fac
		in.Weights[3] += fac
		in.Pix[0] = (in.Pix[2] + 2) & 3
		in.Pix[1] = (in.Pix[3] + 2) & 3
	case ir2 == 4*b.nside: // between the last ring and the south pole
		wtheta := (theta - theta1) / (math.Pi - theta1)
		in.Weights[0] *= 1 - wtheta
		in.Weights[1] *= 1 - wtheta
		fac := wtheta * 0.25
		in.Weights[0] += fac
		in.Weights[1] += fac
		in.Weights[2] = fac
		in.Weights[3] = fac
		in.Pix[2] = ((in.Pix[0] + 2) & 3) + b.npix - 4
		in.Pix[3] = ((in.Pix[1] + 2) & 3) + b.npix - 4
	default:
		wtheta := (theta - theta1) / (theta2 - theta1)
		in.Weights[0] *= 1 - wtheta
		in.Weights[1] *= 1 - wtheta
		in.Weights[2] *= wtheta
		in.Weights[3] *= wtheta
	}
	return in
}
