// Package transform provides the coordinate frame transformations used by the
// simulator: Julian dates, sidereal time, and the rotation between the
// equatorial (sky-fixed) frame and the topocentric (observer-fixed) frame.
//
// Topocentric vectors are (east, north, up). Equatorial vectors are direction
// cosines whose x/y plane is the celestial equator and whose z axis points at
// the north celestial pole. The rotation convention is AIPY's, so datasets can
// be compared directly with ones it produced.
package transform

import "math"

// Vec3 is a Cartesian 3-vector.
type Vec3 [3]float64

// Dot returns the scalar product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Sub returns v - w.
func (v Vec3) Sub(w Vec3) Vec3 {
	return Vec3{v[0] - w[0], v[1] - w[1], v[2] - w[2]}
}

// Norm returns the Euclidean length of v.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.Dot(v))
}

// Matrix3 is a row-major 3x3 matrix.
type Matrix3 [3][3]float64

// Apply returns m·v.
func (m Matrix3) Apply(v Vec3) Vec3 {
	return Vec3{
		m[0][0]*v[0] + m[0][1]*v[1] + m[0][2]*v[2],
		m[1][0]*v[0] + m[1][1]*v[1] + m[1][2]*v[2],
		m[2][0]*v[0] + m[2][1]*v[1] + m[2][2]*v[2],
	}
}

// Transpose returns mᵀ. For a rotation this is the inverse.
func (m Matrix3) Transpose() Matrix3 {
	var t Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			t[i][j] = m[j][i]
		}
	}
	return t
}

// Eq2TopM returns the rotation from equatorial to topocentric coordinates for
// hour angle ha and declination dec (radians). Passing the local sidereal time
// as ha and the observer latitude as dec gives the sky-to-ground rotation at
// that instant.
func Eq2TopM(ha, dec float64) Matrix3 {
	sinH, cosH := math.Sin(ha), math.Cos(ha)
	sinD, cosD := math.Sin(dec), math.Cos(dec)
	return Matrix3{
		{sinH, cosH, 0},
		{-sinD * cosH, sinD * sinH, cosD},
		{cosD * cosH, -cosD * sinH, sinD},
	}
}

// Top2EqM returns the rotation from topocentric to equatorial coordinates,
// the inverse of Eq2TopM.
func Top2EqM(ha, dec float64) Matrix3 {
	return Eq2TopM(ha, dec).Transpose()
}
