// Package sim computes the visibilities of a single point source seen by
// one baseline and streams them into a Miriad dataset.
package sim

import (
	"errors"
	"fmt"
	"strings"

	"github.com/star/vissim/internal/antenna"
	"github.com/star/vissim/internal/transform"
)

// ErrUnknownCase is returned by ParseCase for an unrecognised name.
var ErrUnknownCase = errors.New("unknown test case")

// Case selects where the point source is placed.
type Case int

const (
	// CasePole puts the source on the south celestial pole.
	CasePole Case = iota
	// CaseEast puts the source on the horizon due east at the start time.
	CaseEast
	// CaseZenith puts the source at the zenith at the start time.
	CaseZenith
)

var caseNames = [...]string{"pole", "east", "zenith"}

func (c Case) String() string {
	if c < 0 || int(c) >= len(caseNames) {
		return fmt.Sprintf("Case(%d)", int(c))
	}
	return caseNames[c]
}

// ParseCase maps a case name to its Case.
func ParseCase(s string) (Case, error) {
	for i, name := range caseNames {
		if strings.EqualFold(s, name) {
			return Case(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownCase, s, strings.Join(caseNames[:], ", "))
}

// Target returns the equatorial unit vector of the source. East and zenith
// are fixed in topocentric coordinates at startJD and rotated to equatorial
// with the sidereal time of that instant; the array clock is not touched.
func (c Case) Target(aa *antenna.Array, startJD float64) transform.Vec3 {
	var top transform.Vec3
	switch c {
	case CaseEast:
		top = transform.Vec3{-1, 0, 0}
	case CaseZenith:
		top = transform.Vec3{0, 0, 1}
	default:
		return transform.Vec3{0, 0, -1}
	}
	lst := transform.LocalSiderealTime(startJD, aa.Long())
	return transform.Top2EqM(lst, aa.Lat()).Apply(top)
}
