package sim

import (
	"fmt"

	"github.com/star/vissim/internal/healpix"
	"github.com/star/vissim/internal/transform"
)

// NewSky returns a zeroed map of the given resolution holding one
// unit-flux point source at target.
func NewSky(nside int, target transform.Vec3) (*healpix.Map, error) {
	m, err := healpix.NewMap(nside)
	if err != nil {
		return nil, fmt.Errorf("sky map: %w", err)
	}
	m.Zero()
	m.Put(target, 1, 1)
	return m, nil
}
