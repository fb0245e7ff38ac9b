package healpix

import "github.com/star/vissim/internal/transform"

// Map is an all-sky map holding a data plane and a weight plane over a
// RING-ordered grid. The value of a pixel is data/weight where the weight is
// positive, and the raw data otherwise.
type Map struct {
	*Base
	data []float64
	wgt  []float64
}

// NewMap returns a zeroed map at the given resolution.
func NewMap(nside int) (*Map, error) {
	b, err := NewBase(nside)
	if err != nil {
		return nil, err
	}
	return &Map{
		Base: b,
		data: make([]float64, b.Npix()),
		wgt:  make([]float64, b.Npix()),
	}, nil
}

// Zero clears both planes.
func (m *Map) Zero() {
	for i := range m.data {
		m.data[i] = 0
		m.wgt[i] = 0
	}
}

// Put overwrites the pixel containing dir with value val at weight wgt.
// It returns the pixel index written.
func (m *Map) Put(dir transform.Vec3, wgt, val float64) int {
	px := m.Vec2Pix(dir)
	m.data[px] = wgt * val
	m.wgt[px] = wgt
	return px
}

// Value returns the weighted value of pixel px.
func (m *Map) Value(px int) float64 {
	w := m.wgt[px]
	if w > 0 {
		return m.data[px] / w
	}
	return m.data[px]
}

// Values returns the weighted value of every pixel, in pixel order.
func (m *Map) Values() []float64 {
	out := make([]float64, len(m.data))
	for px := range out {
		out[px] = m.Value(px)
	}
	return out
}

// NonZero returns the indices of pixels whose value is not zero.
func (m *Map) NonZero() []int {
	var px []int
	for i := range m.data {
		if m.Value(i) != 0 {
			px = append(px, i)
		}
	}
	return px
}
