package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/star/vissim/internal/antenna"
	"github.com/star/vissim/internal/healpix"
	"github.com/star/vissim/internal/metrics"
	"github.com/star/vissim/internal/miriad"
	"github.com/star/vissim/internal/transform"
)

// Params configures one simulation run.
type Params struct {
	Array   *antenna.Array
	AntI    int
	AntJ    int
	Case    Case
	StartJD float64   // fixes the east and zenith source positions
	Times   []float64 // record times, JD
	Nside   int
	Workers int
}

// Step is the outcome of one time step.
type Step struct {
	Index   int
	JD      float64
	LST     float64      // radians
	Vis     []complex128 // per channel
	SumFlux []float64    // per channel, total flux of the contributing pixels
}

// Result summarises a run.
type Result struct {
	Case     Case
	Target   transform.Vec3 // equatorial source direction
	Pixel    int            // pixel holding the source
	Baseline transform.Vec3 // topocentric ns
	Freqs    []float64      // GHz
	Steps    []Step
}

// Simulator runs the pipeline against an open dataset.
type Simulator struct {
	params Params
	w      *miriad.Writer
	logger *slog.Logger
}

// NewSimulator checks p and returns a simulator writing to w.
func NewSimulator(p Params, w *miriad.Writer, logger *slog.Logger) (*Simulator, error) {
	if p.Array == nil {
		return nil, errors.New("simulator: no antenna array")
	}
	if len(p.Times) == 0 {
		return nil, errors.New("simulator: empty time range")
	}
	if p.AntI == p.AntJ {
		return nil, fmt.Errorf("simulator: antenna pair (%d, %d) is not a baseline", p.AntI, p.AntJ)
	}
	if w == nil {
		return nil, errors.New("simulator: no dataset")
	}
	// Per-record variables; redeclaring one InitDataset added is a no-op.
	for _, v := range recordVars {
		if err := w.AddVar(v.name, v.typ); err != nil {
			return nil, fmt.Errorf("simulator: %w", err)
		}
	}
	return &Simulator{params: p, w: w, logger: logger}, nil
}

var recordVars = []struct {
	name string
	typ  miriad.VarType
}{
	{"lst", miriad.TypeDouble},
	{"ra", miriad.TypeDouble},
	{"obsra", miriad.TypeDouble},
	{"pol", miriad.TypeInt},
}

// Run builds the sky and the fringe table, then writes one record per
// sample time. On cancellation it stops between time steps and returns the
// steps written so far along with the context error.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	p := s.params
	aa := p.Array

	bl, err := aa.Baseline(p.AntI, p.AntJ)
	if err != nil {
		return nil, fmt.Errorf("baseline: %w", err)
	}
	target := p.Case.Target(aa, p.StartJD)
	sky, err := NewSky(p.Nside, target)
	if err != nil {
		return nil, err
	}
	pixel := sky.Vec2Pix(target)
	startLST := transform.LocalSiderealTime(p.StartJD, aa.Long())
	hz := transform.TopToHorizontal(transform.Eq2TopM(startLST, aa.Lat()).Apply(target))
	s.logger.Info("sky model ready",
		"case", p.Case.String(),
		"target", target,
		"az_deg", hz.AzimuthDeg,
		"el_deg", hz.ElevationDeg,
		"pixel", pixel,
		"nside", sky.Nside(),
		"npix", sky.Npix(),
	)

	freqs := aa.Freqs()
	need := FringeTableBytes(sky.Npix(), len(freqs))
	metrics.SetSkyPixels(sky.Npix())
	metrics.SetFringeTableBytes(need)
	CheckMemory(s.logger, need)

	start := time.Now()
	table, err := ComputeFringe(ctx, s.logger, aa, sky, bl, p.Workers)
	if err != nil {
		return nil, err
	}
	s.logger.Info("fringe table ready",
		"channels", len(freqs),
		"workers", p.Workers,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	active := sky.NonZero()
	if len(active) == 0 {
		return nil, errors.New("sky map holds no flux")
	}
	flux := make([]float64, len(active))
	for a, px := range active {
		flux[a] = table.Flux[px]
	}
	dirs := pixelMatrix(sky.Base, active)

	res := &Result{
		Case:     p.Case,
		Target:   target,
		Pixel:    pixel,
		Baseline: bl,
		Freqs:    freqs,
		Steps:    make([]Step, 0, len(p.Times)),
	}

	flags := make([]bool, len(freqs))
	data := make([]complex64, len(freqs))
	pol := miriad.Str2Pol["xx"]

	for i, jd := range p.Times {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("run cancelled", "written", len(res.Steps), "total", len(p.Times))
			return res, err
		}
		stepStart := time.Now()

		aa.SetJulTime(jd)
		lst := aa.SiderealTime()
		for _, name := range []string{"lst", "ra", "obsra"} {
			if err := s.w.SetVar(name, lst); err != nil {
				return res, fmt.Errorf("timestep %d: %w", i, err)
			}
		}

		interp := interpolateRotated(sky.Base, aa.Eq2Top(), dirs)
		step := Step{
			Index:   i,
			JD:      jd,
			LST:     lst,
			Vis:     make([]complex128, len(freqs)),
			SumFlux: make([]float64, len(freqs)),
		}
		for ch, fng := range table.Fringe {
			var vis complex128
			for a, in := range interp {
				var efng complex128
				for k, px := range in.Pix {
					efng += fng[px] * complex(in.Weights[k], 0)
				}
				vis += complex(flux[a], 0) * efng
			}
			step.Vis[ch] = vis
			step.SumFlux[ch] = floats.Sum(flux)
			data[ch] = complex64(vis)
		}

		if err := s.w.SetVar("pol", pol); err != nil {
			return res, fmt.Errorf("timestep %d: %w", i, err)
		}
		pre := miriad.Preamble{UVW: [3]float64(bl), Time: jd, I: p.AntI, J: p.AntJ}
		if err := s.w.Write(pre, data, flags); err != nil {
			return res, fmt.Errorf("timestep %d: %w", i, err)
		}
		metrics.RecordWritten()
		metrics.ObserveTimestep(time.Since(stepStart))
		s.logger.Info("timestep",
			"index", i+1,
			"total", len(p.Times),
			"jd", jd,
			"utc", transform.TimeFromJulianDate(jd).Format(time.RFC3339),
		)

		res.Steps = append(res.Steps, step)
	}
	return res, nil
}

// pixelMatrix returns the unit vectors of pix as the columns of a 3×n matrix.
func pixelMatrix(b *healpix.Base, pix []int) *mat.Dense {
	m := mat.NewDense(3, len(pix), nil)
	for c, px := range pix {
		v := b.Pix2Vec(px)
		m.Set(0, c, v[0])
		m.Set(1, c, v[1])
		m.Set(2, c, v[2])
	}
	return m
}

// interpolateRotated rotates the column vectors of dirs by rot and returns
// the interpolation pixels and weights of each rotated direction.
func interpolateRotated(b *healpix.Base, rot transform.Matrix3, dirs *mat.Dense) []healpix.Interpolation {
	r := mat.NewDense(3, 3, []float64{
		rot[0][0], rot[0][1], rot[0][2],
		rot[1][0], rot[1][1], rot[1][2],
		rot[2][0], rot[2][1], rot[2][2],
	})
	var out mat.Dense
	out.Mul(r, dirs)

	_, n := out.Dims()
	interp := make([]healpix.Interpolation, n)
	for c := range interp {
		interp[c] = b.Interpolate(transform.Vec3{out.At(0, c), out.At(1, c), out.At(2, c)})
	}
	return interp
}
