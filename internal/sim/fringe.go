package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"
	"time"

	"github.com/pbnjay/memory"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/star/vissim/internal/antenna"
	"github.com/star/vissim/internal/healpix"
	"github.com/star/vissim/internal/metrics"
	"github.com/star/vissim/internal/transform"
)

// FringeTable holds, per channel, the beam-weighted geometric fringe of
// every sky pixel, and the sky flux per pixel. It is read-only once built.
type FringeTable struct {
	Freqs  []float64
	Fringe [][]complex128 // [channel][pixel]
	Flux   []float64      // [pixel], identical for every channel
}

// FringeTableBytes estimates the memory needed for a table of nchan
// channels over npix pixels.
func FringeTableBytes(npix, nchan int) uint64 {
	const complexSize, floatSize = 16, 8
	perChannel := uint64(npix) * complexSize
	// plus pixel directions and flux
	return uint64(nchan)*perChannel + uint64(npix)*floatSize*4
}

// CheckMemory logs a warning when need exceeds the physical memory of the
// host and reports whether it fits.
func CheckMemory(logger *slog.Logger, need uint64) bool {
	return checkMemory(logger, need, memory.TotalMemory())
}

// checkMemory compares need with total; a zero total means unknown.
func checkMemory(logger *slog.Logger, need, total uint64) bool {
	if total == 0 || need <= total {
		return true
	}
	logger.Warn("fringe table exceeds physical memory",
		"need_bytes", need,
		"total_bytes", total,
		"hint", "lower --nside or --nchan; the table grows with nchan x 12 nside^2",
	)
	return false
}

// geometricPhase returns exp(-2πi (b·s) f) for baseline b and direction s
// in nanoseconds and GHz.
func geometricPhase(bl, dir transform.Vec3, freq float64) complex128 {
	return cmplx.Exp(complex(0, -2*math.Pi*bl.Dot(dir)*freq))
}

// ComputeFringe builds the fringe table for baseline bl (topocentric ns)
// over the pixels of sky. The beam is the x response of antenna 0, taken
// toward each pixel's celestial direction as if it were topocentric, and
// normalised to unit sum per channel. With workers > 1 the channels are
// computed concurrently; each channel slot is written by one goroutine.
func ComputeFringe(ctx context.Context, logger *slog.Logger, aa *antenna.Array, sky *healpix.Map, bl transform.Vec3, workers int) (*FringeTable, error) {
	ant, err := aa.Antenna(0)
	if err != nil {
		return nil, fmt.Errorf("fringe: %w", err)
	}
	if workers < 1 {
		workers = 1
	}

	npix := sky.Npix()
	dirs := make([]transform.Vec3, npix)
	for p := range dirs {
		dirs[p] = sky.Pix2Vec(p)
	}

	freqs := aa.Freqs()
	table := &FringeTable{
		Freqs:  freqs,
		Fringe: make([][]complex128, len(freqs)),
		Flux:   sky.Values(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for ch := range freqs {
		if gctx.Err() != nil {
			break
		}
		ch := ch
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			start := time.Now()
			fng, err := channelFringe(ant, dirs, bl, freqs[ch])
			if err != nil {
				return fmt.Errorf("channel %d (%.6f GHz): %w", ch, freqs[ch], err)
			}
			table.Fringe[ch] = fng
			metrics.ObserveFringeChannel(time.Since(start))
			logger.Debug("fringe channel done", "channel", ch, "freq_ghz", freqs[ch])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fringe: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fringe: %w", err)
	}
	return table, nil
}

func channelFringe(ant antenna.Antenna, dirs []transform.Vec3, bl transform.Vec3, freq float64) ([]complex128, error) {
	bm := make([]float64, len(dirs))
	for p, d := range dirs {
		r, err := ant.BmResponse(d, freq, 'x')
		if err != nil {
			return nil, err
		}
		bm[p] = r
	}
	sum := floats.Sum(bm)
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("beam sum is %v", sum)
	}
	floats.Scale(1/sum, bm)

	fng := make([]complex128, len(dirs))
	for p, d := range dirs {
		fng[p] = geometricPhase(bl, d, freq) * complex(bm[p], 0)
	}
	return fng, nil
}
