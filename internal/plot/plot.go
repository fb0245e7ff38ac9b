// Package plot renders the per-step diagnostics of a run, the summed source
// flux and the real part of the visibility against time, as a PNG or as an
// interactive HTML page.
package plot

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"golang.org/x/image/colornames"
	gonumplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/star/vissim/internal/sim"
)

const (
	width  = 800
	height = 600
)

// stepSeries is an XY series over the steps of a run: x is the offset from
// the first step in minutes.
type stepSeries struct {
	steps []sim.Step
	y     func(sim.Step) float64
}

func (s stepSeries) Len() int { return len(s.steps) }

func (s stepSeries) XY(i int) (x, y float64) {
	x = (s.steps[i].JD - s.steps[0].JD) * 24 * 60
	return x, s.y(s.steps[i])
}

// Channels picks the channels drawn in the visibility panel: first,
// middle and last, without duplicates.
func Channels(nchan int) []int {
	var out []int
	for _, ch := range []int{0, nchan / 2, nchan - 1} {
		if ch < 0 || (len(out) > 0 && out[len(out)-1] == ch) {
			continue
		}
		out = append(out, ch)
	}
	return out
}

var lineColors = []color.Color{colornames.Steelblue, colornames.Darkorange, colornames.Seagreen}

func fluxPlot(steps []sim.Step, ch int) (*gonumplot.Plot, error) {
	p := gonumplot.New()
	p.Title.Text = "Source flux"
	p.X.Label.Text = "Minutes since start"
	p.Y.Label.Text = "Sum flux (Jy)"

	line, err := plotter.NewLine(stepSeries{steps, func(s sim.Step) float64 { return s.SumFlux[ch] }})
	if err != nil {
		return nil, fmt.Errorf("flux line: %w", err)
	}
	line.Color = colornames.Black
	p.Add(line, plotter.NewGrid())
	return p, nil
}

func visPlot(steps []sim.Step, channels []int, freqs []float64) (*gonumplot.Plot, error) {
	p := gonumplot.New()
	p.Title.Text = "Visibility"
	p.X.Label.Text = "Minutes since start"
	p.Y.Label.Text = "Re(vis)"
	p.Add(plotter.NewGrid())

	for n, ch := range channels {
		line, err := plotter.NewLine(stepSeries{steps, func(s sim.Step) float64 { return real(s.Vis[ch]) }})
		if err != nil {
			return nil, fmt.Errorf("channel %d line: %w", ch, err)
		}
		line.Color = lineColors[n%len(lineColors)]
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%.4f GHz", freqs[ch]), line)
	}
	p.Legend.Top = true
	return p, nil
}

// Render draws the two-panel diagnostic for res and writes it to w as PNG.
func Render(w io.Writer, res *sim.Result) error {
	if res == nil || len(res.Steps) == 0 {
		return errors.New("plot: no time steps")
	}
	nchan := len(res.Freqs)
	if nchan == 0 {
		return errors.New("plot: no channels")
	}
	channels := Channels(nchan)

	top, err := fluxPlot(res.Steps, channels[len(channels)/2])
	if err != nil {
		return err
	}
	bottom, err := visPlot(res.Steps, channels, res.Freqs)
	if err != nil {
		return err
	}

	img := vgimg.New(vg.Points(width), vg.Points(height))
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows:      2,
		Cols:      1,
		PadTop:    vg.Points(4),
		PadBottom: vg.Points(4),
		PadLeft:   vg.Points(4),
		PadRight:  vg.Points(4),
		PadY:      vg.Points(10),
	}
	canvases := gonumplot.Align([][]*gonumplot.Plot{{top}, {bottom}}, tiles, dc)
	top.Draw(canvases[0][0])
	bottom.Draw(canvases[1][0])

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("plot: writing png: %w", err)
	}
	return nil
}
