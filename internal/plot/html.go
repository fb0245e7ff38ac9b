package plot

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/star/vissim/internal/sim"
)

func minuteLabels(steps []sim.Step) []string {
	out := make([]string, len(steps))
	for i, st := range steps {
		out[i] = fmt.Sprintf("%.2f", (st.JD-steps[0].JD)*24*60)
	}
	return out
}

func lineData(steps []sim.Step, y func(sim.Step) float64) []opts.LineData {
	out := make([]opts.LineData, len(steps))
	for i, st := range steps {
		out[i] = opts.LineData{Value: y(st)}
	}
	return out
}

// RenderHTML writes the same diagnostics as Render as an interactive HTML
// page with one chart per panel.
func RenderHTML(w io.Writer, res *sim.Result) error {
	if res == nil || len(res.Steps) == 0 {
		return errors.New("chart: no time steps")
	}
	if len(res.Freqs) == 0 {
		return errors.New("chart: no channels")
	}
	channels := Channels(len(res.Freqs))
	labels := minuteLabels(res.Steps)

	flux := charts.NewLine()
	flux.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Source flux", Subtitle: res.Case.String()}),
		charts.WithXAxisOpts(opts.XAxis{Name: "min"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Sum flux"}),
	)
	mid := channels[len(channels)/2]
	flux.SetXAxis(labels).AddSeries(fmt.Sprintf("%.4f GHz", res.Freqs[mid]),
		lineData(res.Steps, func(s sim.Step) float64 { return s.SumFlux[mid] }))

	vis := charts.NewLine()
	vis.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Visibility", Subtitle: "real part"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "min"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Re(vis)"}),
	)
	vis.SetXAxis(labels)
	for _, ch := range channels {
		vis.AddSeries(fmt.Sprintf("%.4f GHz", res.Freqs[ch]),
			lineData(res.Steps, func(s sim.Step) float64 { return real(s.Vis[ch]) }))
	}

	page := components.NewPage()
	page.PageTitle = "vissim diagnostics"
	page.AddCharts(flux, vis)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("chart: %w", err)
	}
	return nil
}
