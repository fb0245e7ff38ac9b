package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	fringeChannelSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vissim_fringe_channel_seconds",
			Help:    "Time to compute the fringe pattern of one frequency channel.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		},
	)

	fringeChannelsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vissim_fringe_channels_total",
			Help: "Total number of fringe channels computed.",
		},
	)

	timestepSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vissim_timestep_seconds",
			Help:    "Time to compute and write one time step.",
			Buckets: prometheus.DefBuckets,
		},
	)

	recordsWrittenTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vissim_records_written_total",
			Help: "Total number of visibility records written.",
		},
	)

	skyPixels = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vissim_sky_pixels",
			Help: "Number of pixels in the sky map.",
		},
	)

	fringeTableBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vissim_fringe_table_bytes",
			Help: "Estimated size of the precomputed fringe table in bytes.",
		},
	)
)

func init() {
	prometheus.MustRegister(fringeChannelSeconds)
	prometheus.MustRegister(fringeChannelsTotal)
	prometheus.MustRegister(timestepSeconds)
	prometheus.MustRegister(recordsWrittenTotal)
	prometheus.MustRegister(skyPixels)
	prometheus.MustRegister(fringeTableBytes)
}

// ObserveFringeChannel records one computed fringe channel.
func ObserveFringeChannel(d time.Duration) {
	fringeChannelSeconds.Observe(d.Seconds())
	fringeChannelsTotal.Inc()
}

// ObserveTimestep records the duration of one time step.
func ObserveTimestep(d time.Duration) {
	timestepSeconds.Observe(d.Seconds())
}

// RecordWritten counts one visibility record.
func RecordWritten() {
	recordsWrittenTotal.Inc()
}

// SetSkyPixels sets the sky map size gauge.
func SetSkyPixels(n int) {
	skyPixels.Set(float64(n))
}

// SetFringeTableBytes sets the fringe table size gauge.
func SetFringeTableBytes(n uint64) {
	fringeTableBytes.Set(float64(n))
}

// WriteTextfile writes all registered metrics to path in the text
// exposition format, for pickup by a node exporter textfile collector.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
