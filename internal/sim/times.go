package sim

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/star/vissim/internal/transform"
)

// ErrUnknownTimeRange is returned by ParseTimeRange for an unrecognised mode.
var ErrUnknownTimeRange = errors.New("unknown time range mode")

// TimeRange selects how the sample times are derived.
type TimeRange int

const (
	// TimeRangeFixed samples the fixed window [FixedStartJD, FixedEndJD).
	TimeRangeFixed TimeRange = iota
	// TimeRangeConfig samples [startjd, endjd) from the configuration.
	TimeRangeConfig
)

// The fixed window used when the configured dates are not applied.
const (
	FixedStartJD = 2454500.24
	FixedEndJD   = 2454500.26
)

func (r TimeRange) String() string {
	if r == TimeRangeConfig {
		return "config"
	}
	return "fixed"
}

// ParseTimeRange maps "fixed" or "config" to its TimeRange.
func ParseTimeRange(s string) (TimeRange, error) {
	switch strings.ToLower(s) {
	case "fixed":
		return TimeRangeFixed, nil
	case "config":
		return TimeRangeConfig, nil
	}
	return 0, fmt.Errorf("%w: %q (want fixed or config)", ErrUnknownTimeRange, s)
}

// Arange returns start, start+step, ... up to but excluding stop. The count
// is ceil((stop-start)/step) and each value is start+i*step.
func Arange(start, stop, step float64) []float64 {
	if step <= 0 || stop <= start {
		return nil
	}
	n := int(math.Ceil((stop - start) / step))
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// SampleTimes returns the Julian dates of the records for an integration
// time of inttime seconds.
func SampleTimes(mode TimeRange, startJD, endJD, inttime float64) []float64 {
	step := inttime / transform.SecondsPerDay
	if mode == TimeRangeConfig {
		return Arange(startJD, endJD, step)
	}
	return Arange(FixedStartJD, FixedEndJD, step)
}
