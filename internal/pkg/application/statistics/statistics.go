// Package statistics computes the windowed min/max/avg/latest figures and the out of
// range flags shown on the dashboard. Nothing in here is used by the alert pipeline.
package statistics

import (
	"github.com/diwise/hydroponic-monitor/pkg/types"
	"github.com/samber/lo"
)

type Metric string

const (
	Temperature Metric = "temperature"
	PH          Metric = "ph"
	EC          Metric = "ec"
)

var Metrics = []Metric{Temperature, PH, EC}

type Stats struct {
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Avg    float64 `json:"avg"`
	Latest float64 `json:"latest"`
}

type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// displayRanges are global and unrelated to the bounds stored on each plant profile.
var displayRanges = map[Metric]Range{
	Temperature: {Min: 18, Max: 30},
	PH:          {Min: 5.5, Max: 7.5},
	EC:          {Min: 1.0, Max: 3.0},
}

func DisplayRange(metric Metric) (Range, bool) {
	r, ok := displayRanges[metric]
	return r, ok
}

// IsOutOfRange reports whether value lies strictly outside the display range of metric.
// Both bounds are inclusive. Unknown metrics are never out of range.
func IsOutOfRange(value float64, metric Metric) bool {
	r, ok := displayRanges[metric]
	if !ok {
		return false
	}
	return value < r.Min || value > r.Max
}

// Compute returns the statistics for values given in chronological order.
func Compute(values []float64) Stats {
	if len(values) == 0 {
		return Stats{}
	}

	return Stats{
		Min:    lo.Min(values),
		Max:    lo.Max(values),
		Avg:    lo.Sum(values) / float64(len(values)),
		Latest: values[len(values)-1],
	}
}

func Value(r types.SensorReading, metric Metric) float64 {
	switch metric {
	case Temperature:
		return r.WaterTemperature
	case PH:
		return r.PH
	case EC:
		return r.EC
	}
	return 0
}

// ForField computes the statistics of one metric over readings ordered oldest first.
func ForField(readings []types.SensorReading, metric Metric) Stats {
	return Compute(lo.Map(readings, func(r types.SensorReading, _ int) float64 {
		return Value(r, metric)
	}))
}

// Window keeps the last n readings. A non positive n keeps everything.
func Window(readings []types.SensorReading, n int) []types.SensorReading {
	if n <= 0 || n >= len(readings) {
		return readings
	}
	return readings[len(readings)-n:]
}

type Summary map[Metric]Stats

func Summarize(readings []types.SensorReading) Summary {
	s := Summary{}
	for _, m := range Metrics {
		s[m] = ForField(readings, m)
	}
	return s
}

// Flags marks which of the figures in Stats fall outside the display range.
type Flags struct {
	Min    bool `json:"min"`
	Max    bool `json:"max"`
	Latest bool `json:"latest"`
}

// OutOfRange flags the min, max and latest values of every metric in the summary.
func (s Summary) OutOfRange() map[Metric]Flags {
	flags := map[Metric]Flags{}
	for m, st := range s {
		flags[m] = Flags{
			Min:    IsOutOfRange(st.Min, m),
			Max:    IsOutOfRange(st.Max, m),
			Latest: IsOutOfRange(st.Latest, m),
		}
	}
	return flags
}
