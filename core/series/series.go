// Package series provides the exogenous supply and demand time series that
// drive the energy balancer.
package series

import (
	"time"

	"github.com/kilianp07/h2grid/core/simerr"
)

// Sample is one timestamped energy reading in MJ.
type Sample struct {
	Time     time.Time
	EnergyMJ float64
}

// Series is an ordered, finite sequence of samples read cyclically.
type Series struct {
	Name    string
	samples []Sample
}

// New returns a Series over samples. The slice is copied.
func New(name string, samples []Sample) *Series {
	s := &Series{Name: name, samples: make([]Sample, len(samples))}
	copy(s.samples, samples)
	return s
}

// Len returns the number of samples.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.samples)
}

// Samples returns a copy of the underlying samples.
func (s *Series) Samples() []Sample {
	out := make([]Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// At returns the sample for tick, wrapping around once the series is
// exhausted.
func (s *Series) At(tick uint64) (Sample, error) {
	if s == nil || len(s.samples) == 0 {
		return Sample{}, simerr.Invalidf("series is empty")
	}
	return s.samples[tick%uint64(len(s.samples))], nil
}
