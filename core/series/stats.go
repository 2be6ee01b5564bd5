package series

import (
	"gonum.org/v1/gonum/floats"

	"github.com/kilianp07/h2grid/core/simerr"
)

// MJPerMWh converts between megajoules and megawatt-hours.
const MJPerMWh = 3600.0

// Difference joins supply and demand on timestamp and returns supply − demand
// for every shared instant, in supply order.
func Difference(supply, demand *Series) (*Series, error) {
	byTime := make(map[int64]float64, demand.Len())
	for _, d := range demand.samples {
		byTime[d.Time.UnixNano()] = d.EnergyMJ
	}
	var out []Sample
	for _, s := range supply.samples {
		if d, ok := byTime[s.Time.UnixNano()]; ok {
			out = append(out, Sample{Time: s.Time, EnergyMJ: s.EnergyMJ - d})
		}
	}
	if len(out) == 0 {
		return nil, simerr.Invalidf("supply and demand share no timestamps")
	}
	return New("difference", out), nil
}

// Stats summarises an energy difference series. All values are in MJ.
type Stats struct {
	Samples     int
	Total       float64
	Max         float64
	Min         float64
	SumPositive float64
	SumNegative float64
}

// Summarize computes Stats over s.
func Summarize(s *Series) (Stats, error) {
	if s == nil || s.Len() == 0 {
		return Stats{}, simerr.Invalidf("series is empty")
	}
	vals := make([]float64, s.Len())
	var pos, neg []float64
	for i, smp := range s.samples {
		vals[i] = smp.EnergyMJ
		switch {
		case smp.EnergyMJ > 0:
			pos = append(pos, smp.EnergyMJ)
		case smp.EnergyMJ < 0:
			neg = append(neg, smp.EnergyMJ)
		}
	}
	return Stats{
		Samples:     len(vals),
		Total:       floats.Sum(vals),
		Max:         floats.Max(vals),
		Min:         floats.Min(vals),
		SumPositive: floats.Sum(pos),
		SumNegative: floats.Sum(neg),
	}, nil
}

// BatterySizeMWh returns the storage needed to cover three times the worst
// single-sample deficit.
func (s Stats) BatterySizeMWh() float64 {
	if s.Min >= 0 {
		return 0
	}
	return 3 * -s.Min / MJPerMWh
}

// ToGJ converts MJ to GJ.
func ToGJ(mj float64) float64 { return mj / 1000 }

// ToMWh converts MJ to MWh.
func ToMWh(mj float64) float64 { return mj / MJPerMWh }

// ToGWh converts MJ to GWh.
func ToGWh(mj float64) float64 { return mj / (MJPerMWh * 1000) }
