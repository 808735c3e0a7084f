package report

import (
	"sort"
	"strconv"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats describes the recorded multipliers.
type Stats struct {
	Count    int     `json:"count"`
	Parsed   int     `json:"parsed"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	StdDev   float64 `json:"stdDev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Above2x  int     `json:"above2x"`
	Above10x int     `json:"above10x"`
}

// Summarize computes descriptive statistics over history tokens. Tokens that
// do not parse as numbers count towards Count only.
func Summarize(tokens []string) Stats {
	s := Stats{Count: len(tokens)}

	values := make([]float64, 0, len(tokens))
	for _, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			continue
		}
		values = append(values, v)
		if v >= 2 {
			s.Above2x++
		}
		if v >= 10 {
			s.Above10x++
		}
	}
	s.Parsed = len(values)
	if s.Parsed == 0 {
		return s
	}

	sort.Float64s(values)
	s.Mean = stat.Mean(values, nil)
	s.Median = median(values)
	s.Min = floats.Min(values)
	s.Max = floats.Max(values)
	if s.Parsed > 1 {
		s.StdDev = stat.StdDev(values, nil)
	}
	return s
}

// median of sorted values. stat.Quantile picks the lower middle value for
// even counts, so those are averaged here.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return stat.Quantile(0.5, stat.Empirical, sorted, nil)
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
