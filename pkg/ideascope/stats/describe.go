package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary describes one sample.
type Summary struct {
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"std"`
	SE     float64 `json:"se"`
	CILow  float64 `json:"ci_low"`
	CIHigh float64 `json:"ci_high"`
}

// ConfidenceLevel is the coverage of Summary's interval.
const ConfidenceLevel = 0.95

func mean(xs []float64) float64 {
	return stat.Mean(xs, nil)
}

// Describe computes mean, median, sample standard deviation and a 95%
// t-interval for the mean. Fewer than two samples give a zero-width interval
// and zero deviation; an empty sample returns the zero Summary.
func Describe(xs []float64) Summary {
	s := Summary{N: len(xs)}
	if len(xs) == 0 {
		return s
	}
	s.Mean = mean(xs)
	s.Median = median(xs)
	s.CILow, s.CIHigh = s.Mean, s.Mean
	if len(xs) < 2 {
		return s
	}
	s.StdDev = stat.StdDev(xs, nil)
	s.SE = s.StdDev / math.Sqrt(float64(len(xs)))
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(len(xs) - 1)}
	half := t.Quantile(1-(1-ConfidenceLevel)/2) * s.SE
	s.CILow = s.Mean - half
	s.CIHigh = s.Mean + half
	return s
}

func median(xs []float64) float64 {
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
