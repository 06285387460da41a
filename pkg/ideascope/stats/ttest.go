package stats

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
)

// TestResult is the outcome of a two-sided t-test.
type TestResult struct {
	T  float64 `json:"t"`
	DF float64 `json:"df"`
	P  float64 `json:"p"`
}

// twoSidedP returns P(|T| >= |t|) for a Student's t with df degrees of freedom.
func twoSidedP(t, df float64) float64 {
	if math.IsNaN(t) {
		return math.NaN()
	}
	if math.IsInf(t, 0) {
		return 0
	}
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	return 2 * dist.CDF(-math.Abs(t))
}

// WelchTTest compares the means of a and b without assuming equal variances.
func WelchTTest(a, b []float64) (TestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return TestResult{}, fmt.Errorf("welch t-test needs at least 2 samples per group (got %d, %d): %w", len(a), len(b), internalerr.ErrInvalidInput)
	}
	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	sa, sb := va/na, vb/nb
	se := math.Sqrt(sa + sb)
	t := (ma - mb) / se
	df := (sa + sb) * (sa + sb) / (sa*sa/(na-1) + sb*sb/(nb-1))
	return TestResult{T: t, DF: df, P: twoSidedP(t, df)}, nil
}

// StudentTTest compares the means of a and b assuming equal variances.
func StudentTTest(a, b []float64) (TestResult, error) {
	if len(a) < 2 || len(b) < 2 {
		return TestResult{}, fmt.Errorf("t-test needs at least 2 samples per group (got %d, %d): %w", len(a), len(b), internalerr.ErrInvalidInput)
	}
	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	df := na + nb - 2
	pooled := ((na-1)*va + (nb-1)*vb) / df
	t := (ma - mb) / math.Sqrt(pooled*(1/na+1/nb))
	return TestResult{T: t, DF: df, P: twoSidedP(t, df)}, nil
}

// OneSampleTTest tests whether the mean of xs differs from mu. Applied to
// per-unit differences it is the paired t-test.
func OneSampleTTest(xs []float64, mu float64) (TestResult, error) {
	if len(xs) < 2 {
		return TestResult{}, fmt.Errorf("one-sample t-test needs at least 2 samples (got %d): %w", len(xs), internalerr.ErrInvalidInput)
	}
	m, v := stat.MeanVariance(xs, nil)
	n := float64(len(xs))
	t := (m - mu) / math.Sqrt(v/n)
	df := n - 1
	return TestResult{T: t, DF: df, P: twoSidedP(t, df)}, nil
}
