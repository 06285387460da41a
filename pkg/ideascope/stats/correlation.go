package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
)

// CorrelationResult holds a correlation coefficient and its two-sided p-value.
type CorrelationResult struct {
	R float64 `json:"r"`
	P float64 `json:"p"`
	N int     `json:"n"`
}

// Pearson returns the linear correlation of x and y.
func Pearson(x, y []float64) (CorrelationResult, error) {
	if len(x) != len(y) {
		return CorrelationResult{}, fmt.Errorf("pearson: lengths %d and %d: %w", len(x), len(y), internalerr.ErrSizeMismatch)
	}
	if len(x) < 3 {
		return CorrelationResult{}, fmt.Errorf("pearson needs at least 3 pairs (got %d): %w", len(x), internalerr.ErrInvalidInput)
	}
	r := stat.Correlation(x, y, nil)
	return CorrelationResult{R: r, P: correlationP(r, len(x)), N: len(x)}, nil
}

// Spearman returns the rank correlation of x and y. Ties get average ranks.
func Spearman(x, y []float64) (CorrelationResult, error) {
	if len(x) != len(y) {
		return CorrelationResult{}, fmt.Errorf("spearman: lengths %d and %d: %w", len(x), len(y), internalerr.ErrSizeMismatch)
	}
	return Pearson(ranks(x), ranks(y))
}

// correlationP uses t = r * sqrt((n-2)/(1-r^2)) with n-2 degrees of freedom.
func correlationP(r float64, n int) float64 {
	if math.IsNaN(r) {
		return math.NaN()
	}
	if math.Abs(r) >= 1 {
		return 0
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	return twoSidedP(t, df)
}

func ranks(xs []float64) []float64 {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	out := make([]float64, len(xs))
	for i := 0; i < len(idx); {
		j := i
		for j+1 < len(idx) && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			out[idx[k]] = avg
		}
		i = j + 1
	}
	return out
}
