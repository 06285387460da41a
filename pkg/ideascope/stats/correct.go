package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
)

// Correction is a multiple-comparison adjustment.
type Correction string

const (
	CorrectionNone       Correction = "none"
	CorrectionFDR        Correction = "fdr"
	CorrectionBonferroni Correction = "bonferroni"
)

// ParseCorrection accepts "fdr" (or "bh"), "bonferroni" and "none".
func ParseCorrection(s string) (Correction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fdr", "bh", "fdr_bh":
		return CorrectionFDR, nil
	case "bonferroni":
		return CorrectionBonferroni, nil
	case "", "none":
		return CorrectionNone, nil
	default:
		return "", fmt.Errorf("unknown correction %q: %w", s, internalerr.ErrInvalidInput)
	}
}

// Correct applies method to p and returns adjusted values in input order.
func Correct(p []float64, method Correction) []float64 {
	switch method {
	case CorrectionFDR:
		return BenjaminiHochberg(p)
	case CorrectionBonferroni:
		return Bonferroni(p)
	default:
		return append([]float64(nil), p...)
	}
}

// BenjaminiHochberg returns FDR-adjusted p-values: for the i-th smallest of m
// values, min over j >= i of p_(j) * m / j, capped at 1. NaN inputs are not
// ranked, do not count towards m and stay NaN.
func BenjaminiHochberg(p []float64) []float64 {
	out := make([]float64, len(p))
	order := make([]int, 0, len(p))
	for i, v := range p {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		order = append(order, i)
	}
	m := len(order)
	if m == 0 {
		return out
	}
	sort.SliceStable(order, func(a, b int) bool { return p[order[a]] < p[order[b]] })

	running := math.Inf(1)
	for rank := m; rank >= 1; rank-- {
		idx := order[rank-1]
		adj := p[idx] * float64(m) / float64(rank)
		if adj < running {
			running = adj
		}
		out[idx] = math.Min(running, 1)
	}
	return out
}

// Bonferroni multiplies every p-value by the number of defined tests, capped
// at 1. NaN inputs stay NaN.
func Bonferroni(p []float64) []float64 {
	m := 0
	for _, v := range p {
		if !math.IsNaN(v) {
			m++
		}
	}
	out := make([]float64, len(p))
	for i, v := range p {
		if math.IsNaN(v) {
			out[i] = math.NaN()
			continue
		}
		out[i] = math.Min(v*float64(m), 1)
	}
	return out
}
