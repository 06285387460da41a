package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
)

// Alpha is the significance level applied to adjusted p-values.
const Alpha = 0.05

// CompareOptions controls Compare and ComparePaired.
type CompareOptions struct {
	Metrics    []string
	Unit       Unit
	Baseline   string
	Welch      bool
	Correction Correction
}

func (o CompareOptions) withDefaults() CompareOptions {
	if len(o.Metrics) == 0 {
		o.Metrics = []string{MetricOverall}
	}
	if o.Unit == "" {
		o.Unit = UnitReview
	}
	if o.Baseline == "" {
		o.Baseline = ConditionHuman
	}
	if o.Correction == "" {
		o.Correction = CorrectionFDR
	}
	return o
}

// ConditionSummary describes one condition for one metric.
type ConditionSummary struct {
	Metric    string  `json:"metric"`
	Condition string  `json:"condition"`
	Summary   Summary `json:"summary"`
}

// Comparison is one condition tested against the baseline on one metric.
type Comparison struct {
	Metric      string     `json:"metric"`
	Condition   string     `json:"condition"`
	Baseline    string     `json:"baseline"`
	MeanDiff    float64    `json:"mean_diff"`
	N           int        `json:"n"`
	Test        TestResult `json:"test"`
	PAdjusted   float64    `json:"p_adjusted"`
	Significant bool       `json:"significant"`
}

// Report collects the output of one comparison run.
type Report struct {
	Unit         Unit               `json:"unit"`
	Test         string             `json:"test"`
	Correction   Correction         `json:"correction"`
	Descriptives []ConditionSummary `json:"descriptives"`
	Comparisons  []Comparison       `json:"comparisons"`
	Skipped      []string           `json:"skipped,omitempty"`
}

// Compare describes every condition per metric, aggregated at opts.Unit, and
// runs a two-sample t-test of each non-baseline condition against the baseline.
// All p-values of the run are corrected together.
func Compare(reviews []Review, opts CompareOptions) (*Report, error) {
	opts = opts.withDefaults()
	if _, err := ParseUnit(string(opts.Unit)); err != nil {
		return nil, err
	}
	rep := &Report{Unit: opts.Unit, Correction: opts.Correction, Test: "student"}
	if opts.Welch {
		rep.Test = "welch"
	}

	for _, metric := range opts.Metrics {
		groups := GroupByCondition(reviews, metric, opts.Unit)
		conds := sortedKeys(groups)
		for _, c := range conds {
			rep.Descriptives = append(rep.Descriptives, ConditionSummary{Metric: metric, Condition: c, Summary: Describe(groups[c])})
		}

		base, ok := groups[opts.Baseline]
		if !ok {
			rep.Skipped = append(rep.Skipped, fmt.Sprintf("%s: no %s samples", metric, opts.Baseline))
			continue
		}
		for _, c := range conds {
			if c == opts.Baseline {
				continue
			}
			var res TestResult
			var err error
			if opts.Welch {
				res, err = WelchTTest(groups[c], base)
			} else {
				res, err = StudentTTest(groups[c], base)
			}
			if err == nil {
				err = undefined(res)
			}
			if err != nil {
				rep.Skipped = append(rep.Skipped, fmt.Sprintf("%s %s vs %s: %v", metric, c, opts.Baseline, err))
				continue
			}
			rep.Comparisons = append(rep.Comparisons, Comparison{
				Metric:    metric,
				Condition: c,
				Baseline:  opts.Baseline,
				MeanDiff:  mean(groups[c]) - mean(base),
				N:         len(groups[c]) + len(base),
				Test:      res,
			})
		}
	}

	rep.adjust()
	return rep, nil
}

// ComparePaired computes, per unit present in both conditions, the difference
// between the condition's mean and the baseline's mean, and tests those
// differences against zero. opts.Unit must be idea, reviewer or topic.
func ComparePaired(reviews []Review, opts CompareOptions) (*Report, error) {
	opts = opts.withDefaults()
	if opts.Unit == UnitReview {
		return nil, fmt.Errorf("paired comparison needs an idea, reviewer or topic unit: %w", internalerr.ErrInvalidInput)
	}
	if _, err := ParseUnit(string(opts.Unit)); err != nil {
		return nil, err
	}
	rep := &Report{Unit: opts.Unit, Correction: opts.Correction, Test: "paired"}

	conds := Conditions(reviews)
	for _, metric := range opts.Metrics {
		base := unitMeans(reviews, metric, opts.Baseline, opts.Unit)
		for _, c := range conds {
			if c == opts.Baseline {
				continue
			}
			treat := unitMeans(reviews, metric, c, opts.Unit)
			var keys []string
			for k := range treat {
				if _, ok := base[k]; ok {
					keys = append(keys, k)
				}
			}
			sort.Strings(keys)
			diffs := make([]float64, len(keys))
			for i, k := range keys {
				diffs[i] = treat[k] - base[k]
			}
			rep.Descriptives = append(rep.Descriptives, ConditionSummary{
				Metric:    metric,
				Condition: c + "-" + opts.Baseline,
				Summary:   Describe(diffs),
			})

			res, err := OneSampleTTest(diffs, 0)
			if err == nil {
				err = undefined(res)
			}
			if err != nil {
				rep.Skipped = append(rep.Skipped, fmt.Sprintf("%s %s vs %s: %v", metric, c, opts.Baseline, err))
				continue
			}
			rep.Comparisons = append(rep.Comparisons, Comparison{
				Metric:    metric,
				Condition: c,
				Baseline:  opts.Baseline,
				MeanDiff:  mean(diffs),
				N:         len(diffs),
				Test:      res,
			})
		}
	}

	rep.adjust()
	return rep, nil
}

func (r *Report) adjust() {
	p := make([]float64, len(r.Comparisons))
	for i, c := range r.Comparisons {
		p[i] = c.Test.P
	}
	adj := Correct(p, r.Correction)
	for i := range r.Comparisons {
		r.Comparisons[i].PAdjusted = adj[i]
		r.Comparisons[i].Significant = !math.IsNaN(adj[i]) && adj[i] < Alpha
	}
}

// undefined reports a test whose statistic is 0/0, as happens when both
// samples are constant with equal means.
func undefined(res TestResult) error {
	if math.IsNaN(res.P) {
		return fmt.Errorf("zero variance and zero mean difference, test undefined: %w", internalerr.ErrInvalidInput)
	}
	return nil
}

func sortedKeys(m map[string][]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
