package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
)

// Experimental conditions.
const (
	ConditionAI       = "AI"
	ConditionHuman    = "Human"
	ConditionAIRerank = "AI_Rerank"
)

// Score metric names as they appear in review datasets.
const (
	MetricOverall       = "overall_score"
	MetricNovelty       = "novelty_score"
	MetricFeasibility   = "feasibility_score"
	MetricEffectiveness = "effectiveness_score"
	MetricExcitement    = "excitement_score"
	MetricSoundness     = "soundness_score"
)

// Metrics lists every known score metric.
var Metrics = []string{
	MetricOverall, MetricNovelty, MetricFeasibility,
	MetricEffectiveness, MetricExcitement, MetricSoundness,
}

// Review is one (reviewer, idea, condition) row. Score fields are optional;
// which ones are present depends on the dataset.
type Review struct {
	IdeaID    string `json:"idea_id"`
	Condition string `json:"condition"`
	Name      string `json:"name"`
	Topic     string `json:"topic"`

	OverallScore       *float64 `json:"overall_score,omitempty"`
	NoveltyScore       *float64 `json:"novelty_score,omitempty"`
	FeasibilityScore   *float64 `json:"feasibility_score,omitempty"`
	EffectivenessScore *float64 `json:"effectiveness_score,omitempty"`
	ExcitementScore    *float64 `json:"excitement_score,omitempty"`
	SoundnessScore     *float64 `json:"soundness_score,omitempty"`
}

// Score returns the named metric and whether it is present.
func (r Review) Score(metric string) (float64, bool) {
	var p *float64
	switch metric {
	case MetricOverall:
		p = r.OverallScore
	case MetricNovelty:
		p = r.NoveltyScore
	case MetricFeasibility:
		p = r.FeasibilityScore
	case MetricEffectiveness:
		p = r.EffectivenessScore
	case MetricExcitement:
		p = r.ExcitementScore
	case MetricSoundness:
		p = r.SoundnessScore
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// LoadReviews reads a JSON array of review records.
func LoadReviews(path string) ([]Review, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}
	var reviews []Review
	if err := json.Unmarshal(data, &reviews); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return reviews, nil
}

// Unit is the level at which scores are aggregated before testing.
type Unit string

const (
	UnitReview   Unit = "review"
	UnitIdea     Unit = "idea"
	UnitReviewer Unit = "reviewer"
	UnitTopic    Unit = "topic"
)

// ParseUnit validates a unit name.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(s); u {
	case UnitReview, UnitIdea, UnitReviewer, UnitTopic:
		return u, nil
	case "":
		return UnitReview, nil
	default:
		return "", fmt.Errorf("unknown unit %q: %w", s, internalerr.ErrInvalidInput)
	}
}

func (u Unit) key(r Review) string {
	switch u {
	case UnitIdea:
		return r.IdeaID
	case UnitReviewer:
		return r.Name
	case UnitTopic:
		return r.Topic
	default:
		return ""
	}
}

// GroupByCondition returns, per condition, the metric values aggregated at the
// given unit. For UnitReview each review is one sample; otherwise each unit
// contributes the mean of its reviews. Units are visited in sorted key order.
func GroupByCondition(reviews []Review, metric string, unit Unit) map[string][]float64 {
	out := make(map[string][]float64)
	if unit == UnitReview {
		for _, r := range reviews {
			if v, ok := r.Score(metric); ok {
				out[r.Condition] = append(out[r.Condition], v)
			}
		}
		return out
	}

	sums := make(map[string]map[string][]float64)
	for _, r := range reviews {
		v, ok := r.Score(metric)
		if !ok {
			continue
		}
		if sums[r.Condition] == nil {
			sums[r.Condition] = make(map[string][]float64)
		}
		k := unit.key(r)
		sums[r.Condition][k] = append(sums[r.Condition][k], v)
	}
	for cond, byUnit := range sums {
		keys := make([]string, 0, len(byUnit))
		for k := range byUnit {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			out[cond] = append(out[cond], mean(byUnit[k]))
		}
	}
	return out
}

// unitMeans returns metric means per unit key for one condition.
func unitMeans(reviews []Review, metric, condition string, unit Unit) map[string]float64 {
	vals := make(map[string][]float64)
	for _, r := range reviews {
		if r.Condition != condition {
			continue
		}
		if v, ok := r.Score(metric); ok {
			k := unit.key(r)
			vals[k] = append(vals[k], v)
		}
	}
	out := make(map[string]float64, len(vals))
	for k, xs := range vals {
		out[k] = mean(xs)
	}
	return out
}

// Conditions returns the distinct conditions in reviews, sorted.
func Conditions(reviews []Review) []string {
	seen := make(map[string]struct{})
	for _, r := range reviews {
		seen[r.Condition] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
