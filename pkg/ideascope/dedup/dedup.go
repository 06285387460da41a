package dedup

import (
	"fmt"

	"github.com/cognicore/ideascope/pkg/ideascope/idea"
	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
	"github.com/cognicore/ideascope/pkg/ideascope/similarity"
)

// Result is the outcome of one deduplication pass.
type Result struct {
	// Kept holds the surviving ideas in original order.
	Kept []idea.Idea
	// KeptIndex holds the original index of each kept idea.
	KeptIndex []int
	// DuplicateOf maps a filtered index to the kept index that filtered it.
	DuplicateOf map[int]int

	Original int
	Final    int
}

// Summary reports original vs final idea counts.
func (r *Result) Summary() string {
	return fmt.Sprintf("original ideas: %d, final ideas: %d, filtered: %d", r.Original, r.Final, r.Original-r.Final)
}

// Cache returns the kept ideas as a cache carrying the given topic.
func (r *Result) Cache(topic string) *idea.Cache {
	return &idea.Cache{TopicDescription: topic, Ideas: r.Kept}
}

// Deduplicate walks ideas left to right. An idea not yet filtered is kept, and
// every later idea j with sim[i][j] > Threshold (or, with MatchTitles, an
// identical title) is filtered. Earlier ideas always win, so the result depends
// on input order. The matrix must be aligned with ideas by index.
func Deduplicate(ideas []idea.Idea, m *similarity.Matrix, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", internalerr.ErrInvalidConfig, err)
	}
	if m.N() != len(ideas) {
		return nil, fmt.Errorf("similarity matrix has %d rows for %d ideas: %w", m.N(), len(ideas), internalerr.ErrSizeMismatch)
	}

	res := &Result{
		DuplicateOf: make(map[int]int),
		Original:    len(ideas),
	}
	filtered := make(map[int]struct{})

	for i := range ideas {
		if _, ok := filtered[i]; ok {
			continue
		}
		res.Kept = append(res.Kept, ideas[i])
		res.KeptIndex = append(res.KeptIndex, i)

		for j := i + 1; j < len(ideas); j++ {
			if _, ok := filtered[j]; ok {
				continue
			}
			if m.At(i, j) > cfg.Threshold || (cfg.MatchTitles && ideas[i].Title == ideas[j].Title) {
				filtered[j] = struct{}{}
				res.DuplicateOf[j] = i
			}
		}
	}

	res.Final = len(res.Kept)
	return res, nil
}

// SubMatrix restricts m to the given indices, in order. It is used to re-check a
// deduplicated set against the similarity computed for the full set.
func SubMatrix(m *similarity.Matrix, idx []int) (*similarity.Matrix, error) {
	rows := make([][]float64, len(idx))
	for a, i := range idx {
		if i < 0 || i >= m.N() {
			return nil, fmt.Errorf("index %d out of range [0,%d): %w", i, m.N(), internalerr.ErrInvalidInput)
		}
		rows[a] = make([]float64, len(idx))
		for b, j := range idx {
			rows[a][b] = m.At(i, j)
		}
	}
	return similarity.FromRows(rows)
}
