package cluster

import (
	"fmt"
	"sort"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
	"github.com/cognicore/ideascope/pkg/ideascope/similarity"
)

// Neighbor is an idea index with its similarity to a reference idea.
type Neighbor struct {
	Index int     `json:"index"`
	Sim   float64 `json:"sim"`
}

// Slate is one cluster's representative and its nearest neighbours.
type Slate struct {
	Label          int        `json:"label"`
	Size           int        `json:"size"`
	Representative int        `json:"representative"`
	MeanSim        float64    `json:"mean_sim"`
	Neighbors      []Neighbor `json:"neighbors"`
}

// MeanInClusterSim returns, for each member of label, its mean similarity to
// the other members. A singleton's mean is 1.
func MeanInClusterSim(m *similarity.Matrix, a Assignment, label int) (map[int]float64, error) {
	if len(a) != m.N() {
		return nil, fmt.Errorf("assignment has %d entries for %d items: %w", len(a), m.N(), internalerr.ErrSizeMismatch)
	}
	members := a.Members(label)
	if len(members) == 0 {
		return nil, fmt.Errorf("cluster %d: %w", label, internalerr.ErrNotFound)
	}
	out := make(map[int]float64, len(members))
	if len(members) == 1 {
		out[members[0]] = 1
		return out, nil
	}
	for _, i := range members {
		var sum float64
		for _, j := range members {
			if i != j {
				sum += m.At(i, j)
			}
		}
		out[i] = sum / float64(len(members)-1)
	}
	return out, nil
}

// Representative returns the member of label with the highest mean similarity
// to the rest of its cluster. Ties go to the lowest index.
func Representative(m *similarity.Matrix, a Assignment, label int) (int, error) {
	means, err := MeanInClusterSim(m, a, label)
	if err != nil {
		return -1, err
	}
	best, bestSim := -1, 0.0
	for _, i := range a.Members(label) {
		if best < 0 || means[i] > bestSim {
			best, bestSim = i, means[i]
		}
	}
	return best, nil
}

// NearestNeighbors ranks every item by similarity to idx, descending, and
// returns the top n. idx itself is included since self-similarity is maximal.
func NearestNeighbors(m *similarity.Matrix, idx, n int) ([]Neighbor, error) {
	if idx < 0 || idx >= m.N() {
		return nil, fmt.Errorf("index %d out of range [0,%d): %w", idx, m.N(), internalerr.ErrInvalidInput)
	}
	row := m.Row(idx)
	all := make([]Neighbor, len(row))
	for j, s := range row {
		all[j] = Neighbor{Index: j, Sim: s}
	}
	sort.SliceStable(all, func(x, y int) bool {
		return all[x].Sim > all[y].Sim
	})
	if n >= 0 && n < len(all) {
		all = all[:n]
	}
	return all, nil
}

// Slates builds one Slate per cluster label, in label order.
func Slates(m *similarity.Matrix, a Assignment, topN int) ([]Slate, error) {
	out := make([]Slate, 0, a.K())
	for _, label := range a.Labels() {
		rep, err := Representative(m, a, label)
		if err != nil {
			return nil, err
		}
		means, err := MeanInClusterSim(m, a, label)
		if err != nil {
			return nil, err
		}
		nn, err := NearestNeighbors(m, rep, topN)
		if err != nil {
			return nil, err
		}
		out = append(out, Slate{
			Label:          label,
			Size:           len(a.Members(label)),
			Representative: rep,
			MeanSim:        means[rep],
			Neighbors:      nn,
		})
	}
	return out, nil
}
