package cluster

import (
	"fmt"
	"math"
	"strings"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
	"github.com/cognicore/ideascope/pkg/ideascope/similarity"
)

// Linkage selects how the distance between two clusters is derived from
// member distances.
type Linkage int

const (
	Average Linkage = iota
	Complete
	Single
)

func (l Linkage) String() string {
	switch l {
	case Complete:
		return "complete"
	case Single:
		return "single"
	default:
		return "average"
	}
}

// ParseLinkage maps "average", "complete" or "single" to a Linkage.
func ParseLinkage(s string) (Linkage, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "average":
		return Average, nil
	case "complete":
		return Complete, nil
	case "single":
		return Single, nil
	default:
		return Average, fmt.Errorf("unknown linkage %q: %w", s, internalerr.ErrInvalidInput)
	}
}

// Options controls Agglomerative.
type Options struct {
	// Clusters is the number of clusters to stop at.
	Clusters int
	// DistanceThreshold, when > 0, stops merging once the closest pair of
	// clusters is at least this far apart. Clusters may then be 0.
	DistanceThreshold float64
	Linkage           Linkage
}

// Assignment maps idea index to cluster label.
type Assignment []int

// K returns the number of distinct labels.
func (a Assignment) K() int {
	k := 0
	for _, l := range a {
		if l+1 > k {
			k = l + 1
		}
	}
	return k
}

// Members returns the indices assigned to label, ascending.
func (a Assignment) Members(label int) []int {
	var out []int
	for i, l := range a {
		if l == label {
			out = append(out, i)
		}
	}
	return out
}

// Labels returns 0..K-1.
func (a Assignment) Labels() []int {
	out := make([]int, a.K())
	for i := range out {
		out[i] = i
	}
	return out
}

// Agglomerative clusters the items of m bottom-up using distance 1 - similarity.
// Each step merges the closest pair of clusters (ties go to the lowest index
// pair). Labels are numbered in order of each cluster's first member.
func Agglomerative(m *similarity.Matrix, opts Options) (Assignment, error) {
	n := m.N()
	if n == 0 {
		return Assignment{}, nil
	}
	if opts.DistanceThreshold <= 0 && (opts.Clusters <= 0 || opts.Clusters > n) {
		return nil, fmt.Errorf("clusters must be in [1,%d], got %d: %w", n, opts.Clusters, internalerr.ErrInvalidInput)
	}
	target := opts.Clusters
	if target <= 0 {
		target = 1
	}
	if target > n {
		target = n
	}

	// dist holds inter-cluster distances indexed by the cluster's lowest
	// surviving slot; size[i] == 0 marks a merged-away slot.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
		for j := range dist[i] {
			dist[i][j] = 1 - m.At(i, j)
		}
	}
	size := make([]int, n)
	parent := make([]int, n)
	for i := range size {
		size[i] = 1
		parent[i] = i
	}

	active := n
	for active > target {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if size[i] == 0 {
				continue
			}
			for j := i + 1; j < n; j++ {
				if size[j] == 0 {
					continue
				}
				if dist[i][j] < best {
					best, bi, bj = dist[i][j], i, j
				}
			}
		}
		if bi < 0 {
			break
		}
		if opts.DistanceThreshold > 0 && best >= opts.DistanceThreshold {
			break
		}

		// merge bj into bi, updating distances with the Lance-Williams rule
		for k := 0; k < n; k++ {
			if size[k] == 0 || k == bi || k == bj {
				continue
			}
			var d float64
			switch opts.Linkage {
			case Complete:
				d = math.Max(dist[bi][k], dist[bj][k])
			case Single:
				d = math.Min(dist[bi][k], dist[bj][k])
			default:
				d = (float64(size[bi])*dist[bi][k] + float64(size[bj])*dist[bj][k]) / float64(size[bi]+size[bj])
			}
			dist[bi][k] = d
			dist[k][bi] = d
		}
		size[bi] += size[bj]
		size[bj] = 0
		for k := range parent {
			if parent[k] == bj {
				parent[k] = bi
			}
		}
		active--
	}

	labels := make(map[int]int)
	out := make(Assignment, n)
	for i := 0; i < n; i++ {
		root := parent[i]
		l, ok := labels[root]
		if !ok {
			l = len(labels)
			labels[root] = l
		}
		out[i] = l
	}
	return out, nil
}
