package cluster

import (
	"errors"
	"testing"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
	"github.com/cognicore/ideascope/pkg/ideascope/similarity"
)

// two tight groups {0,1,2} and {3,4}
func groupedMatrix(t *testing.T) *similarity.Matrix {
	t.Helper()
	m, err := similarity.FromRows([][]float64{
		{1, 0.9, 0.8, 0.1, 0.2},
		{0.9, 1, 0.85, 0.15, 0.1},
		{0.8, 0.85, 1, 0.2, 0.1},
		{0.1, 0.15, 0.2, 1, 0.9},
		{0.2, 0.1, 0.1, 0.9, 1},
	})
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	return m
}

func TestAgglomerativeTwoGroups(t *testing.T) {
	m := groupedMatrix(t)
	for _, link := range []Linkage{Average, Complete, Single} {
		t.Run(link.String(), func(t *testing.T) {
			a, err := Agglomerative(m, Options{Clusters: 2, Linkage: link})
			if err != nil {
				t.Fatalf("Agglomerative: %v", err)
			}
			want := Assignment{0, 0, 0, 1, 1}
			for i := range want {
				if a[i] != want[i] {
					t.Fatalf("assignment = %v, want %v", a, want)
				}
			}
			if a.K() != 2 {
				t.Errorf("K = %d, want 2", a.K())
			}
		})
	}
}

func TestAgglomerativeBounds(t *testing.T) {
	m := groupedMatrix(t)

	a, err := Agglomerative(m, Options{Clusters: 5})
	if err != nil {
		t.Fatalf("Agglomerative: %v", err)
	}
	if a.K() != 5 {
		t.Errorf("n clusters over n items should leave singletons, K = %d", a.K())
	}

	a, err = Agglomerative(m, Options{Clusters: 1})
	if err != nil {
		t.Fatalf("Agglomerative: %v", err)
	}
	if a.K() != 1 {
		t.Errorf("K = %d, want 1", a.K())
	}

	for _, k := range []int{0, 6} {
		if _, err := Agglomerative(m, Options{Clusters: k}); !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("clusters=%d: expected ErrInvalidInput, got %v", k, err)
		}
	}

	empty, err := Agglomerative(similarity.NewMatrix(0), Options{Clusters: 3})
	if err != nil || len(empty) != 0 {
		t.Errorf("empty matrix: %v %v", empty, err)
	}
}

func TestAgglomerativeDistanceThreshold(t *testing.T) {
	m := groupedMatrix(t)
	a, err := Agglomerative(m, Options{DistanceThreshold: 0.5})
	if err != nil {
		t.Fatalf("Agglomerative: %v", err)
	}
	if a.K() != 2 {
		t.Errorf("K = %d, want 2 (groups are > 0.5 apart)", a.K())
	}
}

func TestParseLinkage(t *testing.T) {
	for in, want := range map[string]Linkage{"": Average, "average": Average, "Complete": Complete, "single": Single} {
		got, err := ParseLinkage(in)
		if err != nil || got != want {
			t.Errorf("ParseLinkage(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseLinkage("ward"); err == nil {
		t.Error("expected error for unsupported linkage")
	}
}

func TestRepresentativeArgMax(t *testing.T) {
	m := groupedMatrix(t)
	a := Assignment{0, 0, 0, 1, 1}

	rep, err := Representative(m, a, 0)
	if err != nil {
		t.Fatalf("Representative: %v", err)
	}
	// means: 0 -> .85, 1 -> .875, 2 -> .825
	if rep != 1 {
		t.Errorf("representative = %d, want 1", rep)
	}

	means, err := MeanInClusterSim(m, a, 0)
	if err != nil {
		t.Fatalf("MeanInClusterSim: %v", err)
	}
	for i, v := range means {
		if v > means[rep] {
			t.Errorf("member %d has higher mean %f than representative %f", i, v, means[rep])
		}
	}

	// ties resolve to the lowest index
	rep, err = Representative(m, a, 1)
	if err != nil {
		t.Fatalf("Representative: %v", err)
	}
	if rep != 3 {
		t.Errorf("tied representative = %d, want 3", rep)
	}
}

func TestRepresentativeErrors(t *testing.T) {
	m := groupedMatrix(t)
	if _, err := Representative(m, Assignment{0, 0, 0, 1, 1}, 7); !errors.Is(err, internalerr.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := Representative(m, Assignment{0, 0}, 0); !errors.Is(err, internalerr.ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}

	rep, err := Representative(m, Assignment{0, 0, 0, 0, 1}, 1)
	if err != nil || rep != 4 {
		t.Errorf("singleton representative = %d, %v", rep, err)
	}
}

func TestNearestNeighbors(t *testing.T) {
	m := groupedMatrix(t)

	nn, err := NearestNeighbors(m, 1, 3)
	if err != nil {
		t.Fatalf("NearestNeighbors: %v", err)
	}
	want := []int{1, 0, 2}
	if len(nn) != len(want) {
		t.Fatalf("got %d neighbours, want %d", len(nn), len(want))
	}
	for i := range want {
		if nn[i].Index != want[i] {
			t.Errorf("neighbour %d = %d, want %d (%v)", i, nn[i].Index, want[i], nn)
		}
	}
	if nn[0].Sim != 1 {
		t.Errorf("self similarity = %f", nn[0].Sim)
	}

	all, err := NearestNeighbors(m, 0, 100)
	if err != nil || len(all) != 5 {
		t.Errorf("top-n larger than N should return all: %d %v", len(all), err)
	}

	if _, err := NearestNeighbors(m, 9, 1); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSlates(t *testing.T) {
	m := groupedMatrix(t)
	a, err := Agglomerative(m, Options{Clusters: 2})
	if err != nil {
		t.Fatalf("Agglomerative: %v", err)
	}
	slates, err := Slates(m, a, 2)
	if err != nil {
		t.Fatalf("Slates: %v", err)
	}
	if len(slates) != 2 {
		t.Fatalf("got %d slates", len(slates))
	}
	if slates[0].Representative != 1 || slates[0].Size != 3 {
		t.Errorf("slate 0 = %+v", slates[0])
	}
	if len(slates[1].Neighbors) != 2 || slates[1].Neighbors[0].Index != slates[1].Representative {
		t.Errorf("slate 1 = %+v", slates[1])
	}
}
