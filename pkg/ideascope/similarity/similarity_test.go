package similarity

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
	"github.com/cognicore/ideascope/pkg/ideascope/textnorm"
)

func TestJaccardProperties(t *testing.T) {
	a := textnorm.NewTokenSet("retrieval", "prompting", "factuality")
	b := textnorm.NewTokenSet("retrieval", "decoding")
	c := textnorm.NewTokenSet("robotics", "control")
	empty := textnorm.NewTokenSet()

	if got := Jaccard(a, a); got != 1 {
		t.Errorf("sim(A,A) = %f, want 1", got)
	}
	if got := Jaccard(a, c); got != 0 {
		t.Errorf("sim(disjoint) = %f, want 0", got)
	}
	if got := Jaccard(empty, empty); got != 0 || math.IsNaN(got) {
		t.Errorf("sim(∅,∅) = %f, want 0", got)
	}
	if got := Jaccard(a, empty); got != 0 {
		t.Errorf("sim(A,∅) = %f, want 0", got)
	}

	// |a∩b| = 1, |a∪b| = 4
	if got := Jaccard(a, b); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("sim(A,B) = %f, want 0.25", got)
	}

	sets := []textnorm.TokenSet{a, b, c, empty}
	for _, x := range sets {
		for _, y := range sets {
			if Jaccard(x, y) != Jaccard(y, x) {
				t.Errorf("Jaccard not symmetric for %v, %v", x.Sorted(), y.Sorted())
			}
			if v := Jaccard(x, y); v < 0 || v > 1 {
				t.Errorf("Jaccard out of range: %f", v)
			}
		}
	}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Cosine: %v", err)
			}
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("Cosine = %f, want %f", got, tt.want)
			}
		})
	}

	if _, err := Cosine([]float32{1}, []float32{1, 2}); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for dimension mismatch, got %v", err)
	}
}

func TestBuildJaccard(t *testing.T) {
	texts := []string{
		"Retrieval augmented prompting for factuality",
		"Prompting with retrieval for better factuality",
		"Robot control with reinforcement learning",
	}
	m, err := BuildJaccard(context.Background(), texts, textnorm.Default(), 2)
	if err != nil {
		t.Fatalf("BuildJaccard: %v", err)
	}
	if m.N() != 3 {
		t.Fatalf("N = %d, want 3", m.N())
	}
	for i := 0; i < 3; i++ {
		if m.At(i, i) != 1 {
			t.Errorf("diagonal (%d,%d) = %f, want 1", i, i, m.At(i, i))
		}
	}
	if !m.Symmetric(0) {
		t.Error("matrix should be symmetric")
	}
	if m.At(0, 1) <= m.At(0, 2) {
		t.Errorf("related ideas should be closer: %f vs %f", m.At(0, 1), m.At(0, 2))
	}
}

func TestBuildJaccardEmpty(t *testing.T) {
	m, err := BuildJaccard(context.Background(), nil, textnorm.Default(), 0)
	if err != nil {
		t.Fatalf("BuildJaccard: %v", err)
	}
	if m.N() != 0 {
		t.Errorf("N = %d, want 0", m.N())
	}
}

func TestBuildJaccardCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := BuildJaccard(ctx, []string{"a b", "b c", "c d"}, textnorm.Default(), 1)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type fakeEmbedder struct {
	vecs [][]float32
	err  error
}

func (f fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	return f.vecs, f.err
}

func TestBuildEmbedding(t *testing.T) {
	emb := fakeEmbedder{vecs: [][]float32{{1, 0}, {1, 1}, {-1, 0}}}
	m, err := BuildEmbedding(context.Background(), []string{"a", "b", "c"}, emb, 0)
	if err != nil {
		t.Fatalf("BuildEmbedding: %v", err)
	}
	if math.Abs(m.At(0, 1)-1/math.Sqrt2) > 1e-6 {
		t.Errorf("At(0,1) = %f, want %f", m.At(0, 1), 1/math.Sqrt2)
	}
	if m.At(0, 2) != 0 {
		t.Errorf("negative cosine should clamp to 0, got %f", m.At(0, 2))
	}
	if !m.Symmetric(1e-12) {
		t.Error("matrix should be symmetric")
	}
}

func TestBuildEmbeddingCountMismatch(t *testing.T) {
	emb := fakeEmbedder{vecs: [][]float32{{1, 0}}}
	_, err := BuildEmbedding(context.Background(), []string{"a", "b"}, emb, 0)
	if !errors.Is(err, internalerr.ErrSizeMismatch) {
		t.Errorf("expected ErrSizeMismatch, got %v", err)
	}
}

func TestFromRowsRejectsRagged(t *testing.T) {
	_, err := FromRows([][]float64{{1, 0.5}, {0.5}})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveLoadCache(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topic_similarity.bin")

	m, err := FromRows([][]float64{
		{1, 0.9, 0.1},
		{0.9, 1, 0.2},
		{0.1, 0.2, 1},
	})
	if err != nil {
		t.Fatalf("FromRows: %v", err)
	}
	if err := Save(path, m); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.N() != 3 {
		t.Fatalf("N = %d, want 3", loaded.N())
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if loaded.At(i, j) != m.At(i, j) {
				t.Errorf("(%d,%d) = %f, want %f", i, j, loaded.At(i, j), m.At(i, j))
			}
		}
	}
	row := loaded.Row(1)
	if len(row) != 3 || row[0] != 0.9 {
		t.Errorf("Row(1) = %v", row)
	}
}

func TestSaveLoadEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.bin")
	if err := Save(path, NewMatrix(0)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.N() != 0 {
		t.Errorf("N = %d, want 0", m.N())
	}
}

func TestLoadGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.bin")
	if err := os.WriteFile(path, []byte("not a matrix"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected decode error")
	}
}
