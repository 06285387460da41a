package similarity

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
	"github.com/cognicore/ideascope/pkg/ideascope/textnorm"
)

// Matrix is a dense, symmetric N×N similarity matrix with a unit diagonal.
// It is built once per run and treated as read-only afterwards.
type Matrix struct {
	d *mat.Dense // nil when N == 0
}

// NewMatrix returns an n×n matrix with 1.0 on the diagonal and 0 elsewhere.
func NewMatrix(n int) *Matrix {
	if n <= 0 {
		return &Matrix{}
	}
	d := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		d.Set(i, i, 1)
	}
	return &Matrix{d: d}
}

// FromRows builds a matrix from explicit rows. Rows must form a square matrix.
func FromRows(rows [][]float64) (*Matrix, error) {
	n := len(rows)
	if n == 0 {
		return &Matrix{}, nil
	}
	data := make([]float64, 0, n*n)
	for i, r := range rows {
		if len(r) != n {
			return nil, fmt.Errorf("row %d has %d columns, want %d: %w", i, len(r), n, internalerr.ErrInvalidInput)
		}
		data = append(data, r...)
	}
	return &Matrix{d: mat.NewDense(n, n, data)}, nil
}

// N returns the number of rows (and columns).
func (m *Matrix) N() int {
	if m == nil || m.d == nil {
		return 0
	}
	r, _ := m.d.Dims()
	return r
}

// At returns the similarity between items i and j.
func (m *Matrix) At(i, j int) float64 {
	return m.d.At(i, j)
}

// Row returns a copy of row i.
func (m *Matrix) Row(i int) []float64 {
	return mat.Row(nil, i, m.d)
}

// setPair writes v to (i,j) and (j,i).
func (m *Matrix) setPair(i, j int, v float64) {
	m.d.Set(i, j, v)
	m.d.Set(j, i, v)
}

// Symmetric reports whether |m[i][j] - m[j][i]| <= tol for all pairs.
func (m *Matrix) Symmetric(tol float64) bool {
	n := m.N()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(m.d.At(i, j)-m.d.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

// Embedder turns texts into embedding vectors, one per input, in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// BuildJaccard computes pairwise Jaccard similarity over normalized token sets.
// Rows are filled concurrently by up to workers goroutines (0 = GOMAXPROCS).
func BuildJaccard(ctx context.Context, texts []string, norm *textnorm.Normalizer, workers int) (*Matrix, error) {
	sets := make([]textnorm.TokenSet, len(texts))
	for i, t := range texts {
		sets[i] = norm.Tokens(t)
	}
	return build(ctx, len(texts), workers, func(i, j int) (float64, error) {
		return Jaccard(sets[i], sets[j]), nil
	})
}

// BuildEmbedding computes pairwise cosine similarity between embeddings of texts.
// Negative cosine values are clamped to 0 so the matrix stays in [0,1].
func BuildEmbedding(ctx context.Context, texts []string, emb Embedder, workers int) (*Matrix, error) {
	if len(texts) == 0 {
		return &Matrix{}, nil
	}
	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != len(texts) {
		return nil, fmt.Errorf("embed: got %d vectors for %d texts: %w", len(vecs), len(texts), internalerr.ErrSizeMismatch)
	}
	return build(ctx, len(texts), workers, func(i, j int) (float64, error) {
		c, err := Cosine(vecs[i], vecs[j])
		if err != nil {
			return 0, fmt.Errorf("pair (%d,%d): %w", i, j, err)
		}
		return clamp01(c), nil
	})
}

// build fills the upper triangle row by row; each row task owns the cells
// (i,j) and (j,i) for j > i, so tasks never write the same cell.
func build(ctx context.Context, n, workers int, score func(i, j int) (float64, error)) (*Matrix, error) {
	m := NewMatrix(n)
	if n == 0 {
		return m, nil
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			for j := i + 1; j < n; j++ {
				v, err := score(i, j)
				if err != nil {
					return err
				}
				m.setPair(i, j, v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return m, nil
}

// Save writes m to path using gonum's binary dense-matrix encoding.
// An empty matrix is written as an empty file.
func Save(path string, m *Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	if m.N() == 0 {
		return nil
	}
	w := bufio.NewWriter(f)
	if _, err := m.d.MarshalBinaryTo(w); err != nil {
		return fmt.Errorf("encode matrix: %w", err)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return f.Close()
}

// Load reads a matrix written by Save.
func Load(path string) (*Matrix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return &Matrix{}, nil
	}

	var d mat.Dense
	if _, err := d.UnmarshalBinaryFrom(bufio.NewReader(f)); err != nil {
		return nil, fmt.Errorf("decode matrix %s: %w", path, err)
	}
	r, c := d.Dims()
	if r != c {
		return nil, fmt.Errorf("matrix %s is %dx%d, want square: %w", path, r, c, internalerr.ErrInvalidInput)
	}
	return &Matrix{d: &d}, nil
}
