// Package pipeline wires configuration, caches and similarity backends for
// the dedup and clustering binaries.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"

	"github.com/joho/godotenv"

	"github.com/cognicore/ideascope/internal/llm"
	"github.com/cognicore/ideascope/pkg/ideascope/config"
	"github.com/cognicore/ideascope/pkg/ideascope/idea"
	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
	"github.com/cognicore/ideascope/pkg/ideascope/similarity"
)

// LoadEnv reads .env from the working directory when present.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("Warning: .env: %v", err)
	}
}

// LoadConfig returns the pipeline in path, or the defaults when path is empty.
func LoadConfig(path string) (config.Pipeline, error) {
	if path == "" {
		return config.DefaultPipeline(), nil
	}
	p, err := config.LoadPipeline(path)
	if err != nil {
		return config.Pipeline{}, err
	}
	return *p, nil
}

// EmbedderFunc builds the similarity.Embedder for p.
type EmbedderFunc func(p config.Pipeline) similarity.Embedder

// DefaultEmbedder uses the OpenAI-compatible embeddings endpoint configured in
// the environment.
func DefaultEmbedder(p config.Pipeline) similarity.Embedder {
	cfg := llm.ConfigFromEnv(p.EmbeddingModel)
	cfg.EmbeddingModel = p.EmbeddingModel
	return llm.NewEmbedder(cfg)
}

// Matrix returns the similarity matrix for c. A cached matrix next to the idea
// cache is reused unless rebuild is set; otherwise the matrix is computed and
// written back. A cached matrix whose size differs from the idea count is an
// error wrapping internalerr.ErrSizeMismatch.
func Matrix(ctx context.Context, c *idea.Cache, p config.Pipeline, rebuild bool, embed EmbedderFunc) (*similarity.Matrix, error) {
	path := idea.MatrixPath(p.CacheDir, p.CacheName)

	if !rebuild {
		m, err := similarity.Load(path)
		switch {
		case err == nil:
			if m.N() != len(c.Ideas) {
				return nil, fmt.Errorf("cached matrix %s has %d rows for %d ideas (rerun with --rebuild): %w",
					path, m.N(), len(c.Ideas), internalerr.ErrSizeMismatch)
			}
			log.Printf("Loaded similarity matrix from %s", path)
			return m, nil
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	texts := c.Texts()
	var (
		m   *similarity.Matrix
		err error
	)
	switch p.Similarity {
	case config.SimilarityEmbedding:
		if embed == nil {
			embed = DefaultEmbedder
		}
		m, err = similarity.BuildEmbedding(ctx, texts, embed(p), p.Workers)
	default:
		loader := config.Loader{StoplistPath: p.Stoplist}
		comp, lerr := loader.Load()
		if lerr != nil {
			return nil, lerr
		}
		m, err = similarity.BuildJaccard(ctx, texts, comp.Normalizer, p.Workers)
	}
	if err != nil {
		return nil, fmt.Errorf("build %s matrix: %w", p.Similarity, err)
	}

	if err := similarity.Save(path, m); err != nil {
		return nil, err
	}
	log.Printf("Computed %s similarity for %d ideas, cached at %s", p.Similarity, len(texts), path)
	return m, nil
}
