package llm

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// DefaultBatchSize is the number of texts sent per embeddings request.
const DefaultBatchSize = 64

// Embedder turns texts into vectors through an OpenAI-compatible
// embeddings endpoint.
type Embedder struct {
	client    *openai.Client
	model     string
	BatchSize int
}

// NewEmbedder uses cfg.EmbeddingModel, falling back to text-embedding-3-small.
func NewEmbedder(cfg Config) *Embedder {
	model := cfg.EmbeddingModel
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &Embedder{client: newOpenAIClient(cfg), model: model, BatchSize: DefaultBatchSize}
}

// Embed returns one vector per text, in input order.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	size := e.BatchSize
	if size <= 0 {
		size = DefaultBatchSize
	}
	out := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += size {
		end := min(start+size, len(texts))
		resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: texts[start:end],
			Model: openai.EmbeddingModel(e.model),
		})
		if err != nil {
			return nil, fmt.Errorf("embed batch %d-%d: %w", start, end, err)
		}
		if len(resp.Data) != end-start {
			return nil, fmt.Errorf("embed batch %d-%d: got %d vectors", start, end, len(resp.Data))
		}
		for i, d := range resp.Data {
			idx := i
			if d.Index >= 0 && d.Index < end-start {
				idx = d.Index
			}
			out[start+idx] = d.Embedding
		}
	}
	return out, nil
}
