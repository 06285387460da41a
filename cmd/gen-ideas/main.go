package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"time"

	"github.com/cognicore/ideascope/internal/ideagen"
	"github.com/cognicore/ideascope/internal/llm"
	"github.com/cognicore/ideascope/internal/pipeline"
	"github.com/cognicore/ideascope/pkg/ideascope/idea"
)

func main() {
	var (
		topic       = flag.String("topic", "", "Topic description (required)")
		n           = flag.Int("n", 5, "Ideas requested per round")
		rounds      = flag.Int("rounds", 1, "Generation rounds")
		model       = flag.String("model", "gpt-4o", "Chat model; names containing \"claude\" use Anthropic")
		temperature = flag.Float64("temperature", 1.0, "Sampling temperature")
		outPath     = flag.String("out", "", "Output cache file (required)")
		appendOut   = flag.Bool("append", false, "Extend an existing output cache")
		timeout     = flag.Duration("timeout", 5*time.Minute, "Per-round request timeout")
	)
	flag.Parse()
	pipeline.LoadEnv()

	if *topic == "" {
		log.Fatal("--topic required")
	}
	if *outPath == "" {
		log.Fatal("--out required")
	}

	cfg := llm.ConfigFromEnv(*model)
	cfg.Temperature = float32(*temperature)
	chat, err := llm.NewClient(cfg)
	if err != nil {
		log.Fatal(err)
	}

	cache := &idea.Cache{TopicDescription: *topic}
	if *appendOut {
		existing, _, err := idea.LoadLenient(*outPath)
		switch {
		case err == nil:
			cache = existing
		case errors.Is(err, fs.ErrNotExist):
		default:
			log.Fatal(err)
		}
	}

	gen := &ideagen.Generator{Chat: chat}
	if err := generate(context.Background(), gen, cache, *n, *rounds, *timeout); err != nil {
		log.Printf("Generation stopped early: %v", err)
	}
	if err := cache.SaveList(*outPath); err != nil {
		log.Fatalf("write %s: %v", *outPath, err)
	}
	log.Printf("Wrote %d ideas to %s", len(cache.Ideas), *outPath)
}

// generate appends rounds of ideas to cache, asking the model to avoid
// titles it already holds. A failed round stops generation.
func generate(ctx context.Context, gen *ideagen.Generator, cache *idea.Cache, n, rounds int, timeout time.Duration) error {
	for r := 0; r < rounds; r++ {
		rctx, cancel := context.WithTimeout(ctx, timeout)
		ideas, err := gen.Generate(rctx, ideagen.Request{Topic: cache.TopicDescription, N: n, Avoid: cache.Titles()})
		cancel()
		if err != nil {
			return err
		}
		cache.Ideas = append(cache.Ideas, ideas...)
		log.Printf("Round %d/%d: %d new ideas (%d total)", r+1, rounds, len(ideas), len(cache.Ideas))
	}
	return nil
}
