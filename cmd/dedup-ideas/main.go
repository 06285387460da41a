package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cognicore/ideascope/internal/pipeline"
	"github.com/cognicore/ideascope/pkg/ideascope/config"
	"github.com/cognicore/ideascope/pkg/ideascope/dedup"
	"github.com/cognicore/ideascope/pkg/ideascope/idea"
	"github.com/cognicore/ideascope/pkg/ideascope/store"
	"github.com/cognicore/ideascope/pkg/ideascope/store/sqlite"
)

type options struct {
	pipeline config.Pipeline
	dedup    dedup.Config
	rebuild  bool
	embed    pipeline.EmbedderFunc
}

func main() {
	var (
		configPath  = flag.String("config", "", "Pipeline YAML file (optional)")
		cacheDir    = flag.String("cache-dir", "", "Directory holding idea caches")
		cacheName   = flag.String("cache-name", "", "Cache name, without .json (required)")
		outDir      = flag.String("out-dir", "", "Output directory for the deduplicated cache")
		threshold   = flag.Float64("threshold", 0, "Similarity above which a later idea is filtered")
		matchTitles = flag.Bool("match-titles", true, "Also filter ideas with identical titles")
		simKind     = flag.String("similarity", "", "Similarity backend: jaccard or embedding")
		workers     = flag.Int("workers", 0, "Parallel workers for the similarity matrix")
		stoplist    = flag.String("stoplist", "", "YAML stoplist extending the English list")
		rebuild     = flag.Bool("rebuild", false, "Recompute the similarity matrix even if cached")
		dbPath      = flag.String("db", "", "SQLite run ledger (optional)")
	)
	flag.Parse()
	pipeline.LoadEnv()

	p, err := pipeline.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	cfg, err := dedup.WithEnv(p.Dedup())
	if err != nil {
		log.Fatal(err)
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cache-dir":
			p.CacheDir = *cacheDir
		case "cache-name":
			p.CacheName = *cacheName
		case "out-dir":
			p.OutDir = *outDir
		case "threshold":
			cfg.Threshold = *threshold
		case "match-titles":
			cfg.MatchTitles = *matchTitles
		case "similarity":
			p.Similarity = *simKind
		case "workers":
			p.Workers = *workers
		case "stoplist":
			p.Stoplist = *stoplist
		case "db":
			p.DB = *dbPath
		}
	})
	p.Threshold = cfg.Threshold
	if p.CacheName == "" {
		log.Fatal("--cache-name required")
	}
	if err := p.Validate(); err != nil {
		log.Fatal(err)
	}

	res, err := run(context.Background(), options{pipeline: p, dedup: cfg, rebuild: *rebuild})
	if err != nil {
		log.Fatalf("dedup %s: %v", p.CacheName, err)
	}
	fmt.Println(res.Summary())
}

func run(ctx context.Context, opts options) (*dedup.Result, error) {
	p := opts.pipeline
	cachePath := idea.CachePath(p.CacheDir, p.CacheName)
	cache, skipped, err := idea.LoadLenient(cachePath)
	if err != nil {
		return nil, err
	}
	log.Printf("Loaded %d ideas from %s (%d malformed skipped)", len(cache.Ideas), cachePath, skipped)

	m, err := pipeline.Matrix(ctx, cache, p, opts.rebuild, opts.embed)
	if err != nil {
		return nil, err
	}

	res, err := dedup.Deduplicate(cache.Ideas, m, opts.dedup)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return nil, err
	}
	outPath := idea.CachePath(p.OutDir, p.CacheName)
	if err := res.Cache(cache.TopicDescription).Save(outPath); err != nil {
		return nil, err
	}
	log.Printf("Wrote %d ideas to %s", res.Final, outPath)

	if p.DB != "" {
		if err := record(ctx, p, opts.dedup, res); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}
	return res, nil
}

func record(ctx context.Context, p config.Pipeline, cfg dedup.Config, res *dedup.Result) error {
	if err := os.MkdirAll(filepath.Dir(p.DB), 0o755); err != nil {
		return err
	}
	st, err := sqlite.OpenSQLite(ctx, p.DB)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SaveIdeas(ctx, p.CacheName, res.Kept); err != nil {
		return err
	}
	return st.RecordRun(ctx, store.Run{
		Kind:      store.KindDedup,
		Topic:     p.CacheName,
		Threshold: cfg.Threshold,
		Input:     res.Original,
		Output:    res.Final,
		Note:      p.Similarity,
	})
}
