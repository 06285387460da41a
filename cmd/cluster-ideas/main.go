package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cognicore/ideascope/internal/pipeline"
	"github.com/cognicore/ideascope/pkg/ideascope/cluster"
	"github.com/cognicore/ideascope/pkg/ideascope/config"
	"github.com/cognicore/ideascope/pkg/ideascope/idea"
	"github.com/cognicore/ideascope/pkg/ideascope/store"
	"github.com/cognicore/ideascope/pkg/ideascope/store/sqlite"
)

// neighborOut and slateOut are the on-disk report shapes.
type neighborOut struct {
	Title string  `json:"title"`
	Sim   float64 `json:"sim"`
}

type slateOut struct {
	Cluster        int           `json:"cluster"`
	Size           int           `json:"size"`
	Representative string        `json:"representative"`
	MeanSim        float64       `json:"mean_sim"`
	Neighbors      []neighborOut `json:"neighbors"`
}

type report struct {
	Topic    string     `json:"topic,omitempty"`
	Linkage  string     `json:"linkage"`
	Clusters int        `json:"clusters"`
	Slates   []slateOut `json:"slates"`
}

func main() {
	var (
		configPath = flag.String("config", "", "Pipeline YAML file (optional)")
		cacheDir   = flag.String("cache-dir", "", "Directory holding idea caches")
		cacheName  = flag.String("cache-name", "", "Cache name, without .json (required)")
		outDir     = flag.String("out-dir", "", "Output directory for cluster reports")
		clusters   = flag.Int("clusters", 0, "Number of clusters")
		topN       = flag.Int("top-n", 0, "Nearest neighbours listed per representative")
		linkage    = flag.String("linkage", "", "Linkage: average, complete or single")
		simKind    = flag.String("similarity", "", "Similarity backend: jaccard or embedding")
		rebuild    = flag.Bool("rebuild", false, "Recompute the similarity matrix even if cached")
		dbPath     = flag.String("db", "", "SQLite run ledger (optional)")
	)
	flag.Parse()
	pipeline.LoadEnv()

	p, err := pipeline.LoadConfig(*configPath)
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "cache-dir":
			p.CacheDir = *cacheDir
		case "cache-name":
			p.CacheName = *cacheName
		case "out-dir":
			p.OutDir = *outDir
		case "clusters":
			p.Clusters = *clusters
		case "top-n":
			p.TopN = *topN
		case "linkage":
			p.Linkage = *linkage
		case "similarity":
			p.Similarity = *simKind
		case "db":
			p.DB = *dbPath
		}
	})
	if p.CacheName == "" {
		log.Fatal("--cache-name required")
	}
	if err := p.Validate(); err != nil {
		log.Fatal(err)
	}

	rep, err := run(context.Background(), p, *rebuild, nil)
	if err != nil {
		log.Fatalf("cluster %s: %v", p.CacheName, err)
	}
	for _, s := range rep.Slates {
		fmt.Printf("[%d] %s (size %d, mean sim %.3f)\n", s.Cluster, s.Representative, s.Size, s.MeanSim)
		for _, n := range s.Neighbors {
			fmt.Printf("      %.3f  %s\n", n.Sim, n.Title)
		}
	}
}

func run(ctx context.Context, p config.Pipeline, rebuild bool, embed pipeline.EmbedderFunc) (*report, error) {
	cache, _, err := idea.LoadLenient(idea.CachePath(p.CacheDir, p.CacheName))
	if err != nil {
		return nil, err
	}
	m, err := pipeline.Matrix(ctx, cache, p, rebuild, embed)
	if err != nil {
		return nil, err
	}

	opts, err := p.ClusterOptions()
	if err != nil {
		return nil, err
	}
	if opts.Clusters > m.N() {
		log.Printf("Only %d ideas; clustering into %d instead of %d", m.N(), m.N(), opts.Clusters)
		opts.Clusters = m.N()
	}
	assign, err := cluster.Agglomerative(m, opts)
	if err != nil {
		return nil, err
	}
	slates, err := cluster.Slates(m, assign, p.TopN)
	if err != nil {
		return nil, err
	}

	rep := &report{Topic: cache.TopicDescription, Linkage: opts.Linkage.String(), Clusters: assign.K()}
	reps := &idea.Cache{TopicDescription: cache.TopicDescription}
	for _, s := range slates {
		out := slateOut{
			Cluster:        s.Label,
			Size:           s.Size,
			Representative: cache.Ideas[s.Representative].Title,
			MeanSim:        s.MeanSim,
		}
		for _, n := range s.Neighbors {
			out.Neighbors = append(out.Neighbors, neighborOut{Title: cache.Ideas[n.Index].Title, Sim: n.Sim})
		}
		rep.Slates = append(rep.Slates, out)
		reps.Ideas = append(reps.Ideas, cache.Ideas[s.Representative])
	}

	if err := os.MkdirAll(p.OutDir, 0o755); err != nil {
		return nil, err
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(p.OutDir, p.CacheName+"_clusters.json"), data, 0o644); err != nil {
		return nil, err
	}
	if err := reps.Save(idea.CachePath(p.OutDir, p.CacheName+"_representatives")); err != nil {
		return nil, err
	}

	if p.DB != "" {
		st, err := sqlite.OpenSQLite(ctx, p.DB)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		if err := st.RecordRun(ctx, store.Run{
			Kind:   store.KindCluster,
			Topic:  p.CacheName,
			Input:  len(cache.Ideas),
			Output: assign.K(),
			Note:   opts.Linkage.String(),
		}); err != nil {
			return nil, fmt.Errorf("record run: %w", err)
		}
	}
	return rep, nil
}
