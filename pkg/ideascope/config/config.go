package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cognicore/ideascope/pkg/ideascope/cluster"
	"github.com/cognicore/ideascope/pkg/ideascope/dedup"
	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
)

// Stoplist represents the stopword list configuration
type Stoplist struct {
	Terms []string `yaml:"terms"`
}

// LoadStoplist loads stopwords from a YAML file
func LoadStoplist(path string) (*Stoplist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var sl Stoplist
	if err := yaml.Unmarshal(data, &sl); err != nil {
		return nil, err
	}

	return &sl, nil
}

// Similarity backends.
const (
	SimilarityJaccard   = "jaccard"
	SimilarityEmbedding = "embedding"
)

// Pipeline configures the dedup and clustering binaries. Flags override it.
type Pipeline struct {
	CacheDir  string `yaml:"cache_dir"`
	CacheName string `yaml:"cache_name"`
	OutDir    string `yaml:"out_dir"`

	Similarity     string  `yaml:"similarity"`
	EmbeddingModel string  `yaml:"embedding_model"`
	Threshold      float64 `yaml:"threshold"`
	MatchTitles    *bool   `yaml:"match_titles"`
	Workers        int     `yaml:"workers"`

	Clusters int    `yaml:"clusters"`
	TopN     int    `yaml:"top_n"`
	Linkage  string `yaml:"linkage"`

	Stoplist string `yaml:"stoplist"`
	DB       string `yaml:"db"`
}

// DefaultPipeline returns the settings used when no file is given.
func DefaultPipeline() Pipeline {
	return Pipeline{
		CacheDir:       "ideas",
		OutDir:         "ideas_dedup",
		Similarity:     SimilarityJaccard,
		EmbeddingModel: "text-embedding-3-small",
		Threshold:      dedup.DefaultConfig().Threshold,
		Workers:        4,
		Clusters:       5,
		TopN:           3,
		Linkage:        cluster.Average.String(),
	}
}

// LoadPipeline reads a YAML pipeline file. Keys absent from the file keep
// their DefaultPipeline values.
func LoadPipeline(path string) (*Pipeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	p := DefaultPipeline()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &p, nil
}

// Validate checks ranges and enumerations.
func (p Pipeline) Validate() error {
	switch p.Similarity {
	case SimilarityJaccard, SimilarityEmbedding:
	default:
		return fmt.Errorf("similarity must be %q or %q (got %q): %w", SimilarityJaccard, SimilarityEmbedding, p.Similarity, internalerr.ErrInvalidConfig)
	}
	if err := p.Dedup().Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, internalerr.ErrInvalidConfig)
	}
	if p.Workers < 0 {
		return fmt.Errorf("workers must be >= 0 (got %d): %w", p.Workers, internalerr.ErrInvalidConfig)
	}
	if p.Clusters < 0 || p.TopN < 0 {
		return fmt.Errorf("clusters and top_n must be >= 0: %w", internalerr.ErrInvalidConfig)
	}
	if _, err := cluster.ParseLinkage(p.Linkage); err != nil {
		return fmt.Errorf("%v: %w", err, internalerr.ErrInvalidConfig)
	}
	return nil
}

// Dedup returns the dedup settings carried by the pipeline.
func (p Pipeline) Dedup() dedup.Config {
	cfg := dedup.DefaultConfig()
	cfg.Threshold = p.Threshold
	if p.MatchTitles != nil {
		cfg.MatchTitles = *p.MatchTitles
	}
	return cfg
}

// ClusterOptions returns clustering options for the pipeline.
func (p Pipeline) ClusterOptions() (cluster.Options, error) {
	l, err := cluster.ParseLinkage(p.Linkage)
	if err != nil {
		return cluster.Options{}, err
	}
	return cluster.Options{Clusters: p.Clusters, Linkage: l}, nil
}
