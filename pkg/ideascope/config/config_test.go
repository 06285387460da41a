package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cognicore/ideascope/pkg/ideascope/cluster"
	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
)

func writeYAML(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadStoplist(t *testing.T) {
	path := writeYAML(t, "stoplist.yaml", "terms:\n  - propose\n  - method\n")
	sl, err := LoadStoplist(path)
	if err != nil {
		t.Fatalf("LoadStoplist: %v", err)
	}
	if len(sl.Terms) != 2 || sl.Terms[0] != "propose" {
		t.Errorf("unexpected terms %v", sl.Terms)
	}

	if _, err := LoadStoplist(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadPipelineKeepsDefaults(t *testing.T) {
	path := writeYAML(t, "pipeline.yaml", `
cache_dir: cache
cache_name: math_reasoning
threshold: 0.75
match_titles: false
linkage: complete
`)
	p, err := LoadPipeline(path)
	if err != nil {
		t.Fatalf("LoadPipeline: %v", err)
	}
	if p.CacheDir != "cache" || p.CacheName != "math_reasoning" {
		t.Errorf("paths not read: %+v", p)
	}
	def := DefaultPipeline()
	if p.Workers != def.Workers || p.Similarity != def.Similarity || p.TopN != def.TopN {
		t.Errorf("absent keys should keep defaults: %+v", p)
	}

	d := p.Dedup()
	if d.Threshold != 0.75 || d.MatchTitles {
		t.Errorf("unexpected dedup config %v", d)
	}

	opts, err := p.ClusterOptions()
	if err != nil {
		t.Fatal(err)
	}
	if opts.Linkage != cluster.Complete || opts.Clusters != def.Clusters {
		t.Errorf("unexpected cluster options %+v", opts)
	}
}

func TestLoadPipelineInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad similarity", "similarity: tfidf\n"},
		{"threshold range", "threshold: 1.5\n"},
		{"negative workers", "workers: -1\n"},
		{"bad linkage", "linkage: ward\n"},
		{"negative clusters", "clusters: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeYAML(t, "pipeline.yaml", tt.body)
			_, err := LoadPipeline(path)
			if !errors.Is(err, internalerr.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	}

	path := writeYAML(t, "broken.yaml", "threshold: [\n")
	if _, err := LoadPipeline(path); err == nil {
		t.Error("expected YAML parse error")
	}
}

func TestDefaultPipelineValid(t *testing.T) {
	p := DefaultPipeline()
	if err := p.Validate(); err != nil {
		t.Fatalf("default pipeline invalid: %v", err)
	}
	if !p.Dedup().MatchTitles {
		t.Error("titles should match by default")
	}
}

func TestLoaderEnglishOnly(t *testing.T) {
	loader := Loader{}
	comp, err := loader.Load()
	if err != nil {
		t.Fatalf("Empty loader should succeed: %v", err)
	}
	if comp.Normalizer == nil || comp.Stoplist == nil {
		t.Fatal("components should be initialized")
	}
	if got := comp.Normalizer.Text("The model is very good"); got != "model good" {
		t.Errorf("got %q", got)
	}
}

func TestLoaderExtraTerms(t *testing.T) {
	path := writeYAML(t, "stoplist.yaml", "terms:\n  - Model\n")
	loader := Loader{StoplistPath: path}
	comp, err := loader.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got := comp.Normalizer.Text("The model is very good"); got != "good" {
		t.Errorf("got %q", got)
	}

	bare := Loader{StoplistPath: path, NoEnglish: true}
	comp, err = bare.Load()
	if err != nil {
		t.Fatal(err)
	}
	if got := comp.Normalizer.Text("The model is good"); got != "the is good" {
		t.Errorf("got %q", got)
	}
}

func TestLoaderNonExistentStoplist(t *testing.T) {
	loader := Loader{StoplistPath: "/nonexistent/stoplist.yaml"}
	if _, err := loader.Load(); err == nil {
		t.Error("Should error on nonexistent stoplist")
	}
}
