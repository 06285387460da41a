package idea

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
)

const keyedCache = `{
  "topic_description": "novel prompting methods for factuality",
  "ideas": {
    "Zeta Prompting": {"Problem": "p1", "Existing Methods": "e1", "Motivation": "m1", "Proposed Method": "pm1", "Experiment Plan": "x1"},
    "Alpha Retrieval": {"Problem": "p2", "Proposed Method": "pm2"},
    "Mid Decoding": {"Problem": "p3", "Experiment Plan": {"Step 1": "collect data", "Step 2": ["train", "eval"]}}
  }
}`

const listCache = `{
  "ideas": [
    {"Same Title": {"Problem": "first"}},
    {"Other": {"Problem": "second"}},
    {"Same Title": {"Problem": "third"}}
  ]
}`

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoadKeyedPreservesOrder(t *testing.T) {
	path := writeFile(t, t.TempDir(), "topic.json", keyedCache)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.TopicDescription != "novel prompting methods for factuality" {
		t.Errorf("topic = %q", c.TopicDescription)
	}
	want := []string{"Zeta Prompting", "Alpha Retrieval", "Mid Decoding"}
	got := c.Titles()
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("titles = %v, want %v", got, want)
	}
	if c.Ideas[0].Record.ExistingMethods != "e1" {
		t.Errorf("Existing Methods = %q", c.Ideas[0].Record.ExistingMethods)
	}
	plan := c.Ideas[2].Record.ExperimentPlan
	if !strings.Contains(plan, "Step 1: collect data") || !strings.Contains(plan, "train") {
		t.Errorf("nested plan not flattened: %q", plan)
	}
}

func TestLoadListKeepsRepeatedTitles(t *testing.T) {
	path := writeFile(t, t.TempDir(), "raw.json", listCache)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Ideas) != 3 {
		t.Fatalf("expected 3 ideas, got %d", len(c.Ideas))
	}
	if c.Ideas[0].Title != "Same Title" || c.Ideas[2].Title != "Same Title" {
		t.Errorf("titles = %v", c.Titles())
	}
	if c.Ideas[2].Record.Problem != "third" {
		t.Errorf("third idea problem = %q", c.Ideas[2].Record.Problem)
	}
}

func TestLoadEmptyIdeas(t *testing.T) {
	dir := t.TempDir()
	for _, body := range []string{`{"ideas": {}}`, `{"ideas": []}`, `{}`} {
		c, err := Load(writeFile(t, dir, "empty.json", body))
		if err != nil {
			t.Fatalf("Load(%s): %v", body, err)
		}
		if len(c.Ideas) != 0 {
			t.Errorf("Load(%s) returned %d ideas", body, len(c.Ideas))
		}
	}
}

func TestLoadStrictRejectsMalformed(t *testing.T) {
	body := `{"ideas": [{"Good": {"Problem": "ok"}}, "not an object", {"Bad": {"Unrelated": 1}}]}`
	path := writeFile(t, t.TempDir(), "bad.json", body)

	if _, err := Load(path); !errors.Is(err, internalerr.ErrMalformedIdea) {
		t.Fatalf("expected ErrMalformedIdea, got %v", err)
	}

	c, skipped, err := LoadLenient(path)
	if err != nil {
		t.Fatalf("LoadLenient: %v", err)
	}
	if skipped != 2 {
		t.Errorf("skipped = %d, want 2", skipped)
	}
	if len(c.Ideas) != 1 || c.Ideas[0].Title != "Good" {
		t.Errorf("ideas = %v", c.Titles())
	}
}

func TestLoadRejectsScalarIdeas(t *testing.T) {
	path := writeFile(t, t.TempDir(), "scalar.json", `{"ideas": 3}`)
	if _, err := Load(path); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}

func TestSaveRoundTripOrder(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(writeFile(t, dir, "in.json", keyedCache))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	out := filepath.Join(dir, "out", "topic.json")
	if err := c.Save(out); err != nil {
		t.Fatalf("Save: %v", err)
	}
	again, err := Load(out)
	if err != nil {
		t.Fatalf("Load saved: %v", err)
	}
	if strings.Join(again.Titles(), "|") != strings.Join(c.Titles(), "|") {
		t.Errorf("order lost: %v vs %v", again.Titles(), c.Titles())
	}
	if again.TopicDescription != c.TopicDescription {
		t.Errorf("topic lost: %q", again.TopicDescription)
	}
	if again.Ideas[1].Record != c.Ideas[1].Record {
		t.Errorf("record changed: %+v vs %+v", again.Ideas[1].Record, c.Ideas[1].Record)
	}
}

func TestSaveList(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(writeFile(t, dir, "raw.json", listCache))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	out := filepath.Join(dir, "list.json")
	if err := c.SaveList(out); err != nil {
		t.Fatalf("SaveList: %v", err)
	}
	again, err := Load(out)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(again.Ideas) != 3 {
		t.Errorf("list form should keep repeated titles, got %d ideas", len(again.Ideas))
	}
}

func TestConcat(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.json", `{"ideas": [{"A": {"Problem": "a"}}, {"Broken": "text"}]}`)
	b := writeFile(t, dir, "b.json", `{"topic_description": "t", "ideas": [{"B": {"Problem": "b"}}]}`)

	c, rep, err := Concat([]string{a, b})
	if err != nil {
		t.Fatalf("Concat: %v", err)
	}
	if rep.Files != 2 || rep.Loaded != 2 || rep.Skipped != 1 {
		t.Errorf("report = %+v", rep)
	}
	if strings.Join(c.Titles(), ",") != "A,B" {
		t.Errorf("titles = %v", c.Titles())
	}
	if c.TopicDescription != "t" {
		t.Errorf("topic = %q", c.TopicDescription)
	}

	if _, _, err := Concat([]string{filepath.Join(dir, "missing.json")}); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIdeaText(t *testing.T) {
	it := Idea{Title: "T", Record: Record{Problem: "P", ProposedMethod: "M"}}
	if got := it.Text(); got != "T\nP\nM" {
		t.Errorf("Text() = %q", got)
	}
	if !(Record{}).IsEmpty() {
		t.Error("zero record should be empty")
	}
}

func TestPaths(t *testing.T) {
	if got := CachePath("cache", "topic"); got != filepath.Join("cache", "topic.json") {
		t.Errorf("CachePath = %q", got)
	}
	if got := MatrixPath("cache", "topic"); got != filepath.Join("cache", "topic_similarity.bin") {
		t.Errorf("MatrixPath = %q", got)
	}
}
