package idea

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
)

// Cache is one topic's idea set as stored on disk. Ideas keep file order.
type Cache struct {
	TopicDescription string
	Ideas            []Idea
}

// CachePath returns the idea cache file for name inside dir.
func CachePath(dir, name string) string {
	return filepath.Join(dir, name+".json")
}

// MatrixPath returns the similarity matrix cache file for name inside dir.
func MatrixPath(dir, name string) string {
	return filepath.Join(dir, name+"_similarity.bin")
}

// Titles returns the idea titles in order.
func (c *Cache) Titles() []string {
	out := make([]string, len(c.Ideas))
	for i, it := range c.Ideas {
		out[i] = it.Title
	}
	return out
}

// Texts returns Idea.Text for every idea in order.
func (c *Cache) Texts() []string {
	out := make([]string, len(c.Ideas))
	for i, it := range c.Ideas {
		out[i] = it.Text()
	}
	return out
}

type cacheFile struct {
	TopicDescription string          `json:"topic_description,omitempty"`
	Ideas            json.RawMessage `json:"ideas"`
}

type rawEntry struct {
	title string
	value json.RawMessage
	err   error
}

// Load reads a cache file in either the keyed form
// {"topic_description": ..., "ideas": {title: record}} or the list form
// {"ideas": [{title: record}, ...]}. Any malformed idea fails the load.
func Load(path string) (*Cache, error) {
	c, skipped, err := load(path, false)
	if err != nil {
		return nil, err
	}
	if skipped != 0 {
		return nil, fmt.Errorf("%s: %d malformed ideas: %w", path, skipped, internalerr.ErrMalformedIdea)
	}
	return c, nil
}

// LoadLenient is Load, except malformed ideas are logged and skipped.
// It returns the number of skipped ideas.
func LoadLenient(path string) (*Cache, int, error) {
	return load(path, true)
}

func load(path string, lenient bool) (*Cache, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, fmt.Errorf("read file %s: %w", path, err)
	}
	c, skipped, err := Parse(data, lenient)
	if err != nil {
		return nil, 0, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, skipped, nil
}

// Parse decodes cache file contents. See Load for the accepted forms.
func Parse(data []byte, lenient bool) (*Cache, int, error) {
	var f cacheFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, 0, err
	}
	c := &Cache{TopicDescription: f.TopicDescription}
	if len(f.Ideas) == 0 || string(f.Ideas) == "null" {
		return c, 0, nil
	}

	entries, err := orderedEntries(f.Ideas)
	if err != nil {
		return nil, 0, err
	}

	skipped := 0
	for _, e := range entries {
		rec, err := decodeEntry(e)
		if err != nil {
			if !lenient {
				return nil, 0, fmt.Errorf("idea %q: %w", e.title, err)
			}
			log.Printf("[IDEA] skipping malformed idea %q: %v", e.title, err)
			skipped++
			continue
		}
		c.Ideas = append(c.Ideas, Idea{Title: e.title, Record: rec})
	}
	return c, skipped, nil
}

func decodeEntry(e rawEntry) (Record, error) {
	if e.err != nil {
		return Record{}, e.err
	}
	if e.title == "" {
		return Record{}, fmt.Errorf("%w: empty title", internalerr.ErrMalformedIdea)
	}
	var rec Record
	if err := json.Unmarshal(e.value, &rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// orderedEntries walks an "ideas" value, keeping the key order of objects.
func orderedEntries(data json.RawMessage) ([]rawEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch tok {
	case json.Delim('{'):
		return readObject(dec)
	case json.Delim('['):
		var out []rawEntry
		for dec.More() {
			var elem json.RawMessage
			if err := dec.Decode(&elem); err != nil {
				return nil, err
			}
			sub, err := objectEntries(elem)
			if err != nil {
				out = append(out, rawEntry{value: elem, err: fmt.Errorf("%w: %v", internalerr.ErrMalformedIdea, err)})
				continue
			}
			out = append(out, sub...)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("ideas must be an object or array: %w", internalerr.ErrInvalidInput)
	}
}

func objectEntries(data json.RawMessage) ([]rawEntry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if tok != json.Delim('{') {
		return nil, errors.New("list entry is not an object")
	}
	return readObject(dec)
}

func readObject(dec *json.Decoder) ([]rawEntry, error) {
	var out []rawEntry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return nil, err
		}
		out = append(out, rawEntry{title: key, value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// MarshalJSON writes the keyed form, preserving idea order.
func (c *Cache) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if c.TopicDescription != "" {
		td, err := json.Marshal(c.TopicDescription)
		if err != nil {
			return nil, err
		}
		buf.WriteString(`"topic_description":`)
		buf.Write(td)
		buf.WriteByte(',')
	}
	buf.WriteString(`"ideas":{`)
	for i, it := range c.Ideas {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(it.Title)
		if err != nil {
			return nil, err
		}
		v, err := it.Record.MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

// Save writes the keyed form to path, creating parent directories.
func (c *Cache) Save(path string) error {
	data, err := c.MarshalJSON()
	if err != nil {
		return err
	}
	return writeIndented(path, data)
}

// SaveList writes the list form {"ideas": [{title: record}, ...]}, which keeps
// repeated titles distinct for a later dedup pass.
func (c *Cache) SaveList(path string) error {
	type listFile struct {
		TopicDescription string                       `json:"topic_description,omitempty"`
		Ideas            []map[string]json.RawMessage `json:"ideas"`
	}
	lf := listFile{TopicDescription: c.TopicDescription, Ideas: make([]map[string]json.RawMessage, 0, len(c.Ideas))}
	for _, it := range c.Ideas {
		v, err := it.Record.MarshalJSON()
		if err != nil {
			return err
		}
		lf.Ideas = append(lf.Ideas, map[string]json.RawMessage{it.Title: v})
	}
	data, err := json.Marshal(lf)
	if err != nil {
		return err
	}
	return writeIndented(path, data)
}

func writeIndented(path string, data []byte) error {
	var out bytes.Buffer
	if err := json.Indent(&out, data, "", "  "); err != nil {
		return err
	}
	out.WriteByte('\n')
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, out.Bytes(), 0o644)
}

// ConcatReport summarises a Concat call.
type ConcatReport struct {
	Files   int
	Loaded  int
	Skipped int
}

// Concat merges several cache files into one ordered list. The first
// non-empty topic description wins. Malformed ideas are skipped.
func Concat(paths []string) (*Cache, ConcatReport, error) {
	out := &Cache{}
	var rep ConcatReport
	for _, p := range paths {
		c, skipped, err := LoadLenient(p)
		if err != nil {
			return nil, rep, err
		}
		rep.Files++
		rep.Loaded += len(c.Ideas)
		rep.Skipped += skipped
		if out.TopicDescription == "" {
			out.TopicDescription = c.TopicDescription
		}
		out.Ideas = append(out.Ideas, c.Ideas...)
	}
	return out, rep, nil
}
