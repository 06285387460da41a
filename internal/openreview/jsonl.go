package openreview

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"golang.org/x/net/html"
)

// StripHTML returns the text content of an HTML fragment. Input that does not
// parse is returned unchanged.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var buf strings.Builder
	var extractText func(*html.Node)
	extractText = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extractText(c)
		}
	}
	extractText(doc)

	return strings.TrimSpace(buf.String())
}

// WriteJSONL writes one paper per line.
func WriteJSONL(w io.Writer, papers []Paper) error {
	enc := json.NewEncoder(w)
	for _, p := range papers {
		if err := enc.Encode(p); err != nil {
			return fmt.Errorf("encode %s: %w", p.ID, err)
		}
	}
	return nil
}

// LoadJSONL loads papers from a JSONL file, skipping malformed lines
func LoadJSONL(path string) ([]Paper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	var papers []Paper
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var p Paper
		if err := json.Unmarshal([]byte(line), &p); err != nil {
			log.Printf("Warning: skipping malformed JSON at line %d in %s: %v", i+1, path, err)
			continue
		}
		papers = append(papers, p)
	}

	if len(papers) == 0 {
		return nil, fmt.Errorf("no valid papers found in %s", path)
	}

	return papers, nil
}
