package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cognicore/ideascope/internal/openreview"
)

func TestMerge(t *testing.T) {
	existing := []openreview.Paper{{ID: "a", Title: "old a"}, {ID: "b", Title: "b"}, {ID: "a", Title: "dup"}}
	fetched := []openreview.Paper{{ID: "c", Title: "c"}, {ID: "a", Title: "new a"}}

	got := merge(existing, fetched)
	require.Len(t, got, 3)
	assert.Equal(t, "new a", got[0].Title)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, "c", got[2].ID)
}

func TestScrape(t *testing.T) {
	var pdfHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/notes":
			if r.URL.Query().Get("offset") != "0" {
				fmt.Fprint(w, `{"notes": [], "count": 2}`)
				return
			}
			fmt.Fprint(w, `{"count": 2, "notes": [
				{"id": "p1", "content": {"title": {"value": "One"}, "pdf": {"value": "/pdf/p1.pdf"}}},
				{"id": "p2", "content": {"title": {"value": "Two"}, "pdf": {"value": "/pdf/p2.pdf"}}}
			]}`)
		case "/pdf":
			pdfHits.Add(1)
			fmt.Fprint(w, "%PDF-1.4")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	out := filepath.Join(dir, "out", "papers.jsonl")
	pdfs := filepath.Join(dir, "pdfs")
	require.NoError(t, os.MkdirAll(filepath.Dir(out), 0o755))
	require.NoError(t, os.WriteFile(out, []byte(`{"id":"p0","title":"Zero"}`+"\n"), 0o644))
	require.NoError(t, os.MkdirAll(pdfs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pdfs, "p2.pdf"), []byte("cached"), 0o644))

	client := &openreview.Client{BaseURL: srv.URL, PDFBaseURL: srv.URL, HTTPClient: srv.Client()}
	n, err := scrape(context.Background(), client, options{
		invitation: "Venue/-/Submission",
		out:        out,
		pdfDir:     pdfs,
		pageSize:   10,
		workers:    2,
	})
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	papers, err := openreview.LoadJSONL(out)
	require.NoError(t, err)
	require.Len(t, papers, 3)
	assert.Equal(t, "p0", papers[0].ID)
	assert.Equal(t, "Two", papers[2].Title)

	assert.Equal(t, int32(1), pdfHits.Load(), "cached PDFs are not fetched again")
	data, err := os.ReadFile(filepath.Join(pdfs, "p1.pdf"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "%PDF"))
}
