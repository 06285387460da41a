package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cognicore/ideascope/internal/openreview"
	"github.com/cognicore/ideascope/internal/pipeline"
)

type options struct {
	invitation string
	out        string
	pdfDir     string
	pageSize   int
	workers    int
}

func main() {
	var (
		invitation = flag.String("invitation", "ICLR.cc/2024/Conference/-/Submission", "Submission invitation to page through")
		out        = flag.String("out", "testdata/openreview/papers.jsonl", "Output JSONL file; existing papers are kept")
		pdfDir     = flag.String("pdf-dir", "", "Download PDFs into this directory (empty = skip)")
		pageSize   = flag.Int("page-size", openreview.DefaultPageSize, "Notes per API request")
		workers    = flag.Int("workers", 4, "Concurrent PDF downloads")
		token      = flag.String("token", "", "API token (default $OPENREVIEW_TOKEN)")
		baseURL    = flag.String("base-url", openreview.DefaultBaseURL, "Notes API root")
	)
	flag.Parse()
	pipeline.LoadEnv()

	if *token == "" {
		*token = os.Getenv("OPENREVIEW_TOKEN")
	}
	client := openreview.NewClient(*token)
	client.BaseURL = *baseURL
	client.HTTPClient = &http.Client{Timeout: time.Minute}

	ctx := context.Background()
	n, err := scrape(ctx, client, options{
		invitation: *invitation,
		out:        *out,
		pdfDir:     *pdfDir,
		pageSize:   *pageSize,
		workers:    *workers,
	})
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("Saved %d papers to %s", n, *out)
}

// scrape fetches every submission, merges it with papers already in
// opts.out and rewrites the file. It returns the number of papers written.
func scrape(ctx context.Context, client *openreview.Client, opts options) (int, error) {
	log.Printf("Fetching submissions for %s", opts.invitation)
	fetched, err := client.Submissions(ctx, opts.invitation, opts.pageSize)
	if err != nil {
		return 0, err
	}
	log.Printf("Received %d submissions", len(fetched))

	existing, err := openreview.LoadJSONL(opts.out)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return 0, err
	}
	papers := merge(existing, fetched)

	if opts.pdfDir != "" {
		downloadPDFs(ctx, client, fetched, opts.pdfDir, opts.workers)
	}

	if err := os.MkdirAll(filepath.Dir(opts.out), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return 0, err
	}
	if err := openreview.WriteJSONL(f, papers); err != nil {
		f.Close()
		return 0, err
	}
	return len(papers), f.Close()
}

// merge keeps the order of existing and appends unseen fetched papers.
// A fetched paper replaces an existing one with the same ID.
func merge(existing, fetched []openreview.Paper) []openreview.Paper {
	index := make(map[string]int, len(existing))
	out := make([]openreview.Paper, 0, len(existing)+len(fetched))
	for _, p := range existing {
		if _, ok := index[p.ID]; ok {
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	for _, p := range fetched {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

// downloadPDFs fetches PDFs not already on disk. Failures are logged and
// skipped.
func downloadPDFs(ctx context.Context, client *openreview.Client, papers []openreview.Paper, dir string, workers int) {
	if workers <= 0 {
		workers = 1
	}
	var (
		mu         sync.Mutex
		downloaded int
		failed     int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, p := range papers {
		if p.PDF == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(dir, p.ID+".pdf")); err == nil {
			continue
		}
		g.Go(func() error {
			_, err := client.DownloadPDF(gctx, p.ID, dir)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				log.Printf("[SCRAPE] pdf %s: %v", p.ID, err)
				return nil
			}
			downloaded++
			return nil
		})
	}
	_ = g.Wait()
	log.Printf("Downloaded %d PDFs (%d failed)", downloaded, failed)
}
