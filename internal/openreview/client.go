package openreview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/cognicore/ideascope/pkg/ideascope/internalerr"
)

const (
	// DefaultBaseURL is the notes API endpoint root.
	DefaultBaseURL = "https://api2.openreview.net"
	// DefaultPDFBaseURL serves submission PDFs.
	DefaultPDFBaseURL = "https://openreview.net"
	// DefaultPageSize is the API's maximum page length.
	DefaultPageSize = 1000
)

// Client fetches submissions from an OpenReview-style notes API.
type Client struct {
	BaseURL    string
	PDFBaseURL string
	Token      string

	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// NewClient returns a client with default endpoints and a limit of five
// requests per second.
func NewClient(token string) *Client {
	return &Client{
		BaseURL:    DefaultBaseURL,
		PDFBaseURL: DefaultPDFBaseURL,
		Token:      token,
		Limiter:    rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
	}
}

// Paper is one submission flattened for downstream use.
type Paper struct {
	ID        string    `json:"id"`
	Forum     string    `json:"forum,omitempty"`
	Title     string    `json:"title"`
	Abstract  string    `json:"abstract"`
	Authors   []string  `json:"authors,omitempty"`
	Keywords  []string  `json:"keywords,omitempty"`
	Venue     string    `json:"venue,omitempty"`
	PDF       string    `json:"pdf,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type notesPage struct {
	Notes []note `json:"notes"`
	Count int    `json:"count"`
}

type note struct {
	ID      string                     `json:"id"`
	Forum   string                     `json:"forum"`
	CDate   int64                      `json:"cdate"`
	Content map[string]json.RawMessage `json:"content"`
}

// Submissions pages through every note posted to invitation. Paging stops
// when the reported count is reached or a page comes back empty.
func (c *Client) Submissions(ctx context.Context, invitation string, pageSize int) ([]Paper, error) {
	if invitation == "" {
		return nil, fmt.Errorf("openreview: invitation required")
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	var papers []Paper
	for offset := 0; ; offset += pageSize {
		params := url.Values{}
		params.Set("invitation", invitation)
		params.Set("offset", strconv.Itoa(offset))
		params.Set("limit", strconv.Itoa(pageSize))

		var page notesPage
		if err := c.getJSON(ctx, c.baseURL()+"/notes?"+params.Encode(), &page); err != nil {
			return nil, fmt.Errorf("fetch offset %d: %w", offset, err)
		}
		for _, n := range page.Notes {
			papers = append(papers, n.paper())
		}
		if len(page.Notes) == 0 || (page.Count > 0 && len(papers) >= page.Count) {
			break
		}
	}
	return papers, nil
}

// DownloadPDF saves the submission PDF as <dir>/<id>.pdf and returns the path.
// IDs that are not a plain file name are rejected.
func (c *Client) DownloadPDF(ctx context.Context, id, dir string) (string, error) {
	if !safeName(id) {
		return "", fmt.Errorf("pdf id %q: %w", id, internalerr.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	resp, err := c.do(ctx, c.pdfBaseURL()+"/pdf?id="+url.QueryEscape(id))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	path := filepath.Join(dir, id+".pdf")
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, f.Close()
}

func safeName(id string) bool {
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`) && filepath.Base(id) == id
}

func (c *Client) getJSON(ctx context.Context, rawURL string, dst any) error {
	resp, err := c.do(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// do waits for the limiter and returns the response only on HTTP 200.
func (c *Client) do(ctx context.Context, rawURL string) (*http.Response, error) {
	if c.Limiter != nil {
		if err := c.Limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 60 * time.Second}
}

func (c *Client) baseURL() string {
	if c.BaseURL != "" {
		return strings.TrimRight(c.BaseURL, "/")
	}
	return DefaultBaseURL
}

func (c *Client) pdfBaseURL() string {
	if c.PDFBaseURL != "" {
		return strings.TrimRight(c.PDFBaseURL, "/")
	}
	return DefaultPDFBaseURL
}

func (n note) paper() Paper {
	p := Paper{
		ID:       n.ID,
		Forum:    n.Forum,
		Title:    cleanText(n.str("title")),
		Abstract: cleanText(StripHTML(n.str("abstract"))),
		Authors:  n.list("authors"),
		Keywords: n.list("keywords"),
		Venue:    n.str("venue"),
		PDF:      n.str("pdf"),
	}
	if n.CDate > 0 {
		p.CreatedAt = time.UnixMilli(n.CDate).UTC()
	}
	return p
}

// value unwraps {"value": x} content fields; older notes store x directly.
func (n note) value(key string) json.RawMessage {
	raw, ok := n.Content[key]
	if !ok {
		return nil
	}
	var wrapped struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Value != nil {
		return wrapped.Value
	}
	return raw
}

func (n note) str(key string) string {
	var s string
	if err := json.Unmarshal(n.value(key), &s); err != nil {
		return ""
	}
	return s
}

func (n note) list(key string) []string {
	var out []string
	if err := json.Unmarshal(n.value(key), &out); err != nil {
		return nil
	}
	return out
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
