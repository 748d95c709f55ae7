package benchmark

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dusk-indust/sopflow/internal/benchdata"
)

// DefaultMaxChars bounds the benchmark content kept from a response.
const DefaultMaxChars = 10000

// HTTPSource fetches benchmark text from a collaborator over HTTP. The URL
// template's "{sector}" placeholder is replaced with the normalized sector.
// JSON responses decode as a Document; text/plain and text/markdown bodies
// become its Content.
type HTTPSource struct {
	http        *http.Client
	urlTemplate string
	maxChars    int
}

// SourceOption configures an HTTPSource.
type SourceOption func(*HTTPSource)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) SourceOption {
	return func(s *HTTPSource) {
		s.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying *http.Client entirely.
func WithHTTPClient(hc *http.Client) SourceOption {
	return func(s *HTTPSource) {
		s.http = hc
	}
}

// WithMaxChars changes how many characters of content are kept.
func WithMaxChars(n int) SourceOption {
	return func(s *HTTPSource) {
		s.maxChars = n
	}
}

// NewHTTPSource creates an HTTPSource for urlTemplate.
func NewHTTPSource(urlTemplate string, opts ...SourceOption) *HTTPSource {
	s := &HTTPSource{
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
		urlTemplate: urlTemplate,
		maxChars:    DefaultMaxChars,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Fetch performs one GET against the collaborator.
func (s *HTTPSource) Fetch(ctx context.Context, sector string) (*Document, error) {
	norm := benchdata.NormalizeSector(sector)
	url := strings.ReplaceAll(s.urlTemplate, "{sector}", norm)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("benchmark: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json, text/plain;q=0.9")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, Classify(fmt.Errorf("benchmark: fetch %s: %w", url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("benchmark: fetch %s: HTTP %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	doc := &Document{Sector: norm, SourceReference: url}
	switch {
	case mediaType == "application/json":
		if err := json.NewDecoder(resp.Body).Decode(doc); err != nil {
			return nil, Classify(fmt.Errorf("benchmark: decode response: %w", err))
		}
		if doc.SourceReference == "" {
			doc.SourceReference = url
		}
	case strings.HasPrefix(mediaType, "text/"), mediaType == "":
		body, err := io.ReadAll(io.LimitReader(resp.Body, int64(s.maxChars)*4))
		if err != nil {
			return nil, Classify(fmt.Errorf("benchmark: read response: %w", err))
		}
		doc.Content = string(body)
	default:
		return nil, fmt.Errorf("benchmark: unsupported content type %q", mediaType)
	}

	doc.Content = truncate(doc.Content, s.maxChars)
	return doc, nil
}

// truncate keeps at most n runes of s.
func truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
