package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultWikipediaURL = "https://en.wikipedia.org/api/rest_v1/page/summary/"

// Wikipedia implements Encyclopedia against the Wikipedia REST summary API.
type Wikipedia struct {
	baseURL string
	client  *http.Client
}

// WikipediaOptions configure the client.
type WikipediaOptions struct {
	BaseURL string
	Timeout time.Duration
}

// NewWikipedia constructs a Wikipedia lookup client with a bounded HTTP client.
func NewWikipedia(optFns ...func(o *WikipediaOptions)) *Wikipedia {
	opts := WikipediaOptions{
		BaseURL: defaultWikipediaURL,
		Timeout: 10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Wikipedia{
		baseURL: opts.BaseURL,
		client:  &http.Client{Timeout: opts.Timeout},
	}
}

// summaryResponse mirrors the subset of the REST summary payload we consume.
type summaryResponse struct {
	Title       string `json:"title"`
	Extract     string `json:"extract"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Lookup implements Encyclopedia. The extract is truncated to at most
// sentences sentences.
func (w *Wikipedia) Lookup(ctx context.Context, query string, sentences int) (Summary, error) {
	if sentences <= 0 {
		sentences = 5
	}

	title := strings.ReplaceAll(strings.TrimSpace(query), " ", "_")
	reqURL := w.baseURL + url.PathEscape(title)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("building wikipedia request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return Summary{}, fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return Summary{}, fmt.Errorf("no wikipedia page for %q", query)
	}
	if resp.StatusCode != http.StatusOK {
		return Summary{}, fmt.Errorf("wikipedia returned status %d", resp.StatusCode)
	}

	var payload summaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Summary{}, fmt.Errorf("decoding wikipedia response: %w", err)
	}

	return Summary{
		Title:   payload.Title,
		Summary: truncateSentences(payload.Extract, sentences),
		URL:     payload.ContentURLs.Desktop.Page,
	}, nil
}

// truncateSentences keeps at most n sentences of text, splitting on the usual
// terminators. Crude but adequate for summary extracts.
func truncateSentences(text string, n int) string {
	if n <= 0 {
		return text
	}
	count := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			count++
			if count == n {
				return strings.TrimSpace(text[:i+1])
			}
		}
	}
	return text
}
