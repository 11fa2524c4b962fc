package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const defaultDuckDuckGoURL = "https://html.duckduckgo.com/html/"

// DuckDuckGo implements WebSearcher against the DuckDuckGo HTML endpoint,
// which needs no API key. Results are scraped from the result list markup.
type DuckDuckGo struct {
	baseURL string
	client  *http.Client
}

// DuckDuckGoOptions configure the client.
type DuckDuckGoOptions struct {
	BaseURL string
	Timeout time.Duration
}

// NewDuckDuckGo constructs a DuckDuckGo search client with a bounded HTTP client.
func NewDuckDuckGo(optFns ...func(o *DuckDuckGoOptions)) *DuckDuckGo {
	opts := DuckDuckGoOptions{
		BaseURL: defaultDuckDuckGoURL,
		Timeout: 10 * time.Second,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &DuckDuckGo{
		baseURL: opts.BaseURL,
		client:  &http.Client{Timeout: opts.Timeout},
	}
}

// Search implements WebSearcher.
func (d *DuckDuckGo) Search(ctx context.Context, query string, count int) ([]Result, error) {
	if count <= 0 {
		count = 3
	}

	reqURL := fmt.Sprintf("%s?q=%s", d.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("User-Agent", "mcpmesh/"+"1.0")

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("web search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing search results: %w", err)
	}

	var results []Result
	doc.Find(".result").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		link := s.Find(".result__a")
		title := strings.TrimSpace(link.Text())
		href, _ := link.Attr("href")
		desc := strings.TrimSpace(s.Find(".result__snippet").Text())
		if title == "" || href == "" {
			return true
		}
		results = append(results, Result{
			Title:       title,
			URL:         cleanRedirect(href),
			Description: desc,
		})
		return len(results) < count
	})

	return results, nil
}

// cleanRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the target URL.
func cleanRedirect(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
