// Package search contains the external lookup collaborators consumed by the
// web_search and wikipedia capabilities: a web search client and an
// encyclopedia summary client. Both bound their own call duration so a slow
// backend fails instead of hanging the dispatcher.
package search

import "context"

// Result is one ranked web search hit.
type Result struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// WebSearcher is the contract of the web-search backend. Implementations
// return up to count ranked results for the query.
type WebSearcher interface {
	Search(ctx context.Context, query string, count int) ([]Result, error)
}

// Summary is an encyclopedia lookup result.
type Summary struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

// Encyclopedia is the contract of the encyclopedia-lookup backend. The
// summary is truncated to at most sentences sentences.
type Encyclopedia interface {
	Lookup(ctx context.Context, query string, sentences int) (Summary, error)
}
