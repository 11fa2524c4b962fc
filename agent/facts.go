package agent

import (
	"context"
	"encoding/json"

	"github.com/hupe1980/mcpmesh/capability"
	"github.com/hupe1980/mcpmesh/dispatch"
	"github.com/hupe1980/mcpmesh/internal/util"
	"github.com/hupe1980/mcpmesh/logging"
	"github.com/hupe1980/mcpmesh/prompt"
)

// FactResult is the structured output of a fact extraction. When the
// completion could not be parsed as the expected JSON shape, Err carries the
// parse failure and Raw whatever text was produced; callers must check Err
// rather than assume success.
type FactResult struct {
	Facts            []string `json:"facts"`
	Entities         []string `json:"entities,omitempty"`
	Statistics       []string `json:"statistics,omitempty"`
	Summary          string   `json:"summary,omitempty"`
	KeyPoints        []string `json:"key_points,omitempty"`
	CapabilitiesUsed []string `json:"capabilities_used,omitempty"`
	Err              string   `json:"error,omitempty"`
	Raw              string   `json:"raw_response,omitempty"`
}

// Failed reports whether the result carries a soft error.
func (r *FactResult) Failed() bool { return r.Err != "" }

// FactExtractor extracts factual statements from text, optionally gathering
// supporting context through the web-search and encyclopedia capabilities first.
type FactExtractor struct {
	base
}

// FactExtractorOptions configure a FactExtractor.
type FactExtractorOptions struct {
	Logger logging.Logger
}

// NewFactExtractor creates a fact extraction agent over the given dispatcher
// and prompt registry.
func NewFactExtractor(d *dispatch.Dispatcher, prompts *prompt.Registry, optFns ...func(o *FactExtractorOptions)) *FactExtractor {
	opts := FactExtractorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &FactExtractor{base: base{
		name:         "FactExtractor",
		instructions: "You are a fact extraction agent. Extract key facts and information from text.",
		dispatcher:   d,
		prompts:      prompts,
		logger:       opts.Logger,
	}}
}

// ExtractFacts extracts structured facts from text.
//
// The returned error is non-nil only when the completion dispatch itself
// failed; a completion that came back but could not be parsed yields a
// result with Err and Raw populated instead.
func (a *FactExtractor) ExtractFacts(ctx context.Context, text string) (*FactResult, error) {
	completion, err := a.complete(ctx, prompt.TemplateFactExtraction, map[string]any{"text": text})
	if err != nil {
		return nil, err
	}
	return a.parse(completion, nil), nil
}

// ExtractFactsWithResearch gathers web search and encyclopedia material for
// the query through the dispatcher, then extracts facts from the combined
// material. Either research capability failing (or being unregistered) is
// tolerated: extraction proceeds with whatever material was gathered.
func (a *FactExtractor) ExtractFactsWithResearch(ctx context.Context, query string) (*FactResult, error) {
	var material string
	var used []string

	if env := a.dispatcher.Dispatch(ctx, capability.NameWebSearch, map[string]any{"query": query, "count": 3}); env.Success {
		material += "Web search results: " + compactJSON(env.Result) + "\n\n"
		used = append(used, capability.NameWebSearch)
	} else {
		a.logger.Warn("facts.research.web_search_failed", "error", env.Error.Message)
	}

	if env := a.dispatcher.Dispatch(ctx, capability.NameWikipedia, map[string]any{"query": query, "sentences": 5}); env.Success {
		material += "Wikipedia: " + compactJSON(env.Result) + "\n\n"
		used = append(used, capability.NameWikipedia)
	} else {
		a.logger.Warn("facts.research.wikipedia_failed", "error", env.Error.Message)
	}

	if material == "" {
		// Nothing gathered; fall back to plain extraction over the query text.
		return a.ExtractFacts(ctx, query)
	}

	completion, err := a.complete(ctx, prompt.TemplateFactResearch, map[string]any{
		"query":    query,
		"material": material,
	})
	if err != nil {
		return nil, err
	}
	return a.parse(completion, used), nil
}

func (a *FactExtractor) parse(completion string, used []string) *FactResult {
	var result FactResult
	if err := util.ExtractJSON(completion, &result); err != nil {
		a.logger.Warn("facts.parse_failed", "error", err.Error())
		return &FactResult{
			Err:              (&ParseError{Message: err.Error(), Raw: completion}).Error(),
			Raw:              completion,
			CapabilitiesUsed: used,
		}
	}
	result.CapabilitiesUsed = used
	return &result
}

// compactJSON renders v as compact JSON for inclusion in prompt material.
func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
