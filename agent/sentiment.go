package agent

import (
	"context"
	"strings"

	"github.com/hupe1980/mcpmesh/capability"
	"github.com/hupe1980/mcpmesh/dispatch"
	"github.com/hupe1980/mcpmesh/internal/util"
	"github.com/hupe1980/mcpmesh/logging"
	"github.com/hupe1980/mcpmesh/prompt"
)

// Sentiment labels form a fixed closed set.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
	SentimentMixed    = "mixed"
)

// SentimentResult is the structured output of a sentiment analysis. As with
// FactResult, a completion that could not be parsed is absorbed into Err and
// Raw with a neutral fallback label rather than raised.
type SentimentResult struct {
	Sentiment     string   `json:"sentiment"`
	Confidence    float64  `json:"confidence"`
	Tone          []string `json:"tone,omitempty"`
	Justification string   `json:"justification,omitempty"`
	Err           string   `json:"error,omitempty"`
	Raw           string   `json:"raw_response,omitempty"`
}

// Failed reports whether the result carries a soft error.
func (r *SentimentResult) Failed() bool { return r.Err != "" }

// SentimentAnalyzer analyzes the emotional tone of text, optionally enriched
// with web search context about a research topic.
type SentimentAnalyzer struct {
	base
}

// SentimentAnalyzerOptions configure a SentimentAnalyzer.
type SentimentAnalyzerOptions struct {
	Logger logging.Logger
}

// NewSentimentAnalyzer creates a sentiment analysis agent over the given
// dispatcher and prompt registry.
func NewSentimentAnalyzer(d *dispatch.Dispatcher, prompts *prompt.Registry, optFns ...func(o *SentimentAnalyzerOptions)) *SentimentAnalyzer {
	opts := SentimentAnalyzerOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &SentimentAnalyzer{base: base{
		name:         "SentimentAnalyzer",
		instructions: "You are a sentiment analysis agent. Analyze emotional tone and sentiment in text.",
		dispatcher:   d,
		prompts:      prompts,
		logger:       opts.Logger,
	}}
}

// AnalyzeSentiment analyzes the sentiment of text. The returned error is
// non-nil only when the completion dispatch failed; an unparseable
// completion yields a neutral result with Err and Raw populated.
func (a *SentimentAnalyzer) AnalyzeSentiment(ctx context.Context, text string) (*SentimentResult, error) {
	return a.analyze(ctx, text, "No additional context")
}

// AnalyzeSentimentWithContext first gathers web search material about topic
// through the dispatcher and folds it into the analysis prompt. A failed (or
// unregistered) search is tolerated.
func (a *SentimentAnalyzer) AnalyzeSentimentWithContext(ctx context.Context, text, topic string) (*SentimentResult, error) {
	contextText := "No additional context"
	if topic != "" {
		env := a.dispatcher.Dispatch(ctx, capability.NameWebSearch, map[string]any{
			"query": topic + " sentiment trends opinions",
			"count": 2,
		})
		if env.Success {
			contextText = "Web search results: " + compactJSON(env.Result)
		} else {
			a.logger.Warn("sentiment.context.web_search_failed", "error", env.Error.Message)
		}
	}
	return a.analyze(ctx, text, contextText)
}

func (a *SentimentAnalyzer) analyze(ctx context.Context, text, contextText string) (*SentimentResult, error) {
	completion, err := a.complete(ctx, prompt.TemplateSentimentAnalysis, map[string]any{
		"text":    text,
		"context": contextText,
	})
	if err != nil {
		return nil, err
	}

	var result SentimentResult
	if err := util.ExtractJSON(completion, &result); err != nil {
		a.logger.Warn("sentiment.parse_failed", "error", err.Error())
		return &SentimentResult{
			Sentiment: SentimentNeutral,
			Err:       (&ParseError{Message: err.Error(), Raw: completion}).Error(),
			Raw:       completion,
		}, nil
	}

	normalize(&result)
	return &result, nil
}

// normalize forces the label into the closed set and clamps confidence to
// [0,1]. An unrecognized label degrades to neutral instead of leaking
// whatever the model produced.
func normalize(r *SentimentResult) {
	switch strings.ToLower(strings.TrimSpace(r.Sentiment)) {
	case SentimentPositive:
		r.Sentiment = SentimentPositive
	case SentimentNegative:
		r.Sentiment = SentimentNegative
	case SentimentMixed:
		r.Sentiment = SentimentMixed
	default:
		r.Sentiment = SentimentNeutral
	}
	if r.Confidence < 0 {
		r.Confidence = 0
	}
	if r.Confidence > 1 {
		r.Confidence = 1
	}
}
