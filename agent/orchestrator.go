package agent

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hupe1980/mcpmesh/capability"
	"github.com/hupe1980/mcpmesh/dispatch"
	"github.com/hupe1980/mcpmesh/logging"
	"github.com/hupe1980/mcpmesh/prompt"
)

// Step source names used in plans and sources_used listings.
const (
	SourceFactExtraction    = "fact_extraction"
	SourceSentimentAnalysis = "sentiment_analysis"
	SourceWebSearch         = capability.NameWebSearch
	SourceWikipedia         = capability.NameWikipedia
)

// InsufficientInfoResponse is returned when no step produced usable material.
const InsufficientInfoResponse = "Insufficient information to answer the query."

// Plan is the outcome of classifying a query: which agents and capabilities
// to invoke, and the concrete steps. Built fresh per query and discarded
// after synthesis.
type Plan struct {
	NeedsFactExtraction    bool   `json:"needs_fact_extraction"`
	NeedsSentimentAnalysis bool   `json:"needs_sentiment_analysis"`
	NeedsWebSearch         bool   `json:"needs_web_search"`
	NeedsWikipedia         bool   `json:"needs_wikipedia"`
	Steps                  []Step `json:"steps"`
}

// Step names one agent-or-capability invocation with its input.
type Step struct {
	Source string `json:"source"`
	Input  string `json:"input"`
}

// StepOutcome records one executed step. Failed steps keep their error
// message for inspection but are excluded from synthesis.
type StepOutcome struct {
	Source string `json:"source"`
	OK     bool   `json:"ok"`
	Output any    `json:"output,omitempty"`
	Err    string `json:"error,omitempty"`
}

// Synthesis is the combined answer produced for one query. It is owned by
// the caller; the orchestrator retains nothing across queries.
type Synthesis struct {
	Query       string                 `json:"query"`
	QueryID     string                 `json:"query_id"`
	Response    string                 `json:"comprehensive_response"`
	Confidence  float64                `json:"confidence"`
	SourcesUsed []string               `json:"sources_used"`
	Plan        Plan                   `json:"plan"`
	Steps       map[string]StepOutcome `json:"detailed_results,omitempty"`
}

// Orchestrator is the top-level coordinator: Classify -> Execute ->
// Synthesize, terminal after Synthesize. A failure in any Execute step is
// recorded and excluded from synthesis; it never aborts the other steps, and
// HandleQuery never fails outright.
type Orchestrator struct {
	base
	facts     *FactExtractor
	sentiment *SentimentAnalyzer
}

// OrchestratorOptions configure an Orchestrator.
type OrchestratorOptions struct {
	Logger logging.Logger
}

// NewOrchestrator creates the orchestration agent. The fact extraction and
// sentiment analysis agents are built over the same dispatcher and prompt
// registry so every collaborator call flows through one dispatch path.
func NewOrchestrator(d *dispatch.Dispatcher, prompts *prompt.Registry, optFns ...func(o *OrchestratorOptions)) *Orchestrator {
	opts := OrchestratorOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	logger := opts.Logger
	return &Orchestrator{
		base: base{
			name:         "Orchestrator",
			instructions: "You are an orchestration agent. Coordinate multiple agents and tools to handle complex queries.",
			dispatcher:   d,
			prompts:      prompts,
			logger:       logger,
		},
		facts:     NewFactExtractor(d, prompts, func(o *FactExtractorOptions) { o.Logger = logger }),
		sentiment: NewSentimentAnalyzer(d, prompts, func(o *SentimentAnalyzerOptions) { o.Logger = logger }),
	}
}

// Classification keyword rules. Classification is a pure function of the
// query text; no external call happens before Execute.
var (
	sentimentKeywords = []string{
		"love", "hate", "like", "dislike", "feel", "feeling", "opinion",
		"amazing", "terrible", "awful", "great", "worst", "best",
		"recommend", "review", "sentiment", "happy", "angry", "sad",
	}
	factKeywords = []string{
		"what", "who", "when", "where", "why", "how",
		"fact", "facts", "tell me", "explain", "describe",
	}
	webSearchKeywords = []string{
		"latest", "news", "current", "recent", "today", "trend", "trends",
		"development", "developments", "update", "updates",
	}
	wikipediaKeywords = []string{
		"history", "background", "wikipedia", "encyclopedia",
		"define", "definition", "origin",
	}
)

// Classify evaluates the decision rules against the query and builds the
// plan. Steps are ordered deterministically but are mutually independent; no
// step's output feeds another step's input.
func (o *Orchestrator) Classify(query string) Plan {
	lower := strings.ToLower(query)

	plan := Plan{
		NeedsSentimentAnalysis: containsAny(lower, sentimentKeywords),
		NeedsFactExtraction:    containsAny(lower, factKeywords),
		NeedsWebSearch:         containsAny(lower, webSearchKeywords),
		// Queries naming an external entity get an encyclopedia lookup even
		// without an explicit keyword.
		NeedsWikipedia: containsAny(lower, wikipediaKeywords) || referencesEntity(query),
	}

	if plan.NeedsWebSearch {
		plan.Steps = append(plan.Steps, Step{Source: SourceWebSearch, Input: query})
	}
	if plan.NeedsWikipedia {
		plan.Steps = append(plan.Steps, Step{Source: SourceWikipedia, Input: query})
	}
	if plan.NeedsFactExtraction {
		plan.Steps = append(plan.Steps, Step{Source: SourceFactExtraction, Input: query})
	}
	if plan.NeedsSentimentAnalysis {
		plan.Steps = append(plan.Steps, Step{Source: SourceSentimentAnalysis, Input: query})
	}
	return plan
}

// HandleQuery runs the full Classify -> Execute -> Synthesize cycle. It
// always returns a well-formed Synthesis: the orchestration boundary is the
// last line of defense against an uncaught fault reaching the caller.
func (o *Orchestrator) HandleQuery(ctx context.Context, query string) (synthesis *Synthesis) {
	queryID := uuid.NewString()

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("orchestrator.panic", "query_id", queryID, "panic", r)
			synthesis = &Synthesis{
				Query:       query,
				QueryID:     queryID,
				Response:    InsufficientInfoResponse,
				Confidence:  0,
				SourcesUsed: []string{},
			}
		}
	}()

	plan := o.Classify(query)
	o.logger.Info("orchestrator.plan", "query_id", queryID, "steps", len(plan.Steps))

	outcomes := o.execute(ctx, plan)
	return o.synthesize(ctx, query, queryID, plan, outcomes)
}

// execute runs the plan's steps concurrently. Steps are independent, so
// completion order does not matter; outcomes are keyed by source name.
func (o *Orchestrator) execute(ctx context.Context, plan Plan) map[string]StepOutcome {
	outcomes := make(map[string]StepOutcome, len(plan.Steps))
	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)

	for _, step := range plan.Steps {
		wg.Add(1)
		go func(step Step) {
			defer wg.Done()
			outcome := o.runStep(ctx, plan, step)
			mu.Lock()
			outcomes[step.Source] = outcome
			mu.Unlock()
		}(step)
	}

	wg.Wait()
	return outcomes
}

func (o *Orchestrator) runStep(ctx context.Context, plan Plan, step Step) StepOutcome {
	outcome := StepOutcome{Source: step.Source}

	switch step.Source {
	case SourceWebSearch:
		env := o.dispatcher.Dispatch(ctx, capability.NameWebSearch, map[string]any{"query": step.Input, "count": 3})
		outcome.OK = env.Success
		outcome.Output = env.Result
		if env.Error != nil {
			outcome.Err = env.Error.Message
		}
	case SourceWikipedia:
		env := o.dispatcher.Dispatch(ctx, capability.NameWikipedia, map[string]any{"query": step.Input, "sentences": 5})
		outcome.OK = env.Success
		outcome.Output = env.Result
		if env.Error != nil {
			outcome.Err = env.Error.Message
		}
	case SourceFactExtraction:
		var (
			result *FactResult
			err    error
		)
		if plan.NeedsWebSearch || plan.NeedsWikipedia {
			result, err = o.facts.ExtractFactsWithResearch(ctx, step.Input)
		} else {
			result, err = o.facts.ExtractFacts(ctx, step.Input)
		}
		if err != nil {
			outcome.Err = err.Error()
		} else {
			outcome.OK = true
			outcome.Output = result
		}
	case SourceSentimentAnalysis:
		var (
			result *SentimentResult
			err    error
		)
		if plan.NeedsWebSearch {
			result, err = o.sentiment.AnalyzeSentimentWithContext(ctx, step.Input, step.Input)
		} else {
			result, err = o.sentiment.AnalyzeSentiment(ctx, step.Input)
		}
		if err != nil {
			outcome.Err = err.Error()
		} else {
			outcome.OK = true
			outcome.Output = result
		}
	default:
		outcome.Err = "unknown step source: " + step.Source
	}

	if !outcome.OK {
		o.logger.Warn("orchestrator.step_failed", "source", step.Source, "error", outcome.Err)
	}
	return outcome
}

// synthesize combines the successful step outputs into one response.
// Confidence is the fraction of planned steps that succeeded: strictly
// monotonic in success count, 0 when nothing was planned or nothing
// succeeded. SourcesUsed lists exactly the steps that succeeded.
func (o *Orchestrator) synthesize(ctx context.Context, query, queryID string, plan Plan, outcomes map[string]StepOutcome) *Synthesis {
	succeeded := make([]string, 0, len(outcomes))
	for source, outcome := range outcomes {
		if outcome.OK {
			succeeded = append(succeeded, source)
		}
	}
	sort.Strings(succeeded)

	s := &Synthesis{
		Query:       query,
		QueryID:     queryID,
		Plan:        plan,
		Steps:       outcomes,
		SourcesUsed: succeeded,
	}

	if len(plan.Steps) == 0 || len(succeeded) == 0 {
		s.Response = InsufficientInfoResponse
		s.Confidence = 0
		return s
	}

	s.Confidence = float64(len(succeeded)) / float64(len(plan.Steps))

	var material strings.Builder
	for _, source := range succeeded {
		material.WriteString(source + ": " + compactJSON(outcomes[source].Output) + "\n")
	}

	response, err := o.complete(ctx, prompt.TemplateSynthesis, map[string]any{
		"query":    query,
		"material": material.String(),
	})
	if err != nil || strings.TrimSpace(response) == "" {
		// The synthesis completion itself failed; fall back to the raw
		// material rather than failing the run.
		o.logger.Warn("orchestrator.synthesis_fallback", "query_id", queryID)
		s.Response = strings.TrimSpace(material.String())
		return s
	}

	s.Response = strings.TrimSpace(response)
	return s
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
