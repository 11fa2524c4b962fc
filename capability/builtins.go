package capability

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/hupe1980/mcpmesh/model"
	"github.com/hupe1980/mcpmesh/prompt"
	"github.com/hupe1980/mcpmesh/resource"
	"github.com/hupe1980/mcpmesh/search"
)

// Built-in capability names.
const (
	NameFileReader   = "file_reader"
	NameWebSearch    = "web_search"
	NameWikipedia    = "wikipedia"
	NameCompletion   = "generate_completion"
	NameFormatPrompt = "format_prompt"
	NameProcessData  = "process_data"
)

// NewFileReader returns the file-read capability backed by the resource
// registry. Filenames are logical resource names, never filesystem paths.
func NewFileReader(resources *resource.Registry) *Func {
	return NewFunc(
		NameFileReader,
		"Read the content of a named resource file",
		Schema{
			{Name: "filename", Type: TypeString, Description: "Logical name of the resource to read", Required: true},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			filename := args["filename"].(string)
			content, err := resources.ResolveString(filename)
			if err != nil {
				return nil, err
			}
			return map[string]any{"content": content}, nil
		},
	)
}

// NewWebSearch returns the web-search capability wrapping the given backend.
func NewWebSearch(searcher search.WebSearcher) *Func {
	return NewFunc(
		NameWebSearch,
		"Search the web and return ranked results",
		Schema{
			{Name: "query", Type: TypeString, Description: "Search query", Required: true},
			{Name: "count", Type: TypeInteger, Description: "Maximum number of results", Default: 3},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			query := args["query"].(string)
			count, _ := intArg(args, "count")
			results, err := searcher.Search(ctx, query, count)
			if err != nil {
				return nil, err
			}
			return map[string]any{"query": query, "results": results}, nil
		},
	)
}

// NewWikipedia returns the encyclopedia-lookup capability wrapping the given backend.
func NewWikipedia(enc search.Encyclopedia) *Func {
	return NewFunc(
		NameWikipedia,
		"Look up an encyclopedia summary for a topic",
		Schema{
			{Name: "query", Type: TypeString, Description: "Topic to look up", Required: true},
			{Name: "sentences", Type: TypeInteger, Description: "Maximum summary length in sentences", Default: 5},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			query := args["query"].(string)
			sentences, _ := intArg(args, "sentences")
			summary, err := enc.Lookup(ctx, query, sentences)
			if err != nil {
				return nil, err
			}
			return map[string]any{
				"title":   summary.Title,
				"summary": summary.Summary,
				"url":     summary.URL,
			}, nil
		},
	)
}

// NewCompletion returns the completion-generation capability wrapping the
// given model backend. Provider failures (unreachable, rate limited,
// malformed responses) surface as execution errors at the dispatch boundary.
func NewCompletion(m model.Model) *Func {
	return NewFunc(
		NameCompletion,
		"Generate a text completion for a prompt",
		Schema{
			{Name: "prompt", Type: TypeString, Description: "Prompt text", Required: true},
			{Name: "instructions", Type: TypeString, Description: "Optional system instructions"},
			{Name: "max_tokens", Type: TypeInteger, Description: "Length hint for the completion"},
		},
		func(ctx context.Context, args map[string]any) (any, error) {
			req := model.Request{Prompt: args["prompt"].(string)}
			if instructions, ok := args["instructions"].(string); ok {
				req.Instructions = instructions
			}
			if maxTokens, ok := intArg(args, "max_tokens"); ok {
				req.MaxTokens = int64(maxTokens)
			}
			resp, err := m.Complete(ctx, req)
			if err != nil {
				return nil, err
			}
			return map[string]any{"text": resp.Text, "model": m.Info().Name}, nil
		},
	)
}

// NewFormatPrompt returns the prompt-formatting capability. The template
// argument is a registered template name; unregistered names are treated as
// inline template text so callers can format ad hoc templates, matching the
// prompt endpoint behavior.
func NewFormatPrompt(prompts *prompt.Registry) *Func {
	return NewFunc(
		NameFormatPrompt,
		"Format a prompt template with variables",
		Schema{
			{Name: "template", Type: TypeString, Description: "Template name or inline template text", Required: true},
			{Name: "variables", Type: TypeObject, Description: "Placeholder values", Default: map[string]any{}},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			tmpl := args["template"].(string)
			vars, _ := args["variables"].(map[string]any)

			formatted, err := prompts.Format(tmpl, vars)
			if err != nil {
				var notFound *prompt.NotFoundError
				if !errors.As(err, &notFound) {
					return nil, err
				}
				if formatted, err = prompt.FormatString(tmpl, vars); err != nil {
					return nil, err
				}
			}
			return map[string]any{"formatted": formatted}, nil
		},
	)
}

// NewProcessData returns the structured-data-processing capability: local,
// deterministic inspection of a JSON-object payload.
func NewProcessData() *Func {
	return NewFunc(
		NameProcessData,
		"Inspect structured data: summarize, list keys or count entries",
		Schema{
			{Name: "data", Type: TypeObject, Description: "JSON object to process", Required: true},
			{Name: "operation", Type: TypeString, Description: "One of summarize, keys, count", Default: "summarize"},
		},
		func(_ context.Context, args map[string]any) (any, error) {
			data := args["data"].(map[string]any)
			operation := args["operation"].(string)

			keys := make([]string, 0, len(data))
			for k := range data {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			switch operation {
			case "count":
				return map[string]any{"operation": operation, "count": len(data)}, nil
			case "keys":
				return map[string]any{"operation": operation, "keys": keys}, nil
			case "summarize":
				types := make(map[string]string, len(data))
				for _, k := range keys {
					types[k] = jsonTypeName(data[k])
				}
				return map[string]any{
					"operation": operation,
					"count":     len(data),
					"keys":      keys,
					"types":     types,
					"summary":   fmt.Sprintf("object with %d fields: %s", len(data), strings.Join(keys, ", ")),
				}, nil
			default:
				return nil, fmt.Errorf("unsupported operation: %s", operation)
			}
		},
	)
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, int, int64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
