// Package agent contains the client-side agents layered above the
// dispatcher: fact extraction and sentiment analysis wrap completion
// dispatches behind domain-specific contracts that return structured, parsed
// output, and the orchestrator classifies a free-form query, executes the
// needed agents and capabilities, and synthesizes one combined answer.
//
// Agents never bypass the dispatcher: every collaborator interaction, the
// completion backend included, goes through a capability dispatch.
package agent

import (
	"context"
	"fmt"
	"regexp"

	"github.com/hupe1980/mcpmesh/capability"
	"github.com/hupe1980/mcpmesh/dispatch"
	"github.com/hupe1980/mcpmesh/logging"
	"github.com/hupe1980/mcpmesh/prompt"
)

// ParseError reports that a completion's text could not be interpreted as
// the expected structure. Agents absorb it into an inspectable result field
// rather than propagating a hard failure: completion text is inherently
// unreliable and the agent boundary is where that unreliability stops.
type ParseError struct {
	Message string `json:"message"`
	Raw     string `json:"raw"`
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s", e.Message)
}

// base bundles the collaborators every specialized agent needs.
type base struct {
	name         string
	instructions string
	dispatcher   *dispatch.Dispatcher
	prompts      *prompt.Registry
	logger       logging.Logger
}

// complete formats the named template with vars and dispatches the
// completion-generation capability, returning the raw completion text.
func (b *base) complete(ctx context.Context, templateName string, vars map[string]any) (string, error) {
	promptText, err := b.prompts.Format(templateName, vars)
	if err != nil {
		return "", fmt.Errorf("formatting %s prompt: %w", templateName, err)
	}

	env := b.dispatcher.Dispatch(ctx, capability.NameCompletion, map[string]any{
		"prompt":       promptText,
		"instructions": b.instructions,
	})
	if err := env.Err(); err != nil {
		return "", err
	}

	result, _ := env.ResultMap()
	text, _ := result["text"].(string)
	return text, nil
}

// properNounRe matches multi-word capitalized sequences, the crude signal
// that the input references a named external entity worth researching.
var properNounRe = regexp.MustCompile(`\b[A-Z][a-z]+(?: [A-Z][a-z]+)+\b`)

// referencesEntity reports whether text likely mentions an external entity.
// A heuristic, not guaranteed precise; it only widens the plan with an extra
// lookup, never narrows it.
func referencesEntity(text string) bool {
	return properNounRe.MatchString(text)
}
