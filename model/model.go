// Package model defines the completion-generation contract consumed by the
// capability layer, plus a deterministic in-memory implementation for tests
// and examples. Concrete providers live in the subpackages openai, anthropic
// and gemini.
package model

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Request captures the normalized completion input produced by agents and the
// completion capability. Streaming is deliberately not modeled: callers get
// the full completion or an error.
type Request struct {
	Prompt       string `json:"prompt"`                 // User-facing prompt text
	Instructions string `json:"instructions,omitempty"` // System / role instructions
	MaxTokens    int64  `json:"max_tokens,omitempty"`   // Length hint; 0 means provider default
}

// TokenUsage captures token usage statistics for a completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "gemini", "mock"
}

// Response is the full completion returned by a provider.
type Response struct {
	Text  string      `json:"text"`
	Usage *TokenUsage `json:"usage,omitempty"`
}

// Model is the minimal interface the capability layer requires from a
// completion backend. Implementations must bound their own call duration
// (timeouts) so a slow collaborator fails instead of hanging; such failures
// surface to dispatch callers as execution errors.
type Model interface {
	Complete(ctx context.Context, req Request) (Response, error)

	// Info returns information about the model implementation.
	Info() Info
}

// MockModel is a lightweight in-memory Model useful for tests and examples.
// Responses are matched on prompt substring so templated prompts can be
// targeted without reproducing the full text.
type MockModel struct {
	mu        sync.Mutex
	info      Info
	responses []cannedResponse
	fail      error
	calls     int
	prompts   []string
}

type cannedResponse struct {
	substring string
	text      string
}

// NewMockModel constructs an empty MockModel.
func NewMockModel() *MockModel {
	return &MockModel{info: Info{Name: "mock", Provider: "mock"}}
}

// AddResponse registers a canned completion returned for any prompt that
// contains substring. Earlier registrations win.
func (m *MockModel) AddResponse(substring, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, cannedResponse{substring: substring, text: text})
}

// FailWith makes every subsequent Complete call return err.
func (m *MockModel) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Calls reports how many Complete calls were made.
func (m *MockModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Prompts returns a copy of the prompts received so far, in call order.
func (m *MockModel) Prompts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.prompts))
	copy(out, m.prompts)
	return out
}

// Complete implements Model.
func (m *MockModel) Complete(ctx context.Context, req Request) (Response, error) {
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.prompts = append(m.prompts, req.Prompt)
	if m.fail != nil {
		return Response{}, m.fail
	}
	for _, c := range m.responses {
		if c.substring == "" || strings.Contains(req.Prompt, c.substring) {
			return Response{Text: c.text}, nil
		}
	}
	return Response{Text: fmt.Sprintf("Mock response to: %s", req.Prompt)}, nil
}

// Info implements Model.
func (m *MockModel) Info() Info { return m.info }
