package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockModel_SubstringMatching(t *testing.T) {
	m := NewMockModel()
	m.AddResponse("capital of France", "Paris")
	m.AddResponse("capital", "some capital")

	resp, err := m.Complete(context.Background(), Request{Prompt: "What is the capital of France?"})
	require.NoError(t, err)
	assert.Equal(t, "Paris", resp.Text, "earlier registrations win")

	resp, err = m.Complete(context.Background(), Request{Prompt: "Name any capital city"})
	require.NoError(t, err)
	assert.Equal(t, "some capital", resp.Text)
}

func TestMockModel_DefaultResponse(t *testing.T) {
	m := NewMockModel()

	resp, err := m.Complete(context.Background(), Request{Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: hello", resp.Text)
}

func TestMockModel_FailWith(t *testing.T) {
	m := NewMockModel()
	boom := errors.New("rate limited")
	m.FailWith(boom)

	_, err := m.Complete(context.Background(), Request{Prompt: "hello"})
	assert.ErrorIs(t, err, boom)
}

func TestMockModel_RecordsCalls(t *testing.T) {
	m := NewMockModel()

	_, _ = m.Complete(context.Background(), Request{Prompt: "one"})
	_, _ = m.Complete(context.Background(), Request{Prompt: "two"})

	assert.Equal(t, 2, m.Calls())
	assert.Equal(t, []string{"one", "two"}, m.Prompts())
}

func TestMockModel_RespectsContext(t *testing.T) {
	m := NewMockModel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Complete(ctx, Request{Prompt: "hello"})
	assert.Error(t, err)
}

func TestMockModel_Info(t *testing.T) {
	m := NewMockModel()
	assert.Equal(t, Info{Name: "mock", Provider: "mock"}, m.Info())
}
