package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hupe1980/mcpmesh/agent"
	"github.com/hupe1980/mcpmesh/capability"
	"github.com/hupe1980/mcpmesh/dispatch"
	"github.com/hupe1980/mcpmesh/model"
	"github.com/hupe1980/mcpmesh/prompt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *model.MockModel) {
	t.Helper()

	mock := model.NewMockModel()
	prompts := prompt.NewBuiltinRegistry()

	registry := capability.NewRegistry()
	registry.MustRegister(
		capability.NewCompletion(mock),
		capability.NewFormatPrompt(prompts),
		capability.NewProcessData(),
	)
	d := dispatch.NewDispatcher(registry)
	orch := agent.NewOrchestrator(d, prompts)

	srv := New(d, orch, func(o *Options) { o.Version = "test" })
	return srv, mock
}

func do(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m))
	return m
}

// -------------------- Discovery Endpoint Tests --------------------

func TestIndex(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mcpmesh")
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode(t, rec)
	assert.Equal(t, "healthy", m["status"])
	assert.Equal(t, "test", m["version"])
	assert.Contains(t, m, "timestamp")

	caps, ok := m["available_capabilities"].([]any)
	require.True(t, ok)
	assert.Contains(t, caps, capability.NameCompletion)
}

func TestCapabilities(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodGet, "/capabilities", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode(t, rec)
	caps, ok := m["capabilities"].([]any)
	require.True(t, ok)
	require.Len(t, caps, 3)

	first := caps[0].(map[string]any)
	assert.Equal(t, capability.NameFormatPrompt, first["name"])
	assert.Contains(t, first, "description")
	assert.Contains(t, first, "parameter_schema")
}

// -------------------- Dispatch Endpoint Tests --------------------

func TestDispatchEndpoint_Success(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/mcp", map[string]any{
		"capability": capability.NameProcessData,
		"parameters": map[string]any{
			"data":      map[string]any{"k": "v"},
			"operation": "count",
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode(t, rec)
	assert.Equal(t, true, m["success"])
	result := m["result"].(map[string]any)
	assert.Equal(t, float64(1), result["count"])
	meta := m["metadata"].(map[string]any)
	assert.Equal(t, capability.NameProcessData, meta["capability_name"])
}

func TestDispatchEndpoint_ToolAlias(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/mcp", map[string]any{
		"tool": capability.NameProcessData,
		"parameters": map[string]any{
			"data": map[string]any{"k": "v"},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["success"])
}

func TestDispatchEndpoint_UnknownCapability(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/mcp", map[string]any{"capability": "missing"})
	require.Equal(t, http.StatusOK, rec.Code, "protocol errors ride a well-formed envelope, not a transport status")

	m := decode(t, rec)
	assert.Equal(t, false, m["success"])
	errInfo := m["error"].(map[string]any)
	assert.Equal(t, dispatch.KindUnknownCapability, errInfo["kind"])
}

func TestDispatchEndpoint_InvalidParameters(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/mcp", map[string]any{
		"capability": capability.NameProcessData,
		"parameters": map[string]any{"bogus": true},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode(t, rec)
	errInfo := m["error"].(map[string]any)
	assert.Equal(t, dispatch.KindInvalidParameters, errInfo["kind"])
	assert.Contains(t, errInfo["message"], "bogus")
}

func TestDispatchEndpoint_MissingName(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/mcp", map[string]any{"parameters": map[string]any{}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	m := decode(t, rec)
	assert.Equal(t, false, m["success"])
}

func TestDispatchEndpoint_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/mcp", bytes.NewReader([]byte("{broken")))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// -------------------- Prompt Endpoint Tests --------------------

func TestPromptEndpoint_RegisteredTemplate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/prompt", map[string]any{
		"template":  prompt.TemplateSummarize,
		"variables": map[string]any{"text": "some long text"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode(t, rec)
	assert.Equal(t, "Summarize the following text: some long text", m["formatted"])
}

func TestPromptEndpoint_InlineTemplate(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/prompt", map[string]any{
		"template":  "Hello {name}",
		"variables": map[string]any{"name": "Ada"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello Ada", decode(t, rec)["formatted"])
}

func TestPromptEndpoint_MissingVariable(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/prompt", map[string]any{
		"template": "Hello {name}",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	m := decode(t, rec)
	assert.Equal(t, false, m["success"])
	errInfo := m["error"].(map[string]any)
	assert.Contains(t, errInfo["message"], "name")
}

// -------------------- Query Endpoint Tests --------------------

func TestQueryEndpoint(t *testing.T) {
	srv, mock := newTestServer(t)
	mock.AddResponse("Extract all salient factual", `{"facts": ["a fact"]}`)
	mock.AddResponse("Synthesize one comprehensive", "Here is the combined answer.")

	rec := do(t, srv, http.MethodPost, "/query", map[string]any{
		"query": "What are the facts about Go?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	m := decode(t, rec)
	assert.Equal(t, "What are the facts about Go?", m["query"])
	assert.NotEmpty(t, m["query_id"])
	assert.Equal(t, "Here is the combined answer.", m["comprehensive_response"])
	assert.Equal(t, 1.0, m["confidence"])
	assert.Equal(t, []any{agent.SourceFactExtraction}, m["sources_used"])
}

func TestQueryEndpoint_MissingQuery(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv, http.MethodPost, "/query", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
