package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hupe1980/mcpmesh/capability"
	"github.com/hupe1980/mcpmesh/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDispatcher(t *testing.T, caps ...capability.Capability) *Dispatcher {
	t.Helper()
	registry := capability.NewRegistry()
	registry.MustRegister(caps...)
	return NewDispatcher(registry)
}

func sumCapability() *capability.Func {
	return capability.NewFunc("calculate_sum", "Adds two numbers", capability.Schema{
		{Name: "a", Type: capability.TypeNumber, Required: true},
		{Name: "b", Type: capability.TypeNumber, Required: true},
	}, func(_ context.Context, args map[string]any) (any, error) {
		return map[string]any{"sum": args["a"].(float64) + args["b"].(float64)}, nil
	})
}

// -------------------- Envelope Shape Tests --------------------

func TestDispatch_Success(t *testing.T) {
	d := newTestDispatcher(t, sumCapability())

	env := d.Dispatch(context.Background(), "calculate_sum", map[string]any{"a": 2.0, "b": 3.0})

	assert.True(t, env.Success)
	assert.Nil(t, env.Error)
	require.NotNil(t, env.Metadata)
	assert.Equal(t, "calculate_sum", env.Metadata.Capability)
	assert.NotEmpty(t, env.Metadata.DispatchID)
	assert.False(t, env.Metadata.Timestamp.IsZero())

	m, ok := env.ResultMap()
	require.True(t, ok)
	assert.Equal(t, 5.0, m["sum"])
}

func TestDispatch_UniqueDispatchIDs(t *testing.T) {
	d := newTestDispatcher(t, sumCapability())

	a := d.Dispatch(context.Background(), "calculate_sum", map[string]any{"a": 1.0, "b": 1.0})
	b := d.Dispatch(context.Background(), "calculate_sum", map[string]any{"a": 1.0, "b": 1.0})
	assert.NotEqual(t, a.Metadata.DispatchID, b.Metadata.DispatchID)
}

func TestDispatch_UnknownCapability(t *testing.T) {
	d := newTestDispatcher(t)

	env := d.Dispatch(context.Background(), "missing", nil)

	assert.False(t, env.Success)
	assert.Nil(t, env.Result)
	require.NotNil(t, env.Error)
	assert.Equal(t, KindUnknownCapability, env.Error.Kind)
	assert.Contains(t, env.Error.Message, "missing")
	require.NotNil(t, env.Metadata)
	assert.Equal(t, "missing", env.Metadata.Capability)
}

func TestDispatch_InvalidParametersNamesField(t *testing.T) {
	d := newTestDispatcher(t, sumCapability())

	env := d.Dispatch(context.Background(), "calculate_sum", map[string]any{"a": 2.0})
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, KindInvalidParameters, env.Error.Kind)
	assert.Contains(t, env.Error.Message, "'b'")

	env = d.Dispatch(context.Background(), "calculate_sum", map[string]any{"a": 2.0, "b": 3.0, "c": 4.0})
	require.NotNil(t, env.Error)
	assert.Equal(t, KindInvalidParameters, env.Error.Kind)
	assert.Contains(t, env.Error.Message, "'c'")
}

func TestDispatch_NullRequiredParameterRejected(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "example.txt"), []byte("hello"), 0o600))
	resources, err := resource.NewRegistry(dir, map[string]string{"example.txt": "example.txt"})
	require.NoError(t, err)

	d := newTestDispatcher(t, capability.NewFileReader(resources), sumCapability())

	// A null required argument is a validation failure naming the field; it
	// must never reach the capability body and come back as a recovered
	// runtime fault.
	env := d.Dispatch(context.Background(), capability.NameFileReader, map[string]any{"filename": nil})
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, KindInvalidParameters, env.Error.Kind)
	assert.Contains(t, env.Error.Message, "'filename'")

	env = d.Dispatch(context.Background(), "calculate_sum", map[string]any{"a": nil, "b": 2.0})
	require.NotNil(t, env.Error)
	assert.Equal(t, KindInvalidParameters, env.Error.Kind)
	assert.Contains(t, env.Error.Message, "'a'")
}

func TestDispatch_NilParamsTreatedAsEmpty(t *testing.T) {
	c := capability.NewFunc("ping", "Returns pong", capability.Schema{}, func(_ context.Context, _ map[string]any) (any, error) {
		return map[string]any{"pong": true}, nil
	})
	d := newTestDispatcher(t, c)

	env := d.Dispatch(context.Background(), "ping", nil)
	assert.True(t, env.Success)
}

func TestDispatch_ExecutionError(t *testing.T) {
	c := capability.NewFunc("failing", "Always fails", capability.Schema{}, func(_ context.Context, _ map[string]any) (any, error) {
		return nil, errors.New("backend down")
	})
	d := newTestDispatcher(t, c)

	env := d.Dispatch(context.Background(), "failing", nil)

	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, KindExecutionError, env.Error.Kind)
	assert.Contains(t, env.Error.Message, "backend down")
}

func TestDispatch_PanicRecovered(t *testing.T) {
	c := capability.NewFunc("panicking", "Always panics", capability.Schema{}, func(_ context.Context, _ map[string]any) (any, error) {
		panic("boom")
	})
	d := newTestDispatcher(t, c)

	var env *Envelope
	assert.NotPanics(t, func() {
		env = d.Dispatch(context.Background(), "panicking", nil)
	})
	require.NotNil(t, env.Error)
	assert.Equal(t, KindExecutionError, env.Error.Kind)
	assert.Contains(t, env.Error.Message, "boom")
}

func TestDispatch_DefaultsReachExecution(t *testing.T) {
	var got map[string]any
	c := capability.NewFunc("probe", "Records its arguments", capability.Schema{
		{Name: "limit", Type: capability.TypeInteger, Default: 10},
	}, func(_ context.Context, args map[string]any) (any, error) {
		got = args
		return map[string]any{"ok": true}, nil
	})
	d := newTestDispatcher(t, c)

	env := d.Dispatch(context.Background(), "probe", map[string]any{})
	require.True(t, env.Success)
	assert.Equal(t, 10, got["limit"])
}

func TestEnvelope_ExactlyOneOfResultAndError(t *testing.T) {
	d := newTestDispatcher(t, sumCapability())

	success := d.Dispatch(context.Background(), "calculate_sum", map[string]any{"a": 1.0, "b": 2.0})
	assert.NotNil(t, success.Result)
	assert.Nil(t, success.Error)

	failure := d.Dispatch(context.Background(), "calculate_sum", nil)
	assert.Nil(t, failure.Result)
	assert.NotNil(t, failure.Error)
}

func TestEnvelope_JSONShape(t *testing.T) {
	d := newTestDispatcher(t, sumCapability())
	env := d.Dispatch(context.Background(), "calculate_sum", map[string]any{"a": 1.0, "b": 2.0})

	b, err := json.Marshal(env)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(b, &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Contains(t, decoded, "result")
	assert.NotContains(t, decoded, "error")
	meta := decoded["metadata"].(map[string]any)
	assert.Equal(t, "calculate_sum", meta["capability_name"])
	assert.Contains(t, meta, "dispatch_id")
	assert.Contains(t, meta, "timestamp")
}

func TestEnvelope_Err(t *testing.T) {
	d := newTestDispatcher(t)

	env := d.Dispatch(context.Background(), "missing", nil)
	err := env.Err()
	require.Error(t, err)
	assert.Contains(t, err.Error(), KindUnknownCapability)

	d = newTestDispatcher(t, sumCapability())
	env = d.Dispatch(context.Background(), "calculate_sum", map[string]any{"a": 1.0, "b": 2.0})
	assert.NoError(t, env.Err())
}

// -------------------- End-to-End Resource Dispatch --------------------

func TestDispatch_FileReader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "example.txt"), []byte("hello"), 0o600))

	resources, err := resource.NewRegistry(dir, map[string]string{"example.txt": "example.txt"})
	require.NoError(t, err)

	d := newTestDispatcher(t, capability.NewFileReader(resources))

	env := d.Dispatch(context.Background(), capability.NameFileReader, map[string]any{"filename": "example.txt"})
	require.True(t, env.Success, "dispatch failed: %+v", env.Error)

	m, ok := env.ResultMap()
	require.True(t, ok)
	assert.Equal(t, "hello", m["content"])

	// An unregistered resource surfaces as an execution error, not a panic.
	env = d.Dispatch(context.Background(), capability.NameFileReader, map[string]any{"filename": "other.txt"})
	require.NotNil(t, env.Error)
	assert.Equal(t, KindExecutionError, env.Error.Kind)
}
