package capability

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -------------------- Schema & Validation Tests --------------------

func testSchema() Schema {
	return Schema{
		{Name: "query", Type: TypeString, Description: "Search query", Required: true},
		{Name: "count", Type: TypeInteger, Description: "Result limit", Default: 3},
		{Name: "strict", Type: TypeBoolean, Description: "Strict matching"},
	}
}

func TestSchemaValidate_Success(t *testing.T) {
	out, err := testSchema().Validate(map[string]any{"query": "golang", "count": 5})
	require.NoError(t, err)
	assert.Equal(t, "golang", out["query"])
	assert.Equal(t, 5, out["count"])
	_, ok := out["strict"]
	assert.False(t, ok, "optional parameter without default must stay absent")
}

func TestSchemaValidate_AppliesDefaults(t *testing.T) {
	out, err := testSchema().Validate(map[string]any{"query": "golang"})
	require.NoError(t, err)
	assert.Equal(t, 3, out["count"])
}

func TestSchemaValidate_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{"query": "golang"}
	_, err := testSchema().Validate(in)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"query": "golang"}, in)
}

func TestSchemaValidate_MissingRequired(t *testing.T) {
	_, err := testSchema().Validate(map[string]any{"count": 2})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "query", vErr.Field)
	assert.Contains(t, vErr.Message, "required")
}

func TestSchemaValidate_UnknownParameter(t *testing.T) {
	_, err := testSchema().Validate(map[string]any{"query": "golang", "querry": "typo"})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "querry", vErr.Field)
	assert.Contains(t, vErr.Message, "unknown parameter")
}

func TestSchemaValidate_UnknownParameterDeterministicOrder(t *testing.T) {
	// With several unknown parameters the first in lexicographic order is
	// reported, so the failure is stable across runs.
	for range 10 {
		_, err := testSchema().Validate(map[string]any{
			"query": "golang", "zeta": 1, "alpha": 2, "mid": 3,
		})
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "alpha", vErr.Field)
	}
}

func TestSchemaValidate_WrongType(t *testing.T) {
	_, err := testSchema().Validate(map[string]any{"query": 42})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "query", vErr.Field)
	assert.Contains(t, vErr.Message, "expected type string")
}

func TestSchemaValidate_IntegerAcceptsWholeFloat(t *testing.T) {
	// JSON decoding yields float64 for every number; whole values pass as
	// integers, fractional values do not.
	out, err := testSchema().Validate(map[string]any{"query": "x", "count": float64(7)})
	require.NoError(t, err)
	assert.Equal(t, float64(7), out["count"])

	_, err = testSchema().Validate(map[string]any{"query": "x", "count": 7.5})
	require.Error(t, err)
}

func TestSchemaValidate_NullRequiredRejected(t *testing.T) {
	// A JSON null must never reach a capability body expecting a concrete
	// type; it fails validation naming the field, like a missing value.
	_, err := testSchema().Validate(map[string]any{"query": nil})
	require.Error(t, err)

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "query", vErr.Field)
	assert.Contains(t, vErr.Message, "null")
}

func TestSchemaValidate_NullOptionalFallsBackToDefault(t *testing.T) {
	out, err := testSchema().Validate(map[string]any{"query": "x", "count": nil, "strict": nil})
	require.NoError(t, err)
	assert.Equal(t, 3, out["count"], "null optional takes the declared default")
	_, ok := out["strict"]
	assert.False(t, ok, "null optional without default stays absent")
}

func TestSchemaValidate_ObjectAndArray(t *testing.T) {
	s := Schema{
		{Name: "data", Type: TypeObject, Required: true},
		{Name: "tags", Type: TypeArray},
	}
	_, err := s.Validate(map[string]any{
		"data": map[string]any{"k": "v"},
		"tags": []any{"a", "b"},
	})
	assert.NoError(t, err)

	_, err = s.Validate(map[string]any{"data": []any{"not", "object"}})
	assert.Error(t, err)
}

func TestSchemaMarshalJSON(t *testing.T) {
	b, err := json.Marshal(testSchema())
	require.NoError(t, err)

	var m map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &m))
	require.Contains(t, m, "query")
	assert.Equal(t, "string", m["query"]["type"])
	assert.Equal(t, true, m["query"]["required"])
	assert.Equal(t, float64(3), m["count"]["default"])
}

// -------------------- Registry Tests --------------------

func echoCapability(name string) *Func {
	return NewFunc(name, "Echoes its arguments", Schema{
		{Name: "value", Type: TypeString, Required: true},
	}, func(_ context.Context, args map[string]any) (any, error) {
		return map[string]any{"value": args["value"]}, nil
	})
}

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoCapability("echo")))

	c, err := r.Get("echo")
	require.NoError(t, err)
	assert.Equal(t, "echo", c.Name())
}

func TestRegistry_DuplicateName(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoCapability("echo")))

	err := r.Register(echoCapability("echo"))
	require.Error(t, err)

	var dupErr *DuplicateNameError
	require.ErrorAs(t, err, &dupErr)
	assert.Equal(t, "echo", dupErr.Name)
}

func TestRegistry_GetUnknown(t *testing.T) {
	r := NewRegistry()

	_, err := r.Get("missing")
	require.Error(t, err)

	var nfErr *NotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "missing", nfErr.Name)
}

func TestRegistry_NamesAndListSorted(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoCapability("zeta"), echoCapability("alpha"), echoCapability("mid"))

	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Names())

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "zeta", list[2].Name)
	assert.Equal(t, "Echoes its arguments", list[0].Description)
	assert.NotEmpty(t, list[0].Schema)
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(echoCapability("echo"))
	assert.Panics(t, func() { r.MustRegister(echoCapability("echo")) })
}

// -------------------- Func Tests --------------------

func TestFunc_Execute(t *testing.T) {
	c := echoCapability("echo")

	out, err := c.Execute(context.Background(), map[string]any{"value": "hi"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"value": "hi"}, out)
}

func TestFunc_ExecuteError(t *testing.T) {
	boom := errors.New("backend down")
	c := NewFunc("failing", "Always fails", Schema{}, func(_ context.Context, _ map[string]any) (any, error) {
		return nil, boom
	})

	_, err := c.Execute(context.Background(), map[string]any{})
	assert.ErrorIs(t, err, boom)
}
