package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) Tool {
	return Tool{
		Name:        name,
		Description: "echoes the input",
		Schema: Schema{
			"text":  {Type: "string", Description: "text to echo", Required: true},
			"count": {Type: "integer", Description: "repeat count"},
		},
		Handler: func(ctx context.Context, args Args) (string, error) {
			return args.String("text"), nil
		},
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := NewRegistry()

	require.NoError(t, r.Register(echoTool("echo")))
	err := r.Register(echoTool("echo"))
	assert.ErrorContains(t, err, "already registered")
}

func TestDefinitionsPreserveRegistrationOrder(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("zeta")))
	require.NoError(t, r.Register(echoTool("alpha")))
	require.NoError(t, r.Register(echoTool("mid")))

	defs := r.Definitions()
	require.Len(t, defs, 3)
	assert.Equal(t, "zeta", defs[0].Name)
	assert.Equal(t, "alpha", defs[1].Name)
	assert.Equal(t, "mid", defs[2].Name)
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()

	_, err := r.Execute(context.Background(), "nope", nil)
	assert.ErrorContains(t, err, "tool not found")
}

func TestExecuteValidatesArguments(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{"missing required", map[string]any{}, "missing required argument: text"},
		{"wrong type", map[string]any{"text": 42}, "expected string"},
		{"unknown argument", map[string]any{"text": "hi", "bogus": 1}, "unknown argument: bogus"},
		{"non-integral number", map[string]any{"text": "hi", "count": 1.5}, "expected integer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Execute(context.Background(), "echo", tt.args)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestExecuteAcceptsJSONNumbers(t *testing.T) {
	// JSON decoding yields float64 for integers; whole values pass
	// integer validation.
	r := NewRegistry()
	require.NoError(t, r.Register(echoTool("echo")))

	result, err := r.Execute(context.Background(), "echo", map[string]any{
		"text":  "hi",
		"count": float64(3),
	})
	require.NoError(t, err)
	assert.Equal(t, "hi", result)
}

func TestExecutePropagatesHandlerError(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Tool{
		Name: "failing",
		Handler: func(ctx context.Context, args Args) (string, error) {
			return "", errors.New("backend unavailable")
		},
	}))

	_, err := r.Execute(context.Background(), "failing", map[string]any{})
	assert.ErrorContains(t, err, "backend unavailable")
}

func TestSchemaJSON(t *testing.T) {
	schema := Schema{
		"query":         {Type: "string", Description: "what to find", Required: true},
		"lesson_number": {Type: "integer"},
	}

	var doc struct {
		Type       string           `json:"type"`
		Properties map[string]Field `json:"properties"`
		Required   []string         `json:"required"`
	}
	require.NoError(t, json.Unmarshal(schema.JSON(), &doc))

	assert.Equal(t, "object", doc.Type)
	assert.Len(t, doc.Properties, 2)
	assert.Equal(t, []string{"query"}, doc.Required)
}

func TestSchemaJSONDeterministic(t *testing.T) {
	schema := Schema{
		"query":        {Type: "string", Required: true},
		"course_name":  {Type: "string", Required: true},
		"max_results":  {Type: "integer", Required: true},
		"include_meta": {Type: "boolean"},
	}

	first := schema.JSON()
	for i := 0; i < 20; i++ {
		assert.Equal(t, string(first), string(schema.JSON()))
	}

	var doc struct {
		Required []string `json:"required"`
	}
	require.NoError(t, json.Unmarshal(first, &doc))
	assert.Equal(t, []string{"course_name", "max_results", "query"}, doc.Required)
}

func TestArgsAccessors(t *testing.T) {
	args := Args{
		"s": "text",
		"i": float64(7),
		"f": 2.5,
		"b": true,
	}

	assert.Equal(t, "text", args.String("s"))
	assert.Equal(t, 7, args.Int("i"))
	assert.Equal(t, 2.5, args.Float("f"))
	assert.True(t, args.Bool("b"))
	assert.True(t, args.Has("s"))
	assert.False(t, args.Has("missing"))

	// Zero values for absent or mistyped keys.
	assert.Empty(t, args.String("i"))
	assert.Zero(t, args.Int("s"))
}
