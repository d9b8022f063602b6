// Package tools implements the tool execution side of the chat
// backend: a registry of named tools with JSON-Schema argument
// validation, and the corpus search and outline tools the model is
// given access to.
package tools

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/chasingkarma/coursechat/pkg/llm/provider"
)

// ToolHandler is the function signature for tool handlers. Handlers
// return a textual observation; errors are converted to text at the
// orchestration boundary, never propagated to the model caller.
type ToolHandler func(context.Context, Args) (string, error)

// Tool represents a callable tool with its input schema.
type Tool struct {
	Name        string
	Description string
	Handler     ToolHandler
	Schema      Schema
}

// Definition renders the tool in the shape advertised to the model.
func (t Tool) Definition() provider.Tool {
	return provider.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.Schema.JSON(),
	}
}

// Schema describes tool input fields keyed by argument name.
type Schema map[string]Field

// Field represents a single field in the schema
type Field struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"-"`
}

// JSON marshals the schema as a JSON-Schema object. Output is
// deterministic: the required list is sorted by field name.
func (s Schema) JSON() json.RawMessage {
	properties := make(map[string]Field, len(s))
	required := []string{}
	for name, field := range s {
		properties[name] = field
		if field.Required {
			required = append(required, name)
		}
	}
	sort.Strings(required)

	doc := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		doc["required"] = required
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return json.RawMessage(`{"type":"object"}`)
	}
	return data
}

// Args provides type-safe access to tool arguments
type Args map[string]any

// String returns a string argument
func (a Args) String(key string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return ""
}

// Int returns an integer argument
func (a Args) Int(key string) int {
	switch v := a[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
	}
	return 0
}

// Float returns a float argument
func (a Args) Float(key string) float64 {
	switch v := a[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	}
	return 0.0
}

// Bool returns a boolean argument
func (a Args) Bool(key string) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return false
}

// Has reports whether an argument was supplied.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}
