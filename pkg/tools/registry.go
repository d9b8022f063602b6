package tools

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chasingkarma/coursechat/internal/observability"
	"github.com/chasingkarma/coursechat/pkg/llm/provider"
)

// Registry manages the set of tools advertised to the model.
// Registry is safe for concurrent use.
type Registry struct {
	tools map[string]Tool
	order []string
	mu    sync.RWMutex
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// Register registers a tool, rejecting duplicate names.
func (r *Registry) Register(tool Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[tool.Name]; exists {
		return fmt.Errorf("tool already registered: %s", tool.Name)
	}
	r.tools[tool.Name] = tool
	r.order = append(r.order, tool.Name)
	return nil
}

// Definitions returns the schemas of all registered tools in
// registration order.
func (r *Registry) Definitions() []provider.Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]provider.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Has checks if a tool is registered
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.tools[name]
	return exists
}

// Execute validates the arguments against the tool's declared schema
// and invokes the handler. The returned string is the observation to
// feed back to the model.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, error) {
	r.mu.RLock()
	tool, exists := r.tools[name]
	r.mu.RUnlock()

	if !exists {
		observability.RecordToolCall(name, "unknown", 0)
		return "", fmt.Errorf("tool not found: %s", name)
	}

	if err := validateArgs(tool.Schema, args); err != nil {
		observability.RecordToolCall(name, "invalid_args", 0)
		return "", fmt.Errorf("invalid arguments for %s: %w", name, err)
	}

	start := time.Now()
	result, err := tool.Handler(ctx, Args(args))
	if err != nil {
		observability.RecordToolCall(name, "error", time.Since(start))
		return "", err
	}

	observability.RecordToolCall(name, "ok", time.Since(start))
	return result, nil
}

// validateArgs checks required fields and primitive types against
// the declared schema. Unknown arguments are rejected.
func validateArgs(schema Schema, args map[string]any) error {
	for name, field := range schema {
		val, present := args[name]
		if !present {
			if field.Required {
				return fmt.Errorf("missing required argument: %s", name)
			}
			continue
		}
		if !typeMatches(field.Type, val) {
			return fmt.Errorf("argument %s: expected %s, got %T", name, field.Type, val)
		}
	}

	for name := range args {
		if _, known := schema[name]; !known {
			return fmt.Errorf("unknown argument: %s", name)
		}
	}
	return nil
}

func typeMatches(schemaType string, val any) bool {
	switch schemaType {
	case "string":
		_, ok := val.(string)
		return ok
	case "integer":
		// JSON decoding yields float64 for all numbers.
		switch v := val.(type) {
		case int:
			return true
		case float64:
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch val.(type) {
		case int, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := val.(bool)
		return ok
	default:
		return true
	}
}
