package provider

import (
	"context"
	"encoding/json"
)

// Provider defines the interface for LLM providers speaking the
// messages protocol: a system prompt, a block-structured message
// history, and optional tool schemas in; text and/or tool-use
// requests out.
type Provider interface {
	// CreateMessage sends one model call and returns the response.
	CreateMessage(ctx context.Context, request MessageRequest) (*MessageResponse, error)

	// Name returns the provider name (e.g., "anthropic", "openai")
	Name() string
}

// Role values for messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Stop reasons reported by MessageResponse.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
)

// Content block types.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Message represents one turn in the conversation. Content is always
// block-structured; use Text for the common plain-text case.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// Text builds a single-text-block message.
func Text(role, text string) Message {
	return Message{
		Role:    role,
		Content: []ContentBlock{{Type: BlockText, Text: text}},
	}
}

// ContentBlock is one element of a message's content. Exactly one
// shape is populated depending on Type:
//
//	text:        Text
//	tool_use:    ID, Name, Input
//	tool_result: ToolUseID, Content
type ContentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

// Tool describes a callable tool advertised to the model.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// MessageRequest represents one model call.
type MessageRequest struct {
	// Model is the model identifier (e.g., "claude-sonnet-4-20250514").
	Model string `json:"model,omitempty"`

	// System is the system prompt.
	System string `json:"system,omitempty"`

	// Messages is the ordered conversation history.
	Messages []Message `json:"messages"`

	// Tools available for the model to call.
	Tools []Tool `json:"tools,omitempty"`

	// ToolChoice selects the tool-selection policy ("auto" when tools
	// are advertised).
	ToolChoice string `json:"tool_choice,omitempty"`

	// Temperature controls randomness (0.0-2.0)
	Temperature float64 `json:"temperature"`

	// MaxTokens is the maximum number of tokens to generate
	MaxTokens int `json:"max_tokens,omitempty"`
}

// MessageResponse represents a model response.
type MessageResponse struct {
	// ID is the provider-assigned response identifier.
	ID string `json:"id,omitempty"`

	// Model is the model that produced the response.
	Model string `json:"model,omitempty"`

	// StopReason explains why generation stopped ("end_turn",
	// "tool_use", "max_tokens").
	StopReason string `json:"stop_reason"`

	// Content is the ordered list of response blocks.
	Content []ContentBlock `json:"content"`

	// Usage contains token usage information
	Usage Usage `json:"usage"`
}

// Text returns the concatenated text blocks of the response, or ""
// if the response carries no textual content.
func (r *MessageResponse) Text() string {
	if r == nil {
		return ""
	}
	var out string
	for _, block := range r.Content {
		if block.Type == BlockText {
			out += block.Text
		}
	}
	return out
}

// ToolUses returns the tool-invocation blocks of the response in the
// order the model emitted them.
func (r *MessageResponse) ToolUses() []ContentBlock {
	if r == nil {
		return nil
	}
	var uses []ContentBlock
	for _, block := range r.Content {
		if block.Type == BlockToolUse {
			uses = append(uses, block)
		}
	}
	return uses
}

// Usage represents token usage information
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ProviderError represents a provider-specific error
type ProviderError struct {
	Provider      string `json:"provider"`
	Code          string `json:"code"`
	Message       string `json:"message"`
	Type          string `json:"type,omitempty"`
	StatusCode    int    `json:"status_code,omitempty"`
	IsRetryable   bool   `json:"is_retryable"`
	OriginalError error  `json:"-"`
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	return e.Provider + " error: " + e.Message
}

// Unwrap returns the original error
func (e *ProviderError) Unwrap() error {
	return e.OriginalError
}

// Common error codes
const (
	ErrorCodeInvalidRequest = "invalid_request"
	ErrorCodeAuthentication = "authentication_error"
	ErrorCodeRateLimit      = "rate_limit_exceeded"
	ErrorCodeServerError    = "server_error"
	ErrorCodeTimeout        = "timeout"
	ErrorCodeModelNotFound  = "model_not_found"
	ErrorCodeUnknown        = "unknown_error"
)

// NewProviderError creates a new provider error
func NewProviderError(provider, code, message string, original error) *ProviderError {
	return &ProviderError{
		Provider:      provider,
		Code:          code,
		Message:       message,
		OriginalError: original,
		IsRetryable:   code == ErrorCodeRateLimit || code == ErrorCodeServerError || code == ErrorCodeTimeout,
	}
}
