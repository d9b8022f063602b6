package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

func init() {
	RegisterFactory("openai", func(config map[string]any) (Provider, error) {
		apiKey := ""
		if key, ok := config["api_key"].(string); ok {
			apiKey = key
		}
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}

		client := openai.NewClient(apiKey)
		if baseURL, ok := config["base_url"].(string); ok && baseURL != "" {
			cfg := openai.DefaultConfig(apiKey)
			cfg.BaseURL = baseURL
			client = openai.NewClientWithConfig(cfg)
		}

		return NewOpenAIProvider(client), nil
	})
}

// ChatCompleter is the subset of the go-openai client used here.
// Narrowed for testability.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIProvider adapts the OpenAI chat-completions protocol to the
// messages protocol: tool_use/tool_result blocks are translated to
// tool_calls and role=tool messages and back.
type OpenAIProvider struct {
	client ChatCompleter
}

// NewOpenAIProvider creates a provider backed by an OpenAI client.
func NewOpenAIProvider(client ChatCompleter) *OpenAIProvider {
	return &OpenAIProvider{client: client}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// CreateMessage sends one chat-completion call and maps the response
// back into message blocks.
func (p *OpenAIProvider) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	model := req.Model
	if model == "" {
		model = openai.GPT4o
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}

	for _, m := range req.Messages {
		messages = append(messages, translateMessage(m)...)
	}

	oReq := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}

	if len(req.Tools) > 0 {
		oReq.Tools = make([]openai.Tool, len(req.Tools))
		for i, t := range req.Tools {
			oReq.Tools[i] = openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.InputSchema,
				},
			}
		}
		choice := req.ToolChoice
		if choice == "" {
			choice = "auto"
		}
		oReq.ToolChoice = choice
	}

	resp, err := p.client.CreateChatCompletion(ctx, oReq)
	if err != nil {
		return nil, NewProviderError("openai", ErrorCodeUnknown, err.Error(), err)
	}
	if len(resp.Choices) == 0 {
		return nil, NewProviderError("openai", ErrorCodeUnknown, "no choices in response", nil)
	}

	choice := resp.Choices[0]

	var blocks []ContentBlock
	if choice.Message.Content != "" {
		blocks = append(blocks, ContentBlock{Type: BlockText, Text: choice.Message.Content})
	}
	for _, call := range choice.Message.ToolCalls {
		blocks = append(blocks, ContentBlock{
			Type:  BlockToolUse,
			ID:    call.ID,
			Name:  call.Function.Name,
			Input: json.RawMessage(call.Function.Arguments),
		})
	}

	stopReason := StopEndTurn
	switch choice.FinishReason {
	case openai.FinishReasonToolCalls:
		stopReason = StopToolUse
	case openai.FinishReasonLength:
		stopReason = StopMaxTokens
	}

	return &MessageResponse{
		ID:         resp.ID,
		Model:      resp.Model,
		StopReason: stopReason,
		Content:    blocks,
		Usage: Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// translateMessage maps one block-structured message onto the chat
// protocol. A user turn carrying tool_result blocks becomes one
// role=tool message per result, preserving the original order.
func translateMessage(m Message) []openai.ChatCompletionMessage {
	var out []openai.ChatCompletionMessage

	var text string
	var toolCalls []openai.ToolCall
	for _, block := range m.Content {
		switch block.Type {
		case BlockText:
			text += block.Text
		case BlockToolUse:
			toolCalls = append(toolCalls, openai.ToolCall{
				ID:   block.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      block.Name,
					Arguments: string(block.Input),
				},
			})
		case BlockToolResult:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    block.Content,
				ToolCallID: block.ToolUseID,
			})
		}
	}

	if text != "" || len(toolCalls) > 0 {
		msg := openai.ChatCompletionMessage{
			Role:      m.Role,
			Content:   text,
			ToolCalls: toolCalls,
		}
		// Tool results already emitted stand alone; the text/tool_use
		// message precedes them in protocol order.
		out = append([]openai.ChatCompletionMessage{msg}, out...)
	}

	return out
}
