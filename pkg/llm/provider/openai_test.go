package provider

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChatCompleter scripts one response and records the request.
type fakeChatCompleter struct {
	req  openai.ChatCompletionRequest
	resp openai.ChatCompletionResponse
	err  error
}

func (f *fakeChatCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.req = req
	return f.resp, f.err
}

func textCompletion(text string) openai.ChatCompletionResponse {
	return openai.ChatCompletionResponse{
		ID:    "chatcmpl_1",
		Model: "gpt-4o",
		Choices: []openai.ChatCompletionChoice{{
			Message:      openai.ChatCompletionMessage{Role: "assistant", Content: text},
			FinishReason: openai.FinishReasonStop,
		}},
		Usage: openai.Usage{PromptTokens: 9, CompletionTokens: 3},
	}
}

func TestOpenAICreateMessage(t *testing.T) {
	fake := &fakeChatCompleter{resp: textCompletion("hi there")}
	p := NewOpenAIProvider(fake)

	resp, err := p.CreateMessage(context.Background(), MessageRequest{
		System:    "directive",
		Messages:  []Message{Text(RoleUser, "hello")},
		MaxTokens: 800,
	})
	require.NoError(t, err)

	assert.Equal(t, "hi there", resp.Text())
	assert.Equal(t, StopEndTurn, resp.StopReason)
	assert.Equal(t, 9, resp.Usage.InputTokens)

	require.Len(t, fake.req.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, fake.req.Messages[0].Role)
	assert.Equal(t, "directive", fake.req.Messages[0].Content)
	assert.Equal(t, "hello", fake.req.Messages[1].Content)
	assert.Equal(t, 800, fake.req.MaxTokens)
}

func TestOpenAITranslatesTools(t *testing.T) {
	fake := &fakeChatCompleter{resp: openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{
				Role: "assistant",
				ToolCalls: []openai.ToolCall{{
					ID:   "call_1",
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      "search_course_content",
						Arguments: `{"query":"mcp"}`,
					},
				}},
			},
			FinishReason: openai.FinishReasonToolCalls,
		}},
	}}
	p := NewOpenAIProvider(fake)

	resp, err := p.CreateMessage(context.Background(), MessageRequest{
		Messages: []Message{Text(RoleUser, "hello")},
		Tools:    []Tool{{Name: "search_course_content", InputSchema: json.RawMessage(`{"type":"object"}`)}},
	})
	require.NoError(t, err)

	assert.Equal(t, StopToolUse, resp.StopReason)
	uses := resp.ToolUses()
	require.Len(t, uses, 1)
	assert.Equal(t, "call_1", uses[0].ID)
	assert.Equal(t, "search_course_content", uses[0].Name)
	assert.JSONEq(t, `{"query":"mcp"}`, string(uses[0].Input))

	require.Len(t, fake.req.Tools, 1)
	assert.Equal(t, "auto", fake.req.ToolChoice)
}

func TestOpenAITranslatesToolResults(t *testing.T) {
	fake := &fakeChatCompleter{resp: textCompletion("done")}
	p := NewOpenAIProvider(fake)

	_, err := p.CreateMessage(context.Background(), MessageRequest{
		Messages: []Message{
			Text(RoleUser, "question"),
			{
				Role: RoleAssistant,
				Content: []ContentBlock{{
					Type:  BlockToolUse,
					ID:    "call_1",
					Name:  "search_course_content",
					Input: json.RawMessage(`{"query":"x"}`),
				}},
			},
			{
				Role: RoleUser,
				Content: []ContentBlock{{
					Type:      BlockToolResult,
					ToolUseID: "call_1",
					Content:   "search results here",
				}},
			},
		},
	})
	require.NoError(t, err)

	require.Len(t, fake.req.Messages, 3)
	assistant := fake.req.Messages[1]
	require.Len(t, assistant.ToolCalls, 1)
	assert.Equal(t, "call_1", assistant.ToolCalls[0].ID)

	toolMsg := fake.req.Messages[2]
	assert.Equal(t, openai.ChatMessageRoleTool, toolMsg.Role)
	assert.Equal(t, "call_1", toolMsg.ToolCallID)
	assert.Equal(t, "search results here", toolMsg.Content)
}

func TestOpenAIMapsFinishReasons(t *testing.T) {
	truncated := textCompletion("partial")
	truncated.Choices[0].FinishReason = openai.FinishReasonLength

	fake := &fakeChatCompleter{resp: truncated}
	p := NewOpenAIProvider(fake)

	resp, err := p.CreateMessage(context.Background(), MessageRequest{
		Messages: []Message{Text(RoleUser, "hello")},
	})
	require.NoError(t, err)
	assert.Equal(t, StopMaxTokens, resp.StopReason)
}

func TestOpenAIErrorsWrapped(t *testing.T) {
	fake := &fakeChatCompleter{err: errors.New("boom")}
	p := NewOpenAIProvider(fake)

	_, err := p.CreateMessage(context.Background(), MessageRequest{
		Messages: []Message{Text(RoleUser, "hello")},
	})
	require.Error(t, err)

	var perr *ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "openai", perr.Provider)
}

func TestOpenAIEmptyChoices(t *testing.T) {
	fake := &fakeChatCompleter{resp: openai.ChatCompletionResponse{}}
	p := NewOpenAIProvider(fake)

	_, err := p.CreateMessage(context.Background(), MessageRequest{
		Messages: []Message{Text(RoleUser, "hello")},
	})
	assert.ErrorContains(t, err, "no choices")
}
