// Package orchestrator drives the bounded tool-calling protocol: a
// model call that may request tool use, followed by up to two rounds
// of tool execution and follow-up calls, terminating deterministically
// with a textual answer.
package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/chasingkarma/coursechat/internal/observability"
	"github.com/chasingkarma/coursechat/pkg/llm/provider"
)

// maxRounds is the hard ceiling on tool-execution rounds per query.
// Changing it is a code change, not configuration.
const maxRounds = 2

// temperature is pinned for deterministic-leaning answers.
const temperature = 0

const defaultMaxTokens = 800

const apologyText = "I apologize, but I was unable to generate a proper response."

// systemPrompt is the fixed instructional directive for every query.
const systemPrompt = `You are an AI assistant specialized in course materials and educational content, with access to search tools for course information.

Tool usage:
- Use get_course_outline for questions about course structure, lesson lists, curriculum, or overviews.
- Use search_course_content for questions about specific content within lessons or courses.
- You may use tools across up to 2 sequential rounds per query; results from one round may inform the next call.
- If tools yield no results, state this clearly without offering alternatives.
- Return outline tool output exactly as provided, preserving markdown formatting and links.

Response protocol:
- Answer general knowledge questions from existing knowledge without tools.
- Provide direct answers only - no reasoning process, tool explanations, or question-type analysis.
- Be brief, clear, and educational.`

// ToolExecutor executes a named tool with typed arguments and returns
// a textual observation. Implemented elsewhere; consumed here.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (string, error)
}

// Orchestrator coordinates model calls and tool execution for one
// backend. It holds no per-query state; independent Respond calls may
// run concurrently.
type Orchestrator struct {
	provider  provider.Provider
	model     string
	maxTokens int
	system    string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithModel sets the model identifier.
func WithModel(model string) Option {
	return func(o *Orchestrator) {
		o.model = model
	}
}

// WithMaxTokens sets the response token ceiling.
func WithMaxTokens(tokens int) Option {
	return func(o *Orchestrator) {
		o.maxTokens = tokens
	}
}

// WithSystemPrompt overrides the instructional directive.
func WithSystemPrompt(prompt string) Option {
	return func(o *Orchestrator) {
		o.system = prompt
	}
}

// New creates an Orchestrator backed by the given provider.
func New(p provider.Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		provider:  p,
		maxTokens: defaultMaxTokens,
		system:    systemPrompt,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Respond answers a query, optionally using tools across bounded
// rounds. It never fails outward: every failure mode resolves to a
// string the caller can show the user.
func (o *Orchestrator) Respond(ctx context.Context, query, history string, tools []provider.Tool, exec ToolExecutor) string {
	ctx, span := observability.StartSpan(ctx, "orchestrator.respond")
	defer span.End()

	system := o.system
	if history != "" {
		system = o.system + "\n\nPrevious conversation:\n" + history
	}

	base := provider.MessageRequest{
		Model:       o.model,
		System:      system,
		Messages:    []provider.Message{provider.Text(provider.RoleUser, query)},
		Temperature: temperature,
		MaxTokens:   o.maxTokens,
	}
	if len(tools) > 0 {
		base.Tools = tools
		base.ToolChoice = "auto"
	}

	resp, err := o.call(ctx, base)
	if err != nil {
		log.Printf("Model call failed: %v", err)
		return fmt.Sprintf("I encountered an error while generating a response: %v", err)
	}

	if resp.StopReason == provider.StopToolUse && exec != nil {
		return o.runRounds(ctx, base, resp, exec)
	}

	return finalText(resp)
}

// runRounds executes the bounded round loop. On entry resp is a
// tool-bearing response to the initial call.
func (o *Orchestrator) runRounds(ctx context.Context, base provider.MessageRequest, resp *provider.MessageResponse, exec ToolExecutor) string {
	messages := append([]provider.Message(nil), base.Messages...)
	current := resp

	for round := 1; round <= maxRounds; round++ {
		ctx, span := observability.StartSpan(ctx, "orchestrator.round",
			attribute.Int("round", round))

		next, updated, err := o.executeRound(ctx, base, messages, current, round, exec)
		span.End()
		if err != nil {
			return o.fallback(ctx, base, updated, round, err)
		}

		messages = updated
		current = next

		if !shouldContinue(current, round) {
			break
		}
	}

	if text := current.Text(); text != "" {
		return text
	}

	// The round ceiling can be reached with the model still asking for
	// tools, leaving no assistant-visible text. Issue one
	// tools-disabled call so the user still gets an answer.
	if len(current.ToolUses()) > 0 {
		final, err := o.call(ctx, provider.MessageRequest{
			Model:       base.Model,
			System:      base.System,
			Messages:    messages,
			Temperature: temperature,
			MaxTokens:   o.maxTokens,
		})
		if err != nil {
			log.Printf("Final tools-disabled call failed: %v", err)
			return apologyText
		}
		return finalText(final)
	}

	return apologyText
}

// executeRound appends the tool-bearing response to the history,
// executes every requested tool in emission order, reports the
// outcomes as a single user turn, and issues the next model call.
func (o *Orchestrator) executeRound(ctx context.Context, base provider.MessageRequest, messages []provider.Message, resp *provider.MessageResponse, round int, exec ToolExecutor) (*provider.MessageResponse, []provider.Message, error) {
	messages = append(messages, provider.Message{
		Role:    provider.RoleAssistant,
		Content: resp.Content,
	})

	var results []provider.ContentBlock
	for _, use := range resp.ToolUses() {
		results = append(results, provider.ContentBlock{
			Type:      provider.BlockToolResult,
			ToolUseID: use.ID,
			Content:   o.executeTool(ctx, use, exec),
		})
	}
	if len(results) > 0 {
		messages = append(messages, provider.Message{
			Role:    provider.RoleUser,
			Content: results,
		})
	}

	next := provider.MessageRequest{
		Model:       base.Model,
		System:      roundSystem(base.System, round+1),
		Messages:    messages,
		Tools:       base.Tools,
		ToolChoice:  base.ToolChoice,
		Temperature: temperature,
		MaxTokens:   o.maxTokens,
	}

	nextResp, err := o.call(ctx, next)
	if err != nil {
		return nil, messages, err
	}
	return nextResp, messages, nil
}

// executeTool runs one tool invocation, converting every failure into
// a textual observation so the model can react to it.
func (o *Orchestrator) executeTool(ctx context.Context, use provider.ContentBlock, exec ToolExecutor) string {
	var args map[string]any
	if len(use.Input) > 0 {
		if err := json.Unmarshal(use.Input, &args); err != nil {
			return fmt.Sprintf("Tool execution error: invalid arguments: %v", err)
		}
	}
	if args == nil {
		args = map[string]any{}
	}

	result, err := exec.Execute(ctx, use.Name, args)
	if err != nil {
		return fmt.Sprintf("Tool execution error: %v", err)
	}
	return result
}

// shouldContinue decides whether another round runs: only when the
// ceiling has not been hit and the response both signals tool use and
// actually carries tool-invocation blocks.
func shouldContinue(resp *provider.MessageResponse, round int) bool {
	if round >= maxRounds {
		return false
	}
	return resp.StopReason == provider.StopToolUse && len(resp.ToolUses()) > 0
}

// roundSystem augments the system directive with round context from
// round 2 onward.
func roundSystem(system string, round int) string {
	if round <= 1 {
		return system
	}
	return fmt.Sprintf("%s\n\nCurrent execution context: Round %d/%d - you can use tool results from previous rounds to inform your next tool calls.", system, round, maxRounds)
}

// fallback handles a model-call transport failure mid-round: one
// tools-disabled call over the accumulated history, degrading to a
// synthesized error message if that also fails.
func (o *Orchestrator) fallback(ctx context.Context, base provider.MessageRequest, messages []provider.Message, round int, cause error) string {
	log.Printf("Round %d failed: %v", round, cause)

	resp, err := o.call(ctx, provider.MessageRequest{
		Model:       base.Model,
		System:      base.System,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   o.maxTokens,
	})
	if err == nil {
		if text := resp.Text(); text != "" {
			return text
		}
	}

	return fmt.Sprintf("I encountered an error while executing tools in round %d: %v", round, cause)
}

// call issues one model call with metrics and tracing.
func (o *Orchestrator) call(ctx context.Context, req provider.MessageRequest) (*provider.MessageResponse, error) {
	ctx, span := observability.StartSpan(ctx, "orchestrator.model_call",
		attribute.String("provider", o.provider.Name()),
		attribute.Int("tools", len(req.Tools)))
	defer span.End()

	start := time.Now()
	resp, err := o.provider.CreateMessage(ctx, req)
	if err != nil {
		observability.RecordModelCall(o.provider.Name(), "error", time.Since(start))
		return nil, err
	}

	observability.RecordModelCall(o.provider.Name(), "ok", time.Since(start))
	return resp, nil
}

// finalText extracts the answer text, substituting a fixed apology
// when the response carries no textual content.
func finalText(resp *provider.MessageResponse) string {
	if resp == nil {
		return apologyText
	}
	if text := resp.Text(); text != "" {
		return text
	}
	return apologyText
}
