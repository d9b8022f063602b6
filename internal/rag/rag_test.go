package rag

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chasingkarma/coursechat/pkg/catalog"
	"github.com/chasingkarma/coursechat/pkg/config"
	"github.com/chasingkarma/coursechat/pkg/llm/provider"
	"github.com/chasingkarma/coursechat/pkg/session"
	"github.com/chasingkarma/coursechat/pkg/vectorstore"
)

// fixedEmbedder maps every text to the same unit vector, which is
// enough to exercise the wiring end to end.
type fixedEmbedder struct{}

func (fixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (fixedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1, 0}
	}
	return out, nil
}

func (fixedEmbedder) Dimensions() int { return 2 }

func newTestSystem(t *testing.T, mock *provider.MockProvider) *System {
	t.Helper()

	cfg := config.Default()
	store := session.NewMemoryStore(session.Config{MaxHistory: 2})
	system, err := Assemble(cfg, mock, fixedEmbedder{}, store)
	require.NoError(t, err)
	t.Cleanup(system.Shutdown)
	return system
}

func TestQueryCreatesSession(t *testing.T) {
	mock := provider.NewMockProvider("mock")
	mock.Responses = []*provider.MessageResponse{{
		StopReason: provider.StopEndTurn,
		Content:    []provider.ContentBlock{{Type: provider.BlockText, Text: "Answer."}},
	}}
	system := newTestSystem(t, mock)

	answer := system.Query(context.Background(), "What is MCP?", "")

	assert.Equal(t, "Answer.", answer.Answer)
	assert.NotEmpty(t, answer.SessionID)
	assert.Empty(t, answer.Sources)
}

func TestQueryAdvertisesBothTools(t *testing.T) {
	mock := provider.NewMockProvider("mock")
	system := newTestSystem(t, mock)

	system.Query(context.Background(), "question", "")

	require.Equal(t, 1, mock.CallCount())
	tools := mock.Calls[0].Tools
	require.Len(t, tools, 2)
	assert.Equal(t, "search_course_content", tools[0].Name)
	assert.Equal(t, "get_course_outline", tools[1].Name)
}

func TestQueryRecordsExchangeAndThreadsHistory(t *testing.T) {
	mock := provider.NewMockProvider("mock")
	mock.Responses = []*provider.MessageResponse{
		{StopReason: provider.StopEndTurn, Content: []provider.ContentBlock{{Type: provider.BlockText, Text: "First answer."}}},
		{StopReason: provider.StopEndTurn, Content: []provider.ContentBlock{{Type: provider.BlockText, Text: "Second answer."}}},
	}
	system := newTestSystem(t, mock)

	first := system.Query(context.Background(), "first question", "")
	second := system.Query(context.Background(), "second question", first.SessionID)

	assert.Equal(t, first.SessionID, second.SessionID)

	// The second call's system prompt carries the first exchange.
	require.Equal(t, 2, mock.CallCount())
	assert.Contains(t, mock.Calls[1].System, "User: first question")
	assert.Contains(t, mock.Calls[1].System, "Assistant: First answer.")

	stats := system.SessionStats()
	assert.Equal(t, 1, stats.TotalSessions)
	assert.Equal(t, 4, stats.TotalMessages)
}

func TestQueryCollectsSearchSources(t *testing.T) {
	mock := provider.NewMockProvider("mock")
	input, _ := json.Marshal(map[string]any{"query": "protocol"})
	mock.Responses = []*provider.MessageResponse{
		{
			StopReason: provider.StopToolUse,
			Content: []provider.ContentBlock{{
				Type:  provider.BlockToolUse,
				ID:    "tu_1",
				Name:  "search_course_content",
				Input: input,
			}},
		},
		{StopReason: provider.StopEndTurn, Content: []provider.ContentBlock{{Type: provider.BlockText, Text: "MCP is a protocol."}}},
	}
	system := newTestSystem(t, mock)

	// Seed the corpus through the ingestor-owned stores.
	seedCourse(t, system)

	answer := system.Query(context.Background(), "What is MCP?", "")

	assert.Equal(t, "MCP is a protocol.", answer.Answer)
	require.NotEmpty(t, answer.Sources)
	assert.Equal(t, "MCP Basics - Lesson 0", answer.Sources[0].Label)
}

func seedCourse(t *testing.T, system *System) {
	t.Helper()

	system.catalog.Add(catalog.Course{
		Title: "MCP Basics",
		Lessons: []catalog.Lesson{
			{Number: 0, Title: "Introduction", Link: "https://example.com/mcp/0"},
		},
	})
	err := system.vectors.Upsert(context.Background(), []vectorstore.Document{{
		ID:        "doc1",
		Content:   "MCP is a protocol for tools.",
		Embedding: []float32{1, 0},
		Metadata:  map[string]any{"course_title": "MCP Basics", "lesson_number": 0},
	}})
	require.NoError(t, err)
}

func TestClearSession(t *testing.T) {
	mock := provider.NewMockProvider("mock")
	system := newTestSystem(t, mock)

	answer := system.Query(context.Background(), "question", "")
	system.ClearSession(answer.SessionID)

	assert.Equal(t, 0, system.SessionStats().TotalSessions)
}

func TestAnalytics(t *testing.T) {
	mock := provider.NewMockProvider("mock")
	system := newTestSystem(t, mock)

	analytics := system.Analytics()
	assert.Equal(t, 0, analytics.TotalCourses)
	assert.Empty(t, analytics.CourseTitles)
}
