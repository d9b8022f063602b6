package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chasingkarma/coursechat/pkg/catalog"
)

func outlineFixture() *OutlineTool {
	cat := catalog.New()
	cat.Add(catalog.Course{
		Title:      "MCP Basics",
		Link:       "https://example.com/mcp",
		Instructor: "Elie",
		Lessons: []catalog.Lesson{
			{Number: 0, Title: "Introduction", Link: "https://example.com/mcp/0"},
			{Number: 1, Title: "Servers"},
		},
	})
	return NewOutlineTool(cat)
}

func TestOutlineRendersCourse(t *testing.T) {
	tool := outlineFixture()

	result, err := tool.Tool().Handler(context.Background(), Args{"course_name": "mcp"})
	require.NoError(t, err)

	assert.Contains(t, result, "**MCP Basics**")
	assert.Contains(t, result, "Course link: https://example.com/mcp")
	assert.Contains(t, result, "Instructor: Elie")
	assert.Contains(t, result, "Lessons (2):")
	assert.Contains(t, result, "0. [Introduction](https://example.com/mcp/0)")
	assert.Contains(t, result, "1. Servers")
}

func TestOutlineUnknownCourse(t *testing.T) {
	tool := outlineFixture()

	result, err := tool.Tool().Handler(context.Background(), Args{"course_name": "Nonexistent"})
	require.NoError(t, err)
	assert.Equal(t, "No course found matching 'Nonexistent'", result)
}

func TestOutlineEmptyName(t *testing.T) {
	tool := outlineFixture()

	_, err := tool.Tool().Handler(context.Background(), Args{"course_name": ""})
	assert.ErrorContains(t, err, "course_name cannot be empty")
}
