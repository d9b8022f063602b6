package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture() *Catalog {
	c := New()
	c.Add(Course{Title: "Building Toward Computer Use", Instructor: "Colt"})
	c.Add(Course{Title: "MCP: Build Rich-Context AI Apps", Instructor: "Elie"})
	c.Add(Course{Title: "Advanced Retrieval for AI"})
	return c
}

func TestResolveExactMatch(t *testing.T) {
	c := fixture()

	course, ok := c.Resolve("Advanced Retrieval for AI")
	require.True(t, ok)
	assert.Equal(t, "Advanced Retrieval for AI", course.Title)
}

func TestResolvePartialCaseInsensitive(t *testing.T) {
	c := fixture()

	course, ok := c.Resolve("mcp")
	require.True(t, ok)
	assert.Equal(t, "MCP: Build Rich-Context AI Apps", course.Title)

	course, ok = c.Resolve("computer use")
	require.True(t, ok)
	assert.Equal(t, "Building Toward Computer Use", course.Title)
}

func TestResolveAmbiguousPicksSortedFirst(t *testing.T) {
	c := fixture()

	// Two titles contain "ai"; sorted order makes the pick stable.
	course, ok := c.Resolve("ai")
	require.True(t, ok)
	assert.Equal(t, "Advanced Retrieval for AI", course.Title)
}

func TestResolveMisses(t *testing.T) {
	c := fixture()

	_, ok := c.Resolve("quantum computing")
	assert.False(t, ok)

	_, ok = c.Resolve("")
	assert.False(t, ok)

	_, ok = c.Resolve("   ")
	assert.False(t, ok)
}

func TestAddReplaces(t *testing.T) {
	c := fixture()
	c.Add(Course{Title: "Advanced Retrieval for AI", Instructor: "New Instructor"})

	course, ok := c.Get("Advanced Retrieval for AI")
	require.True(t, ok)
	assert.Equal(t, "New Instructor", course.Instructor)
	assert.Equal(t, 3, c.Count())
}

func TestTitlesSorted(t *testing.T) {
	c := fixture()

	assert.Equal(t, []string{
		"Advanced Retrieval for AI",
		"Building Toward Computer Use",
		"MCP: Build Rich-Context AI Apps",
	}, c.Titles())
}
