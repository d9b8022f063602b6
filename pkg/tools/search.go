package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/chasingkarma/coursechat/pkg/catalog"
	"github.com/chasingkarma/coursechat/pkg/embeddings"
	"github.com/chasingkarma/coursechat/pkg/vectorstore"
)

// Source attributes a piece of a response to a course location.
type Source struct {
	Label string `json:"label"`
	Link  string `json:"link,omitempty"`
}

// SearchTool searches course content by semantic similarity,
// optionally filtered by course title and lesson number. It records
// the sources of the last search so the caller can attribute the
// final answer.
type SearchTool struct {
	store      vectorstore.VectorStore
	embedder   embeddings.Embedder
	catalog    *catalog.Catalog
	maxResults int

	mu          sync.Mutex
	lastSources []Source
}

// NewSearchTool creates the course-content search tool.
func NewSearchTool(store vectorstore.VectorStore, embedder embeddings.Embedder, cat *catalog.Catalog, maxResults int) *SearchTool {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &SearchTool{
		store:      store,
		embedder:   embedder,
		catalog:    cat,
		maxResults: maxResults,
	}
}

// Tool returns the registrable tool definition.
func (s *SearchTool) Tool() Tool {
	return Tool{
		Name: "search_course_content",
		Description: "Search course materials for specific content. " +
			"Optionally narrow the search to one course and/or one lesson.",
		Schema: Schema{
			"query": {
				Type:        "string",
				Description: "What to search for in the course content",
				Required:    true,
			},
			"course_name": {
				Type:        "string",
				Description: "Course title to search within (partial names accepted)",
			},
			"lesson_number": {
				Type:        "integer",
				Description: "Lesson number to search within",
			},
		},
		Handler: s.execute,
	}
}

// LastSources returns and clears the sources recorded by the most
// recent search.
func (s *SearchTool) LastSources() []Source {
	s.mu.Lock()
	defer s.mu.Unlock()
	sources := s.lastSources
	s.lastSources = nil
	return sources
}

func (s *SearchTool) execute(ctx context.Context, args Args) (string, error) {
	query := args.String("query")
	if query == "" {
		return "", fmt.Errorf("query cannot be empty")
	}

	filter := make(map[string]any)
	var courseTitle string
	if name := args.String("course_name"); name != "" {
		course, ok := s.catalog.Resolve(name)
		if !ok {
			return fmt.Sprintf("No course found matching '%s'", name), nil
		}
		courseTitle = course.Title
		filter["course_title"] = course.Title
	}
	if args.Has("lesson_number") {
		filter["lesson_number"] = args.Int("lesson_number")
	}

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return "", fmt.Errorf("embed query: %w", err)
	}

	results, err := s.store.Search(ctx, vectorstore.SearchQuery{
		Embedding: embedding,
		TopK:      s.maxResults,
		Filter:    filter,
	})
	if err != nil {
		return "", fmt.Errorf("search: %w", err)
	}

	if len(results) == 0 {
		scope := ""
		if courseTitle != "" {
			scope = fmt.Sprintf(" in course '%s'", courseTitle)
		}
		if n, ok := filter["lesson_number"]; ok {
			scope += fmt.Sprintf(" in lesson %v", n)
		}
		return "No relevant content found" + scope + ".", nil
	}

	return s.formatResults(results), nil
}

// formatResults renders hits with course/lesson headers and records
// their sources.
func (s *SearchTool) formatResults(results []vectorstore.SearchResult) string {
	var sections []string
	var sources []Source

	for _, res := range results {
		meta := res.Document.Metadata
		title, _ := meta["course_title"].(string)

		header := title
		label := title
		if num, ok := lessonNumber(meta); ok {
			header = fmt.Sprintf("%s - Lesson %d", title, num)
			label = header
		}

		link := ""
		if course, ok := s.catalog.Get(title); ok {
			link = course.Link
			if num, ok := lessonNumber(meta); ok {
				for _, lesson := range course.Lessons {
					if lesson.Number == num && lesson.Link != "" {
						link = lesson.Link
						break
					}
				}
			}
		}

		sections = append(sections, fmt.Sprintf("[%s]\n%s", header, res.Document.Content))
		sources = append(sources, Source{Label: label, Link: link})
	}

	s.mu.Lock()
	s.lastSources = sources
	s.mu.Unlock()

	return strings.Join(sections, "\n\n")
}

func lessonNumber(meta map[string]any) (int, bool) {
	switch v := meta["lesson_number"].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}
