package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/chasingkarma/coursechat/pkg/catalog"
)

// OutlineTool renders a course's structure: title, link, and the
// numbered lesson list.
type OutlineTool struct {
	catalog *catalog.Catalog
}

// NewOutlineTool creates the course-outline tool.
func NewOutlineTool(cat *catalog.Catalog) *OutlineTool {
	return &OutlineTool{catalog: cat}
}

// Tool returns the registrable tool definition.
func (o *OutlineTool) Tool() Tool {
	return Tool{
		Name: "get_course_outline",
		Description: "Get the outline of a course: its title, link, and the " +
			"full list of lessons. Use for questions about course structure, " +
			"lesson lists, or curriculum.",
		Schema: Schema{
			"course_name": {
				Type:        "string",
				Description: "Course title (partial names accepted)",
				Required:    true,
			},
		},
		Handler: o.execute,
	}
}

func (o *OutlineTool) execute(ctx context.Context, args Args) (string, error) {
	name := args.String("course_name")
	if name == "" {
		return "", fmt.Errorf("course_name cannot be empty")
	}

	course, ok := o.catalog.Resolve(name)
	if !ok {
		return fmt.Sprintf("No course found matching '%s'", name), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", course.Title)
	if course.Link != "" {
		fmt.Fprintf(&b, "Course link: %s\n", course.Link)
	}
	if course.Instructor != "" {
		fmt.Fprintf(&b, "Instructor: %s\n", course.Instructor)
	}
	fmt.Fprintf(&b, "\nLessons (%d):\n", len(course.Lessons))
	for _, lesson := range course.Lessons {
		if lesson.Link != "" {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", lesson.Number, lesson.Title, lesson.Link)
		} else {
			fmt.Fprintf(&b, "%d. %s\n", lesson.Number, lesson.Title)
		}
	}
	return b.String(), nil
}
