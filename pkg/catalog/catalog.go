// Package catalog holds course metadata: titles, links, and lesson
// structure. The catalog backs the outline tool and course-name
// resolution for filtered search.
package catalog

import (
	"sort"
	"strings"
	"sync"
)

// Lesson is one lesson within a course.
type Lesson struct {
	Number int    `json:"number"`
	Title  string `json:"title"`
	Link   string `json:"link,omitempty"`
}

// Course is one course with its ordered lesson list.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons"`
}

// Catalog is a thread-safe registry of courses keyed by title.
type Catalog struct {
	courses map[string]Course
	mu      sync.RWMutex
}

// New creates an empty catalog.
func New() *Catalog {
	return &Catalog{courses: make(map[string]Course)}
}

// Add inserts or replaces a course.
func (c *Catalog) Add(course Course) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.courses[course.Title] = course
}

// Get returns a course by exact title.
func (c *Catalog) Get(title string) (Course, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	course, ok := c.courses[title]
	return course, ok
}

// Resolve finds a course from a possibly partial, case-insensitive
// name. Exact matches win; otherwise the first title (in sorted
// order) containing the query substring is returned.
func (c *Catalog) Resolve(name string) (Course, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if course, ok := c.courses[name]; ok {
		return course, true
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return Course{}, false
	}

	for _, title := range c.sortedTitlesLocked() {
		if strings.Contains(strings.ToLower(title), needle) {
			return c.courses[title], true
		}
	}
	return Course{}, false
}

// Titles returns all course titles in sorted order.
func (c *Catalog) Titles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sortedTitlesLocked()
}

// Count returns the number of courses.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.courses)
}

func (c *Catalog) sortedTitlesLocked() []string {
	titles := make([]string, 0, len(c.courses))
	for title := range c.courses {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}
