// Package ingest loads course documents into the vector store and
// course catalog.
package ingest

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chasingkarma/coursechat/pkg/catalog"
	"github.com/chasingkarma/coursechat/pkg/embeddings"
	"github.com/chasingkarma/coursechat/pkg/vectorstore"
)

// maxConcurrentFiles bounds parallel document ingestion.
const maxConcurrentFiles = 4

// Ingestor parses course documents, chunks their lessons, embeds the
// chunks, and writes them to the vector store and catalog.
type Ingestor struct {
	store    vectorstore.VectorStore
	embedder embeddings.Embedder
	catalog  *catalog.Catalog

	chunkSize    int
	chunkOverlap int
}

// New creates an Ingestor. chunkSize and chunkOverlap are character
// budgets for the sentence-aware chunker.
func New(store vectorstore.VectorStore, embedder embeddings.Embedder, cat *catalog.Catalog, chunkSize, chunkOverlap int) *Ingestor {
	return &Ingestor{
		store:        store,
		embedder:     embedder,
		catalog:      cat,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// IngestDirectory loads every .txt course document in dir. Documents
// whose course title is already in the catalog are skipped. Returns
// the number of courses added.
func (in *Ingestor) IngestDirectory(ctx context.Context, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".txt") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentFiles)

	added := make(chan string, len(paths))
	for _, path := range paths {
		g.Go(func() error {
			title, err := in.IngestFile(ctx, path)
			if err != nil {
				return fmt.Errorf("ingest %s: %w", path, err)
			}
			if title != "" {
				added <- title
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	close(added)

	count := 0
	for title := range added {
		count++
		log.Printf("Loaded course: %s", title)
	}
	return count, nil
}

// IngestFile loads one course document. Returns the course title, or
// "" if the course was already present.
func (in *Ingestor) IngestFile(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	course, lessons, err := ParseCourseDocument(f)
	if err != nil {
		return "", err
	}
	if _, ok := in.catalog.Get(course.Title); ok {
		return "", nil
	}

	var docs []vectorstore.Document
	for _, lesson := range lessons {
		chunks := ChunkText(lesson.Content, in.chunkSize, in.chunkOverlap)
		for i, chunk := range chunks {
			content := chunk
			if i == 0 {
				content = fmt.Sprintf("Lesson %d content: %s", lesson.Number, chunk)
			}
			docs = append(docs, vectorstore.Document{
				ID:      uuid.New().String(),
				Content: content,
				Metadata: map[string]any{
					"course_title":  course.Title,
					"lesson_number": lesson.Number,
					"lesson_title":  lesson.Title,
				},
			})
		}
	}

	if err := in.embedAndStore(ctx, docs); err != nil {
		return "", err
	}

	in.catalog.Add(course)
	return course.Title, nil
}

func (in *Ingestor) embedAndStore(ctx context.Context, docs []vectorstore.Document) error {
	if len(docs) == 0 {
		return nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Content
	}
	vectors, err := in.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(docs) {
		return fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(docs))
	}
	for i := range docs {
		docs[i].Embedding = vectors[i]
	}

	return in.store.Upsert(ctx, docs)
}

// LessonContent is one lesson's text as parsed from a course document.
type LessonContent struct {
	Number  int
	Title   string
	Link    string
	Content string
}

// ParseCourseDocument reads a course document of the form:
//
//	Course Title: <title>
//	Course Link: <url>
//	Course Instructor: <name>
//
//	Lesson 0: <title>
//	Lesson Link: <url>
//	<content>
//	Lesson 1: <title>
//	...
func ParseCourseDocument(r io.Reader) (catalog.Course, []LessonContent, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var course catalog.Course
	var lessons []LessonContent
	var current *LessonContent
	var content strings.Builder

	flush := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(content.String())
		lessons = append(lessons, *current)
		course.Lessons = append(course.Lessons, catalog.Lesson{
			Number: current.Number,
			Title:  current.Title,
			Link:   current.Link,
		})
		current = nil
		content.Reset()
	}

	for scanner.Scan() {
		line := scanner.Text()
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "Course Title:"):
			course.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Title:"))
		case strings.HasPrefix(trimmed, "Course Link:"):
			course.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Link:"))
		case strings.HasPrefix(trimmed, "Course Instructor:"):
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(trimmed, "Course Instructor:"))
		case strings.HasPrefix(trimmed, "Lesson Link:") && current != nil:
			current.Link = strings.TrimSpace(strings.TrimPrefix(trimmed, "Lesson Link:"))
		default:
			if number, title, ok := parseLessonHeader(trimmed); ok {
				flush()
				current = &LessonContent{Number: number, Title: title}
				continue
			}
			if current != nil {
				content.WriteString(line)
				content.WriteString("\n")
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return catalog.Course{}, nil, err
	}
	flush()

	if course.Title == "" {
		return catalog.Course{}, nil, fmt.Errorf("missing Course Title header")
	}
	return course, lessons, nil
}

// parseLessonHeader matches "Lesson <n>: <title>".
func parseLessonHeader(line string) (int, string, bool) {
	rest, ok := strings.CutPrefix(line, "Lesson ")
	if !ok {
		return 0, "", false
	}
	numStr, title, ok := strings.Cut(rest, ":")
	if !ok {
		return 0, "", false
	}
	number, err := strconv.Atoi(strings.TrimSpace(numStr))
	if err != nil {
		return 0, "", false
	}
	return number, strings.TrimSpace(title), true
}
