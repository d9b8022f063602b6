// Package rag assembles the chat backend: session store, tool
// registry, corpus stores, and the orchestrator, and implements the
// query flow that ties them together.
package rag

import (
	"context"
	"fmt"
	"log"

	"github.com/chasingkarma/coursechat/internal/ingest"
	"github.com/chasingkarma/coursechat/internal/orchestrator"
	"github.com/chasingkarma/coursechat/pkg/catalog"
	"github.com/chasingkarma/coursechat/pkg/config"
	"github.com/chasingkarma/coursechat/pkg/embeddings"
	"github.com/chasingkarma/coursechat/pkg/llm/provider"
	"github.com/chasingkarma/coursechat/pkg/session"
	"github.com/chasingkarma/coursechat/pkg/tools"
	"github.com/chasingkarma/coursechat/pkg/vectorstore"
)

// Answer is the result of one query.
type Answer struct {
	Answer    string         `json:"answer"`
	Sources   []tools.Source `json:"sources"`
	SessionID string         `json:"session_id"`
}

// Analytics summarizes the loaded corpus.
type Analytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// System wires the backend components together.
type System struct {
	cfg      *config.Config
	store    session.Store
	orch     *orchestrator.Orchestrator
	registry *tools.Registry
	search   *tools.SearchTool
	catalog  *catalog.Catalog
	vectors  vectorstore.VectorStore
	ingestor *ingest.Ingestor
}

// New builds a System from configuration, constructing the provider,
// embedder, and session store it names.
func New(cfg *config.Config) (*System, error) {
	p, err := provider.New(cfg.Provider, map[string]any{
		"api_key": providerKey(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	embedder, err := embeddings.NewOpenAI(embeddings.OpenAIConfig{
		APIKey:     cfg.OpenAIKey,
		Model:      cfg.EmbeddingModel,
		BaseURL:    cfg.EmbeddingBaseURL,
		Dimensions: cfg.EmbeddingDimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	store, err := newSessionStore(cfg)
	if err != nil {
		return nil, fmt.Errorf("create session store: %w", err)
	}

	return Assemble(cfg, p, embedder, store)
}

// Assemble builds a System from pre-constructed collaborators. Used
// by New and directly by tests.
func Assemble(cfg *config.Config, p provider.Provider, embedder embeddings.Embedder, store session.Store) (*System, error) {
	vectors, err := vectorstore.NewMemoryStore(embedder.Dimensions())
	if err != nil {
		return nil, fmt.Errorf("create vector store: %w", err)
	}

	cat := catalog.New()
	search := tools.NewSearchTool(vectors, embedder, cat, cfg.MaxResults)
	outline := tools.NewOutlineTool(cat)

	registry := tools.NewRegistry()
	if err := registry.Register(search.Tool()); err != nil {
		return nil, err
	}
	if err := registry.Register(outline.Tool()); err != nil {
		return nil, err
	}

	orch := orchestrator.New(p,
		orchestrator.WithModel(cfg.Model),
		orchestrator.WithMaxTokens(cfg.MaxTokens),
	)

	return &System{
		cfg:      cfg,
		store:    store,
		orch:     orch,
		registry: registry,
		search:   search,
		catalog:  cat,
		vectors:  vectors,
		ingestor: ingest.New(vectors, embedder, cat, cfg.ChunkSize, cfg.ChunkOverlap),
	}, nil
}

func providerKey(cfg *config.Config) string {
	if cfg.Provider == "openai" {
		return cfg.OpenAIKey
	}
	return cfg.AnthropicKey
}

func newSessionStore(cfg *config.Config) (session.Store, error) {
	if cfg.SessionStore == "redis" {
		return session.NewRedisStore(session.RedisConfig{
			Addr:           cfg.RedisAddr,
			Password:       cfg.RedisPassword,
			MaxHistory:     cfg.MaxHistory,
			SessionTimeout: cfg.SessionTimeout(),
		})
	}
	return session.NewMemoryStore(session.Config{
		MaxHistory:      cfg.MaxHistory,
		SessionTimeout:  cfg.SessionTimeout(),
		CleanupInterval: cfg.CleanupInterval(),
	}), nil
}

// Query answers a user query within a session: resolve the session,
// fetch history, run the orchestrator, collect sources, and record
// the exchange.
func (s *System) Query(ctx context.Context, query, sessionID string) Answer {
	if sessionID == "" {
		sessionID = s.store.Create()
	}

	history, _ := s.store.History(sessionID)

	answer := s.orch.Respond(ctx, query, history, s.registry.Definitions(), s.registry)
	sources := s.search.LastSources()

	s.store.AddExchange(sessionID, query, answer)

	return Answer{Answer: answer, Sources: sources, SessionID: sessionID}
}

// IngestDirectory loads every course document in a directory into the
// corpus.
func (s *System) IngestDirectory(ctx context.Context, dir string) (int, error) {
	n, err := s.ingestor.IngestDirectory(ctx, dir)
	if err != nil {
		return n, err
	}
	log.Printf("Ingested %d courses from %s", n, dir)
	return n, nil
}

// Analytics returns corpus statistics.
func (s *System) Analytics() Analytics {
	return Analytics{
		TotalCourses: s.catalog.Count(),
		CourseTitles: s.catalog.Titles(),
	}
}

// ClearSession removes a session's history.
func (s *System) ClearSession(sessionID string) {
	s.store.Clear(sessionID)
}

// SessionStats returns session store statistics.
func (s *System) SessionStats() session.Stats {
	return s.store.Stats()
}

// Shutdown stops background work and releases resources.
func (s *System) Shutdown() {
	s.store.Shutdown()
	if err := s.vectors.Close(); err != nil {
		log.Printf("Vector store close failed: %v", err)
	}
}
