// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package qa backs the best-effort natural-language question endpoint
// with a Weaviate vector index. The explorer works fully without it:
// every method degrades to ErrQAUnavailable when the store is absent
// or unreachable, and callers surface that as a soft failure.
package qa

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"

	"github.com/wavecrest-ai/ripple/services/explorer/extract"
)

// ErrQAUnavailable is returned when the vector store is not configured
// or not reachable. Callers treat this as "no answer", not a failure.
var ErrQAUnavailable = errors.New("question answering is unavailable")

// ChunkClassName is the Weaviate class holding indexed code chunks.
const ChunkClassName = "RippleCodeChunk"

// maxChunkRunes bounds one indexed chunk's content.
const maxChunkRunes = 2000

// StoreConfig configures the QA store.
type StoreConfig struct {
	// URL is the Weaviate endpoint, e.g. "http://localhost:8080".
	// Empty disables QA entirely.
	URL string

	// Vectorizer is the module Weaviate uses for embeddings.
	// Default: "text2vec-transformers".
	Vectorizer string

	Logger *slog.Logger
}

// applyDefaults fills zero-valued fields.
func (c *StoreConfig) applyDefaults() {
	if c.Vectorizer == "" {
		c.Vectorizer = "text2vec-transformers"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Answer is one retrieved chunk with its relevance.
type Answer struct {
	Path      string  `json:"path"`
	Snippet   string  `json:"snippet"`
	Certainty float64 `json:"certainty"`
}

// Store indexes per-file code chunks and answers nearText queries over
// them, scoped per project.
//
// Thread Safety: safe for concurrent use after New.
type Store struct {
	client *weaviate.Client
	logger *slog.Logger
}

// New creates a Store. A config with an empty URL returns (nil, nil):
// a nil *Store is valid and reports ErrQAUnavailable from every method.
func New(config StoreConfig) (*Store, error) {
	if config.URL == "" {
		return nil, nil
	}
	config.applyDefaults()

	cfg := weaviate.Config{Host: config.URL, Scheme: "http"}
	if strings.HasPrefix(config.URL, "https://") {
		cfg.Scheme = "https"
		cfg.Host = config.URL[len("https://"):]
	} else if strings.HasPrefix(config.URL, "http://") {
		cfg.Host = config.URL[len("http://"):]
	}

	client, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create weaviate client: %w", err)
	}
	return &Store{
		client: client,
		logger: config.Logger.With(slog.String("component", "qa_store")),
	}, nil
}

// Ready reports whether the vector store answers its readiness probe.
func (s *Store) Ready(ctx context.Context) bool {
	if s == nil {
		return false
	}
	ready, err := s.client.Misc().ReadyChecker().Do(ctx)
	return err == nil && ready
}

// EnsureSchema creates the chunk class if it does not exist yet.
// Idempotent; safe to call on every startup.
func (s *Store) EnsureSchema(ctx context.Context, vectorizer string) error {
	if s == nil {
		return ErrQAUnavailable
	}

	if _, err := s.client.Schema().ClassGetter().WithClassName(ChunkClassName).Do(ctx); err == nil {
		return nil
	}

	class := &models.Class{
		Class:       ChunkClassName,
		Description: "One script file chunk from an uploaded project",
		Vectorizer:  vectorizer,
		Properties: []*models.Property{
			{Name: "projectId", DataType: []string{"text"}, Description: "Owning project"},
			{Name: "path", DataType: []string{"text"}, Description: "Project-relative file path"},
			{Name: "content", DataType: []string{"text"}, Description: "Chunk text"},
			{Name: "functions", DataType: []string{"text[]"}, Description: "Functions declared in the chunk"},
		},
	}
	if err := s.client.Schema().ClassCreator().WithClass(class).Do(ctx); err != nil {
		return fmt.Errorf("%w: create schema: %v", ErrQAUnavailable, err)
	}
	s.logger.Info("created qa schema", slog.String("class", ChunkClassName))
	return nil
}

// IndexProject writes one chunk per record. Indexing failures on
// individual files are logged and skipped so one bad chunk never
// blocks the rest; only total unavailability surfaces as an error.
func (s *Store) IndexProject(ctx context.Context, projectID string, records []*extract.SourceRecord, contents map[string][]byte) error {
	if s == nil {
		return ErrQAUnavailable
	}

	indexed := 0
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}

		names := make([]string, 0, len(rec.Functions))
		for _, fn := range rec.Functions {
			names = append(names, fn.Name)
		}

		props := map[string]any{
			"projectId": projectID,
			"path":      rec.Path,
			"content":   chunkContent(rec.Path, contents[rec.Path], names),
			"functions": names,
		}
		if _, err := s.client.Data().Creator().
			WithClassName(ChunkClassName).
			WithProperties(props).
			Do(ctx); err != nil {
			s.logger.Warn("failed to index chunk",
				slog.String("path", rec.Path),
				slog.Any("error", err))
			continue
		}
		indexed++
	}

	s.logger.Info("indexed project chunks",
		slog.String("project_id", projectID),
		slog.Int("indexed", indexed),
		slog.Int("total", len(records)))
	return nil
}

// Ask runs a nearText query scoped to projectID and returns up to
// limit answers ranked by certainty.
func (s *Store) Ask(ctx context.Context, projectID, question string, limit int) ([]Answer, error) {
	if s == nil {
		return nil, ErrQAUnavailable
	}
	if question == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}
	if limit <= 0 {
		limit = 5
	}

	where := filters.Where().
		WithPath([]string{"projectId"}).
		WithOperator(filters.Equal).
		WithValueString(projectID)

	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{question})

	fields := []graphql.Field{
		{Name: "path"},
		{Name: "content"},
		{Name: "_additional { certainty }"},
	}

	result, err := s.client.GraphQL().Get().
		WithClassName(ChunkClassName).
		WithFields(fields...).
		WithWhere(where).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrQAUnavailable, err)
	}
	if len(result.Errors) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrQAUnavailable, result.Errors[0].Message)
	}

	return parseAnswers(result.Data)
}

// DeleteProject removes every chunk belonging to projectID. Called on
// eviction so stale uploads do not pollute later questions.
func (s *Store) DeleteProject(ctx context.Context, projectID string) error {
	if s == nil {
		return ErrQAUnavailable
	}

	where := filters.Where().
		WithPath([]string{"projectId"}).
		WithOperator(filters.Equal).
		WithValueString(projectID)

	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(ChunkClassName).
		WithWhere(where).
		Do(ctx)
	if err != nil {
		return fmt.Errorf("%w: delete project chunks: %v", ErrQAUnavailable, err)
	}
	return nil
}

// chunkContent builds the text indexed for a file: the path, declared
// names, and a bounded prefix of the content.
func chunkContent(path string, content []byte, functionNames []string) string {
	var b strings.Builder
	b.WriteString(path)
	if len(functionNames) > 0 {
		b.WriteString("\nfunctions: ")
		b.WriteString(strings.Join(functionNames, ", "))
	}
	if len(content) > 0 {
		b.WriteString("\n")
		text := string(content)
		runes := []rune(text)
		if len(runes) > maxChunkRunes {
			text = string(runes[:maxChunkRunes])
		}
		b.WriteString(text)
	}
	return b.String()
}

// parseAnswers extracts answers from the raw GraphQL response shape.
func parseAnswers(data map[string]models.JSONObject) ([]Answer, error) {
	get, ok := data["Get"].(map[string]any)
	if !ok {
		return nil, nil
	}
	rows, ok := get[ChunkClassName].([]any)
	if !ok {
		return nil, nil
	}

	answers := make([]Answer, 0, len(rows))
	for _, row := range rows {
		m, ok := row.(map[string]any)
		if !ok {
			continue
		}
		a := Answer{}
		if path, ok := m["path"].(string); ok {
			a.Path = path
		}
		if content, ok := m["content"].(string); ok {
			a.Snippet = snippet(content)
		}
		if add, ok := m["_additional"].(map[string]any); ok {
			if c, ok := add["certainty"].(float64); ok {
				a.Certainty = c
			}
		}
		answers = append(answers, a)
	}
	return answers, nil
}

// snippet truncates chunk content for the response body.
func snippet(content string) string {
	const maxRunes = 400
	runes := []rune(content)
	if len(runes) <= maxRunes {
		return content
	}
	return string(runes[:maxRunes]) + "…"
}
