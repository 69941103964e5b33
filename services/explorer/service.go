// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package explorer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	"github.com/wavecrest-ai/ripple/services/explorer/archive"
	"github.com/wavecrest-ai/ripple/services/explorer/extract"
	"github.com/wavecrest-ai/ripple/services/explorer/graph"
	"github.com/wavecrest-ai/ripple/services/explorer/qa"
)

// ServiceConfig configures the explorer service.
type ServiceConfig struct {
	// MaxCachedProjects bounds how many built projects stay resident.
	// The least recently used project is evicted, its scratch
	// directory removed, and its QA chunks deleted. Default: 8.
	MaxCachedProjects int

	// MaxUploadBytes bounds the archive size accepted by the upload
	// endpoint. Default: 256MB.
	MaxUploadBytes int64

	// ExtractWorkers is the extraction concurrency per upload.
	// Default: 4.
	ExtractWorkers int

	// WorkDir is the scratch root for unpacked projects.
	// Default: os.TempDir()/ripple.
	WorkDir string

	// UnpackLimits bounds archive expansion.
	UnpackLimits archive.UnpackLimits

	// BuildMaxNodes / BuildMaxEdges cap graph size per project. Zero
	// keeps the graph package defaults.
	BuildMaxNodes int
	BuildMaxEdges int

	Logger *slog.Logger
}

// applyDefaults fills zero-valued fields.
func (c *ServiceConfig) applyDefaults() {
	if c.MaxCachedProjects <= 0 {
		c.MaxCachedProjects = 8
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 256 * 1024 * 1024
	}
	if c.ExtractWorkers <= 0 {
		c.ExtractWorkers = 4
	}
	if c.WorkDir == "" {
		c.WorkDir = filepath.Join(os.TempDir(), "ripple")
	}
	if c.UnpackLimits == (archive.UnpackLimits{}) {
		c.UnpackLimits = archive.DefaultUnpackLimits()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Project is one uploaded, built project held in memory.
type Project struct {
	ID             string
	Name           string
	CreatedAtMilli int64

	// Root is the scratch directory holding the unpacked tree; file
	// content is served from here rather than kept resident.
	Root string

	Files  []archive.ScannedFile
	Result *graph.BuildResult
	Graph  *graph.Graph

	// functionsPerFile backs the tree listing.
	functionsPerFile map[string]int
	fileSet          map[string]archive.ScannedFile
}

// Service owns the project cache and the upload pipeline.
//
// Thread Safety: safe for concurrent use. Projects are immutable once
// built; the LRU cache provides its own locking.
type Service struct {
	config   ServiceConfig
	registry *extract.Registry
	qa       *qa.Store
	progress *ProgressBroker
	projects *lru.Cache[string, *Project]
	logger   *slog.Logger
	closed   atomic.Bool
}

// NewService creates the explorer service. qaStore may be nil; the ask
// endpoint then reports itself unavailable.
func NewService(config ServiceConfig, qaStore *qa.Store) (*Service, error) {
	config.applyDefaults()
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating work dir: %w", err)
	}

	s := &Service{
		config:   config,
		registry: extract.DefaultRegistry(),
		qa:       qaStore,
		progress: NewProgressBroker(),
		logger:   config.Logger.With(slog.String("component", "explorer")),
	}

	cache, err := lru.NewWithEvict[string, *Project](config.MaxCachedProjects, s.onEvict)
	if err != nil {
		return nil, fmt.Errorf("creating project cache: %w", err)
	}
	s.projects = cache
	return s, nil
}

// onEvict tears down an evicted project: scratch directory and QA
// chunks. Runs inside the cache's lock, so the slow parts go to a
// goroutine.
func (s *Service) onEvict(id string, p *Project) {
	s.logger.Info("evicting project", slog.String("project_id", id), slog.String("name", p.Name))
	go func() {
		if err := os.RemoveAll(p.Root); err != nil {
			s.logger.Warn("failed to remove project scratch dir",
				slog.String("project_id", id), slog.Any("error", err))
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := s.qa.DeleteProject(ctx, id); err != nil && !errors.Is(err, qa.ErrQAUnavailable) {
			s.logger.Warn("failed to delete qa chunks",
				slog.String("project_id", id), slog.Any("error", err))
		}
	}()
}

// CreateProject runs the full pipeline for one uploaded archive:
// unpack, scan, extract, build, cache. archivePath must point at a
// saved upload; the caller owns that temp file.
func (s *Service) CreateProject(ctx context.Context, archivePath, name string) (*Project, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}

	id := uuid.NewString()
	logger := s.logger.With(slog.String("project_id", id), slog.String("name", name))
	root := filepath.Join(s.config.WorkDir, id)

	cleanup := func() { _ = os.RemoveAll(root) }

	if err := archive.Unpack(ctx, archivePath, root, s.config.UnpackLimits); err != nil {
		cleanup()
		return nil, fmt.Errorf("%w: %v", ErrInvalidUpload, err)
	}

	files, err := archive.Scan(ctx, root)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("scanning project: %w", err)
	}
	if len(files) == 0 {
		cleanup()
		return nil, ErrNoSourceFiles
	}
	logger.Info("scanned project", slog.Int("files", len(files)))

	records, contents, err := s.extractAll(ctx, id, files)
	if err != nil {
		cleanup()
		return nil, err
	}

	builder := graph.NewBuilder(
		graph.WithProject(name),
		graph.WithLogger(logger),
		graph.WithNodeLimit(s.config.BuildMaxNodes),
		graph.WithEdgeLimit(s.config.BuildMaxEdges),
		graph.WithProgress(func(phase string, done, total int) {
			s.progress.Publish(ProgressEvent{ProjectID: id, Phase: phase, Done: done, Total: total})
		}),
	)
	result, err := builder.Build(ctx, records)
	if err != nil {
		cleanup()
		return nil, fmt.Errorf("building graph: %w", err)
	}

	project := &Project{
		ID:               id,
		Name:             name,
		CreatedAtMilli:   time.Now().UnixMilli(),
		Root:             root,
		Files:            files,
		Result:           result,
		Graph:            result.Graph,
		functionsPerFile: make(map[string]int, len(records)),
		fileSet:          make(map[string]archive.ScannedFile, len(files)),
	}
	for _, rec := range records {
		project.functionsPerFile[rec.Path] = len(rec.Functions)
	}
	for _, f := range files {
		project.fileSet[f.RelPath] = f
	}

	s.projects.Add(id, project)
	s.progress.Publish(ProgressEvent{ProjectID: id, Phase: "done", Done: len(files), Total: len(files)})

	// QA indexing is best effort and off the request path.
	if s.qa != nil {
		go s.indexForQA(id, records, contents)
	}

	return project, nil
}

// extractAll runs the registry over every scanned file with a bounded
// worker pool. Files that fail extraction become empty records so the
// build still sees their file node.
func (s *Service) extractAll(ctx context.Context, projectID string, files []archive.ScannedFile) ([]*extract.SourceRecord, map[string][]byte, error) {
	records := make([]*extract.SourceRecord, len(files))
	contents := make(map[string][]byte, len(files))
	var mu sync.Mutex

	var done atomic.Int64
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.ExtractWorkers)

	for i, file := range files {
		g.Go(func() error {
			content, err := os.ReadFile(file.AbsPath)
			if err != nil {
				s.logger.Warn("failed to read source file",
					slog.String("path", file.RelPath), slog.Any("error", err))
				records[i] = &extract.SourceRecord{Path: file.RelPath}
				return nil
			}

			rec, err := s.registry.ExtractFile(ctx, file.RelPath, content)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				s.logger.Warn("extraction failed, keeping bare file node",
					slog.String("path", file.RelPath), slog.Any("error", err))
				rec = &extract.SourceRecord{Path: file.RelPath}
			}
			records[i] = rec

			mu.Lock()
			contents[file.RelPath] = content
			mu.Unlock()

			s.progress.Publish(ProgressEvent{
				ProjectID: projectID,
				Phase:     "extract",
				Done:      int(done.Add(1)),
				Total:     len(files),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return records, contents, nil
}

// indexForQA pushes the project's chunks into the vector store.
func (s *Service) indexForQA(projectID string, records []*extract.SourceRecord, contents map[string][]byte) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := s.qa.IndexProject(ctx, projectID, records, contents); err != nil && !errors.Is(err, qa.ErrQAUnavailable) {
		s.logger.Warn("qa indexing failed", slog.String("project_id", projectID), slog.Any("error", err))
	}
}

// Project returns the cached project for id.
func (s *Service) Project(id string) (*Project, error) {
	if s.closed.Load() {
		return nil, ErrServiceClosed
	}
	p, ok := s.projects.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return p, nil
}

// Tree returns the file listing for id.
func (s *Service) Tree(id string) (*TreeResponse, error) {
	p, err := s.Project(id)
	if err != nil {
		return nil, err
	}

	entries := make([]TreeEntry, 0, len(p.Files))
	for _, f := range p.Files {
		entries = append(entries, TreeEntry{
			Path:      f.RelPath,
			Size:      f.Size,
			Functions: p.functionsPerFile[f.RelPath],
		})
	}
	return &TreeResponse{ProjectID: id, Files: entries}, nil
}

// FileContent returns one file's content for the code viewer. relPath
// must be a path produced by the scan; anything else is rejected
// before touching disk.
func (s *Service) FileContent(id, relPath string) (*FileResponse, error) {
	p, err := s.Project(id)
	if err != nil {
		return nil, err
	}
	f, ok := p.fileSet[relPath]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrFileNotInProject, relPath)
	}

	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", relPath, err)
	}
	return &FileResponse{ProjectID: id, Path: relPath, Content: string(content)}, nil
}

// RippleSet computes the downstream, upstream, and combined reachable
// sets for a clicked node. An unknown node yields empty sets, matching
// the graph engine's tolerance of clicks racing rebuilds.
func (s *Service) RippleSet(ctx context.Context, id, nodeID string) (*RippleResponse, error) {
	p, err := s.Project(id)
	if err != nil {
		return nil, err
	}
	node, err := graph.ParseNodeID(nodeID)
	if err != nil {
		return nil, err
	}

	down, err := p.Graph.Downstream(ctx, node)
	if err != nil {
		return nil, err
	}
	up, err := p.Graph.Upstream(ctx, node)
	if err != nil {
		return nil, err
	}
	ripple, err := p.Graph.Ripple(ctx, node)
	if err != nil {
		return nil, err
	}

	return &RippleResponse{
		ProjectID:  id,
		Node:       nodeID,
		Downstream: idStrings(down),
		Upstream:   idStrings(up),
		Ripple:     idStrings(ripple),
	}, nil
}

// StatsFor returns the summary stats for id.
func (s *Service) StatsFor(id string) (*StatsResponse, error) {
	p, err := s.Project(id)
	if err != nil {
		return nil, err
	}
	return &StatsResponse{ProjectID: id, Stats: p.Graph.Stats(), Build: p.Result.Stats}, nil
}

// GraphJSON returns the full serialized graph for id.
func (s *Service) GraphJSON(id string) (*graph.SerializableGraph, error) {
	p, err := s.Project(id)
	if err != nil {
		return nil, err
	}
	return p.Graph.ToSerializable()
}

// Ask forwards a question to the QA store. Unavailability is reported
// in-band, never as an error.
func (s *Service) Ask(ctx context.Context, id, question string, limit int) (*AskResponse, error) {
	if _, err := s.Project(id); err != nil {
		return nil, err
	}

	resp := &AskResponse{ProjectID: id, Question: question, Answers: []qa.Answer{}}
	answers, err := s.qa.Ask(ctx, id, question, limit)
	if err != nil {
		if errors.Is(err, qa.ErrQAUnavailable) {
			return resp, nil
		}
		return nil, err
	}
	resp.Available = true
	resp.Answers = answers
	return resp, nil
}

// Progress exposes the broker for the events handler.
func (s *Service) Progress() *ProgressBroker { return s.progress }

// QAReady reports vector store readiness for the health endpoint.
func (s *Service) QAReady(ctx context.Context) bool { return s.qa.Ready(ctx) }

// MaxUploadBytes exposes the upload limit for the handler.
func (s *Service) MaxUploadBytes() int64 { return s.config.MaxUploadBytes }

// Close evicts every project and rejects further calls.
func (s *Service) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.projects.Purge()
	s.progress.Close()
}

// idStrings renders a node set as a sorted list of wire-form ids.
func idStrings(set map[graph.NodeID]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id.String())
	}
	sort.Strings(out)
	return out
}
