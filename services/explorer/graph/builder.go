// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package graph

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/wavecrest-ai/ripple/services/explorer/extract"
)

// contextCheckInterval is how many records each pass processes between
// context cancellation checks.
const contextCheckInterval = 100

// ProgressFunc receives build progress per phase. done and total count
// records within the phase. Callbacks run synchronously on the build
// goroutine and must be fast.
type ProgressFunc func(phase string, done, total int)

// BuilderOptions configures a Builder. Use the With* options rather
// than constructing this directly.
type BuilderOptions struct {
	ProjectName string
	MaxNodes    int
	MaxEdges    int
	Progress    ProgressFunc
	Logger      *slog.Logger
}

// BuilderOption mutates BuilderOptions.
type BuilderOption func(*BuilderOptions)

// DefaultBuilderOptions returns the baseline configuration.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{
		MaxNodes: DefaultMaxNodes,
		MaxEdges: DefaultMaxEdges,
		Logger:   slog.Default(),
	}
}

// WithProject sets the project name used in logs, spans, and the
// serialized graph.
func WithProject(name string) BuilderOption {
	return func(o *BuilderOptions) { o.ProjectName = name }
}

// WithNodeLimit overrides the maximum node count. Non-positive values
// keep the default.
func WithNodeLimit(n int) BuilderOption {
	return func(o *BuilderOptions) {
		if n > 0 {
			o.MaxNodes = n
		}
	}
}

// WithEdgeLimit overrides the maximum edge count. Non-positive values
// keep the default.
func WithEdgeLimit(n int) BuilderOption {
	return func(o *BuilderOptions) {
		if n > 0 {
			o.MaxEdges = n
		}
	}
}

// WithProgress registers a progress callback.
func WithProgress(fn ProgressFunc) BuilderOption {
	return func(o *BuilderOptions) { o.Progress = fn }
}

// WithLogger overrides the build logger.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(o *BuilderOptions) {
		if logger != nil {
			o.Logger = logger
		}
	}
}

// Builder turns extraction records into a frozen Graph. A Builder is
// stateless between builds and safe to reuse; each Build call creates
// fresh per-build state.
type Builder struct {
	options BuilderOptions
}

// NewBuilder returns a Builder with the given options applied over
// DefaultBuilderOptions.
func NewBuilder(opts ...BuilderOption) *Builder {
	options := DefaultBuilderOptions()
	for _, opt := range opts {
		opt(&options)
	}
	return &Builder{options: options}
}

// buildState is the mutable state of one Build call.
type buildState struct {
	graph    *Graph
	result   *BuildResult
	records  []*extract.SourceRecord
	resolver *importResolver
	funcs    *functionIndex
	logger   *slog.Logger
}

// Build constructs the graph in three ordered passes: nodes, import
// edges, call edges. The order is load-bearing: the edge passes look
// up nodes created in the node pass.
//
// Build never fails on malformed input. Records it cannot use are
// absorbed into BuildResult.FileNotes and unresolved references only
// lower the resolved counts in BuildResult.Stats. The only errors
// returned are context cancellation and internal invariant failures
// from Freeze.
//
// The returned graph is frozen and safe for concurrent readers.
func (b *Builder) Build(ctx context.Context, records []*extract.SourceRecord) (*BuildResult, error) {
	started := time.Now()
	ctx, span := startBuildSpan(ctx, b.options.ProjectName, len(records))
	defer span.End()

	logger := b.options.Logger.With(
		slog.String("project", b.options.ProjectName),
		slog.Int("records", len(records)),
	)

	st := &buildState{
		graph: NewGraph(
			WithProjectName(b.options.ProjectName),
			WithMaxNodes(b.options.MaxNodes),
			WithMaxEdges(b.options.MaxEdges),
		),
		result: &BuildResult{},
		logger: logger,
	}
	st.result.Graph = st.graph

	st.records = b.sanitizeRecords(st, records)

	if err := b.nodePass(ctx, st); err != nil {
		setBuildSpanResult(span, st.result, err)
		return nil, err
	}
	if err := b.importPass(ctx, st); err != nil {
		setBuildSpanResult(span, st.result, err)
		return nil, err
	}
	if err := b.callPass(ctx, st); err != nil {
		setBuildSpanResult(span, st.result, err)
		return nil, err
	}

	if err := st.graph.Freeze(); err != nil {
		setBuildSpanResult(span, st.result, err)
		return nil, fmt.Errorf("freezing graph: %w", err)
	}

	elapsed := time.Since(started)
	st.result.Stats.DurationMilli = elapsed.Milliseconds()
	st.result.Stats.DurationMicro = elapsed.Microseconds()
	st.result.Stats.NodesCreated = st.graph.NodeCount()
	st.result.Stats.EdgesCreated = st.graph.EdgeCount()

	recordBuildMetrics(ctx, elapsed.Seconds(), st.result.Stats.NodesCreated, st.result.Stats.EdgesCreated, true)
	setBuildSpanResult(span, st.result, nil)

	logger.Info("graph build complete",
		slog.Int("nodes", st.result.Stats.NodesCreated),
		slog.Int("edges", st.result.Stats.EdgesCreated),
		slog.Int("notes", len(st.result.FileNotes)),
		slog.Bool("incomplete", st.result.Incomplete),
		slog.Int64("duration_ms", st.result.Stats.DurationMilli),
	)
	return st.result, nil
}

// sanitizeRecords applies defensive defaulting so one bad record never
// aborts a build: records with no path are dropped with a note,
// duplicate paths keep the first occurrence, unnamed functions get the
// anonymous placeholder, and non-positive lines clamp to 1. The
// returned slice is sorted by path so every pass iterates in a stable
// order.
func (b *Builder) sanitizeRecords(st *buildState, records []*extract.SourceRecord) []*extract.SourceRecord {
	seen := make(map[string]struct{}, len(records))
	out := make([]*extract.SourceRecord, 0, len(records))

	for _, rec := range records {
		if rec == nil {
			st.result.note("", "dropped nil record")
			st.result.Stats.FilesSkipped++
			continue
		}
		if rec.Path == "" {
			st.result.note("", "dropped record with empty path")
			st.result.Stats.FilesSkipped++
			continue
		}
		if _, dup := seen[rec.Path]; dup {
			st.result.note(rec.Path, "dropped duplicate record for path")
			st.result.Stats.FilesSkipped++
			continue
		}
		seen[rec.Path] = struct{}{}

		clean := &extract.SourceRecord{
			Path:     rec.Path,
			Language: rec.Language,
			Imports:  rec.Imports,
			Calls:    rec.Calls,
		}
		clean.Functions = make([]extract.FunctionDecl, len(rec.Functions))
		for i, fn := range rec.Functions {
			if fn.Name == "" {
				fn.Name = extract.AnonymousFunctionName
			}
			if fn.Line < 1 {
				fn.Line = 1
			}
			clean.Functions[i] = fn
		}
		out = append(out, clean)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// nodePass creates one file node per record, one function node per
// declaration, and the contains edge that ties them together. The
// contains edge is created in the same step as the function node so a
// function node never exists without its owning file edge.
func (b *Builder) nodePass(ctx context.Context, st *buildState) error {
	total := len(st.records)
	for i, rec := range st.records {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: node pass at record %d/%d", ErrBuildCancelled, i, total)
			}
		}

		fileNode := &Node{
			ID:       FileID(rec.Path),
			Label:    baseName(rec.Path),
			Language: rec.Language,
		}
		if err := st.graph.AddNode(fileNode); err != nil {
			if b.absorbLimit(st, err, rec.Path) {
				return nil
			}
			st.result.note(rec.Path, "file node rejected: %v", err)
			st.result.Stats.FilesSkipped++
			continue
		}
		st.result.Stats.FilesProcessed++

		for _, fn := range rec.Functions {
			funcNode := &Node{
				ID:       FunctionID(rec.Path, fn.Name, fn.Line),
				Label:    fn.Name,
				Language: rec.Language,
				DeclKind: fn.Kind.String(),
			}
			if err := st.graph.AddNode(funcNode); err != nil {
				if b.absorbLimit(st, err, rec.Path) {
					return nil
				}
				// Same name and line twice in one file; first wins.
				st.result.note(rec.Path, "function node rejected: %v", err)
				continue
			}
			if _, err := st.graph.AddEdge(&Edge{
				From: fileNode.ID,
				To:   funcNode.ID,
				Kind: EdgeKindContains,
			}); err != nil {
				if b.absorbLimit(st, err, rec.Path) {
					return nil
				}
				st.result.note(rec.Path, "contains edge rejected: %v", err)
			}
		}

		b.progress("nodes", i+1, total)
	}
	return nil
}

// importPass resolves each record's imports against the full path set
// and adds file-to-file imports edges. Unresolved specifiers and
// self-imports are skipped and counted, never raised.
func (b *Builder) importPass(ctx context.Context, st *buildState) error {
	if st.result.Incomplete {
		return nil
	}

	paths := make([]string, 0, len(st.records))
	for _, rec := range st.records {
		paths = append(paths, rec.Path)
	}
	// records are already path-sorted, so paths is too.
	st.resolver = newImportResolver(paths)

	total := len(st.records)
	for i, rec := range st.records {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: import pass at record %d/%d", ErrBuildCancelled, i, total)
			}
		}

		for _, imp := range rec.Imports {
			target, ok := st.resolver.Resolve(imp.Specifier, rec.Path)
			if !ok {
				st.result.Stats.ImportsUnresolved++
				st.logger.Debug("import unresolved",
					slog.String("file", rec.Path),
					slog.String("specifier", imp.Specifier))
				continue
			}
			if target == rec.Path {
				// Self-import, e.g. a file matched by its own bare
				// specifier. Discard.
				st.result.Stats.ImportsUnresolved++
				continue
			}
			st.result.Stats.ImportsResolved++

			if _, err := st.graph.AddEdge(&Edge{
				From:       FileID(rec.Path),
				To:         FileID(target),
				Kind:       EdgeKindImports,
				Specifier:  imp.Specifier,
				ImportKind: imp.Kind.String(),
				Line:       imp.Line,
			}); err != nil {
				if b.absorbLimit(st, err, rec.Path) {
					return nil
				}
				st.result.note(rec.Path, "imports edge to %s rejected: %v", target, err)
			}
		}

		b.progress("imports", i+1, total)
	}
	return nil
}

// callPass resolves each call site to a declared function and adds a
// calls edge from the call's containing function. Calls in files with
// no declared functions, calls to unknown names, and calls that would
// self-loop all drop silently into the unresolved count.
func (b *Builder) callPass(ctx context.Context, st *buildState) error {
	if st.result.Incomplete {
		return nil
	}

	files := make(map[string][]declaredFunction, len(st.records))
	for _, rec := range st.records {
		decls := make([]declaredFunction, 0, len(rec.Functions))
		for _, fn := range rec.Functions {
			decls = append(decls, declaredFunction{
				id:   FunctionID(rec.Path, fn.Name, fn.Line),
				name: fn.Name,
				line: fn.Line,
			})
		}
		files[rec.Path] = decls
	}
	st.funcs = newFunctionIndex(files)

	total := len(st.records)
	for i, rec := range st.records {
		if i%contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return fmt.Errorf("%w: call pass at record %d/%d", ErrBuildCancelled, i, total)
			}
		}

		for _, call := range rec.Calls {
			callee, ok := st.funcs.resolveCallee(call.Callee, rec.Path)
			if !ok {
				st.result.Stats.CallsUnresolved++
				continue
			}
			caller, ok := st.funcs.containingFunction(rec.Path, call.Line)
			if !ok {
				// File declares no functions; there is nothing to
				// anchor the edge to.
				st.result.Stats.CallsUnresolved++
				continue
			}
			if caller.id == callee.id {
				st.result.Stats.CallsUnresolved++
				continue
			}
			st.result.Stats.CallsResolved++

			if _, err := st.graph.AddEdge(&Edge{
				From: caller.id,
				To:   callee.id,
				Kind: EdgeKindCalls,
				Line: call.Line,
			}); err != nil {
				if b.absorbLimit(st, err, rec.Path) {
					return nil
				}
				st.result.note(rec.Path, "calls edge to %s rejected: %v", callee.id, err)
			}
		}

		b.progress("calls", i+1, total)
	}
	return nil
}

// absorbLimit handles node/edge limit errors by marking the build
// incomplete instead of failing. Returns true when the caller should
// stop its pass.
func (b *Builder) absorbLimit(st *buildState, err error, filePath string) bool {
	if errors.Is(err, ErrMaxNodesExceeded) || errors.Is(err, ErrMaxEdgesExceeded) {
		if !st.result.Incomplete {
			st.result.Incomplete = true
			st.result.note(filePath, "build truncated: %v", err)
			st.logger.Warn("graph build truncated", slog.Any("error", err))
		}
		return true
	}
	return false
}

// progress invokes the configured callback if any.
func (b *Builder) progress(phase string, done, total int) {
	if b.options.Progress != nil {
		b.options.Progress(phase, done, total)
	}
}

// baseName returns the last forward-slash segment of path.
func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
