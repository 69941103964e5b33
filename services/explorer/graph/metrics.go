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
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("ripple.graph")
	meter  = otel.Meter("ripple.graph")

	metricsOnce sync.Once

	buildDuration     metric.Float64Histogram
	buildNodesTotal   metric.Int64Counter
	buildEdgesTotal   metric.Int64Counter
	queryDuration     metric.Float64Histogram
	queryNodesVisited metric.Int64Histogram
)

// initMetrics lazily creates the package instruments. Creation errors
// are logged and leave the instrument nil; record helpers tolerate nil.
func initMetrics() {
	metricsOnce.Do(func() {
		var err error

		buildDuration, err = meter.Float64Histogram(
			"ripple_graph_build_duration_seconds",
			metric.WithDescription("Wall-clock duration of graph builds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			slog.Warn("failed to create build duration histogram", slog.Any("error", err))
		}

		buildNodesTotal, err = meter.Int64Counter(
			"ripple_graph_build_nodes_total",
			metric.WithDescription("Nodes created across all builds"),
		)
		if err != nil {
			slog.Warn("failed to create node counter", slog.Any("error", err))
		}

		buildEdgesTotal, err = meter.Int64Counter(
			"ripple_graph_build_edges_total",
			metric.WithDescription("Edges created across all builds"),
		)
		if err != nil {
			slog.Warn("failed to create edge counter", slog.Any("error", err))
		}

		queryDuration, err = meter.Float64Histogram(
			"ripple_graph_query_duration_seconds",
			metric.WithDescription("Duration of reachability queries"),
			metric.WithUnit("s"),
		)
		if err != nil {
			slog.Warn("failed to create query duration histogram", slog.Any("error", err))
		}

		queryNodesVisited, err = meter.Int64Histogram(
			"ripple_graph_query_nodes_visited",
			metric.WithDescription("Nodes visited per reachability query"),
		)
		if err != nil {
			slog.Warn("failed to create query visit histogram", slog.Any("error", err))
		}
	})
}

// recordBuildMetrics records one completed build.
func recordBuildMetrics(ctx context.Context, durationSeconds float64, nodes, edges int, success bool) {
	initMetrics()
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	if buildDuration != nil {
		buildDuration.Record(ctx, durationSeconds, attrs)
	}
	if buildNodesTotal != nil {
		buildNodesTotal.Add(ctx, int64(nodes), attrs)
	}
	if buildEdgesTotal != nil {
		buildEdgesTotal.Add(ctx, int64(edges), attrs)
	}
}

// recordQueryMetrics records one reachability traversal.
func recordQueryMetrics(ctx context.Context, direction string, durationSeconds float64, visited int) {
	initMetrics()
	attrs := metric.WithAttributes(attribute.String("direction", direction))
	if queryDuration != nil {
		queryDuration.Record(ctx, durationSeconds, attrs)
	}
	if queryNodesVisited != nil {
		queryNodesVisited.Record(ctx, int64(visited), attrs)
	}
}

// startBuildSpan opens the span covering a whole build.
func startBuildSpan(ctx context.Context, projectName string, files int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "graph.Build",
		trace.WithAttributes(
			attribute.String("project", projectName),
			attribute.Int("files", files),
		))
}

// setBuildSpanResult finalizes the build span with outcome attributes.
func setBuildSpanResult(span trace.Span, result *BuildResult, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetAttributes(
		attribute.Int("nodes", result.Stats.NodesCreated),
		attribute.Int("edges", result.Stats.EdgesCreated),
		attribute.Int("file_notes", len(result.FileNotes)),
		attribute.Bool("incomplete", result.Incomplete),
	)
	span.SetStatus(codes.Ok, "")
}

// startQuerySpan opens a span for one reachability query.
func startQuerySpan(ctx context.Context, direction string, start NodeID) (context.Context, trace.Span) {
	return tracer.Start(ctx, "graph.Reachability",
		trace.WithAttributes(
			attribute.String("direction", direction),
			attribute.String("start", start.String()),
		))
}
