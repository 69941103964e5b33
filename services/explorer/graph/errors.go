// Copyright (C) 2025 Wavecrest AI (dev@wavecrest.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package graph builds and queries the dependency graph of an uploaded
// project: file and function nodes joined by contains, imports, and
// calls edges, plus reachability traversals over them.
//
// # Ownership Model
//
// The Builder owns the Graph while building. After Freeze the graph is
// read-only and may be shared freely across goroutines; mutation
// attempts return ErrGraphFrozen.
//
// # Thread Safety
//
// A building graph must be confined to one goroutine. A frozen graph
// is safe for unlimited concurrent readers.
//
// # Lifecycle
//
//	g := NewGraph(...)        // GraphStateBuilding
//	... AddNode / AddEdge ...
//	g.Freeze()                // GraphStateReadOnly, indexes validated
package graph

import "errors"

var (
	// ErrGraphFrozen is returned by mutating operations after Freeze.
	ErrGraphFrozen = errors.New("graph is frozen and cannot be modified")

	// ErrNodeNotFound is returned when a referenced node ID is not in
	// the graph.
	ErrNodeNotFound = errors.New("node not found in graph")

	// ErrDuplicateNode is returned by AddNode when a node with the
	// same identity already exists.
	ErrDuplicateNode = errors.New("node with this identity already exists")

	// ErrSelfLoop is returned by AddEdge when source and target are
	// the same node.
	ErrSelfLoop = errors.New("edge source and target are the same node")

	// ErrInvalidNode is returned when a node fails validation (empty
	// path, unknown kind).
	ErrInvalidNode = errors.New("invalid node")

	// ErrInvalidEdgeKind is returned when an edge kind is outside the
	// known range.
	ErrInvalidEdgeKind = errors.New("invalid edge kind")

	// ErrMaxNodesExceeded is returned when a build would exceed the
	// configured node limit.
	ErrMaxNodesExceeded = errors.New("maximum node count exceeded")

	// ErrMaxEdgesExceeded is returned when a build would exceed the
	// configured edge limit.
	ErrMaxEdgesExceeded = errors.New("maximum edge count exceeded")

	// ErrBuildCancelled is returned when the build context is
	// cancelled mid-build.
	ErrBuildCancelled = errors.New("graph build cancelled")

	// ErrGraphNotFrozen is returned by read paths that require a
	// completed build (serialization, reachability).
	ErrGraphNotFrozen = errors.New("graph must be frozen before this operation")
)
