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
	"time"
)

// traversalCheckInterval is how many stack pops a traversal performs
// between context cancellation checks.
const traversalCheckInterval = 256

// Downstream returns every node reachable from start by following
// outgoing edges of any kind. The start node is excluded from its own
// result; callers that want it highlighted union it back in.
//
// An id absent from the graph returns an empty set rather than an
// error, since the UI may race a click against a rebuild. The visited
// set guarantees termination on cyclic graphs in O(V+E).
func (g *Graph) Downstream(ctx context.Context, start NodeID) (map[NodeID]struct{}, error) {
	return g.traverse(ctx, start, "downstream")
}

// Upstream returns every node that can reach start by following
// incoming edges of any kind. Semantics mirror Downstream.
func (g *Graph) Upstream(ctx context.Context, start NodeID) (map[NodeID]struct{}, error) {
	return g.traverse(ctx, start, "upstream")
}

// traverse runs an iterative depth-first walk from start. direction is
// "downstream" (outgoing edges) or "upstream" (incoming edges).
func (g *Graph) traverse(ctx context.Context, start NodeID, direction string) (map[NodeID]struct{}, error) {
	if g.state != GraphStateReadOnly {
		return nil, ErrGraphNotFrozen
	}

	ctx, span := startQuerySpan(ctx, direction, start)
	defer span.End()
	began := time.Now()

	result := make(map[NodeID]struct{})
	startNode, ok := g.nodes[start]
	if !ok {
		recordQueryMetrics(ctx, direction, time.Since(began).Seconds(), 0)
		return result, nil
	}

	visited := map[NodeID]struct{}{start: {}}
	stack := []*Node{startNode}
	pops := 0

	for len(stack) > 0 {
		pops++
		if pops%traversalCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		edges := node.Outgoing
		if direction == "upstream" {
			edges = node.Incoming
		}
		for _, e := range edges {
			next := e.To
			if direction == "upstream" {
				next = e.From
			}
			if _, seen := visited[next]; seen {
				continue
			}
			visited[next] = struct{}{}
			result[next] = struct{}{}
			if n, ok := g.nodes[next]; ok {
				stack = append(stack, n)
			}
		}
	}

	recordQueryMetrics(ctx, direction, time.Since(began).Seconds(), len(result))
	return result, nil
}

// Ripple returns the union of Downstream and Upstream of start plus
// the start node itself when it exists: the full set the UI highlights
// for one click.
func (g *Graph) Ripple(ctx context.Context, start NodeID) (map[NodeID]struct{}, error) {
	down, err := g.Downstream(ctx, start)
	if err != nil {
		return nil, err
	}
	up, err := g.Upstream(ctx, start)
	if err != nil {
		return nil, err
	}

	out := make(map[NodeID]struct{}, len(down)+len(up)+1)
	for id := range down {
		out[id] = struct{}{}
	}
	for id := range up {
		out[id] = struct{}{}
	}
	if g.HasNode(start) {
		out[start] = struct{}{}
	}
	return out, nil
}
