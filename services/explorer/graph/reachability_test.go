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
	"testing"

	"github.com/wavecrest-ai/ripple/services/explorer/extract"
)

// cycleGraph builds a two-node mutual-call cycle: foo calls bar, bar
// calls foo, across two files.
func cycleGraph(t *testing.T) *Graph {
	t.Helper()
	records := []*extract.SourceRecord{
		testRecord("a.js",
			[]extract.FunctionDecl{fn("foo", 1)},
			nil,
			[]extract.CallSite{call("bar", 2)},
		),
		testRecord("b.js",
			[]extract.FunctionDecl{fn("bar", 1)},
			nil,
			[]extract.CallSite{call("foo", 2)},
		),
	}
	return mustBuild(t, records).Graph
}

func TestDownstreamOnCycleTerminates(t *testing.T) {
	g := cycleGraph(t)
	foo := FunctionID("a.js", "foo", 1)
	bar := FunctionID("b.js", "bar", 1)

	down, err := g.Downstream(context.Background(), foo)
	if err != nil {
		t.Fatalf("Downstream() error = %v", err)
	}

	if _, ok := down[bar]; !ok {
		t.Error("bar missing from downstream of foo")
	}
	if _, ok := down[foo]; ok {
		t.Error("start node must be excluded from its own reachable set")
	}
}

func TestReachabilityIdempotent(t *testing.T) {
	g := cycleGraph(t)
	foo := FunctionID("a.js", "foo", 1)

	first, err := g.Downstream(context.Background(), foo)
	if err != nil {
		t.Fatalf("Downstream() error = %v", err)
	}
	second, err := g.Downstream(context.Background(), foo)
	if err != nil {
		t.Fatalf("Downstream() error = %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("repeat traversal sizes differ: %d vs %d", len(first), len(second))
	}
	for id := range first {
		if _, ok := second[id]; !ok {
			t.Errorf("node %s present in first traversal only", id)
		}
	}
}

func TestDownstreamUpstreamConsistency(t *testing.T) {
	records := []*extract.SourceRecord{
		testRecord("a.js", []extract.FunctionDecl{fn("foo", 1)}, []extract.ImportRef{imp("./b", 1)}, []extract.CallSite{call("bar", 2)}),
		testRecord("b.js", []extract.FunctionDecl{fn("bar", 1)}, []extract.ImportRef{imp("./c", 1)}, nil),
		testRecord("c.js", []extract.FunctionDecl{fn("baz", 1)}, nil, nil),
	}
	g := mustBuild(t, records).Graph
	ctx := context.Background()

	for _, a := range g.Nodes() {
		down, err := g.Downstream(ctx, a.ID)
		if err != nil {
			t.Fatalf("Downstream(%s) error = %v", a.ID, err)
		}
		for b := range down {
			up, err := g.Upstream(ctx, b)
			if err != nil {
				t.Fatalf("Upstream(%s) error = %v", b, err)
			}
			if _, ok := up[a.ID]; !ok {
				t.Errorf("%s in downstream(%s) but %s not in upstream(%s)", b, a.ID, a.ID, b)
			}
		}
	}
}

func TestReachabilityUnknownNode(t *testing.T) {
	g := cycleGraph(t)

	down, err := g.Downstream(context.Background(), FileID("ghost.js"))
	if err != nil {
		t.Fatalf("Downstream() error = %v", err)
	}
	if len(down) != 0 {
		t.Errorf("unknown node returned %d reachable nodes, want 0", len(down))
	}
}

func TestReachabilityRequiresFrozenGraph(t *testing.T) {
	g := NewGraph()
	if _, err := g.Downstream(context.Background(), FileID("a.js")); err != ErrGraphNotFrozen {
		t.Errorf("Downstream on building graph: error = %v, want ErrGraphNotFrozen", err)
	}
}

func TestRippleIncludesStart(t *testing.T) {
	g := cycleGraph(t)
	foo := FunctionID("a.js", "foo", 1)

	set, err := g.Ripple(context.Background(), foo)
	if err != nil {
		t.Fatalf("Ripple() error = %v", err)
	}
	if _, ok := set[foo]; !ok {
		t.Error("Ripple must include the start node")
	}
	if _, ok := set[FunctionID("b.js", "bar", 1)]; !ok {
		t.Error("Ripple must include downstream nodes")
	}
	if _, ok := set[FileID("a.js")]; !ok {
		t.Error("Ripple must include upstream nodes (containing file)")
	}
}
