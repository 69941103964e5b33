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
	"errors"
	"testing"
)

func TestNodeIDRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		id   NodeID
		want string
	}{
		{"file", FileID("src/a.js"), "file:src/a.js"},
		{"function", FunctionID("src/a.js", "foo", 3), "func:src/a.js:foo:3"},
		{"nested path", FunctionID("src/deep/dir/b.ts", "bar", 120), "func:src/deep/dir/b.ts:bar:120"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.id.String(); got != tt.want {
				t.Fatalf("String() = %q, want %q", got, tt.want)
			}
			parsed, err := ParseNodeID(tt.id.String())
			if err != nil {
				t.Fatalf("ParseNodeID(%q) error = %v", tt.id.String(), err)
			}
			if parsed != tt.id {
				t.Errorf("round trip = %+v, want %+v", parsed, tt.id)
			}
		})
	}
}

func TestParseNodeIDRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"file:",
		"func:a.js",
		"func:a.js:foo",
		"func:a.js:foo:zero",
		"func:a.js:foo:0",
		"dir:src/a.js",
	}
	for _, s := range bad {
		if _, err := ParseNodeID(s); err == nil {
			t.Errorf("ParseNodeID(%q) = nil error, want error", s)
		}
	}
}

func TestSameNameDifferentLineAreDistinct(t *testing.T) {
	a := FunctionID("a.js", "foo", 1)
	b := FunctionID("a.js", "foo", 10)
	if a == b {
		t.Error("same-named functions on different lines must have distinct identities")
	}
}

func TestAddEdgeRejectsSelfLoop(t *testing.T) {
	g := NewGraph()
	if err := g.AddNode(&Node{ID: FileID("a.js")}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}

	_, err := g.AddEdge(&Edge{From: FileID("a.js"), To: FileID("a.js"), Kind: EdgeKindImports})
	if !errors.Is(err, ErrSelfLoop) {
		t.Errorf("AddEdge() error = %v, want ErrSelfLoop", err)
	}
}

func TestAddEdgeDuplicateIsNoOp(t *testing.T) {
	g := NewGraph()
	for _, p := range []string{"a.js", "b.js"} {
		if err := g.AddNode(&Node{ID: FileID(p)}); err != nil {
			t.Fatalf("AddNode(%s) error = %v", p, err)
		}
	}

	added, err := g.AddEdge(&Edge{From: FileID("a.js"), To: FileID("b.js"), Kind: EdgeKindImports})
	if err != nil || !added {
		t.Fatalf("first AddEdge = (%v, %v), want (true, nil)", added, err)
	}
	added, err = g.AddEdge(&Edge{From: FileID("a.js"), To: FileID("b.js"), Kind: EdgeKindImports})
	if err != nil || added {
		t.Fatalf("second AddEdge = (%v, %v), want (false, nil)", added, err)
	}
	if g.EdgeCount() != 1 {
		t.Errorf("EdgeCount = %d, want 1", g.EdgeCount())
	}
}

func TestAddEdgeDifferentRelationsCoexist(t *testing.T) {
	g := NewGraph()
	if err := g.AddNode(&Node{ID: FileID("a.js")}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddNode(&Node{ID: FunctionID("a.js", "foo", 1)}); err != nil {
		t.Fatal(err)
	}

	// Improbable pairing, but the identity model must allow it.
	for _, kind := range []EdgeKind{EdgeKindContains, EdgeKindCalls} {
		if _, err := g.AddEdge(&Edge{From: FileID("a.js"), To: FunctionID("a.js", "foo", 1), Kind: kind}); err != nil {
			t.Fatalf("AddEdge(%s) error = %v", kind, err)
		}
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount = %d, want 2", g.EdgeCount())
	}
}

func TestAddEdgeMissingEndpoint(t *testing.T) {
	g := NewGraph()
	if err := g.AddNode(&Node{ID: FileID("a.js")}); err != nil {
		t.Fatal(err)
	}

	_, err := g.AddEdge(&Edge{From: FileID("a.js"), To: FileID("ghost.js"), Kind: EdgeKindImports})
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("AddEdge() error = %v, want ErrNodeNotFound", err)
	}
}

func TestFrozenGraphRejectsMutation(t *testing.T) {
	g := NewGraph()
	if err := g.AddNode(&Node{ID: FileID("a.js")}); err != nil {
		t.Fatal(err)
	}
	if err := g.Freeze(); err != nil {
		t.Fatalf("Freeze() error = %v", err)
	}

	if err := g.AddNode(&Node{ID: FileID("b.js")}); !errors.Is(err, ErrGraphFrozen) {
		t.Errorf("AddNode after Freeze: error = %v, want ErrGraphFrozen", err)
	}
	if _, err := g.AddEdge(&Edge{From: FileID("a.js"), To: FileID("b.js"), Kind: EdgeKindImports}); !errors.Is(err, ErrGraphFrozen) {
		t.Errorf("AddEdge after Freeze: error = %v, want ErrGraphFrozen", err)
	}
}

func TestSuccessorsPredecessors(t *testing.T) {
	g := NewGraph()
	for _, p := range []string{"a.js", "b.js", "c.js"} {
		if err := g.AddNode(&Node{ID: FileID(p)}); err != nil {
			t.Fatal(err)
		}
	}
	edges := []struct{ from, to string }{
		{"a.js", "b.js"},
		{"a.js", "c.js"},
		{"c.js", "b.js"},
	}
	for _, e := range edges {
		if _, err := g.AddEdge(&Edge{From: FileID(e.from), To: FileID(e.to), Kind: EdgeKindImports}); err != nil {
			t.Fatal(err)
		}
	}

	succ := g.Successors(FileID("a.js"))
	if len(succ) != 2 || succ[0] != FileID("b.js") || succ[1] != FileID("c.js") {
		t.Errorf("Successors(a.js) = %v, want [b.js c.js]", succ)
	}
	pred := g.Predecessors(FileID("b.js"))
	if len(pred) != 2 || pred[0] != FileID("a.js") || pred[1] != FileID("c.js") {
		t.Errorf("Predecessors(b.js) = %v, want [a.js c.js]", pred)
	}
	if got := g.Successors(FileID("ghost.js")); got != nil {
		t.Errorf("Successors(unknown) = %v, want nil", got)
	}
}
