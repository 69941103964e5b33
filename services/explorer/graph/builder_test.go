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
	"testing"

	"github.com/wavecrest-ai/ripple/services/explorer/extract"
)

// testRecord builds a SourceRecord for tests.
func testRecord(path string, fns []extract.FunctionDecl, imps []extract.ImportRef, calls []extract.CallSite) *extract.SourceRecord {
	return &extract.SourceRecord{
		Path:      path,
		Language:  "javascript",
		Functions: fns,
		Imports:   imps,
		Calls:     calls,
	}
}

func fn(name string, line int) extract.FunctionDecl {
	return extract.FunctionDecl{Name: name, Line: line, Kind: extract.FunctionKindDeclaration}
}

func imp(specifier string, line int) extract.ImportRef {
	return extract.ImportRef{Specifier: specifier, Kind: extract.ImportKindStatic, Line: line}
}

func call(callee string, line int) extract.CallSite {
	return extract.CallSite{Callee: callee, Line: line}
}

func mustBuild(t *testing.T, records []*extract.SourceRecord, opts ...BuilderOption) *BuildResult {
	t.Helper()
	result, err := NewBuilder(opts...).Build(context.Background(), records)
	if err != nil {
		t.Fatalf("Build() error = %v, want nil", err)
	}
	return result
}

func TestBuildScenarioImportAndCall(t *testing.T) {
	// a.js imports ./b and defines foo at line 3; b.js defines bar at
	// line 1; foo calls bar at line 4.
	records := []*extract.SourceRecord{
		testRecord("a.js",
			[]extract.FunctionDecl{fn("foo", 3)},
			[]extract.ImportRef{imp("./b", 1)},
			[]extract.CallSite{call("bar", 4)},
		),
		testRecord("b.js",
			[]extract.FunctionDecl{fn("bar", 1)},
			nil, nil,
		),
	}

	result := mustBuild(t, records)
	g := result.Graph

	stats := g.Stats()
	if stats.FileNodes != 2 {
		t.Errorf("FileNodes = %d, want 2", stats.FileNodes)
	}
	if stats.FunctionNodes != 2 {
		t.Errorf("FunctionNodes = %d, want 2", stats.FunctionNodes)
	}
	if stats.ContainsEdges != 2 {
		t.Errorf("ContainsEdges = %d, want 2", stats.ContainsEdges)
	}
	if stats.ImportEdges != 1 {
		t.Errorf("ImportEdges = %d, want 1", stats.ImportEdges)
	}
	if stats.CallEdges != 1 {
		t.Errorf("CallEdges = %d, want 1", stats.CallEdges)
	}

	if _, ok := g.GetEdge(FileID("a.js"), FileID("b.js"), EdgeKindImports); !ok {
		t.Error("expected imports edge a.js -> b.js")
	}
	if _, ok := g.GetEdge(FunctionID("a.js", "foo", 3), FunctionID("b.js", "bar", 1), EdgeKindCalls); !ok {
		t.Error("expected calls edge foo -> bar")
	}
}

func TestBuildMissingImportTarget(t *testing.T) {
	records := []*extract.SourceRecord{
		testRecord("a.js", nil, []extract.ImportRef{imp("./missing", 1)}, nil),
	}

	result := mustBuild(t, records)

	if got := result.Graph.Stats().ImportEdges; got != 0 {
		t.Errorf("ImportEdges = %d, want 0", got)
	}
	if result.Stats.ImportsUnresolved != 1 {
		t.Errorf("ImportsUnresolved = %d, want 1", result.Stats.ImportsUnresolved)
	}
}

func TestBuildCallAttributedToContainingFunction(t *testing.T) {
	// foo at line 1, bar at line 10; a call to foo at line 15 sits in
	// bar's range, so the edge must be bar -> foo, never foo -> foo.
	records := []*extract.SourceRecord{
		testRecord("a.js",
			[]extract.FunctionDecl{fn("foo", 1), fn("bar", 10)},
			nil,
			[]extract.CallSite{call("foo", 15)},
		),
	}

	result := mustBuild(t, records)
	g := result.Graph

	if _, ok := g.GetEdge(FunctionID("a.js", "bar", 10), FunctionID("a.js", "foo", 1), EdgeKindCalls); !ok {
		t.Error("expected calls edge bar -> foo")
	}
	if _, ok := g.GetEdge(FunctionID("a.js", "foo", 1), FunctionID("a.js", "foo", 1), EdgeKindCalls); ok {
		t.Error("self-loop foo -> foo must not exist")
	}
}

func TestBuildEmptyInput(t *testing.T) {
	tests := []struct {
		name    string
		records []*extract.SourceRecord
	}{
		{"nil records", nil},
		{"zero records", []*extract.SourceRecord{}},
		{"record with nothing in it", []*extract.SourceRecord{testRecord("empty.js", nil, nil, nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mustBuild(t, tt.records)
			stats := result.Graph.Stats()
			if stats.FunctionNodes != 0 || stats.TotalEdges() != 0 {
				t.Errorf("expected bare graph, got %+v", stats)
			}
		})
	}
}

func TestBuildMalformedRecords(t *testing.T) {
	records := []*extract.SourceRecord{
		nil,
		testRecord("", []extract.FunctionDecl{fn("ghost", 1)}, nil, nil),
		testRecord("a.js", []extract.FunctionDecl{{Name: "", Line: 0}}, nil, nil),
		testRecord("a.js", nil, nil, nil), // duplicate path
	}

	result := mustBuild(t, records)
	g := result.Graph

	if got := g.Stats().FileNodes; got != 1 {
		t.Fatalf("FileNodes = %d, want 1", got)
	}
	// Unnamed function gets the anonymous placeholder, line clamps to 1.
	if !g.HasNode(FunctionID("a.js", extract.AnonymousFunctionName, 1)) {
		t.Error("expected anonymous function node at line 1")
	}
	if !result.HasNotes() {
		t.Error("expected file notes for absorbed records")
	}
	if result.Stats.FilesSkipped != 3 {
		t.Errorf("FilesSkipped = %d, want 3", result.Stats.FilesSkipped)
	}
}

func TestBuildDuplicateImportIsIdempotent(t *testing.T) {
	records := []*extract.SourceRecord{
		testRecord("a.js", nil, []extract.ImportRef{imp("./b", 1), imp("./b.js", 2)}, nil),
		testRecord("b.js", nil, nil, nil),
	}

	result := mustBuild(t, records)

	if got := result.Graph.Stats().ImportEdges; got != 1 {
		t.Errorf("ImportEdges = %d, want 1 (duplicate merged)", got)
	}
	// The first edge's metadata wins.
	e, ok := result.Graph.GetEdge(FileID("a.js"), FileID("b.js"), EdgeKindImports)
	if !ok {
		t.Fatal("expected imports edge a.js -> b.js")
	}
	if e.Specifier != "./b" {
		t.Errorf("Specifier = %q, want %q", e.Specifier, "./b")
	}
}

func TestBuildContainsInvariant(t *testing.T) {
	records := []*extract.SourceRecord{
		testRecord("a.js", []extract.FunctionDecl{fn("foo", 1), fn("bar", 5)}, nil, []extract.CallSite{call("baz", 2)}),
		testRecord("b.js", []extract.FunctionDecl{fn("baz", 1)}, []extract.ImportRef{imp("./a", 1)}, nil),
	}

	g := mustBuild(t, records).Graph

	for _, n := range g.NodesByKind(NodeKindFunction) {
		contains := 0
		for _, e := range n.Incoming {
			if e.Kind == EdgeKindContains {
				contains++
			}
		}
		if contains != 1 {
			t.Errorf("function %s has %d incoming contains edges, want 1", n.ID, contains)
		}
	}
}

func TestBuildNoSelfLoops(t *testing.T) {
	records := []*extract.SourceRecord{
		testRecord("a.js",
			[]extract.FunctionDecl{fn("foo", 1)},
			[]extract.ImportRef{imp("./a", 1)},
			[]extract.CallSite{call("foo", 2)},
		),
	}

	g := mustBuild(t, records).Graph

	for _, e := range g.Edges() {
		if e.From == e.To {
			t.Errorf("self-loop edge %s (%s)", e.From, e.Kind)
		}
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []*extract.SourceRecord{testRecord("a.js", nil, nil, nil)}
	_, err := NewBuilder().Build(ctx, records)
	if !errors.Is(err, ErrBuildCancelled) {
		t.Errorf("Build() error = %v, want ErrBuildCancelled", err)
	}
}

func TestBuildNodeLimitTruncates(t *testing.T) {
	records := []*extract.SourceRecord{
		testRecord("a.js", []extract.FunctionDecl{fn("f1", 1), fn("f2", 2), fn("f3", 3)}, nil, nil),
		testRecord("b.js", []extract.FunctionDecl{fn("g1", 1)}, nil, nil),
	}

	result := mustBuild(t, records, WithNodeLimit(2))

	if !result.Incomplete {
		t.Error("expected Incomplete = true when node limit is hit")
	}
	if result.Graph.State() != GraphStateReadOnly {
		t.Error("truncated graph must still be frozen")
	}
	if got := result.Graph.NodeCount(); got != 2 {
		t.Errorf("NodeCount = %d, want 2", got)
	}
}

func TestBuildDeterministic(t *testing.T) {
	make2 := func(order []int) *BuildResult {
		base := []*extract.SourceRecord{
			testRecord("src/a.js", []extract.FunctionDecl{fn("foo", 1)}, []extract.ImportRef{imp("./b", 1)}, []extract.CallSite{call("bar", 2)}),
			testRecord("src/b.js", []extract.FunctionDecl{fn("bar", 1)}, nil, nil),
			testRecord("src/c.js", nil, []extract.ImportRef{imp("./a", 1)}, nil),
		}
		records := make([]*extract.SourceRecord, len(base))
		for i, j := range order {
			records[i] = base[j]
		}
		return mustBuild(t, records)
	}

	first, _ := make2([]int{0, 1, 2}).Graph.ToSerializable()
	second, _ := make2([]int{2, 0, 1}).Graph.ToSerializable()

	if first.Hash != second.Hash {
		t.Errorf("graph hash depends on record order: %s vs %s", first.Hash, second.Hash)
	}
}
