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
	"testing"

	"github.com/wavecrest-ai/ripple/services/explorer/extract"
)

func TestStatsSumToTotals(t *testing.T) {
	records := []*extract.SourceRecord{
		testRecord("a.js", []extract.FunctionDecl{fn("foo", 1), fn("bar", 8)}, []extract.ImportRef{imp("./b", 1)}, []extract.CallSite{call("baz", 3)}),
		testRecord("b.js", []extract.FunctionDecl{fn("baz", 1)}, nil, []extract.CallSite{call("foo", 2)}),
		testRecord("c.js", nil, []extract.ImportRef{imp("./a", 1), imp("./missing", 2)}, nil),
	}
	g := mustBuild(t, records).Graph
	stats := g.Stats()

	if got, want := stats.TotalNodes(), g.NodeCount(); got != want {
		t.Errorf("TotalNodes() = %d, graph has %d nodes", got, want)
	}
	if got, want := stats.TotalEdges(), g.EdgeCount(); got != want {
		t.Errorf("TotalEdges() = %d, graph has %d edges", got, want)
	}
}

func TestStatsEmptyGraph(t *testing.T) {
	g := mustBuild(t, nil).Graph
	if got := g.Stats(); got != (Stats{}) {
		t.Errorf("Stats() = %+v, want zero value", got)
	}
}
