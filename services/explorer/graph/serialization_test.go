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

func serializableFixture(t *testing.T) *SerializableGraph {
	t.Helper()
	records := []*extract.SourceRecord{
		testRecord("a.js", []extract.FunctionDecl{fn("foo", 3)}, []extract.ImportRef{imp("./b", 1)}, []extract.CallSite{call("bar", 4)}),
		testRecord("b.js", []extract.FunctionDecl{fn("bar", 1)}, nil, nil),
	}
	sg, err := mustBuild(t, records, WithProject("fixture")).Graph.ToSerializable()
	if err != nil {
		t.Fatalf("ToSerializable() error = %v", err)
	}
	return sg
}

func TestToSerializableRequiresFrozen(t *testing.T) {
	if _, err := NewGraph().ToSerializable(); err != ErrGraphNotFrozen {
		t.Errorf("ToSerializable on building graph: error = %v, want ErrGraphNotFrozen", err)
	}
}

func TestSerializableIsSorted(t *testing.T) {
	sg := serializableFixture(t)

	for i := 1; i < len(sg.Nodes); i++ {
		if sg.Nodes[i-1].ID >= sg.Nodes[i].ID {
			t.Errorf("nodes out of order at %d: %s >= %s", i, sg.Nodes[i-1].ID, sg.Nodes[i].ID)
		}
	}
	for i := 1; i < len(sg.Edges); i++ {
		prev, cur := sg.Edges[i-1], sg.Edges[i]
		if prev.From > cur.From {
			t.Errorf("edges out of order at %d: %s > %s", i, prev.From, cur.From)
		}
	}
	if sg.SchemaVersion != GraphSchemaVersion {
		t.Errorf("SchemaVersion = %q, want %q", sg.SchemaVersion, GraphSchemaVersion)
	}
	if sg.Hash == "" {
		t.Error("Hash is empty")
	}
}

func TestFromSerializableRoundTrip(t *testing.T) {
	sg := serializableFixture(t)

	g, err := FromSerializable(sg)
	if err != nil {
		t.Fatalf("FromSerializable() error = %v", err)
	}
	if g.State() != GraphStateReadOnly {
		t.Error("rebuilt graph must be frozen")
	}

	again, err := g.ToSerializable()
	if err != nil {
		t.Fatalf("ToSerializable() error = %v", err)
	}
	if again.Hash != sg.Hash {
		t.Errorf("round-trip hash = %s, want %s", again.Hash, sg.Hash)
	}
	if again.Stats != sg.Stats {
		t.Errorf("round-trip stats = %+v, want %+v", again.Stats, sg.Stats)
	}
}

func TestFromSerializableRejectsBadInput(t *testing.T) {
	if _, err := FromSerializable(nil); err == nil {
		t.Error("FromSerializable(nil) = nil error, want error")
	}

	sg := serializableFixture(t)
	sg.Edges = append(sg.Edges, SerializableEdge{From: "file:a.js", To: "file:ghost.js", Relation: "imports"})
	if _, err := FromSerializable(sg); err == nil {
		t.Error("dangling edge must fail replay")
	}
}
