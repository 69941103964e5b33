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
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
)

// GraphSchemaVersion identifies the serialized layout. Bump on any
// incompatible change to the serializable types.
const GraphSchemaVersion = "1.0"

// SerializableNode is the wire form of one node.
type SerializableNode struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Path     string `json:"path"`
	Name     string `json:"name,omitempty"`
	Line     int    `json:"line,omitempty"`
	Label    string `json:"label"`
	Language string `json:"language,omitempty"`
	DeclKind string `json:"declKind,omitempty"`
}

// SerializableEdge is the wire form of one edge.
type SerializableEdge struct {
	From       string `json:"from"`
	To         string `json:"to"`
	Relation   string `json:"relation"`
	Specifier  string `json:"specifier,omitempty"`
	ImportKind string `json:"importKind,omitempty"`
	Line       int    `json:"line,omitempty"`
}

// SerializableGraph is the deterministic wire form of a frozen graph:
// nodes sorted by ID, edges sorted by (from, to, relation). Two builds
// of the same input serialize byte-identically.
type SerializableGraph struct {
	SchemaVersion string             `json:"schemaVersion"`
	ProjectName   string             `json:"projectName,omitempty"`
	Nodes         []SerializableNode `json:"nodes"`
	Edges         []SerializableEdge `json:"edges"`
	Stats         Stats              `json:"stats"`
	Hash          string             `json:"hash"`
}

// ToSerializable converts a frozen graph to its wire form.
func (g *Graph) ToSerializable() (*SerializableGraph, error) {
	if g.state != GraphStateReadOnly {
		return nil, ErrGraphNotFrozen
	}

	sg := &SerializableGraph{
		SchemaVersion: GraphSchemaVersion,
		ProjectName:   g.projectName,
		Nodes:         make([]SerializableNode, 0, len(g.nodes)),
		Edges:         make([]SerializableEdge, 0, len(g.edgeList)),
		Stats:         g.Stats(),
	}

	for _, n := range g.Nodes() {
		sg.Nodes = append(sg.Nodes, SerializableNode{
			ID:       n.ID.String(),
			Kind:     n.ID.Kind.String(),
			Path:     n.ID.Path,
			Name:     n.ID.Name,
			Line:     n.ID.Line,
			Label:    n.Label,
			Language: n.Language,
			DeclKind: n.DeclKind,
		})
	}

	for _, e := range g.edgeList {
		sg.Edges = append(sg.Edges, SerializableEdge{
			From:       e.From.String(),
			To:         e.To.String(),
			Relation:   e.Kind.String(),
			Specifier:  e.Specifier,
			ImportKind: e.ImportKind,
			Line:       e.Line,
		})
	}
	sort.Slice(sg.Edges, func(i, j int) bool {
		a, b := sg.Edges[i], sg.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Relation < b.Relation
	})

	sg.Hash = sg.computeHash()
	return sg, nil
}

// computeHash digests the sorted node and edge identities. Metadata
// fields are excluded so the hash tracks structure, not labels.
func (sg *SerializableGraph) computeHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "v=%s\n", sg.SchemaVersion)
	for _, n := range sg.Nodes {
		fmt.Fprintf(h, "n=%s\n", n.ID)
	}
	for _, e := range sg.Edges {
		fmt.Fprintf(h, "e=%s>%s:%s\n", e.From, e.To, e.Relation)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// FromSerializable rebuilds a frozen graph from its wire form by
// replaying AddNode and AddEdge, then freezing.
func FromSerializable(sg *SerializableGraph) (*Graph, error) {
	if sg == nil {
		return nil, fmt.Errorf("%w: nil serializable graph", ErrInvalidNode)
	}

	g := NewGraph(WithProjectName(sg.ProjectName))
	for _, sn := range sg.Nodes {
		id, err := ParseNodeID(sn.ID)
		if err != nil {
			return nil, err
		}
		if err := g.AddNode(&Node{
			ID:       id,
			Label:    sn.Label,
			Language: sn.Language,
			DeclKind: sn.DeclKind,
		}); err != nil {
			return nil, fmt.Errorf("replaying node %s: %w", sn.ID, err)
		}
	}
	for _, se := range sg.Edges {
		from, err := ParseNodeID(se.From)
		if err != nil {
			return nil, err
		}
		to, err := ParseNodeID(se.To)
		if err != nil {
			return nil, err
		}
		kind, err := ParseEdgeKind(se.Relation)
		if err != nil {
			return nil, err
		}
		if _, err := g.AddEdge(&Edge{
			From:       from,
			To:         to,
			Kind:       kind,
			Specifier:  se.Specifier,
			ImportKind: se.ImportKind,
			Line:       se.Line,
		}); err != nil {
			return nil, fmt.Errorf("replaying edge %s -> %s: %w", se.From, se.To, err)
		}
	}
	if err := g.Freeze(); err != nil {
		return nil, err
	}
	return g, nil
}
