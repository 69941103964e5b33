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

// Stats holds aggregate counts for the summary panel.
type Stats struct {
	FileNodes     int `json:"fileNodes"`
	FunctionNodes int `json:"functionNodes"`
	ImportEdges   int `json:"importEdges"`
	CallEdges     int `json:"callEdges"`
	ContainsEdges int `json:"containsEdges"`
}

// TotalNodes returns FileNodes + FunctionNodes.
func (s Stats) TotalNodes() int { return s.FileNodes + s.FunctionNodes }

// TotalEdges returns the sum of the per-relation edge counts.
func (s Stats) TotalEdges() int { return s.ImportEdges + s.CallEdges + s.ContainsEdges }

// Stats derives aggregate counts from the secondary indexes in O(1).
// Valid in any lifecycle state.
func (g *Graph) Stats() Stats {
	return Stats{
		FileNodes:     len(g.nodesByKind[NodeKindFile]),
		FunctionNodes: len(g.nodesByKind[NodeKindFunction]),
		ImportEdges:   len(g.edgesByKind[EdgeKindImports]),
		CallEdges:     len(g.edgesByKind[EdgeKindCalls]),
		ContainsEdges: len(g.edgesByKind[EdgeKindContains]),
	}
}
