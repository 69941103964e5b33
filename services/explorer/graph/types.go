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
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// GraphState tracks the build lifecycle of a Graph.
type GraphState int

const (
	// GraphStateBuilding allows mutation, confined to one goroutine.
	GraphStateBuilding GraphState = iota

	// GraphStateReadOnly is entered by Freeze. The graph is immutable
	// and safe for concurrent reads.
	GraphStateReadOnly
)

// NodeKind discriminates file nodes from function nodes.
type NodeKind int

const (
	// NodeKindFile represents one source file.
	NodeKindFile NodeKind = iota

	// NodeKindFunction represents one function declared in a file.
	NodeKindFunction
)

var nodeKindNames = map[NodeKind]string{
	NodeKindFile:     "file",
	NodeKindFunction: "function",
}

// String returns the human-readable name of the node kind.
func (k NodeKind) String() string {
	if name, ok := nodeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// EdgeKind is the relation an edge carries.
type EdgeKind int

const (
	// EdgeKindContains links a file node to a function it declares.
	EdgeKindContains EdgeKind = iota

	// EdgeKindImports links a file node to a file it imports.
	EdgeKindImports

	// EdgeKindCalls links a caller to a callee. The caller is the
	// containing function when one exists, otherwise the file itself.
	EdgeKindCalls

	// NumEdgeKinds is the number of edge kinds. Keep last.
	NumEdgeKinds
)

var edgeKindNames = map[EdgeKind]string{
	EdgeKindContains: "contains",
	EdgeKindImports:  "imports",
	EdgeKindCalls:    "calls",
}

// String returns the human-readable name of the edge kind.
func (k EdgeKind) String() string {
	if name, ok := edgeKindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseEdgeKind maps a relation name back to its EdgeKind.
func ParseEdgeKind(s string) (EdgeKind, error) {
	for k, name := range edgeKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidEdgeKind, s)
}

// NodeID is the structured identity of a node. Two nodes are the same
// node exactly when their NodeIDs are equal; the struct is comparable
// and used directly as a map key, so identity never depends on string
// formatting.
//
// For file nodes only Path is set. For function nodes Path, Name, and
// Line are all set, which keeps two same-named functions in one file
// distinct as long as they start on different lines.
type NodeID struct {
	Kind NodeKind
	Path string
	Name string
	Line int
}

// FileID returns the identity of the file node for path.
func FileID(path string) NodeID {
	return NodeID{Kind: NodeKindFile, Path: path}
}

// FunctionID returns the identity of the function node for a
// declaration in path.
func FunctionID(path, name string, line int) NodeID {
	return NodeID{Kind: NodeKindFunction, Path: path, Name: name, Line: line}
}

// String renders the identity for wire use: "file:<path>" or
// "func:<path>:<name>:<line>". The rendering is derived from the
// struct, never the other way around internally.
func (id NodeID) String() string {
	if id.Kind == NodeKindFile {
		return "file:" + id.Path
	}
	return "func:" + id.Path + ":" + id.Name + ":" + strconv.Itoa(id.Line)
}

// ParseNodeID parses the wire form produced by String. Function IDs
// are parsed from the right since paths may contain colons on some
// filesystems but names and lines never do.
func ParseNodeID(s string) (NodeID, error) {
	switch {
	case strings.HasPrefix(s, "file:"):
		path := s[len("file:"):]
		if path == "" {
			return NodeID{}, fmt.Errorf("%w: empty file path in %q", ErrInvalidNode, s)
		}
		return FileID(path), nil

	case strings.HasPrefix(s, "func:"):
		rest := s[len("func:"):]
		lineSep := strings.LastIndexByte(rest, ':')
		if lineSep <= 0 {
			return NodeID{}, fmt.Errorf("%w: malformed function id %q", ErrInvalidNode, s)
		}
		line, err := strconv.Atoi(rest[lineSep+1:])
		if err != nil || line < 1 {
			return NodeID{}, fmt.Errorf("%w: bad line in function id %q", ErrInvalidNode, s)
		}
		nameSep := strings.LastIndexByte(rest[:lineSep], ':')
		if nameSep <= 0 {
			return NodeID{}, fmt.Errorf("%w: malformed function id %q", ErrInvalidNode, s)
		}
		path, name := rest[:nameSep], rest[nameSep+1:lineSep]
		if path == "" || name == "" {
			return NodeID{}, fmt.Errorf("%w: empty path or name in %q", ErrInvalidNode, s)
		}
		return FunctionID(path, name, line), nil

	default:
		return NodeID{}, fmt.Errorf("%w: unknown id prefix in %q", ErrInvalidNode, s)
	}
}

// Validate checks structural invariants of the identity.
func (id NodeID) Validate() error {
	if id.Path == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidNode)
	}
	switch id.Kind {
	case NodeKindFile:
		if id.Name != "" || id.Line != 0 {
			return fmt.Errorf("%w: file id carries function fields", ErrInvalidNode)
		}
	case NodeKindFunction:
		if id.Name == "" {
			return fmt.Errorf("%w: function id missing name", ErrInvalidNode)
		}
		if id.Line < 1 {
			return fmt.Errorf("%w: function id line %d < 1", ErrInvalidNode, id.Line)
		}
	default:
		return fmt.Errorf("%w: unknown kind %d", ErrInvalidNode, id.Kind)
	}
	return nil
}

// Node is one vertex of the graph. Adjacency lists are maintained by
// AddEdge and become immutable after Freeze.
type Node struct {
	ID NodeID

	// Label is what UIs display: the base name of a file, or the
	// function name.
	Label string

	// Language is the extraction language of the owning file.
	Language string

	// DeclKind is "declaration", "method", or "arrow" for function
	// nodes, empty for file nodes.
	DeclKind string

	Outgoing []*Edge
	Incoming []*Edge
}

// Edge is one directed relation between two nodes. Identity is the
// (From, To, Kind) triple; metadata fields like Specifier do not
// participate in identity, so re-adding the same relation with a
// different specifier is a no-op.
type Edge struct {
	From NodeID
	To   NodeID
	Kind EdgeKind

	// Specifier preserves the raw import string for imports edges.
	Specifier string

	// ImportKind records how the import was written ("static",
	// "require", "dynamic"). Empty for non-import edges.
	ImportKind string

	// Line is the source line the relation originates from (import
	// line or call line). Zero for contains edges.
	Line int
}

// edgeKey is the deduplication identity of an edge.
type edgeKey struct {
	from NodeID
	to   NodeID
	kind EdgeKind
}

// Graph holds the nodes and edges of one built project.
//
// Thread Safety: mutation is single-goroutine while building; after
// Freeze all read methods are safe for concurrent use. Read methods
// that return slices return copies.
type Graph struct {
	state GraphState

	projectName string
	maxNodes    int
	maxEdges    int

	nodes    map[NodeID]*Node
	edgeSet  map[edgeKey]*Edge
	edgeList []*Edge

	// Secondary indexes, maintained incrementally.
	nodesByKind map[NodeKind][]*Node
	nodesByName map[string][]*Node
	edgesByKind [NumEdgeKinds][]*Edge

	frozenAt time.Time
}

const (
	// DefaultMaxNodes bounds graph size against pathological uploads.
	DefaultMaxNodes = 500_000

	// DefaultMaxEdges bounds total edge count.
	DefaultMaxEdges = 2_000_000
)

// GraphOption configures a new Graph.
type GraphOption func(*Graph)

// WithProjectName records the project name on the graph for logging
// and serialization.
func WithProjectName(name string) GraphOption {
	return func(g *Graph) { g.projectName = name }
}

// WithMaxNodes overrides the node limit. Non-positive values keep the
// default.
func WithMaxNodes(n int) GraphOption {
	return func(g *Graph) {
		if n > 0 {
			g.maxNodes = n
		}
	}
}

// WithMaxEdges overrides the edge limit. Non-positive values keep the
// default.
func WithMaxEdges(n int) GraphOption {
	return func(g *Graph) {
		if n > 0 {
			g.maxEdges = n
		}
	}
}

// NewGraph returns an empty graph in GraphStateBuilding.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		state:       GraphStateBuilding,
		maxNodes:    DefaultMaxNodes,
		maxEdges:    DefaultMaxEdges,
		nodes:       make(map[NodeID]*Node),
		edgeSet:     make(map[edgeKey]*Edge),
		nodesByKind: make(map[NodeKind][]*Node),
		nodesByName: make(map[string][]*Node),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// State returns the current lifecycle state.
func (g *Graph) State() GraphState { return g.state }

// ProjectName returns the name recorded with WithProjectName.
func (g *Graph) ProjectName() string { return g.projectName }

// FrozenAt returns when Freeze was called, zero if still building.
func (g *Graph) FrozenAt() time.Time { return g.frozenAt }

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edgeList) }

// AddNode inserts a node.
//
// Errors:
//   - ErrGraphFrozen if called after Freeze
//   - ErrInvalidNode if the identity fails validation
//   - ErrDuplicateNode if the identity already exists
//   - ErrMaxNodesExceeded if the node limit is reached
func (g *Graph) AddNode(node *Node) error {
	if g.state != GraphStateBuilding {
		return ErrGraphFrozen
	}
	if node == nil {
		return fmt.Errorf("%w: nil node", ErrInvalidNode)
	}
	if err := node.ID.Validate(); err != nil {
		return err
	}
	if _, exists := g.nodes[node.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
	}
	if len(g.nodes) >= g.maxNodes {
		return fmt.Errorf("%w: limit %d", ErrMaxNodesExceeded, g.maxNodes)
	}

	g.nodes[node.ID] = node
	g.nodesByKind[node.ID.Kind] = append(g.nodesByKind[node.ID.Kind], node)
	if node.ID.Kind == NodeKindFunction {
		g.nodesByName[node.ID.Name] = append(g.nodesByName[node.ID.Name], node)
	}
	return nil
}

// AddEdge inserts a directed edge and wires both adjacency lists.
//
// Adding an edge whose (From, To, Kind) triple already exists is a
// deliberate no-op: the method returns (false, nil) and the first
// edge's metadata wins. Self-loops are rejected with ErrSelfLoop.
//
// Errors:
//   - ErrGraphFrozen if called after Freeze
//   - ErrInvalidEdgeKind if Kind is out of range
//   - ErrSelfLoop if From == To
//   - ErrNodeNotFound if either endpoint is missing
//   - ErrMaxEdgesExceeded if the edge limit is reached
func (g *Graph) AddEdge(edge *Edge) (bool, error) {
	if g.state != GraphStateBuilding {
		return false, ErrGraphFrozen
	}
	if edge == nil {
		return false, fmt.Errorf("%w: nil edge", ErrInvalidEdgeKind)
	}
	if edge.Kind < 0 || edge.Kind >= NumEdgeKinds {
		return false, fmt.Errorf("%w: %d", ErrInvalidEdgeKind, edge.Kind)
	}
	if edge.From == edge.To {
		return false, fmt.Errorf("%w: %s", ErrSelfLoop, edge.From)
	}

	from, ok := g.nodes[edge.From]
	if !ok {
		return false, fmt.Errorf("%w: edge source %s", ErrNodeNotFound, edge.From)
	}
	to, ok := g.nodes[edge.To]
	if !ok {
		return false, fmt.Errorf("%w: edge target %s", ErrNodeNotFound, edge.To)
	}

	key := edgeKey{from: edge.From, to: edge.To, kind: edge.Kind}
	if _, exists := g.edgeSet[key]; exists {
		return false, nil
	}
	if len(g.edgeList) >= g.maxEdges {
		return false, fmt.Errorf("%w: limit %d", ErrMaxEdgesExceeded, g.maxEdges)
	}

	g.edgeSet[key] = edge
	g.edgeList = append(g.edgeList, edge)
	g.edgesByKind[edge.Kind] = append(g.edgesByKind[edge.Kind], edge)
	from.Outgoing = append(from.Outgoing, edge)
	to.Incoming = append(to.Incoming, edge)
	return true, nil
}

// Freeze transitions the graph to read-only and validates the
// secondary indexes. Freeze is idempotent.
func (g *Graph) Freeze() error {
	if g.state == GraphStateReadOnly {
		return nil
	}
	if err := g.validateIndexes(); err != nil {
		return err
	}
	g.state = GraphStateReadOnly
	g.frozenAt = time.Now()
	return nil
}

// validateIndexes cross-checks the secondary indexes against the
// primary maps before the graph is published to readers.
func (g *Graph) validateIndexes() error {
	kindTotal := 0
	for _, nodes := range g.nodesByKind {
		kindTotal += len(nodes)
	}
	if kindTotal != len(g.nodes) {
		return fmt.Errorf("nodesByKind holds %d nodes, graph holds %d", kindTotal, len(g.nodes))
	}

	edgeTotal := 0
	for k := EdgeKind(0); k < NumEdgeKinds; k++ {
		edgeTotal += len(g.edgesByKind[k])
	}
	if edgeTotal != len(g.edgeList) {
		return fmt.Errorf("edgesByKind holds %d edges, graph holds %d", edgeTotal, len(g.edgeList))
	}
	if len(g.edgeSet) != len(g.edgeList) {
		return fmt.Errorf("edge set holds %d edges, list holds %d", len(g.edgeSet), len(g.edgeList))
	}
	return nil
}

// GetNode returns the node for id.
func (g *Graph) GetNode(id NodeID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id exists in the graph.
func (g *Graph) HasNode(id NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

// GetEdge returns the edge for the (from, to, kind) triple.
func (g *Graph) GetEdge(from, to NodeID, kind EdgeKind) (*Edge, bool) {
	e, ok := g.edgeSet[edgeKey{from: from, to: to, kind: kind}]
	return e, ok
}

// Nodes returns all nodes sorted by ID string. The slice is a copy.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// NodesByKind returns all nodes of the given kind sorted by ID string.
// The slice is a copy.
func (g *Graph) NodesByKind(kind NodeKind) []*Node {
	src := g.nodesByKind[kind]
	out := make([]*Node, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// NodesByName returns all function nodes declared with name, sorted by
// ID string. The slice is a copy.
func (g *Graph) NodesByName(name string) []*Node {
	src := g.nodesByName[name]
	out := make([]*Node, len(src))
	copy(out, src)
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// Edges returns all edges in insertion order. The slice is a copy.
func (g *Graph) Edges() []*Edge {
	out := make([]*Edge, len(g.edgeList))
	copy(out, g.edgeList)
	return out
}

// EdgesByKind returns all edges with the given kind in insertion
// order. The slice is a copy.
func (g *Graph) EdgesByKind(kind EdgeKind) []*Edge {
	if kind < 0 || kind >= NumEdgeKinds {
		return nil
	}
	src := g.edgesByKind[kind]
	out := make([]*Edge, len(src))
	copy(out, src)
	return out
}

// Successors returns the distinct targets of id's outgoing edges,
// sorted by ID string. An unknown id returns nil.
func (g *Graph) Successors(id NodeID) []NodeID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	seen := make(map[NodeID]struct{}, len(n.Outgoing))
	out := make([]NodeID, 0, len(n.Outgoing))
	for _, e := range n.Outgoing {
		if _, dup := seen[e.To]; dup {
			continue
		}
		seen[e.To] = struct{}{}
		out = append(out, e.To)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

// Predecessors returns the distinct sources of id's incoming edges,
// sorted by ID string. An unknown id returns nil.
func (g *Graph) Predecessors(id NodeID) []NodeID {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	seen := make(map[NodeID]struct{}, len(n.Incoming))
	out := make([]NodeID, 0, len(n.Incoming))
	for _, e := range n.Incoming {
		if _, dup := seen[e.From]; dup {
			continue
		}
		seen[e.From] = struct{}{}
		out = append(out, e.From)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
