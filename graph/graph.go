package graph

import (
	"fmt"
	"unsafe"
)

// Graph is a mutable in-memory directed graph. It owns growable node and
// edge arrays plus a contiguous data pool for variable payloads; growth is
// geometric and the arrays never shrink during a session.
//
// Mutation is single-threaded: a Graph must only be modified by its owning
// goroutine. Read-only use (NeighborsOf, ForEachNeighbor, Serialize) is safe
// from multiple goroutines once mutation has stopped.
type Graph struct {
	nodes []Node
	edges []Edge
	data  []byte
	byID  map[uint64]uint64 // node id -> array position
}

// New creates an empty graph with capacity hints. Hints may be zero.
func New(nodeHint, edgeHint int) *Graph {
	if nodeHint < 0 {
		nodeHint = 0
	}
	if edgeHint < 0 {
		edgeHint = 0
	}
	return &Graph{
		nodes: make([]Node, 0, nodeHint),
		edges: make([]Edge, 0, edgeHint),
		byID:  make(map[uint64]uint64, nodeHint),
	}
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() uint64 { return uint64(len(g.nodes)) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() uint64 { return uint64(len(g.edges)) }

// AddNode appends a node. id must be unique within the graph; payload may be
// nil and is copied into the graph's data pool.
func (g *Graph) AddNode(id uint64, typ, flags uint32, payload []byte) error {
	if _, dup := g.byID[id]; dup {
		return fmt.Errorf("%w: duplicate node id %d", ErrArgument, id)
	}
	off, n := g.appendPayload(payload)
	g.nodes = append(g.nodes, Node{
		ID:        id,
		Type:      typ,
		Flags:     flags,
		FirstEdge: NilEdge,
		dataOff:   off,
		dataLen:   n,
	})
	g.byID[id] = uint64(len(g.nodes) - 1)
	return nil
}

// AddEdge appends a directed edge between two existing nodes, identified by
// their ids. Edge flags default to zero; use AddEdgeFull to set them.
func (g *Graph) AddEdge(source, target uint64, typ uint32, weight float64, payload []byte) error {
	return g.AddEdgeFull(source, target, typ, 0, weight, payload)
}

// AddEdgeFull is AddEdge with explicit edge flags. Both endpoints must
// already exist; a missing endpoint is a reference error, never a silent
// truncation. The new edge becomes the head of the source node's adjacency
// chain, so NeighborsOf yields most-recently-added edges first.
func (g *Graph) AddEdgeFull(source, target uint64, typ, flags uint32, weight float64, payload []byte) error {
	si, ok := g.byID[source]
	if !ok {
		return fmt.Errorf("%w: edge source id %d", ErrReference, source)
	}
	ti, ok := g.byID[target]
	if !ok {
		return fmt.Errorf("%w: edge target id %d", ErrReference, target)
	}
	off, n := g.appendPayload(payload)
	idx := uint64(len(g.edges))
	g.edges = append(g.edges, Edge{
		Source:   si,
		Target:   ti,
		Type:     typ,
		Flags:    flags,
		Weight:   weight,
		NextEdge: g.nodes[si].FirstEdge,
		dataOff:  off,
		dataLen:  n,
	})
	g.nodes[si].FirstEdge = idx
	return nil
}

func (g *Graph) appendPayload(payload []byte) (off, n uint64) {
	if len(payload) == 0 {
		return 0, 0
	}
	off = uint64(len(g.data))
	g.data = append(g.data, payload...)
	return off, uint64(len(payload))
}

// FindNode returns the array position of the node with the given id.
func (g *Graph) FindNode(id uint64) (uint64, bool) {
	pos, ok := g.byID[id]
	return pos, ok
}

// Node returns a copy of the node at the given array position.
func (g *Graph) Node(pos uint64) (Node, error) {
	if pos >= uint64(len(g.nodes)) {
		return Node{}, fmt.Errorf("%w: node position %d, graph has %d nodes", ErrArgument, pos, len(g.nodes))
	}
	return g.nodes[pos], nil
}

// Edge returns a copy of the edge at the given array position.
func (g *Graph) Edge(pos uint64) (Edge, error) {
	if pos >= uint64(len(g.edges)) {
		return Edge{}, fmt.Errorf("%w: edge position %d, graph has %d edges", ErrArgument, pos, len(g.edges))
	}
	return g.edges[pos], nil
}

// NodePayload returns an owned copy of the payload of the node at pos, or
// nil when the node has none. Copies keep callers safe across pool growth.
func (g *Graph) NodePayload(pos uint64) []byte {
	if pos >= uint64(len(g.nodes)) {
		return nil
	}
	return g.payloadCopy(g.nodes[pos].dataOff, g.nodes[pos].dataLen)
}

// EdgePayload returns an owned copy of the payload of the edge at pos, or
// nil when the edge has none.
func (g *Graph) EdgePayload(pos uint64) []byte {
	if pos >= uint64(len(g.edges)) {
		return nil
	}
	return g.payloadCopy(g.edges[pos].dataOff, g.edges[pos].dataLen)
}

func (g *Graph) payloadCopy(off, n uint64) []byte {
	if n == 0 {
		return nil
	}
	out := make([]byte, n)
	copy(out, g.data[off:off+n])
	return out
}

// NeighborsOf returns the ids of the out-neighbors of the node with the
// given id, in adjacency chain order.
func (g *Graph) NeighborsOf(id uint64) ([]uint64, error) {
	pos, ok := g.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	var out []uint64
	err := g.ForEachNeighbor(pos, func(t uint64) bool {
		out = append(out, g.nodes[t].ID)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ForEachNeighbor walks the out-edge chain of the node at array position pos
// and calls fn with each target position. fn returning false stops the walk.
// A chain longer than the edge count (a cycle) is reported as an integrity
// error rather than walked forever. This is the read interface the traversal
// algorithms consume; the zero-copy View exposes the same method.
func (g *Graph) ForEachNeighbor(pos uint64, fn func(target uint64) bool) error {
	if pos >= uint64(len(g.nodes)) {
		return fmt.Errorf("%w: node position %d, graph has %d nodes", ErrArgument, pos, len(g.nodes))
	}
	var hops uint64
	for e := g.nodes[pos].FirstEdge; e != NilEdge; e = g.edges[e].NextEdge {
		if hops++; hops > uint64(len(g.edges)) {
			return fmt.Errorf("%w: adjacency chain of node %d exceeds edge count, cycle suspected", ErrIntegrity, pos)
		}
		if !fn(g.edges[e].Target) {
			return nil
		}
	}
	return nil
}

// Clone returns a deep copy. The clone shares no storage with the original.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes: make([]Node, len(g.nodes)),
		edges: make([]Edge, len(g.edges)),
		data:  make([]byte, len(g.data)),
		byID:  make(map[uint64]uint64, len(g.byID)),
	}
	copy(c.nodes, g.nodes)
	copy(c.edges, g.edges)
	copy(c.data, g.data)
	for id, pos := range g.byID {
		c.byID[id] = pos
	}
	return c
}

// Stats summarizes a graph.
type Stats struct {
	Nodes        uint64
	Edges        uint64
	PayloadBytes uint64
	MemoryBytes  uint64 // approximate resident footprint of arrays and pool
	AvgOutDegree float64
}

// Stats returns node/edge counts, payload size, an approximate memory
// footprint, and the average out-degree.
func (g *Graph) Stats() Stats {
	s := Stats{
		Nodes:        uint64(len(g.nodes)),
		Edges:        uint64(len(g.edges)),
		PayloadBytes: uint64(len(g.data)),
	}
	s.MemoryBytes = uint64(cap(g.nodes))*uint64(unsafe.Sizeof(Node{})) +
		uint64(cap(g.edges))*uint64(unsafe.Sizeof(Edge{})) +
		uint64(cap(g.data)) +
		uint64(len(g.byID))*16
	if s.Nodes > 0 {
		s.AvgOutDegree = float64(s.Edges) / float64(s.Nodes)
	}
	return s
}
