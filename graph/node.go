package graph

import "github.com/ic-timon/edgemap/graph/store"

// NilEdge is the "no edge" sentinel for adjacency chain references.
const NilEdge = store.NilEdge

// Node is one node of a mutable graph. FirstEdge is the head of the node's
// intrusive out-edge chain: an index into the graph's edge array, or NilEdge.
// Payload bytes live in the graph's data pool and are reached through
// Graph.NodePayload, never through pointers that reallocation could
// invalidate.
type Node struct {
	ID        uint64
	Type      uint32
	Flags     uint32
	FirstEdge uint64
	dataOff   uint64
	dataLen   uint64
}

// Edge is one directed edge. Source and Target are node array positions,
// not caller-assigned ids; resolve positions to ids with Graph.Node.
// NextEdge continues the source node's adjacency chain.
type Edge struct {
	Source   uint64
	Target   uint64
	Type     uint32
	Flags    uint32
	Weight   float64
	NextEdge uint64
	dataOff  uint64
	dataLen  uint64
}

// HasPayload reports whether the node carries payload bytes.
func (n Node) HasPayload() bool { return n.dataLen > 0 }

// HasPayload reports whether the edge carries payload bytes.
func (e Edge) HasPayload() bool { return e.dataLen > 0 }
