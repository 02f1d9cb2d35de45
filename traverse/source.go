package traverse

import (
	"errors"
	"runtime"
)

// Source is the read interface the traversal algorithms consume. Both
// *graph.Graph and *graph.View satisfy it. Implementations must be safe for
// concurrent readers.
type Source interface {
	// NodeCount returns the number of nodes; valid positions are
	// [0, NodeCount).
	NodeCount() uint64

	// ForEachNeighbor calls fn with the position of each out-neighbor of the
	// node at pos. fn returning false stops the walk early.
	ForEachNeighbor(pos uint64, fn func(target uint64) bool) error
}

// Sentinel errors reported by the traversal algorithms.
var (
	// ErrOutOfRange reports a start or target position outside the source.
	ErrOutOfRange = errors.New("node position out of range")

	// ErrNoPath reports that no path connects the requested endpoints.
	ErrNoPath = errors.New("no path between nodes")
)

// Options tune a traversal. The zero value (and nil) means: one worker per
// CPU, default chunking.
type Options struct {
	// Workers is the fork-join pool size. 0 means runtime.NumCPU.
	Workers int

	// ChunkSize is the number of node positions a components worker claims
	// at a time. Component sizes vary wildly, so scheduling is dynamic;
	// this only bounds claim overhead. 0 means 256.
	ChunkSize int
}

// OrDefault returns a normalized copy of o, substituting defaults for unset
// fields. A nil receiver yields all defaults.
func (o *Options) OrDefault() *Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.Workers <= 0 {
		out.Workers = runtime.NumCPU()
	}
	if out.ChunkSize <= 0 {
		out.ChunkSize = 256
	}
	return &out
}

// VisitResult reports a BFS or DFS traversal. The visited set and Count are
// deterministic for a given source and start; Depth is the number of BFS
// levels beyond the start, i.e. the largest hop distance reached (zero for
// DFS).
type VisitResult struct {
	Start   uint64
	Count   uint64
	Depth   int
	Visited *Bitset
}

// Nodes returns the visited positions in ascending order.
func (r *VisitResult) Nodes() []uint64 {
	return r.Visited.AppendSet(nil)
}
