package graph

import (
	"errors"

	"github.com/ic-timon/edgemap/graph/store"
)

// Error categories. Format, integrity and reference failures originate in the
// store package and are re-exported here so callers can match either way with
// errors.Is. Every error carries positional context (offset, index, expected
// versus actual value) in its message.
var (
	// ErrFormat reports bad magic or an unsupported major version.
	ErrFormat = store.ErrFormat

	// ErrIntegrity reports checksum mismatches, truncation, out-of-bounds
	// offsets, or corrupt adjacency chains.
	ErrIntegrity = store.ErrIntegrity

	// ErrReference reports an edge endpoint that names no valid node.
	ErrReference = store.ErrReference

	// ErrResource reports file or mapping failures.
	ErrResource = errors.New("resource failure")

	// ErrArgument reports invalid caller input, such as a duplicate node id
	// or an out-of-range index.
	ErrArgument = errors.New("invalid argument")

	// ErrNotFound reports a lookup for a node id the graph does not contain.
	ErrNotFound = errors.New("node not found")

	// ErrNoIndex reports a View.Lookup on a file without an id->offset index
	// region. Lookup by id is O(1) only when the index was written; callers
	// that hit this should fall back to NodeAt with their own id mapping
	// rather than expect the view to scan.
	ErrNoIndex = errors.New("graph file has no id index")

	// ErrViewClosed reports use of a View, NodeRef or EdgeRef after Close.
	ErrViewClosed = errors.New("view is closed")
)
