package graph

import (
	"fmt"

	"github.com/ic-timon/edgemap/graph/store"
)

// View is a read-only zero-copy window onto an mmap'd graph file. Accessors
// decode fields directly from the mapped bytes; nothing is materialized.
//
// A View is safe for concurrent readers: the mapping is immutable and no
// writer touches the file while views are open. All NodeRef and EdgeRef
// values are borrows whose lifetime ends at Close; using them afterwards
// returns ErrViewClosed (or zero values from infallible accessors), never
// stale data.
type View struct {
	m    *store.Mmap
	data []byte
	hdr  store.Header
}

// OpenView maps path read-only and validates it in place: header geometry
// and, unless SkipChecksum is passed, the CRC32 of the file body. Record
// contents are not pre-scanned; edge and payload references are range-checked
// as they are dereferenced. A file that has never passed VerifyFile (or
// Deserialize) should not be opened with SkipChecksum.
func OpenView(path string, flags DeserializeFlags) (*View, error) {
	m, err := store.OpenMmap(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResource, err)
	}
	data := m.Bytes()
	h, err := store.DecodeHeader(data)
	if err != nil {
		m.Close()
		return nil, err
	}
	if err := h.Validate(uint64(len(data))); err != nil {
		m.Close()
		return nil, err
	}
	if flags&SkipChecksum == 0 {
		if err := h.VerifyChecksum(data); err != nil {
			m.Close()
			return nil, err
		}
	}
	return &View{m: m, data: data, hdr: *h}, nil
}

// Close unmaps the file. Every outstanding NodeRef, EdgeRef and iterator
// becomes invalid.
func (v *View) Close() error {
	v.data = nil
	if v.m == nil {
		return nil
	}
	err := v.m.Close()
	v.m = nil
	return err
}

// Header returns a copy of the file header.
func (v *View) Header() store.Header { return v.hdr }

// NodeCount returns the number of nodes in the file.
func (v *View) NodeCount() uint64 { return v.hdr.NodeCount }

// EdgeCount returns the number of edges in the file.
func (v *View) EdgeCount() uint64 { return v.hdr.EdgeCount }

// HasIndex reports whether the file carries the optional id->offset index
// region that makes Lookup O(1).
func (v *View) HasIndex() bool { return v.hdr.IndexOffset != 0 }

func (v *View) nodeOff(pos uint64) uint64 { return v.hdr.NodeOffset + pos*store.NodeRecordSize }
func (v *View) edgeOff(pos uint64) uint64 { return v.hdr.EdgeOffset + pos*store.EdgeRecordSize }

// NodeAt returns a reference to the node at array position pos. O(1).
func (v *View) NodeAt(pos uint64) (NodeRef, error) {
	if v.data == nil {
		return NodeRef{}, ErrViewClosed
	}
	if pos >= v.hdr.NodeCount {
		return NodeRef{}, fmt.Errorf("%w: node position %d, file has %d nodes", ErrArgument, pos, v.hdr.NodeCount)
	}
	return NodeRef{v: v, pos: pos}, nil
}

// Lookup returns a reference to the node with the given id using the
// id->offset index region. O(1) when the index is present; files written
// without it (non-dense ids) return ErrNoIndex rather than degrading to a
// scan.
func (v *View) Lookup(id uint64) (NodeRef, error) {
	if v.data == nil {
		return NodeRef{}, ErrViewClosed
	}
	if v.hdr.IndexOffset == 0 {
		return NodeRef{}, ErrNoIndex
	}
	if id >= v.hdr.NodeCount {
		return NodeRef{}, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}
	entry := v.hdr.IndexOffset + id*store.IndexEntrySize
	off := store.IndexEntry(v.data[entry:])
	if off < v.hdr.NodeOffset || off >= v.hdr.NodeOffset+v.hdr.NodeCount*store.NodeRecordSize ||
		(off-v.hdr.NodeOffset)%store.NodeRecordSize != 0 {
		return NodeRef{}, fmt.Errorf("%w: index entry for id %d points at %d, outside node region", ErrIntegrity, id, off)
	}
	pos := (off - v.hdr.NodeOffset) / store.NodeRecordSize
	ref := NodeRef{v: v, pos: pos}
	if ref.ID() != id {
		return NodeRef{}, fmt.Errorf("%w: index entry for id %d resolves to node id %d", ErrIntegrity, id, ref.ID())
	}
	return ref, nil
}

// Neighbors returns a lazy, forward-only iterator over the out-edges of the
// node at array position pos, walking the first_edge/next_edge chain on the
// mapped bytes. The iterator is valid only while the View is open.
func (v *View) Neighbors(pos uint64) (*EdgeIter, error) {
	if v.data == nil {
		return nil, ErrViewClosed
	}
	if pos >= v.hdr.NodeCount {
		return nil, fmt.Errorf("%w: node position %d, file has %d nodes", ErrArgument, pos, v.hdr.NodeCount)
	}
	return &EdgeIter{v: v, next: store.NodeFirstEdge(v.data[v.nodeOff(pos):]), node: pos}, nil
}

// ForEachNeighbor walks the out-edge chain of the node at pos and calls fn
// with each target position, without allocating. fn returning false stops
// the walk. A chain index outside the edge region, a chain longer than the
// edge count (a cycle), or a target outside the node region is reported as
// an integrity error.
func (v *View) ForEachNeighbor(pos uint64, fn func(target uint64) bool) error {
	if v.data == nil {
		return ErrViewClosed
	}
	if pos >= v.hdr.NodeCount {
		return fmt.Errorf("%w: node position %d, file has %d nodes", ErrArgument, pos, v.hdr.NodeCount)
	}
	e := store.NodeFirstEdge(v.data[v.nodeOff(pos):])
	var hops uint64
	for e != store.NilEdge {
		if e >= v.hdr.EdgeCount {
			return fmt.Errorf("%w: adjacency chain of node %d references edge %d, file has %d edges",
				ErrIntegrity, pos, e, v.hdr.EdgeCount)
		}
		if hops++; hops > v.hdr.EdgeCount {
			return fmt.Errorf("%w: adjacency chain of node %d exceeds edge count, cycle suspected", ErrIntegrity, pos)
		}
		rec := v.data[v.edgeOff(e):]
		t := store.EdgeTarget(rec)
		if t >= v.hdr.NodeCount {
			return fmt.Errorf("%w: edge %d target %d, file has %d nodes", ErrIntegrity, e, t, v.hdr.NodeCount)
		}
		if !fn(t) {
			return nil
		}
		e = store.EdgeNext(rec)
	}
	return nil
}

// NodeRef is a zero-copy reference to a node record inside a View.
type NodeRef struct {
	v   *View
	pos uint64
}

// Pos returns the node's array position.
func (r NodeRef) Pos() uint64 { return r.pos }

func (r NodeRef) record() []byte {
	if r.v == nil || r.v.data == nil {
		return nil
	}
	return r.v.data[r.v.nodeOff(r.pos):]
}

// ID returns the node id, or 0 after the view is closed.
func (r NodeRef) ID() uint64 {
	rec := r.record()
	if rec == nil {
		return 0
	}
	return store.DecodeNodeRecord(rec).ID
}

// Type returns the node type tag.
func (r NodeRef) Type() uint32 {
	rec := r.record()
	if rec == nil {
		return 0
	}
	return store.DecodeNodeRecord(rec).Type
}

// Flags returns the node flag bitset.
func (r NodeRef) Flags() uint32 {
	rec := r.record()
	if rec == nil {
		return 0
	}
	return store.DecodeNodeRecord(rec).Flags
}

// Data returns the node payload as a zero-copy slice of the mapped file,
// valid until the view is closed. The caller must not modify it.
func (r NodeRef) Data() ([]byte, error) {
	rec := r.record()
	if rec == nil {
		return nil, ErrViewClosed
	}
	n := store.DecodeNodeRecord(rec)
	return r.v.payloadSlice("node", r.pos, n.DataOff, n.DataLen)
}

// EdgeIter iterates a node's out-edge chain lazily. Use Next until it
// returns false, then check Err for chain corruption.
type EdgeIter struct {
	v    *View
	node uint64
	next uint64
	hops uint64
	err  error
}

// Next returns the next edge in the chain.
func (it *EdgeIter) Next() (EdgeRef, bool) {
	if it.err != nil || it.next == store.NilEdge {
		return EdgeRef{}, false
	}
	if it.v.data == nil {
		it.err = ErrViewClosed
		return EdgeRef{}, false
	}
	e := it.next
	if e >= it.v.hdr.EdgeCount {
		it.err = fmt.Errorf("%w: adjacency chain of node %d references edge %d, file has %d edges",
			ErrIntegrity, it.node, e, it.v.hdr.EdgeCount)
		return EdgeRef{}, false
	}
	if it.hops++; it.hops > it.v.hdr.EdgeCount {
		it.err = fmt.Errorf("%w: adjacency chain of node %d exceeds edge count, cycle suspected", ErrIntegrity, it.node)
		return EdgeRef{}, false
	}
	it.next = store.EdgeNext(it.v.data[it.v.edgeOff(e):])
	return EdgeRef{v: it.v, pos: e}, true
}

// Err returns the chain corruption error that stopped iteration, if any.
func (it *EdgeIter) Err() error { return it.err }

// EdgeRef is a zero-copy reference to an edge record inside a View.
type EdgeRef struct {
	v   *View
	pos uint64
}

// Pos returns the edge's array position.
func (r EdgeRef) Pos() uint64 { return r.pos }

func (r EdgeRef) record() []byte {
	if r.v == nil || r.v.data == nil {
		return nil
	}
	return r.v.data[r.v.edgeOff(r.pos):]
}

// Source returns the source node position.
func (r EdgeRef) Source() uint64 {
	rec := r.record()
	if rec == nil {
		return 0
	}
	return store.DecodeEdgeRecord(rec).Source
}

// Target returns the target node position.
func (r EdgeRef) Target() uint64 {
	rec := r.record()
	if rec == nil {
		return 0
	}
	return store.DecodeEdgeRecord(rec).Target
}

// Type returns the edge type tag.
func (r EdgeRef) Type() uint32 {
	rec := r.record()
	if rec == nil {
		return 0
	}
	return store.DecodeEdgeRecord(rec).Type
}

// Flags returns the edge flag bitset.
func (r EdgeRef) Flags() uint32 {
	rec := r.record()
	if rec == nil {
		return 0
	}
	return store.DecodeEdgeRecord(rec).Flags
}

// Weight returns the edge weight. Meaningful when the header carries
// FlagWeighted.
func (r EdgeRef) Weight() float64 {
	rec := r.record()
	if rec == nil {
		return 0
	}
	return store.DecodeEdgeRecord(rec).Weight
}

// Data returns the edge payload as a zero-copy slice of the mapped file,
// valid until the view is closed. The caller must not modify it.
func (r EdgeRef) Data() ([]byte, error) {
	rec := r.record()
	if rec == nil {
		return nil, ErrViewClosed
	}
	e := store.DecodeEdgeRecord(rec)
	return r.v.payloadSlice("edge", r.pos, e.DataOff, e.DataLen)
}

func (v *View) payloadSlice(kind string, pos, off, n uint64) ([]byte, error) {
	if n == 0 {
		return nil, nil
	}
	if off > v.hdr.DataSize || n > v.hdr.DataSize-off {
		return nil, fmt.Errorf("%w: %s %d payload [%d, %d) exceeds data pool of %d bytes",
			ErrIntegrity, kind, pos, off, off+n, v.hdr.DataSize)
	}
	start := v.hdr.DataOffset + off
	return v.data[start : start+n : start+n], nil
}
