package graph

import (
	"fmt"
	"os"

	"github.com/ic-timon/edgemap/graph/store"
)

// DeserializeFlags control blob validation.
type DeserializeFlags uint32

const (
	// SkipChecksum disables checksum verification. Verification is on by
	// default; skipping it trades corruption detection for read speed and
	// must be an explicit caller decision.
	SkipChecksum DeserializeFlags = 1 << 0
)

// Deserialize reconstructs an owned mutable graph from a binary blob. The
// blob is fully validated first: magic, version, region geometry, checksum
// (unless skipped), every edge endpoint, every adjacency chain index and
// chain link, and every payload reference. On any violation the typed error
// is returned and no partially built graph escapes.
//
// The returned graph shares no storage with data; the caller may reuse or
// unmap the input immediately.
func Deserialize(data []byte, flags DeserializeFlags) (*Graph, error) {
	h, err := store.DecodeHeader(data)
	if err != nil {
		return nil, err
	}
	if err := h.Validate(uint64(len(data))); err != nil {
		return nil, err
	}
	if flags&SkipChecksum == 0 {
		if err := h.VerifyChecksum(data); err != nil {
			return nil, err
		}
	}

	g := New(int(h.NodeCount), int(h.EdgeCount))
	for i := uint64(0); i < h.NodeCount; i++ {
		rec := store.DecodeNodeRecord(data[h.NodeOffset+i*store.NodeRecordSize:])
		if rec.FirstEdge != NilEdge && rec.FirstEdge >= h.EdgeCount {
			return nil, fmt.Errorf("%w: node %d first_edge %d, file has %d edges",
				ErrIntegrity, i, rec.FirstEdge, h.EdgeCount)
		}
		if err := checkPayload("node", i, rec.DataOff, rec.DataLen, h.DataSize); err != nil {
			return nil, err
		}
		if _, dup := g.byID[rec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate node id %d at record %d", ErrIntegrity, rec.ID, i)
		}
		g.nodes = append(g.nodes, Node{
			ID:        rec.ID,
			Type:      rec.Type,
			Flags:     rec.Flags,
			FirstEdge: rec.FirstEdge,
			dataOff:   rec.DataOff,
			dataLen:   rec.DataLen,
		})
		g.byID[rec.ID] = i
	}
	for i := uint64(0); i < h.EdgeCount; i++ {
		rec := store.DecodeEdgeRecord(data[h.EdgeOffset+i*store.EdgeRecordSize:])
		if rec.Source >= h.NodeCount {
			return nil, fmt.Errorf("%w: edge %d source %d, file has %d nodes",
				ErrReference, i, rec.Source, h.NodeCount)
		}
		if rec.Target >= h.NodeCount {
			return nil, fmt.Errorf("%w: edge %d target %d, file has %d nodes",
				ErrReference, i, rec.Target, h.NodeCount)
		}
		if rec.NextEdge != NilEdge && rec.NextEdge >= h.EdgeCount {
			return nil, fmt.Errorf("%w: edge %d next_edge %d, file has %d edges",
				ErrIntegrity, i, rec.NextEdge, h.EdgeCount)
		}
		if err := checkPayload("edge", i, rec.DataOff, rec.DataLen, h.DataSize); err != nil {
			return nil, err
		}
		g.edges = append(g.edges, Edge{
			Source:   rec.Source,
			Target:   rec.Target,
			Type:     rec.Type,
			Flags:    rec.Flags,
			Weight:   rec.Weight,
			NextEdge: rec.NextEdge,
			dataOff:  rec.DataOff,
			dataLen:  rec.DataLen,
		})
	}
	// Every edge belongs to at most one adjacency chain, in one place. A
	// second link into the same edge means two chains share a tail or a chain
	// loops back on itself; either way a neighbor walk would revisit edges.
	refs := make([]bool, h.EdgeCount)
	for i := range g.nodes {
		if e := g.nodes[i].FirstEdge; e != NilEdge {
			if refs[e] {
				return nil, fmt.Errorf("%w: node %d first_edge %d is already linked into another chain",
					ErrIntegrity, i, e)
			}
			refs[e] = true
		}
	}
	for i := range g.edges {
		if e := g.edges[i].NextEdge; e != NilEdge {
			if refs[e] {
				return nil, fmt.Errorf("%w: edge %d next_edge %d is already linked into another chain",
					ErrIntegrity, i, e)
			}
			refs[e] = true
		}
	}
	if h.DataSize > 0 {
		g.data = make([]byte, h.DataSize)
		copy(g.data, data[h.DataOffset:h.DataOffset+h.DataSize])
	}
	return g, nil
}

func checkPayload(kind string, i, off, n, dataSize uint64) error {
	if n == 0 {
		return nil
	}
	if off > dataSize || n > dataSize-off {
		return fmt.Errorf("%w: %s %d payload [%d, %d) exceeds data pool of %d bytes",
			ErrIntegrity, kind, i, off, off+n, dataSize)
	}
	return nil
}

// LoadFrom reads path into memory and deserializes it. Use OpenView instead
// when the graph should stay on disk and be read zero-copy.
func LoadFrom(path string, flags DeserializeFlags) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrResource, path, err)
	}
	return Deserialize(data, flags)
}

// VerifyFile runs the full validating deserializer against path and discards
// the result. It is the strict check to run once before trusting a file to
// OpenView with SkipChecksum.
func VerifyFile(path string) error {
	_, err := LoadFrom(path, 0)
	return err
}
