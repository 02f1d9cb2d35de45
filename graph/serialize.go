package graph

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/ic-timon/edgemap/graph/store"
)

// SerializeFlags control blob production.
type SerializeFlags uint32

const (
	// WithChecksum computes a CRC32 over everything after the header and
	// stores it in the header, enabling corruption detection on read.
	WithChecksum SerializeFlags = 1 << 0
)

// Serialize writes the graph to a complete binary blob: header, node region,
// edge region, data pool, and, when node ids form a dense permutation of
// [0, node_count), an id->offset index region that gives O(1) Lookup on the
// zero-copy view. The buffer grows monotonically; the graph is not modified.
//
// The caller must exclude concurrent mutation for the duration of the call.
func (g *Graph) Serialize(flags SerializeFlags) ([]byte, error) {
	nodeBytes := uint64(len(g.nodes)) * store.NodeRecordSize
	edgeBytes := uint64(len(g.edges)) * store.EdgeRecordSize
	dataBytes := uint64(len(g.data))

	h := store.Header{
		VersionMajor: store.VersionMajor,
		VersionMinor: store.VersionMinor,
		NodeCount:    uint64(len(g.nodes)),
		EdgeCount:    uint64(len(g.edges)),
		DataSize:     dataBytes,
		NodeOffset:   store.HeaderSize,
		EdgeOffset:   store.HeaderSize + nodeBytes,
		DataOffset:   store.HeaderSize + nodeBytes + edgeBytes,
	}
	if flags&WithChecksum != 0 {
		h.Flags |= store.FlagChecksum
	}
	for i := range g.edges {
		if g.edges[i].Weight != 0 {
			h.Flags |= store.FlagWeighted
			break
		}
	}

	dense := true
	for i := range g.nodes {
		if g.nodes[i].ID >= uint64(len(g.nodes)) {
			dense = false
			break
		}
	}
	total := store.HeaderSize + nodeBytes + edgeBytes + dataBytes
	if dense && len(g.nodes) > 0 {
		h.IndexOffset = h.DataOffset + dataBytes
		total += uint64(len(g.nodes)) * store.IndexEntrySize
	}

	hdr, err := store.EncodeHeader(&h)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Grow(int(total))
	buf.Write(hdr)
	for i := range g.nodes {
		n := &g.nodes[i]
		rec := store.NodeRecord{
			ID:        n.ID,
			Type:      n.Type,
			Flags:     n.Flags,
			FirstEdge: n.FirstEdge,
			DataOff:   n.dataOff,
			DataLen:   n.dataLen,
		}
		if err := binary.Write(&buf, binary.LittleEndian, &rec); err != nil {
			return nil, err
		}
	}
	for i := range g.edges {
		e := &g.edges[i]
		rec := store.EdgeRecord{
			Source:   e.Source,
			Target:   e.Target,
			Type:     e.Type,
			Flags:    e.Flags,
			Weight:   e.Weight,
			NextEdge: e.NextEdge,
			DataOff:  e.dataOff,
			DataLen:  e.dataLen,
		}
		if err := binary.Write(&buf, binary.LittleEndian, &rec); err != nil {
			return nil, err
		}
	}
	buf.Write(g.data)
	if h.IndexOffset != 0 {
		// Entry i is the absolute record offset of the node with id i.
		index := make([]uint64, len(g.nodes))
		for pos := range g.nodes {
			index[g.nodes[pos].ID] = h.NodeOffset + uint64(pos)*store.NodeRecordSize
		}
		if err := binary.Write(&buf, binary.LittleEndian, index); err != nil {
			return nil, err
		}
	}

	out := buf.Bytes()
	if flags&WithChecksum != 0 {
		sum := store.Checksum(out[store.HeaderSize:])
		binary.LittleEndian.PutUint32(out[store.HeaderSize-4:], sum)
	}
	return out, nil
}

// SaveTo serializes the graph and writes it to path.
func (g *Graph) SaveTo(path string, flags SerializeFlags) error {
	blob, err := g.Serialize(flags)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrResource, path, err)
	}
	defer f.Close()
	if _, err := f.Write(blob); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrResource, path, err)
	}
	return f.Sync()
}

// SaveToAtomic writes the graph to path atomically: serialize to path+".tmp",
// then rename over the target. Rename replaces an existing file in one step,
// so at every instant the target is either the old complete file or the new
// one; a failed write never clobbers it.
func (g *Graph) SaveToAtomic(path string, flags SerializeFlags) error {
	tmp := path + ".tmp"
	if err := g.SaveTo(tmp, flags); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Fingerprint returns an xxhash64 digest of the graph's serialized image
// with the checksum flag cleared. Two graphs with the same nodes, edges and
// payloads produce the same fingerprint; it is a cheap content identity, not
// an integrity check.
func (g *Graph) Fingerprint() (uint64, error) {
	blob, err := g.Serialize(0)
	if err != nil {
		return 0, err
	}
	return xxhash.Sum64(blob), nil
}
