package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
)

const (
	// HeaderSize is the fixed header size. The checksum is the final field,
	// so it occupies bytes [HeaderSize-4, HeaderSize).
	HeaderSize = 72

	// Magic identifies a valid edgemap graph file.
	Magic = "EMAP"

	// VersionMajor and VersionMinor form the current format version. Readers
	// reject files with a higher major version; minor differences are
	// forward-compatible.
	VersionMajor uint16 = 1
	VersionMinor uint16 = 0

	// NodeRecordSize is the fixed size of one node record.
	NodeRecordSize = 40

	// EdgeRecordSize is the fixed size of one edge record.
	EdgeRecordSize = 56

	// IndexEntrySize is the size of one id->offset index entry.
	IndexEntrySize = 8
)

// NilEdge is the "no edge" sentinel for first_edge/next_edge references.
const NilEdge = ^uint64(0)

// Header flag bits.
const (
	// FlagChecksum marks the checksum field as computed over [HeaderSize, EOF).
	FlagChecksum uint32 = 1 << 0
	// FlagWeighted marks edge weights as meaningful.
	FlagWeighted uint32 = 1 << 1
)

// Error categories for files that fail validation. Wrapped with positional
// context by the functions below; callers match with errors.Is.
var (
	// ErrFormat reports a file that is not an edgemap graph (bad magic) or
	// one written by an incompatible major version.
	ErrFormat = errors.New("invalid graph format")

	// ErrIntegrity reports a structurally damaged file: checksum mismatch,
	// truncation, or offsets that escape the file bounds.
	ErrIntegrity = errors.New("graph file integrity violation")

	// ErrReference reports an edge whose endpoint does not name a valid node.
	ErrReference = errors.New("invalid node reference")
)

// Header is the persisted graph metadata. All fields are little-endian on
// disk regardless of host byte order.
type Header struct {
	Magic        [4]byte
	VersionMajor uint16
	VersionMinor uint16
	Flags        uint32
	NodeCount    uint64
	EdgeCount    uint64
	DataSize     uint64
	NodeOffset   uint64
	EdgeOffset   uint64
	DataOffset   uint64
	IndexOffset  uint64 // 0 when no id->offset index region is present
	Checksum     uint32 // CRC32 (IEEE) over [HeaderSize, EOF), 0 if not computed
}

// EncodeHeader writes the header to a HeaderSize byte slice.
func EncodeHeader(h *Header) ([]byte, error) {
	if h == nil {
		return nil, errors.New("header is nil")
	}
	copy(h.Magic[:], Magic)
	var w bytes.Buffer
	if err := binary.Write(&w, binary.LittleEndian, h); err != nil {
		return nil, err
	}
	b := w.Bytes()
	if len(b) != HeaderSize {
		return nil, fmt.Errorf("encoded header is %d bytes, want %d", len(b), HeaderSize)
	}
	return b, nil
}

// DecodeHeader reads the header from src and checks magic and version.
// It does not validate region geometry; see Header.Validate.
func DecodeHeader(src []byte) (*Header, error) {
	if len(src) < HeaderSize {
		return nil, fmt.Errorf("%w: file is %d bytes, header needs %d", ErrIntegrity, len(src), HeaderSize)
	}
	var h Header
	r := bytes.NewReader(src[:HeaderSize])
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	if string(h.Magic[:]) != Magic {
		return nil, fmt.Errorf("%w: magic %q, want %q", ErrFormat, h.Magic[:], Magic)
	}
	if h.VersionMajor > VersionMajor {
		return nil, fmt.Errorf("%w: file version %d.%d, reader supports up to %d.x",
			ErrFormat, h.VersionMajor, h.VersionMinor, VersionMajor)
	}
	return &h, nil
}

// region is a half-open byte range used during geometry validation.
type region struct {
	name     string
	off, len uint64
}

// Validate checks that every region declared by the header lies inside a
// file of fileSize bytes and that no two regions overlap. Counts are checked
// against the file size first so that offset arithmetic cannot overflow.
func (h *Header) Validate(fileSize uint64) error {
	if fileSize < HeaderSize {
		return fmt.Errorf("%w: file is %d bytes, header needs %d", ErrIntegrity, fileSize, HeaderSize)
	}
	body := fileSize - HeaderSize
	if h.NodeCount > body/NodeRecordSize {
		return fmt.Errorf("%w: node count %d cannot fit in %d byte file", ErrIntegrity, h.NodeCount, fileSize)
	}
	if h.EdgeCount > body/EdgeRecordSize {
		return fmt.Errorf("%w: edge count %d cannot fit in %d byte file", ErrIntegrity, h.EdgeCount, fileSize)
	}
	if h.DataSize > body {
		return fmt.Errorf("%w: data size %d cannot fit in %d byte file", ErrIntegrity, h.DataSize, fileSize)
	}

	regions := []region{
		{"node", h.NodeOffset, h.NodeCount * NodeRecordSize},
		{"edge", h.EdgeOffset, h.EdgeCount * EdgeRecordSize},
		{"data", h.DataOffset, h.DataSize},
	}
	if h.IndexOffset != 0 {
		regions = append(regions, region{"index", h.IndexOffset, h.NodeCount * IndexEntrySize})
	}
	for _, r := range regions {
		if r.len == 0 {
			continue
		}
		if r.off < HeaderSize {
			return fmt.Errorf("%w: %s region offset %d overlaps header", ErrIntegrity, r.name, r.off)
		}
		if r.off > fileSize || r.len > fileSize-r.off {
			return fmt.Errorf("%w: %s region [%d, %d) exceeds file size %d",
				ErrIntegrity, r.name, r.off, r.off+r.len, fileSize)
		}
	}
	for i, a := range regions {
		for _, b := range regions[i+1:] {
			if a.len == 0 || b.len == 0 {
				continue
			}
			if a.off < b.off+b.len && b.off < a.off+a.len {
				return fmt.Errorf("%w: %s region [%d, %d) overlaps %s region [%d, %d)",
					ErrIntegrity, a.name, a.off, a.off+a.len, b.name, b.off, b.off+b.len)
			}
		}
	}
	return nil
}

// VerifyChecksum compares the stored checksum against the CRC32 of the file
// body. data is the complete file including the header. A file without
// FlagChecksum always verifies.
func (h *Header) VerifyChecksum(data []byte) error {
	if h.Flags&FlagChecksum == 0 {
		return nil
	}
	got := Checksum(data[HeaderSize:])
	if got != h.Checksum {
		return fmt.Errorf("%w: checksum mismatch: stored %#08x, computed %#08x", ErrIntegrity, h.Checksum, got)
	}
	return nil
}

// Checksum computes the CRC32 (IEEE reflected polynomial) of body, which must
// be the file contents after the header.
func Checksum(body []byte) uint32 {
	return crc32.ChecksumIEEE(body)
}

// NodeRecord is the fixed-size on-disk representation of a node.
// FirstEdge is an edge array index or NilEdge.
type NodeRecord struct {
	ID        uint64
	Type      uint32
	Flags     uint32
	FirstEdge uint64
	DataOff   uint64
	DataLen   uint64
}

// EdgeRecord is the fixed-size on-disk representation of an edge.
// Source and Target are node array indices; NextEdge is an edge array index
// or NilEdge.
type EdgeRecord struct {
	Source   uint64
	Target   uint64
	Type     uint32
	Flags    uint32
	Weight   float64
	NextEdge uint64
	DataOff  uint64
	DataLen  uint64
}

// Field byte offsets inside a node record.
const (
	nodeOffID        = 0
	nodeOffType      = 8
	nodeOffFlags     = 12
	nodeOffFirstEdge = 16
	nodeOffDataOff   = 24
	nodeOffDataLen   = 32
)

// Field byte offsets inside an edge record.
const (
	edgeOffSource   = 0
	edgeOffTarget   = 8
	edgeOffType     = 16
	edgeOffFlags    = 20
	edgeOffWeight   = 24
	edgeOffNextEdge = 32
	edgeOffDataOff  = 40
	edgeOffDataLen  = 48
)

// DecodeNodeRecord decodes the node record at the start of rec, which must be
// at least NodeRecordSize bytes.
func DecodeNodeRecord(rec []byte) NodeRecord {
	return NodeRecord{
		ID:        binary.LittleEndian.Uint64(rec[nodeOffID:]),
		Type:      binary.LittleEndian.Uint32(rec[nodeOffType:]),
		Flags:     binary.LittleEndian.Uint32(rec[nodeOffFlags:]),
		FirstEdge: binary.LittleEndian.Uint64(rec[nodeOffFirstEdge:]),
		DataOff:   binary.LittleEndian.Uint64(rec[nodeOffDataOff:]),
		DataLen:   binary.LittleEndian.Uint64(rec[nodeOffDataLen:]),
	}
}

// DecodeEdgeRecord decodes the edge record at the start of rec, which must be
// at least EdgeRecordSize bytes.
func DecodeEdgeRecord(rec []byte) EdgeRecord {
	return EdgeRecord{
		Source:   binary.LittleEndian.Uint64(rec[edgeOffSource:]),
		Target:   binary.LittleEndian.Uint64(rec[edgeOffTarget:]),
		Type:     binary.LittleEndian.Uint32(rec[edgeOffType:]),
		Flags:    binary.LittleEndian.Uint32(rec[edgeOffFlags:]),
		Weight:   math.Float64frombits(binary.LittleEndian.Uint64(rec[edgeOffWeight:])),
		NextEdge: binary.LittleEndian.Uint64(rec[edgeOffNextEdge:]),
		DataOff:  binary.LittleEndian.Uint64(rec[edgeOffDataOff:]),
		DataLen:  binary.LittleEndian.Uint64(rec[edgeOffDataLen:]),
	}
}

// NodeFirstEdge reads only the first_edge field of a node record. Used on the
// zero-copy neighbor walk to avoid decoding whole records.
func NodeFirstEdge(rec []byte) uint64 {
	return binary.LittleEndian.Uint64(rec[nodeOffFirstEdge:])
}

// EdgeTarget reads only the target field of an edge record.
func EdgeTarget(rec []byte) uint64 {
	return binary.LittleEndian.Uint64(rec[edgeOffTarget:])
}

// EdgeNext reads only the next_edge field of an edge record.
func EdgeNext(rec []byte) uint64 {
	return binary.LittleEndian.Uint64(rec[edgeOffNextEdge:])
}

// IndexEntry reads one id->offset index entry: the absolute byte offset of
// the node record for the id the entry slot corresponds to.
func IndexEntry(b []byte) uint64 {
	return binary.LittleEndian.Uint64(b)
}
