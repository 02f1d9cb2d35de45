package store

import (
	"encoding/binary"
	"errors"
	"testing"
)

func validHeader() Header {
	return Header{
		VersionMajor: VersionMajor,
		VersionMinor: VersionMinor,
		NodeCount:    2,
		EdgeCount:    1,
		DataSize:     8,
		NodeOffset:   HeaderSize,
		EdgeOffset:   HeaderSize + 2*NodeRecordSize,
		DataOffset:   HeaderSize + 2*NodeRecordSize + EdgeRecordSize,
	}
}

func (h Header) fileSize() uint64 {
	size := h.DataOffset + h.DataSize
	if h.IndexOffset != 0 {
		size = h.IndexOffset + h.NodeCount*IndexEntrySize
	}
	return size
}

func TestHeaderEncodeDecodeRoundtrip(t *testing.T) {
	h := validHeader()
	h.Flags = FlagChecksum | FlagWeighted
	h.Checksum = 0xdeadbeef

	b, err := EncodeHeader(&h)
	if err != nil {
		t.Fatal(err)
	}
	if len(b) != HeaderSize {
		t.Fatalf("encoded size: got %d want %d", len(b), HeaderSize)
	}

	got, err := DecodeHeader(b)
	if err != nil {
		t.Fatal(err)
	}
	if *got != h {
		t.Errorf("roundtrip mismatch:\n got %+v\nwant %+v", *got, h)
	}
}

func TestDecodeHeaderBadMagic(t *testing.T) {
	h := validHeader()
	b, err := EncodeHeader(&h)
	if err != nil {
		t.Fatal(err)
	}
	b[0] = 'X'
	if _, err := DecodeHeader(b); !errors.Is(err, ErrFormat) {
		t.Errorf("got %v, want ErrFormat", err)
	}
}

func TestDecodeHeaderTooShort(t *testing.T) {
	if _, err := DecodeHeader(make([]byte, HeaderSize-1)); !errors.Is(err, ErrIntegrity) {
		t.Errorf("got %v, want ErrIntegrity", err)
	}
}

func TestDecodeHeaderVersions(t *testing.T) {
	h := validHeader()
	h.VersionMajor = VersionMajor + 1
	b, err := EncodeHeader(&h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeHeader(b); !errors.Is(err, ErrFormat) {
		t.Errorf("future major version: got %v, want ErrFormat", err)
	}

	// A newer minor version must decode.
	h = validHeader()
	h.VersionMinor = VersionMinor + 7
	b, err = EncodeHeader(&h)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := DecodeHeader(b); err != nil {
		t.Errorf("future minor version: %v", err)
	}
}

func TestValidateRejectsOutOfBounds(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Header)
	}{
		{"node region past EOF", func(h *Header) { h.NodeCount = 1 << 40 }},
		{"edge region past EOF", func(h *Header) { h.EdgeCount = 1 << 40 }},
		{"data region past EOF", func(h *Header) { h.DataSize = 1 << 40 }},
		{"node offset in header", func(h *Header) { h.NodeOffset = 4 }},
		{"edge offset past EOF", func(h *Header) { h.EdgeOffset = h.fileSize() }},
		{"index region past EOF", func(h *Header) { h.IndexOffset = h.fileSize() - 4 }},
		{"node overlaps edge", func(h *Header) { h.EdgeOffset = h.NodeOffset + 1 }},
		{"data overlaps edge", func(h *Header) { h.DataOffset = h.EdgeOffset }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := validHeader()
			size := h.fileSize()
			tc.mutate(&h)
			if err := h.Validate(size); !errors.Is(err, ErrIntegrity) {
				t.Errorf("got %v, want ErrIntegrity", err)
			}
		})
	}
}

func TestValidateAcceptsEmptyGraph(t *testing.T) {
	h := Header{
		VersionMajor: VersionMajor,
		NodeOffset:   HeaderSize,
		EdgeOffset:   HeaderSize,
		DataOffset:   HeaderSize,
	}
	if err := h.Validate(HeaderSize); err != nil {
		t.Errorf("empty graph header: %v", err)
	}
}

func TestVerifyChecksum(t *testing.T) {
	body := []byte("edge and node records would live here")
	h := validHeader()
	h.Flags = FlagChecksum
	h.Checksum = Checksum(body)

	file := make([]byte, HeaderSize+len(body))
	copy(file[HeaderSize:], body)
	if err := h.VerifyChecksum(file); err != nil {
		t.Errorf("intact file: %v", err)
	}

	file[HeaderSize+3] ^= 0x01
	if err := h.VerifyChecksum(file); !errors.Is(err, ErrIntegrity) {
		t.Errorf("corrupt file: got %v, want ErrIntegrity", err)
	}

	// Without the flag the field is ignored.
	h.Flags = 0
	if err := h.VerifyChecksum(file); err != nil {
		t.Errorf("unchecksummed file: %v", err)
	}
}

func TestRecordCodecs(t *testing.T) {
	nrec := NodeRecord{ID: 42, Type: 3, Flags: 0x80, FirstEdge: 7, DataOff: 100, DataLen: 16}
	nb := make([]byte, NodeRecordSize)
	binary.LittleEndian.PutUint64(nb[0:], nrec.ID)
	binary.LittleEndian.PutUint32(nb[8:], nrec.Type)
	binary.LittleEndian.PutUint32(nb[12:], nrec.Flags)
	binary.LittleEndian.PutUint64(nb[16:], nrec.FirstEdge)
	binary.LittleEndian.PutUint64(nb[24:], nrec.DataOff)
	binary.LittleEndian.PutUint64(nb[32:], nrec.DataLen)
	if got := DecodeNodeRecord(nb); got != nrec {
		t.Errorf("node record: got %+v want %+v", got, nrec)
	}
	if got := NodeFirstEdge(nb); got != nrec.FirstEdge {
		t.Errorf("NodeFirstEdge: got %d want %d", got, nrec.FirstEdge)
	}

	erec := EdgeRecord{Source: 1, Target: 2, Type: 5, Flags: 1, Weight: 2.5, NextEdge: NilEdge, DataOff: 8, DataLen: 4}
	eb := make([]byte, EdgeRecordSize)
	binary.LittleEndian.PutUint64(eb[0:], erec.Source)
	binary.LittleEndian.PutUint64(eb[8:], erec.Target)
	binary.LittleEndian.PutUint32(eb[16:], erec.Type)
	binary.LittleEndian.PutUint32(eb[20:], erec.Flags)
	binary.LittleEndian.PutUint64(eb[24:], 0x4004000000000000) // 2.5
	binary.LittleEndian.PutUint64(eb[32:], erec.NextEdge)
	binary.LittleEndian.PutUint64(eb[40:], erec.DataOff)
	binary.LittleEndian.PutUint64(eb[48:], erec.DataLen)
	if got := DecodeEdgeRecord(eb); got != erec {
		t.Errorf("edge record: got %+v want %+v", got, erec)
	}
	if got := EdgeTarget(eb); got != erec.Target {
		t.Errorf("EdgeTarget: got %d want %d", got, erec.Target)
	}
	if got := EdgeNext(eb); got != NilEdge {
		t.Errorf("EdgeNext: got %d want NilEdge", got)
	}
}
