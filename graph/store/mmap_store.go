package store

import (
	"fmt"
	"os"

	"github.com/edsrzf/mmap-go"
)

// Mmap is a read-only memory mapping of a graph file.
type Mmap struct {
	f    *os.File
	data mmap.MMap
}

// OpenMmap opens path and maps it read-only. Graph traversal touches the
// mapping in index order, not file order, so the mapping is advised for
// random access where the platform supports it.
func OpenMmap(path string) (*Mmap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mmap %s: %w", path, err)
	}
	s := &Mmap{f: f, data: m}
	s.advise()
	return s, nil
}

// Bytes returns the full mapped file. The slice is valid until Close.
func (s *Mmap) Bytes() []byte {
	return s.data
}

// Close unmaps the file and closes it. Any slice previously returned by
// Bytes must not be touched afterwards.
func (s *Mmap) Close() error {
	if s.data != nil {
		if err := s.data.Unmap(); err != nil {
			return err
		}
		s.data = nil
	}
	if s.f != nil {
		err := s.f.Close()
		s.f = nil
		return err
	}
	return nil
}
