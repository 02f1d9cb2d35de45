//go:build linux

package store

import "golang.org/x/sys/unix"

// advise hints the kernel that the mapping will be read in random order.
// Failure is harmless; the mapping still works with default readahead.
func (s *Mmap) advise() {
	if len(s.data) == 0 {
		return
	}
	_ = unix.Madvise(s.data, unix.MADV_RANDOM)
}
