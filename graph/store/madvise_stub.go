//go:build !linux

package store

func (s *Mmap) advise() {}
