// Package store defines the edgemap on-disk format and the mmap-backed
// byte store the zero-copy view reads from.
//
// The format is position independent: all intra-file references are region
// offsets or array indices, never pointers, so a file can be mapped at any
// base address.
package store
