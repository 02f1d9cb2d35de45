package traverse

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// seqThreshold is the frontier size below which a level is expanded on the
// calling goroutine. Narrow levels gain nothing from fan-out and lose cache
// locality to it.
const seqThreshold = 64

// BFS performs a level-synchronous parallel breadth-first traversal from the
// node at position start. Each level, the current frontier is partitioned
// across the worker pool; workers claim neighbors with an atomic test-and-set
// on the shared visited bit-vector and collect winners into thread-local next
// frontiers that are merged at the level barrier.
//
// The visited set and Count are identical for any worker count; the order of
// discovery within a level is not.
func BFS(src Source, start uint64, opts *Options) (*VisitResult, error) {
	opts = opts.OrDefault()
	n := src.NodeCount()
	if start >= n {
		return nil, fmt.Errorf("%w: start %d, source has %d nodes", ErrOutOfRange, start, n)
	}

	visited := NewBitset(n)
	visited.TrySet(start)
	res := &VisitResult{Start: start, Count: 1, Visited: visited}

	frontier := []uint64{start}
	for len(frontier) > 0 {
		next, err := expandLevel(src, frontier, visited, opts.Workers)
		if err != nil {
			return nil, err
		}
		res.Count += uint64(len(next))
		if len(next) > 0 {
			res.Depth++
		}
		frontier = next
	}
	return res, nil
}

// expandLevel claims all unvisited neighbors of frontier and returns them as
// the next frontier.
func expandLevel(src Source, frontier []uint64, visited *Bitset, workers int) ([]uint64, error) {
	if workers == 1 || len(frontier) < seqThreshold {
		return expandChunk(src, frontier, visited, nil)
	}

	parts := partition(frontier, workers)
	locals := make([][]uint64, len(parts))
	var eg errgroup.Group
	for wi, part := range parts {
		wi, part := wi, part
		eg.Go(func() error {
			local, err := expandChunk(src, part, visited, nil)
			if err != nil {
				return err
			}
			locals[wi] = local
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var next []uint64
	for _, l := range locals {
		next = append(next, l...)
	}
	return next, nil
}

func expandChunk(src Source, part []uint64, visited *Bitset, next []uint64) ([]uint64, error) {
	for _, u := range part {
		err := src.ForEachNeighbor(u, func(t uint64) bool {
			if visited.TrySet(t) {
				next = append(next, t)
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}
	return next, nil
}

// partition splits frontier into at most workers contiguous, non-empty
// chunks of near-equal size.
func partition(frontier []uint64, workers int) [][]uint64 {
	if workers > len(frontier) {
		workers = len(frontier)
	}
	parts := make([][]uint64, 0, workers)
	chunk := (len(frontier) + workers - 1) / workers
	for off := 0; off < len(frontier); off += chunk {
		end := off + chunk
		if end > len(frontier) {
			end = len(frontier)
		}
		parts = append(parts, frontier[off:end])
	}
	return parts
}
