package traverse

import (
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// nilPred marks a position with no recorded predecessor.
const nilPred = ^uint64(0)

// ShortestPath returns the positions of an unweighted shortest path from
// source to target, inclusive of both endpoints. It is the level-synchronous
// BFS with one addition: the worker that wins a neighbor's visited bit also
// records the predecessor, exactly once, before the level barrier. The path
// is reconstructed by walking predecessors backward from target.
//
// Expansion stops at the end of the level in which target was claimed; with
// level-synchronous BFS that level is the target's true distance. ErrNoPath
// is returned when the BFS exhausts without reaching target.
func ShortestPath(src Source, source, target uint64, opts *Options) ([]uint64, error) {
	opts = opts.OrDefault()
	n := src.NodeCount()
	if source >= n {
		return nil, fmt.Errorf("%w: source %d, source has %d nodes", ErrOutOfRange, source, n)
	}
	if target >= n {
		return nil, fmt.Errorf("%w: target %d, source has %d nodes", ErrOutOfRange, target, n)
	}
	if source == target {
		return []uint64{source}, nil
	}

	visited := NewBitset(n)
	visited.TrySet(source)
	pred := make([]uint64, n)
	for i := range pred {
		pred[i] = nilPred
	}

	frontier := []uint64{source}
	for len(frontier) > 0 && !visited.Test(target) {
		next, err := expandLevelPred(src, frontier, visited, pred, opts.Workers)
		if err != nil {
			return nil, err
		}
		frontier = next
	}
	if !visited.Test(target) {
		return nil, fmt.Errorf("%w: %d -> %d", ErrNoPath, source, target)
	}

	var rev []uint64
	for v := target; v != source; v = atomic.LoadUint64(&pred[v]) {
		rev = append(rev, v)
	}
	rev = append(rev, source)
	for i, j := 0, len(rev)-1; i < j; i, j = i+1, j-1 {
		rev[i], rev[j] = rev[j], rev[i]
	}
	return rev, nil
}

func expandLevelPred(src Source, frontier []uint64, visited *Bitset, pred []uint64, workers int) ([]uint64, error) {
	if workers == 1 || len(frontier) < seqThreshold {
		return expandChunkPred(src, frontier, visited, pred, nil)
	}
	parts := partition(frontier, workers)
	locals := make([][]uint64, len(parts))
	var eg errgroup.Group
	for wi, part := range parts {
		wi, part := wi, part
		eg.Go(func() error {
			local, err := expandChunkPred(src, part, visited, pred, nil)
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

func expandChunkPred(src Source, part []uint64, visited *Bitset, pred []uint64, next []uint64) ([]uint64, error) {
	for _, u := range part {
		err := src.ForEachNeighbor(u, func(t uint64) bool {
			if visited.TrySet(t) {
				atomic.StoreUint64(&pred[t], u)
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
