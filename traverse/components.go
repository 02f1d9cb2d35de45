package traverse

import (
	"runtime"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// ComponentResult reports a connected-components run. Labels[pos] is the
// canonical seed position of the component containing pos; positions in the
// same component share a label for any worker count.
type ComponentResult struct {
	Count  uint64
	Labels []uint64
}

// ConnectedComponents labels every node of src by component. Workers claim
// dynamically sized chunks of the position space (component sizes vary too
// much for static partitioning); an unvisited position seeds a serial sweep
// that claims its whole component through the shared visited bit-vector.
//
// Two sweeps can race into the same component. The sweep that loses a claim
// observes the winner's label and merges the two seeds in a CAS-based
// union-find, so the reported count is exact regardless of scheduling. Every
// edge either keeps its endpoints in one sweep or triggers such a merge, so
// the result is the weakly connected components of the directed graph.
func ConnectedComponents(src Source, opts *Options) (*ComponentResult, error) {
	opts = opts.OrDefault()
	n := src.NodeCount()
	if n == 0 {
		return &ComponentResult{Labels: []uint64{}}, nil
	}

	visited := NewBitset(n)
	labels := make([]uint64, n) // seed position + 1; 0 means unset
	parent := make([]uint64, n) // union-find over seed positions
	for i := range parent {
		parent[i] = uint64(i)
	}

	var (
		cursor atomic.Uint64
		mu     sync.Mutex
		seeds  []uint64
	)
	chunk := uint64(opts.ChunkSize)

	var eg errgroup.Group
	for w := 0; w < opts.Workers; w++ {
		eg.Go(func() error {
			var local []uint64
			var stack []uint64
			for {
				lo := cursor.Add(chunk) - chunk
				if lo >= n {
					break
				}
				hi := lo + chunk
				if hi > n {
					hi = n
				}
				for seed := lo; seed < hi; seed++ {
					if !visited.TrySet(seed) {
						continue
					}
					local = append(local, seed)
					atomic.StoreUint64(&labels[seed], seed+1)
					var err error
					stack, err = sweep(src, seed, visited, labels, parent, stack[:0])
					if err != nil {
						return err
					}
				}
			}
			mu.Lock()
			seeds = append(seeds, local...)
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	var count uint64
	for _, s := range seeds {
		if find(parent, s) == s {
			count++
		}
	}
	for i := range labels {
		labels[i] = find(parent, labels[i]-1)
	}
	return &ComponentResult{Count: count, Labels: labels}, nil
}

// sweep runs a serial depth-first claim from seed. Nodes lost to another
// sweep have that sweep's seed unioned with ours.
func sweep(src Source, seed uint64, visited *Bitset, labels, parent []uint64, stack []uint64) ([]uint64, error) {
	stack = append(stack, seed)
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		err := src.ForEachNeighbor(v, func(t uint64) bool {
			if visited.TrySet(t) {
				atomic.StoreUint64(&labels[t], seed+1)
				stack = append(stack, t)
				return true
			}
			// Claimed elsewhere. Spin for the owner's label store, which
			// immediately follows its claim.
			l := atomic.LoadUint64(&labels[t])
			for l == 0 {
				runtime.Gosched()
				l = atomic.LoadUint64(&labels[t])
			}
			if l-1 != seed {
				union(parent, seed, l-1)
			}
			return true
		})
		if err != nil {
			return stack, err
		}
	}
	return stack, nil
}

// find returns the root of x with path halving. Concurrent with unions.
func find(parent []uint64, x uint64) uint64 {
	for {
		p := atomic.LoadUint64(&parent[x])
		if p == x {
			return x
		}
		gp := atomic.LoadUint64(&parent[p])
		if gp != p {
			atomic.CompareAndSwapUint64(&parent[x], p, gp)
		}
		x = gp
	}
}

// union links the roots of a and b, pointing the higher root at the lower so
// the canonical label is the smallest seed in the merged set.
func union(parent []uint64, a, b uint64) {
	for {
		ra, rb := find(parent, a), find(parent, b)
		if ra == rb {
			return
		}
		if ra < rb {
			ra, rb = rb, ra
		}
		if atomic.CompareAndSwapUint64(&parent[ra], ra, rb) {
			return
		}
	}
}
