package traverse

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
)

// deque is a double-ended work queue. The owning worker pushes and pops at
// the back; thieves take from the front. Critical sections are a few
// instructions, guarded by a plain mutex.
type deque struct {
	mu    sync.Mutex
	items []uint64
}

func (d *deque) push(v uint64) {
	d.mu.Lock()
	d.items = append(d.items, v)
	d.mu.Unlock()
}

// pop removes from the back (owner end).
func (d *deque) pop() (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	n := len(d.items)
	if n == 0 {
		return 0, false
	}
	v := d.items[n-1]
	d.items = d.items[:n-1]
	return v, true
}

// steal removes from the front (thief end).
func (d *deque) steal() (uint64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.items) == 0 {
		return 0, false
	}
	v := d.items[0]
	d.items = d.items[1:]
	return v, true
}

// DFS performs a parallel depth-first traversal from the node at position
// start using one work-stealing deque per worker. A worker pushes discovered
// neighbors onto its own deque and pops from the same end; an idle worker
// steals from the opposite end of a peer's deque. Visitation is claimed with
// the same atomic test-and-set as BFS, so the visited set is deterministic
// even though the visit order is not.
//
// Termination: a pending counter tracks claimed-but-unexpanded nodes; workers
// exit when every deque is empty and the counter is zero, which cannot happen
// while any node still awaits expansion.
func DFS(src Source, start uint64, opts *Options) (*VisitResult, error) {
	opts = opts.OrDefault()
	n := src.NodeCount()
	if start >= n {
		return nil, fmt.Errorf("%w: start %d, source has %d nodes", ErrOutOfRange, start, n)
	}

	visited := NewBitset(n)
	visited.TrySet(start)

	nw := opts.Workers
	deques := make([]*deque, nw)
	for i := range deques {
		deques[i] = &deque{}
	}
	deques[0].push(start)

	var (
		pending atomic.Int64
		count   atomic.Uint64
		errOnce sync.Once
		werr    error
		wg      sync.WaitGroup
	)
	pending.Store(1)
	count.Store(1)

	for w := 0; w < nw; w++ {
		wg.Add(1)
		go func(self int) {
			defer wg.Done()
			for {
				v, ok := deques[self].pop()
				for i := 1; !ok && i < nw; i++ {
					v, ok = deques[(self+i)%nw].steal()
				}
				if !ok {
					if pending.Load() == 0 {
						return
					}
					runtime.Gosched()
					continue
				}
				err := src.ForEachNeighbor(v, func(t uint64) bool {
					if visited.TrySet(t) {
						count.Add(1)
						pending.Add(1)
						deques[self].push(t)
					}
					return true
				})
				if err != nil {
					errOnce.Do(func() { werr = err })
				}
				pending.Add(-1)
			}
		}(w)
	}
	wg.Wait()

	if werr != nil {
		return nil, werr
	}
	return &VisitResult{Start: start, Count: count.Load(), Visited: visited}, nil
}
