package traverse

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memSource is an adjacency-list Source for tests.
type memSource struct {
	adj [][]uint64
}

func (s *memSource) NodeCount() uint64 { return uint64(len(s.adj)) }

func (s *memSource) ForEachNeighbor(pos uint64, fn func(target uint64) bool) error {
	if pos >= uint64(len(s.adj)) {
		return fmt.Errorf("%w: %d", ErrOutOfRange, pos)
	}
	for _, t := range s.adj[pos] {
		if !fn(t) {
			return nil
		}
	}
	return nil
}

// chain builds 0 -> 1 -> ... -> n-1.
func chain(n int) *memSource {
	s := &memSource{adj: make([][]uint64, n)}
	for i := 0; i < n-1; i++ {
		s.adj[i] = []uint64{uint64(i + 1)}
	}
	return s
}

// randomGraph builds a seeded directed graph with roughly the requested
// average out-degree.
func randomGraph(n, avgDegree int, seed int64) *memSource {
	rng := rand.New(rand.NewSource(seed))
	s := &memSource{adj: make([][]uint64, n)}
	for i := 0; i < n*avgDegree; i++ {
		u := rng.Intn(n)
		s.adj[u] = append(s.adj[u], uint64(rng.Intn(n)))
	}
	return s
}

// serialBFS is the single-threaded reference: visited flags and hop distances.
func serialBFS(s *memSource, start uint64) (visited []bool, dist []uint64) {
	n := len(s.adj)
	visited = make([]bool, n)
	dist = make([]uint64, n)
	for i := range dist {
		dist[i] = ^uint64(0)
	}
	visited[start] = true
	dist[start] = 0
	queue := []uint64{start}
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for _, v := range s.adj[u] {
			if !visited[v] {
				visited[v] = true
				dist[v] = dist[u] + 1
				queue = append(queue, v)
			}
		}
	}
	return visited, dist
}

var workerCounts = []int{1, 2, 4, 8}

func TestBFSMatchesSerialReference(t *testing.T) {
	src := randomGraph(10_000, 8, 1)
	wantVisited, wantDist := serialBFS(src, 0)
	var wantCount, wantDepth uint64
	for i, v := range wantVisited {
		if v {
			wantCount++
			if wantDist[i] != ^uint64(0) && wantDist[i] > wantDepth {
				wantDepth = wantDist[i]
			}
		}
	}

	for _, w := range workerCounts {
		t.Run(fmt.Sprintf("workers=%d", w), func(t *testing.T) {
			res, err := BFS(src, 0, &Options{Workers: w})
			require.NoError(t, err)
			assert.Equal(t, wantCount, res.Count)
			assert.Equal(t, int(wantDepth), res.Depth)
			for i, v := range wantVisited {
				require.Equal(t, v, res.Visited.Test(uint64(i)), "node %d", i)
			}
		})
	}
}

func TestBFSVisitedSetIsDeterministic(t *testing.T) {
	src := randomGraph(5_000, 4, 7)
	base, err := BFS(src, 3, &Options{Workers: 1})
	require.NoError(t, err)
	for _, w := range workerCounts[1:] {
		res, err := BFS(src, 3, &Options{Workers: w})
		require.NoError(t, err)
		assert.Equal(t, base.Nodes(), res.Nodes(), "workers=%d", w)
	}
}

func TestBFSChainDepth(t *testing.T) {
	src := chain(100)
	res, err := BFS(src, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), res.Count)
	assert.Equal(t, 99, res.Depth)

	// From the tail only the tail is reachable.
	res, err = BFS(src, 99, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Count)
	assert.Equal(t, 0, res.Depth)
}

func TestBFSStartOutOfRange(t *testing.T) {
	src := chain(10)
	_, err := BFS(src, 10, nil)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestDFSVisitsSameSetAsBFS(t *testing.T) {
	src := randomGraph(10_000, 8, 2)
	want, err := BFS(src, 0, &Options{Workers: 1})
	require.NoError(t, err)

	for _, w := range workerCounts {
		t.Run(fmt.Sprintf("workers=%d", w), func(t *testing.T) {
			res, err := DFS(src, 0, &Options{Workers: w})
			require.NoError(t, err)
			assert.Equal(t, want.Count, res.Count)
			assert.Equal(t, want.Nodes(), res.Nodes())
		})
	}
}

func TestDFSSingleNode(t *testing.T) {
	src := &memSource{adj: make([][]uint64, 1)}
	res, err := DFS(src, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), res.Count)
	assert.Equal(t, []uint64{0}, res.Nodes())
}

func TestDFSStartOutOfRange(t *testing.T) {
	src := chain(10)
	_, err := DFS(src, 10, nil)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestOptionsOrDefault(t *testing.T) {
	var o *Options
	d := o.OrDefault()
	assert.Greater(t, d.Workers, 0)
	assert.Equal(t, 256, d.ChunkSize)

	d = (&Options{Workers: 3, ChunkSize: 17}).OrDefault()
	assert.Equal(t, 3, d.Workers)
	assert.Equal(t, 17, d.ChunkSize)
}

func BenchmarkBFS(b *testing.B) {
	src := randomGraph(100_000, 8, 1)
	for _, w := range []int{1, 4} {
		b.Run(fmt.Sprintf("workers=%d", w), func(b *testing.B) {
			opts := &Options{Workers: w}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if _, err := BFS(src, 0, opts); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
