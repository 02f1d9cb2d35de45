package traverse

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assertValidPath checks that path is a real walk in s from source to target.
func assertValidPath(t *testing.T, s *memSource, path []uint64, source, target uint64) {
	t.Helper()
	require.NotEmpty(t, path)
	require.Equal(t, source, path[0])
	require.Equal(t, target, path[len(path)-1])
	for i := 0; i+1 < len(path); i++ {
		found := false
		for _, v := range s.adj[path[i]] {
			if v == path[i+1] {
				found = true
				break
			}
		}
		require.True(t, found, "no edge %d -> %d", path[i], path[i+1])
	}
}

func TestShortestPathChain(t *testing.T) {
	src := chain(50)
	for _, w := range workerCounts {
		path, err := ShortestPath(src, 0, 49, &Options{Workers: w})
		require.NoError(t, err)
		require.Len(t, path, 50, "workers=%d", w)
		for i, p := range path {
			assert.Equal(t, uint64(i), p)
		}
	}
}

func TestShortestPathLengthMatchesBFSDistance(t *testing.T) {
	src := randomGraph(10_000, 8, 5)
	_, dist := serialBFS(src, 0)

	targets := []uint64{1, 17, 420, 9_999}
	for _, w := range workerCounts {
		t.Run(fmt.Sprintf("workers=%d", w), func(t *testing.T) {
			for _, target := range targets {
				path, err := ShortestPath(src, 0, target, &Options{Workers: w})
				if dist[target] == ^uint64(0) {
					assert.ErrorIs(t, err, ErrNoPath, "target %d", target)
					continue
				}
				require.NoError(t, err, "target %d", target)
				assert.Equal(t, int(dist[target])+1, len(path), "target %d", target)
				assertValidPath(t, src, path, 0, target)
			}
		})
	}
}

func TestShortestPathSameEndpoint(t *testing.T) {
	src := chain(5)
	path, err := ShortestPath(src, 3, 3, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint64{3}, path)
}

func TestShortestPathNoPath(t *testing.T) {
	// The chain is one-directional, so the reverse direction has no path.
	src := chain(5)
	_, err := ShortestPath(src, 4, 0, nil)
	assert.ErrorIs(t, err, ErrNoPath)

	// Two isolated nodes.
	iso := &memSource{adj: make([][]uint64, 2)}
	_, err = ShortestPath(iso, 0, 1, nil)
	assert.ErrorIs(t, err, ErrNoPath)
}

func TestShortestPathOutOfRange(t *testing.T) {
	src := chain(5)
	_, err := ShortestPath(src, 5, 0, nil)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = ShortestPath(src, 0, 5, nil)
	assert.ErrorIs(t, err, ErrOutOfRange)
}
