package graph

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeSample persists the shared sample graph and returns its path.
func writeSample(t *testing.T, flags SerializeFlags) (*Graph, string) {
	t.Helper()
	g := buildSample(t)
	path := filepath.Join(t.TempDir(), "view.emap")
	require.NoError(t, g.SaveTo(path, flags))
	return g, path
}

func TestViewMatchesGraph(t *testing.T) {
	g, path := writeSample(t, WithChecksum)
	v, err := OpenView(path, 0)
	require.NoError(t, err)
	defer v.Close()

	require.Equal(t, g.NodeCount(), v.NodeCount())
	require.Equal(t, g.EdgeCount(), v.EdgeCount())
	assert.True(t, v.HasIndex())

	for pos := uint64(0); pos < g.NodeCount(); pos++ {
		n, err := g.Node(pos)
		require.NoError(t, err)
		ref, err := v.NodeAt(pos)
		require.NoError(t, err)
		assert.Equal(t, n.ID, ref.ID())
		assert.Equal(t, n.Type, ref.Type())
		assert.Equal(t, n.Flags, ref.Flags())
		assert.Equal(t, pos, ref.Pos())

		data, err := ref.Data()
		require.NoError(t, err)
		assert.Equal(t, g.NodePayload(pos), data)

		// Neighbor sets agree between the mutable graph and the view.
		var want, got []uint64
		require.NoError(t, g.ForEachNeighbor(pos, func(u uint64) bool {
			want = append(want, u)
			return true
		}))
		require.NoError(t, v.ForEachNeighbor(pos, func(u uint64) bool {
			got = append(got, u)
			return true
		}))
		sort.Slice(want, func(i, j int) bool { return want[i] < want[j] })
		sort.Slice(got, func(i, j int) bool { return got[i] < got[j] })
		assert.Equal(t, want, got, "neighbors of node %d", pos)
	}
}

func TestViewEdgeIter(t *testing.T) {
	g, path := writeSample(t, WithChecksum)
	v, err := OpenView(path, 0)
	require.NoError(t, err)
	defer v.Close()

	it, err := v.Neighbors(0)
	require.NoError(t, err)
	var targets []uint64
	for {
		e, ok := it.Next()
		if !ok {
			break
		}
		assert.Equal(t, uint64(0), e.Source())
		targets = append(targets, e.Target())
		if e.Target() == 2 {
			assert.Equal(t, 1.5, e.Weight())
		}
	}
	require.NoError(t, it.Err())

	want, err := g.NeighborsOf(0)
	require.NoError(t, err)
	assert.Equal(t, want, targets, "iterator follows the adjacency chain order")
}

func TestViewLookup(t *testing.T) {
	_, path := writeSample(t, WithChecksum)
	v, err := OpenView(path, 0)
	require.NoError(t, err)
	defer v.Close()

	for id := uint64(0); id < v.NodeCount(); id++ {
		ref, err := v.Lookup(id)
		require.NoError(t, err)
		assert.Equal(t, id, ref.ID())
	}

	_, err = v.Lookup(99)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestViewLookupNoIndex(t *testing.T) {
	g := New(1, 0)
	require.NoError(t, g.AddNode(500, 0, 0, nil)) // sparse id, no index region
	path := filepath.Join(t.TempDir(), "sparse.emap")
	require.NoError(t, g.SaveTo(path, WithChecksum))

	v, err := OpenView(path, 0)
	require.NoError(t, err)
	defer v.Close()

	assert.False(t, v.HasIndex())
	_, err = v.Lookup(500)
	assert.ErrorIs(t, err, ErrNoIndex)
}

func TestViewClosePoisons(t *testing.T) {
	_, path := writeSample(t, WithChecksum)
	v, err := OpenView(path, 0)
	require.NoError(t, err)

	ref, err := v.NodeAt(1)
	require.NoError(t, err)
	it, err := v.Neighbors(0)
	require.NoError(t, err)

	require.NoError(t, v.Close())
	require.NoError(t, v.Close(), "double close is a no-op")

	_, err = v.NodeAt(0)
	assert.ErrorIs(t, err, ErrViewClosed)
	_, err = v.Lookup(0)
	assert.ErrorIs(t, err, ErrViewClosed)
	assert.ErrorIs(t, v.ForEachNeighbor(0, func(uint64) bool { return true }), ErrViewClosed)

	// Outstanding borrows go inert, never stale.
	assert.Zero(t, ref.ID())
	_, err = ref.Data()
	assert.ErrorIs(t, err, ErrViewClosed)
	_, ok := it.Next()
	assert.False(t, ok)
	assert.ErrorIs(t, it.Err(), ErrViewClosed)
}

func TestOpenViewRejectsCorruptFile(t *testing.T) {
	g := buildSample(t)
	blob, err := g.Serialize(WithChecksum)
	require.NoError(t, err)
	blob[len(blob)-1] ^= 0xff

	dir := t.TempDir()
	path := filepath.Join(dir, "corrupt.emap")
	require.NoError(t, os.WriteFile(path, blob, 0o644))

	_, err = OpenView(path, 0)
	assert.ErrorIs(t, err, ErrIntegrity)

	// SkipChecksum opens it; geometry is still intact.
	v, err := OpenView(path, SkipChecksum)
	require.NoError(t, err)
	v.Close()

	short := filepath.Join(dir, "short.emap")
	require.NoError(t, os.WriteFile(short, blob[:10], 0o644))
	_, err = OpenView(short, 0)
	assert.ErrorIs(t, err, ErrIntegrity)
}

func TestOpenViewMissingFile(t *testing.T) {
	_, err := OpenView(filepath.Join(t.TempDir(), "absent.emap"), 0)
	assert.ErrorIs(t, err, ErrResource)
}

func TestViewPositionBounds(t *testing.T) {
	_, path := writeSample(t, WithChecksum)
	v, err := OpenView(path, 0)
	require.NoError(t, err)
	defer v.Close()

	_, err = v.NodeAt(v.NodeCount())
	assert.ErrorIs(t, err, ErrArgument)
	_, err = v.Neighbors(v.NodeCount())
	assert.ErrorIs(t, err, ErrArgument)
	assert.ErrorIs(t, v.ForEachNeighbor(v.NodeCount(), func(uint64) bool { return true }), ErrArgument)
}
