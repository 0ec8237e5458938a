package volume

import (
	"testing"

	"github.com/gekko3d/voxphys/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStorage(t *testing.T, s Storage, v Voxel, p geom.IVec) {
	t.Helper()
	assert.Equal(t, s.Ambient(), s.Get(p), "unwritten %v should be ambient", p)
	Set(s, p, v)
	assert.Equal(t, v, s.Get(p))
	assert.True(t, s.Contains(p))
}

func TestChunkStorageReadWrite(t *testing.T) {
	s := NewChunkStorage(Vacuum, 16)
	testStorage(t, s, Solid, geom.IVec{0, 0, 0})
	testStorage(t, s, Solid, geom.IVec{0, 20, 0})
	testStorage(t, s, Frame, geom.IVec{18, 93, -3})
	testStorage(t, s, Solid, geom.IVec{-1, -1, -1})
	assert.Equal(t, 4, s.Len())
}

func TestChunkStorageChunkBoundaries(t *testing.T) {
	s := NewChunkStorage(Vacuum, 16)
	Set(s, geom.IVec{15, 0, 0}, Solid)
	Set(s, geom.IVec{16, 0, 0}, Frame)

	assert.Equal(t, Solid, s.Get(geom.IVec{15, 0, 0}))
	assert.Equal(t, Frame, s.Get(geom.IVec{16, 0, 0}))

	if _, ok := s.Chunks[geom.IVec{0, 0, 0}]; !ok {
		t.Error("chunk (0,0,0) should exist")
	}
	if _, ok := s.Chunks[geom.IVec{1, 0, 0}]; !ok {
		t.Error("chunk (1,0,0) should exist")
	}

	Set(s, geom.IVec{-16, 0, 0}, Solid)
	if _, ok := s.Chunks[geom.IVec{-1, 0, 0}]; !ok {
		t.Error("chunk (-1,0,0) should exist")
	}
	Set(s, geom.IVec{-17, 0, 0}, Solid)
	if _, ok := s.Chunks[geom.IVec{-2, 0, 0}]; !ok {
		t.Error("chunk (-2,0,0) should exist")
	}
}

func TestChunkStorageWritingAmbientClears(t *testing.T) {
	s := NewChunkStorage(Vacuum, 8)
	p := geom.IVec{3, 4, 5}
	Set(s, p, Solid)
	require.True(t, s.Contains(p))

	Set(s, p, Vacuum)
	assert.Equal(t, Vacuum, s.Get(p))
	assert.False(t, s.Contains(p), "empty chunk should be released")
	assert.Equal(t, 0, s.Len())

	_, _, ok := s.Bounds()
	assert.False(t, ok)
}

func TestChunkStorageModifyMaterializesChunk(t *testing.T) {
	s := NewChunkStorage(Vacuum, 8)
	p := geom.IVec{100, -100, 7}
	called := false
	s.Modify(p, func(v *Voxel) {
		called = true
		assert.Equal(t, Vacuum, *v)
	})
	assert.True(t, called)
	assert.True(t, s.Contains(p))
	assert.Equal(t, 0, s.Len())
}

func TestChunkStorageChunkIDsAreLocal(t *testing.T) {
	a := NewChunkStorage(Vacuum, 4)
	b := NewChunkStorage(Vacuum, 4)

	Set(a, geom.IVec{0, 0, 0}, Solid)
	Set(a, geom.IVec{10, 0, 0}, Solid)
	Set(b, geom.IVec{0, 0, 0}, Solid)

	idA0, _, _ := a.IndexOf(geom.IVec{0, 0, 0})
	idA1, local, ok := a.IndexOf(geom.IVec{10, 0, 0})
	idB0, _, _ := b.IndexOf(geom.IVec{0, 0, 0})

	require.True(t, ok)
	assert.Equal(t, ChunkID(0), idA0)
	assert.Equal(t, ChunkID(1), idA1)
	assert.Equal(t, ChunkID(0), idB0)
	assert.Equal(t, geom.IVec{2, 0, 0}, local)

	_, _, ok = a.IndexOf(geom.IVec{100, 0, 0})
	assert.False(t, ok)
}

func TestChunkStorageBoundsAndForEach(t *testing.T) {
	s := NewChunkStorage(Vacuum, 16)
	Cube(s, geom.IVec{0, 0, 0}, 2, Solid)
	Set(s, geom.IVec{-7, 9, 1}, Frame)

	lo, hi, ok := s.Bounds()
	require.True(t, ok)
	assert.Equal(t, geom.IVec{-7, -2, -2}, lo)
	assert.Equal(t, geom.IVec{2, 9, 2}, hi)

	count := 0
	var mass int64
	s.ForEach(func(p geom.IVec, v Voxel) bool {
		count++
		mass += v.Mass()
		return true
	})
	assert.Equal(t, 126, count)
	assert.Equal(t, int64(127), mass)

	var fromIter int64
	for _, m := range Masses(s) {
		fromIter += m
	}
	assert.Equal(t, mass, fromIter)
}

func TestChunkStorageCopyIsIndependent(t *testing.T) {
	s := NewChunkStorage(Vacuum, 8)
	Set(s, geom.IVec{1, 1, 1}, Solid)
	c := s.Copy()
	Set(c, geom.IVec{1, 1, 1}, Vacuum)

	assert.Equal(t, Solid, s.Get(geom.IVec{1, 1, 1}))
	assert.Equal(t, Vacuum, c.Get(geom.IVec{1, 1, 1}))
}

func TestNewChunkStoragePanicsOnBadSize(t *testing.T) {
	require.PanicsWithValue(t, "chunk size must be positive, got 0", func() {
		NewChunkStorage(Vacuum, 0)
	})
}

func TestDenseStorage(t *testing.T) {
	d := NewDenseStorage(geom.IVec{-2, -2, -2}, geom.IVec{4, 4, 4}, Vacuum)
	testStorage(t, d, Solid, geom.IVec{-2, -2, -2})
	testStorage(t, d, Frame, geom.IVec{1, 1, 1})

	assert.Equal(t, Vacuum, d.Get(geom.IVec{5, 5, 5}))
	assert.False(t, d.Contains(geom.IVec{2, 0, 0}))
	assert.Panics(t, func() { Set(d, geom.IVec{2, 0, 0}, Solid) })

	lo, hi, ok := d.Bounds()
	require.True(t, ok)
	assert.Equal(t, geom.IVec{-2, -2, -2}, lo)
	assert.Equal(t, geom.IVec{1, 1, 1}, hi)
}

func TestDenseStorageCopyFrom(t *testing.T) {
	s := NewChunkStorage(Vacuum, 16)
	FillBox(s, geom.IVec{0, 0, 0}, geom.IVec{1, 1, 1}, Solid)
	Set(s, geom.IVec{3, 3, 3}, Frame)
	Set(s, geom.IVec{9, 9, 9}, Solid) // outside

	d := NewDenseStorage(geom.IVec{0, 0, 0}, geom.IVec{4, 4, 4}, Vacuum)
	d.CopyFrom(s)

	assert.Equal(t, Solid, d.Get(geom.IVec{1, 1, 1}))
	assert.Equal(t, Frame, d.Get(geom.IVec{3, 3, 3}))
	assert.Equal(t, Vacuum, d.Get(geom.IVec{2, 2, 2}))
	assert.Equal(t, Vacuum, d.Get(geom.IVec{9, 9, 9}))
}

func TestVoxelTables(t *testing.T) {
	assert.False(t, Vacuum.Collidable())
	assert.True(t, Solid.Collidable())
	assert.True(t, Frame.Collidable())
	assert.Equal(t, int64(0), Vacuum.Mass())
	assert.Equal(t, int64(1), Solid.Mass())
	assert.Equal(t, "Frame", Frame.String())
	assert.Equal(t, "Voxel(9)", Voxel(9).String())
	assert.False(t, Voxel(9).Collidable())
}
