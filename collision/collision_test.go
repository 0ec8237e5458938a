package collision

import (
	"testing"

	"github.com/alitto/pond/v2"
	"github.com/chewxy/math32"
	"github.com/gekko3d/voxphys/geom"
	"github.com/gekko3d/voxphys/octree"
	"github.com/gekko3d/voxphys/volume"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func placeCube(half float32, pos mgl32.Vec3) Positioned[Cube] {
	return Place(NewCube(half), pos, geom.Identity())
}

func TestOverlapScenarios(t *testing.T) {
	a := placeCube(1, mgl32.Vec3{})

	miss := Overlap(a, placeCube(1, mgl32.Vec3{3.5, 0, 0}))
	assert.False(t, miss.Collided)
	assert.InDelta(t, 2*math32.Sqrt(3)-3.5, miss.Penetration, 1e-5)

	hit := Overlap(a, placeCube(1, mgl32.Vec3{1, 1, 1}))
	assert.True(t, hit.Collided)
	assert.InDelta(t, math32.Sqrt(3), hit.Penetration, 1e-5)
	// normal points from b towards a
	inv := 1 / math32.Sqrt(3)
	assert.True(t, hit.Normal.ApproxEqualThreshold(mgl32.Vec3{-inv, -inv, -inv}, 1e-5))
	assert.True(t, hit.Vector().ApproxEqualThreshold(mgl32.Vec3{-1, -1, -1}, 1e-5))
}

func TestOverlapCoincidentCentersHasZeroNormal(t *testing.T) {
	res := Overlap(placeCube(0.5, mgl32.Vec3{1, 2, 3}), placeCube(0.5, mgl32.Vec3{1, 2, 3}))
	assert.True(t, res.Collided)
	assert.Equal(t, mgl32.Vec3{}, res.Normal)
}

func TestOverlapSymmetry(t *testing.T) {
	positions := []mgl32.Vec3{
		{0, 0, 0}, {1, 0, 0}, {3.5, 0, 0}, {1, 1, 1}, {-2, 0.5, 4}, {0.2, -0.3, 0.1},
	}
	halves := []float32{0, 0.5, 1, 2.5}
	for _, pa := range positions {
		for _, pb := range positions {
			for _, ha := range halves {
				for _, hb := range halves {
					a, b := placeCube(ha, pa), placeCube(hb, pb)
					assert.Equal(t, Overlap(a, b).Collided, Overlap(b, a).Collided,
						"a=%v/%v b=%v/%v", pa, ha, pb, hb)
				}
			}
		}
	}
}

func TestOverlapMonotonicInHalfSize(t *testing.T) {
	b := mgl32.Vec3{2, 1, 0}
	collided := false
	for h := float32(0); h <= 3; h += 0.125 {
		res := Overlap(placeCube(h, mgl32.Vec3{}), placeCube(0.5, b))
		if collided {
			assert.True(t, res.Collided, "half size %v", h)
		}
		collided = res.Collided
	}
	assert.True(t, collided)
}

func TestOverlapShrunkIsStricter(t *testing.T) {
	a := placeCube(0.5, mgl32.Vec3{})
	b := placeCube(0.5, mgl32.Vec3{1.5, 0, 0})
	assert.True(t, Overlap(a, b).Collided)
	assert.False(t, OverlapShrunk(a, b, 0.5).Collided)
}

func TestNewCubePanics(t *testing.T) {
	assert.Panics(t, func() { NewCube(-1) })
	assert.Panics(t, func() { NewCube(math32.NaN()) })
	assert.NotPanics(t, func() { NewCube(0) })
}

// countingTree records how many times children were requested.
type countingTree struct {
	octree.Tree
	expanded int
}

func (c *countingTree) AppendChildren(dst []octree.Node, n octree.Node) []octree.Node {
	c.expanded++
	return c.Tree.AppendChildren(dst, n)
}

func solidBox(lo, hi geom.IVec) *volume.ChunkStorage {
	s := volume.NewChunkStorage(volume.Vacuum, 8)
	volume.FillBox(s, lo, hi, volume.Solid)
	return s
}

func TestCollideFarApartSkipsDescent(t *testing.T) {
	s := solidBox(geom.IVec{0, 0, 0}, geom.IVec{15, 15, 15})
	volume.Set(s, geom.IVec{0, 0, 0}, volume.Vacuum)
	ta := &countingTree{Tree: octree.Build(s)}
	tb := &countingTree{Tree: octree.Build(s)}
	require.Equal(t, 4, ta.Power())

	got := NewResolver().Collide(
		Place[octree.Tree](ta, mgl32.Vec3{}, geom.Identity()),
		Place[octree.Tree](tb, mgl32.Vec3{30, 0, 0}, geom.Identity()),
	)
	assert.Empty(t, got)
	assert.Zero(t, ta.expanded)
	assert.Zero(t, tb.expanded)
}

func TestCollideReportsCoincidentUnitVoxels(t *testing.T) {
	s := volume.NewChunkStorage(volume.Vacuum, 8)
	volume.Set(s, geom.IVec{0, 0, 0}, volume.Solid)
	tree := octree.BuildPower(s, 2)

	got := NewResolver().Collide(
		Place[octree.Tree](tree, mgl32.Vec3{5, 5, 5}, geom.Identity()),
		Place[octree.Tree](tree, mgl32.Vec3{5, 5, 5}, geom.Identity()),
	)
	require.Len(t, got, 1)
	assert.Equal(t, geom.IVec{0, 0, 0}, got[0].A)
	assert.Equal(t, geom.IVec{0, 0, 0}, got[0].B)
	assert.InDelta(t, math32.Sqrt(3), got[0].Penetration, 1e-5)
}

func TestCollidePowerMismatchPanics(t *testing.T) {
	small := octree.BuildPower(solidBox(geom.IVec{}, geom.IVec{1, 1, 1}), 1)
	large := octree.BuildPower(solidBox(geom.IVec{}, geom.IVec{1, 1, 1}), 3)
	assert.PanicsWithValue(t, "octree power mismatch: 1 != 3", func() {
		NewResolver().Collide(
			Place[octree.Tree](small, mgl32.Vec3{}, geom.Identity()),
			Place[octree.Tree](large, mgl32.Vec3{}, geom.Identity()),
		)
	})
}

func TestCollideEmptyTree(t *testing.T) {
	empty := octree.BuildPower(volume.NewChunkStorage(volume.Vacuum, 8), 2)
	full := octree.BuildPower(solidBox(geom.IVec{}, geom.IVec{3, 3, 3}), 2)
	got := NewResolver().Collide(
		Place[octree.Tree](empty, mgl32.Vec3{}, geom.Identity()),
		Place[octree.Tree](full, mgl32.Vec3{}, geom.Identity()),
	)
	assert.Nil(t, got)
}

type voxelPair struct {
	a, b geom.IVec
}

func unitVoxels(set *octree.Set) []geom.IVec {
	var out []geom.IVec
	set.ForEachFull(func(n octree.Node) {
		for x := 0; x < n.Size; x++ {
			for y := 0; y < n.Size; y++ {
				for z := 0; z < n.Size; z++ {
					out = append(out, n.Min.Add(geom.IVec{x, y, z}))
				}
			}
		}
	})
	return out
}

// bruteForce tests every unit voxel pair directly.
func bruteForce(a, b Positioned[*octree.Set]) []voxelPair {
	pa := Place[octree.Tree](a.Object, a.Position, a.Rotation)
	pb := Place[octree.Tree](b.Object, b.Position, b.Rotation)
	var out []voxelPair
	for _, va := range unitVoxels(a.Object) {
		for _, vb := range unitVoxels(b.Object) {
			ca := cubeOf(octree.Node{Min: va, Size: 1, Kind: octree.Full}, pa)
			cb := cubeOf(octree.Node{Min: vb, Size: 1, Kind: octree.Full}, pb)
			if Overlap(ca, cb).Collided {
				out = append(out, voxelPair{va, vb})
			}
		}
	}
	return out
}

func pairsOf(l List) []voxelPair {
	out := make([]voxelPair, 0, len(l))
	for _, c := range l {
		out = append(out, voxelPair{c.A, c.B})
	}
	return out
}

func TestCollideMatchesBruteForce(t *testing.T) {
	sa := solidBox(geom.IVec{0, 0, 0}, geom.IVec{2, 2, 2})
	volume.Set(sa, geom.IVec{5, 1, 0}, volume.Solid)
	volume.Set(sa, geom.IVec{-1, 0, 3}, volume.Frame)

	sb := solidBox(geom.IVec{0, 0, 0}, geom.IVec{3, 0, 0})
	volume.FillBox(sb, geom.IVec{0, 1, 0}, geom.IVec{0, 4, 0}, volume.Solid)

	ta := octree.BuildPower(sa, 3)
	tb := octree.BuildPower(sb, 3)

	cases := []struct {
		name string
		pos  mgl32.Vec3
		rot  geom.Rotor
	}{
		{"touching", mgl32.Vec3{3.1, 0.2, 0.3}, geom.Identity()},
		{"overlapping", mgl32.Vec3{1.3, 0.7, -0.4}, geom.Identity()},
		{"rotated", mgl32.Vec3{2.2, 1.1, 0.6}, geom.RotorFromAxisAngle(mgl32.Vec3{0, 0, 1}, 0.5)},
		{"apart", mgl32.Vec3{40, 0, 0}, geom.Identity()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := Place(ta, mgl32.Vec3{0.05, 0, 0}, geom.RotorFromAxisAngle(mgl32.Vec3{1, 0, 0}, 0.1))
			b := Place(tb, tc.pos, tc.rot)

			got := NewResolver().Collide(
				Place[octree.Tree](a.Object, a.Position, a.Rotation),
				Place[octree.Tree](b.Object, b.Position, b.Rotation),
			)
			assert.ElementsMatch(t, bruteForce(a, b), pairsOf(got))
		})
	}
}

func TestLeafShrinkFiltersLeaves(t *testing.T) {
	ta := octree.BuildPower(solidBox(geom.IVec{}, geom.IVec{1, 1, 1}), 1)
	a := Place[octree.Tree](ta, mgl32.Vec3{}, geom.Identity())
	b := Place[octree.Tree](ta, mgl32.Vec3{2.5, 0, 0}, geom.Identity())

	loose := NewResolver().Collide(a, b)
	tight := Resolver{LeafShrink: 0.5}.Collide(a, b)
	assert.NotEmpty(t, loose)
	assert.Less(t, len(tight), len(loose))
	for _, c := range tight {
		assert.Greater(t, c.Penetration, float32(0))
	}
}

func worldItems() []Positioned[octree.Tree] {
	tree := octree.BuildPower(solidBox(geom.IVec{}, geom.IVec{2, 2, 2}), 2)
	positions := []mgl32.Vec3{
		{0, 0, 0}, {2.5, 0, 0}, {30, 0, 0}, {31, 1, 0}, {-60, 0, 0},
	}
	items := make([]Positioned[octree.Tree], len(positions))
	for i, p := range positions {
		items[i] = Place[octree.Tree](tree, p, geom.Identity())
	}
	return items
}

func TestCollideAllOmitsEmptyPairs(t *testing.T) {
	got := NewResolver().CollideAll(worldItems())
	assert.Equal(t, []PairKey{{0, 1}, {2, 3}}, SortedKeys(got))
	for k, l := range got {
		assert.Less(t, k.Lo, k.Hi)
		assert.NotEmpty(t, l)
	}
}

func TestCollideAllParallelMatchesSequential(t *testing.T) {
	pool := pond.NewPool(4)
	defer pool.StopAndWait()

	items := worldItems()
	r := NewResolver()
	seq := r.CollideAll(items)
	par := r.CollideAllParallel(pool, items)
	require.Equal(t, SortedKeys(seq), SortedKeys(par))
	for k := range seq {
		assert.ElementsMatch(t, seq[k], par[k])
	}
}

func TestMakePairKey(t *testing.T) {
	assert.Equal(t, PairKey{Lo: 1, Hi: 4}, MakePairKey(4, 1))
	assert.Equal(t, PairKey{Lo: 1, Hi: 4}, MakePairKey(1, 4))
	assert.Panics(t, func() { MakePairKey(2, 2) })
	assert.Len(t, AllPairs(5), 10)
	assert.Empty(t, AllPairs(1))
}

func TestSpatialHashGridInsertionAndQuery(t *testing.T) {
	grid := NewSpatialHashGrid(2.0)
	a := AABB{Min: mgl32.Vec3{0, 0, 0}, Max: mgl32.Vec3{1, 1, 1}}
	b := AABB{Min: mgl32.Vec3{3, 3, 3}, Max: mgl32.Vec3{4, 4, 4}}
	grid.Insert(1, a)
	grid.Insert(2, b)

	assert.Equal(t, []int{1}, grid.QueryAABB(a))
	assert.Equal(t, []int{2}, grid.QueryAABB(b))

	// spans cells 0 and 1 on every axis
	mid := AABB{Min: mgl32.Vec3{1, 1, 1}, Max: mgl32.Vec3{3, 3, 3}}
	assert.ElementsMatch(t, []int{1, 2}, grid.QueryAABB(mid))

	grid.Clear()
	assert.Empty(t, grid.QueryAABB(mid))
}

func TestSpatialHashGridNegativeCells(t *testing.T) {
	grid := NewSpatialHashGrid(4)
	grid.Insert(7, AABB{Min: mgl32.Vec3{-3, -3, -3}, Max: mgl32.Vec3{-1, -1, -1}})
	assert.Equal(t, []int{7}, grid.QueryAABB(AABB{Min: mgl32.Vec3{-2, -2, -2}, Max: mgl32.Vec3{-2, -2, -2}}))
}

func TestCandidatePairsCoverCollisions(t *testing.T) {
	items := worldItems()
	for _, cell := range []float32{1, 4, 16, 100} {
		candidates := CandidatePairs(items, cell)
		r := NewResolver()
		assert.Equal(t, r.CollideAll(items), r.CollidePairs(items, candidates), "cell size %v", cell)
		assert.NotContains(t, candidates, PairKey{Lo: 0, Hi: 4})
	}
}

func TestCandidatePairsTinyCellSize(t *testing.T) {
	items := worldItems()
	// a cell far smaller than a voxel is widened instead of exploding the grid
	assert.Equal(t, CandidatePairs(items, 100), CandidatePairs(items, 1e-4))
	assert.Equal(t, CandidatePairs(items, 100), CandidatePairs(items, 0))
}
