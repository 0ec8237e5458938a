package collision

import (
	"sort"

	"github.com/chewxy/math32"
	"github.com/gekko3d/voxphys/octree"
	"github.com/go-gl/mathgl/mgl32"
)

type AABB struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

func (b AABB) Overlaps(o AABB) bool {
	for i := 0; i < 3; i++ {
		if b.Max[i] < o.Min[i] || o.Max[i] < b.Min[i] {
			return false
		}
	}
	return true
}

// SpatialHashGrid buckets item indices by the grid cells their bounds touch.
type SpatialHashGrid struct {
	cellSize float32
	cells    map[uint64][]int
}

func NewSpatialHashGrid(cellSize float32) *SpatialHashGrid {
	return &SpatialHashGrid{
		cellSize: cellSize,
		cells:    make(map[uint64][]int),
	}
}

func (grid *SpatialHashGrid) Clear() {
	clear(grid.cells)
}

func (grid *SpatialHashGrid) Insert(id int, aabb AABB) {
	minX, maxX := grid.getCellIndex(aabb.Min.X()), grid.getCellIndex(aabb.Max.X())
	minY, maxY := grid.getCellIndex(aabb.Min.Y()), grid.getCellIndex(aabb.Max.Y())
	minZ, maxZ := grid.getCellIndex(aabb.Min.Z()), grid.getCellIndex(aabb.Max.Z())

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				key := grid.hashKey(x, y, z)
				grid.cells[key] = append(grid.cells[key], id)
			}
		}
	}
}

// QueryAABB returns the ids sharing at least one cell with aabb, in
// insertion order. Hash collisions may add extra candidates.
func (grid *SpatialHashGrid) QueryAABB(aabb AABB) []int {
	minX, maxX := grid.getCellIndex(aabb.Min.X()), grid.getCellIndex(aabb.Max.X())
	minY, maxY := grid.getCellIndex(aabb.Min.Y()), grid.getCellIndex(aabb.Max.Y())
	minZ, maxZ := grid.getCellIndex(aabb.Min.Z()), grid.getCellIndex(aabb.Max.Z())

	unique := make(map[int]struct{})
	var results []int

	for x := minX; x <= maxX; x++ {
		for y := minY; y <= maxY; y++ {
			for z := minZ; z <= maxZ; z++ {
				for _, id := range grid.cells[grid.hashKey(x, y, z)] {
					if _, ok := unique[id]; !ok {
						unique[id] = struct{}{}
						results = append(results, id)
					}
				}
			}
		}
	}
	return results
}

func (grid *SpatialHashGrid) getCellIndex(pos float32) int {
	return int(math32.Floor(pos / grid.cellSize))
}

func (grid *SpatialHashGrid) hashKey(x, y, z int) uint64 {
	// large primes for mixing
	const p1 = 73856093
	const p2 = 19349663
	const p3 = 83492791
	return uint64(x*p1 ^ y*p2 ^ z*p3)
}

// RootBounds is the world box around the sphere in which a tree's root
// cube can pass the sloppy test against anything. ok is false for trees
// without a root.
func RootBounds(item Positioned[octree.Tree]) (AABB, bool) {
	root, ok := item.Object.Root()
	if !ok {
		return AABB{}, false
	}
	c := cubeOf(root, item)
	r := sqrt3 * c.Object.HalfSize
	ext := mgl32.Vec3{r, r, r}
	return AABB{Min: c.Position.Sub(ext), Max: c.Position.Add(ext)}, true
}

// maxCellsPerAxis caps how many cells one item's bounds span per axis.
const maxCellsPerAxis = 32

// CandidatePairs returns the pairs whose root bounds share a grid cell and
// overlap. Every pair that could pass the root sloppy test is included.
// cellSize is raised when needed so that no item spans more than
// maxCellsPerAxis cells on an axis.
func CandidatePairs(items []Positioned[octree.Tree], cellSize float32) []PairKey {
	bounds := make([]AABB, len(items))
	present := make([]bool, len(items))
	var span float32
	for i, item := range items {
		if b, ok := RootBounds(item); ok {
			bounds[i], present[i] = b, true
			span = max(span, b.Max.X()-b.Min.X())
		}
	}

	grid := NewSpatialHashGrid(max(cellSize, span/maxCellsPerAxis))
	for i := range items {
		if present[i] {
			grid.Insert(i, bounds[i])
		}
	}

	var pairs []PairKey
	for i := range items {
		if !present[i] {
			continue
		}
		for _, j := range grid.QueryAABB(bounds[i]) {
			if j <= i || !bounds[i].Overlaps(bounds[j]) {
				continue
			}
			pairs = append(pairs, PairKey{Lo: i, Hi: j})
		}
	}
	sortPairs(pairs)
	return pairs
}

func sortPairs(pairs []PairKey) {
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].less(pairs[j]) })
}
