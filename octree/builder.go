package octree

import (
	"fmt"

	"github.com/gekko3d/voxphys/geom"
	"github.com/gekko3d/voxphys/volume"
)

// MaxPower bounds the root edge length to 2^MaxPower voxels. Building pads
// into a dense cube, so the limit keeps that buffer at most 1 GiB.
const MaxPower = 10

// Build compresses the collidable voxels of storage into a Set whose root is
// the smallest power-of-two cube covering the storage bounds.
func Build(storage volume.Storage) *Set {
	return BuildPower(storage, 0)
}

// NaturalPower is the power Build would choose for storage: log2 of the
// smallest power-of-two edge covering its bounds. Empty storage has power 0.
func NaturalPower(storage volume.Storage) int {
	lo, hi, ok := storage.Bounds()
	if !ok {
		return 0
	}
	shape := hi.Sub(lo).Add(geom.IVec{1, 1, 1})
	_, power := geom.NextPow2(max(shape[0], shape[1], shape[2]))
	if power > MaxPower {
		panic(fmt.Sprintf("storage extent %v exceeds octree limit 2^%d", shape, MaxPower))
	}
	return power
}

// BuildPower is Build with a root edge length of at least 2^minPower.
func BuildPower(storage volume.Storage, minPower int) *Set {
	if minPower < 0 || minPower > MaxPower {
		panic(fmt.Sprintf("octree power %d out of range [0, %d]", minPower, MaxPower))
	}

	lo, _, ok := storage.Bounds()
	if !ok {
		return &Set{root: noChild, power: minPower}
	}

	power := max(NaturalPower(storage), minPower)
	edge := 1 << power

	// Dense copy of the padded cube; padding reads as ambient.
	dense := volume.NewDenseStorage(lo, geom.IVec{edge, edge, edge}, storage.Ambient())
	dense.CopyFrom(storage)

	b := &builder{dense: dense}
	root, _ := b.build(lo, power)
	return &Set{
		nodes:  b.nodes,
		root:   root,
		power:  power,
		origin: lo,
	}
}

type builder struct {
	dense *volume.DenseStorage
	nodes []node
}

func (b *builder) push(n node) int32 {
	b.nodes = append(b.nodes, n)
	return int32(len(b.nodes) - 1)
}

// build returns the arena index of the node covering [lo, lo+2^power) and
// its kind. Empty regions are not stored.
func (b *builder) build(lo geom.IVec, power int) (int32, Kind) {
	if power == 0 {
		if b.dense.Get(lo).Collidable() {
			return b.push(node{min: lo, kind: Full, children: emptyChildren}), Full
		}
		return noChild, Empty
	}

	mark := len(b.nodes)
	half := 1 << (power - 1)
	children := emptyChildren
	allFull, allEmpty := true, true
	for i := 0; i < 8; i++ {
		idx, kind := b.build(lo.Add(octantOffset(i, half)), power-1)
		children[i] = idx
		if kind != Full {
			allFull = false
		}
		if kind != Empty {
			allEmpty = false
		}
	}

	switch {
	case allEmpty:
		return noChild, Empty
	case allFull:
		// Collapse: drop the eight full children.
		b.nodes = b.nodes[:mark]
		return b.push(node{min: lo, power: uint8(power), kind: Full, children: emptyChildren}), Full
	}
	return b.push(node{min: lo, power: uint8(power), kind: Interior, children: children}), Interior
}

var emptyChildren = [8]int32{noChild, noChild, noChild, noChild, noChild, noChild, noChild, noChild}
