package collision

import (
	"fmt"

	"github.com/gekko3d/voxphys/geom"
	"github.com/gekko3d/voxphys/octree"
	"github.com/go-gl/mathgl/mgl32"
)

// VoxelCollision is one pair of overlapping unit voxels, in the lattice
// coordinates of each body.
type VoxelCollision struct {
	A, B        geom.IVec
	Penetration float32
	// Normal points from B's voxel center towards A's, in world space.
	Normal mgl32.Vec3
}

type List []VoxelCollision

// Resolver finds the overlapping unit voxels of two positioned octrees.
type Resolver struct {
	// LeafShrink scales unit cubes before the final test. 1 keeps the plain
	// sloppy test used for pruning.
	LeafShrink float32
}

func NewResolver() Resolver {
	return Resolver{LeafShrink: 1}
}

func (r Resolver) leafShrink() float32 {
	if r.LeafShrink <= 0 {
		return 1
	}
	return r.LeafShrink
}

type nodePair struct {
	a, b octree.Node
}

// cubeOf places node n of a positioned tree in the world.
func cubeOf[T any](n octree.Node, at Positioned[T]) Positioned[Cube] {
	half := float32(n.Size) / 2
	local := n.Min.Vec3().Add(mgl32.Vec3{half, half, half})
	return Positioned[Cube]{
		Object:   Cube{HalfSize: half},
		Position: at.Position.Add(at.Rotation.Rotate(local)),
		Rotation: at.Rotation,
	}
}

// expandFirst picks which side of a pair is replaced by its children. The
// larger node is always split; equal nodes alternate by level.
func expandFirst(p nodePair, level int) bool {
	switch {
	case p.a.Size > p.b.Size:
		return true
	case p.b.Size > p.a.Size:
		return false
	}
	return level%2 == 0
}

// Collide descends both trees level by level, keeping only node pairs that
// pass the sloppy test, and returns every colliding pair of unit voxels.
// Both trees must have the same power.
func (r Resolver) Collide(a, b Positioned[octree.Tree]) List {
	power := a.Object.Power()
	if power != b.Object.Power() {
		panic(fmt.Sprintf("octree power mismatch: %d != %d", power, b.Object.Power()))
	}

	rootA, okA := a.Object.Root()
	rootB, okB := b.Object.Root()
	if !okA || !okB {
		return nil
	}
	if !Overlap(cubeOf(rootA, a), cubeOf(rootB, b)).Collided {
		return nil
	}

	var (
		out      List
		children []octree.Node
		work     = []nodePair{{rootA, rootB}}
		next     []nodePair
		shrink   = r.leafShrink()
		maxLevel = 2 * power
	)
	for level := 0; len(work) > 0; level++ {
		if level > maxLevel {
			panic(fmt.Sprintf("octree descent did not reach unit depth after %d levels", maxLevel))
		}
		next = next[:0]
		for _, p := range work {
			if p.a.IsUnit() && p.b.IsUnit() {
				res := OverlapShrunk(cubeOf(p.a, a), cubeOf(p.b, b), shrink)
				if res.Collided {
					out = append(out, VoxelCollision{
						A:           p.a.Min,
						B:           p.b.Min,
						Penetration: res.Penetration,
						Normal:      res.Normal,
					})
				}
				continue
			}

			if expandFirst(p, level) {
				other := cubeOf(p.b, b)
				children = a.Object.AppendChildren(children[:0], p.a)
				for _, c := range children {
					if Overlap(cubeOf(c, a), other).Collided {
						next = append(next, nodePair{c, p.b})
					}
				}
			} else {
				other := cubeOf(p.a, a)
				children = b.Object.AppendChildren(children[:0], p.b)
				for _, c := range children {
					if Overlap(other, cubeOf(c, b)).Collided {
						next = append(next, nodePair{p.a, c})
					}
				}
			}
		}
		work, next = next, work
	}
	return out
}
