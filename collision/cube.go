package collision

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gekko3d/voxphys/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// Cube is an axis-aligned cube in its own local space, centered on the origin.
type Cube struct {
	// Half of the length, width, and height of the cube.
	HalfSize float32
}

func NewCube(halfSize float32) Cube {
	if halfSize < 0 || math32.IsNaN(halfSize) {
		panic(fmt.Sprintf("cube half size must be non-negative, got %v", halfSize))
	}
	return Cube{HalfSize: halfSize}
}

// Positioned places a local-space object in the world.
type Positioned[T any] struct {
	Object   T
	Position mgl32.Vec3
	Rotation geom.Rotor
}

func Place[T any](object T, position mgl32.Vec3, rotation geom.Rotor) Positioned[T] {
	return Positioned[T]{Object: object, Position: position, Rotation: rotation}
}

// Result is the outcome of one cube overlap test.
type Result struct {
	Collided    bool
	Penetration float32
	// Normal is the unit direction from b's center to a's center, or zero
	// when the centers coincide.
	Normal mgl32.Vec3
}

// Vector is the penetration along the normal.
func (r Result) Vector() mgl32.Vec3 {
	return r.Normal.Mul(r.Penetration)
}

var sqrt3 = math32.Sqrt(3)

// Overlap is the sloppy cube test: two cubes collide when their centers are
// closer than the distance at which they could touch corner to corner. It
// never misses a true overlap but may report false positives. Rotation is
// not used.
func Overlap(a, b Positioned[Cube]) Result {
	return OverlapShrunk(a, b, 1)
}

// OverlapShrunk is Overlap with both half sizes scaled by shrink before the
// test. A shrink below 1 trades rare missed micro-overlaps for fewer false
// positives.
func OverlapShrunk(a, b Positioned[Cube], shrink float32) Result {
	delta := a.Position.Sub(b.Position)
	dist := delta.Len()
	threshold := sqrt3 * (a.Object.HalfSize + b.Object.HalfSize) * shrink

	var normal mgl32.Vec3
	if dist > 0 {
		normal = delta.Mul(1 / dist)
	}
	return Result{
		Collided:    dist < threshold,
		Penetration: threshold - dist,
		Normal:      normal,
	}
}
