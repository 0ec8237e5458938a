package geom

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
)

// IVec is a lattice position: one unit voxel.
type IVec [3]int

func NewIVec(x, y, z int) IVec {
	return IVec{x, y, z}
}

func (v IVec) X() int { return v[0] }
func (v IVec) Y() int { return v[1] }
func (v IVec) Z() int { return v[2] }

func (v IVec) Add(o IVec) IVec {
	return IVec{v[0] + o[0], v[1] + o[1], v[2] + o[2]}
}

func (v IVec) Sub(o IVec) IVec {
	return IVec{v[0] - o[0], v[1] - o[1], v[2] - o[2]}
}

func (v IVec) Scale(s int) IVec {
	return IVec{v[0] * s, v[1] * s, v[2] * s}
}

// Min returns the per-axis minimum of v and o.
func (v IVec) Min(o IVec) IVec {
	return IVec{min(v[0], o[0]), min(v[1], o[1]), min(v[2], o[2])}
}

// Max returns the per-axis maximum of v and o.
func (v IVec) Max(o IVec) IVec {
	return IVec{max(v[0], o[0]), max(v[1], o[1]), max(v[2], o[2])}
}

func (v IVec) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]), float32(v[1]), float32(v[2])}
}

// Center is the float position of the middle of the unit voxel at v.
func (v IVec) Center() mgl32.Vec3 {
	return mgl32.Vec3{float32(v[0]) + 0.5, float32(v[1]) + 0.5, float32(v[2]) + 0.5}
}

func (v IVec) LVec() LVec {
	return LVec{int64(v[0]), int64(v[1]), int64(v[2])}
}

func (v IVec) String() string {
	return fmt.Sprintf("(%d, %d, %d)", v[0], v[1], v[2])
}

// FloorDiv divides each axis by d rounding towards negative infinity and
// returns the quotient and the non-negative remainder.
func (v IVec) FloorDiv(d int) (q IVec, r IVec) {
	for i := 0; i < 3; i++ {
		q[i], r[i] = v[i]/d, v[i]%d
		if r[i] < 0 {
			r[i] += d
			q[i]--
		}
	}
	return q, r
}

// NextPow2 returns the smallest power of two >= n, and its exponent. n <= 1
// yields (1, 0).
func NextPow2(n int) (int, int) {
	size, power := 1, 0
	for size < n {
		size <<= 1
		power++
	}
	return size, power
}
