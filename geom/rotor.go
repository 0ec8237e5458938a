package geom

import (
	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
)

// Rotor is a unit rotation. It is backed by a quaternion; composition with Mul
// applies the right-hand rotor first.
type Rotor struct {
	q mgl32.Quat
}

func Identity() Rotor {
	return Rotor{q: mgl32.QuatIdent()}
}

// RotorFromQuat wraps q, normalizing it.
func RotorFromQuat(q mgl32.Quat) Rotor {
	return Rotor{q: q.Normalize()}
}

// RotorFromAxisAngle returns the rotation of angle radians about axis.
// A zero axis yields the identity.
func RotorFromAxisAngle(axis mgl32.Vec3, angle float32) Rotor {
	if axis.Len() == 0 {
		return Identity()
	}
	return Rotor{q: mgl32.QuatRotate(angle, axis.Normalize())}
}

// RotorFromHalfAngle builds a rotor from the scalar part cos(angle/2) and the
// bivector part sin(angle/2) * axis.
func RotorFromHalfAngle(s float32, b mgl32.Vec3) Rotor {
	return Rotor{q: mgl32.Quat{W: s, V: b}}
}

func (r Rotor) Quat() mgl32.Quat {
	if r.q == (mgl32.Quat{}) {
		return mgl32.QuatIdent()
	}
	return r.q
}

// Mul composes rotors: r.Mul(o) rotates by o, then by r.
func (r Rotor) Mul(o Rotor) Rotor {
	return Rotor{q: r.Quat().Mul(o.Quat())}
}

func (r Rotor) Rotate(v mgl32.Vec3) mgl32.Vec3 {
	return r.Quat().Rotate(v)
}

func (r Rotor) Inverse() Rotor {
	return Rotor{q: r.Quat().Inverse()}
}

func (r Rotor) Normalize() Rotor {
	return Rotor{q: r.Quat().Normalize()}
}

// Mat3 returns the rotation matrix R such that R*v == r.Rotate(v).
func (r Rotor) Mat3() mgl32.Mat3 {
	return r.Quat().Mat4().Mat3()
}

func (r Rotor) IsNaN() bool {
	q := r.Quat()
	return math32.IsNaN(q.W) || IsNaN(q.V)
}

// ApproxEqual compares quaternion components with an absolute tolerance.
func (r Rotor) ApproxEqual(o Rotor) bool {
	a, b := r.Quat(), o.Quat()
	// q and -q describe the same rotation.
	return quatNear(a, b) || quatNear(a, b.Scale(-1))
}

func quatNear(a, b mgl32.Quat) bool {
	const eps = 1e-5
	return math32.Abs(a.W-b.W) <= eps && a.V.Sub(b.V).Len() <= eps
}

// IsNaN reports whether any component of v is NaN.
func IsNaN(v mgl32.Vec3) bool {
	return math32.IsNaN(v[0]) || math32.IsNaN(v[1]) || math32.IsNaN(v[2])
}
