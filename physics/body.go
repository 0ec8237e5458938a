package physics

import (
	"fmt"
	"iter"

	"github.com/gekko3d/voxphys/geom"
	"github.com/go-gl/mathgl/mgl32"
)

type massDelta struct {
	pos  geom.IVec
	mass int64
}

// Body is a rigid body made of point masses at integer lattice positions.
//
// Position is the world location of the center of mass and Rotation turns
// body-local lattice offsets into world space. Mass sums are kept as exact
// integers; CenterOfMass, InverseMass, InertiaCOM and InverseInertiaCOM are
// derived from them by Recompute.
type Body struct {
	Position        mgl32.Vec3
	Rotation        geom.Rotor
	Momentum        mgl32.Vec3
	AngularMomentum mgl32.Vec3
	Force           mgl32.Vec3
	Torque          mgl32.Vec3

	TotalMass         int64
	TotalMassPosition geom.LVec
	// Inertia is about the lattice origin.
	Inertia geom.LMat

	CenterOfMass      mgl32.Vec3
	InverseMass       float32
	InertiaCOM        mgl32.Mat3
	InverseInertiaCOM mgl32.Mat3

	pending []massDelta
	derived bool
}

// New builds a body from its mass distribution. position is the world
// location of the center of mass and velocity the initial linear velocity.
// It panics when the masses sum to zero.
func New(position mgl32.Vec3, rotation geom.Rotor, velocity mgl32.Vec3, masses iter.Seq2[geom.IVec, int64]) *Body {
	b := &Body{
		Position: position,
		Rotation: rotation.Normalize(),
	}
	for p, m := range masses {
		b.AddMass(p, m)
	}
	b.Recompute()
	b.Momentum = velocity.Mul(float32(b.TotalMass))
	return b
}

// PointInertia is the inertia tensor of mass m at lattice offset p about the
// origin: m * (|p|^2 * I - p p^T).
func PointInertia(p geom.IVec, m int64) geom.LMat {
	lp := p.LVec()
	return geom.LIdent().Scale(lp.Dot(lp)).Sub(geom.Outer(lp, lp)).Scale(m)
}

// AddMass queues a mass change at p. Negative deltas remove mass. The
// derived quantities are stale until Recompute runs.
func (b *Body) AddMass(p geom.IVec, delta int64) {
	if delta == 0 {
		return
	}
	b.pending = append(b.pending, massDelta{pos: p, mass: delta})
}

// PendingMass is the total mass once queued changes are applied.
func (b *Body) PendingMass() int64 {
	total := b.TotalMass
	for _, d := range b.pending {
		total += d.mass
	}
	return total
}

// NeedsRecompute reports whether mass changes are waiting for Recompute.
func (b *Body) NeedsRecompute() bool {
	return len(b.pending) > 0 || !b.derived
}

// Recompute folds pending mass changes into the exact sums and re-derives
// the float quantities. When the center of mass moves, Position follows it
// so that every lattice point keeps its world location.
func (b *Body) Recompute() {
	for _, d := range b.pending {
		b.TotalMass += d.mass
		b.TotalMassPosition = b.TotalMassPosition.Add(d.pos.LVec().Scale(d.mass))
		b.Inertia = b.Inertia.Add(PointInertia(d.pos, d.mass))
	}
	b.pending = b.pending[:0]

	if b.TotalMass <= 0 {
		panic(fmt.Sprintf("rigid body total mass must be positive, got %d", b.TotalMass))
	}

	oldCOM := b.CenterOfMass
	m := float32(b.TotalMass)
	com := b.TotalMassPosition.Vec3().Mul(1 / m)

	inertia := inertiaAboutCOM(b.Inertia, b.TotalMassPosition, b.TotalMass)
	b.InertiaCOM = inertia.mat3()
	// Points and lines have singular tensors; only their non-null principal
	// axes are inverted.
	b.InverseInertiaCOM = inertia.pseudoInverse().mat3()
	b.InverseMass = 1 / m

	if b.derived {
		b.Position = b.Position.Add(b.Rotation.Rotate(com.Sub(oldCOM)))
	}
	b.CenterOfMass = com
	b.derived = true
}

// Origin is the world location of lattice point zero.
func (b *Body) Origin() mgl32.Vec3 {
	return b.Position.Sub(b.Rotation.Rotate(b.CenterOfMass))
}

// WorldPoint maps a body-local lattice position to world space.
func (b *Body) WorldPoint(p mgl32.Vec3) mgl32.Vec3 {
	return b.Position.Add(b.Rotation.Rotate(p.Sub(b.CenterOfMass)))
}

// LatticePoint is WorldPoint for an integer lattice position.
func (b *Body) LatticePoint(p geom.IVec) mgl32.Vec3 {
	return b.WorldPoint(p.Vec3())
}

func (b *Body) Velocity() mgl32.Vec3 {
	return b.Momentum.Mul(b.InverseMass)
}

// WorldInverseInertia is R * I_com^-1 * R^T.
func (b *Body) WorldInverseInertia() mgl32.Mat3 {
	r := b.Rotation.Mat3()
	return r.Mul3(b.InverseInertiaCOM).Mul3(r.Transpose())
}

func (b *Body) AngularVelocity() mgl32.Vec3 {
	return b.WorldInverseInertia().Mul3x1(b.AngularMomentum)
}

// ApplyForce accumulates force at a world point, adding the torque
// (point - Position) x force about the center of mass.
func (b *Body) ApplyForce(force, point mgl32.Vec3) {
	b.Force = b.Force.Add(force)
	b.Torque = b.Torque.Add(point.Sub(b.Position).Cross(force))
}

// ApplyImpulse changes momentum immediately instead of accumulating force.
func (b *Body) ApplyImpulse(impulse, point mgl32.Vec3) {
	b.Momentum = b.Momentum.Add(impulse)
	b.AngularMomentum = b.AngularMomentum.Add(point.Sub(b.Position).Cross(impulse))
}
