package physics

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/gekko3d/voxphys/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// IntegrateLinear advances momentum then position by dt and clears the force.
func (b *Body) IntegrateLinear(dt float32) {
	b.Momentum = b.Momentum.Add(b.Force.Mul(dt))
	b.Position = b.Position.Add(b.Momentum.Mul(dt * b.InverseMass))
	b.Force = mgl32.Vec3{}
}

// IntegrateAngular advances angular momentum by dt, then turns the body by
// the resulting angular velocity. The increment is applied in world frame.
func (b *Body) IntegrateAngular(dt float32) {
	b.AngularMomentum = b.AngularMomentum.Add(b.Torque.Mul(dt))
	b.Torque = mgl32.Vec3{}

	w := b.AngularVelocity()
	if w == (mgl32.Vec3{}) {
		return
	}
	speed := w.Len()
	half := speed * dt / 2
	axis := w.Mul(1 / speed)
	inc := geom.RotorFromHalfAngle(math32.Cos(half), axis.Mul(math32.Sin(half)))
	b.Rotation = inc.Mul(b.Rotation).Normalize()
}

// Integrate runs one fixed step. It panics if the step produced NaN, which
// only happens when the body state was already corrupt.
func (b *Body) Integrate(dt float32) {
	if b.NeedsRecompute() {
		panic("rigid body integrated with stale mass properties")
	}
	b.IntegrateLinear(dt)
	b.IntegrateAngular(dt)
	if geom.IsNaN(b.Position) || b.Rotation.IsNaN() {
		panic(fmt.Sprintf("rigid body state is NaN after integration: position %v rotation %v",
			b.Position, b.Rotation.Quat()))
	}
}
