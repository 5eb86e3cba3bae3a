package physics

import (
	"github.com/matzehuels/emergence/pkg/geom"
)

// RigidBody is a ball-shaped body simulated by SpringWorld.
type RigidBody struct {
	id          int
	pos         geom.Vec3
	vel         geom.Vec3
	rot         geom.Quat
	angVel      geom.Vec3
	radius      float64
	mass        float64
	restitution float64
	sensor      bool

	force  geom.Vec3
	torque geom.Vec3
}

func (b *RigidBody) Translation() geom.Vec3 { return b.pos }
func (b *RigidBody) Rotation() geom.Quat    { return b.rot }
func (b *RigidBody) Velocity() geom.Vec3    { return b.vel }
func (b *RigidBody) Radius() float64        { return b.radius }

// SetRadius resizes the collider. Non-positive radii are ignored.
func (b *RigidBody) SetRadius(r float64) {
	if r > 0 {
		b.radius = r
	}
}

// SetTranslation teleports the body without touching its velocity.
func (b *RigidBody) SetTranslation(p geom.Vec3) { b.pos = p }

// SetRotation replaces the body's orientation.
func (b *RigidBody) SetRotation(q geom.Quat) { b.rot = q.Normalize() }

func (b *RigidBody) ApplyImpulse(v geom.Vec3) {
	b.vel = b.vel.Add(v.Scale(1 / b.mass))
}

// inertia of a solid sphere.
func (b *RigidBody) inertia() float64 {
	return 0.4 * b.mass * b.radius * b.radius
}

// worldPoint maps a local anchor to world space.
func (b *RigidBody) worldPoint(local geom.Vec3) geom.Vec3 {
	return b.pos.Add(b.rot.Rotate(local))
}

// pointVelocity is the velocity of a world-space offset r from the centre.
func (b *RigidBody) pointVelocity(r geom.Vec3) geom.Vec3 {
	return b.vel.Add(b.angVel.Cross(r))
}

var _ Body = (*RigidBody)(nil)
var _ Resizable = (*RigidBody)(nil)
