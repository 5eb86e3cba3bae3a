// Package physics defines the rigid-body boundary the simulation core talks
// to and ships SpringWorld, a small deterministic reference implementation.
//
// The core never integrates anything itself. It reads body transforms,
// applies impulses and creates or removes spherical joints through the
// interfaces below; any engine that satisfies them can be swapped in.
package physics

import (
	"errors"

	"github.com/matzehuels/emergence/pkg/geom"
)

// Body is a rigid body owned by the physics world.
type Body interface {
	// Translation returns the current world-space centre.
	Translation() geom.Vec3
	// Rotation returns the current world-space orientation.
	Rotation() geom.Quat
	// ApplyImpulse changes the body's linear momentum by v.
	ApplyImpulse(v geom.Vec3)
}

// Resizable is implemented by bodies whose collider radius can change at runtime.
type Resizable interface {
	Radius() float64
	SetRadius(r float64)
}

// Joint is a spherical constraint pinning a point on Body1 to a point on Body2.
// Anchors are expressed in each body's local frame.
type Joint interface {
	Anchor1() geom.Vec3
	Anchor2() geom.Vec3
	SetAnchor1(a geom.Vec3)
	SetAnchor2(a geom.Vec3)
	Body1() Body
	Body2() Body
}

// World is the joint surface the core depends on.
type World interface {
	CreateJoint(a Body, anchorA geom.Vec3, b Body, anchorB geom.Vec3) Joint
	RemoveJoint(j Joint)
}

// BodySpec describes a body to insert into an Engine.
type BodySpec struct {
	Position    geom.Vec3
	Radius      float64
	Mass        float64 // defaults to 1
	Restitution float64
	// Sensor bodies are integrated but never collide.
	Sensor bool
}

// Engine is a complete world: bodies, joints and a fixed-step integrator.
type Engine interface {
	World
	AddBody(spec BodySpec) Body
	RemoveBody(b Body)
	Step(dt float64)
	JointCount() int
	BodyCount() int
}

var (
	// ErrForeignBody is raised when a body from another world is passed in.
	ErrForeignBody = errors.New("physics: body does not belong to this world")
)
