package physics

import "github.com/matzehuels/emergence/pkg/geom"

// SpringJoint is SpringWorld's spherical joint: a stiff damped spring
// between the two world-space anchor points.
type SpringJoint struct {
	a, b             *RigidBody
	anchor1, anchor2 geom.Vec3
	removed          bool
}

func (j *SpringJoint) Anchor1() geom.Vec3     { return j.anchor1 }
func (j *SpringJoint) Anchor2() geom.Vec3     { return j.anchor2 }
func (j *SpringJoint) SetAnchor1(a geom.Vec3) { j.anchor1 = a }
func (j *SpringJoint) SetAnchor2(a geom.Vec3) { j.anchor2 = a }
func (j *SpringJoint) Body1() Body            { return j.a }
func (j *SpringJoint) Body2() Body            { return j.b }

// Removed reports whether the joint has been released from its world.
func (j *SpringJoint) Removed() bool { return j.removed }

var _ Joint = (*SpringJoint)(nil)
