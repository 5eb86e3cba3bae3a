package physics

import (
	"fmt"
	"math"
	"slices"

	"github.com/matzehuels/emergence/pkg/geom"
)

// Options tunes SpringWorld. Zero values fall back to the defaults below.
type Options struct {
	Stiffness      float64 // joint spring constant
	JointDamping   float64 // damping along the joint's relative velocity
	LinearDamping  float64 // per-second velocity decay
	AngularDamping float64 // per-second spin decay
	Substeps       int
}

const (
	defaultStiffness      = 400
	defaultJointDamping   = 8
	defaultLinearDamping  = 1.5
	defaultAngularDamping = 4
	defaultSubsteps       = 4
)

func (o *Options) setDefaults() {
	if o.Stiffness <= 0 {
		o.Stiffness = defaultStiffness
	}
	if o.JointDamping <= 0 {
		o.JointDamping = defaultJointDamping
	}
	if o.LinearDamping <= 0 {
		o.LinearDamping = defaultLinearDamping
	}
	if o.AngularDamping <= 0 {
		o.AngularDamping = defaultAngularDamping
	}
	if o.Substeps <= 0 {
		o.Substeps = defaultSubsteps
	}
}

// SpringWorld is a deterministic, single-threaded ball-and-spring integrator.
// Bodies and joints are stepped in insertion order, so two worlds fed the
// same calls produce identical trajectories.
type SpringWorld struct {
	opts   Options
	nextID int
	bodies []*RigidBody
	joints []*SpringJoint
}

// NewSpringWorld creates an empty world.
func NewSpringWorld(opts Options) *SpringWorld {
	opts.setDefaults()
	return &SpringWorld{opts: opts}
}

// AddBody inserts a new ball body.
func (w *SpringWorld) AddBody(spec BodySpec) Body {
	mass := spec.Mass
	if mass <= 0 {
		mass = 1
	}
	radius := spec.Radius
	if radius <= 0 {
		radius = 1
	}
	w.nextID++
	b := &RigidBody{
		id:          w.nextID,
		pos:         spec.Position,
		rot:         geom.Identity,
		radius:      radius,
		mass:        mass,
		restitution: spec.Restitution,
		sensor:      spec.Sensor,
	}
	w.bodies = append(w.bodies, b)
	return b
}

// RemoveBody removes b and every joint attached to it.
func (w *SpringWorld) RemoveBody(b Body) {
	rb := w.own(b)
	w.joints = slices.DeleteFunc(w.joints, func(j *SpringJoint) bool {
		if j.a == rb || j.b == rb {
			j.removed = true
			return true
		}
		return false
	})
	w.bodies = slices.DeleteFunc(w.bodies, func(o *RigidBody) bool { return o == rb })
}

// CreateJoint pins anchorA on a to anchorB on b.
func (w *SpringWorld) CreateJoint(a Body, anchorA geom.Vec3, b Body, anchorB geom.Vec3) Joint {
	j := &SpringJoint{a: w.own(a), b: w.own(b), anchor1: anchorA, anchor2: anchorB}
	w.joints = append(w.joints, j)
	return j
}

// RemoveJoint releases j. Removing an already removed joint is a no-op.
func (w *SpringWorld) RemoveJoint(j Joint) {
	sj, ok := j.(*SpringJoint)
	if !ok || sj.removed {
		return
	}
	sj.removed = true
	w.joints = slices.DeleteFunc(w.joints, func(o *SpringJoint) bool { return o == sj })
}

func (w *SpringWorld) JointCount() int { return len(w.joints) }
func (w *SpringWorld) BodyCount() int  { return len(w.bodies) }

// Step advances the world by dt seconds.
func (w *SpringWorld) Step(dt float64) {
	if dt <= 0 {
		return
	}
	h := dt / float64(w.opts.Substeps)
	for range w.opts.Substeps {
		w.substep(h)
	}
}

func (w *SpringWorld) substep(h float64) {
	for _, b := range w.bodies {
		b.force, b.torque = geom.Vec3{}, geom.Vec3{}
	}
	for _, j := range w.joints {
		w.applySpring(j)
	}

	linDecay := math.Exp(-w.opts.LinearDamping * h)
	angDecay := math.Exp(-w.opts.AngularDamping * h)
	for _, b := range w.bodies {
		b.vel = b.vel.Add(b.force.Scale(h / b.mass)).Scale(linDecay)
		b.angVel = b.angVel.Add(b.torque.Scale(h / b.inertia())).Scale(angDecay)
		b.pos = b.pos.Add(b.vel.Scale(h))
		if l := b.angVel.Len(); l > 0 {
			b.rot = geom.AxisAngle(b.angVel, l*h).Mul(b.rot).Normalize()
		}
	}
	w.resolveContacts()
}

func (w *SpringWorld) applySpring(j *SpringJoint) {
	ra := j.a.rot.Rotate(j.anchor1)
	rb := j.b.rot.Rotate(j.anchor2)
	pa := j.a.pos.Add(ra)
	pb := j.b.pos.Add(rb)

	stretch := pb.Sub(pa)
	relVel := j.b.pointVelocity(rb).Sub(j.a.pointVelocity(ra))
	f := stretch.Scale(w.opts.Stiffness).Add(relVel.Scale(w.opts.JointDamping))

	j.a.force = j.a.force.Add(f)
	j.a.torque = j.a.torque.Add(ra.Cross(f))
	j.b.force = j.b.force.Sub(f)
	j.b.torque = j.b.torque.Sub(rb.Cross(f))
}

func (w *SpringWorld) resolveContacts() {
	for i, a := range w.bodies {
		if a.sensor {
			continue
		}
		for _, b := range w.bodies[i+1:] {
			if b.sensor {
				continue
			}
			d := b.pos.Sub(a.pos)
			dist := d.Len()
			overlap := a.radius + b.radius - dist
			if overlap <= 0 {
				continue
			}
			n := geom.V(1, 0, 0)
			if dist > 1e-12 {
				n = d.Scale(1 / dist)
			}
			total := a.mass + b.mass
			a.pos = a.pos.Sub(n.Scale(overlap * b.mass / total))
			b.pos = b.pos.Add(n.Scale(overlap * a.mass / total))

			closing := b.vel.Sub(a.vel).Dot(n)
			if closing >= 0 {
				continue
			}
			e := math.Max(a.restitution, b.restitution)
			imp := -(1 + e) * closing / (1/a.mass + 1/b.mass)
			a.vel = a.vel.Sub(n.Scale(imp / a.mass))
			b.vel = b.vel.Add(n.Scale(imp / b.mass))
		}
	}
}

func (w *SpringWorld) own(b Body) *RigidBody {
	rb, ok := b.(*RigidBody)
	if !ok || !slices.Contains(w.bodies, rb) {
		panic(fmt.Errorf("%w: %T", ErrForeignBody, b))
	}
	return rb
}

var _ Engine = (*SpringWorld)(nil)
