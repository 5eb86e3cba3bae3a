package sim

import (
	"math"

	"github.com/matzehuels/emergence/pkg/geom"
)

// impulseState tracks a compound's centre between ticks.
type impulseState struct {
	prev  geom.Vec3
	valid bool
}

// impulseScale is the per-particle impulse at depth: deeper entities get
// stronger kicks so they visibly jostle inside their parents.
func (s *Simulation) impulseScale(depth int) float64 {
	return s.cfg.ImpulsePerParticle * float64(depth+1)
}

func (s *Simulation) particleArea() float64 {
	r := s.radii[len(s.radii)-1]
	return math.Pi * r * r
}

// initialImpulse kicks every child of a freshly formed compound in a
// noise-derived direction.
func (s *Simulation) initialImpulse(id string) {
	n, ok := s.graph.Node(id)
	if !ok || len(n.ChildrenIDs) == 0 || s.cfg.InitialScaling == 0 {
		return
	}
	scale := s.impulseScale(n.Depth) * s.cfg.InitialScaling * float64(s.particles[id])
	for i, cid := range n.ChildrenIDs {
		x := s.noise.Eval2(float64(i), float64(n.Depth)) - 0.5
		y := s.noise.Eval2(float64(n.Depth), float64(i)+0.5) - 0.5
		s.impulseEntity(cid, geom.V(x, y, 0).Scale(scale))
	}
}

// applyImpulses runs the per-tick impulse for every formed compound: a
// drift along the direction the centre moved, and a pull back towards the
// centre for children that stray too far.
func (s *Simulation) applyImpulses() {
	if s.cfg.ImpulsePerParticle == 0 {
		return
	}
	for _, id := range s.order {
		e := s.engines[id]
		if e == nil || !e.Steady() {
			continue
		}
		s.compoundImpulse(id)
	}
}

func (s *Simulation) compoundImpulse(id string) {
	n, ok := s.graph.Node(id)
	if !ok || len(n.ChildrenIDs) == 0 {
		return
	}
	centre, ok := s.joints.Centre(id)
	if !ok {
		return
	}
	st := s.impulses[id]
	if st == nil {
		st = &impulseState{}
		s.impulses[id] = st
	}
	prev := centre
	if st.valid {
		prev = st.prev
	}
	st.prev, st.valid = centre, true

	count := float64(len(n.ChildrenIDs))
	base := s.impulseScale(n.Depth) * s.particleArea() * float64(s.particles[id]) / count
	drift := centre.Sub(prev).Normalize().Scale(base)

	// Slow opensimplex wander keeps still clusters from freezing.
	t := float64(s.tick) * 0.01
	wander := geom.V(s.noise.Eval2(t, float64(n.Depth))-0.5, s.noise.Eval2(float64(n.Depth), t)-0.5, 0).Scale(base * 0.1)

	maxDisp := s.cfg.MaxDisplacementScaling * s.radiusAt(n.Depth)
	for _, cid := range n.ChildrenIDs {
		cc, ok := s.joints.Centre(cid)
		if !ok {
			continue
		}
		disp := cc.Sub(prev)
		toCentre := disp.Scale(-1).Normalize()
		imp := drift
		if imp.LenSq() == 0 {
			imp = toCentre.Scale(base)
		}
		if disp.Len() > maxDisp {
			imp = toCentre.Scale(base * s.cfg.OvershootScaling)
		}
		s.impulseEntity(cid, imp.Add(wander))
	}
}

// impulseEntity splits imp evenly over the mounted particles of id. A
// particle id receives all of it.
func (s *Simulation) impulseEntity(id string, imp geom.Vec3) {
	ps := s.graph.MountedParticles(id)
	if len(ps) == 0 {
		return
	}
	share := imp.Scale(1 / float64(len(ps)))
	for _, p := range ps {
		p.Body.ApplyImpulse(share)
	}
}
