package growth

import "github.com/matzehuels/emergence/pkg/geom"

// InnerCore is the cosmetic body drawn inside a cluster of three or more
// children. Its radius bounces between half and one and a half entity radii.
type InnerCore struct {
	Active bool
	Centre geom.Vec3
	Radius float64

	base float64
	dir  float64
}

func (e *Engine) activateCore() {
	if e.core.Active {
		return
	}
	e.core = InnerCore{Active: true, Radius: e.radius / 3, base: e.radius, dir: 1}
	e.logger.Debug("inner core activated")
}

func (e *Engine) tickCore() {
	c := &e.core
	if !c.Active {
		return
	}
	if centre, ok := e.joints.Centre(e.owner); ok {
		c.Centre = centre
	}
	if c.Radius > c.base*1.5 {
		c.dir = -1
	}
	if c.Radius < c.base*0.5 {
		c.dir = 1
	}
	c.Radius += c.dir * c.base * 0.001
}
