package render

import (
	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/sim"
)

// Layer receives drawing calls for one frame.
type Layer interface {
	DrawBlob(id string, depth int, polygon []geom.Vec3, color string)
	DrawParticle(id string, pos geom.Vec3, radius float64, color string)
}

// CoreDrawer is implemented by layers that draw inner cores.
type CoreDrawer interface {
	DrawCore(id string, centre geom.Vec3, radius float64)
}

// RelationDrawer is implemented by layers that draw relation edges.
type RelationDrawer interface {
	DrawRelation(from, to string, a, b geom.Vec3)
}

// Draw paints sc onto l.
func Draw(sc sim.Scene, l Layer) {
	for _, b := range sc.Blobs {
		l.DrawBlob(b.ID, b.Depth, b.Outline, b.Color)
	}
	if rd, ok := l.(RelationDrawer); ok {
		for _, r := range sc.Relations {
			rd.DrawRelation(r.From, r.To, r.FromPt, r.ToPt)
		}
	}
	if cd, ok := l.(CoreDrawer); ok {
		for _, c := range sc.Cores {
			cd.DrawCore(c.ID, c.Centre, c.Radius)
		}
	}
	for _, p := range sc.Particles {
		l.DrawParticle(p.ID, p.Position, p.Radius, p.Color)
	}
}
