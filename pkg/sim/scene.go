package sim

import (
	"slices"

	"github.com/matzehuels/emergence/pkg/entity"
	"github.com/matzehuels/emergence/pkg/geom"
)

// BlobView is a visible compound outline.
type BlobView struct {
	ID      string
	Depth   int
	Outline []geom.Vec3
	Color   string
}

// ParticleView is one mounted particle.
type ParticleView struct {
	ID       string
	UniqueID int
	Position geom.Vec3
	Radius   float64
	Color    string
}

// CoreView is the inner core of a compound.
type CoreView struct {
	ID     string
	Centre geom.Vec3
	Radius float64
}

// RelationView is a relation edge between two entity centres.
type RelationView struct {
	From, To     string
	FromPt, ToPt geom.Vec3
}

// Scene is a snapshot of everything a renderer draws.
type Scene struct {
	RunID     string
	Tick      int
	Blobs     []BlobView
	Particles []ParticleView
	Cores     []CoreView
	Relations []RelationView
}

// Bounds returns the XY bounding box of everything in the scene, padded by
// particle radii.
func (sc Scene) Bounds() (min, max geom.Vec3) {
	var pts []geom.Vec3
	for _, b := range sc.Blobs {
		pts = append(pts, b.Outline...)
	}
	for _, p := range sc.Particles {
		pts = append(pts,
			p.Position.Sub(geom.V(p.Radius, p.Radius, 0)),
			p.Position.Add(geom.V(p.Radius, p.Radius, 0)))
	}
	return geom.Bounds(pts)
}

// Scene snapshots the visible blobs and, when enabled, particles, cores
// and relations. Blobs are ordered shallowest first so deeper outlines are
// drawn on top.
func (s *Simulation) Scene() Scene {
	sc := Scene{RunID: s.runID, Tick: s.tick}
	for _, id := range s.order {
		n, ok := s.graph.Node(id)
		if !ok {
			continue
		}
		if e := s.engines[id]; e != nil && e.Core().Active {
			c := e.Core()
			sc.Cores = append(sc.Cores, CoreView{ID: id, Centre: c.Centre, Radius: c.Radius})
		}
		if !n.Visual.Visible {
			continue
		}
		h, ok := s.hulls[id]
		if !ok {
			continue
		}
		if poly := h.Outline(s.graph); poly != nil {
			sc.Blobs = append(sc.Blobs, BlobView{ID: id, Depth: n.Depth, Outline: poly, Color: n.Visual.Color})
		}
	}
	slices.SortStableFunc(sc.Blobs, func(a, b BlobView) int { return a.Depth - b.Depth })

	if s.cfg.ShowParticles {
		for _, p := range s.graph.MountedParticles(entity.RootID) {
			sc.Particles = append(sc.Particles, ParticleView{
				ID:       p.ID,
				UniqueID: p.Visual.UniqueID,
				Position: p.Body.Translation(),
				Radius:   p.Visual.Radius,
				Color:    p.Visual.Color,
			})
		}
	}

	if s.cfg.ShowRelations {
		s.graph.Walk(entity.RootID, func(n *entity.Node) bool {
			from, ok := s.joints.Centre(n.ID)
			if !ok {
				return true
			}
			for _, to := range s.graph.Relations(n.ID) {
				if pt, ok := s.joints.Centre(to); ok {
					sc.Relations = append(sc.Relations, RelationView{From: n.ID, To: to, FromPt: from, ToPt: pt})
				}
			}
			return true
		})
	}
	return sc
}
