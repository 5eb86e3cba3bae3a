package sim

import (
	"fmt"
	"math"

	"github.com/matzehuels/emergence/pkg/blob"
	"github.com/matzehuels/emergence/pkg/config"
	"github.com/matzehuels/emergence/pkg/entity"
	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/growth"
	"github.com/matzehuels/emergence/pkg/physics"
)

// DefaultColor is used for depths without a configured colour.
const DefaultColor = "#3b82f6"

// build creates every node of the tree. Only the root is visible.
func (s *Simulation) build() error {
	counts := s.cfg.EntityCounts
	s.shape = counts.Shape()
	s.maxDepth = counts.Depth()
	s.radii = EstimateRadii(s.cfg.Radius, s.shape, s.cfg.DepthRadius)

	root := entity.Node{
		ID:   entity.RootID,
		Kind: entity.KindCompound,
		Visual: entity.VisualConfig{
			Radius:  s.radii[0],
			Color:   s.colorFor(0),
			Visible: true,
		},
	}
	if err := s.graph.AddNode(root); err != nil {
		return err
	}
	s.colors[entity.RootID] = root.Visual.Color
	s.hulls[entity.RootID] = s.newHull(entity.RootID)
	return s.addChildren(entity.RootID, counts, 1)
}

func (s *Simulation) addChildren(parent string, c config.Counts, depth int) error {
	if len(c.Children) == 0 {
		for i := range c.Particles {
			if err := s.addNode(parent, i, depth, entity.KindParticle); err != nil {
				return err
			}
		}
		s.particles[parent] = c.Particles
		return nil
	}
	total := 0
	for i, ch := range c.Children {
		id := entity.ChildID(parent, i)
		if err := s.addNode(parent, i, depth, entity.KindCompound); err != nil {
			return err
		}
		s.hulls[id] = s.newHull(id)
		if err := s.addChildren(id, ch, depth+1); err != nil {
			return err
		}
		total += s.particles[id]
	}
	s.particles[parent] = total
	return nil
}

func (s *Simulation) addNode(parent string, i, depth int, kind entity.Kind) error {
	id := entity.ChildID(parent, i)
	n := entity.Node{
		ID:       id,
		ParentID: parent,
		Kind:     kind,
		Visual: entity.VisualConfig{
			Radius: s.radiusAt(depth),
			Color:  s.colorFor(depth),
		},
	}
	if kind == entity.KindParticle {
		n.Visual.UniqueID = UniqueIndex(entity.IndexPath(id), s.shape)
	}
	s.colors[id] = n.Visual.Color
	return s.graph.AddNode(n)
}

func (s *Simulation) newHull(id string) *blob.Hull {
	return blob.NewHull(id,
		blob.WithSearchBudget(s.cfg.BoundaryBudget),
		blob.WithLogger(s.logger))
}

// radiusAt returns the entity radius at depth. Depths past the tree reuse
// the deepest radius.
func (s *Simulation) radiusAt(depth int) float64 {
	if depth < len(s.radii) {
		return s.radii[depth]
	}
	return s.radii[len(s.radii)-1]
}

// colorFor resolves the configured colour at depth. "random" draws a fresh
// colour from the seeded generator for every entity.
func (s *Simulation) colorFor(depth int) string {
	switch c := s.cfg.Color(depth); c {
	case "":
		return DefaultColor
	case "random":
		return fmt.Sprintf("#%06x", s.rng.Intn(0x1000000))
	default:
		return c
	}
}

// EstimateRadii returns the entity radius for every depth of a tree with
// the given branching shape. Depth 0 is root. Explicit overrides win; other
// depths are sized so that shape[d] children of radius r fit a ring of
// radius r/sin(pi/n)+r inside their parent.
func EstimateRadii(root float64, shape []int, overrides []float64) []float64 {
	radii := make([]float64, len(shape)+1)
	radii[0] = root
	if len(overrides) > 0 {
		radii[0] = overrides[0]
	}
	for d, n := range shape {
		if d+1 < len(overrides) {
			radii[d+1] = overrides[d+1]
			continue
		}
		radii[d+1] = childRadius(radii[d], n)
	}
	return radii
}

func childRadius(parent float64, n int) float64 {
	if n <= 1 {
		return parent / 2
	}
	sin := math.Sin(math.Pi / float64(n))
	return parent * sin / (1 + sin)
}

// UniqueIndex maps a particle's index path to a dense integer, treating each
// position as a digit whose radix is the branching at that depth.
func UniqueIndex(path []int, shape []int) int {
	idx, mult := 0, 1
	for i := len(path) - 1; i >= 0; i-- {
		idx += path[i] * mult
		if i < len(shape) {
			mult *= max(shape[i], 1)
		}
	}
	return idx
}

// =============================================================================
// Spawner
// =============================================================================

// Spawn mounts a particle or starts the engine of a compound child.
func (s *Simulation) Spawn(owner string, index int, pos geom.Vec3) error {
	parent, err := s.graph.MustNode(owner)
	if err != nil {
		return err
	}
	if index >= len(parent.ChildrenIDs) {
		return fmt.Errorf("spawn %s[%d]: %w", owner, index, entity.ErrInvalidNodeID)
	}
	id := parent.ChildrenIDs[index]
	n, _ := s.graph.Node(id)
	n.Origin = pos
	if n.IsParticle() {
		body := s.world.AddBody(physics.BodySpec{
			Position:    pos,
			Radius:      n.Visual.Radius,
			Restitution: s.cfg.ParticleRestitution,
		})
		return s.graph.Mount(id, body)
	}
	e, err := growth.New(id, s.joints, s, growth.Options{
		Radius: s.radiusAt(n.Depth + 1),
		Origin: pos,
		Mode:   s.mode,
		Logger: s.logger,
	})
	if err != nil {
		return err
	}
	s.engines[id] = e
	s.order = append(s.order, id)
	return nil
}

// Ready reports whether child id is mounted (particles) or steady
// (compounds).
func (s *Simulation) Ready(id string) bool {
	n, ok := s.graph.Node(id)
	if !ok {
		return false
	}
	if n.IsParticle() {
		return n.Mounted()
	}
	e, ok := s.engines[id]
	return ok && e.Steady()
}
