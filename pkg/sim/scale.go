package sim

import (
	"github.com/matzehuels/emergence/pkg/entity"
	emerr "github.com/matzehuels/emergence/pkg/errors"
	"github.com/matzehuels/emergence/pkg/physics"
)

// HighlightColor marks a toggled particle.
const HighlightColor = "#ff69b4"

// SetParticleScale resizes particle id to scale times its original radius.
// The collider and the anchors of every attached joint follow, so joints
// stay on the particle's surface.
func (s *Simulation) SetParticleScale(id string, scale float64) error {
	if scale <= 0 {
		return emerr.New(emerr.ErrCodeInvalidInput, "scale must be positive, got %g", scale)
	}
	n, err := s.graph.MustNode(id)
	if err != nil {
		return err
	}
	if !n.IsParticle() {
		return entity.ErrNotParticle
	}
	prev := n.Visual.Scale
	if prev == 0 {
		prev = 1
	}
	if scale == prev {
		return nil
	}
	n.Visual.Scale = scale
	n.Visual.Radius = n.Visual.OrigRadius * scale
	if r, ok := n.Body.(physics.Resizable); ok {
		r.SetRadius(n.Visual.Radius)
	}
	s.joints.ScaleAnchors(id, scale/prev)
	return nil
}

// ToggleParticle flips particle id between normal and double size and
// highlights it while enlarged.
func (s *Simulation) ToggleParticle(id string) error {
	n, err := s.graph.MustNode(id)
	if err != nil {
		return err
	}
	if n.Visual.Scale == 1 {
		if err := s.SetParticleScale(id, 2); err != nil {
			return err
		}
		n.Visual.Color = HighlightColor
		return nil
	}
	if err := s.SetParticleScale(id, 1); err != nil {
		return err
	}
	n.Visual.Color = s.colors[id]
	return nil
}
