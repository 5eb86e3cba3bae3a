package sim

import (
	"math"

	"github.com/matzehuels/emergence/pkg/entity"
)

// Relation edges are a purely visual overlay. Each animation pass deletes
// some edges at random and tops every entity up to a fifth of its sibling
// count, mostly towards siblings and occasionally hopping up or down the
// tree.

const (
	relationDeleteChance  = 0.25
	relationFarChance     = 0.2
	relationLeafSkip      = 0.98
	relationSiblingFactor = 0.2
)

func (s *Simulation) animateRelations() {
	for _, id := range s.order {
		if e := s.engines[id]; e == nil || !e.Steady() {
			continue
		}
		s.relationsFor(id)
	}
}

func (s *Simulation) relationsFor(id string) {
	n, ok := s.graph.Node(id)
	if !ok {
		return
	}
	siblings := n.ChildrenIDs
	limit := int(math.Ceil(float64(len(siblings)) * relationSiblingFactor))
	total := s.graph.RelationCount()

	for _, from := range siblings {
		fn, ok := s.graph.Node(from)
		if !ok {
			continue
		}
		if fn.IsParticle() && s.rng.Float64() < relationLeafSkip {
			continue
		}
		for _, to := range s.graph.Relations(from) {
			if s.rng.Float64() < relationDeleteChance {
				s.graph.DeleteRelation(from, to)
			}
		}
		if total > s.cfg.MaxRelations {
			continue
		}
		have := len(s.graph.Relations(from))
		for attempts := 0; have < limit && attempts < 4*limit; attempts++ {
			var to string
			if s.rng.Float64() < relationFarChance {
				to = s.hop(fn)
			} else {
				to = siblings[s.rng.Intn(len(siblings))]
			}
			if to == "" || to == from {
				continue
			}
			if err := s.graph.AddRelation(from, to); err != nil {
				s.logger.Debug("relation skipped", "from", from, "to", to, "err", err)
				continue
			}
			have = len(s.graph.Relations(from))
		}
	}
}

// hop picks a relation target up to two levels above from and then up to
// two levels below that.
func (s *Simulation) hop(from *entity.Node) string {
	dest := from
	if roll := s.rng.Float64(); roll >= 0.8 {
		if roll < 0.9 && from.Depth > 0 {
			dest, _ = s.graph.Node(from.ParentID)
		} else if from.Depth > 1 {
			p, _ := s.graph.Node(from.ParentID)
			dest, _ = s.graph.Node(p.ParentID)
		}
	}
	if dest == nil {
		return ""
	}
	roll := s.rng.Float64()
	below := s.maxDepth - dest.Depth
	switch {
	case roll < 0.8 || len(dest.ChildrenIDs) == 0:
	case roll < 0.9 && below > 0:
		return dest.ChildrenIDs[s.rng.Intn(len(dest.ChildrenIDs))]
	case below > 1:
		child, _ := s.graph.Node(dest.ChildrenIDs[s.rng.Intn(len(dest.ChildrenIDs))])
		if child == nil {
			return ""
		}
		if len(child.ChildrenIDs) == 0 {
			return child.ID
		}
		return child.ChildrenIDs[s.rng.Intn(len(child.ChildrenIDs))]
	}
	return dest.ID
}
