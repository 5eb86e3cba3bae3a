package joints

import (
	"math"

	"github.com/matzehuels/emergence/pkg/entity"
	emerr "github.com/matzehuels/emergence/pkg/errors"
	"github.com/matzehuels/emergence/pkg/geom"
)

// InitializeJoints forms cluster owner in one step. ring lists the child ids
// in ring order and positions their ring positions; when positions is nil
// the children's live centres are used.
//
// All planned joints are registered with a single batch. A planned pair that
// already has a joint is adopted rather than duplicated. Afterwards every
// particle under owner gets its outer flag for owner's depth. It returns the
// number of joints created.
func (m *Manager) InitializeJoints(owner string, ring []string, positions []geom.Vec3) (int, error) {
	node, err := m.graph.MustNode(owner)
	if err != nil {
		return 0, err
	}
	if positions == nil {
		positions = make([]geom.Vec3, 0, len(ring))
		for _, id := range ring {
			c, ok := m.Centre(id)
			if !ok {
				m.logger.Warn("ring vertex has no mounted particles", "id", id)
				continue
			}
			positions = append(positions, c)
		}
		if len(positions) != len(ring) {
			return 0, nil
		}
	}
	if len(positions) != len(ring) {
		return 0, emerr.New(emerr.ErrCodeInvalidInput, "ring of %d ids with %d positions", len(ring), len(positions))
	}

	allocs := Allocate(m.logger, m.ParticleSets(ring), positions)
	if len(allocs) == 0 {
		m.logger.Debug("no joints allocated", "owner", owner, "ring", len(ring))
		return 0, m.FlagOuter(owner, geom.Centroid(positions), nil)
	}

	var batch []entity.Joint
	ids := make([]string, 0, len(allocs))
	for _, a := range allocs {
		ids = append(ids, a.ID())
		if m.graph.HasJoint(a.ID()) {
			continue
		}
		anchorA, anchorB := Offsets(a.A, a.B)
		batch = append(batch, entity.Joint{
			ID:     a.ID(),
			Handle: m.world.CreateJoint(a.A.Body, anchorA, a.B.Body, anchorB),
			BodyA:  a.A.ID,
			BodyB:  a.B.ID,
			Owner:  node.ID,
		})
	}
	if err := m.graph.AddJoints(batch); err != nil {
		for _, j := range batch {
			m.world.RemoveJoint(j.Handle)
		}
		return 0, err
	}

	if err := m.FlagOuter(owner, geom.Centroid(positions), ids); err != nil {
		return len(batch), err
	}
	m.logger.Debug("cluster formed", "owner", owner, "joints", len(batch), "adopted", len(allocs)-len(batch))
	return len(batch), nil
}

// FlagOuter sets OuterChain[depth(owner)] on every mounted particle under
// owner. A particle is outer when it is at least as far from centre as the
// nearest joint point, less its own radius. With no joints every particle is
// outer.
func (m *Manager) FlagOuter(owner string, centre geom.Vec3, jointIDs []string) error {
	node, err := m.graph.MustNode(owner)
	if err != nil {
		return err
	}
	nearest := math.Inf(1)
	for _, id := range jointIDs {
		j, err := m.graph.Joint(id)
		if err != nil {
			return err
		}
		nearest = math.Min(nearest, WorldPoint(j).Distance(centre))
	}
	if math.IsInf(nearest, 1) {
		nearest = 0
	}
	for _, p := range m.graph.MountedParticles(owner) {
		d := p.Body.Translation().Distance(centre)
		p.Visual.OuterChain[node.Depth] = d >= nearest-p.Visual.Radius
	}
	m.graph.Touch(owner)
	return nil
}

// OuterIDs returns the ids of particles under owner that are on the boundary
// at owner's depth, in AllParticles order.
func OuterIDs(g *entity.Graph, owner string) []string {
	node, ok := g.Node(owner)
	if !ok {
		return nil
	}
	var out []string
	for _, p := range g.AllParticles(owner) {
		if p.IsOuter(node.Depth) {
			out = append(out, p.ID)
		}
	}
	return out
}
