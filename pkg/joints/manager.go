package joints

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/emergence/pkg/entity"
	emerr "github.com/matzehuels/emergence/pkg/errors"
	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/physics"
)

// Manager creates and removes joints, keeping the physics world and the
// entity graph in step.
type Manager struct {
	world  physics.World
	graph  *entity.Graph
	logger *log.Logger
}

// NewManager returns a manager for world and graph.
func NewManager(world physics.World, graph *entity.Graph, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{world: world, graph: graph, logger: logger}
}

// Graph returns the graph the manager registers joints in.
func (m *Manager) Graph() *entity.Graph { return m.graph }

// Offsets returns the local-frame anchors that put a joint between a and b
// on their surfaces: along the centre-to-centre direction, scaled by each
// particle's radius.
func Offsets(a, b *entity.Node) (geom.Vec3, geom.Vec3) {
	pa, pb := a.Body.Translation(), b.Body.Translation()
	dir := pb.Sub(pa).Normalize()
	offA := dir.Scale(a.Visual.Radius)
	offB := dir.Scale(-b.Visual.Radius)
	return a.Body.Rotation().InverseRotate(offA), b.Body.Rotation().InverseRotate(offB)
}

// Create registers a new joint owned by owner. The physics handle is released
// again if registration fails.
func (m *Manager) Create(owner string, a, b *entity.Node, anchorA, anchorB geom.Vec3) (*entity.Joint, error) {
	if !a.Mounted() || !b.Mounted() {
		return nil, emerr.New(emerr.ErrCodeInvalidInput, "joint %s: endpoint not mounted", entity.JointID(a.ID, b.ID))
	}
	j := entity.Joint{
		ID:    entity.JointID(a.ID, b.ID),
		BodyA: a.ID,
		BodyB: b.ID,
		Owner: owner,
	}
	if m.graph.HasJoint(j.ID) {
		return nil, emerr.New(emerr.ErrCodeDuplicateJoint, "joint %q already registered", j.ID)
	}
	j.Handle = m.world.CreateJoint(a.Body, anchorA, b.Body, anchorB)
	if err := m.graph.AddJoint(j); err != nil {
		m.world.RemoveJoint(j.Handle)
		return nil, err
	}
	m.logger.Debug("joint created", "id", j.ID, "owner", owner)
	return m.graph.Joint(j.ID)
}

// Connect creates a surface-to-surface joint between a and b.
func (m *Manager) Connect(owner string, a, b *entity.Node) (*entity.Joint, error) {
	if !a.Mounted() || !b.Mounted() {
		return nil, emerr.New(emerr.ErrCodeInvalidInput, "joint %s: endpoint not mounted", entity.JointID(a.ID, b.ID))
	}
	anchorA, anchorB := Offsets(a, b)
	return m.Create(owner, a, b, anchorA, anchorB)
}

// Delete removes joint id from the graph and the physics world.
// An unknown id is a stale reference.
func (m *Manager) Delete(id string) error {
	j, err := m.graph.DeleteJoint(id)
	if err != nil {
		return err
	}
	m.world.RemoveJoint(j.Handle)
	m.logger.Debug("joint deleted", "id", id)
	return nil
}

// Release frees the physics handles of joints already dropped from the graph.
func (m *Manager) Release(joints []*entity.Joint) {
	for _, j := range joints {
		if j.Handle != nil {
			m.world.RemoveJoint(j.Handle)
		}
	}
}

// ScaleAnchors multiplies every anchor attached to particle id by factor.
// Used when a particle's radius changes so its joints stay on the surface.
func (m *Manager) ScaleAnchors(id string, factor float64) {
	for _, j := range m.graph.JointsOf(id) {
		if j.BodyA == id {
			j.Handle.SetAnchor1(j.Handle.Anchor1().Scale(factor))
		}
		if j.BodyB == id {
			j.Handle.SetAnchor2(j.Handle.Anchor2().Scale(factor))
		}
	}
}

// WorldPoint is the joint's attachment point on its first body, in world space.
func WorldPoint(j *entity.Joint) geom.Vec3 {
	b := j.Handle.Body1()
	return b.Translation().Add(b.Rotation().Rotate(j.Handle.Anchor1()))
}

// Centre returns the world centre of entity id: a particle's translation or
// the centroid of a compound's mounted particles. ok is false when nothing
// under id is mounted yet.
func (m *Manager) Centre(id string) (c geom.Vec3, ok bool) {
	n, found := m.graph.Node(id)
	if !found {
		return geom.Vec3{}, false
	}
	if n.IsParticle() {
		if !n.Mounted() {
			return geom.Vec3{}, false
		}
		return n.Body.Translation(), true
	}
	ps := m.graph.MountedParticles(id)
	if len(ps) == 0 {
		return geom.Vec3{}, false
	}
	pts := make([]geom.Vec3, len(ps))
	for i, p := range ps {
		pts[i] = p.Body.Translation()
	}
	return geom.Centroid(pts), true
}

// Representative picks the particle of entity id that should carry a joint
// towards point p: the entity itself for a particle, otherwise its mounted
// particle closest to p that is not in exclude.
func (m *Manager) Representative(id string, p geom.Vec3, exclude map[string]bool) *entity.Node {
	n, ok := m.graph.Node(id)
	if !ok {
		return nil
	}
	if n.IsParticle() {
		if !n.Mounted() {
			m.logger.Warn("particle not mounted", "id", id)
			return nil
		}
		return n
	}
	return Closest(m.logger, m.graph.AllParticles(id), p, exclude)
}

// ParticleSets returns the flattened particles of each id, in order.
func (m *Manager) ParticleSets(ids []string) [][]*entity.Node {
	out := make([][]*entity.Node, len(ids))
	for i, id := range ids {
		if n, ok := m.graph.Node(id); ok && n.IsParticle() {
			out[i] = []*entity.Node{n}
			continue
		}
		out[i] = m.graph.AllParticles(id)
	}
	return out
}
