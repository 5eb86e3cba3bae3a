package entity

import (
	"errors"
	"hash/fnv"
	"slices"

	"github.com/charmbracelet/log"

	emerr "github.com/matzehuels/emergence/pkg/errors"
	"github.com/matzehuels/emergence/pkg/physics"
)

var (
	// ErrInvalidNodeID is returned by [Graph.AddNode] when the id is empty.
	ErrInvalidNodeID = errors.New("node ID must not be empty")

	// ErrDuplicateNodeID is returned by [Graph.AddNode] when the id is taken.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownParent is returned by [Graph.AddNode] when ParentID does not
	// name a compound node already in the graph.
	ErrUnknownParent = errors.New("unknown parent node")

	// ErrNotParticle is returned when a joint or mount targets a compound node.
	ErrNotParticle = errors.New("node is not a particle")

	// ErrSelfRelation is returned by [Graph.AddRelation] for from == to.
	ErrSelfRelation = errors.New("relation endpoints must differ")
)

// Graph is the entity arena.
type Graph struct {
	nodes    map[string]*Node
	versions map[string]uint64

	joints     map[string]*Joint
	jointOrder []string

	relations map[string][]string

	logger *log.Logger
}

// NewGraph creates an empty graph. A nil logger falls back to log.Default().
func NewGraph(logger *log.Logger) *Graph {
	if logger == nil {
		logger = log.Default()
	}
	return &Graph{
		nodes:     make(map[string]*Node),
		versions:  make(map[string]uint64),
		joints:    make(map[string]*Joint),
		relations: make(map[string][]string),
		logger:    logger,
	}
}

// =============================================================================
// Nodes
// =============================================================================

// AddNode inserts n and appends it to its parent's children.
// Compound nodes get an empty chain; visuals default to scale 1.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return ErrInvalidNodeID
	}
	if _, ok := g.nodes[n.ID]; ok {
		return ErrDuplicateNodeID
	}
	var parent *Node
	if n.ParentID != "" {
		p, ok := g.nodes[n.ParentID]
		if !ok || p.IsParticle() {
			return ErrUnknownParent
		}
		parent = p
		n.Depth = p.Depth + 1
	}
	if n.Kind == KindCompound && n.Chain == nil {
		n.Chain = make(map[string][]string)
	}
	if n.Visual.OuterChain == nil {
		n.Visual.OuterChain = make(map[int]bool)
	}
	if n.Visual.Scale == 0 {
		n.Visual.Scale = 1
	}
	if n.Visual.OrigRadius == 0 {
		n.Visual.OrigRadius = n.Visual.Radius
	}
	n.ChildrenIDs = nil
	node := n
	g.nodes[n.ID] = &node
	if parent != nil {
		parent.ChildrenIDs = append(parent.ChildrenIDs, n.ID)
	}
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// MustNode returns the node or a NODE_NOT_FOUND error.
func (g *Graph) MustNode(id string) (*Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return nil, emerr.New(emerr.ErrCodeNodeNotFound, "node %q", id)
	}
	return n, nil
}

// UpdateNode applies fn to the node. The id, parent and children cannot be
// changed through fn; they are restored afterwards.
func (g *Graph) UpdateNode(id string, fn func(*Node)) error {
	n, err := g.MustNode(id)
	if err != nil {
		return err
	}
	nid, parent, children := n.ID, n.ParentID, n.ChildrenIDs
	fn(n)
	n.ID, n.ParentID, n.ChildrenIDs = nid, parent, children
	return nil
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// Children returns the child nodes of id in order.
func (g *Graph) Children(id string) []*Node {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	out := make([]*Node, 0, len(n.ChildrenIDs))
	for _, cid := range n.ChildrenIDs {
		if c, ok := g.nodes[cid]; ok {
			out = append(out, c)
		}
	}
	return out
}

// Ancestors returns the parent chain of id, nearest first.
func (g *Graph) Ancestors(id string) []*Node {
	var out []*Node
	n, ok := g.nodes[id]
	for ok && n.ParentID != "" {
		n, ok = g.nodes[n.ParentID]
		if ok {
			out = append(out, n)
		}
	}
	return out
}

// Walk visits id and its descendants depth-first in child order.
// Returning false from fn skips the node's subtree.
func (g *Graph) Walk(id string, fn func(*Node) bool) {
	n, ok := g.nodes[id]
	if !ok {
		return
	}
	if !fn(n) {
		return
	}
	for _, cid := range n.ChildrenIDs {
		g.Walk(cid, fn)
	}
}

// AllParticles returns the leaf particles under id in depth-first child
// order. Unmounted particles are included; callers must check Mounted.
func (g *Graph) AllParticles(id string) []*Node {
	var out []*Node
	g.Walk(id, func(n *Node) bool {
		if n.IsParticle() {
			out = append(out, n)
		}
		return true
	})
	return out
}

// MountedParticles is AllParticles without unmounted leaves. Each skipped
// particle is logged at debug level.
func (g *Graph) MountedParticles(id string) []*Node {
	all := g.AllParticles(id)
	out := all[:0:0]
	for _, p := range all {
		if !p.Mounted() {
			g.logger.Debug("skipping unmounted particle", "id", p.ID, "scope", id)
			continue
		}
		out = append(out, p)
	}
	return out
}

// ParticlesHash digests the ordered ids of the mounted particles under id.
func (g *Graph) ParticlesHash(id string) uint64 {
	h := fnv.New64a()
	for _, p := range g.AllParticles(id) {
		if !p.Mounted() {
			continue
		}
		h.Write([]byte(p.ID))
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// Version returns the membership version of id.
func (g *Graph) Version(id string) uint64 { return g.versions[id] }

// Touch bumps the version of id and its ancestors. Callers use it after
// changing boundary state, such as outer flags, that versions track.
func (g *Graph) Touch(id string) {
	if _, ok := g.nodes[id]; ok {
		g.bump(id)
	}
}

func (g *Graph) bump(id string) {
	g.versions[id]++
	for _, a := range g.Ancestors(id) {
		g.versions[a.ID]++
	}
}

// Mount attaches body to particle id and bumps versions up the tree.
func (g *Graph) Mount(id string, body physics.Body) error {
	n, err := g.MustNode(id)
	if err != nil {
		return err
	}
	if !n.IsParticle() {
		return ErrNotParticle
	}
	n.Body = body
	g.bump(id)
	return nil
}

// Unmount detaches the body of particle id.
func (g *Graph) Unmount(id string) error {
	n, err := g.MustNode(id)
	if err != nil {
		return err
	}
	if n.Body == nil {
		return nil
	}
	n.Body = nil
	g.bump(id)
	return nil
}

// RemoveNode deletes id and its subtree. Joints that reference a removed
// node are dropped from the registry and returned so the caller can release
// their physics handles.
func (g *Graph) RemoveNode(id string) ([]*Joint, error) {
	n, err := g.MustNode(id)
	if err != nil {
		return nil, err
	}
	removed := make(map[string]bool)
	g.Walk(id, func(c *Node) bool {
		removed[c.ID] = true
		return true
	})

	var dropped []*Joint
	for _, jid := range slices.Clone(g.jointOrder) {
		j := g.joints[jid]
		if removed[j.Owner] || removed[j.BodyA] || removed[j.BodyB] {
			dropped = append(dropped, j)
			g.dropJoint(j)
		}
	}

	if p, ok := g.nodes[n.ParentID]; ok {
		p.ChildrenIDs = slices.DeleteFunc(p.ChildrenIDs, func(c string) bool { return c == id })
		g.bump(p.ID)
	}
	for rid := range removed {
		delete(g.nodes, rid)
		delete(g.versions, rid)
		delete(g.relations, rid)
	}
	for from, tos := range g.relations {
		g.relations[from] = slices.DeleteFunc(tos, func(to string) bool { return removed[to] })
	}
	return dropped, nil
}

// =============================================================================
// Joints
// =============================================================================

// AddJoint registers j and links its endpoints in the owner's chain.
func (g *Graph) AddJoint(j Joint) error {
	if err := g.checkJoint(j, nil); err != nil {
		return err
	}
	g.insertJoint(j)
	return nil
}

// AddJoints registers a batch atomically: either every joint is added or,
// on the first validation error, none is.
func (g *Graph) AddJoints(batch []Joint) error {
	seen := make(map[string]bool, len(batch))
	for _, j := range batch {
		if err := g.checkJoint(j, seen); err != nil {
			return err
		}
		seen[j.ID] = true
	}
	for _, j := range batch {
		g.insertJoint(j)
	}
	return nil
}

func (g *Graph) checkJoint(j Joint, batch map[string]bool) error {
	if j.ID != JointID(j.BodyA, j.BodyB) {
		return emerr.New(emerr.ErrCodeInvalidInput, "joint id %q is not canonical for %s/%s", j.ID, j.BodyA, j.BodyB)
	}
	if j.BodyA == j.BodyB {
		return emerr.New(emerr.ErrCodeInvalidInput, "joint %q binds a particle to itself", j.ID)
	}
	if _, ok := g.joints[j.ID]; ok || batch[j.ID] {
		return emerr.New(emerr.ErrCodeDuplicateJoint, "joint %q already registered", j.ID)
	}
	owner, ok := g.nodes[j.Owner]
	if !ok || owner.IsParticle() {
		return emerr.New(emerr.ErrCodeNodeNotFound, "joint owner %q", j.Owner)
	}
	for _, pid := range []string{j.BodyA, j.BodyB} {
		p, ok := g.nodes[pid]
		if !ok {
			return emerr.New(emerr.ErrCodeNodeNotFound, "joint endpoint %q", pid)
		}
		if !p.IsParticle() {
			return ErrNotParticle
		}
	}
	return nil
}

func (g *Graph) insertJoint(j Joint) {
	joint := j
	g.joints[j.ID] = &joint
	g.jointOrder = append(g.jointOrder, j.ID)
	owner := g.nodes[j.Owner]
	owner.Joints = append(owner.Joints, j.ID)
	link(owner.Chain, j.BodyA, j.BodyB)
	g.bump(owner.ID)
}

// Joint returns the registered joint. A missing id is a stale reference and
// yields a STALE_JOINT error.
func (g *Graph) Joint(id string) (*Joint, error) {
	j, ok := g.joints[id]
	if !ok {
		return nil, emerr.New(emerr.ErrCodeStaleJoint, "joint %q is not registered", id)
	}
	return j, nil
}

// HasJoint reports whether a joint with the canonical id exists.
func (g *Graph) HasJoint(id string) bool {
	_, ok := g.joints[id]
	return ok
}

// DeleteJoint unregisters id and unlinks its endpoints from the owner chain.
func (g *Graph) DeleteJoint(id string) (*Joint, error) {
	j, err := g.Joint(id)
	if err != nil {
		return nil, err
	}
	g.dropJoint(j)
	return j, nil
}

func (g *Graph) dropJoint(j *Joint) {
	delete(g.joints, j.ID)
	g.jointOrder = slices.DeleteFunc(g.jointOrder, func(id string) bool { return id == j.ID })
	if owner, ok := g.nodes[j.Owner]; ok {
		owner.Joints = slices.DeleteFunc(owner.Joints, func(id string) bool { return id == j.ID })
		unlink(owner.Chain, j.BodyA, j.BodyB)
		g.bump(owner.ID)
	}
}

// Joints returns every registered joint in registration order.
func (g *Graph) Joints() []*Joint {
	out := make([]*Joint, 0, len(g.jointOrder))
	for _, id := range g.jointOrder {
		out = append(out, g.joints[id])
	}
	return out
}

// JointsOf returns the joints attached to particle id.
func (g *Graph) JointsOf(id string) []*Joint {
	var out []*Joint
	for _, jid := range g.jointOrder {
		if j := g.joints[jid]; j.BodyA == id || j.BodyB == id {
			out = append(out, j)
		}
	}
	return out
}

// JointCount returns the number of registered joints.
func (g *Graph) JointCount() int { return len(g.joints) }

// =============================================================================
// Chains
// =============================================================================

func link(chain map[string][]string, a, b string) {
	if !slices.Contains(chain[a], b) {
		chain[a] = append(chain[a], b)
	}
	if !slices.Contains(chain[b], a) {
		chain[b] = append(chain[b], a)
	}
}

func unlink(chain map[string][]string, a, b string) {
	chain[a] = slices.DeleteFunc(chain[a], func(s string) bool { return s == b })
	chain[b] = slices.DeleteFunc(chain[b], func(s string) bool { return s == a })
	if len(chain[a]) == 0 {
		delete(chain, a)
	}
	if len(chain[b]) == 0 {
		delete(chain, b)
	}
}

// ChainScope merges the chain of id with the chains of every compound below
// it. The result is the adjacency a boundary search at id's depth walks.
func (g *Graph) ChainScope(id string) map[string][]string {
	out := make(map[string][]string)
	g.Walk(id, func(n *Node) bool {
		if n.IsParticle() {
			return false
		}
		for a, adj := range n.Chain {
			for _, b := range adj {
				if !slices.Contains(out[a], b) {
					out[a] = append(out[a], b)
				}
			}
		}
		return true
	})
	return out
}

// =============================================================================
// Relations
// =============================================================================

// AddRelation records a directed, non-physical edge. Duplicates are ignored.
func (g *Graph) AddRelation(from, to string) error {
	if from == to {
		return ErrSelfRelation
	}
	if _, err := g.MustNode(from); err != nil {
		return err
	}
	if _, err := g.MustNode(to); err != nil {
		return err
	}
	if !slices.Contains(g.relations[from], to) {
		g.relations[from] = append(g.relations[from], to)
	}
	return nil
}

// DeleteRelation removes the edge from -> to if present.
func (g *Graph) DeleteRelation(from, to string) {
	tos := slices.DeleteFunc(g.relations[from], func(s string) bool { return s == to })
	if len(tos) == 0 {
		delete(g.relations, from)
		return
	}
	g.relations[from] = tos
}

// Relations returns the outgoing relation targets of id.
func (g *Graph) Relations(id string) []string {
	return slices.Clone(g.relations[id])
}

// RelationCount returns the total number of relation edges.
func (g *Graph) RelationCount() int {
	n := 0
	for _, tos := range g.relations {
		n += len(tos)
	}
	return n
}
