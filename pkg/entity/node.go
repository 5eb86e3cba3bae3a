package entity

import (
	"strconv"
	"strings"

	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/physics"
)

// RootID is the id of the top-level compound entity.
const RootID = "root"

// Kind distinguishes compound entities from leaf particles.
type Kind int

const (
	// KindCompound is a joint-bound group of child entities.
	KindCompound Kind = iota
	// KindParticle is an indivisible leaf body.
	KindParticle
)

func (k Kind) String() string {
	if k == KindParticle {
		return "particle"
	}
	return "compound"
}

// VisualConfig is the per-node render state.
type VisualConfig struct {
	UniqueID   int
	Radius     float64
	OrigRadius float64      // set once at creation
	OuterChain map[int]bool // depth -> on the boundary ring at that depth
	Color      string
	Visible    bool
	Scale      float64
}

// Node is one entity in the tree.
type Node struct {
	ID          string
	ParentID    string
	ChildrenIDs []string
	Depth       int
	Kind        Kind

	// Chain maps a particle id to its adjacent particle ids, in link order.
	// Only compound nodes populate it.
	Chain map[string][]string
	// Joints lists the ids of joints owned by this node.
	Joints []string

	Visual VisualConfig
	// Body is nil until the particle has been mounted in the physics world.
	Body physics.Body
	// Origin is the world position the entity was instantiated at.
	Origin geom.Vec3
}

// IsParticle reports whether n is a leaf particle.
func (n *Node) IsParticle() bool { return n.Kind == KindParticle }

// Mounted reports whether n has a live physics body.
func (n *Node) Mounted() bool { return n.Body != nil }

// IsOuter reports whether n is on the boundary ring at depth and at every
// deeper depth it has been flagged for.
func (n *Node) IsOuter(depth int) bool {
	if !n.Visual.OuterChain[depth] {
		return false
	}
	for d, outer := range n.Visual.OuterChain {
		if d > depth && !outer {
			return false
		}
	}
	return true
}

// ChildID returns the id of the i-th child of parent.
func ChildID(parent string, i int) string {
	return parent + "." + strconv.Itoa(i)
}

// IndexPath returns the child indices encoded in id, e.g. "root.2.1" -> [2 1].
func IndexPath(id string) []int {
	parts := strings.Split(id, ".")
	out := make([]int, 0, len(parts)-1)
	for _, p := range parts[1:] {
		i, err := strconv.Atoi(p)
		if err != nil {
			return nil
		}
		out = append(out, i)
	}
	return out
}

// JointID returns the canonical id for a joint between particles a and b.
// The id is independent of argument order.
func JointID(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "-" + b
}

// Joint is a registered physics joint between two particles.
type Joint struct {
	ID     string
	Handle physics.Joint
	BodyA  string // particle id attached to Handle.Body1
	BodyB  string // particle id attached to Handle.Body2
	Owner  string // compound node that created the joint
}

// Other returns the particle at the opposite end of the joint from id.
func (j *Joint) Other(id string) string {
	if j.BodyA == id {
		return j.BodyB
	}
	return j.BodyA
}
