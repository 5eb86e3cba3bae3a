package joints

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/emergence/pkg/entity"
	"github.com/matzehuels/emergence/pkg/geom"
)

// Allocation is one planned ring joint.
type Allocation struct {
	A, B     *entity.Node
	Midpoint geom.Vec3
}

// ID returns the canonical joint id of the allocation.
func (a Allocation) ID() string { return entity.JointID(a.A.ID, a.B.ID) }

// RingMidpoints returns the midpoint of every ring edge i -> i+1 mod N.
// A ring with fewer than two vertices has no edges.
func RingMidpoints(positions []geom.Vec3) []geom.Vec3 {
	n := len(positions)
	if n < 2 {
		return nil
	}
	out := make([]geom.Vec3, n)
	for i := range positions {
		out[i] = geom.Midpoint(positions[i], positions[(i+1)%n])
	}
	return out
}

// Closest returns the mounted particle nearest to p, skipping any id in
// exclude. Unmounted particles are skipped with a diagnostic.
func Closest(logger *log.Logger, particles []*entity.Node, p geom.Vec3, exclude map[string]bool) *entity.Node {
	var best *entity.Node
	bestDist := math.Inf(1)
	for _, n := range particles {
		if exclude[n.ID] {
			continue
		}
		if !n.Mounted() {
			logger.Debug("particle not mounted", "id", n.ID)
			continue
		}
		if d := n.Body.Translation().Distance(p); d < bestDist {
			best, bestDist = n, d
		}
	}
	return best
}

// Allocate plans one joint per ring edge. siblings[i] holds the flattened
// particles of the i-th ring vertex and positions[i] its position.
//
// For edge i -> i+1 the particle of sibling i closest to the edge midpoint is
// paired with the particle of sibling i+1 closest to the midpoint, where the
// second search excludes every particle of sibling i. Edges whose endpoints
// cannot be resolved are skipped. Pairs already planned (a two-vertex ring
// has both edges on the same pair) are dropped.
func Allocate(logger *log.Logger, siblings [][]*entity.Node, positions []geom.Vec3) []Allocation {
	if logger == nil {
		logger = log.Default()
	}
	mids := RingMidpoints(positions)
	n := len(mids)
	if n > len(siblings) {
		n = len(siblings)
	}
	seen := make(map[string]bool)
	var out []Allocation
	for i := 0; i < n; i++ {
		j := (i + 1) % len(siblings)
		a := Closest(logger, siblings[i], mids[i], nil)
		if a == nil {
			logger.Warn("ring edge skipped: no particle", "edge", i)
			continue
		}
		exclude := make(map[string]bool, len(siblings[i]))
		for _, p := range siblings[i] {
			exclude[p.ID] = true
		}
		b := Closest(logger, siblings[j], mids[i], exclude)
		if b == nil {
			logger.Warn("ring edge skipped: no partner particle", "edge", i)
			continue
		}
		alloc := Allocation{A: a, B: b, Midpoint: mids[i]}
		if seen[alloc.ID()] {
			continue
		}
		seen[alloc.ID()] = true
		out = append(out, alloc)
	}
	return out
}
