package blob

import (
	"github.com/charmbracelet/log"

	"github.com/matzehuels/emergence/pkg/boundary"
	"github.com/matzehuels/emergence/pkg/entity"
	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/joints"
)

// DefaultSamplesPerPoint is the curve resolution per ring particle.
const DefaultSamplesPerPoint = 8

// HullOption configures a Hull.
type HullOption func(*Hull)

// WithSamplesPerPoint sets the curve resolution per ring particle.
func WithSamplesPerPoint(n int) HullOption {
	return func(h *Hull) {
		if n > 0 {
			h.samples = n
		}
	}
}

// WithSearchBudget caps the boundary search. See boundary.WithBudget.
func WithSearchBudget(n int) HullOption {
	return func(h *Hull) { h.budget = n }
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *log.Logger) HullOption {
	return func(h *Hull) {
		if l != nil {
			h.logger = l
		}
	}
}

// Hull is the cached boundary ring of one compound node.
type Hull struct {
	nodeID  string
	ring    []string // closed: first == last
	radii   []float64
	version uint64
	built   bool

	samples int
	budget  int
	logger  *log.Logger

	rebuilds int
}

// NewHull returns an empty hull for nodeID.
func NewHull(nodeID string, opts ...HullOption) *Hull {
	h := &Hull{nodeID: nodeID, samples: DefaultSamplesPerPoint, logger: log.Default()}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// NodeID returns the compound node the hull outlines.
func (h *Hull) NodeID() string { return h.nodeID }

// Ring returns the closed ordered ring, or nil when there is no hull.
func (h *Hull) Ring() []string { return append([]string(nil), h.ring...) }

// Radii returns the original radius of each ring particle, aligned with Ring.
func (h *Hull) Radii() []float64 { return append([]float64(nil), h.radii...) }

// Empty reports whether the hull currently has no ring.
func (h *Hull) Empty() bool { return len(h.ring) == 0 }

// Rebuilds returns how many times the ring has been recomputed.
func (h *Hull) Rebuilds() int { return h.rebuilds }

// Update recomputes the ring when the node's version has changed and
// reports whether it did.
func (h *Hull) Update(g *entity.Graph) bool {
	v := g.Version(h.nodeID)
	if h.built && v == h.version {
		return false
	}
	h.version, h.built = v, true
	h.rebuilds++

	var opts []boundary.Option
	if h.budget > 0 {
		opts = append(opts, boundary.WithBudget(h.budget))
	}
	h.ring = boundary.BuildOrderedIDs(g.ChainScope(h.nodeID), joints.OuterIDs(g, h.nodeID), opts...)
	h.radii = h.radii[:0]
	for _, id := range h.ring {
		r := 0.0
		if n, ok := g.Node(id); ok {
			r = n.Visual.OrigRadius
		}
		h.radii = append(h.radii, r)
	}
	if h.ring == nil {
		h.logger.Debug("no hull", "node", h.nodeID)
	}
	return true
}

// Outline samples the closed outline through the ring's live positions.
// Ring particles without a body are skipped; fewer than three usable points
// yield nil.
func (h *Hull) Outline(g *entity.Graph) []geom.Vec3 {
	if len(h.ring) < 4 {
		return nil
	}
	open := h.ring[:len(h.ring)-1]
	pts := make([]geom.Vec3, 0, len(open))
	radii := make([]float64, 0, len(open))
	for i, id := range open {
		n, ok := g.Node(id)
		if !ok || !n.Mounted() {
			h.logger.Warn("ring particle not mounted", "node", h.nodeID, "id", id)
			continue
		}
		pts = append(pts, n.Body.Translation())
		radii = append(radii, h.radii[i])
	}
	if len(pts) < 3 {
		return nil
	}
	centre := geom.Centroid(pts)
	for i := range pts {
		pts[i] = geom.ExpandFrom(centre, pts[i], radii[i])
	}
	return geom.ClosedCatmullRom(pts, len(pts)*h.samples)
}
