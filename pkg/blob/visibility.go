package blob

import (
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/emergence/pkg/entity"
	"github.com/matzehuels/emergence/pkg/geom"
)

// LongPress is the press duration from which a release is not a click.
const LongPress = 500 * time.Millisecond

// Button identifies a pointer button.
type Button int

const (
	ButtonPrimary   Button = 0
	ButtonSecondary Button = 2
)

// PointerEvent is a pointer press or release at a world-space point.
type PointerEvent struct {
	Button Button
	Shift  bool
	Time   time.Time
	Point  geom.Vec3
	// Intersections is the number of outlines under Point. Dispatch fills it.
	Intersections int
}

// Blob is one drawable outline.
type Blob struct {
	ID      string
	Depth   int
	Outline []geom.Vec3
}

// HitTest returns the blobs whose outline contains p, deepest first.
func HitTest(blobs []Blob, p geom.Vec3) []Blob {
	var hits []Blob
	for _, b := range blobs {
		if len(b.Outline) >= 3 && geom.ContainsXY(b.Outline, p) {
			hits = append(hits, b)
		}
	}
	slices.SortStableFunc(hits, func(a, b Blob) int { return b.Depth - a.Depth })
	return hits
}

// deferred is a visibility cascade applied on the next Commit.
type deferred struct {
	node    string
	visible bool
}

// Interaction owns the click state machine for one simulation.
type Interaction struct {
	graph   *entity.Graph
	logger  *log.Logger
	pressed map[string]time.Time
	pending []deferred
}

// NewInteraction returns a controller for g.
func NewInteraction(g *entity.Graph, logger *log.Logger) *Interaction {
	if logger == nil {
		logger = log.Default()
	}
	return &Interaction{graph: g, logger: logger, pressed: make(map[string]time.Time)}
}

// PointerDown records a primary press on node id.
func (v *Interaction) PointerDown(id string, ev PointerEvent) {
	if ev.Button != ButtonPrimary {
		return
	}
	v.pressed[id] = ev.Time
}

// PointerUp completes a press on node id. Only a short primary release
// without shift counts as a click. It reports whether visibility changed.
func (v *Interaction) PointerUp(id string, ev PointerEvent) bool {
	down, ok := v.pressed[id]
	delete(v.pressed, id)
	if ev.Button != ButtonPrimary || ev.Shift || !ok {
		return false
	}
	if ev.Time.Sub(down) >= LongPress {
		v.logger.Debug("long press ignored", "node", id)
		return false
	}
	return v.Click(id, ev.Intersections)
}

// Click applies the click rules to node id. It reports whether visibility
// changed.
func (v *Interaction) Click(id string, intersections int) bool {
	n, ok := v.graph.Node(id)
	if !ok || n.IsParticle() {
		return false
	}
	for _, a := range v.graph.Ancestors(id) {
		if a.Visual.Visible {
			return false
		}
	}
	if n.Visual.Visible {
		n.Visual.Visible = false
		for _, c := range v.graph.Children(id) {
			c.Visual.Visible = true
		}
		v.logger.Debug("drill in", "node", id)
		return true
	}
	if intersections != n.Depth+1 {
		return false
	}
	n.Visual.Visible = true
	v.pending = append(v.pending, deferred{node: id, visible: false})
	v.logger.Debug("drill out", "node", id)
	return true
}

// ContextMenu resets visibility to the root. Its descendants are hidden on
// the next Commit.
func (v *Interaction) ContextMenu() {
	root, ok := v.graph.Node(entity.RootID)
	if !ok {
		return
	}
	root.Visual.Visible = true
	v.pending = append(v.pending, deferred{node: entity.RootID, visible: false})
}

// Press records a press on every blob under the event point.
func (v *Interaction) Press(blobs []Blob, ev PointerEvent) {
	for _, b := range HitTest(blobs, ev.Point) {
		v.PointerDown(b.ID, ev)
	}
}

// Dispatch delivers a release to the blobs under the event point, deepest
// first, stopping at the first one whose visibility changed. It returns that
// blob's id.
func (v *Interaction) Dispatch(blobs []Blob, ev PointerEvent) (string, bool) {
	hits := HitTest(blobs, ev.Point)
	ev.Intersections = len(hits)
	handled := ""
	for _, b := range hits {
		if handled == "" && v.PointerUp(b.ID, ev) {
			handled = b.ID
			continue
		}
		delete(v.pressed, b.ID)
	}
	return handled, handled != ""
}

// Commit applies the transitions deferred by the previous tick.
func (v *Interaction) Commit() int {
	pending := v.pending
	v.pending = nil
	for _, d := range pending {
		v.Propagate(d.node, d.visible)
	}
	return len(pending)
}

// Pending returns the number of deferred transitions.
func (v *Interaction) Pending() int { return len(v.pending) }

// Cancel drops deferred work for id and its descendants. Call it before the
// node is removed from the graph.
func (v *Interaction) Cancel(id string) {
	v.pending = slices.DeleteFunc(v.pending, func(d deferred) bool {
		if d.node == id {
			return true
		}
		for _, a := range v.graph.Ancestors(d.node) {
			if a.ID == id {
				return true
			}
		}
		return false
	})
	delete(v.pressed, id)
}

// Propagate sets the visibility of every descendant of id.
func (v *Interaction) Propagate(id string, visible bool) {
	v.graph.Walk(id, func(n *entity.Node) bool {
		if n.ID != id {
			n.Visual.Visible = visible
		}
		return true
	})
}
