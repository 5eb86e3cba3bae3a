package growth

import (
	"math"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/emergence/pkg/entity"
	emerr "github.com/matzehuels/emergence/pkg/errors"
	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/joints"
)

// State is the engine's position in its lifecycle.
type State int

const (
	StateWaiting State = iota
	StateInstantiating
	StateSettling
	StateSteady
)

func (s State) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateInstantiating:
		return "instantiating"
	case StateSettling:
		return "settling"
	case StateSteady:
		return "steady"
	}
	return "unknown"
}

// Mode selects how a cluster forms.
type Mode int

const (
	// ModeGrow adds children one at a time.
	ModeGrow Mode = iota
	// ModeRing places every child on a regular polygon at once and binds
	// them with a single joint allocation.
	ModeRing
)

// Spawner brings children into the world on behalf of an engine.
type Spawner interface {
	// Spawn instantiates the index-th child of owner at pos.
	Spawn(owner string, index int, pos geom.Vec3) error
	// Ready reports whether child id is mounted and fully formed.
	Ready(id string) bool
}

// EventKind tags what a Step did.
type EventKind int

const (
	EventNone EventKind = iota
	EventSpawned
	EventAttached
	EventSteady
)

// Event describes the outcome of one Step.
type Event struct {
	Kind          EventKind
	Owner         string
	Child         string
	Index         int
	JointsCreated int
	JointsRemoved int
	Widened       bool
}

// Options configures an Engine.
type Options struct {
	// Radius is the radius of one child entity; it sets the spacing of the
	// first four shapes.
	Radius float64
	Origin geom.Vec3
	Mode   Mode
	Logger *log.Logger
}

// Engine is the per-cluster growth state machine.
type Engine struct {
	owner   string
	graph   *entity.Graph
	joints  *joints.Manager
	spawner Spawner
	logger  *log.Logger

	radius float64
	origin geom.Vec3
	mode   Mode

	state        State
	busy         bool
	next         int
	pending      string
	instantiated []string

	active []string // ActiveJointsQueue: current polygon edges, FIFO
	ring   []string // children in ring order

	core InnerCore
}

// New returns an engine for compound node owner.
func New(owner string, m *joints.Manager, sp Spawner, opts Options) (*Engine, error) {
	n, err := m.Graph().MustNode(owner)
	if err != nil {
		return nil, err
	}
	if n.IsParticle() {
		return nil, emerr.New(emerr.ErrCodeInvalidInput, "%s is a particle and cannot grow", owner)
	}
	if opts.Radius <= 0 {
		return nil, emerr.New(emerr.ErrCodeInvalidInput, "growth radius must be positive, got %v", opts.Radius)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		owner:   owner,
		graph:   m.Graph(),
		joints:  m,
		spawner: sp,
		logger:  logger.With("entity", owner),
		radius:  opts.Radius,
		origin:  opts.Origin,
		mode:    opts.Mode,
	}, nil
}

func (e *Engine) Owner() string   { return e.owner }
func (e *Engine) State() State    { return e.state }
func (e *Engine) Busy() bool      { return e.busy }
func (e *Engine) Steady() bool    { return e.state == StateSteady }
func (e *Engine) Core() InnerCore { return e.core }

// Instantiated returns the number of children attached so far.
func (e *Engine) Instantiated() int { return len(e.instantiated) }

// Active returns a copy of the active joints queue, front first.
func (e *Engine) Active() []string { return append([]string(nil), e.active...) }

// Ring returns a copy of the children in ring order.
func (e *Engine) Ring() []string { return append([]string(nil), e.ring...) }

// Step advances the engine by one unit of work.
func (e *Engine) Step() (Event, error) {
	defer e.tickCore()

	node, err := e.graph.MustNode(e.owner)
	if err != nil {
		return Event{}, err
	}
	switch e.state {
	case StateWaiting:
		if len(node.ChildrenIDs) == 0 {
			e.state = StateSteady
			return Event{Kind: EventSteady, Owner: e.owner}, nil
		}
		e.state = StateInstantiating
		e.logger.Debug("growth started", "children", len(node.ChildrenIDs), "mode", e.mode)
		if e.mode == ModeRing {
			return e.spawnRing(node)
		}
		return e.instantiate(node)
	case StateInstantiating:
		if e.mode == ModeRing {
			return e.formRing(node)
		}
		return e.instantiate(node)
	case StateSettling:
		return e.settle(node)
	}
	return Event{}, nil
}

// =============================================================================
// Incremental growth
// =============================================================================

func (e *Engine) instantiate(node *entity.Node) (Event, error) {
	children := node.ChildrenIDs
	if !e.busy {
		i := e.next
		ev := Event{Kind: EventSpawned, Owner: e.owner, Child: children[i], Index: i}
		if i >= 3 && ShouldWiden(i) {
			if err := e.widen(); err != nil {
				return Event{}, err
			}
			ev.Widened = true
		}
		pos, err := e.placement(i)
		if err != nil {
			return Event{}, err
		}
		if err := e.spawner.Spawn(e.owner, i, pos); err != nil {
			return Event{}, err
		}
		e.busy = true
		e.pending = children[i]
		return ev, nil
	}

	if !e.spawner.Ready(e.pending) {
		return Event{}, nil
	}
	ev, err := e.attach(e.next, children)
	if err != nil {
		return Event{}, err
	}
	e.busy = false
	e.instantiated = append(e.instantiated, e.pending)
	e.pending = ""
	e.next++
	if len(e.instantiated) > 2 {
		e.correctAngles()
		e.activateCore()
	}
	if e.next == len(children) {
		e.state = StateSettling
	}
	return ev, nil
}

// placement returns where child i is spawned.
func (e *Engine) placement(i int) (geom.Vec3, error) {
	r, o := e.radius, e.origin
	switch i {
	case 0:
		return o, nil
	case 1:
		return o.Add(geom.V(2*r, 0, 0)), nil
	case 2:
		return o.Add(geom.V(r, -2*r, 0)), nil
	case 3:
		return o.Add(geom.V(r, 2*r, 0)), nil
	}
	j, err := e.front()
	if err != nil {
		return geom.Vec3{}, err
	}
	return geom.Midpoint(j.Handle.Body1().Translation(), j.Handle.Body2().Translation()), nil
}

// front returns the joint at the head of the active queue.
func (e *Engine) front() (*entity.Joint, error) {
	if len(e.active) == 0 {
		return nil, emerr.New(emerr.ErrCodeQueueUnderflow, "%s: active joint queue is empty", e.owner)
	}
	return e.graph.Joint(e.active[0])
}

func (e *Engine) attach(i int, children []string) (Event, error) {
	ev := Event{Kind: EventAttached, Owner: e.owner, Child: children[i], Index: i}
	switch i {
	case 0:
		e.ring = []string{children[0]}
	case 1:
		j, err := e.connect(children[0], children[1])
		if err != nil {
			return Event{}, err
		}
		e.active = append(e.active, j.ID)
		e.ring = append(e.ring, children[1])
		ev.JointsCreated = 1
	case 2:
		for _, pair := range [][2]string{{children[1], children[2]}, {children[2], children[0]}} {
			j, err := e.connect(pair[0], pair[1])
			if err != nil {
				return Event{}, err
			}
			e.active = append(e.active, j.ID)
		}
		e.ring = append(e.ring, children[2])
		ev.JointsCreated = 2
	default:
		if err := e.replaceFront(children[i], i == 3); err != nil {
			return Event{}, err
		}
		ev.JointsCreated, ev.JointsRemoved = 2, 1
	}
	return ev, nil
}

// connect joins two children through their representative particles.
func (e *Engine) connect(a, b string) (*entity.Joint, error) {
	ca, okA := e.joints.Centre(a)
	cb, okB := e.joints.Centre(b)
	if !okA || !okB {
		return nil, emerr.New(emerr.ErrCodeInvalidInput, "%s: cannot join %s and %s before both are mounted", e.owner, a, b)
	}
	pa := e.endpoint(a, cb)
	pb := e.endpoint(b, ca)
	if pa == nil || pb == nil {
		return nil, emerr.New(emerr.ErrCodeInvalidInput, "%s: no particle to join %s and %s", e.owner, a, b)
	}
	return e.joints.Connect(e.owner, pa, pb)
}

// endpoint picks the particle of child that carries a joint towards p.
// Particles of a compound child already bound into this cluster, and any id
// in taken, are passed over while another one is available, so the child's
// two ring joints meet it at different particles and the cluster boundary
// can run through it.
func (e *Engine) endpoint(child string, p geom.Vec3, taken ...string) *entity.Node {
	exclude := make(map[string]bool, len(taken))
	for _, id := range taken {
		exclude[id] = true
	}
	for _, q := range e.graph.AllParticles(child) {
		for _, j := range e.graph.JointsOf(q.ID) {
			if j.Owner == e.owner {
				exclude[q.ID] = true
			}
		}
	}
	if n := e.joints.Representative(child, p, exclude); n != nil {
		return n
	}
	return e.joints.Representative(child, p, nil)
}

// replaceFront splits the front joint A-B into A-child and child-B.
// With recompute the new anchors come from the bodies' current positions;
// otherwise both joints reuse the old anchors at half length.
func (e *Engine) replaceFront(child string, recompute bool) error {
	old, err := e.front()
	if err != nil {
		return err
	}
	a, _ := e.graph.Node(old.BodyA)
	b, _ := e.graph.Node(old.BodyB)
	if a == nil || b == nil || !a.Mounted() || !b.Mounted() {
		return emerr.New(emerr.ErrCodeStaleJoint, "%s: joint %s has an unmounted endpoint", e.owner, old.ID)
	}
	na := e.endpoint(child, a.Body.Translation())
	if na == nil {
		return emerr.New(emerr.ErrCodeInvalidInput, "%s: child %s has no mounted particle", e.owner, child)
	}
	nb := e.endpoint(child, b.Body.Translation(), na.ID)
	if nb == nil {
		return emerr.New(emerr.ErrCodeInvalidInput, "%s: child %s has no mounted particle", e.owner, child)
	}

	var a1, a2, b1, b2 geom.Vec3
	if recompute {
		a1, a2 = joints.Offsets(a, na)
		b1, b2 = joints.Offsets(nb, b)
	} else {
		h1 := old.Handle.Anchor1().Scale(0.5)
		h2 := old.Handle.Anchor2().Scale(0.5)
		a1, a2, b1, b2 = h1, h2, h1, h2
	}

	j1, err := e.joints.Create(e.owner, a, na, a1, a2)
	if err != nil {
		return err
	}
	j2, err := e.joints.Create(e.owner, nb, b, b1, b2)
	if err != nil {
		return err
	}
	if err := e.joints.Delete(old.ID); err != nil {
		return err
	}
	e.active = append(e.active[1:], j1.ID, j2.ID)
	e.insertIntoRing(child, e.childOf(a.ID), e.childOf(b.ID))
	return nil
}

// childOf maps a particle id to the child of owner that contains it.
func (e *Engine) childOf(particle string) string {
	id := particle
	for {
		n, ok := e.graph.Node(id)
		if !ok || n.ParentID == "" {
			return ""
		}
		if n.ParentID == e.owner {
			return id
		}
		id = n.ParentID
	}
}

// insertIntoRing places child between the ring neighbours a and b.
func (e *Engine) insertIntoRing(child, a, b string) {
	n := len(e.ring)
	for i, id := range e.ring {
		next := e.ring[(i+1)%n]
		if (id == a && next == b) || (id == b && next == a) {
			e.ring = append(e.ring[:i+1], append([]string{child}, e.ring[i+1:]...)...)
			return
		}
	}
	e.logger.Warn("ring neighbours not adjacent", "child", child, "a", a, "b", b)
	e.ring = append(e.ring, child)
}

// widen doubles the anchors of every active joint.
func (e *Engine) widen() error {
	for _, id := range e.active {
		j, err := e.graph.Joint(id)
		if err != nil {
			return err
		}
		j.Handle.SetAnchor1(j.Handle.Anchor1().Scale(2))
		j.Handle.SetAnchor2(j.Handle.Anchor2().Scale(2))
	}
	e.logger.Debug("anchors widened", "joints", len(e.active))
	return nil
}

// correctAngles rotates every active joint's anchors to the interior
// half-angle of a regular polygon with one vertex per attached child.
// Anchor lengths are kept.
func (e *Engine) correctAngles() {
	h := geom.DegToRad(InteriorHalfAngle(len(e.instantiated)))
	for _, id := range e.active {
		j, err := e.graph.Joint(id)
		if err != nil {
			e.logger.Warn("angle correction skipped", "joint", id, "err", err)
			continue
		}
		r1 := j.Handle.Anchor1().Len()
		r2 := j.Handle.Anchor2().Len()
		j.Handle.SetAnchor1(geom.V(r1*math.Cos(h), r1*math.Sin(h), 0))
		j.Handle.SetAnchor2(geom.V(r2*math.Cos(-h), r2*math.Sin(-h), 0))
	}
}

// =============================================================================
// Ring formation
// =============================================================================

func (e *Engine) spawnRing(node *entity.Node) (Event, error) {
	n := len(node.ChildrenIDs)
	positions := RingPositions(e.origin, n, e.radius)
	for i, pos := range positions {
		if err := e.spawner.Spawn(e.owner, i, pos); err != nil {
			return Event{}, err
		}
	}
	e.busy = true
	return Event{Kind: EventSpawned, Owner: e.owner, Index: n - 1}, nil
}

func (e *Engine) formRing(node *entity.Node) (Event, error) {
	for _, c := range node.ChildrenIDs {
		if !e.spawner.Ready(c) {
			return Event{}, nil
		}
	}
	created, err := e.joints.InitializeJoints(e.owner, node.ChildrenIDs, nil)
	if err != nil {
		return Event{}, err
	}
	e.busy = false
	e.instantiated = append([]string(nil), node.ChildrenIDs...)
	e.ring = append([]string(nil), node.ChildrenIDs...)
	e.active = append([]string(nil), node.Joints...)
	e.next = len(node.ChildrenIDs)
	if len(e.instantiated) > 2 {
		e.activateCore()
	}
	e.state = StateSteady
	e.logger.Debug("ring formed", "joints", created)
	return Event{Kind: EventSteady, Owner: e.owner, JointsCreated: created}, nil
}

// =============================================================================
// Settling
// =============================================================================

func (e *Engine) settle(node *entity.Node) (Event, error) {
	for _, p := range e.graph.AllParticles(e.owner) {
		if !p.Mounted() {
			return Event{}, nil
		}
	}
	created, err := e.joints.InitializeJoints(e.owner, e.ring, nil)
	if err != nil {
		return Event{}, err
	}
	e.state = StateSteady
	e.logger.Debug("cluster steady", "children", len(node.ChildrenIDs), "joints", len(e.active)+created)
	return Event{Kind: EventSteady, Owner: e.owner, JointsCreated: created}, nil
}

// =============================================================================
// Helpers
// =============================================================================

// ShouldWiden reports whether inserting child i widens the active anchors:
// i is divisible by 3 and i/3 is a power of two.
func ShouldWiden(i int) bool {
	if i <= 0 || i%3 != 0 {
		return false
	}
	q := i / 3
	return q&(q-1) == 0
}

// InteriorHalfAngle returns half the interior angle, in degrees, of a
// regular polygon with n vertices.
func InteriorHalfAngle(n int) float64 {
	return float64(n-2) * 180 / float64(n) / 2
}

// RingPositions places n entities of radius r on a regular polygon around
// origin so that neighbours touch, clockwise from +x.
func RingPositions(origin geom.Vec3, n int, r float64) []geom.Vec3 {
	if n == 1 {
		return []geom.Vec3{origin}
	}
	d := r / math.Sin(math.Pi/float64(n))
	out := make([]geom.Vec3, n)
	for i := range out {
		a := -2 * math.Pi * float64(i) / float64(n)
		out[i] = origin.Add(geom.V(d*math.Cos(a), d*math.Sin(a), 0))
	}
	return out
}
