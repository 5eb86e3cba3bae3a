package sim

import (
	"context"
	"math/rand"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/ojrac/opensimplex-go"

	"github.com/matzehuels/emergence/pkg/blob"
	"github.com/matzehuels/emergence/pkg/config"
	"github.com/matzehuels/emergence/pkg/entity"
	emerr "github.com/matzehuels/emergence/pkg/errors"
	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/growth"
	"github.com/matzehuels/emergence/pkg/joints"
	"github.com/matzehuels/emergence/pkg/observability"
	"github.com/matzehuels/emergence/pkg/physics"
)

// Option configures a Simulation.
type Option func(*Simulation)

// WithLogger sets the logger. The run id is attached to every line.
func WithLogger(l *log.Logger) Option {
	return func(s *Simulation) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithWorld replaces the default SpringWorld.
func WithWorld(w physics.Engine) Option {
	return func(s *Simulation) {
		if w != nil {
			s.world = w
		}
	}
}

// WithMode selects how compounds form. The default grows them one child at
// a time.
func WithMode(m growth.Mode) Option {
	return func(s *Simulation) { s.mode = m }
}

// WithProgress registers fn to be called after every tick with the tick
// count and the number of compounds that have not formed yet.
func WithProgress(fn func(tick, forming int)) Option {
	return func(s *Simulation) { s.progress = fn }
}

// Simulation is the explicit context every component hangs off.
type Simulation struct {
	cfg    config.Config
	runID  string
	logger *log.Logger
	mode   growth.Mode

	world       physics.Engine
	graph       *entity.Graph
	joints      *joints.Manager
	interaction *blob.Interaction

	engines map[string]*growth.Engine
	order   []string // engine ids, parents before children
	hulls   map[string]*blob.Hull

	radii     []float64 // entity radius per depth
	shape     []int
	maxDepth  int
	particles map[string]int // flattened particle count per compound
	colors    map[string]string
	formedAt  map[string]int

	noise    opensimplex.Noise
	rng      *rand.Rand
	impulses map[string]*impulseState

	tick     int
	err      error
	progress func(tick, forming int)
}

// New builds the entity tree for cfg and prepares the root engine.
// Nothing is spawned until the first Tick.
func New(cfg config.Config, opts ...Option) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	s := &Simulation{
		cfg:       cfg,
		runID:     uuid.NewString(),
		logger:    log.Default(),
		engines:   make(map[string]*growth.Engine),
		hulls:     make(map[string]*blob.Hull),
		particles: make(map[string]int),
		colors:    make(map[string]string),
		formedAt:  make(map[string]int),
		impulses:  make(map[string]*impulseState),
		noise:     opensimplex.NewNormalized(cfg.Seed),
		rng:       rand.New(rand.NewSource(cfg.Seed + 100)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.world == nil {
		s.world = physics.NewSpringWorld(physics.Options{})
	}
	s.logger = s.logger.With("run", s.runID[:8])
	s.graph = entity.NewGraph(s.logger)
	s.joints = joints.NewManager(s.world, s.graph, s.logger)
	s.interaction = blob.NewInteraction(s.graph, s.logger)

	if err := s.build(); err != nil {
		return nil, err
	}
	root, err := growth.New(entity.RootID, s.joints, s, growth.Options{
		Radius: s.radiusAt(1),
		Mode:   s.mode,
		Logger: s.logger,
	})
	if err != nil {
		return nil, err
	}
	s.engines[entity.RootID] = root
	s.order = append(s.order, entity.RootID)
	s.logger.Debug("simulation built",
		"nodes", s.graph.Len(),
		"particles", cfg.EntityCounts.TotalParticles(),
		"depth", s.maxDepth)
	return s, nil
}

// =============================================================================
// Accessors
// =============================================================================

func (s *Simulation) RunID() string                  { return s.runID }
func (s *Simulation) Config() config.Config          { return s.cfg }
func (s *Simulation) Graph() *entity.Graph           { return s.graph }
func (s *Simulation) World() physics.Engine          { return s.world }
func (s *Simulation) Interaction() *blob.Interaction { return s.interaction }
func (s *Simulation) Ticks() int                     { return s.tick }
func (s *Simulation) Err() error                     { return s.err }

// Engine returns the growth engine of compound id, if it has been spawned.
func (s *Simulation) Engine(id string) (*growth.Engine, bool) {
	e, ok := s.engines[id]
	return e, ok
}

// Hull returns the hull of compound id.
func (s *Simulation) Hull(id string) (*blob.Hull, bool) {
	h, ok := s.hulls[id]
	return h, ok
}

// Steady reports whether every compound has finished forming.
func (s *Simulation) Steady() bool { return s.forming() == 0 }

// forming counts the compounds without a steady engine.
func (s *Simulation) forming() int {
	n := 0
	s.graph.Walk(entity.RootID, func(nd *entity.Node) bool {
		if nd.IsParticle() {
			return false
		}
		if e, ok := s.engines[nd.ID]; !ok || !e.Steady() {
			n++
		}
		return true
	})
	return n
}

// =============================================================================
// Tick
// =============================================================================

// Tick advances the simulation by one fixed step.
func (s *Simulation) Tick(ctx context.Context) error {
	if s.err != nil {
		return emerr.Wrap(emerr.ErrCodeHalted, s.err, "simulation halted at tick %d", s.tick)
	}
	start := time.Now()
	hooks := observability.Simulation()

	s.interaction.Commit()

	for _, id := range slices.Clone(s.order) {
		e, ok := s.engines[id]
		if !ok {
			continue
		}
		ev, err := e.Step()
		if err != nil {
			return s.fail(err)
		}
		s.report(ctx, e, ev)
	}

	s.applyImpulses()
	if s.cfg.ShowRelations && s.tick > 0 && s.tick%s.cfg.RelationInterval == 0 {
		s.animateRelations()
	}

	s.world.Step(s.cfg.TickSeconds() / s.cfg.Slowdown)
	s.updateHulls(ctx)

	s.tick++
	hooks.OnTick(ctx, s.runID, s.tick, s.graph.JointCount(), time.Since(start))
	if s.progress != nil {
		s.progress(s.tick, s.forming())
	}
	return nil
}

func (s *Simulation) fail(err error) error {
	s.err = err
	s.logger.Error("simulation halted", "tick", s.tick, "code", emerr.GetCode(err), "err", err)
	return err
}

func (s *Simulation) report(ctx context.Context, e *growth.Engine, ev growth.Event) {
	if ev.Kind == growth.EventNone {
		return
	}
	hooks := observability.Simulation()
	hooks.OnGrowthStep(ctx, ev.Owner, eventName(ev.Kind), ev.Index)
	if ev.JointsCreated > 0 {
		active := e.Active()
		for _, id := range active[max(0, len(active)-ev.JointsCreated):] {
			hooks.OnJoint(ctx, id, true)
		}
	}
	if ev.Kind == growth.EventSteady {
		s.formedAt[ev.Owner] = s.tick
		hooks.OnFormation(ctx, ev.Owner, e.Instantiated(), s.tick)
		if s.cfg.InitialImpulse {
			s.initialImpulse(ev.Owner)
		}
	}
}

func eventName(k growth.EventKind) string {
	switch k {
	case growth.EventSpawned:
		return "spawned"
	case growth.EventAttached:
		return "attached"
	case growth.EventSteady:
		return "steady"
	}
	return "none"
}

func (s *Simulation) updateHulls(ctx context.Context) {
	for _, id := range s.order {
		h, ok := s.hulls[id]
		if !ok {
			continue
		}
		start := time.Now()
		if h.Update(s.graph) {
			observability.Simulation().OnHullRebuild(ctx, id, len(h.Ring()), time.Since(start))
		}
	}
}

// Run advances n ticks, stopping early when ctx is cancelled.
func (s *Simulation) Run(ctx context.Context, n int) error {
	for range n {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Tick(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RunUntilSteady ticks until every compound has formed or limit ticks have
// run, and returns the number of ticks taken.
func (s *Simulation) RunUntilSteady(ctx context.Context, limit int) (int, error) {
	start := s.tick
	for !s.Steady() {
		if s.tick-start >= limit {
			return s.tick - start, emerr.New(emerr.ErrCodeInternal, "not steady after %d ticks", limit)
		}
		if err := ctx.Err(); err != nil {
			return s.tick - start, err
		}
		if err := s.Tick(ctx); err != nil {
			return s.tick - start, err
		}
	}
	// One more tick lets the hulls of the last compounds catch up.
	if err := s.Tick(ctx); err != nil {
		return s.tick - start, err
	}
	return s.tick - start, nil
}

// =============================================================================
// Teardown
// =============================================================================

// Teardown removes node id and its subtree: pending visibility work is
// cancelled, every joint touching the subtree is released from the world
// and particle bodies are removed.
//
// A node whose ancestors are still growing is refused with
// ErrCodeInvalidInput, since their active queues may hold joints that
// touch the subtree.
func (s *Simulation) Teardown(ctx context.Context, id string) error {
	n, err := s.graph.MustNode(id)
	if err != nil {
		return err
	}
	for _, a := range s.graph.Ancestors(id) {
		if e, ok := s.engines[a.ID]; ok && !e.Steady() {
			return emerr.New(emerr.ErrCodeInvalidInput, "cannot tear down %s while %s is %s", id, a.ID, e.State())
		}
	}
	s.interaction.Cancel(id)

	var bodies []physics.Body
	removed := make(map[string]bool)
	s.graph.Walk(n.ID, func(c *entity.Node) bool {
		removed[c.ID] = true
		if c.Mounted() {
			bodies = append(bodies, c.Body)
		}
		return true
	})

	dropped, err := s.graph.RemoveNode(id)
	if err != nil {
		return err
	}
	s.joints.Release(dropped)
	for _, j := range dropped {
		observability.Simulation().OnJoint(ctx, j.ID, false)
	}
	for _, b := range bodies {
		s.world.RemoveBody(b)
	}
	for rid := range removed {
		delete(s.engines, rid)
		delete(s.hulls, rid)
		delete(s.impulses, rid)
		delete(s.particles, rid)
	}
	s.order = slices.DeleteFunc(s.order, func(o string) bool { return removed[o] })
	s.logger.Info("torn down", "node", id, "joints", len(dropped), "bodies", len(bodies))
	return nil
}

// =============================================================================
// Interaction
// =============================================================================

// Blobs returns the current outline of every compound with a hull,
// visible or not. Hit testing needs the hidden ones too.
func (s *Simulation) Blobs() []blob.Blob {
	out := make([]blob.Blob, 0, len(s.hulls))
	for _, id := range s.order {
		h, ok := s.hulls[id]
		if !ok || h.Empty() {
			continue
		}
		n, _ := s.graph.Node(id)
		if poly := h.Outline(s.graph); poly != nil {
			out = append(out, blob.Blob{ID: id, Depth: n.Depth, Outline: poly})
		}
	}
	return out
}

// PointerDown records a press at p on every outline under it.
func (s *Simulation) PointerDown(p geom.Vec3, ev blob.PointerEvent) {
	ev.Point = p
	s.interaction.Press(s.Blobs(), ev)
}

// PointerUp releases a press at p and returns the node whose visibility
// changed, if any.
func (s *Simulation) PointerUp(p geom.Vec3, ev blob.PointerEvent) (string, bool) {
	ev.Point = p
	return s.interaction.Dispatch(s.Blobs(), ev)
}

// Click applies a click on node id with the given outline intersection
// count.
func (s *Simulation) Click(id string, intersections int) bool {
	return s.interaction.Click(id, intersections)
}

// ContextMenu resets visibility to the root.
func (s *Simulation) ContextMenu() { s.interaction.ContextMenu() }

// Reveal shows every compound at depth and hides the others, as if each
// had been drilled into from the root. Pending visibility work is dropped.
// It returns the number of visible compounds.
func (s *Simulation) Reveal(depth int) int {
	s.interaction.Cancel(entity.RootID)
	if depth < 0 {
		depth = 0
	}
	if depth > s.maxDepth-1 {
		depth = max(s.maxDepth-1, 0)
	}
	shown := 0
	s.graph.Walk(entity.RootID, func(n *entity.Node) bool {
		if n.IsParticle() {
			return false
		}
		n.Visual.Visible = n.Depth == depth
		if n.Visual.Visible {
			shown++
		}
		return true
	})
	return shown
}
