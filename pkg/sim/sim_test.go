package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/emergence/pkg/blob"
	"github.com/matzehuels/emergence/pkg/config"
	"github.com/matzehuels/emergence/pkg/entity"
	emerr "github.com/matzehuels/emergence/pkg/errors"
	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/growth"
	"github.com/matzehuels/emergence/pkg/joints"
)

// quiet returns a config with impulses and relations off so runs depend on
// growth alone.
func quiet(counts config.Counts) config.Config {
	cfg := config.Default()
	cfg.EntityCounts = counts
	cfg.ImpulsePerParticle = 0
	cfg.InitialImpulse = false
	return cfg
}

func steady(t *testing.T, cfg config.Config, opts ...Option) *Simulation {
	t.Helper()
	s, err := New(cfg, opts...)
	require.NoError(t, err)
	_, err = s.RunUntilSteady(context.Background(), 500)
	require.NoError(t, err)
	return s
}

func visibleIDs(g *entity.Graph) []string {
	var out []string
	g.Walk(entity.RootID, func(n *entity.Node) bool {
		if n.Visual.Visible {
			out = append(out, n.ID)
		}
		return true
	})
	return out
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Radius = 0
	_, err := New(cfg)
	assert.True(t, emerr.Is(err, emerr.ErrCodeInvalidConfig))
}

func TestBuildTree(t *testing.T) {
	s, err := New(quiet(config.Uniform(2, 3)))
	require.NoError(t, err)
	g := s.Graph()

	assert.Equal(t, 1+2+6, g.Len())
	assert.Len(t, g.AllParticles(entity.RootID), 6)
	assert.Equal(t, []string{entity.RootID}, visibleIDs(g))

	p, ok := g.Node("root.1.2")
	require.True(t, ok)
	assert.True(t, p.IsParticle())
	assert.Equal(t, 2, p.Depth)
	assert.Equal(t, 1*3+2, p.Visual.UniqueID)
	assert.False(t, p.Mounted(), "nothing is spawned before the first tick")
}

func TestRingOfThree(t *testing.T) {
	s := steady(t, quiet(config.Uniform(3)))

	assert.Equal(t, 3, s.Graph().JointCount())
	assert.Equal(t, 3, s.World().JointCount())

	h, ok := s.Hull(entity.RootID)
	require.True(t, ok)
	ring := h.Ring()
	require.Len(t, ring, 4)
	assert.Equal(t, ring[0], ring[3])
	assert.ElementsMatch(t, []string{"root.0", "root.1", "root.2"}, ring[:3])

	// Clicking the top-level blob with no visible ancestor hides it and
	// reveals the three siblings.
	assert.True(t, s.Click(entity.RootID, 1))
	assert.Equal(t, []string{"root.0", "root.1", "root.2"}, visibleIDs(s.Graph()))
}

func TestClickWithWrongIntersectionsIsNoop(t *testing.T) {
	s := steady(t, quiet(config.Uniform(3)))
	require.True(t, s.Click(entity.RootID, 1))
	before := visibleIDs(s.Graph())

	for range 2 {
		assert.False(t, s.Click(entity.RootID, 3))
		assert.Equal(t, before, visibleIDs(s.Graph()))
	}
}

func TestPointerClickOnBlob(t *testing.T) {
	s := steady(t, quiet(config.Uniform(3)))
	centre, ok := joints.NewManager(s.World(), s.Graph(), nil).Centre(entity.RootID)
	require.True(t, ok)

	t0 := time.Now()
	s.PointerDown(centre, blob.PointerEvent{Time: t0})
	id, ok := s.PointerUp(centre, blob.PointerEvent{Time: t0.Add(80 * time.Millisecond)})
	require.True(t, ok)
	assert.Equal(t, entity.RootID, id)

	// Right click resets on the next tick.
	s.ContextMenu()
	require.NoError(t, s.Tick(context.Background()))
	assert.Equal(t, []string{entity.RootID}, visibleIDs(s.Graph()))
}

func TestNestedJointCounts(t *testing.T) {
	s := steady(t, quiet(config.Uniform(3, 3)))
	// three joints inside each child plus at least three binding the children
	assert.GreaterOrEqual(t, s.Graph().JointCount(), 12)
	assert.Equal(t, s.Graph().JointCount(), s.World().JointCount())
	assert.Equal(t, 9, s.World().BodyCount())
	for _, id := range []string{"root", "root.0", "root.1", "root.2"} {
		e, ok := s.Engine(id)
		require.True(t, ok, id)
		assert.True(t, e.Steady(), id)
	}
}

func TestNestedHullSpansChildren(t *testing.T) {
	for _, counts := range []config.Counts{config.Uniform(3, 3), config.Uniform(4, 3)} {
		s := steady(t, quiet(counts))
		g := s.Graph()
		h, ok := s.Hull(entity.RootID)
		require.True(t, ok)
		ring := h.Ring()
		require.NotEmpty(t, ring, "counts %v", counts)

		// More ids than one child's closed triangle, drawn from every child.
		assert.Greater(t, len(ring), 4, "counts %v", counts)
		children := map[string]bool{}
		for _, id := range ring {
			n, _ := g.Node(id)
			children[n.ParentID] = true
		}
		root, _ := g.Node(entity.RootID)
		assert.Len(t, children, len(root.ChildrenIDs), "counts %v ring %v", counts, ring)

		outline := h.Outline(g)
		require.NotEmpty(t, outline)
		m := joints.NewManager(s.World(), g, nil)
		for _, cid := range root.ChildrenIDs {
			c, ok := m.Centre(cid)
			require.True(t, ok)
			assert.True(t, geom.ContainsXY(outline, c), "counts %v: %s centre outside the outline", counts, cid)
		}
	}
}

func TestRingMode(t *testing.T) {
	s := steady(t, quiet(config.Uniform(4)), WithMode(growth.ModeRing))
	assert.Equal(t, 4, s.Graph().JointCount())
	e, _ := s.Engine(entity.RootID)
	assert.Len(t, e.Ring(), 4)
}

func TestTeardown(t *testing.T) {
	ctx := context.Background()
	s := steady(t, quiet(config.Uniform(3, 3)))

	require.NoError(t, s.Teardown(ctx, "root.0"))
	_, ok := s.Graph().Node("root.0.1")
	assert.False(t, ok)
	_, ok = s.Engine("root.0")
	assert.False(t, ok)
	assert.Equal(t, s.Graph().JointCount(), s.World().JointCount())
	assert.Equal(t, 6, s.World().BodyCount())
	require.NoError(t, s.Run(ctx, 3))

	require.NoError(t, s.Teardown(ctx, entity.RootID))
	assert.Zero(t, s.World().JointCount())
	assert.Zero(t, s.World().BodyCount())
	assert.Zero(t, s.Graph().Len())

	assert.Error(t, s.Teardown(ctx, entity.RootID))
}

func TestTeardownRefusedWhileParentGrows(t *testing.T) {
	ctx := context.Background()
	s, err := New(quiet(config.Uniform(5, 3)))
	require.NoError(t, err)
	for range 500 {
		require.NoError(t, s.Tick(ctx))
		if e, ok := s.Engine("root.0"); ok && e.Steady() {
			break
		}
	}
	root, _ := s.Engine(entity.RootID)
	require.False(t, root.Steady())

	err = s.Teardown(ctx, "root.0.1")
	assert.True(t, emerr.Is(err, emerr.ErrCodeInvalidInput))
	err = s.Teardown(ctx, "root.0")
	assert.True(t, emerr.Is(err, emerr.ErrCodeInvalidInput))
	_, ok := s.Graph().Node("root.0.1")
	assert.True(t, ok, "refused teardown must leave the subtree in place")

	_, err = s.RunUntilSteady(ctx, 2000)
	require.NoError(t, err)
	require.NoError(t, s.Teardown(ctx, "root.0"))
	require.NoError(t, s.Run(ctx, 3))
}

func TestStaleJointHalts(t *testing.T) {
	ctx := context.Background()
	s, err := New(quiet(config.Uniform(5)))
	require.NoError(t, err)
	// spawn and attach children 0..2
	require.NoError(t, s.Run(ctx, 6))
	e, _ := s.Engine(entity.RootID)
	active := e.Active()
	require.Len(t, active, 3)
	_, err = s.Graph().DeleteJoint(active[0])
	require.NoError(t, err)

	err = s.Tick(ctx)
	require.Error(t, err)
	assert.True(t, emerr.Is(err, emerr.ErrCodeStaleJoint))
	assert.Error(t, s.Err())

	err = s.Tick(ctx)
	assert.True(t, emerr.Is(err, emerr.ErrCodeHalted))
}

func TestProgressReportsEveryTick(t *testing.T) {
	var ticks, lastForming []int
	s, err := New(quiet(config.Uniform(3, 3)), WithProgress(func(tick, forming int) {
		ticks = append(ticks, tick)
		lastForming = append(lastForming, forming)
	}))
	require.NoError(t, err)
	n, err := s.RunUntilSteady(context.Background(), 500)
	require.NoError(t, err)

	require.Len(t, ticks, n)
	for i, tick := range ticks {
		assert.Equal(t, i+1, tick)
	}
	assert.Equal(t, 4, lastForming[0], "root and its three children start out forming")
	assert.Zero(t, lastForming[len(lastForming)-1])
}

func TestRunHonoursContext(t *testing.T) {
	s, err := New(quiet(config.Uniform(3)))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Run(ctx, 10), context.Canceled)
	assert.Zero(t, s.Ticks())
}

func TestToggleParticle(t *testing.T) {
	s := steady(t, quiet(config.Uniform(3)))
	g := s.Graph()
	p, _ := g.Node("root.0")
	orig := p.Visual.Color
	j := g.JointsOf("root.0")[0]
	anchor := func() float64 {
		if j.BodyA == "root.0" {
			return j.Handle.Anchor1().Len()
		}
		return j.Handle.Anchor2().Len()
	}
	before := anchor()

	require.NoError(t, s.ToggleParticle("root.0"))
	assert.Equal(t, 2.0, p.Visual.Scale)
	assert.InDelta(t, 2*p.Visual.OrigRadius, p.Visual.Radius, 1e-9)
	assert.Equal(t, HighlightColor, p.Visual.Color)
	assert.InDelta(t, 2*before, anchor(), 1e-9)

	require.NoError(t, s.ToggleParticle("root.0"))
	assert.Equal(t, 1.0, p.Visual.Scale)
	assert.Equal(t, orig, p.Visual.Color)
	assert.InDelta(t, before, anchor(), 1e-9)

	assert.ErrorIs(t, s.SetParticleScale(entity.RootID, 2), entity.ErrNotParticle)
	assert.Error(t, s.SetParticleScale("root.1", 0))
}

func TestScene(t *testing.T) {
	s := steady(t, quiet(config.Uniform(3)))
	sc := s.Scene()
	assert.Equal(t, s.RunID(), sc.RunID)
	require.Len(t, sc.Blobs, 1)
	assert.Equal(t, entity.RootID, sc.Blobs[0].ID)
	assert.NotEmpty(t, sc.Blobs[0].Outline)
	assert.Len(t, sc.Particles, 3)
	assert.Len(t, sc.Cores, 1)

	min, max := sc.Bounds()
	assert.Less(t, min.X, max.X)
	assert.Less(t, min.Y, max.Y)
}

func TestRandomColorsAreSeeded(t *testing.T) {
	cfg := quiet(config.Uniform(3))
	cfg.Colors = []string{"#000000", "random"}
	a, err := New(cfg)
	require.NoError(t, err)
	b, err := New(cfg)
	require.NoError(t, err)

	for _, id := range []string{"root.0", "root.1", "root.2"} {
		na, _ := a.Graph().Node(id)
		nb, _ := b.Graph().Node(id)
		assert.Equal(t, na.Visual.Color, nb.Visual.Color)
		assert.NoError(t, emerr.ValidateColor(na.Visual.Color))
	}
	root, _ := a.Graph().Node(entity.RootID)
	assert.Equal(t, "#000000", root.Visual.Color)
}

func TestRelationsAnimate(t *testing.T) {
	cfg := quiet(config.Uniform(3, 3))
	cfg.ShowRelations = true
	cfg.RelationInterval = 1
	s := steady(t, cfg)
	require.NoError(t, s.Run(context.Background(), 3))

	assert.Positive(t, s.Graph().RelationCount())
	for _, r := range s.Scene().Relations {
		assert.NotEqual(t, r.From, r.To)
	}
}

func TestImpulsesMoveSteadyClusters(t *testing.T) {
	cfg := config.Default()
	cfg.EntityCounts = config.Uniform(3)
	s := steady(t, cfg)
	p, _ := s.Graph().Node("root.0")
	start := p.Body.Translation()
	require.NoError(t, s.Run(context.Background(), 30))
	assert.Greater(t, p.Body.Translation().Distance(start), 0.0)
}

func TestEstimateRadii(t *testing.T) {
	radii := EstimateRadii(10, []int{3, 1}, nil)
	require.Len(t, radii, 3)
	r1 := radii[1]
	// three children of radius r1 on a ring of radius r1/sin(60deg)+r1
	// fill the parent exactly
	assert.InDelta(t, 10, r1/0.8660254037844386+r1, 1e-9)
	assert.InDelta(t, r1/2, radii[2], 1e-9)

	over := EstimateRadii(10, []int{3, 1}, []float64{4, 2})
	assert.Equal(t, []float64{4, 2, 1}, over)
}

func TestUniqueIndex(t *testing.T) {
	shape := []int{3, 4, 5}
	seen := map[int]bool{}
	for a := range 3 {
		for b := range 4 {
			for c := range 5 {
				idx := UniqueIndex([]int{a, b, c}, shape)
				assert.False(t, seen[idx], "duplicate index %d", idx)
				seen[idx] = true
			}
		}
	}
	assert.Len(t, seen, 60)
	assert.Equal(t, 0, UniqueIndex(nil, shape))
}

func TestReveal(t *testing.T) {
	s, err := New(quiet(config.Uniform(2, 3)))
	require.NoError(t, err)

	assert.Equal(t, 2, s.Reveal(1))
	assert.Equal(t, []string{"root.0", "root.1"}, visibleIDs(s.Graph()))

	assert.Equal(t, 2, s.Reveal(7), "depth is clamped to the deepest compound")
	assert.Equal(t, 1, s.Reveal(0))
	assert.Equal(t, []string{entity.RootID}, visibleIDs(s.Graph()))
}
