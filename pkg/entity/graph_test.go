package entity

import (
	"errors"
	"testing"

	emerr "github.com/matzehuels/emergence/pkg/errors"
	"github.com/matzehuels/emergence/pkg/physics"
)

// buildTree creates root with two compounds of two particles each.
func buildTree(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph(nil)
	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(g.AddNode(Node{ID: RootID, Kind: KindCompound}))
	for i := range 2 {
		cid := ChildID(RootID, i)
		must(g.AddNode(Node{ID: cid, ParentID: RootID, Kind: KindCompound}))
		for j := range 2 {
			must(g.AddNode(Node{ID: ChildID(cid, j), ParentID: cid, Kind: KindParticle, Visual: VisualConfig{Radius: 1}}))
		}
	}
	return g
}

func TestAddNodeErrors(t *testing.T) {
	g := buildTree(t)
	tests := []struct {
		name string
		node Node
		want error
	}{
		{"empty id", Node{}, ErrInvalidNodeID},
		{"duplicate", Node{ID: RootID}, ErrDuplicateNodeID},
		{"missing parent", Node{ID: "x", ParentID: "nope"}, ErrUnknownParent},
		{"particle parent", Node{ID: "x", ParentID: "root.0.0"}, ErrUnknownParent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := g.AddNode(tt.node); !errors.Is(err, tt.want) {
				t.Errorf("AddNode() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDepthAndDefaults(t *testing.T) {
	g := buildTree(t)
	p, _ := g.Node("root.1.0")
	if p.Depth != 2 {
		t.Errorf("Depth = %d, want 2", p.Depth)
	}
	if p.Visual.Scale != 1 || p.Visual.OrigRadius != 1 {
		t.Errorf("visual defaults = %+v", p.Visual)
	}
}

func TestAllParticlesOrderIsStable(t *testing.T) {
	g := buildTree(t)
	want := []string{"root.0.0", "root.0.1", "root.1.0", "root.1.1"}
	for range 3 {
		got := g.AllParticles(RootID)
		if len(got) != len(want) {
			t.Fatalf("len = %d, want %d", len(got), len(want))
		}
		for i, p := range got {
			if p.ID != want[i] {
				t.Errorf("particle %d = %s, want %s", i, p.ID, want[i])
			}
		}
	}
}

func TestMountBumpsVersionsAndHash(t *testing.T) {
	g := buildTree(t)
	w := physics.NewSpringWorld(physics.Options{})

	h0, v0 := g.ParticlesHash(RootID), g.Version(RootID)
	other := g.Version("root.1")
	if err := g.Mount("root.0.1", w.AddBody(physics.BodySpec{Radius: 1})); err != nil {
		t.Fatal(err)
	}
	if g.Version(RootID) == v0 || g.Version("root.0") == 0 {
		t.Error("mount should bump the particle's ancestors")
	}
	if g.Version("root.1") != other {
		t.Error("mount should not bump unrelated subtrees")
	}
	if g.ParticlesHash(RootID) == h0 {
		t.Error("hash should change when membership changes")
	}
	if got := len(g.MountedParticles(RootID)); got != 1 {
		t.Errorf("MountedParticles = %d, want 1", got)
	}
	if err := g.Mount("root.0", nil); !errors.Is(err, ErrNotParticle) {
		t.Errorf("Mount(compound) = %v, want ErrNotParticle", err)
	}
}

func TestJointRegistryKeepsChainSymmetric(t *testing.T) {
	g := buildTree(t)
	j := Joint{ID: JointID("root.1.0", "root.0.1"), BodyA: "root.1.0", BodyB: "root.0.1", Owner: RootID}
	if err := g.AddJoint(j); err != nil {
		t.Fatal(err)
	}
	root, _ := g.Node(RootID)
	if len(root.Chain["root.0.1"]) != 1 || len(root.Chain["root.1.0"]) != 1 {
		t.Fatalf("chain not symmetric: %v", root.Chain)
	}

	if err := g.AddJoint(j); !emerr.Is(err, emerr.ErrCodeDuplicateJoint) {
		t.Errorf("duplicate AddJoint = %v", err)
	}
	if _, err := g.DeleteJoint(j.ID); err != nil {
		t.Fatal(err)
	}
	if len(root.Chain) != 0 || len(root.Joints) != 0 {
		t.Errorf("delete left state behind: chain=%v joints=%v", root.Chain, root.Joints)
	}
	if _, err := g.Joint(j.ID); !emerr.Is(err, emerr.ErrCodeStaleJoint) {
		t.Errorf("stale lookup = %v, want STALE_JOINT", err)
	}
}

func TestAddJointsIsAtomic(t *testing.T) {
	g := buildTree(t)
	batch := []Joint{
		{ID: JointID("root.0.0", "root.0.1"), BodyA: "root.0.0", BodyB: "root.0.1", Owner: "root.0"},
		{ID: JointID("root.1.0", "root.1.1"), BodyA: "root.1.0", BodyB: "root.1.1", Owner: "root.1"},
		{ID: JointID("root.0.0", "missing"), BodyA: "root.0.0", BodyB: "missing", Owner: "root.0"},
	}
	if err := g.AddJoints(batch); err == nil {
		t.Fatal("expected error for missing endpoint")
	}
	if g.JointCount() != 0 {
		t.Errorf("JointCount = %d after failed batch, want 0", g.JointCount())
	}
	if err := g.AddJoints(batch[:2]); err != nil {
		t.Fatal(err)
	}
	if g.JointCount() != 2 {
		t.Errorf("JointCount = %d, want 2", g.JointCount())
	}
}

func TestChainScopeMergesDescendants(t *testing.T) {
	g := buildTree(t)
	for _, j := range []Joint{
		{ID: JointID("root.0.0", "root.0.1"), BodyA: "root.0.0", BodyB: "root.0.1", Owner: "root.0"},
		{ID: JointID("root.0.1", "root.1.0"), BodyA: "root.0.1", BodyB: "root.1.0", Owner: RootID},
	} {
		if err := g.AddJoint(j); err != nil {
			t.Fatal(err)
		}
	}
	scope := g.ChainScope(RootID)
	if len(scope["root.0.1"]) != 2 {
		t.Errorf("root.0.1 neighbours = %v, want 2", scope["root.0.1"])
	}
	if len(g.ChainScope("root.1")) != 0 {
		t.Error("root.1 owns no joints")
	}
}

func TestRemoveNodeDropsJointsAndRelations(t *testing.T) {
	g := buildTree(t)
	if err := g.AddJoint(Joint{ID: JointID("root.0.0", "root.1.0"), BodyA: "root.0.0", BodyB: "root.1.0", Owner: RootID}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddRelation("root.1", "root.0"); err != nil {
		t.Fatal(err)
	}
	dropped, err := g.RemoveNode("root.0")
	if err != nil {
		t.Fatal(err)
	}
	if len(dropped) != 1 || g.JointCount() != 0 {
		t.Errorf("dropped=%d remaining=%d, want 1 and 0", len(dropped), g.JointCount())
	}
	if g.RelationCount() != 0 {
		t.Errorf("RelationCount = %d, want 0", g.RelationCount())
	}
	if _, ok := g.Node("root.0.1"); ok {
		t.Error("descendant should be removed")
	}
	root, _ := g.Node(RootID)
	if len(root.ChildrenIDs) != 1 {
		t.Errorf("root children = %v", root.ChildrenIDs)
	}
}

func TestRelations(t *testing.T) {
	g := buildTree(t)
	if err := g.AddRelation("root.0", "root.0"); !errors.Is(err, ErrSelfRelation) {
		t.Errorf("self relation = %v", err)
	}
	_ = g.AddRelation("root.0", "root.1")
	_ = g.AddRelation("root.0", "root.1")
	if g.RelationCount() != 1 {
		t.Errorf("RelationCount = %d, want 1", g.RelationCount())
	}
	g.DeleteRelation("root.0", "root.1")
	if len(g.Relations("root.0")) != 0 {
		t.Error("relation not deleted")
	}
}

func TestIsOuter(t *testing.T) {
	n := Node{Visual: VisualConfig{OuterChain: map[int]bool{0: true, 1: false}}}
	if n.IsOuter(0) {
		t.Error("deeper false flag should exclude depth 0")
	}
	n.Visual.OuterChain[1] = true
	if !n.IsOuter(0) || !n.IsOuter(1) {
		t.Error("all-true flags should be outer")
	}
	if n.IsOuter(2) {
		t.Error("missing depth should not be outer")
	}
}

func TestJointIDIsCanonical(t *testing.T) {
	if JointID("b", "a") != JointID("a", "b") || JointID("a", "b") != "a-b" {
		t.Errorf("JointID not canonical: %s", JointID("b", "a"))
	}
}

func TestIndexPath(t *testing.T) {
	got := IndexPath("root.2.10")
	if len(got) != 2 || got[0] != 2 || got[1] != 10 {
		t.Errorf("IndexPath = %v", got)
	}
}
