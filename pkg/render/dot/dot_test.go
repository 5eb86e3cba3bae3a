package dot

import (
	"strings"
	"testing"

	"github.com/matzehuels/emergence/pkg/entity"
)

func tree(t *testing.T) *entity.Graph {
	t.Helper()
	g := entity.NewGraph(nil)
	add := func(n entity.Node) {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	add(entity.Node{ID: "root", Visual: entity.VisualConfig{Color: "#4f6d7a", Visible: true}})
	add(entity.Node{ID: "root.0", ParentID: "root"})
	add(entity.Node{ID: "root.0.0", ParentID: "root.0", Kind: entity.KindParticle})
	add(entity.Node{ID: "root.0.1", ParentID: "root.0", Kind: entity.KindParticle})
	if err := g.AddJoint(entity.Joint{ID: entity.JointID("root.0.0", "root.0.1"), BodyA: "root.0.0", BodyB: "root.0.1", Owner: "root.0"}); err != nil {
		t.Fatal(err)
	}
	if err := g.AddRelation("root.0.0", "root.0"); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestToDOT(t *testing.T) {
	src := ToDOT(tree(t), Options{})
	for _, want := range []string{
		"digraph G {",
		`"root" [label="root", fillcolor="#4f6d7a"];`,
		`"root" -> "root.0";`,
		`"root.0" -> "root.0.1";`,
		"shape=circle",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("DOT missing %q:\n%s", want, src)
		}
	}
	if strings.Contains(src, "dashed, color=grey") {
		t.Error("joints are opt-in")
	}
	if !strings.Contains(src, `"root.0" [label="root.0", style="rounded,filled,dashed"]`) {
		t.Error("hidden compounds should be dashed")
	}
}

func TestToDOTOptions(t *testing.T) {
	src := ToDOT(tree(t), Options{Detailed: true, Joints: true, Relations: true})
	for _, want := range []string{
		`"root.0.0" -> "root.0.1" [dir=none`,
		`"root.0.0" -> "root.0" [style=dotted`,
		`particles: 2`,
		`joints: 1`,
	} {
		if !strings.Contains(src, want) {
			t.Errorf("DOT missing %q", want)
		}
	}
}

func TestToDOTMaxDepth(t *testing.T) {
	src := ToDOT(tree(t), Options{MaxDepth: 1, Joints: true})
	if strings.Contains(src, "root.0.0") {
		t.Errorf("depth 2 should be cut:\n%s", src)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="62pt" height="116pt" viewBox="0.00 0.00 62.00 116.00" xmlns="http://www.w3.org/2000/svg"><g/></svg>`)
	out := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 62.00 116.00" width="62" height="116"><g/></svg>`
	if out != want {
		t.Errorf("got %s", out)
	}

	noBox := []byte(`<svg><g/></svg>`)
	if string(normalizeViewBox(noBox)) != string(noBox) {
		t.Error("svg without viewBox should pass through")
	}
}
