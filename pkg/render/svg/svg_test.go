package svg

import (
	"strings"
	"testing"

	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/sim"
)

func square(x0, y0, s float64) []geom.Vec3 {
	return []geom.Vec3{geom.V(x0, y0, 0), geom.V(x0+s, y0, 0), geom.V(x0+s, y0+s, 0), geom.V(x0, y0+s, 0)}
}

func testScene() sim.Scene {
	return sim.Scene{
		RunID: "run-1",
		Tick:  42,
		Blobs: []sim.BlobView{
			{ID: "root", Depth: 0, Outline: square(0, 0, 10), Color: "#4f6d7a"},
			{ID: "root.0", Depth: 1, Outline: square(1, 1, 3), Color: "#dd6e42"},
		},
		Particles: []sim.ParticleView{{ID: "root.0.0", Position: geom.V(2, 2, 0), Radius: 0.5, Color: "#000"}},
		Cores:     []sim.CoreView{{ID: "root", Centre: geom.V(5, 5, 0), Radius: 1}},
		Relations: []sim.RelationView{{From: "root.0", To: "root.1", FromPt: geom.V(2, 2, 0), ToPt: geom.V(8, 8, 0)}},
	}
}

func TestRender(t *testing.T) {
	out := string(Render(testScene(), WithWidth(400)))

	for _, want := range []string{
		`<svg xmlns="http://www.w3.org/2000/svg"`,
		`width="400"`,
		`data-run="run-1"`,
		`data-tick="42"`,
		`id="blob-root"`,
		`id="blob-root.0"`,
		`id="particle-root.0.0"`,
		`class="relation"`,
		"</svg>",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(out, `class="core"`) {
		t.Error("cores are opt-in")
	}
	if strings.Index(out, "blob-root\"") > strings.Index(out, "blob-root.0") {
		t.Error("shallow blobs must be painted first")
	}
}

func TestRenderOptions(t *testing.T) {
	out := string(Render(testScene(), WithCores(), WithLabels(), WithBackground("#111")))
	for _, want := range []string{`class="core"`, `class="blob-label"`, `fill="#111"`, ">root.0</text>"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderFlipsY(t *testing.T) {
	r := newRenderer(WithWidth(100), WithPadding(0))
	r.fit(sim.Scene{Blobs: []sim.BlobView{{Outline: square(0, 0, 10)}}})
	top := r.point(geom.V(0, 10, 0))
	bottom := r.point(geom.V(0, 0, 0))
	if top.Y != 0 || bottom.Y != 100 {
		t.Errorf("top=%v bottom=%v", top, bottom)
	}
}

func TestRenderEmptyScene(t *testing.T) {
	out := string(Render(sim.Scene{}))
	if !strings.HasPrefix(out, "<svg") || !strings.HasSuffix(out, "</svg>\n") {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestEscape(t *testing.T) {
	if got := escape(`a<b>&"c"`); got != "a&lt;b&gt;&amp;&quot;c&quot;" {
		t.Errorf("escape = %q", got)
	}
}
