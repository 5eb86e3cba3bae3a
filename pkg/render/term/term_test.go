package term

import (
	"strings"
	"testing"

	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/sim"
)

func square(lo, hi float64) []geom.Vec3 {
	return []geom.Vec3{geom.V(lo, lo, 0), geom.V(hi, lo, 0), geom.V(hi, hi, 0), geom.V(lo, hi, 0)}
}

func TestCanvasMapping(t *testing.T) {
	c := NewCanvas(10, 5, geom.V(0, 0, 0), geom.V(10, 10, 0))
	if w, h := c.Size(); w != 10 || h != 5 {
		t.Fatalf("Size() = %d×%d", w, h)
	}
	p := c.ToWorld(0, 0)
	if !geom.ApproxEqual(p, geom.V(0.5, 9, 0), 1e-9) {
		t.Errorf("ToWorld(0,0) = %v", p)
	}
	col, row, ok := c.ToCell(p)
	if !ok || col != 0 || row != 0 {
		t.Errorf("ToCell(%v) = %d,%d,%v", p, col, row, ok)
	}
	if _, _, ok := c.ToCell(geom.V(-1, 5, 0)); ok {
		t.Error("point left of the viewport should be outside")
	}
}

func TestCanvasDraw(t *testing.T) {
	c := NewCanvas(10, 5, geom.V(0, 0, 0), geom.V(10, 10, 0))
	c.DrawBlob("root", 0, square(0, 10), "#4f6d7a")
	if r, id := c.At(3, 3); r != '░' || id != "root" {
		t.Errorf("At(3,3) = %q %q, want shaded root", r, id)
	}

	c.DrawBlob("root.0", 2, square(0, 4), "")
	if r, id := c.At(1, 4); r != '▓' || id != "root.0" {
		t.Errorf("At(1,4) = %q %q, want deeper shade", r, id)
	}

	c.DrawParticle("root.0.0", geom.V(5, 5, 0), 0.1, "")
	if r, id := c.At(5, 2); r != glyphParticle || id != "root.0.0" {
		t.Errorf("At(5,2) = %q %q", r, id)
	}

	c.DrawRelation("a", "b", geom.V(0.5, 9, 0), geom.V(9.5, 9, 0))
	if got := strings.Split(c.Plain(), "\n")[0]; got != strings.Repeat(string(glyphRelation), 10) {
		t.Errorf("row 0 = %q", got)
	}

	c.DrawCore("root", geom.V(5, 5, 0), 3)
	if r, _ := c.At(5, 2); r != glyphCore {
		t.Errorf("core not drawn: %q", r)
	}

	c.Clear()
	if strings.TrimSpace(c.Plain()) != "" {
		t.Error("Clear() should blank the canvas")
	}
}

func TestRelationSkipsParticles(t *testing.T) {
	c := NewCanvas(10, 5, geom.V(0, 0, 0), geom.V(10, 10, 0))
	c.DrawParticle("p", geom.V(5.5, 9, 0), 0.1, "")
	c.DrawRelation("a", "b", geom.V(0.5, 9, 0), geom.V(9.5, 9, 0))
	if r, id := c.At(5, 0); r != glyphParticle || id != "p" {
		t.Errorf("particle overwritten: %q %q", r, id)
	}
}

func TestFit(t *testing.T) {
	sc := sim.Scene{
		Blobs: []sim.BlobView{{ID: "root", Outline: square(-5, 5), Color: "#c0d6df"}},
		Particles: []sim.ParticleView{
			{ID: "root.0", Position: geom.V(0, 0, 0), Radius: 1, Color: "#dd6e42"},
		},
	}
	c := Fit(sc, 20, 10)
	plain := c.Plain()
	if !strings.ContainsRune(plain, '░') || !strings.ContainsRune(plain, glyphParticle) {
		t.Errorf("Fit() missing blob or particle:\n%s", plain)
	}
	if lines := strings.Split(plain, "\n"); len(lines) != 10 {
		t.Errorf("got %d rows, want 10", len(lines))
	}
	if !strings.ContainsRune(c.String(), glyphParticle) {
		t.Error("String() should keep glyphs")
	}
}
