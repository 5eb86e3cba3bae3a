// Package term rasterizes a scene into a grid of coloured terminal cells.
//
// A [Canvas] is a [render.Layer]: blobs fill the cells whose centres fall
// inside their outline, particles stamp a glyph, and cores and relations are
// drawn on top when enabled. Terminal cells are roughly twice as tall as they
// are wide, so the world-to-cell mapping halves the vertical resolution.
//
//	c := term.Fit(scene, 80, 24)
//	fmt.Print(c.String())
package term

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/render"
	"github.com/matzehuels/emergence/pkg/sim"
)

// CellAspect is the height-to-width ratio of a terminal cell.
const CellAspect = 2.0

var shades = []rune{'░', '▒', '▓', '█'}

const (
	glyphParticle = '●'
	glyphCore     = '✶'
	glyphRelation = '·'
)

type cell struct {
	r     rune
	color string
	id    string
}

// Canvas is a fixed-size character grid over a world-space viewport.
type Canvas struct {
	w, h   int
	cells  []cell
	origin geom.Vec3 // world point at the top-left corner
	scale  float64   // world units per column
}

var (
	_ render.Layer          = (*Canvas)(nil)
	_ render.CoreDrawer     = (*Canvas)(nil)
	_ render.RelationDrawer = (*Canvas)(nil)
)

// NewCanvas returns a w×h canvas showing the world box [lo, hi] centred
// and uniformly scaled.
func NewCanvas(w, h int, lo, hi geom.Vec3) *Canvas {
	w, h = max(w, 1), max(h, 1)
	span := hi.Sub(lo)
	scale := math.Max(span.X/float64(w), span.Y/(float64(h)*CellAspect))
	if scale <= 0 || math.IsNaN(scale) {
		scale = 1
	}
	mid := geom.Midpoint(lo, hi)
	origin := geom.V(
		mid.X-scale*float64(w)/2,
		mid.Y+scale*CellAspect*float64(h)/2,
		0,
	)
	c := &Canvas{w: w, h: h, cells: make([]cell, w*h), origin: origin, scale: scale}
	c.Clear()
	return c
}

// Fit draws sc onto a new w×h canvas framed to the scene bounds.
func Fit(sc sim.Scene, w, h int) *Canvas {
	lo, hi := sc.Bounds()
	c := NewCanvas(w, h, lo, hi)
	render.Draw(sc, c)
	return c
}

// Size returns the canvas size in cells.
func (c *Canvas) Size() (w, h int) { return c.w, c.h }

// Clear blanks every cell.
func (c *Canvas) Clear() {
	for i := range c.cells {
		c.cells[i] = cell{r: ' '}
	}
}

// ToWorld maps the centre of cell (col, row) to world space.
func (c *Canvas) ToWorld(col, row int) geom.Vec3 {
	return geom.V(
		c.origin.X+(float64(col)+0.5)*c.scale,
		c.origin.Y-(float64(row)+0.5)*c.scale*CellAspect,
		0,
	)
}

// ToCell maps a world point to the cell containing it. ok is false outside
// the canvas.
func (c *Canvas) ToCell(p geom.Vec3) (col, row int, ok bool) {
	col = int(math.Floor((p.X - c.origin.X) / c.scale))
	row = int(math.Floor((c.origin.Y - p.Y) / (c.scale * CellAspect)))
	return col, row, col >= 0 && col < c.w && row >= 0 && row < c.h
}

// At returns the glyph and the id of the entity drawn at (col, row).
func (c *Canvas) At(col, row int) (rune, string) {
	if col < 0 || col >= c.w || row < 0 || row >= c.h {
		return ' ', ""
	}
	cl := c.cells[row*c.w+col]
	return cl.r, cl.id
}

func (c *Canvas) set(col, row int, r rune, color, id string) {
	if col < 0 || col >= c.w || row < 0 || row >= c.h {
		return
	}
	c.cells[row*c.w+col] = cell{r: r, color: color, id: id}
}

// DrawBlob fills the cells inside polygon with a shade that darkens with
// depth.
func (c *Canvas) DrawBlob(id string, depth int, polygon []geom.Vec3, color string) {
	if len(polygon) < 3 {
		return
	}
	shade := shades[min(max(depth, 0), len(shades)-1)]
	lo, hi := geom.Bounds(polygon)
	c0, r0, _ := c.ToCell(geom.V(lo.X, hi.Y, 0))
	c1, r1, _ := c.ToCell(geom.V(hi.X, lo.Y, 0))
	for row := max(r0, 0); row <= min(r1, c.h-1); row++ {
		for col := max(c0, 0); col <= min(c1, c.w-1); col++ {
			if geom.ContainsXY(polygon, c.ToWorld(col, row)) {
				c.set(col, row, shade, color, id)
			}
		}
	}
}

// DrawParticle stamps a particle glyph, filling every cell within radius
// when the particle spans more than one cell.
func (c *Canvas) DrawParticle(id string, pos geom.Vec3, radius float64, color string) {
	col, row, _ := c.ToCell(pos)
	c.set(col, row, glyphParticle, color, id)
	cols := int(radius / c.scale)
	rows := int(radius / (c.scale * CellAspect))
	for dr := -rows; dr <= rows; dr++ {
		for dc := -cols; dc <= cols; dc++ {
			if c.ToWorld(col+dc, row+dr).Distance(geom.V(pos.X, pos.Y, 0)) <= radius {
				c.set(col+dc, row+dr, glyphParticle, color, id)
			}
		}
	}
}

// DrawCore marks the centre of an inner core.
func (c *Canvas) DrawCore(id string, centre geom.Vec3, _ float64) {
	col, row, _ := c.ToCell(centre)
	c.set(col, row, glyphCore, "", id)
}

// DrawRelation draws a dotted line between a and b without overwriting
// particles.
func (c *Canvas) DrawRelation(from, _ string, a, b geom.Vec3) {
	c0, r0, _ := c.ToCell(a)
	c1, r1, _ := c.ToCell(b)
	steps := max(absInt(c1-c0), absInt(r1-r0))
	for i := 0; i <= steps; i++ {
		t := 0.0
		if steps > 0 {
			t = float64(i) / float64(steps)
		}
		col := c0 + int(math.Round(t*float64(c1-c0)))
		row := r0 + int(math.Round(t*float64(r1-r0)))
		if r, _ := c.At(col, row); r == glyphParticle {
			continue
		}
		c.set(col, row, glyphRelation, "", from)
	}
}

// Plain returns the canvas without colour, one line per row.
func (c *Canvas) Plain() string {
	var b strings.Builder
	for row := 0; row < c.h; row++ {
		for col := 0; col < c.w; col++ {
			b.WriteRune(c.cells[row*c.w+col].r)
		}
		if row < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// String renders the canvas with each run of same-coloured cells styled by
// lipgloss.
func (c *Canvas) String() string {
	var b strings.Builder
	for row := 0; row < c.h; row++ {
		start := 0
		for col := 1; col <= c.w; col++ {
			if col < c.w && c.cells[row*c.w+col].color == c.cells[row*c.w+start].color {
				continue
			}
			b.WriteString(c.run(row, start, col))
			start = col
		}
		if row < c.h-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (c *Canvas) run(row, from, to int) string {
	rs := make([]rune, 0, to-from)
	for col := from; col < to; col++ {
		rs = append(rs, c.cells[row*c.w+col].r)
	}
	color := c.cells[row*c.w+from].color
	if color == "" {
		return string(rs)
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(string(rs))
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
