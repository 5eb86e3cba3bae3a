// Package svg renders simulation scenes as standalone SVG documents.
//
// World coordinates are mapped into the document with the y axis flipped so
// that +y points up, as in the simulation. Blobs get an id of the form
// "blob-<node id>" and a small script highlights the hovered outline.
package svg

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/emergence/pkg/geom"
	"github.com/matzehuels/emergence/pkg/render"
	"github.com/matzehuels/emergence/pkg/sim"
)

const blobInteractionCSS = `
    .blob { transition: stroke-width 0.2s ease, fill-opacity 0.2s ease; }
    .blob.highlight { stroke-width: 3; fill-opacity: 0.55; }
    .blob-label { pointer-events: none; }`

const blobInteractionJS = `
    document.querySelectorAll('.blob').forEach(el => {
      el.addEventListener('mouseenter', () => el.classList.add('highlight'));
      el.addEventListener('mouseleave', () => el.classList.remove('highlight'));
    });`

// Option configures the renderer.
type Option func(*renderer)

func WithWidth(px float64) Option      { return func(r *renderer) { r.width = px } }
func WithLabels() Option               { return func(r *renderer) { r.labels = true } }
func WithCores() Option                { return func(r *renderer) { r.cores = true } }
func WithBackground(c string) Option   { return func(r *renderer) { r.background = c } }
func WithPadding(world float64) Option { return func(r *renderer) { r.padding = world } }

type renderer struct {
	width      float64
	padding    float64
	labels     bool
	cores      bool
	background string

	buf    bytes.Buffer
	min    geom.Vec3
	scale  float64
	height float64
}

func newRenderer(opts ...Option) *renderer {
	r := &renderer{width: 800, padding: 2}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render returns sc as an SVG document.
func Render(sc sim.Scene, opts ...Option) []byte {
	r := newRenderer(opts...)
	r.fit(sc)

	fmt.Fprintf(&r.buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.1f %.1f" width="%.0f" height="%.0f" data-run="%s" data-tick="%d">`+"\n",
		r.width, r.height, r.width, r.height, sc.RunID, sc.Tick)
	if r.background != "" {
		fmt.Fprintf(&r.buf, `  <rect width="100%%" height="100%%" fill="%s"/>`+"\n", r.background)
	}
	render.Draw(sc, r)
	if r.labels {
		for _, b := range sc.Blobs {
			c := r.point(geom.Centroid(b.Outline))
			fmt.Fprintf(&r.buf, `  <text class="blob-label" x="%.2f" y="%.2f" text-anchor="middle" font-size="12">%s</text>`+"\n",
				c.X, c.Y, escape(b.ID))
		}
	}
	fmt.Fprintf(&r.buf, "  <style>%s\n  </style>\n", blobInteractionCSS)
	fmt.Fprintf(&r.buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", blobInteractionJS)
	r.buf.WriteString("</svg>\n")
	return r.buf.Bytes()
}

// fit chooses the world-to-document transform so the scene fills width.
func (r *renderer) fit(sc sim.Scene) {
	lo, hi := sc.Bounds()
	pad := geom.V(r.padding, r.padding, 0)
	lo, hi = lo.Sub(pad), hi.Add(pad)
	w, h := hi.X-lo.X, hi.Y-lo.Y
	if w <= 0 || h <= 0 {
		w, h = 1, 1
	}
	r.min = geom.V(lo.X, hi.Y, 0)
	r.scale = r.width / w
	r.height = h * r.scale
}

func (r *renderer) point(p geom.Vec3) geom.Vec3 {
	return geom.V((p.X-r.min.X)*r.scale, (r.min.Y-p.Y)*r.scale, 0)
}

func (r *renderer) DrawBlob(id string, depth int, polygon []geom.Vec3, color string) {
	if len(polygon) < 3 {
		return
	}
	var d strings.Builder
	for i, p := range polygon {
		q := r.point(p)
		if i == 0 {
			fmt.Fprintf(&d, "M%.2f,%.2f", q.X, q.Y)
			continue
		}
		fmt.Fprintf(&d, " L%.2f,%.2f", q.X, q.Y)
	}
	d.WriteString(" Z")
	fmt.Fprintf(&r.buf, `  <path id="blob-%s" class="blob depth-%d" d="%s" fill="%s" fill-opacity="0.35" stroke="%s" stroke-width="1.5"/>`+"\n",
		escape(id), depth, d.String(), color, color)
}

func (r *renderer) DrawParticle(id string, pos geom.Vec3, radius float64, color string) {
	c := r.point(pos)
	fmt.Fprintf(&r.buf, `  <circle id="particle-%s" class="particle" cx="%.2f" cy="%.2f" r="%.2f" fill="%s"/>`+"\n",
		escape(id), c.X, c.Y, radius*r.scale, color)
}

func (r *renderer) DrawCore(id string, centre geom.Vec3, radius float64) {
	if !r.cores {
		return
	}
	c := r.point(centre)
	fmt.Fprintf(&r.buf, `  <circle class="core" data-entity="%s" cx="%.2f" cy="%.2f" r="%.2f" fill="none" stroke="#999" stroke-dasharray="2 2"/>`+"\n",
		escape(id), c.X, c.Y, radius*r.scale)
}

func (r *renderer) DrawRelation(from, to string, a, b geom.Vec3) {
	p, q := r.point(a), r.point(b)
	fmt.Fprintf(&r.buf, `  <line class="relation" data-from="%s" data-to="%s" x1="%.2f" y1="%.2f" x2="%.2f" y2="%.2f" stroke="#888" stroke-opacity="0.6"/>`+"\n",
		escape(from), escape(to), p.X, p.Y, q.X, q.Y)
}

var escaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escape(s string) string { return escaper.Replace(s) }
