// Package dot exports the entity tree as a Graphviz diagram.
//
// Compounds appear as rounded boxes filled with their colour, particles as
// small circles, and joints as undirected dashed edges between particles
// (with Joints set). Relation edges are drawn as dotted arrows.
//
//	src := dot.ToDOT(g, dot.Options{Detailed: true})
//	svg, err := dot.RenderSVG(ctx, src)
package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/emergence/pkg/entity"
	"github.com/matzehuels/emergence/pkg/observability"
)

// Options configures DOT generation.
type Options struct {
	// Detailed adds depth, radius and membership counts to labels.
	Detailed bool
	// Joints draws physics joints between particles.
	Joints bool
	// Relations draws relation edges.
	Relations bool
	// MaxDepth stops descending below this depth; 0 draws everything.
	MaxDepth int
}

// ToDOT converts the tree under the root of g to DOT source.
func ToDOT(g *entity.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  ranksep=0.4;\n")
	buf.WriteString("  nodesep=0.25;\n")
	buf.WriteString("\n")

	var edges []string
	g.Walk(entity.RootID, func(n *entity.Node) bool {
		if opts.MaxDepth > 0 && n.Depth > opts.MaxDepth {
			return false
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(fmtAttrs(g, n, opts.Detailed), ", "))
		if n.ParentID != "" {
			edges = append(edges, fmt.Sprintf("  %q -> %q;\n", n.ParentID, n.ID))
		}
		return true
	})

	buf.WriteString("\n")
	for _, e := range edges {
		buf.WriteString(e)
	}
	if opts.Joints {
		for _, j := range g.Joints() {
			if !drawn(g, j.BodyA, opts.MaxDepth) || !drawn(g, j.BodyB, opts.MaxDepth) {
				continue
			}
			fmt.Fprintf(&buf, "  %q -> %q [dir=none, style=dashed, color=grey, constraint=false];\n", j.BodyA, j.BodyB)
		}
	}
	if opts.Relations {
		g.Walk(entity.RootID, func(n *entity.Node) bool {
			for _, to := range g.Relations(n.ID) {
				if drawn(g, n.ID, opts.MaxDepth) && drawn(g, to, opts.MaxDepth) {
					fmt.Fprintf(&buf, "  %q -> %q [style=dotted, color=\"#888888\", constraint=false];\n", n.ID, to)
				}
			}
			return true
		})
	}
	buf.WriteString("}\n")
	return buf.String()
}

func drawn(g *entity.Graph, id string, maxDepth int) bool {
	n, ok := g.Node(id)
	return ok && (maxDepth == 0 || n.Depth <= maxDepth)
}

func fmtLabel(g *entity.Graph, n *entity.Node, detailed bool) string {
	if !detailed {
		return n.ID
	}
	parts := []string{fmt.Sprintf("depth: %d", n.Depth), fmt.Sprintf("radius: %.2f", n.Visual.Radius)}
	if n.IsParticle() {
		parts = append(parts, fmt.Sprintf("index: %d", n.Visual.UniqueID))
	} else {
		parts = append(parts,
			fmt.Sprintf("particles: %d", len(g.AllParticles(n.ID))),
			fmt.Sprintf("joints: %d", len(n.Joints)))
	}
	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(g *entity.Graph, n *entity.Node, detailed bool) []string {
	attrs := []string{fmt.Sprintf("label=%q", fmtLabel(g, n, detailed))}
	if n.Visual.Color != "" {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", n.Visual.Color))
	}
	if n.IsParticle() {
		attrs = append(attrs, "shape=circle", "fontsize=10")
	}
	if !n.Visual.Visible && !n.IsParticle() {
		attrs = append(attrs, "style=\"rounded,filled,dashed\"")
	}
	return attrs
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, src string) (out []byte, err error) {
	hooks := observability.Render()
	hooks.OnRenderStart(ctx, "dot-svg")
	start := time.Now()
	defer func() { hooks.OnRenderComplete(ctx, "dot-svg", len(out), time.Since(start), err) }()

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(src))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-sized svg header with one whose
// viewBox starts at the origin and whose size matches it.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
