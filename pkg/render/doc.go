// Package render draws simulation scenes.
//
// # Overview
//
// A [Layer] is anything that can draw blob outlines and particles. [Draw]
// walks a [sim.Scene] and feeds it to a layer in paint order: blobs
// shallowest first, then relations, cores and particles. Layers that also
// implement [CoreDrawer] or [RelationDrawer] receive those extras.
//
// Sinks live in subpackages:
//   - [svg]: standalone SVG documents with hover highlighting
//   - [dot]: the entity tree as Graphviz DOT, rendered in-process
//   - [term]: a character canvas for the terminal viewer
//
// [svg]: github.com/matzehuels/emergence/pkg/render/svg
// [dot]: github.com/matzehuels/emergence/pkg/render/dot
// [term]: github.com/matzehuels/emergence/pkg/render/term
package render
