// Package pkg holds the libraries behind the emergence simulator.
//
// # Overview
//
// Emergence grows a tree of entities from the bottom up. Leaf particles are
// rigid bodies in a physics world; every compound entity forms by binding
// its children into a ring of joints, and the ring's outer particles give
// the compound a smooth outline that can be clicked to drill into it.
//
// # Architecture
//
// The data flow for one tick:
//
//	[config] entity counts and tunables
//	     ↓
//	[entity] tree arena (nodes, joints, relations)
//	     ↓
//	[growth] per-compound engines spawn and bond children via [joints]
//	     ↓
//	[physics] world step
//	     ↓
//	[boundary] + [blob] outer rings become outlines and click targets
//	     ↓
//	[render] SVG, Graphviz or terminal output
//
// [sim] wires these together and owns the tick loop. [cache] stores rendered
// artifacts, [observability] exposes hooks for logging and metrics, and
// [errors] defines the shared error codes.
package pkg
