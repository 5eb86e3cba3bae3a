// Package blob turns a cluster's boundary ring into a drawable outline and
// maps pointer gestures on those outlines to visibility changes.
//
// A [Hull] caches the ordered ring of one compound node and rebuilds it only
// when the node's version changes. [Hull.Outline] reads live positions every
// call, expands them away from the ring centroid by each particle's original
// radius, and samples a closed Catmull-Rom curve through them.
//
// [Interaction] implements the click model:
//
//   - a short primary click on a visible node with no visible ancestor hides
//     it and reveals its children (drill in);
//   - a short primary click on a hidden node reveals it only when the click
//     passed through every ancestor's outline (intersections == depth+1);
//     its descendants are hidden on the following tick (drill out);
//   - a context menu resets to the root and hides everything below it on the
//     following tick.
//
// Deferred work is queued and applied by [Interaction.Commit], which the
// simulation calls at the start of each tick. Nothing here uses timers.
package blob
