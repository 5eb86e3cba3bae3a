// Package growth grows a compound entity one child at a time.
//
// An [Engine] belongs to one compound node. Each call to [Engine.Step] does
// at most one unit of work, so a simulation ticking every engine once per
// frame never instantiates two children of the same cluster in one tick.
//
// # Shapes
//
// The first four children build fixed shapes around the cluster origin:
//
//	i=0  point     no joint
//	i=1  line      e0-e1
//	i=2  triangle  e1-e2, e2-e0 (clockwise)
//	i=3  diamond   anchors widened, front joint split with anchors
//	               recomputed from the bodies' positions
//
// From i=4 on every child is a ring insertion: it is placed at the midpoint
// of the joint at the front of the active queue, that joint is replaced by
// two joints through the new child, and both new ids go to the back of the
// queue. The queue therefore always lists the current polygon edges.
//
// After every insertion beyond two children the anchors of all active joints
// are rotated to the polygon's interior half-angle so the ring stays close
// to regular.
//
// Compound children are joined through a representative particle: the one
// closest to the partner it is being joined to, passing over particles the
// child already has a joint in this cluster on. Each compound child thus
// meets its two ring neighbours at different particles and the cluster
// boundary runs through it.
//
// Once every child is attached and mounted, settling hands the tracked ring
// to [joints.Manager.InitializeJoints], which adopts the growth joints,
// adds any ring pair they miss and flags the outer particles.
package growth
