// Package joints binds sibling entities together with physics joints.
//
// [Manager] is the only place that talks to the physics world about joints:
// it creates handles, registers them in the entity graph (which keeps the
// owner's chain symmetric), removes them again and rescales anchors.
//
// Formation of a cluster in one step goes through [Manager.InitializeJoints]:
// siblings are treated as the vertices of a ring, each ring edge gets one
// joint between the particles closest to the edge midpoint, and every
// particle under the cluster is then flagged as on or off the cluster's
// boundary for that depth.
//
// Anchors always sit on particle surfaces: the offset from a body's centre
// points at the partner and has the body's radius as its length, expressed
// in the body's local frame.
package joints
