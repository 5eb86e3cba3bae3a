// Package entity holds the entity tree that the simulation grows.
//
// A [Graph] is an arena of [Node] values addressed by stable string ids.
// Compound nodes own an ordered list of child ids and a chain: the adjacency
// between leaf particles created by the joints they own. Particle nodes are
// the leaves; they carry a physics body once mounted.
//
// # Ids
//
// The root is "root". Children append their index: "root.0", "root.0.2".
// Joint ids are the canonical pair of particle ids, see [JointID].
//
// # Versions
//
// Every node carries a membership version. Mounting or unmounting a particle,
// adding or removing a joint, or touching a node after its outer flags change
// bumps the version of that node and of every ancestor, so consumers such as
// blob hulls can rebuild only when something under them changed.
//
// A Graph is not safe for concurrent use; the simulation mutates it from its
// tick loop only.
package entity
