// Package geom provides the small amount of 3D vector math the simulation
// needs: vectors, unit quaternions, centroids, closed Catmull-Rom sampling and
// planar point-in-polygon tests.
//
// Everything here is value-typed and allocation-light. Vectors are float64 so
// that anchor angle checks hold to 1e-4 without accumulated float32 drift.
package geom
