// Package geometry converts paired spherical readings into Cartesian
// points and measures how far each test point lands from its reference.
//
// The angular convention is fixed: theta is elevation from +X toward +Z
// and phi is azimuth from +X toward +Y about the Z axis. It differs from
// the ISO inclination-from-+Z convention and recorded comparisons depend on
// it, so it must stay as written.
package geometry
