// Package l4geometry owns Layer 4 (Geometry) of the scan data model.
//
// Responsibilities: mapping per-column row samples to 3D points with the
// calibrated lookup tables and the platform angle, and the cylindrical
// region-of-interest filter applied to the result.
// Key types: Batch, Color, RangeConfig.
//
// Dependency rule: L4 may depend on L1-L3, but never on L5+.
package l4geometry
