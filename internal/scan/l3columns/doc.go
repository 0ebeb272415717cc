// Package l3columns owns Layer 3 (Columns) of the scan data model.
//
// Responsibilities: reducing each mask column that carries signal to one
// representative row, either by argmax with a run-length correction
// (compact) or by an intensity-weighted centroid (weighted).
// Key types: Mode, Sample.
//
// Dependency rule: L3 may depend on L2 image conventions, never on L4+.
package l3columns
