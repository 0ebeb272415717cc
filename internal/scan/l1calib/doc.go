// Package l1calib owns Layer 1 (Calibration) of the scan data model.
//
// Responsibilities: camera intrinsics and laser-plane geometry, and the
// derived per-pixel lookup tables (radial distance and height) used by the
// coordinate mapper.
// Key types: Params, LookupTables, CalibrationError.
//
// Dependency rule: L1 depends on no other scan layer.
package l1calib
