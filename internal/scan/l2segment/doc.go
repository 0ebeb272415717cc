// Package l2segment owns Layer 2 (Segmentation) of the scan data model.
//
// Responsibilities: turning a raw or laser-difference frame into a binary
// mask that isolates the laser stripe (or a colour-threshold silhouette).
// The pipeline is box blur, morphological opening, RGB to HSV conversion and
// an inclusive HSV range threshold; each smoothing step is optional.
// Key types: Config, HSV, ConfigError.
//
// Dependency rule: L2 depends on no other scan layer. All functions are pure;
// nothing outside the returned images is mutated.
package l2segment
