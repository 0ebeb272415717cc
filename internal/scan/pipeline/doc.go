// Package pipeline is the composition root of the scanner core.
//
// Engine wires the layer packages (l1calib, l2segment, l3columns,
// l4geometry, l5cloud) into the per-frame flow
//
//	diff -> segment -> extract -> map -> filter -> accumulate
//
// and owns the scan session lifecycle. Persistence and publishing are
// adapters reached through small interfaces (SessionRecorder); none of the
// layer packages import pipeline/.
package pipeline
