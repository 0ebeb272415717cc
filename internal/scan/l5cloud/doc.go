// Package l5cloud owns Layer 5 (Cloud) of the scan data model.
//
// Responsibilities: the session point cloud, the bounded increment queue
// that publishes each frame's delta to asynchronous consumers, and the PLY
// ASCII codec for the finished cloud.
// Key types: Delta, Cloud, Queue, Accumulator.
//
// Dependency rule: L5 may depend on L1-L4, but never on pipeline, storage
// or stream.
package l5cloud
