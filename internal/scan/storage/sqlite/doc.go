// Package sqlite contains SQLite repository implementations for scan
// sessions.
//
// Session metadata and the gob+gzip cloud blob are stored here rather than
// in the layer packages, which stay free of SQL. The schema lives in
// internal/db/migrations.
package sqlite
