// Package database provides the SQLite-backed probe cache.
//
// Listing a directory probes every video in it, and each probe spawns an
// external process. Results are cached per path and invalidated when the
// file's size or modification time changes. Job status is deliberately not
// stored here; it lives in memory only.
//
// The database uses WAL mode and creates its schema on open.
package database
