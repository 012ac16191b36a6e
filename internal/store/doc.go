// Package store provides durable storage for recorded flush cycles.
//
// Each replayed scenario becomes one cycle row plus one dispatch row per
// trace entry, keyed by (cycle, seq) so re-recording a cycle is idempotent.
// SQLite with WAL mode backs the store; reads always return dispatches in
// seq order so a recorded cycle replays deterministically.
package store
