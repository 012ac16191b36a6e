// Package queue implements the per-document accessibility event queue:
// submission with duplicate suppression, rule-driven coalescing of pending
// records, synthesis of dependent name/description changes, and ordered
// flush to the dispatch sinks.
//
// The queue runs on a single logical thread. Submission may re-enter itself
// (propagation submits secondary events through the same path) but is never
// called concurrently, so no locking is used. Flush moves the pending buffer
// out before iterating; re-entrant submissions triggered by dispatch
// callbacks land in a fresh buffer for the next cycle.
//
// Ordering invariants:
//   - A pending focus event is always dispatched first.
//   - All other events replay in insertion order.
//   - Records marked do-not-emit stay in the buffer (index stability for the
//     coalescing pass) and are skipped at flush.
package queue
