// Package event defines the accessibility notification records that flow
// through the per-document event queue.
//
// A Record is immutable after construction except for its coalescing Rule
// and, for selection events, the packing bookkeeping mutated by the queue's
// coalescer. Rule-specific payloads are modeled as a tagged union: exactly
// one of the payload pointers (State, Sel, TextSel) is non-nil, selected by
// the record's Type.
//
// Records hold weak references to accessible nodes through the Node
// interface. The nodes are owned by an external tree that may mutate between
// enqueue and flush; every use must be preceded by an IsValid check.
package event
