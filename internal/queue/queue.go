package queue

import (
	"io"
	"log/slog"

	"github.com/roach88/a11yq/internal/event"
)

// DispatchSink delivers an event to in-process observers and assistive
// technology bridges. Dispatch may synchronously trigger further tree
// mutation (and thus further submissions) or tear the document down.
type DispatchSink interface {
	Dispatch(ev *event.Record)
}

// FocusSink receives the single fast-laned focus event of a cycle.
type FocusSink interface {
	ProcessFocusEvent(ev *event.Record)
}

// SelectionSink receives text-selection-changed events, which bypass the
// generic dispatch sink.
type SelectionSink interface {
	ProcessTextSelChange(ev *event.Record)
}

// Channel is the optional cross-process delivery surface. A nil Channel on
// the queue means cross-process delivery is inactive and selection deltas
// are not collected.
type Channel interface {
	// SendSelectedAccessiblesChanged pushes one batched selection delta for
	// the cycle.
	SendSelectedAccessiblesChanged(selectedIDs, unselectedIDs []uint64)
	// FlushQueuedMutationEvents flushes separately-queued mutation
	// notifications so they keep their order relative to generic events.
	FlushQueuedMutationEvents()
}

// RelationKind selects a relation edge set for propagation.
type RelationKind int

const (
	// RelationLabelFor yields the accessibles labelled by a node.
	RelationLabelFor RelationKind = iota + 1
	// RelationDescriptionFor yields the accessibles described by a node.
	RelationDescriptionFor
)

// RelationResolver resolves relation edges in the external accessible tree.
// The returned slice is a fresh snapshot per call.
type RelationResolver interface {
	RelatedTargets(n event.Node, kind RelationKind) []event.Node
}

// NameSource reports where a computed name came from.
type NameSource int

const (
	// NameSourceComputed is an ordinary author-provided or attribute name.
	NameSourceComputed NameSource = iota + 1
	// NameSourceFromSubtree means the name was assembled from subtree text.
	NameSourceFromSubtree
	// NameSourceFromTooltip means the name fell back to a tooltip.
	NameSourceFromTooltip
	// NameSourceFromRelation means the name came from an explicit relation.
	NameSourceFromRelation
)

// NameOracle answers name/description dependency questions for the external
// name-computation algorithm. The queue consumes it, never implements it.
type NameOracle interface {
	// ComputeName returns the node's current name and its provenance. An
	// empty name with NameSourceComputed means the name is void.
	ComputeName(n event.Node) (string, NameSource)
	// NameFromSubtree reports whether the node's name rule derives the name
	// from subtree content unconditionally.
	NameFromSubtree(n event.Node) bool
	// NameFromSubtreeIfRequested reports whether the node's name rule
	// permits subtree derivation on request; the ancestor walk continues
	// only through such nodes.
	NameFromSubtreeIfRequested(n event.Node) bool
	// HasNameDependents reports whether any accessible's name depends on
	// this node's subtree.
	HasNameDependents(n event.Node) bool
	// HasDescriptionDependents reports whether any accessible's description
	// depends on this node's subtree.
	HasDescriptionDependents(n event.Node) bool
}

// Document is the owning document handle. Flush aborts between events once
// the document is gone.
type Document interface {
	Alive() bool
}

// Sinks bundles the mandatory delivery surfaces injected at construction.
type Sinks struct {
	Dispatch  DispatchSink
	Focus     FocusSink
	Selection SelectionSink
}

// Queue is the per-document event buffer. Not safe for concurrent use; all
// methods must be called from the tree-mutation thread.
type Queue struct {
	doc       Document
	sinks     Sinks
	names     NameOracle
	relations RelationResolver
	channel   Channel
	logger    *slog.Logger

	events       []*event.Record
	pendingFocus *event.Record
}

// Option configures a Queue.
type Option func(*Queue)

// WithChannel activates cross-process delivery.
func WithChannel(ch Channel) Option {
	return func(q *Queue) {
		q.channel = ch
	}
}

// WithLogger replaces the default discard logger.
func WithLogger(l *slog.Logger) Option {
	return func(q *Queue) {
		q.logger = l
	}
}

// New creates an empty queue for a document. All collaborators are injected
// here; the queue holds no ambient state.
func New(doc Document, sinks Sinks, names NameOracle, relations RelationResolver, opts ...Option) *Queue {
	q := &Queue{
		doc:       doc,
		sinks:     sinks,
		names:     names,
		relations: relations,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Len returns the number of buffered records, suppressed ones included.
// The pending focus event is not counted.
func (q *Queue) Len() int {
	return len(q.events)
}

// PendingFocus reports whether a focus event is waiting in the fast lane.
func (q *Queue) PendingFocus() bool {
	return q.pendingFocus != nil
}

// Submit stores an event for the current cycle and coalesces it against the
// pending buffer. It returns true when the record was retained (in the FIFO
// or the focus slot, even if marked do-not-emit by coalescing) and false
// when it was dropped outright as an exact duplicate.
//
// Submit is re-entrant: name/description propagation for the record calls
// back into Submit for each synthesized secondary event.
func (q *Queue) Submit(ev *event.Record) bool {
	if ev.Type == event.TypeFocus {
		// Fast lane: only the most recent pending focus survives.
		q.pendingFocus = ev
		q.logger.Debug("focus event fast-laned")
		return true
	}

	if ev.Rule == event.RuleRemoveDupes && len(q.events) > 0 {
		// Exact duplicates are rejected before insertion. Coalescing never
		// removes records, it only marks them do-not-emit; appending every
		// duplicate would grow the buffer and make each coalescing pass
		// slower than the last.
		for i := len(q.events) - 1; i >= 0; i-- {
			prior := q.events[i]
			if prior.Type == ev.Type && prior.Rule == ev.Rule && prior.Target == ev.Target {
				ev.Rule = event.RuleDoNotEmit
				q.logger.Debug("exact duplicate dropped", "type", ev.Type.String())
				return false
			}
		}
	}

	q.events = append(q.events, ev)
	q.coalesce()

	if ev.Type == event.TypeNameChange || ev.Type == event.TypeTextRemoved ||
		ev.Type == event.TypeTextInserted {
		assertf(ev.Rule != event.RuleDoNotEmit,
			"coalescing suppressed a %s record before propagation", ev.Type)
		q.propagate(ev)
	}
	return true
}
