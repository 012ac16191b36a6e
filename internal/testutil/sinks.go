package testutil

import (
	"github.com/roach88/a11yq/internal/event"
	"github.com/roach88/a11yq/internal/queue"
)

// DispatchRecorder is a queue.DispatchSink that captures dispatched records
// in order. OnDispatch, when set, runs after each capture; tests use it to
// trigger re-entrant submissions or document teardown mid-flush.
type DispatchRecorder struct {
	Events     []*event.Record
	OnDispatch func(ev *event.Record)
}

// Dispatch implements queue.DispatchSink.
func (r *DispatchRecorder) Dispatch(ev *event.Record) {
	r.Events = append(r.Events, ev)
	if r.OnDispatch != nil {
		r.OnDispatch(ev)
	}
}

// FocusRecorder is a queue.FocusSink that captures focus events.
type FocusRecorder struct {
	Events []*event.Record
}

// ProcessFocusEvent implements queue.FocusSink.
func (r *FocusRecorder) ProcessFocusEvent(ev *event.Record) {
	r.Events = append(r.Events, ev)
}

// SelectionRecorder is a queue.SelectionSink that captures text-selection
// events.
type SelectionRecorder struct {
	Events []*event.Record
}

// ProcessTextSelChange implements queue.SelectionSink.
func (r *SelectionRecorder) ProcessTextSelChange(ev *event.Record) {
	r.Events = append(r.Events, ev)
}

// ChannelRecorder is a queue.Channel that captures cross-process activity.
type ChannelRecorder struct {
	SelectedBatches   [][]uint64
	UnselectedBatches [][]uint64
	MutationFlushes   int
}

// SendSelectedAccessiblesChanged implements queue.Channel.
func (r *ChannelRecorder) SendSelectedAccessiblesChanged(selectedIDs, unselectedIDs []uint64) {
	r.SelectedBatches = append(r.SelectedBatches, selectedIDs)
	r.UnselectedBatches = append(r.UnselectedBatches, unselectedIDs)
}

// FlushQueuedMutationEvents implements queue.Channel.
func (r *ChannelRecorder) FlushQueuedMutationEvents() {
	r.MutationFlushes++
}

// Recorders bundles one recorder per sink for convenient queue construction.
type Recorders struct {
	Dispatch  *DispatchRecorder
	Focus     *FocusRecorder
	Selection *SelectionRecorder
}

// NewRecorders creates a fresh recorder set.
func NewRecorders() *Recorders {
	return &Recorders{
		Dispatch:  &DispatchRecorder{},
		Focus:     &FocusRecorder{},
		Selection: &SelectionRecorder{},
	}
}

// Sinks adapts the recorders to the queue's sink bundle.
func (r *Recorders) Sinks() queue.Sinks {
	return queue.Sinks{
		Dispatch:  r.Dispatch,
		Focus:     r.Focus,
		Selection: r.Selection,
	}
}
