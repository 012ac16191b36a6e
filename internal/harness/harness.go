package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/a11yq/internal/event"
	"github.com/roach88/a11yq/internal/queue"
	"github.com/roach88/a11yq/internal/testutil"
)

// traceRecorder implements every queue sink plus the cross-process channel,
// capturing all interactions in one seq-ordered trace.
type traceRecorder struct {
	clock  *testutil.SeqClock
	labels map[uint64]string
	trace  []TraceEvent
}

func newTraceRecorder() *traceRecorder {
	return &traceRecorder{
		clock:  testutil.NewSeqClock(),
		labels: make(map[uint64]string),
	}
}

func (r *traceRecorder) record(sink string, ev *event.Record) {
	te := TraceEvent{
		Seq:       r.clock.Next(),
		Sink:      sink,
		Type:      ev.Type.String(),
		UserInput: ev.FromUserInput,
	}
	if n, ok := ev.Target.(*testutil.TreeNode); ok {
		te.Target = n.Label()
	}
	if ev.State != nil {
		if name, ok := event.StateNames[ev.State.State]; ok {
			te.State = name
		}
		enabled := ev.State.Enabled
		te.Enabled = &enabled
	}
	r.trace = append(r.trace, te)
}

func (r *traceRecorder) Dispatch(ev *event.Record) { r.record("dispatch", ev) }

func (r *traceRecorder) ProcessFocusEvent(ev *event.Record) { r.record("focus", ev) }

func (r *traceRecorder) ProcessTextSelChange(ev *event.Record) { r.record("selection", ev) }

func (r *traceRecorder) SendSelectedAccessiblesChanged(selectedIDs, unselectedIDs []uint64) {
	r.trace = append(r.trace, TraceEvent{
		Seq:        r.clock.Next(),
		Sink:       "channel",
		Type:       "selected_accessibles_changed",
		Selected:   r.labelIDs(selectedIDs),
		Unselected: r.labelIDs(unselectedIDs),
	})
}

func (r *traceRecorder) FlushQueuedMutationEvents() {
	r.trace = append(r.trace, TraceEvent{
		Seq:  r.clock.Next(),
		Sink: "channel",
		Type: "flush_queued_mutations",
	})
}

func (r *traceRecorder) labelIDs(ids []uint64) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		if label, ok := r.labels[id]; ok {
			out[i] = label
		} else {
			out[i] = fmt.Sprintf("#%d", id)
		}
	}
	return out
}

// Run executes a scenario: build the fake tree, submit every event, flush
// once, then evaluate assertions against the captured trace. Scenario
// execution errors (bad node references, unknown event types) are returned
// as errors; assertion failures land in the result.
func Run(scenario *Scenario) (*Result, error) {
	tree := testutil.NewTree()
	nodes := make(map[string]*testutil.TreeNode, len(scenario.Tree))
	recorder := newTraceRecorder()

	for _, spec := range scenario.Tree {
		node, err := buildNode(tree, nodes, spec)
		if err != nil {
			return nil, err
		}
		nodes[spec.ID] = node
		recorder.labels[node.ID()] = spec.ID
	}
	// Relation edges in a second pass so forward references resolve.
	for _, spec := range scenario.Tree {
		node := nodes[spec.ID]
		for _, ref := range spec.LabelFor {
			node.AddLabelFor(nodes[ref])
		}
		for _, ref := range spec.DescriptionFor {
			node.AddDescriptionFor(nodes[ref])
		}
	}

	doc := testutil.NewDocument()
	sinks := queue.Sinks{Dispatch: recorder, Focus: recorder, Selection: recorder}
	opts := []queue.Option{
		queue.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	if scenario.Channel {
		opts = append(opts, queue.WithChannel(recorder))
	}
	q := queue.New(doc, sinks, tree, tree, opts...)

	for i, spec := range scenario.Events {
		rec, err := buildRecord(spec, nodes)
		if err != nil {
			return nil, fmt.Errorf("scenario %s: events[%d]: %w", scenario.Name, i, err)
		}
		q.Submit(rec)
	}

	// Defunct marks simulate tree mutation between enqueue and flush.
	for _, spec := range scenario.Tree {
		if spec.Defunct {
			nodes[spec.ID].MarkDefunct()
		}
	}

	q.Flush()

	result := NewResult(scenario.Name)
	result.Trace = recorder.trace
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

func buildNode(tree *testutil.Tree, nodes map[string]*testutil.TreeNode, spec NodeSpec) (*testutil.TreeNode, error) {
	var node *testutil.TreeNode
	if spec.Document {
		node = tree.AddDocument(spec.ID)
	} else {
		parent, ok := nodes[spec.Parent]
		if !ok {
			return nil, fmt.Errorf("node %q: unknown parent %q", spec.ID, spec.Parent)
		}
		node = tree.AddNode(spec.ID, parent)
	}

	if spec.FileInput {
		node.MarkFileInput()
	}
	if spec.ReorderContainer {
		node.MarkReorderContainer()
	}
	if spec.Name != "" || spec.NameSource != "" {
		source, err := parseNameSource(spec.NameSource)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", spec.ID, err)
		}
		node.SetName(spec.Name, source)
	}
	node.SetNameFromSubtree(spec.NameFromSubtree)
	if spec.NameFromSubtreeIfRequested != nil {
		node.SetNameFromSubtreeIfRequested(*spec.NameFromSubtreeIfRequested)
	}
	node.SetNameDependents(spec.NameDependents)
	node.SetDescriptionDependents(spec.DescriptionDependents)
	return node, nil
}

func parseNameSource(s string) (queue.NameSource, error) {
	switch s {
	case "", "computed":
		return queue.NameSourceComputed, nil
	case "subtree":
		return queue.NameSourceFromSubtree, nil
	case "tooltip":
		return queue.NameSourceFromTooltip, nil
	case "relation":
		return queue.NameSourceFromRelation, nil
	}
	return 0, fmt.Errorf("unknown name source %q", s)
}

func buildRecord(spec EventSpec, nodes map[string]*testutil.TreeNode) (*event.Record, error) {
	typ, err := event.ParseType(spec.Type)
	if err != nil {
		return nil, err
	}

	target := func() (*testutil.TreeNode, error) {
		if n, ok := nodes[spec.Target]; ok {
			return n, nil
		}
		return nil, fmt.Errorf("%s event has no target", spec.Type)
	}
	widgetItem := func() (*testutil.TreeNode, *testutil.TreeNode, error) {
		w, okW := nodes[spec.Widget]
		i, okI := nodes[spec.Item]
		if !okW || !okI {
			return nil, nil, fmt.Errorf("%s event needs widget and item", spec.Type)
		}
		return w, i, nil
	}

	var rec *event.Record
	switch typ {
	case event.TypeFocus:
		n, err := target()
		if err != nil {
			return nil, err
		}
		rec = event.NewFocus(n)
	case event.TypeReorder:
		n, err := target()
		if err != nil {
			return nil, err
		}
		rec = event.NewReorder(n)
	case event.TypeStateChange:
		n, err := target()
		if err != nil {
			return nil, err
		}
		if spec.State == "" {
			return nil, fmt.Errorf("state_change requires a state")
		}
		bit, err := event.ParseState(spec.State)
		if err != nil {
			return nil, err
		}
		rec = event.NewStateChange(n, bit, spec.Enabled)
	case event.TypeSelectionAdd:
		w, i, err := widgetItem()
		if err != nil {
			return nil, err
		}
		rec = event.NewSelChange(w, i, event.SelectionAdd)
	case event.TypeSelectionRemove:
		w, i, err := widgetItem()
		if err != nil {
			return nil, err
		}
		rec = event.NewSelChange(w, i, event.SelectionRemove)
	case event.TypeSelection:
		w, i, err := widgetItem()
		if err != nil {
			return nil, err
		}
		change := event.SelectionAdd
		if spec.Change == "remove" {
			change = event.SelectionRemove
		}
		rec = event.NewSingleSelection(w, i, change)
	case event.TypeTextSelectionChanged:
		n, err := target()
		if err != nil {
			return nil, err
		}
		rec = event.NewTextSelChange(n, spec.Selection)
	default:
		n, err := target()
		if err != nil {
			return nil, err
		}
		rec = event.New(typ, n)
	}

	rec.FromUserInput = spec.UserInput
	return rec, nil
}
