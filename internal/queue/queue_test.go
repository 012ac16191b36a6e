package queue_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/a11yq/internal/event"
	"github.com/roach88/a11yq/internal/queue"
	"github.com/roach88/a11yq/internal/testutil"
)

func init() {
	queue.Assertions = true
}

// fixture wires a queue against a fake tree and recording sinks.
type fixture struct {
	tree      *testutil.Tree
	doc       *testutil.Document
	recorders *testutil.Recorders
	channel   *testutil.ChannelRecorder
	queue     *queue.Queue
}

func newFixture(opts ...queue.Option) *fixture {
	f := &fixture{
		tree:      testutil.NewTree(),
		doc:       testutil.NewDocument(),
		recorders: testutil.NewRecorders(),
	}
	f.queue = queue.New(f.doc, f.recorders.Sinks(), f.tree, f.tree, opts...)
	return f
}

func newChannelFixture() *fixture {
	ch := &testutil.ChannelRecorder{}
	f := newFixture(queue.WithChannel(ch))
	f.channel = ch
	return f
}

// dispatched returns "type:label" descriptors of generic-sink dispatches.
func (f *fixture) dispatched() []string {
	var out []string
	for _, ev := range f.recorders.Dispatch.Events {
		label := "<nil>"
		if n, ok := ev.Target.(*testutil.TreeNode); ok {
			label = n.Label()
		}
		out = append(out, fmt.Sprintf("%s:%s", ev.Type, label))
	}
	return out
}

func TestQueue_FocusFastLane(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)
	b := f.tree.AddNode("b", doc)

	require.True(t, f.queue.Submit(event.NewFocus(a)))
	require.True(t, f.queue.Submit(event.NewFocus(b)))

	// Focus events never enter the FIFO.
	assert.Equal(t, 0, f.queue.Len())
	assert.True(t, f.queue.PendingFocus())

	f.queue.Flush()

	// Only the most recent pending focus survives the slot.
	require.Len(t, f.recorders.Focus.Events, 1)
	assert.Same(t, b, f.recorders.Focus.Events[0].Target)
}

func TestQueue_RemoveDupes_DropsExactDuplicate(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)

	first := event.New(event.TypeNameChange, a)
	dup := event.New(event.TypeNameChange, a)

	require.True(t, f.queue.Submit(first))
	assert.False(t, f.queue.Submit(dup), "exact duplicate should not be retained")

	// The duplicate never entered the FIFO but was still marked.
	assert.Equal(t, 1, f.queue.Len())
	assert.Equal(t, event.RuleDoNotEmit, dup.Rule)

	f.queue.Flush()
	assert.Equal(t, []string{"name_change:a"}, f.dispatched())
}

func TestQueue_RemoveDupes_ScansWholeBuffer(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)
	b := f.tree.AddNode("b", doc)

	require.True(t, f.queue.Submit(event.New(event.TypeDescriptionChange, a)))
	require.True(t, f.queue.Submit(event.New(event.TypeDescriptionChange, b)))

	// The duplicate of the first event is separated from it by another
	// record; the pre-insertion scan still finds it.
	dup := event.New(event.TypeDescriptionChange, a)
	assert.False(t, f.queue.Submit(dup))
	assert.Equal(t, 2, f.queue.Len())
}

func TestQueue_RemoveDupes_DifferentTargetRetained(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)
	b := f.tree.AddNode("b", doc)

	require.True(t, f.queue.Submit(event.New(event.TypeNameChange, a)))
	assert.True(t, f.queue.Submit(event.New(event.TypeNameChange, b)))
	assert.Equal(t, 2, f.queue.Len())
}

func TestQueue_CoalescedRecordIsStillRetained(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)
	b := f.tree.AddNode("b", doc)

	older := &event.Record{Type: event.TypeTextSelectionChanged,
		Rule: event.RuleCoalesceOfSameType, Target: a}
	newer := &event.Record{Type: event.TypeTextSelectionChanged,
		Rule: event.RuleCoalesceOfSameType, Target: b}

	require.True(t, f.queue.Submit(older))
	assert.True(t, f.queue.Submit(newer), "coalesced-away records still count as retained")

	// Suppressed records stay in the buffer for index stability.
	assert.Equal(t, event.RuleDoNotEmit, older.Rule)
	assert.Equal(t, 2, f.queue.Len())
}

func TestQueue_FlushEmptyIsNoOp(t *testing.T) {
	f := newChannelFixture()

	f.queue.Flush()

	assert.Empty(t, f.recorders.Dispatch.Events)
	assert.Empty(t, f.recorders.Focus.Events)
	assert.Empty(t, f.recorders.Selection.Events)
	assert.Empty(t, f.channel.SelectedBatches)
	assert.Zero(t, f.channel.MutationFlushes)
}

func TestQueue_FlushSkipsDefunctTargets(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)
	b := f.tree.AddNode("b", doc)

	f.queue.Submit(event.New(event.TypeNameChange, a))
	f.queue.Submit(event.New(event.TypeNameChange, b))

	// The tree mutated between enqueue and flush.
	a.MarkDefunct()

	f.queue.Flush()
	assert.Equal(t, []string{"name_change:b"}, f.dispatched())
}

func TestQueue_FlushSkipsDefunctFocus(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)

	f.queue.Submit(event.NewFocus(a))
	a.MarkDefunct()

	f.queue.Flush()
	assert.Empty(t, f.recorders.Focus.Events)
}

func TestQueue_TeardownAbortsFlush(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)
	b := f.tree.AddNode("b", doc)

	f.queue.Submit(event.New(event.TypeNameChange, a))
	f.queue.Submit(event.New(event.TypeNameChange, b))

	f.recorders.Dispatch.OnDispatch = func(ev *event.Record) {
		f.doc.Teardown()
	}

	// Teardown is a defined early exit, not an error.
	f.queue.Flush()
	assert.Equal(t, []string{"name_change:a"}, f.dispatched())
}

func TestQueue_ReentrantSubmitPopulatesNextCycle(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)
	b := f.tree.AddNode("b", doc)

	f.queue.Submit(event.New(event.TypeNameChange, a))

	submitted := false
	f.recorders.Dispatch.OnDispatch = func(ev *event.Record) {
		if !submitted {
			submitted = true
			f.queue.Submit(event.New(event.TypeNameChange, b))
		}
	}

	f.queue.Flush()

	// The re-entrant submission must not extend the in-progress flush.
	assert.Equal(t, []string{"name_change:a"}, f.dispatched())
	assert.Equal(t, 1, f.queue.Len())

	f.queue.Flush()
	assert.Equal(t, []string{"name_change:a", "name_change:b"}, f.dispatched())
}

func TestQueue_TextSelectionRoutedToSelectionSink(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)

	f.queue.Submit(event.NewTextSelChange(a, "sel-1"))
	f.queue.Flush()

	assert.Empty(t, f.recorders.Dispatch.Events)
	require.Len(t, f.recorders.Selection.Events, 1)
	assert.Equal(t, "sel-1", f.recorders.Selection.Events[0].TextSel.SelectionID)
}

func TestQueue_MutationChannelFlushAfterTextAndReorder(t *testing.T) {
	f := newChannelFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)

	f.queue.Submit(event.New(event.TypeTextInserted, a))
	f.queue.Submit(event.NewReorder(doc))
	f.queue.Submit(event.New(event.TypeNameChange, a))

	f.queue.Flush()

	// One immediate channel flush per text/reorder dispatch, none for the
	// name change.
	assert.Equal(t, 2, f.channel.MutationFlushes)
}
