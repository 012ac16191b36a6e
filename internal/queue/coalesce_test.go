package queue_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/a11yq/internal/event"
)

func TestCoalesce_SameType_SuppressesNearestOlder(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)
	b := f.tree.AddNode("b", doc)
	c := f.tree.AddNode("c", doc)

	e1 := &event.Record{Type: event.TypeDescriptionChange, Rule: event.RuleCoalesceOfSameType, Target: a}
	e2 := &event.Record{Type: event.TypeDescriptionChange, Rule: event.RuleCoalesceOfSameType, Target: b}
	e3 := &event.Record{Type: event.TypeDescriptionChange, Rule: event.RuleCoalesceOfSameType, Target: c}

	f.queue.Submit(e1)
	f.queue.Submit(e2)

	// e2 suppressed e1; e3 suppresses e2 and stops there.
	assert.Equal(t, event.RuleDoNotEmit, e1.Rule)

	f.queue.Submit(e3)
	assert.Equal(t, event.RuleDoNotEmit, e2.Rule)
	assert.Equal(t, event.RuleCoalesceOfSameType, e3.Rule)

	f.queue.Flush()
	assert.Equal(t, []string{"description_change:c"}, f.dispatched())
}

func TestCoalesce_StateChange_ExactDupEmitsOnce(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	x := f.tree.AddNode("x", doc)

	f.queue.Submit(event.NewStateChange(x, event.StateChecked, true))
	f.queue.Submit(event.NewStateChange(x, event.StateChecked, true))

	f.queue.Flush()
	assert.Equal(t, []string{"state_change:x"}, f.dispatched())
}

func TestCoalesce_StateChange_OppositeTransitionsCancel(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	x := f.tree.AddNode("x", doc)

	on := event.NewStateChange(x, event.StateChecked, true)
	off := event.NewStateChange(x, event.StateChecked, false)

	f.queue.Submit(on)
	f.queue.Submit(off)

	// The state flipped and flipped back within one cycle: net-zero, so
	// neither record may be observed.
	assert.Equal(t, event.RuleDoNotEmit, on.Rule)
	assert.Equal(t, event.RuleDoNotEmit, off.Rule)

	f.queue.Flush()
	assert.Empty(t, f.dispatched())
}

func TestCoalesce_StateChange_DistinctStatesUntouched(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	x := f.tree.AddNode("x", doc)

	f.queue.Submit(event.NewStateChange(x, event.StateChecked, true))
	f.queue.Submit(event.NewStateChange(x, event.StateExpanded, false))

	f.queue.Flush()
	assert.Equal(t, []string{"state_change:x", "state_change:x"}, f.dispatched())
}

func TestCoalesce_StateChange_DistinctTargetsUntouched(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	x := f.tree.AddNode("x", doc)
	y := f.tree.AddNode("y", doc)

	f.queue.Submit(event.NewStateChange(x, event.StateChecked, true))
	f.queue.Submit(event.NewStateChange(y, event.StateChecked, true))

	f.queue.Flush()
	assert.Equal(t, []string{"state_change:x", "state_change:y"}, f.dispatched())
}

func TestCoalesce_StateChange_PrunesAllStaleEntries(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	x := f.tree.AddNode("x", doc)

	e1 := event.NewStateChange(x, event.StateBusy, true)
	e2 := event.NewStateChange(x, event.StateBusy, true)
	e3 := event.NewStateChange(x, event.StateBusy, true)

	f.queue.Submit(e1)
	f.queue.Submit(e2)
	f.queue.Submit(e3)

	// The scan continues past the first match; every stale same-state
	// record is pruned by the newest one.
	assert.Equal(t, event.RuleDoNotEmit, e1.Rule)
	assert.Equal(t, event.RuleDoNotEmit, e2.Rule)
	assert.Equal(t, event.RuleCoalesceStateChange, e3.Rule)
}

func TestCoalesce_TextSelChange_SameSelectionDifferentTargets(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)
	b := f.tree.AddNode("b", doc)

	older := event.NewTextSelChange(a, "sel-1")
	newer := event.NewTextSelChange(b, "sel-1")

	f.queue.Submit(older)
	f.queue.Submit(newer)

	assert.Equal(t, event.RuleDoNotEmit, older.Rule)

	f.queue.Flush()
	require.Len(t, f.recorders.Selection.Events, 1)
	assert.Same(t, b, f.recorders.Selection.Events[0].Target)
}

func TestCoalesce_TextSelChange_SameTargetDifferentSelections(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)

	older := event.NewTextSelChange(a, "sel-1")
	newer := event.NewTextSelChange(a, "sel-2")

	f.queue.Submit(older)
	f.queue.Submit(newer)

	assert.Equal(t, event.RuleDoNotEmit, older.Rule)
}

func TestCoalesce_TextSelChange_SuppressesAllRedundant(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	a := f.tree.AddNode("a", doc)
	b := f.tree.AddNode("b", doc)

	e1 := event.NewTextSelChange(a, "sel-1")
	e2 := event.NewTextSelChange(b, "sel-2")
	e3 := event.NewTextSelChange(b, "sel-1")

	f.queue.Submit(e1)
	f.queue.Submit(e2)
	// e3 shares sel-1 with e1 and the target with e2: no early stop, both
	// older records go.
	f.queue.Submit(e3)

	assert.Equal(t, event.RuleDoNotEmit, e1.Rule)
	assert.Equal(t, event.RuleDoNotEmit, e2.Rule)
	assert.Equal(t, event.RuleCoalesceTextSelChange, e3.Rule)
}

func TestCoalesce_SelectionToggleMerge_AddThenRemove(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	widget := f.tree.AddNode("widget", doc)
	itemA := f.tree.AddNode("a", widget)
	itemB := f.tree.AddNode("b", widget)

	add := event.NewSelChange(widget, itemA, event.SelectionAdd)
	remove := event.NewSelChange(widget, itemB, event.SelectionRemove)

	f.queue.Submit(add)
	f.queue.Submit(remove)

	// Add-then-remove merges into a toggle carried by the older record.
	assert.Equal(t, event.TypeSelection, add.Type)
	assert.Same(t, remove, add.Sel.Packed)
	assert.Equal(t, event.RuleDoNotEmit, remove.Rule)

	f.queue.Flush()

	// One merged selection event, preceded by selected-state side effects
	// for both halves of the pair.
	assert.Equal(t, []string{
		"state_change:a", // a became selected
		"state_change:b", // b became unselected
		"selection:a",
	}, f.dispatched())

	states := f.recorders.Dispatch.Events
	assert.True(t, states[0].State.Enabled)
	assert.False(t, states[1].State.Enabled)
	assert.Equal(t, event.StateSelected, states[0].State.State)
}

func TestCoalesce_SelectionToggleMerge_RemoveThenAdd(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	widget := f.tree.AddNode("widget", doc)
	itemA := f.tree.AddNode("a", widget)
	itemB := f.tree.AddNode("b", widget)

	remove := event.NewSelChange(widget, itemA, event.SelectionRemove)
	add := event.NewSelChange(widget, itemB, event.SelectionAdd)

	f.queue.Submit(remove)
	f.queue.Submit(add)

	// Remove-then-add merges into a toggle carried by the newer record.
	assert.Equal(t, event.TypeSelection, add.Type)
	assert.Same(t, remove, add.Sel.Packed)
	assert.Equal(t, event.RuleDoNotEmit, remove.Rule)
}

func TestCoalesce_SelectionSameItemNotMerged(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	widget := f.tree.AddNode("widget", doc)
	item := f.tree.AddNode("a", widget)

	add := event.NewSelChange(widget, item, event.SelectionAdd)
	remove := event.NewSelChange(widget, item, event.SelectionRemove)

	f.queue.Submit(add)
	f.queue.Submit(remove)

	// Same item on both sides: the toggle merge requires distinct items.
	assert.Equal(t, event.TypeSelectionAdd, add.Type)
	assert.Equal(t, event.TypeSelectionRemove, remove.Type)
	assert.NotEqual(t, event.RuleDoNotEmit, add.Rule)
	assert.NotEqual(t, event.RuleDoNotEmit, remove.Rule)
}

func TestCoalesce_SelectionUnpack(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	widget := f.tree.AddNode("widget", doc)
	itemA := f.tree.AddNode("a", widget)
	itemB := f.tree.AddNode("b", widget)
	itemC := f.tree.AddNode("c", widget)

	remove := event.NewSelChange(widget, itemA, event.SelectionRemove)
	add := event.NewSelChange(widget, itemB, event.SelectionAdd)
	another := event.NewSelChange(widget, itemC, event.SelectionAdd)

	f.queue.Submit(remove)
	f.queue.Submit(add)
	require.Equal(t, event.TypeSelection, add.Type)

	// A third change arrives for the widget: the packed pair is restored to
	// standalone add/remove records.
	f.queue.Submit(another)

	assert.Equal(t, event.TypeSelectionAdd, add.Type)
	assert.Nil(t, add.Sel.Packed)
	assert.Equal(t, event.TypeSelectionRemove, remove.Type)
	assert.Equal(t, event.RuleCoalesceSelectionChange, remove.Rule)

	f.queue.Flush()
	assert.Equal(t, []string{
		"state_change:a",
		"selection_remove:a",
		"state_change:b",
		"selection_add:b",
		"state_change:c",
		"selection_add:c",
	}, f.dispatched())
}

func TestCoalesce_SelectionPack(t *testing.T) {
	f := newChannelFixture()
	doc := f.tree.AddDocument("doc")
	widget := f.tree.AddNode("widget", doc)

	items := make([]*event.Record, 0, 6)
	for _, label := range []string{"i1", "i2", "i3", "i4", "i5", "i6"} {
		item := f.tree.AddNode(label, widget)
		rec := event.NewSelChange(widget, item, event.SelectionAdd)
		items = append(items, rec)
		f.queue.Submit(rec)
	}

	last := items[5]

	// The preceding count reaches the pack threshold on the sixth change:
	// everything collapses into one selection-within on the widget.
	assert.Equal(t, event.TypeSelectionWithin, last.Type)
	assert.Same(t, widget, last.Target)
	for _, rec := range items[:5] {
		assert.Equal(t, event.RuleDoNotEmit, rec.Rule)
	}

	f.queue.Flush()
	assert.Equal(t, []string{"selection_within:widget"}, f.dispatched())

	// Every item still reaches the other process through the batched
	// selection delta.
	require.Len(t, f.channel.SelectedBatches, 1)
	assert.Len(t, f.channel.SelectedBatches[0], 6)
	assert.Empty(t, f.channel.UnselectedBatches[0])
}

func TestCoalesce_SingleSelectionReclassifiedToAdd(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	widget := f.tree.AddNode("widget", doc)
	itemA := f.tree.AddNode("a", widget)
	itemB := f.tree.AddNode("b", widget)

	prior := event.NewSelChange(widget, itemA, event.SelectionAdd)
	toggle := event.NewSingleSelection(widget, itemB, event.SelectionAdd)

	f.queue.Submit(prior)
	f.queue.Submit(toggle)

	// A single-selection widget's toggle competing with queued selection
	// events degrades to a plain addition.
	assert.Equal(t, event.TypeSelectionAdd, toggle.Type)
}

func TestCoalesce_ReorderKeepsContainerEvents(t *testing.T) {
	f := newFixture()
	doc := f.tree.AddDocument("doc")
	outer := f.tree.AddNode("outer", doc)
	outer.MarkReorderContainer()

	f.queue.Submit(event.NewReorder(doc))
	f.queue.Submit(event.NewReorder(outer))

	f.queue.Flush()
	assert.Equal(t, []string{"reorder:doc", "reorder:outer"}, f.dispatched())
}
