package queue

import "github.com/roach88/a11yq/internal/event"

// selChangePackThreshold is the number of selection add/remove records for
// one widget at which the queue stops tracking individual items and packs
// everything into a single selection-within event.
const selChangePackThreshold = 5

// coalesce applies the tail record's rule against earlier records of the
// same cycle. It only ever scans backward and only ever mutates rules (and,
// for selection packing, types); records are never removed so that indices
// stay stable for the whole pass.
func (q *Queue) coalesce() {
	assertf(len(q.events) > 0, "coalescing an empty buffer")
	tail := len(q.events) - 1
	tailEvent := q.events[tail]

	switch tailEvent.Rule {
	case event.RuleCoalesceReorder:
		// Reorder events for the same container are deduplicated upstream;
		// only the shape is asserted here.
		assertf(tailEvent.Type == event.TypeReorder,
			"coalesce-reorder rule on a %s record", tailEvent.Type)
		assertf(tailEvent.Target == nil || tailEvent.Target.IsReorderContainer(),
			"reorder event queued for a non-container target")

	case event.RuleCoalesceOfSameType:
		// The nearest older record of the same kind is superseded by the
		// newer one; one suppression per appended record.
		for i := tail - 1; i >= 0; i-- {
			prior := q.events[i]
			if prior.Type == tailEvent.Type && prior.Rule == tailEvent.Rule {
				prior.Rule = event.RuleDoNotEmit
				return
			}
		}

	case event.RuleCoalesceSelectionChange:
		for i := tail - 1; i >= 0; i-- {
			prior := q.events[i]
			if prior.Rule == tailEvent.Rule && prior.Sel.Widget == tailEvent.Sel.Widget {
				q.coalesceSelChange(tailEvent, prior, i)
				return
			}
		}

	case event.RuleCoalesceStateChange:
		// A same-state duplicate supersedes the older record. Opposite
		// enabled flags for the same state cancel each other: the state
		// flipped and flipped back within one cycle, so nothing observable
		// changed and neither record is emitted. All earlier records are
		// scanned; several stale entries may be pruned at once.
		for i := tail - 1; i >= 0; i-- {
			prior := q.events[i]
			if prior.Rule != event.RuleDoNotEmit && prior.Type == tailEvent.Type &&
				prior.Target == tailEvent.Target {
				if prior.State.State == tailEvent.State.State {
					prior.Rule = event.RuleDoNotEmit
					if prior.State.Enabled != tailEvent.State.Enabled {
						tailEvent.Rule = event.RuleDoNotEmit
					}
				}
			}
		}

	case event.RuleCoalesceTextSelChange:
		// One selection may move across targets and one target may be hit
		// by several selections; either overlap makes the older record
		// redundant. No early stop.
		for i := tail - 1; i >= 0; i-- {
			prior := q.events[i]
			if prior.Rule != event.RuleDoNotEmit && prior.Type == tailEvent.Type {
				if prior.TextSel.SelectionID == tailEvent.TextSel.SelectionID ||
					prior.Target == tailEvent.Target {
					prior.Rule = event.RuleDoNotEmit
				}
			}
		}

	default:
		// RuleRemoveDupes is handled before insertion; RuleAllowDupes and
		// RuleDoNotEmit coalesce nothing.
	}
}

// coalesceSelChange merges two selection records for the same widget: the
// buffer tail and the nearest earlier match at prior/priorIdx.
//
// The transitions below are checked strictly in order; the first match
// wins and ends processing for the pair. Reordering them changes the
// observable merge results for rapid-fire selection sequences.
func (q *Queue) coalesceSelChange(tail, prior *event.Record, priorIdx int) {
	tail.Sel.PrecedingCount = prior.Sel.PrecedingCount + 1

	// 1. Too many selection changes for one widget: collapse into a single
	// selection-within on the widget itself. One-way transition.
	if tail.Sel.PrecedingCount >= selChangePackThreshold {
		tail.Type = event.TypeSelectionWithin
		tail.Target = tail.Sel.Widget
		prior.Rule = event.RuleDoNotEmit

		// Suppress any not-yet-coalesced selection events for the same
		// widget further back in the buffer.
		if prior.Type != event.TypeSelectionWithin {
			for j := priorIdx - 1; j >= 0; j-- {
				prev := q.events[j]
				if prev.Rule == tail.Rule && prev.Sel.Widget == tail.Sel.Widget {
					prev.Rule = event.RuleDoNotEmit
				}
			}
		}
		return
	}

	// 2. A sequential remove/add pair on different items merges into one
	// selection toggle, carried by the chronologically older record when
	// the add came first.
	if tail.Sel.PrecedingCount == 1 && tail.Sel.Item != prior.Sel.Item {
		if tail.Sel.ChangeType == event.SelectionAdd &&
			prior.Sel.ChangeType == event.SelectionRemove {
			prior.Rule = event.RuleDoNotEmit
			tail.Type = event.TypeSelection
			tail.Sel.Packed = prior
			return
		}

		if prior.Sel.ChangeType == event.SelectionAdd &&
			tail.Sel.ChangeType == event.SelectionRemove {
			tail.Rule = event.RuleDoNotEmit
			prior.Type = event.TypeSelection
			prior.Sel.Packed = tail
			return
		}
	}

	// 3. One more add/remove arrived after a pair was packed: unpack the
	// toggle back into its standalone halves.
	if prior.Type == event.TypeSelection {
		if packed := prior.Sel.Packed; packed != nil {
			packed.Type = event.TypeSelectionAdd
			if packed.Sel.ChangeType == event.SelectionRemove {
				packed.Type = event.TypeSelectionRemove
			}
			packed.Rule = event.RuleCoalesceSelectionChange
			prior.Sel.Packed = nil
		}

		prior.Type = event.TypeSelectionAdd
		if prior.Sel.ChangeType == event.SelectionRemove {
			prior.Type = event.TypeSelectionRemove
		}
		return
	}

	// 4. The widget has single selection but other selection events are
	// queued for it: the toggle was superseded by an addition.
	if tail.Type == event.TypeSelection {
		tail.Type = event.TypeSelectionAdd
	}
}
