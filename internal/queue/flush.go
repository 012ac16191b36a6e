package queue

import "github.com/roach88/a11yq/internal/event"

// Flush dispatches every event queued in the current cycle and resets the
// queue for the next one. It must be called once per processing cycle
// boundary, never concurrently with submission.
//
// The buffer is moved out before iteration, so dispatch callbacks that
// synchronously submit new events populate a fresh queue for the next cycle.
// Flush returns early, without error, if dispatch tears the document down;
// the remaining events of the cycle are dropped.
func (q *Queue) Flush() {
	events := q.events
	q.events = nil
	focus := q.pendingFocus
	q.pendingFocus = nil

	if len(events) == 0 && focus == nil {
		return
	}
	q.logger.Debug("processing event queue",
		"events", len(events), "focus", focus != nil)

	if focus != nil && focus.Target.IsValid() {
		// A pending focus event always fires before everything else.
		// Listeners must observe focus before property changes on the newly
		// focused item, and clients should learn about focus as early as
		// possible.
		q.sinks.Focus.ProcessFocusEvent(focus)
	}

	// Selection deltas for cross-process delivery. Last write per item wins
	// within the cycle; first-seen order is kept for deterministic batching.
	var deltaOrder []uint64
	deltaSelected := make(map[uint64]bool)

	for _, ev := range events {
		target := ev.Target
		if target == nil || !target.IsValid() {
			continue
		}

		if q.channel != nil {
			// Selection events that were suppressed or morphed into a
			// selection-within still changed item states; collect them so
			// the other process can be told what became (un)selected.
			suppressedSelection := ev.Rule == event.RuleDoNotEmit &&
				(ev.Type == event.TypeSelectionAdd ||
					ev.Type == event.TypeSelectionRemove ||
					ev.Type == event.TypeSelection)
			if suppressedSelection || ev.Type == event.TypeSelectionWithin {
				if item := ev.Sel.Item; item != nil && item.IsValid() {
					id := uint64(0)
					if !item.IsDocument() {
						id = item.ID()
					}
					if _, seen := deltaSelected[id]; !seen {
						deltaOrder = append(deltaOrder, id)
					}
					deltaSelected[id] = ev.Sel.ChangeType == event.SelectionAdd
				}
			}
		}

		if ev.Rule == event.RuleDoNotEmit {
			continue
		}

		if ev.Type == event.TypeTextSelectionChanged {
			// Caret and text selection moves go to the selection manager,
			// not the generic sink.
			q.sinks.Selection.ProcessTextSelChange(ev)
			continue
		}

		// Selection events imply a selected-state flip on the item; fire the
		// state change first so observers see a consistent state when the
		// selection event arrives.
		switch ev.Type {
		case event.TypeSelectionAdd:
			q.sinks.Dispatch.Dispatch(selectedStateChange(ev.Target, true, ev.FromUserInput))
		case event.TypeSelectionRemove:
			q.sinks.Dispatch.Dispatch(selectedStateChange(ev.Target, false, ev.FromUserInput))
		case event.TypeSelection:
			q.sinks.Dispatch.Dispatch(selectedStateChange(
				ev.Target, ev.Sel.ChangeType == event.SelectionAdd, ev.FromUserInput))
			if packed := ev.Sel.Packed; packed != nil {
				q.sinks.Dispatch.Dispatch(selectedStateChange(
					packed.Target,
					packed.Sel.ChangeType == event.SelectionAdd,
					packed.FromUserInput))
			}
		}

		q.sinks.Dispatch.Dispatch(ev)

		if !q.doc.Alive() {
			// Dispatch tore the document down; nothing further in this
			// cycle can be delivered meaningfully.
			return
		}

		if ev.Type == event.TypeReorder || ev.Type == event.TypeTextInserted ||
			ev.Type == event.TypeTextRemoved {
			// Mutation notifications queued on the side during dispatch must
			// go out now to keep their order relative to generic events.
			if q.channel != nil {
				q.channel.FlushQueuedMutationEvents()
			}
		}
	}

	if q.channel != nil && q.doc.Alive() && len(deltaOrder) > 0 {
		var selectedIDs, unselectedIDs []uint64
		for _, id := range deltaOrder {
			if deltaSelected[id] {
				selectedIDs = append(selectedIDs, id)
			} else {
				unselectedIDs = append(unselectedIDs, id)
			}
		}
		q.channel.SendSelectedAccessiblesChanged(selectedIDs, unselectedIDs)
	}
}

// selectedStateChange builds the synthetic selected-state side effect fired
// alongside selection events.
func selectedStateChange(target event.Node, selected, fromUserInput bool) *event.Record {
	rec := event.NewStateChange(target, event.StateSelected, selected)
	rec.Rule = event.RuleAllowDupes
	rec.FromUserInput = fromUserInput
	return rec
}
