package queue

import "github.com/roach88/a11yq/internal/event"

// propagate synthesizes secondary name/description-change events for a
// primary mutation and submits them through the normal submission path.
//
// A dependent's name or description may be derived from the origin target's
// subtree, either through an ancestor whose name rule is subtree-derived or
// through label-for/description-for relation edges. The walk goes up the
// local parent chain and never crosses a document boundary.
func (q *Queue) propagate(origin *event.Record) bool {
	target := origin.Target

	// If a text leaf changed without being replaced, the only primary event
	// is a text insertion/removal on the container; a reorder can change the
	// container's name the same way. Either may require a name change on the
	// target itself.
	maybeTargetNameChanged := (origin.Type == event.TypeTextRemoved ||
		origin.Type == event.TypeTextInserted ||
		origin.Type == event.TypeReorder ||
		origin.Type == event.TypeInnerReorder) &&
		q.names.NameFromSubtree(target)

	doName := q.names.HasNameDependents(target) || maybeTargetNameChanged
	doDesc := q.names.HasDescriptionDependents(target)
	if !doName && !doDesc {
		return false
	}

	pushed := false
	// Once a name change fires for an ancestor, higher ancestors see no
	// further name difference; relation and description propagation still
	// continue up the chain.
	nameCheckAncestor := true

	parent := target
	for {
		if doName {
			if nameCheckAncestor && (maybeTargetNameChanged || parent != target) &&
				q.names.NameFromSubtree(parent) {
				// File inputs take part of their name from the subtree even
				// when the author provided one.
				fire := parent.IsFileInput()
				if !fire {
					name, source := q.names.ComputeName(parent)
					switch source {
					case NameSourceComputed:
						// Removed descendants may have voided the name.
						fire = name == ""
					case NameSourceFromSubtree:
						fire = true
					case NameSourceFromTooltip:
						// The name may have been subtree-derived before the
						// descendants were removed.
						fire = true
					case NameSourceFromRelation:
						fire = true
					}
				}

				if fire {
					if q.Submit(event.New(event.TypeNameChange, parent)) {
						pushed = true
					}
				}
				nameCheckAncestor = false
			}

			if q.propagateToRelations(parent, RelationLabelFor) {
				pushed = true
			}
		}

		if doDesc {
			if q.propagateToRelations(parent, RelationDescriptionFor) {
				pushed = true
			}
		}

		if parent.IsDocument() {
			// Never cross document boundaries.
			break
		}
		parent = parent.Parent()
		if parent == nil || !q.names.NameFromSubtreeIfRequested(parent) {
			break
		}
	}

	return pushed
}

// propagateToRelations fires a name or description change for every
// accessible the node labels or describes.
func (q *Queue) propagateToRelations(n event.Node, kind RelationKind) bool {
	eventType := event.TypeNameChange
	if kind == RelationDescriptionFor {
		eventType = event.TypeDescriptionChange
	}

	pushed := false
	for _, related := range q.relations.RelatedTargets(n, kind) {
		if q.Submit(event.New(eventType, related)) {
			pushed = true
		}
	}
	return pushed
}
