package event

// Type identifies the kind of accessibility notification.
type Type int

const (
	// TypeFocus reports a focus move. Focus events never enter the FIFO;
	// the queue holds at most one in a dedicated slot.
	TypeFocus Type = iota + 1
	// TypeReorder reports a structural change under a container.
	TypeReorder
	// TypeInnerReorder reports a structural change that stays inside the
	// container's own subtree.
	TypeInnerReorder
	// TypeNameChange reports that an accessible's computed name changed.
	TypeNameChange
	// TypeDescriptionChange reports that a computed description changed.
	TypeDescriptionChange
	// TypeTextInserted reports text inserted into a text container.
	TypeTextInserted
	// TypeTextRemoved reports text removed from a text container.
	TypeTextRemoved
	// TypeTextSelectionChanged reports a caret/selection range change.
	TypeTextSelectionChanged
	// TypeSelectionAdd reports an item becoming selected within a widget.
	TypeSelectionAdd
	// TypeSelectionRemove reports an item becoming unselected within a widget.
	TypeSelectionRemove
	// TypeSelection is the merged form of a sequential add/remove pair on
	// the same widget (a selection "toggle").
	TypeSelection
	// TypeSelectionWithin is the aggregated form emitted when too many
	// selection changes target one widget in a single cycle.
	TypeSelectionWithin
	// TypeStateChange reports a state bit flipping on or off.
	TypeStateChange
)

var typeNames = map[Type]string{
	TypeFocus:                "focus",
	TypeReorder:              "reorder",
	TypeInnerReorder:         "inner_reorder",
	TypeNameChange:           "name_change",
	TypeDescriptionChange:    "description_change",
	TypeTextInserted:         "text_inserted",
	TypeTextRemoved:          "text_removed",
	TypeTextSelectionChanged: "text_selection_changed",
	TypeSelectionAdd:         "selection_add",
	TypeSelectionRemove:      "selection_remove",
	TypeSelection:            "selection",
	TypeSelectionWithin:      "selection_within",
	TypeStateChange:          "state_change",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "unknown"
}

// Rule selects the coalescing behavior applied when a record is appended
// behind earlier records of the same cycle.
type Rule int

const (
	// RuleRemoveDupes drops an exact (type, rule, target) duplicate before
	// it ever enters the FIFO.
	RuleRemoveDupes Rule = iota + 1
	// RuleCoalesceReorder marks reorder events; same-container reorders are
	// deduplicated upstream, the queue only asserts the shape.
	RuleCoalesceReorder
	// RuleCoalesceOfSameType suppresses the nearest older record with the
	// same (type, rule).
	RuleCoalesceOfSameType
	// RuleCoalesceSelectionChange merges selection add/remove records for
	// one widget, packing bursts into a single selection-within.
	RuleCoalesceSelectionChange
	// RuleCoalesceStateChange dedupes same-state records and cancels
	// opposite transitions that net to no observable change.
	RuleCoalesceStateChange
	// RuleCoalesceTextSelChange suppresses older records aimed at the same
	// selection or the same target.
	RuleCoalesceTextSelChange
	// RuleAllowDupes performs no coalescing.
	RuleAllowDupes
	// RuleDoNotEmit marks a record as suppressed. Suppressed records stay
	// in the buffer to keep indices stable; flush skips them.
	RuleDoNotEmit
)

var ruleNames = map[Rule]string{
	RuleRemoveDupes:             "remove_dupes",
	RuleCoalesceReorder:         "coalesce_reorder",
	RuleCoalesceOfSameType:      "coalesce_of_same_type",
	RuleCoalesceSelectionChange: "coalesce_selection_change",
	RuleCoalesceStateChange:     "coalesce_state_change",
	RuleCoalesceTextSelChange:   "coalesce_text_sel_change",
	RuleAllowDupes:              "allow_dupes",
	RuleDoNotEmit:               "do_not_emit",
}

func (r Rule) String() string {
	if s, ok := ruleNames[r]; ok {
		return s
	}
	return "unknown"
}

// Node is a weak, non-owning handle to an accessible node in an externally
// owned tree. Implementations must be comparable (pointer types); the queue
// compares handles with == to detect same-target records.
//
// The tree is mutable between enqueue and flush, so validity must be
// re-checked at every point of use and never assumed across a re-entrant
// call boundary.
type Node interface {
	// ID returns the node's process-unique identity, used for cross-process
	// selection deltas.
	ID() uint64
	// IsValid reports whether the handle still refers to a live accessible.
	IsValid() bool
	// IsDocument reports whether the node is a document root. Propagation
	// never crosses document boundaries.
	IsDocument() bool
	// IsFileInput reports whether the node is a file-input-like accessible,
	// which always derives part of its name from its subtree.
	IsFileInput() bool
	// IsReorderContainer reports whether the node is one of the container
	// kinds allowed to carry coalesce-reorder events.
	IsReorderContainer() bool
	// Parent returns the local parent, or nil at the top of the tree.
	Parent() Node
}

// Accessible state bits carried by state-change records.
const (
	StateSelected uint64 = 1 << iota
	StateChecked
	StateExpanded
	StateBusy
	StateEnabled
)

// StateNames maps the known state bits to trace-friendly names.
var StateNames = map[uint64]string{
	StateSelected: "selected",
	StateChecked:  "checked",
	StateExpanded: "expanded",
	StateBusy:     "busy",
	StateEnabled:  "enabled",
}

// StateChange is the payload of TypeStateChange records.
type StateChange struct {
	// State is the bitmask of the affected state.
	State uint64
	// Enabled is true when the state turned on, false when it turned off.
	Enabled bool
}

// SelChangeType distinguishes selection additions from removals.
type SelChangeType int

const (
	// SelectionAdd marks an item that became selected.
	SelectionAdd SelChangeType = iota + 1
	// SelectionRemove marks an item that became unselected.
	SelectionRemove
)

func (t SelChangeType) String() string {
	if t == SelectionAdd {
		return "add"
	}
	return "remove"
}

// SelChange is the payload of selection records. Widget is the selectable
// container owning the change, Item the affected descendant.
//
// PrecedingCount grows monotonically while the coalescer packs same-widget
// records; once it reaches the pack threshold the record is converted to a
// selection-within and never converts back. Packed links the suppressed half
// of a merged add/remove toggle pair.
type SelChange struct {
	Widget         Node
	Item           Node
	ChangeType     SelChangeType
	PrecedingCount int
	Packed         *Record
}

// TextSelChange is the payload of text-selection records. SelectionID is an
// opaque identity of the selection range; distinct targets may share one
// selection and one target may be pointed at by several selections.
type TextSelChange struct {
	SelectionID string
}

// Record describes one queued notification. See the package comment for the
// mutability and ownership rules.
type Record struct {
	Type          Type
	Rule          Rule
	Target        Node
	FromUserInput bool

	// Tagged payload; at most one is non-nil.
	State   *StateChange
	Sel     *SelChange
	TextSel *TextSelChange
}

// New creates a generic record with the default remove-dupes rule.
func New(t Type, target Node) *Record {
	return &Record{Type: t, Rule: RuleRemoveDupes, Target: target}
}

// NewFocus creates a focus record. Focus records carry no payload and
// bypass coalescing entirely.
func NewFocus(target Node) *Record {
	return &Record{Type: TypeFocus, Rule: RuleAllowDupes, Target: target}
}

// NewReorder creates a reorder record for a container.
func NewReorder(container Node) *Record {
	return &Record{Type: TypeReorder, Rule: RuleCoalesceReorder, Target: container}
}

// NewStateChange creates a state-change record.
func NewStateChange(target Node, state uint64, enabled bool) *Record {
	return &Record{
		Type:   TypeStateChange,
		Rule:   RuleCoalesceStateChange,
		Target: target,
		State:  &StateChange{State: state, Enabled: enabled},
	}
}

// NewSelChange creates a selection add or remove record. The record targets
// the item; the widget is kept in the payload for coalescing.
func NewSelChange(widget, item Node, change SelChangeType) *Record {
	t := TypeSelectionAdd
	if change == SelectionRemove {
		t = TypeSelectionRemove
	}
	return &Record{
		Type:   t,
		Rule:   RuleCoalesceSelectionChange,
		Target: item,
		Sel:    &SelChange{Widget: widget, Item: item, ChangeType: change},
	}
}

// NewSingleSelection creates the toggle-form selection record submitted by
// widgets with single selection, where any change is announced as one
// "selection" event rather than an add/remove pair.
func NewSingleSelection(widget, item Node, change SelChangeType) *Record {
	return &Record{
		Type:   TypeSelection,
		Rule:   RuleCoalesceSelectionChange,
		Target: item,
		Sel:    &SelChange{Widget: widget, Item: item, ChangeType: change},
	}
}

// NewTextSelChange creates a text-selection-changed record.
func NewTextSelChange(target Node, selectionID string) *Record {
	return &Record{
		Type:    TypeTextSelectionChanged,
		Rule:    RuleCoalesceTextSelChange,
		Target:  target,
		TextSel: &TextSelChange{SelectionID: selectionID},
	}
}
