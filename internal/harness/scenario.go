package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance scenario: a tree, a submission sequence,
// and assertions over the flushed trace.
type Scenario struct {
	// Name uniquely identifies the scenario; it doubles as the golden file
	// name.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description,omitempty"`

	// Channel activates cross-process delivery recording for the run.
	Channel bool `yaml:"channel,omitempty"`

	// Tree lists the accessible nodes, parents before children.
	Tree []NodeSpec `yaml:"tree"`

	// Events lists the submissions in order.
	Events []EventSpec `yaml:"events"`

	// Assertions validate the resulting trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// NodeSpec describes one fake accessible node.
type NodeSpec struct {
	// ID is the node's scenario-local label.
	ID string `yaml:"id"`

	// Parent is the ID of the parent node; empty only for document roots.
	Parent string `yaml:"parent,omitempty"`

	// Document marks the node as a document root.
	Document bool `yaml:"document,omitempty"`

	// FileInput marks a file-input-like accessible.
	FileInput bool `yaml:"file_input,omitempty"`

	// ReorderContainer allows the node to carry coalesce-reorder events.
	ReorderContainer bool `yaml:"reorder_container,omitempty"`

	// Name is the node's computed name; NameSource its provenance
	// (computed, subtree, tooltip, relation). Defaults to computed.
	Name       string `yaml:"name,omitempty"`
	NameSource string `yaml:"name_source,omitempty"`

	// NameFromSubtree sets the unconditional subtree-derived name rule.
	NameFromSubtree bool `yaml:"name_from_subtree,omitempty"`

	// NameFromSubtreeIfRequested gates the ancestor walk; defaults to true.
	NameFromSubtreeIfRequested *bool `yaml:"name_from_subtree_if_requested,omitempty"`

	// NameDependents / DescriptionDependents mark dependency listeners.
	NameDependents        bool `yaml:"name_dependents,omitempty"`
	DescriptionDependents bool `yaml:"description_dependents,omitempty"`

	// LabelFor / DescriptionFor list IDs of nodes this node labels or
	// describes.
	LabelFor       []string `yaml:"label_for,omitempty"`
	DescriptionFor []string `yaml:"description_for,omitempty"`

	// Defunct invalidates the node after all submissions, before flush.
	Defunct bool `yaml:"defunct,omitempty"`
}

// EventSpec describes one submission.
type EventSpec struct {
	// Type is the event type name (see the event package Type strings).
	Type string `yaml:"type"`

	// Target is the node ID for generic events.
	Target string `yaml:"target,omitempty"`

	// Widget and Item identify selection events.
	Widget string `yaml:"widget,omitempty"`
	Item   string `yaml:"item,omitempty"`

	// State names the bit for state-change events (selected, checked,
	// expanded, busy, enabled); Enabled is its new value.
	State   string `yaml:"state,omitempty"`
	Enabled bool   `yaml:"enabled,omitempty"`

	// Selection is the opaque selection identity for text-selection events.
	Selection string `yaml:"selection,omitempty"`

	// Change distinguishes add from remove for single-selection toggle
	// events (type "selection"); defaults to add.
	Change string `yaml:"change,omitempty"`

	// UserInput flags the event as user-initiated.
	UserInput bool `yaml:"user_input,omitempty"`
}

// Assertion validates the flushed trace.
//
// Types:
//   - "dispatch_order": Events descriptors appear in order (gaps allowed)
//   - "dispatch_contains": Event descriptor appears at least once
//   - "dispatch_count": Event descriptor appears exactly Count times
//   - "no_dispatch": nothing reached any sink
//   - "selection_deltas": the batched cross-process delta matches
//     Selected/Unselected (node IDs)
//
// A descriptor is "type" or "type:target", e.g. "name_change:button".
type Assertion struct {
	Type       string   `yaml:"type"`
	Event      string   `yaml:"event,omitempty"`
	Events     []string `yaml:"events,omitempty"`
	Count      int      `yaml:"count,omitempty"`
	Selected   []string `yaml:"selected,omitempty"`
	Unselected []string `yaml:"unselected,omitempty"`
}

// Assertion type constants.
const (
	AssertDispatchOrder    = "dispatch_order"
	AssertDispatchContains = "dispatch_contains"
	AssertDispatchCount    = "dispatch_count"
	AssertNoDispatch       = "no_dispatch"
	AssertSelectionDeltas  = "selection_deltas"
)

// LoadScenario reads and decodes a scenario file. Unknown YAML fields are
// rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes scenario YAML and applies structural validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks referential integrity: every parent, relation edge, and
// event target must name a declared node.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario: name is required")
	}

	known := make(map[string]bool, len(s.Tree))
	for i, n := range s.Tree {
		if n.ID == "" {
			return fmt.Errorf("scenario %s: tree[%d]: id is required", s.Name, i)
		}
		if known[n.ID] {
			return fmt.Errorf("scenario %s: duplicate node id %q", s.Name, n.ID)
		}
		if n.Parent == "" && !n.Document {
			return fmt.Errorf("scenario %s: node %q: only documents may omit parent", s.Name, n.ID)
		}
		if n.Parent != "" && !known[n.Parent] {
			return fmt.Errorf("scenario %s: node %q: unknown parent %q (parents must be declared first)",
				s.Name, n.ID, n.Parent)
		}
		known[n.ID] = true
	}
	for _, n := range s.Tree {
		for _, ref := range n.LabelFor {
			if !known[ref] {
				return fmt.Errorf("scenario %s: node %q: unknown label_for target %q", s.Name, n.ID, ref)
			}
		}
		for _, ref := range n.DescriptionFor {
			if !known[ref] {
				return fmt.Errorf("scenario %s: node %q: unknown description_for target %q", s.Name, n.ID, ref)
			}
		}
	}

	for i, e := range s.Events {
		if e.Type == "" {
			return fmt.Errorf("scenario %s: events[%d]: type is required", s.Name, i)
		}
		for _, ref := range []string{e.Target, e.Widget, e.Item} {
			if ref != "" && !known[ref] {
				return fmt.Errorf("scenario %s: events[%d]: unknown node %q", s.Name, i, ref)
			}
		}
	}
	return nil
}
