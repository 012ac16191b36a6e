// Package testutil provides deterministic fakes for queue tests and the
// scenario harness: an in-memory accessible tree that doubles as name oracle
// and relation resolver, plus recording sinks.
package testutil

import (
	"github.com/roach88/a11yq/internal/event"
	"github.com/roach88/a11yq/internal/queue"
)

// TreeNode is a fake accessible node. It satisfies event.Node and carries
// the name-rule and relation data the queue's collaborators are asked about.
type TreeNode struct {
	id     uint64
	label  string
	parent *TreeNode

	doc              bool
	fileInput        bool
	reorderContainer bool
	defunct          bool

	name       string
	nameSource queue.NameSource
	// Name-rule flags. Subtree-if-requested defaults to true so ancestor
	// walks continue through ordinary nodes unless a test says otherwise.
	nameFromSubtree      bool
	nameFromSubtreeIfReq bool
	nameDependents       bool
	descDependents       bool

	labelFor       []*TreeNode
	descriptionFor []*TreeNode
}

// ID implements event.Node.
func (n *TreeNode) ID() uint64 { return n.id }

// IsValid implements event.Node; defunct nodes are invalid.
func (n *TreeNode) IsValid() bool { return !n.defunct }

// IsDocument implements event.Node.
func (n *TreeNode) IsDocument() bool { return n.doc }

// IsFileInput implements event.Node.
func (n *TreeNode) IsFileInput() bool { return n.fileInput }

// IsReorderContainer implements event.Node.
func (n *TreeNode) IsReorderContainer() bool { return n.reorderContainer }

// Parent implements event.Node, returning a nil interface at the root.
func (n *TreeNode) Parent() event.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

// Label returns the test-assigned label for trace output.
func (n *TreeNode) Label() string { return n.label }

// MarkDefunct invalidates the node, simulating tree mutation between
// enqueue and flush.
func (n *TreeNode) MarkDefunct() { n.defunct = true }

// MarkFileInput flags the node as a file-input-like accessible.
func (n *TreeNode) MarkFileInput() { n.fileInput = true }

// MarkReorderContainer allows the node to carry coalesce-reorder events.
func (n *TreeNode) MarkReorderContainer() { n.reorderContainer = true }

// SetName sets the computed name and its provenance.
func (n *TreeNode) SetName(name string, source queue.NameSource) {
	n.name = name
	n.nameSource = source
}

// SetNameFromSubtree sets the unconditional subtree-derived name rule.
func (n *TreeNode) SetNameFromSubtree(v bool) { n.nameFromSubtree = v }

// SetNameFromSubtreeIfRequested sets the conditional subtree name rule that
// gates the ancestor walk.
func (n *TreeNode) SetNameFromSubtreeIfRequested(v bool) { n.nameFromSubtreeIfReq = v }

// SetNameDependents marks the node as having name-dependent listeners.
func (n *TreeNode) SetNameDependents(v bool) { n.nameDependents = v }

// SetDescriptionDependents marks the node as having description-dependent
// listeners.
func (n *TreeNode) SetDescriptionDependents(v bool) { n.descDependents = v }

// AddLabelFor records that this node labels target.
func (n *TreeNode) AddLabelFor(target *TreeNode) {
	n.labelFor = append(n.labelFor, target)
}

// AddDescriptionFor records that this node describes target.
func (n *TreeNode) AddDescriptionFor(target *TreeNode) {
	n.descriptionFor = append(n.descriptionFor, target)
}

// Tree builds and owns fake accessible nodes. It implements both
// queue.NameOracle and queue.RelationResolver so one value can be injected
// for both collaborators.
type Tree struct {
	nextID  uint64
	byLabel map[string]*TreeNode
}

// NewTree creates an empty tree.
func NewTree() *Tree {
	return &Tree{byLabel: make(map[string]*TreeNode)}
}

// AddDocument creates a document root node.
func (t *Tree) AddDocument(label string) *TreeNode {
	n := t.add(label, nil)
	n.doc = true
	n.reorderContainer = true
	return n
}

// AddNode creates a node under parent.
func (t *Tree) AddNode(label string, parent *TreeNode) *TreeNode {
	return t.add(label, parent)
}

// Node looks a node up by label, nil if absent.
func (t *Tree) Node(label string) *TreeNode {
	return t.byLabel[label]
}

func (t *Tree) add(label string, parent *TreeNode) *TreeNode {
	t.nextID++
	n := &TreeNode{
		id:                   t.nextID,
		label:                label,
		parent:               parent,
		nameFromSubtreeIfReq: true,
	}
	t.byLabel[label] = n
	return n
}

// ComputeName implements queue.NameOracle.
func (t *Tree) ComputeName(n event.Node) (string, queue.NameSource) {
	node := n.(*TreeNode)
	source := node.nameSource
	if source == 0 {
		source = queue.NameSourceComputed
	}
	return node.name, source
}

// NameFromSubtree implements queue.NameOracle.
func (t *Tree) NameFromSubtree(n event.Node) bool {
	return n.(*TreeNode).nameFromSubtree
}

// NameFromSubtreeIfRequested implements queue.NameOracle.
func (t *Tree) NameFromSubtreeIfRequested(n event.Node) bool {
	return n.(*TreeNode).nameFromSubtreeIfReq
}

// HasNameDependents implements queue.NameOracle.
func (t *Tree) HasNameDependents(n event.Node) bool {
	return n.(*TreeNode).nameDependents
}

// HasDescriptionDependents implements queue.NameOracle.
func (t *Tree) HasDescriptionDependents(n event.Node) bool {
	return n.(*TreeNode).descDependents
}

// RelatedTargets implements queue.RelationResolver; each call returns a
// fresh slice.
func (t *Tree) RelatedTargets(n event.Node, kind queue.RelationKind) []event.Node {
	node := n.(*TreeNode)
	var edges []*TreeNode
	switch kind {
	case queue.RelationLabelFor:
		edges = node.labelFor
	case queue.RelationDescriptionFor:
		edges = node.descriptionFor
	}
	out := make([]event.Node, 0, len(edges))
	for _, e := range edges {
		out = append(out, e)
	}
	return out
}

// Document is a fake owning document with explicit teardown.
type Document struct {
	alive bool
}

// NewDocument creates a live document.
func NewDocument() *Document {
	return &Document{alive: true}
}

// Alive implements queue.Document.
func (d *Document) Alive() bool { return d.alive }

// Teardown kills the document, as a dispatch side effect would.
func (d *Document) Teardown() { d.alive = false }
