// Package model holds the semantic document tree and its diagram interchange
// (DI) companions.
//
// Ownership always flows from a parent's containment collection. The parent
// pointer on a node is a back-reference that SetParent keeps in agreement
// with that collection; no other code writes it.
package model

import (
	"slices"

	"github.com/mrajende/vdmlio/pkg/schema"
)

// Containment names an owning collection on a parent node.
type Containment string

const (
	RootElements           Containment = "rootElements"
	FlowElements           Containment = "flowElements"
	Artifacts              Containment = "artifacts"
	LaneSets               Containment = "laneSets"
	Lanes                  Containment = "lanes"
	ChildLaneSet           Containment = "childLaneSet"
	Participants           Containment = "participants"
	MessageFlows           Containment = "messageFlows"
	EventDefinitions       Containment = "eventDefinitions"
	DataInputAssociations  Containment = "dataInputAssociations"
	DataOutputAssociations Containment = "dataOutputAssociations"
)

// containmentOrder fixes the iteration order of a node's collections.
var containmentOrder = []Containment{
	RootElements,
	Participants,
	LaneSets,
	ChildLaneSet,
	Lanes,
	FlowElements,
	Artifacts,
	MessageFlows,
	EventDefinitions,
	DataInputAssociations,
	DataOutputAssociations,
}

// Expression is a formal expression attached to a node, such as a sequence
// flow condition.
type Expression struct {
	Body     string
	Language string
}

// Node is a semantic element. Kind-specific fields are zero when they do not
// apply to the node's kind.
type Node struct {
	ID   string
	Kind schema.Kind
	Name string

	IsInterrupting    bool
	CancelActivity    bool
	TriggeredByEvent  bool
	IsForCompensation bool

	// AssociationDirection is one of "None", "One" or "Both".
	AssociationDirection string
	// Text is the body of a text annotation.
	Text                string
	ConditionExpression *Expression
	// Attrs keeps attributes the reader did not map to a field.
	Attrs map[string]string

	SourceRef     *Node
	TargetRef     *Node
	SourceRefs    []*Node
	AttachedToRef *Node
	Default       *Node
	ProcessRef    *Node
	DataObjectRef *Node
	FlowNodeRefs  []*Node

	// Lanes is the reverse index of FlowNodeRefs. It is never serialized.
	Lanes    []*Node
	Incoming []*Node
	Outgoing []*Node

	parent   *Node
	slot     Containment
	children map[Containment][]*Node
	di       *DI
}

// Parent returns the node owning n, or nil.
func (n *Node) Parent() *Node {
	return n.parent
}

// Slot returns the collection of Parent that holds n.
func (n *Node) Slot() Containment {
	return n.slot
}

// DI returns the diagram interchange element bound to n, or nil.
func (n *Node) DI() *DI {
	return n.di
}

// Is reports whether n's kind is k or specializes it. A nil node is nothing.
func (n *Node) Is(k schema.Kind) bool {
	return n != nil && n.Kind.Is(k)
}

// IsAny reports whether n's kind is any of kinds.
func (n *Node) IsAny(kinds ...schema.Kind) bool {
	return n != nil && n.Kind.IsAny(kinds...)
}

// Children returns a copy of the collection c.
func (n *Node) Children(c Containment) []*Node {
	return slices.Clone(n.children[c])
}

// Len returns the size of collection c.
func (n *Node) Len(c Containment) int {
	return len(n.children[c])
}

// IndexOf returns the position of child in collection c, or -1.
func (n *Node) IndexOf(c Containment, child *Node) int {
	return slices.Index(n.children[c], child)
}

// AllChildren returns every owned child in a stable collection order.
func (n *Node) AllChildren() []*Node {
	var out []*Node
	for _, c := range containmentOrder {
		out = append(out, n.children[c]...)
	}
	return out
}

// Walk visits n and every node it owns, depth first. Returning false from fn
// prunes the subtree.
func (n *Node) Walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, c := range n.AllChildren() {
		c.Walk(fn)
	}
}

// Ancestor returns the nearest strict ancestor of n of kind k.
func (n *Node) Ancestor(k schema.Kind) *Node {
	for p := n.parent; p != nil; p = p.parent {
		if p.Is(k) {
			return p
		}
	}
	return nil
}

// EventDefinitionKinds returns the event definition kinds attached to an event.
func (n *Node) EventDefinitionKinds() []schema.Kind {
	var out []schema.Kind
	for _, d := range n.children[EventDefinitions] {
		out = append(out, d.Kind)
	}
	return out
}

// HasEventDefinition reports whether n carries a definition of kind k.
func (n *Node) HasEventDefinition(k schema.Kind) bool {
	for _, d := range n.children[EventDefinitions] {
		if d.Is(k) {
			return true
		}
	}
	return false
}

// SetAttr stores an unmapped attribute.
func (n *Node) SetAttr(key, value string) {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
}

// SetParent moves child into parent's collection c at index (append when
// index is out of range), removing it from its previous collection first.
// A nil parent detaches child. It returns where child was before so callers
// can restore the position exactly.
func SetParent(child, parent *Node, c Containment, index int) (oldParent *Node, oldSlot Containment, oldIndex int) {
	oldParent, oldSlot, oldIndex = child.parent, child.slot, -1
	if oldParent != nil {
		list := oldParent.children[oldSlot]
		oldIndex = slices.Index(list, child)
		if oldIndex >= 0 {
			oldParent.children[oldSlot] = slices.Delete(list, oldIndex, oldIndex+1)
		}
	}
	child.parent, child.slot = nil, ""
	if parent == nil {
		return oldParent, oldSlot, oldIndex
	}
	if parent.children == nil {
		parent.children = make(map[Containment][]*Node)
	}
	list := parent.children[c]
	if index < 0 || index > len(list) {
		index = len(list)
	}
	parent.children[c] = slices.Insert(list, index, child)
	child.parent, child.slot = parent, c
	return oldParent, oldSlot, oldIndex
}

// Add appends child to parent's collection c.
func Add(parent *Node, c Containment, child *Node) {
	SetParent(child, parent, c, -1)
}

// Remove detaches child from its owner.
func Remove(child *Node) {
	SetParent(child, nil, "", -1)
}

// AddRef appends target to refs unless already present.
func AddRef(refs []*Node, target *Node) []*Node {
	if target == nil || slices.Contains(refs, target) {
		return refs
	}
	return append(refs, target)
}

// RemoveRef removes target from refs.
func RemoveRef(refs []*Node, target *Node) []*Node {
	if i := slices.Index(refs, target); i >= 0 {
		return slices.Delete(refs, i, i+1)
	}
	return refs
}
