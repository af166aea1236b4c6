package rules

import (
	"slices"

	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// MaxLevel is the order level of labels.
const MaxLevel = 10

// Order places an element kind among its siblings. Containers, when set,
// restricts the parent to the nearest ancestor of one of these kinds.
type Order struct {
	Level      int
	Containers []schema.Kind
}

type orderEntry struct {
	kind  schema.Kind
	order Order
}

// orders is matched top to bottom; the first entry the kind specializes wins.
var orders = []orderEntry{
	{schema.KindSubProcess, Order{Level: 6}},
	{schema.KindSequenceFlow, Order{Level: 9, Containers: []schema.Kind{schema.KindParticipant, schema.KindFlowElementsContainer}}},
	{schema.KindDataAssociation, Order{Level: 9, Containers: []schema.Kind{schema.KindCollaboration, schema.KindFlowElementsContainer}}},
	{schema.KindMessageFlow, Order{Level: 9, Containers: []schema.Kind{schema.KindCollaboration}}},
	{schema.KindAssociation, Order{Level: 9, Containers: []schema.Kind{schema.KindParticipant, schema.KindFlowElementsContainer, schema.KindCollaboration}}},
	{schema.KindBoundaryEvent, Order{Level: 8}},
	{schema.KindGroup, Order{Level: 10, Containers: []schema.Kind{schema.KindCollaboration, schema.KindFlowElementsContainer}}},
	{schema.KindFlowElement, Order{Level: 5}},
	{schema.KindParticipant, Order{Level: -2}},
	{schema.KindLane, Order{Level: -1}},
}

var defaultOrder = Order{Level: 1}

// OrderOf returns the order of element.
func OrderOf(e *diagram.Element) Order {
	if e.IsLabel() {
		return Order{Level: MaxLevel}
	}
	k := e.Kind()
	for _, o := range orders {
		if k.Is(o.kind) {
			return o.order
		}
	}
	return defaultOrder
}

// Ordering is the parent and index an element should be inserted at. Index
// -1 appends.
type Ordering struct {
	Parent *diagram.Element
	Index  int
}

// FindActualParent walks up from parent to the first ancestor of one of
// containers.
func FindActualParent(e, parent *diagram.Element, containers []schema.Kind) (*diagram.Element, error) {
	for p := parent; p != nil; p = p.Parent {
		if p.IsAny(containers...) {
			return p, nil
		}
	}
	parentID := ""
	if parent != nil {
		parentID = parent.ID
	}
	return nil, schema.NewErrorf(schema.ErrCodeNoParentForElement,
		"no parent for %s in %s", e.ID, parentID).
		WithElement(e.ID).
		WithDetails(map[string]any{"parent": parentID})
}

// OrderingFor computes where e goes when placed under newParent. Labels go
// to the end of the root; other elements are inserted before the first
// sibling with a higher level.
func OrderingFor(e, newParent *diagram.Element) (Ordering, error) {
	if e.IsLabel() {
		root := newParent
		for root != nil && root.Parent != nil {
			root = root.Parent
		}
		return Ordering{Parent: root, Index: -1}, nil
	}

	order := OrderOf(e)
	if len(order.Containers) > 0 {
		p, err := FindActualParent(e, newParent, order.Containers)
		if err != nil {
			return Ordering{}, err
		}
		newParent = p
	}
	if newParent == nil {
		return Ordering{Index: -1}, nil
	}

	current := slices.Index(newParent.Children, e)
	insert := slices.IndexFunc(newParent.Children, func(child *diagram.Element) bool {
		if child.IsLabel() {
			return false
		}
		return order.Level < OrderOf(child).Level
	})
	if insert != -1 && current != -1 && current < insert {
		insert--
	}
	return Ordering{Parent: newParent, Index: insert}, nil
}
