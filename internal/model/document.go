package model

import (
	"strings"

	"github.com/google/uuid"

	"github.com/mrajende/vdmlio/pkg/schema"
)

// Document is the arena for one semantic tree: it owns the definitions root,
// the diagrams and the id registry.
type Document struct {
	Definitions *Node
	Diagrams    []*Diagram

	// TargetNamespace and Exporter are carried through a round trip.
	TargetNamespace string
	Exporter        string

	ids   map[string]*Node
	diIDs map[string]*DI
}

// NewDocument returns an empty document with a definitions root.
func NewDocument() *Document {
	d := &Document{
		ids:   make(map[string]*Node),
		diIDs: make(map[string]*DI),
	}
	d.Definitions = &Node{Kind: schema.KindDefinitions}
	d.EnsureID(d.Definitions, "Definitions")
	return d
}

// NewNode creates a node of kind with its kind defaults. An empty id is
// assigned lazily by EnsureID; a taken id is rejected.
func (d *Document) NewNode(kind schema.Kind, id string) (*Node, error) {
	n := &Node{ID: id, Kind: kind}
	switch {
	case kind.Is(schema.KindStartEvent):
		n.IsInterrupting = true
	case kind.Is(schema.KindBoundaryEvent):
		n.CancelActivity = true
	case kind.Is(schema.KindAssociation):
		n.AssociationDirection = "None"
	}
	if id == "" {
		return n, nil
	}
	if err := d.Register(n); err != nil {
		return nil, err
	}
	return n, nil
}

// MustNode is NewNode for callers that control the id space, such as tests
// and the element factory. It panics on a duplicate id.
func (d *Document) MustNode(kind schema.Kind, id string) *Node {
	n, err := d.NewNode(kind, id)
	if err != nil {
		panic(err)
	}
	return n
}

// Register claims n.ID in the registry.
func (d *Document) Register(n *Node) error {
	if n.ID == "" {
		return schema.NewError(schema.ErrCodeValidation, "cannot register a node without id")
	}
	if other, ok := d.ids[n.ID]; ok && other != n {
		return schema.NewErrorf(schema.ErrCodeDuplicateID, "id %s is already taken", n.ID).
			WithElement(n.ID)
	}
	d.ids[n.ID] = n
	return nil
}

// Unregister releases n's id.
func (d *Document) Unregister(n *Node) {
	if d.ids[n.ID] == n {
		delete(d.ids, n.ID)
	}
}

// EnsureID assigns a fresh id with the given prefix when n has none, and
// registers it. The prefix defaults to the kind's local name.
func (d *Document) EnsureID(n *Node, prefix string) string {
	if n.ID != "" {
		if _, ok := d.ids[n.ID]; !ok {
			d.ids[n.ID] = n
		}
		return n.ID
	}
	if prefix == "" {
		prefix = n.Kind.LocalName()
	}
	n.ID = d.NextID(prefix)
	d.ids[n.ID] = n
	return n.ID
}

// NextID returns an id with prefix that is not taken.
func (d *Document) NextID(prefix string) string {
	for {
		id := prefix + "_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:7]
		if _, ok := d.ids[id]; ok {
			continue
		}
		if _, ok := d.diIDs[id]; ok {
			continue
		}
		return id
	}
}

// Lookup returns the node registered under id.
func (d *Document) Lookup(id string) (*Node, bool) {
	n, ok := d.ids[id]
	return n, ok
}

// NewDI creates a DI element and registers its id, assigning one when empty.
func (d *Document) NewDI(kind DIKind, id string) *DI {
	if id == "" || d.diIDs[id] != nil {
		prefix := "Shape"
		switch kind {
		case DIEdge:
			prefix = "Edge"
		case DIPlane:
			prefix = "Plane"
		}
		if id != "" {
			prefix = id
		}
		id = d.NextID(prefix)
	}
	di := &DI{ID: id, Kind: kind}
	d.diIDs[id] = di
	return di
}

// LookupDI returns the DI element registered under id.
func (d *Document) LookupDI(id string) (*DI, bool) {
	di, ok := d.diIDs[id]
	return di, ok
}

// RootElements returns the definitions' root elements.
func (d *Document) RootElements() []*Node {
	return d.Definitions.Children(RootElements)
}

// AddDiagram appends a diagram with a fresh plane referencing root.
func (d *Document) AddDiagram(id string, root *Node) *Diagram {
	if id == "" {
		id = d.NextID("Diagram")
	}
	plane := d.NewDI(DIPlane, "")
	if root != nil {
		plane.ElementRef = root.ID
		_ = BindDI(root, plane)
	}
	dg := &Diagram{ID: id, Plane: plane}
	d.Diagrams = append(d.Diagrams, dg)
	return dg
}

// Nodes returns every node reachable from the definitions root.
func (d *Document) Nodes() []*Node {
	var out []*Node
	d.Definitions.Walk(func(n *Node) bool {
		out = append(out, n)
		return true
	})
	return out
}
