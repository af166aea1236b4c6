package diagram

import (
	"slices"

	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// ElementType classifies a diagram element.
type ElementType string

const (
	TypeRoot       ElementType = "root"
	TypeShape      ElementType = "shape"
	TypeConnection ElementType = "connection"
	TypeLabel      ElementType = "label"
)

// Element is a live shape, connection, label or root of the diagram graph.
// BusinessObject is the semantic node it presents.
type Element struct {
	ID             string
	Type           ElementType
	BusinessObject *model.Node

	X, Y, Width, Height float64
	Waypoints           []model.Point

	Parent   *Element
	Children []*Element

	Source, Target     *Element
	Incoming, Outgoing []*Element

	// Host and Attachers link boundary events to the activity they sit on.
	Host      *Element
	Attachers []*Element

	// Labels of an element, and the element a label belongs to.
	Labels      []*Element
	LabelTarget *Element

	Collapsed bool
	Hidden    bool
}

// Kind returns the semantic kind of the element, or "" without a business object.
func (e *Element) Kind() schema.Kind {
	if e == nil || e.BusinessObject == nil {
		return ""
	}
	return e.BusinessObject.Kind
}

// Is reports whether the element's business object is of kind k.
func (e *Element) Is(k schema.Kind) bool {
	return e != nil && e.BusinessObject.Is(k)
}

// IsAny reports whether the element's business object is any of kinds.
func (e *Element) IsAny(kinds ...schema.Kind) bool {
	return e != nil && e.BusinessObject.IsAny(kinds...)
}

// IsLabel reports whether e is an external label.
func (e *Element) IsLabel() bool {
	return e != nil && e.Type == TypeLabel
}

// IsConnection reports whether e is a connection.
func (e *Element) IsConnection() bool {
	return e != nil && e.Type == TypeConnection
}

// Bounds returns the element's rectangle.
func (e *Element) Bounds() model.Bounds {
	return model.Bounds{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

// SetBounds moves and resizes the element.
func (e *Element) SetBounds(b model.Bounds) {
	e.X, e.Y, e.Width, e.Height = b.X, b.Y, b.Width, b.Height
}

// Mid returns the center of the element's rectangle.
func (e *Element) Mid() model.Point {
	return e.Bounds().Mid()
}

// Label returns the first label of e, or nil.
func (e *Element) Label() *Element {
	if len(e.Labels) == 0 {
		return nil
	}
	return e.Labels[0]
}

// IndexInParent returns e's position among its parent's children, or -1.
func (e *Element) IndexInParent() int {
	if e.Parent == nil {
		return -1
	}
	return slices.Index(e.Parent.Children, e)
}

// Ancestor returns the nearest ancestor of e whose business object is of kind k.
func (e *Element) Ancestor(k schema.Kind) *Element {
	for p := e.Parent; p != nil; p = p.Parent {
		if p.Is(k) {
			return p
		}
	}
	return nil
}

// IsAncestorOf reports whether e contains other, directly or transitively.
func (e *Element) IsAncestorOf(other *Element) bool {
	for p := other.Parent; p != nil; p = p.Parent {
		if p == e {
			return true
		}
	}
	return false
}

func addElement(list []*Element, e *Element, index int) []*Element {
	if i := slices.Index(list, e); i >= 0 {
		list = slices.Delete(list, i, i+1)
	}
	if index < 0 || index > len(list) {
		index = len(list)
	}
	return slices.Insert(list, index, e)
}

func removeElement(list []*Element, e *Element) ([]*Element, int) {
	i := slices.Index(list, e)
	if i < 0 {
		return list, -1
	}
	return slices.Delete(list, i, i+1), i
}

// AddAttacher links a boundary element to its host.
func AddAttacher(host, attacher *Element) {
	attacher.Host = host
	host.Attachers = addElement(host.Attachers, attacher, -1)
}

// RemoveAttacher unlinks attacher from its host.
func RemoveAttacher(attacher *Element) {
	if attacher.Host == nil {
		return
	}
	attacher.Host.Attachers, _ = removeElement(attacher.Host.Attachers, attacher)
	attacher.Host = nil
}

// Connect sets the endpoints of a connection and updates incoming/outgoing lists.
func Connect(conn, source, target *Element) {
	if conn.Source != nil {
		conn.Source.Outgoing, _ = removeElement(conn.Source.Outgoing, conn)
	}
	if conn.Target != nil {
		conn.Target.Incoming, _ = removeElement(conn.Target.Incoming, conn)
	}
	conn.Source, conn.Target = source, target
	if source != nil {
		source.Outgoing = addElement(source.Outgoing, conn, -1)
	}
	if target != nil {
		target.Incoming = addElement(target.Incoming, conn, -1)
	}
}
