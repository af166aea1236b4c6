package model

import (
	"slices"

	"github.com/mrajende/vdmlio/pkg/schema"
)

// DIKind distinguishes the diagram interchange element types.
type DIKind int

const (
	DIShape DIKind = iota
	DIEdge
	DIPlane
)

func (k DIKind) String() string {
	switch k {
	case DIShape:
		return "shape"
	case DIEdge:
		return "edge"
	default:
		return "plane"
	}
}

// Bounds is an axis aligned rectangle.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Mid returns the rectangle center.
func (b Bounds) Mid() Point {
	return Point{X: b.X + b.Width/2, Y: b.Y + b.Height/2}
}

// Point is a waypoint or a position.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Label holds the presentation of an external label.
type Label struct {
	Bounds *Bounds
}

// DI is a shape, an edge or the plane of a diagram.
type DI struct {
	ID   string
	Kind DIKind
	// ElementRef is the raw id of the semantic element this DI claims.
	ElementRef string

	Bounds       *Bounds
	Waypoints    []Point
	IsExpanded   *bool
	IsHorizontal *bool
	Label        *Label

	// Elements lists the DI children of a plane in document order.
	Elements []*DI

	plane    *DI
	semantic *Node
}

// Semantic returns the node bound to d, or nil.
func (d *DI) Semantic() *Node {
	return d.semantic
}

// Plane returns the plane that lists d, or nil.
func (d *DI) Plane() *DI {
	return d.plane
}

// Expanded reports the isExpanded flag, false when absent.
func (d *DI) Expanded() bool {
	return d != nil && d.IsExpanded != nil && *d.IsExpanded
}

// SetExpanded sets the isExpanded flag.
func (d *DI) SetExpanded(v bool) {
	d.IsExpanded = &v
}

// EnsureLabel returns the label record, creating it on first use.
func (d *DI) EnsureLabel() *Label {
	if d.Label == nil {
		d.Label = &Label{}
	}
	return d.Label
}

// AddElement appends di to the plane at index, or at the end for index < 0.
func (d *DI) AddElement(di *DI, index int) {
	if di.plane != nil {
		di.plane.RemoveElement(di)
	}
	if index < 0 || index > len(d.Elements) {
		index = len(d.Elements)
	}
	d.Elements = slices.Insert(d.Elements, index, di)
	di.plane = d
}

// RemoveElement removes di from the plane and returns its former index or -1.
func (d *DI) RemoveElement(di *DI) int {
	i := slices.Index(d.Elements, di)
	if i >= 0 {
		d.Elements = slices.Delete(d.Elements, i, i+1)
	}
	if di.plane == d {
		di.plane = nil
	}
	return i
}

// Diagram is one named view over the document, with a single plane.
type Diagram struct {
	ID    string
	Name  string
	Plane *DI
}

// BindDI pairs n and d. A node already bound to another DI, or a DI already
// bound to another node, is reported as MULTIPLE_DI and left unchanged.
func BindDI(n *Node, d *DI) error {
	if n.di == d && d.semantic == n {
		return nil
	}
	if n.di != nil {
		return schema.NewErrorf(schema.ErrCodeMultipleDI,
			"multiple DI elements defined for %s", n.ID).
			WithElement(n.ID).
			WithDetails(map[string]any{"di": d.ID, "bound": n.di.ID})
	}
	if d.semantic != nil {
		return schema.NewErrorf(schema.ErrCodeMultipleDI,
			"DI %s already references %s", d.ID, d.semantic.ID).
			WithElement(n.ID)
	}
	n.di, d.semantic = d, n
	return nil
}

// UnbindDI breaks the pairing of n with its DI and returns the DI.
func UnbindDI(n *Node) *DI {
	d := n.di
	if d != nil {
		d.semantic = nil
		n.di = nil
	}
	return d
}
