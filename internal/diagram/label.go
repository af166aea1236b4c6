package diagram

import (
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// DefaultLabelSize is the size given to an external label without DI bounds.
var DefaultLabelSize = model.Bounds{Width: 90, Height: 20}

// HasExternalLabel reports whether elements of kind k show their name in a
// separate label element rather than inside the shape.
func HasExternalLabel(k schema.Kind) bool {
	return k.IsAny(
		schema.KindEvent,
		schema.KindGateway,
		schema.KindDataStoreReference,
		schema.KindDataObjectReference,
		schema.KindSequenceFlow,
		schema.KindMessageFlow,
		schema.KindGroup,
	)
}

// LabelID returns the id of the external label of the element with id.
func LabelID(id string) string {
	return id + "_label"
}

// ExternalLabelMid returns where the center of e's external label goes:
// below shapes, at the top of groups and at the middle of connections.
func ExternalLabelMid(e *Element) model.Point {
	switch {
	case e.IsConnection():
		return WaypointsMid(e.Waypoints)
	case e.Is(schema.KindGroup):
		return model.Point{X: e.X + e.Width/2, Y: e.Y + DefaultLabelSize.Height/2}
	}
	return model.Point{X: e.X + e.Width/2, Y: e.Y + e.Height + DefaultLabelSize.Height/2}
}

// NewLabel creates the label element of target. Without bounds the label
// takes the default size at its external position.
func NewLabel(target *Element, bounds *model.Bounds) *Element {
	l := &Element{
		ID:             LabelID(target.ID),
		Type:           TypeLabel,
		BusinessObject: target.BusinessObject,
		LabelTarget:    target,
	}
	if bounds != nil {
		l.SetBounds(*bounds)
		return l
	}
	mid := ExternalLabelMid(target)
	l.SetBounds(model.Bounds{
		X:      mid.X - DefaultLabelSize.Width/2,
		Y:      mid.Y - DefaultLabelSize.Height/2,
		Width:  DefaultLabelSize.Width,
		Height: DefaultLabelSize.Height,
	})
	return l
}

// AddLabel links label to target.
func AddLabel(target, label *Element) {
	label.LabelTarget = target
	target.Labels = addElement(target.Labels, label, -1)
}

// RemoveLabel unlinks label from its target. The LabelTarget back pointer is
// kept so a restored label finds its target again.
func RemoveLabel(label *Element) {
	if label.LabelTarget != nil {
		label.LabelTarget.Labels, _ = removeElement(label.LabelTarget.Labels, label)
	}
}
