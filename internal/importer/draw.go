package importer

import (
	"slices"

	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// draw adds the shape or connection presenting n under parent, plus its
// external label.
func (w *walker) draw(n *model.Node, parent *diagram.Element) (*diagram.Element, error) {
	if prev, ok := w.drawn[n]; ok {
		return nil, schema.NewErrorf(schema.ErrCodeAlreadyRendered, "already rendered %s", prev.ID).WithElement(n.ID)
	}
	w.doc.EnsureID(n, "")
	di := n.DI()

	var el *diagram.Element
	var err error
	switch di.Kind {
	case model.DIShape:
		el, err = w.drawShape(n, di, parent)
	case model.DIEdge:
		el, err = w.drawConnection(n, di, parent)
	default:
		err = schema.NewErrorf(schema.ErrCodeUnknownDI, "unknown DI %s for %s", di.ID, n.ID).WithElement(n.ID)
	}
	if err != nil {
		return nil, err
	}
	w.drawn[n] = el
	w.drawnCount++

	if n.Name != "" && diagram.HasExternalLabel(n.Kind) {
		w.drawLabel(el, di)
	}
	return el, nil
}

func (w *walker) drawShape(n *model.Node, di *model.DI, parent *diagram.Element) (*diagram.Element, error) {
	if n.IsAny(schema.KindSequenceFlow, schema.KindMessageFlow, schema.KindAssociation, schema.KindDataAssociation) {
		return nil, schema.NewErrorf(schema.ErrCodeUnknownDI, "shape DI %s for connection %s", di.ID, n.ID).WithElement(n.ID)
	}
	el := &diagram.Element{
		ID:             n.ID,
		Type:           diagram.TypeShape,
		BusinessObject: n,
		Collapsed:      !model.IsExpanded(n),
		Hidden:         hiddenByParent(parent),
	}
	if di.Bounds != nil {
		el.SetBounds(*di.Bounds)
	}

	var host *diagram.Element
	if n.Is(schema.KindBoundaryEvent) {
		if n.AttachedToRef == nil {
			return nil, schema.NewErrorf(schema.ErrCodeUnresolvedReference, "boundary event %s is attached to nothing", n.ID).
				WithElement(n.ID)
		}
		h, ok := w.drawn[n.AttachedToRef]
		if !ok {
			return nil, schema.NewErrorf(schema.ErrCodeNotYetDrawn,
				"element %s referenced by %s#attachedToRef not yet drawn", n.AttachedToRef.ID, n.ID).
				WithElement(n.ID).
				WithDetails(map[string]any{"element": n.ID, "referenced": n.AttachedToRef.ID})
		}
		host = h
	}

	if err := w.canvas.AddShape(el, parent, -1); err != nil {
		return nil, err
	}
	if host != nil {
		diagram.AddAttacher(host, el)
	}
	return el, nil
}

func hiddenByParent(parent *diagram.Element) bool {
	return parent != nil && (parent.Hidden || (parent.Type == diagram.TypeShape && parent.Collapsed))
}

func (w *walker) drawConnection(n *model.Node, di *model.DI, parent *diagram.Element) (*diagram.Element, error) {
	sourceNode, targetNode := endpoints(n)
	source, err := w.endpoint(n, sourceNode, "source")
	if err != nil {
		return nil, err
	}
	target, err := w.endpoint(n, targetNode, "target")
	if err != nil {
		return nil, err
	}
	el := &diagram.Element{
		ID:             n.ID,
		Type:           diagram.TypeConnection,
		BusinessObject: n,
		Waypoints:      slices.Clone(di.Waypoints),
		Hidden:         hiddenByParent(parent),
	}
	if err := w.canvas.AddConnection(el, parent, -1); err != nil {
		return nil, err
	}
	diagram.Connect(el, source, target)
	return el, nil
}

// endpoints returns the semantic source and target of a connection. Data
// associations are owned by the activity or event at one of their ends.
func endpoints(n *model.Node) (source, target *model.Node) {
	switch {
	case n.Is(schema.KindDataInputAssociation):
		if len(n.SourceRefs) > 0 {
			source = n.SourceRefs[0]
		}
		return source, n.Parent()
	case n.Is(schema.KindDataOutputAssociation):
		return n.Parent(), n.TargetRef
	}
	return n.SourceRef, n.TargetRef
}

func (w *walker) endpoint(conn, ref *model.Node, property string) (*diagram.Element, error) {
	if ref == nil {
		return nil, schema.NewErrorf(schema.ErrCodeUnresolvedReference, "%s of %s is not set", property, conn.ID).
			WithElement(conn.ID)
	}
	el, ok := w.drawn[ref]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotYetDrawn,
			"element %s referenced by %s#%sRef not yet drawn", ref.ID, conn.ID, property).
			WithElement(conn.ID).
			WithDetails(map[string]any{"element": conn.ID, "referenced": ref.ID})
	}
	return el, nil
}

// drawLabel adds the external label of el under the root, at the DI label
// bounds when present. A label that cannot be added is only reported.
func (w *walker) drawLabel(el *diagram.Element, di *model.DI) {
	var bounds *model.Bounds
	if di.Label != nil {
		bounds = di.Label.Bounds
	}
	label := diagram.NewLabel(el, bounds)
	label.Hidden = el.Hidden
	if err := w.canvas.AddShape(label, w.canvas.Root(), -1); err != nil {
		w.warn(schema.WarningFromError(err, el.ID).Code, label.ID, el.ID, "unable to render label of "+el.ID, err)
		return
	}
	diagram.AddLabel(el, label)
}
