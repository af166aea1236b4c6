package modeling

import (
	"slices"

	"github.com/mrajende/vdmlio/internal/command"
	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// createShapeHandler implements shape.create.
//
// Context: Shape, Parent, ParentIndex, Position (center), Host when
// attaching. The ordering provider fixes Parent and ParentIndex.
type createShapeHandler struct{ m *Modeling }

func (h *createShapeHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	shape := ctx.Shape
	if shape == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "shape.create needs a shape")
	}
	if ctx.Position != nil {
		shape.X = ctx.Position.X - shape.Width/2
		shape.Y = ctx.Position.Y - shape.Height/2
	}
	if err := h.m.canvas.AddShape(shape, ctx.Parent, ctx.ParentIndex); err != nil {
		return nil, err
	}
	if ctx.Host != nil {
		diagram.AddAttacher(ctx.Host, shape)
	}
	return []*diagram.Element{shape, shape.Parent}, nil
}

func (h *createShapeHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	parent := ctx.Shape.Parent
	h.m.canvas.RemoveShape(ctx.Shape)
	return []*diagram.Element{ctx.Shape, parent}, nil
}

func (h *createShapeHandler) PostExecute(ctx *command.Context) error {
	if ctx.Hints.NoLabels {
		return nil
	}
	return h.m.ensureLabel(ctx.Shape)
}

// ensureLabel creates the external label of a named element that has none.
func (m *Modeling) ensureLabel(e *diagram.Element) error {
	if e.BusinessObject == nil || e.BusinessObject.Name == "" || e.Label() != nil {
		return nil
	}
	if !diagram.HasExternalLabel(e.Kind()) {
		return nil
	}
	_, err := m.CreateLabel(e, nil)
	return err
}

// deleteShapeHandler implements shape.delete. Labels, connections, attached
// shapes and children are deleted first as nested commands.
type deleteShapeHandler struct{ m *Modeling }

func (h *deleteShapeHandler) PreExecute(ctx *command.Context) error {
	s := ctx.Shape
	for _, l := range slices.Clone(s.Labels) {
		if err := h.m.removeElement(l); err != nil {
			return err
		}
	}
	for _, c := range slices.Concat(s.Incoming, s.Outgoing) {
		if err := h.m.removeElement(c); err != nil {
			return err
		}
	}
	for _, a := range slices.Clone(s.Attachers) {
		if err := h.m.removeElement(a); err != nil {
			return err
		}
	}
	for _, child := range slices.Clone(s.Children) {
		if err := h.m.removeElement(child); err != nil {
			return err
		}
	}
	return nil
}

// removeElement deletes e unless an earlier nested delete already did.
func (m *Modeling) removeElement(e *diagram.Element) error {
	if m.canvas.Registry().Get(e.ID) != e {
		return nil
	}
	ctx := command.NewContext()
	if e.IsConnection() {
		ctx.Connection = e
		return m.execute(command.ConnectionDelete, ctx)
	}
	ctx.Shape = e
	return m.execute(command.ShapeDelete, ctx)
}

func (h *deleteShapeHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	s := ctx.Shape
	ctx.OldParent = s.Parent
	ctx.OldHost = s.Host
	ctx.OldIndex = h.m.canvas.RemoveShape(s)
	return []*diagram.Element{s, ctx.OldParent}, nil
}

func (h *deleteShapeHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	s := ctx.Shape
	if err := h.m.canvas.Restore(s, ctx.OldParent, ctx.OldIndex); err != nil {
		return nil, err
	}
	if ctx.OldHost != nil {
		diagram.AddAttacher(ctx.OldHost, s)
	}
	return []*diagram.Element{s, ctx.OldParent}, nil
}

// moveShapeHandler implements shape.move.
//
// Context: Shape, Delta, Parent (nil keeps the current parent),
// ParentIndex. Unless hinted otherwise, labels follow and the connections
// of the shape are laid out again afterwards.
type moveShapeHandler struct{ m *Modeling }

func (h *moveShapeHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	s := ctx.Shape
	ctx.OldParent = s.Parent
	ctx.OldBounds = s.Bounds()
	parent := ctx.Parent
	if parent == nil {
		parent = s.Parent
	}
	ctx.OldIndex = diagram.SetParent(s, parent, ctx.ParentIndex)
	s.X += ctx.Delta.X
	s.Y += ctx.Delta.Y
	return []*diagram.Element{s, ctx.OldParent, parent}, nil
}

func (h *moveShapeHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	s := ctx.Shape
	parent := s.Parent
	diagram.SetParent(s, ctx.OldParent, ctx.OldIndex)
	s.SetBounds(ctx.OldBounds)
	return []*diagram.Element{s, ctx.OldParent, parent}, nil
}

func (h *moveShapeHandler) PostExecute(ctx *command.Context) error {
	s := ctx.Shape
	if !ctx.Hints.NoLabels {
		for _, l := range slices.Clone(s.Labels) {
			sub := command.NewContext()
			sub.Shape = l
			sub.Delta = ctx.Delta
			sub.Hints.NoLabels = true
			if err := h.m.execute(command.ShapeMove, sub); err != nil {
				return err
			}
		}
	}
	if ctx.Hints.NoLayout {
		return nil
	}
	return h.m.layoutConnected(s)
}

// layoutConnected lays out every connection ending at s.
func (m *Modeling) layoutConnected(s *diagram.Element) error {
	for _, c := range slices.Concat(s.Incoming, s.Outgoing) {
		if err := m.LayoutConnection(c); err != nil {
			return err
		}
	}
	return nil
}

// resizeShapeHandler implements shape.resize. Context: Shape, NewBounds.
type resizeShapeHandler struct{ m *Modeling }

func (h *resizeShapeHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	s := ctx.Shape
	ctx.OldBounds = s.Bounds()
	s.SetBounds(ctx.NewBounds)
	return []*diagram.Element{s}, nil
}

func (h *resizeShapeHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	ctx.Shape.SetBounds(ctx.OldBounds)
	return []*diagram.Element{ctx.Shape}, nil
}

func (h *resizeShapeHandler) PostExecute(ctx *command.Context) error {
	if ctx.Hints.NoLayout {
		return nil
	}
	return h.m.layoutConnected(ctx.Shape)
}

// appendShapeHandler implements shape.append: it creates Shape next to
// Source and connects the two. It changes nothing itself.
type appendShapeHandler struct{ m *Modeling }

func (h *appendShapeHandler) PreExecute(ctx *command.Context) error {
	sub := h.m.createContext(ctx.Shape, *ctx.Position, ctx.Parent)
	sub.Hints.Attach = false
	sub.Host = nil
	sub.Parent = ctx.Parent
	sub.Source = ctx.Source
	return h.m.execute(command.ShapeCreate, sub)
}

func (h *appendShapeHandler) Execute(*command.Context) ([]*diagram.Element, error) { return nil, nil }

func (h *appendShapeHandler) Revert(*command.Context) ([]*diagram.Element, error) { return nil, nil }

func (h *appendShapeHandler) PostExecute(ctx *command.Context) error {
	conn, err := h.m.Connect(ctx.Source, ctx.Shape, ConnectionOptions{})
	if err != nil {
		return err
	}
	ctx.Connection = conn
	return nil
}

// createLabelHandler implements label.create.
//
// Context: Shape (the label), LabelTarget, Position (center, optional).
// Labels always live under the root.
type createLabelHandler struct{ m *Modeling }

func (h *createLabelHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	label, target := ctx.Shape, ctx.LabelTarget
	if label == nil || target == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "label.create needs a label and its target")
	}
	label.Type = diagram.TypeLabel
	label.BusinessObject = target.BusinessObject
	if ctx.Position != nil {
		label.X = ctx.Position.X - label.Width/2
		label.Y = ctx.Position.Y - label.Height/2
	}
	if err := h.m.canvas.AddShape(label, ctx.Parent, ctx.ParentIndex); err != nil {
		return nil, err
	}
	diagram.AddLabel(target, label)
	return []*diagram.Element{label, target}, nil
}

func (h *createLabelHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	h.m.canvas.RemoveShape(ctx.Shape)
	return []*diagram.Element{ctx.Shape, ctx.LabelTarget}, nil
}
