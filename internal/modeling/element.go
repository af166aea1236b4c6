package modeling

import (
	"github.com/mrajende/vdmlio/internal/command"
	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// updateAttachmentHandler implements element.updateAttachment. Context:
// Shape, Host (the new host, nil detaches).
type updateAttachmentHandler struct{}

func (updateAttachmentHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	s := ctx.Shape
	ctx.OldHost = s.Host
	diagram.RemoveAttacher(s)
	if ctx.Host != nil {
		diagram.AddAttacher(ctx.Host, s)
	}
	return []*diagram.Element{s, ctx.OldHost, ctx.Host}, nil
}

func (updateAttachmentHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	s := ctx.Shape
	diagram.RemoveAttacher(s)
	if ctx.OldHost != nil {
		diagram.AddAttacher(ctx.OldHost, s)
	}
	return []*diagram.Element{s, ctx.OldHost, ctx.Host}, nil
}

// updateRootHandler implements canvas.updateRoot. Context: NewRoot. Only
// the canvas root changes; the children of the old root stay where they
// are and the updater rewires the definitions and the plane.
type updateRootHandler struct{ m *Modeling }

func (h *updateRootHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	if ctx.NewRoot == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "canvas.updateRoot needs a new root")
	}
	old, err := h.m.canvas.SetRoot(ctx.NewRoot)
	if err != nil {
		return nil, err
	}
	ctx.OldRoot = old
	return []*diagram.Element{ctx.NewRoot, old}, nil
}

func (h *updateRootHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	if _, err := h.m.canvas.SetRoot(ctx.OldRoot); err != nil {
		return nil, err
	}
	return []*diagram.Element{ctx.NewRoot, ctx.OldRoot}, nil
}

type propertiesKey struct{}

type propertiesUndoKey struct{}

type propertiesUndo struct {
	name      string
	def       *model.Node
	condition *model.Expression
}

// updatePropertiesHandler implements element.updateProperties. The
// Properties travel in the context under an unexported key. Naming an
// element with an external label creates the label.
type updatePropertiesHandler struct{ m *Modeling }

func (h *updatePropertiesHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	el := ctx.Element()
	props, _ := ctx.Value(propertiesKey{}).(Properties)
	if el == nil || el.BusinessObject == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "element.updateProperties needs an element")
	}
	bo := el.BusinessObject

	var def *model.Node
	if props.Default != nil && *props.Default != nil {
		flow := *props.Default
		if !bo.IsAny(schema.KindExclusiveGateway, schema.KindInclusiveGateway, schema.KindComplexGateway, schema.KindActivity) {
			return nil, schema.NewErrorf(schema.ErrCodeValidation, "%s cannot have a default flow", bo.Kind).WithElement(el.ID)
		}
		if flow.Source != el || !flow.Is(schema.KindSequenceFlow) {
			return nil, schema.NewErrorf(schema.ErrCodeValidation,
				"%s is not an outgoing sequence flow of %s", flow.ID, el.ID).WithElement(el.ID)
		}
		def = flow.BusinessObject
	}

	ctx.SetValue(propertiesUndoKey{}, propertiesUndo{name: bo.Name, def: bo.Default, condition: bo.ConditionExpression})
	if props.Name != nil {
		bo.Name = *props.Name
	}
	if props.Default != nil {
		bo.Default = def
	}
	if props.Condition != nil {
		if c := *props.Condition; c != nil {
			copied := *c
			bo.ConditionExpression = &copied
		} else {
			bo.ConditionExpression = nil
		}
	}
	return append([]*diagram.Element{el}, el.Labels...), nil
}

func (h *updatePropertiesHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	el := ctx.Element()
	undo, _ := ctx.Value(propertiesUndoKey{}).(propertiesUndo)
	bo := el.BusinessObject
	bo.Name = undo.name
	bo.Default = undo.def
	bo.ConditionExpression = undo.condition
	return append([]*diagram.Element{el}, el.Labels...), nil
}

func (h *updatePropertiesHandler) PostExecute(ctx *command.Context) error {
	if props, _ := ctx.Value(propertiesKey{}).(Properties); props.Name == nil {
		return nil
	}
	return h.m.ensureLabel(ctx.Element())
}
