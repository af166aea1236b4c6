package command

import (
	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
)

// Hints carries optional instructions from the caller to handlers and
// interceptors.
type Hints struct {
	// Attach creates or moves a shape as an attacher of Host.
	Attach bool
	// NoLayout skips re-layout of connections after a move or resize.
	NoLayout bool
	// NoLabels skips label handling.
	NoLabels bool
	// ConnectionStart and ConnectionEnd pin the docking points of a
	// reconnect.
	ConnectionStart *model.Point
	ConnectionEnd   *model.Point
}

// Context is the typed argument shared by a command's handler and its
// interceptors. Each command uses the subset of fields it documents; handlers
// record what they need for revert in the Old* fields.
type Context struct {
	Shape      *diagram.Element
	Shapes     []*diagram.Element
	Connection *diagram.Element

	Parent      *diagram.Element
	ParentIndex int
	OldParent   *diagram.Element
	OldIndex    int

	Host    *diagram.Element
	OldHost *diagram.Element

	Source    *diagram.Element
	Target    *diagram.Element
	OldSource *diagram.Element
	OldTarget *diagram.Element

	Position     *model.Point
	Delta        model.Point
	NewBounds    model.Bounds
	OldBounds    model.Bounds
	Waypoints    []model.Point
	OldWaypoints []model.Point

	NewRoot *diagram.Element
	OldRoot *diagram.Element

	// LabelTarget is the element a created label belongs to.
	LabelTarget *diagram.Element

	Hints Hints

	// Cropped marks that connection cropping already ran for this context.
	Cropped bool

	// OldDefault is the gateway or activity whose default flow was cleared
	// by a reconnect; OldCondition the condition removed from the flow.
	OldDefault   *model.Node
	OldCondition *model.Expression

	values map[any]any
}

// NewContext returns a context with unset parent indexes.
func NewContext() *Context {
	return &Context{ParentIndex: -1, OldIndex: -1}
}

// Value returns state stored under key by an interceptor.
func (c *Context) Value(key any) any {
	return c.values[key]
}

// SetValue stores interceptor state under key. Keys should be unexported
// types of the storing package.
func (c *Context) SetValue(key, value any) {
	if c.values == nil {
		c.values = make(map[any]any)
	}
	c.values[key] = value
}

// Element returns the primary element the command operates on.
func (c *Context) Element() *diagram.Element {
	switch {
	case c.Shape != nil:
		return c.Shape
	case c.Connection != nil:
		return c.Connection
	case c.NewRoot != nil:
		return c.NewRoot
	}
	return nil
}
