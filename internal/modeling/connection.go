package modeling

import (
	"slices"

	"github.com/mrajende/vdmlio/internal/command"
	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// createConnectionHandler implements connection.create.
//
// Context: Connection, Source, Target, Parent, ParentIndex, Waypoints (nil
// for a straight layout).
type createConnectionHandler struct{ m *Modeling }

func (h *createConnectionHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	c := ctx.Connection
	if c == nil || ctx.Source == nil || ctx.Target == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "connection.create needs a connection, source and target")
	}
	if len(ctx.Waypoints) > 0 {
		c.Waypoints = slices.Clone(ctx.Waypoints)
	} else {
		c.Waypoints = layout(ctx.Source, ctx.Target, ctx.Hints)
	}
	c.Source, c.Target = nil, nil
	c.Type = diagram.TypeConnection
	if err := h.m.canvas.AddConnection(c, ctx.Parent, ctx.ParentIndex); err != nil {
		return nil, err
	}
	diagram.Connect(c, ctx.Source, ctx.Target)
	return []*diagram.Element{c, ctx.Source, ctx.Target}, nil
}

func (h *createConnectionHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	h.m.canvas.RemoveConnection(ctx.Connection)
	return []*diagram.Element{ctx.Connection, ctx.Source, ctx.Target}, nil
}

func (h *createConnectionHandler) PostExecute(ctx *command.Context) error {
	if ctx.Hints.NoLabels {
		return nil
	}
	return h.m.ensureLabel(ctx.Connection)
}

// layout returns straight waypoints between source and target, pinned to
// the docking hints when given.
func layout(source, target *diagram.Element, hints command.Hints) []model.Point {
	pts := diagram.StraightWaypoints(source, target)
	if len(pts) < 2 {
		return pts
	}
	if hints.ConnectionStart != nil {
		pts[0] = *hints.ConnectionStart
	}
	if hints.ConnectionEnd != nil {
		pts[len(pts)-1] = *hints.ConnectionEnd
	}
	return pts
}

// deleteConnectionHandler implements connection.delete. Context:
// Connection. Its labels are deleted first.
type deleteConnectionHandler struct{ m *Modeling }

func (h *deleteConnectionHandler) PreExecute(ctx *command.Context) error {
	for _, l := range slices.Clone(ctx.Connection.Labels) {
		if err := h.m.removeElement(l); err != nil {
			return err
		}
	}
	return nil
}

func (h *deleteConnectionHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	c := ctx.Connection
	ctx.OldParent = c.Parent
	ctx.OldSource, ctx.OldTarget = c.Source, c.Target
	ctx.OldIndex = h.m.canvas.RemoveConnection(c)
	return []*diagram.Element{c, ctx.OldSource, ctx.OldTarget}, nil
}

func (h *deleteConnectionHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	c := ctx.Connection
	c.Source, c.Target = ctx.OldSource, ctx.OldTarget
	if err := h.m.canvas.Restore(c, ctx.OldParent, ctx.OldIndex); err != nil {
		return nil, err
	}
	return []*diagram.Element{c, ctx.OldSource, ctx.OldTarget}, nil
}

// moveConnectionHandler implements connection.move. Context: Connection,
// Delta, Parent (nil keeps the parent), ParentIndex.
type moveConnectionHandler struct{ m *Modeling }

func (h *moveConnectionHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	c := ctx.Connection
	ctx.OldParent = c.Parent
	ctx.OldWaypoints = slices.Clone(c.Waypoints)
	parent := ctx.Parent
	if parent == nil {
		parent = c.Parent
	}
	ctx.OldIndex = diagram.SetParent(c, parent, ctx.ParentIndex)
	c.Waypoints = diagram.Translate(c.Waypoints, ctx.Delta)
	return []*diagram.Element{c}, nil
}

func (h *moveConnectionHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	c := ctx.Connection
	diagram.SetParent(c, ctx.OldParent, ctx.OldIndex)
	c.Waypoints = ctx.OldWaypoints
	return []*diagram.Element{c}, nil
}

func (h *moveConnectionHandler) PostExecute(ctx *command.Context) error {
	if ctx.Hints.NoLabels {
		return nil
	}
	for _, l := range slices.Clone(ctx.Connection.Labels) {
		sub := command.NewContext()
		sub.Shape = l
		sub.Delta = ctx.Delta
		sub.Hints.NoLabels = true
		if err := h.m.execute(command.ShapeMove, sub); err != nil {
			return err
		}
	}
	return nil
}

// reconnectHandler implements connection.reconnect.
//
// Context: Connection, Source, Target (the new endpoints), Waypoints (nil
// for a straight layout). The handler records OldSource, OldTarget and
// OldWaypoints.
type reconnectHandler struct{ m *Modeling }

func (h *reconnectHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	c := ctx.Connection
	if ctx.Source == nil || ctx.Target == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "connection.reconnect needs both endpoints").WithElement(c.ID)
	}
	ctx.OldSource, ctx.OldTarget = c.Source, c.Target
	ctx.OldWaypoints = slices.Clone(c.Waypoints)
	diagram.Connect(c, ctx.Source, ctx.Target)
	if len(ctx.Waypoints) > 0 {
		c.Waypoints = slices.Clone(ctx.Waypoints)
	} else {
		c.Waypoints = layout(c.Source, c.Target, ctx.Hints)
	}
	return []*diagram.Element{c, ctx.OldSource, ctx.OldTarget, ctx.Source, ctx.Target}, nil
}

func (h *reconnectHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	c := ctx.Connection
	diagram.Connect(c, ctx.OldSource, ctx.OldTarget)
	c.Waypoints = ctx.OldWaypoints
	return []*diagram.Element{c, ctx.OldSource, ctx.OldTarget, ctx.Source, ctx.Target}, nil
}

// layoutConnectionHandler implements connection.layout. Context:
// Connection, Hints.
type layoutConnectionHandler struct{ m *Modeling }

func (h *layoutConnectionHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	c := ctx.Connection
	ctx.OldWaypoints = slices.Clone(c.Waypoints)
	c.Waypoints = layout(c.Source, c.Target, ctx.Hints)
	return []*diagram.Element{c}, nil
}

func (h *layoutConnectionHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	ctx.Connection.Waypoints = ctx.OldWaypoints
	return []*diagram.Element{ctx.Connection}, nil
}

// updateWaypointsHandler implements connection.updateWaypoints. Context:
// Connection, Waypoints.
type updateWaypointsHandler struct{}

func (updateWaypointsHandler) Execute(ctx *command.Context) ([]*diagram.Element, error) {
	c := ctx.Connection
	ctx.OldWaypoints = slices.Clone(c.Waypoints)
	c.Waypoints = slices.Clone(ctx.Waypoints)
	return []*diagram.Element{c}, nil
}

func (updateWaypointsHandler) Revert(ctx *command.Context) ([]*diagram.Element, error) {
	ctx.Connection.Waypoints = ctx.OldWaypoints
	return []*diagram.Element{ctx.Connection}, nil
}
