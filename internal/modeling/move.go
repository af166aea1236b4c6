package modeling

import (
	"slices"

	"github.com/mrajende/vdmlio/internal/command"
	"github.com/mrajende/vdmlio/internal/diagram"
)

// closure is everything that travels with a set of moved shapes.
type closure struct {
	// shapes lists hosts and containers first, then attached shapes, then
	// labels, so every parent has moved before its dependents.
	shapes      []*diagram.Element
	connections []*diagram.Element
	topLevel    map[*diagram.Element]bool
	contains    map[*diagram.Element]bool
}

func newClosure(shapes []*diagram.Element) *closure {
	cl := &closure{
		topLevel: make(map[*diagram.Element]bool),
		contains: make(map[*diagram.Element]bool),
	}
	for _, s := range shapes {
		if s.IsConnection() || cl.topLevel[s] {
			continue
		}
		nested := slices.ContainsFunc(shapes, func(o *diagram.Element) bool {
			return o != s && o.IsAncestorOf(s)
		})
		if !nested && !(s.IsLabel() && slices.Contains(shapes, s.LabelTarget)) {
			cl.topLevel[s] = true
		}
	}

	var main, attachers, labels []*diagram.Element
	var visit func(e *diagram.Element)
	visit = func(e *diagram.Element) {
		if cl.contains[e] {
			return
		}
		cl.contains[e] = true
		switch {
		case e.IsLabel():
			labels = append(labels, e)
		case e.IsConnection():
			cl.connections = append(cl.connections, e)
		case e.Host != nil && cl.contains[e.Host]:
			attachers = append(attachers, e)
		default:
			main = append(main, e)
		}
		for _, child := range e.Children {
			visit(child)
		}
		for _, a := range e.Attachers {
			visit(a)
		}
	}
	withHost := func(s *diagram.Element) bool { return s.Host != nil && slices.Contains(shapes, s.Host) }
	for _, s := range shapes {
		if cl.topLevel[s] && !withHost(s) {
			visit(s)
		}
	}
	for _, s := range shapes {
		if cl.topLevel[s] {
			visit(s)
		}
	}

	// Connections with at least one moved end; labels only follow
	// connections that move as a whole.
	for _, s := range slices.Concat(main, attachers) {
		for _, c := range slices.Concat(s.Incoming, s.Outgoing) {
			if !slices.Contains(cl.connections, c) {
				cl.connections = append(cl.connections, c)
			}
		}
	}
	for _, e := range slices.Concat(main, attachers, cl.connections) {
		if e.IsConnection() && !cl.enclosed(e) {
			continue
		}
		for _, l := range e.Labels {
			if !cl.contains[l] {
				cl.contains[l] = true
				labels = append(labels, l)
			}
		}
	}
	cl.shapes = slices.Concat(main, attachers, labels)
	return cl
}

func (cl *closure) enclosed(c *diagram.Element) bool {
	return cl.contains[c.Source] && cl.contains[c.Target]
}

// moveElementsHandler implements elements.move.
//
// Context: Shapes, Delta, Parent (the drop target, nil keeps parents),
// Position, Host with Hints.Attach for attaching a boundary event. All work
// happens in nested shape.move, connection.move and connection.layout
// commands.
type moveElementsHandler struct{ m *Modeling }

func (h *moveElementsHandler) PreExecute(ctx *command.Context) error {
	cl := newClosure(ctx.Shapes)
	attach := ctx.Hints.Attach && ctx.Host != nil

	for _, s := range cl.shapes {
		sub := command.NewContext()
		sub.Shape = s
		sub.Delta = ctx.Delta
		sub.Hints = command.Hints{NoLayout: true, NoLabels: true}
		switch {
		case s.IsLabel():
		case s.Host != nil && cl.contains[s.Host]:
			sub.Parent = s.Host.Parent
		case cl.topLevel[s] && attach:
			sub.Parent = ctx.Host.Parent
		case cl.topLevel[s] && ctx.Parent != nil:
			sub.Parent = ctx.Parent
		}
		if err := h.m.execute(command.ShapeMove, sub); err != nil {
			return err
		}
	}

	if attach {
		for _, s := range ctx.Shapes {
			if cl.topLevel[s] && s.Host != ctx.Host {
				if err := h.m.UpdateAttachment(s, ctx.Host); err != nil {
					return err
				}
			}
		}
	}

	for _, c := range cl.connections {
		sub := command.NewContext()
		sub.Connection = c
		if !cl.enclosed(c) {
			if err := h.m.execute(command.ConnectionLayout, sub); err != nil {
				return err
			}
			continue
		}
		sub.Delta = ctx.Delta
		sub.Hints.NoLabels = true
		if c.Source.Parent == c.Target.Parent {
			sub.Parent = c.Source.Parent
		}
		if err := h.m.execute(command.ConnectionMove, sub); err != nil {
			return err
		}
	}
	return nil
}

func (h *moveElementsHandler) Execute(*command.Context) ([]*diagram.Element, error) { return nil, nil }

func (h *moveElementsHandler) Revert(*command.Context) ([]*diagram.Element, error) { return nil, nil }

// deleteElementsHandler implements elements.delete. Context: Shapes, which
// may mix shapes and connections.
type deleteElementsHandler struct{ m *Modeling }

func (h *deleteElementsHandler) PreExecute(ctx *command.Context) error {
	for _, e := range ctx.Shapes {
		if err := h.m.removeElement(e); err != nil {
			return err
		}
	}
	return nil
}

func (h *deleteElementsHandler) Execute(*command.Context) ([]*diagram.Element, error) {
	return nil, nil
}

func (h *deleteElementsHandler) Revert(*command.Context) ([]*diagram.Element, error) { return nil, nil }
