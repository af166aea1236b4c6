package rules

import (
	"github.com/mrajende/vdmlio/internal/command"
	"github.com/mrajende/vdmlio/internal/diagram"
)

// Priorities of the rule guards and the ordering interceptors.
const (
	GuardPriority    = command.DefaultPriority
	OrderingPriority = command.DefaultPriority
)

func verdict(ok bool) command.Verdict {
	if ok {
		return command.Allow
	}
	return command.Deny
}

// Register installs the rules as guards on the structural commands and the
// ordering provider as pre-execute interceptors.
func (r *Rules) Register(s *command.Stack) {
	s.Guard([]string{command.ShapeCreate}, GuardPriority, func(ev *command.Event) command.Verdict {
		ctx := ev.Context
		if ctx.Host != nil {
			return verdict(r.CanAttach([]*diagram.Element{ctx.Shape}, ctx.Host, ctx.Source, ctx.Position))
		}
		return verdict(r.CanCreate(ctx.Shape, ctx.Parent, ctx.Source, ctx.Position))
	})
	s.Guard([]string{command.ConnectionCreate}, GuardPriority, func(ev *command.Event) command.Verdict {
		ctx := ev.Context
		return verdict(r.CanReconnect(ctx.Connection, ctx.Source, ctx.Target))
	})
	s.Guard([]string{command.ConnectionReconnect}, GuardPriority, func(ev *command.Event) command.Verdict {
		ctx := ev.Context
		return verdict(r.CanReconnect(ctx.Connection, ctx.Source, ctx.Target))
	})
	s.Guard([]string{command.ElementsMove}, GuardPriority, func(ev *command.Event) command.Verdict {
		ctx := ev.Context
		return verdict(r.CanMoveElements(ctx.Shapes, ctx.Parent, ctx.Position))
	})
	s.Guard([]string{command.ShapeResize}, GuardPriority, func(ev *command.Event) command.Verdict {
		ctx := ev.Context
		return verdict(r.CanResize(ctx.Shape, &ctx.NewBounds))
	})

	s.On(command.PhasePreExecute, []string{command.ShapeCreate, command.ConnectionCreate, command.LabelCreate},
		OrderingPriority, func(ev *command.Event) error {
			ctx := ev.Context
			o, err := OrderingFor(ctx.Element(), ctx.Parent)
			if err != nil {
				return err
			}
			if o.Parent != nil {
				ctx.Parent = o.Parent
			}
			ctx.ParentIndex = o.Index
			return nil
		})
	s.On(command.PhasePreExecute, []string{command.ShapeMove, command.ConnectionMove},
		OrderingPriority, func(ev *command.Event) error {
			ctx := ev.Context
			el := ctx.Element()
			parent := ctx.Parent
			if parent == nil {
				parent = el.Parent
			}
			o, err := OrderingFor(el, parent)
			if err != nil {
				return err
			}
			if o.Parent != nil {
				ctx.Parent = o.Parent
			}
			ctx.ParentIndex = o.Index
			return nil
		})
}
