package modeling

import (
	"math"
	"slices"

	"github.com/mrajende/vdmlio/internal/command"
	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

type morphKey struct{}

type insertKey struct{}

// Padding around the content of a process that is wrapped into its first
// participant.
const (
	participantPaddingX = 50
	participantPaddingY = 30
	participantHeader   = 30
)

func (m *Modeling) registerBehaviors() {
	m.stack.On(command.PhasePreExecute, []string{command.ShapeCreate}, BehaviorPriority, m.createParticipant)
	m.stack.On(command.PhasePostExecute, []string{command.ShapeCreate}, BehaviorPriority, m.wrapProcessContent)
	m.stack.On(command.PhasePostExecute, []string{command.ShapeDelete}, BehaviorPriority, m.removeLastParticipant)
	m.stack.On(command.PhasePreExecute, []string{command.ShapeCreate}, BehaviorPriority, m.dropOnFlow)
	m.stack.On(command.PhasePostExecute, []string{command.ShapeCreate}, BehaviorPriority, m.splitFlow)
}

// createParticipant turns a process view into a collaboration when the
// first participant is dropped on it. The participant takes over the
// process.
func (m *Modeling) createParticipant(ev *command.Event) error {
	ctx := ev.Context
	root := m.canvas.Root()
	if !ctx.Shape.Is(schema.KindParticipant) || root == nil || ctx.Parent != root ||
		!root.IsAny(schema.KindProcess, schema.KindEcoMap) {
		return nil
	}
	collab, err := m.factory.CreateRoot(schema.KindCollaboration)
	if err != nil {
		return err
	}
	sub := command.NewContext()
	sub.NewRoot = collab
	if err := m.execute(command.CanvasUpdateRoot, sub); err != nil {
		return err
	}

	bo := ctx.Shape.BusinessObject
	if fresh := bo.ProcessRef; fresh != nil && fresh != root.BusinessObject && len(fresh.AllChildren()) == 0 {
		m.factory.Document().Unregister(fresh)
	}
	bo.ProcessRef = root.BusinessObject
	ctx.Shape.Collapsed = false

	if content := contentOf(root); len(content) > 0 {
		b := boundingBox(content)
		ctx.Shape.SetBounds(model.Bounds{
			X:      b.X - participantPaddingX - participantHeader,
			Y:      b.Y - participantPaddingY,
			Width:  b.Width + 2*participantPaddingX + participantHeader,
			Height: b.Height + 2*participantPaddingY,
		})
		ctx.Position = nil
	}
	ctx.Parent = collab
	ctx.SetValue(morphKey{}, root)
	m.logger.Debug("process wrapped into participant", "process", root.ID, "participant", ctx.Shape.ID)
	return nil
}

// wrapProcessContent moves the content of the former process root into the
// participant created by createParticipant.
func (m *Modeling) wrapProcessContent(ev *command.Event) error {
	ctx := ev.Context
	old, ok := ctx.Value(morphKey{}).(*diagram.Element)
	if !ok {
		return nil
	}
	content := contentOf(old)
	if len(content) == 0 {
		return nil
	}
	sub := command.NewContext()
	sub.Shapes = content
	sub.Parent = ctx.Shape
	return m.execute(command.ElementsMove, sub)
}

// removeLastParticipant turns a collaboration without participants back
// into a process view. Remaining artifacts move to the new root.
func (m *Modeling) removeLastParticipant(ev *command.Event) error {
	ctx := ev.Context
	root := m.canvas.Root()
	if !ctx.Shape.Is(schema.KindParticipant) || root == nil || !root.Is(schema.KindCollaboration) {
		return nil
	}
	if slices.ContainsFunc(root.Children, func(e *diagram.Element) bool {
		return !e.IsLabel() && e.Is(schema.KindParticipant)
	}) {
		return nil
	}
	process, err := m.factory.CreateRoot(schema.KindProcess)
	if err != nil {
		return err
	}
	sub := command.NewContext()
	sub.NewRoot = process
	if err := m.execute(command.CanvasUpdateRoot, sub); err != nil {
		return err
	}
	content := contentOf(root)
	if len(content) == 0 {
		return nil
	}
	move := command.NewContext()
	move.Shapes = content
	move.Parent = process
	return m.execute(command.ElementsMove, move)
}

// dropOnFlow redirects a shape created on top of a sequence or message flow
// into the flow's container.
func (m *Modeling) dropOnFlow(ev *command.Event) error {
	ctx := ev.Context
	flow := ctx.Parent
	if !flow.IsConnection() {
		return nil
	}
	ctx.SetValue(insertKey{}, flow)
	ctx.Parent = flow.Parent
	return nil
}

// splitFlow reconnects the flow a shape was dropped on to end at the shape
// and continues it with a new flow to the old target.
func (m *Modeling) splitFlow(ev *command.Event) error {
	ctx := ev.Context
	flow, ok := ctx.Value(insertKey{}).(*diagram.Element)
	if !ok {
		return nil
	}
	shape, target := ctx.Shape, flow.Target
	if _, ok := m.rules.CanConnect(flow.Source, shape, flow); ok {
		if err := m.Reconnect(flow, flow.Source, shape, nil); err != nil {
			return err
		}
	}
	if _, ok := m.rules.CanConnect(shape, target, nil); !ok {
		return nil
	}
	_, err := m.Connect(shape, target, ConnectionOptions{})
	return err
}

// contentOf returns the shapes directly inside e, without labels and
// connections.
func contentOf(e *diagram.Element) []*diagram.Element {
	var out []*diagram.Element
	for _, c := range e.Children {
		if !c.IsLabel() && !c.IsConnection() {
			out = append(out, c)
		}
	}
	return out
}

func boundingBox(elements []*diagram.Element) model.Bounds {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, e := range elements {
		minX = math.Min(minX, e.X)
		minY = math.Min(minY, e.Y)
		maxX = math.Max(maxX, e.X+e.Width)
		maxY = math.Max(maxY, e.Y+e.Height)
	}
	return model.Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}
