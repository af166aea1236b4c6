// Package modeling implements the structural commands of the diagram and
// the Modeling facade callers use to edit a document. Handlers only touch
// the diagram graph; the updater mirrors each change into the semantic
// model from its interceptors.
package modeling

import (
	"log/slog"
	"slices"

	"github.com/mrajende/vdmlio/internal/command"
	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/internal/rules"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// BehaviorPriority runs modeling behaviors before the ordering provider so
// that the parent they pick gets ordered.
const BehaviorPriority = rules.OrderingPriority + 500

// Modeling executes structural edits through the command stack.
type Modeling struct {
	stack   *command.Stack
	canvas  *diagram.Canvas
	rules   *rules.Rules
	factory *Factory
	logger  *slog.Logger
}

// New creates the facade. Call Register once to install the handlers.
func New(stack *command.Stack, canvas *diagram.Canvas, r *rules.Rules, factory *Factory, logger *slog.Logger) *Modeling {
	if logger == nil {
		logger = slog.Default()
	}
	return &Modeling{
		stack:   stack,
		canvas:  canvas,
		rules:   r,
		factory: factory,
		logger:  logger.With("component", "modeling"),
	}
}

// Register installs every command handler and the modeling behaviors.
func (m *Modeling) Register() error {
	handlers := map[string]command.Handler{
		command.ShapeCreate:               &createShapeHandler{m},
		command.ShapeDelete:               &deleteShapeHandler{m},
		command.ShapeMove:                 &moveShapeHandler{m},
		command.ShapeResize:               &resizeShapeHandler{m},
		command.ShapeAppend:               &appendShapeHandler{m},
		command.ElementsMove:              &moveElementsHandler{m},
		command.ElementsDelete:            &deleteElementsHandler{m},
		command.ConnectionCreate:          &createConnectionHandler{m},
		command.ConnectionDelete:          &deleteConnectionHandler{m},
		command.ConnectionMove:            &moveConnectionHandler{m},
		command.ConnectionReconnect:       &reconnectHandler{m},
		command.ConnectionLayout:          &layoutConnectionHandler{m},
		command.ConnectionUpdateWaypoints: &updateWaypointsHandler{},
		command.ElementUpdateAttachment:   &updateAttachmentHandler{},
		command.ElementUpdateProperties:   &updatePropertiesHandler{m},
		command.CanvasUpdateRoot:          &updateRootHandler{m},
		command.LabelCreate:               &createLabelHandler{m},
	}
	for _, name := range command.Names {
		if err := m.stack.Register(name, handlers[name]); err != nil {
			return err
		}
	}
	m.registerBehaviors()
	return nil
}

// Factory returns the element factory.
func (m *Modeling) Factory() *Factory {
	return m.factory
}

// Canvas returns the canvas the commands operate on.
func (m *Modeling) Canvas() *diagram.Canvas {
	return m.canvas
}

// Rules returns the rules gating the commands.
func (m *Modeling) Rules() *rules.Rules {
	return m.rules
}

func (m *Modeling) execute(name string, ctx *command.Context) error {
	return m.stack.Execute(name, ctx)
}

// CreateShape creates shape centered at position inside parent, or the root
// when parent is nil. A boundary candidate dropped on the border of an
// activity is attached to it.
func (m *Modeling) CreateShape(shape *diagram.Element, position model.Point, parent *diagram.Element) (*diagram.Element, error) {
	ctx := m.createContext(shape, position, parent)
	if err := m.execute(command.ShapeCreate, ctx); err != nil {
		return nil, err
	}
	return shape, nil
}

func (m *Modeling) createContext(shape *diagram.Element, position model.Point, parent *diagram.Element) *command.Context {
	if parent == nil {
		parent = m.canvas.Root()
	}
	ctx := command.NewContext()
	ctx.Shape = shape
	ctx.Position = &position
	ctx.Parent = parent
	if parent != nil && m.rules.CanAttach([]*diagram.Element{shape}, parent, nil, &position) {
		ctx.Host = parent
		ctx.Parent = parent.Parent
		ctx.Hints.Attach = true
	}
	return ctx
}

// AppendShape creates shape at position next to source and connects the two
// in one operation. The connection kind is picked by the rules.
func (m *Modeling) AppendShape(source, shape *diagram.Element, position model.Point) (*diagram.Element, error) {
	if source == nil {
		return nil, schema.NewError(schema.ErrCodeValidation, "append needs a source element")
	}
	parent := source.Parent
	if source.Host != nil {
		parent = source.Host.Parent
	}
	ctx := command.NewContext()
	ctx.Shape = shape
	ctx.Source = source
	ctx.Parent = parent
	ctx.Position = &position
	if err := m.execute(command.ShapeAppend, ctx); err != nil {
		return nil, err
	}
	return shape, nil
}

// Connect joins source to target with the connection kind the rules allow.
func (m *Modeling) Connect(source, target *diagram.Element, opts ConnectionOptions) (*diagram.Element, error) {
	allowed, ok := m.rules.CanConnect(source, target, nil)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeRuleRejected, "cannot connect %s to %s",
			elementID(source), elementID(target)).WithElement(elementID(source))
	}
	if opts.AssociationDirection == "" {
		opts.AssociationDirection = allowed.AssociationDirection
	}
	conn, err := m.factory.CreateConnection(allowed.Type, opts)
	if err != nil {
		return nil, err
	}
	return conn, m.CreateConnection(conn, source, target, nil)
}

// CreateConnection adds a prepared connection between source and target.
// Nil waypoints lay the connection out.
func (m *Modeling) CreateConnection(conn, source, target *diagram.Element, waypoints []model.Point) error {
	ctx := command.NewContext()
	ctx.Connection = conn
	ctx.Source = source
	ctx.Target = target
	ctx.Parent = connectionParent(source, target)
	ctx.Waypoints = waypoints
	return m.execute(command.ConnectionCreate, ctx)
}

func connectionParent(source, target *diagram.Element) *diagram.Element {
	if source == nil {
		return nil
	}
	if source.Host != nil {
		return source.Host.Parent
	}
	if target != nil && source.Parent != target.Parent && target.Parent != nil && target.Parent.IsAncestorOf(source) {
		return target.Parent
	}
	return source.Parent
}

// MoveElements moves shapes by delta, optionally into target. Boundary
// events dropped on an activity border are attached to it.
func (m *Modeling) MoveElements(shapes []*diagram.Element, delta model.Point, target *diagram.Element) error {
	shapes = slices.DeleteFunc(slices.Clone(shapes), func(e *diagram.Element) bool { return e.IsConnection() })
	if len(shapes) == 0 {
		return nil
	}
	ctx := command.NewContext()
	ctx.Shapes = shapes
	ctx.Delta = delta
	ctx.Parent = target
	if len(shapes) == 1 {
		s := shapes[0]
		mid := s.Mid()
		pos := model.Point{X: mid.X + delta.X, Y: mid.Y + delta.Y}
		ctx.Position = &pos
		if target == nil && s.Host != nil {
			target = s.Host
			ctx.Parent = target
		}
		if target != nil && m.rules.CanAttach(shapes, target, nil, &pos) {
			ctx.Host = target
			ctx.Hints.Attach = true
		}
	}
	return m.execute(command.ElementsMove, ctx)
}

// MoveShape moves a single shape by delta within its parent.
func (m *Modeling) MoveShape(shape *diagram.Element, delta model.Point) error {
	return m.MoveElements([]*diagram.Element{shape}, delta, nil)
}

// ResizeShape gives shape new bounds.
func (m *Modeling) ResizeShape(shape *diagram.Element, bounds model.Bounds) error {
	ctx := command.NewContext()
	ctx.Shape = shape
	ctx.NewBounds = bounds
	return m.execute(command.ShapeResize, ctx)
}

// Reconnect moves both ends of conn. Nil waypoints lay it out again.
func (m *Modeling) Reconnect(conn, source, target *diagram.Element, waypoints []model.Point) error {
	if conn == nil || !conn.IsConnection() {
		return schema.NewError(schema.ErrCodeValidation, "reconnect needs a connection")
	}
	ctx := command.NewContext()
	ctx.Connection = conn
	ctx.Source = source
	ctx.Target = target
	ctx.Waypoints = waypoints
	return m.execute(command.ConnectionReconnect, ctx)
}

// ReconnectStart moves the source end of conn to source.
func (m *Modeling) ReconnectStart(conn, source *diagram.Element) error {
	return m.Reconnect(conn, source, conn.Target, nil)
}

// ReconnectEnd moves the target end of conn to target.
func (m *Modeling) ReconnectEnd(conn, target *diagram.Element) error {
	return m.Reconnect(conn, conn.Source, target, nil)
}

// LayoutConnection recomputes the waypoints of conn.
func (m *Modeling) LayoutConnection(conn *diagram.Element) error {
	ctx := command.NewContext()
	ctx.Connection = conn
	return m.execute(command.ConnectionLayout, ctx)
}

// UpdateWaypoints replaces the waypoints of conn.
func (m *Modeling) UpdateWaypoints(conn *diagram.Element, waypoints []model.Point) error {
	ctx := command.NewContext()
	ctx.Connection = conn
	ctx.Waypoints = waypoints
	return m.execute(command.ConnectionUpdateWaypoints, ctx)
}

// UpdateAttachment attaches shape to host, or detaches it for a nil host.
func (m *Modeling) UpdateAttachment(shape, host *diagram.Element) error {
	ctx := command.NewContext()
	ctx.Shape = shape
	ctx.Host = host
	return m.execute(command.ElementUpdateAttachment, ctx)
}

// RemoveElements deletes elements with everything that depends on them as
// one operation.
func (m *Modeling) RemoveElements(elements []*diagram.Element) error {
	ctx := command.NewContext()
	ctx.Shapes = elements
	return m.execute(command.ElementsDelete, ctx)
}

// UpdateRoot installs newRoot as the canvas root.
func (m *Modeling) UpdateRoot(newRoot *diagram.Element) error {
	ctx := command.NewContext()
	ctx.NewRoot = newRoot
	return m.execute(command.CanvasUpdateRoot, ctx)
}

// MakeCollaboration replaces a process root with a collaboration root.
func (m *Modeling) MakeCollaboration() (*diagram.Element, error) {
	root, err := m.factory.CreateRoot(schema.KindCollaboration)
	if err != nil {
		return nil, err
	}
	return root, m.UpdateRoot(root)
}

// MakeProcess replaces the root with a fresh process root.
func (m *Modeling) MakeProcess() (*diagram.Element, error) {
	root, err := m.factory.CreateRoot(schema.KindProcess)
	if err != nil {
		return nil, err
	}
	return root, m.UpdateRoot(root)
}

// CreateLabel adds the external label of target.
func (m *Modeling) CreateLabel(target *diagram.Element, bounds *model.Bounds) (*diagram.Element, error) {
	label := diagram.NewLabel(target, bounds)
	ctx := command.NewContext()
	ctx.Shape = label
	ctx.LabelTarget = target
	if err := m.execute(command.LabelCreate, ctx); err != nil {
		return nil, err
	}
	return label, nil
}

// Properties lists the semantic fields element.updateProperties may set.
// Nil fields are left unchanged.
type Properties struct {
	Name *string
	// Default names the outgoing flow to use as default; a pointer to nil
	// clears it.
	Default **diagram.Element
	// Condition sets the condition of a flow; a pointer to nil clears it.
	Condition **model.Expression
}

// UpdateProperties changes semantic properties of element.
func (m *Modeling) UpdateProperties(element *diagram.Element, props Properties) error {
	ctx := command.NewContext()
	if element.IsConnection() {
		ctx.Connection = element
	} else {
		ctx.Shape = element
	}
	ctx.SetValue(propertiesKey{}, props)
	return m.execute(command.ElementUpdateProperties, ctx)
}

func elementID(e *diagram.Element) string {
	if e == nil {
		return ""
	}
	return e.ID
}
