// Package rules decides whether structural edits of the diagram are legal.
// All predicates are pure: they read the diagram graph and its business
// objects and never mutate either.
package rules

import (
	"slices"

	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// Minimum sizes enforced by CanResize.
var (
	MinSubProcessSize  = Size{Width: 100, Height: 80}
	MinLaneSize        = Size{Width: 130, Height: 60}
	MinParticipantSize = Size{Width: 250, Height: 50}
)

// attachPadding is the distance inside a shape's border that still counts
// as "on the border" for attaching.
const attachPadding = -15

// Size is a width and height.
type Size struct {
	Width, Height float64
}

// Config names the connection kinds the rules hand out.
type Config struct {
	// FlowType is returned for connections between flow nodes of the same
	// scope. It must be SequenceFlow or a specialization of it.
	FlowType schema.Kind
}

// DefaultConfig returns the default rule configuration.
func DefaultConfig() Config {
	return Config{FlowType: schema.KindSequenceFlow}
}

// Connection describes the connection a CanConnect call allows.
type Connection struct {
	Type                 schema.Kind
	AssociationDirection string
}

// Replacement asks to morph an element into another kind as part of a move.
type Replacement struct {
	OldElementID string
	NewKind      schema.Kind
}

// Rules evaluates structural edits.
type Rules struct {
	cfg Config
}

// New creates Rules. A zero FlowType falls back to SequenceFlow.
func New(cfg Config) *Rules {
	if cfg.FlowType == "" || !cfg.FlowType.Is(schema.KindSequenceFlow) {
		cfg.FlowType = schema.KindSequenceFlow
	}
	return &Rules{cfg: cfg}
}

// Config returns the active configuration.
func (r *Rules) Config() Config {
	return r.cfg
}

// CanConnect reports which connection, if any, may join source to target.
// existing is the connection being reconnected, or nil.
func (r *Rules) CanConnect(source, target, existing *diagram.Element) (Connection, bool) {
	if nonExistingOrLabel(source) || nonExistingOrLabel(target) {
		return Connection{}, false
	}
	if source == target {
		return Connection{}, false
	}
	if !existing.Is(schema.KindDataAssociation) {
		if canConnectSequenceFlow(source, target) {
			return Connection{Type: r.cfg.FlowType}, true
		}
		if canConnectMessageFlow(source, target) {
			return Connection{Type: schema.KindMessageFlow}, true
		}
	}
	if k, ok := canConnectDataAssociation(source, target); ok {
		return Connection{Type: k}, true
	}
	if isCompensationBoundary(source) && isForCompensation(target) {
		return Connection{Type: schema.KindAssociation, AssociationDirection: "One"}, true
	}
	if canConnectAssociation(source, target) {
		return Connection{Type: schema.KindAssociation, AssociationDirection: "None"}, true
	}
	return Connection{}, false
}

// CanReconnect reports whether conn may be moved to the given endpoints
// without changing its kind.
func (r *Rules) CanReconnect(conn, source, target *diagram.Element) bool {
	c, ok := r.CanConnect(source, target, conn)
	if !ok {
		return false
	}
	if conn.Is(schema.KindSequenceFlow) {
		return c.Type.Is(schema.KindSequenceFlow)
	}
	return c.Type == conn.Kind()
}

// CanDrop reports whether element may be placed inside target.
func (r *Rules) CanDrop(element, target *diagram.Element) bool {
	if element == nil || target == nil {
		return false
	}
	if element.IsLabel() {
		return !target.IsConnection()
	}
	if target.IsConnection() || target.IsLabel() {
		return false
	}
	if target.Is(schema.KindParticipant) && !model.IsExpanded(target.BusinessObject) {
		return false
	}
	if element.Is(schema.KindParticipant) {
		return target.IsAny(schema.KindProcess, schema.KindCollaboration)
	}
	if element.Is(schema.KindLane) {
		return target.IsAny(schema.KindParticipant, schema.KindLane)
	}
	if element.Is(schema.KindBoundaryEvent) {
		return false
	}
	if element.Is(schema.KindFlowElement) && !element.Is(schema.KindDataStoreReference) {
		if target.Is(schema.KindFlowElementsContainer) {
			return model.IsExpanded(target.BusinessObject)
		}
		return target.IsAny(schema.KindParticipant, schema.KindLane)
	}
	if element.Is(schema.KindDataStoreReference) && target.Is(schema.KindCollaboration) {
		return slices.ContainsFunc(target.BusinessObject.Children(model.Participants), func(p *model.Node) bool {
			return p.ProcessRef != nil
		})
	}
	if element.IsAny(schema.KindArtifact, schema.KindDataAssociation, schema.KindDataStoreReference) {
		return target.IsAny(schema.KindCollaboration, schema.KindLane, schema.KindParticipant,
			schema.KindProcess, schema.KindSubProcess)
	}
	if element.Is(schema.KindMessageFlow) {
		return target.Is(schema.KindCollaboration) ||
			(element.Source != nil && element.Source.Parent == target) ||
			(element.Target != nil && element.Target.Parent == target)
	}
	return false
}

// CanAttach reports whether elements may be attached to the border of
// target. source is set while appending from a source shape; position is the
// drop point, nil to skip the border check.
func (r *Rules) CanAttach(elements []*diagram.Element, target, source *diagram.Element, position *model.Point) bool {
	if len(elements) != 1 || target == nil {
		return false
	}
	element := elements[0]
	if element.IsLabel() || !isBoundaryCandidate(element) {
		return false
	}
	if model.IsEventSubProcess(target.BusinessObject) {
		return false
	}
	if !target.Is(schema.KindActivity) || isForCompensation(target) {
		return false
	}
	if position != nil && !isBoundaryAttachment(*position, target) {
		return false
	}
	if isReceiveTaskAfterEventBasedGateway(target) {
		return false
	}
	return source == nil
}

// CanResize reports whether shape may take newBounds; nil only asks whether
// the shape is resizable at all.
func (r *Rules) CanResize(shape *diagram.Element, newBounds *model.Bounds) bool {
	fits := func(min Size) bool {
		return newBounds == nil || (newBounds.Width >= min.Width && newBounds.Height >= min.Height)
	}
	switch {
	case shape == nil:
		return false
	case shape.Is(schema.KindSubProcess):
		return model.IsExpanded(shape.BusinessObject) && fits(MinSubProcessSize)
	case shape.Is(schema.KindLane):
		return fits(MinLaneSize)
	case shape.Is(schema.KindParticipant):
		return fits(MinParticipantSize)
	case shape.IsAny(schema.KindTextAnnotation, schema.KindGroup):
		return true
	}
	return false
}

// CanReplace lists the morphs needed to move elements into target, or
// reports false when none is needed.
func (r *Rules) CanReplace(elements []*diagram.Element, target *diagram.Element, position *model.Point) ([]Replacement, bool) {
	if target == nil {
		return nil, false
	}
	var out []Replacement
	add := func(e *diagram.Element, k schema.Kind) {
		out = append(out, Replacement{OldElementID: e.ID, NewKind: k})
	}
	for _, e := range elements {
		if e.IsLabel() {
			continue
		}
		if !model.IsEventSubProcess(target.BusinessObject) &&
			e.Is(schema.KindStartEvent) && r.CanDrop(e, target) {
			bo := e.BusinessObject
			switch {
			case !bo.IsInterrupting:
				add(e, schema.KindStartEvent)
			case bo.HasEventDefinition(schema.KindErrorEventDefinition),
				bo.HasEventDefinition(schema.KindEscalationEventDefinition),
				bo.HasEventDefinition(schema.KindCompensateEventDefinition):
				add(e, schema.KindStartEvent)
			case hasAnyEventDefinition(bo, schema.KindMessageEventDefinition, schema.KindTimerEventDefinition,
				schema.KindSignalEventDefinition, schema.KindConditionalEventDefinition) &&
				target.Is(schema.KindSubProcess):
				add(e, schema.KindStartEvent)
			}
		}
		if !target.Is(schema.KindTransaction) && e.BusinessObject.HasEventDefinition(schema.KindCancelEventDefinition) {
			if e.Is(schema.KindEndEvent) && r.CanDrop(e, target) {
				add(e, schema.KindEndEvent)
			}
			if e.Is(schema.KindBoundaryEvent) && r.CanAttach([]*diagram.Element{e}, target, nil, position) {
				add(e, schema.KindBoundaryEvent)
			}
		}
	}
	return out, len(out) > 0
}

// CanMove reports whether elements may be moved into target. Lanes never
// move this way; boundary events only move with their host.
func (r *Rules) CanMove(elements []*diagram.Element, target *diagram.Element) bool {
	for _, e := range elements {
		if e.Is(schema.KindLane) {
			return false
		}
		if e.Is(schema.KindBoundaryEvent) && !slices.Contains(elements, e.Host) {
			return false
		}
	}
	if target == nil {
		return true
	}
	for _, e := range elements {
		if e.Is(schema.KindBoundaryEvent) || e.IsLabel() {
			continue
		}
		if !r.CanDrop(e, target) {
			return false
		}
	}
	return true
}

// CanMoveElements combines attach, replace and plain move for an
// elements.move command.
func (r *Rules) CanMoveElements(elements []*diagram.Element, target *diagram.Element, position *model.Point) bool {
	if r.CanAttach(elements, target, nil, position) {
		return true
	}
	if _, ok := r.CanReplace(elements, target, position); ok {
		return true
	}
	return r.CanMove(elements, target)
}

// CanCopy reports whether element may be copied as part of elements. A lane
// is only copied together with its parent.
func (r *Rules) CanCopy(elements []*diagram.Element, element *diagram.Element) bool {
	if element.Is(schema.KindLane) && !slices.Contains(elements, element.Parent) {
		return false
	}
	return true
}

// CanCreate reports whether shape may be created in target, optionally
// appended to source.
func (r *Rules) CanCreate(shape, target, source *diagram.Element, position *model.Point) bool {
	if target == nil {
		return false
	}
	if shape.IsLabel() || shape.Is(schema.KindGroup) {
		return true
	}
	if source != nil && (source == target || source.IsAncestorOf(target)) {
		return false
	}
	return r.CanDrop(shape, target) || r.CanInsert([]*diagram.Element{shape}, target)
}

// CanPaste reports whether elements may be created together in target.
// Connections must connect, attached shapes must attach to their host, and
// top level participants cannot be mixed with top level flow elements.
func (r *Rules) CanPaste(elements []*diagram.Element, target *diagram.Element, position *model.Point) bool {
	if target == nil {
		return false
	}
	var participants, flowElements bool
	for _, e := range elements {
		if e.Parent != nil && slices.Contains(elements, e.Parent) {
			continue
		}
		switch {
		case e.Is(schema.KindParticipant):
			participants = true
		case e.Is(schema.KindFlowElement) && !e.IsConnection():
			flowElements = true
		}
	}
	if participants && flowElements {
		return false
	}
	for _, e := range elements {
		switch {
		case e.IsConnection():
			if _, ok := r.CanConnect(e.Source, e.Target, e); !ok {
				return false
			}
		case e.Host != nil:
			if !r.CanAttach([]*diagram.Element{e}, e.Host, nil, position) {
				return false
			}
		case e.Parent != nil && slices.Contains(elements, e.Parent):
			continue
		default:
			if !r.CanCreate(e, target, nil, position) {
				return false
			}
		}
	}
	return true
}

// CanInsert reports whether shape may be dropped onto flow, splitting it.
func (r *Rules) CanInsert(shapes []*diagram.Element, flow *diagram.Element) bool {
	if flow == nil || len(shapes) != 1 {
		return false
	}
	shape := shapes[0]
	if flow.Source == shape || flow.Target == shape {
		return false
	}
	return flow.IsConnection() &&
		flow.IsAny(schema.KindSequenceFlow, schema.KindMessageFlow) &&
		shape.Is(schema.KindFlowNode) &&
		!shape.Is(schema.KindBoundaryEvent) &&
		r.CanDrop(shape, flow.Parent)
}

func nonExistingOrLabel(e *diagram.Element) bool {
	return e == nil || e.IsLabel()
}

func isForCompensation(e *diagram.Element) bool {
	return e != nil && e.BusinessObject != nil && e.BusinessObject.IsForCompensation
}

func isCompensationBoundary(e *diagram.Element) bool {
	return e.Is(schema.KindBoundaryEvent) && e.BusinessObject.HasEventDefinition(schema.KindCompensateEventDefinition)
}

func hasAnyEventDefinition(n *model.Node, kinds ...schema.Kind) bool {
	for _, k := range kinds {
		if n.HasEventDefinition(k) {
			return true
		}
	}
	return false
}

// hasEventDefinitionOrNone reports whether n has no event definitions or
// only definitions of kind k.
func hasEventDefinitionOrNone(n *model.Node, k schema.Kind) bool {
	for _, d := range n.EventDefinitionKinds() {
		if !d.Is(k) {
			return false
		}
	}
	return true
}

func isEventBasedTarget(e *diagram.Element) bool {
	return e.Is(schema.KindReceiveTask) ||
		(e.Is(schema.KindIntermediateCatchEvent) && hasAnyEventDefinition(e.BusinessObject,
			schema.KindMessageEventDefinition, schema.KindTimerEventDefinition,
			schema.KindConditionalEventDefinition, schema.KindSignalEventDefinition))
}

func isSequenceFlowSource(e *diagram.Element) bool {
	bo := e.BusinessObject
	return e.Is(schema.KindFlowNode) &&
		!e.Is(schema.KindEndEvent) &&
		!model.IsEventSubProcess(bo) &&
		!(e.Is(schema.KindIntermediateThrowEvent) && bo.HasEventDefinition(schema.KindLinkEventDefinition)) &&
		!isCompensationBoundary(e) &&
		!isForCompensation(e)
}

func isSequenceFlowTarget(e *diagram.Element) bool {
	bo := e.BusinessObject
	return e.Is(schema.KindFlowNode) &&
		!e.Is(schema.KindStartEvent) &&
		!e.Is(schema.KindBoundaryEvent) &&
		!model.IsEventSubProcess(bo) &&
		!(e.Is(schema.KindIntermediateCatchEvent) && bo.HasEventDefinition(schema.KindLinkEventDefinition)) &&
		!isForCompensation(e)
}

// scopeParent returns the nearest process, participant or sub process
// containing e.
func scopeParent(e *diagram.Element) *diagram.Element {
	for p := e.Parent; p != nil; p = p.Parent {
		if p.IsAny(schema.KindProcess, schema.KindParticipant, schema.KindSubProcess) {
			return p
		}
	}
	return nil
}

func canConnectSequenceFlow(source, target *diagram.Element) bool {
	if !isSequenceFlowSource(source) || !isSequenceFlowTarget(target) {
		return false
	}
	if scopeParent(source) != scopeParent(target) {
		return false
	}
	if source.Is(schema.KindEventBasedGateway) && !isEventBasedTarget(target) {
		return false
	}
	return true
}

// organization returns the process a diagram element belongs to: its own
// process, the process of its participant, or the participant itself when
// it references none.
func organization(e *diagram.Element) *model.Node {
	for p := e; p != nil; p = p.Parent {
		switch {
		case p.Is(schema.KindProcess):
			return p.BusinessObject
		case p.Is(schema.KindParticipant):
			if ref := p.BusinessObject.ProcessRef; ref != nil {
				return ref
			}
			return p.BusinessObject
		}
	}
	return nil
}

func isMessageFlowSource(e *diagram.Element) bool {
	return e.Is(schema.KindInteractionNode) &&
		!e.Is(schema.KindBoundaryEvent) &&
		(!e.Is(schema.KindEvent) ||
			(e.Is(schema.KindThrowEvent) && hasEventDefinitionOrNone(e.BusinessObject, schema.KindMessageEventDefinition)))
}

func isMessageFlowTarget(e *diagram.Element) bool {
	return e.Is(schema.KindInteractionNode) &&
		!isForCompensation(e) &&
		(!e.Is(schema.KindEvent) ||
			(e.Is(schema.KindCatchEvent) && hasEventDefinitionOrNone(e.BusinessObject, schema.KindMessageEventDefinition))) &&
		!(e.Is(schema.KindBoundaryEvent) && !e.BusinessObject.HasEventDefinition(schema.KindMessageEventDefinition))
}

func canConnectMessageFlow(source, target *diagram.Element) bool {
	if !isMessageFlowSource(source) || !isMessageFlowTarget(target) {
		return false
	}
	so, to := organization(source), organization(target)
	return so != nil && to != nil && so != to
}

func canConnectDataAssociation(source, target *diagram.Element) (schema.Kind, bool) {
	dataKinds := []schema.Kind{schema.KindDataObjectReference, schema.KindDataStoreReference}
	if source.IsAny(dataKinds...) && target.IsAny(schema.KindActivity, schema.KindThrowEvent) {
		return schema.KindDataInputAssociation, true
	}
	if target.IsAny(dataKinds...) && source.IsAny(schema.KindActivity, schema.KindCatchEvent) {
		return schema.KindDataOutputAssociation, true
	}
	return "", false
}

func canConnectAssociation(source, target *diagram.Element) bool {
	if source.IsConnection() || target.IsConnection() {
		return false
	}
	if source.Parent == target || target.Parent == source {
		return false
	}
	return source.Is(schema.KindTextAnnotation) || target.Is(schema.KindTextAnnotation)
}

func isBoundaryCandidate(e *diagram.Element) bool {
	switch {
	case e.Is(schema.KindBoundaryEvent):
		return true
	case e.Is(schema.KindIntermediateThrowEvent):
		return len(e.BusinessObject.EventDefinitionKinds()) == 0
	case e.Is(schema.KindIntermediateCatchEvent):
		return hasAnyEventDefinition(e.BusinessObject, schema.KindMessageEventDefinition,
			schema.KindTimerEventDefinition, schema.KindSignalEventDefinition,
			schema.KindConditionalEventDefinition)
	}
	return false
}

func isReceiveTaskAfterEventBasedGateway(e *diagram.Element) bool {
	if !e.Is(schema.KindReceiveTask) {
		return false
	}
	return slices.ContainsFunc(e.Incoming, func(c *diagram.Element) bool {
		return c.Source.Is(schema.KindEventBasedGateway)
	})
}

// Orientation returns where p lies relative to ref, grown by padding:
// "top", "top-right", ..., or "intersect" when inside.
func Orientation(p model.Point, ref model.Bounds, padding float64) string {
	top := p.Y+padding <= ref.Y
	right := p.X-padding >= ref.X+ref.Width
	bottom := p.Y-padding >= ref.Y+ref.Height
	left := p.X+padding <= ref.X

	vertical := ""
	switch {
	case top:
		vertical = "top"
	case bottom:
		vertical = "bottom"
	}
	horizontal := ""
	switch {
	case left:
		horizontal = "left"
	case right:
		horizontal = "right"
	}
	switch {
	case vertical != "" && horizontal != "":
		return vertical + "-" + horizontal
	case horizontal != "":
		return horizontal
	case vertical != "":
		return vertical
	}
	return "intersect"
}

func isBoundaryAttachment(p model.Point, target *diagram.Element) bool {
	return Orientation(p, target.Bounds(), attachPadding) != "intersect"
}
