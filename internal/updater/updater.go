// Package updater keeps the semantic model and its DI in step with the
// diagram graph. It hooks into the command stack: every executed structural
// command is mirrored into the document, and every reverted one is undone
// from the journal recorded at execution time.
package updater

import (
	"log/slog"
	"slices"

	"github.com/mrajende/vdmlio/internal/command"
	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// Priorities of the updater interceptors. Cropping runs before waypoints
// are copied into DI.
const (
	CropPriority = command.DefaultPriority + 500
	Priority     = command.DefaultPriority
)

// Updater mirrors diagram edits into the semantic model.
type Updater struct {
	canvas *diagram.Canvas
	doc    *model.Document
	logger *slog.Logger
}

// New creates an updater for the document shown on canvas.
func New(canvas *diagram.Canvas, doc *model.Document, logger *slog.Logger) *Updater {
	if logger == nil {
		logger = slog.Default()
	}
	return &Updater{canvas: canvas, doc: doc, logger: logger.With("component", "updater")}
}

// SetDocument rebinds the updater after an import.
func (u *Updater) SetDocument(doc *model.Document) {
	u.doc = doc
}

// Register installs the updater interceptors on s.
func (u *Updater) Register(s *command.Stack) {
	cropped := []string{command.ConnectionCreate, command.ConnectionReconnect, command.ConnectionLayout}
	s.On(command.PhaseExecuted, cropped, CropPriority, u.cropConnection)
	s.On(command.PhaseReverted, cropped, CropPriority, func(ev *command.Event) error {
		ev.Context.Cropped = false
		return nil
	})

	s.On(command.PhaseExecuted, []string{
		command.ShapeMove, command.ShapeCreate, command.ShapeDelete,
		command.ConnectionCreate, command.ConnectionMove, command.ConnectionDelete,
	}, Priority, u.updateParent)
	s.On(command.PhaseExecuted, []string{command.CanvasUpdateRoot}, Priority, u.updateRoot)
	s.On(command.PhaseExecuted, []string{
		command.ShapeMove, command.ShapeCreate, command.ShapeResize, command.LabelCreate,
	}, Priority, u.updateBounds)
	s.On(command.PhaseExecuted, []string{
		command.ConnectionCreate, command.ConnectionMove, command.ConnectionDelete, command.ConnectionReconnect,
	}, Priority, u.updateConnection)
	s.On(command.PhaseExecuted, []string{
		command.ConnectionCreate, command.ConnectionReconnect, command.ConnectionLayout,
		command.ConnectionMove, command.ConnectionUpdateWaypoints,
	}, Priority, u.updateWaypoints)
	s.On(command.PhaseExecuted, []string{command.ConnectionReconnect}, Priority, u.migrateDefaultAndCondition)
	s.On(command.PhaseReverted, []string{command.ConnectionReconnect}, Priority, u.restoreDefaultAndCondition)
	s.On(command.PhaseExecuted, []string{command.ConnectionDelete}, Priority, u.clearDeletedDefault)
	s.On(command.PhaseExecuted, []string{command.ElementUpdateAttachment, command.ShapeCreate}, Priority, u.updateAttachment)

	s.On(command.PhaseReverted, nil, Priority, func(ev *command.Event) error {
		if j, ok := ev.Context.Value(journalKey{}).(*journal); ok {
			j.undo()
		}
		return nil
	})
}

func (u *Updater) cropConnection(ev *command.Event) error {
	ctx := ev.Context
	if ctx.Cropped || ctx.Connection == nil {
		return nil
	}
	ctx.Connection.Waypoints = diagram.CropWaypoints(ctx.Connection)
	ctx.Cropped = true
	return nil
}

func (u *Updater) updateParent(ev *command.Event) error {
	ctx := ev.Context
	el := ctx.Element()
	if el == nil || el.IsLabel() || el.BusinessObject == nil {
		return nil
	}
	var oldVisual *diagram.Element
	switch ev.Command {
	case command.ShapeMove, command.ConnectionMove, command.ShapeDelete, command.ConnectionDelete:
		oldVisual = ctx.OldParent
	}
	return u.updateElementParent(journalOf(ctx), el, oldVisual)
}

// updateElementParent derives the semantic parent of el from its visual
// parent and moves its node and DI accordingly.
func (u *Updater) updateElementParent(j *journal, el, oldVisual *diagram.Element) error {
	bo := el.BusinessObject
	parentEl := el.Parent

	var parentBo *model.Node
	if parentEl != nil {
		parentBo = parentEl.BusinessObject
	}
	if bo.Is(schema.KindDataStoreReference) && parentBo.Is(schema.KindCollaboration) {
		parentBo = firstParticipantWithProcess(parentBo)
	}
	if bo.Is(schema.KindFlowNode) {
		var oldBo *model.Node
		if oldVisual != nil {
			oldBo = oldVisual.BusinessObject
		}
		u.updateFlowNodeRefs(j, bo, parentBo, oldBo)
	}
	switch {
	case bo.Is(schema.KindDataOutputAssociation):
		parentBo = nil
		if el.Source != nil {
			parentBo = el.Source.BusinessObject
		}
	case bo.Is(schema.KindDataInputAssociation):
		parentBo = nil
		if el.Target != nil {
			parentBo = el.Target.BusinessObject
		}
	}

	if err := u.updateSemanticParent(j, bo, parentBo); err != nil {
		return err
	}
	if bo.Is(schema.KindDataObjectReference) && bo.DataObjectRef != nil {
		if err := u.updateSemanticParent(j, bo.DataObjectRef, parentBo); err != nil {
			return err
		}
	}
	u.updateDIParent(j, bo.DI(), parentEl != nil)
	return nil
}

func firstParticipantWithProcess(collab *model.Node) *model.Node {
	for _, p := range collab.Children(model.Participants) {
		if p.ProcessRef != nil {
			return p
		}
	}
	return nil
}

// updateSemanticParent moves bo into the collection of newParent that
// holds its kind, remapping participants, lanes and lane sets to the
// container that really owns it.
func (u *Updater) updateSemanticParent(j *journal, bo, newParent *model.Node) error {
	visual := newParent
	var slot model.Containment
	switch {
	case bo.Is(schema.KindLane):
		if newParent != nil {
			newParent = u.laneSet(j, newParent)
		}
		slot = model.Lanes
	case bo.Is(schema.KindDataOutputAssociation):
		slot = model.DataOutputAssociations
	case bo.Is(schema.KindDataInputAssociation):
		slot = model.DataInputAssociations
	case bo.Is(schema.KindFlowElement):
		newParent = flowElementsContainer(newParent)
		slot = model.FlowElements
	case bo.Is(schema.KindArtifact):
		newParent = artifactContainer(newParent)
		slot = model.Artifacts
	case bo.Is(schema.KindMessageFlow):
		slot = model.MessageFlows
	case bo.Is(schema.KindParticipant):
		slot = model.Participants
		if bo.Parent() != newParent {
			u.moveParticipantProcess(j, bo, newParent)
		}
	}

	if slot == "" || (visual != nil && newParent == nil) {
		return noParent(bo, visual)
	}
	if newParent != nil {
		if c, ok := model.ContainmentFor(newParent.Kind, bo.Kind); !ok || c != slot {
			return noParent(bo, newParent)
		}
	}
	if bo.Parent() == newParent {
		return nil
	}
	j.setParent(bo, newParent, slot)
	u.logger.Debug("semantic parent updated", "element_id", bo.ID, "parent", nodeID(newParent))
	return nil
}

func noParent(bo, parent *model.Node) error {
	return schema.NewErrorf(schema.ErrCodeNoParentForElement,
		"no parent for %s in %s", bo.ID, nodeID(parent)).
		WithElement(bo.ID).
		WithDetails(map[string]any{"element": bo.ID, "parent": nodeID(parent)})
}

func nodeID(n *model.Node) string {
	if n == nil {
		return "<nil>"
	}
	return n.ID
}

// flowElementsContainer resolves the node that owns flow elements dropped
// on p: participants delegate to their process, lanes to the container of
// their lane set.
func flowElementsContainer(p *model.Node) *model.Node {
	for p != nil {
		switch {
		case p.Is(schema.KindParticipant):
			return p.ProcessRef
		case p.Is(schema.KindLane):
			p = model.OwningContainer(p)
		default:
			return p
		}
	}
	return nil
}

func artifactContainer(p *model.Node) *model.Node {
	for p != nil && !p.IsAny(schema.KindProcess, schema.KindSubProcess, schema.KindCollaboration) {
		if p.Is(schema.KindParticipant) {
			return p.ProcessRef
		}
		p = p.Parent()
	}
	return p
}

// laneSet returns the lane set new lanes of container go to, creating it on
// first use.
func (u *Updater) laneSet(j *journal, container *model.Node) *model.Node {
	slot := model.LaneSets
	switch {
	case container.Is(schema.KindLane):
		slot = model.ChildLaneSet
	case container.Is(schema.KindParticipant):
		container = container.ProcessRef
	}
	if container == nil {
		return nil
	}
	if ls := model.LaneSet(container); ls != nil {
		return ls
	}
	ls, err := u.doc.NewNode(schema.KindLaneSet, "")
	if err != nil {
		return nil
	}
	u.doc.EnsureID(ls, "")
	j.setParent(ls, container, slot)
	u.logger.Debug("lane set created", "element_id", ls.ID, "parent", container.ID)
	return ls
}

// moveParticipantProcess lists the process of a participant among the
// root elements while the participant is part of a collaboration.
func (u *Updater) moveParticipantProcess(j *journal, participant, newParent *model.Node) {
	process := participant.ProcessRef
	if process == nil {
		return
	}
	defs := u.definitions(participant, newParent)
	if newParent == nil {
		if process.Parent() == defs {
			j.setParent(process, nil, "")
		}
		return
	}
	if process.Parent() != defs {
		j.setParent(process, defs, model.RootElements)
	}
}

func (u *Updater) definitions(nodes ...*model.Node) *model.Node {
	for _, n := range nodes {
		if d := model.Definitions(n); d != nil {
			return d
		}
	}
	return u.doc.Definitions
}

// updateFlowNodeRefs makes newContainment the only lane of bo once its
// visual parent changes. Imported nodes sit under their participant while
// lanes reference them, so every lane of bo is dropped, not only the old
// visual parent.
func (u *Updater) updateFlowNodeRefs(j *journal, bo, newContainment, oldContainment *model.Node) {
	if newContainment == oldContainment {
		return
	}
	for _, lane := range slices.Clone(bo.Lanes) {
		if lane != newContainment {
			j.removeFlowNodeRef(lane, bo)
		}
	}
	if newContainment.Is(schema.KindLane) {
		j.addFlowNodeRef(newContainment, bo)
	}
}

// plane returns the plane of the displayed diagram.
func (u *Updater) plane() *model.DI {
	root := u.canvas.Root()
	if root == nil || root.BusinessObject == nil {
		return nil
	}
	if di := root.BusinessObject.DI(); di != nil && di.Kind == model.DIPlane {
		return di
	}
	return nil
}

func (u *Updater) updateDIParent(j *journal, di *model.DI, attached bool) {
	if di == nil || di.Kind == model.DIPlane {
		return
	}
	if !attached {
		j.removeFromPlane(di)
		return
	}
	if plane := u.plane(); plane != nil && di.Plane() != plane {
		j.addToPlane(plane, di)
	}
}

// updateRoot lists the new root among the definitions' root elements in
// place of the old one, hands it the plane and re-derives the semantic
// parents of the old root's children.
func (u *Updater) updateRoot(ev *command.Event) error {
	ctx := ev.Context
	if ctx.NewRoot == nil || ctx.NewRoot.BusinessObject == nil {
		return nil
	}
	j := journalOf(ctx)
	defs := u.doc.Definitions
	newBo := ctx.NewRoot.BusinessObject
	if newBo.Parent() != defs {
		j.setParent(newBo, defs, model.RootElements)
	}
	if ctx.OldRoot == nil || ctx.OldRoot.BusinessObject == nil {
		return nil
	}
	oldBo := ctx.OldRoot.BusinessObject
	if oldBo.Parent() == defs {
		j.setParent(oldBo, nil, "")
	}
	if plane := oldBo.DI(); plane != nil && plane.Kind == model.DIPlane {
		if err := j.bind(newBo, plane); err != nil {
			return err
		}
	}
	for _, child := range ctx.OldRoot.Children {
		if child.IsLabel() || child.BusinessObject == nil {
			continue
		}
		if err := u.updateElementParent(j, child, nil); err != nil {
			return err
		}
	}
	u.logger.Debug("root updated", "old", ctx.OldRoot.ID, "new", ctx.NewRoot.ID)
	return nil
}

func (u *Updater) updateBounds(ev *command.Event) error {
	s := ev.Context.Shape
	if s == nil || s.BusinessObject == nil || s.Type == diagram.TypeRoot {
		return nil
	}
	di := s.BusinessObject.DI()
	if di == nil || di.Kind == model.DIPlane {
		return nil
	}
	j := journalOf(ev.Context)
	if s.IsLabel() {
		label := j.ensureLabel(di)
		j.setBounds(&label.Bounds, s.Bounds())
		return nil
	}
	j.setBounds(&di.Bounds, s.Bounds())
	return nil
}

// updateConnection mirrors the endpoints of a connection into sourceRef and
// targetRef, keeping incoming and outgoing of sequence flow endpoints in
// step.
func (u *Updater) updateConnection(ev *command.Event) error {
	ctx := ev.Context
	c := ctx.Connection
	if c == nil || c.BusinessObject == nil {
		return nil
	}
	bo := c.BusinessObject
	j := journalOf(ctx)
	var source, target *model.Node
	if c.Source != nil {
		source = c.Source.BusinessObject
	}
	if c.Target != nil {
		target = c.Target.BusinessObject
	}

	switch {
	case bo.Is(schema.KindDataInputAssociation):
		var refs []*model.Node
		if source != nil {
			refs = []*model.Node{source}
		}
		j.setRefs(&bo.SourceRefs, refs)
		return u.updateSemanticParent(j, bo, target)
	case bo.Is(schema.KindDataOutputAssociation):
		if err := u.updateSemanticParent(j, bo, source); err != nil {
			return err
		}
		j.setRef(&bo.TargetRef, target)
		return nil
	}

	inverse := bo.Is(schema.KindSequenceFlow)
	if bo.SourceRef != source {
		if inverse {
			if bo.SourceRef != nil {
				j.removeRef(&bo.SourceRef.Outgoing, bo)
			}
			if source != nil {
				j.addRef(&source.Outgoing, bo)
			}
		}
		j.setRef(&bo.SourceRef, source)
	}
	if bo.TargetRef != target {
		if inverse {
			if bo.TargetRef != nil {
				j.removeRef(&bo.TargetRef.Incoming, bo)
			}
			if target != nil {
				j.addRef(&target.Incoming, bo)
			}
		}
		j.setRef(&bo.TargetRef, target)
	}
	return nil
}

func (u *Updater) updateWaypoints(ev *command.Event) error {
	c := ev.Context.Connection
	if c == nil || c.BusinessObject == nil {
		return nil
	}
	di := c.BusinessObject.DI()
	if di == nil || di.Kind != model.DIEdge {
		return nil
	}
	journalOf(ev.Context).setWaypoints(di, c.Waypoints)
	return nil
}

// migrateDefaultAndCondition clears what a reconnected flow can no longer
// be: the default flow of its old source, or conditional when its new
// source does not evaluate conditions. The cleared values are kept in the
// context for revert.
func (u *Updater) migrateDefaultAndCondition(ev *command.Event) error {
	ctx := ev.Context
	ctx.OldDefault, ctx.OldCondition = nil, nil
	c := ctx.Connection
	if c == nil || !c.Is(schema.KindSequenceFlow) {
		return nil
	}
	bo := c.BusinessObject
	if old := ctx.OldSource; old != nil && old != c.Source && old.BusinessObject != nil && old.BusinessObject.Default == bo {
		ctx.OldDefault = old.BusinessObject
		old.BusinessObject.Default = nil
		u.logger.Debug("default flow cleared", "element_id", old.ID, "flow", c.ID)
	}
	if bo.ConditionExpression != nil && !SupportsCondition(c.Source) {
		ctx.OldCondition = bo.ConditionExpression
		bo.ConditionExpression = nil
		u.logger.Debug("condition cleared", "element_id", c.ID)
	}
	return nil
}

func (u *Updater) restoreDefaultAndCondition(ev *command.Event) error {
	ctx := ev.Context
	bo := ctx.Connection.BusinessObject
	if ctx.OldDefault != nil {
		ctx.OldDefault.Default = bo
	}
	if ctx.OldCondition != nil {
		bo.ConditionExpression = ctx.OldCondition
	}
	return nil
}

// SupportsCondition reports whether sequence flows leaving source may carry
// a condition.
func SupportsCondition(source *diagram.Element) bool {
	if source == nil {
		return false
	}
	return source.IsAny(schema.KindActivity, schema.KindExclusiveGateway, schema.KindInclusiveGateway, schema.KindComplexGateway)
}

// clearDeletedDefault unsets the default of a source whose default flow
// is deleted.
func (u *Updater) clearDeletedDefault(ev *command.Event) error {
	ctx := ev.Context
	src := ctx.OldSource
	if src == nil || src.BusinessObject == nil || ctx.Connection.BusinessObject == nil {
		return nil
	}
	if src.BusinessObject.Default == ctx.Connection.BusinessObject {
		journalOf(ctx).setRef(&src.BusinessObject.Default, nil)
	}
	return nil
}

func (u *Updater) updateAttachment(ev *command.Event) error {
	s := ev.Context.Shape
	if s == nil || !s.Is(schema.KindBoundaryEvent) || s.IsLabel() {
		return nil
	}
	var host *model.Node
	if s.Host != nil {
		host = s.Host.BusinessObject
	}
	journalOf(ev.Context).setRef(&s.BusinessObject.AttachedToRef, host)
	return nil
}
