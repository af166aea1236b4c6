package importer

import (
	"log/slog"
	"slices"

	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// taskKind tags a deferred unit of work.
type taskKind int

const (
	// taskElement draws one element with DI: boundary events, sequence
	// flows and associations.
	taskElement taskKind = iota
	// taskDataAssociations draws the data associations of an activity or
	// event.
	taskDataAssociations
	// taskMessageFlows draws the message flows of a collaboration.
	taskMessageFlows
)

type task struct {
	kind   taskKind
	node   *model.Node
	parent *diagram.Element
}

// walker holds the state of one import. Drawing happens into canvas, which
// the importer swaps into place only after a successful walk.
type walker struct {
	doc    *model.Document
	canvas *diagram.Canvas
	logger *slog.Logger

	deferred []task
	drawn    map[*model.Node]*diagram.Element
	// failed holds nodes whose draw was attempted and reported.
	failed     map[*model.Node]bool
	handled    map[*model.Node]bool
	warnings   schema.Warnings
	drawnCount int
}

func newWalker(doc *model.Document, canvas *diagram.Canvas, logger *slog.Logger) *walker {
	return &walker{
		doc:     doc,
		canvas:  canvas,
		logger:  logger,
		drawn:   make(map[*model.Node]*diagram.Element),
		failed:  make(map[*model.Node]bool),
		handled: make(map[*model.Node]bool),
	}
}

func (w *walker) warn(code, elementID, contextID, msg string, cause error) {
	wr := schema.Warning{Code: code, Message: msg, ElementID: elementID, ContextID: contextID, Cause: cause}
	w.warnings.Append(wr)
	w.logger.Warn(msg, "code", code, "element_id", elementID, "context_id", contextID)
}

// registerDI binds every DI element of plane to the node it references.
// Dangling references and second claims on a node are reported and skipped.
func (w *walker) registerDI(plane *model.DI) {
	for _, di := range plane.Elements {
		n, ok := w.doc.Lookup(di.ElementRef)
		if !ok || di.ElementRef == "" {
			w.warn(schema.ErrCodeNoElementReferenced, di.ID, "",
				"no element referenced by "+di.ID, nil)
			continue
		}
		if err := model.BindDI(n, di); err != nil {
			w.warn(schema.ErrCodeMultipleDI, n.ID, di.ID,
				"multiple DI elements defined for "+n.ID, err)
		}
	}
}

// resolveRoot returns the node the plane presents. A plane without a valid
// reference is pointed at the first process or collaboration of the
// document.
func (w *walker) resolveRoot(plane *model.DI) (*model.Node, error) {
	root := plane.Semantic()
	if root == nil && plane.ElementRef != "" {
		if n, ok := w.doc.Lookup(plane.ElementRef); ok && n.DI() == nil {
			_ = model.BindDI(n, plane)
			root = n
		}
	}
	if root == nil {
		i := slices.IndexFunc(w.doc.RootElements(), func(n *model.Node) bool {
			return n.IsAny(schema.KindProcess, schema.KindCollaboration)
		})
		if i < 0 {
			return nil, schema.NewError(schema.ErrCodeNoDisplayCandidate, "no process or collaboration to display")
		}
		root = w.doc.RootElements()[i]
		plane.ElementRef = root.ID
		if err := model.BindDI(root, plane); err != nil {
			return nil, err
		}
		w.warn(schema.ErrCodeRootInferred, root.ID, plane.ID,
			"plane "+plane.ID+" references no root, displaying "+root.ID, nil)
	}
	if !root.IsAny(schema.KindProcess, schema.KindCollaboration) {
		return nil, schema.NewErrorf(schema.ErrCodeUnsupportedRoot, "unsupported root element %s (%s)", root.ID, root.Kind).
			WithElement(root.ID)
	}
	return root, nil
}

// walk draws root and everything reachable from it, then drains the
// deferred queue.
func (w *walker) walk(root *model.Node) (*diagram.Element, error) {
	w.doc.EnsureID(root, "")
	rootEl := &diagram.Element{ID: root.ID, Type: diagram.TypeRoot, BusinessObject: root}
	if _, err := w.canvas.SetRoot(rootEl); err != nil {
		return nil, err
	}
	w.drawn[root] = rootEl

	var err error
	if root.Is(schema.KindCollaboration) {
		err = w.handleCollaboration(root, rootEl)
	} else {
		err = w.handleProcess(root, rootEl)
	}
	if err != nil {
		return nil, err
	}

	for len(w.deferred) > 0 {
		t := w.deferred[0]
		w.deferred = w.deferred[1:]
		if err := w.run(t); err != nil {
			return nil, err
		}
	}
	return rootEl, nil
}

func (w *walker) prepend(t task) {
	w.deferred = slices.Insert(w.deferred, 0, t)
}

func (w *walker) push(t task) {
	w.deferred = append(w.deferred, t)
}

func (w *walker) run(t task) error {
	switch t.kind {
	case taskElement:
		_, err := w.visitIfDI(t.node, t.parent)
		return err
	case taskDataAssociations:
		for _, a := range slices.Concat(t.node.Children(model.DataInputAssociations), t.node.Children(model.DataOutputAssociations)) {
			if _, err := w.visitIfDI(a, t.parent); err != nil {
				return err
			}
		}
	case taskMessageFlows:
		for _, f := range t.node.Children(model.MessageFlows) {
			if _, err := w.visitIfDI(f, t.parent); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *walker) handleCollaboration(collab *model.Node, rootEl *diagram.Element) error {
	for _, p := range collab.Children(model.Participants) {
		if err := w.handleParticipant(p, rootEl); err != nil {
			return err
		}
	}
	if err := w.handleArtifacts(collab, rootEl); err != nil {
		return err
	}
	w.push(task{kind: taskMessageFlows, node: collab, parent: rootEl})

	// Processes outside any participant that still carry lanes are drawn
	// on the collaboration.
	for _, n := range w.doc.RootElements() {
		if !n.Is(schema.KindProcess) || w.handled[n] || len(n.Children(model.LaneSets)) == 0 {
			continue
		}
		if err := w.handleProcess(n, rootEl); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) handleParticipant(p *model.Node, parent *diagram.Element) error {
	el, err := w.visitIfDI(p, parent)
	if err != nil {
		return err
	}
	if p.ProcessRef == nil {
		return nil
	}
	if el == nil {
		el = parent
	}
	return w.handleProcess(p.ProcessRef, el)
}

func (w *walker) handleProcess(process *model.Node, parent *diagram.Element) error {
	if w.handled[process] {
		return nil
	}
	w.handled[process] = true
	if err := w.handleContainer(process, parent); err != nil {
		return err
	}
	return w.handleArtifacts(process, parent)
}

// handleContainer visits the lane sets of container, then its flow
// elements.
func (w *walker) handleContainer(container *model.Node, parent *diagram.Element) error {
	for _, ls := range container.Children(model.LaneSets) {
		if err := w.handleLaneSet(ls, parent); err != nil {
			return err
		}
	}
	for _, fe := range container.Children(model.FlowElements) {
		if err := w.handleFlowElement(fe, parent); err != nil {
			return err
		}
	}
	return nil
}

func (w *walker) handleLaneSet(ls *model.Node, parent *diagram.Element) error {
	for _, lane := range ls.Children(model.Lanes) {
		el, err := w.visitIfDI(lane, parent)
		if err != nil {
			return err
		}
		if el == nil {
			el = parent
		}
		for _, child := range lane.Children(model.ChildLaneSet) {
			if err := w.handleLaneSet(child, el); err != nil {
				return err
			}
		}
		for _, n := range lane.FlowNodeRefs {
			n.Lanes = model.AddRef(n.Lanes, lane)
		}
	}
	return nil
}

func (w *walker) handleFlowElement(fe *model.Node, parent *diagram.Element) error {
	switch {
	case fe.Is(schema.KindSequenceFlow):
		w.push(task{kind: taskElement, node: fe, parent: parent})
	case fe.Is(schema.KindBoundaryEvent):
		w.prepend(task{kind: taskElement, node: fe, parent: parent})
		w.push(task{kind: taskDataAssociations, node: fe, parent: parent})
	case fe.Is(schema.KindSubProcess):
		el, err := w.visitIfDI(fe, parent)
		if err != nil {
			return err
		}
		if el == nil {
			el = parent
		}
		if err := w.handleContainer(fe, el); err != nil {
			return err
		}
		if err := w.handleArtifacts(fe, el); err != nil {
			return err
		}
		w.push(task{kind: taskDataAssociations, node: fe, parent: parent})
	case fe.Is(schema.KindFlowNode):
		if _, err := w.visitIfDI(fe, parent); err != nil {
			return err
		}
		w.push(task{kind: taskDataAssociations, node: fe, parent: parent})
	case fe.Is(schema.KindDataObject):
		// Only references to data objects are drawn.
	case fe.IsAny(schema.KindDataObjectReference, schema.KindDataStoreReference):
		if _, err := w.visitIfDI(fe, parent); err != nil {
			return err
		}
	default:
		w.warn(schema.ErrCodeUnrecognizedElement, fe.ID, parent.ID,
			"unrecognized flow element "+fe.ID+" ("+string(fe.Kind)+")", nil)
	}
	return nil
}

func (w *walker) handleArtifacts(container *model.Node, parent *diagram.Element) error {
	for _, a := range container.Children(model.Artifacts) {
		if a.Is(schema.KindAssociation) {
			w.push(task{kind: taskElement, node: a, parent: parent})
			continue
		}
		if _, err := w.visitIfDI(a, parent); err != nil {
			return err
		}
	}
	return nil
}

// visitIfDI draws n when it has DI. A failing draw becomes a warning,
// except for errors that make the whole import meaningless.
func (w *walker) visitIfDI(n *model.Node, parent *diagram.Element) (*diagram.Element, error) {
	if n.DI() == nil {
		return nil, nil
	}
	el, err := w.draw(n, parent)
	if err == nil {
		return el, nil
	}
	if schema.IsCode(err, schema.ErrCodeNotYetDrawn) && n.Is(schema.KindBoundaryEvent) && n.AttachedToRef.DI() != nil {
		host := n.AttachedToRef
		// A drawable host that was never attempted means the walk order is broken.
		if !w.failed[host] {
			return nil, err
		}
		w.failed[n] = true
		w.warn(schema.ErrCodeNotYetDrawn, n.ID, host.ID,
			"unable to render boundary event "+n.ID+": host "+host.ID+" failed to render", err)
		return nil, nil
	}
	if !schema.IsCode(err, schema.ErrCodeAlreadyRendered) {
		w.failed[n] = true
	}
	wr := schema.WarningFromError(err, n.ID)
	w.warn(wr.Code, n.ID, parent.ID, "unable to render element "+n.ID+": "+err.Error(), err)
	return nil, nil
}
