package updater

import (
	"slices"

	"github.com/mrajende/vdmlio/internal/command"
	"github.com/mrajende/vdmlio/internal/model"
)

// op tags a journal entry.
type op int

const (
	opReparent op = iota
	opPlane
	opRef
	opRefs
	opExpr
	opBounds
	opLabel
	opWaypoints
	opBind
)

// entry records the state one primitive change replaced.
type entry struct {
	op op

	node   *model.Node
	parent *model.Node
	slot   model.Containment
	index  int

	di    *model.DI
	plane *model.DI

	ref     **model.Node
	oldRef  *model.Node
	refs    *[]*model.Node
	oldRefs []*model.Node

	expr    **model.Expression
	oldExpr *model.Expression

	bounds    **model.Bounds
	oldBounds *model.Bounds
	oldLabel  *model.Label
	oldPoints []model.Point

	oldDI       *model.DI
	oldSemantic *model.Node
	oldElemRef  string
}

// journal lists the semantic changes made for one command context, so
// revert can restore them exactly in reverse order.
type journal struct {
	entries []entry
}

type journalKey struct{}

func journalOf(ctx *command.Context) *journal {
	j, ok := ctx.Value(journalKey{}).(*journal)
	if !ok {
		j = &journal{}
		ctx.SetValue(journalKey{}, j)
	}
	return j
}

func (j *journal) record(e entry) {
	j.entries = append(j.entries, e)
}

func (j *journal) setParent(child, parent *model.Node, slot model.Containment) {
	oldParent, oldSlot, oldIndex := model.SetParent(child, parent, slot, -1)
	j.record(entry{op: opReparent, node: child, parent: oldParent, slot: oldSlot, index: oldIndex})
}

func (j *journal) addToPlane(plane, di *model.DI) {
	old := di.Plane()
	index := -1
	if old != nil {
		index = slices.Index(old.Elements, di)
	}
	plane.AddElement(di, -1)
	j.record(entry{op: opPlane, di: di, plane: old, index: index})
}

func (j *journal) removeFromPlane(di *model.DI) {
	old := di.Plane()
	if old == nil {
		return
	}
	index := old.RemoveElement(di)
	j.record(entry{op: opPlane, di: di, plane: old, index: index})
}

func (j *journal) setRef(p **model.Node, v *model.Node) {
	if *p == v {
		return
	}
	j.record(entry{op: opRef, ref: p, oldRef: *p})
	*p = v
}

func (j *journal) setRefs(p *[]*model.Node, v []*model.Node) {
	j.record(entry{op: opRefs, refs: p, oldRefs: slices.Clone(*p)})
	*p = v
}

func (j *journal) addRef(p *[]*model.Node, target *model.Node) {
	if target == nil || slices.Contains(*p, target) {
		return
	}
	j.setRefs(p, append(slices.Clone(*p), target))
}

func (j *journal) removeRef(p *[]*model.Node, target *model.Node) {
	if target == nil || !slices.Contains(*p, target) {
		return
	}
	j.setRefs(p, model.RemoveRef(slices.Clone(*p), target))
}

func (j *journal) addFlowNodeRef(lane, node *model.Node) {
	j.addRef(&lane.FlowNodeRefs, node)
	j.addRef(&node.Lanes, lane)
}

func (j *journal) removeFlowNodeRef(lane, node *model.Node) {
	j.removeRef(&lane.FlowNodeRefs, node)
	j.removeRef(&node.Lanes, lane)
}

func (j *journal) setExpr(p **model.Expression, v *model.Expression) {
	if *p == v {
		return
	}
	j.record(entry{op: opExpr, expr: p, oldExpr: *p})
	*p = v
}

func (j *journal) setBounds(p **model.Bounds, b model.Bounds) {
	if *p != nil && **p == b {
		return
	}
	j.record(entry{op: opBounds, bounds: p, oldBounds: *p})
	*p = &b
}

func (j *journal) ensureLabel(di *model.DI) *model.Label {
	if di.Label == nil {
		j.record(entry{op: opLabel, di: di})
		di.Label = &model.Label{}
	}
	return di.Label
}

func (j *journal) setWaypoints(di *model.DI, pts []model.Point) {
	if slices.Equal(di.Waypoints, pts) {
		return
	}
	j.record(entry{op: opWaypoints, di: di, oldPoints: di.Waypoints})
	di.Waypoints = slices.Clone(pts)
}

// bind pairs n with di, releasing their previous partners.
func (j *journal) bind(n *model.Node, di *model.DI) error {
	j.record(entry{op: opBind, node: n, di: di, oldDI: n.DI(), oldSemantic: di.Semantic(), oldElemRef: di.ElementRef})
	model.UnbindDI(n)
	if s := di.Semantic(); s != nil {
		model.UnbindDI(s)
	}
	di.ElementRef = n.ID
	return model.BindDI(n, di)
}

// undo restores every recorded change, newest first, and empties the
// journal.
func (j *journal) undo() {
	for i := len(j.entries) - 1; i >= 0; i-- {
		e := j.entries[i]
		switch e.op {
		case opReparent:
			model.SetParent(e.node, e.parent, e.slot, e.index)
		case opPlane:
			if p := e.di.Plane(); p != nil {
				p.RemoveElement(e.di)
			}
			if e.plane != nil {
				e.plane.AddElement(e.di, e.index)
			}
		case opRef:
			*e.ref = e.oldRef
		case opRefs:
			*e.refs = e.oldRefs
		case opExpr:
			*e.expr = e.oldExpr
		case opBounds:
			*e.bounds = e.oldBounds
		case opLabel:
			e.di.Label = e.oldLabel
		case opWaypoints:
			e.di.Waypoints = e.oldPoints
		case opBind:
			model.UnbindDI(e.node)
			if e.oldSemantic != nil {
				_ = model.BindDI(e.oldSemantic, e.di)
			}
			if e.oldDI != nil {
				_ = model.BindDI(e.node, e.oldDI)
			}
			e.di.ElementRef = e.oldElemRef
		}
	}
	j.entries = nil
}
