package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

type fixture struct {
	t   *testing.T
	doc *model.Document
}

func newFixture(t *testing.T) *fixture {
	return &fixture{t: t, doc: model.NewDocument()}
}

func (f *fixture) root(kind schema.Kind, id string) *diagram.Element {
	return &diagram.Element{ID: id, Type: diagram.TypeRoot, BusinessObject: f.doc.MustNode(kind, id)}
}

func (f *fixture) shape(kind schema.Kind, id string, parent *diagram.Element, b model.Bounds) *diagram.Element {
	e := &diagram.Element{ID: id, Type: diagram.TypeShape, BusinessObject: f.doc.MustNode(kind, id)}
	e.SetBounds(b)
	if parent != nil {
		diagram.SetParent(e, parent, -1)
	}
	return e
}

func (f *fixture) connection(kind schema.Kind, id string, parent, source, target *diagram.Element) *diagram.Element {
	e := &diagram.Element{ID: id, Type: diagram.TypeConnection, BusinessObject: f.doc.MustNode(kind, id)}
	diagram.SetParent(e, parent, -1)
	diagram.Connect(e, source, target)
	return e
}

func (f *fixture) label(target *diagram.Element) *diagram.Element {
	l := &diagram.Element{ID: target.ID + "_label", Type: diagram.TypeLabel, BusinessObject: target.BusinessObject, LabelTarget: target}
	target.Labels = append(target.Labels, l)
	return l
}

func (f *fixture) eventDef(e *diagram.Element, kind schema.Kind) {
	model.Add(e.BusinessObject, model.EventDefinitions, f.doc.MustNode(kind, ""))
}

var box = model.Bounds{X: 100, Y: 100, Width: 100, Height: 80}

// collaboration builds two participants with processes plus a collapsed
// participant without one.
func (f *fixture) collaboration() (root, poolA, poolB, collapsed *diagram.Element) {
	root = f.root(schema.KindCollaboration, "Collaboration_1")
	poolA = f.shape(schema.KindParticipant, "Participant_A", root, model.Bounds{Width: 600, Height: 250})
	poolA.BusinessObject.ProcessRef = f.doc.MustNode(schema.KindProcess, "Process_A")
	poolB = f.shape(schema.KindParticipant, "Participant_B", root, model.Bounds{Y: 300, Width: 600, Height: 250})
	poolB.BusinessObject.ProcessRef = f.doc.MustNode(schema.KindProcess, "Process_B")
	collapsed = f.shape(schema.KindParticipant, "Participant_C", root, model.Bounds{Y: 600, Width: 600, Height: 60})
	model.Add(root.BusinessObject, model.Participants, poolA.BusinessObject)
	model.Add(root.BusinessObject, model.Participants, poolB.BusinessObject)
	model.Add(root.BusinessObject, model.Participants, collapsed.BusinessObject)
	return root, poolA, poolB, collapsed
}

func TestCanConnect(t *testing.T) {
	f := newFixture(t)
	root, poolA, poolB, collapsed := f.collaboration()
	r := New(DefaultConfig())

	start := f.shape(schema.KindStartEvent, "Start_1", poolA, box)
	task := f.shape(schema.KindTask, "Task_1", poolA, box)
	end := f.shape(schema.KindEndEvent, "End_1", poolA, box)
	taskB := f.shape(schema.KindTask, "Task_B", poolB, box)
	boundary := f.shape(schema.KindBoundaryEvent, "Boundary_1", poolA, box)
	data := f.shape(schema.KindDataObjectReference, "Data_1", poolA, box)
	store := f.shape(schema.KindDataStoreReference, "Store_1", poolA, box)
	note := f.shape(schema.KindTextAnnotation, "Note_1", root, box)
	compBoundary := f.shape(schema.KindBoundaryEvent, "Boundary_C", poolA, box)
	f.eventDef(compBoundary, schema.KindCompensateEventDefinition)
	compTask := f.shape(schema.KindTask, "Task_Comp", poolA, box)
	compTask.BusinessObject.IsForCompensation = true
	gw := f.shape(schema.KindEventBasedGateway, "Gateway_EB", poolA, box)
	receive := f.shape(schema.KindReceiveTask, "Receive_1", poolA, box)

	tests := []struct {
		name           string
		source, target *diagram.Element
		want           schema.Kind
		ok             bool
	}{
		{"sequence flow", start, task, schema.KindSequenceFlow, true},
		{"self loop", task, task, "", false},
		{"into start event", task, start, "", false},
		{"out of end event", end, task, "", false},
		{"into boundary event", task, boundary, "", false},
		{"message flow across pools", task, taskB, schema.KindMessageFlow, true},
		{"message flow to participant", task, poolB, schema.KindMessageFlow, true},
		{"message flow to collapsed participant", task, collapsed, schema.KindMessageFlow, true},
		{"participant to own task", poolA, task, "", false},
		{"data input", data, task, schema.KindDataInputAssociation, true},
		{"data output", task, store, schema.KindDataOutputAssociation, true},
		{"data to data", data, store, "", false},
		{"compensation", compBoundary, compTask, schema.KindAssociation, true},
		{"annotation", note, task, schema.KindAssociation, true},
		{"annotation reversed", task, note, schema.KindAssociation, true},
		{"event based gateway to task", gw, task, "", false},
		{"event based gateway to receive task", gw, receive, schema.KindSequenceFlow, true},
		{"missing target", task, nil, "", false},
		{"label endpoint", f.label(task), end, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.CanConnect(tt.source, tt.target, nil)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got.Type)
		})
	}

	c, ok := r.CanConnect(compBoundary, compTask, nil)
	require.True(t, ok)
	assert.Equal(t, "One", c.AssociationDirection)
}

func TestCanConnect_ConfiguredFlowType(t *testing.T) {
	f := newFixture(t)
	proc := f.root(schema.KindProcess, "Process_1")
	a := f.shape(schema.KindTask, "A", proc, box)
	b := f.shape(schema.KindTask, "B", proc, box)

	r := New(Config{FlowType: schema.KindValueFlow})
	c, ok := r.CanConnect(a, b, nil)
	require.True(t, ok)
	assert.Equal(t, schema.KindValueFlow, c.Type)

	r = New(Config{FlowType: schema.KindMessageFlow})
	assert.Equal(t, schema.KindSequenceFlow, r.Config().FlowType, "non flow kinds fall back")
}

func TestCanConnect_DifferentScopes(t *testing.T) {
	f := newFixture(t)
	proc := f.root(schema.KindProcess, "Process_1")
	sub := f.shape(schema.KindSubProcess, "Sub_1", proc, box)
	inner := f.shape(schema.KindTask, "Inner", sub, box)
	outer := f.shape(schema.KindTask, "Outer", proc, box)

	_, ok := New(DefaultConfig()).CanConnect(outer, inner, nil)
	assert.False(t, ok)
}

func TestCanReconnect(t *testing.T) {
	f := newFixture(t)
	proc := f.root(schema.KindProcess, "Process_1")
	a := f.shape(schema.KindTask, "A", proc, box)
	b := f.shape(schema.KindTask, "B", proc, box)
	c := f.shape(schema.KindTask, "C", proc, box)
	data := f.shape(schema.KindDataObjectReference, "Data_1", proc, box)
	flow := f.connection(schema.KindSequenceFlow, "Flow_1", proc, a, b)
	r := New(DefaultConfig())

	assert.True(t, r.CanReconnect(flow, c, b))
	assert.False(t, r.CanReconnect(flow, a, data), "kind would change")
	assert.False(t, r.CanReconnect(flow, b, b))

	assoc := f.connection(schema.KindDataInputAssociation, "DIA_1", proc, data, a)
	assert.True(t, r.CanReconnect(assoc, data, c))
}

func TestCanDrop(t *testing.T) {
	f := newFixture(t)
	root, poolA, _, collapsed := f.collaboration()
	proc := f.root(schema.KindProcess, "Process_R")
	r := New(DefaultConfig())

	lane := f.shape(schema.KindLane, "Lane_1", poolA, box)
	task := f.shape(schema.KindTask, "Task_1", poolA, box)
	boundary := f.shape(schema.KindBoundaryEvent, "Boundary_1", poolA, box)
	note := f.shape(schema.KindTextAnnotation, "Note_1", root, box)
	store := f.shape(schema.KindDataStoreReference, "Store_1", poolA, box)
	group := f.shape(schema.KindGroup, "Group_1", root, box)
	collapsedSub := f.shape(schema.KindSubProcess, "Sub_Collapsed", poolA, box)
	expandedSub := f.shape(schema.KindSubProcess, "Sub_Expanded", poolA, box)
	di := f.doc.NewDI(model.DIShape, "")
	di.SetExpanded(true)
	require.NoError(t, model.BindDI(expandedSub.BusinessObject, di))
	flow := f.connection(schema.KindSequenceFlow, "Flow_1", poolA, task, collapsedSub)
	msg := f.connection(schema.KindMessageFlow, "Msg_1", root, task, collapsed)

	tests := []struct {
		name            string
		element, target *diagram.Element
		want            bool
	}{
		{"task into collapsed participant", task, collapsed, false},
		{"task into participant", task, poolA, true},
		{"task into lane", task, lane, true},
		{"task into collaboration", task, root, false},
		{"task into process", task, proc, true},
		{"task into collapsed sub process", task, collapsedSub, false},
		{"task into expanded sub process", task, expandedSub, true},
		{"task onto connection", task, flow, false},
		{"participant into collaboration", poolA, root, true},
		{"participant into process", poolA, proc, true},
		{"participant into participant", poolA, collapsed, false},
		{"lane into participant", lane, poolA, true},
		{"lane into process", lane, proc, false},
		{"boundary event anywhere", boundary, poolA, false},
		{"annotation into collaboration", note, root, true},
		{"annotation into sub process", note, expandedSub, true},
		{"data store into collaboration", store, root, true},
		{"group into process", group, proc, true},
		{"label anywhere", f.label(task), root, true},
		{"label onto connection", f.label(task), flow, false},
		{"message flow into collaboration", msg, root, true},
		{"message flow into endpoint parent", msg, poolA, true},
		{"message flow elsewhere", msg, expandedSub, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.CanDrop(tt.element, tt.target))
		})
	}
}

func TestCanDrop_DataStoreNeedsProcess(t *testing.T) {
	f := newFixture(t)
	root := f.root(schema.KindCollaboration, "Collaboration_1")
	empty := f.shape(schema.KindParticipant, "Participant_1", root, box)
	model.Add(root.BusinessObject, model.Participants, empty.BusinessObject)
	store := f.shape(schema.KindDataStoreReference, "Store_1", nil, box)

	assert.False(t, New(DefaultConfig()).CanDrop(store, root))
}

func TestCanAttach(t *testing.T) {
	f := newFixture(t)
	proc := f.root(schema.KindProcess, "Process_1")
	r := New(DefaultConfig())
	task := f.shape(schema.KindTask, "Task_1", proc, box)
	boundary := f.shape(schema.KindBoundaryEvent, "Boundary_1", proc, box)
	plainThrow := f.shape(schema.KindIntermediateThrowEvent, "Throw_1", proc, box)
	timerCatch := f.shape(schema.KindIntermediateCatchEvent, "Catch_1", proc, box)
	f.eventDef(timerCatch, schema.KindTimerEventDefinition)
	linkCatch := f.shape(schema.KindIntermediateCatchEvent, "Catch_Link", proc, box)
	f.eventDef(linkCatch, schema.KindLinkEventDefinition)
	gateway := f.shape(schema.KindExclusiveGateway, "Gateway_1", proc, box)
	eventSub := f.shape(schema.KindSubProcess, "EventSub_1", proc, box)
	eventSub.BusinessObject.TriggeredByEvent = true
	compTask := f.shape(schema.KindTask, "Task_Comp", proc, box)
	compTask.BusinessObject.IsForCompensation = true

	onBorder := &model.Point{X: 150, Y: 180}
	inside := &model.Point{X: 150, Y: 140}
	nearBorder := &model.Point{X: 110, Y: 140}

	tests := []struct {
		name     string
		elements []*diagram.Element
		target   *diagram.Element
		source   *diagram.Element
		position *model.Point
		want     bool
	}{
		{"boundary on border", []*diagram.Element{boundary}, task, nil, onBorder, true},
		{"boundary near border", []*diagram.Element{boundary}, task, nil, nearBorder, true},
		{"boundary in the middle", []*diagram.Element{boundary}, task, nil, inside, false},
		{"no position", []*diagram.Element{boundary}, task, nil, nil, true},
		{"plain throw event", []*diagram.Element{plainThrow}, task, nil, onBorder, true},
		{"timer catch event", []*diagram.Element{timerCatch}, task, nil, onBorder, true},
		{"link catch event", []*diagram.Element{linkCatch}, task, nil, onBorder, false},
		{"two elements", []*diagram.Element{boundary, plainThrow}, task, nil, onBorder, false},
		{"onto gateway", []*diagram.Element{boundary}, gateway, nil, onBorder, false},
		{"onto event sub process", []*diagram.Element{boundary}, eventSub, nil, nil, false},
		{"onto compensation activity", []*diagram.Element{boundary}, compTask, nil, nil, false},
		{"while appending", []*diagram.Element{boundary}, task, task, onBorder, false},
		{"label", []*diagram.Element{f.label(boundary)}, task, nil, onBorder, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.CanAttach(tt.elements, tt.target, tt.source, tt.position))
		})
	}
}

func TestCanAttach_ReceiveTaskAfterEventBasedGateway(t *testing.T) {
	f := newFixture(t)
	proc := f.root(schema.KindProcess, "Process_1")
	gw := f.shape(schema.KindEventBasedGateway, "Gateway_1", proc, box)
	receive := f.shape(schema.KindReceiveTask, "Receive_1", proc, box)
	f.connection(schema.KindSequenceFlow, "Flow_1", proc, gw, receive)
	boundary := f.shape(schema.KindBoundaryEvent, "Boundary_1", proc, box)

	assert.False(t, New(DefaultConfig()).CanAttach([]*diagram.Element{boundary}, receive, nil, nil))
}

func TestCanResize(t *testing.T) {
	f := newFixture(t)
	proc := f.root(schema.KindProcess, "Process_1")
	r := New(DefaultConfig())
	sub := f.shape(schema.KindSubProcess, "Sub_1", proc, box)
	di := f.doc.NewDI(model.DIShape, "")
	di.SetExpanded(true)
	require.NoError(t, model.BindDI(sub.BusinessObject, di))
	collapsed := f.shape(schema.KindSubProcess, "Sub_2", proc, box)
	lane := f.shape(schema.KindLane, "Lane_1", proc, box)
	pool := f.shape(schema.KindParticipant, "Pool_1", proc, box)
	note := f.shape(schema.KindTextAnnotation, "Note_1", proc, box)
	task := f.shape(schema.KindTask, "Task_1", proc, box)

	tests := []struct {
		name   string
		shape  *diagram.Element
		bounds *model.Bounds
		want   bool
	}{
		{"sub process large", sub, &model.Bounds{Width: 100, Height: 80}, true},
		{"sub process small", sub, &model.Bounds{Width: 99, Height: 80}, false},
		{"collapsed sub process", collapsed, nil, false},
		{"lane min", lane, &model.Bounds{Width: 130, Height: 60}, true},
		{"lane short", lane, &model.Bounds{Width: 130, Height: 59}, false},
		{"participant min", pool, &model.Bounds{Width: 250, Height: 50}, true},
		{"participant narrow", pool, &model.Bounds{Width: 249, Height: 50}, false},
		{"text annotation", note, &model.Bounds{Width: 1, Height: 1}, true},
		{"task", task, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.CanResize(tt.shape, tt.bounds))
		})
	}
}

func TestCanReplace(t *testing.T) {
	f := newFixture(t)
	proc := f.root(schema.KindProcess, "Process_1")
	r := New(DefaultConfig())
	sub := f.shape(schema.KindSubProcess, "Sub_1", proc, box)
	di := f.doc.NewDI(model.DIShape, "")
	di.SetExpanded(true)
	require.NoError(t, model.BindDI(sub.BusinessObject, di))
	tx := f.shape(schema.KindTransaction, "Tx_1", proc, box)
	txDI := f.doc.NewDI(model.DIShape, "")
	txDI.SetExpanded(true)
	require.NoError(t, model.BindDI(tx.BusinessObject, txDI))

	nonInterrupting := f.shape(schema.KindStartEvent, "Start_NI", nil, box)
	nonInterrupting.BusinessObject.IsInterrupting = false
	messageStart := f.shape(schema.KindStartEvent, "Start_Msg", nil, box)
	f.eventDef(messageStart, schema.KindMessageEventDefinition)
	cancelEnd := f.shape(schema.KindEndEvent, "End_Cancel", nil, box)
	f.eventDef(cancelEnd, schema.KindCancelEventDefinition)
	plainTask := f.shape(schema.KindTask, "Task_1", nil, box)

	reps, ok := r.CanReplace([]*diagram.Element{nonInterrupting}, proc, nil)
	require.True(t, ok)
	assert.Equal(t, []Replacement{{OldElementID: "Start_NI", NewKind: schema.KindStartEvent}}, reps)

	_, ok = r.CanReplace([]*diagram.Element{messageStart}, proc, nil)
	assert.False(t, ok, "typed start events are fine in a process")
	reps, ok = r.CanReplace([]*diagram.Element{messageStart}, sub, nil)
	require.True(t, ok)
	assert.Equal(t, "Start_Msg", reps[0].OldElementID)

	reps, ok = r.CanReplace([]*diagram.Element{cancelEnd}, sub, nil)
	require.True(t, ok)
	assert.Equal(t, schema.KindEndEvent, reps[0].NewKind)
	_, ok = r.CanReplace([]*diagram.Element{cancelEnd}, tx, nil)
	assert.False(t, ok)

	_, ok = r.CanReplace([]*diagram.Element{plainTask}, sub, nil)
	assert.False(t, ok)
	_, ok = r.CanReplace([]*diagram.Element{plainTask}, nil, nil)
	assert.False(t, ok)
}

func TestCanMove(t *testing.T) {
	f := newFixture(t)
	root, poolA, poolB, collapsed := f.collaboration()
	r := New(DefaultConfig())
	lane := f.shape(schema.KindLane, "Lane_1", poolA, box)
	task := f.shape(schema.KindTask, "Task_1", poolA, box)
	boundary := f.shape(schema.KindBoundaryEvent, "Boundary_1", poolA, box)
	diagram.AddAttacher(task, boundary)

	assert.False(t, r.CanMove([]*diagram.Element{lane}, nil))
	assert.False(t, r.CanMove([]*diagram.Element{boundary}, poolA), "boundary alone")
	assert.True(t, r.CanMove([]*diagram.Element{task, boundary}, poolB), "boundary with host")
	assert.True(t, r.CanMove([]*diagram.Element{task}, nil))
	assert.False(t, r.CanMove([]*diagram.Element{task}, collapsed))
	assert.False(t, r.CanMove([]*diagram.Element{task}, root))

	assert.False(t, r.CanMoveElements([]*diagram.Element{task}, collapsed, nil))
	assert.True(t, r.CanMoveElements([]*diagram.Element{task}, poolB, nil))
}

func TestCanMoveElements_AttachBoundary(t *testing.T) {
	f := newFixture(t)
	proc := f.root(schema.KindProcess, "Process_1")
	task := f.shape(schema.KindTask, "Task_1", proc, box)
	other := f.shape(schema.KindTask, "Task_2", proc, model.Bounds{X: 400, Y: 100, Width: 100, Height: 80})
	boundary := f.shape(schema.KindBoundaryEvent, "Boundary_1", proc, box)
	diagram.AddAttacher(task, boundary)

	r := New(DefaultConfig())
	assert.True(t, r.CanMoveElements([]*diagram.Element{boundary}, other, &model.Point{X: 450, Y: 180}))
	assert.False(t, r.CanMoveElements([]*diagram.Element{boundary}, proc, &model.Point{X: 50, Y: 50}))
}

func TestCanCopyAndPaste(t *testing.T) {
	f := newFixture(t)
	root, poolA, _, _ := f.collaboration()
	r := New(DefaultConfig())
	lane := f.shape(schema.KindLane, "Lane_1", poolA, box)
	task := f.shape(schema.KindTask, "Task_1", poolA, box)
	task2 := f.shape(schema.KindTask, "Task_2", poolA, box)
	flow := f.connection(schema.KindSequenceFlow, "Flow_1", poolA, task, task2)

	assert.False(t, r.CanCopy([]*diagram.Element{lane}, lane))
	assert.True(t, r.CanCopy([]*diagram.Element{poolA, lane}, lane))
	assert.True(t, r.CanCopy([]*diagram.Element{task}, task))

	assert.True(t, r.CanPaste([]*diagram.Element{task, task2, flow}, poolA, nil))
	assert.False(t, r.CanPaste([]*diagram.Element{task}, root, nil))
	loose := f.shape(schema.KindTask, "Task_Loose", nil, box)
	assert.False(t, r.CanPaste([]*diagram.Element{poolA, loose}, root, nil), "participants and flow nodes do not mix")
	assert.True(t, r.CanPaste([]*diagram.Element{poolA, task}, root, nil), "children travel with their participant")
	assert.False(t, r.CanPaste([]*diagram.Element{task}, nil, nil))
}

func TestCanCreateAndInsert(t *testing.T) {
	f := newFixture(t)
	proc := f.root(schema.KindProcess, "Process_1")
	r := New(DefaultConfig())
	a := f.shape(schema.KindTask, "A", proc, box)
	b := f.shape(schema.KindTask, "B", proc, box)
	flow := f.connection(schema.KindSequenceFlow, "Flow_1", proc, a, b)
	newTask := f.shape(schema.KindTask, "New", nil, box)
	boundary := f.shape(schema.KindBoundaryEvent, "Boundary_1", nil, box)
	group := f.shape(schema.KindGroup, "Group_1", nil, box)

	assert.True(t, r.CanCreate(newTask, proc, nil, nil))
	assert.True(t, r.CanCreate(newTask, flow, nil, nil), "insert on flow")
	assert.False(t, r.CanCreate(newTask, a, a, nil), "target is source")
	assert.True(t, r.CanCreate(group, a, nil, nil))
	assert.False(t, r.CanCreate(newTask, nil, nil, nil))

	assert.True(t, r.CanInsert([]*diagram.Element{newTask}, flow))
	assert.False(t, r.CanInsert([]*diagram.Element{a}, flow), "endpoint of flow")
	assert.False(t, r.CanInsert([]*diagram.Element{boundary}, flow))
	assert.False(t, r.CanInsert([]*diagram.Element{newTask, boundary}, flow))
	assert.False(t, r.CanInsert([]*diagram.Element{newTask}, b))
}

func TestOrientation(t *testing.T) {
	ref := model.Bounds{X: 100, Y: 100, Width: 100, Height: 100}
	tests := []struct {
		p    model.Point
		want string
	}{
		{model.Point{X: 150, Y: 50}, "top"},
		{model.Point{X: 250, Y: 150}, "right"},
		{model.Point{X: 150, Y: 250}, "bottom"},
		{model.Point{X: 50, Y: 150}, "left"},
		{model.Point{X: 50, Y: 50}, "top-left"},
		{model.Point{X: 250, Y: 250}, "bottom-right"},
		{model.Point{X: 150, Y: 150}, "intersect"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Orientation(tt.p, ref, 0), "%v", tt.p)
	}
	assert.Equal(t, "top", Orientation(model.Point{X: 150, Y: 110}, ref, -15))
	assert.Equal(t, "intersect", Orientation(model.Point{X: 150, Y: 120}, ref, -15))
}
