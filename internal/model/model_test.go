package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrajende/vdmlio/pkg/schema"
)

func newProcess(t *testing.T) (*Document, *Node) {
	t.Helper()
	doc := NewDocument()
	p := doc.MustNode(schema.KindProcess, "Process_1")
	Add(doc.Definitions, RootElements, p)
	return doc, p
}

func TestSetParent_MovesBetweenCollections(t *testing.T) {
	doc, p := newProcess(t)
	sub := doc.MustNode(schema.KindSubProcess, "Sub_1")
	task := doc.MustNode(schema.KindTask, "Task_1")
	Add(p, FlowElements, sub)
	Add(p, FlowElements, task)

	oldParent, oldSlot, oldIndex := SetParent(task, sub, FlowElements, -1)

	assert.Equal(t, p, oldParent)
	assert.Equal(t, FlowElements, oldSlot)
	assert.Equal(t, 1, oldIndex)
	assert.Equal(t, sub, task.Parent())
	assert.Equal(t, []*Node{sub}, p.Children(FlowElements))
	assert.Equal(t, []*Node{task}, sub.Children(FlowElements))

	SetParent(task, oldParent, oldSlot, oldIndex)
	assert.Equal(t, []*Node{sub, task}, p.Children(FlowElements))
	assert.Equal(t, 0, sub.Len(FlowElements))
}

func TestSetParent_InsertIndex(t *testing.T) {
	doc, p := newProcess(t)
	a := doc.MustNode(schema.KindTask, "A")
	b := doc.MustNode(schema.KindTask, "B")
	c := doc.MustNode(schema.KindTask, "C")
	Add(p, FlowElements, a)
	Add(p, FlowElements, b)
	SetParent(c, p, FlowElements, 1)

	assert.Equal(t, []*Node{a, c, b}, p.Children(FlowElements))
	assert.Equal(t, 1, p.IndexOf(FlowElements, c))

	SetParent(c, p, FlowElements, 99)
	assert.Equal(t, []*Node{a, b, c}, p.Children(FlowElements))
}

func TestRemove_ClearsParent(t *testing.T) {
	doc, p := newProcess(t)
	task := doc.MustNode(schema.KindTask, "Task_1")
	Add(p, FlowElements, task)

	Remove(task)
	assert.Nil(t, task.Parent())
	assert.Equal(t, Containment(""), task.Slot())
	assert.Zero(t, p.Len(FlowElements))
}

func TestContainmentInvariant_AfterManyMoves(t *testing.T) {
	doc, p := newProcess(t)
	sub := doc.MustNode(schema.KindSubProcess, "Sub_1")
	Add(p, FlowElements, sub)
	nodes := make([]*Node, 0, 5)
	for _, id := range []string{"T1", "T2", "T3", "T4", "T5"} {
		n := doc.MustNode(schema.KindTask, id)
		Add(p, FlowElements, n)
		nodes = append(nodes, n)
	}
	SetParent(nodes[1], sub, FlowElements, 0)
	SetParent(nodes[3], sub, FlowElements, 0)
	SetParent(nodes[1], p, FlowElements, 0)
	Remove(nodes[4])

	counts := map[*Node]int{}
	doc.Definitions.Walk(func(n *Node) bool {
		for _, c := range n.AllChildren() {
			counts[c]++
			assert.Equal(t, n, c.Parent(), "parent pointer of %s", c.ID)
		}
		return true
	})
	for n, c := range counts {
		assert.Equal(t, 1, c, "node %s owned %d times", n.ID, c)
	}
	assert.Zero(t, counts[nodes[4]])
}

func TestDocument_RegistryAndLazyIDs(t *testing.T) {
	doc := NewDocument()
	n, err := doc.NewNode(schema.KindTask, "")
	require.NoError(t, err)
	assert.Empty(t, n.ID)

	id := doc.EnsureID(n, "")
	assert.True(t, strings.HasPrefix(id, "Task_"))
	got, ok := doc.Lookup(id)
	require.True(t, ok)
	assert.Same(t, n, got)
	assert.Equal(t, id, doc.EnsureID(n, ""), "ids are assigned once")

	_, err = doc.NewNode(schema.KindTask, id)
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeDuplicateID))

	doc.Unregister(n)
	_, ok = doc.Lookup(id)
	assert.False(t, ok)
}

func TestNewNode_KindDefaults(t *testing.T) {
	doc := NewDocument()
	assert.True(t, doc.MustNode(schema.KindStartEvent, "S").IsInterrupting)
	assert.True(t, doc.MustNode(schema.KindBoundaryEvent, "B").CancelActivity)
	assert.Equal(t, "None", doc.MustNode(schema.KindAssociation, "A").AssociationDirection)
}

func TestBindDI_OneToOne(t *testing.T) {
	doc := NewDocument()
	task := doc.MustNode(schema.KindTask, "Task_1")
	first := doc.NewDI(DIShape, "Task_1_di")
	second := doc.NewDI(DIShape, "Task_1_di2")

	require.NoError(t, BindDI(task, first))
	require.NoError(t, BindDI(task, first), "rebinding the same pair is a no-op")

	err := BindDI(task, second)
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeMultipleDI))
	assert.Same(t, first, task.DI())
	assert.Same(t, task, first.Semantic())
	assert.Nil(t, second.Semantic())

	other := doc.MustNode(schema.KindTask, "Task_2")
	err = BindDI(other, first)
	assert.True(t, schema.IsCode(err, schema.ErrCodeMultipleDI))

	assert.Same(t, first, UnbindDI(task))
	assert.Nil(t, task.DI())
	assert.Nil(t, first.Semantic())
}

func TestPlaneMembership(t *testing.T) {
	doc := NewDocument()
	plane := doc.NewDI(DIPlane, "Plane_1")
	a := doc.NewDI(DIShape, "A_di")
	b := doc.NewDI(DIShape, "B_di")
	plane.AddElement(a, -1)
	plane.AddElement(b, 0)

	assert.Equal(t, []*DI{b, a}, plane.Elements)
	assert.Same(t, plane, a.Plane())
	assert.Equal(t, 0, plane.RemoveElement(b))
	assert.Nil(t, b.Plane())
	assert.Equal(t, -1, plane.RemoveElement(b))
}

func TestNewDI_CollidingIDGetsFresh(t *testing.T) {
	doc := NewDocument()
	a := doc.NewDI(DIShape, "Shape_1")
	b := doc.NewDI(DIShape, "Shape_1")
	assert.NotEqual(t, a.ID, b.ID)
	got, ok := doc.LookupDI("Shape_1")
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestContainmentFor(t *testing.T) {
	tests := []struct {
		parent, child schema.Kind
		want          Containment
		ok            bool
	}{
		{schema.KindProcess, schema.KindTask, FlowElements, true},
		{schema.KindSubProcess, schema.KindSequenceFlow, FlowElements, true},
		{schema.KindProcess, schema.KindLaneSet, LaneSets, true},
		{schema.KindLane, schema.KindLaneSet, ChildLaneSet, true},
		{schema.KindLaneSet, schema.KindLane, Lanes, true},
		{schema.KindCollaboration, schema.KindParticipant, Participants, true},
		{schema.KindCollaboration, schema.KindMessageFlow, MessageFlows, true},
		{schema.KindCollaboration, schema.KindTextAnnotation, Artifacts, true},
		{schema.KindProcess, schema.KindAssociation, Artifacts, true},
		{schema.KindTask, schema.KindDataInputAssociation, DataInputAssociations, true},
		{schema.KindTask, schema.KindDataOutputAssociation, DataOutputAssociations, true},
		{schema.KindStartEvent, schema.KindMessageEventDefinition, EventDefinitions, true},
		{schema.KindDefinitions, schema.KindProcess, RootElements, true},
		{schema.KindDefinitions, schema.KindCollaboration, RootElements, true},
		{schema.KindCollaboration, schema.KindTask, FlowElements, false},
		{schema.KindLane, schema.KindTask, FlowElements, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.parent)+"/"+string(tt.child), func(t *testing.T) {
			got, ok := ContainmentFor(tt.parent, tt.child)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestLaneHelpers(t *testing.T) {
	doc, p := newProcess(t)
	set := doc.MustNode(schema.KindLaneSet, "LaneSet_1")
	Add(p, LaneSets, set)
	lane := doc.MustNode(schema.KindLane, "Lane_1")
	Add(set, Lanes, lane)
	task := doc.MustNode(schema.KindTask, "Task_1")
	Add(p, FlowElements, task)

	AddFlowNodeRef(lane, task)
	AddFlowNodeRef(lane, task)
	assert.Equal(t, []*Node{task}, lane.FlowNodeRefs)
	assert.Equal(t, []*Node{lane}, task.Lanes)

	RemoveFlowNodeRef(lane, task)
	assert.Empty(t, lane.FlowNodeRefs)
	assert.Empty(t, task.Lanes)

	assert.Same(t, set, LaneSet(p))
	assert.Nil(t, LaneSet(lane))
	assert.Same(t, p, OwningContainer(lane))
	assert.Same(t, doc.Definitions, Definitions(lane))
}

func TestIsExpanded(t *testing.T) {
	doc, p := newProcess(t)
	sub := doc.MustNode(schema.KindSubProcess, "Sub_1")
	assert.False(t, IsExpanded(sub), "no DI means collapsed")

	di := doc.NewDI(DIShape, "")
	di.SetExpanded(true)
	require.NoError(t, BindDI(sub, di))
	assert.True(t, IsExpanded(sub))

	part := doc.MustNode(schema.KindParticipant, "Participant_1")
	assert.False(t, IsExpanded(part))
	part.ProcessRef = p
	assert.True(t, IsExpanded(part))

	assert.True(t, IsExpanded(doc.MustNode(schema.KindTask, "T")))
}
