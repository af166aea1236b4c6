package updater

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrajende/vdmlio/internal/command"
	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

func TestJournalUndo(t *testing.T) {
	doc := model.NewDocument()
	process := doc.MustNode(schema.KindProcess, "Process_1")
	sub := doc.MustNode(schema.KindSubProcess, "Sub_1")
	task := doc.MustNode(schema.KindTask, "Task_1")
	lane := doc.MustNode(schema.KindLane, "Lane_1")
	model.Add(process, model.FlowElements, sub)
	model.Add(process, model.FlowElements, task)
	plane := doc.AddDiagram("Diagram_1", process).Plane
	di := doc.NewDI(model.DIShape, "Task_1_di")
	require.NoError(t, model.BindDI(task, di))
	plane.AddElement(di, -1)
	bounds := &model.Bounds{X: 1, Y: 2, Width: 3, Height: 4}
	di.Bounds = bounds

	ctx := command.NewContext()
	j := journalOf(ctx)
	assert.Same(t, j, journalOf(ctx))

	j.setParent(task, sub, model.FlowElements)
	j.removeFromPlane(di)
	j.addFlowNodeRef(lane, task)
	j.setBounds(&di.Bounds, model.Bounds{X: 10, Y: 20, Width: 3, Height: 4})
	j.ensureLabel(di)
	j.setWaypoints(di, []model.Point{{X: 1, Y: 1}})

	assert.Equal(t, sub, task.Parent())
	assert.Nil(t, di.Plane())
	assert.Equal(t, []*model.Node{task}, lane.FlowNodeRefs)
	assert.NotNil(t, di.Label)

	j.undo()
	assert.Equal(t, process, task.Parent())
	assert.Equal(t, 1, process.IndexOf(model.FlowElements, task))
	assert.Equal(t, plane, di.Plane())
	assert.Empty(t, lane.FlowNodeRefs)
	assert.Empty(t, task.Lanes)
	assert.Same(t, bounds, di.Bounds)
	assert.Nil(t, di.Label)
	assert.Nil(t, di.Waypoints)
	assert.Empty(t, j.entries)
}

func TestJournalBind(t *testing.T) {
	doc := model.NewDocument()
	process := doc.MustNode(schema.KindProcess, "Process_1")
	collab := doc.MustNode(schema.KindCollaboration, "Collaboration_1")
	plane := doc.AddDiagram("Diagram_1", process).Plane

	j := &journal{}
	require.NoError(t, j.bind(collab, plane))
	assert.Equal(t, collab, plane.Semantic())
	assert.Equal(t, "Collaboration_1", plane.ElementRef)
	assert.Nil(t, process.DI())

	j.undo()
	assert.Equal(t, process, plane.Semantic())
	assert.Equal(t, plane, process.DI())
	assert.Nil(t, collab.DI())
	assert.Equal(t, "Process_1", plane.ElementRef)
}

func TestUpdateSemanticParent(t *testing.T) {
	doc := model.NewDocument()
	u := New(diagram.NewCanvas(), doc, nil)
	collab := doc.MustNode(schema.KindCollaboration, "Collaboration_1")
	process := doc.MustNode(schema.KindProcess, "Process_1")
	pool := doc.MustNode(schema.KindParticipant, "Participant_1")
	collapsed := doc.MustNode(schema.KindParticipant, "Participant_2")
	pool.ProcessRef = process
	model.Add(collab, model.Participants, pool)
	model.Add(collab, model.Participants, collapsed)

	tests := []struct {
		name       string
		kind       schema.Kind
		parent     *model.Node
		wantParent *model.Node
		wantErr    bool
	}{
		{name: "task in participant", kind: schema.KindTask, parent: pool, wantParent: process},
		{name: "annotation in participant", kind: schema.KindTextAnnotation, parent: pool, wantParent: process},
		{name: "annotation in collaboration", kind: schema.KindTextAnnotation, parent: collab, wantParent: collab},
		{name: "task in collapsed participant", kind: schema.KindTask, parent: collapsed, wantErr: true},
		{name: "task in collaboration", kind: schema.KindTask, parent: collab, wantErr: true},
		{name: "message flow in process", kind: schema.KindMessageFlow, parent: process, wantErr: true},
		{name: "definitions has no slot", kind: schema.KindDefinitions, parent: process, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bo := doc.MustNode(tt.kind, "")
			j := &journal{}
			err := u.updateSemanticParent(j, bo, tt.parent)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, schema.IsCode(err, schema.ErrCodeNoParentForElement))
				assert.Nil(t, bo.Parent())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantParent, bo.Parent())
			j.undo()
			assert.Nil(t, bo.Parent())
		})
	}
}

func TestLaneSetCreatedOnce(t *testing.T) {
	doc := model.NewDocument()
	u := New(diagram.NewCanvas(), doc, nil)
	process := doc.MustNode(schema.KindProcess, "Process_1")
	pool := doc.MustNode(schema.KindParticipant, "Participant_1")
	pool.ProcessRef = process

	j := &journal{}
	first := doc.MustNode(schema.KindLane, "Lane_1")
	second := doc.MustNode(schema.KindLane, "Lane_2")
	require.NoError(t, u.updateSemanticParent(j, first, pool))
	require.NoError(t, u.updateSemanticParent(j, second, pool))

	sets := process.Children(model.LaneSets)
	require.Len(t, sets, 1)
	assert.Equal(t, []*model.Node{first, second}, sets[0].Children(model.Lanes))

	nested := doc.MustNode(schema.KindLane, "Lane_3")
	require.NoError(t, u.updateSemanticParent(j, nested, first))
	require.NotNil(t, model.LaneSet(first))
	assert.Equal(t, model.LaneSet(first), nested.Parent())

	j.undo()
	assert.Empty(t, process.Children(model.LaneSets))
	assert.Nil(t, first.Parent())
}
