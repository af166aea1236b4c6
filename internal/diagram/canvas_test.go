package diagram

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// sampleCanvas builds start -> task -> end inside a process root, with a
// boundary event on the task and a named flow.
func sampleCanvas(t *testing.T) *Canvas {
	t.Helper()
	doc := model.NewDocument()
	node := func(k schema.Kind, id, name string) *model.Node {
		n := doc.MustNode(k, id)
		n.Name = name
		return n
	}

	c := NewCanvas()
	_, err := c.SetRoot(&Element{ID: "Process_1", BusinessObject: node(schema.KindProcess, "Process_1", "Order")})
	require.NoError(t, err)

	start := &Element{ID: "Start_1", Type: TypeShape, BusinessObject: node(schema.KindStartEvent, "Start_1", "Received")}
	task := &Element{ID: "Task_1", Type: TypeShape, BusinessObject: node(schema.KindTask, "Task_1", "Check")}
	end := &Element{ID: "End_1", Type: TypeShape, BusinessObject: node(schema.KindEndEvent, "End_1", "")}
	gw := &Element{ID: "Gateway_1", Type: TypeShape, BusinessObject: node(schema.KindExclusiveGateway, "Gateway_1", "ok?")}
	for _, e := range []*Element{start, task, gw, end} {
		require.NoError(t, c.AddShape(e, nil, -1))
	}
	flows := []*Element{
		{ID: "Flow_1", Source: start, Target: task, BusinessObject: node(schema.KindSequenceFlow, "Flow_1", "")},
		{ID: "Flow_2", Source: task, Target: gw, BusinessObject: node(schema.KindSequenceFlow, "Flow_2", "")},
		{ID: "Flow_3", Source: gw, Target: end, BusinessObject: node(schema.KindSequenceFlow, "Flow_3", "yes")},
	}
	for _, f := range flows {
		require.NoError(t, c.AddConnection(f, nil, -1))
	}
	return c
}

func TestCanvas_AddAndRemove(t *testing.T) {
	c := sampleCanvas(t)
	root := c.Root()
	require.NotNil(t, root)
	assert.Equal(t, TypeRoot, root.Type)
	assert.Equal(t, 8, c.Registry().Len())

	task := c.Registry().Get("Task_1")
	require.NotNil(t, task)
	assert.Same(t, root, task.Parent)
	assert.Len(t, task.Incoming, 1)
	assert.Len(t, task.Outgoing, 1)

	flow := c.Registry().Get("Flow_1")
	source := flow.Source
	idx := c.RemoveConnection(flow)
	assert.GreaterOrEqual(t, idx, 0)
	assert.Nil(t, c.Registry().Get("Flow_1"))
	assert.Empty(t, task.Incoming)
	assert.Nil(t, flow.Target)

	flow.Source, flow.Target = source, task
	require.NoError(t, c.Restore(flow, root, idx))
	assert.Len(t, source.Outgoing, 1)
	assert.Len(t, task.Incoming, 1)
	assert.Equal(t, idx, flow.IndexInParent())
}

func TestCanvas_AddDuplicate(t *testing.T) {
	c := sampleCanvas(t)
	err := c.AddShape(&Element{ID: "Task_1", Type: TypeShape}, nil, -1)
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeConflict))
}

func TestCanvas_AddWithoutRoot(t *testing.T) {
	c := NewCanvas()
	err := c.AddShape(&Element{ID: "Task_1", Type: TypeShape}, nil, -1)
	require.Error(t, err)
}

func TestCanvas_ReplaceWith(t *testing.T) {
	live := NewCanvas()
	staging := sampleCanvas(t)

	live.ReplaceWith(staging)
	assert.Equal(t, "Process_1", live.Root().ID)
	assert.Equal(t, 8, live.Registry().Len())
	assert.Nil(t, staging.Root())
	assert.Zero(t, staging.Registry().Len())

	live.Clear()
	assert.Nil(t, live.Root())
}

func TestAttachers(t *testing.T) {
	host := &Element{ID: "Task_1"}
	be := &Element{ID: "Boundary_1"}
	AddAttacher(host, be)
	AddAttacher(host, be)
	assert.Equal(t, []*Element{be}, host.Attachers)
	assert.Same(t, host, be.Host)

	RemoveAttacher(be)
	assert.Empty(t, host.Attachers)
	assert.Nil(t, be.Host)
}

func TestSetParent_ReturnsOldIndex(t *testing.T) {
	a := &Element{ID: "a"}
	b := &Element{ID: "b"}
	child := &Element{ID: "c"}
	SetParent(&Element{ID: "x"}, a, -1)
	SetParent(child, a, -1)

	assert.Equal(t, 1, SetParent(child, b, 0))
	assert.Len(t, a.Children, 1)
	assert.Equal(t, []*Element{child}, b.Children)
	assert.True(t, b.IsAncestorOf(child))
	assert.False(t, a.IsAncestorOf(child))
}

func TestRenderMermaid(t *testing.T) {
	out := RenderMermaid(sampleCanvas(t))

	assert.Contains(t, out, "flowchart LR")
	assert.Contains(t, out, `Start_1(("Received"))`)
	assert.Contains(t, out, `Gateway_1{"ok?"}`)
	assert.Contains(t, out, `Task_1("Check")`)
	assert.Contains(t, out, "Start_1 --> Task_1")
	assert.Contains(t, out, "Gateway_1 -->|yes| End_1")
	assert.Contains(t, out, "class Gateway_1 gateway")
}

func TestRenderMermaid_Empty(t *testing.T) {
	assert.Equal(t, "flowchart LR\n", RenderMermaid(NewCanvas()))
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), sampleCanvas(t))
	require.NoError(t, err)
	assert.Contains(t, string(svg), "<svg")
	assert.Contains(t, string(svg), "Check")
}

func TestRenderSVG_NoRoot(t *testing.T) {
	_, err := RenderSVG(context.Background(), NewCanvas())
	require.Error(t, err)
	assert.True(t, schema.IsCode(err, schema.ErrCodeNoDiagram))
}
