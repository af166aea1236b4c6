package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrajende/vdmlio/internal/fixtures"
	"github.com/mrajende/vdmlio/internal/logging"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/internal/xmlio"
	"github.com/mrajende/vdmlio/pkg/schema"
)

type builder struct {
	doc     *model.Document
	process *model.Node
}

func newBuilder() *builder {
	doc := model.NewDocument()
	p := doc.MustNode(schema.KindProcess, "Process_1")
	model.Add(doc.Definitions, model.RootElements, p)
	return &builder{doc: doc, process: p}
}

func (b *builder) node(kind schema.Kind, id string) *model.Node {
	n := b.doc.MustNode(kind, id)
	model.Add(b.process, model.FlowElements, n)
	return n
}

func (b *builder) flow(id string, source, target *model.Node) *model.Node {
	f := b.node(schema.KindSequenceFlow, id)
	f.SourceRef, f.TargetRef = source, target
	if source != nil {
		source.Outgoing = model.AddRef(source.Outgoing, f)
	}
	if target != nil {
		target.Incoming = model.AddRef(target.Incoming, f)
	}
	return f
}

func codes(ws schema.Warnings) map[string][]string {
	m := make(map[string][]string)
	for _, w := range ws {
		m[w.Code] = append(m[w.Code], w.ElementID)
	}
	return m
}

func TestValidateDocument_Clean(t *testing.T) {
	doc, _, err := xmlio.NewReader(logging.Discard()).Read(strings.NewReader(fixtures.SimpleProcess))
	require.NoError(t, err)

	assert.Empty(t, ValidateDocument(doc))
}

func TestValidateDocument_Nil(t *testing.T) {
	assert.Empty(t, ValidateDocument(nil))
}

func TestValidateDocument_Findings(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *builder)
		want  map[string][]string
	}{
		{
			name: "dangling flow",
			build: func(b *builder) {
				start := b.node(schema.KindStartEvent, "Start_1")
				b.flow("Flow_1", start, nil)
			},
			want: map[string][]string{CodeDanglingFlow: {"Flow_1"}},
		},
		{
			name: "start with incoming",
			build: func(b *builder) {
				start := b.node(schema.KindStartEvent, "Start_1")
				task := b.node(schema.KindTask, "Task_1")
				b.flow("Flow_1", start, task)
				b.flow("Flow_2", task, start)
			},
			want: map[string][]string{CodeStartHasIncoming: {"Start_1"}},
		},
		{
			name: "end with outgoing",
			build: func(b *builder) {
				start := b.node(schema.KindStartEvent, "Start_1")
				end := b.node(schema.KindEndEvent, "End_1")
				task := b.node(schema.KindTask, "Task_1")
				b.flow("Flow_1", start, end)
				b.flow("Flow_2", end, task)
			},
			want: map[string][]string{CodeEndHasOutgoing: {"End_1"}},
		},
		{
			name: "foreign default",
			build: func(b *builder) {
				start := b.node(schema.KindStartEvent, "Start_1")
				gw := b.node(schema.KindExclusiveGateway, "Gateway_1")
				task := b.node(schema.KindTask, "Task_1")
				b.flow("Flow_1", start, gw)
				b.flow("Flow_2", gw, task)
				gw.Default = b.flow("Flow_3", start, task)
			},
			want: map[string][]string{CodeInvalidDefault: {"Gateway_1"}},
		},
		{
			name: "unattached boundary",
			build: func(b *builder) {
				b.node(schema.KindBoundaryEvent, "Boundary_1")
			},
			want: map[string][]string{CodeUnattachedBoundary: {"Boundary_1"}},
		},
		{
			name: "unreachable task",
			build: func(b *builder) {
				start := b.node(schema.KindStartEvent, "Start_1")
				end := b.node(schema.KindEndEvent, "End_1")
				b.node(schema.KindTask, "Task_1")
				b.flow("Flow_1", start, end)
			},
			want: map[string][]string{CodeUnreachable: {"Task_1"}},
		},
		{
			name: "boundary reached through host",
			build: func(b *builder) {
				start := b.node(schema.KindStartEvent, "Start_1")
				task := b.node(schema.KindTask, "Task_1")
				boundary := b.node(schema.KindBoundaryEvent, "Boundary_1")
				boundary.AttachedToRef = task
				handler := b.node(schema.KindTask, "Task_2")
				b.flow("Flow_1", start, task)
				b.flow("Flow_2", boundary, handler)
			},
			want: map[string][]string{},
		},
		{
			name: "no start event skips reachability",
			build: func(b *builder) {
				b.node(schema.KindTask, "Task_1")
				b.node(schema.KindTask, "Task_2")
			},
			want: map[string][]string{},
		},
		{
			name: "event sub process is not a flow target",
			build: func(b *builder) {
				start := b.node(schema.KindStartEvent, "Start_1")
				end := b.node(schema.KindEndEvent, "End_1")
				b.flow("Flow_1", start, end)
				sub := b.node(schema.KindSubProcess, "Sub_1")
				sub.TriggeredByEvent = true
			},
			want: map[string][]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBuilder()
			tt.build(b)
			assert.Equal(t, tt.want, codes(ValidateDocument(b.doc)))
		})
	}
}

func TestValidateDocument_NestedContainers(t *testing.T) {
	b := newBuilder()
	start := b.node(schema.KindStartEvent, "Start_1")
	sub := b.node(schema.KindSubProcess, "Sub_1")
	b.flow("Flow_1", start, sub)

	inner := b.doc.MustNode(schema.KindStartEvent, "Start_2")
	orphan := b.doc.MustNode(schema.KindTask, "Task_9")
	model.Add(sub, model.FlowElements, inner)
	model.Add(sub, model.FlowElements, orphan)

	ws := ValidateDocument(b.doc)
	require.Len(t, ws, 1)
	assert.Equal(t, CodeUnreachable, ws[0].Code)
	assert.Equal(t, "Task_9", ws[0].ElementID)
}

func TestValidateDocument_ParticipantProcessRef(t *testing.T) {
	b := newBuilder()
	collab := b.doc.MustNode(schema.KindCollaboration, "Collaboration_1")
	model.Add(b.doc.Definitions, model.RootElements, collab)

	good := b.doc.MustNode(schema.KindParticipant, "Participant_1")
	good.ProcessRef = b.process
	bad := b.doc.MustNode(schema.KindParticipant, "Participant_2")
	bad.ProcessRef = collab
	blackBox := b.doc.MustNode(schema.KindParticipant, "Participant_3")
	for _, p := range []*model.Node{good, bad, blackBox} {
		model.Add(collab, model.Participants, p)
	}

	assert.Equal(t, map[string][]string{CodeInvalidProcessRef: {"Participant_2"}}, codes(ValidateDocument(b.doc)))
}
