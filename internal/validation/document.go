package validation

import (
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// Warning codes reported by ValidateDocument.
const (
	CodeDanglingFlow       = "DANGLING_FLOW"
	CodeInvalidDefault     = "INVALID_DEFAULT"
	CodeStartHasIncoming   = "START_HAS_INCOMING"
	CodeEndHasOutgoing     = "END_HAS_OUTGOING"
	CodeUnattachedBoundary = "UNATTACHED_BOUNDARY"
	CodeInvalidProcessRef  = "INVALID_PROCESS_REF"
	CodeUnreachable        = "UNREACHABLE"
)

// ValidateDocument reviews doc for modeling mistakes that reading and
// importing tolerate. It never modifies doc.
func ValidateDocument(doc *model.Document) schema.Warnings {
	var ws schema.Warnings
	if doc == nil || doc.Definitions == nil {
		return ws
	}

	doc.Definitions.Walk(func(n *model.Node) bool {
		checkNode(n, &ws)
		return true
	})
	doc.Definitions.Walk(func(n *model.Node) bool {
		if n.Is(schema.KindFlowElementsContainer) {
			checkReachability(n, &ws)
		}
		return true
	})
	return ws
}

func checkNode(n *model.Node, ws *schema.Warnings) {
	switch {
	case n.IsAny(schema.KindSequenceFlow, schema.KindMessageFlow, schema.KindAssociation):
		if n.SourceRef == nil {
			ws.Add(CodeDanglingFlow, n.ID, "%s %s has no source", n.Kind.LocalName(), n.ID)
		}
		if n.TargetRef == nil {
			ws.Add(CodeDanglingFlow, n.ID, "%s %s has no target", n.Kind.LocalName(), n.ID)
		}
	case n.Is(schema.KindStartEvent):
		if incoming := sequenceFlows(n.Incoming); len(incoming) > 0 {
			ws.Add(CodeStartHasIncoming, n.ID, "start event %s has %d incoming flows", n.ID, len(incoming))
		}
	case n.Is(schema.KindEndEvent):
		if outgoing := sequenceFlows(n.Outgoing); len(outgoing) > 0 {
			ws.Add(CodeEndHasOutgoing, n.ID, "end event %s has %d outgoing flows", n.ID, len(outgoing))
		}
	case n.Is(schema.KindBoundaryEvent):
		if n.AttachedToRef == nil {
			ws.Add(CodeUnattachedBoundary, n.ID, "boundary event %s is not attached to an activity", n.ID)
		}
	case n.Is(schema.KindParticipant):
		if n.ProcessRef != nil && !n.ProcessRef.Is(schema.KindProcess) {
			ws.Add(CodeInvalidProcessRef, n.ID, "participant %s references %s %s, not a process",
				n.ID, n.ProcessRef.Kind.LocalName(), n.ProcessRef.ID)
		}
	}

	if n.Default != nil && n.Default.SourceRef != n {
		ws.Add(CodeInvalidDefault, n.ID, "default flow %s does not leave %s", n.Default.ID, n.ID)
	}
}

// checkReachability walks sequence flows breadth first from the start
// events of container and reports flow nodes it never reaches. Boundary
// events are reached through their host. Containers without start events
// and event sub processes are skipped.
func checkReachability(container *model.Node, ws *schema.Warnings) {
	var nodes, queue []*model.Node
	for _, n := range container.Children(model.FlowElements) {
		if !n.Is(schema.KindFlowNode) || model.IsEventSubProcess(n) {
			continue
		}
		nodes = append(nodes, n)
		if n.Is(schema.KindStartEvent) {
			queue = append(queue, n)
		}
	}
	if len(queue) == 0 {
		return
	}

	boundaries := make(map[*model.Node][]*model.Node)
	for _, n := range nodes {
		if n.Is(schema.KindBoundaryEvent) && n.AttachedToRef != nil {
			boundaries[n.AttachedToRef] = append(boundaries[n.AttachedToRef], n)
		}
	}

	reached := make(map[*model.Node]bool, len(nodes))
	for _, n := range queue {
		reached[n] = true
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		next := append([]*model.Node(nil), boundaries[n]...)
		for _, f := range sequenceFlows(n.Outgoing) {
			if f.TargetRef != nil {
				next = append(next, f.TargetRef)
			}
		}
		for _, m := range next {
			if !reached[m] {
				reached[m] = true
				queue = append(queue, m)
			}
		}
	}

	for _, n := range nodes {
		if !reached[n] {
			ws.Add(CodeUnreachable, n.ID, "%s %s is not reachable from a start event", n.Kind.LocalName(), n.ID)
		}
	}
}

func sequenceFlows(flows []*model.Node) []*model.Node {
	var out []*model.Node
	for _, f := range flows {
		if f.Is(schema.KindSequenceFlow) {
			out = append(out, f)
		}
	}
	return out
}
