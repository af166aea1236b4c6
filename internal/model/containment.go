package model

import "github.com/mrajende/vdmlio/pkg/schema"

// ContainmentFor returns the collection of parent that owns a child of kind
// child, or false when parent cannot hold it.
func ContainmentFor(parent, child schema.Kind) (Containment, bool) {
	switch {
	case child.Is(schema.KindEventDefinition) && parent.Is(schema.KindEvent):
		return EventDefinitions, true
	case child.Is(schema.KindRootElement):
		return RootElements, parent.Is(schema.KindDefinitions)
	case child.Is(schema.KindParticipant):
		return Participants, parent.Is(schema.KindCollaboration)
	case child.Is(schema.KindMessageFlow):
		return MessageFlows, parent.Is(schema.KindCollaboration)
	case child.Is(schema.KindLaneSet):
		if parent.Is(schema.KindLane) {
			return ChildLaneSet, true
		}
		return LaneSets, parent.Is(schema.KindFlowElementsContainer)
	case child.Is(schema.KindLane):
		return Lanes, parent.Is(schema.KindLaneSet)
	case child.Is(schema.KindArtifact):
		return Artifacts, parent.IsAny(schema.KindFlowElementsContainer, schema.KindCollaboration)
	case child.Is(schema.KindDataInputAssociation):
		return DataInputAssociations, parent.IsAny(schema.KindActivity, schema.KindThrowEvent)
	case child.Is(schema.KindDataOutputAssociation):
		return DataOutputAssociations, parent.IsAny(schema.KindActivity, schema.KindCatchEvent)
	case child.Is(schema.KindFlowElement):
		return FlowElements, parent.Is(schema.KindFlowElementsContainer)
	}
	return "", false
}

// IsExpanded reports whether n shows its content: sub processes follow
// their DI flag, participants are expanded when they reference a process,
// everything else is expanded.
func IsExpanded(n *Node) bool {
	switch {
	case n == nil:
		return false
	case n.Is(schema.KindCallActivity):
		return false
	case n.Is(schema.KindSubProcess):
		return n.di.Expanded()
	case n.Is(schema.KindParticipant):
		return n.ProcessRef != nil
	}
	return true
}

// IsEventSubProcess reports whether n is a sub process triggered by an event.
func IsEventSubProcess(n *Node) bool {
	return n.Is(schema.KindSubProcess) && n.TriggeredByEvent
}

// AddFlowNodeRef records node as a member of lane and updates the reverse
// lanes index.
func AddFlowNodeRef(lane, node *Node) {
	lane.FlowNodeRefs = AddRef(lane.FlowNodeRefs, node)
	node.Lanes = AddRef(node.Lanes, lane)
}

// RemoveFlowNodeRef removes node from lane and from the reverse index.
func RemoveFlowNodeRef(lane, node *Node) {
	lane.FlowNodeRefs = RemoveRef(lane.FlowNodeRefs, node)
	node.Lanes = RemoveRef(node.Lanes, lane)
}

// LaneSet returns the first lane set of container, or the child lane set of a
// lane.
func LaneSet(container *Node) *Node {
	if container.Is(schema.KindLane) {
		if sets := container.children[ChildLaneSet]; len(sets) > 0 {
			return sets[0]
		}
		return nil
	}
	if sets := container.children[LaneSets]; len(sets) > 0 {
		return sets[0]
	}
	return nil
}

// OwningContainer walks up from a lane or lane set to the flow elements
// container that owns it.
func OwningContainer(n *Node) *Node {
	for p := n; p != nil; p = p.parent {
		if p.Is(schema.KindFlowElementsContainer) {
			return p
		}
	}
	return nil
}

// Definitions returns the definitions node that transitively owns n.
func Definitions(n *Node) *Node {
	for p := n; p != nil; p = p.parent {
		if p.Is(schema.KindDefinitions) {
			return p
		}
	}
	return nil
}
