package schema

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind names a semantic element type. Concrete kinds can be instantiated;
// abstract kinds only take part in Is checks.
type Kind string

// Prefix is the namespace prefix used for all semantic kinds.
const Prefix = "vdml"

// Abstract kinds.
const (
	KindBaseElement           Kind = "vdml:BaseElement"
	KindRootElement           Kind = "vdml:RootElement"
	KindFlowElement           Kind = "vdml:FlowElement"
	KindFlowNode              Kind = "vdml:FlowNode"
	KindActivity              Kind = "vdml:Activity"
	KindEvent                 Kind = "vdml:Event"
	KindCatchEvent            Kind = "vdml:CatchEvent"
	KindThrowEvent            Kind = "vdml:ThrowEvent"
	KindGateway               Kind = "vdml:Gateway"
	KindArtifact              Kind = "vdml:Artifact"
	KindDataAssociation       Kind = "vdml:DataAssociation"
	KindInteractionNode       Kind = "vdml:InteractionNode"
	KindFlowElementsContainer Kind = "vdml:FlowElementsContainer"
	KindEventDefinition       Kind = "vdml:EventDefinition"
)

// Concrete kinds.
const (
	KindDefinitions   Kind = "vdml:Definitions"
	KindProcess       Kind = "vdml:Process"
	KindEcoMap        Kind = "vdml:EcoMap"
	KindCollaboration Kind = "vdml:Collaboration"
	KindParticipant   Kind = "vdml:Participant"
	KindLaneSet       Kind = "vdml:LaneSet"
	KindLane          Kind = "vdml:Lane"

	KindTask             Kind = "vdml:Task"
	KindUserTask         Kind = "vdml:UserTask"
	KindServiceTask      Kind = "vdml:ServiceTask"
	KindManualTask       Kind = "vdml:ManualTask"
	KindScriptTask       Kind = "vdml:ScriptTask"
	KindSendTask         Kind = "vdml:SendTask"
	KindReceiveTask      Kind = "vdml:ReceiveTask"
	KindBusinessRuleTask Kind = "vdml:BusinessRuleTask"
	KindCallActivity     Kind = "vdml:CallActivity"
	KindSubProcess       Kind = "vdml:SubProcess"
	KindTransaction      Kind = "vdml:Transaction"
	KindAdHocSubProcess  Kind = "vdml:AdHocSubProcess"

	KindStartEvent             Kind = "vdml:StartEvent"
	KindEndEvent               Kind = "vdml:EndEvent"
	KindIntermediateCatchEvent Kind = "vdml:IntermediateCatchEvent"
	KindIntermediateThrowEvent Kind = "vdml:IntermediateThrowEvent"
	KindBoundaryEvent          Kind = "vdml:BoundaryEvent"

	KindExclusiveGateway  Kind = "vdml:ExclusiveGateway"
	KindInclusiveGateway  Kind = "vdml:InclusiveGateway"
	KindParallelGateway   Kind = "vdml:ParallelGateway"
	KindComplexGateway    Kind = "vdml:ComplexGateway"
	KindEventBasedGateway Kind = "vdml:EventBasedGateway"

	KindSequenceFlow          Kind = "vdml:SequenceFlow"
	KindValueFlow             Kind = "vdml:ValueFlow"
	KindMessageFlow           Kind = "vdml:MessageFlow"
	KindAssociation           Kind = "vdml:Association"
	KindDataInputAssociation  Kind = "vdml:DataInputAssociation"
	KindDataOutputAssociation Kind = "vdml:DataOutputAssociation"

	KindDataObject          Kind = "vdml:DataObject"
	KindDataObjectReference Kind = "vdml:DataObjectReference"
	KindDataStoreReference  Kind = "vdml:DataStoreReference"
	KindTextAnnotation      Kind = "vdml:TextAnnotation"
	KindGroup               Kind = "vdml:Group"

	KindMessageEventDefinition     Kind = "vdml:MessageEventDefinition"
	KindTimerEventDefinition       Kind = "vdml:TimerEventDefinition"
	KindSignalEventDefinition      Kind = "vdml:SignalEventDefinition"
	KindErrorEventDefinition       Kind = "vdml:ErrorEventDefinition"
	KindEscalationEventDefinition  Kind = "vdml:EscalationEventDefinition"
	KindCompensateEventDefinition  Kind = "vdml:CompensateEventDefinition"
	KindCancelEventDefinition      Kind = "vdml:CancelEventDefinition"
	KindConditionalEventDefinition Kind = "vdml:ConditionalEventDefinition"
	KindLinkEventDefinition        Kind = "vdml:LinkEventDefinition"
	KindTerminateEventDefinition   Kind = "vdml:TerminateEventDefinition"
)

// supertypes maps every kind to its direct generalizations.
var supertypes = map[Kind][]Kind{
	KindRootElement:           {KindBaseElement},
	KindFlowElement:           {KindBaseElement},
	KindFlowNode:              {KindFlowElement},
	KindActivity:              {KindFlowNode, KindInteractionNode},
	KindEvent:                 {KindFlowNode, KindInteractionNode},
	KindCatchEvent:            {KindEvent},
	KindThrowEvent:            {KindEvent},
	KindGateway:               {KindFlowNode},
	KindArtifact:              {KindBaseElement},
	KindDataAssociation:       {KindBaseElement},
	KindFlowElementsContainer: {KindBaseElement},
	KindEventDefinition:       {KindRootElement},

	KindDefinitions:   {KindBaseElement},
	KindProcess:       {KindRootElement, KindFlowElementsContainer},
	KindEcoMap:        {KindProcess},
	KindCollaboration: {KindRootElement},
	KindParticipant:   {KindInteractionNode, KindBaseElement},
	KindLaneSet:       {KindBaseElement},
	KindLane:          {KindBaseElement},

	KindTask:             {KindActivity},
	KindUserTask:         {KindTask},
	KindServiceTask:      {KindTask},
	KindManualTask:       {KindTask},
	KindScriptTask:       {KindTask},
	KindSendTask:         {KindTask},
	KindReceiveTask:      {KindTask},
	KindBusinessRuleTask: {KindTask},
	KindCallActivity:     {KindActivity},
	KindSubProcess:       {KindActivity, KindFlowElementsContainer},
	KindTransaction:      {KindSubProcess},
	KindAdHocSubProcess:  {KindSubProcess},

	KindStartEvent:             {KindCatchEvent},
	KindEndEvent:               {KindThrowEvent},
	KindIntermediateCatchEvent: {KindCatchEvent},
	KindIntermediateThrowEvent: {KindThrowEvent},
	KindBoundaryEvent:          {KindCatchEvent},

	KindExclusiveGateway:  {KindGateway},
	KindInclusiveGateway:  {KindGateway},
	KindParallelGateway:   {KindGateway},
	KindComplexGateway:    {KindGateway},
	KindEventBasedGateway: {KindGateway},

	KindSequenceFlow:          {KindFlowElement},
	KindValueFlow:             {KindSequenceFlow},
	KindMessageFlow:           {KindBaseElement},
	KindAssociation:           {KindArtifact},
	KindDataInputAssociation:  {KindDataAssociation},
	KindDataOutputAssociation: {KindDataAssociation},

	KindDataObject:          {KindFlowElement},
	KindDataObjectReference: {KindFlowElement},
	KindDataStoreReference:  {KindFlowElement},
	KindTextAnnotation:      {KindArtifact},
	KindGroup:               {KindArtifact},

	KindMessageEventDefinition:     {KindEventDefinition},
	KindTimerEventDefinition:       {KindEventDefinition},
	KindSignalEventDefinition:      {KindEventDefinition},
	KindErrorEventDefinition:       {KindEventDefinition},
	KindEscalationEventDefinition:  {KindEventDefinition},
	KindCompensateEventDefinition:  {KindEventDefinition},
	KindCancelEventDefinition:      {KindEventDefinition},
	KindConditionalEventDefinition: {KindEventDefinition},
	KindLinkEventDefinition:        {KindEventDefinition},
	KindTerminateEventDefinition:   {KindEventDefinition},
}

var abstractKinds = map[Kind]bool{
	KindBaseElement:           true,
	KindRootElement:           true,
	KindFlowElement:           true,
	KindFlowNode:              true,
	KindActivity:              true,
	KindEvent:                 true,
	KindCatchEvent:            true,
	KindThrowEvent:            true,
	KindGateway:               true,
	KindArtifact:              true,
	KindDataAssociation:       true,
	KindInteractionNode:       true,
	KindFlowElementsContainer: true,
	KindEventDefinition:       true,
}

// Is reports whether k equals super or specializes it, directly or transitively.
func (k Kind) Is(super Kind) bool {
	if k == super {
		return true
	}
	for _, s := range supertypes[k] {
		if s.Is(super) {
			return true
		}
	}
	return false
}

// IsAny reports whether k is any of the given kinds.
func (k Kind) IsAny(kinds ...Kind) bool {
	for _, s := range kinds {
		if k.Is(s) {
			return true
		}
	}
	return false
}

// Known reports whether k is part of the kind table.
func (k Kind) Known() bool {
	_, ok := supertypes[k]
	return ok || k == KindInteractionNode
}

// Abstract reports whether k cannot be instantiated.
func (k Kind) Abstract() bool {
	return abstractKinds[k]
}

// LocalName returns the kind name without its namespace prefix ("Task").
func (k Kind) LocalName() string {
	s := string(k)
	if i := strings.IndexByte(s, ':'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// ElementName returns the XML element name for k ("task", "sequenceFlow").
func (k Kind) ElementName() string {
	local := k.LocalName()
	r, size := utf8.DecodeRuneInString(local)
	if r == utf8.RuneError {
		return local
	}
	return string(unicode.ToLower(r)) + local[size:]
}

func (k Kind) String() string {
	return string(k)
}

// KindForElement maps an XML element local name back to a concrete kind.
func KindForElement(local string) (Kind, bool) {
	k, ok := elementKinds[local]
	return k, ok
}

var elementKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(supertypes))
	for k := range supertypes {
		if abstractKinds[k] {
			continue
		}
		m[k.ElementName()] = k
	}
	return m
}()

// ParseKind accepts a concrete kind as "vdml:Task", "Task" or "task".
func ParseKind(s string) (Kind, error) {
	s = strings.TrimSpace(s)
	if k := Kind(s); strings.HasPrefix(s, Prefix+":") && k.Known() && !k.Abstract() {
		return k, nil
	}
	local := Kind(s).LocalName()
	if k, ok := KindForElement(Kind(local).ElementName()); ok {
		return k, nil
	}
	return "", NewErrorf(ErrCodeValidation, "unknown element kind %q", s)
}
