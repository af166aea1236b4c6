// Package fixtures holds VDML documents shared by tests across packages.
package fixtures

// SimpleProcess is a start event, an exclusive gateway with a conditional
// and a default branch, two tasks and an end event.
const SimpleProcess = `<?xml version="1.0" encoding="UTF-8"?>
<vdml:definitions xmlns:vdml="http://www.omg.org/spec/VDML/20100524/MODEL"
    xmlns:vdmldi="http://www.omg.org/spec/VDML/20100524/DI"
    xmlns:dc="http://www.omg.org/spec/DD/20100524/DC"
    xmlns:di="http://www.omg.org/spec/DD/20100524/DI"
    id="Definitions_1" targetNamespace="http://vdmlio.dev/simple" exporter="fixtures">
  <vdml:process id="Process_1">
    <vdml:startEvent id="Start_1" name="Order received">
      <vdml:outgoing>Flow_1</vdml:outgoing>
    </vdml:startEvent>
    <vdml:exclusiveGateway id="Gateway_1" name="Amount?" default="Flow_3">
      <vdml:incoming>Flow_1</vdml:incoming>
      <vdml:outgoing>Flow_2</vdml:outgoing>
      <vdml:outgoing>Flow_3</vdml:outgoing>
    </vdml:exclusiveGateway>
    <vdml:userTask id="Task_1" name="Approve" />
    <vdml:serviceTask id="Task_2" name="Book" />
    <vdml:endEvent id="End_1" />
    <vdml:sequenceFlow id="Flow_1" sourceRef="Start_1" targetRef="Gateway_1" />
    <vdml:sequenceFlow id="Flow_2" sourceRef="Gateway_1" targetRef="Task_1">
      <vdml:conditionExpression>data.amount &gt; 1000</vdml:conditionExpression>
    </vdml:sequenceFlow>
    <vdml:sequenceFlow id="Flow_3" sourceRef="Gateway_1" targetRef="Task_2" />
    <vdml:sequenceFlow id="Flow_4" sourceRef="Task_1" targetRef="End_1" />
    <vdml:sequenceFlow id="Flow_5" sourceRef="Task_2" targetRef="End_1" />
  </vdml:process>
  <vdmldi:VDMLDiagram id="Diagram_1" name="Main">
    <vdmldi:VDMLPlane id="Plane_1" vdmlElement="Process_1">
      <vdmldi:VDMLShape id="Start_1_di" vdmlElement="Start_1">
        <dc:Bounds x="100" y="182" width="36" height="36" />
        <vdmldi:VDMLLabel>
          <dc:Bounds x="80" y="225" width="76" height="14" />
        </vdmldi:VDMLLabel>
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="Gateway_1_di" vdmlElement="Gateway_1">
        <dc:Bounds x="200" y="175" width="50" height="50" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="Task_1_di" vdmlElement="Task_1">
        <dc:Bounds x="320" y="80" width="100" height="80" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="Task_2_di" vdmlElement="Task_2">
        <dc:Bounds x="320" y="240" width="100" height="80" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="End_1_di" vdmlElement="End_1">
        <dc:Bounds x="500" y="182" width="36" height="36" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLEdge id="Flow_1_di" vdmlElement="Flow_1">
        <di:waypoint x="136" y="200" />
        <di:waypoint x="200" y="200" />
      </vdmldi:VDMLEdge>
      <vdmldi:VDMLEdge id="Flow_2_di" vdmlElement="Flow_2">
        <di:waypoint x="225" y="175" />
        <di:waypoint x="225" y="120" />
        <di:waypoint x="320" y="120" />
      </vdmldi:VDMLEdge>
      <vdmldi:VDMLEdge id="Flow_3_di" vdmlElement="Flow_3">
        <di:waypoint x="225" y="225" />
        <di:waypoint x="225" y="280" />
        <di:waypoint x="320" y="280" />
      </vdmldi:VDMLEdge>
      <vdmldi:VDMLEdge id="Flow_4_di" vdmlElement="Flow_4">
        <di:waypoint x="420" y="120" />
        <di:waypoint x="518" y="120" />
        <di:waypoint x="518" y="182" />
      </vdmldi:VDMLEdge>
      <vdmldi:VDMLEdge id="Flow_5_di" vdmlElement="Flow_5">
        <di:waypoint x="420" y="280" />
        <di:waypoint x="518" y="280" />
        <di:waypoint x="518" y="218" />
      </vdmldi:VDMLEdge>
    </vdmldi:VDMLPlane>
  </vdmldi:VDMLDiagram>
</vdml:definitions>
`

// Collaboration has two pools, a lane, a boundary event declared before its
// host, a message flow, a data association and an annotated task.
const Collaboration = `<?xml version="1.0" encoding="UTF-8"?>
<vdml:definitions xmlns:vdml="http://www.omg.org/spec/VDML/20100524/MODEL"
    xmlns:vdmldi="http://www.omg.org/spec/VDML/20100524/DI"
    xmlns:dc="http://www.omg.org/spec/DD/20100524/DC"
    xmlns:di="http://www.omg.org/spec/DD/20100524/DI"
    id="Definitions_2">
  <vdml:collaboration id="Collaboration_1">
    <vdml:participant id="Participant_A" name="Customer" processRef="Process_A" />
    <vdml:participant id="Participant_B" name="Supplier" processRef="Process_B" />
    <vdml:messageFlow id="Message_1" name="Order" sourceRef="Task_A" targetRef="Task_B" />
  </vdml:collaboration>
  <vdml:process id="Process_A">
    <vdml:laneSet id="LaneSet_1">
      <vdml:lane id="Lane_1" name="Buyer">
        <vdml:flowNodeRef>Task_A</vdml:flowNodeRef>
        <vdml:flowNodeRef>Boundary_1</vdml:flowNodeRef>
      </vdml:lane>
    </vdml:laneSet>
    <vdml:boundaryEvent id="Boundary_1" name="Timeout" attachedToRef="Task_A" cancelActivity="false">
      <vdml:timerEventDefinition id="Timer_1" />
    </vdml:boundaryEvent>
    <vdml:task id="Task_A" name="Send order">
      <vdml:dataInputAssociation id="DataIn_1">
        <vdml:sourceRef>DataRef_1</vdml:sourceRef>
      </vdml:dataInputAssociation>
    </vdml:task>
    <vdml:dataObject id="DataObject_1" />
    <vdml:dataObjectReference id="DataRef_1" name="Order form" dataObjectRef="DataObject_1" />
    <vdml:textAnnotation id="Annotation_1">
      <vdml:text>Sent by mail</vdml:text>
    </vdml:textAnnotation>
    <vdml:association id="Association_1" sourceRef="Task_A" targetRef="Annotation_1" />
  </vdml:process>
  <vdml:process id="Process_B">
    <vdml:task id="Task_B" name="Receive order" />
  </vdml:process>
  <vdmldi:VDMLDiagram id="Diagram_1">
    <vdmldi:VDMLPlane id="Plane_1" vdmlElement="Collaboration_1">
      <vdmldi:VDMLShape id="Participant_A_di" vdmlElement="Participant_A" isHorizontal="true">
        <dc:Bounds x="0" y="0" width="700" height="250" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="Lane_1_di" vdmlElement="Lane_1" isHorizontal="true">
        <dc:Bounds x="30" y="0" width="670" height="250" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="Boundary_1_di" vdmlElement="Boundary_1">
        <dc:Bounds x="232" y="142" width="36" height="36" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="Task_A_di" vdmlElement="Task_A">
        <dc:Bounds x="200" y="80" width="100" height="80" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="DataRef_1_di" vdmlElement="DataRef_1">
        <dc:Bounds x="80" y="60" width="36" height="50" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="Annotation_1_di" vdmlElement="Annotation_1">
        <dc:Bounds x="400" y="20" width="120" height="30" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="Participant_B_di" vdmlElement="Participant_B" isHorizontal="true">
        <dc:Bounds x="0" y="300" width="700" height="200" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="Task_B_di" vdmlElement="Task_B">
        <dc:Bounds x="200" y="360" width="100" height="80" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLEdge id="Message_1_di" vdmlElement="Message_1">
        <di:waypoint x="250" y="160" />
        <di:waypoint x="250" y="360" />
      </vdmldi:VDMLEdge>
      <vdmldi:VDMLEdge id="DataIn_1_di" vdmlElement="DataIn_1">
        <di:waypoint x="116" y="85" />
        <di:waypoint x="200" y="110" />
      </vdmldi:VDMLEdge>
      <vdmldi:VDMLEdge id="Association_1_di" vdmlElement="Association_1">
        <di:waypoint x="300" y="90" />
        <di:waypoint x="400" y="35" />
      </vdmldi:VDMLEdge>
    </vdmldi:VDMLPlane>
  </vdmldi:VDMLDiagram>
</vdml:definitions>
`

// Damaged carries one instance of each recoverable problem: an unknown
// element, a duplicate id, a dangling reference, an orphan DI shape, a
// second DI shape for the same task and an unparsable coordinate.
const Damaged = `<?xml version="1.0" encoding="UTF-8"?>
<vdml:definitions xmlns:vdml="http://www.omg.org/spec/VDML/20100524/MODEL"
    xmlns:vdmldi="http://www.omg.org/spec/VDML/20100524/DI"
    xmlns:dc="http://www.omg.org/spec/DD/20100524/DC"
    xmlns:di="http://www.omg.org/spec/DD/20100524/DI"
    id="Definitions_3">
  <vdml:process id="Process_1">
    <vdml:task id="Task_1" name="First" />
    <vdml:task id="Task_1" name="Copy" />
    <vdml:choreographyTask id="Choreo_1" />
    <vdml:sequenceFlow id="Flow_1" sourceRef="Task_1" targetRef="Missing_1" />
  </vdml:process>
  <vdmldi:VDMLDiagram id="Diagram_1">
    <vdmldi:VDMLPlane id="Plane_1" vdmlElement="Process_1">
      <vdmldi:VDMLShape id="Task_1_di" vdmlElement="Task_1">
        <dc:Bounds x="100" y="100" width="100" height="80" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="Task_1_di_2" vdmlElement="Task_1">
        <dc:Bounds x="400" y="100" width="100" height="80" />
      </vdmldi:VDMLShape>
      <vdmldi:VDMLShape id="Ghost_di" vdmlElement="Ghost_1">
        <dc:Bounds x="wide" y="0" width="10" height="10" />
      </vdmldi:VDMLShape>
    </vdmldi:VDMLPlane>
  </vdmldi:VDMLDiagram>
</vdml:definitions>
`

// NoDiagram is a process without any diagram.
const NoDiagram = `<?xml version="1.0" encoding="UTF-8"?>
<vdml:definitions xmlns:vdml="http://www.omg.org/spec/VDML/20100524/MODEL" id="Definitions_4">
  <vdml:process id="Process_1">
    <vdml:task id="Task_1" />
  </vdml:process>
</vdml:definitions>
`
