package xmlio

import (
	"bytes"
	"encoding/xml"
	"io"
	"log/slog"
	"slices"
	"strconv"

	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// refAttrs are the single-valued id reference attributes, resolved after the
// whole tree is built.
var refAttrs = []string{"sourceRef", "targetRef", "attachedToRef", "default", "processRef", "dataObjectRef"}

var definitionsAttrs = []string{"id", "targetNamespace", "exporter", "exporterVersion"}

// Reader turns XML text into a document.
type Reader struct {
	logger *slog.Logger
}

// NewReader creates a reader. A nil logger uses slog.Default.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger.With("component", "xmlio")}
}

// pendingRef is an id reference waiting for every node to exist.
type pendingRef struct {
	node  *model.Node
	field string
	id    string
}

type readState struct {
	doc      *model.Document
	refs     []pendingRef
	warnings schema.Warnings
	logger   *slog.Logger
}

func (s *readState) warn(code, elementID, format string, args ...any) {
	s.warnings.Add(code, elementID, format, args...)
	w := s.warnings[len(s.warnings)-1]
	s.logger.Warn(w.Message, "code", code, "element_id", elementID)
}

// Read parses a document. Malformed XML and a root that is not a
// definitions element are fatal; unknown elements, duplicate ids, dangling
// references and bad numbers are returned as warnings.
func (r *Reader) Read(src io.Reader) (*model.Document, schema.Warnings, error) {
	var root element
	if err := xml.NewDecoder(src).Decode(&root); err != nil {
		return nil, nil, schema.NewError(schema.ErrCodeParse, "malformed document").WithCause(err)
	}
	if !root.is(NamespaceModel, "definitions") {
		return nil, nil, schema.NewErrorf(schema.ErrCodeParse, "unexpected root element %s", root.XMLName.Local).
			WithDetails(map[string]any{"namespace": root.XMLName.Space})
	}

	s := &readState{doc: model.NewDocument(), logger: r.logger}
	s.readDefinitions(&root)
	s.resolveRefs()
	for _, ch := range root.Children {
		if ch.is(NamespaceDI, "VDMLDiagram") {
			s.readDiagram(&ch)
		}
	}
	r.logger.Debug("document read", "nodes", len(s.doc.Nodes()), "diagrams", len(s.doc.Diagrams),
		"warnings", len(s.warnings))
	return s.doc, s.warnings, nil
}

// ReadBytes is Read over a byte slice.
func (r *Reader) ReadBytes(data []byte) (*model.Document, schema.Warnings, error) {
	return r.Read(bytes.NewReader(data))
}

func (s *readState) readDefinitions(root *element) {
	defs := s.doc.Definitions
	if id, ok := root.attr("id"); ok && id != defs.ID {
		s.doc.Unregister(defs)
		defs.ID = id
		s.doc.EnsureID(defs, "")
	}
	s.doc.TargetNamespace = root.attrOr("targetNamespace", "")
	s.doc.Exporter = root.attrOr("exporter", "")
	for _, a := range root.Attrs {
		if !isNamespaceDecl(a) && a.Name.Space == "" && !slices.Contains(definitionsAttrs, a.Name.Local) {
			defs.SetAttr(a.Name.Local, a.Value)
		}
	}
	for i := range root.Children {
		ch := &root.Children[i]
		if ch.XMLName.Space == NamespaceDI {
			continue
		}
		s.readNode(ch, defs)
	}
}

// readNode maps el and its subtree into parent. It skips what it cannot
// place, with a warning.
func (s *readState) readNode(el *element, parent *model.Node) {
	if el.XMLName.Space != NamespaceModel {
		s.warn(schema.ErrCodeUnrecognizedElement, el.attrOr("id", ""),
			"unrecognized element {%s}%s in %s", el.XMLName.Space, el.XMLName.Local, parent.ID)
		return
	}
	local := el.XMLName.Local
	if local == "childLaneSet" {
		local = "laneSet"
	}
	kind, ok := schema.KindForElement(local)
	if !ok {
		s.warn(schema.ErrCodeUnrecognizedElement, el.attrOr("id", ""),
			"unrecognized element %s in %s", el.XMLName.Local, parent.ID)
		return
	}
	slot, ok := model.ContainmentFor(parent.Kind, kind)
	if !ok {
		s.warn(schema.ErrCodeUnrecognizedElement, el.attrOr("id", ""),
			"%s is not allowed in %s", el.XMLName.Local, parent.ID)
		return
	}

	n, err := s.doc.NewNode(kind, el.attrOr("id", ""))
	if err != nil {
		s.warn(schema.ErrCodeDuplicateID, el.attrOr("id", ""), "duplicate id %s", el.attrOr("id", ""))
		n, _ = s.doc.NewNode(kind, "")
	}
	s.doc.EnsureID(n, "")
	s.readAttrs(el, n)
	model.Add(parent, slot, n)

	for i := range el.Children {
		ch := &el.Children[i]
		if ch.XMLName.Space == NamespaceModel && s.readProperty(ch, n) {
			continue
		}
		s.readNode(ch, n)
	}
}

func (s *readState) readAttrs(el *element, n *model.Node) {
	for _, a := range el.Attrs {
		if isNamespaceDecl(a) || (a.Name.Space != "" && a.Name.Space != NamespaceModel) {
			continue
		}
		switch v := a.Value; a.Name.Local {
		case "id":
		case "name":
			n.Name = v
		case "isInterrupting":
			n.IsInterrupting = s.parseBool(n, a.Name.Local, v)
		case "cancelActivity":
			n.CancelActivity = s.parseBool(n, a.Name.Local, v)
		case "triggeredByEvent":
			n.TriggeredByEvent = s.parseBool(n, a.Name.Local, v)
		case "isForCompensation":
			n.IsForCompensation = s.parseBool(n, a.Name.Local, v)
		case "associationDirection":
			n.AssociationDirection = v
		default:
			if slices.Contains(refAttrs, a.Name.Local) {
				s.refs = append(s.refs, pendingRef{node: n, field: a.Name.Local, id: v})
				continue
			}
			n.SetAttr(a.Name.Local, v)
		}
	}
}

// readProperty handles child elements that carry values rather than owned
// nodes. It reports whether el was consumed.
func (s *readState) readProperty(el *element, n *model.Node) bool {
	switch el.XMLName.Local {
	case "incoming", "outgoing":
		// Derived from the flows once references resolve.
		return true
	case "flowNodeRef":
		s.refs = append(s.refs, pendingRef{node: n, field: "flowNodeRef", id: el.text()})
		return true
	case "sourceRef", "targetRef":
		s.refs = append(s.refs, pendingRef{node: n, field: el.XMLName.Local, id: el.text()})
		return true
	case "text":
		n.Text = el.Text
		return true
	case "conditionExpression":
		n.ConditionExpression = &model.Expression{Body: el.text(), Language: el.attrOr("language", "")}
		return true
	case "documentation", "extensionElements":
		return true
	}
	return false
}

func (s *readState) resolveRefs() {
	for _, ref := range s.refs {
		target, ok := s.doc.Lookup(ref.id)
		if !ok {
			s.warn(schema.ErrCodeUnresolvedReference, ref.node.ID,
				"unresolved reference %s#%s to %s", ref.node.ID, ref.field, ref.id)
			continue
		}
		n := ref.node
		switch ref.field {
		case "sourceRef":
			if n.Is(schema.KindDataInputAssociation) {
				n.SourceRefs = model.AddRef(n.SourceRefs, target)
			} else {
				n.SourceRef = target
			}
		case "targetRef":
			n.TargetRef = target
		case "attachedToRef":
			n.AttachedToRef = target
		case "default":
			n.Default = target
		case "processRef":
			n.ProcessRef = target
		case "dataObjectRef":
			n.DataObjectRef = target
		case "flowNodeRef":
			n.FlowNodeRefs = model.AddRef(n.FlowNodeRefs, target)
		}
	}
	s.refs = nil

	for _, n := range s.doc.Nodes() {
		if !n.Is(schema.KindSequenceFlow) {
			continue
		}
		if n.SourceRef != nil {
			n.SourceRef.Outgoing = model.AddRef(n.SourceRef.Outgoing, n)
		}
		if n.TargetRef != nil {
			n.TargetRef.Incoming = model.AddRef(n.TargetRef.Incoming, n)
		}
	}
}

func (s *readState) readDiagram(el *element) {
	dg := &model.Diagram{ID: el.attrOr("id", ""), Name: el.attrOr("name", "")}
	if dg.ID == "" {
		dg.ID = s.doc.NextID("Diagram")
	}
	if p := el.child(NamespaceDI, "VDMLPlane"); p != nil {
		plane := s.doc.NewDI(model.DIPlane, p.attrOr("id", ""))
		plane.ElementRef = p.attrOr("vdmlElement", "")
		for i := range p.Children {
			ch := &p.Children[i]
			switch {
			case ch.is(NamespaceDI, "VDMLShape"):
				plane.AddElement(s.readShape(ch), -1)
			case ch.is(NamespaceDI, "VDMLEdge"):
				plane.AddElement(s.readEdge(ch), -1)
			default:
				s.warn(schema.ErrCodeUnrecognizedElement, ch.attrOr("id", ""),
					"unrecognized DI element %s in %s", ch.XMLName.Local, plane.ID)
			}
		}
		dg.Plane = plane
	}
	s.doc.Diagrams = append(s.doc.Diagrams, dg)
}

func (s *readState) readShape(el *element) *model.DI {
	di := s.doc.NewDI(model.DIShape, el.attrOr("id", ""))
	di.ElementRef = el.attrOr("vdmlElement", "")
	if v, ok := el.attr("isExpanded"); ok {
		b := s.parseBool(nil, "isExpanded", v)
		di.IsExpanded = &b
	}
	if v, ok := el.attr("isHorizontal"); ok {
		b := s.parseBool(nil, "isHorizontal", v)
		di.IsHorizontal = &b
	}
	if b := el.child(NamespaceDC, "Bounds"); b != nil {
		di.Bounds = s.readBounds(b, di.ID)
	}
	s.readLabel(el, di)
	return di
}

func (s *readState) readEdge(el *element) *model.DI {
	di := s.doc.NewDI(model.DIEdge, el.attrOr("id", ""))
	di.ElementRef = el.attrOr("vdmlElement", "")
	for i := range el.Children {
		wp := &el.Children[i]
		if wp.is(NamespaceDD, "waypoint") {
			di.Waypoints = append(di.Waypoints, model.Point{
				X: s.parseFloat(di.ID, "x", wp.attrOr("x", "0")),
				Y: s.parseFloat(di.ID, "y", wp.attrOr("y", "0")),
			})
		}
	}
	s.readLabel(el, di)
	return di
}

func (s *readState) readLabel(el *element, di *model.DI) {
	l := el.child(NamespaceDI, "VDMLLabel")
	if l == nil {
		return
	}
	label := di.EnsureLabel()
	if b := l.child(NamespaceDC, "Bounds"); b != nil {
		label.Bounds = s.readBounds(b, di.ID)
	}
}

func (s *readState) readBounds(el *element, id string) *model.Bounds {
	return &model.Bounds{
		X:      s.parseFloat(id, "x", el.attrOr("x", "0")),
		Y:      s.parseFloat(id, "y", el.attrOr("y", "0")),
		Width:  s.parseFloat(id, "width", el.attrOr("width", "0")),
		Height: s.parseFloat(id, "height", el.attrOr("height", "0")),
	}
}

func (s *readState) parseFloat(id, attr, v string) float64 {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		s.warn(schema.ErrCodeParse, id, "invalid number %q for %s of %s", v, attr, id)
		return 0
	}
	return f
}

func (s *readState) parseBool(n *model.Node, attr, v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		id := ""
		if n != nil {
			id = n.ID
		}
		s.warn(schema.ErrCodeParse, id, "invalid boolean %q for %s", v, attr)
	}
	return b
}

func isNamespaceDecl(a xml.Attr) bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}
