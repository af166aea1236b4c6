package xmlio

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// DefaultExporter is written when the document names no exporter.
const DefaultExporter = "vdmlio"

// WriteOptions controls serialization.
type WriteOptions struct {
	// Pretty indents nested elements by two spaces.
	Pretty bool
}

// Write serializes doc as XML.
func Write(w io.Writer, doc *model.Document, opts WriteOptions) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	if opts.Pretty {
		enc.Indent("", "  ")
	}
	ww := &writer{enc: enc}
	ww.definitions(doc)
	if ww.err == nil {
		ww.err = enc.Flush()
	}
	if ww.err != nil {
		return fmt.Errorf("write document: %w", ww.err)
	}
	if opts.Pretty {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}

// WriteBytes is Write into a byte slice.
func WriteBytes(doc *model.Document, opts WriteOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, doc, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writer accumulates the first encoder error so the tree walk stays flat.
type writer struct {
	enc *xml.Encoder
	err error
}

func name(prefix, local string) xml.Name {
	return xml.Name{Local: prefix + ":" + local}
}

func (w *writer) start(n xml.Name, attrs ...xml.Attr) {
	if w.err == nil {
		w.err = w.enc.EncodeToken(xml.StartElement{Name: n, Attr: attrs})
	}
}

func (w *writer) end(n xml.Name) {
	if w.err == nil {
		w.err = w.enc.EncodeToken(xml.EndElement{Name: n})
	}
}

func (w *writer) textElement(n xml.Name, text string, attrs ...xml.Attr) {
	w.start(n, attrs...)
	if w.err == nil {
		w.err = w.enc.EncodeToken(xml.CharData(text))
	}
	w.end(n)
}

func attr(local, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: local}, Value: value}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (w *writer) definitions(doc *model.Document) {
	defs := doc.Definitions
	var attrs []xml.Attr
	for _, p := range prefixes {
		attrs = append(attrs, attr("xmlns:"+p.prefix, p.uri))
	}
	attrs = append(attrs, attr("id", defs.ID))
	if doc.TargetNamespace != "" {
		attrs = append(attrs, attr("targetNamespace", doc.TargetNamespace))
	}
	exporter := doc.Exporter
	if exporter == "" {
		exporter = DefaultExporter
	}
	attrs = append(attrs, attr("exporter", exporter))
	attrs = append(attrs, extraAttrs(defs)...)

	n := name("vdml", "definitions")
	w.start(n, attrs...)
	for _, root := range doc.RootElements() {
		w.node(root)
	}
	for _, dg := range doc.Diagrams {
		w.diagram(dg)
	}
	w.end(n)
}

func extraAttrs(n *model.Node) []xml.Attr {
	var out []xml.Attr
	for _, k := range slices.Sorted(maps.Keys(n.Attrs)) {
		out = append(out, attr(k, n.Attrs[k]))
	}
	return out
}

func refID(n *model.Node) string {
	if n == nil {
		return ""
	}
	return n.ID
}

func (w *writer) node(n *model.Node) {
	local := n.Kind.ElementName()
	if n.Slot() == model.ChildLaneSet {
		local = "childLaneSet"
	}
	el := name("vdml", local)
	w.start(el, nodeAttrs(n)...)

	for _, f := range n.Incoming {
		w.textElement(name("vdml", "incoming"), f.ID)
	}
	for _, f := range n.Outgoing {
		w.textElement(name("vdml", "outgoing"), f.ID)
	}
	for _, ref := range n.FlowNodeRefs {
		w.textElement(name("vdml", "flowNodeRef"), ref.ID)
	}
	switch {
	case n.Is(schema.KindDataInputAssociation):
		for _, src := range n.SourceRefs {
			w.textElement(name("vdml", "sourceRef"), src.ID)
		}
	case n.Is(schema.KindDataOutputAssociation) && n.TargetRef != nil:
		w.textElement(name("vdml", "targetRef"), n.TargetRef.ID)
	}
	if n.Is(schema.KindTextAnnotation) && n.Text != "" {
		w.textElement(name("vdml", "text"), n.Text)
	}
	if c := n.ConditionExpression; c != nil {
		var attrs []xml.Attr
		if c.Language != "" {
			attrs = append(attrs, attr("language", c.Language))
		}
		w.textElement(name("vdml", "conditionExpression"), c.Body, attrs...)
	}

	for _, child := range n.AllChildren() {
		w.node(child)
	}
	w.end(el)
}

// nodeAttrs lists the attributes of n. Flags are only written when they
// differ from their kind's default.
func nodeAttrs(n *model.Node) []xml.Attr {
	attrs := []xml.Attr{attr("id", n.ID)}
	if n.Name != "" {
		attrs = append(attrs, attr("name", n.Name))
	}
	if n.Is(schema.KindStartEvent) && !n.IsInterrupting {
		attrs = append(attrs, attr("isInterrupting", "false"))
	}
	if n.Is(schema.KindBoundaryEvent) {
		if !n.CancelActivity {
			attrs = append(attrs, attr("cancelActivity", "false"))
		}
		if n.AttachedToRef != nil {
			attrs = append(attrs, attr("attachedToRef", n.AttachedToRef.ID))
		}
	}
	if n.TriggeredByEvent {
		attrs = append(attrs, attr("triggeredByEvent", "true"))
	}
	if n.IsForCompensation {
		attrs = append(attrs, attr("isForCompensation", "true"))
	}
	if n.IsAny(schema.KindSequenceFlow, schema.KindMessageFlow, schema.KindAssociation) {
		if id := refID(n.SourceRef); id != "" {
			attrs = append(attrs, attr("sourceRef", id))
		}
		if id := refID(n.TargetRef); id != "" {
			attrs = append(attrs, attr("targetRef", id))
		}
	}
	if n.Is(schema.KindAssociation) && n.AssociationDirection != "" && n.AssociationDirection != "None" {
		attrs = append(attrs, attr("associationDirection", n.AssociationDirection))
	}
	if n.Default != nil {
		attrs = append(attrs, attr("default", n.Default.ID))
	}
	if n.ProcessRef != nil {
		attrs = append(attrs, attr("processRef", n.ProcessRef.ID))
	}
	if n.DataObjectRef != nil {
		attrs = append(attrs, attr("dataObjectRef", n.DataObjectRef.ID))
	}
	return append(attrs, extraAttrs(n)...)
}

func (w *writer) diagram(dg *model.Diagram) {
	attrs := []xml.Attr{attr("id", dg.ID)}
	if dg.Name != "" {
		attrs = append(attrs, attr("name", dg.Name))
	}
	el := name("vdmldi", "VDMLDiagram")
	w.start(el, attrs...)
	if p := dg.Plane; p != nil {
		pel := name("vdmldi", "VDMLPlane")
		w.start(pel, attr("id", p.ID), attr("vdmlElement", diRef(p)))
		for _, di := range p.Elements {
			w.di(di)
		}
		w.end(pel)
	}
	w.end(el)
}

// diRef returns the id of the node di presents, falling back to the raw
// reference for unbound DI.
func diRef(di *model.DI) string {
	if n := di.Semantic(); n != nil {
		return n.ID
	}
	return di.ElementRef
}

func (w *writer) di(di *model.DI) {
	attrs := []xml.Attr{attr("id", di.ID), attr("vdmlElement", diRef(di))}
	switch di.Kind {
	case model.DIShape:
		if di.IsExpanded != nil {
			attrs = append(attrs, attr("isExpanded", strconv.FormatBool(*di.IsExpanded)))
		}
		if di.IsHorizontal != nil {
			attrs = append(attrs, attr("isHorizontal", strconv.FormatBool(*di.IsHorizontal)))
		}
		el := name("vdmldi", "VDMLShape")
		w.start(el, attrs...)
		if di.Bounds != nil {
			w.bounds(*di.Bounds)
		}
		w.label(di)
		w.end(el)
	case model.DIEdge:
		el := name("vdmldi", "VDMLEdge")
		w.start(el, attrs...)
		for _, p := range di.Waypoints {
			wp := name("di", "waypoint")
			w.start(wp, attr("x", formatFloat(p.X)), attr("y", formatFloat(p.Y)))
			w.end(wp)
		}
		w.label(di)
		w.end(el)
	}
}

func (w *writer) bounds(b model.Bounds) {
	el := name("dc", "Bounds")
	w.start(el,
		attr("x", formatFloat(b.X)),
		attr("y", formatFloat(b.Y)),
		attr("width", formatFloat(b.Width)),
		attr("height", formatFloat(b.Height)))
	w.end(el)
}

func (w *writer) label(di *model.DI) {
	if di.Label == nil {
		return
	}
	el := name("vdmldi", "VDMLLabel")
	w.start(el)
	if di.Label.Bounds != nil {
		w.bounds(*di.Label.Bounds)
	}
	w.end(el)
}
