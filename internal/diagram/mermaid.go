package diagram

import (
	"fmt"
	"strings"

	"github.com/mrajende/vdmlio/pkg/schema"
)

// RenderMermaid renders the canvas as a Mermaid flowchart. Containers with
// children (participants, lanes, expanded sub processes) become subgraphs.
func RenderMermaid(c *Canvas) string {
	var b strings.Builder

	b.WriteString("flowchart LR\n")
	root := c.Root()
	if root == nil {
		return b.String()
	}
	b.WriteString(fmt.Sprintf("    %%%% %s\n", root.ID))

	var connections []*Element
	var walk func(parent *Element, depth int)
	walk = func(parent *Element, depth int) {
		indent := strings.Repeat("    ", depth)
		for _, e := range parent.Children {
			switch {
			case e.IsLabel():
				continue
			case e.IsConnection():
				connections = append(connections, e)
			case hasShapeChildren(e):
				b.WriteString(fmt.Sprintf("%ssubgraph %s[%q]\n", indent, mermaidSafeID(e.ID), displayName(e)))
				walk(e, depth+1)
				b.WriteString(indent + "end\n")
			default:
				b.WriteString(fmt.Sprintf("%s%s\n", indent, mermaidNodeDef(e)))
			}
		}
	}
	walk(root, 1)

	for _, conn := range connections {
		if conn.Source == nil || conn.Target == nil {
			continue
		}
		arrow := mermaidArrow(conn)
		if name := conn.BusinessObject.Name; name != "" {
			arrow += fmt.Sprintf("|%s|", mermaidEscapeLabel(name))
		}
		b.WriteString(fmt.Sprintf("    %s %s %s\n",
			mermaidSafeID(conn.Source.ID), arrow, mermaidSafeID(conn.Target.ID)))
	}

	b.WriteString("\n")
	b.WriteString("    classDef event fill:#f4f4f4,stroke:#333\n")
	b.WriteString("    classDef gateway fill:#fff7e0,stroke:#b7791a\n")
	b.WriteString("    classDef data fill:#e8f0fe,stroke:#1a5276\n")
	for _, e := range c.Registry().All() {
		if cls := mermaidKindClass(e); cls != "" {
			b.WriteString(fmt.Sprintf("    class %s %s\n", mermaidSafeID(e.ID), cls))
		}
	}

	return b.String()
}

func hasShapeChildren(e *Element) bool {
	for _, c := range e.Children {
		if c.Type == TypeShape {
			return true
		}
	}
	return false
}

func displayName(e *Element) string {
	if e.BusinessObject != nil && e.BusinessObject.Name != "" {
		return e.BusinessObject.Name
	}
	return e.ID
}

// mermaidNodeDef returns a Mermaid node definition with a shape per kind.
func mermaidNodeDef(e *Element) string {
	id := mermaidSafeID(e.ID)
	label := mermaidEscapeLabel(displayName(e))

	switch {
	case e.Is(schema.KindEvent):
		return fmt.Sprintf("%s((%q))", id, label)
	case e.Is(schema.KindGateway):
		return fmt.Sprintf("%s{%q}", id, label)
	case e.Is(schema.KindSubProcess), e.Is(schema.KindCallActivity):
		return fmt.Sprintf("%s[[%q]]", id, label)
	case e.Is(schema.KindDataStoreReference):
		return fmt.Sprintf("%s[(%q)]", id, label)
	case e.Is(schema.KindDataObjectReference):
		return fmt.Sprintf("%s[/%q/]", id, label)
	case e.Is(schema.KindTextAnnotation):
		return fmt.Sprintf("%s>%q]", id, mermaidEscapeLabel(e.BusinessObject.Text))
	default:
		return fmt.Sprintf("%s(%q)", id, label)
	}
}

func mermaidArrow(conn *Element) string {
	switch {
	case conn.Is(schema.KindMessageFlow), conn.Is(schema.KindDataAssociation):
		return "-.->"
	case conn.Is(schema.KindAssociation):
		return "-.-"
	default:
		return "-->"
	}
}

// mermaidSafeID converts an element ID to a Mermaid-safe identifier.
func mermaidSafeID(id string) string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_", ":", "_")
	return r.Replace(id)
}

// mermaidEscapeLabel escapes characters Mermaid treats as syntax.
func mermaidEscapeLabel(s string) string {
	return strings.NewReplacer("\"", "'", "|", "/", "\n", " ").Replace(s)
}

func mermaidKindClass(e *Element) string {
	switch {
	case e.Type != TypeShape:
		return ""
	case e.Is(schema.KindEvent):
		return "event"
	case e.Is(schema.KindGateway):
		return "gateway"
	case e.IsAny(schema.KindDataObjectReference, schema.KindDataStoreReference):
		return "data"
	default:
		return ""
	}
}
