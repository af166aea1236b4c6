package diagram

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	"github.com/mrajende/vdmlio/pkg/schema"
)

// RenderSVG renders a read-only SVG snapshot of the canvas using graphviz.
// Layout is computed by dot; DI geometry is not used.
func RenderSVG(ctx context.Context, c *Canvas) ([]byte, error) {
	root := c.Root()
	if root == nil {
		return nil, schema.NewError(schema.ErrCodeNoDiagram, "diagram: nothing to render")
	}

	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("diagram: create graphviz: %w", err)
	}
	defer gv.Close()

	gv.SetLayout(graphviz.DOT)

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("diagram: create graph: %w", err)
	}
	defer graph.Close()

	graph.SetRankDir(cgraph.LRRank)
	graph.SetLabel(displayName(root))

	gvNodes := make(map[string]*cgraph.Node)
	var connections []*Element

	var walk func(g *cgraph.Graph, parent *Element) error
	walk = func(g *cgraph.Graph, parent *Element) error {
		for _, e := range parent.Children {
			switch {
			case e.IsLabel():
				continue
			case e.IsConnection():
				connections = append(connections, e)
			case hasShapeChildren(e):
				sub, subErr := g.CreateSubGraphByName("cluster_" + e.ID)
				if subErr != nil {
					return fmt.Errorf("diagram: create cluster %s: %w", e.ID, subErr)
				}
				sub.SetLabel(displayName(e))
				sub.SetStyle(cgraph.DashedGraphStyle)
				if err := walk(sub, e); err != nil {
					return err
				}
			default:
				n, nErr := g.CreateNodeByName(e.ID)
				if nErr != nil {
					return fmt.Errorf("diagram: create node %s: %w", e.ID, nErr)
				}
				n.SetLabel(displayName(e))
				applyNodeStyle(n, e)
				gvNodes[e.ID] = n
			}
		}
		return nil
	}
	if err := walk(graph, root); err != nil {
		return nil, err
	}

	for _, conn := range connections {
		if conn.Source == nil || conn.Target == nil {
			continue
		}
		from, to := gvNodes[conn.Source.ID], gvNodes[conn.Target.ID]
		if from == nil || to == nil {
			continue
		}
		edge, eErr := graph.CreateEdgeByName(conn.ID, from, to)
		if eErr != nil {
			continue
		}
		if name := conn.BusinessObject.Name; name != "" {
			edge.SetLabel(name)
		}
		if conn.IsAny(schema.KindMessageFlow, schema.KindAssociation, schema.KindDataAssociation) {
			edge.SetStyle(cgraph.DashedEdgeStyle)
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("diagram: render SVG: %w", err)
	}
	return buf.Bytes(), nil
}

// applyNodeStyle sets graphviz attributes based on the element kind.
func applyNodeStyle(n *cgraph.Node, e *Element) {
	switch {
	case e.Is(schema.KindEvent):
		n.SetShape(cgraph.CircleShape)
		n.SetWidth(0.5)
		n.SetHeight(0.5)
		if e.Is(schema.KindEndEvent) {
			n.SetShape(cgraph.DoubleCircleShape)
		}
	case e.Is(schema.KindGateway):
		n.SetShape(cgraph.DiamondShape)
	case e.Is(schema.KindDataStoreReference):
		n.SetShape(cgraph.CylinderShape)
	case e.Is(schema.KindDataObjectReference):
		n.SetShape(cgraph.NoteShape)
	case e.Is(schema.KindTextAnnotation):
		n.SetShape(cgraph.PlainTextShape)
		n.SetLabel(e.BusinessObject.Text)
	default:
		n.SetShape(cgraph.BoxShape)
		n.SetStyle(cgraph.RoundedNodeStyle)
	}
	if e.Collapsed {
		n.SetStyle(cgraph.FilledNodeStyle)
		n.SetFillColor("#e8e8e8")
		n.SetFontColor("black")
	}
}
