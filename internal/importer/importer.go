// Package importer draws a semantic document into a diagram graph. It walks
// the tree of the selected diagram's root, drawing every element that has
// DI, and defers what depends on elements drawn later: boundary events wait
// for their hosts, connections for their endpoints.
package importer

import (
	"log/slog"

	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// Result is the outcome of a successful import.
type Result struct {
	Diagram  *model.Diagram
	Root     *diagram.Element
	Warnings schema.Warnings
	// Drawn counts the elements added to the graph, labels excluded.
	Drawn int
}

// Importer imports documents into a canvas.
type Importer struct {
	logger *slog.Logger
}

// New creates an importer.
func New(logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{logger: logger.With("component", "importer")}
}

// Import draws the diagram with id diagramID, or the first diagram when
// diagramID is empty, into canvas. The walk happens on a staging canvas; a
// fatal error leaves canvas untouched, while per-element problems are
// returned as warnings next to a partially drawn graph.
func (im *Importer) Import(doc *model.Document, canvas *diagram.Canvas, diagramID string) (*Result, error) {
	dg, err := selectDiagram(doc, diagramID)
	if err != nil {
		return nil, err
	}
	if dg.Plane == nil {
		return nil, schema.NewErrorf(schema.ErrCodeNoPlane, "diagram %s has no plane", dg.ID)
	}

	w := newWalker(doc, diagram.NewCanvas(), im.logger)
	w.registerDI(dg.Plane)
	root, err := w.resolveRoot(dg.Plane)
	if err != nil {
		return nil, err
	}
	rootEl, err := w.walk(root)
	if err != nil {
		im.logger.Warn("import aborted", "diagram", dg.ID, "error", err)
		return nil, err
	}

	canvas.ReplaceWith(w.canvas)
	im.logger.Info("document imported", "diagram", dg.ID, "root", root.ID,
		"elements", w.drawnCount, "warnings", len(w.warnings))
	return &Result{Diagram: dg, Root: rootEl, Warnings: w.warnings, Drawn: w.drawnCount}, nil
}

func selectDiagram(doc *model.Document, id string) (*model.Diagram, error) {
	if len(doc.Diagrams) == 0 {
		return nil, schema.NewError(schema.ErrCodeNoDiagram, "no diagram to display")
	}
	if id == "" {
		return doc.Diagrams[0], nil
	}
	for _, dg := range doc.Diagrams {
		if dg.ID == id {
			return dg, nil
		}
	}
	return nil, schema.NewErrorf(schema.ErrCodeDiagramNotInDefs, "diagram %s is not part of the definitions", id).
		WithDetails(map[string]any{"diagram": id})
}
