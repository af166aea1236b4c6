// Package editor holds a document session: one semantic document, the
// diagram drawn from it, and the command stack that edits both. Every entry
// point locks the session, so a Modeler may be shared between goroutines.
package editor

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mrajende/vdmlio/internal/command"
	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/expressions"
	"github.com/mrajende/vdmlio/internal/importer"
	"github.com/mrajende/vdmlio/internal/logging"
	"github.com/mrajende/vdmlio/internal/metrics"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/internal/modeling"
	"github.com/mrajende/vdmlio/internal/rules"
	"github.com/mrajende/vdmlio/internal/streaming"
	"github.com/mrajende/vdmlio/internal/updater"
	"github.com/mrajende/vdmlio/internal/xmlio"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// Options configures a Modeler. Zero values are usable.
type Options struct {
	// DocumentID tags change events and log records.
	DocumentID string
	// DiagramID selects the diagram to draw on import; empty picks the first.
	DiagramID string
	Rules     *rules.Config
	Hub       streaming.ChangeHub
	Metrics   *metrics.Metrics
	Logger    *slog.Logger
}

// ImportResult summarizes a successful import.
type ImportResult struct {
	DiagramID string          `json:"diagram_id" yaml:"diagram_id"`
	RootID    string          `json:"root_id" yaml:"root_id"`
	Drawn     int             `json:"drawn" yaml:"drawn"`
	Warnings  schema.Warnings `json:"warnings" yaml:"warnings"`
}

// Modeler owns one document session.
type Modeler struct {
	mu sync.Mutex

	id        string
	diagramID string
	logger    *slog.Logger
	metrics   *metrics.Metrics
	hub       streaming.ChangeHub

	doc      *model.Document
	canvas   *diagram.Canvas
	stack    *command.Stack
	rules    *rules.Rules
	modeling *modeling.Modeling
	updater  *updater.Updater
	importer *importer.Importer
	reader   *xmlio.Reader
	exprs    *expressions.Registry

	dirty      bool
	lastImport *ImportResult
}

// New creates a session holding a blank process diagram.
func New(opts Options) (*Modeler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", "editor")
	if opts.DocumentID != "" {
		logger = logger.With("document_id", opts.DocumentID)
	}

	exprs, err := expressions.NewRegistry()
	if err != nil {
		return nil, err
	}
	cfg := rules.DefaultConfig()
	if opts.Rules != nil {
		cfg = *opts.Rules
	}
	hub := opts.Hub
	if hub == nil {
		hub = streaming.NewMemoryHub()
	}

	m := &Modeler{
		id:        opts.DocumentID,
		diagramID: opts.DiagramID,
		logger:    logger,
		metrics:   opts.Metrics,
		hub:       hub,
		doc:       blankDocument(),
		canvas:    diagram.NewCanvas(),
		stack:     command.NewStack(logger),
		rules:     rules.New(cfg),
		importer:  importer.New(logger),
		reader:    xmlio.NewReader(logger),
		exprs:     exprs,
	}
	m.rules.Register(m.stack)
	m.modeling = modeling.New(m.stack, m.canvas, m.rules, modeling.NewFactory(m.doc), logger)
	if err := m.modeling.Register(); err != nil {
		return nil, err
	}
	m.updater = updater.New(m.canvas, m.doc, logger)
	m.updater.Register(m.stack)
	m.stack.OnChange(m.onChange)

	if _, err := m.importer.Import(m.doc, m.canvas, ""); err != nil {
		return nil, err
	}
	return m, nil
}

// blankDocument returns a document with one empty process and its diagram.
func blankDocument() *model.Document {
	doc := model.NewDocument()
	process := doc.MustNode(schema.KindProcess, "Process_1")
	model.Add(doc.Definitions, model.RootElements, process)
	doc.AddDiagram("Diagram_1", process)
	return doc
}

// ID returns the document ID given in Options.
func (m *Modeler) ID() string { return m.id }

// Hub returns the hub change events are published on.
func (m *Modeler) Hub() streaming.ChangeHub { return m.hub }

// Expressions returns the condition expression engines.
func (m *Modeler) Expressions() *expressions.Registry { return m.exprs }

// Dirty reports whether the document changed since the last import or save.
func (m *Modeler) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// LastImport returns the result of the last successful import, or nil.
func (m *Modeler) LastImport() *ImportResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastImport
}

// ImportXML reads a document from r and draws it, replacing the current
// one. A fatal error leaves the session as it was. On success the command
// history is cleared and the returned warnings merge the reader, importer
// and condition lint findings.
func (m *Modeler) ImportXML(ctx context.Context, r io.Reader) (*ImportResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	start := time.Now()
	res, err := m.importLocked(r)
	m.metrics.ObserveImport(time.Since(start).Seconds(), resultWarnings(res), err)
	if err != nil {
		m.logger.WarnContext(ctx, "import failed", "error", err)
		return nil, err
	}
	m.publish(ctx, streaming.ChangeEvent{Kind: streaming.KindImport, Warnings: len(res.Warnings)})
	return res, nil
}

func resultWarnings(res *ImportResult) schema.Warnings {
	if res == nil {
		return nil
	}
	return res.Warnings
}

func (m *Modeler) importLocked(r io.Reader) (*ImportResult, error) {
	doc, warnings, err := m.reader.Read(r)
	if err != nil {
		return nil, err
	}
	imported, err := m.importer.Import(doc, m.canvas, m.diagramID)
	if err != nil {
		return nil, err
	}
	warnings.Append(imported.Warnings...)
	warnings.Append(m.exprs.Lint(doc)...)

	m.doc = doc
	m.modeling.Factory().SetDocument(doc)
	m.updater.SetDocument(doc)
	m.stack.Clear()
	m.dirty = false

	res := &ImportResult{
		DiagramID: imported.Diagram.ID,
		RootID:    imported.Root.ID,
		Drawn:     imported.Drawn,
		Warnings:  warnings,
	}
	if res.Warnings == nil {
		res.Warnings = schema.Warnings{}
	}
	m.lastImport = res
	return res, nil
}

// ImportBytes is ImportXML over an in-memory document.
func (m *Modeler) ImportBytes(ctx context.Context, data []byte) (*ImportResult, error) {
	return m.ImportXML(ctx, bytes.NewReader(data))
}

// SaveXML writes the document to w and marks the session clean.
func (m *Modeler) SaveXML(ctx context.Context, w io.Writer, pretty bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := xmlio.Write(w, m.doc, xmlio.WriteOptions{Pretty: pretty}); err != nil {
		return err
	}
	m.dirty = false
	m.metrics.ObserveSave("xml")
	m.publish(ctx, streaming.ChangeEvent{Kind: streaming.KindSave})
	return nil
}

// SaveSVG writes a rendered snapshot of the diagram.
func (m *Modeler) SaveSVG(ctx context.Context, w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	svg, err := diagram.RenderSVG(ctx, m.canvas)
	if err != nil {
		return err
	}
	if _, err := w.Write(svg); err != nil {
		return err
	}
	m.metrics.ObserveSave("svg")
	return nil
}

// SaveMermaid writes the diagram as a Mermaid flowchart.
func (m *Modeler) SaveMermaid(w io.Writer) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := io.WriteString(w, diagram.RenderMermaid(m.canvas)); err != nil {
		return err
	}
	m.metrics.ObserveSave("mermaid")
	return nil
}

// EvaluateCondition evaluates the condition of the sequence flow flowID
// against data. A flow without condition evaluates to true.
func (m *Modeler) EvaluateCondition(ctx context.Context, flowID string, data map[string]any) (bool, error) {
	m.mu.Lock()
	flow, ok := m.doc.Lookup(flowID)
	m.mu.Unlock()
	if !ok {
		return false, schema.NewErrorf(schema.ErrCodeNotFound, "element %s not found", flowID).WithElement(flowID)
	}
	if !flow.Kind.Is(schema.KindSequenceFlow) {
		return false, schema.NewErrorf(schema.ErrCodeValidation, "%s is a %s and carries no condition",
			flowID, flow.Kind.LocalName()).WithElement(flowID)
	}
	return m.exprs.EvaluateCondition(logging.WithElementID(ctx, flowID), flow, data)
}

// onChange runs under m.mu: the stack only fires from calls made while the
// session is locked.
func (m *Modeler) onChange(ch command.Change) {
	if ch.Trigger == command.TriggerClear {
		return
	}
	m.dirty = true
	m.metrics.ObserveCommand(string(ch.Trigger), ch.Command)

	ids := make([]string, 0, len(ch.Elements))
	for _, e := range ch.Elements {
		ids = append(ids, e.ID)
	}
	m.publish(context.Background(), streaming.ChangeEvent{
		Kind:       string(ch.Trigger),
		Command:    ch.Command,
		ElementIDs: ids,
	})
}

func (m *Modeler) publish(ctx context.Context, evt streaming.ChangeEvent) {
	evt.DocumentID = m.id
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	if err := m.hub.Publish(ctx, evt); err != nil {
		m.logger.DebugContext(ctx, "change event not published", "kind", evt.Kind, "error", err)
	}
}
