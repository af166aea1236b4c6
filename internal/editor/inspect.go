package editor

import (
	"sort"

	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/internal/validation"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// Summary describes the session for display.
type Summary struct {
	DocumentID      string         `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	DefinitionsID   string         `json:"definitions_id" yaml:"definitions_id"`
	TargetNamespace string         `json:"target_namespace,omitempty" yaml:"target_namespace,omitempty"`
	Diagrams        []string       `json:"diagrams" yaml:"diagrams"`
	Root            string         `json:"root" yaml:"root"`
	Kinds           map[string]int `json:"kinds" yaml:"kinds"`
	Shapes          int            `json:"shapes" yaml:"shapes"`
	Connections     int            `json:"connections" yaml:"connections"`
	Labels          int            `json:"labels" yaml:"labels"`
	Undo            int            `json:"undo" yaml:"undo"`
	Dirty           bool           `json:"dirty" yaml:"dirty"`
	Import          *ImportResult  `json:"import,omitempty" yaml:"import,omitempty"`
}

// ElementInfo describes one diagram element.
type ElementInfo struct {
	ID        string    `json:"id" yaml:"id"`
	Type      string    `json:"type" yaml:"type"`
	Kind      string    `json:"kind,omitempty" yaml:"kind,omitempty"`
	Name      string    `json:"name,omitempty" yaml:"name,omitempty"`
	Parent    string    `json:"parent,omitempty" yaml:"parent,omitempty"`
	Source    string    `json:"source,omitempty" yaml:"source,omitempty"`
	Target    string    `json:"target,omitempty" yaml:"target,omitempty"`
	Host      string    `json:"host,omitempty" yaml:"host,omitempty"`
	Lanes     []string  `json:"lanes,omitempty" yaml:"lanes,omitempty"`
	Bounds    []float64 `json:"bounds,omitempty" yaml:"bounds,omitempty,flow"`
	Hidden    bool      `json:"hidden,omitempty" yaml:"hidden,omitempty"`
	Condition string    `json:"condition,omitempty" yaml:"condition,omitempty"`
	Default   string    `json:"default,omitempty" yaml:"default,omitempty"`
}

// Inspect summarizes the session.
func (m *Modeler) Inspect() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Summary{
		DocumentID:      m.id,
		DefinitionsID:   m.doc.Definitions.ID,
		TargetNamespace: m.doc.TargetNamespace,
		Kinds:           map[string]int{},
		Undo:            m.stack.Len(),
		Dirty:           m.dirty,
		Import:          m.lastImport,
	}
	for _, dg := range m.doc.Diagrams {
		s.Diagrams = append(s.Diagrams, dg.ID)
	}
	if root := m.canvas.Root(); root != nil {
		s.Root = root.ID
	}
	for _, e := range m.canvas.Registry().All() {
		switch e.Type {
		case diagram.TypeShape:
			s.Shapes++
		case diagram.TypeConnection:
			s.Connections++
		case diagram.TypeLabel:
			s.Labels++
			continue
		}
		if e.BusinessObject != nil {
			s.Kinds[e.BusinessObject.Kind.LocalName()]++
		}
	}
	return s
}

// Elements describes every element on the diagram except labels, sorted
// by ID.
func (m *Modeler) Elements() []ElementInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []ElementInfo
	for _, e := range m.canvas.Registry().All() {
		if e.IsLabel() {
			continue
		}
		out = append(out, describe(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Element describes the diagram element id.
func (m *Modeler) Element(id string) (ElementInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, err := m.element(id)
	if err != nil {
		return ElementInfo{}, err
	}
	return describe(e), nil
}

func describe(e *diagram.Element) ElementInfo {
	info := ElementInfo{ID: e.ID, Type: string(e.Type), Hidden: e.Hidden}
	if e.Parent != nil {
		info.Parent = e.Parent.ID
	}
	if e.Source != nil {
		info.Source = e.Source.ID
	}
	if e.Target != nil {
		info.Target = e.Target.ID
	}
	if e.Host != nil {
		info.Host = e.Host.ID
	}
	if e.Type == diagram.TypeShape {
		info.Bounds = []float64{e.X, e.Y, e.Width, e.Height}
	}
	n := e.BusinessObject
	if n == nil {
		return info
	}
	info.Kind = n.Kind.LocalName()
	info.Name = n.Name
	for _, l := range n.Lanes {
		info.Lanes = append(info.Lanes, l.ID)
	}
	if n.ConditionExpression != nil {
		info.Condition = n.ConditionExpression.Body
	}
	if n.Default != nil {
		info.Default = n.Default.ID
	}
	return info
}

// Document returns the semantic document. Callers must not modify it
// while other goroutines use the session.
func (m *Modeler) Document() *model.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.doc
}

// Review reports structural modeling problems in the current document.
func (m *Modeler) Review() schema.Warnings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return validation.ValidateDocument(m.doc)
}
