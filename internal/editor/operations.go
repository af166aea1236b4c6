package editor

import (
	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/internal/modeling"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// ShapeSpec describes a shape to create.
type ShapeSpec struct {
	Kind schema.Kind
	ID   string
	Name string
	// X and Y give the center of the new shape.
	X, Y            float64
	Expanded        bool
	EventDefinition schema.Kind
}

func (s ShapeSpec) options() modeling.ShapeOptions {
	return modeling.ShapeOptions{ID: s.ID, Name: s.Name, Expanded: s.Expanded, EventDefinition: s.EventDefinition}
}

func (s ShapeSpec) validate() error {
	if !s.Kind.Known() || s.Kind.Abstract() {
		return schema.NewErrorf(schema.ErrCodeValidation, "cannot create a shape of kind %q", s.Kind)
	}
	return nil
}

// element returns the diagram element id. Callers hold m.mu.
func (m *Modeler) element(id string) (*diagram.Element, error) {
	e := m.canvas.Registry().Get(id)
	if e == nil {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "element %s is not on the diagram", id).WithElement(id)
	}
	return e, nil
}

func (m *Modeler) elements(ids []string) ([]*diagram.Element, error) {
	out := make([]*diagram.Element, 0, len(ids))
	for _, id := range ids {
		e, err := m.element(id)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// do runs fn under the session lock and counts rule rejections.
func (m *Modeler) do(name string, fn func() error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	err := fn()
	if schema.IsCode(err, schema.ErrCodeRuleRejected) {
		m.metrics.ObserveRejection(name)
		m.logger.Debug("command rejected", "command", name, "error", err)
	}
	return err
}

// CreateShape creates a shape inside parentID, or the root when parentID is
// empty, and returns its ID.
func (m *Modeler) CreateShape(spec ShapeSpec, parentID string) (string, error) {
	if err := spec.validate(); err != nil {
		return "", err
	}
	var id string
	err := m.do("shape.create", func() error {
		var parent *diagram.Element
		if parentID != "" {
			p, err := m.element(parentID)
			if err != nil {
				return err
			}
			parent = p
		}
		shape, err := m.modeling.Factory().CreateShape(spec.Kind, spec.options())
		if err != nil {
			return err
		}
		if _, err := m.modeling.CreateShape(shape, model.Point{X: spec.X, Y: spec.Y}, parent); err != nil {
			m.discard(shape)
			return err
		}
		id = shape.ID
		return nil
	})
	return id, err
}

// AppendShape creates a shape and connects it from sourceID in one
// operation. It returns the new shape's ID.
func (m *Modeler) AppendShape(sourceID string, spec ShapeSpec) (string, error) {
	if err := spec.validate(); err != nil {
		return "", err
	}
	var id string
	err := m.do("shape.append", func() error {
		source, err := m.element(sourceID)
		if err != nil {
			return err
		}
		shape, err := m.modeling.Factory().CreateShape(spec.Kind, spec.options())
		if err != nil {
			return err
		}
		if _, err := m.modeling.AppendShape(source, shape, model.Point{X: spec.X, Y: spec.Y}); err != nil {
			m.discard(shape)
			return err
		}
		id = shape.ID
		return nil
	})
	return id, err
}

// Connect joins sourceID to targetID with the connection kind the rules
// allow and returns the connection's ID.
func (m *Modeler) Connect(sourceID, targetID, name string) (string, error) {
	var id string
	err := m.do("connection.create", func() error {
		source, err := m.element(sourceID)
		if err != nil {
			return err
		}
		target, err := m.element(targetID)
		if err != nil {
			return err
		}
		conn, err := m.modeling.Connect(source, target, modeling.ConnectionOptions{Name: name})
		if err != nil {
			if conn != nil {
				m.discard(conn)
			}
			return err
		}
		id = conn.ID
		return nil
	})
	return id, err
}

// Move moves the shapes ids by (dx, dy), into targetID when given.
func (m *Modeler) Move(ids []string, dx, dy float64, targetID string) error {
	return m.do("elements.move", func() error {
		shapes, err := m.elements(ids)
		if err != nil {
			return err
		}
		var target *diagram.Element
		if targetID != "" {
			if target, err = m.element(targetID); err != nil {
				return err
			}
		}
		return m.modeling.MoveElements(shapes, model.Point{X: dx, Y: dy}, target)
	})
}

// Remove deletes the elements ids as one operation.
func (m *Modeler) Remove(ids []string) error {
	return m.do("elements.delete", func() error {
		els, err := m.elements(ids)
		if err != nil {
			return err
		}
		return m.modeling.RemoveElements(els)
	})
}

// Rename sets the name of id.
func (m *Modeler) Rename(id, name string) error {
	return m.do("element.updateProperties", func() error {
		e, err := m.element(id)
		if err != nil {
			return err
		}
		return m.modeling.UpdateProperties(e, modeling.Properties{Name: &name})
	})
}

// SetCondition sets the condition of flowID. An empty body clears it.
func (m *Modeler) SetCondition(flowID, language, body string) error {
	if body != "" {
		engine, err := m.exprs.Engine(language)
		if err != nil {
			return err
		}
		if err := engine.Compile(body); err != nil {
			return err
		}
	}
	return m.do("element.updateProperties", func() error {
		e, err := m.element(flowID)
		if err != nil {
			return err
		}
		var expr *model.Expression
		if body != "" {
			expr = &model.Expression{Body: body, Language: language}
		}
		return m.modeling.UpdateProperties(e, modeling.Properties{Condition: &expr})
	})
}

// SetDefault makes flowID the default flow of sourceID. An empty flowID
// clears the default.
func (m *Modeler) SetDefault(sourceID, flowID string) error {
	return m.do("element.updateProperties", func() error {
		source, err := m.element(sourceID)
		if err != nil {
			return err
		}
		var flow *diagram.Element
		if flowID != "" {
			if flow, err = m.element(flowID); err != nil {
				return err
			}
		}
		return m.modeling.UpdateProperties(source, modeling.Properties{Default: &flow})
	})
}

// Undo reverts the last operation. It reports false when there was nothing
// to undo.
func (m *Modeler) Undo() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stack.Undo()
}

// Redo re-applies the last undone operation.
func (m *Modeler) Redo() (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stack.Redo()
}

// discard unregisters the semantic node of an element that never made it
// onto the diagram, so its ID can be reused.
func (m *Modeler) discard(e *diagram.Element) {
	if e.BusinessObject != nil && e.BusinessObject.Parent() == nil {
		m.doc.Unregister(e.BusinessObject)
	}
}
