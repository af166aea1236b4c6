package diagram

import (
	"fmt"
	"slices"
	"sync"

	"github.com/mrajende/vdmlio/pkg/schema"
)

// Registry maps element ids to live diagram elements.
type Registry struct {
	mu       sync.RWMutex
	elements map[string]*Element
	order    []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{elements: make(map[string]*Element)}
}

// Add registers e. A taken id is a conflict.
func (r *Registry) Add(e *Element) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.elements[e.ID]; ok {
		return schema.NewErrorf(schema.ErrCodeConflict, "element %s already registered", e.ID).WithElement(e.ID)
	}
	r.elements[e.ID] = e
	r.order = append(r.order, e.ID)
	return nil
}

// Remove unregisters the element with id.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.elements[id]; !ok {
		return
	}
	delete(r.elements, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// Get returns the element with id, or nil.
func (r *Registry) Get(id string) *Element {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.elements[id]
}

// All returns the registered elements in registration order.
func (r *Registry) All() []*Element {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Element, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.elements[id])
	}
	return out
}

// Filter returns the registered elements matching fn.
func (r *Registry) Filter(fn func(*Element) bool) []*Element {
	var out []*Element
	for _, e := range r.All() {
		if fn(e) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of registered elements.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.elements)
}

// Canvas holds the root element and manages the containment of shapes and
// connections in the diagram graph.
type Canvas struct {
	registry *Registry
	root     *Element
}

// NewCanvas creates an empty canvas.
func NewCanvas() *Canvas {
	return &Canvas{registry: NewRegistry()}
}

// Registry returns the canvas' element registry.
func (c *Canvas) Registry() *Registry {
	return c.registry
}

// Root returns the current root element, or nil.
func (c *Canvas) Root() *Element {
	return c.root
}

// SetRoot replaces the root element and returns the previous one.
func (c *Canvas) SetRoot(root *Element) (*Element, error) {
	old := c.root
	if old == root {
		return old, nil
	}
	if root != nil {
		root.Type = TypeRoot
		if c.registry.Get(root.ID) == nil {
			if err := c.registry.Add(root); err != nil {
				return old, err
			}
		}
	}
	if old != nil {
		c.registry.Remove(old.ID)
	}
	c.root = root
	return old, nil
}

// AddShape registers a shape or label and places it under parent at index.
// A nil parent means the root.
func (c *Canvas) AddShape(e, parent *Element, index int) error {
	return c.add(e, parent, index)
}

// AddConnection registers a connection and places it under parent at index.
func (c *Canvas) AddConnection(e, parent *Element, index int) error {
	e.Type = TypeConnection
	if err := c.add(e, parent, index); err != nil {
		return err
	}
	Connect(e, e.Source, e.Target)
	return nil
}

func (c *Canvas) add(e, parent *Element, index int) error {
	if parent == nil {
		parent = c.root
	}
	if parent == nil {
		return schema.NewErrorf(schema.ErrCodeValidation, "no root to add %s to", e.ID).WithElement(e.ID)
	}
	if err := c.registry.Add(e); err != nil {
		return err
	}
	SetParent(e, parent, index)
	return nil
}

// RemoveShape unregisters a shape and detaches it from its parent and host.
func (c *Canvas) RemoveShape(e *Element) int {
	RemoveAttacher(e)
	if e.LabelTarget != nil {
		e.LabelTarget.Labels, _ = removeElement(e.LabelTarget.Labels, e)
	}
	c.registry.Remove(e.ID)
	return SetParent(e, nil, -1)
}

// RemoveConnection unregisters a connection and clears its endpoints.
func (c *Canvas) RemoveConnection(e *Element) int {
	Connect(e, nil, nil)
	c.registry.Remove(e.ID)
	return SetParent(e, nil, -1)
}

// Restore re-registers an element removed earlier with RemoveShape or
// RemoveConnection and puts it back at index under parent. Connections must
// have their Source and Target set again by the caller.
func (c *Canvas) Restore(e, parent *Element, index int) error {
	if err := c.add(e, parent, index); err != nil {
		return err
	}
	if e.Type == TypeConnection {
		source, target := e.Source, e.Target
		e.Source, e.Target = nil, nil
		Connect(e, source, target)
	}
	if e.LabelTarget != nil {
		e.LabelTarget.Labels = addElement(e.LabelTarget.Labels, e, -1)
	}
	return nil
}

// ReplaceWith swaps in the content of other, leaving other empty. The
// importer draws into a staging canvas and only replaces the live one on
// success.
func (c *Canvas) ReplaceWith(other *Canvas) {
	c.registry.mu.Lock()
	other.registry.mu.Lock()
	c.registry.elements, other.registry.elements = other.registry.elements, make(map[string]*Element)
	c.registry.order, other.registry.order = other.registry.order, nil
	other.registry.mu.Unlock()
	c.registry.mu.Unlock()
	c.root, other.root = other.root, nil
}

// Clear removes every element.
func (c *Canvas) Clear() {
	c.ReplaceWith(NewCanvas())
}

// SetParent moves e under parent at index and returns its former index.
func SetParent(e, parent *Element, index int) int {
	old := -1
	if e.Parent != nil {
		e.Parent.Children, old = removeElement(e.Parent.Children, e)
	}
	e.Parent = parent
	if parent != nil {
		parent.Children = addElement(parent.Children, e, index)
	}
	return old
}

func (c *Canvas) String() string {
	rootID := ""
	if c.root != nil {
		rootID = c.root.ID
	}
	return fmt.Sprintf("canvas(root=%s, elements=%d)", rootID, c.registry.Len())
}
