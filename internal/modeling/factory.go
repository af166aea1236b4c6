package modeling

import (
	"github.com/mrajende/vdmlio/internal/diagram"
	"github.com/mrajende/vdmlio/internal/model"
	"github.com/mrajende/vdmlio/pkg/schema"
)

// ShapeOptions customizes a shape created by the factory.
type ShapeOptions struct {
	ID   string
	Name string
	// Expanded applies to sub processes and participants. Participants
	// created expanded get a fresh process.
	Expanded bool
	// EventDefinition adds an event definition of that kind to an event.
	EventDefinition schema.Kind
	// Bounds overrides the default size and position.
	Bounds *model.Bounds
}

// ConnectionOptions customizes a connection created by the factory.
type ConnectionOptions struct {
	ID                   string
	Name                 string
	AssociationDirection string
}

// Factory creates diagram elements together with their semantic node and
// DI. It is rebound to a document after every import.
type Factory struct {
	doc *model.Document
}

// NewFactory creates a factory over doc.
func NewFactory(doc *model.Document) *Factory {
	return &Factory{doc: doc}
}

// Document returns the document new nodes are registered in.
func (f *Factory) Document() *model.Document {
	return f.doc
}

// SetDocument rebinds the factory.
func (f *Factory) SetDocument(doc *model.Document) {
	f.doc = doc
}

func (f *Factory) node(kind schema.Kind, id string) (*model.Node, error) {
	if f.doc == nil {
		return nil, schema.NewError(schema.ErrCodeNoDiagram, "no document loaded")
	}
	if !kind.Known() || kind.Abstract() {
		return nil, schema.NewErrorf(schema.ErrCodeValidation, "cannot create element of kind %s", kind)
	}
	n, err := f.doc.NewNode(kind, id)
	if err != nil {
		return nil, err
	}
	f.doc.EnsureID(n, "")
	return n, nil
}

func (f *Factory) bindDI(n *model.Node, kind model.DIKind) (*model.DI, error) {
	di := f.doc.NewDI(kind, n.ID+"_di")
	di.ElementRef = n.ID
	if err := model.BindDI(n, di); err != nil {
		return nil, err
	}
	return di, nil
}

// CreateShape creates a shape element of kind.
func (f *Factory) CreateShape(kind schema.Kind, opts ShapeOptions) (*diagram.Element, error) {
	n, err := f.node(kind, opts.ID)
	if err != nil {
		return nil, err
	}
	n.Name = opts.Name
	di, err := f.bindDI(n, model.DIShape)
	if err != nil {
		return nil, err
	}

	switch {
	case kind.Is(schema.KindSubProcess):
		di.SetExpanded(opts.Expanded)
	case kind.Is(schema.KindParticipant):
		horizontal := true
		di.IsHorizontal = &horizontal
		if opts.Expanded {
			p, err := f.node(schema.KindProcess, "")
			if err != nil {
				return nil, err
			}
			n.ProcessRef = p
		}
	case kind.Is(schema.KindLane):
		horizontal := true
		di.IsHorizontal = &horizontal
	case kind.Is(schema.KindDataObjectReference):
		obj, err := f.node(schema.KindDataObject, "")
		if err != nil {
			return nil, err
		}
		n.DataObjectRef = obj
	}
	if opts.EventDefinition != "" {
		if !kind.Is(schema.KindEvent) || !opts.EventDefinition.Is(schema.KindEventDefinition) {
			return nil, schema.NewErrorf(schema.ErrCodeValidation,
				"%s cannot carry %s", kind, opts.EventDefinition).WithElement(n.ID)
		}
		def, err := f.node(opts.EventDefinition, "")
		if err != nil {
			return nil, err
		}
		model.Add(n, model.EventDefinitions, def)
	}

	e := &diagram.Element{
		ID:             n.ID,
		Type:           diagram.TypeShape,
		BusinessObject: n,
		Collapsed:      !model.IsExpanded(n),
	}
	if opts.Bounds != nil {
		e.SetBounds(*opts.Bounds)
	} else {
		w, h := DefaultSize(n)
		e.Width, e.Height = w, h
	}
	return e, nil
}

// CreateConnection creates a connection element of kind.
func (f *Factory) CreateConnection(kind schema.Kind, opts ConnectionOptions) (*diagram.Element, error) {
	n, err := f.node(kind, opts.ID)
	if err != nil {
		return nil, err
	}
	n.Name = opts.Name
	if opts.AssociationDirection != "" {
		n.AssociationDirection = opts.AssociationDirection
	}
	if _, err := f.bindDI(n, model.DIEdge); err != nil {
		return nil, err
	}
	return &diagram.Element{ID: n.ID, Type: diagram.TypeConnection, BusinessObject: n}, nil
}

// CreateRoot creates a root element over a fresh process or collaboration.
// The node is not added to the definitions; the updater does that when the
// root is installed.
func (f *Factory) CreateRoot(kind schema.Kind) (*diagram.Element, error) {
	if !kind.IsAny(schema.KindProcess, schema.KindEcoMap, schema.KindCollaboration) {
		return nil, schema.NewErrorf(schema.ErrCodeUnsupportedRoot, "%s cannot be a diagram root", kind)
	}
	n, err := f.node(kind, "")
	if err != nil {
		return nil, err
	}
	return &diagram.Element{ID: n.ID, Type: diagram.TypeRoot, BusinessObject: n}, nil
}

// DefaultSize returns the size of a freshly created shape for n.
func DefaultSize(n *model.Node) (width, height float64) {
	switch {
	case n.Is(schema.KindSubProcess):
		if model.IsExpanded(n) {
			return 350, 200
		}
		return 100, 80
	case n.Is(schema.KindActivity):
		return 100, 80
	case n.Is(schema.KindGateway):
		return 50, 50
	case n.Is(schema.KindEvent):
		return 36, 36
	case n.Is(schema.KindParticipant):
		if model.IsExpanded(n) {
			return 600, 250
		}
		return 400, 60
	case n.Is(schema.KindLane):
		return 400, 100
	case n.Is(schema.KindDataObjectReference):
		return 36, 50
	case n.Is(schema.KindDataStoreReference):
		return 50, 50
	case n.Is(schema.KindTextAnnotation):
		return 100, 30
	case n.Is(schema.KindGroup):
		return 300, 300
	}
	return 100, 80
}
