// Package xmlio maps VDML XML documents to and from the semantic model.
//
// Reading decodes into a generic element tree first, then maps that tree to
// model nodes and DI in two passes: ownership, then id references. Problems
// that leave a usable document behind are reported as warnings.
package xmlio

import (
	"encoding/xml"
	"strings"
)

// Namespaces written on export and recognized on import.
const (
	NamespaceModel = "http://www.omg.org/spec/VDML/20100524/MODEL"
	NamespaceDI    = "http://www.omg.org/spec/VDML/20100524/DI"
	NamespaceDC    = "http://www.omg.org/spec/DD/20100524/DC"
	NamespaceDD    = "http://www.omg.org/spec/DD/20100524/DI"
	NamespaceXSI   = "http://www.w3.org/2001/XMLSchema-instance"
)

var prefixes = []struct{ prefix, uri string }{
	{"vdml", NamespaceModel},
	{"vdmldi", NamespaceDI},
	{"dc", NamespaceDC},
	{"di", NamespaceDD},
	{"xsi", NamespaceXSI},
}

// element is one node of the generic tree. Names keep the namespace URI
// resolved by the decoder.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
	Text     string     `xml:",chardata"`
}

func (e *element) attr(local string) (string, bool) {
	for _, a := range e.Attrs {
		if a.Name.Local == local && (a.Name.Space == "" || a.Name.Space == e.XMLName.Space) {
			return a.Value, true
		}
	}
	return "", false
}

func (e *element) attrOr(local, def string) string {
	if v, ok := e.attr(local); ok {
		return v
	}
	return def
}

func (e *element) is(space, local string) bool {
	return e.XMLName.Space == space && e.XMLName.Local == local
}

func (e *element) text() string {
	return strings.TrimSpace(e.Text)
}

// child returns the first child named local in space.
func (e *element) child(space, local string) *element {
	for i := range e.Children {
		if e.Children[i].is(space, local) {
			return &e.Children[i]
		}
	}
	return nil
}
