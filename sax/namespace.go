package sax

import "strings"

// Reserved namespace URIs. The xml and xmlns prefixes are bound to these in
// every scope and may not be rebound to anything else.
const (
	XMLNamespace   = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace = "http://www.w3.org/2000/xmlns/"
)

// nsScope is one link in the prefix→URI binding chain. Each element that
// declares bindings gets its own scope whose parent is the enclosing one;
// lookup walks outward. declared preserves declaration order for namespace
// events.
type nsScope struct {
	parent   *nsScope
	bindings map[string]string
	declared []string
}

func rootScope() *nsScope {
	return &nsScope{
		bindings: map[string]string{
			"xml":   XMLNamespace,
			"xmlns": XMLNSNamespace,
		},
	}
}

func (s *nsScope) child() *nsScope {
	return &nsScope{parent: s, bindings: map[string]string{}}
}

func (s *nsScope) bind(prefix, uri string) {
	if _, ok := s.bindings[prefix]; !ok {
		s.declared = append(s.declared, prefix)
	}
	s.bindings[prefix] = uri
}

func (s *nsScope) resolve(prefix string) (string, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if uri, ok := cur.bindings[prefix]; ok {
			return uri, true
		}
	}
	return "", false
}

// splitQName splits prefix:local. A bare "xmlns" attribute is the default
// namespace declaration: prefix xmlns, empty local part.
func splitQName(name string, attribute bool) (prefix, local string) {
	if attribute && name == "xmlns" {
		return "xmlns", ""
	}
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}

// Attribute is a single parsed attribute. Prefix, LocalName and URI are
// populated only when Options.Namespaces is on.
type Attribute struct {
	Name      string
	Value     string
	Prefix    string
	LocalName string
	URI       string
}

// Tag is an open element. Attributes preserves document order; use Attr for
// lookups by name. Prefix, LocalName and URI are populated only when
// Options.Namespaces is on.
type Tag struct {
	Name          string
	Attributes    []Attribute
	IsSelfClosing bool
	Prefix        string
	LocalName     string
	URI           string

	ns *nsScope
}

// Attr returns the attribute with the given (post-transform) name.
func (t *Tag) Attr(name string) (Attribute, bool) {
	for _, a := range t.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

func (t *Tag) hasAttr(name string) bool {
	_, ok := t.Attr(name)
	return ok
}

// Namespace is the payload of OnOpenNamespace and OnCloseNamespace.
type Namespace struct {
	Prefix string
	URI    string
}

// ProcInst is the payload of OnProcessingInstruction.
type ProcInst struct {
	Name string
	Body string
}
