package sax

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Element is a minimal document node for callers that want a tree after all.
// Children holds *Element and string (character data) values in document
// order.
type Element struct {
	Name       string
	Attributes []Attribute
	Children   []interface{}
}

// Build parses the whole of r and assembles an Element tree. It is a thin
// consumer of the event stream; the parser itself never builds one.
func Build(r io.Reader, opts Options) (*Element, error) {
	var (
		root  *Element
		stack []*Element
	)
	handler := Handler{
		OnOpenTag: func(tag *Tag) {
			el := &Element{Name: tag.Name, Attributes: tag.Attributes}
			if len(stack) == 0 {
				if root == nil {
					root = el
				}
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			}
			stack = append(stack, el)
		},
		OnCloseTag: func(string) {
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		},
		OnText: func(text string) {
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, text)
			}
		},
		OnCData: func(text string) {
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, text)
			}
		},
	}
	p := New(opts, handler)
	w := NewWriter(p)
	if _, err := w.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	return root, nil
}

// String serializes the Element back to an XML string.
func (e *Element) String() string {
	var sb strings.Builder
	e.writeTo(&sb)
	return sb.String()
}

func (e *Element) writeTo(sb *strings.Builder) {
	sb.WriteString("<" + e.Name)
	for _, attr := range e.Attributes {
		sb.WriteString(" " + attr.Name + `="`)
		xml.EscapeText(sb, []byte(attr.Value))
		sb.WriteString(`"`)
	}
	sb.WriteString(">")
	for _, child := range e.Children {
		switch c := child.(type) {
		case *Element:
			c.writeTo(sb)
		case string:
			xml.EscapeText(sb, []byte(c))
		}
	}
	sb.WriteString("</" + e.Name + ">")
}

// PrettyPrint writes an indented rendering of the tree. Elements with
// element children go block style; text-only elements stay inline.
func (e *Element) PrettyPrint(w io.Writer, depth int) {
	indent := strings.Repeat("  ", depth)

	isComplex := false
	for _, c := range e.Children {
		if _, ok := c.(*Element); ok {
			isComplex = true
			break
		}
	}

	io.WriteString(w, indent)
	io.WriteString(w, "<"+e.Name)
	for _, attr := range e.Attributes {
		io.WriteString(w, " "+attr.Name+`="`)
		xml.EscapeText(w, []byte(attr.Value))
		io.WriteString(w, `"`)
	}

	if len(e.Children) == 0 {
		io.WriteString(w, " />\n")
		return
	}

	io.WriteString(w, ">")

	if isComplex {
		io.WriteString(w, "\n")
		for _, c := range e.Children {
			switch child := c.(type) {
			case *Element:
				child.PrettyPrint(w, depth+1)
			case string:
				trimmed := strings.TrimSpace(child)
				if trimmed != "" {
					io.WriteString(w, strings.Repeat("  ", depth+1))
					xml.EscapeText(w, []byte(trimmed))
					io.WriteString(w, "\n")
				}
			}
		}
		io.WriteString(w, indent)
	} else {
		for _, c := range e.Children {
			if str, ok := c.(string); ok {
				xml.EscapeText(w, []byte(str))
			}
		}
	}

	io.WriteString(w, "</"+e.Name+">\n")
}
