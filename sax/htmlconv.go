package sax

import (
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// ConvertHTMLToXML rewrites legacy HTML as well-formed XML so the strict
// parser can consume tag-soup input. The HTML5 tree builder does the error
// recovery; the rendering escapes all character data, closes every element
// explicitly and self-closes empty ones.
func ConvertHTMLToXML(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	renderXML(&b, doc)
	return b.String(), nil
}

func renderXML(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.ElementNode:
		b.WriteString("<" + n.Data)
		for _, a := range n.Attr {
			if a.Key == "xmlns" {
				// the default namespace declaration is dropped
				continue
			}
			b.WriteString(" " + a.Key + `="`)
			xml.EscapeText(b, []byte(a.Val))
			b.WriteString(`"`)
		}
		if n.FirstChild == nil {
			b.WriteString("/>")
			return
		}
		b.WriteString(">")
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderXML(b, c)
		}
		b.WriteString("</" + n.Data + ">")
	case html.TextNode:
		xml.EscapeText(b, []byte(n.Data))
	case html.CommentNode:
		// -- runs inside a comment body are not XML-legal
		b.WriteString("<!--" + strings.ReplaceAll(n.Data, "--", "- -") + "-->")
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			renderXML(b, c)
		}
	}
}
