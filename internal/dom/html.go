package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Parse parses an HTML fragment as the content of a <div> and returns the top-level nodes.
//
// Comments and doctypes are dropped. Listeners are never created by parsing.
func Parse(fragment string) ([]*Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	parsed, err := html.ParseFragment(strings.NewReader(fragment), context)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fragment: %w", err)
	}

	nodes := make([]*Node, 0, len(parsed))
	for _, h := range parsed {
		if n := fromHTML(h); n != nil {
			nodes = append(nodes, n)
		}
	}
	return nodes, nil
}

func fromHTML(h *html.Node) *Node {
	switch h.Type {
	case html.TextNode:
		return Text(h.Data)
	case html.ElementNode:
		n := &Node{Tag: h.Data}
		for _, a := range h.Attr {
			n.Attrs = append(n.Attrs, Attr{Key: a.Key, Val: a.Val})
		}
		for c := h.FirstChild; c != nil; c = c.NextSibling {
			n.Append(fromHTML(c))
		}
		return n
	default:
		return nil
	}
}

func toHTML(n *Node) *html.Node {
	if n.IsText() {
		return &html.Node{Type: html.TextNode, Data: n.Data}
	}
	h := &html.Node{Type: html.ElementNode, Data: n.Tag, DataAtom: atom.Lookup([]byte(n.Tag))}
	for _, a := range n.Attrs {
		h.Attr = append(h.Attr, html.Attribute{Key: a.Key, Val: a.Val})
	}
	for _, c := range n.Children {
		h.AppendChild(toHTML(c))
	}
	return h
}

// Render writes n and its subtree as HTML.
func Render(w io.Writer, n *Node) error {
	return html.Render(w, toHTML(n))
}

// OuterHTML renders n to a string, returning "" if rendering fails.
func (n *Node) OuterHTML() string {
	var buf bytes.Buffer
	if err := Render(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

// InnerHTML renders the children of n.
func (n *Node) InnerHTML() string {
	var buf bytes.Buffer
	for _, c := range n.Children {
		if err := Render(&buf, c); err != nil {
			return ""
		}
	}
	return buf.String()
}
