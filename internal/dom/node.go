package dom

import (
	"slices"
	"strings"
)

// Attr is a single element attribute.
type Attr struct {
	Key string
	Val string
}

// Node is an element (Tag != "") or a text node (Tag == "").
type Node struct {
	Tag      string
	Data     string
	Attrs    []Attr
	Children []*Node
	Parent   *Node

	listeners map[string][]Listener
}

// Element builds an element node. kv is a flat list of attribute key/value pairs.
func Element(tag string, kv ...string) *Node {
	n := &Node{Tag: strings.ToLower(tag)}
	for i := 0; i+1 < len(kv); i += 2 {
		n.SetAttr(kv[i], kv[i+1])
	}
	return n
}

// Text builds a text node.
func Text(s string) *Node {
	return &Node{Data: s}
}

func (n *Node) IsText() bool { return n.Tag == "" }

// Append adds children in order, moving any that already have a parent.
func (n *Node) Append(children ...*Node) *Node {
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.Parent != nil {
			c.Parent.removeChild(c)
		}
		c.Parent = n
		n.Children = append(n.Children, c)
	}
	return n
}

// ReplaceChildren swaps the whole subtree below n for children.
//
// Replaced nodes are detached and lose every listener in their subtree.
func (n *Node) ReplaceChildren(children ...*Node) {
	old := n.Children
	n.Children = nil
	for _, c := range old {
		c.Parent = nil
		c.release()
	}
	n.Append(children...)
}

// Remove detaches n from its parent. Listeners are kept so the node can be re-attached.
func (n *Node) Remove() {
	if n.Parent != nil {
		n.Parent.removeChild(n)
		n.Parent = nil
	}
}

func (n *Node) removeChild(c *Node) {
	if i := slices.Index(n.Children, c); i >= 0 {
		n.Children = slices.Delete(n.Children, i, i+1)
	}
}

func (n *Node) release() {
	n.listeners = nil
	for _, c := range n.Children {
		c.release()
	}
}

// GetAttr returns the attribute value and whether it is present.
func (n *Node) GetAttr(key string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// Attr returns the attribute value, or "" when absent.
func (n *Node) Attr(key string) string {
	v, _ := n.GetAttr(key)
	return v
}

func (n *Node) HasAttr(key string) bool {
	_, ok := n.GetAttr(key)
	return ok
}

func (n *Node) SetAttr(key, val string) {
	key = strings.ToLower(key)
	for i, a := range n.Attrs {
		if a.Key == key {
			n.Attrs[i].Val = val
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Key: key, Val: val})
}

func (n *Node) RemoveAttr(key string) {
	n.Attrs = slices.DeleteFunc(n.Attrs, func(a Attr) bool { return a.Key == key })
}

func (n *Node) ID() string { return n.Attr("id") }

func (n *Node) Classes() []string {
	return strings.Fields(n.Attr("class"))
}

func (n *Node) HasClass(c string) bool {
	return slices.Contains(n.Classes(), c)
}

func (n *Node) AddClass(c string) {
	if !n.HasClass(c) {
		n.SetAttr("class", strings.TrimSpace(n.Attr("class")+" "+c))
	}
}

func (n *Node) RemoveClass(c string) {
	classes := slices.DeleteFunc(n.Classes(), func(s string) bool { return s == c })
	n.SetAttr("class", strings.Join(classes, " "))
}

// ToggleClass flips c and reports whether it is now present.
func (n *Node) ToggleClass(c string) bool {
	if n.HasClass(c) {
		n.RemoveClass(c)
		return false
	}
	n.AddClass(c)
	return true
}

// SetClasses replaces the class list.
func (n *Node) SetClasses(classes ...string) {
	n.SetAttr("class", strings.Join(classes, " "))
}

// Hide and Show toggle the hidden attribute; Hide is idempotent.
func (n *Node) Hide() { n.SetAttr("hidden", "") }
func (n *Node) Show() { n.RemoveAttr("hidden") }

func (n *Node) Hidden() bool { return n.HasAttr("hidden") }

// Visible reports whether neither n nor any ancestor is hidden.
func (n *Node) Visible() bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur.Hidden() {
			return false
		}
	}
	return true
}

// TextContent concatenates all descendant text.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Data
	}
	var b strings.Builder
	for _, c := range n.Children {
		b.WriteString(c.TextContent())
	}
	return b.String()
}

// InnerText is TextContent with runs of whitespace collapsed.
func (n *Node) InnerText() string {
	return strings.Join(strings.Fields(n.TextContent()), " ")
}

// SetText replaces all children with a single text node.
func (n *Node) SetText(s string) {
	n.ReplaceChildren(Text(s))
}

// Root walks up to the topmost ancestor.
func (n *Node) Root() *Node {
	cur := n
	for cur.Parent != nil {
		cur = cur.Parent
	}
	return cur
}

// Contains reports whether other is n or one of its descendants.
func (n *Node) Contains(other *Node) bool {
	for cur := other; cur != nil; cur = cur.Parent {
		if cur == n {
			return true
		}
	}
	return false
}
