package dom

// Matcher selects nodes, like a CSS selector would.
type Matcher func(*Node) bool

func ByID(id string) Matcher {
	return func(n *Node) bool { return !n.IsText() && n.ID() == id }
}

func ByClass(c string) Matcher {
	return func(n *Node) bool { return !n.IsText() && n.HasClass(c) }
}

func ByTag(tag string) Matcher {
	return func(n *Node) bool { return n.Tag == tag }
}

func WithAttr(key string) Matcher {
	return func(n *Node) bool { return !n.IsText() && n.HasAttr(key) }
}

// ByAttr matches elements whose key attribute equals val.
func ByAttr(key, val string) Matcher {
	return func(n *Node) bool {
		v, ok := n.GetAttr(key)
		return ok && v == val
	}
}

// AnyOf matches when at least one of ms matches.
func AnyOf(ms ...Matcher) Matcher {
	return func(n *Node) bool {
		for _, m := range ms {
			if m(n) {
				return true
			}
		}
		return false
	}
}

// AllOf matches when every m matches.
func AllOf(ms ...Matcher) Matcher {
	return func(n *Node) bool {
		for _, m := range ms {
			if !m(n) {
				return false
			}
		}
		return true
	}
}

// Find returns the first descendant (pre-order, n excluded) matching m.
func (n *Node) Find(m Matcher) *Node {
	for _, c := range n.Children {
		if m(c) {
			return c
		}
		if found := c.Find(m); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant matching m in document order.
func (n *Node) FindAll(m Matcher) []*Node {
	var out []*Node
	var walk func(*Node)
	walk = func(cur *Node) {
		for _, c := range cur.Children {
			if m(c) {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(n)
	return out
}

// Closest returns n or its nearest ancestor matching m.
func (n *Node) Closest(m Matcher) *Node {
	for cur := n; cur != nil; cur = cur.Parent {
		if m(cur) {
			return cur
		}
	}
	return nil
}
