package configdoc

import (
	"strings"

	"github.com/beevik/etree"
)

// Node is one element of the configuration document. Name lookups are
// ASCII case-insensitive and also match the local part of a prefixed name,
// so "Kea", "kea" and "opn:kea" all satisfy a lookup for "kea".
type Node struct {
	el *etree.Element
}

func wrap(el *etree.Element) *Node {
	if el == nil {
		return nil
	}
	return &Node{el: el}
}

// NewNode returns a detached element. Attach it with Append.
func NewNode(name string) *Node {
	return &Node{el: etree.NewElement(name)}
}

// Name returns the element's local name as written.
func (n *Node) Name() string {
	return n.el.Tag
}

// Is reports whether the element's name matches name.
func (n *Node) Is(name string) bool {
	return nameMatches(n.el, name)
}

func nameMatches(el *etree.Element, name string) bool {
	if strings.EqualFold(el.Tag, name) {
		return true
	}
	return el.Space != "" && strings.EqualFold(el.Space+":"+el.Tag, name)
}

// Child returns the first direct child element named name, or nil.
func (n *Node) Child(name string) *Node {
	for _, c := range n.el.ChildElements() {
		if nameMatches(c, name) {
			return wrap(c)
		}
	}
	return nil
}

// Children returns all direct child elements in document order.
func (n *Node) Children() []*Node {
	elems := n.el.ChildElements()
	out := make([]*Node, 0, len(elems))
	for _, c := range elems {
		out = append(out, wrap(c))
	}
	return out
}

// ChildrenNamed returns the direct child elements named name in document order.
func (n *Node) ChildrenNamed(name string) []*Node {
	var out []*Node
	for _, c := range n.el.ChildElements() {
		if nameMatches(c, name) {
			out = append(out, wrap(c))
		}
	}
	return out
}

// Descendant performs a depth-first, document-order search below n and
// returns the first element named name. n itself is not considered.
func (n *Node) Descendant(name string) *Node {
	return wrap(findDescendant(n.el, name))
}

func findDescendant(el *etree.Element, name string) *etree.Element {
	for _, c := range el.ChildElements() {
		if nameMatches(c, name) {
			return c
		}
		if found := findDescendant(c, name); found != nil {
			return found
		}
	}
	return nil
}

// Text returns the element's leading character data with surrounding
// whitespace removed.
func (n *Node) Text() string {
	return strings.TrimSpace(n.el.Text())
}

// ChildText returns the trimmed text of the named child, or "" when absent.
func (n *Node) ChildText(name string) string {
	if c := n.Child(name); c != nil {
		return c.Text()
	}
	return ""
}

// SetText replaces the element's character data.
func (n *Node) SetText(text string) {
	n.el.SetText(text)
}

// Attr returns the value of the attribute key and whether it was present.
func (n *Node) Attr(key string) (string, bool) {
	a := n.el.SelectAttr(key)
	if a == nil {
		return "", false
	}
	return a.Value, true
}

// SetAttr creates or overwrites the attribute key.
func (n *Node) SetAttr(key, value string) {
	n.el.CreateAttr(key, value)
}

// AddChild appends a new empty element named name and returns it.
func (n *Node) AddChild(name string) *Node {
	return wrap(n.el.CreateElement(name))
}

// AddTextChild appends <name>text</name> and returns it.
func (n *Node) AddTextChild(name, text string) *Node {
	c := n.el.CreateElement(name)
	c.SetText(text)
	return wrap(c)
}

// Append attaches a detached node as the last child of n.
func (n *Node) Append(child *Node) {
	n.el.AddChild(child.el)
}

// InsertChildAt inserts a new element named name so that it becomes the
// index-th child element of n. An index past the end appends.
func (n *Node) InsertChildAt(index int, name string) *Node {
	c := etree.NewElement(name)
	pos := len(n.el.Child)
	seen := 0
	for i, tok := range n.el.Child {
		if _, ok := tok.(*etree.Element); !ok {
			continue
		}
		if seen == index {
			pos = i
			break
		}
		seen++
	}
	n.el.InsertChildAt(pos, c)
	return wrap(c)
}

// EnsureChild returns the child named name, creating an empty one at the
// end when it is missing. The boolean reports whether it was created.
func (n *Node) EnsureChild(name string) (*Node, bool) {
	if c := n.Child(name); c != nil {
		return c, false
	}
	return n.AddChild(name), true
}

// RemoveChildren removes every direct child element for which match
// returns true and reports how many were removed.
func (n *Node) RemoveChildren(match func(*Node) bool) int {
	var doomed []*etree.Element
	for _, c := range n.el.ChildElements() {
		if match(wrap(c)) {
			doomed = append(doomed, c)
		}
	}
	for _, c := range doomed {
		n.el.RemoveChild(c)
	}
	return len(doomed)
}

// Same reports whether a and b wrap the same element.
func Same(a, b *Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.el == b.el
}
