// Package xmldoc holds a small mutable XML tree that survives a parse and
// re-serialize round trip with element and attribute order intact.
//
// Names are kept exactly as written in the source (prefix and local part),
// so namespace declarations round trip as ordinary attributes.
package xmldoc

import "strings"

// NodeType classifies nodes in the tree.
type NodeType uint8

const (
	// ElementNode is an element with attributes and children.
	ElementNode NodeType = iota + 1
	// TextNode holds character data.
	TextNode
	// CommentNode holds the body of <!-- ... -->.
	CommentNode
	// ProcInstNode holds a processing instruction other than the XML declaration.
	ProcInstNode
	// DirectiveNode holds a <!...> directive such as a DOCTYPE.
	DirectiveNode
)

// Name is a qualified name as it appeared in the source.
type Name struct {
	Prefix string
	Local  string
}

// String returns prefix:local, or local when there is no prefix.
func (n Name) String() string {
	if n.Prefix == "" {
		return n.Local
	}
	return n.Prefix + ":" + n.Local
}

// ParseName splits a qualified name at the first colon.
func ParseName(qname string) Name {
	if prefix, local, ok := strings.Cut(qname, ":"); ok {
		return Name{Prefix: prefix, Local: local}
	}
	return Name{Local: qname}
}

// Attr is a single attribute.
type Attr struct {
	Name  Name
	Value string
}

// Node is a single node in the tree.
//
// Element nodes use Name, Attrs and Children. Text, comment and directive
// nodes use Data. Processing instructions use Target and Data.
type Node struct {
	Type     NodeType
	Name     Name
	Attrs    []Attr
	Children []*Node
	Target   string
	Data     string

	parent *Node
}

// NewText returns a detached text node.
func NewText(data string) *Node {
	return &Node{Type: TextNode, Data: data}
}

// Parent returns the enclosing element, or nil for the root and detached nodes.
func (n *Node) Parent() *Node {
	if n == nil {
		return nil
	}
	return n.parent
}

// AppendChild attaches child as the last child of n.
func (n *Node) AppendChild(child *Node) {
	if n == nil || child == nil {
		return
	}
	child.parent = n
	n.Children = append(n.Children, child)
}

// Attr returns the value of the attribute with the given qualified name.
func (n *Node) Attr(qname string) (string, bool) {
	if n == nil || n.Type != ElementNode {
		return "", false
	}
	for _, a := range n.Attrs {
		if a.Name.String() == qname {
			return a.Value, true
		}
	}
	return "", false
}

// AttrValue returns the attribute value, or "" when it is absent.
func (n *Node) AttrValue(qname string) string {
	v, _ := n.Attr(qname)
	return v
}

// SetAttr replaces the attribute value in place, keeping its position.
// A missing attribute is appended.
func (n *Node) SetAttr(qname, value string) {
	if n == nil || n.Type != ElementNode {
		return
	}
	for i := range n.Attrs {
		if n.Attrs[i].Name.String() == qname {
			n.Attrs[i].Value = value
			return
		}
	}
	n.Attrs = append(n.Attrs, Attr{Name: ParseName(qname), Value: value})
}

// Namespace returns the namespace URI bound to the element's prefix by the
// nearest enclosing declaration. Unprefixed elements outside any default
// namespace declaration return "".
func (n *Node) Namespace() string {
	if n == nil || n.Type != ElementNode {
		return ""
	}
	decl := Name{Local: "xmlns"}
	if n.Name.Prefix != "" {
		decl = Name{Prefix: "xmlns", Local: n.Name.Prefix}
	}
	for e := n; e != nil; e = e.parent {
		for _, a := range e.Attrs {
			if a.Name == decl {
				return a.Value
			}
		}
	}
	return ""
}

// Elements returns the element children of n in document order.
func (n *Node) Elements() []*Node {
	if n == nil {
		return nil
	}
	var out []*Node
	for _, c := range n.Children {
		if c.Type == ElementNode {
			out = append(out, c)
		}
	}
	return out
}

// hasText reports whether any direct child is character data.
func (n *Node) hasText() bool {
	for _, c := range n.Children {
		if c.Type == TextNode {
			return true
		}
	}
	return false
}

// Document is a parsed XML document.
type Document struct {
	// Prolog holds comments, processing instructions and directives before the root.
	Prolog []*Node
	// Root is the document element.
	Root *Node
	// Epilog holds comments and processing instructions after the root.
	Epilog []*Node
	// Declared records whether the input carried an XML declaration.
	Declared bool
}
