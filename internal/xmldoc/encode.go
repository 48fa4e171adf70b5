package xmldoc

import (
	"bufio"
	"bytes"
	"io"
	"strings"
)

// indentUnit is repeated once per nesting level.
const indentUnit = "  "

// declaration is written whenever the input carried one; output is always UTF-8.
const declaration = `<?xml version="1.0" encoding="UTF-8"?>`

var (
	textEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		"\r", "&#xD;",
	)
	attrEscaper = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"\t", "&#x9;",
		"\n", "&#xA;",
		"\r", "&#xD;",
	)
)

// Bytes serializes the document with two-space indentation.
func (d *Document) Bytes() []byte {
	var buf bytes.Buffer
	// bytes.Buffer writes do not fail.
	_ = d.Encode(&buf)
	return buf.Bytes()
}

// Encode writes the document to w with two-space indentation.
//
// Elements without children are self-closed. Elements that directly hold
// character data are written on one line so no whitespace is injected into
// their content.
func (d *Document) Encode(w io.Writer) error {
	e := encoder{w: bufio.NewWriter(w)}
	if d.Declared {
		e.w.WriteString(declaration)
		e.w.WriteByte('\n')
	}
	for _, n := range d.Prolog {
		e.node(n, 0, false)
		e.w.WriteByte('\n')
	}
	if d.Root != nil {
		e.node(d.Root, 0, true)
		e.w.WriteByte('\n')
	}
	for _, n := range d.Epilog {
		e.node(n, 0, false)
		e.w.WriteByte('\n')
	}
	return e.w.Flush()
}

type encoder struct {
	w *bufio.Writer
}

// node writes n; pretty reports whether n's children may be indented.
func (e *encoder) node(n *Node, depth int, pretty bool) {
	switch n.Type {
	case ElementNode:
		e.element(n, depth, pretty)
	case TextNode:
		textEscaper.WriteString(e.w, n.Data) //nolint:errcheck // surfaced by Flush
	case CommentNode:
		e.w.WriteString("<!--")
		e.w.WriteString(n.Data)
		e.w.WriteString("-->")
	case ProcInstNode:
		e.w.WriteString("<?")
		e.w.WriteString(n.Target)
		if n.Data != "" {
			e.w.WriteByte(' ')
			e.w.WriteString(n.Data)
		}
		e.w.WriteString("?>")
	case DirectiveNode:
		e.w.WriteString("<!")
		e.w.WriteString(n.Data)
		e.w.WriteByte('>')
	}
}

func (e *encoder) element(n *Node, depth int, pretty bool) {
	name := n.Name.String()
	e.w.WriteByte('<')
	e.w.WriteString(name)
	for _, a := range n.Attrs {
		e.w.WriteByte(' ')
		e.w.WriteString(a.Name.String())
		e.w.WriteString(`="`)
		attrEscaper.WriteString(e.w, a.Value) //nolint:errcheck // surfaced by Flush
		e.w.WriteByte('"')
	}
	if len(n.Children) == 0 {
		e.w.WriteString("/>")
		return
	}
	e.w.WriteByte('>')

	nested := pretty && !n.hasText()
	for _, c := range n.Children {
		if nested {
			e.newline(depth + 1)
		}
		e.node(c, depth+1, nested)
	}
	if nested {
		e.newline(depth)
	}
	e.w.WriteString("</")
	e.w.WriteString(name)
	e.w.WriteByte('>')
}

func (e *encoder) newline(depth int) {
	e.w.WriteByte('\n')
	for range depth {
		e.w.WriteString(indentUnit)
	}
}
