package xmldoc

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/joshuapare/specadjust/internal/mmfile"
)

// ParseFile maps the file at path and parses it.
func ParseFile(path string) (*Document, error) {
	data, release, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	defer release() //nolint:errcheck // read-only mapping

	return ParseBytes(data)
}

// ParseBytes parses an in-memory document.
func ParseBytes(data []byte) (*Document, error) {
	return Parse(bytes.NewReader(data))
}

// Parse reads a complete document from r.
//
// Whitespace-only character data between elements is dropped so that
// re-serialization with indentation is stable. It is kept when it is the
// whole content of an element, when the element already holds text, or
// under xml:space="preserve". Element and attribute names keep their source
// prefixes; namespace declarations stay ordinary attributes.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	p := parser{dec: dec, doc: &Document{}}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.doc, nil
}

type parser struct {
	dec    *xml.Decoder
	doc    *Document
	stack  []*Node
	seen   bool
	closed bool

	// blank is whitespace read at the start of the current element. It
	// becomes content only if the element ends right after it.
	blank string
}

func (p *parser) run() error {
	for {
		tok, err := p.dec.RawToken()
		if err == io.EOF {
			break
		}
		if err != nil {
			return p.wrap(err)
		}
		if err := p.handle(tok); err != nil {
			return p.fail(err)
		}
	}

	if len(p.stack) > 0 {
		return p.fail(fmt.Errorf("%w: <%s>", errUnclosedElement, p.stack[len(p.stack)-1].Name))
	}
	if p.doc.Root == nil {
		return p.fail(errMissingRoot)
	}
	return nil
}

func (p *parser) handle(tok xml.Token) error {
	blank := p.blank
	p.blank = ""

	switch t := tok.(type) {
	case xml.StartElement:
		if p.closed {
			return fmt.Errorf("%w: <%s>", errMultipleRoots, qualified(t.Name))
		}
		attrs, err := convertAttrs(t.Attr)
		if err != nil {
			return fmt.Errorf("%w in <%s>", err, qualified(t.Name))
		}
		elem := &Node{
			Type:  ElementNode,
			Name:  Name{Prefix: t.Name.Space, Local: t.Name.Local},
			Attrs: attrs,
		}
		if len(p.stack) > 0 {
			p.stack[len(p.stack)-1].AppendChild(elem)
		} else {
			p.doc.Root = elem
		}
		p.stack = append(p.stack, elem)
		p.seen = true

	case xml.EndElement:
		if len(p.stack) == 0 {
			return fmt.Errorf("%w: </%s>", errUnexpectedEndTag, qualified(t.Name))
		}
		top := p.stack[len(p.stack)-1]
		if name := qualified(t.Name); name != top.Name.String() {
			return fmt.Errorf("%w: <%s> closed by </%s>", errMismatchedEndTag, top.Name, name)
		}
		if blank != "" {
			top.AppendChild(NewText(blank))
		}
		p.stack = p.stack[:len(p.stack)-1]
		if len(p.stack) == 0 {
			p.closed = true
		}

	case xml.CharData:
		if len(p.stack) == 0 {
			if !isIgnorableOutsideRoot(t) {
				return errContentOutsideRoot
			}
			return nil
		}
		parent := p.stack[len(p.stack)-1]
		if isBlank(t) && !keepsBlank(parent) {
			if len(parent.Children) == 0 {
				p.blank = blank + string(t)
			}
			return nil
		}
		if n := len(parent.Children); n > 0 && parent.Children[n-1].Type == TextNode {
			parent.Children[n-1].Data += string(t)
			return nil
		}
		parent.AppendChild(NewText(string(t)))

	case xml.Comment:
		p.appendMisc(&Node{Type: CommentNode, Data: string(t)})

	case xml.ProcInst:
		if t.Target == "xml" {
			if p.seen {
				return errMisplacedXMLDecl
			}
			p.doc.Declared = true
			p.seen = true
			return nil
		}
		p.appendMisc(&Node{Type: ProcInstNode, Target: t.Target, Data: string(t.Inst)})

	case xml.Directive:
		p.appendMisc(&Node{Type: DirectiveNode, Data: string(t)})
	}
	return nil
}

// appendMisc places comments, PIs and directives in the prolog, the
// current element, or the epilog depending on parse position.
func (p *parser) appendMisc(n *Node) {
	p.seen = true
	switch {
	case len(p.stack) > 0:
		p.stack[len(p.stack)-1].AppendChild(n)
	case p.closed:
		p.doc.Epilog = append(p.doc.Epilog, n)
	default:
		p.doc.Prolog = append(p.doc.Prolog, n)
	}
}

func (p *parser) fail(err error) error {
	return &SyntaxError{Offset: p.dec.InputOffset(), Err: err}
}

func (p *parser) wrap(err error) error {
	var syntaxErr *xml.SyntaxError
	if errors.As(err, &syntaxErr) {
		return &SyntaxError{Line: syntaxErr.Line, Offset: p.dec.InputOffset(), Err: errors.New(syntaxErr.Msg)}
	}
	return &SyntaxError{Offset: p.dec.InputOffset(), Err: err}
}

func qualified(n xml.Name) string {
	return Name{Prefix: n.Space, Local: n.Local}.String()
}

func convertAttrs(xmlAttrs []xml.Attr) ([]Attr, error) {
	if len(xmlAttrs) == 0 {
		return nil, nil
	}
	attrs := make([]Attr, 0, len(xmlAttrs))
	for _, a := range xmlAttrs {
		name := Name{Prefix: a.Name.Space, Local: a.Name.Local}
		for _, prev := range attrs {
			if prev.Name == name {
				return nil, fmt.Errorf("%w: %s", errDuplicateAttr, name)
			}
		}
		attrs = append(attrs, Attr{Name: name, Value: a.Value})
	}
	return attrs, nil
}

// keepsBlank reports whether whitespace-only text inside n is content:
// n already holds text, or xml:space="preserve" is in scope.
func keepsBlank(n *Node) bool {
	if k := len(n.Children); k > 0 && (n.Children[0].Type == TextNode || n.Children[k-1].Type == TextNode) {
		return true
	}
	for e := n; e != nil; e = e.parent {
		if v, ok := e.Attr("xml:space"); ok {
			return v == "preserve"
		}
	}
	return false
}

// isBlank reports whether data holds only XML whitespace.
func isBlank(data []byte) bool {
	for _, c := range data {
		if !isSpace(c) {
			return false
		}
	}
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

func isIgnorableOutsideRoot(data []byte) bool {
	return isBlank(bytes.TrimPrefix(data, []byte("\uFEFF")))
}

// charsetReader decodes legacy encodings named in the XML declaration.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	enc, err := ianaindex.IANA.Encoding(strings.ToLower(strings.TrimSpace(label)))
	if err != nil || enc == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedCharset, label)
	}
	return transform.NewReader(input, enc.NewDecoder()), nil
}
