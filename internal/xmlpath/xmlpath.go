// Package xmlpath compiles and evaluates a restricted, absolute XPath subset
// over an xmldoc tree.
//
// Supported syntax is a sequence of child steps from the document root:
//
//	/component/provides/memory[@writable="true"]/hash
//
// Each step is an element name followed by zero or more attribute equality
// predicates: [@name="value"] or [@name='value']. As in XPath 1.0, an
// unprefixed name matches only elements in no namespace, so a document
// with a default namespace declaration selects nothing.
package xmlpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joshuapare/specadjust/internal/xmldoc"
)

// ErrInvalidPath reports an expression outside the supported syntax.
var ErrInvalidPath = errors.New("xmlpath: invalid path")

func pathErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidPath}, args...)...)
}

// Predicate compares a single attribute textually.
type Predicate struct {
	Attr  string
	Value string
}

func (p Predicate) match(n *xmldoc.Node) bool {
	v, ok := n.Attr(p.Attr)
	return ok && v == p.Value
}

// Step selects child elements by name and predicates.
type Step struct {
	// Name is a qualified element name.
	Name       string
	Predicates []Predicate
}

func (s Step) match(n *xmldoc.Node) bool {
	if n.Type != xmldoc.ElementNode || n.Name.String() != s.Name {
		return false
	}
	if n.Name.Prefix == "" && n.Namespace() != "" {
		return false
	}
	for _, p := range s.Predicates {
		if !p.match(n) {
			return false
		}
	}
	return true
}

// Path is a compiled expression.
type Path struct {
	expr  string
	Steps []Step
}

// String returns the source expression.
func (p *Path) String() string {
	return p.expr
}

// Compile parses expr.
func Compile(expr string) (*Path, error) {
	src := strings.TrimSpace(expr)
	if src == "" {
		return nil, pathErrorf("path cannot be empty")
	}
	if !strings.HasPrefix(src, "/") {
		return nil, pathErrorf("path must be absolute: %s", expr)
	}

	sc := scanner{src: src}
	var steps []Step
	for !sc.done() {
		if !sc.consume('/') {
			return nil, pathErrorf("expected '/' at offset %d: %s", sc.pos, expr)
		}
		if sc.peek() == '/' {
			return nil, pathErrorf("descendant axis is not supported: %s", expr)
		}
		step, err := sc.step()
		if err != nil {
			return nil, fmt.Errorf("%w (in %s)", err, expr)
		}
		steps = append(steps, step)
	}
	return &Path{expr: src, Steps: steps}, nil
}

// MustCompile is like Compile but panics on error.
func MustCompile(expr string) *Path {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// Select returns the matching elements in document order.
func (p *Path) Select(doc *xmldoc.Document) []*xmldoc.Node {
	if p == nil || doc == nil || doc.Root == nil || len(p.Steps) == 0 {
		return nil
	}
	if !p.Steps[0].match(doc.Root) {
		return nil
	}
	current := []*xmldoc.Node{doc.Root}
	for _, step := range p.Steps[1:] {
		var next []*xmldoc.Node
		for _, n := range current {
			for _, c := range n.Elements() {
				if step.match(c) {
					next = append(next, c)
				}
			}
		}
		if len(next) == 0 {
			return nil
		}
		current = next
	}
	return current
}

type scanner struct {
	src string
	pos int
}

func (s *scanner) done() bool {
	return s.pos >= len(s.src)
}

func (s *scanner) peek() byte {
	if s.done() {
		return 0
	}
	return s.src[s.pos]
}

func (s *scanner) consume(c byte) bool {
	if s.peek() != c || s.done() {
		return false
	}
	s.pos++
	return true
}

func (s *scanner) skipSpace() {
	for !s.done() && (s.src[s.pos] == ' ' || s.src[s.pos] == '\t') {
		s.pos++
	}
}

func (s *scanner) step() (Step, error) {
	name := s.name()
	if name == "" {
		return Step{}, pathErrorf("missing step name at offset %d", s.pos)
	}
	step := Step{Name: name}
	for s.consume('[') {
		pred, err := s.predicate()
		if err != nil {
			return Step{}, err
		}
		step.Predicates = append(step.Predicates, pred)
	}
	if !s.done() && s.peek() != '/' {
		return Step{}, pathErrorf("unexpected %q at offset %d", s.peek(), s.pos)
	}
	return step, nil
}

func (s *scanner) predicate() (Predicate, error) {
	s.skipSpace()
	if !s.consume('@') {
		return Predicate{}, pathErrorf("only attribute predicates are supported (offset %d)", s.pos)
	}
	name := s.name()
	if name == "" {
		return Predicate{}, pathErrorf("missing attribute name at offset %d", s.pos)
	}
	s.skipSpace()
	if !s.consume('=') {
		return Predicate{}, pathErrorf("expected '=' at offset %d", s.pos)
	}
	s.skipSpace()
	lit, err := s.literal()
	if err != nil {
		return Predicate{}, err
	}
	pred := Predicate{Attr: name, Value: lit}
	s.skipSpace()
	if !s.consume(']') {
		return Predicate{}, pathErrorf("unterminated predicate at offset %d", s.pos)
	}
	return pred, nil
}

func (s *scanner) literal() (string, error) {
	quote := s.peek()
	if quote != '"' && quote != '\'' {
		return "", pathErrorf("expected quoted literal at offset %d", s.pos)
	}
	end := strings.IndexByte(s.src[s.pos+1:], quote)
	if end < 0 {
		return "", pathErrorf("unterminated literal at offset %d", s.pos)
	}
	lit := s.src[s.pos+1 : s.pos+1+end]
	s.pos += end + 2
	return lit, nil
}

// name reads a qualified name. Characters outside the name set end it.
func (s *scanner) name() string {
	start := s.pos
	for !s.done() && isNameByte(s.src[s.pos], s.pos == start) {
		s.pos++
	}
	return s.src[start:s.pos]
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_', c >= 0x80:
		return true
	case c == ':':
		return !first
	case c >= '0' && c <= '9', c == '-', c == '.':
		return !first
	default:
		return false
	}
}
