package xmldoc

import (
	"errors"
	"fmt"
)

var (
	// ErrSyntax indicates the input is not well-formed XML.
	ErrSyntax = errors.New("xmldoc: syntax error")
	// ErrUnsupportedCharset indicates the XML declaration names an unknown encoding.
	ErrUnsupportedCharset = errors.New("xmldoc: unsupported charset")

	errMissingRoot        = errors.New("missing root element")
	errMultipleRoots      = errors.New("multiple root elements")
	errContentOutsideRoot = errors.New("character data outside root element")
	errMismatchedEndTag   = errors.New("mismatched end element")
	errUnexpectedEndTag   = errors.New("end element without start")
	errUnclosedElement    = errors.New("unexpected EOF inside element")
	errMisplacedXMLDecl   = errors.New("XML declaration not at start")
	errDuplicateAttr      = errors.New("duplicate attribute")
)

// SyntaxError reports a well-formedness failure with its input position.
type SyntaxError struct {
	Line   int
	Offset int64
	Err    error
}

// Error formats the failure with location and cause.
func (e *SyntaxError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("xml syntax error on line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("xml syntax error at offset %d: %v", e.Offset, e.Err)
}

// Unwrap exposes both ErrSyntax and the underlying cause.
func (e *SyntaxError) Unwrap() []error {
	if e == nil {
		return nil
	}
	return []error{ErrSyntax, e.Err}
}
