package component

import "errors"

var (
	// ErrInputNotFound indicates the input path is not an existing regular file.
	ErrInputNotFound = errors.New("component: input not found")
	// ErrRead indicates the input exists but could not be read.
	ErrRead = errors.New("component: input not readable")
	// ErrParse indicates the input is not well-formed XML.
	ErrParse = errors.New("component: malformed document")
	// ErrWrite indicates the output could not be written.
	ErrWrite = errors.New("component: output not writable")
)
