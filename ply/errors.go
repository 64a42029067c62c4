package ply

import (
	"fmt"
	"io"
)

// ParseError reports malformed header or ASCII payload content.
type ParseError struct {
	Line   int    // 1-based line number; 0 when the input is binary
	Reason string // what was wrong
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
	}
	return e.Reason
}

// parseErrf builds a ParseError with a formatted reason.
func parseErrf(line int, format string, args ...interface{}) *ParseError {
	return &ParseError{Line: line, Reason: fmt.Sprintf(format, args...)}
}

// UnexpectedEOFError reports input that ends inside the header or inside
// a declared payload region. It unwraps to io.ErrUnexpectedEOF.
type UnexpectedEOFError struct {
	What string // the construct being read when input ran out
}

func (e *UnexpectedEOFError) Error() string {
	return fmt.Sprintf("unexpected end of input while reading %s", e.What)
}

func (e *UnexpectedEOFError) Unwrap() error { return io.ErrUnexpectedEOF }

// eofErrf builds an UnexpectedEOFError with a formatted construct name.
func eofErrf(format string, args ...interface{}) *UnexpectedEOFError {
	return &UnexpectedEOFError{What: fmt.Sprintf(format, args...)}
}

// OverflowError reports a declared list length or total size that
// exceeds representable or configured bounds.
type OverflowError struct {
	What  string // what was being sized
	N     uint64 // the declared quantity
	Limit uint64 // the bound it broke
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf("%s: declared size %d exceeds limit %d", e.What, e.N, e.Limit)
}

// RangeError reports a numeric value that cannot be represented in the
// declared scalar type, on either the parse or the emit side.
type RangeError struct {
	Type  ScalarType // the declared type
	Value string     // the offending value, formatted
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("value %s out of range for %s", e.Value, e.Type)
}

// MissingPropertyError reports an instance that lacks a property its
// element declares. Raised on the write side.
type MissingPropertyError struct {
	Element  string
	Property string
}

func (e *MissingPropertyError) Error() string {
	return fmt.Sprintf("element %q: instance is missing property %q", e.Element, e.Property)
}

// UnknownPropertyError reports a request for a property name the element
// does not declare.
type UnknownPropertyError struct {
	Element  string
	Property string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("element %q declares no property %q", e.Element, e.Property)
}

// CountMismatchError reports disagreement between an element's declared
// instance count and the rows actually provided. Raised before any
// payload bytes are written.
type CountMismatchError struct {
	Element  string
	Declared int
	Actual   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("element %q declares %d instances, payload has %d", e.Element, e.Declared, e.Actual)
}
