package ply

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// maxHeaderLine bounds a single header line so a malicious unterminated
// stream cannot force unbounded buffering.
const maxHeaderLine = 64 * 1024

// HeaderEventKind discriminates header events.
type HeaderEventKind uint8

const (
	EventFormat    HeaderEventKind = iota // format line
	EventComment                          // comment line
	EventObjInfo                          // obj_info line
	EventElement                          // element declaration
	EventProperty                         // property declaration
	EventEndHeader                        // end_header
)

// String returns the event kind name.
func (k HeaderEventKind) String() string {
	switch k {
	case EventFormat:
		return "format"
	case EventComment:
		return "comment"
	case EventObjInfo:
		return "obj_info"
	case EventElement:
		return "element"
	case EventProperty:
		return "property"
	case EventEndHeader:
		return "end_header"
	default:
		return "unknown"
	}
}

// HeaderEvent is one parsed header line. Fields are populated according
// to Kind.
type HeaderEvent struct {
	Kind HeaderEventKind
	Line int // 1-based source line

	Encoding Encoding // EventFormat
	Version  Version  // EventFormat

	Text string // EventComment, EventObjInfo

	Name  string       // EventElement, EventProperty
	Count int          // EventElement
	Type  PropertyType // EventProperty
}

// HeaderScanner pulls header events one line at a time. It reads the
// underlying stream byte-wise, so after EventEndHeader the reader is
// positioned exactly at the first payload byte. Structural rules (magic
// line first, exactly one format line before the first element, property
// lines only inside an element block) are enforced as the events are
// produced; Next returns io.EOF after EventEndHeader has been delivered.
type HeaderScanner struct {
	br   *bufio.Reader
	line int // lines consumed so far

	started    bool // magic line consumed
	formatSeen bool
	inElement  bool // at least one element declared
	done       bool
	err        error // sticky
}

// NewHeaderScanner returns a scanner reading from r. If r is already a
// *bufio.Reader it is used directly, which keeps the payload cursor
// shared with the caller.
func NewHeaderScanner(r io.Reader) *HeaderScanner {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &HeaderScanner{br: br}
}

// Next returns the next header event. After the end_header event it
// returns io.EOF.
func (s *HeaderScanner) Next() (HeaderEvent, error) {
	if s.done {
		return HeaderEvent{}, io.EOF
	}
	if s.err != nil {
		return HeaderEvent{}, s.err
	}
	ev, err := s.scan()
	if err != nil {
		s.err = err
		return HeaderEvent{}, err
	}
	if ev.Kind == EventEndHeader {
		s.done = true
	}
	return ev, nil
}

func (s *HeaderScanner) scan() (HeaderEvent, error) {
	if !s.started {
		line, err := s.readLine()
		if err != nil {
			return HeaderEvent{}, headerReadErr(err, "magic number")
		}
		if strings.TrimSpace(line) != "ply" {
			return HeaderEvent{}, parseErrf(s.line, "expected magic number %q, got %q", "ply", strings.TrimSpace(line))
		}
		s.started = true
	}

	line, err := s.readLine()
	if err != nil {
		return HeaderEvent{}, headerReadErr(err, "end_header")
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return HeaderEvent{}, parseErrf(s.line, "empty header line")
	}

	switch fields[0] {
	case "format":
		return s.scanFormat(fields)
	case "comment":
		return HeaderEvent{Kind: EventComment, Line: s.line, Text: trailingText(line, "comment")}, nil
	case "obj_info":
		return HeaderEvent{Kind: EventObjInfo, Line: s.line, Text: trailingText(line, "obj_info")}, nil
	case "element":
		return s.scanElement(fields)
	case "property":
		return s.scanProperty(fields)
	case "end_header":
		if len(fields) != 1 {
			return HeaderEvent{}, parseErrf(s.line, "unexpected text after end_header")
		}
		if !s.formatSeen {
			return HeaderEvent{}, parseErrf(s.line, "missing format line")
		}
		return HeaderEvent{Kind: EventEndHeader, Line: s.line}, nil
	default:
		return HeaderEvent{}, parseErrf(s.line, "unknown header keyword %q", fields[0])
	}
}

func (s *HeaderScanner) scanFormat(fields []string) (HeaderEvent, error) {
	if s.formatSeen {
		return HeaderEvent{}, parseErrf(s.line, "duplicate format line")
	}
	if s.inElement {
		return HeaderEvent{}, parseErrf(s.line, "format line after element declarations")
	}
	if len(fields) != 3 {
		return HeaderEvent{}, parseErrf(s.line, "format line needs an encoding and a version")
	}
	enc, err := ParseEncoding(fields[1])
	if err != nil {
		return HeaderEvent{}, parseErrf(s.line, "format line: %v", err)
	}
	ver, err := parseVersion(fields[2])
	if err != nil {
		return HeaderEvent{}, parseErrf(s.line, "format line: %v", err)
	}
	s.formatSeen = true
	return HeaderEvent{Kind: EventFormat, Line: s.line, Encoding: enc, Version: ver}, nil
}

func (s *HeaderScanner) scanElement(fields []string) (HeaderEvent, error) {
	if !s.formatSeen {
		return HeaderEvent{}, parseErrf(s.line, "element declaration before format line")
	}
	if len(fields) != 3 {
		return HeaderEvent{}, parseErrf(s.line, "element line needs a name and a count")
	}
	if !validName(fields[1]) {
		return HeaderEvent{}, parseErrf(s.line, "invalid element name %q", fields[1])
	}
	count, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil || count < 0 || count > math.MaxInt {
		return HeaderEvent{}, parseErrf(s.line, "invalid element count %q", fields[2])
	}
	s.inElement = true
	return HeaderEvent{Kind: EventElement, Line: s.line, Name: fields[1], Count: int(count)}, nil
}

func (s *HeaderScanner) scanProperty(fields []string) (HeaderEvent, error) {
	if !s.inElement {
		return HeaderEvent{}, parseErrf(s.line, "property without a preceding element")
	}
	if len(fields) >= 2 && fields[1] == "list" {
		if len(fields) != 5 {
			return HeaderEvent{}, parseErrf(s.line, "list property needs a count type, a value type and a name")
		}
		count, err := ParseScalarType(fields[2])
		if err != nil {
			return HeaderEvent{}, parseErrf(s.line, "property line: %v", err)
		}
		if count.IsFloat() {
			return HeaderEvent{}, parseErrf(s.line, "list count must be an integer type, got %s", count)
		}
		value, err := ParseScalarType(fields[3])
		if err != nil {
			return HeaderEvent{}, parseErrf(s.line, "property line: %v", err)
		}
		if !validName(fields[4]) {
			return HeaderEvent{}, parseErrf(s.line, "invalid property name %q", fields[4])
		}
		return HeaderEvent{Kind: EventProperty, Line: s.line, Name: fields[4], Type: ListOf(count, value)}, nil
	}
	if len(fields) != 3 {
		return HeaderEvent{}, parseErrf(s.line, "property line needs a type and a name")
	}
	t, err := ParseScalarType(fields[1])
	if err != nil {
		return HeaderEvent{}, parseErrf(s.line, "property line: %v", err)
	}
	if !validName(fields[2]) {
		return HeaderEvent{}, parseErrf(s.line, "invalid property name %q", fields[2])
	}
	return HeaderEvent{Kind: EventProperty, Line: s.line, Name: fields[2], Type: Scalar(t)}, nil
}

// readLine consumes one header line including its terminator, accepting
// \n, \r\n and bare \r. The final line of a stream may omit the
// terminator.
func (s *HeaderScanner) readLine() (string, error) {
	var sb strings.Builder
	for {
		c, err := s.br.ReadByte()
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				break
			}
			return "", err
		}
		if c == '\n' {
			break
		}
		if c == '\r' {
			next, err := s.br.Peek(1)
			if err == nil && next[0] == '\n' {
				s.br.ReadByte()
			}
			break
		}
		if sb.Len() >= maxHeaderLine {
			return "", parseErrf(s.line+1, "header line longer than %d bytes", maxHeaderLine)
		}
		sb.WriteByte(c)
	}
	s.line++
	return sb.String(), nil
}

// headerReadErr maps a readLine failure to the reported error: EOF
// becomes UnexpectedEOFError naming the construct, parse errors pass
// through, anything else is a wrapped I/O failure.
func headerReadErr(err error, what string) error {
	if err == io.EOF {
		return &UnexpectedEOFError{What: what}
	}
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return fmt.Errorf("read header: %w", err)
}

// trailingText returns the free text of a comment or obj_info line:
// everything after the keyword and the following whitespace run.
func trailingText(line, keyword string) string {
	rest := strings.TrimLeft(strings.TrimSpace(line)[len(keyword):], " \t")
	return strings.TrimRight(rest, " \t")
}

// parseVersion parses a format-line version such as "1.0".
func parseVersion(s string) (Version, error) {
	major, minor, ok := strings.Cut(s, ".")
	if !ok {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	maj, err := strconv.ParseUint(major, 10, 16)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	min, err := strconv.ParseUint(minor, 10, 8)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q", s)
	}
	return Version{Major: uint16(maj), Minor: uint8(min)}, nil
}

// ParseHeader reads a complete header from r, folding the event stream
// into a Header. When r is a *bufio.Reader it is left positioned exactly
// at the first payload byte.
func ParseHeader(r io.Reader) (*Header, error) {
	return foldHeader(NewHeaderScanner(r))
}

func foldHeader(sc *HeaderScanner) (*Header, error) {
	h := &Header{Version: V1}
	for {
		ev, err := sc.Next()
		if err != nil {
			return nil, err
		}
		switch ev.Kind {
		case EventFormat:
			h.Encoding = ev.Encoding
			h.Version = ev.Version
		case EventComment:
			h.Comments = append(h.Comments, ev.Text)
		case EventObjInfo:
			h.ObjInfos = append(h.ObjInfos, ev.Text)
		case EventElement:
			if h.Element(ev.Name) != nil {
				return nil, parseErrf(ev.Line, "duplicate element %q", ev.Name)
			}
			h.AddElement(ev.Name, ev.Count)
		case EventProperty:
			def := &h.Elements[len(h.Elements)-1]
			if def.Property(ev.Name) != nil {
				return nil, parseErrf(ev.Line, "duplicate property %q in element %q", ev.Name, def.Name)
			}
			def.AddProperty(ev.Name, ev.Type)
		case EventEndHeader:
			return h, nil
		}
	}
}
