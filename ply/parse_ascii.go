package ply

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// asciiDecoder decodes ASCII payload instances, one per text line.
// Line numbering continues from the header so errors point into the
// file, not into the payload.
type asciiDecoder struct {
	br      *bufio.Reader
	line    int
	maxList int
}

func newASCIIDecoder(br *bufio.Reader, startLine, maxList int) *asciiDecoder {
	return &asciiDecoder{br: br, line: startLine, maxList: maxList}
}

// readInstance decodes instance idx of def into pm.
func (d *asciiDecoder) readInstance(def *ElementDef, idx int, pm PropertyMap) error {
	fields, err := d.nextDataLine()
	if err != nil {
		if err == io.EOF {
			return eofErrf("element %q payload (expected %d instances, got %d)", def.Name, def.Count, idx)
		}
		return fmt.Errorf("read payload: %w", err)
	}

	k := 0
	take := func(p *PropertyDef) (string, error) {
		if k >= len(fields) {
			return "", parseErrf(d.line, "element %q instance %d: expected value %d (%s), line has %d values",
				def.Name, idx, k+1, p.Name, len(fields))
		}
		tok := fields[k]
		k++
		return tok, nil
	}

	for pi := range def.Properties {
		p := &def.Properties[pi]
		if !p.Type.List {
			tok, err := take(p)
			if err != nil {
				return err
			}
			v, err := d.parseScalar(tok, p.Type.Kind)
			if err != nil {
				return err
			}
			pm.SetProperty(p.Name, v)
			continue
		}

		tok, err := take(p)
		if err != nil {
			return err
		}
		n, err := d.parseListCount(tok, def, p)
		if err != nil {
			return err
		}
		// Remaining tokens bound the allocation; a lying count fails in
		// take before the slice can grow past them.
		capHint := min(n, len(fields)-k)
		switch {
		case p.Type.Kind.IsInt():
			xs := make([]int64, 0, capHint)
			for j := 0; j < n; j++ {
				tok, err := take(p)
				if err != nil {
					return err
				}
				v, err := d.parseScalar(tok, p.Type.Kind)
				if err != nil {
					return err
				}
				xs = append(xs, v.i)
			}
			pm.SetProperty(p.Name, Value{typ: p.Type.Kind, list: true, ints: xs})
		case p.Type.Kind.IsUint():
			xs := make([]uint64, 0, capHint)
			for j := 0; j < n; j++ {
				tok, err := take(p)
				if err != nil {
					return err
				}
				v, err := d.parseScalar(tok, p.Type.Kind)
				if err != nil {
					return err
				}
				xs = append(xs, v.u)
			}
			pm.SetProperty(p.Name, Value{typ: p.Type.Kind, list: true, uints: xs})
		default:
			xs := make([]float64, 0, capHint)
			for j := 0; j < n; j++ {
				tok, err := take(p)
				if err != nil {
					return err
				}
				v, err := d.parseScalar(tok, p.Type.Kind)
				if err != nil {
					return err
				}
				xs = append(xs, v.f)
			}
			pm.SetProperty(p.Name, Value{typ: p.Type.Kind, list: true, floats: xs})
		}
	}

	if k != len(fields) {
		return parseErrf(d.line, "element %q instance %d: %d surplus values on line", def.Name, idx, len(fields)-k)
	}
	return nil
}

// nextDataLine returns the whitespace-split tokens of the next nonblank
// payload line.
func (d *asciiDecoder) nextDataLine() ([]string, error) {
	for {
		line, err := readPayloadLine(d.br)
		if err != nil {
			return nil, err
		}
		d.line++
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		return fields, nil
	}
}

// parseScalar parses one token under the declared type. The bit size
// handed to strconv matches the wire width, so out-of-range literals
// surface as RangeError rather than silent truncation.
func (d *asciiDecoder) parseScalar(tok string, t ScalarType) (Value, error) {
	bits := t.Width() * 8
	switch {
	case t.IsInt():
		n, err := strconv.ParseInt(tok, 10, bits)
		if err != nil {
			return Value{}, d.numErr(err, t, tok)
		}
		return Value{typ: t, i: n}, nil
	case t.IsUint():
		u := strings.TrimPrefix(tok, "+")
		n, err := strconv.ParseUint(u, 10, bits)
		if err != nil {
			return Value{}, d.numErr(err, t, tok)
		}
		return Value{typ: t, u: n}, nil
	default:
		f, err := strconv.ParseFloat(tok, bits)
		if err != nil {
			return Value{}, d.numErr(err, t, tok)
		}
		return Value{typ: t, f: f}, nil
	}
}

// parseListCount parses and bounds a list length token.
func (d *asciiDecoder) parseListCount(tok string, def *ElementDef, p *PropertyDef) (int, error) {
	v, err := d.parseScalar(tok, p.Type.Count)
	if err != nil {
		return 0, err
	}
	var n uint64
	if p.Type.Count.IsInt() {
		if v.i < 0 {
			return 0, parseErrf(d.line, "element %q property %q: list length cannot be negative (%d)",
				def.Name, p.Name, v.i)
		}
		n = uint64(v.i)
	} else {
		n = v.u
	}
	if n > uint64(d.maxList) {
		return 0, &OverflowError{
			What:  fmt.Sprintf("element %q property %q list", def.Name, p.Name),
			N:     n,
			Limit: uint64(d.maxList),
		}
	}
	return int(n), nil
}

func (d *asciiDecoder) numErr(err error, t ScalarType, tok string) error {
	if errors.Is(err, strconv.ErrRange) {
		return &RangeError{Type: t, Value: tok}
	}
	return parseErrf(d.line, "invalid %s value %q", t, tok)
}

// readPayloadLine consumes one line including its terminator, accepting
// \n, \r\n and bare \r. The final line of a stream may omit the
// terminator.
func readPayloadLine(br *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		c, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && sb.Len() > 0 {
				return sb.String(), nil
			}
			return "", err
		}
		switch c {
		case '\n':
			return sb.String(), nil
		case '\r':
			if next, err := br.Peek(1); err == nil && next[0] == '\n' {
				br.ReadByte()
			}
			return sb.String(), nil
		default:
			sb.WriteByte(c)
		}
	}
}
