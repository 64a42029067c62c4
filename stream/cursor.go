package stream

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/Neumenon/ply/ply"
)

// Section records the byte extent of one element's payload block within
// the (decompressed) PLY stream. Extents partition the payload: each
// section begins where the previous one ends, and the first begins at
// the byte after the end_header line.
type Section struct {
	Name   string // element name
	Count  int    // declared instance count
	Offset int64  // byte offset of the block from the start of the stream
	Size   int64  // block length in bytes
	Stride int    // fixed bytes per instance; 0 for ASCII or list-bearing elements
}

// Skim parses the header and walks the payload without materializing
// any values, returning the byte extent of every element. Fixed-stride
// binary elements are skipped in one jump; list-bearing elements are
// walked count by count. For ASCII payloads instance lines are counted
// but never tokenized.
//
// Skim reads the stream exactly once and verifies that every declared
// instance is present, so it doubles as a cheap structural check.
func Skim(r io.Reader) (*ply.Header, []Section, error) {
	cr := &countingReader{r: r}
	br := bufio.NewReader(cr)
	h, err := ply.ParseHeader(br)
	if err != nil {
		return nil, nil, err
	}
	pos := func() int64 { return cr.n - int64(br.Buffered()) }

	sections := make([]Section, 0, len(h.Elements))
	for i := range h.Elements {
		def := &h.Elements[i]
		sec := Section{Name: def.Name, Count: def.Count, Offset: pos()}
		if h.Encoding == ply.EncodingASCII {
			err = skipASCII(br, def)
		} else {
			sec.Stride = strideOf(def)
			err = skipBinary(br, byteOrder(h.Encoding), def, sec.Stride)
		}
		if err != nil {
			return h, sections, err
		}
		sec.Size = pos() - sec.Offset
		sections = append(sections, sec)
	}
	return h, sections, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func byteOrder(e ply.Encoding) binary.ByteOrder {
	if e == ply.EncodingBinaryBig {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// strideOf returns the fixed byte width of one binary instance, or 0
// when any property is a list.
func strideOf(def *ply.ElementDef) int {
	stride := 0
	for i := range def.Properties {
		if def.Properties[i].Type.List {
			return 0
		}
		stride += def.Properties[i].Type.Kind.Width()
	}
	return stride
}

// skipASCII consumes def.Count instance lines, skipping blank ones,
// without tokenizing.
func skipASCII(br *bufio.Reader, def *ply.ElementDef) error {
	for got := 0; got < def.Count; {
		blank := true
		n := 0
		for {
			chunk, err := br.ReadSlice('\n')
			n += len(chunk)
			if blank {
				for _, c := range chunk {
					if c != ' ' && c != '\t' && c != '\r' && c != '\n' {
						blank = false
						break
					}
				}
			}
			if err == bufio.ErrBufferFull {
				continue
			}
			if err == io.EOF {
				// A nonblank final line without a newline still counts.
				if n > 0 && !blank {
					got++
				}
				if got < def.Count {
					return truncated(def, got)
				}
				return nil
			}
			if err != nil {
				return fmt.Errorf("read payload: %w", err)
			}
			break
		}
		if !blank {
			got++
		}
	}
	return nil
}

func skipBinary(br *bufio.Reader, order binary.ByteOrder, def *ply.ElementDef, stride int) error {
	if stride > 0 {
		want := int64(stride) * int64(def.Count)
		n, err := io.CopyN(io.Discard, br, want)
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return truncated(def, int(n)/stride)
		}
		if err != nil {
			return fmt.Errorf("read payload: %w", err)
		}
		return nil
	}

	var scratch [8]byte
	for i := 0; i < def.Count; i++ {
		for pi := range def.Properties {
			p := &def.Properties[pi]
			if !p.Type.List {
				if err := discard(br, int64(p.Type.Kind.Width())); err != nil {
					return skimErr(err, def, i)
				}
				continue
			}
			n, err := readListCount(br, order, p.Type.Count, scratch[:])
			if err != nil {
				return skimErr(err, def, i)
			}
			if n < 0 {
				return &ply.ParseError{Reason: fmt.Sprintf(
					"element %q instance %d: list length cannot be negative (%d)", def.Name, i, n)}
			}
			width := int64(p.Type.Kind.Width())
			if n > math.MaxInt64/width {
				return &ply.OverflowError{What: "list bytes", N: uint64(n), Limit: math.MaxInt64}
			}
			if err := discard(br, n*width); err != nil {
				return skimErr(err, def, i)
			}
		}
	}
	return nil
}

// readListCount decodes one list-count value. The grammar restricts
// count types to integers, so floats cannot reach here.
func readListCount(br *bufio.Reader, order binary.ByteOrder, t ply.ScalarType, scratch []byte) (int64, error) {
	b := scratch[:t.Width()]
	if _, err := io.ReadFull(br, b); err != nil {
		return 0, err
	}
	switch t {
	case ply.TypeChar:
		return int64(int8(b[0])), nil
	case ply.TypeUChar:
		return int64(b[0]), nil
	case ply.TypeShort:
		return int64(int16(order.Uint16(b))), nil
	case ply.TypeUShort:
		return int64(order.Uint16(b)), nil
	case ply.TypeInt:
		return int64(int32(order.Uint32(b))), nil
	case ply.TypeUInt:
		return int64(order.Uint32(b)), nil
	case ply.TypeInt64:
		return int64(order.Uint64(b)), nil
	case ply.TypeUInt64:
		u := order.Uint64(b)
		if u > math.MaxInt64 {
			return 0, &ply.OverflowError{What: "list length", N: u, Limit: math.MaxInt64}
		}
		return int64(u), nil
	default:
		return 0, fmt.Errorf("list count type %s is not an integer", t)
	}
}

func discard(br *bufio.Reader, n int64) error {
	if n == 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, br, n)
	return err
}

func skimErr(err error, def *ply.ElementDef, instance int) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return truncated(def, instance)
	}
	switch err.(type) {
	case *ply.ParseError, *ply.OverflowError:
		return err
	}
	return fmt.Errorf("read payload: %w", err)
}

func truncated(def *ply.ElementDef, got int) error {
	return &ply.UnexpectedEOFError{What: fmt.Sprintf(
		"element %q payload (expected %d instances, got %d)", def.Name, def.Count, got)}
}
