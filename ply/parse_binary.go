package ply

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// listChunk caps the initial allocation for a binary list. Growth past
// it happens only as bytes actually arrive, so a declared length can
// never force an allocation larger than roughly twice the real data.
const listChunk = 4096

// binaryDecoder decodes fixed-width payload instances in the header's
// byte order.
type binaryDecoder struct {
	br      *bufio.Reader
	order   binary.ByteOrder
	maxList int
	scratch [8]byte
}

func newBinaryDecoder(br *bufio.Reader, order binary.ByteOrder, maxList int) *binaryDecoder {
	return &binaryDecoder{br: br, order: order, maxList: maxList}
}

// readInstance decodes instance idx of def into pm.
func (d *binaryDecoder) readInstance(def *ElementDef, idx int, pm PropertyMap) error {
	for pi := range def.Properties {
		p := &def.Properties[pi]
		if !p.Type.List {
			v, err := d.readScalar(p.Type.Kind)
			if err != nil {
				return d.readErr(err, def, idx)
			}
			pm.SetProperty(p.Name, v)
			continue
		}

		cv, err := d.readScalar(p.Type.Count)
		if err != nil {
			return d.readErr(err, def, idx)
		}
		n, err := d.listLen(cv, def, p)
		if err != nil {
			return err
		}
		switch {
		case p.Type.Kind.IsInt():
			xs := make([]int64, 0, min(n, listChunk))
			for j := 0; j < n; j++ {
				v, err := d.readScalar(p.Type.Kind)
				if err != nil {
					return d.readErr(err, def, idx)
				}
				xs = append(xs, v.i)
			}
			pm.SetProperty(p.Name, Value{typ: p.Type.Kind, list: true, ints: xs})
		case p.Type.Kind.IsUint():
			xs := make([]uint64, 0, min(n, listChunk))
			for j := 0; j < n; j++ {
				v, err := d.readScalar(p.Type.Kind)
				if err != nil {
					return d.readErr(err, def, idx)
				}
				xs = append(xs, v.u)
			}
			pm.SetProperty(p.Name, Value{typ: p.Type.Kind, list: true, uints: xs})
		default:
			xs := make([]float64, 0, min(n, listChunk))
			for j := 0; j < n; j++ {
				v, err := d.readScalar(p.Type.Kind)
				if err != nil {
					return d.readErr(err, def, idx)
				}
				xs = append(xs, v.f)
			}
			pm.SetProperty(p.Name, Value{typ: p.Type.Kind, list: true, floats: xs})
		}
	}
	return nil
}

// readScalar reads one scalar of type t.
func (d *binaryDecoder) readScalar(t ScalarType) (Value, error) {
	buf := d.scratch[:t.Width()]
	if _, err := io.ReadFull(d.br, buf); err != nil {
		return Value{}, err
	}
	switch t {
	case TypeChar:
		return Value{typ: t, i: int64(int8(buf[0]))}, nil
	case TypeUChar:
		return Value{typ: t, u: uint64(buf[0])}, nil
	case TypeShort:
		return Value{typ: t, i: int64(int16(d.order.Uint16(buf)))}, nil
	case TypeUShort:
		return Value{typ: t, u: uint64(d.order.Uint16(buf))}, nil
	case TypeInt:
		return Value{typ: t, i: int64(int32(d.order.Uint32(buf)))}, nil
	case TypeUInt:
		return Value{typ: t, u: uint64(d.order.Uint32(buf))}, nil
	case TypeFloat:
		return Value{typ: t, f: float64(math.Float32frombits(d.order.Uint32(buf)))}, nil
	case TypeDouble:
		return Value{typ: t, f: math.Float64frombits(d.order.Uint64(buf))}, nil
	case TypeInt64:
		return Value{typ: t, i: int64(d.order.Uint64(buf))}, nil
	case TypeUInt64:
		return Value{typ: t, u: d.order.Uint64(buf)}, nil
	default:
		return Value{}, fmt.Errorf("unknown scalar type %d", t)
	}
}

// listLen validates a decoded list count before anything is allocated.
func (d *binaryDecoder) listLen(cv Value, def *ElementDef, p *PropertyDef) (int, error) {
	var n uint64
	if p.Type.Count.IsInt() {
		if cv.i < 0 {
			return 0, &ParseError{Reason: fmt.Sprintf("element %q property %q: list length cannot be negative (%d)",
				def.Name, p.Name, cv.i)}
		}
		n = uint64(cv.i)
	} else {
		n = cv.u
	}
	if n > uint64(d.maxList) {
		return 0, &OverflowError{
			What:  fmt.Sprintf("element %q property %q list", def.Name, p.Name),
			N:     n,
			Limit: uint64(d.maxList),
		}
	}
	width := uint64(p.Type.Kind.Width())
	if n > math.MaxInt64/width {
		return 0, &OverflowError{
			What:  fmt.Sprintf("element %q property %q list bytes", def.Name, p.Name),
			N:     n,
			Limit: math.MaxInt64 / width,
		}
	}
	return int(n), nil
}

// readErr maps a raw read failure to the reported error. Truncation
// inside a declared payload region carries the element and how far the
// decode got.
func (d *binaryDecoder) readErr(err error, def *ElementDef, idx int) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return eofErrf("element %q payload (expected %d instances, got %d)", def.Name, def.Count, idx)
	}
	return fmt.Errorf("read payload: %w", err)
}
