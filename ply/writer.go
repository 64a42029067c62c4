package ply

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Writer emits a PLY stream: WriteHeader once, then WriteInstance per
// row, or WriteDocument for the whole thing. Values are converted to
// the declared property types with range checking as they are emitted.
// Not safe for concurrent use.
type Writer struct {
	w       io.Writer
	header  *Header
	order   binary.ByteOrder // nil while encoding is ascii
	scratch [8]byte
}

// NewWriter returns a Writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// WriteHeader validates h, emits it, and fixes the payload encoding for
// the instance writes that follow. Returns bytes written.
func (w *Writer) WriteHeader(h *Header) (int, error) {
	if w.header != nil {
		return 0, errors.New("header already written")
	}
	text, err := EmitHeader(h)
	if err != nil {
		return 0, err
	}
	n, err := io.WriteString(w.w, text)
	if err != nil {
		return n, fmt.Errorf("write header: %w", err)
	}
	w.header = h
	switch h.Encoding {
	case EncodingBinaryLittle:
		w.order = binary.LittleEndian
	case EncodingBinaryBig:
		w.order = binary.BigEndian
	}
	return n, nil
}

// WriteInstance emits one instance of def from pm. Returns bytes
// written.
func (w *Writer) WriteInstance(def *ElementDef, pm PropertyMap) (int, error) {
	if w.header == nil {
		return 0, errors.New("WriteHeader has not been called")
	}
	if w.header.Encoding == EncodingASCII {
		return w.writeASCIIInstance(def, pm)
	}
	return w.writeBinaryInstance(def, pm)
}

// WriteDocument validates doc, then emits header and payload. Returns
// total bytes written. Validation failures (count mismatches, missing
// properties) are reported before any byte reaches w.
func (w *Writer) WriteDocument(doc *Document) (int, error) {
	if err := ValidateDocument(doc); err != nil {
		return 0, err
	}
	return w.writeDocument(doc)
}

// WriteDocumentUnchecked emits doc without validating it first. The
// header's declared counts are emitted as-is, even when they disagree
// with the rows present.
func (w *Writer) WriteDocumentUnchecked(doc *Document) (int, error) {
	return w.writeDocument(doc)
}

func (w *Writer) writeDocument(doc *Document) (int, error) {
	total, err := w.WriteHeader(&doc.Header)
	if err != nil {
		return total, err
	}
	for i := range doc.Header.Elements {
		def := &doc.Header.Elements[i]
		for _, row := range doc.ElementData(def.Name) {
			n, err := w.WriteInstance(def, row)
			total += n
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// ============================================================
// ASCII instance emission
// ============================================================

func (w *Writer) writeASCIIInstance(def *ElementDef, pm PropertyMap) (int, error) {
	var sb strings.Builder
	for pi := range def.Properties {
		p := &def.Properties[pi]
		v, ok := pm.GetProperty(p.Name)
		if !ok {
			return 0, &MissingPropertyError{Element: def.Name, Property: p.Name}
		}
		if pi > 0 {
			sb.WriteByte(' ')
		}
		if p.Type.List {
			if !v.IsList() {
				return 0, fmt.Errorf("element %q property %q: scalar value for list property", def.Name, p.Name)
			}
			if err := w.appendASCIIScalar(&sb, p.Type.Count, Int64(int64(v.Len()))); err != nil {
				return 0, err
			}
			for i := 0; i < v.Len(); i++ {
				sb.WriteByte(' ')
				if err := w.appendASCIIScalar(&sb, p.Type.Kind, v.listElem(i)); err != nil {
					return 0, err
				}
			}
		} else {
			if err := w.appendASCIIScalar(&sb, p.Type.Kind, v); err != nil {
				return 0, err
			}
		}
	}
	sb.WriteByte('\n')
	n, err := io.WriteString(w.w, sb.String())
	if err != nil {
		return n, fmt.Errorf("write payload: %w", err)
	}
	return n, nil
}

// appendASCIIScalar formats v under the declared type t.
func (w *Writer) appendASCIIScalar(sb *strings.Builder, t ScalarType, v Value) error {
	switch {
	case t.IsInt():
		n, err := v.toSigned(t)
		if err != nil {
			return err
		}
		sb.WriteString(strconv.FormatInt(n, 10))
	case t.IsUint():
		n, err := v.toUnsigned(t)
		if err != nil {
			return err
		}
		sb.WriteString(strconv.FormatUint(n, 10))
	case t == TypeFloat:
		f, err := v.toFloat32()
		if err != nil {
			return err
		}
		sb.WriteString(strconv.FormatFloat(float64(f), 'g', -1, 32))
	default:
		f, err := v.toFloat()
		if err != nil {
			return err
		}
		sb.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
	}
	return nil
}

// ============================================================
// Binary instance emission
// ============================================================

func (w *Writer) writeBinaryInstance(def *ElementDef, pm PropertyMap) (int, error) {
	total := 0
	for pi := range def.Properties {
		p := &def.Properties[pi]
		v, ok := pm.GetProperty(p.Name)
		if !ok {
			return total, &MissingPropertyError{Element: def.Name, Property: p.Name}
		}
		if p.Type.List {
			if !v.IsList() {
				return total, fmt.Errorf("element %q property %q: scalar value for list property", def.Name, p.Name)
			}
			n, err := w.writeBinaryScalar(p.Type.Count, Int64(int64(v.Len())))
			total += n
			if err != nil {
				return total, err
			}
			for i := 0; i < v.Len(); i++ {
				n, err := w.writeBinaryScalar(p.Type.Kind, v.listElem(i))
				total += n
				if err != nil {
					return total, err
				}
			}
		} else {
			n, err := w.writeBinaryScalar(p.Type.Kind, v)
			total += n
			if err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

// writeBinaryScalar converts v to the declared type t and writes its
// wire bytes.
func (w *Writer) writeBinaryScalar(t ScalarType, v Value) (int, error) {
	buf := w.scratch[:t.Width()]
	switch t {
	case TypeChar:
		n, err := v.toSigned(t)
		if err != nil {
			return 0, err
		}
		buf[0] = byte(int8(n))
	case TypeUChar:
		n, err := v.toUnsigned(t)
		if err != nil {
			return 0, err
		}
		buf[0] = byte(n)
	case TypeShort:
		n, err := v.toSigned(t)
		if err != nil {
			return 0, err
		}
		w.order.PutUint16(buf, uint16(int16(n)))
	case TypeUShort:
		n, err := v.toUnsigned(t)
		if err != nil {
			return 0, err
		}
		w.order.PutUint16(buf, uint16(n))
	case TypeInt:
		n, err := v.toSigned(t)
		if err != nil {
			return 0, err
		}
		w.order.PutUint32(buf, uint32(int32(n)))
	case TypeUInt:
		n, err := v.toUnsigned(t)
		if err != nil {
			return 0, err
		}
		w.order.PutUint32(buf, uint32(n))
	case TypeFloat:
		f, err := v.toFloat32()
		if err != nil {
			return 0, err
		}
		w.order.PutUint32(buf, math.Float32bits(f))
	case TypeDouble:
		f, err := v.toFloat()
		if err != nil {
			return 0, err
		}
		w.order.PutUint64(buf, math.Float64bits(f))
	case TypeInt64:
		n, err := v.toSigned(t)
		if err != nil {
			return 0, err
		}
		w.order.PutUint64(buf, uint64(n))
	case TypeUInt64:
		n, err := v.toUnsigned(t)
		if err != nil {
			return 0, err
		}
		w.order.PutUint64(buf, n)
	default:
		return 0, fmt.Errorf("unknown scalar type %d", t)
	}
	n, err := w.w.Write(buf)
	if err != nil {
		return n, fmt.Errorf("write payload: %w", err)
	}
	return n, nil
}

// WriteDocument validates doc and writes it to w in doc's declared
// encoding, returning the total bytes written.
func WriteDocument(w io.Writer, doc *Document) (int, error) {
	return NewWriter(w).WriteDocument(doc)
}
