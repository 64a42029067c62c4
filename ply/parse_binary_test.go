package ply

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"testing"
)

const triangleBinaryHeader = `ply
format binary_little_endian 1.0
element vertex 3
property float x
property float y
property float z
element face 1
property list uchar int vertex_indices
end_header
`

func triangleBinary(order binary.ByteOrder) []byte {
	header := triangleBinaryHeader
	if order == binary.BigEndian {
		header = "ply\nformat binary_big_endian 1.0\n" + triangleBinaryHeader[len("ply\nformat binary_little_endian 1.0\n"):]
	}
	var buf bytes.Buffer
	buf.WriteString(header)
	for _, f := range []float32{0, 0, 0, 1, 0, 0, 0, 1, 0} {
		binary.Write(&buf, order, f)
	}
	buf.WriteByte(3)
	for _, n := range []int32{0, 1, 2} {
		binary.Write(&buf, order, n)
	}
	return buf.Bytes()
}

func checkTriangle(t *testing.T, doc *Document) {
	t.Helper()
	if x, err := doc.PropertyFloat64("vertex", 1, "x"); err != nil || x != 1 {
		t.Errorf("vertex[1].x = %v, %v", x, err)
	}
	if y, err := doc.PropertyFloat64("vertex", 2, "y"); err != nil || y != 1 {
		t.Errorf("vertex[2].y = %v, %v", y, err)
	}
	v, ok := doc.ElementData("face")[0].GetProperty("vertex_indices")
	if !ok {
		t.Fatal("face missing vertex_indices")
	}
	idx, err := v.AsInt32Slice()
	if err != nil || len(idx) != 3 || idx[2] != 2 {
		t.Errorf("vertex_indices = %v, %v", idx, err)
	}
}

func TestReadBinaryLittleEndian(t *testing.T) {
	doc, err := ReadDocument(bytes.NewReader(triangleBinary(binary.LittleEndian)))
	if err != nil {
		t.Fatalf("ReadDocument error: %v", err)
	}
	checkTriangle(t, doc)
}

func TestReadBinaryBigEndian(t *testing.T) {
	doc, err := ReadDocument(bytes.NewReader(triangleBinary(binary.BigEndian)))
	if err != nil {
		t.Fatalf("ReadDocument error: %v", err)
	}
	checkTriangle(t, doc)
}

func TestBinaryAllScalarTypes(t *testing.T) {
	header := `ply
format binary_little_endian 1.0
element sample 1
property char a
property uchar b
property short c
property ushort d
property int e
property uint f
property int64 g
property uint64 h
property float i
property double j
end_header
`
	var buf bytes.Buffer
	buf.WriteString(header)
	for _, v := range []any{
		int8(-5), uint8(200), int16(-1000), uint16(50000),
		int32(-100000), uint32(3000000000),
		int64(math.MinInt64), uint64(math.MaxUint64),
		float32(1.5), float64(-2.25),
	} {
		binary.Write(&buf, binary.LittleEndian, v)
	}

	doc, err := ReadDocument(&buf)
	if err != nil {
		t.Fatalf("ReadDocument error: %v", err)
	}
	row := doc.ElementData("sample")[0]

	get := func(name string) Value {
		t.Helper()
		v, ok := row.GetProperty(name)
		if !ok {
			t.Fatalf("missing property %q", name)
		}
		return v
	}

	if n, err := get("a").AsInt8(); err != nil || n != -5 {
		t.Errorf("a = %v, %v", n, err)
	}
	if n, err := get("b").AsUint8(); err != nil || n != 200 {
		t.Errorf("b = %v, %v", n, err)
	}
	if n, err := get("c").AsInt16(); err != nil || n != -1000 {
		t.Errorf("c = %v, %v", n, err)
	}
	if n, err := get("d").AsUint16(); err != nil || n != 50000 {
		t.Errorf("d = %v, %v", n, err)
	}
	if n, err := get("e").AsInt32(); err != nil || n != -100000 {
		t.Errorf("e = %v, %v", n, err)
	}
	if n, err := get("f").AsUint32(); err != nil || n != 3000000000 {
		t.Errorf("f = %v, %v", n, err)
	}
	if n, err := get("g").AsInt64(); err != nil || n != math.MinInt64 {
		t.Errorf("g = %v, %v", n, err)
	}
	if n, err := get("h").AsUint64(); err != nil || n != math.MaxUint64 {
		t.Errorf("h = %v, %v", n, err)
	}
	if f, err := get("i").AsFloat32(); err != nil || f != 1.5 {
		t.Errorf("i = %v, %v", f, err)
	}
	if f, err := get("j").AsFloat64(); err != nil || f != -2.25 {
		t.Errorf("j = %v, %v", f, err)
	}
	if got := get("g").Kind(); got != TypeInt64 {
		t.Errorf("g Kind = %v, want int64", got)
	}
	if got := get("i").Kind(); got != TypeFloat {
		t.Errorf("i Kind = %v, want float", got)
	}
}

func TestBinaryEmptyAndFullList(t *testing.T) {
	header := "ply\nformat binary_little_endian 1.0\nelement face 2\nproperty list uchar short idx\nend_header\n"
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteByte(0)
	buf.WriteByte(2)
	binary.Write(&buf, binary.LittleEndian, int16(-7))
	binary.Write(&buf, binary.LittleEndian, int16(9))

	doc, err := ReadDocument(&buf)
	if err != nil {
		t.Fatalf("ReadDocument error: %v", err)
	}
	v, _ := doc.ElementData("face")[0].GetProperty("idx")
	if v.Len() != 0 || !v.IsList() {
		t.Errorf("face[0].idx Len=%d IsList=%v", v.Len(), v.IsList())
	}
	v, _ = doc.ElementData("face")[1].GetProperty("idx")
	xs, err := v.AsInt16Slice()
	if err != nil || len(xs) != 2 || xs[0] != -7 || xs[1] != 9 {
		t.Errorf("face[1].idx = %v, %v", xs, err)
	}
}

func TestBinaryTruncated(t *testing.T) {
	header := "ply\nformat binary_little_endian 1.0\nelement vertex 2\nproperty float x\nend_header\n"

	// One whole instance present, the second absent entirely.
	var buf bytes.Buffer
	buf.WriteString(header)
	binary.Write(&buf, binary.LittleEndian, float32(1))

	_, err := ReadDocument(&buf)
	var ee *UnexpectedEOFError
	if !errors.As(err, &ee) {
		t.Fatalf("got %v (%T), want UnexpectedEOFError", err, err)
	}
	want := `element "vertex" payload (expected 2 instances, got 1)`
	if ee.What != want {
		t.Errorf("What = %q, want %q", ee.What, want)
	}
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Error("does not unwrap to io.ErrUnexpectedEOF")
	}

	// Truncation inside an instance reports the same way.
	buf.Reset()
	buf.WriteString(header)
	buf.Write([]byte{0, 0})

	_, err = ReadDocument(&buf)
	if !errors.As(err, &ee) {
		t.Fatalf("got %v (%T), want UnexpectedEOFError", err, err)
	}
	if ee.What != `element "vertex" payload (expected 2 instances, got 0)` {
		t.Errorf("What = %q", ee.What)
	}
}

func TestBinaryTruncatedList(t *testing.T) {
	header := "ply\nformat binary_little_endian 1.0\nelement face 1\nproperty list uchar int idx\nend_header\n"
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteByte(3)
	binary.Write(&buf, binary.LittleEndian, int32(5))

	_, err := ReadDocument(&buf)
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("got %v, want unexpected EOF", err)
	}
}

func TestBinaryNegativeListLength(t *testing.T) {
	header := "ply\nformat binary_little_endian 1.0\nelement face 1\nproperty list char int idx\nend_header\n"
	var buf bytes.Buffer
	buf.WriteString(header)
	buf.WriteByte(0xFF) // char -1

	_, err := ReadDocument(&buf)
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v (%T), want ParseError", err, err)
	}
	if pe.Line != 0 {
		t.Errorf("Line = %d, want 0 for binary payloads", pe.Line)
	}
	want := `element "face" property "idx": list length cannot be negative (-1)`
	if pe.Reason != want {
		t.Errorf("Reason = %q, want %q", pe.Reason, want)
	}
}

func TestBinaryListTooLong(t *testing.T) {
	header := "ply\nformat binary_little_endian 1.0\nelement face 1\nproperty list uint int idx\nend_header\n"

	var buf bytes.Buffer
	buf.WriteString(header)
	binary.Write(&buf, binary.LittleEndian, uint32(5))

	_, err := ReadDocument(&buf, WithMaxListLen(4))
	var oe *OverflowError
	if !errors.As(err, &oe) {
		t.Fatalf("got %v (%T), want OverflowError", err, err)
	}
	if oe.N != 5 || oe.Limit != 4 {
		t.Errorf("N=%d Limit=%d, want 5 and 4", oe.N, oe.Limit)
	}

	// A wildly large declared count trips the default limit before any
	// allocation happens.
	buf.Reset()
	buf.WriteString(header)
	binary.Write(&buf, binary.LittleEndian, uint32(0xFFFFFFFF))

	_, err = ReadDocument(&buf)
	if !errors.As(err, &oe) {
		t.Fatalf("got %v (%T), want OverflowError", err, err)
	}
	if oe.Limit != DefaultMaxListLen {
		t.Errorf("Limit = %d, want DefaultMaxListLen", oe.Limit)
	}
}

func TestBinaryTrailingBytes(t *testing.T) {
	data := append(triangleBinary(binary.LittleEndian), []byte("EXTRA")...)
	r := NewReader(bytes.NewReader(data))
	if _, err := r.ReadHeader(); err != nil {
		t.Fatalf("ReadHeader error: %v", err)
	}
	if _, err := r.ReadAll(); err != nil {
		t.Fatalf("ReadAll error: %v", err)
	}
	rest, err := io.ReadAll(r.BufferedReader())
	if err != nil || string(rest) != "EXTRA" {
		t.Errorf("trailing bytes = %q, %v", rest, err)
	}
}
