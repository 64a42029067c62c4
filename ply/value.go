package ply

import (
	"fmt"
	"math"
	"strconv"
)

// Value represents one property value: a scalar of any PLY type or a
// list. Storage is widened into three classes (signed, unsigned, float)
// while the declared ScalarType is kept so re-emission is exact.
type Value struct {
	typ  ScalarType
	list bool

	// Scalar storage; the valid field follows the class of typ
	i int64
	u uint64
	f float64

	// List storage; the valid field follows the class of typ
	ints   []int64
	uints  []uint64
	floats []float64
}

// Kind returns the declared scalar type (for lists, the value type).
func (v Value) Kind() ScalarType { return v.typ }

// IsList reports whether the value is a list.
func (v Value) IsList() bool { return v.list }

// Len returns the number of list entries, or 0 for scalars.
func (v Value) Len() int {
	switch {
	case !v.list:
		return 0
	case v.typ.IsInt():
		return len(v.ints)
	case v.typ.IsUint():
		return len(v.uints)
	default:
		return len(v.floats)
	}
}

// ============================================================
// Constructors
// ============================================================

// Char returns a char scalar.
func Char(v int8) Value { return Value{typ: TypeChar, i: int64(v)} }

// UChar returns a uchar scalar.
func UChar(v uint8) Value { return Value{typ: TypeUChar, u: uint64(v)} }

// Short returns a short scalar.
func Short(v int16) Value { return Value{typ: TypeShort, i: int64(v)} }

// UShort returns a ushort scalar.
func UShort(v uint16) Value { return Value{typ: TypeUShort, u: uint64(v)} }

// Int returns an int scalar.
func Int(v int32) Value { return Value{typ: TypeInt, i: int64(v)} }

// UInt returns a uint scalar.
func UInt(v uint32) Value { return Value{typ: TypeUInt, u: uint64(v)} }

// Float returns a float scalar.
func Float(v float32) Value { return Value{typ: TypeFloat, f: float64(v)} }

// Double returns a double scalar.
func Double(v float64) Value { return Value{typ: TypeDouble, f: v} }

// Int64 returns an int64 scalar (nonstandard extension type).
func Int64(v int64) Value { return Value{typ: TypeInt64, i: v} }

// UInt64 returns a uint64 scalar (nonstandard extension type).
func UInt64(v uint64) Value { return Value{typ: TypeUInt64, u: v} }

// CharList returns a list of char values.
func CharList(vs []int8) Value {
	ints := make([]int64, len(vs))
	for i, x := range vs {
		ints[i] = int64(x)
	}
	return Value{typ: TypeChar, list: true, ints: ints}
}

// UCharList returns a list of uchar values.
func UCharList(vs []uint8) Value {
	uints := make([]uint64, len(vs))
	for i, x := range vs {
		uints[i] = uint64(x)
	}
	return Value{typ: TypeUChar, list: true, uints: uints}
}

// ShortList returns a list of short values.
func ShortList(vs []int16) Value {
	ints := make([]int64, len(vs))
	for i, x := range vs {
		ints[i] = int64(x)
	}
	return Value{typ: TypeShort, list: true, ints: ints}
}

// UShortList returns a list of ushort values.
func UShortList(vs []uint16) Value {
	uints := make([]uint64, len(vs))
	for i, x := range vs {
		uints[i] = uint64(x)
	}
	return Value{typ: TypeUShort, list: true, uints: uints}
}

// IntList returns a list of int values.
func IntList(vs []int32) Value {
	ints := make([]int64, len(vs))
	for i, x := range vs {
		ints[i] = int64(x)
	}
	return Value{typ: TypeInt, list: true, ints: ints}
}

// UIntList returns a list of uint values.
func UIntList(vs []uint32) Value {
	uints := make([]uint64, len(vs))
	for i, x := range vs {
		uints[i] = uint64(x)
	}
	return Value{typ: TypeUInt, list: true, uints: uints}
}

// FloatList returns a list of float values.
func FloatList(vs []float32) Value {
	floats := make([]float64, len(vs))
	for i, x := range vs {
		floats[i] = float64(x)
	}
	return Value{typ: TypeFloat, list: true, floats: floats}
}

// DoubleList returns a list of double values.
func DoubleList(vs []float64) Value {
	floats := make([]float64, len(vs))
	copy(floats, vs)
	return Value{typ: TypeDouble, list: true, floats: floats}
}

// Int64List returns a list of int64 values (nonstandard extension type).
func Int64List(vs []int64) Value {
	ints := make([]int64, len(vs))
	copy(ints, vs)
	return Value{typ: TypeInt64, list: true, ints: ints}
}

// UInt64List returns a list of uint64 values (nonstandard extension type).
func UInt64List(vs []uint64) Value {
	uints := make([]uint64, len(vs))
	copy(uints, vs)
	return Value{typ: TypeUInt64, list: true, uints: uints}
}

// ============================================================
// Borrowed list access
// ============================================================

// Ints returns the backing slice of a signed-integer list without
// copying. ok is false when the value is not a signed-integer list.
func (v Value) Ints() ([]int64, bool) {
	if v.list && v.typ.IsInt() {
		return v.ints, true
	}
	return nil, false
}

// Uints returns the backing slice of an unsigned-integer list without
// copying. ok is false when the value is not an unsigned-integer list.
func (v Value) Uints() ([]uint64, bool) {
	if v.list && v.typ.IsUint() {
		return v.uints, true
	}
	return nil, false
}

// Floats returns the backing slice of a float list without copying.
// ok is false when the value is not a float list.
func (v Value) Floats() ([]float64, bool) {
	if v.list && v.typ.IsFloat() {
		return v.floats, true
	}
	return nil, false
}

// listElem returns entry i of a list as a scalar Value of the same
// declared type. Caller guarantees v.list and i < v.Len().
func (v Value) listElem(i int) Value {
	switch {
	case v.typ.IsInt():
		return Value{typ: v.typ, i: v.ints[i]}
	case v.typ.IsUint():
		return Value{typ: v.typ, u: v.uints[i]}
	default:
		return Value{typ: v.typ, f: v.floats[i]}
	}
}

// ============================================================
// Checked scalar conversion
// ============================================================

// Exact float64 powers of two bracketing the 64-bit integer ranges.
// MaxInt64 and MaxUint64 themselves round up when converted to float64,
// so comparisons use the next power of two with >=.
const (
	twoPow63 = 9223372036854775808.0
	twoPow64 = 18446744073709551616.0
)

// signedBounds returns the value range of a signed scalar type.
func signedBounds(t ScalarType) (int64, int64) {
	switch t {
	case TypeChar:
		return math.MinInt8, math.MaxInt8
	case TypeShort:
		return math.MinInt16, math.MaxInt16
	case TypeInt:
		return math.MinInt32, math.MaxInt32
	default:
		return math.MinInt64, math.MaxInt64
	}
}

// unsignedMax returns the maximum value of an unsigned scalar type.
func unsignedMax(t ScalarType) uint64 {
	switch t {
	case TypeUChar:
		return math.MaxUint8
	case TypeUShort:
		return math.MaxUint16
	case TypeUInt:
		return math.MaxUint32
	default:
		return math.MaxUint64
	}
}

// toSigned converts the scalar to a signed integer range-checked against
// target. Floats must hold an exact integral value.
func (v Value) toSigned(target ScalarType) (int64, error) {
	if v.list {
		return 0, fmt.Errorf("cannot convert %s list to %s scalar", v.typ, target)
	}
	min, max := signedBounds(target)
	switch {
	case v.typ.IsInt():
		if v.i < min || v.i > max {
			return 0, &RangeError{Type: target, Value: strconv.FormatInt(v.i, 10)}
		}
		return v.i, nil
	case v.typ.IsUint():
		if v.u > uint64(max) {
			return 0, &RangeError{Type: target, Value: strconv.FormatUint(v.u, 10)}
		}
		return int64(v.u), nil
	default:
		f := v.f
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
			return 0, &RangeError{Type: target, Value: formatFloat(f, 64)}
		}
		if target == TypeInt64 {
			if f < -twoPow63 || f >= twoPow63 {
				return 0, &RangeError{Type: target, Value: formatFloat(f, 64)}
			}
		} else if f < float64(min) || f > float64(max) {
			return 0, &RangeError{Type: target, Value: formatFloat(f, 64)}
		}
		return int64(f), nil
	}
}

// toUnsigned converts the scalar to an unsigned integer range-checked
// against target. Floats must hold an exact integral value.
func (v Value) toUnsigned(target ScalarType) (uint64, error) {
	if v.list {
		return 0, fmt.Errorf("cannot convert %s list to %s scalar", v.typ, target)
	}
	max := unsignedMax(target)
	switch {
	case v.typ.IsInt():
		if v.i < 0 || uint64(v.i) > max {
			return 0, &RangeError{Type: target, Value: strconv.FormatInt(v.i, 10)}
		}
		return uint64(v.i), nil
	case v.typ.IsUint():
		if v.u > max {
			return 0, &RangeError{Type: target, Value: strconv.FormatUint(v.u, 10)}
		}
		return v.u, nil
	default:
		f := v.f
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f || f < 0 {
			return 0, &RangeError{Type: target, Value: formatFloat(f, 64)}
		}
		if target == TypeUInt64 {
			if f >= twoPow64 {
				return 0, &RangeError{Type: target, Value: formatFloat(f, 64)}
			}
		} else if f > float64(max) {
			return 0, &RangeError{Type: target, Value: formatFloat(f, 64)}
		}
		return uint64(f), nil
	}
}

// toFloat converts the scalar to float64. Integer sources always
// succeed; 64-bit magnitudes round.
func (v Value) toFloat() (float64, error) {
	if v.list {
		return 0, fmt.Errorf("cannot convert %s list to float scalar", v.typ)
	}
	switch {
	case v.typ.IsInt():
		return float64(v.i), nil
	case v.typ.IsUint():
		return float64(v.u), nil
	default:
		return v.f, nil
	}
}

// toFloat32 converts the scalar to float32, rejecting finite doubles
// whose magnitude exceeds the float32 range.
func (v Value) toFloat32() (float32, error) {
	f, err := v.toFloat()
	if err != nil {
		return 0, err
	}
	if v.typ == TypeDouble && !math.IsNaN(f) && !math.IsInf(f, 0) && math.Abs(f) > math.MaxFloat32 {
		return 0, &RangeError{Type: TypeFloat, Value: formatFloat(f, 64)}
	}
	return float32(f), nil
}

// AsInt8 returns the scalar as int8.
func (v Value) AsInt8() (int8, error) {
	n, err := v.toSigned(TypeChar)
	return int8(n), err
}

// AsUint8 returns the scalar as uint8.
func (v Value) AsUint8() (uint8, error) {
	n, err := v.toUnsigned(TypeUChar)
	return uint8(n), err
}

// AsInt16 returns the scalar as int16.
func (v Value) AsInt16() (int16, error) {
	n, err := v.toSigned(TypeShort)
	return int16(n), err
}

// AsUint16 returns the scalar as uint16.
func (v Value) AsUint16() (uint16, error) {
	n, err := v.toUnsigned(TypeUShort)
	return uint16(n), err
}

// AsInt32 returns the scalar as int32.
func (v Value) AsInt32() (int32, error) {
	n, err := v.toSigned(TypeInt)
	return int32(n), err
}

// AsUint32 returns the scalar as uint32.
func (v Value) AsUint32() (uint32, error) {
	n, err := v.toUnsigned(TypeUInt)
	return uint32(n), err
}

// AsInt64 returns the scalar as int64.
func (v Value) AsInt64() (int64, error) {
	return v.toSigned(TypeInt64)
}

// AsUint64 returns the scalar as uint64.
func (v Value) AsUint64() (uint64, error) {
	return v.toUnsigned(TypeUInt64)
}

// AsFloat32 returns the scalar as float32.
func (v Value) AsFloat32() (float32, error) {
	return v.toFloat32()
}

// AsFloat64 returns the scalar as float64.
func (v Value) AsFloat64() (float64, error) {
	return v.toFloat()
}

// ============================================================
// Checked list conversion
// ============================================================

// signedSlice converts every list entry to a signed integer checked
// against target.
func (v Value) signedSlice(target ScalarType) ([]int64, error) {
	if !v.list {
		return nil, fmt.Errorf("cannot convert %s scalar to %s list", v.typ, target)
	}
	out := make([]int64, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		n, err := v.listElem(i).toSigned(target)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// unsignedSlice converts every list entry to an unsigned integer
// checked against target.
func (v Value) unsignedSlice(target ScalarType) ([]uint64, error) {
	if !v.list {
		return nil, fmt.Errorf("cannot convert %s scalar to %s list", v.typ, target)
	}
	out := make([]uint64, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		n, err := v.listElem(i).toUnsigned(target)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}

// AsInt8Slice returns the list as []int8.
func (v Value) AsInt8Slice() ([]int8, error) {
	xs, err := v.signedSlice(TypeChar)
	if err != nil {
		return nil, err
	}
	out := make([]int8, len(xs))
	for i, x := range xs {
		out[i] = int8(x)
	}
	return out, nil
}

// AsUint8Slice returns the list as []uint8.
func (v Value) AsUint8Slice() ([]uint8, error) {
	xs, err := v.unsignedSlice(TypeUChar)
	if err != nil {
		return nil, err
	}
	out := make([]uint8, len(xs))
	for i, x := range xs {
		out[i] = uint8(x)
	}
	return out, nil
}

// AsInt16Slice returns the list as []int16.
func (v Value) AsInt16Slice() ([]int16, error) {
	xs, err := v.signedSlice(TypeShort)
	if err != nil {
		return nil, err
	}
	out := make([]int16, len(xs))
	for i, x := range xs {
		out[i] = int16(x)
	}
	return out, nil
}

// AsUint16Slice returns the list as []uint16.
func (v Value) AsUint16Slice() ([]uint16, error) {
	xs, err := v.unsignedSlice(TypeUShort)
	if err != nil {
		return nil, err
	}
	out := make([]uint16, len(xs))
	for i, x := range xs {
		out[i] = uint16(x)
	}
	return out, nil
}

// AsInt32Slice returns the list as []int32.
func (v Value) AsInt32Slice() ([]int32, error) {
	xs, err := v.signedSlice(TypeInt)
	if err != nil {
		return nil, err
	}
	out := make([]int32, len(xs))
	for i, x := range xs {
		out[i] = int32(x)
	}
	return out, nil
}

// AsUint32Slice returns the list as []uint32.
func (v Value) AsUint32Slice() ([]uint32, error) {
	xs, err := v.unsignedSlice(TypeUInt)
	if err != nil {
		return nil, err
	}
	out := make([]uint32, len(xs))
	for i, x := range xs {
		out[i] = uint32(x)
	}
	return out, nil
}

// AsInt64Slice returns the list as []int64.
func (v Value) AsInt64Slice() ([]int64, error) {
	return v.signedSlice(TypeInt64)
}

// AsUint64Slice returns the list as []uint64.
func (v Value) AsUint64Slice() ([]uint64, error) {
	return v.unsignedSlice(TypeUInt64)
}

// AsFloat32Slice returns the list as []float32.
func (v Value) AsFloat32Slice() ([]float32, error) {
	if !v.list {
		return nil, fmt.Errorf("cannot convert %s scalar to float list", v.typ)
	}
	out := make([]float32, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		f, err := v.listElem(i).toFloat32()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// AsFloat64Slice returns the list as []float64.
func (v Value) AsFloat64Slice() ([]float64, error) {
	if !v.list {
		return nil, fmt.Errorf("cannot convert %s scalar to float list", v.typ)
	}
	out := make([]float64, 0, v.Len())
	for i := 0; i < v.Len(); i++ {
		f, err := v.listElem(i).toFloat()
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// formatFloat renders a float the way the ASCII encoder does.
func formatFloat(f float64, bits int) string {
	return strconv.FormatFloat(f, 'g', -1, bits)
}
