package ply

import (
	"fmt"
)

// ScalarType identifies a PLY scalar wire type.
type ScalarType uint8

const (
	TypeChar   ScalarType = iota // 1-byte signed
	TypeUChar                    // 1-byte unsigned
	TypeShort                    // 2-byte signed
	TypeUShort                   // 2-byte unsigned
	TypeInt                      // 4-byte signed
	TypeUInt                     // 4-byte unsigned
	TypeFloat                    // 4-byte IEEE 754
	TypeDouble                   // 8-byte IEEE 754
	TypeInt64                    // 8-byte signed (nonstandard extension)
	TypeUInt64                   // 8-byte unsigned (nonstandard extension)
)

// String returns the canonical wire name.
func (t ScalarType) String() string {
	switch t {
	case TypeChar:
		return "char"
	case TypeUChar:
		return "uchar"
	case TypeShort:
		return "short"
	case TypeUShort:
		return "ushort"
	case TypeInt:
		return "int"
	case TypeUInt:
		return "uint"
	case TypeFloat:
		return "float"
	case TypeDouble:
		return "double"
	case TypeInt64:
		return "int64"
	case TypeUInt64:
		return "uint64"
	default:
		return "unknown"
	}
}

// Width returns the encoded size in bytes.
func (t ScalarType) Width() int {
	switch t {
	case TypeChar, TypeUChar:
		return 1
	case TypeShort, TypeUShort:
		return 2
	case TypeInt, TypeUInt, TypeFloat:
		return 4
	case TypeDouble, TypeInt64, TypeUInt64:
		return 8
	default:
		return 0
	}
}

// IsInt reports whether t is a signed integer type.
func (t ScalarType) IsInt() bool {
	switch t {
	case TypeChar, TypeShort, TypeInt, TypeInt64:
		return true
	}
	return false
}

// IsUint reports whether t is an unsigned integer type.
func (t ScalarType) IsUint() bool {
	switch t {
	case TypeUChar, TypeUShort, TypeUInt, TypeUInt64:
		return true
	}
	return false
}

// IsFloat reports whether t is a floating-point type.
func (t ScalarType) IsFloat() bool {
	return t == TypeFloat || t == TypeDouble
}

// ParseScalarType resolves a wire name to a ScalarType. Both the
// canonical names and the sized synonyms (int8, uint16, float32, ...)
// are accepted.
func ParseScalarType(s string) (ScalarType, error) {
	switch s {
	case "char", "int8":
		return TypeChar, nil
	case "uchar", "uint8":
		return TypeUChar, nil
	case "short", "int16":
		return TypeShort, nil
	case "ushort", "uint16":
		return TypeUShort, nil
	case "int", "int32":
		return TypeInt, nil
	case "uint", "uint32":
		return TypeUInt, nil
	case "float", "float32":
		return TypeFloat, nil
	case "double", "float64":
		return TypeDouble, nil
	case "int64":
		return TypeInt64, nil
	case "uint64":
		return TypeUInt64, nil
	default:
		return 0, fmt.Errorf("unknown scalar type %q", s)
	}
}

// ============================================================
// Encoding and Version
// ============================================================

// Encoding identifies the payload encoding named on the format line.
type Encoding uint8

const (
	EncodingASCII        Encoding = iota // "ascii"
	EncodingBinaryLittle                 // "binary_little_endian"
	EncodingBinaryBig                    // "binary_big_endian"
)

// String returns the format-line keyword.
func (e Encoding) String() string {
	switch e {
	case EncodingASCII:
		return "ascii"
	case EncodingBinaryLittle:
		return "binary_little_endian"
	case EncodingBinaryBig:
		return "binary_big_endian"
	default:
		return "unknown"
	}
}

// ParseEncoding resolves a format-line keyword.
func ParseEncoding(s string) (Encoding, error) {
	switch s {
	case "ascii":
		return EncodingASCII, nil
	case "binary_little_endian":
		return EncodingBinaryLittle, nil
	case "binary_big_endian":
		return EncodingBinaryBig, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", s)
	}
}

// Version is the format-line version number, almost always 1.0.
type Version struct {
	Major uint16
	Minor uint8
}

// V1 is the version carried by essentially every PLY file in the wild.
var V1 = Version{Major: 1, Minor: 0}

// String returns the version as emitted on the format line.
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// ============================================================
// Property and Element Definitions
// ============================================================

// PropertyType describes the wire type of one property: either a single
// scalar or a counted list.
type PropertyType struct {
	List  bool       // true for "property list ..."
	Count ScalarType // count type; meaningful only when List
	Kind  ScalarType // value type
}

// Scalar returns the PropertyType of a plain scalar property.
func Scalar(t ScalarType) PropertyType {
	return PropertyType{Kind: t}
}

// ListOf returns the PropertyType of a list property with the given
// count and value types.
func ListOf(count, value ScalarType) PropertyType {
	return PropertyType{List: true, Count: count, Kind: value}
}

// String returns the type as written on a property line.
func (pt PropertyType) String() string {
	if pt.List {
		return "list " + pt.Count.String() + " " + pt.Kind.String()
	}
	return pt.Kind.String()
}

// PropertyDef declares one property of an element.
type PropertyDef struct {
	Name string
	Type PropertyType
}

// ElementDef declares one element: its name, the number of instances the
// payload carries, and the properties of each instance in wire order.
type ElementDef struct {
	Name       string
	Count      int
	Properties []PropertyDef
}

// Property returns the named property definition, or nil.
func (e *ElementDef) Property(name string) *PropertyDef {
	for i := range e.Properties {
		if e.Properties[i].Name == name {
			return &e.Properties[i]
		}
	}
	return nil
}

// AddProperty appends a property declaration.
func (e *ElementDef) AddProperty(name string, t PropertyType) {
	e.Properties = append(e.Properties, PropertyDef{Name: name, Type: t})
}

// fixedStride returns the byte width of one binary instance when every
// property is a scalar, and 0 when any property is a list.
func (e *ElementDef) fixedStride() int {
	stride := 0
	for i := range e.Properties {
		if e.Properties[i].Type.List {
			return 0
		}
		stride += e.Properties[i].Type.Kind.Width()
	}
	return stride
}

// ============================================================
// Header
// ============================================================

// Header is the parsed form of everything between "ply" and
// "end_header": the encoding, the version, free-form comment and
// obj_info lines in order, and the element declarations in order.
type Header struct {
	Encoding Encoding
	Version  Version
	Comments []string
	ObjInfos []string
	Elements []ElementDef
}

// NewHeader returns a Header for the given encoding at version 1.0.
func NewHeader(enc Encoding) *Header {
	return &Header{Encoding: enc, Version: V1}
}

// Element returns the named element definition, or nil.
func (h *Header) Element(name string) *ElementDef {
	for i := range h.Elements {
		if h.Elements[i].Name == name {
			return &h.Elements[i]
		}
	}
	return nil
}

// AddElement appends an element declaration and returns it for property
// attachment.
func (h *Header) AddElement(name string, count int) *ElementDef {
	h.Elements = append(h.Elements, ElementDef{Name: name, Count: count})
	return &h.Elements[len(h.Elements)-1]
}

// validName reports whether s is acceptable as an element or property
// name: nonempty ASCII letters, digits and underscores.
func validName(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '_':
		default:
			return false
		}
	}
	return true
}
