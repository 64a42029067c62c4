// Package ply implements a codec for the PLY polygon file format.
//
// PLY files carry a short ASCII header describing a sequence of elements
// (vertices, faces, ...) followed by the element data in one of three
// encodings. The package is built to be:
//   - Safe on untrusted input (list lengths validated before allocation)
//   - Exact (declared scalar types are preserved through a round trip)
//   - Streamable (header events, per-instance reads, per-instance writes)
//   - Byte-order complete (ascii, binary_little_endian, binary_big_endian)
//
// # File Shape
//
// A header names the encoding and declares elements and their properties:
//
//	ply
//	format binary_little_endian 1.0
//	comment exported scan
//	element vertex 4
//	property float x
//	property float y
//	property float z
//	element face 4
//	property list uchar int vertex_indices
//	end_header
//
// The payload then carries 4 vertex instances and 4 face instances in
// declaration order.
//
// # Data Model
//
// Scalars: char uchar short ushort int uint float double, plus the
// nonstandard 8-byte extension types int64 and uint64. The common
// synonyms (int8, uint8, ..., float32, float64) parse and are re-emitted
// under their canonical names. Lists pair an integer count type with a
// value type.
//
// # Reading
//
//	r := ply.NewReader(f)
//	header, err := r.ReadHeader()
//	doc, err := r.ReadAll()
//
// ReadHeader stops exactly at the first payload byte, so callers that
// only need the header can take over the stream afterwards. Instances
// decode into any type implementing PropertyMap; Element is the provided
// insertion-ordered implementation.
//
// # Writing
//
//	doc := ply.NewDocument(ply.EncodingASCII)
//	...
//	n, err := ply.WriteDocument(w, doc)
//
// WriteDocument validates the document against its header (instance
// counts, declared properties, value ranges) before emitting any bytes.
package ply
