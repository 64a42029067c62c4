package ply

import (
	"fmt"

	"github.com/Velocidex/ordereddict"
)

// Document is an in-memory PLY file: a header plus the rows of each
// declared element, keyed by element name.
type Document struct {
	Header  Header
	payload *ordereddict.Dict // element name -> []*Element
}

// NewDocument returns an empty document with the given encoding at
// version 1.0.
func NewDocument(enc Encoding) *Document {
	return &Document{
		Header:  Header{Encoding: enc, Version: V1},
		payload: ordereddict.NewDict(),
	}
}

func newDocument(h *Header) *Document {
	return &Document{Header: *h, payload: ordereddict.NewDict()}
}

// AddElement declares an element in the header and returns its
// definition for property attachment.
func (d *Document) AddElement(name string, count int) *ElementDef {
	return d.Header.AddElement(name, count)
}

// AddComment appends a header comment.
func (d *Document) AddComment(text string) {
	d.Header.Comments = append(d.Header.Comments, text)
}

// AddObjInfo appends a header obj_info line.
func (d *Document) AddObjInfo(text string) {
	d.Header.ObjInfos = append(d.Header.ObjInfos, text)
}

// ElementData returns the rows stored for an element, or nil.
func (d *Document) ElementData(name string) []*Element {
	raw, ok := d.payload.Get(name)
	if !ok {
		return nil
	}
	rows, _ := raw.([]*Element)
	return rows
}

// SetElementData replaces the rows stored for an element.
func (d *Document) SetElementData(name string, rows []*Element) {
	d.payload.Set(name, rows)
}

// AppendInstance appends one row to an element's data.
func (d *Document) AppendInstance(name string, e *Element) {
	d.payload.Set(name, append(d.ElementData(name), e))
}

// ElementNames returns the payload's element names in insertion order.
func (d *Document) ElementNames() []string {
	return d.payload.Keys()
}

// MakeConsistent synchronizes each declared element count with the rows
// actually stored. Rows stored under a name the header does not declare
// are an error. Nothing calls this implicitly; WriteDocument validates
// but never mutates.
func (d *Document) MakeConsistent() error {
	for _, name := range d.payload.Keys() {
		if d.Header.Element(name) == nil {
			return fmt.Errorf("payload carries undeclared element %q", name)
		}
	}
	for i := range d.Header.Elements {
		def := &d.Header.Elements[i]
		def.Count = len(d.ElementData(def.Name))
	}
	return nil
}

// PropertyFloat64 returns one scalar property of one row as float64.
func (d *Document) PropertyFloat64(element string, row int, property string) (float64, error) {
	def := d.Header.Element(element)
	if def == nil {
		return 0, fmt.Errorf("unknown element %q", element)
	}
	if def.Property(property) == nil {
		return 0, &UnknownPropertyError{Element: element, Property: property}
	}
	rows := d.ElementData(element)
	if row < 0 || row >= len(rows) {
		return 0, fmt.Errorf("element %q has no row %d", element, row)
	}
	v, ok := rows[row].GetProperty(property)
	if !ok {
		return 0, &MissingPropertyError{Element: element, Property: property}
	}
	return v.AsFloat64()
}
