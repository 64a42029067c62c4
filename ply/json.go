package ply

import (
	"bytes"
	"math"
	"strconv"

	"github.com/Velocidex/ordereddict"
)

// MarshalJSON renders a scalar as a JSON number and a list as a JSON
// array. Non-finite floats, which JSON cannot carry as numbers, are
// rendered as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	appendValueJSON(&buf, v)
	return buf.Bytes(), nil
}

func appendValueJSON(buf *bytes.Buffer, v Value) {
	if v.IsList() {
		buf.WriteByte('[')
		for i := 0; i < v.Len(); i++ {
			if i > 0 {
				buf.WriteByte(',')
			}
			appendValueJSON(buf, v.listElem(i))
		}
		buf.WriteByte(']')
		return
	}
	switch {
	case v.typ.IsInt():
		buf.WriteString(strconv.FormatInt(v.i, 10))
	case v.typ.IsUint():
		buf.WriteString(strconv.FormatUint(v.u, 10))
	default:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			buf.WriteString(strconv.Quote(formatFloat(v.f, 64)))
			return
		}
		bits := 64
		if v.typ == TypeFloat {
			bits = 32
		}
		buf.WriteString(strconv.FormatFloat(v.f, 'g', -1, bits))
	}
}

// MarshalJSON renders the instance as an object with properties in
// insertion order.
func (e *Element) MarshalJSON() ([]byte, error) {
	return e.props.MarshalJSON()
}

// MarshalJSON renders the header structure: format, version, comments,
// obj_info and the element declarations.
func (h *Header) MarshalJSON() ([]byte, error) {
	d := ordereddict.NewDict().
		Set("format", h.Encoding.String()).
		Set("version", h.Version.String())
	if len(h.Comments) > 0 {
		d.Set("comments", h.Comments)
	}
	if len(h.ObjInfos) > 0 {
		d.Set("obj_info", h.ObjInfos)
	}
	els := make([]*ordereddict.Dict, 0, len(h.Elements))
	for i := range h.Elements {
		def := &h.Elements[i]
		props := make([]*ordereddict.Dict, 0, len(def.Properties))
		for _, p := range def.Properties {
			props = append(props, ordereddict.NewDict().
				Set("name", p.Name).
				Set("type", p.Type.String()))
		}
		els = append(els, ordereddict.NewDict().
			Set("name", def.Name).
			Set("count", def.Count).
			Set("properties", props))
	}
	d.Set("elements", els)
	return d.MarshalJSON()
}

// MarshalJSON renders the whole document: the header plus every
// element's rows, all in declaration order.
func (d *Document) MarshalJSON() ([]byte, error) {
	root := ordereddict.NewDict().Set("header", &d.Header)
	els := ordereddict.NewDict()
	for _, name := range d.payload.Keys() {
		els.Set(name, d.ElementData(name))
	}
	root.Set("elements", els)
	return root.MarshalJSON()
}
