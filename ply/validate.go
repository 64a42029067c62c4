package ply

import (
	"fmt"
	"strings"
)

// ValidateHeader checks that h describes an emittable header: a known
// encoding, well-formed unique names, nonnegative counts, integer list
// count types.
func ValidateHeader(h *Header) error {
	switch h.Encoding {
	case EncodingASCII, EncodingBinaryLittle, EncodingBinaryBig:
	default:
		return fmt.Errorf("unknown encoding %d", h.Encoding)
	}
	for _, text := range h.Comments {
		if strings.ContainsAny(text, "\r\n") {
			return fmt.Errorf("comment contains a line break")
		}
	}
	for _, text := range h.ObjInfos {
		if strings.ContainsAny(text, "\r\n") {
			return fmt.Errorf("obj_info contains a line break")
		}
	}
	for i := range h.Elements {
		def := &h.Elements[i]
		if !validName(def.Name) {
			return fmt.Errorf("invalid element name %q", def.Name)
		}
		if def.Count < 0 {
			return fmt.Errorf("element %q: negative count %d", def.Name, def.Count)
		}
		for j := range h.Elements[:i] {
			if h.Elements[j].Name == def.Name {
				return fmt.Errorf("duplicate element %q", def.Name)
			}
		}
		for pi := range def.Properties {
			p := &def.Properties[pi]
			if !validName(p.Name) {
				return fmt.Errorf("element %q: invalid property name %q", def.Name, p.Name)
			}
			if p.Type.Kind.Width() == 0 {
				return fmt.Errorf("element %q property %q: invalid scalar type", def.Name, p.Name)
			}
			if p.Type.List {
				if p.Type.Count.Width() == 0 {
					return fmt.Errorf("element %q property %q: invalid list count type", def.Name, p.Name)
				}
				if p.Type.Count.IsFloat() {
					return fmt.Errorf("element %q property %q: list count must be an integer type, got %s",
						def.Name, p.Name, p.Type.Count)
				}
			}
			for pj := range def.Properties[:pi] {
				if def.Properties[pj].Name == p.Name {
					return fmt.Errorf("element %q: duplicate property %q", def.Name, p.Name)
				}
			}
		}
	}
	return nil
}

// ValidateDocument checks doc's payload against its header before
// anything is written: row counts must match the declared counts and
// every instance must carry every declared property. Value range
// mismatches are caught later, during emission.
func ValidateDocument(doc *Document) error {
	if err := ValidateHeader(&doc.Header); err != nil {
		return err
	}
	for _, name := range doc.payload.Keys() {
		if doc.Header.Element(name) == nil {
			return fmt.Errorf("payload carries undeclared element %q", name)
		}
	}
	for i := range doc.Header.Elements {
		def := &doc.Header.Elements[i]
		rows := doc.ElementData(def.Name)
		if len(rows) != def.Count {
			return &CountMismatchError{Element: def.Name, Declared: def.Count, Actual: len(rows)}
		}
		for _, row := range rows {
			for pi := range def.Properties {
				p := &def.Properties[pi]
				if _, ok := row.GetProperty(p.Name); !ok {
					return &MissingPropertyError{Element: def.Name, Property: p.Name}
				}
			}
		}
	}
	return nil
}
