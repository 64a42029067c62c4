package ply

import (
	"strconv"
	"strings"
)

// EmitHeader renders the canonical header text for h: magic line,
// format line, comments and obj_infos in order, element and property
// declarations, end_header. Scalar types are emitted under their
// canonical names regardless of the synonym they were parsed from.
func EmitHeader(h *Header) (string, error) {
	if err := ValidateHeader(h); err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString("ply\n")
	sb.WriteString("format ")
	sb.WriteString(h.Encoding.String())
	sb.WriteByte(' ')
	sb.WriteString(h.Version.String())
	sb.WriteByte('\n')
	for _, text := range h.Comments {
		writeFreeLine(&sb, "comment", text)
	}
	for _, text := range h.ObjInfos {
		writeFreeLine(&sb, "obj_info", text)
	}
	for i := range h.Elements {
		def := &h.Elements[i]
		sb.WriteString("element ")
		sb.WriteString(def.Name)
		sb.WriteByte(' ')
		sb.WriteString(strconv.Itoa(def.Count))
		sb.WriteByte('\n')
		for _, p := range def.Properties {
			if p.Type.List {
				sb.WriteString("property list ")
				sb.WriteString(p.Type.Count.String())
				sb.WriteByte(' ')
				sb.WriteString(p.Type.Kind.String())
			} else {
				sb.WriteString("property ")
				sb.WriteString(p.Type.Kind.String())
			}
			sb.WriteByte(' ')
			sb.WriteString(p.Name)
			sb.WriteByte('\n')
		}
	}
	sb.WriteString("end_header\n")
	return sb.String(), nil
}

// writeFreeLine emits a comment or obj_info line. Empty text gets the
// bare keyword, which parses back to "".
func writeFreeLine(sb *strings.Builder, keyword, text string) {
	sb.WriteString(keyword)
	if text != "" {
		sb.WriteByte(' ')
		sb.WriteString(text)
	}
	sb.WriteByte('\n')
}
