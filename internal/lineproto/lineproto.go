// Package lineproto encodes measurement points as InfluxDB line protocol.
// It implements the subset of the format netsweep emits: string and integer
// and float fields, escaped tag sets, and nanosecond timestamps.
package lineproto

import (
	"fmt"
	"strings"
	"time"
)

// Tag is a single measurement tag. Tags are emitted in the order given,
// never re-sorted, so point output is deterministic.
type Tag struct {
	Key   string
	Value string
}

// Field is a single measurement field.
type Field struct {
	Key   string
	Value interface{}
}

// Point is one line-protocol point.
type Point struct {
	Measurement string
	Tags        []Tag
	Fields      []Field
	Timestamp   time.Time
}

// escapeTag escapes a tag key or value. The backslash must be escaped
// first, otherwise the escapes themselves get re-escaped.
func escapeTag(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, " ", `\ `)
	s = strings.ReplaceAll(s, ",", `\,`)
	s = strings.ReplaceAll(s, "=", `\=`)
	return s
}

// escapeMeasurement escapes a measurement name. Equals signs are legal in
// measurement names and are not escaped.
func escapeMeasurement(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, " ", `\ `)
	s = strings.ReplaceAll(s, ",", `\,`)
	return s
}

// escapeStringField escapes the contents of a string field value.
func escapeStringField(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return s
}

// formatField renders a field value in line-protocol syntax. Integers get
// the "i" suffix, floats are emitted bare, strings are quoted and escaped.
func formatField(v interface{}) string {
	switch val := v.(type) {
	case int:
		return fmt.Sprintf("%di", val)
	case int64:
		return fmt.Sprintf("%di", val)
	case float64:
		return fmt.Sprintf("%g", val)
	case bool:
		return fmt.Sprintf("%t", val)
	case string:
		return `"` + escapeStringField(val) + `"`
	default:
		return `"` + escapeStringField(fmt.Sprintf("%v", val)) + `"`
	}
}

// Encode renders a single point as one line of line protocol, without a
// trailing newline. Points with no fields encode to an empty string since
// the protocol requires at least one field.
func Encode(p Point) string {
	if len(p.Fields) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(escapeMeasurement(p.Measurement))
	for _, tag := range p.Tags {
		b.WriteByte(',')
		b.WriteString(escapeTag(tag.Key))
		b.WriteByte('=')
		b.WriteString(escapeTag(tag.Value))
	}
	b.WriteByte(' ')
	for i, field := range p.Fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(escapeTag(field.Key))
		b.WriteByte('=')
		b.WriteString(formatField(field.Value))
	}
	b.WriteByte(' ')
	fmt.Fprintf(&b, "%d", p.Timestamp.UnixNano())
	return b.String()
}

// EncodeBatch renders points as newline-joined line protocol. Points that
// encode to nothing are skipped.
func EncodeBatch(points []Point) string {
	lines := make([]string, 0, len(points))
	for _, p := range points {
		if line := Encode(p); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
