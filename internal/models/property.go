// Package models defines the domain types for SENomexLayers.
package models

import (
	"fmt"
	"strconv"
	"time"
)

// CustomSection is the name of the user-defined property section that this
// tool reads. Built-in sections (summary metadata etc.) are ignored.
const CustomSection = "Custom"

// Kind discriminates the typed value union.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindBool
	KindTime
	KindUnknown
)

// Value is the typed union a property value is decoded into. Whatever the
// underlying storage held, it is stringified best-effort at the property
// boundary via String.
type Value struct {
	Kind Kind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
	Raw  []byte
}

// StringValue wraps a plain string.
func StringValue(s string) Value { return Value{Kind: KindString, Str: s} }

// NumberValue wraps a numeric value.
func NumberValue(n float64) Value { return Value{Kind: KindNumber, Num: n} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// TimeValue wraps a timestamp.
func TimeValue(t time.Time) Value { return Value{Kind: KindTime, Time: t} }

// UnknownValue wraps bytes whose type could not be decoded.
func UnknownValue(raw []byte) Value { return Value{Kind: KindUnknown, Raw: raw} }

// String renders the value as text. Unknown values fall back to their raw
// bytes so a property is never silently dropped just because its type is odd.
func (v Value) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindTime:
		return v.Time.Format(time.RFC3339)
	default:
		return string(v.Raw)
	}
}

// Property is one (name, value) metadata pair.
type Property struct {
	Name  string `json:"name"`
	Value Value  `json:"-"`
}

// Text returns the stringified value.
func (p Property) Text() string { return p.Value.String() }

// Section is a named group of properties. Names are expected unique within a
// section but not across sections.
type Section struct {
	Name       string
	Properties []Property
}

// Match is one successful hit of the target property prefix for one
// identifier, in the shape the CLI prints.
type Match struct {
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	Value      string `json:"value"`
}

// Line formats the match as a single output line.
func (m Match) Line() string {
	return fmt.Sprintf("%s: %s: %s", m.Identifier, m.Name, m.Value)
}
