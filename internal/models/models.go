package models

import (
	"math"
	"sort"
	"time"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	Sequence
	Mapping
)

// String returns the lower-case kind name used in diagnostics and metadata.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case Sequence:
		return "sequence"
	case Mapping:
		return "mapping"
	default:
		return "unknown"
	}
}

// Value is the generic tree all parsers produce and all encoders consume.
// Exactly one variant is meaningful, selected by Kind. A Mapping keeps its
// keys in first-seen insertion order via the paired Keys/Vals slices, so
// encoding is deterministic without any re-sorting.
type Value struct {
	Kind  Kind
	Bool  bool
	Int   int64
	Float float64
	Str   string
	Seq   []*Value
	Keys  []string
	Vals  []*Value
}

// NullValue returns a fresh Null value.
func NullValue() *Value { return &Value{Kind: Null} }

// BoolValue returns a Bool value.
func BoolValue(b bool) *Value { return &Value{Kind: Bool, Bool: b} }

// IntValue returns an Int value.
func IntValue(i int64) *Value { return &Value{Kind: Int, Int: i} }

// FloatValue returns a Float value. Integral floats stay floats; the TOON
// encoder preserves the distinction by always emitting a decimal point.
func FloatValue(f float64) *Value { return &Value{Kind: Float, Float: f} }

// StringValue returns a String value.
func StringValue(s string) *Value { return &Value{Kind: String, Str: s} }

// SequenceValue returns a Sequence holding the given items in order.
func SequenceValue(items ...*Value) *Value {
	return &Value{Kind: Sequence, Seq: items}
}

// NewMapping returns an empty Mapping.
func NewMapping() *Value { return &Value{Kind: Mapping} }

// Set inserts or replaces a mapping entry. A new key is appended, preserving
// first-seen order; an existing key keeps its original position.
func (v *Value) Set(key string, val *Value) {
	for i, k := range v.Keys {
		if k == key {
			v.Vals[i] = val
			return
		}
	}
	v.Keys = append(v.Keys, key)
	v.Vals = append(v.Vals, val)
}

// Get looks up a mapping entry by key.
func (v *Value) Get(key string) (*Value, bool) {
	for i, k := range v.Keys {
		if k == key {
			return v.Vals[i], true
		}
	}
	return nil, false
}

// Len returns the number of elements in a Sequence or entries in a Mapping,
// and zero for scalars.
func (v *Value) Len() int {
	switch v.Kind {
	case Sequence:
		return len(v.Seq)
	case Mapping:
		return len(v.Keys)
	default:
		return 0
	}
}

// IsScalar reports whether the value is a leaf (not a Sequence or Mapping).
func (v *Value) IsScalar() bool {
	return v.Kind != Sequence && v.Kind != Mapping
}

// Equal reports deep structural equality. Int and Float never compare equal,
// even for integral floats, so that 1 and 1.0 survive round trips as
// distinct values. Mapping comparison is order-sensitive: equal values must
// serialize identically.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case Null:
		return true
	case Bool:
		return a.Bool == b.Bool
	case Int:
		return a.Int == b.Int
	case Float:
		return a.Float == b.Float || (math.IsNaN(a.Float) && math.IsNaN(b.Float))
	case String:
		return a.Str == b.Str
	case Sequence:
		if len(a.Seq) != len(b.Seq) {
			return false
		}
		for i := range a.Seq {
			if !Equal(a.Seq[i], b.Seq[i]) {
				return false
			}
		}
		return true
	case Mapping:
		if len(a.Keys) != len(b.Keys) {
			return false
		}
		for i := range a.Keys {
			if a.Keys[i] != b.Keys[i] || !Equal(a.Vals[i], b.Vals[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// ToInterface converts a Value into plain Go types (nil, bool, int64,
// float64, string, []interface{}, map[string]interface{}). Mapping order is
// lost; callers that need deterministic output should walk the Value
// directly.
func (v *Value) ToInterface() interface{} {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case Null:
		return nil
	case Bool:
		return v.Bool
	case Int:
		return v.Int
	case Float:
		return v.Float
	case String:
		return v.Str
	case Sequence:
		out := make([]interface{}, len(v.Seq))
		for i, item := range v.Seq {
			out[i] = item.ToInterface()
		}
		return out
	case Mapping:
		out := make(map[string]interface{}, len(v.Keys))
		for i, k := range v.Keys {
			out[k] = v.Vals[i].ToInterface()
		}
		return out
	}
	return nil
}

// FromInterface converts plain Go types into a Value. Map keys are sorted
// for determinism since Go maps carry no order of their own.
func FromInterface(in interface{}) *Value {
	switch t := in.(type) {
	case nil:
		return NullValue()
	case bool:
		return BoolValue(t)
	case int:
		return IntValue(int64(t))
	case int64:
		return IntValue(t)
	case float64:
		return FloatValue(t)
	case string:
		return StringValue(t)
	case []interface{}:
		items := make([]*Value, len(t))
		for i, item := range t {
			items[i] = FromInterface(item)
		}
		return SequenceValue(items...)
	case map[string]interface{}:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		m := NewMapping()
		for _, k := range keys {
			m.Set(k, FromInterface(t[k]))
		}
		return m
	default:
		return NullValue()
	}
}

// ParseResult is the outcome of one parse call: the value tree plus the
// diagnostics accumulated while building it.
type ParseResult struct {
	Data       *Value
	FormatType FormatType
	Confidence float64
	Warnings   []string
	Errors     []string
	Metadata   map[string]*Value
	ParseTime  time.Duration
}

// IsSuccessful reports whether parsing produced a usable value with no
// fatal errors. Warnings do not affect success.
func (r ParseResult) IsSuccessful() bool {
	return r.Data != nil && len(r.Errors) == 0
}

// HasWarnings reports whether any recoverable violations were repaired.
func (r ParseResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// DetectionResult is one candidate format with its raw evidence score.
// Confidence is an unbounded accumulated weight, not a probability; it is
// only meaningful relative to the other candidates of the same call.
type DetectionResult struct {
	FormatType FormatType
	Confidence float64
	Indicators []string
}
