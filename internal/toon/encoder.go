package toon

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/anyparse/anyparse/internal/models"
)

// maxInlineWidth is the practical line width above which an all-scalar
// array falls back from inline form to one element per line.
const maxInlineWidth = 120

type encoder struct {
	indent int
	delim  models.Delimiter
	marker bool
	lines  []string
}

// Encode serializes a value tree into canonical TOON text. Output is
// deterministic: mapping keys keep their insertion order, array shapes are
// chosen by fixed rules, and integral floats keep a decimal point so the
// Int/Float distinction survives a round trip.
func Encode(v *models.Value, opts models.EncodeOptions) (string, error) {
	if v == nil {
		return "", fmt.Errorf("cannot encode nil value")
	}
	if opts.Indent <= 0 {
		opts.Indent = 2
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = models.Comma
	}

	e := &encoder{indent: opts.Indent, delim: opts.Delimiter, marker: opts.LengthMarker}
	switch v.Kind {
	case models.Mapping:
		e.writeMapping(v, 0)
	case models.Sequence:
		e.writeArray("", 0, 1, "", v)
	default:
		e.writeLine(0, e.scalarToken(v))
	}
	return strings.Join(e.lines, "\n"), nil
}

func (e *encoder) writeLine(level int, text string) {
	e.lines = append(e.lines, strings.Repeat(" ", level*e.indent)+text)
}

func (e *encoder) writeMapping(m *models.Value, level int) {
	for i, key := range m.Keys {
		e.writeEntry("", level, level+1, key, m.Vals[i])
	}
}

// writeEntry emits one mapping entry. The first line sits at lineLevel
// (with an optional "- " prefix for list-item first entries); any nested
// block belonging to the entry sits at bodyLevel.
func (e *encoder) writeEntry(prefix string, lineLevel, bodyLevel int, key string, val *models.Value) {
	kt := e.keyToken(key)
	switch val.Kind {
	case models.Sequence:
		e.writeArray(prefix, lineLevel, bodyLevel, kt, val)
	case models.Mapping:
		e.writeLine(lineLevel, prefix+kt+":")
		if val.Len() > 0 {
			e.writeMapping(val, bodyLevel)
		}
	default:
		e.writeLine(lineLevel, prefix+kt+": "+e.scalarToken(val))
	}
}

// writeArray picks the array shape deterministically: tabular when every
// element is a mapping with the identical ordered key set and scalar
// values; inline when every element is scalar and the joined line is
// short enough; list otherwise.
func (e *encoder) writeArray(prefix string, lineLevel, bodyLevel int, keyTok string, seq *models.Value) {
	n := len(seq.Seq)

	if fields := tabularFields(seq); fields != nil {
		joined := make([]string, len(fields))
		for i, f := range fields {
			joined[i] = e.keyToken(f)
		}
		e.writeLine(lineLevel, prefix+keyTok+e.bracket(n)+"{"+strings.Join(joined, string(e.delim))+"}:")
		for _, row := range seq.Seq {
			tokens := make([]string, len(fields))
			for i := range fields {
				tokens[i] = e.scalarToken(row.Vals[i])
			}
			e.writeLine(bodyLevel, strings.Join(tokens, string(e.delim)))
		}
		return
	}

	if n == 0 {
		e.writeLine(lineLevel, prefix+keyTok+e.bracket(0)+":")
		return
	}

	if allScalar(seq) {
		tokens := make([]string, n)
		for i, item := range seq.Seq {
			tokens[i] = e.scalarToken(item)
		}
		line := prefix + keyTok + e.bracket(n) + ": " + strings.Join(tokens, string(e.delim))
		if lineLevel*e.indent+len(line) <= maxInlineWidth {
			e.writeLine(lineLevel, line)
			return
		}
		e.writeLine(lineLevel, prefix+keyTok+e.bracket(n)+":")
		for _, tok := range tokens {
			e.writeLine(bodyLevel, "- "+tok)
		}
		return
	}

	e.writeLine(lineLevel, prefix+keyTok+e.bracket(n)+":")
	for _, item := range seq.Seq {
		e.writeListItem(item, bodyLevel)
	}
}

// writeListItem emits one "- " item at level d. Mapping items put their
// first entry on the hyphen line; continuation entries sit at d+1 and any
// nested blocks at d+2, matching the virtual level the parser assigns to
// hyphen-line content.
func (e *encoder) writeListItem(item *models.Value, d int) {
	switch item.Kind {
	case models.Mapping:
		if item.Len() == 0 {
			e.writeLine(d, "-")
			return
		}
		e.writeEntry("- ", d, d+2, item.Keys[0], item.Vals[0])
		for i := 1; i < len(item.Keys); i++ {
			e.writeEntry("", d+1, d+2, item.Keys[i], item.Vals[i])
		}
	case models.Sequence:
		e.writeArray("- ", d, d+2, "", item)
	default:
		e.writeLine(d, "- "+e.scalarToken(item))
	}
}

func (e *encoder) bracket(n int) string {
	var b strings.Builder
	b.WriteByte('[')
	if e.marker {
		b.WriteByte('#')
	}
	b.WriteString(strconv.Itoa(n))
	if e.delim != models.Comma {
		b.WriteRune(rune(e.delim))
	}
	b.WriteByte(']')
	return b.String()
}

// tabularFields returns the shared ordered key set when the sequence
// qualifies for tabular form, or nil. Field names containing '}' cannot be
// carried in a {fields} header, even quoted, so those sequences fall back
// to list form.
func tabularFields(seq *models.Value) []string {
	if len(seq.Seq) == 0 {
		return nil
	}
	first := seq.Seq[0]
	if first.Kind != models.Mapping || len(first.Keys) == 0 {
		return nil
	}
	for _, k := range first.Keys {
		if strings.ContainsRune(k, '}') {
			return nil
		}
	}
	for _, item := range seq.Seq {
		if item.Kind != models.Mapping || len(item.Keys) != len(first.Keys) {
			return nil
		}
		for i, k := range item.Keys {
			if k != first.Keys[i] || !item.Vals[i].IsScalar() {
				return nil
			}
		}
	}
	return first.Keys
}

func allScalar(seq *models.Value) bool {
	for _, item := range seq.Seq {
		if !item.IsScalar() {
			return false
		}
	}
	return true
}

func (e *encoder) keyToken(k string) string {
	if identRe.MatchString(k) {
		return k
	}
	return e.quote(k)
}

func (e *encoder) scalarToken(v *models.Value) string {
	switch v.Kind {
	case models.Null:
		return "null"
	case models.Bool:
		if v.Bool {
			return "true"
		}
		return "false"
	case models.Int:
		return strconv.FormatInt(v.Int, 10)
	case models.Float:
		return formatFloat(v.Float)
	case models.String:
		if e.needsQuoting(v.Str) {
			return e.quote(v.Str)
		}
		return v.Str
	default:
		return "null"
	}
}

// formatFloat renders a float with a visible decimal point or exponent so
// the parser infers Float, never Int. Non-finite floats have no TOON
// spelling and degrade to null.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "null"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// needsQuoting decides whether a string scalar must be quoted: when it
// contains the active delimiter, leading or trailing whitespace, or
// key/value-separator ambiguity, plus anything whose bare spelling would
// be re-inferred as a different type or swallowed as structure (booleans,
// null, numbers, comments, list markers, bracketed text, escapes).
func (e *encoder) needsQuoting(s string) bool {
	if s == "" {
		return true
	}
	if s != strings.TrimSpace(s) {
		return true
	}
	switch s {
	case "true", "false", "null", "-":
		return true
	}
	if _, err := strconv.ParseFloat(s, 64); err == nil {
		return true
	}
	if strings.ContainsRune(s, rune(e.delim)) {
		return true
	}
	if strings.ContainsAny(s, ":#\"'\\\n\t\r") {
		return true
	}
	if strings.HasPrefix(s, "- ") {
		return true
	}
	if (strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]")) ||
		(strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}")) {
		return true
	}
	for _, r := range s {
		if r < 0x20 {
			return true
		}
	}
	return false
}

func (e *encoder) quote(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\t':
			b.WriteString(`\t`)
		case '\r':
			b.WriteString(`\r`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
