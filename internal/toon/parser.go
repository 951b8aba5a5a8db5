// Package toon implements the TOON notation: a line-oriented,
// indentation-based text format with four array shapes (tabular, inline,
// list, and nested mapping blocks), optional declared lengths, and minimal
// quoting. The parser is hand-written and line-driven; every structural
// production returns a value plus diagnostics, and violations are either
// repaired locally (recovery mode) or abort the parse at the first failure
// (strict mode).
package toon

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/anyparse/anyparse/internal/models"
)

// headerRe matches an array header: an optional key (bare identifier or
// quoted), a bracketed declared length with optional # marker and optional
// embedded delimiter character, an optional {field,...} block, and the rest
// of the line for inline elements.
var headerRe = regexp.MustCompile(`^([A-Za-z_][\w.\-]*|"(?:[^"\\]|\\.)*")?\[(#?)(\d*)([,\t|;]?)\](?:\{([^}]*)\})?:\s*(.*)$`)

var (
	intRe   = regexp.MustCompile(`^[+-]?\d+$`)
	floatRe = regexp.MustCompile(`^[+-]?(\d+\.\d*|\.\d+|\d+)([eE][+-]?\d+)?$`)
	identRe = regexp.MustCompile(`^[A-Za-z_][\w.\-]*$`)
)

type logicalLine struct {
	text   string // content with indentation and comments stripped
	indent int    // count of leading whitespace characters
	level  int    // indent divided by the document's indentation unit
	num    int    // 1-based physical line number
}

type parser struct {
	opts       models.ParseOptions
	lines      []logicalLine
	pos        int
	warnings   []string
	errs       []string
	shapes     map[string]bool
	arrayStats *models.Value
	lineCount  int
	fatal      bool
}

// Parse parses TOON content into a generic value tree. It never panics on
// malformed input: violations either become warnings with a local repair or,
// in strict mode, a single fatal error describing the first failure, with
// Data reflecting only what was built up to that point.
func Parse(content string, opts models.ParseOptions) models.ParseResult {
	start := time.Now()
	result := models.ParseResult{
		FormatType: models.FormatTOON,
		Confidence: 1.0,
		Metadata:   map[string]*models.Value{},
	}

	if !utf8.ValidString(content) {
		result.Errors = append(result.Errors, "input is not valid UTF-8")
		result.ParseTime = time.Since(start)
		return result
	}
	if opts.Delimiter == 0 {
		opts.Delimiter = models.Comma
	}

	p := &parser{
		opts:       opts,
		shapes:     map[string]bool{},
		arrayStats: models.NewMapping(),
	}
	p.lex(content)
	result.Data = p.parseDocument()
	result.Warnings = p.warnings
	result.Errors = p.errs

	shapes := make([]string, 0, len(p.shapes))
	for s := range p.shapes {
		shapes = append(shapes, s)
	}
	sort.Strings(shapes)
	shapeVals := make([]*models.Value, len(shapes))
	for i, s := range shapes {
		shapeVals[i] = models.StringValue(s)
	}
	result.Metadata["structure_types"] = models.SequenceValue(shapeVals...)
	result.Metadata["array_stats"] = p.arrayStats
	result.Metadata["line_count"] = models.IntValue(int64(p.lineCount))
	result.ParseTime = time.Since(start)
	return result
}

// lex splits content into logical lines: blank lines and full-line comments
// are dropped, trailing comments are stripped outside quoted regions, and
// each line's indentation level is computed against the unit established by
// the first indented line in the document.
func (p *parser) lex(content string) {
	physical := strings.Split(content, "\n")
	p.lineCount = len(physical)
	unit := 0

	for i, raw := range physical {
		indent := 0
		for _, r := range raw {
			if r == ' ' || r == '\t' {
				indent++
			} else {
				break
			}
		}
		text := stripComment(raw[indent:])
		text = strings.TrimRight(text, " \t")
		if text == "" {
			continue
		}

		level := 0
		if indent > 0 {
			if unit == 0 {
				unit = indent
			}
			level = indent / unit
			if indent%unit != 0 {
				if p.violationf(i+1, "indentation of %d is not a multiple of unit %d; snapped to level %d", indent, unit, level) {
					return
				}
			}
		}
		p.lines = append(p.lines, logicalLine{text: text, indent: indent, level: level, num: i + 1})
	}
}

// stripComment removes a trailing # comment. A hash only starts a comment
// outside quoted regions and when it sits at the start of the content or
// after whitespace, so length markers like [#3] survive.
func stripComment(s string) string {
	var quote rune
	escaped := false
	for i, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case quote != 0:
			if r == '\\' {
				escaped = true
			} else if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == '#':
			if i == 0 || s[i-1] == ' ' || s[i-1] == '\t' {
				return s[:i]
			}
		}
	}
	return s
}

// violationf records a structural violation. In recovery mode it becomes a
// warning and parsing continues (the caller applies the local repair); in
// strict mode it becomes the single fatal error and the parse unwinds. The
// return value reports whether the parse is now fatal.
func (p *parser) violationf(lineNum int, format string, args ...interface{}) bool {
	msg := fmt.Sprintf("line %d: %s", lineNum, fmt.Sprintf(format, args...))
	if p.opts.Repair() {
		p.warnings = append(p.warnings, msg)
		return false
	}
	if !p.fatal {
		p.errs = append(p.errs, msg)
		p.fatal = true
	}
	return true
}

func (p *parser) parseDocument() *models.Value {
	if p.fatal {
		return models.NewMapping()
	}
	if len(p.lines) == 0 {
		return models.NewMapping()
	}

	first := p.lines[0]
	if m := headerRe.FindStringSubmatch(first.text); m != nil && m[1] == "" {
		// Keyless root array header.
		p.pos = 1
		arr := p.parseArrayBody(headerParts(m), first, first.level)
		if p.pos < len(p.lines) && !p.fatal {
			p.violationf(p.lines[p.pos].num, "content after root array ignored")
		}
		return arr
	}
	if len(p.lines) == 1 && findColon(first.text) < 0 {
		p.pos = 1
		v, ok := p.parseScalar(first.text)
		if !ok {
			p.violationf(first.num, "unterminated quote")
			return models.StringValue(first.text)
		}
		return v
	}

	root := models.NewMapping()
	p.parseMappingInto(root, p.lines[0].level)
	return root
}

// parseMappingInto consumes entries at exactly the given level into m,
// stopping at a shallower line or a fatal error. Deeper lines with no
// owning entry are misindented: they are snapped to the current level in
// recovery mode.
func (p *parser) parseMappingInto(m *models.Value, level int) {
	for p.pos < len(p.lines) && !p.fatal {
		ln := p.lines[p.pos]
		if ln.level < level {
			return
		}
		if ln.level > level {
			if p.violationf(ln.num, "unexpected indentation; snapped to level %d", level) {
				return
			}
			ln.level = level
		}
		p.parseEntry(m, ln.text, ln, level)
	}
}

// parseEntry parses one mapping entry starting at the given text. Nested
// blocks belonging to the entry sit one level deeper.
func (p *parser) parseEntry(m *models.Value, text string, ln logicalLine, level int) {
	if hm := headerRe.FindStringSubmatch(text); hm != nil && hm[1] != "" {
		key := p.parseKey(hm[1], ln)
		p.pos++
		arr := p.parseArrayBody(headerParts(hm), ln, level)
		m.Set(key, arr)
		p.recordArray(key, arr.Len())
		return
	}

	colon := findColon(text)
	if colon < 0 {
		p.pos++
		p.violationf(ln.num, "unrecognized line %q", text)
		return
	}

	key := p.parseKey(strings.TrimSpace(text[:colon]), ln)
	valueStr := strings.TrimSpace(text[colon+1:])
	p.pos++

	if valueStr != "" {
		v, ok := p.parseScalar(valueStr)
		if !ok {
			if p.violationf(ln.num, "unterminated quote") {
				m.Set(key, models.StringValue(valueStr))
				return
			}
			v = models.StringValue(valueStr)
		}
		m.Set(key, v)
		p.shapes["mapping"] = true
		return
	}

	// Bare "key:" introduces a deeper block: a list array, a nested
	// mapping, or nothing at all (an empty mapping).
	if p.pos < len(p.lines) && p.lines[p.pos].level > level {
		child := p.lines[p.pos]
		if strings.HasPrefix(child.text, "- ") || child.text == "-" {
			arr := p.parseListItems(child.level, -1, ln)
			m.Set(key, arr)
			p.recordArray(key, arr.Len())
			return
		}
		nested := models.NewMapping()
		p.parseMappingInto(nested, child.level)
		m.Set(key, nested)
		p.shapes["mapping"] = true
		return
	}
	m.Set(key, models.NewMapping())
	p.shapes["mapping"] = true
}

type header struct {
	marker    bool
	declared  int // -1 when the header omits a length
	delimiter models.Delimiter
	fields    string
	rest      string
}

func headerParts(m []string) header {
	h := header{marker: m[2] == "#", declared: -1, fields: m[5], rest: strings.TrimSpace(m[6])}
	if m[3] != "" {
		n, err := strconv.Atoi(m[3])
		if err == nil {
			h.declared = n
		}
	}
	if m[4] != "" {
		h.delimiter = models.Delimiter([]rune(m[4])[0])
	}
	return h
}

// parseArrayBody parses the body of an array whose header sat at the given
// level. Rows and list items sit one level deeper.
func (p *parser) parseArrayBody(h header, ln logicalLine, level int) *models.Value {
	delim := h.delimiter
	if delim == 0 {
		delim = p.opts.Delimiter
	}

	if h.fields != "" {
		return p.parseTabularRows(h, delim, ln, level)
	}
	if h.rest != "" {
		return p.parseInline(h, delim, ln)
	}

	// Block form: either list items or nothing (an empty sequence).
	if p.pos < len(p.lines) && p.lines[p.pos].level > level {
		child := p.lines[p.pos]
		if strings.HasPrefix(child.text, "- ") || child.text == "-" {
			return p.parseListItems(child.level, h.declared, ln)
		}
	}
	seq := models.SequenceValue()
	if h.declared > 0 {
		p.violationf(ln.num, "array length mismatch: declared %d, got 0", h.declared)
	}
	p.shapes["list"] = true
	return seq
}

func (p *parser) parseTabularRows(h header, delim models.Delimiter, ln logicalLine, level int) *models.Value {
	fieldTokens, ok := splitDelimited(h.fields, delim)
	if !ok {
		p.violationf(ln.num, "unterminated quote in field declaration")
	}
	fields := make([]string, len(fieldTokens))
	for i, f := range fieldTokens {
		fields[i] = p.parseKey(strings.TrimSpace(f), ln)
	}

	seq := models.SequenceValue()
	row := 0
	for p.pos < len(p.lines) && !p.fatal {
		rl := p.lines[p.pos]
		if rl.level <= level {
			break
		}
		if rl.level > level+1 {
			if p.violationf(rl.num, "unexpected indentation; snapped to level %d", level+1) {
				break
			}
		}
		p.pos++
		row++
		rowVal := p.parseTabularRow(rl, fields, delim, row)
		if p.fatal {
			break
		}
		seq.Seq = append(seq.Seq, rowVal)
	}

	if !p.fatal && h.declared >= 0 && len(seq.Seq) != h.declared {
		p.violationf(ln.num, "array length mismatch: declared %d, got %d", h.declared, len(seq.Seq))
	}
	p.shapes["tabular"] = true
	return seq
}

// parseTabularRow splits one row by the active delimiter and zips it with
// the declared field schema. A short row is padded with nulls, an over-long
// row truncated; either way the repair is local to this row.
func (p *parser) parseTabularRow(rl logicalLine, fields []string, delim models.Delimiter, row int) *models.Value {
	tokens, ok := splitDelimited(rl.text, delim)
	if !ok {
		p.violationf(rl.num, "unterminated quote")
	}
	if len(tokens) != len(fields) {
		short := len(tokens) < len(fields)
		p.violationf(rl.num, "field count mismatch on row %d: expected %d, got %d", row, len(fields), len(tokens))
		if short {
			for len(tokens) < len(fields) {
				tokens = append(tokens, "")
			}
		} else {
			tokens = tokens[:len(fields)]
		}
	}

	obj := models.NewMapping()
	for i, field := range fields {
		tok := strings.TrimSpace(tokens[i])
		v, ok := p.parseScalar(tok)
		if !ok {
			p.violationf(rl.num, "unterminated quote")
			v = models.StringValue(tok)
		}
		obj.Set(field, v)
	}
	return obj
}

func (p *parser) parseInline(h header, delim models.Delimiter, ln logicalLine) *models.Value {
	tokens, ok := splitDelimited(h.rest, delim)
	if !ok {
		p.violationf(ln.num, "unterminated quote")
	}
	seq := models.SequenceValue()
	for _, tok := range tokens {
		v, vok := p.parseScalar(strings.TrimSpace(tok))
		if !vok {
			p.violationf(ln.num, "unterminated quote")
			v = models.StringValue(strings.TrimSpace(tok))
		}
		seq.Seq = append(seq.Seq, v)
	}
	if h.declared >= 0 && len(seq.Seq) != h.declared {
		p.violationf(ln.num, "array length mismatch: declared %d, got %d", h.declared, len(seq.Seq))
	}
	p.shapes["inline"] = true
	return seq
}

// parseListItems consumes "- " items at exactly itemLevel. Each item is its
// own nested value: a scalar, a keyless array, or a mapping whose first
// entry shares the hyphen line and whose remaining entries sit one level
// deeper.
func (p *parser) parseListItems(itemLevel, declared int, ln logicalLine) *models.Value {
	seq := models.SequenceValue()
	for p.pos < len(p.lines) && !p.fatal {
		il := p.lines[p.pos]
		if il.level != itemLevel || !(strings.HasPrefix(il.text, "- ") || il.text == "-") {
			break
		}
		p.pos++
		content := strings.TrimSpace(strings.TrimPrefix(il.text, "-"))
		seq.Seq = append(seq.Seq, p.parseListItem(content, il, itemLevel))
	}

	if !p.fatal && declared >= 0 && len(seq.Seq) != declared {
		p.violationf(ln.num, "array length mismatch: declared %d, got %d", declared, len(seq.Seq))
	}
	p.shapes["list"] = true
	return seq
}

func (p *parser) parseListItem(content string, il logicalLine, itemLevel int) *models.Value {
	if content == "" {
		return models.NewMapping()
	}

	// Keyless nested array: the item is the sequence itself.
	if hm := headerRe.FindStringSubmatch(content); hm != nil && hm[1] == "" {
		return p.parseArrayBody(headerParts(hm), il, itemLevel+1)
	}

	if findColon(content) < 0 {
		v, ok := p.parseScalar(content)
		if !ok {
			p.violationf(il.num, "unterminated quote")
			return models.StringValue(content)
		}
		return v
	}

	// Mapping item: the hyphen-line content is the first entry at a
	// virtual level one deeper than the hyphen; continuation entries
	// follow at that same level. The hyphen line was already consumed, so
	// step back one position for parseEntry's own advance.
	item := models.NewMapping()
	p.pos--
	p.parseEntry(item, content, il, itemLevel+1)
	p.parseMappingInto(item, itemLevel+1)
	return item
}

func (p *parser) parseKey(raw string, ln logicalLine) string {
	if strings.HasPrefix(raw, "\"") {
		s, ok := unquote(raw)
		if !ok {
			p.violationf(ln.num, "unterminated quote in key")
			return strings.Trim(raw, "\"")
		}
		return s
	}
	return raw
}

/// parseScalar applies type inference to a bare token: quoted tokens are
// always strings; otherwise true/false, null/empty, integer, and float
// spellings are recognized, and anything else is a string. The boolean
// result is false for an unterminated quote.
func (p *parser) parseScalar(tok string) (*models.Value, bool) {
	if tok == "" || tok == "null" {
		return models.NullValue(), true
	}
	if len(tok) > 0 && (tok[0] == '"' || tok[0] == '\'') {
		s, ok := unquote(tok)
		if !ok {
			return models.StringValue(tok), false
		}
		return models.StringValue(s), true
	}
	switch tok {
	case "true":
		return models.BoolValue(true), true
	case "false":
		return models.BoolValue(false), true
	}
	if intRe.MatchString(tok) {
		if i, err := strconv.ParseInt(tok, 10, 64); err == nil {
			return models.IntValue(i), true
		}
	}
	if (strings.ContainsAny(tok, ".eE")) && floatRe.MatchString(tok) {
		if f, err := strconv.ParseFloat(tok, 64); err == nil {
			return models.FloatValue(f), true
		}
	}
	return models.StringValue(tok), true
}

// recordArray tracks observed element counts per array for the result
// metadata. The most recent array under a key wins, mirroring mapping Set.
func (p *parser) recordArray(key string, n int) {
	p.arrayStats.Set(key, models.IntValue(int64(n)))
}

// findColon locates the first colon outside quoted regions, or -1.
func findColon(s string) int {
	var quote rune
	escaped := false
	for i, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case quote != 0:
			if r == '\\' {
				escaped = true
			} else if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
		case r == ':':
			return i
		}
	}
	return -1
}

// splitDelimited splits a line into fields on the delimiter, honoring
// quoted regions and backslash escapes. The boolean result is false when a
// quoted region never terminates.
func splitDelimited(s string, delim models.Delimiter) ([]string, bool) {
	var fields []string
	var cur strings.Builder
	var quote rune
	escaped := false

	for _, r := range s {
		if escaped {
			cur.WriteRune('\\')
			cur.WriteRune(r)
			escaped = false
			continue
		}
		switch {
		case quote != 0:
			if r == '\\' {
				escaped = true
				continue
			}
			cur.WriteRune(r)
			if r == quote {
				quote = 0
			}
		case r == '"' || r == '\'':
			quote = r
			cur.WriteRune(r)
		case r == rune(delim):
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(cur.String()))
	return fields, quote == 0 && !escaped
}

// unquote strips matching quotes and resolves standard backslash escapes.
// Unknown escapes keep the escaped character, which covers escaped
// delimiter characters.
func unquote(tok string) (string, bool) {
	if len(tok) < 2 {
		return tok, false
	}
	q := tok[0]
	if (q != '"' && q != '\'') || tok[len(tok)-1] != q {
		return tok, false
	}
	body := tok[1 : len(tok)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, true
	}

	var b strings.Builder
	b.Grow(len(body))
	escaped := false
	for _, r := range body {
		if escaped {
			switch r {
			case 'n':
				b.WriteRune('\n')
			case 't':
				b.WriteRune('\t')
			case 'r':
				b.WriteRune('\r')
			default:
				b.WriteRune(r)
			}
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	if escaped {
		return b.String(), false
	}
	return b.String(), true
}
