package adapters

import (
	"fmt"
	"strings"
	"time"

	"github.com/anyparse/anyparse/internal/models"
)

// ParseKeyValue decodes flat "key = value" lines into a single mapping.
// Blank lines and lines starting with # are skipped.
func ParseKeyValue(content string, opts models.ParseOptions) models.ParseResult {
	start := time.Now()
	res := models.ParseResult{FormatType: models.FormatKeyValue, Confidence: 1.0}
	doc := models.NewMapping()

	for i, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.IndexByte(line, '=')
		if eq < 0 {
			if opts.Repair() {
				res.Warnings = append(res.Warnings, fmt.Sprintf("line %d has no separator, skipped", i+1))
				continue
			}
			res.Errors = append(res.Errors, fmt.Sprintf("line %d has no separator", i+1))
			res.ParseTime = time.Since(start)
			return res
		}
		key := strings.TrimSpace(line[:eq])
		val := strings.TrimSpace(line[eq+1:])
		if key == "" {
			if opts.Repair() {
				res.Warnings = append(res.Warnings, fmt.Sprintf("line %d has an empty key, skipped", i+1))
				continue
			}
			res.Errors = append(res.Errors, fmt.Sprintf("line %d has an empty key", i+1))
			res.ParseTime = time.Since(start)
			return res
		}
		doc.Set(key, inferScalar(val))
	}

	res.Data = doc
	res.ParseTime = time.Since(start)
	return res
}

// ParseProperties decodes Java-style property files: '=' or ':' separators,
// '#' or '!' comments, backslash line continuations, and \n \t \r \\ value
// escapes.
func ParseProperties(content string, opts models.ParseOptions) models.ParseResult {
	start := time.Now()
	res := models.ParseResult{FormatType: models.FormatProperties, Confidence: 1.0}
	doc := models.NewMapping()

	lines := strings.Split(content, "\n")
	for i := 0; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		for strings.HasSuffix(line, "\\") && !strings.HasSuffix(line, "\\\\") && i+1 < len(lines) {
			i++
			line = strings.TrimSuffix(line, "\\") + strings.TrimSpace(lines[i])
		}

		sep := strings.IndexAny(line, "=:")
		if sep < 0 {
			if opts.Repair() {
				res.Warnings = append(res.Warnings, fmt.Sprintf("line %d has no separator, skipped", i+1))
				continue
			}
			res.Errors = append(res.Errors, fmt.Sprintf("line %d has no separator", i+1))
			res.ParseTime = time.Since(start)
			return res
		}
		key := strings.TrimSpace(line[:sep])
		val := unescapeProperties(strings.TrimSpace(line[sep+1:]))
		doc.Set(key, inferScalar(val))
	}

	res.Data = doc
	res.ParseTime = time.Since(start)
	return res
}

func unescapeProperties(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 == len(s) {
			b.WriteByte(s[i])
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
