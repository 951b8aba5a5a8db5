package models

import (
	"fmt"
	"strings"
)

// FormatType is the closed set of formats the engine knows how to score,
// and for some of them, parse and encode. Declaration order doubles as the
// detector's tie-break priority: most-specific syntax first.
type FormatType int

const (
	// FormatUnknown is the zero value: no format forced, detection required.
	FormatUnknown FormatType = iota
	FormatTOON
	FormatJSON
	FormatYAML
	FormatXML
	FormatCSV
	FormatTSV
	FormatPipeDelimited
	FormatKeyValue
	FormatINI
	FormatProperties
)

// AllFormats lists every format in detector priority order.
var AllFormats = []FormatType{
	FormatTOON,
	FormatJSON,
	FormatYAML,
	FormatXML,
	FormatCSV,
	FormatTSV,
	FormatPipeDelimited,
	FormatKeyValue,
	FormatINI,
	FormatProperties,
}

func (f FormatType) String() string {
	switch f {
	case FormatTOON:
		return "toon"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	case FormatXML:
		return "xml"
	case FormatCSV:
		return "csv"
	case FormatTSV:
		return "tsv"
	case FormatPipeDelimited:
		return "pipe"
	case FormatKeyValue:
		return "keyvalue"
	case FormatINI:
		return "ini"
	case FormatProperties:
		return "properties"
	default:
		return "unknown"
	}
}

// ParseFormatType maps a user-supplied format name (CLI flag, config value)
// onto a FormatType.
func ParseFormatType(name string) (FormatType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "toon":
		return FormatTOON, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xml":
		return FormatXML, nil
	case "csv":
		return FormatCSV, nil
	case "tsv":
		return FormatTSV, nil
	case "pipe", "psv":
		return FormatPipeDelimited, nil
	case "keyvalue", "kv":
		return FormatKeyValue, nil
	case "ini":
		return FormatINI, nil
	case "properties":
		return FormatProperties, nil
	default:
		return FormatTOON, fmt.Errorf("unknown format %q", name)
	}
}

// Delimiter is the field separator used by TOON arrays and the delimited
// tabular formats.
type Delimiter rune

const (
	Comma     Delimiter = ','
	Tab       Delimiter = '\t'
	Pipe      Delimiter = '|'
	Semicolon Delimiter = ';'
)

// ParseDelimiter maps a CLI/config spelling onto a Delimiter.
func ParseDelimiter(s string) (Delimiter, error) {
	switch s {
	case ",", "comma", "":
		return Comma, nil
	case "\t", "\\t", "tab":
		return Tab, nil
	case "|", "pipe":
		return Pipe, nil
	case ";", "semicolon":
		return Semicolon, nil
	default:
		return Comma, fmt.Errorf("unsupported delimiter %q", s)
	}
}

// ParseOptions configures a parse call.
type ParseOptions struct {
	// Strict aborts on the first structural violation instead of repairing.
	Strict bool
	// DisableRecovery turns off local repair of structural violations.
	// The zero value keeps recovery on, so lenient parsing with repair is
	// the default for zero-valued options.
	DisableRecovery bool
	// Delimiter is the fallback field separator when a TOON array header
	// does not embed its own delimiter marker.
	Delimiter Delimiter
	// SnakeCaseHeaders normalizes column headers of delimited formats
	// (CSV, TSV, pipe) to snake_case.
	SnakeCaseHeaders bool
}

// DefaultParseOptions returns the documented defaults: lenient parsing with
// recovery enabled and comma-delimited fields.
func DefaultParseOptions() ParseOptions {
	return ParseOptions{Delimiter: Comma}
}

// Repair reports whether structural violations should be repaired in place
// rather than treated as fatal.
func (o ParseOptions) Repair() bool {
	return !o.Strict && !o.DisableRecovery
}

// EncodeOptions configures an encode call.
type EncodeOptions struct {
	// Indent is the number of spaces per indentation level.
	Indent int
	// Delimiter separates fields in inline and tabular arrays.
	Delimiter Delimiter
	// LengthMarker emits declared lengths as [#N] instead of [N]. Purely
	// cosmetic; parsers accept both.
	LengthMarker bool
}

// DefaultEncodeOptions returns two-space indentation with comma fields.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{Indent: 2, Delimiter: Comma}
}
