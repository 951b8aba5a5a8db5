// Package dispatch routes raw input through format detection to the right
// parser, and value trees to the right output encoder.
package dispatch

import (
	"fmt"
	"unicode/utf8"

	"github.com/anyparse/anyparse/internal/adapters"
	"github.com/anyparse/anyparse/internal/detect"
	apperrors "github.com/anyparse/anyparse/internal/errors"
	"github.com/anyparse/anyparse/internal/models"
	"github.com/anyparse/anyparse/internal/toon"
)

type parseFunc func(string, models.ParseOptions) models.ParseResult

// parsers is the routing table. Built once; never mutated after init, so
// concurrent ParseAnything calls can share it.
var parsers = map[models.FormatType]parseFunc{
	models.FormatTOON:          toon.Parse,
	models.FormatJSON:          adapters.ParseJSON,
	models.FormatYAML:          adapters.ParseYAML,
	models.FormatXML:           adapters.ParseXML,
	models.FormatCSV:           adapters.ParseCSV,
	models.FormatTSV:           adapters.ParseTSV,
	models.FormatPipeDelimited: adapters.ParsePipe,
	models.FormatKeyValue:      adapters.ParseKeyValue,
	models.FormatINI:           adapters.ParseINI,
	models.FormatProperties:    adapters.ParseProperties,
}

// Request carries one parse or convert call through the pipeline.
type Request struct {
	Content  string
	Filename string
	// Format forces a parser and skips detection when non-zero.
	Format  models.FormatType
	Options models.ParseOptions
	Weights detect.Weights
}

// ParseAnything detects the input's format (unless the request forces one)
// and parses it into the shared value tree. The returned result always
// carries the format that was actually used; detection trouble surfaces as
// a warning in lenient mode and an error in strict mode.
func ParseAnything(req Request) (models.ParseResult, error) {
	if req.Content == "" {
		return models.ParseResult{}, apperrors.NewInputError("input is empty", apperrors.ErrEmptyInput)
	}
	if !utf8.ValidString(req.Content) {
		return models.ParseResult{}, apperrors.NewInputError("input is not valid UTF-8", apperrors.ErrInvalidUTF8)
	}

	format := req.Format
	confidence := 1.0
	var detectWarning string

	if format == models.FormatUnknown {
		if req.Weights == (detect.Weights{}) {
			req.Weights = detect.DefaultWeights()
		}
		best, err := detect.DetectBestWithWeights(req.Content, req.Filename, req.Weights)
		if err != nil {
			if req.Options.Strict {
				return models.ParseResult{}, apperrors.NewDetectionError(
					fmt.Sprintf("ambiguous input: best guess %s at %.2f", best.FormatType, best.Confidence), err)
			}
			detectWarning = fmt.Sprintf("format detection ambiguous, proceeding as %s", best.FormatType)
		}
		format = best.FormatType
		confidence = min(best.Confidence, 1.0)
	}

	parse, ok := parsers[format]
	if !ok {
		return models.ParseResult{}, apperrors.NewDetectionError(
			fmt.Sprintf("no parser for format %s", format), apperrors.ErrUnsupportedFormat)
	}

	res := parse(req.Content, req.Options)
	res.FormatType = format
	res.Confidence = confidence
	if detectWarning != "" {
		res.Warnings = append([]string{detectWarning}, res.Warnings...)
	}
	return res, nil
}

// Convert parses the input and renders it in the target format. The parse
// result is returned alongside the output so callers can surface warnings.
func Convert(req Request, target models.FormatType, encOpts models.EncodeOptions) (string, models.ParseResult, error) {
	res, err := ParseAnything(req)
	if err != nil {
		return "", res, err
	}
	if !res.IsSuccessful() {
		msg := "parse failed"
		if len(res.Errors) > 0 {
			msg = res.Errors[0]
		}
		return "", res, apperrors.NewConversionError(
			fmt.Sprintf("cannot convert %s input: %s", res.FormatType, msg), nil)
	}

	out, err := Encode(res.Data, target, encOpts)
	if err != nil {
		return "", res, err
	}
	return out, res, nil
}

// Encode renders a value tree in one of the supported output formats.
// Requesting anything else is an error, never a silent substitution.
func Encode(v *models.Value, target models.FormatType, opts models.EncodeOptions) (string, error) {
	switch target {
	case models.FormatTOON:
		out, err := toon.Encode(v, opts)
		if err != nil {
			return "", apperrors.NewEncodingError("TOON encoding failed", err)
		}
		return out, nil
	case models.FormatJSON:
		out, err := adapters.EncodeJSON(v, opts.Indent)
		if err != nil {
			return "", apperrors.NewEncodingError("JSON encoding failed", err)
		}
		return out, nil
	case models.FormatYAML:
		out, err := adapters.EncodeYAML(v)
		if err != nil {
			return "", apperrors.NewEncodingError("YAML encoding failed", err)
		}
		return out, nil
	case models.FormatCSV:
		out, err := adapters.EncodeCSV(v, rune(normalizeDelimiter(opts.Delimiter)))
		if err != nil {
			return "", apperrors.NewEncodingError("CSV encoding failed", err)
		}
		return out, nil
	default:
		return "", apperrors.NewConversionError(
			fmt.Sprintf("unsupported conversion target %s", target), apperrors.ErrUnsupportedTarget)
	}
}

func normalizeDelimiter(d models.Delimiter) models.Delimiter {
	if d == 0 {
		return models.Comma
	}
	return d
}

// TokenStats estimates the token cost of an input/output pair using the
// common four-characters-per-token heuristic.
type TokenStats struct {
	InputTokens    int
	OutputTokens   int
	SavingsPercent float64
}

// EstimateSavings compares the token estimate of the original text against
// the converted text. Savings are negative when the output is larger.
func EstimateSavings(input, output string) TokenStats {
	s := TokenStats{
		InputTokens:  estimateTokens(input),
		OutputTokens: estimateTokens(output),
	}
	if s.InputTokens > 0 {
		s.SavingsPercent = 100 * float64(s.InputTokens-s.OutputTokens) / float64(s.InputTokens)
	}
	return s
}

func estimateTokens(s string) int {
	if s == "" {
		return 0
	}
	return (len(s) + 3) / 4
}
