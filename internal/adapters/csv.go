package adapters

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/iancoleman/strcase"

	"github.com/anyparse/anyparse/internal/models"
)

// ParseCSV decodes comma-separated tables. The first row is the header;
// each following row becomes a mapping with the header's key order.
func ParseCSV(content string, opts models.ParseOptions) models.ParseResult {
	return parseDelimited(content, opts, models.FormatCSV, ',')
}

// ParseTSV decodes tab-separated tables.
func ParseTSV(content string, opts models.ParseOptions) models.ParseResult {
	return parseDelimited(content, opts, models.FormatTSV, '\t')
}

// ParsePipe decodes pipe-separated tables.
func ParsePipe(content string, opts models.ParseOptions) models.ParseResult {
	return parseDelimited(content, opts, models.FormatPipeDelimited, '|')
}

func parseDelimited(content string, opts models.ParseOptions, ft models.FormatType, sep rune) models.ParseResult {
	start := time.Now()
	res := models.ParseResult{FormatType: ft, Confidence: 1.0}

	r := csv.NewReader(strings.NewReader(content))
	r.Comma = sep
	r.FieldsPerRecord = -1
	r.LazyQuotes = !opts.Strict

	records, err := r.ReadAll()
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("invalid delimited data: %v", err))
		res.ParseTime = time.Since(start)
		return res
	}
	if len(records) == 0 {
		res.Data = models.SequenceValue()
		res.ParseTime = time.Since(start)
		return res
	}

	header := records[0]
	if opts.SnakeCaseHeaders {
		normalized := make([]string, len(header))
		for i, h := range header {
			normalized[i] = strcase.ToSnake(strings.TrimSpace(h))
		}
		header = normalized
	}

	seq := models.SequenceValue()
	for i, record := range records[1:] {
		if len(record) != len(header) {
			if !opts.Repair() {
				res.Errors = append(res.Errors,
					fmt.Sprintf("field count mismatch on row %d: expected %d, got %d", i+1, len(header), len(record)))
				res.ParseTime = time.Since(start)
				return res
			}
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("field count mismatch on row %d: expected %d, got %d", i+1, len(header), len(record)))
			for len(record) < len(header) {
				record = append(record, "")
			}
			record = record[:len(header)]
		}
		row := models.NewMapping()
		for j, h := range header {
			row.Set(h, inferScalar(record[j]))
		}
		seq.Seq = append(seq.Seq, row)
	}

	res.Data = seq
	res.ParseTime = time.Since(start)
	return res
}
