// Package adapters parses the non-TOON source formats into the shared value
// tree and renders value trees into conversion targets. Every adapter
// preserves mapping key order where the source format has one.
package adapters

import (
	"fmt"
	"io"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/anyparse/anyparse/internal/models"
)

// ParseJSON decodes JSON through the token stream so object member order
// survives into the mapping, which map-based decoding would destroy.
func ParseJSON(content string, opts models.ParseOptions) models.ParseResult {
	start := time.Now()
	res := models.ParseResult{FormatType: models.FormatJSON, Confidence: 1.0}

	dec := gojson.NewDecoder(strings.NewReader(content))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("invalid JSON: %v", err))
		res.ParseTime = time.Since(start)
		return res
	}
	if _, err := dec.Token(); err != io.EOF {
		if opts.Repair() {
			res.Warnings = append(res.Warnings, "trailing content after JSON document ignored")
		} else {
			res.Errors = append(res.Errors, "trailing content after JSON document")
			res.ParseTime = time.Since(start)
			return res
		}
	}

	res.Data = v
	res.ParseTime = time.Since(start)
	return res
}

func decodeJSONValue(dec *gojson.Decoder) (*models.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeJSONToken(dec, tok)
}

func decodeJSONToken(dec *gojson.Decoder, tok gojson.Token) (*models.Value, error) {
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			m := models.NewMapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not string", keyTok)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			seq := models.SequenceValue()
			for dec.More() {
				item, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				seq.Seq = append(seq.Seq, item)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return seq, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	case string:
		return models.StringValue(t), nil
	case bool:
		return models.BoolValue(t), nil
	case gojson.Number:
		if i, err := t.Int64(); err == nil && !strings.ContainsAny(t.String(), ".eE") {
			return models.IntValue(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, fmt.Errorf("unrepresentable number %q", t.String())
		}
		return models.FloatValue(f), nil
	case nil:
		return models.NullValue(), nil
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}
