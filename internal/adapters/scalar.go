package adapters

import (
	"strconv"
	"strings"

	"github.com/anyparse/anyparse/internal/models"
)

// inferScalar maps a raw text cell to a typed scalar the same way the TOON
// parser types bare tokens: null, bool, int, float, then string.
func inferScalar(s string) *models.Value {
	switch s {
	case "", "null":
		return models.NullValue()
	case "true":
		return models.BoolValue(true)
	case "false":
		return models.BoolValue(false)
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return models.IntValue(i)
	}
	if strings.ContainsAny(s, ".eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return models.FloatValue(f)
		}
	}
	return models.StringValue(s)
}

// renderScalar is the inverse of inferScalar for flat output formats.
func renderScalar(v *models.Value) string {
	switch v.Kind {
	case models.Null:
		return ""
	case models.Bool:
		return strconv.FormatBool(v.Bool)
	case models.Int:
		return strconv.FormatInt(v.Int, 10)
	case models.Float:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case models.String:
		return v.Str
	default:
		return ""
	}
}
