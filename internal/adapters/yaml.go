package adapters

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/anyparse/anyparse/internal/models"
)

// ParseYAML decodes YAML through the node API rather than into a map, so
// mapping key order is preserved and scalar tags drive type inference.
func ParseYAML(content string, opts models.ParseOptions) models.ParseResult {
	start := time.Now()
	res := models.ParseResult{FormatType: models.FormatYAML, Confidence: 1.0}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(content), &doc); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("invalid YAML: %v", err))
		res.ParseTime = time.Since(start)
		return res
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		res.Data = models.NewMapping()
		res.ParseTime = time.Since(start)
		return res
	}

	v, err := convertYAMLNode(doc.Content[0])
	if err != nil {
		res.Errors = append(res.Errors, err.Error())
		res.ParseTime = time.Since(start)
		return res
	}
	if len(doc.Content) > 1 {
		res.Warnings = append(res.Warnings, "multi-document YAML stream: only the first document is used")
	}

	res.Data = v
	res.ParseTime = time.Since(start)
	return res
}

func convertYAMLNode(n *yaml.Node) (*models.Value, error) {
	switch n.Kind {
	case yaml.MappingNode:
		m := models.NewMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			val, err := convertYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			m.Set(n.Content[i].Value, val)
		}
		return m, nil
	case yaml.SequenceNode:
		seq := models.SequenceValue()
		for _, c := range n.Content {
			item, err := convertYAMLNode(c)
			if err != nil {
				return nil, err
			}
			seq.Seq = append(seq.Seq, item)
		}
		return seq, nil
	case yaml.ScalarNode:
		return convertYAMLScalar(n)
	case yaml.AliasNode:
		return convertYAMLNode(n.Alias)
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return models.NewMapping(), nil
		}
		return convertYAMLNode(n.Content[0])
	default:
		return nil, fmt.Errorf("unsupported YAML node kind %d at line %d", n.Kind, n.Line)
	}
}

func convertYAMLScalar(n *yaml.Node) (*models.Value, error) {
	switch n.Tag {
	case "!!null":
		return models.NullValue(), nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err != nil {
			// yaml.v3 also tags yes/no/on/off spellings as bool.
			b = n.Value == "yes" || n.Value == "Yes" || n.Value == "YES" ||
				n.Value == "on" || n.Value == "On" || n.Value == "ON" ||
				n.Value == "y" || n.Value == "Y" || n.Value == "true"
		}
		return models.BoolValue(b), nil
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(n.Value, 64)
			if ferr != nil {
				return nil, fmt.Errorf("invalid integer %q at line %d", n.Value, n.Line)
			}
			return models.FloatValue(f), nil
		}
		return models.IntValue(i), nil
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q at line %d", n.Value, n.Line)
		}
		return models.FloatValue(f), nil
	default:
		return models.StringValue(n.Value), nil
	}
}
