package adapters

import (
	"fmt"
	"strconv"
	"strings"

	"encoding/csv"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/anyparse/anyparse/internal/models"
)

// EncodeJSON renders a value tree as JSON with mapping keys in insertion
// order. A map-based marshal would sort them, so the document is written
// directly; string escaping is delegated to the JSON library.
func EncodeJSON(v *models.Value, indent int) (string, error) {
	var b strings.Builder
	if err := writeJSON(&b, v, indent, 0); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeJSON(b *strings.Builder, v *models.Value, indent, depth int) error {
	if v == nil {
		b.WriteString("null")
		return nil
	}
	switch v.Kind {
	case models.Null:
		b.WriteString("null")
	case models.Bool:
		b.WriteString(strconv.FormatBool(v.Bool))
	case models.Int:
		b.WriteString(strconv.FormatInt(v.Int, 10))
	case models.Float:
		out, err := gojson.Marshal(v.Float)
		if err != nil {
			return fmt.Errorf("unrepresentable float %v", v.Float)
		}
		b.Write(out)
	case models.String:
		out, err := gojson.Marshal(v.Str)
		if err != nil {
			return err
		}
		b.Write(out)
	case models.Sequence:
		if len(v.Seq) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteByte('[')
		for i, item := range v.Seq {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSONNewline(b, indent, depth+1)
			if err := writeJSON(b, item, indent, depth+1); err != nil {
				return err
			}
		}
		writeJSONNewline(b, indent, depth)
		b.WriteByte(']')
	case models.Mapping:
		if v.Len() == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteByte('{')
		for i, key := range v.Keys {
			if i > 0 {
				b.WriteByte(',')
			}
			writeJSONNewline(b, indent, depth+1)
			keyOut, err := gojson.Marshal(key)
			if err != nil {
				return err
			}
			b.Write(keyOut)
			b.WriteByte(':')
			if indent > 0 {
				b.WriteByte(' ')
			}
			if err := writeJSON(b, v.Vals[i], indent, depth+1); err != nil {
				return err
			}
		}
		writeJSONNewline(b, indent, depth)
		b.WriteByte('}')
	default:
		return fmt.Errorf("unknown value kind %d", v.Kind)
	}
	return nil
}

func writeJSONNewline(b *strings.Builder, indent, depth int) {
	if indent <= 0 {
		return
	}
	b.WriteByte('\n')
	b.WriteString(strings.Repeat(" ", indent*depth))
}

// EncodeYAML renders a value tree as YAML through the node API so mapping
// key order is preserved.
func EncodeYAML(v *models.Value) (string, error) {
	node, err := buildYAMLNode(v)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func buildYAMLNode(v *models.Value) (*yaml.Node, error) {
	if v == nil {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	}
	switch v.Kind {
	case models.Null:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}, nil
	case models.Bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.Bool)}, nil
	case models.Int:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(v.Int, 10)}, nil
	case models.Float:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(v.Float, 'g', -1, 64)}, nil
	case models.String:
		n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.Str}
		return n, nil
	case models.Sequence:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.Seq {
			c, err := buildYAMLNode(item)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, c)
		}
		return n, nil
	case models.Mapping:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for i, key := range v.Keys {
			c, err := buildYAMLNode(v.Vals[i])
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, c)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("unknown value kind %d", v.Kind)
	}
}

// EncodeCSV renders a sequence of flat mappings as a delimited table. The
// header comes from the first row's key order; rows missing a header key
// emit an empty cell, and only scalar cells are representable.
func EncodeCSV(v *models.Value, sep rune) (string, error) {
	seq := v
	// A mapping holding exactly one array is unwrapped, so TOON documents
	// like "users[2]{...}" convert without an explicit path.
	if v != nil && v.Kind == models.Mapping && v.Len() == 1 && v.Vals[0].Kind == models.Sequence {
		seq = v.Vals[0]
	}
	if seq == nil || seq.Kind != models.Sequence {
		return "", fmt.Errorf("CSV output requires an array of records")
	}

	var header []string
	for _, row := range seq.Seq {
		if row.Kind != models.Mapping {
			return "", fmt.Errorf("CSV output requires an array of records, found %s element", row.Kind)
		}
		if header == nil {
			header = row.Keys
		}
		for i, k := range row.Keys {
			if !row.Vals[i].IsScalar() {
				return "", fmt.Errorf("CSV output requires flat records, field %q is nested", k)
			}
		}
	}
	if header == nil {
		return "", fmt.Errorf("CSV output requires at least one record")
	}

	var b strings.Builder
	w := csv.NewWriter(&b)
	w.Comma = sep
	if err := w.Write(header); err != nil {
		return "", err
	}
	for _, row := range seq.Seq {
		record := make([]string, len(header))
		for i, k := range header {
			if cell, ok := row.Get(k); ok {
				record[i] = renderScalar(cell)
			}
		}
		if err := w.Write(record); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return strings.TrimRight(b.String(), "\n"), nil
}
