package adapters

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/anyparse/anyparse/internal/models"
)

// ParseXML builds a mapping tree from an XML document. Attributes become
// "@name" keys, repeated child elements collapse into a sequence, and an
// element with only character data becomes a scalar. Mixed content keeps
// its text under "#text".
func ParseXML(content string, opts models.ParseOptions) models.ParseResult {
	start := time.Now()
	res := models.ParseResult{FormatType: models.FormatXML, Confidence: 1.0}

	dec := xml.NewDecoder(strings.NewReader(content))
	var rootName string
	var root *models.Value

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("invalid XML: %v", err))
			res.ParseTime = time.Since(start)
			return res
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if root != nil {
			if opts.Repair() {
				res.Warnings = append(res.Warnings, "multiple root elements: extra roots ignored")
				if err := dec.Skip(); err != nil {
					break
				}
				continue
			}
			res.Errors = append(res.Errors, "multiple root elements")
			res.ParseTime = time.Since(start)
			return res
		}
		rootName = se.Name.Local
		root, err = decodeXMLElement(dec, se)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("invalid XML: %v", err))
			res.ParseTime = time.Since(start)
			return res
		}
	}

	if root == nil {
		res.Errors = append(res.Errors, "no root element")
		res.ParseTime = time.Since(start)
		return res
	}

	doc := models.NewMapping()
	doc.Set(rootName, root)
	res.Data = doc
	res.ParseTime = time.Since(start)
	return res
}

func decodeXMLElement(dec *xml.Decoder, se xml.StartElement) (*models.Value, error) {
	m := models.NewMapping()
	for _, attr := range se.Attr {
		m.Set("@"+attr.Name.Local, inferScalar(attr.Value))
	}

	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeXMLElement(dec, t)
			if err != nil {
				return nil, err
			}
			addXMLChild(m, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			body := strings.TrimSpace(text.String())
			if m.Len() == 0 {
				if body == "" {
					return models.NewMapping(), nil
				}
				return inferScalar(body), nil
			}
			if body != "" {
				m.Set("#text", models.StringValue(body))
			}
			return m, nil
		}
	}
}

// addXMLChild inserts a child element, promoting the slot to a sequence on
// the second occurrence of the same name.
func addXMLChild(m *models.Value, name string, child *models.Value) {
	existing, ok := m.Get(name)
	if !ok {
		m.Set(name, child)
		return
	}
	if existing.Kind == models.Sequence {
		existing.Seq = append(existing.Seq, child)
		return
	}
	m.Set(name, models.SequenceValue(existing, child))
}
