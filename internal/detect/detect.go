// Package detect scores raw text against every known format and produces a
// ranked, explainable detection result. Scoring is heuristic and single-pass:
// detectors look at extensions, syntax markers, and line-shape consistency,
// but never attempt a full parse. Scores are raw accumulated evidence
// weights, not probabilities; only their relative order matters.
package detect

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/anyparse/anyparse/internal/errors"
	"github.com/anyparse/anyparse/internal/models"
)

// Weights is the immutable scoring configuration. A zero Weights is not
// usable; start from DefaultWeights and override fields as needed.
type Weights struct {
	TOONExtension   float64 `yaml:"toon_extension"`
	Extension       float64 `yaml:"extension"`
	TOONArrayLength float64 `yaml:"toon_array_length"`
	TOONFieldBlock  float64 `yaml:"toon_field_block"`
	TOONIndentation float64 `yaml:"toon_indentation"`
	TOONPattern     float64 `yaml:"toon_pattern"`
	TOONPatternCap  float64 `yaml:"toon_pattern_cap"`
	JSONBrackets    float64 `yaml:"json_brackets"`
	JSONQuotedKeys  float64 `yaml:"json_quoted_keys"`
	JSONBalanced    float64 `yaml:"json_balanced"`
	CSVConsistent   float64 `yaml:"csv_consistent"`
	CSVTable        float64 `yaml:"csv_table"`
	YAMLKeyLines    float64 `yaml:"yaml_key_lines"`
	YAMLListItems   float64 `yaml:"yaml_list_items"`
	YAMLDocMarker   float64 `yaml:"yaml_doc_marker"`
	XMLDeclaration  float64 `yaml:"xml_declaration"`
	XMLTags         float64 `yaml:"xml_tags"`
	XMLClosedRoot   float64 `yaml:"xml_closed_root"`
	TSVConsistent   float64 `yaml:"tsv_consistent"`
	PipeConsistent  float64 `yaml:"pipe_consistent"`
	KeyValueRatio   float64 `yaml:"key_value_ratio"`
	INISections     float64 `yaml:"ini_sections"`
	INIAssignments  float64 `yaml:"ini_assignments"`
	PropertiesRatio float64 `yaml:"properties_ratio"`

	// MinConfidence is the floor under which the winning score counts as
	// no detection at all; TieMargin is the gap under which the top two
	// candidates count as a tie. Both feed ErrDetectionAmbiguous.
	MinConfidence float64 `yaml:"min_confidence"`
	TieMargin     float64 `yaml:"tie_margin"`
}

// DefaultWeights returns the stock scoring weights.
func DefaultWeights() Weights {
	return Weights{
		TOONExtension:   0.3,
		Extension:       0.4,
		TOONArrayLength: 0.25,
		TOONFieldBlock:  0.25,
		TOONIndentation: 0.2,
		TOONPattern:     0.1,
		TOONPatternCap:  0.5,
		JSONBrackets:    0.3,
		JSONQuotedKeys:  0.3,
		JSONBalanced:    0.2,
		CSVConsistent:   0.3,
		CSVTable:        0.4,
		YAMLKeyLines:    0.2,
		YAMLListItems:   0.2,
		YAMLDocMarker:   0.2,
		XMLDeclaration:  0.3,
		XMLTags:         0.2,
		XMLClosedRoot:   0.3,
		TSVConsistent:   0.4,
		PipeConsistent:  0.3,
		KeyValueRatio:   0.3,
		INISections:     0.3,
		INIAssignments:  0.2,
		PropertiesRatio: 0.3,
		MinConfidence:   0.1,
		TieMargin:       0.05,
	}
}

const sampleLimit = 20

var (
	tabularHeaderRe = regexp.MustCompile(`^[\w"]+\[#?\d*[,\t|;]?\]\{[^}]+\}:`)
	arrayHeaderRe   = regexp.MustCompile(`^[\w"]+\[#?\d+[,\t|;]?\]:`)
	keyLineRe       = regexp.MustCompile(`^\s*\w+:`)
	listItemRe      = regexp.MustCompile(`^\s*-\s+`)
	indentedRowRe   = regexp.MustCompile(`^\s+[\w,\-\.\s]+$`)
	lengthMarkerRe  = regexp.MustCompile(`\[#?\d+[,\t|;]?\]`)
	fieldBlockRe    = regexp.MustCompile(`\{[^}]+\}:`)
	jsonKeyRe       = regexp.MustCompile(`"[^"]*"\s*:`)
	xmlTagRe        = regexp.MustCompile(`<\w+[^>]*>`)
	iniSectionRe    = regexp.MustCompile(`^\[[^\]]+\]\s*$`)
	iniAssignRe     = regexp.MustCompile(`^\w+\s*=`)
	propLineRe      = regexp.MustCompile(`^\w[\w.\-]*\s*[=:]`)
	yamlKeyRe       = regexp.MustCompile(`^\w+:`)
)

// Detect scores content against every known format and returns the full
// candidate set ranked by descending confidence. Ties break by declaration
// order of models.AllFormats (most-specific syntax first). Detect never
// fails: in the worst case every candidate scores zero.
func Detect(content, filename string) []models.DetectionResult {
	return DetectWithWeights(content, filename, DefaultWeights())
}

// DetectWithWeights is Detect with an explicit scoring configuration.
func DetectWithWeights(content, filename string, w Weights) []models.DetectionResult {
	content = strings.TrimSpace(content)
	lines := sample(content)

	results := make([]models.DetectionResult, 0, len(models.AllFormats))
	for _, ft := range models.AllFormats {
		var conf float64
		var indicators []string
		switch ft {
		case models.FormatTOON:
			conf, indicators = scoreTOON(content, lines, filename, w)
		case models.FormatJSON:
			conf, indicators = scoreJSON(content, filename, w)
		case models.FormatYAML:
			conf, indicators = scoreYAML(lines, filename, w)
		case models.FormatXML:
			conf, indicators = scoreXML(content, filename, w)
		case models.FormatCSV:
			conf, indicators = scoreDelimited(lines, filename, ".csv", ',', 1, w.CSVConsistent, w.CSVTable, w)
		case models.FormatTSV:
			conf, indicators = scoreDelimited(lines, filename, ".tsv", '\t', 1, w.TSVConsistent, 0, w)
		case models.FormatPipeDelimited:
			conf, indicators = scoreDelimited(lines, filename, "", '|', 2, w.PipeConsistent, 0, w)
		case models.FormatKeyValue:
			conf, indicators = scoreKeyValue(lines, w)
		case models.FormatINI:
			conf, indicators = scoreINI(lines, filename, w)
		case models.FormatProperties:
			conf, indicators = scoreProperties(lines, filename, w)
		}
		results = append(results, models.DetectionResult{
			FormatType: ft,
			Confidence: conf,
			Indicators: indicators,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Confidence != results[j].Confidence {
			return results[i].Confidence > results[j].Confidence
		}
		return results[i].FormatType < results[j].FormatType
	})
	return results
}

// DetectBest returns the top-ranked candidate. It reports
// errors.ErrDetectionAmbiguous when the winner scores below the configured
// floor or the runner-up is within the tie margin; the returned result is
// still the best available guess and callers may proceed with it.
func DetectBest(content, filename string) (models.DetectionResult, error) {
	return DetectBestWithWeights(content, filename, DefaultWeights())
}

// DetectBestWithWeights is DetectBest with an explicit scoring configuration.
func DetectBestWithWeights(content, filename string, w Weights) (models.DetectionResult, error) {
	ranked := DetectWithWeights(content, filename, w)
	best := ranked[0]
	if best.Confidence < w.MinConfidence {
		return best, errors.ErrDetectionAmbiguous
	}
	if len(ranked) > 1 && best.Confidence-ranked[1].Confidence < w.TieMargin {
		return best, errors.ErrDetectionAmbiguous
	}
	return best, nil
}

func sample(content string) []string {
	lines := strings.Split(content, "\n")
	if len(lines) > sampleLimit {
		lines = lines[:sampleLimit]
	}
	return lines
}

func hasExt(filename, ext string) bool {
	return filename != "" && strings.HasSuffix(strings.ToLower(filename), ext)
}

func scoreTOON(content string, lines []string, filename string, w Weights) (float64, []string) {
	var conf float64
	var indicators []string

	if hasExt(filename, ".toon") {
		indicators = append(indicators, "File extension: .toon")
		conf += w.TOONExtension
	}

	patterns := []struct {
		re   *regexp.Regexp
		desc string
	}{
		{tabularHeaderRe, "Tabular array declaration"},
		{arrayHeaderRe, "Array with length"},
		{keyLineRe, "Key-value structure"},
		{listItemRe, "List item marker"},
		{indentedRowRe, "Indented data row"},
	}

	matches := 0
	for _, line := range lines {
		for _, p := range patterns {
			if p.re.MatchString(line) {
				indicators = append(indicators, "Pattern match: "+p.desc)
				matches++
				break
			}
		}
	}

	indented := 0
	for _, line := range lines {
		if strings.HasPrefix(line, "  ") {
			indented++
		}
	}
	if len(lines) > 0 && float64(indented) > float64(len(lines))*0.3 {
		indicators = append(indicators, "Significant indentation")
		conf += w.TOONIndentation
	}

	if lengthMarkerRe.MatchString(content) {
		indicators = append(indicators, "Array length markers")
		conf += w.TOONArrayLength
	}
	if fieldBlockRe.MatchString(content) {
		indicators = append(indicators, "Field declarations")
		conf += w.TOONFieldBlock
	}

	conf += min(float64(matches)*w.TOONPattern, w.TOONPatternCap)
	return conf, indicators
}

func scoreJSON(content, filename string, w Weights) (float64, []string) {
	var conf float64
	var indicators []string

	if hasExt(filename, ".json") {
		indicators = append(indicators, "File extension: .json")
		conf += w.Extension
	}

	wrapped := (strings.HasPrefix(content, "{") && strings.HasSuffix(content, "}")) ||
		(strings.HasPrefix(content, "[") && strings.HasSuffix(content, "]"))
	if wrapped {
		indicators = append(indicators, "JSON brackets structure")
		conf += w.JSONBrackets
	}

	if jsonKeyRe.MatchString(content) {
		indicators = append(indicators, "Quoted object keys")
		conf += w.JSONQuotedKeys
	}

	if wrapped && bracketsBalanced(content) {
		indicators = append(indicators, "Balanced brackets")
		conf += w.JSONBalanced
	}

	return conf, indicators
}

// bracketsBalanced does a cheap single-pass brace/bracket depth check,
// skipping quoted regions. It is corroboration, not validation; the JSON
// adapter does the real parse.
func bracketsBalanced(content string) bool {
	depth := 0
	inString := false
	escaped := false
	for _, r := range content {
		if escaped {
			escaped = false
			continue
		}
		switch {
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
		case r == '{' || r == '[':
			depth++
		case r == '}' || r == ']':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0 && !inString
}

func scoreYAML(lines []string, filename string, w Weights) (float64, []string) {
	var conf float64
	var indicators []string

	if hasExt(filename, ".yaml") || hasExt(filename, ".yml") {
		indicators = append(indicators, "File extension: .yaml/.yml")
		conf += w.Extension
	}

	keyLines, listItems, docMarker := 0, 0, false
	for _, line := range lines {
		if yamlKeyRe.MatchString(line) {
			keyLines++
		}
		if listItemRe.MatchString(line) {
			listItems++
		}
		if strings.TrimRight(line, " ") == "---" {
			docMarker = true
		}
	}
	if keyLines > 0 {
		indicators = append(indicators, "Key-value structure")
		conf += w.YAMLKeyLines
	}
	if listItems > 0 {
		indicators = append(indicators, "List items")
		conf += w.YAMLListItems
	}
	if docMarker {
		indicators = append(indicators, "Document marker")
		conf += w.YAMLDocMarker
	}

	return conf, indicators
}

func scoreXML(content, filename string, w Weights) (float64, []string) {
	var conf float64
	var indicators []string

	if hasExt(filename, ".xml") {
		indicators = append(indicators, "File extension: .xml")
		conf += w.Extension
	}
	if strings.HasPrefix(content, "<?xml") {
		indicators = append(indicators, "XML declaration")
		conf += w.XMLDeclaration
	}
	if xmlTagRe.MatchString(content) {
		indicators = append(indicators, "XML tags")
		conf += w.XMLTags
	}
	if rootTagClosed(content) {
		indicators = append(indicators, "Closed root element")
		conf += w.XMLClosedRoot
	}

	return conf, indicators
}

// rootTagClosed checks that the first element's closing tag appears at the
// end of the document.
func rootTagClosed(content string) bool {
	m := xmlTagRe.FindString(content)
	if m == "" {
		return false
	}
	name := strings.TrimLeft(m, "<")
	for i, r := range name {
		if r == ' ' || r == '>' || r == '/' {
			name = name[:i]
			break
		}
	}
	if name == "" {
		return false
	}
	return strings.HasSuffix(strings.TrimSpace(content), "</"+name+">")
}

// scoreDelimited covers CSV, TSV, and pipe-delimited content: the evidence
// is a consistent per-line delimiter count across the sampled lines.
func scoreDelimited(lines []string, filename, ext string, delim rune, minCount int, consistentW, tableW float64, w Weights) (float64, []string) {
	var conf float64
	var indicators []string

	if ext != "" && hasExt(filename, ext) {
		indicators = append(indicators, "File extension: "+ext)
		conf += w.Extension
	}

	counts := map[int]int{}
	maxCount := 0
	nonEmpty := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		nonEmpty++
		n := strings.Count(line, string(delim))
		counts[n]++
		if n > maxCount {
			maxCount = n
		}
	}

	if nonEmpty > 0 && len(counts) <= 2 && maxCount >= minCount {
		indicators = append(indicators, fmt.Sprintf("Consistent %q separation", delim))
		conf += consistentW

		if tableW > 0 && nonEmpty >= 2 {
			indicators = append(indicators, "Tabular structure")
			conf += tableW
		}
	}

	return conf, indicators
}

func scoreKeyValue(lines []string, w Weights) (float64, []string) {
	var indicators []string

	kv, total := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		total++
		if strings.Contains(line, "=") && !strings.HasPrefix(trimmed, "#") {
			kv++
		}
	}
	if total > 0 && float64(kv) > float64(total)*0.5 {
		indicators = append(indicators, "Key-value pairs")
		return w.KeyValueRatio, indicators
	}
	return 0, indicators
}

func scoreINI(lines []string, filename string, w Weights) (float64, []string) {
	var conf float64
	var indicators []string

	if hasExt(filename, ".ini") {
		indicators = append(indicators, "File extension: .ini")
		conf += w.Extension
	}

	sections, assigns := 0, 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if iniSectionRe.MatchString(trimmed) {
			sections++
		}
		if iniAssignRe.MatchString(trimmed) {
			assigns++
		}
	}
	if sections > 0 {
		indicators = append(indicators, "INI sections")
		conf += w.INISections
	}
	if assigns > 0 {
		indicators = append(indicators, "Key-value assignments")
		conf += w.INIAssignments
	}

	return conf, indicators
}

func scoreProperties(lines []string, filename string, w Weights) (float64, []string) {
	var conf float64
	var indicators []string

	if hasExt(filename, ".properties") {
		indicators = append(indicators, "File extension: .properties")
		conf += w.Extension
	}

	props, total := 0, 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		total++
		if propLineRe.MatchString(line) {
			props++
		}
	}
	if total > 0 && float64(props) > float64(total)*0.5 {
		indicators = append(indicators, "Properties format")
		conf += w.PropertiesRatio
	}

	return conf, indicators
}
