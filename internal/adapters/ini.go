package adapters

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"

	"github.com/anyparse/anyparse/internal/models"
)

// ParseINI decodes an INI document: keys outside any section sit at the top
// level, each named section becomes a nested mapping, and values go through
// the shared scalar inference.
func ParseINI(content string, opts models.ParseOptions) models.ParseResult {
	start := time.Now()
	res := models.ParseResult{FormatType: models.FormatINI, Confidence: 1.0}

	file, err := ini.LoadSources(ini.LoadOptions{
		SkipUnrecognizableLines: opts.Repair(),
	}, []byte(content))
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("invalid INI: %v", err))
		res.ParseTime = time.Since(start)
		return res
	}

	doc := models.NewMapping()
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			for _, key := range section.Keys() {
				doc.Set(key.Name(), inferScalar(key.Value()))
			}
			continue
		}
		sec := models.NewMapping()
		for _, key := range section.Keys() {
			sec.Set(key.Name(), inferScalar(key.Value()))
		}
		doc.Set(section.Name(), sec)
	}

	res.Data = doc
	res.ParseTime = time.Since(start)
	return res
}
