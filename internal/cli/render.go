// Package cli renders detection and analysis results for the terminal.
package cli

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/anyparse/anyparse/internal/dispatch"
	"github.com/anyparse/anyparse/internal/models"
)

// Renderer writes human-oriented reports. Color is enabled only when the
// destination is a real terminal.
type Renderer struct {
	out   io.Writer
	color bool
}

// NewRenderer builds a renderer for the given writer, sniffing terminal
// capability when it is a file handle.
func NewRenderer(w io.Writer) *Renderer {
	useColor := false
	if f, ok := w.(*os.File); ok {
		useColor = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &Renderer{out: w, color: useColor}
}

// NewPlainRenderer builds a renderer with color forced off.
func NewPlainRenderer(w io.Writer) *Renderer {
	return &Renderer{out: w}
}

// confidenceColor picks the report color for a score: high scores green,
// middling yellow, weak red.
func (r *Renderer) confidenceColor(score float64) *color.Color {
	c := color.New()
	switch {
	case score >= 0.8:
		c = color.New(color.FgGreen)
	case score >= 0.5:
		c = color.New(color.FgYellow)
	default:
		c = color.New(color.FgRed)
	}
	if !r.color {
		c.DisableColor()
	}
	return c
}

// RenderDetection prints the ranked candidates from a detection pass.
func (r *Renderer) RenderDetection(results []models.DetectionResult) {
	fmt.Fprintln(r.out, "Format detection:")
	for _, res := range results {
		c := r.confidenceColor(res.Confidence)
		fmt.Fprintf(r.out, "  %-11s %s", res.FormatType, c.Sprintf("%.2f", res.Confidence))
		if len(res.Indicators) > 0 {
			fmt.Fprintf(r.out, "  (%s)", strings.Join(res.Indicators, ", "))
		}
		fmt.Fprintln(r.out)
	}
}

// RenderAnalysis prints a content and structure report for a parsed
// document.
func (r *Renderer) RenderAnalysis(content string, res models.ParseResult) {
	c := r.confidenceColor(res.Confidence)
	fmt.Fprintf(r.out, "Lines:      %d\n", strings.Count(content, "\n")+1)
	fmt.Fprintf(r.out, "Characters: %d\n", len(content))
	fmt.Fprintf(r.out, "Words:      %d\n", len(strings.Fields(content)))
	fmt.Fprintf(r.out, "Format:     %s\n", res.FormatType)
	fmt.Fprintf(r.out, "Confidence: %s\n", c.Sprintf("%.2f", res.Confidence))
	fmt.Fprintf(r.out, "Parse time: %s\n", res.ParseTime)

	if len(res.Metadata) > 0 {
		fmt.Fprintln(r.out, "Structure:")
		keys := make([]string, 0, len(res.Metadata))
		for k := range res.Metadata {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(r.out, "  %s: %s\n", k, renderMetaValue(res.Metadata[k]))
		}
	}

	r.RenderWarnings(res.Warnings)
	for _, e := range res.Errors {
		c := color.New(color.FgRed)
		if !r.color {
			c.DisableColor()
		}
		fmt.Fprintf(r.out, "%s %s\n", c.Sprint("error:"), e)
	}
}

// RenderWarnings prints each warning on its own line.
func (r *Renderer) RenderWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	c := color.New(color.FgYellow)
	if !r.color {
		c.DisableColor()
	}
	for _, w := range warnings {
		fmt.Fprintf(r.out, "%s %s\n", c.Sprint("warning:"), w)
	}
}

// RenderStats prints the token estimate for a conversion.
func (r *Renderer) RenderStats(stats dispatch.TokenStats) {
	fmt.Fprintf(r.out, "Input tokens:  ~%d\n", stats.InputTokens)
	fmt.Fprintf(r.out, "Output tokens: ~%d\n", stats.OutputTokens)
	c := r.confidenceColor(stats.SavingsPercent / 100)
	fmt.Fprintf(r.out, "Savings:       %s\n", c.Sprintf("%.1f%%", stats.SavingsPercent))
}

func renderMetaValue(v *models.Value) string {
	if v == nil {
		return "null"
	}
	switch v.Kind {
	case models.Sequence:
		parts := make([]string, len(v.Seq))
		for i, s := range v.Seq {
			parts[i] = renderMetaValue(s)
		}
		return strings.Join(parts, ", ")
	case models.Mapping:
		parts := make([]string, len(v.Keys))
		for i, k := range v.Keys {
			parts[i] = fmt.Sprintf("%s=%s", k, renderMetaValue(v.Vals[i]))
		}
		return strings.Join(parts, ", ")
	case models.String:
		return v.Str
	default:
		return fmt.Sprintf("%v", v.ToInterface())
	}
}
