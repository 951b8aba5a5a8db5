package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/anyparse/anyparse/internal/cli"
	"github.com/anyparse/anyparse/internal/config"
	"github.com/anyparse/anyparse/internal/detect"
	"github.com/anyparse/anyparse/internal/dispatch"
	"github.com/anyparse/anyparse/internal/errors"
	"github.com/anyparse/anyparse/internal/models"
)

// CLI defines the command-line interface
var CLI struct {
	Input        string `help:"Path to input file. If not specified, reads from stdin." short:"i" type:"path"`
	Output       string `help:"Path to output file. If not specified, writes to stdout." short:"o" type:"path"`
	To           string `help:"Target format for conversion." short:"t" default:"toon" enum:"toon,json,yaml,csv"`
	Format       string `help:"Force the input format instead of detecting it (toon, json, yaml, xml, csv, tsv, pipe, keyvalue, ini, properties)." short:"f"`
	Delimiter    string `help:"Field delimiter for TOON arrays and delimited tables." short:"d" default:","`
	Indent       int    `help:"Spaces per indentation level in the output." default:"2"`
	LengthMarker bool   `help:"Emit TOON array lengths as [#N]."`
	Strict       bool   `help:"Fail on the first structural violation instead of repairing." short:"s"`
	SnakeHeaders bool   `help:"Normalize CSV/TSV/pipe headers to snake_case."`
	DetectOnly   bool   `help:"Only report the detected format, ranked by confidence."`
	Analyze      bool   `help:"Parse the input and report its structure without converting."`
	Stats        bool   `help:"Report estimated token savings of the conversion."`
	Quiet        bool   `help:"Suppress warnings." short:"q"`
	Config       string `help:"Path to a config file. Defaults to the nearest .anyparse.yml." type:"path"`
	Version      bool   `help:"Show version information." short:"v"`
	Interactive  bool   `help:"Run in interactive mode, allowing direct input with Ctrl+D to process." short:"I"`
}

// Version information
const (
	Version = "0.1.0"
)

func main() {
	parser := kong.Must(&CLI,
		kong.Name("anyparse"),
		kong.Description("Detect structured text formats and convert them to TOON, JSON, YAML or CSV"),
		kong.UsageOnError(),
	)

	// With no arguments and no piped stdin, drop into interactive mode.
	if len(os.Args) == 1 {
		CLI.Interactive = true
	}

	if _, err := parser.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	if CLI.Version {
		fmt.Printf("anyparse version %s\n", Version)
		return
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		fmt.Fprintf(os.Stderr, "\nFor help, run: anyparse --help\n")
		os.Exit(1)
	}
}

// run executes the main program logic
func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	content, filename, err := readInput()
	if err != nil {
		return err
	}

	parseOpts, encOpts := applyFlags(cfg)
	stderr := cli.NewRenderer(os.Stderr)

	// Detection-only mode reports all candidates and stops.
	if CLI.DetectOnly {
		results := detect.DetectWithWeights(content, filename, cfg.Detection)
		cli.NewRenderer(os.Stdout).RenderDetection(results)
		return nil
	}

	req := dispatch.Request{
		Content:  content,
		Filename: filename,
		Options:  parseOpts,
		Weights:  cfg.Detection,
	}
	if CLI.Format != "" {
		ft, err := models.ParseFormatType(CLI.Format)
		if err != nil {
			return errors.NewInputError(err.Error(), nil)
		}
		req.Format = ft
	}

	res, err := dispatch.ParseAnything(req)
	if err != nil {
		return err
	}

	if !CLI.Quiet {
		stderr.RenderWarnings(res.Warnings)
	}

	if CLI.Analyze {
		cli.NewRenderer(os.Stdout).RenderAnalysis(content, res)
		return nil
	}

	if !res.IsSuccessful() {
		msg := "parse failed"
		if len(res.Errors) > 0 {
			msg = res.Errors[0]
		}
		return errors.NewStructuralError(fmt.Sprintf("%s input: %s", res.FormatType, msg), nil)
	}

	target, err := models.ParseFormatType(CLI.To)
	if err != nil {
		return errors.NewInputError(err.Error(), nil)
	}
	if target == res.FormatType && !CLI.Quiet {
		fmt.Fprintf(os.Stderr, "note: input is already %s, re-encoding canonically\n", target)
	}

	out, err := dispatch.Encode(res.Data, target, encOpts)
	if err != nil {
		return err
	}

	if CLI.Stats && !CLI.Quiet {
		stderr.RenderStats(dispatch.EstimateSavings(content, out))
	}

	return writeOutput(out)
}

// loadConfig layers the nearest config file, if any, over the defaults.
func loadConfig() (*config.Config, error) {
	path := CLI.Config
	if path == "" {
		path = config.FindConfigFile()
	}
	if path == "" {
		return config.NewConfig(), nil
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, errors.NewInputError(fmt.Sprintf("config file %s", path), err)
	}
	return cfg, nil
}

// applyFlags folds explicit CLI flags over the config-derived options.
func applyFlags(cfg *config.Config) (models.ParseOptions, models.EncodeOptions) {
	parseOpts := cfg.ParseOptions()
	encOpts := cfg.EncodeOptions()

	if CLI.Strict {
		parseOpts.Strict = true
	}
	if CLI.SnakeHeaders {
		parseOpts.SnakeCaseHeaders = true
	}
	if CLI.Delimiter != "," {
		if d, err := models.ParseDelimiter(CLI.Delimiter); err == nil {
			parseOpts.Delimiter = d
			encOpts.Delimiter = d
		}
	}
	if CLI.Indent != 2 {
		encOpts.Indent = CLI.Indent
	}
	if CLI.LengthMarker {
		encOpts.LengthMarker = true
	}
	return parseOpts, encOpts
}

// readInput reads the document from file, stdin or the interactive prompt.
func readInput() (content, filename string, err error) {
	if CLI.Input != "" {
		data, err := os.ReadFile(CLI.Input)
		if err != nil {
			return "", "", errors.NewInputError(fmt.Sprintf("failed to read file '%s'", CLI.Input), errors.ErrInvalidFilePath)
		}
		return string(data), filepath.Base(CLI.Input), nil
	}

	stdinInfo, err := os.Stdin.Stat()
	if err != nil {
		return "", "", errors.NewInputError("failed to access stdin", err)
	}

	if (stdinInfo.Mode() & os.ModeCharDevice) != 0 {
		if CLI.Interactive {
			return readInteractiveInput()
		}
		return "", "", errors.NewInputError("no input provided", errors.ErrNoInput)
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", "", errors.NewInputError("failed to read from stdin", err)
	}
	if len(data) == 0 {
		return "", "", errors.NewInputError("empty input received from stdin", errors.ErrEmptyInput)
	}
	return string(data), "", nil
}

// writeOutput writes the converted document to file or stdout
func writeOutput(out string) error {
	if CLI.Output != "" {
		if err := os.WriteFile(CLI.Output, []byte(out+"\n"), 0644); err != nil {
			return errors.NewOutputError(fmt.Sprintf("failed to write to file '%s'", CLI.Output), err)
		}
		fmt.Fprintf(os.Stderr, "Output written to %s\n", CLI.Output)
		return nil
	}

	if _, err := fmt.Println(strings.TrimRight(out, "\n")); err != nil {
		return errors.NewOutputError("failed to write to stdout", err)
	}
	return nil
}

// readInteractiveInput provides an interactive mode for users to paste a
// document and signal completion with Ctrl+D (EOF)
func readInteractiveInput() (string, string, error) {
	fmt.Fprintln(os.Stderr, "anyparse Interactive Mode")
	fmt.Fprintln(os.Stderr, "Paste your document below and press Ctrl+D (or Ctrl+Z on Windows) when done:")

	reader := bufio.NewReader(os.Stdin)
	var b strings.Builder

	for {
		line, err := reader.ReadString('\n')
		if err == io.EOF {
			b.WriteString(line)
			break
		}
		if err != nil {
			return "", "", errors.NewInputError("error reading input", err)
		}
		b.WriteString(line)
	}

	if b.Len() == 0 {
		return "", "", errors.NewInputError("empty input received", errors.ErrEmptyInput)
	}

	fmt.Fprintln(os.Stderr, "\nProcessing input...")
	return b.String(), "", nil
}
