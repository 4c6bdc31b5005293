// Package main implements the hl7v2 CLI tool: parse HL7 v2 messages and
// print their structure, issues, a FHIR mapping or FHIRPath query results.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofhir/hl7v2"
	"github.com/gofhir/hl7v2/pkg/config"
	"github.com/gofhir/hl7v2/pkg/fhirmap"
	"github.com/gofhir/hl7v2/pkg/logger"
	"github.com/gofhir/hl7v2/pkg/parser"
	"github.com/gofhir/hl7v2/pkg/query"
	"github.com/gofhir/hl7v2/stream"
	"github.com/gofhir/hl7v2/worker"
)

const (
	version = "0.1.0"
	usage   = `hl7v2 - HL7 v2 message parser

Usage:
  hl7v2 [options] <file>...
  hl7v2 [options] -           (read from stdin)
  cat message.hl7 | hl7v2 -   (pipe input)

Examples:
  hl7v2 adt.hl7
  hl7v2 -preset strict adt.hl7
  hl7v2 -output json *.hl7
  hl7v2 -output fhir oru.hl7
  hl7v2 -output hl7 -filter MSH,PID adt.hl7
  hl7v2 -query "Bundle.entry.resource.where(resourceType='Patient').name.family" adt.hl7
  hl7v2 -batch batch.hl7
  hl7v2 -xml message.xml

Options:
`
)

// OutputFormat specifies the output format.
type OutputFormat string

// Output format constants.
const (
	OutputText OutputFormat = "text"
	OutputJSON OutputFormat = "json"
	OutputFHIR OutputFormat = "fhir"
	OutputHL7  OutputFormat = "hl7"
)

// Config holds CLI configuration
type Config struct {
	ConfigFile  string
	Preset      string
	Output      OutputFormat
	Query       string
	Filter      []string
	XML         bool
	Batch       bool
	Quiet       bool
	Verbose     bool
	LogLevel    string
	ShowVersion bool
	Help        bool
	Files       []string
}

// MessageOutput represents the JSON output structure
type MessageOutput struct {
	Source      string        `json:"source"`
	Index       int           `json:"index,omitempty"`
	Valid       bool          `json:"valid"`
	MessageType string        `json:"message_type,omitempty"`
	ControlID   string        `json:"control_id,omitempty"`
	Structure   string        `json:"structure,omitempty"`
	Version     string        `json:"version,omitempty"`
	Segments    int           `json:"segments"`
	Errors      int           `json:"errors"`
	Warnings    int           `json:"warnings"`
	Issues      []hl7v2.Issue `json:"issues,omitempty"`
	Query       []string      `json:"query,omitempty"`
	Duration    string        `json:"duration,omitempty"`
}

// app carries what every input is processed with.
type app struct {
	cfg    *Config
	parser *parser.Parser
	stream *stream.MessageParser
	query  *query.Evaluator
	batch  *worker.BatchParser
	stdout io.Writer
	stderr io.Writer
}

func main() {
	cfg := parseFlags(os.Args[1:])

	if cfg.ShowVersion {
		fmt.Printf("hl7v2 v%s\n", version)
		os.Exit(0)
	}

	if cfg.Help || len(cfg.Files) == 0 {
		flag.Usage()
		os.Exit(0)
	}

	os.Exit(run(cfg, os.Stdin, os.Stdout, os.Stderr))
}

func parseFlags(args []string) *Config {
	cfg := &Config{Output: OutputText}

	fs := flag.NewFlagSet("hl7v2", flag.ExitOnError)
	var output, filter string

	fs.StringVar(&cfg.ConfigFile, "config", "", "TOML configuration file")
	fs.StringVar(&cfg.Preset, "preset", "", "Parser preset: strict, lax (overrides the config file)")
	fs.StringVar(&output, "output", "text", "Output format: text, json, fhir, hl7")
	fs.StringVar(&cfg.Query, "query", "", "FHIRPath expression evaluated over the FHIR mapping")
	fs.StringVar(&filter, "filter", "", "Segments to keep (comma-separated); headers are always kept")
	fs.BoolVar(&cfg.XML, "xml", false, "Input is HL7 v2 XML")
	fs.BoolVar(&cfg.Batch, "batch", false, "Input holds several messages (batch files, MSH-separated dumps)")
	fs.BoolVar(&cfg.Quiet, "quiet", false, "Only show errors and warnings")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "Log recovered conditions")
	fs.StringVar(&cfg.LogLevel, "log-level", "", "Log level: debug, info, warn, error, none")
	fs.BoolVar(&cfg.ShowVersion, "v", false, "Show version")
	fs.BoolVar(&cfg.Help, "help", false, "Show help")

	fs.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		fs.PrintDefaults()
	}
	flag.Usage = fs.Usage

	fs.Parse(args)

	if filter != "" {
		for _, name := range strings.Split(filter, ",") {
			if name = strings.ToUpper(strings.TrimSpace(name)); name != "" {
				cfg.Filter = append(cfg.Filter, name)
			}
		}
	}

	switch OutputFormat(strings.ToLower(output)) {
	case OutputJSON:
		cfg.Output = OutputJSON
	case OutputFHIR:
		cfg.Output = OutputFHIR
	case OutputHL7:
		cfg.Output = OutputHL7
	default:
		cfg.Output = OutputText
	}

	cfg.Files = fs.Args()
	return cfg
}

// options resolves parser options: the config file, then the preset, then
// individual flags.
func options(cfg *Config) (config.Config, error) {
	fileCfg := config.Default()
	if cfg.ConfigFile != "" {
		var err error
		if fileCfg, err = config.Load(cfg.ConfigFile); err != nil {
			return config.Config{}, err
		}
	}

	var opts []hl7v2.Option
	switch strings.ToLower(cfg.Preset) {
	case "":
	case "strict":
		opts = append(opts, hl7v2.StrictPreset()...)
	case "lax":
		opts = append(opts, hl7v2.LaxPreset()...)
	default:
		return config.Config{}, fmt.Errorf("unknown preset %q", cfg.Preset)
	}
	if cfg.Filter != nil {
		opts = append(opts, hl7v2.WithSegmentFilter(cfg.Filter...))
	}
	if cfg.Verbose {
		opts = append(opts, hl7v2.WithVerbose(true))
	}

	o := fileCfg.Options.Clone()
	for _, opt := range opts {
		opt(o)
	}
	fileCfg.Options = o

	if cfg.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			return config.Config{}, err
		}
		fileCfg.LogLevel = level
	}
	return fileCfg, nil
}

func run(cfg *Config, stdin io.Reader, stdout, stderr io.Writer) int {
	resolved, err := options(cfg)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	log := logger.New(stderr, resolved.LogLevel)
	p := parser.NewWithOptions(resolved.Options).WithLogger(log)
	a := &app{
		cfg:    cfg,
		parser: p,
		stream: stream.NewMessageParser(p).WithWorkerCount(resolved.Server.Workers),
		query:  query.New(resolved.QueryCacheSize),
		stdout: stdout,
		stderr: stderr,
	}
	parse := worker.ForParser(p)
	if cfg.XML {
		parse = func(_ context.Context, msg []byte) (*parser.Document, error) {
			return p.ParseXML(bytes.NewReader(msg))
		}
	}
	a.batch = worker.NewBatchParser(parse, resolved.Server.Workers)

	if cfg.Query != "" {
		if _, err := a.query.Compile(cfg.Query); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}

	inputs, hasErrors := a.read(stdin)
	outputs := make([]MessageOutput, 0, len(inputs))
	var bundles []any

	collect := func(outs []MessageOutput, resources []any, failed bool) {
		outputs = append(outputs, outs...)
		bundles = append(bundles, resources...)
		if failed {
			hasErrors = true
		}
	}

	if cfg.Batch {
		for _, in := range inputs {
			if in.err != nil {
				collect(a.readFailure(in), nil, true)
				continue
			}
			collect(a.process(in.name, in.data))
		}
	} else {
		collect(a.parseAll(inputs))
	}

	switch cfg.Output {
	case OutputJSON:
		jsonOutput, _ := json.MarshalIndent(outputs, "", "  ")
		fmt.Fprintln(stdout, string(jsonOutput))
	case OutputFHIR:
		var v any = bundles
		if len(bundles) == 1 {
			v = bundles[0]
		}
		jsonOutput, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintln(stdout, string(jsonOutput))
	}

	if hasErrors {
		return 1
	}
	return 0
}

// input is one file or stdin, read before parsing.
type input struct {
	name string
	data []byte
	err  error
}

// read expands the file arguments into inputs. The second result is true
// when a pattern could not be used at all.
func (a *app) read(stdin io.Reader) ([]input, bool) {
	var (
		inputs []input
		bad    bool
	)
	for _, file := range a.cfg.Files {
		if file == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				fmt.Fprintf(a.stderr, "Error reading stdin: %v\n", err)
				bad = true
				continue
			}
			inputs = append(inputs, input{name: "stdin", data: data})
			continue
		}

		// Handle glob patterns
		matches, globErr := filepath.Glob(file)
		if globErr != nil {
			fmt.Fprintf(a.stderr, "Error with pattern '%s': %v\n", file, globErr)
			bad = true
			continue
		}
		if len(matches) == 0 {
			fmt.Fprintf(a.stderr, "No files match pattern: %s\n", file)
			bad = true
			continue
		}
		for _, match := range matches {
			data, err := os.ReadFile(match)
			inputs = append(inputs, input{name: match, data: data, err: err})
		}
	}
	return inputs, bad
}

func (a *app) readFailure(in input) []MessageOutput {
	if a.cfg.Output == OutputText {
		fmt.Fprintf(a.stdout, "Error reading %s: %v\n", in.name, in.err)
	}
	return []MessageOutput{failure(in.name, 0, fmt.Errorf("failed to read file: %w", in.err))}
}

// parseAll parses every input as one message on the batch parser and
// reports them in argument order.
func (a *app) parseAll(inputs []input) ([]MessageOutput, []any, bool) {
	messages := make([][]byte, 0, len(inputs))
	for _, in := range inputs {
		if in.err == nil {
			messages = append(messages, in.data)
		}
	}
	batch := a.batch.ParseBatch(context.Background(), messages)

	var (
		outs      []MessageOutput
		resources []any
		failed    bool
	)
	j := 0
	for _, in := range inputs {
		if in.err != nil {
			outs = append(outs, a.readFailure(in)...)
			failed = true
			continue
		}
		r := batch.Results[j]
		j++
		if r == nil {
			continue
		}
		if r.Error != nil {
			if a.cfg.Output == OutputText {
				fmt.Fprintf(a.stdout, "Error parsing %s: %v\n", in.name, r.Error)
			}
			outs = append(outs, failure(in.name, 0, r.Error))
			failed = true
			continue
		}
		out, resource := a.report(in.name, 0, r.Document, r.Duration)
		outs = append(outs, out)
		resources = append(resources, resource)
		if !out.Valid {
			failed = true
		}
	}
	return outs, resources, failed
}

// process parses one input as a multi-message stream.
func (a *app) process(name string, data []byte) ([]MessageOutput, []any, bool) {
	agg := stream.Aggregate(a.stream.ParseStreamParallel(context.Background(), bytes.NewReader(data)))
	var (
		outs      []MessageOutput
		resources []any
	)
	failed := len(agg.ProcessingErrors) > 0
	for i, doc := range agg.Documents {
		out, resource := a.report(name, i+1, doc, 0)
		outs = append(outs, out)
		resources = append(resources, resource)
		if !out.Valid {
			failed = true
		}
	}
	for _, err := range agg.ProcessingErrors {
		outs = append(outs, failure(name, -1, err))
		if a.cfg.Output == OutputText {
			fmt.Fprintf(a.stdout, "Error in %s: %v\n", name, err)
		}
	}
	if a.cfg.Output == OutputText && !a.cfg.Quiet {
		fmt.Fprintf(a.stdout, "%s: %s\n\n", name, agg.Summary())
	}
	return outs, resources, failed
}

// report builds the output for one parsed message and prints it in the
// line-oriented formats.
func (a *app) report(name string, index int, doc *parser.Document, duration time.Duration) (MessageOutput, any) {
	res := doc.Result
	out := MessageOutput{
		Source:      name,
		Index:       index,
		Valid:       res.Valid,
		MessageType: doc.MessageType(),
		ControlID:   doc.ControlID(),
		Structure:   res.Structure,
		Version:     doc.Version(),
		Segments:    res.Segments,
		Errors:      res.ErrorCount(),
		Warnings:    res.WarningCount(),
		Issues:      res.Issues,
	}
	if duration > 0 {
		out.Duration = duration.Round(time.Microsecond).String()
	}

	var bundle fhirmap.Resource
	if a.cfg.Query != "" || a.cfg.Output == OutputFHIR {
		bundle = fhirmap.Bundle(doc.Tree)
	}
	if a.cfg.Query != "" {
		if result, err := a.query.Evaluate(a.cfg.Query, bundle); err != nil {
			out.Issues = append(out.Issues, hl7v2.Issue{Severity: hl7v2.SeverityError, Diagnostics: err.Error()})
			out.Errors++
			out.Valid = false
		} else {
			out.Query = query.Strings(result)
		}
	}

	switch a.cfg.Output {
	case OutputText:
		a.printText(out)
	case OutputHL7:
		text, err := a.parser.Encode(doc.Tree)
		if err != nil {
			fmt.Fprintf(a.stderr, "Error encoding %s: %v\n", name, err)
		} else {
			fmt.Fprint(a.stdout, strings.ReplaceAll(text, "\r", "\n"))
		}
	}
	return out, bundle
}

func (a *app) printText(out MessageOutput) {
	w := a.stdout
	status := "VALID"
	if !out.Valid {
		status = "INVALID"
	}

	title := out.Source
	if out.Index > 0 {
		title = fmt.Sprintf("%s #%d", out.Source, out.Index)
	}
	fmt.Fprintf(w, "== %s ==\n", title)
	fmt.Fprintf(w, "Status: %s\n", status)
	if !a.cfg.Quiet {
		fmt.Fprintf(w, "Message: %s (%s, v%s) control ID %s\n", out.MessageType, out.Structure, out.Version, out.ControlID)
		fmt.Fprintf(w, "Segments: %d\n", out.Segments)
		if out.Duration != "" {
			fmt.Fprintf(w, "Duration: %s\n", out.Duration)
		}
	}
	fmt.Fprintf(w, "Errors: %d, Warnings: %d\n", out.Errors, out.Warnings)

	if len(out.Issues) > 0 {
		fmt.Fprintln(w, "\nIssues:")
		for _, iss := range out.Issues {
			if a.cfg.Quiet && iss.Severity == hl7v2.SeverityInformation {
				continue
			}
			location := ""
			if iss.Location != "" {
				location = fmt.Sprintf(" @ %s", iss.Location)
			}
			fmt.Fprintf(w, "  %s [%s] %s%s\n", getSeverityIcon(iss.Severity), iss.Code, iss.Diagnostics, location)
		}
	}

	if a.cfg.Query != "" {
		fmt.Fprintf(w, "\nQuery: %s\n", a.cfg.Query)
		for _, v := range out.Query {
			fmt.Fprintf(w, "  %s\n", v)
		}
	}
	fmt.Fprintln(w)
}

func failure(name string, index int, err error) MessageOutput {
	return MessageOutput{
		Source: name,
		Index:  index,
		Valid:  false,
		Errors: 1,
		Issues: []hl7v2.Issue{{
			Severity:    hl7v2.SeverityError,
			Code:        "exception",
			Diagnostics: err.Error(),
		}},
	}
}

func getSeverityIcon(severity hl7v2.IssueSeverity) string {
	switch severity {
	case hl7v2.SeverityError, hl7v2.SeverityFatal:
		return "ERROR"
	case hl7v2.SeverityWarning:
		return "WARN "
	case hl7v2.SeverityInformation:
		return "INFO "
	default:
		return "     "
	}
}
