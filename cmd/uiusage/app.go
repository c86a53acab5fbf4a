package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/gnana997/uiusage/pkg/astcheck"
	"github.com/gnana997/uiusage/pkg/config"
	"github.com/gnana997/uiusage/pkg/parser"
	"github.com/gnana997/uiusage/pkg/report"
	"github.com/gnana997/uiusage/pkg/scanner"
	"github.com/gnana997/uiusage/pkg/usage"
	"github.com/gnana997/uiusage/pkg/util"
)

// Engine names accepted by --engine.
const (
	engineRegex = "regex"
	engineAST   = "ast"
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	engine     string
}

// scanFlags are the scanner tuning flags of scan, compare, watch and serve.
type scanFlags struct {
	workers     int
	maxFileSize string
}

func (f *scanFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Parallel workers (0 = config value or CPU based)")
	cmd.Flags().StringVar(&f.maxFileSize, "max-file-size", "", "Skip files larger than this (e.g. '512KB', '5MB'; empty = config value)")
}

// apply overrides the config's scan options with any flags set.
func (f *scanFlags) apply(opts *scanner.Options) error {
	if f.workers < 0 {
		return fmt.Errorf("--workers must not be negative")
	}
	if f.workers > 0 {
		opts.Workers = f.workers
	}
	if f.maxFileSize != "" {
		size, err := humanize.ParseBytes(f.maxFileSize)
		if err != nil {
			return fmt.Errorf("invalid --max-file-size %q: %w", f.maxFileSize, err)
		}
		opts.MaxFileBytes = int64(size)
	}
	return nil
}

// app is the wiring shared by commands: configuration, logger, engine and
// the parser pool behind the AST engine.
type app struct {
	cfg     *config.Config
	logger  *slog.Logger
	engine  usage.Engine
	parsers *parser.ParserManager
}

// newLogger starts from the default config and applies the log flags. An
// empty flag keeps the default.
func newLogger(g *globalOptions, w io.Writer) (*slog.Logger, error) {
	cfg := util.DefaultLoggerConfig()
	if w != nil {
		cfg.Output = w
	}
	var err error
	if g.logLevel != "" {
		if cfg.Level, err = util.ParseLogLevel(g.logLevel); err != nil {
			return nil, err
		}
	}
	if g.logFormat != "" {
		if cfg.Format, err = util.ParseLogFormat(g.logFormat); err != nil {
			return nil, err
		}
	}
	return util.NewLogger(cfg), nil
}

func newApp(g *globalOptions, stderr io.Writer) (*app, error) {
	logger, err := newLogger(g, stderr)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path == "" {
		logger.Debug("using built-in preset", "looked_for", config.DefaultFileName)
	} else {
		logger.Debug("loaded config", "path", cfg.Path)
	}

	a := &app{cfg: cfg, logger: logger}
	a.engine, err = a.newEngine(g.engine)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (a *app) newEngine(name string) (usage.Engine, error) {
	switch strings.ToLower(name) {
	case "", engineRegex:
		return usage.NewRegexAnalyzer(a.cfg.Resolved()), nil
	case engineAST:
		if a.parsers == nil {
			a.parsers = parser.NewParserManager(a.logger, a.cfg.Scan.Workers)
		}
		return astcheck.New(a.parsers, a.cfg.Resolved()), nil
	default:
		return nil, fmt.Errorf("unknown engine %q (want %s or %s)", name, engineRegex, engineAST)
	}
}

// newScanner builds a scanner for engine with the config's scan section
// and any flag overrides.
func (a *app) newScanner(engine usage.Engine, flags *scanFlags, keepMapped bool) (*scanner.Scanner, error) {
	opts := scanner.OptionsFromConfig(a.cfg.Scan)
	opts.KeepMapped = keepMapped
	if flags != nil {
		if err := flags.apply(&opts); err != nil {
			return nil, err
		}
	}
	return scanner.New(engine, opts, a.logger)
}

// codebases resolves roots and narrows to the named codebases, if any.
func (a *app) codebases(names []string) ([]config.Codebase, error) {
	all, err := a.cfg.ResolvedCodebases()
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return all, nil
	}
	var out []config.Codebase
	for _, name := range names {
		found := false
		for _, cb := range all {
			if cb.Name == name {
				out = append(out, cb)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("unknown codebase %q", name)
		}
	}
	return out, nil
}

func (a *app) Close() error {
	if a.parsers == nil {
		return nil
	}
	a.logger.Debug("closing parser pools", "stats", a.parsers.GetStats())
	return a.parsers.Close()
}

// outputFlags select the renderer and destination.
type outputFlags struct {
	format string
	output string
	top    int
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "Output format: text, markdown, csv or json")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().IntVarP(&f.top, "top", "n", 10, "Components listed per category (0 = all)")
}

// parse validates the format and --top before any work is done.
func (f *outputFlags) parse() (report.Format, error) {
	format, err := report.ParseFormat(f.format)
	if err != nil {
		return "", err
	}
	if f.top < 0 {
		return "", fmt.Errorf("--top must not be negative")
	}
	return format, nil
}

// create opens the destination. Call it once the report is ready so a
// failed run leaves no file behind. The returned close function must be
// called; it reports write errors on the file.
func (f *outputFlags) create(stdout io.Writer) (io.Writer, func() error, error) {
	if f.output == "" {
		return stdout, func() error { return nil }, nil
	}
	file, err := os.Create(f.output)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return file, sync.OnceValue(file.Close), nil
}
