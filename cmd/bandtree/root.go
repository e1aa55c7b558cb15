// Copyright 2025 go-highway Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ajroetker/go-polyband/schedule"
)

// app carries the state shared by the subcommands of one invocation.
type app struct {
	stdout, stderr io.Writer

	// Flags.
	configPath string
	logLevel   string
	format     string
	trace      bool
	noScale    bool

	cfg      Config
	logger   *slog.Logger
	tracer   trace.Tracer
	shutdown func(context.Context) error
}

// run executes the command line args, writing results to stdout and logs
// and spans to stderr.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	err := root.ExecuteContext(ctx)
	if a.shutdown != nil {
		if serr := a.shutdown(ctx); serr != nil && err == nil {
			err = fmt.Errorf("flushing spans: %w", serr)
		}
	}
	return err
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bandtree",
		Short: "Inspect and tile the band forest of a polyhedral schedule",
		Long: "bandtree reads a statement table (schedule, domain and band structure per\n" +
			"statement), builds the band forest of the schedule, and prints, walks or\n" +
			"tiles it.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "YAML file with defaults for these flags")
	flags.StringVar(&a.logLevel, "log-level", "warn", "log level: debug, info, warn or error")
	flags.StringVar(&a.format, "format", "", "output format: text or yaml (default text on a terminal, yaml otherwise)")
	flags.BoolVar(&a.trace, "trace", false, "write OpenTelemetry spans to stderr")
	flags.BoolVar(&a.noScale, "no-scale-tile-loops", false, "tile loops iterate over tile indices instead of tile origins")

	root.AddCommand(a.showCmd(), a.walkCmd(), a.tileCmd(), a.mapCmd())
	return root
}

// setup applies the config file under the flags given on the command line
// and installs logging and tracing.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	if a.configPath != "" {
		cfg, err := loadConfig(a.configPath)
		if err != nil {
			return err
		}
		a.cfg = cfg
		if cfg.LogLevel != "" && !flags.Changed("log-level") {
			a.logLevel = cfg.LogLevel
		}
		if cfg.Format != "" && !flags.Changed("format") {
			a.format = cfg.Format
		}
		if cfg.ScaleTileLoops != nil && !flags.Changed("no-scale-tile-loops") {
			a.noScale = !*cfg.ScaleTileLoops
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(a.logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", a.logLevel, err)
	}
	a.logger = slog.New(slog.NewTextHandler(a.stderr, &slog.HandlerOptions{Level: level}))

	switch a.format {
	case "":
		a.format = "yaml"
		if isTerminal(a.stdout) {
			a.format = "text"
		}
	case "text", "yaml":
	default:
		return fmt.Errorf("invalid --format %q: want text or yaml", a.format)
	}

	a.tracer = noTracer()
	if a.trace {
		tracer, shutdown, err := newTracer(a.stderr)
		if err != nil {
			return err
		}
		a.tracer, a.shutdown = tracer, shutdown
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (a *app) scheduleOptions() []schedule.Option {
	opts := []schedule.Option{schedule.WithLogger(a.logger)}
	if a.noScale {
		opts = append(opts, schedule.WithScaleTileLoops(false))
	}
	return opts
}

// load reads the statement table at path and builds its band forest. The
// caller owns the returned schedule.
func (a *app) load(ctx context.Context, path string) (*schedule.Schedule, error) {
	_, span := a.tracer.Start(ctx, "load", trace.WithAttributes(attribute.String("path", path)))
	defer span.End()

	in, err := loadInput(path)
	if err != nil {
		return nil, spanError(span, err)
	}
	stmts, err := in.statements()
	if err != nil {
		return nil, spanError(span, err)
	}
	s, err := schedule.New(stmts, a.scheduleOptions()...)
	if err != nil {
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.Int("statements", s.NumStatements()))

	forest, err := s.GetBandForest()
	if err != nil {
		s.Free()
		return nil, spanError(span, err)
	}
	span.SetAttributes(attribute.Int("roots", forest.Len()))
	forest.Free()
	a.logger.Info("loaded schedule", slog.String("path", path), slog.Int("statements", s.NumStatements()))
	return s, nil
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
