package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/c360studio/obmalloy/batch"
	"github.com/c360studio/obmalloy/compiler"
	"github.com/c360studio/obmalloy/config"
	"github.com/c360studio/obmalloy/export"
	"github.com/c360studio/obmalloy/metrics"
	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/source"
	"github.com/c360studio/obmalloy/source/parser"
	"github.com/c360studio/obmalloy/watch"
)

// modelFlags are the flags selecting model files and output.
type modelFlags struct {
	models []string
	output string
	format string
	module string
}

func (f *modelFlags) register(cmd *cobra.Command, withOutput bool) {
	cmd.Flags().StringSliceVarP(&f.models, "models", "m", nil, "Model file glob patterns (default from config)")
	if withOutput {
		cmd.Flags().StringVarP(&f.output, "output", "o", "", "Output file (default stdout)")
		cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format (alloy, json); default from the output extension")
		cmd.Flags().StringVar(&f.module, "module", "", "Alloy module name")
	}
}

func (f *modelFlags) apply(cfg *config.Config) {
	if len(f.models) > 0 {
		cfg.Models.Paths = f.models
	}
	if f.output != "" {
		cfg.Output.Path = f.output
	}
	if f.format != "" {
		cfg.Output.Format = f.format
	}
	if f.module != "" {
		cfg.Output.Module = f.module
	}
}

// session wires the loader, compiler, metrics and batch runner of one
// command invocation.
type session struct {
	cfg       *config.Config
	logger    *slog.Logger
	loader    *source.Loader
	collector *metrics.Collector
	runner    *batch.Runner
}

func newSession(cfg *config.Config, logger *slog.Logger) *session {
	collector := metrics.NewCollector()
	comp := compiler.New(compiler.WithLogger(logger), compiler.WithObserver(collector))
	return &session{
		cfg:       cfg,
		logger:    logger,
		loader:    source.NewLoader(parser.DefaultRegistry, logger),
		collector: collector,
		runner: batch.NewRunner(
			batch.WithCompiler(comp),
			batch.WithOutputObserver(collector),
			batch.WithLogger(logger)),
	}
}

func (s *session) loadModel(ctx context.Context) (*model.Model, error) {
	return s.loader.Load(ctx, s.cfg.Models.Name, s.cfg.Models.Paths...)
}

// compile loads the model and runs one batch compilation of class.
func (s *session) compile(ctx context.Context, class string) (batch.Outcome, error) {
	format, err := s.format()
	if err != nil {
		return batch.Outcome{}, err
	}
	m, err := s.loadModel(ctx)
	if err != nil {
		return batch.Outcome{}, err
	}

	out := s.runner.Run(batch.Request{
		Model:       m,
		Class:       class,
		Format:      format,
		Destination: s.cfg.Output.Path,
		Module:      s.cfg.Output.Module,
	})
	s.writeMetrics()
	return out, nil
}

func (s *session) format() (export.Format, error) {
	if s.cfg.Output.Format == "" {
		return "", nil
	}
	return export.ParseFormat(s.cfg.Output.Format)
}

func (s *session) writeMetrics() {
	if s.cfg.Metrics.File == "" {
		return
	}
	if err := s.collector.WriteToTextfile(s.cfg.Metrics.File); err != nil {
		s.logger.Warn("Failed to write metrics", "path", s.cfg.Metrics.File, "error", err)
	}
}

// report prints the messages and, without a destination, the output.
func report(stdout, stderr io.Writer, out batch.Outcome, toStdout bool) {
	for _, m := range out.Messages {
		if m.Severity == compiler.SeverityInfo {
			continue
		}
		fmt.Fprintln(stderr, m.String())
	}
	if toStdout && out.Output != "" {
		fmt.Fprint(stdout, out.Output)
	}
}

func compileCmd(opts *globalOptions) *cobra.Command {
	flags := &modelFlags{}

	cmd := &cobra.Command{
		Use:   "compile <Class>",
		Short: "Compile one class to Alloy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			flags.apply(cfg)

			out, err := newSession(cfg, logger).compile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			report(cmd.OutOrStdout(), cmd.ErrOrStderr(), out, cfg.Output.Path == "")
			if !out.OK {
				return fmt.Errorf("compilation of %s failed", args[0])
			}
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func watchCmd(opts *globalOptions) *cobra.Command {
	flags := &modelFlags{}

	cmd := &cobra.Command{
		Use:   "watch <Class>",
		Short: "Recompile one class whenever its model files change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			flags.apply(cfg)
			if cfg.Output.Path == "" {
				return errors.New("watch requires an output file (--output)")
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			s := newSession(cfg, logger)
			rebuild := func(ctx context.Context, change watch.Change) error {
				if len(change.Events) > 0 {
					logger.Info("Model files changed", "files", change.Paths())
				}
				out, err := s.compile(ctx, args[0])
				if err != nil {
					return err
				}
				report(cmd.OutOrStdout(), cmd.ErrOrStderr(), out, false)
				if !out.OK {
					return fmt.Errorf("compilation of %s failed", args[0])
				}
				logger.Info("Output updated", "path", cfg.Output.Path)
				return nil
			}

			if err := rebuild(ctx, watch.Change{}); err != nil {
				logger.Warn("Initial compilation failed", "error", err)
			}

			w, err := watch.NewModelWatcher(watch.Config{
				Patterns: cfg.Models.Paths,
				Debounce: cfg.Watch.Debounce,
			}, logger)
			if err != nil {
				return fmt.Errorf("create watcher: %w", err)
			}
			if err := w.Run(ctx, rebuild); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			logger.Info("Watcher stopped")
			return nil
		},
	}
	flags.register(cmd, true)
	return cmd
}

func classesCmd(opts *globalOptions) *cobra.Command {
	flags := &modelFlags{}

	cmd := &cobra.Command{
		Use:   "classes",
		Short: "List the qualified class names of the model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			flags.apply(cfg)

			m, err := newSession(cfg, logger).loadModel(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range m.Classes() {
				fmt.Fprintln(cmd.OutOrStdout(), c.QualifiedName)
			}
			return nil
		},
	}
	flags.register(cmd, false)
	return cmd
}
