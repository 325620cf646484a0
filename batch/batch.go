// Package batch is the one-shot entry point: compile one class of a model
// and write the constraints to a destination.
package batch

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/c360studio/obmalloy/compiler"
	"github.com/c360studio/obmalloy/export"
	"github.com/c360studio/obmalloy/model"
)

// OutputObserver is notified after every attempt to write output.
type OutputObserver interface {
	ObserveOutput(format string, err error)
}

// Request describes one batch run.
type Request struct {
	Model *model.Model

	// Class is the qualified (or unique simple) name of the class to compile.
	Class string

	// Format defaults to the format matching Destination's extension.
	Format export.Format

	// Destination is the output file. Empty means the output is only
	// returned in the Outcome.
	Destination string

	// Module is the Alloy module name.
	Module string
}

// Outcome is the result of a batch run.
type Outcome struct {
	// OK is false when compilation aborted, recorded an error or the
	// output could not be written.
	OK bool

	// Output is the serialized constraints, empty when compilation aborted.
	Output string

	// Messages are the compilation messages followed by any output error.
	Messages []compiler.Message

	Result *compiler.Result
}

// Runner runs batch requests with a shared compiler.
type Runner struct {
	compiler  *compiler.Compiler
	observers []OutputObserver
	logger    *slog.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCompiler sets the compiler used for every run.
func WithCompiler(c *compiler.Compiler) RunnerOption {
	return func(r *Runner) { r.compiler = c }
}

// WithOutputObserver registers an observer of output writes.
func WithOutputObserver(o OutputObserver) RunnerOption {
	return func(r *Runner) { r.observers = append(r.observers, o) }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	if r.compiler == nil {
		r.compiler = compiler.New(compiler.WithLogger(r.logger))
	}
	return r
}

// Run compiles m's class and writes the Alloy output to dest.
func Run(m *model.Model, class, dest string) Outcome {
	return NewRunner().Run(Request{Model: m, Class: class, Destination: dest})
}

// Run executes one request.
func (r *Runner) Run(req Request) Outcome {
	res, err := r.compiler.Compile(req.Model, req.Class)
	out := Outcome{Result: res}
	if res != nil {
		out.Messages = append(out.Messages, res.Messages...)
	}
	if err != nil {
		return out
	}

	format := req.Format
	if format == "" {
		format = export.FormatForPath(req.Destination)
	}
	exp := export.NewExporter(res.Signatures,
		export.WithModule(req.Module),
		export.WithMain(res.Main),
		export.WithLeaves(res.Leaves))
	output, err := exp.Export(format)
	if err != nil {
		out.Messages = append(out.Messages, outputError(req.Destination, err))
		return out
	}
	out.Output = output

	if req.Destination != "" {
		err := writeFile(req.Destination, output)
		for _, o := range r.observers {
			o.ObserveOutput(string(format), err)
		}
		if err != nil {
			r.logger.Warn("Failed to write output", "path", req.Destination, "error", err)
			out.Messages = append(out.Messages, outputError(req.Destination, err))
			return out
		}
		r.logger.Debug("Output written", "path", req.Destination, "format", format, "bytes", len(output))
	}

	out.OK = !res.HasErrors()
	return out
}

func outputError(dest string, err error) compiler.Message {
	return compiler.Message{Severity: compiler.SeverityError, Subject: dest, Text: err.Error()}
}

// writeFile replaces path through a temporary file in the same directory,
// so readers never observe partial output.
func writeFile(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace output file: %w", err)
	}
	return nil
}
