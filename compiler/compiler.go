package compiler

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/signature"
)

// Observer is notified after every compilation run.
type Observer interface {
	ObserveCompile(res *Result, elapsed time.Duration, err error)
}

// Option configures a Compiler.
type Option func(*Compiler)

// WithLogger sets the logger. Every run logs with a run_id attribute.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithObserver registers an observer, for example a metrics collector.
func WithObserver(o Observer) Option {
	return func(c *Compiler) {
		c.observers = append(c.observers, o)
	}
}

// Compiler compiles behavior classes. A Compiler holds no per-run state
// and may be shared between goroutines.
type Compiler struct {
	logger    *slog.Logger
	observers []Observer
}

// New creates a Compiler.
func New(opts ...Option) *Compiler {
	c := &Compiler{logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result is the outcome of one compilation run. It is returned even when
// the run aborts, carrying the messages recorded so far.
type Result struct {
	RunID string

	// Main is the qualified name of the compiled class.
	Main string

	// Signatures holds every signature the run created, builtins included.
	Signatures *signature.Registry

	// Leaves lists the names of the leaf signatures, sorted.
	Leaves []string

	Messages []Message
}

// HasErrors reports whether the run recorded an error message.
func (r *Result) HasErrors() bool {
	for _, m := range r.Messages {
		if m.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Compile translates the class named className of m. The name may be
// qualified (Pkg::Name) or a unique simple name.
func (c *Compiler) Compile(m *model.Model, className string) (res *Result, err error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := c.logger.With("run_id", runID)
	ctx := newContext(runID, m, logger)

	res = &Result{RunID: runID, Main: className, Signatures: ctx.Sigs}
	defer func() {
		res.Messages = ctx.Messages.List()
		elapsed := time.Since(start)
		for _, o := range c.observers {
			o.ObserveCompile(res, elapsed, err)
		}
		if err != nil {
			logger.Warn("Compilation aborted", "class", className, "error", err)
			return
		}
		logger.Info("Compilation finished",
			"class", res.Main,
			"signatures", len(ctx.Sigs.Sorted()),
			"facts", ctx.Sigs.FactCount(),
			"messages", len(res.Messages),
			"duration", elapsed)
	}()

	main, lookupErr := m.Lookup(className)
	if lookupErr != nil {
		ctx.Messages.Errorf(className, "%v", lookupErr)
		return res, fmt.Errorf("%w: %s: %w", ErrUnknownClass, className, lookupErr)
	}
	if main.Primitive {
		ctx.Messages.Errorf(className, "primitive types cannot be compiled")
		return res, fmt.Errorf("%w: %s", ErrNotBehavior, className)
	}
	res.Main = main.QualifiedName

	if err := walkHierarchy(ctx, main); err != nil {
		return res, err
	}
	classifyConnectors(ctx)
	assembleClosure(ctx)

	for _, v := range ctx.visited {
		if ctx.isLeaf(v) {
			res.Leaves = append(res.Leaves, v.Name)
		}
	}
	sort.Strings(res.Leaves)
	return res, nil
}
