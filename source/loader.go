package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/c360studio/obmalloy/model"
)

// DocumentParser parses the content of one model file.
type DocumentParser interface {
	Parse(filename string, content []byte) (*Document, error)
}

// Loader reads model files into a behavior model.
type Loader struct {
	parser DocumentParser
	logger *slog.Logger
}

// NewLoader creates a loader that parses files with p.
func NewLoader(p DocumentParser, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{parser: p, logger: logger}
}

// Load resolves the patterns and merges every matched file, in sorted path
// order, into one model named name. A class declared twice is an error.
func (l *Loader) Load(ctx context.Context, name string, patterns ...string) (*model.Model, error) {
	files, err := ResolveFiles(patterns)
	if err != nil {
		return nil, err
	}

	m := model.New(name)
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := l.LoadFile(m, f); err != nil {
			return nil, err
		}
	}

	l.logger.Debug("Model loaded",
		slog.String("model", name),
		slog.Int("files", len(files)),
		slog.Int("classes", len(m.Classes())))
	return m, nil
}

// LoadFile parses one file and adds its classes to m.
func (l *Loader) LoadFile(m *model.Model, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read model file: %w", err)
	}
	doc, err := l.parser.Parse(path, content)
	if err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	doc.Filename = path

	classes, err := doc.ToClasses()
	if err != nil {
		return err
	}
	for _, c := range classes {
		if err := m.Add(c); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	l.logger.Debug("Model file loaded",
		slog.String("path", path),
		slog.Int("classes", len(classes)))
	return nil
}
