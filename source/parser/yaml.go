package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/obmalloy/source"
)

// YAMLParser parses YAML model files.
type YAMLParser struct{}

// NewYAMLParser creates a new YAML parser.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// MimeType returns the primary MIME type.
func (p *YAMLParser) MimeType() string {
	return "application/yaml"
}

// CanParse returns true for the YAML MIME types.
func (p *YAMLParser) CanParse(mimeType string) bool {
	switch mimeType {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	}
	return false
}

// Parse decodes a YAML document. Unknown keys are rejected so misspelled
// fields do not silently drop model elements.
func (p *YAMLParser) Parse(filename string, content []byte) (*source.Document, error) {
	doc := &source.Document{Filename: filename}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	doc.Filename = filename
	return doc, nil
}
