package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/c360studio/obmalloy/source"
)

// JSONParser parses JSON model files.
type JSONParser struct{}

// NewJSONParser creates a new JSON parser.
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// MimeType returns the primary MIME type.
func (p *JSONParser) MimeType() string {
	return "application/json"
}

// CanParse returns true for the JSON MIME type.
func (p *JSONParser) CanParse(mimeType string) bool {
	return mimeType == "application/json"
}

// Parse decodes a JSON document, rejecting unknown fields.
func (p *JSONParser) Parse(filename string, content []byte) (*source.Document, error) {
	doc := &source.Document{Filename: filename}

	dec := json.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	doc.Filename = filename
	return doc, nil
}
