// Package export writes the signatures and facts of a compilation as an
// Alloy module or as JSON.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/c360studio/obmalloy/signature"
	"github.com/c360studio/obmalloy/vocabulary/alloy"
)

// ErrUnsupportedFormat is returned for an unknown format.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// DefaultModule is the module name used when none is set.
const DefaultModule = "behavior"

// Exporter serializes one signature registry.
type Exporter struct {
	sigs   *signature.Registry
	module string
	main   string
	leaves []string
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithModule sets the Alloy module name.
func WithModule(name string) Option {
	return func(e *Exporter) {
		if name != "" {
			e.module = name
		}
	}
}

// WithMain records the compiled class in the output.
func WithMain(name string) Option {
	return func(e *Exporter) { e.main = name }
}

// WithLeaves records the leaf signatures in the JSON output.
func WithLeaves(leaves []string) Option {
	return func(e *Exporter) { e.leaves = leaves }
}

// NewExporter creates an exporter over sigs.
func NewExporter(sigs *signature.Registry, opts ...Option) *Exporter {
	e := &Exporter{sigs: sigs, module: DefaultModule}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Export serializes the registry in the requested format.
func (e *Exporter) Export(format Format) (string, error) {
	switch format {
	case FormatAlloy:
		return e.toAlloy(), nil
	case FormatJSON:
		return e.toJSON()
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// Write serializes the registry to w.
func (e *Exporter) Write(w io.Writer, format Format) error {
	out, err := e.Export(format)
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, out); err != nil {
		return fmt.Errorf("failed to write %s output: %w", format, err)
	}
	return nil
}

func (e *Exporter) toAlloy() string {
	w := NewAlloyWriter()
	w.WriteModule(e.module)
	if e.main != "" {
		w.WriteComment("compiled from " + e.main)
	}
	w.WriteBlank()
	w.WritePreamble()

	w.WriteComment("Signatures")
	for _, s := range e.sigs.Sorted() {
		w.WriteSignature(s, e.parentName(s))
		for _, f := range s.Facts {
			w.WriteFact(f)
		}
		w.WriteBlank()
	}
	return w.String()
}

func (e *Exporter) parentName(s *signature.Signature) string {
	if p := e.sigs.ParentOf(s); p != nil {
		return p.Name
	}
	return ""
}

// Document is the JSON form of a compilation.
type Document struct {
	Module     string         `json:"module"`
	Main       string         `json:"main,omitempty"`
	Leaves     []string       `json:"leaves,omitempty"`
	Signatures []SignatureDoc `json:"signatures"`
}

// SignatureDoc is one signature of a Document.
type SignatureDoc struct {
	Name    string     `json:"name"`
	Extends string     `json:"extends,omitempty"`
	Fields  []FieldDoc `json:"fields,omitempty"`
	Facts   []string   `json:"facts,omitempty"`
}

// FieldDoc is one field declaration of a SignatureDoc.
type FieldDoc struct {
	Names    []string `json:"names"`
	Type     string   `json:"type"`
	Disjoint bool     `json:"disjoint,omitempty"`
}

// Document builds the JSON document of the registry.
func (e *Exporter) Document() Document {
	doc := Document{
		Module:     e.module,
		Main:       e.main,
		Leaves:     e.leaves,
		Signatures: make([]SignatureDoc, 0),
	}
	for _, s := range e.sigs.Sorted() {
		sd := SignatureDoc{Name: s.Name, Extends: e.parentName(s)}
		for _, f := range s.Fields {
			sd.Fields = append(sd.Fields, FieldDoc{Names: f.Names, Type: f.Type, Disjoint: f.Disjoint})
		}
		for _, f := range s.Facts {
			sd.Facts = append(sd.Facts, Render(f.Formula))
		}
		doc.Signatures = append(doc.Signatures, sd)
	}
	return doc
}

func (e *Exporter) toJSON() (string, error) {
	data, err := json.MarshalIndent(e.Document(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal document: %w", err)
	}
	return string(data) + "\n", nil
}

// AlloyWriter accumulates Alloy source text.
type AlloyWriter struct {
	sb strings.Builder
}

// NewAlloyWriter creates an empty writer.
func NewAlloyWriter() *AlloyWriter {
	return &AlloyWriter{}
}

// WriteModule writes the module header.
func (w *AlloyWriter) WriteModule(name string) {
	w.sb.WriteString(fmt.Sprintf("module %s\n", name))
}

// WriteComment writes a line comment.
func (w *AlloyWriter) WriteComment(text string) {
	w.sb.WriteString(fmt.Sprintf("// %s\n", text))
}

// WriteBlank writes a blank line.
func (w *AlloyWriter) WriteBlank() {
	w.sb.WriteString("\n")
}

// WritePreamble declares the builtin signatures, their relations and the
// registered predicates.
func (w *AlloyWriter) WritePreamble() {
	w.WriteComment("Preamble")
	w.sb.WriteString(fmt.Sprintf("abstract sig %s {\n\t%s: set %s\n}\n\n",
		alloy.SigOccurrence,
		strings.Join([]string{alloy.Steps, alloy.Inputs, alloy.Outputs, alloy.HappensBefore, alloy.HappensDuring}, ", "),
		alloy.SigOccurrence))
	w.sb.WriteString(fmt.Sprintf("sig %s extends %s {\n\t%s: set %s\n}\n\n",
		alloy.SigTransfer, alloy.SigOccurrence,
		strings.Join([]string{alloy.Items, alloy.Sources, alloy.Targets}, ", "),
		alloy.SigOccurrence))
	w.sb.WriteString(fmt.Sprintf("sig %s extends %s {}\n\n", alloy.SigTransferBefore, alloy.SigTransfer))

	for _, p := range alloy.Predicates() {
		w.sb.WriteString(p.Definition())
		w.sb.WriteString("\n\n")
	}
}

// WriteSignature writes one signature declaration with its fields.
func (w *AlloyWriter) WriteSignature(s *signature.Signature, parent string) {
	w.sb.WriteString("sig ")
	w.sb.WriteString(s.Name)
	if parent != "" {
		w.sb.WriteString(" extends ")
		w.sb.WriteString(parent)
	}
	if len(s.Fields) == 0 {
		w.sb.WriteString(" {}\n")
		return
	}
	w.sb.WriteString(" {\n")
	for i, f := range s.Fields {
		w.sb.WriteString("\t")
		if f.Disjoint {
			w.sb.WriteString("disj ")
		}
		w.sb.WriteString(fmt.Sprintf("%s: set %s", strings.Join(f.Names, ", "), f.Type))
		if i < len(s.Fields)-1 {
			w.sb.WriteString(",")
		}
		w.sb.WriteString("\n")
	}
	w.sb.WriteString("}\n")
}

// WriteFact writes one fact.
func (w *AlloyWriter) WriteFact(f signature.Fact) {
	w.sb.WriteString(fmt.Sprintf("fact {%s}\n", Render(f.Formula)))
}

// String returns the accumulated Alloy source.
func (w *AlloyWriter) String() string {
	return w.sb.String()
}
