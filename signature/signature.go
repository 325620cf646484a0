// Package signature provides the registry of structural declarations a
// compilation produces.
//
// Signatures live in an arena owned by a Registry and refer to their parent
// through an integer handle, so ancestry never depends on host-language
// inheritance. Creation is idempotent by name; a parent, once set, never
// changes.
package signature

import (
	"slices"

	"github.com/c360studio/obmalloy/expr"
)

// ID is a handle to a signature inside its Registry.
type ID int

// NoParent marks a signature without parent.
const NoParent ID = -1

// FieldDecl declares one or more fields sharing a type.
type FieldDecl struct {
	Names    []string
	Type     string
	Disjoint bool
}

// Fact is a formula attached to its owning signature.
type Fact struct {
	Owner   string
	Formula expr.Expr
}

// Signature is a typed node with an optional parent and typed fields.
type Signature struct {
	ID     ID
	Name   string
	Parent ID

	// Origin identifies the model element the signature was derived from.
	Origin string

	// Builtin signatures are declared by the preamble and never emitted.
	Builtin bool

	Fields []FieldDecl
	Facts  []Fact
}

// AddField appends a field declaration.
func (s *Signature) AddField(decl FieldDecl) {
	s.Fields = append(s.Fields, decl)
}

// HasField reports whether the signature itself declares the field.
func (s *Signature) HasField(name string) bool {
	for _, f := range s.Fields {
		if slices.Contains(f.Names, name) {
			return true
		}
	}
	return false
}

// FieldNames returns the declared field names in declaration order.
func (s *Signature) FieldNames() []string {
	var names []string
	for _, f := range s.Fields {
		names = append(names, f.Names...)
	}
	return names
}

// AddFact quantifies body over the signature and appends it. A fact that is
// already attached is not added again. It reports whether the fact was new.
func (s *Signature) AddFact(body expr.Expr) bool {
	formula := expr.ForAll(expr.X, s.Name, body)
	for _, f := range s.Facts {
		if expr.Equal(f.Formula, formula) {
			return false
		}
	}
	s.Facts = append(s.Facts, Fact{Owner: s.Name, Formula: formula})
	return true
}
