package signature

import (
	"fmt"
	"sort"
)

// Registry is a name-keyed arena of signatures.
type Registry struct {
	sigs   []*Signature
	byName map[string]ID
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]ID)}
}

// Builtin registers a preamble signature. Builtins are never emitted.
func (r *Registry) Builtin(name string, parent ID) ID {
	if id, ok := r.byName[name]; ok {
		return id
	}
	id := r.add(name, name, parent)
	r.sigs[id].Builtin = true
	return id
}

// Ensure returns the signature called name, creating it when missing.
// origin identifies the model element the signature stands for; a second
// origin claiming the same name is ErrDuplicateSignature. A parent that is
// already set cannot change.
func (r *Registry) Ensure(name, origin string, parent ID) (ID, error) {
	if id, ok := r.byName[name]; ok {
		s := r.sigs[id]
		if s.Origin != origin {
			return id, fmt.Errorf("%w: %s (from %s and %s)", ErrDuplicateSignature, name, s.Origin, origin)
		}
		if parent != NoParent && s.Parent != NoParent && s.Parent != parent {
			return id, fmt.Errorf("%w: %s", ErrParentImmutable, name)
		}
		if s.Parent == NoParent {
			s.Parent = parent
		}
		return id, nil
	}
	return r.add(name, origin, parent), nil
}

func (r *Registry) add(name, origin string, parent ID) ID {
	id := ID(len(r.sigs))
	r.sigs = append(r.sigs, &Signature{
		ID:     id,
		Name:   name,
		Parent: parent,
		Origin: origin,
	})
	r.byName[name] = id
	return id
}

// Get returns the signature with the handle.
func (r *Registry) Get(id ID) *Signature {
	if id < 0 || int(id) >= len(r.sigs) {
		return nil
	}
	return r.sigs[id]
}

// Lookup returns the signature called name.
func (r *Registry) Lookup(name string) (*Signature, bool) {
	id, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.sigs[id], true
}

// ParentOf returns the parent signature, or nil.
func (r *Registry) ParentOf(s *Signature) *Signature {
	return r.Get(s.Parent)
}

// Ancestors returns the parents of s, nearest first.
func (r *Registry) Ancestors(s *Signature) []*Signature {
	var out []*Signature
	for p := r.ParentOf(s); p != nil; p = r.ParentOf(p) {
		out = append(out, p)
	}
	return out
}

// AllFieldNames returns the own and inherited field names of s, oldest
// ancestor first.
func (r *Registry) AllFieldNames(s *Signature) []string {
	chain := r.Ancestors(s)
	var names []string
	for i := len(chain) - 1; i >= 0; i-- {
		names = append(names, chain[i].FieldNames()...)
	}
	return append(names, s.FieldNames()...)
}

// Len returns the number of signatures including builtins.
func (r *Registry) Len() int {
	return len(r.sigs)
}

// Sorted returns the non-builtin signatures sorted by name.
func (r *Registry) Sorted() []*Signature {
	out := make([]*Signature, 0, len(r.sigs))
	for _, s := range r.sigs {
		if !s.Builtin {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FactCount returns the number of facts attached to non-builtin signatures.
func (r *Registry) FactCount() int {
	n := 0
	for _, s := range r.sigs {
		if !s.Builtin {
			n += len(s.Facts)
		}
	}
	return n
}
