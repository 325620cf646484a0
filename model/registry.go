package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/c360studio/obmalloy/vocabulary/obm"
)

// Errors returned by the model index.
var (
	// ErrDuplicateClass is returned when a qualified name is added twice.
	ErrDuplicateClass = errors.New("duplicate class")

	// ErrClassNotFound is returned when a class lookup fails.
	ErrClassNotFound = errors.New("class not found")

	// ErrAmbiguousClass is returned when a simple name matches several classes.
	ErrAmbiguousClass = errors.New("ambiguous class name")
)

// Model indexes the classes of a behavior model by qualified name.
type Model struct {
	mu       sync.RWMutex
	name     string
	classes  map[string]*Class
	bySimple map[string][]string
}

// New creates an empty model holding the implicit primitive types.
func New(name string) *Model {
	m := &Model{
		name:     name,
		classes:  make(map[string]*Class),
		bySimple: make(map[string][]string),
	}
	for _, p := range obm.Primitives {
		_ = m.Add(&Class{Name: p, QualifiedName: p, Primitive: true})
	}
	return m
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.name
}

// Add registers a class. QualifiedName defaults to Name.
func (m *Model) Add(c *Class) error {
	if c == nil || c.Name == "" {
		return fmt.Errorf("add class: empty name")
	}
	if c.QualifiedName == "" {
		c.QualifiedName = c.Name
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.classes[c.QualifiedName]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateClass, c.QualifiedName)
	}
	m.classes[c.QualifiedName] = c
	m.bySimple[c.Name] = append(m.bySimple[c.Name], c.QualifiedName)
	return nil
}

// Lookup resolves a qualified name, or a simple name that matches exactly
// one class.
func (m *Model) Lookup(name string) (*Class, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if c, ok := m.classes[name]; ok {
		return c, nil
	}

	simple := name
	if i := strings.LastIndex(name, "::"); i >= 0 {
		simple = name[i+2:]
	}
	matches := m.bySimple[simple]
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
	case 1:
		if simple != name && !strings.HasSuffix(matches[0], name) {
			return nil, fmt.Errorf("%w: %s", ErrClassNotFound, name)
		}
		return m.classes[matches[0]], nil
	default:
		return nil, fmt.Errorf("%w: %s matches %s", ErrAmbiguousClass, name, strings.Join(matches, ", "))
	}
}

// Classes returns the non-primitive classes sorted by qualified name.
func (m *Model) Classes() []*Class {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*Class, 0, len(m.classes))
	for _, c := range m.classes {
		if c.Primitive {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QualifiedName < out[j].QualifiedName })
	return out
}

// Merge adds every non-primitive class of other to m.
func (m *Model) Merge(other *Model) error {
	for _, c := range other.Classes() {
		if err := m.Add(c); err != nil {
			return err
		}
	}
	return nil
}
