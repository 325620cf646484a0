package compiler

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/c360studio/obmalloy/expr"
	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/signature"
	"github.com/c360studio/obmalloy/vocabulary/alloy"
	"github.com/c360studio/obmalloy/vocabulary/obm"
)

// nameSet is a set of names that remembers insertion order.
type nameSet struct {
	order []string
	index map[string]bool
}

func newNameSet(names ...string) *nameSet {
	s := &nameSet{index: make(map[string]bool)}
	s.Add(names...)
	return s
}

func (s *nameSet) Add(names ...string) {
	for _, n := range names {
		if s.index[n] {
			continue
		}
		s.index[n] = true
		s.order = append(s.order, n)
	}
}

func (s *nameSet) Has(name string) bool {
	return s != nil && s.index[name]
}

func (s *nameSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.order)
}

func (s *nameSet) Items() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

func (s *nameSet) Sorted() []string {
	out := s.Items()
	sort.Strings(out)
	return out
}

// deferredFact is a transfer fact a non-leaf signature leaves to its leaves.
type deferredFact struct {
	Field string
	Body  expr.Expr
}

// Context carries the state of one compilation run through every stage.
// It is not safe for concurrent use.
type Context struct {
	RunID    string
	Model    *model.Model
	Sigs     *signature.Registry
	Messages *Messages

	logger *slog.Logger
	root   signature.ID

	// Main is the class being compiled; Chain is its ancestry, oldest first,
	// ending with Main.
	Main  *model.Class
	Chain []*model.Class

	visited    []*model.Class
	sigOf      map[string]signature.ID
	inProgress map[string]bool
	pending    []*model.Class
	warned     map[string]bool

	// leaves holds the qualified names of visited classes without a visited
	// subclass.
	leaves map[string]bool

	// stepProps maps a class to its inherited-inclusive step property names.
	stepProps map[string]*nameSet

	// redefined maps a signature to the property names it redefines.
	redefined map[string]*nameSet

	// suppressed holds Class::connector keys redefined by a subclass.
	suppressed map[string]bool

	// transferFields maps a signature to the transfer fields it declares.
	transferFields map[string]*nameSet

	// deferred maps a non-leaf signature to transfer facts for its leaves.
	deferred map[string][]deferredFact

	// outputs and inputs map an end type signature to item property names.
	outputs  map[string]*nameSet
	inputs   map[string]*nameSet
	sameType map[string]bool
}

func newContext(runID string, m *model.Model, logger *slog.Logger) *Context {
	sigs := signature.NewRegistry()
	root := sigs.Builtin(alloy.SigOccurrence, signature.NoParent)
	transfer := sigs.Builtin(alloy.SigTransfer, root)
	sigs.Builtin(alloy.SigTransferBefore, transfer)

	return &Context{
		RunID:          runID,
		Model:          m,
		Sigs:           sigs,
		Messages:       newMessages(logger),
		logger:         logger,
		root:           root,
		sigOf:          make(map[string]signature.ID),
		inProgress:     make(map[string]bool),
		warned:         make(map[string]bool),
		leaves:         make(map[string]bool),
		stepProps:      make(map[string]*nameSet),
		redefined:      make(map[string]*nameSet),
		suppressed:     make(map[string]bool),
		transferFields: make(map[string]*nameSet),
		deferred:       make(map[string][]deferredFact),
		outputs:        make(map[string]*nameSet),
		inputs:         make(map[string]*nameSet),
		sameType:       make(map[string]bool),
	}
}

// addFact attaches body to sig and reports whether it was new.
func (ctx *Context) addFact(sig *signature.Signature, body expr.Expr) bool {
	if sig.AddFact(body) {
		return true
	}
	ctx.logger.Debug("Duplicate fact dropped",
		"signature", sig.Name,
		"kind", body.Kind())
	return false
}

// sigFor returns the signature created for a visited class.
func (ctx *Context) sigFor(c *model.Class) *signature.Signature {
	id, ok := ctx.sigOf[c.QualifiedName]
	if !ok {
		return nil
	}
	return ctx.Sigs.Get(id)
}

// isLeaf reports whether a visited class has no visited subclass.
func (ctx *Context) isLeaf(c *model.Class) bool {
	return ctx.leaves[c.QualifiedName]
}

// Visited returns the visited classes in creation order.
func (ctx *Context) Visited() []*model.Class {
	out := make([]*model.Class, len(ctx.visited))
	copy(out, ctx.visited)
	return out
}

// honoredParent returns the single honored ancestor of c, or nil when c
// extends the root directly.
func (ctx *Context) honoredParent(c *model.Class) (*model.Class, error) {
	if len(c.Generals) == 0 {
		return nil, nil
	}
	if len(c.Generals) > 1 && !ctx.warned[c.QualifiedName] {
		ctx.warned[c.QualifiedName] = true
		ctx.Messages.Warnf(c.QualifiedName, "%d ancestors declared, only %s is honored",
			len(c.Generals), c.Generals[0])
	}
	name := c.Generals[0]
	if simpleName(name) == obm.Root {
		return nil, nil
	}
	parent, err := ctx.Model.Lookup(name)
	if err != nil {
		return nil, err
	}
	return parent, nil
}

// ancestry returns the honored ancestors of c, oldest first, excluding c.
func (ctx *Context) ancestry(c *model.Class) []*model.Class {
	var chain []*model.Class
	seen := map[string]bool{c.QualifiedName: true}
	for cur := c; ; {
		p, err := ctx.honoredParent(cur)
		if err != nil || p == nil || seen[p.QualifiedName] {
			break
		}
		seen[p.QualifiedName] = true
		chain = append(chain, p)
		cur = p
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// findProperty resolves a property of c or of one of its ancestors,
// youngest declaration first.
func (ctx *Context) findProperty(c *model.Class, name string) *model.Property {
	if p := c.Property(name); p != nil {
		return p
	}
	chain := ctx.ancestry(c)
	for i := len(chain) - 1; i >= 0; i-- {
		if p := chain[i].Property(name); p != nil {
			return p
		}
	}
	return nil
}

// allProperties returns the own and inherited properties of c, oldest
// declaration first, with redefinitions replacing what they redefine.
func (ctx *Context) allProperties(c *model.Class) []*model.Property {
	var out []*model.Property
	pos := make(map[string]int)
	for _, cls := range append(ctx.ancestry(c), c) {
		for _, p := range cls.Properties {
			if p.Name == "" {
				continue
			}
			if i, ok := pos[p.Name]; ok {
				out[i] = p
				continue
			}
			pos[p.Name] = len(out)
			out = append(out, p)
		}
	}
	return out
}

func (ctx *Context) setOf(m map[string]*nameSet, key string) *nameSet {
	s, ok := m[key]
	if !ok {
		s = newNameSet()
		m[key] = s
	}
	return s
}

// connectorKey identifies a connector across the hierarchy.
func connectorKey(owner *model.Class, connector string) string {
	return owner.QualifiedName + "::" + connector
}

func simpleName(name string) string {
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:]
	}
	return name
}
