package compiler

import (
	"errors"
	"fmt"

	"github.com/c360studio/obmalloy/expr"
	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/signature"
	"github.com/c360studio/obmalloy/vocabulary/obm"
)

// walkHierarchy creates the signatures of main, its ancestors and every
// reachable property type, then declares fields, cardinality facts, leaves
// and step properties.
func walkHierarchy(ctx *Context, main *model.Class) error {
	ctx.Main = main
	if _, err := ctx.ensureClass(main); err != nil {
		return err
	}
	for len(ctx.pending) > 0 {
		next := ctx.pending[0]
		ctx.pending = ctx.pending[1:]
		if _, err := ctx.ensureClass(next); err != nil {
			return err
		}
	}
	ctx.Chain = append(ctx.ancestry(main), main)

	for _, c := range ctx.visited {
		for _, w := range c.Warnings {
			ctx.Messages.Warnf(c.QualifiedName, "%s", w)
		}
		ctx.declareFields(c)
	}
	ctx.detectLeaves()
	ctx.collectStepProperties()

	ctx.logger.Debug("Hierarchy walked",
		"main", main.QualifiedName,
		"chain", len(ctx.Chain),
		"visited", len(ctx.visited),
		"signatures", ctx.Sigs.Len())
	return nil
}

// errPending is returned by ensureClass for a class whose signature waits on
// a class still being created further up the walk.
var errPending = errors.New("class pending")

// ensureClass creates the signature of c after its ancestors, then recurses
// into the declared type of every property, depth first. A property type
// that is still being created is queued on ctx.pending.
func (ctx *Context) ensureClass(c *model.Class) (signature.ID, error) {
	if id, ok := ctx.sigOf[c.QualifiedName]; ok {
		return id, nil
	}
	if ctx.inProgress[c.QualifiedName] {
		return signature.NoParent, errPending
	}
	if ctx.ownAncestor(c) {
		ctx.Messages.Errorf(c.QualifiedName, "class is its own ancestor")
		return signature.NoParent, fmt.Errorf("%w: %s", ErrInheritanceCycle, c.QualifiedName)
	}
	ctx.inProgress[c.QualifiedName] = true
	defer delete(ctx.inProgress, c.QualifiedName)

	parentID := ctx.root
	parent, err := ctx.honoredParent(c)
	if err != nil {
		ctx.Messages.Errorf(c.QualifiedName, "cannot resolve ancestor %s", c.Generals[0])
		return signature.NoParent, fmt.Errorf("%w: ancestor of %s: %w", ErrUnresolvedType, c.QualifiedName, err)
	}
	if parent != nil {
		if parentID, err = ctx.ensureClass(parent); err != nil {
			return signature.NoParent, err
		}
	}

	id, err := ctx.Sigs.Ensure(c.Name, c.QualifiedName, parentID)
	if err != nil {
		ctx.Messages.Errorf(c.QualifiedName, "%v", err)
		return signature.NoParent, err
	}
	ctx.sigOf[c.QualifiedName] = id
	ctx.visited = append(ctx.visited, c)

	for _, p := range c.Properties {
		if p.Name == "" {
			continue
		}
		if p.Type == "" {
			ctx.Messages.Errorf(c.QualifiedName, "property %s has no type", p.Name)
			return signature.NoParent, fmt.Errorf("%w: %s.%s", ErrUnresolvedType, c.QualifiedName, p.Name)
		}
		t, err := ctx.Model.Lookup(p.Type)
		if err != nil {
			ctx.Messages.Errorf(c.QualifiedName, "cannot resolve type %s of property %s", p.Type, p.Name)
			return signature.NoParent, fmt.Errorf("%w: %s.%s: %w", ErrUnresolvedType, c.QualifiedName, p.Name, err)
		}
		if _, err := ctx.ensureClass(t); err != nil {
			if errors.Is(err, errPending) {
				ctx.pending = append(ctx.pending, t)
				continue
			}
			return signature.NoParent, err
		}
	}
	return id, nil
}

// ownAncestor reports whether the honored ancestor chain of c leads back to c.
func (ctx *Context) ownAncestor(c *model.Class) bool {
	seen := map[string]bool{}
	for cur := c; ; {
		p, err := ctx.honoredParent(cur)
		if err != nil || p == nil || seen[p.QualifiedName] {
			return false
		}
		if p.QualifiedName == c.QualifiedName {
			return true
		}
		seen[p.QualifiedName] = true
		cur = p
	}
}

type fieldGroup struct {
	typ       string
	names     []string
	parameter bool
}

// declareFields adds the field declarations, cardinality facts and
// redefinition subset facts of c.
func (ctx *Context) declareFields(c *model.Class) {
	sig := ctx.sigFor(c)
	var (
		groups []*fieldGroup
		byType = make(map[string]*fieldGroup)
	)

	for _, p := range c.Properties {
		if p.Name == "" {
			ctx.Messages.Errorf(c.QualifiedName, "unnamed property of type %s skipped", p.Type)
			continue
		}
		typeName := ctx.typeSigName(p)

		if p.Redefines != "" {
			if ctx.redefines(c, p, typeName) {
				continue
			}
		}

		if f := cardinalityFact(p.Name, p.Lower, p.Upper); f != nil {
			ctx.addFact(sig, f)
		}

		if p.HasTag(obm.TagParameter) {
			groups = append(groups, &fieldGroup{typ: typeName, names: []string{p.Name}, parameter: true})
			continue
		}
		g, ok := byType[typeName]
		if !ok {
			g = &fieldGroup{typ: typeName}
			byType[typeName] = g
			groups = append(groups, g)
		}
		g.names = append(g.names, p.Name)
	}

	for _, g := range groups {
		sig.AddField(signature.FieldDecl{
			Names:    g.names,
			Type:     g.typ,
			Disjoint: !g.parameter && len(g.names) > 1,
		})
	}
}

// redefines handles a redefining property. It reports false when the
// redefined property cannot be found and p must be declared as own field.
func (ctx *Context) redefines(c *model.Class, p *model.Property, typeName string) bool {
	var inherited *model.Property
	chain := ctx.ancestry(c)
	for i := len(chain) - 1; i >= 0 && inherited == nil; i-- {
		inherited = chain[i].Property(p.Redefines)
	}
	if inherited == nil {
		ctx.Messages.Warnf(c.QualifiedName, "property %s redefines unknown property %s, declared as own field",
			p.Name, p.Redefines)
		return false
	}
	if p.Redefines != p.Name {
		ctx.Messages.Warnf(c.QualifiedName, "property %s redefines %s under another name, %s is used",
			p.Name, p.Redefines, p.Redefines)
	}

	sig := ctx.sigFor(c)
	ctx.setOf(ctx.redefined, sig.Name).Add(p.Redefines)
	ctx.addFact(sig, expr.In(expr.Path(expr.X, p.Redefines), expr.Ref{Name: typeName}))
	if f := cardinalityFact(p.Redefines, p.Lower, p.Upper); f != nil {
		ctx.addFact(sig, f)
	}
	return true
}

// typeSigName returns the signature name of a property's declared type.
func (ctx *Context) typeSigName(p *model.Property) string {
	if t, err := ctx.Model.Lookup(p.Type); err == nil {
		return t.Name
	}
	return simpleName(p.Type)
}

// cardinalityFact returns #x.field = n for exact bounds, #x.field >= n for
// an unbounded upper with lower >= 1, and nil otherwise.
func cardinalityFact(field string, lower, upper int) expr.Expr {
	f := expr.Path(expr.X, field)
	switch {
	case lower == upper && lower >= 0:
		return expr.CardEq(f, lower)
	case upper == model.Unbounded && lower >= 1:
		return expr.CardGte(f, lower)
	default:
		return nil
	}
}

// detectLeaves marks every visited class no other visited class extends.
func (ctx *Context) detectLeaves() {
	extended := make(map[string]bool)
	for _, c := range ctx.visited {
		if p, err := ctx.honoredParent(c); err == nil && p != nil {
			extended[p.QualifiedName] = true
		}
	}
	for _, c := range ctx.visited {
		if !extended[c.QualifiedName] {
			ctx.leaves[c.QualifiedName] = true
		}
	}
}

// collectStepProperties records the inherited-inclusive names of Step and
// Participant properties per visited class.
func (ctx *Context) collectStepProperties() {
	for _, c := range ctx.visited {
		steps := ctx.setOf(ctx.stepProps, c.QualifiedName)
		for _, p := range ctx.allProperties(c) {
			if p.IsStep() {
				steps.Add(p.Name)
			}
		}
	}
}
