package compiler

import (
	"strconv"
	"strings"

	"github.com/c360studio/obmalloy/expr"
	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/signature"
	"github.com/c360studio/obmalloy/vocabulary/alloy"
)

// transferFieldName builds "transfer" followed by the capitalized segments
// of the source path and then of the target path.
func transferFieldName(src, tgt []string) string {
	var b strings.Builder
	b.WriteString("transfer")
	for _, seg := range append(append([]string(nil), src...), tgt...) {
		b.WriteString(capitalize(seg))
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// processTransfer declares the transfer field of conn on sig and synthesizes
// its end, ordering and item facts.
func (ctx *Context) processTransfer(c *model.Class, sig *signature.Signature, conn *model.Connector,
	src, tgt resolvedEnd, ordered bool) {
	field := ctx.uniqueField(sig, transferFieldName(src.Path, tgt.Path), conn.Name)
	typ := alloy.SigTransfer
	if ordered {
		typ = alloy.SigTransferBefore
	}
	sig.AddField(signature.FieldDecl{Names: []string{field}, Type: typ})
	ctx.setOf(ctx.transferFields, sig.Name).Add(field)

	t := expr.Path(expr.X, field)
	ctx.addFact(sig, expr.Bijection(alloy.Sources, t, src.Expr))
	ctx.addFact(sig, expr.Bijection(alloy.Targets, t, tgt.Expr))
	if ordered {
		ctx.addFact(sig, expr.Pred(alloy.IsAfterSource, t))
		ctx.addFact(sig, expr.Pred(alloy.IsBeforeTarget, t))
	}

	outputs, inputs := ctx.flowProperties(c, conn, src, tgt)

	itemFacts := []expr.Expr{
		expr.Pred(alloy.SubsettingItemRuleForSources, t),
		expr.Pred(alloy.SubsettingItemRuleForTargets, t),
	}
	items := expr.Path(t, alloy.Items)
	if len(outputs) > 0 {
		carried := expr.Dot(expr.Path(t, alloy.Sources), refUnion(outputs))
		itemFacts = append(itemFacts, expr.In(items, carried), expr.In(carried, items))
	}
	if len(inputs) > 0 {
		carried := expr.Dot(expr.Path(t, alloy.Targets), refUnion(inputs))
		itemFacts = append(itemFacts, expr.In(items, carried), expr.In(carried, items))
	}
	if ctx.isLeaf(c) {
		for _, f := range itemFacts {
			ctx.addFact(sig, f)
		}
	} else {
		for _, f := range itemFacts {
			ctx.deferred[sig.Name] = append(ctx.deferred[sig.Name], deferredFact{Field: field, Body: f})
		}
	}

	if src.Type != nil && len(outputs) > 0 {
		ctx.setOf(ctx.outputs, src.Type.Name).Add(outputs...)
	}
	if tgt.Type != nil && len(inputs) > 0 {
		ctx.setOf(ctx.inputs, tgt.Type.Name).Add(inputs...)
	}
	if src.Type != nil && tgt.Type != nil && src.Type.QualifiedName == tgt.Type.QualifiedName {
		ctx.markSameType(src.Type, outputs, inputs)
	}

	ctx.logger.Debug("Transfer synthesized",
		"signature", sig.Name,
		"connector", conn.Name,
		"field", field,
		"ordered", ordered,
		"outputs", len(outputs),
		"inputs", len(inputs),
		"deferred", !ctx.isLeaf(c))
}

// uniqueField returns name, or name with the smallest numeric suffix that
// collides with no own or inherited field of sig.
func (ctx *Context) uniqueField(sig *signature.Signature, name, connector string) string {
	taken := make(map[string]bool)
	for _, f := range ctx.Sigs.AllFieldNames(sig) {
		taken[f] = true
	}
	// Subclasses are processed first and may already hold the name.
	for owner, fields := range ctx.transferFields {
		s, ok := ctx.Sigs.Lookup(owner)
		if !ok || !ctx.descendsFrom(s, sig) {
			continue
		}
		for _, f := range fields.Items() {
			taken[f] = true
		}
	}
	if !taken[name] {
		return name
	}
	for i := 2; ; i++ {
		candidate := name + strconv.Itoa(i)
		if !taken[candidate] {
			ctx.Messages.Warnf(sig.Name, "transfer field %s of connector %s already declared, renamed to %s",
				name, connector, candidate)
			return candidate
		}
	}
}

// flowProperties returns the item property names an item or object flow
// carries out of its source and into its target, after the exclusion rule.
func (ctx *Context) flowProperties(c *model.Class, conn *model.Connector, src, tgt resolvedEnd) ([]string, []string) {
	if !conn.IsFlow() {
		return nil, nil
	}
	outputs := ctx.ownedNames(c, conn, src, conn.SourceOutputs)
	inputs := ctx.ownedNames(c, conn, tgt, conn.TargetInputs)

	if len(outputs) > 0 && ctx.hasAttributeOfType(src.Type, tgt.Type) {
		ctx.Messages.Infof(c.QualifiedName, "connector %s: %s contains a %s, source outputs dropped",
			conn.Name, src.Type.Name, tgt.Type.Name)
		outputs = nil
	}
	if len(inputs) > 0 && ctx.hasAttributeOfType(tgt.Type, src.Type) {
		ctx.Messages.Infof(c.QualifiedName, "connector %s: %s contains a %s, target inputs dropped",
			conn.Name, tgt.Type.Name, src.Type.Name)
		inputs = nil
	}
	return outputs, inputs
}

// ownedNames keeps the names that resolve to a property of the end's type.
func (ctx *Context) ownedNames(c *model.Class, conn *model.Connector, end resolvedEnd, names []string) []string {
	var out []string
	for _, n := range names {
		if end.Type == nil || ctx.findProperty(end.Type, n) == nil {
			ctx.Messages.Warnf(c.QualifiedName, "connector %s: item property %s not found on end %s, ignored",
				conn.Name, n, end.PathString())
			continue
		}
		out = append(out, n)
	}
	return out
}

// hasAttributeOfType reports whether owner has a property typed exactly as
// typ.
func (ctx *Context) hasAttributeOfType(owner, typ *model.Class) bool {
	if owner == nil || typ == nil {
		return false
	}
	for _, p := range ctx.allProperties(owner) {
		if t, err := ctx.Model.Lookup(p.Type); err == nil && t.QualifiedName == typ.QualifiedName {
			return true
		}
	}
	return false
}

// markSameType records a type that is both source and target of a
// transfer. Its accessors are tied to its item properties once every
// transfer is known.
func (ctx *Context) markSameType(typ *model.Class, outputs, inputs []string) {
	s := ctx.sigFor(typ)
	if s == nil || (len(outputs) == 0 && len(inputs) == 0) {
		return
	}
	ctx.sameType[s.Name] = true
}

// refUnion unions bare field references: (a + b).
func refUnion(names []string) expr.Expr {
	refs := make([]expr.Expr, len(names))
	for i, n := range names {
		refs[i] = expr.Ref{Name: n}
	}
	return expr.UnionOf(refs...)
}

// descendsFrom reports whether anc is a proper ancestor of s.
func (ctx *Context) descendsFrom(s, anc *signature.Signature) bool {
	for _, a := range ctx.Sigs.Ancestors(s) {
		if a.ID == anc.ID {
			return true
		}
	}
	return false
}
