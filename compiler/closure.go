package compiler

import (
	"sort"

	"github.com/c360studio/obmalloy/expr"
	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/signature"
	"github.com/c360studio/obmalloy/vocabulary/alloy"
)

// assembleClosure completes every behavior signature with the facts tying
// its step and transfer fields to the steps accessor, and every item type
// with the facts tying its item properties to the inputs and outputs
// accessors.
func assembleClosure(ctx *Context) {
	classes := ctx.Visited()
	sort.Slice(classes, func(i, j int) bool {
		return classes[i].Name < classes[j].Name
	})

	for _, c := range classes {
		if ctx.isLeaf(c) {
			ctx.propagateDeferred(c)
		}
	}
	ctx.closeSameType()
	for _, c := range classes {
		if c.Primitive {
			continue
		}
		ctx.closeSteps(c)
	}
	ctx.closeItems(ctx.outputs, ctx.inputs, alloy.Outputs, alloy.Inputs)
	ctx.closeItems(ctx.inputs, ctx.outputs, alloy.Inputs, alloy.Outputs)
}

// propagateDeferred copies the transfer facts deferred by the ancestors of
// leaf onto the leaf's signature, unless the leaf declares the transfer
// field itself.
func (ctx *Context) propagateDeferred(leaf *model.Class) {
	sig := ctx.sigFor(leaf)
	copied := 0
	for _, anc := range ctx.ancestry(leaf) {
		as := ctx.sigFor(anc)
		if as == nil {
			continue
		}
		for _, df := range ctx.deferred[as.Name] {
			if sig.HasField(df.Field) {
				continue
			}
			if ctx.addFact(sig, df.Body) {
				copied++
			}
		}
	}
	if copied > 0 {
		ctx.logger.Debug("Deferred transfer facts propagated",
			"signature", sig.Name,
			"facts", copied)
	}
}

// transferFieldsOf returns the transfer fields sig declares or inherits,
// sorted.
func (ctx *Context) transferFieldsOf(sig *signature.Signature) []string {
	fields := newNameSet()
	for _, s := range append(ctx.Sigs.Ancestors(sig), sig) {
		fields.Add(ctx.transferFields[s.Name].Items()...)
	}
	return fields.Sorted()
}

// closeSteps adds the step closure facts of c.
func (ctx *Context) closeSteps(c *model.Class) {
	sig := ctx.sigFor(c)
	transfers := ctx.transferFieldsOf(sig)
	steps := newNameSet(ctx.stepProps[c.QualifiedName].Items()...)
	steps.Add(transfers...)

	stepsOf := expr.Path(expr.X, alloy.Steps)
	leaf := ctx.isLeaf(c)

	if steps.Len() == 0 {
		if !leaf {
			return
		}
		ctx.addFact(sig, expr.No(stepsOf))
		if len(ctx.Sigs.AllFieldNames(sig)) == 0 {
			ctx.addFact(sig, expr.NoneSatisfies(expr.Y, alloy.SigTransfer, expr.In(expr.Y, stepsOf)))
		}
		return
	}

	union := expr.UnionOf(expr.Fields(expr.X, steps.Sorted())...)
	ctx.addFact(sig, expr.In(union, stepsOf))
	if !leaf {
		return
	}
	ctx.addFact(sig, expr.In(stepsOf, union))
	if len(transfers) > 1 {
		ctx.addFact(sig, expr.Pred(alloy.Disj, expr.Fields(expr.X, transfers)...))
	}
}

// closeSameType equates each accessor of a same-type transfer end with the
// union of the item properties every transfer of that type carries.
func (ctx *Context) closeSameType() {
	names := make([]string, 0, len(ctx.sameType))
	for name := range ctx.sameType {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sig, ok := ctx.Sigs.Lookup(name)
		if !ok {
			continue
		}
		if outputs := ctx.outputs[name]; outputs.Len() > 0 {
			ctx.addFact(sig, expr.Eq(expr.Path(expr.X, alloy.Outputs),
				expr.UnionOf(expr.Fields(expr.X, outputs.Sorted())...)))
		}
		if inputs := ctx.inputs[name]; inputs.Len() > 0 {
			ctx.addFact(sig, expr.Eq(expr.Path(expr.X, alloy.Inputs),
				expr.UnionOf(expr.Fields(expr.X, inputs.Sorted())...)))
		}
	}
}

// closeItems equates the accessor of every type recorded in own with the
// union of its item properties, and empties the opposite accessor of types
// absent from other.
func (ctx *Context) closeItems(own, other map[string]*nameSet, accessor, opposite string) {
	names := make([]string, 0, len(own))
	for name := range own {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if ctx.sameType[name] {
			continue
		}
		sig, ok := ctx.Sigs.Lookup(name)
		if !ok || sig.Builtin {
			continue
		}
		acc := expr.Path(expr.X, accessor)
		union := expr.UnionOf(expr.Fields(expr.X, own[name].Sorted())...)
		ctx.addFact(sig, expr.In(union, acc))
		ctx.addFact(sig, expr.In(acc, union))
		if _, ok := other[name]; !ok {
			ctx.addFact(sig, expr.No(expr.Path(expr.X, opposite)))
		}
	}
}
