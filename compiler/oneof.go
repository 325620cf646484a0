package compiler

import (
	"fmt"

	"github.com/c360studio/obmalloy/expr"
	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/signature"
	"github.com/c360studio/obmalloy/vocabulary/obm"
)

// oneOfBranch is one connector of a one-of group, resolved source first.
type oneOfBranch struct {
	conn     *model.Connector
	kind     connectorKind
	src, tgt resolvedEnd
}

// common returns the end shared by every branch of a group on side.
func (b oneOfBranch) common(side obm.Side) resolvedEnd {
	if side == obm.SideSource {
		return b.src
	}
	return b.tgt
}

// alternative returns the end that differs between branches.
func (b oneOfBranch) alternative(side obm.Side) resolvedEnd {
	if side == obm.SideSource {
		return b.tgt
	}
	return b.src
}

// endFrequency counts how often each end path is used as source and as
// target across the one-of connectors of a class.
type endFrequency struct {
	source map[string]int
	target map[string]int
}

// of returns the frequency of path on side.
func (f endFrequency) of(side obm.Side, path string) int {
	if side == obm.SideSource {
		return f.source[path]
	}
	return f.target[path]
}

// processOneOf synthesizes the facts of every one-of group of c and returns
// the names of the connectors the groups reference.
func (ctx *Context) processOneOf(c *model.Class, sig *signature.Signature, active []*model.Connector) map[string]bool {
	handled := make(map[string]bool)
	if len(c.OneOf) == 0 {
		return handled
	}

	byName := make(map[string]*model.Connector, len(active))
	for _, conn := range active {
		byName[conn.Name] = conn
	}

	// Resolve every referenced connector once, in declaration order, so the
	// frequencies do not depend on group order.
	branches := make(map[string]oneOfBranch)
	freq := endFrequency{source: make(map[string]int), target: make(map[string]int)}
	for _, group := range c.OneOf {
		for _, ref := range group.Ends {
			conn, ok := byName[ref.Connector]
			if !ok {
				continue
			}
			handled[conn.Name] = true
			if _, done := branches[conn.Name]; done {
				continue
			}
			b, err := ctx.resolveBranch(c, conn)
			if err != nil {
				ctx.Messages.Errorf(c.QualifiedName, "one-of connector %s: %v", conn.Name, err)
				continue
			}
			branches[conn.Name] = b
			freq.source[b.src.PathString()]++
			freq.target[b.tgt.PathString()]++
		}
	}

	for _, group := range c.OneOf {
		if err := ctx.emitOneOf(sig, group, byName, branches, freq); err != nil {
			ctx.Messages.Errorf(c.QualifiedName, "one-of group %s skipped: %v", group.Name, err)
		}
	}
	return handled
}

// resolveBranch classifies and resolves a connector referenced by a one-of
// group. Only precedence and concurrency connectors may branch.
func (ctx *Context) resolveBranch(c *model.Class, conn *model.Connector) (oneOfBranch, error) {
	kind := classify(conn)
	if kind != kindPrecedence && kind != kindConcurrency {
		return oneOfBranch{}, fmt.Errorf("%s connectors cannot be alternatives", kind)
	}
	src, tgt, err := ctx.resolveEnds(c, conn, kind)
	if err != nil {
		return oneOfBranch{}, err
	}
	return oneOfBranch{conn: conn, kind: kind, src: src, tgt: tgt}, nil
}

// emitOneOf adds the facts of one group to sig.
func (ctx *Context) emitOneOf(sig *signature.Signature, group *model.OneOfGroup,
	byName map[string]*model.Connector, branches map[string]oneOfBranch, freq endFrequency) error {
	if len(group.Ends) < 2 {
		return fmt.Errorf("%d end(s), two required", len(group.Ends))
	}

	var (
		side   obm.Side
		kind   connectorKind
		common string
		alts   []resolvedEnd
	)
	for i, ref := range group.Ends {
		conn, ok := byName[ref.Connector]
		if !ok {
			return fmt.Errorf("unknown connector %s", ref.Connector)
		}
		if ref.End < 0 || ref.End >= len(conn.Ends) {
			return fmt.Errorf("connector %s has no end %d", ref.Connector, ref.End)
		}
		b, ok := branches[conn.Name]
		if !ok {
			return fmt.Errorf("connector %s could not be resolved", conn.Name)
		}
		s := obm.RoleSide(conn.Ends[ref.End].Role)
		if s == obm.SideNone {
			return fmt.Errorf("end %d of %s has no source or target role", ref.End, conn.Name)
		}
		if i == 0 {
			side, kind, common = s, b.kind, b.common(s).PathString()
		}
		switch {
		case s != side:
			return fmt.Errorf("mixes source and target ends")
		case b.kind != kind:
			return fmt.Errorf("mixes %s and %s connectors", kind, b.kind)
		case b.common(side).PathString() != common:
			return fmt.Errorf("ends %s and %s differ", common, b.common(side).PathString())
		}
		alts = append(alts, b.alternative(side))
	}

	var (
		commonExpr = expr.Path(expr.X, branches[group.Ends[0].Connector].common(side).Path...)
		altExprs   []expr.Expr
		exclusive  []expr.Expr
		seen       = make(map[string]bool)
	)
	// The alternative sits on the opposite side of the common end.
	altSide := obm.SideTarget
	if side == obm.SideTarget {
		altSide = obm.SideSource
	}
	for _, alt := range alts {
		p := alt.PathString()
		if seen[p] {
			continue
		}
		seen[p] = true
		altExprs = append(altExprs, alt.Expr)
		if freq.of(altSide, p) == 1 {
			exclusive = append(exclusive, alt.Expr)
		}
	}

	rel := kind.relation()
	union := expr.UnionOf(altExprs...)
	if len(exclusive) == len(altExprs) && len(altExprs) == len(group.Ends) {
		if side == obm.SideSource {
			ctx.addFact(sig, expr.Bijection(rel, commonExpr, union))
		} else {
			ctx.addFact(sig, expr.Bijection(rel, union, commonExpr))
		}
		return nil
	}

	if side == obm.SideSource {
		ctx.addFact(sig, expr.Function(rel, commonExpr, union))
		for _, alt := range exclusive {
			ctx.addFact(sig, expr.InverseFunction(rel, commonExpr, alt))
		}
	} else {
		ctx.addFact(sig, expr.InverseFunction(rel, union, commonExpr))
		for _, alt := range exclusive {
			ctx.addFact(sig, expr.Function(rel, alt, commonExpr))
		}
	}
	ctx.logger.Debug("One-of group synthesized",
		"signature", sig.Name,
		"group", group.Name,
		"relation", rel,
		"alternatives", len(altExprs),
		"exclusive", len(exclusive))
	return nil
}
