package compiler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/c360studio/obmalloy/expr"
	"github.com/c360studio/obmalloy/model"
	"github.com/c360studio/obmalloy/signature"
	"github.com/c360studio/obmalloy/vocabulary/alloy"
	"github.com/c360studio/obmalloy/vocabulary/obm"
)

// connectorKind is the role classification of a connector.
type connectorKind int

const (
	kindUnknown connectorKind = iota
	kindBinding
	kindPrecedence
	kindConcurrency
	kindTransfer
	kindTransferBefore
)

func (k connectorKind) String() string {
	switch k {
	case kindBinding:
		return "binding"
	case kindPrecedence:
		return "precedence"
	case kindConcurrency:
		return "concurrency"
	case kindTransfer:
		return "transfer"
	case kindTransferBefore:
		return "transfer-before"
	default:
		return "unknown"
	}
}

// relation returns the base relation a temporal connector constrains.
func (k connectorKind) relation() string {
	if k == kindConcurrency {
		return alloy.HappensDuring
	}
	return alloy.HappensBefore
}

var roleKinds = map[string]connectorKind{
	obm.RoleEarlierOccurrence:    kindPrecedence,
	obm.RoleLaterOccurrence:      kindPrecedence,
	obm.RoleShorterOccurrence:    kindConcurrency,
	obm.RoleLongerOccurrence:     kindConcurrency,
	obm.RoleTransferSource:       kindTransfer,
	obm.RoleTransferTarget:       kindTransfer,
	obm.RoleTransferBeforeSource: kindTransferBefore,
	obm.RoleTransferBeforeTarget: kindTransferBefore,
}

// classify decides the kind of a connector from its stereotypes and the
// role names of its first two ends.
func classify(conn *model.Connector) connectorKind {
	if conn.HasStereotype(obm.StereotypeBindingConnector) {
		return kindBinding
	}
	r0, r1 := conn.Ends[0].Role, conn.Ends[1].Role
	if r0 == "" && r1 == "" {
		return kindBinding
	}
	k0, k1 := roleKinds[r0], roleKinds[r1]
	if k0 != k1 || obm.RoleSide(r0) == obm.RoleSide(r1) {
		return kindUnknown
	}
	return k0
}

// resolvedEnd is a connector end bound to its property path.
type resolvedEnd struct {
	model.ConnectorEnd

	// Expr is x.path.
	Expr expr.Expr

	// Type is the declared type of the last property on the path.
	Type *model.Class
}

// resolveEnd follows the end's property path from owner.
func (ctx *Context) resolveEnd(owner *model.Class, end model.ConnectorEnd) (resolvedEnd, error) {
	if len(end.Path) == 0 {
		return resolvedEnd{}, fmt.Errorf("end %q has an empty property path", end.Role)
	}
	cur := owner
	var typ *model.Class
	for _, name := range end.Path {
		if cur == nil {
			return resolvedEnd{}, fmt.Errorf("cannot follow path %s past a primitive", end.PathString())
		}
		p := ctx.findProperty(cur, name)
		if p == nil {
			return resolvedEnd{}, fmt.Errorf("unknown property %s on %s", name, cur.QualifiedName)
		}
		t, err := ctx.Model.Lookup(p.Type)
		if err != nil {
			return resolvedEnd{}, fmt.Errorf("cannot resolve type %s of %s", p.Type, name)
		}
		typ = t
		cur = t
	}
	return resolvedEnd{
		ConnectorEnd: end,
		Expr:         expr.Path(expr.X, end.Path...),
		Type:         typ,
	}, nil
}

// resolveEnds resolves the first two ends of conn, source first for
// directed kinds.
func (ctx *Context) resolveEnds(owner *model.Class, conn *model.Connector, kind connectorKind) (resolvedEnd, resolvedEnd, error) {
	a, err := ctx.resolveEnd(owner, conn.Ends[0])
	if err != nil {
		return resolvedEnd{}, resolvedEnd{}, err
	}
	b, err := ctx.resolveEnd(owner, conn.Ends[1])
	if err != nil {
		return resolvedEnd{}, resolvedEnd{}, err
	}
	if kind != kindBinding && obm.RoleSide(a.Role) == obm.SideTarget {
		a, b = b, a
	}
	return a, b, nil
}

// classifyConnectors synthesizes connector facts for every visited class,
// children before parents, so redefinitions are registered before the
// redefined connector's owner is scanned.
func classifyConnectors(ctx *Context) {
	for _, c := range ctx.processingOrder() {
		ctx.registerRedefinitions(c)
		ctx.processConnectors(c)
	}
}

// processingOrder sorts the visited classes by inheritance depth, deepest
// first, then by qualified name.
func (ctx *Context) processingOrder() []*model.Class {
	order := ctx.Visited()
	depth := make(map[string]int, len(order))
	for _, c := range order {
		depth[c.QualifiedName] = len(ctx.ancestry(c))
	}
	sort.SliceStable(order, func(i, j int) bool {
		di, dj := depth[order[i].QualifiedName], depth[order[j].QualifiedName]
		if di != dj {
			return di > dj
		}
		return order[i].QualifiedName < order[j].QualifiedName
	})
	return order
}

// registerRedefinitions adds every connector c redefines to the
// suppression set.
func (ctx *Context) registerRedefinitions(c *model.Class) {
	for _, conn := range c.Connectors {
		if conn.Redefines == "" {
			continue
		}
		i := strings.LastIndex(conn.Redefines, "::")
		if i < 0 {
			ctx.Messages.Warnf(c.QualifiedName, "connector %s redefines %q, expected Class::connector",
				conn.Name, conn.Redefines)
			continue
		}
		owner, err := ctx.Model.Lookup(conn.Redefines[:i])
		if err != nil {
			ctx.Messages.Warnf(c.QualifiedName, "connector %s redefines a connector of unknown class %s",
				conn.Name, conn.Redefines[:i])
			continue
		}
		name := conn.Redefines[i+2:]
		if owner.Connector(name) == nil {
			ctx.Messages.Warnf(c.QualifiedName, "connector %s redefines unknown connector %s",
				conn.Name, conn.Redefines)
		}
		ctx.suppressed[connectorKey(owner, name)] = true
	}
}

// processConnectors synthesizes the facts of the connectors c owns.
func (ctx *Context) processConnectors(c *model.Class) {
	sig := ctx.sigFor(c)

	var active []*model.Connector
	for _, conn := range c.Connectors {
		if ctx.suppressed[connectorKey(c, conn.Name)] {
			ctx.Messages.Infof(c.QualifiedName, "connector %s is redefined by a subclass, skipped", conn.Name)
			continue
		}
		if len(conn.Ends) < 2 {
			ctx.Messages.Errorf(c.QualifiedName, "connector %s has %d end(s), two required",
				conn.Name, len(conn.Ends))
			continue
		}
		if len(conn.Ends) > 2 {
			ctx.Messages.Warnf(c.QualifiedName, "connector %s has %d ends, only the first two are used",
				conn.Name, len(conn.Ends))
		}
		active = append(active, conn)
	}

	handled := ctx.processOneOf(c, sig, active)
	for _, conn := range active {
		if handled[conn.Name] {
			continue
		}
		ctx.processConnector(c, sig, conn)
	}
}

// processConnector synthesizes the facts of one connector outside any
// one-of group.
func (ctx *Context) processConnector(c *model.Class, sig *signature.Signature, conn *model.Connector) {
	kind := classify(conn)
	if kind == kindUnknown {
		ctx.Messages.Warnf(c.QualifiedName, "connector %s has unsupported end roles %q/%q, skipped",
			conn.Name, conn.Ends[0].Role, conn.Ends[1].Role)
		return
	}
	src, tgt, err := ctx.resolveEnds(c, conn, kind)
	if err != nil {
		ctx.Messages.Errorf(c.QualifiedName, "connector %s: %v", conn.Name, err)
		return
	}

	ctx.logger.Debug("Connector classified",
		"class", c.QualifiedName,
		"connector", conn.Name,
		"kind", kind.String())

	switch kind {
	case kindBinding:
		ctx.addFact(sig, expr.Eq(src.Expr, tgt.Expr))
	case kindPrecedence, kindConcurrency:
		ctx.addFact(sig, expr.Bijection(kind.relation(), src.Expr, tgt.Expr))
	case kindTransfer, kindTransferBefore:
		ctx.processTransfer(c, sig, conn, src, tgt, kind == kindTransferBefore)
	}
}
