package expr

import "github.com/c360studio/obmalloy/vocabulary/alloy"

// Bound variables used by generated facts.
var (
	// X ranges over the owning signature of a fact.
	X = Var{Name: "x"}

	// Y ranges over nested quantifier domains.
	Y = Var{Name: "y"}
)

// Dot joins left with right.
func Dot(left, right Expr) Expr {
	return Join{Left: left, Right: right}
}

// Path joins base with each field name in turn: base.a.b.c.
func Path(base Expr, names ...string) Expr {
	e := base
	for _, n := range names {
		e = Join{Left: e, Right: Ref{Name: n}}
	}
	return e
}

// Fields returns base.name for each name.
func Fields(base Expr, names []string) []Expr {
	out := make([]Expr, len(names))
	for i, n := range names {
		out[i] = Path(base, n)
	}
	return out
}

// UnionOf unions the operands, flattening nested unions. No operands yield
// the empty set and a single operand is returned as is.
func UnionOf(operands ...Expr) Expr {
	flat := make([]Expr, 0, len(operands))
	for _, op := range operands {
		if u, ok := op.(Union); ok {
			flat = append(flat, u.Operands...)
			continue
		}
		flat = append(flat, op)
	}
	switch len(flat) {
	case 0:
		return None{}
	case 1:
		return flat[0]
	default:
		return Union{Operands: flat}
	}
}

// In builds the subset formula a in b.
func In(a, b Expr) Expr {
	return Compare{Op: OpIn, Left: a, Right: b}
}

// Eq builds the equality formula a = b.
func Eq(a, b Expr) Expr {
	return Compare{Op: OpEq, Left: a, Right: b}
}

// CardEq builds #e = n.
func CardEq(e Expr, n int) Expr {
	return Compare{Op: OpEq, Left: Card{Of: e}, Right: Int{Value: n}}
}

// CardGte builds #e >= n.
func CardGte(e Expr, n int) Expr {
	return Compare{Op: OpGte, Left: Card{Of: e}, Right: Int{Value: n}}
}

// No builds the emptiness formula no e.
func No(e Expr) Expr {
	return Mult{Of: e}
}

// ForAll quantifies body over every v in the named signature.
func ForAll(v Var, sig string, body Expr) Expr {
	return Quant{Quantifier: QuantAll, Var: v, Domain: Ref{Name: sig}, Body: body}
}

// NoneSatisfies builds no v: sig | body.
func NoneSatisfies(v Var, sig string, body Expr) Expr {
	return Quant{Quantifier: QuantNo, Var: v, Domain: Ref{Name: sig}, Body: body}
}

// Pred calls the named predicate.
func Pred(name string, args ...Expr) Expr {
	return Call{Pred: name, Args: args}
}

// Bijection builds bijectionFiltered[rel, a, b].
func Bijection(rel string, a, b Expr) Expr {
	return Pred(alloy.BijectionFiltered, Ref{Name: rel}, a, b)
}

// Function builds functionFiltered[rel, a, b].
func Function(rel string, a, b Expr) Expr {
	return Pred(alloy.FunctionFiltered, Ref{Name: rel}, a, b)
}

// InverseFunction builds inverseFunctionFiltered[rel, a, b].
func InverseFunction(rel string, a, b Expr) Expr {
	return Pred(alloy.InverseFunctionFiltered, Ref{Name: rel}, a, b)
}
