// Package expr provides the expression trees facts are built from.
//
// Expr is a closed set of node types discriminated by Kind. Consumers
// switch on the concrete type; the unexported marker method keeps other
// packages from adding variants.
package expr

// Kind identifies an expression node type.
type Kind int

const (
	KindVar Kind = iota
	KindRef
	KindJoin
	KindUnion
	KindCard
	KindInt
	KindCompare
	KindMult
	KindQuant
	KindCall
	KindNone
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindVar:
		return "var"
	case KindRef:
		return "ref"
	case KindJoin:
		return "join"
	case KindUnion:
		return "union"
	case KindCard:
		return "card"
	case KindInt:
		return "int"
	case KindCompare:
		return "compare"
	case KindMult:
		return "mult"
	case KindQuant:
		return "quant"
	case KindCall:
		return "call"
	case KindNone:
		return "none"
	default:
		return "unknown"
	}
}

// Expr is an expression node.
type Expr interface {
	Kind() Kind
	node()
}

// Var is a quantified variable.
type Var struct {
	Name string
}

// Ref names a signature, field or relation.
type Ref struct {
	Name string
}

// Join is relational join (left.right).
type Join struct {
	Left  Expr
	Right Expr
}

// Union is n-ary set union (a + b + c).
type Union struct {
	Operands []Expr
}

// Card is set cardinality (#of).
type Card struct {
	Of Expr
}

// Int is an integer literal.
type Int struct {
	Value int
}

// CompareOp is a comparison operator.
type CompareOp int

const (
	// OpEq is equality (=).
	OpEq CompareOp = iota
	// OpGte is greater-or-equal (>=).
	OpGte
	// OpIn is subset (in).
	OpIn
)

// Compare is a binary comparison.
type Compare struct {
	Op    CompareOp
	Left  Expr
	Right Expr
}

// Mult is the emptiness formula (no e).
type Mult struct {
	Of Expr
}

// Quantifier is a quantifier keyword.
type Quantifier int

const (
	// QuantAll is universal quantification.
	QuantAll Quantifier = iota
	// QuantNo holds when no binding satisfies the body.
	QuantNo
)

// Quant is a quantified formula over Var ranging over Domain.
type Quant struct {
	Quantifier Quantifier
	Var        Var
	Domain     Expr
	Body       Expr
}

// Call is a predicate call (pred[args]).
type Call struct {
	Pred string
	Args []Expr
}

// None is the empty set.
type None struct{}

func (Var) Kind() Kind     { return KindVar }
func (Ref) Kind() Kind     { return KindRef }
func (Join) Kind() Kind    { return KindJoin }
func (Union) Kind() Kind   { return KindUnion }
func (Card) Kind() Kind    { return KindCard }
func (Int) Kind() Kind     { return KindInt }
func (Compare) Kind() Kind { return KindCompare }
func (Mult) Kind() Kind    { return KindMult }
func (Quant) Kind() Kind   { return KindQuant }
func (Call) Kind() Kind    { return KindCall }
func (None) Kind() Kind    { return KindNone }

func (Var) node()     {}
func (Ref) node()     {}
func (Join) node()    {}
func (Union) node()   {}
func (Card) node()    {}
func (Int) node()     {}
func (Compare) node() {}
func (Mult) node()    {}
func (Quant) node()   {}
func (Call) node()    {}
func (None) node()    {}

// Equal reports whether two expressions are structurally identical.
func Equal(a, b Expr) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch x := a.(type) {
	case Var:
		return x.Name == b.(Var).Name
	case Ref:
		return x.Name == b.(Ref).Name
	case Join:
		y := b.(Join)
		return Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case Union:
		return equalAll(x.Operands, b.(Union).Operands)
	case Card:
		return Equal(x.Of, b.(Card).Of)
	case Int:
		return x.Value == b.(Int).Value
	case Compare:
		y := b.(Compare)
		return x.Op == y.Op && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	case Mult:
		return Equal(x.Of, b.(Mult).Of)
	case Quant:
		y := b.(Quant)
		return x.Quantifier == y.Quantifier && x.Var == y.Var &&
			Equal(x.Domain, y.Domain) && Equal(x.Body, y.Body)
	case Call:
		y := b.(Call)
		return x.Pred == y.Pred && equalAll(x.Args, y.Args)
	case None:
		return true
	default:
		return false
	}
}

func equalAll(a, b []Expr) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
