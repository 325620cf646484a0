package export

import (
	"strconv"
	"strings"

	"github.com/c360studio/obmalloy/expr"
)

// Render returns the Alloy text of an expression.
func Render(e expr.Expr) string {
	var sb strings.Builder
	render(&sb, e)
	return sb.String()
}

func render(sb *strings.Builder, e expr.Expr) {
	switch v := e.(type) {
	case expr.Var:
		sb.WriteString(v.Name)
	case expr.Ref:
		sb.WriteString(v.Name)
	case expr.Join:
		operand(sb, v.Left)
		sb.WriteString(".")
		operand(sb, v.Right)
	case expr.Union:
		for i, op := range v.Operands {
			if i > 0 {
				sb.WriteString(" + ")
			}
			render(sb, op)
		}
	case expr.Card:
		sb.WriteString("#")
		operand(sb, v.Of)
	case expr.Int:
		sb.WriteString(strconv.Itoa(v.Value))
	case expr.Compare:
		render(sb, v.Left)
		sb.WriteString(" ")
		sb.WriteString(compareOp(v.Op))
		sb.WriteString(" ")
		render(sb, v.Right)
	case expr.Mult:
		sb.WriteString("no ")
		render(sb, v.Of)
	case expr.Quant:
		sb.WriteString(quantifier(v.Quantifier))
		sb.WriteString(" ")
		sb.WriteString(v.Var.Name)
		sb.WriteString(": ")
		render(sb, v.Domain)
		sb.WriteString(" | ")
		render(sb, v.Body)
	case expr.Call:
		sb.WriteString(v.Pred)
		sb.WriteString("[")
		for i, arg := range v.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			render(sb, arg)
		}
		sb.WriteString("]")
	case expr.None:
		sb.WriteString("none")
	}
}

// operand renders e, parenthesized when it binds looser than join.
func operand(sb *strings.Builder, e expr.Expr) {
	switch e.(type) {
	case expr.Union, expr.Compare, expr.Quant, expr.Mult:
		sb.WriteString("(")
		render(sb, e)
		sb.WriteString(")")
	default:
		render(sb, e)
	}
}

func compareOp(op expr.CompareOp) string {
	switch op {
	case expr.OpGte:
		return ">="
	case expr.OpIn:
		return "in"
	default:
		return "="
	}
}

func quantifier(q expr.Quantifier) string {
	switch q {
	case expr.QuantNo:
		return "no"
	default:
		return "all"
	}
}
