package model

import (
	"github.com/clinacode/cql/types"
)

// NewLiteral builds a Literal of type t from its source text.
func NewLiteral(value string, t types.IType) *Literal {
	return &Literal{Value: value, Expression: ResultType(t)}
}

// NewInclusiveInterval builds an Interval[low, high] of point type t with both bounds inclusive.
func NewInclusiveInterval(low, high string, t types.IType) *Interval {
	return &Interval{
		Low:           NewLiteral(low, t),
		High:          NewLiteral(high, t),
		LowInclusive:  true,
		HighInclusive: true,
		Expression:    ResultType(&types.Interval{PointType: t}),
	}
}

// NewList builds a List of literals of type t from elems.
func NewList(elems []string, t types.IType) *List {
	l := &List{
		List:       []IExpression{},
		Expression: ResultType(&types.List{ElementType: t}),
	}
	for _, elem := range elems {
		l.List = append(l.List, NewLiteral(elem, t))
	}
	return l
}

// ResultType builds an Expression base carrying only a resolved result type, for synthesized
// nodes (implicit conversions, builder helpers) that have no real source span.
func ResultType(t types.IType) *Expression {
	return &Expression{
		Element: &Element{ResultType: t},
	}
}
