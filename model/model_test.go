package model

import (
	"testing"

	"github.com/clinacode/cql/types"
	"github.com/google/go-cmp/cmp"
)

func TestBinaryExpression(t *testing.T) {
	cases := []struct {
		name      string
		exp       *BinaryExpression
		wantLeft  IExpression
		wantRight IExpression
	}{
		{
			name: "Simple",
			exp: &BinaryExpression{
				Operands: []IExpression{
					&Literal{Value: "10"},
					&Literal{Value: "20"},
				},
			},
			wantLeft:  &Literal{Value: "10"},
			wantRight: &Literal{Value: "20"},
		},
		{
			name:      "Missing all operands",
			exp:       &BinaryExpression{},
			wantLeft:  nil,
			wantRight: nil,
		},
		{
			name: "Missing one operand",
			exp: &BinaryExpression{
				Operands: []IExpression{
					&Literal{Value: "10"},
				},
			},
			wantLeft:  &Literal{Value: "10"},
			wantRight: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if !cmp.Equal(tc.exp.Left(), tc.wantLeft) {
				t.Errorf("Left() = %v, want %v", tc.exp.Left(), tc.wantLeft)
			}
			if !cmp.Equal(tc.exp.Right(), tc.wantRight) {
				t.Errorf("Right() = %v, want %v", tc.exp.Right(), tc.wantRight)
			}
		})
	}
}

func TestNilTypeSpecifier(t *testing.T) {
	t.Run("Nil Expression", func(t *testing.T) {
		l := Literal{
			Expression: nil,
			Value:      "10",
		}
		if got := l.GetResultType(); got != types.Unset {
			t.Errorf("%v.GetResultType() = %v, want types.Unset", l, got)
		}
	})

	t.Run("Nil Element", func(t *testing.T) {
		l := Literal{
			Expression: &Expression{Element: nil},
			Value:      "10",
		}
		if got := l.GetResultType(); got != types.Unset {
			t.Errorf("%v.GetResultType() = %v, want types.Unset", l, got)
		}
	})
}

func TestElementSpan(t *testing.T) {
	e := &Element{Span: Pos{StartByte: 4, EndByte: 9, Line: 2, Col: 3}}
	if got := e.Row(); got != 2 {
		t.Errorf("Row() = %d, want 2", got)
	}
	if got := e.Col(); got != 3 {
		t.Errorf("Col() = %d, want 3", got)
	}
	if got := e.Pos().String(); got != "2:3" {
		t.Errorf("Pos().String() = %q, want %q", got, "2:3")
	}

	var nilElem *Element
	if got := nilElem.Row(); got != 0 {
		t.Errorf("nil.Row() = %d, want 0", got)
	}
	if got := nilElem.Col(); got != 0 {
		t.Errorf("nil.Col() = %d, want 0", got)
	}
}
