// Kappa
// Copyright (C) the kappa project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package funcs

import (
	"fmt"

	"github.com/kappa-lang/kappa/ast"
	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/types"
)

// arithType is (int, int) -> int, written as what it is: a function returning
// a type. The operator names are ordinary words in this language, so these
// bindings are resolved through the scope like any variable; the parser only
// contributes the precedence.
func arithType() interfaces.Expr {
	return &ast.ExprFuncDefine{
		ArgName: "operands",
		ArgType: &ast.ExprTuple{Parts: []interfaces.Expr{exprInt, exprInt}},
		Body:    exprInt,
	}
}

func arith(name string, fn func(a, b int64) (int64, error)) *types.NativeFuncValue {
	return &types.NativeFuncValue{
		Name: name,
		Fn: func(arg types.Value) (types.Value, error) {
			tv, ok := arg.(*types.TupleValue)
			if !ok || len(tv.V) != 2 {
				return nil, fmt.Errorf("%s wants a pair, got %s", name, arg)
			}
			a, ok := tv.V[0].(*types.IntValue)
			if !ok {
				return nil, fmt.Errorf("%s wants ints, got %s", name, tv.V[0])
			}
			b, ok := tv.V[1].(*types.IntValue)
			if !ok {
				return nil, fmt.Errorf("%s wants ints, got %s", name, tv.V[1])
			}
			v, err := fn(a.V, b.V)
			if err != nil {
				return nil, err
			}
			return &types.IntValue{V: v}, nil
		},
	}
}

func init() {
	Register(&Binding{
		Name:  "+",
		Type:  arithType(),
		Value: arith("+", func(a, b int64) (int64, error) { return a + b, nil }),
	})
	Register(&Binding{
		Name:  "-",
		Type:  arithType(),
		Value: arith("-", func(a, b int64) (int64, error) { return a - b, nil }),
	})
	Register(&Binding{
		Name:  "*",
		Type:  arithType(),
		Value: arith("*", func(a, b int64) (int64, error) { return a * b, nil }),
	})
	Register(&Binding{
		Name: "/",
		Type: arithType(),
		Value: arith("/", func(a, b int64) (int64, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return a / b, nil
		}),
	})
}
