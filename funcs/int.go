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
	"github.com/kappa-lang/kappa/ast"
	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/types"
)

// IntType is the bootstrap integer type.
var IntType = &types.BasicTypeValue{Name: "int"}

// exprInt is the integer type as a closed type expression, shared wherever a
// binding's type mentions int.
var exprInt = &ast.ExprValue{V: IntType}

// IntLiteral is the literal rule of the default environment: a surface
// integer literal denotes an IntValue of type int.
func IntLiteral(v int64) (types.Value, interfaces.Expr, error) {
	return &types.IntValue{V: v}, exprInt, nil
}

func init() {
	Register(&Binding{
		Name:  "int",
		Type:  ast.ExprUniversal,
		Value: IntType,
	})
}
