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
	"github.com/kappa-lang/kappa/types"
)

func init() {
	// maybe(t) is the two-form variant type: just carrying a t, or
	// nothing. It is an ordinary function from types to types.
	Register(&Binding{
		Name: "maybe",
		Type: &ast.ExprFuncDefine{
			ArgName: "t",
			ArgType: ast.ExprUniversal,
			Body:    ast.ExprUniversal,
		},
		Value: &types.NativeFuncValue{
			Name: "maybe",
			Fn: func(arg types.Value) (types.Value, error) {
				if err := arg.AsType(); err != nil {
					return nil, fmt.Errorf("maybe wants a type: %s", err)
				}
				return &types.VariantTypeValue{
					Forms: []types.VariantForm{
						{Name: "just", Payload: arg},
						{Name: "nothing"},
					},
				}, nil
			},
		},
	})
}
