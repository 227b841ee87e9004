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

package interfaces

import (
	"github.com/kappa-lang/kappa/stack"
)

// ProcedureMap tracks, during the checking of a procedure body, which slots
// have been reassigned and which expression each assignment wrote. It is a
// persistent chain like the stack itself: extending it for one statement does
// not disturb the view an enclosing block holds, so the facts recorded inside
// a nested block are dropped simply by the block's checker not handing its
// map back up. The nil map is the empty map.
type ProcedureMap struct {
	parent *ProcedureMap
	index  int
	expr   Expr
}

// Extend records the fact that the slot at the given index was assigned the
// given checked expression. Newer facts shadow older facts for the same slot.
func (obj *ProcedureMap) Extend(index int, expr Expr) *ProcedureMap {
	return &ProcedureMap{
		parent: obj,
		index:  index,
		expr:   expr,
	}
}

// Lookup returns the newest expression recorded for the given slot.
func (obj *ProcedureMap) Lookup(index int) (Expr, bool) {
	for cur := obj; cur != nil; cur = cur.parent {
		if cur.index == index {
			return cur.expr, true
		}
	}
	return nil, false
}

// Apply overlays every recorded fact onto the given symbolic value stack, so
// that expressions checked after an assignment see the assigned value instead
// of the one the slot was defined with. Older facts are applied first, which
// leaves the newest fact for each slot on top.
func (obj *ProcedureMap) Apply(vals *stack.Stack[Expr]) *stack.Stack[Expr] {
	if obj == nil {
		return vals
	}
	out := obj.parent.Apply(vals)
	return out.AppendAt(obj.index, []Expr{obj.expr})
}
