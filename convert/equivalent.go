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

// Package convert decides whether two type expressions denote the same type,
// and manufactures conversion functions between types that are different but
// compatible. The ast package does not import it; the interpreter hands both
// engines to the nodes through the shared Data struct, which keeps the
// checker ignorant of how types are actually compared.
package convert

import (
	"github.com/kappa-lang/kappa/ast"
	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/stack"
	"github.com/kappa-lang/kappa/types"
)

// derefBudget caps how many variable dereferences one equivalence query may
// chase. Placeholder variables bind to themselves, and assignment facts can
// point at further variables; the budget makes any cycle terminate with
// Undetermined instead of spinning.
const derefBudget = 32

// Equivalent decides three-valued equivalence of two type expressions,
// dereferencing variables through the given symbolic value stack. True and
// False are proofs; Undetermined means the expressions are too symbolic to
// decide, and the caller picks a policy (the checker treats it as not
// proven).
func Equivalent(a, b interfaces.Expr, vals *stack.Stack[interfaces.Expr]) (interfaces.Fuzzy, error) {
	return equivalent(a, b, vals, derefBudget)
}

// deref replaces a resolved variable by its symbolic value, if the stack has
// one and it is not the variable itself. The bool reports progress.
func deref(v *ast.ExprVar, vals *stack.Stack[interfaces.Expr]) (interfaces.Expr, bool, error) {
	index, depth := v.Offset()
	e, crossed, ok := vals.Lookup(index, depth)
	if !ok {
		return v, false, nil
	}
	out, err := ast.Shift(e, crossed)
	if err != nil {
		return nil, false, err
	}
	if o, ok := out.(*ast.ExprVar); ok {
		oi, od := o.Offset()
		if oi == index && od == depth {
			return v, false, nil // a placeholder naming itself
		}
	}
	return out, true, nil
}

func equivalent(a, b interfaces.Expr, vals *stack.Stack[interfaces.Expr], budget int) (interfaces.Fuzzy, error) {
	if budget <= 0 {
		return interfaces.FuzzyUndetermined, nil
	}

	// Chase variables through the value stack first; a variable whose slot
	// holds a concrete expression is equivalent to whatever that is.
	if av, ok := a.(*ast.ExprVar); ok {
		out, progressed, err := deref(av, vals)
		if err != nil {
			return interfaces.FuzzyFalse, err
		}
		if progressed {
			return equivalent(out, b, vals, budget-1)
		}
	}
	if bv, ok := b.(*ast.ExprVar); ok {
		out, progressed, err := deref(bv, vals)
		if err != nil {
			return interfaces.FuzzyFalse, err
		}
		if progressed {
			return equivalent(a, out, vals, budget-1)
		}
	}

	// A closed tuple value and a tuple expression compare component-wise.
	a = unfoldTuple(a)
	b = unfoldTuple(b)

	switch x := a.(type) {
	case *ast.ExprVar:
		y, ok := b.(*ast.ExprVar)
		if !ok {
			return interfaces.FuzzyUndetermined, nil
		}
		xi, xd := x.Offset()
		yi, yd := y.Offset()
		if xi == yi && xd == yd {
			return interfaces.FuzzyTrue, nil
		}
		// different slots may still hold equal values at runtime
		return interfaces.FuzzyUndetermined, nil

	case *ast.ExprValue:
		y, ok := b.(*ast.ExprValue)
		if !ok {
			return interfaces.FuzzyUndetermined, nil
		}
		if err := x.V.Cmp(y.V); err != nil {
			// both sides are closed, so inequality is a proof
			return interfaces.FuzzyFalse, nil
		}
		return interfaces.FuzzyTrue, nil

	case *ast.ExprTuple:
		y, ok := b.(*ast.ExprTuple)
		if !ok {
			return interfaces.FuzzyUndetermined, nil
		}
		if len(x.Parts) != len(y.Parts) {
			return interfaces.FuzzyFalse, nil
		}
		out := interfaces.FuzzyTrue
		for i := range x.Parts {
			eq, err := equivalent(x.Parts[i], y.Parts[i], vals, budget-1)
			if err != nil {
				return interfaces.FuzzyFalse, err
			}
			out = out.And(eq)
			if out == interfaces.FuzzyFalse {
				return out, nil
			}
		}
		return out, nil

	case *ast.ExprFuncDefine:
		y, ok := b.(*ast.ExprFuncDefine)
		if !ok {
			return interfaces.FuzzyUndetermined, nil
		}
		argEq, err := equivalent(x.ArgType, y.ArgType, vals, budget-1)
		if err != nil {
			return interfaces.FuzzyFalse, err
		}
		if argEq == interfaces.FuzzyFalse {
			return interfaces.FuzzyFalse, nil
		}
		// the bodies live one functional depth deeper
		bodyEq, err := equivalent(x.Body, y.Body, vals.AppendDeeper(nil), budget-1)
		if err != nil {
			return interfaces.FuzzyFalse, err
		}
		return argEq.And(bodyEq), nil

	case *ast.ExprCall:
		y, ok := b.(*ast.ExprCall)
		if !ok {
			return interfaces.FuzzyUndetermined, nil
		}
		fnEq, err := equivalent(x.Fn, y.Fn, vals, budget-1)
		if err != nil {
			return interfaces.FuzzyFalse, err
		}
		argEq, err := equivalent(x.Arg, y.Arg, vals, budget-1)
		if err != nil {
			return interfaces.FuzzyFalse, err
		}
		// equal functions on equal arguments agree; different calls may
		// still collide, so there is no False here
		if fnEq == interfaces.FuzzyTrue && argEq == interfaces.FuzzyTrue {
			return interfaces.FuzzyTrue, nil
		}
		return interfaces.FuzzyUndetermined, nil
	}

	return interfaces.FuzzyUndetermined, nil
}

// unfoldTuple opens a closed tuple value into a tuple expression of closed
// component values, so that the two tuple representations compare against
// each other.
func unfoldTuple(e interfaces.Expr) interfaces.Expr {
	v, ok := e.(*ast.ExprValue)
	if !ok {
		return e
	}
	tv, ok := v.V.(*types.TupleValue)
	if !ok {
		return e
	}
	parts := make([]interfaces.Expr, len(tv.V))
	for i, p := range tv.V {
		parts[i] = &ast.ExprValue{V: p}
	}
	return &ast.ExprTuple{Parts: parts}
}

// ensure the signature fits the Data hook
var _ func(interfaces.Expr, interfaces.Expr, *stack.Stack[interfaces.Expr]) (interfaces.Fuzzy, error) = Equivalent
