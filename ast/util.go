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

package ast

import (
	"fmt"
	"math"

	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/stack"
	"github.com/kappa-lang/kappa/types"
	"github.com/kappa-lang/kappa/util"
	"github.com/kappa-lang/kappa/util/errwrap"
)

const (
	// ErrCompress is the cause of a Compress failure when one of the slots
	// being removed is still referenced. Reduce uses it to tell "the break
	// cannot be elided" apart from real errors.
	ErrCompress = util.Error("compressed slot is referenced")

	// errNotFunc reports that a type expression could not be forced into a
	// function definition shape.
	errNotFunc = util.Error("type is not a function")

	// errNotTuple reports that a type expression could not be forced into
	// a tuple shape.
	errNotTuple = util.Error("type is not a tuple")

	// substBudget caps the substitution passes of closeExpr. Placeholder
	// slots holding their own variable reach a fixpoint on their own; the
	// cap is for mutually referencing slots, which alternate forever.
	substBudget = 32
)

// closeExpr substitutes an expression over the stack repeatedly until it
// stops changing. Substitution is not transitive: a replacement fetched from
// a slot may itself reference further slots, so a single pass can leave
// resolvable variables free.
func closeExpr(expr interfaces.Expr, exprs *stack.Stack[interfaces.Expr]) (interfaces.Expr, error) {
	prev := expr.String()
	for i := 0; i < substBudget; i++ {
		out, err := expr.Substitute(exprs)
		if err != nil {
			return nil, err
		}
		next := out.String()
		if next == prev {
			return out, nil
		}
		expr, prev = out, next
	}
	return expr, nil
}

// Shift returns a copy of the expression with the functional depth of every
// free variable changed by delta. A variable is free if it refers past the
// expression's own binders; variables bound inside (by a function definition,
// a tuple break or a procedure's local slots) are left alone. Substituting an
// expression across function boundaries needs this, as does un-nesting the
// result of a beta expansion.
func Shift(expr interfaces.Expr, delta int) (interfaces.Expr, error) {
	if delta == 0 {
		return expr, nil
	}
	obj := &shifter{delta: delta}
	return obj.expr(expr, 0, math.MaxInt)
}

// shifter walks an expression adjusting free variable depths. The binders
// argument counts the function boundaries crossed on the way down. The floor
// argument is the smallest slot index at the expression's own depth level
// that a binder inside the expression has claimed; slot counters only grow,
// so a same-level variable below the floor must refer outside.
type shifter struct {
	delta int
}

func (obj *shifter) ref(index, depth, binders, floor int) (int, error) {
	if depth < binders {
		return depth, nil // bound inside a crossed function body
	}
	if depth == binders && index >= floor {
		return depth, nil // bound by a same-level binder inside
	}
	out := depth + obj.delta
	if out < binders {
		return 0, fmt.Errorf("depth shift of %d underflows variable at depth %d", obj.delta, depth)
	}
	return out, nil
}

func (obj *shifter) expr(expr interfaces.Expr, binders, floor int) (interfaces.Expr, error) {
	switch node := expr.(type) {
	case *ExprValue:
		return node, nil // closed

	case *ExprInt:
		return node, nil

	case *ExprVar:
		depth, err := obj.ref(node.index, node.depth, binders, floor)
		if err != nil {
			return nil, err
		}
		if depth == node.depth {
			return node, nil
		}
		return &ExprVar{data: node.data, Name: node.Name, index: node.index, depth: depth}, nil

	case *ExprCall:
		fn, err := obj.expr(node.Fn, binders, floor)
		if err != nil {
			return nil, err
		}
		arg, err := obj.expr(node.Arg, binders, floor)
		if err != nil {
			return nil, err
		}
		return &ExprCall{data: node.data, Fn: fn, Arg: arg}, nil

	case *ExprFuncDefine:
		argType, err := obj.expr(node.ArgType, binders, floor)
		if err != nil {
			return nil, err
		}
		body, err := obj.expr(node.Body, binders+1, floor)
		if err != nil {
			return nil, err
		}
		return &ExprFuncDefine{data: node.data, ArgName: node.ArgName, ArgType: argType, Body: body}, nil

	case *ExprTuple:
		parts := make([]interfaces.Expr, len(node.Parts))
		for i, p := range node.Parts {
			out, err := obj.expr(p, binders, floor)
			if err != nil {
				return nil, err
			}
			parts[i] = out
		}
		return &ExprTuple{data: node.data, Parts: parts}, nil

	case *ExprTupleBreak:
		source, err := obj.expr(node.Source, binders, floor)
		if err != nil {
			return nil, err
		}
		inner := floor
		if binders == 0 && node.start < inner {
			inner = node.start
		}
		body, err := obj.expr(node.Body, binders, inner)
		if err != nil {
			return nil, err
		}
		return &ExprTupleBreak{data: node.data, Source: source, Names: node.Names, Body: body, start: node.start}, nil

	case *ExprAccessor:
		out, err := obj.expr(node.Expr, binders, floor)
		if err != nil {
			return nil, err
		}
		return &ExprAccessor{data: node.data, Expr: out, Field: node.Field}, nil

	case *ExprProc:
		clones := make([]clone, len(node.clones))
		for i, c := range node.clones {
			depth, err := obj.ref(c.index, c.depth, binders, floor)
			if err != nil {
				return nil, err
			}
			clones[i] = clone{name: c.name, index: c.index, depth: depth, slot: c.slot}
		}
		inner := floor
		if binders == 0 && node.start < inner {
			inner = node.start
		}
		body, err := obj.stmt(node.Body, binders, inner)
		if err != nil {
			return nil, err
		}
		return &ExprProc{data: node.data, Body: body, clones: clones, start: node.start}, nil
	}
	return nil, fmt.Errorf("cannot shift node: %+v", expr)
}

func (obj *shifter) stmt(stmt interfaces.Stmt, binders, floor int) (interfaces.Stmt, error) {
	switch node := stmt.(type) {
	case *StmtCompound:
		stmts := make([]interfaces.Stmt, len(node.Stmts))
		for i, s := range node.Stmts {
			out, err := obj.stmt(s, binders, floor)
			if err != nil {
				return nil, err
			}
			stmts[i] = out
		}
		return &StmtCompound{data: node.data, Stmts: stmts}, nil

	case *StmtDefine:
		var typExpr interfaces.Expr
		if node.TypeExpr != nil {
			out, err := obj.expr(node.TypeExpr, binders, floor)
			if err != nil {
				return nil, err
			}
			typExpr = out
		}
		value, err := obj.expr(node.Value, binders, floor)
		if err != nil {
			return nil, err
		}
		return &StmtDefine{data: node.data, TypeExpr: typExpr, Name: node.Name, Value: value, slot: node.slot}, nil

	case *StmtAssign:
		value, err := obj.expr(node.Value, binders, floor)
		if err != nil {
			return nil, err
		}
		return &StmtAssign{data: node.data, Name: node.Name, Value: value, index: node.index}, nil

	case *StmtReturn:
		value, err := obj.expr(node.Value, binders, floor)
		if err != nil {
			return nil, err
		}
		return &StmtReturn{data: node.data, Value: value}, nil
	}
	return nil, fmt.Errorf("cannot shift statement: %+v", stmt)
}

// Compress removes the slot index range [from, from+count) at the
// expression's own depth level, sliding every higher index down by count. It
// fails with an ErrCompress cause if any removed slot is still referenced.
// This is the proof step behind tuple break elision: if the body compresses,
// it never read the broken components.
func Compress(expr interfaces.Expr, from, count int) (interfaces.Expr, error) {
	if count == 0 {
		return expr, nil
	}
	obj := &compressor{from: from, count: count}
	return obj.expr(expr, 0)
}

// compressor walks an expression removing a slot range at its root depth
// level. Same-level binders inside always sit above the removed range, since
// the counter that numbered them had already passed it, so their own starts
// slide down together with the variables they bind.
type compressor struct {
	from  int
	count int
}

func (obj *compressor) index(index, depth, binders int) (int, error) {
	if depth != binders {
		return index, nil // different level, untouched
	}
	if index >= obj.from+obj.count {
		return index - obj.count, nil
	}
	if index >= obj.from {
		return 0, errwrap.Wrapf(ErrCompress, "slot %d", index)
	}
	return index, nil
}

func (obj *compressor) expr(expr interfaces.Expr, binders int) (interfaces.Expr, error) {
	switch node := expr.(type) {
	case *ExprValue:
		return node, nil

	case *ExprInt:
		return node, nil

	case *ExprVar:
		index, err := obj.index(node.index, node.depth, binders)
		if err != nil {
			return nil, err
		}
		if index == node.index {
			return node, nil
		}
		return &ExprVar{data: node.data, Name: node.Name, index: index, depth: node.depth}, nil

	case *ExprCall:
		fn, err := obj.expr(node.Fn, binders)
		if err != nil {
			return nil, err
		}
		arg, err := obj.expr(node.Arg, binders)
		if err != nil {
			return nil, err
		}
		return &ExprCall{data: node.data, Fn: fn, Arg: arg}, nil

	case *ExprFuncDefine:
		argType, err := obj.expr(node.ArgType, binders)
		if err != nil {
			return nil, err
		}
		body, err := obj.expr(node.Body, binders+1)
		if err != nil {
			return nil, err
		}
		return &ExprFuncDefine{data: node.data, ArgName: node.ArgName, ArgType: argType, Body: body}, nil

	case *ExprTuple:
		parts := make([]interfaces.Expr, len(node.Parts))
		for i, p := range node.Parts {
			out, err := obj.expr(p, binders)
			if err != nil {
				return nil, err
			}
			parts[i] = out
		}
		return &ExprTuple{data: node.data, Parts: parts}, nil

	case *ExprTupleBreak:
		source, err := obj.expr(node.Source, binders)
		if err != nil {
			return nil, err
		}
		start := node.start
		if binders == 0 {
			out, err := obj.index(start, 0, 0)
			if err != nil {
				return nil, err
			}
			start = out
		}
		body, err := obj.expr(node.Body, binders)
		if err != nil {
			return nil, err
		}
		return &ExprTupleBreak{data: node.data, Source: source, Names: node.Names, Body: body, start: start}, nil

	case *ExprAccessor:
		out, err := obj.expr(node.Expr, binders)
		if err != nil {
			return nil, err
		}
		return &ExprAccessor{data: node.data, Expr: out, Field: node.Field}, nil

	case *ExprProc:
		clones := make([]clone, len(node.clones))
		for i, c := range node.clones {
			index, err := obj.index(c.index, c.depth, binders)
			if err != nil {
				return nil, err
			}
			slot := c.slot
			if binders == 0 {
				out, err := obj.index(slot, 0, 0)
				if err != nil {
					return nil, err
				}
				slot = out
			}
			clones[i] = clone{name: c.name, index: index, depth: c.depth, slot: slot}
		}
		start := node.start
		if binders == 0 {
			out, err := obj.index(start, 0, 0)
			if err != nil {
				return nil, err
			}
			start = out
		}
		body, err := obj.stmt(node.Body, binders)
		if err != nil {
			return nil, err
		}
		return &ExprProc{data: node.data, Body: body, clones: clones, start: start}, nil
	}
	return nil, fmt.Errorf("cannot compress node: %+v", expr)
}

func (obj *compressor) stmt(stmt interfaces.Stmt, binders int) (interfaces.Stmt, error) {
	switch node := stmt.(type) {
	case *StmtCompound:
		stmts := make([]interfaces.Stmt, len(node.Stmts))
		for i, s := range node.Stmts {
			out, err := obj.stmt(s, binders)
			if err != nil {
				return nil, err
			}
			stmts[i] = out
		}
		return &StmtCompound{data: node.data, Stmts: stmts}, nil

	case *StmtDefine:
		var typExpr interfaces.Expr
		if node.TypeExpr != nil {
			out, err := obj.expr(node.TypeExpr, binders)
			if err != nil {
				return nil, err
			}
			typExpr = out
		}
		value, err := obj.expr(node.Value, binders)
		if err != nil {
			return nil, err
		}
		slot := node.slot
		if binders == 0 {
			out, err := obj.index(slot, 0, 0)
			if err != nil {
				return nil, err
			}
			slot = out
		}
		return &StmtDefine{data: node.data, TypeExpr: typExpr, Name: node.Name, Value: value, slot: slot}, nil

	case *StmtAssign:
		value, err := obj.expr(node.Value, binders)
		if err != nil {
			return nil, err
		}
		index := node.index
		if binders == 0 {
			out, err := obj.index(index, 0, 0)
			if err != nil {
				return nil, err
			}
			index = out
		}
		return &StmtAssign{data: node.data, Name: node.Name, Value: value, index: index}, nil

	case *StmtReturn:
		value, err := obj.expr(node.Value, binders)
		if err != nil {
			return nil, err
		}
		return &StmtReturn{data: node.data, Value: value}, nil
	}
	return nil, fmt.Errorf("cannot compress statement: %+v", stmt)
}

// betaExpand splices the argument into the body of a function definition: the
// argument is shifted one depth down to cross the definition's boundary,
// substituted in as slot zero, and the resulting body is shifted back up. It
// is used both by Reduce on literal calls and by Check to compute the
// dependent result type of a call.
func betaExpand(def *ExprFuncDefine, arg interfaces.Expr) (interfaces.Expr, error) {
	up, err := Shift(arg, 1)
	if err != nil {
		return nil, err
	}
	var empty *stack.Stack[interfaces.Expr]
	sub := empty.AppendDeeper([]interfaces.Expr{up})
	body, err := def.Body.Substitute(sub)
	if err != nil {
		return nil, err
	}
	return Shift(body, -1)
}

// valueToExpr lifts a runtime value back into a closed expression.
func valueToExpr(v types.Value) interfaces.Expr {
	return &ExprValue{V: v}
}

// forceFuncType normalizes a type expression into a function definition
// shape, so that a call can read its argument type off it and beta expand its
// body. Closure values that wrap a definition are reopened by substituting
// their captured stack back in. An errNotFunc cause means the type just is
// not a function type; anything else is a real failure.
func forceFuncType(typ interfaces.Expr, vals *stack.Stack[interfaces.Expr], next int) (*ExprFuncDefine, error) {
	sub, err := closeExpr(typ, vals)
	if err != nil {
		return nil, err
	}
	red, err := sub.Reduce(next)
	if err != nil {
		return nil, err
	}
	for {
		switch node := red.(type) {
		case *ExprFuncDefine:
			return node, nil

		case *ExprValue:
			switch v := node.V.(type) {
			case *types.ClosureFuncValue:
				fd, ok := v.Def.(*ExprFuncDefine)
				if !ok {
					return nil, errwrap.Wrapf(errNotFunc, "opaque closure")
				}
				base := stack.Map(v.Base, valueToExpr)
				argType, err := fd.ArgType.Substitute(base)
				if err != nil {
					return nil, err
				}
				body, err := fd.Body.Substitute(base.AppendDeeper(nil))
				if err != nil {
					return nil, err
				}
				return &ExprFuncDefine{data: fd.data, ArgName: fd.ArgName, ArgType: argType, Body: body}, nil

			case *types.DeferredValue:
				forced, err := v.Force()
				if err != nil {
					return nil, err
				}
				red = &ExprValue{data: node.data, V: forced, T: node.T}
				continue

			default:
				return nil, errwrap.Wrapf(errNotFunc, "%s", node.V)
			}

		default:
			return nil, errwrap.Wrapf(errNotFunc, "%s", red)
		}
	}
}

// forceTupleType normalizes a type expression into a tuple of component type
// expressions. An errNotTuple cause means the type is not a tuple type.
func forceTupleType(typ interfaces.Expr, vals *stack.Stack[interfaces.Expr], next int) (*ExprTuple, error) {
	sub, err := closeExpr(typ, vals)
	if err != nil {
		return nil, err
	}
	red, err := sub.Reduce(next)
	if err != nil {
		return nil, err
	}
	switch node := red.(type) {
	case *ExprTuple:
		return node, nil

	case *ExprValue:
		if tv, ok := node.V.(*types.TupleValue); ok {
			parts := make([]interfaces.Expr, len(tv.V))
			for i, v := range tv.V {
				parts[i] = &ExprValue{data: node.data, V: v}
			}
			return &ExprTuple{data: node.data, Parts: parts}, nil
		}
		return nil, errwrap.Wrapf(errNotTuple, "%s", node.V)
	}
	return nil, errwrap.Wrapf(errNotTuple, "%s", red)
}

// typeValue closes a type expression over the symbolic value stack and
// evaluates it into an actual type value. It errors if the expression stays
// open or the result cannot stand in type position; conversions are only ever
// derived between closed types.
func typeValue(typ interfaces.Expr, vals *stack.Stack[interfaces.Expr]) (types.Value, error) {
	sub, err := closeExpr(typ, vals)
	if err != nil {
		return nil, err
	}
	v, err := sub.Evaluate(nil)
	if err != nil {
		return nil, errwrap.Wrapf(err, "type expression is not closed")
	}
	if err := v.AsType(); err != nil {
		return nil, err
	}
	return v, nil
}

// convertArg enforces that the expression of type actual may flow into a
// position of type expected. Proven equivalence passes it through untouched;
// otherwise a conversion between the two evaluated types is looked up and, if
// it is not the identity, inserted as a call around the expression. If no
// conversion exists either, this is a type mismatch.
func convertArg(data *interfaces.Data, node fmt.Stringer, arg, actual, expected interfaces.Expr, vals *stack.Stack[interfaces.Expr]) (interfaces.Expr, error) {
	eq, err := data.Equivalent(actual, expected, vals)
	if err != nil {
		return nil, err
	}
	if eq == interfaces.FuzzyTrue {
		return arg, nil
	}

	// not proven; a conversion is the last chance
	mismatch := &interfaces.TypeMismatchError{Expr: node, Expected: expected, Actual: actual}
	from, err := typeValue(actual, vals)
	if err != nil {
		return nil, mismatch
	}
	to, err := typeValue(expected, vals)
	if err != nil {
		return nil, mismatch
	}
	conv, err := data.Convert.Conversion(from, to)
	if err != nil {
		if errwrap.Cause(err) == interfaces.ErrNoConversion {
			return nil, mismatch
		}
		return nil, err
	}
	if conv == nil { // identity, nothing to insert
		return arg, nil
	}

	fnType := &ExprFuncDefine{
		data:    data,
		ArgName: "value",
		ArgType: &ExprValue{data: data, V: from},
		Body:    &ExprValue{data: data, V: to},
	}
	fn := &ExprValue{data: data, V: conv, T: fnType}
	return &ExprCall{data: data, Fn: fn, Arg: arg}, nil
}

// variantConstructor builds the constructor function for one form of a
// variant type. Forms without a payload take the empty tuple, so that every
// constructor stays a one-argument function.
func variantConstructor(vt *types.VariantTypeValue, form int) *types.NativeFuncValue {
	f := vt.Forms[form]
	if f.Payload == nil {
		return &types.NativeFuncValue{
			Name: f.Name,
			Fn: func(arg types.Value) (types.Value, error) {
				if tv, ok := arg.(*types.TupleValue); !ok || len(tv.V) != 0 {
					return nil, fmt.Errorf("form %s carries no payload", f.Name)
				}
				return &types.VariantValue{Form: form}, nil
			},
		}
	}
	return &types.NativeFuncValue{
		Name: f.Name,
		Fn: func(arg types.Value) (types.Value, error) {
			return &types.VariantValue{Form: form, Payload: arg}, nil
		},
	}
}
