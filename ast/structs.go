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

// Package ast contains the structs implementing the expression and statement
// interfaces. One expression representation serves as program, type and
// value: a function type is a function whose body evaluates to a type, and
// the type of an expression is itself an expression. Each node implements
// evaluation, substitution, checking and reduction; the checking pass rebuilds
// the tree, so a checked expression is a different tree from the parsed one.
package ast

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/stack"
	"github.com/kappa-lang/kappa/types"
	"github.com/kappa-lang/kappa/util/errwrap"
)

// ExprValue is a closed value paired with its type as an expression. The
// parser never produces one; they enter the tree from the environment's
// bindings, from literal resolution, and from the checker inserting
// conversions and constructors.
type ExprValue struct {
	data *interfaces.Data

	// V is the value.
	V types.Value

	// T is the value's type as an expression. Nil means the universal
	// type.
	T interfaces.Expr
}

// ExprUniversal is the canonical literal for the universal type. It is its
// own type.
var ExprUniversal = &ExprValue{V: types.Universal}

func init() {
	ExprUniversal.T = ExprUniversal
}

// String returns a short representation of this expression.
func (obj *ExprValue) String() string { return obj.V.String() }

// Apply is a general purpose iterator method that operates on any expression.
// It does not recurse into the attached type, which may refer to this very
// node.
func (obj *ExprValue) Apply(fn func(interfaces.Node) error) error { return fn(obj) }

// Init initializes this branch of the AST.
func (obj *ExprValue) Init(data *interfaces.Data) error {
	obj.data = data
	return nil
}

// SetScope does nothing for this node, the value is closed.
func (obj *ExprValue) SetScope(scope *interfaces.Scope) error { return nil }

// Evaluate returns the stored value.
func (obj *ExprValue) Evaluate(st *stack.Stack[types.Value]) (types.Value, error) {
	return obj.V, nil
}

// Substitute returns the node unchanged, the value is closed.
func (obj *ExprValue) Substitute(exprs *stack.Stack[interfaces.Expr]) (interfaces.Expr, error) {
	return obj, nil
}

// Check returns the node and its attached type.
func (obj *ExprValue) Check(typs, vals *stack.Stack[interfaces.Expr]) (interfaces.Expr, interfaces.Expr, error) {
	return obj, obj.Type(), nil
}

// Reduce returns the node unchanged, a value is already normal.
func (obj *ExprValue) Reduce(next int) (interfaces.Expr, error) { return obj, nil }

// Type returns the attached type expression, defaulting to universal.
func (obj *ExprValue) Type() interfaces.Expr {
	if obj.T == nil {
		return ExprUniversal
	}
	return obj.T
}

// ExprInt is a surface integer literal. The checker resolves it through the
// environment's literal rule into an ExprValue; the checker itself has no
// built-in integer type.
type ExprInt struct {
	data *interfaces.Data

	// V is the parsed integer.
	V int64
}

// String returns a short representation of this expression.
func (obj *ExprInt) String() string { return strconv.FormatInt(obj.V, 10) }

// Apply is a general purpose iterator method that operates on any expression.
func (obj *ExprInt) Apply(fn func(interfaces.Node) error) error { return fn(obj) }

// Init initializes this branch of the AST.
func (obj *ExprInt) Init(data *interfaces.Data) error {
	obj.data = data
	return nil
}

// SetScope does nothing for this node, a literal has no names.
func (obj *ExprInt) SetScope(scope *interfaces.Scope) error { return nil }

// Evaluate returns the literal as a plain integer value. The checked tree
// goes through the literal rule instead; this path only serves unchecked
// evaluation.
func (obj *ExprInt) Evaluate(st *stack.Stack[types.Value]) (types.Value, error) {
	return &types.IntValue{V: obj.V}, nil
}

// Substitute returns the node unchanged.
func (obj *ExprInt) Substitute(exprs *stack.Stack[interfaces.Expr]) (interfaces.Expr, error) {
	return obj, nil
}

// Check resolves the literal through the environment's literal rule.
func (obj *ExprInt) Check(typs, vals *stack.Stack[interfaces.Expr]) (interfaces.Expr, interfaces.Expr, error) {
	if obj.data == nil || obj.data.Literal == nil {
		return nil, nil, fmt.Errorf("no literal rule in the environment")
	}
	v, typ, err := obj.data.Literal(obj.V)
	if err != nil {
		return nil, nil, errwrap.Wrapf(err, "literal %d", obj.V)
	}
	return &ExprValue{data: obj.data, V: v, T: typ}, typ, nil
}

// Reduce returns the node unchanged.
func (obj *ExprInt) Reduce(next int) (interfaces.Expr, error) { return obj, nil }

// ExprVar is a variable. The parser leaves only the name; the preparation
// pass resolves it into a slot index and a relative functional depth, and the
// name survives for display only.
type ExprVar struct {
	data *interfaces.Data

	// Name is the surface name, possibly empty for synthesized variables.
	Name string

	index int
	depth int
}

// NewVarRef builds a variable that is already resolved to a slot. The checker
// synthesizes these as placeholders for function arguments, and tests use
// them to build trees without running the preparation pass.
func NewVarRef(name string, index, depth int) *ExprVar {
	return &ExprVar{Name: name, index: index, depth: depth}
}

// String returns a short representation of this expression.
func (obj *ExprVar) String() string {
	if obj.Name != "" {
		return obj.Name
	}
	return fmt.Sprintf("var(%d/%d)", obj.index, obj.depth)
}

// Apply is a general purpose iterator method that operates on any expression.
func (obj *ExprVar) Apply(fn func(interfaces.Node) error) error { return fn(obj) }

// Init initializes this branch of the AST.
func (obj *ExprVar) Init(data *interfaces.Data) error {
	obj.data = data
	return nil
}

// SetScope resolves the name into a slot index and a relative depth.
func (obj *ExprVar) SetScope(scope *interfaces.Scope) error {
	ref, ok := scope.Lookup(obj.Name)
	if !ok {
		return &interfaces.UnresolvedVariableError{Name: obj.Name}
	}
	obj.index = ref.Index
	obj.depth = scope.Depth() - ref.Depth
	return nil
}

// Offset returns the resolved slot index and relative functional depth.
func (obj *ExprVar) Offset() (int, int) { return obj.index, obj.depth }

// Evaluate reads the variable's slot off the runtime stack.
func (obj *ExprVar) Evaluate(st *stack.Stack[types.Value]) (types.Value, error) {
	v, _, ok := st.Lookup(obj.index, obj.depth)
	if !ok {
		return nil, fmt.Errorf("variable %s has no runtime slot", obj.String())
	}
	return v, nil
}

// Substitute replaces the variable if its slot is present in the expression
// stack, shifting the replacement by the functional boundaries crossed on the
// way. An absent slot leaves the variable free.
func (obj *ExprVar) Substitute(exprs *stack.Stack[interfaces.Expr]) (interfaces.Expr, error) {
	e, crossed, ok := exprs.Lookup(obj.index, obj.depth)
	if !ok {
		return obj, nil
	}
	return Shift(e, crossed)
}

// Check reads the variable's type off the type stack, shifted to the depth of
// the use site.
func (obj *ExprVar) Check(typs, vals *stack.Stack[interfaces.Expr]) (interfaces.Expr, interfaces.Expr, error) {
	t, crossed, ok := typs.Lookup(obj.index, obj.depth)
	if !ok {
		return nil, nil, fmt.Errorf("variable %s has no type", obj.String())
	}
	shifted, err := Shift(t, crossed)
	if err != nil {
		return nil, nil, err
	}
	return obj, shifted, nil
}

// Reduce returns the node unchanged.
func (obj *ExprVar) Reduce(next int) (interfaces.Expr, error) { return obj, nil }

// ExprCall applies a function to a single argument. Surface calls with
// several arguments arrive here with the arguments wrapped in a tuple.
type ExprCall struct {
	data *interfaces.Data

	// Fn is the expression in function position.
	Fn interfaces.Expr

	// Arg is the single argument.
	Arg interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprCall) String() string {
	if t, ok := obj.Arg.(*ExprTuple); ok {
		return fmt.Sprintf("%s%s", obj.Fn, t)
	}
	return fmt.Sprintf("%s(%s)", obj.Fn, obj.Arg)
}

// Apply is a general purpose iterator method that operates on any expression.
func (obj *ExprCall) Apply(fn func(interfaces.Node) error) error {
	if err := obj.Fn.Apply(fn); err != nil {
		return err
	}
	if err := obj.Arg.Apply(fn); err != nil {
		return err
	}
	return fn(obj)
}

// Init initializes this branch of the AST.
func (obj *ExprCall) Init(data *interfaces.Data) error {
	obj.data = data
	if err := obj.Fn.Init(data); err != nil {
		return err
	}
	return obj.Arg.Init(data)
}

// SetScope resolves the names in both children.
func (obj *ExprCall) SetScope(scope *interfaces.Scope) error {
	if err := obj.Fn.SetScope(scope); err != nil {
		return err
	}
	return obj.Arg.SetScope(scope)
}

// Evaluate evaluates the function and the argument, then applies one to the
// other.
func (obj *ExprCall) Evaluate(st *stack.Stack[types.Value]) (types.Value, error) {
	fnV, err := obj.Fn.Evaluate(st)
	if err != nil {
		return nil, err
	}
	argV, err := obj.Arg.Evaluate(st)
	if err != nil {
		return nil, err
	}
	fn, ok := fnV.(types.Callable)
	if !ok {
		return nil, &interfaces.NotCallableError{Expr: obj}
	}
	return fn.Call(argV)
}

// Substitute substitutes into both children.
func (obj *ExprCall) Substitute(exprs *stack.Stack[interfaces.Expr]) (interfaces.Expr, error) {
	fn, err := obj.Fn.Substitute(exprs)
	if err != nil {
		return nil, err
	}
	arg, err := obj.Arg.Substitute(exprs)
	if err != nil {
		return nil, err
	}
	return &ExprCall{data: obj.data, Fn: fn, Arg: arg}, nil
}

// Check verifies the call: the function's type must force into a function
// definition shape, the argument must be equivalent or convertible to its
// argument type, and the result type is the definition's body with the
// checked argument beta expanded into it. That last step is what makes the
// types dependent: the result type may mention the argument.
func (obj *ExprCall) Check(typs, vals *stack.Stack[interfaces.Expr]) (interfaces.Expr, interfaces.Expr, error) {
	fn, fnType, err := obj.Fn.Check(typs, vals)
	if err != nil {
		return nil, nil, err
	}
	arg, argType, err := obj.Arg.Check(typs, vals)
	if err != nil {
		return nil, nil, err
	}

	def, err := forceFuncType(fnType, vals, typs.Next())
	if err != nil {
		if errwrap.Cause(err) == errNotFunc {
			return nil, nil, &interfaces.NotCallableError{Expr: obj}
		}
		return nil, nil, err
	}

	arg, err = convertArg(obj.data, obj, arg, argType, def.ArgType, vals)
	if err != nil {
		return nil, nil, err
	}

	ret, err := betaExpand(def, arg)
	if err != nil {
		return nil, nil, err
	}
	return &ExprCall{data: obj.data, Fn: fn, Arg: arg}, ret, nil
}

// Reduce beta expands the call if the function position reduces to a literal
// function definition.
func (obj *ExprCall) Reduce(next int) (interfaces.Expr, error) {
	fn, err := obj.Fn.Reduce(next)
	if err != nil {
		return nil, err
	}
	arg, err := obj.Arg.Reduce(next)
	if err != nil {
		return nil, err
	}
	if def, ok := fn.(*ExprFuncDefine); ok {
		return betaExpand(def, arg)
	}
	return &ExprCall{data: obj.data, Fn: fn, Arg: arg}, nil
}

// ExprFuncDefine is a function of one argument. It doubles as the
// representation of function types: the type of a function is a function
// definition whose body is the result type, and calling it at the type level
// is how dependent result types are computed. The body is bound one
// functional depth deeper, with the argument as slot zero.
type ExprFuncDefine struct {
	data *interfaces.Data

	// ArgName is the argument's surface name.
	ArgName string

	// ArgType is the expression for the argument's type.
	ArgType interfaces.Expr

	// Body is the function body.
	Body interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprFuncDefine) String() string {
	return fmt.Sprintf("function (%s %s) { %s }", obj.ArgType, obj.ArgName, obj.Body)
}

// Apply is a general purpose iterator method that operates on any expression.
func (obj *ExprFuncDefine) Apply(fn func(interfaces.Node) error) error {
	if err := obj.ArgType.Apply(fn); err != nil {
		return err
	}
	if err := obj.Body.Apply(fn); err != nil {
		return err
	}
	return fn(obj)
}

// Init initializes this branch of the AST.
func (obj *ExprFuncDefine) Init(data *interfaces.Data) error {
	obj.data = data
	if err := obj.ArgType.Init(data); err != nil {
		return err
	}
	return obj.Body.Init(data)
}

// SetScope resolves the argument type in the enclosing scope and the body one
// functional depth deeper, with the argument bound as slot zero.
func (obj *ExprFuncDefine) SetScope(scope *interfaces.Scope) error {
	if err := obj.ArgType.SetScope(scope); err != nil {
		return err
	}
	inner := scope.Deeper()
	inner.Bind(obj.ArgName)
	return obj.Body.SetScope(inner)
}

// Evaluate captures the current stack into a closure. A body that is already
// a closed literal skips the capture and becomes a constant function.
func (obj *ExprFuncDefine) Evaluate(st *stack.Stack[types.Value]) (types.Value, error) {
	if v, ok := obj.Body.(*ExprValue); ok {
		return &types.ConstFuncValue{Result: v.V}, nil
	}
	return &types.ClosureFuncValue{Base: st, Def: obj}, nil
}

// EvaluateBody evaluates the body against a captured stack extended with the
// argument. It implements the closure hook of the value package.
func (obj *ExprFuncDefine) EvaluateBody(base *stack.Stack[types.Value], arg types.Value) (types.Value, error) {
	return obj.Body.Evaluate(base.AppendDeeper([]types.Value{arg}))
}

// Substitute substitutes into the argument type and, one depth down, into the
// body.
func (obj *ExprFuncDefine) Substitute(exprs *stack.Stack[interfaces.Expr]) (interfaces.Expr, error) {
	argType, err := obj.ArgType.Substitute(exprs)
	if err != nil {
		return nil, err
	}
	body, err := obj.Body.Substitute(exprs.AppendDeeper(nil))
	if err != nil {
		return nil, err
	}
	return &ExprFuncDefine{data: obj.data, ArgName: obj.ArgName, ArgType: argType, Body: body}, nil
}

// Check verifies the body one functional depth deeper: the argument's slot
// carries the argument type (shifted across the boundary) on the type stack,
// and a placeholder variable naming itself on the value stack. The type of a
// function definition is a function definition with the same argument type
// whose body is the body's type.
func (obj *ExprFuncDefine) Check(typs, vals *stack.Stack[interfaces.Expr]) (interfaces.Expr, interfaces.Expr, error) {
	argType, _, err := obj.ArgType.Check(typs, vals)
	if err != nil {
		return nil, nil, err
	}
	shifted, err := Shift(argType, 1)
	if err != nil {
		return nil, nil, err
	}
	param := &ExprVar{data: obj.data, Name: obj.ArgName, index: 0, depth: 0}
	body, bodyType, err := obj.Body.Check(
		typs.AppendDeeper([]interfaces.Expr{shifted}),
		vals.AppendDeeper([]interfaces.Expr{param}),
	)
	if err != nil {
		return nil, nil, err
	}
	out := &ExprFuncDefine{data: obj.data, ArgName: obj.ArgName, ArgType: argType, Body: body}
	typ := &ExprFuncDefine{data: obj.data, ArgName: obj.ArgName, ArgType: argType, Body: bodyType}
	return out, typ, nil
}

// Reduce reduces the argument type and the body.
func (obj *ExprFuncDefine) Reduce(next int) (interfaces.Expr, error) {
	argType, err := obj.ArgType.Reduce(next)
	if err != nil {
		return nil, err
	}
	body, err := obj.Body.Reduce(1) // slot zero is the argument
	if err != nil {
		return nil, err
	}
	return &ExprFuncDefine{data: obj.data, ArgName: obj.ArgName, ArgType: argType, Body: body}, nil
}

// ExprTuple is an ordered sequence of expressions. Its type is the tuple of
// the component types; the empty tuple is its own type.
type ExprTuple struct {
	data *interfaces.Data

	// Parts are the components, in order.
	Parts []interfaces.Expr
}

// String returns a short representation of this expression.
func (obj *ExprTuple) String() string {
	parts := make([]string, len(obj.Parts))
	for i, p := range obj.Parts {
		parts[i] = p.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Apply is a general purpose iterator method that operates on any expression.
func (obj *ExprTuple) Apply(fn func(interfaces.Node) error) error {
	for _, p := range obj.Parts {
		if err := p.Apply(fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// Init initializes this branch of the AST.
func (obj *ExprTuple) Init(data *interfaces.Data) error {
	obj.data = data
	for _, p := range obj.Parts {
		if err := p.Init(data); err != nil {
			return err
		}
	}
	return nil
}

// SetScope resolves the names in every component.
func (obj *ExprTuple) SetScope(scope *interfaces.Scope) error {
	for _, p := range obj.Parts {
		if err := p.SetScope(scope); err != nil {
			return err
		}
	}
	return nil
}

// Evaluate evaluates every component, left to right.
func (obj *ExprTuple) Evaluate(st *stack.Stack[types.Value]) (types.Value, error) {
	v := make([]types.Value, len(obj.Parts))
	for i, p := range obj.Parts {
		out, err := p.Evaluate(st)
		if err != nil {
			return nil, err
		}
		v[i] = out
	}
	return &types.TupleValue{V: v}, nil
}

// Substitute substitutes into every component.
func (obj *ExprTuple) Substitute(exprs *stack.Stack[interfaces.Expr]) (interfaces.Expr, error) {
	parts := make([]interfaces.Expr, len(obj.Parts))
	for i, p := range obj.Parts {
		out, err := p.Substitute(exprs)
		if err != nil {
			return nil, err
		}
		parts[i] = out
	}
	return &ExprTuple{data: obj.data, Parts: parts}, nil
}

// Check checks every component; the tuple's type is the tuple of their types.
func (obj *ExprTuple) Check(typs, vals *stack.Stack[interfaces.Expr]) (interfaces.Expr, interfaces.Expr, error) {
	parts := make([]interfaces.Expr, len(obj.Parts))
	partTypes := make([]interfaces.Expr, len(obj.Parts))
	for i, p := range obj.Parts {
		out, typ, err := p.Check(typs, vals)
		if err != nil {
			return nil, nil, err
		}
		parts[i] = out
		partTypes[i] = typ
	}
	out := &ExprTuple{data: obj.data, Parts: parts}
	typ := &ExprTuple{data: obj.data, Parts: partTypes}
	return out, typ, nil
}

// Reduce reduces every component.
func (obj *ExprTuple) Reduce(next int) (interfaces.Expr, error) {
	parts := make([]interfaces.Expr, len(obj.Parts))
	for i, p := range obj.Parts {
		out, err := p.Reduce(next)
		if err != nil {
			return nil, err
		}
		parts[i] = out
	}
	return &ExprTuple{data: obj.data, Parts: parts}, nil
}

// ExprTupleBreak destructures a tuple into named components that are in scope
// for one inner expression. It is how multi-parameter functions receive their
// parameters: the lambda's tuple argument is broken apart at the top of its
// body. The component slots are at the same functional depth as the
// surrounding expression; only the preparation counter is forked, since the
// runtime segment is path-local.
type ExprTupleBreak struct {
	data *interfaces.Data

	// Source is the tuple being destructured.
	Source interfaces.Expr

	// Names are the component names, in order.
	Names []string

	// Body is the expression evaluated with the components in scope.
	Body interfaces.Expr

	start int
}

// String returns a short representation of this expression.
func (obj *ExprTupleBreak) String() string {
	return fmt.Sprintf("((%s) = %s) { %s }", strings.Join(obj.Names, ", "), obj.Source, obj.Body)
}

// Apply is a general purpose iterator method that operates on any expression.
func (obj *ExprTupleBreak) Apply(fn func(interfaces.Node) error) error {
	if err := obj.Source.Apply(fn); err != nil {
		return err
	}
	if err := obj.Body.Apply(fn); err != nil {
		return err
	}
	return fn(obj)
}

// Init initializes this branch of the AST.
func (obj *ExprTupleBreak) Init(data *interfaces.Data) error {
	obj.data = data
	if err := obj.Source.Init(data); err != nil {
		return err
	}
	return obj.Body.Init(data)
}

// SetScope resolves the source in the enclosing scope, then binds the
// component names in a forked branch of it for the body.
func (obj *ExprTupleBreak) SetScope(scope *interfaces.Scope) error {
	if err := obj.Source.SetScope(scope); err != nil {
		return err
	}
	inner := scope.Branch()
	obj.start = inner.Next()
	for _, name := range obj.Names {
		inner.Bind(name)
	}
	return obj.Body.SetScope(inner)
}

// Evaluate evaluates the source, spreads its components over the reserved
// slots, and evaluates the body on the extended stack. An empty tuple extends
// the stack by nothing.
func (obj *ExprTupleBreak) Evaluate(st *stack.Stack[types.Value]) (types.Value, error) {
	v, err := obj.Source.Evaluate(st)
	if err != nil {
		return nil, err
	}
	tv, ok := v.(*types.TupleValue)
	if !ok {
		return nil, fmt.Errorf("tuple break source is not a tuple: %s", v)
	}
	if len(tv.V) != len(obj.Names) {
		return nil, errwrap.Wrapf(interfaces.ErrTupleArity, "have %d names for %d components", len(obj.Names), len(tv.V))
	}
	inner := st
	if len(tv.V) > 0 {
		inner = st.AppendAt(obj.start, tv.V)
	}
	return obj.Body.Evaluate(inner)
}

// Substitute substitutes into the source and the body. The body shares the
// depth of the source; its component slots sit above anything the expression
// stack could hold, so there is no collision.
func (obj *ExprTupleBreak) Substitute(exprs *stack.Stack[interfaces.Expr]) (interfaces.Expr, error) {
	source, err := obj.Source.Substitute(exprs)
	if err != nil {
		return nil, err
	}
	body, err := obj.Body.Substitute(exprs)
	if err != nil {
		return nil, err
	}
	return &ExprTupleBreak{data: obj.data, Source: source, Names: obj.Names, Body: body, start: obj.start}, nil
}

// Check forces the source's type into a tuple of the right arity and checks
// the body with the component slots carrying the component types. If the
// source is a literal tuple, the components themselves stand in for the slots
// on the symbolic value stack, which keeps dependent types precise.
func (obj *ExprTupleBreak) Check(typs, vals *stack.Stack[interfaces.Expr]) (interfaces.Expr, interfaces.Expr, error) {
	source, sourceType, err := obj.Source.Check(typs, vals)
	if err != nil {
		return nil, nil, err
	}
	tt, err := forceTupleType(sourceType, vals, typs.Next())
	if err != nil {
		if errwrap.Cause(err) == errNotTuple {
			return nil, nil, &interfaces.TypeMismatchError{Expr: obj, Expected: &ExprTuple{}, Actual: sourceType}
		}
		return nil, nil, err
	}
	if len(tt.Parts) != len(obj.Names) {
		return nil, nil, errwrap.Wrapf(interfaces.ErrTupleArity, "have %d names for %d components", len(obj.Names), len(tt.Parts))
	}

	symbolic := make([]interfaces.Expr, len(obj.Names))
	if lit, ok := source.(*ExprTuple); ok {
		copy(symbolic, lit.Parts)
	} else {
		for i, name := range obj.Names {
			symbolic[i] = &ExprVar{data: obj.data, Name: name, index: obj.start + i, depth: 0}
		}
	}

	body, bodyType, err := obj.Body.Check(
		typs.AppendAt(obj.start, tt.Parts),
		vals.AppendAt(obj.start, symbolic),
	)
	if err != nil {
		return nil, nil, err
	}
	out := &ExprTupleBreak{data: obj.data, Source: source, Names: obj.Names, Body: body, start: obj.start}
	return out, bodyType, nil
}

// Reduce elides the break if the reduced body provably never reads the broken
// components, which the compression of their slot range proves.
func (obj *ExprTupleBreak) Reduce(next int) (interfaces.Expr, error) {
	source, err := obj.Source.Reduce(next)
	if err != nil {
		return nil, err
	}
	body, err := obj.Body.Reduce(obj.start + len(obj.Names))
	if err != nil {
		return nil, err
	}
	compressed, err := Compress(body, obj.start, len(obj.Names))
	if err == nil {
		return compressed, nil
	}
	if errwrap.Cause(err) != ErrCompress {
		return nil, err
	}
	return &ExprTupleBreak{data: obj.data, Source: source, Names: obj.Names, Body: body, start: obj.start}, nil
}

// ExprAccessor selects a form constructor out of a variant type, as in
// maybe(int).just. Checking requires the object to be constant at the value
// level: it is closed over the symbolic value stack and evaluated, and the
// whole accessor is replaced by the constructor as a literal.
type ExprAccessor struct {
	data *interfaces.Data

	// Expr is the object being accessed.
	Expr interfaces.Expr

	// Field is the form name.
	Field string
}

// String returns a short representation of this expression.
func (obj *ExprAccessor) String() string {
	return fmt.Sprintf("%s.%s", obj.Expr, obj.Field)
}

// Apply is a general purpose iterator method that operates on any expression.
func (obj *ExprAccessor) Apply(fn func(interfaces.Node) error) error {
	if err := obj.Expr.Apply(fn); err != nil {
		return err
	}
	return fn(obj)
}

// Init initializes this branch of the AST.
func (obj *ExprAccessor) Init(data *interfaces.Data) error {
	obj.data = data
	return obj.Expr.Init(data)
}

// SetScope resolves the names in the object.
func (obj *ExprAccessor) SetScope(scope *interfaces.Scope) error {
	return obj.Expr.SetScope(scope)
}

// Evaluate resolves the form constructor at runtime. The checked tree never
// reaches this, checking replaces the accessor with the constructor literal.
func (obj *ExprAccessor) Evaluate(st *stack.Stack[types.Value]) (types.Value, error) {
	v, err := obj.Expr.Evaluate(st)
	if err != nil {
		return nil, err
	}
	vt, ok := v.(*types.VariantTypeValue)
	if !ok {
		return nil, &interfaces.AccessorFailureError{Expr: obj, Field: obj.Field}
	}
	form, _, err := vt.Form(obj.Field)
	if err != nil {
		return nil, &interfaces.AccessorFailureError{Expr: obj, Field: obj.Field}
	}
	return variantConstructor(vt, form), nil
}

// Substitute substitutes into the object.
func (obj *ExprAccessor) Substitute(exprs *stack.Stack[interfaces.Expr]) (interfaces.Expr, error) {
	out, err := obj.Expr.Substitute(exprs)
	if err != nil {
		return nil, err
	}
	return &ExprAccessor{data: obj.data, Expr: out, Field: obj.Field}, nil
}

// Check evaluates the object down to a variant type constant and replaces the
// accessor with the named form's constructor. The constructor's type is a
// function from the form's payload type (or the empty tuple for payload-less
// forms) to the variant type.
func (obj *ExprAccessor) Check(typs, vals *stack.Stack[interfaces.Expr]) (interfaces.Expr, interfaces.Expr, error) {
	object, _, err := obj.Expr.Check(typs, vals)
	if err != nil {
		return nil, nil, err
	}
	closed, err := object.Substitute(vals)
	if err != nil {
		return nil, nil, err
	}
	v, err := closed.Evaluate(nil)
	if err != nil {
		// not a constant, so there is nothing to select a form from
		return nil, nil, &interfaces.AccessorFailureError{Expr: obj, Field: obj.Field}
	}
	if d, ok := v.(*types.DeferredValue); ok {
		forced, err := d.Force()
		if err != nil {
			return nil, nil, err
		}
		v = forced
	}
	vt, ok := v.(*types.VariantTypeValue)
	if !ok {
		return nil, nil, &interfaces.AccessorFailureError{Expr: obj, Field: obj.Field}
	}
	form, f, err := vt.Form(obj.Field)
	if err != nil {
		return nil, nil, &interfaces.AccessorFailureError{Expr: obj, Field: obj.Field}
	}

	var argType interfaces.Expr
	if f.Payload != nil {
		argType = &ExprValue{data: obj.data, V: f.Payload}
	} else {
		argType = &ExprTuple{data: obj.data}
	}
	typ := &ExprFuncDefine{
		data:    obj.data,
		ArgName: "value",
		ArgType: argType,
		Body:    &ExprValue{data: obj.data, V: vt},
	}
	out := &ExprValue{data: obj.data, V: variantConstructor(vt, form), T: typ}
	return out, typ, nil
}

// Reduce reduces the object.
func (obj *ExprAccessor) Reduce(next int) (interfaces.Expr, error) {
	out, err := obj.Expr.Reduce(next)
	if err != nil {
		return nil, err
	}
	return &ExprAccessor{data: obj.data, Expr: out, Field: obj.Field}, nil
}

// clone records that an enclosing variable is copied into a procedure-local
// slot at activation, because the procedure body reassigns it. The index and
// depth address the source in the enclosing environment; the slot is the
// local copy.
type clone struct {
	name  string
	index int
	depth int
	slot  int
}

// ExprProc is a statement block used as an expression. Evaluating it pushes a
// mutable activation frame, copies the cloned variables into it, and executes
// the statements; the value is the first reached return's, or the empty tuple
// if the block runs off its end.
type ExprProc struct {
	data *interfaces.Data

	// Body is the top-level compound statement.
	Body interfaces.Stmt

	clones []clone
	start  int
}

// String returns a short representation of this expression.
func (obj *ExprProc) String() string { return obj.Body.String() }

// Apply is a general purpose iterator method that operates on any expression.
func (obj *ExprProc) Apply(fn func(interfaces.Node) error) error {
	if err := obj.Body.Apply(fn); err != nil {
		return err
	}
	return fn(obj)
}

// Init initializes this branch of the AST.
func (obj *ExprProc) Init(data *interfaces.Data) error {
	obj.data = data
	return obj.Body.Init(data)
}

// SetScope prepares the block: a forked branch of the enclosing scope, with
// every enclosing variable that the block reassigns re-bound to a fresh local
// slot first. Mutation inside the block then targets the local copy and can
// never reach an enclosing frame.
func (obj *ExprProc) SetScope(scope *interfaces.Scope) error {
	inner := scope.Branch()
	obj.start = inner.Next()
	obj.clones = nil
	for _, name := range assignedOutside(obj.Body, scope) {
		ref, ok := scope.Lookup(name)
		if !ok {
			continue // left for the assignment itself to report
		}
		local := inner.Bind(name)
		obj.clones = append(obj.clones, clone{
			name:  name,
			index: ref.Index,
			depth: scope.Depth() - ref.Depth,
			slot:  local.Index,
		})
	}
	return obj.Body.SetScope(inner)
}

// Evaluate pushes a fresh mutable frame, copies the clones into it, and runs
// the statements.
func (obj *ExprProc) Evaluate(st *stack.Stack[types.Value]) (types.Value, error) {
	frame := st.AppendMutable()
	for _, c := range obj.clones {
		v, _, ok := st.Lookup(c.index, c.depth)
		if !ok {
			return nil, fmt.Errorf("clone source %s has no runtime slot", c.name)
		}
		slot, err := frame.Push(v.Copy())
		if err != nil {
			return nil, err
		}
		if slot != c.slot {
			return nil, fmt.Errorf("frame misaligned: clone %s got slot %d, want %d", c.name, slot, c.slot)
		}
	}
	v, returned, err := obj.Body.Execute(frame)
	if err != nil {
		return nil, err
	}
	if !returned {
		return &types.TupleValue{}, nil
	}
	return v, nil
}

// Substitute substitutes into the expressions of every statement. The block
// shares the depth of the surrounding expression.
func (obj *ExprProc) Substitute(exprs *stack.Stack[interfaces.Expr]) (interfaces.Expr, error) {
	body, err := substituteStmt(obj.Body, exprs)
	if err != nil {
		return nil, err
	}
	return &ExprProc{data: obj.data, Body: body, clones: obj.clones, start: obj.start}, nil
}

// Check seeds the clone slots with their sources' types and symbolic values,
// then checks the statements with the threaded state. The block's type is the
// returned value's type, or the empty tuple if nothing returns.
func (obj *ExprProc) Check(typs, vals *stack.Stack[interfaces.Expr]) (interfaces.Expr, interfaces.Expr, error) {
	innerTyps, innerVals := typs, vals
	for _, c := range obj.clones {
		t, crossed, ok := typs.Lookup(c.index, c.depth)
		if !ok {
			return nil, nil, fmt.Errorf("clone source %s has no type", c.name)
		}
		shifted, err := Shift(t, crossed)
		if err != nil {
			return nil, nil, err
		}
		src := &ExprVar{data: obj.data, Name: c.name, index: c.index, depth: c.depth}
		innerTyps = innerTyps.AppendAt(c.slot, []interfaces.Expr{shifted})
		innerVals = innerVals.AppendAt(c.slot, []interfaces.Expr{src})
	}
	state := &interfaces.StmtState{
		Types:  innerTyps,
		Values: innerVals,
	}
	body, retType, err := obj.Body.Check(state)
	if err != nil {
		return nil, nil, err
	}
	if retType == nil {
		retType = &ExprTuple{data: obj.data}
	}
	out := &ExprProc{data: obj.data, Body: body, clones: obj.clones, start: obj.start}
	return out, retType, nil
}

// Reduce reduces the expressions of every statement. The block itself is kept
// as is; it only simplifies away by being evaluated.
func (obj *ExprProc) Reduce(next int) (interfaces.Expr, error) {
	body, err := reduceStmt(obj.Body, next)
	if err != nil {
		return nil, err
	}
	return &ExprProc{data: obj.data, Body: body, clones: obj.clones, start: obj.start}, nil
}
