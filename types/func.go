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

package types

import (
	"fmt"

	"github.com/kappa-lang/kappa/stack"
)

// FuncDef is the part of a function definition that a closure needs to run:
// the ability to evaluate its body against the captured stack extended with
// an argument. The expression package implements it; declaring it here keeps
// this package free of any expression knowledge.
type FuncDef interface {
	fmt.Stringer

	// EvaluateBody evaluates the definition's body one functional depth
	// below the given base stack, with the argument as slot zero.
	EvaluateBody(base *stack.Stack[Value], arg Value) (Value, error)
}

// NativeFuncValue is a function implemented in Go. The bootstrap environment
// and the conversion factory are made of these.
type NativeFuncValue struct {
	// Name is used for display only.
	Name string

	// Fn is the implementation. It receives the single argument; surface
	// multi-argument functions receive a tuple.
	Fn func(arg Value) (Value, error)
}

// String returns a visual representation of this value.
func (obj *NativeFuncValue) String() string {
	if obj.Name == "" {
		return "<built-in>"
	}
	return fmt.Sprintf("<built-in: %s>", obj.Name)
}

// Display returns a representation of this value under an explicit type.
func (obj *NativeFuncValue) Display(typ Value) string { return obj.String() }

// Call applies the function to the given argument.
func (obj *NativeFuncValue) Call(arg Value) (Value, error) {
	return obj.Fn(arg)
}

// Cmp compares this value to the given one. Native functions only compare
// equal to themselves.
func (obj *NativeFuncValue) Cmp(val Value) error {
	if v, ok := val.(*NativeFuncValue); ok && v == obj {
		return nil
	}
	return fmt.Errorf("functions are only equal to themselves")
}

// Copy returns this value. The implementation is shared, not duplicated.
func (obj *NativeFuncValue) Copy() Value { return obj }

// AsType succeeds. A function may stand in type position; whether applying it
// yields a type is only known when it is applied.
func (obj *NativeFuncValue) AsType() error { return nil }

// ConstFuncValue is a function that ignores its argument and returns a fixed
// result. Function definitions whose bodies are closed literals evaluate to
// one of these instead of capturing a stack they would never read.
type ConstFuncValue struct {
	// Result is the value returned from any call.
	Result Value
}

// String returns a visual representation of this value.
func (obj *ConstFuncValue) String() string {
	return fmt.Sprintf("<func: const %s>", obj.Result)
}

// Display returns a representation of this value under an explicit type.
func (obj *ConstFuncValue) Display(typ Value) string { return obj.String() }

// Call returns the fixed result, ignoring the argument.
func (obj *ConstFuncValue) Call(arg Value) (Value, error) {
	return obj.Result, nil
}

// Cmp compares this value to the given one. Two constant functions are equal
// if their results are.
func (obj *ConstFuncValue) Cmp(val Value) error {
	v, ok := val.(*ConstFuncValue)
	if !ok {
		return fmt.Errorf("functions are only equal to themselves")
	}
	return obj.Result.Cmp(v.Result)
}

// Copy returns a copy of this value.
func (obj *ConstFuncValue) Copy() Value {
	return &ConstFuncValue{Result: obj.Result.Copy()}
}

// AsType succeeds, see NativeFuncValue.AsType.
func (obj *ConstFuncValue) AsType() error { return nil }

// ClosureFuncValue is a function definition paired with the stack that was
// current when it was evaluated. Calling it evaluates the definition's body
// against that captured stack, one functional depth down, with the argument
// as slot zero.
type ClosureFuncValue struct {
	// Base is the captured stack.
	Base *stack.Stack[Value]

	// Def is the function definition.
	Def FuncDef
}

// String returns a visual representation of this value.
func (obj *ClosureFuncValue) String() string {
	return fmt.Sprintf("<func: %s>", obj.Def)
}

// Display returns a representation of this value under an explicit type.
func (obj *ClosureFuncValue) Display(typ Value) string { return obj.String() }

// Call applies the closure to the given argument.
func (obj *ClosureFuncValue) Call(arg Value) (Value, error) {
	return obj.Def.EvaluateBody(obj.Base, arg)
}

// Cmp compares this value to the given one. Closures only compare equal to
// themselves.
func (obj *ClosureFuncValue) Cmp(val Value) error {
	if v, ok := val.(*ClosureFuncValue); ok && v == obj {
		return nil
	}
	return fmt.Errorf("functions are only equal to themselves")
}

// Copy returns this value. The captured stack is shared; it is persistent.
func (obj *ClosureFuncValue) Copy() Value { return obj }

// AsType succeeds, see NativeFuncValue.AsType.
func (obj *ClosureFuncValue) AsType() error { return nil }

// DeferredValue is a write-once cell used to build self-referential values.
// It stands in for a value that does not exist yet; once Set, it delegates
// everything to that value. Forcing it before it was set is an error, so any
// recursion built through it must not read the cell while it is still being
// constructed.
type DeferredValue struct {
	value Value
	isSet bool
}

// Set fills the cell. It errors if the cell was already filled.
func (obj *DeferredValue) Set(val Value) error {
	if obj.isSet {
		return fmt.Errorf("deferred value was already set")
	}
	obj.value = val
	obj.isSet = true
	return nil
}

// Force returns the value in the cell, erroring if it is still empty.
func (obj *DeferredValue) Force() (Value, error) {
	if !obj.isSet {
		return nil, fmt.Errorf("deferred value was not set yet")
	}
	return obj.value, nil
}

// String returns a visual representation of this value.
func (obj *DeferredValue) String() string {
	if !obj.isSet {
		return "<deferred>"
	}
	return obj.value.String()
}

// Display returns a representation of this value under an explicit type.
func (obj *DeferredValue) Display(typ Value) string {
	if !obj.isSet {
		return obj.String()
	}
	return obj.value.Display(typ)
}

// Call forces the cell and applies the result, which must be callable.
func (obj *DeferredValue) Call(arg Value) (Value, error) {
	v, err := obj.Force()
	if err != nil {
		return nil, err
	}
	fn, ok := v.(Callable)
	if !ok {
		return nil, fmt.Errorf("deferred value is not callable: %s", v)
	}
	return fn.Call(arg)
}

// Cmp compares this value to the given one, through the cell.
func (obj *DeferredValue) Cmp(val Value) error {
	v, err := obj.Force()
	if err != nil {
		return err
	}
	if d, ok := val.(*DeferredValue); ok {
		w, err := d.Force()
		if err != nil {
			return err
		}
		val = w
	}
	return v.Cmp(val)
}

// Copy returns this value. The cell's identity is the point; duplicating it
// would break the knot it ties.
func (obj *DeferredValue) Copy() Value { return obj }

// AsType delegates to the cell's value.
func (obj *DeferredValue) AsType() error {
	v, err := obj.Force()
	if err != nil {
		return err
	}
	return v.AsType()
}

// Fix returns the fixed point of the given function: a value v satisfying
// v = f(v). It calls f with an empty deferred cell, then patches the cell
// with the result. The function must therefore not force its argument during
// the call itself; it may only stash it away for later use.
func Fix(f Callable) (Value, error) {
	cell := &DeferredValue{}
	v, err := f.Call(cell)
	if err != nil {
		return nil, err
	}
	if err := cell.Set(v); err != nil {
		return nil, err
	}
	return v, nil
}
