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

// Package funcs provides the root environment the interpreter starts from.
// The checker has no built-in types or operators; everything a program can
// reach by name is a binding registered here, handed over as an initial
// scope, an initial stack segment, and a literal rule. Files in this package
// register their bindings at init() time.
package funcs

import (
	"fmt"

	"github.com/kappa-lang/kappa/ast"
	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/stack"
	"github.com/kappa-lang/kappa/types"
)

// Binding is one entry of the root environment: a name, the type it has as an
// expression, and the value it evaluates to.
type Binding struct {
	// Name is the surface name the program uses.
	Name string

	// Type is the binding's type, as an expression.
	Type interfaces.Expr

	// Value is the bound value.
	Value types.Value
}

var registeredBindings []*Binding
var registeredNames = make(map[string]struct{})

// Register adds a binding to the root environment. It is expected to be run
// in the init() function of each file that provides bindings, and panics on
// duplicate names, since that is a programming error.
func Register(b *Binding) {
	if _, exists := registeredNames[b.Name]; exists {
		panic(fmt.Sprintf("a binding named %s is already registered", b.Name))
	}
	registeredNames[b.Name] = struct{}{}
	registeredBindings = append(registeredBindings, b)
}

// Bindings returns the registered bindings, in registration order.
func Bindings() []*Binding {
	return append([]*Binding{}, registeredBindings...)
}

// Env is an ordered root environment. The default one holds the registered
// bindings; tests may build smaller ones by hand.
type Env struct {
	// Bindings are the entries, in slot order.
	Bindings []*Binding

	// LiteralOf resolves a surface integer literal into a value and its
	// type expression.
	LiteralOf func(v int64) (types.Value, interfaces.Expr, error)
}

// DefaultEnv returns the environment made of every registered binding, with
// the integer literal rule.
func DefaultEnv() *Env {
	return &Env{
		Bindings:  Bindings(),
		LiteralOf: IntLiteral,
	}
}

// Lookup finds a binding by name.
func (obj *Env) Lookup(name string) (*Binding, bool) {
	for _, b := range obj.Bindings {
		if b.Name == name {
			return b, true
		}
	}
	return nil, false
}

// Scope builds a fresh root scope with every binding's name bound, in order.
// Each call returns a new scope, since preparation consumes its counters.
func (obj *Env) Scope() *interfaces.Scope {
	scope := interfaces.NewScope()
	for _, b := range obj.Bindings {
		scope.Bind(b.Name)
	}
	return scope
}

// TypeStack builds the initial type stack: one type expression per binding.
func (obj *Env) TypeStack() *stack.Stack[interfaces.Expr] {
	exprs := make([]interfaces.Expr, len(obj.Bindings))
	for i, b := range obj.Bindings {
		exprs[i] = b.Type
	}
	var empty *stack.Stack[interfaces.Expr]
	return empty.Append(exprs)
}

// ValueStack builds the initial symbolic value stack: every binding's value
// as a closed literal carrying its type.
func (obj *Env) ValueStack() *stack.Stack[interfaces.Expr] {
	exprs := make([]interfaces.Expr, len(obj.Bindings))
	for i, b := range obj.Bindings {
		exprs[i] = &ast.ExprValue{V: b.Value, T: b.Type}
	}
	var empty *stack.Stack[interfaces.Expr]
	return empty.Append(exprs)
}

// RuntimeStack builds the initial runtime stack: every binding's value.
func (obj *Env) RuntimeStack() *stack.Stack[types.Value] {
	values := make([]types.Value, len(obj.Bindings))
	for i, b := range obj.Bindings {
		values[i] = b.Value
	}
	var empty *stack.Stack[types.Value]
	return empty.Append(values)
}

// Literal resolves a surface integer literal through the environment's rule.
func (obj *Env) Literal(v int64) (types.Value, interfaces.Expr, error) {
	if obj.LiteralOf == nil {
		return nil, nil, fmt.Errorf("environment has no literal rule")
	}
	return obj.LiteralOf(v)
}
