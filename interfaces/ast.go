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

// Package interfaces holds the declarations that the ast, convert, funcs and
// interp packages all need to agree on, so that none of them has to import
// another. In particular the equivalence and conversion engines are reached
// from the ast through the Data struct instead of through an import, which
// keeps the checker free of any knowledge about how types are compared.
package interfaces

import (
	"fmt"

	"github.com/kappa-lang/kappa/stack"
	"github.com/kappa-lang/kappa/types"
)

// Node is the set of behaviours common to expressions and statements.
type Node interface {
	fmt.Stringer

	// Apply runs the given function on this node and on every child node
	// below it, depth first. The first error aborts the traversal.
	Apply(fn func(Node) error) error
}

// Expr is the interface that every expression node implements. One expression
// representation serves as program, type and value: the same node may be
// evaluated for its value, substituted into, checked for type safety, or used
// as the type of another expression.
type Expr interface {
	Node

	// Init hands the node its static data (logging, the equivalence and
	// conversion engines, the literal rule) and validates it. It recurses
	// into children.
	Init(data *Data) error

	// SetScope resolves every variable name in the expression into a slot
	// index and a relative functional depth, using the given scope. The
	// scope is discarded afterwards. Unknown names fail with an
	// UnresolvedVariableError.
	SetScope(scope *Scope) error

	// Evaluate computes the value of the expression against a runtime
	// value stack. It must only be called on type-safe expressions;
	// failures at this stage are either runtime errors of the program
	// (like division by zero) or interpreter bugs.
	Evaluate(st *stack.Stack[types.Value]) (types.Value, error)

	// Substitute replaces every variable whose slot is present in the
	// given expression stack with the expression stored there, shifted by
	// the number of functional boundaries crossed on the way. Variables
	// whose slots are absent stay free; that is not an error. The receiver
	// is not modified.
	Substitute(exprs *stack.Stack[Expr]) (Expr, error)

	// Check verifies type safety against a stack of type expressions and a
	// stack of symbolic value expressions. It returns a rebuilt, type-safe
	// expression (argument conversions inserted, literals resolved) and
	// the expression's type, itself an expression. The first failure
	// aborts.
	Check(typs, vals *stack.Stack[Expr]) (Expr, Expr, error)

	// Reduce simplifies the checked expression without a stack: calls of
	// literal function definitions are beta reduced, and tuple breaks
	// whose slots end up unreferenced are elided. The next free slot index
	// at the expression's depth is passed in for any rebuilding that needs
	// fresh slots.
	Reduce(next int) (Expr, error)
}

// Stmt is the interface that every statement node implements. Statements only
// occur inside procedure expressions.
type Stmt interface {
	Node

	// Init hands the node its static data and validates it, recursively.
	Init(data *Data) error

	// SetScope resolves the statement's names, binding any that it
	// defines into the given scope.
	SetScope(scope *Scope) error

	// Check verifies the statement against the threaded checker state. It
	// returns the rebuilt statement and, if the statement can return from
	// the enclosing procedure, the type of the returned value, else nil.
	Check(st *StmtState) (Stmt, Expr, error)

	// Execute runs the statement against the runtime stack, whose top
	// must be the enclosing procedure's mutable frame. The bool reports
	// whether a return statement was reached.
	Execute(st *stack.Stack[types.Value]) (types.Value, bool, error)
}

// StmtState is the checker state threaded through the statements of one
// procedure body. The stacks grow as defines are checked; the map accumulates
// assignment facts.
type StmtState struct {
	// Types is the type stack, one type expression per defined slot.
	Types *stack.Stack[Expr]

	// Values is the symbolic value stack, one expression per defined slot.
	Values *stack.Stack[Expr]

	// Map records which slots were reassigned, and to what.
	Map *ProcedureMap
}

// Resolver produces conversion functions between two evaluated types. A nil
// value with a nil error means the conversion is the identity and no call
// needs to be inserted. ErrNoConversion means the two types are genuinely
// incompatible.
type Resolver interface {
	Conversion(from, to types.Value) (types.Value, error)
}

// Data is the set of facts and handles that every node gets during Init. It
// is how the ast reaches the engines that live outside of it.
type Data struct {
	// Debug enables additional log messages.
	Debug bool

	// Logf is the logging function to use.
	Logf func(format string, v ...interface{})

	// Convert resolves conversions between evaluated types.
	Convert Resolver

	// Equivalent decides three-valued type equivalence between two type
	// expressions, dereferencing variables through the given symbolic
	// value stack.
	Equivalent func(a, b Expr, vals *stack.Stack[Expr]) (Fuzzy, error)

	// Literal resolves a surface integer literal into a value and its
	// type expression. It comes from the environment; the checker itself
	// has no built-in integer type.
	Literal func(v int64) (types.Value, Expr, error)
}
