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
	"fmt"

	"github.com/kappa-lang/kappa/util"
)

const (
	// ErrNoConversion is returned by a conversion resolver when no
	// conversion between the two types exists.
	ErrNoConversion = util.Error("no conversion exists")

	// ErrTupleArity is the cause of a checking failure when a tuple break
	// names a different number of components than its source tuple has.
	ErrTupleArity = util.Error("tuple arity mismatch")

	// ErrNotMutable is returned when an assignment targets a slot that is
	// outside the newest procedure activation frame.
	ErrNotMutable = util.Error("slot is not in a mutable frame")
)

// NotCallableError is the checking error for a call whose function position
// does not have a function type.
type NotCallableError struct {
	// Expr is the offending call expression.
	Expr fmt.Stringer
}

// Error fulfills the error interface of this type.
func (obj *NotCallableError) Error() string {
	return fmt.Sprintf("not callable: %s", obj.Expr.String())
}

// TypeMismatchError is the checking error for a value whose type could
// neither be proven equivalent to the expected type nor converted to it.
type TypeMismatchError struct {
	// Expr is the offending expression.
	Expr fmt.Stringer

	// Expected is the type that was required.
	Expected fmt.Stringer

	// Actual is the type the expression was determined to have.
	Actual fmt.Stringer
}

// Error fulfills the error interface of this type.
func (obj *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: %s has type %s, expected %s", obj.Expr.String(), obj.Actual.String(), obj.Expected.String())
}

// AccessorFailureError is the checking error for an accessor whose object is
// not a variant type constant, or whose form name does not exist in it.
type AccessorFailureError struct {
	// Expr is the offending accessor expression.
	Expr fmt.Stringer

	// Field is the form name that was requested.
	Field string
}

// Error fulfills the error interface of this type.
func (obj *AccessorFailureError) Error() string {
	return fmt.Sprintf("accessor failure: no form `%s` on %s", obj.Field, obj.Expr.String())
}

// MultipleReturnTypesError is the checking error for a statement block where
// more than one direct substatement can return.
type MultipleReturnTypesError struct {
	// Stmt is the offending compound statement.
	Stmt fmt.Stringer
}

// Error fulfills the error interface of this type.
func (obj *MultipleReturnTypesError) Error() string {
	return fmt.Sprintf("multiple return types in: %s", obj.Stmt.String())
}

// UnresolvedVariableError is the preparation error for a name that no
// enclosing scope binds.
type UnresolvedVariableError struct {
	// Name is the variable name that could not be resolved.
	Name string
}

// Error fulfills the error interface of this type.
func (obj *UnresolvedVariableError) Error() string {
	return fmt.Sprintf("unresolved variable: %s", obj.Name)
}
