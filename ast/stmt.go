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
	"strings"

	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/stack"
	"github.com/kappa-lang/kappa/types"
)

// StmtCompound is a sequence of statements sharing one block scope. Nested
// blocks re-use the enclosing procedure's activation frame; their names go
// out of scope at the closing brace but their slots stay burned.
type StmtCompound struct {
	data *interfaces.Data

	// Stmts are the statements, in order.
	Stmts []interfaces.Stmt
}

// String returns a short representation of this statement.
func (obj *StmtCompound) String() string {
	parts := make([]string, len(obj.Stmts))
	for i, s := range obj.Stmts {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

// Apply is a general purpose iterator method that operates on any statement.
func (obj *StmtCompound) Apply(fn func(interfaces.Node) error) error {
	for _, s := range obj.Stmts {
		if err := s.Apply(fn); err != nil {
			return err
		}
	}
	return fn(obj)
}

// Init initializes this branch of the AST.
func (obj *StmtCompound) Init(data *interfaces.Data) error {
	obj.data = data
	for _, s := range obj.Stmts {
		if err := s.Init(data); err != nil {
			return err
		}
	}
	return nil
}

// SetScope resolves the statements in a child scope that shares the enclosing
// slot counter.
func (obj *StmtCompound) SetScope(scope *interfaces.Scope) error {
	block := scope.Child()
	for _, s := range obj.Stmts {
		if err := s.SetScope(block); err != nil {
			return err
		}
	}
	return nil
}

// Check checks the statements in order, threading the state through. A nested
// block's defines and assignment facts are dropped at its closing brace: the
// type and value stacks are cut back and the map is restored. At most one
// direct substatement may return.
func (obj *StmtCompound) Check(st *interfaces.StmtState) (interfaces.Stmt, interfaces.Expr, error) {
	stmts := make([]interfaces.Stmt, len(obj.Stmts))
	var retType interfaces.Expr
	returners := 0
	for i, s := range obj.Stmts {
		if sub, ok := s.(*StmtCompound); ok {
			boundary := st.Types.Next()
			saved := st.Map
			out, rt, err := sub.Check(st)
			if err != nil {
				return nil, nil, err
			}
			st.Types = st.Types.Cut(boundary)
			st.Values = st.Values.Cut(boundary)
			st.Map = saved
			stmts[i] = out
			if rt != nil {
				returners++
				retType = rt
			}
			continue
		}
		out, rt, err := s.Check(st)
		if err != nil {
			return nil, nil, err
		}
		stmts[i] = out
		if rt != nil {
			returners++
			retType = rt
		}
	}
	if returners > 1 {
		return nil, nil, &interfaces.MultipleReturnTypesError{Stmt: obj}
	}
	return &StmtCompound{data: obj.data, Stmts: stmts}, retType, nil
}

// Execute runs the statements in order, stopping at the first reached return.
func (obj *StmtCompound) Execute(st *stack.Stack[types.Value]) (types.Value, bool, error) {
	for _, s := range obj.Stmts {
		v, returned, err := s.Execute(st)
		if err != nil {
			return nil, false, err
		}
		if returned {
			return v, true, nil
		}
	}
	return nil, false, nil
}

// StmtDefine introduces a new variable: `T name = e;` with a declared type,
// or `const name = e;` with the type inferred from the expression. The slot
// was allocated during preparation; execution pushes onto the activation
// frame in the same order, so the indices line up.
type StmtDefine struct {
	data *interfaces.Data

	// TypeExpr is the declared type, or nil for a const define.
	TypeExpr interfaces.Expr

	// Name is the variable's name.
	Name string

	// Value is the defining expression.
	Value interfaces.Expr

	slot int
}

// String returns a short representation of this statement.
func (obj *StmtDefine) String() string {
	if obj.TypeExpr == nil {
		return fmt.Sprintf("const %s = %s;", obj.Name, obj.Value)
	}
	return fmt.Sprintf("%s %s = %s;", obj.TypeExpr, obj.Name, obj.Value)
}

// Apply is a general purpose iterator method that operates on any statement.
func (obj *StmtDefine) Apply(fn func(interfaces.Node) error) error {
	if obj.TypeExpr != nil {
		if err := obj.TypeExpr.Apply(fn); err != nil {
			return err
		}
	}
	if err := obj.Value.Apply(fn); err != nil {
		return err
	}
	return fn(obj)
}

// Init initializes this branch of the AST.
func (obj *StmtDefine) Init(data *interfaces.Data) error {
	obj.data = data
	if obj.TypeExpr != nil {
		if err := obj.TypeExpr.Init(data); err != nil {
			return err
		}
	}
	return obj.Value.Init(data)
}

// SetScope resolves the type and value before binding the name, so that the
// defining expression may mention an enclosing variable of the same name.
func (obj *StmtDefine) SetScope(scope *interfaces.Scope) error {
	if obj.TypeExpr != nil {
		if err := obj.TypeExpr.SetScope(scope); err != nil {
			return err
		}
	}
	if err := obj.Value.SetScope(scope); err != nil {
		return err
	}
	ref := scope.Bind(obj.Name)
	obj.slot = ref.Index
	return nil
}

// Check checks the defining expression against the assignment-adjusted value
// stack, enforces the declared type if there is one, and extends the type and
// value stacks with the new slot.
func (obj *StmtDefine) Check(st *interfaces.StmtState) (interfaces.Stmt, interfaces.Expr, error) {
	overlay := st.Map.Apply(st.Values)
	value, valueType, err := obj.Value.Check(st.Types, overlay)
	if err != nil {
		return nil, nil, err
	}
	declared := valueType
	var typExpr interfaces.Expr
	if obj.TypeExpr != nil {
		out, _, err := obj.TypeExpr.Check(st.Types, overlay)
		if err != nil {
			return nil, nil, err
		}
		typExpr = out
		value, err = convertArg(obj.data, obj, value, valueType, typExpr, overlay)
		if err != nil {
			return nil, nil, err
		}
		declared = typExpr
	}
	st.Types = st.Types.AppendAt(obj.slot, []interfaces.Expr{declared})
	st.Values = st.Values.AppendAt(obj.slot, []interfaces.Expr{value})
	out := &StmtDefine{data: obj.data, TypeExpr: typExpr, Name: obj.Name, Value: value, slot: obj.slot}
	return out, nil, nil
}

// Execute evaluates the defining expression and pushes it onto the activation
// frame.
func (obj *StmtDefine) Execute(st *stack.Stack[types.Value]) (types.Value, bool, error) {
	v, err := obj.Value.Evaluate(st)
	if err != nil {
		return nil, false, err
	}
	slot, err := st.Push(v)
	if err != nil {
		return nil, false, err
	}
	if slot != obj.slot {
		return nil, false, fmt.Errorf("frame misaligned: %s got slot %d, want %d", obj.Name, slot, obj.slot)
	}
	return nil, false, nil
}

// StmtAssign overwrites an existing variable: `name = e;`. Preparation
// guarantees the target is a slot in the enclosing procedure's own frame;
// enclosing variables were cloned into local slots at the block's entry, so
// mutation never escapes the activation.
type StmtAssign struct {
	data *interfaces.Data

	// Name is the target variable's name.
	Name string

	// Value is the assigned expression.
	Value interfaces.Expr

	index int
}

// String returns a short representation of this statement.
func (obj *StmtAssign) String() string {
	return fmt.Sprintf("%s = %s;", obj.Name, obj.Value)
}

// Apply is a general purpose iterator method that operates on any statement.
func (obj *StmtAssign) Apply(fn func(interfaces.Node) error) error {
	if err := obj.Value.Apply(fn); err != nil {
		return err
	}
	return fn(obj)
}

// Init initializes this branch of the AST.
func (obj *StmtAssign) Init(data *interfaces.Data) error {
	obj.data = data
	return obj.Value.Init(data)
}

// SetScope resolves the value and the target. The target must resolve at the
// procedure's own functional depth; cloning makes that hold for any name that
// is visible at all.
func (obj *StmtAssign) SetScope(scope *interfaces.Scope) error {
	if err := obj.Value.SetScope(scope); err != nil {
		return err
	}
	ref, ok := scope.Lookup(obj.Name)
	if !ok {
		return &interfaces.UnresolvedVariableError{Name: obj.Name}
	}
	if scope.Depth() != ref.Depth {
		return fmt.Errorf("assignment to %s crosses a function boundary", obj.Name)
	}
	obj.index = ref.Index
	return nil
}

// Check verifies the assigned expression against the slot's tracked type,
// inserting a conversion if needed, and records the assignment fact in the
// map so that later statements see the new symbolic value.
func (obj *StmtAssign) Check(st *interfaces.StmtState) (interfaces.Stmt, interfaces.Expr, error) {
	typ, _, ok := st.Types.Lookup(obj.index, 0)
	if !ok {
		return nil, nil, fmt.Errorf("assignment target %s has no type", obj.Name)
	}
	overlay := st.Map.Apply(st.Values)
	value, valueType, err := obj.Value.Check(st.Types, overlay)
	if err != nil {
		return nil, nil, err
	}
	value, err = convertArg(obj.data, obj, value, valueType, typ, overlay)
	if err != nil {
		return nil, nil, err
	}
	st.Map = st.Map.Extend(obj.index, value)
	out := &StmtAssign{data: obj.data, Name: obj.Name, Value: value, index: obj.index}
	return out, nil, nil
}

// Execute evaluates the expression and overwrites the slot in place.
func (obj *StmtAssign) Execute(st *stack.Stack[types.Value]) (types.Value, bool, error) {
	v, err := obj.Value.Evaluate(st)
	if err != nil {
		return nil, false, err
	}
	if err := st.Modify(obj.index, 0, v); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}

// StmtReturn ends the enclosing procedure with a value: `return e;`.
type StmtReturn struct {
	data *interfaces.Data

	// Value is the returned expression.
	Value interfaces.Expr
}

// String returns a short representation of this statement.
func (obj *StmtReturn) String() string {
	return fmt.Sprintf("return %s;", obj.Value)
}

// Apply is a general purpose iterator method that operates on any statement.
func (obj *StmtReturn) Apply(fn func(interfaces.Node) error) error {
	if err := obj.Value.Apply(fn); err != nil {
		return err
	}
	return fn(obj)
}

// Init initializes this branch of the AST.
func (obj *StmtReturn) Init(data *interfaces.Data) error {
	obj.data = data
	return obj.Value.Init(data)
}

// SetScope resolves the returned expression.
func (obj *StmtReturn) SetScope(scope *interfaces.Scope) error {
	return obj.Value.SetScope(scope)
}

// Check checks the returned expression; its type is the statement's return
// type. The type escapes the procedure, so it is closed over the symbolic
// value stack here, while the block's local slots are still in it: a type
// mentioning a local would otherwise leave as a dangling slot reference.
func (obj *StmtReturn) Check(st *interfaces.StmtState) (interfaces.Stmt, interfaces.Expr, error) {
	overlay := st.Map.Apply(st.Values)
	value, valueType, err := obj.Value.Check(st.Types, overlay)
	if err != nil {
		return nil, nil, err
	}
	valueType, err = closeExpr(valueType, overlay)
	if err != nil {
		return nil, nil, err
	}
	return &StmtReturn{data: obj.data, Value: value}, valueType, nil
}

// Execute evaluates the expression and signals the return.
func (obj *StmtReturn) Execute(st *stack.Stack[types.Value]) (types.Value, bool, error) {
	v, err := obj.Value.Evaluate(st)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

// assignedOutside walks a statement tree and collects, in first-appearance
// order, the names that are assigned somewhere in it but defined outside of
// it (in the given enclosing scope). These are the variables a procedure must
// clone at activation. Nested procedure expressions handle their own clones,
// so the walk does not descend into expressions.
func assignedOutside(body interfaces.Stmt, outer *interfaces.Scope) []string {
	var names []string
	seen := make(map[string]struct{})
	var walk func(stmt interfaces.Stmt, locals map[string]struct{})
	walk = func(stmt interfaces.Stmt, locals map[string]struct{}) {
		switch node := stmt.(type) {
		case *StmtCompound:
			block := make(map[string]struct{}, len(locals))
			for k := range locals {
				block[k] = struct{}{}
			}
			for _, s := range node.Stmts {
				walk(s, block)
			}
		case *StmtDefine:
			locals[node.Name] = struct{}{}
		case *StmtAssign:
			if _, ok := locals[node.Name]; ok {
				return
			}
			if _, ok := seen[node.Name]; ok {
				return
			}
			if _, ok := outer.Lookup(node.Name); !ok {
				return // unresolved; reported during SetScope
			}
			seen[node.Name] = struct{}{}
			names = append(names, node.Name)
		}
	}
	walk(body, make(map[string]struct{}))
	return names
}

// substituteStmt maps Substitute over the expressions of a statement tree.
func substituteStmt(stmt interfaces.Stmt, exprs *stack.Stack[interfaces.Expr]) (interfaces.Stmt, error) {
	switch node := stmt.(type) {
	case *StmtCompound:
		stmts := make([]interfaces.Stmt, len(node.Stmts))
		for i, s := range node.Stmts {
			out, err := substituteStmt(s, exprs)
			if err != nil {
				return nil, err
			}
			stmts[i] = out
		}
		return &StmtCompound{data: node.data, Stmts: stmts}, nil

	case *StmtDefine:
		var typExpr interfaces.Expr
		if node.TypeExpr != nil {
			out, err := node.TypeExpr.Substitute(exprs)
			if err != nil {
				return nil, err
			}
			typExpr = out
		}
		value, err := node.Value.Substitute(exprs)
		if err != nil {
			return nil, err
		}
		return &StmtDefine{data: node.data, TypeExpr: typExpr, Name: node.Name, Value: value, slot: node.slot}, nil

	case *StmtAssign:
		value, err := node.Value.Substitute(exprs)
		if err != nil {
			return nil, err
		}
		return &StmtAssign{data: node.data, Name: node.Name, Value: value, index: node.index}, nil

	case *StmtReturn:
		value, err := node.Value.Substitute(exprs)
		if err != nil {
			return nil, err
		}
		return &StmtReturn{data: node.data, Value: value}, nil
	}
	return nil, fmt.Errorf("cannot substitute statement: %+v", stmt)
}

// reduceStmt maps Reduce over the expressions of a statement tree.
func reduceStmt(stmt interfaces.Stmt, next int) (interfaces.Stmt, error) {
	switch node := stmt.(type) {
	case *StmtCompound:
		stmts := make([]interfaces.Stmt, len(node.Stmts))
		for i, s := range node.Stmts {
			out, err := reduceStmt(s, next)
			if err != nil {
				return nil, err
			}
			stmts[i] = out
		}
		return &StmtCompound{data: node.data, Stmts: stmts}, nil

	case *StmtDefine:
		var typExpr interfaces.Expr
		if node.TypeExpr != nil {
			out, err := node.TypeExpr.Reduce(next)
			if err != nil {
				return nil, err
			}
			typExpr = out
		}
		value, err := node.Value.Reduce(next)
		if err != nil {
			return nil, err
		}
		return &StmtDefine{data: node.data, TypeExpr: typExpr, Name: node.Name, Value: value, slot: node.slot}, nil

	case *StmtAssign:
		value, err := node.Value.Reduce(next)
		if err != nil {
			return nil, err
		}
		return &StmtAssign{data: node.data, Name: node.Name, Value: value, index: node.index}, nil

	case *StmtReturn:
		value, err := node.Value.Reduce(next)
		if err != nil {
			return nil, err
		}
		return &StmtReturn{data: node.data, Value: value}, nil
	}
	return nil, fmt.Errorf("cannot reduce statement: %+v", stmt)
}
