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

// Package interp wires the engines together and runs the pipeline: init,
// scope resolution, checking, reduction, evaluation. It is the only package
// that knows about all of the parts; the ast reaches the equivalence and
// conversion engines through the Data struct built here.
package interp

import (
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/afero"

	"github.com/kappa-lang/kappa/convert"
	"github.com/kappa-lang/kappa/funcs"
	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/parser"
	"github.com/kappa-lang/kappa/types"
	"github.com/kappa-lang/kappa/util/errwrap"
)

// Interpreter holds the environment and the engines, and runs expressions
// through the full pipeline. The zero value plus Init gives the default
// environment; fields may be set before Init to swap parts out.
type Interpreter struct {
	// Debug represents if we're running in debug mode or not.
	Debug bool

	// Logf is the logging function to use.
	Logf func(format string, v ...interface{})

	// Env is the root environment. Nil means the default one.
	Env *funcs.Env

	// Convert resolves conversions. Nil means a fresh factory with the
	// given extension rules.
	Convert interfaces.Resolver

	// Rules are extension rules for the default conversion factory.
	Rules []convert.Rule

	data *interfaces.Data
}

// Init validates the interpreter and builds the engines.
func (obj *Interpreter) Init() error {
	if obj.Logf == nil {
		obj.Logf = func(format string, v ...interface{}) {}
	}
	if obj.Env == nil {
		obj.Env = funcs.DefaultEnv()
	}
	if obj.Convert == nil {
		factory := &convert.Factory{
			Debug: obj.Debug,
			Logf:  obj.Logf,
			Rules: obj.Rules,
		}
		if err := factory.Init(); err != nil {
			return errwrap.Wrapf(err, "could not build the conversion factory")
		}
		obj.Convert = factory
	}
	obj.data = &interfaces.Data{
		Debug:      obj.Debug,
		Logf:       obj.Logf,
		Convert:    obj.Convert,
		Equivalent: convert.Equivalent,
		Literal:    obj.Env.Literal,
	}
	return nil
}

// Interpret runs a parsed expression through the pipeline and returns its
// value together with its type as an expression. There are no partial
// results; the first failure aborts.
func (obj *Interpreter) Interpret(expr interfaces.Expr) (types.Value, interfaces.Expr, error) {
	if obj.data == nil {
		if err := obj.Init(); err != nil {
			return nil, nil, err
		}
	}
	if err := expr.Init(obj.data); err != nil {
		return nil, nil, errwrap.Wrapf(err, "could not init")
	}
	if err := expr.SetScope(obj.Env.Scope()); err != nil {
		return nil, nil, err
	}
	if obj.Debug {
		count := 0
		if err := expr.Apply(func(interfaces.Node) error {
			count++
			return nil
		}); err != nil {
			return nil, nil, err
		}
		obj.Logf("prepared %d nodes", count)
	}

	typs := obj.Env.TypeStack()
	vals := obj.Env.ValueStack()
	checked, typ, err := expr.Check(typs, vals)
	if err != nil {
		return nil, nil, err
	}
	if obj.Debug {
		obj.Logf("checked: %s", spew.Sdump(checked))
	}

	reduced, err := checked.Reduce(typs.Next())
	if err != nil {
		return nil, nil, errwrap.Wrapf(err, "could not reduce")
	}

	value, err := reduced.Evaluate(obj.Env.RuntimeStack())
	if err != nil {
		return nil, nil, err
	}
	return value, typ, nil
}

// InterpretStr parses a single expression and interprets it. A braced block
// is an expression too, so interactive input can hold whole procedures.
func (obj *Interpreter) InterpretStr(code string) (types.Value, interfaces.Expr, error) {
	expr, err := parser.ParseExpression(code)
	if err != nil {
		return nil, nil, errwrap.Wrapf(err, "could not parse")
	}
	return obj.Interpret(expr)
}

// InterpretFile reads a program (a statement sequence) from a filesystem
// handle and interprets it.
func (obj *Interpreter) InterpretFile(fs afero.Fs, path string) (types.Value, interfaces.Expr, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, nil, errwrap.Wrapf(err, "could not read %s", path)
	}
	expr, err := parser.ParseProgram(string(b))
	if err != nil {
		return nil, nil, errwrap.Wrapf(err, "could not parse %s", path)
	}
	return obj.Interpret(expr)
}

// Display renders an interpretation result as `value : type`. The type
// expression is closed over the root environment and evaluated, so the value
// can be displayed under it; if that fails the raw forms are shown.
func (obj *Interpreter) Display(value types.Value, typ interfaces.Expr) string {
	closed, err := typ.Substitute(obj.Env.ValueStack())
	if err != nil {
		return fmt.Sprintf("%s : %s", value, typ)
	}
	tv, err := closed.Evaluate(obj.Env.RuntimeStack())
	if err != nil {
		return fmt.Sprintf("%s : %s", value, typ)
	}
	return fmt.Sprintf("%s : %s", value.Display(tv), tv)
}
