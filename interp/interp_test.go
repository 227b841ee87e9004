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

package interp

import (
	"fmt"
	"os"
	"testing"

	"github.com/kappa-lang/kappa/convert"
	"github.com/kappa-lang/kappa/types"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// interpret runs one expression through a fresh default interpreter and
// renders the result the way the cli does.
func interpret(t *testing.T, code string) (string, error) {
	interpreter := &Interpreter{
		Debug: testing.Verbose(), // set via the -test.v flag to `go test`
		Logf: func(format string, v ...interface{}) {
			t.Logf("interp: "+format, v...)
		},
	}
	if err := interpreter.Init(); err != nil {
		return "", err
	}
	value, typ, err := interpreter.InterpretStr(code)
	if err != nil {
		return "", err
	}
	return interpreter.Display(value, typ), nil
}

func TestInterpret0(t *testing.T) {
	type test struct { // an individual test
		name string
		code string
		fail bool
		exp  string
	}
	testCases := []test{
		{
			name: "literal",
			code: `42`,
			exp:  "42 : int",
		},
		{
			name: "arithmetic",
			code: `2 + 3`,
			exp:  "5 : int",
		},
		{
			name: "precedence",
			code: `(2 + 3) * 4`,
			exp:  "20 : int",
		},
		{
			name: "empty tuple",
			code: `()`,
			exp:  "() : ()",
		},
		{
			name: "tuple of values",
			code: `(1, 2 + 3)`,
			exp:  "(1, 5) : (int, int)",
		},
		{
			name: "a type is a value",
			code: `int`,
			exp:  "int : universal",
		},
		{
			name: "lambda call",
			code: `function (int x) { return x + 1; } (4)`,
			exp:  "5 : int",
		},
		{
			name: "lambda with two parameters",
			code: `function (int a, int b) { return a * b; } (6, 7)`,
			exp:  "42 : int",
		},
		{
			name: "lambda without parameters",
			code: `function () { return 9; } ()`,
			exp:  "9 : int",
		},
		{
			name: "identity on types",
			code: `function (universal t) { return t; } (int)`,
			exp:  "int : universal",
		},
		{
			name: "procedure block",
			code: `{ int a = 3; int b = 6; int c = a + b; c = c + a; return c; }`,
			exp:  "12 : int",
		},
		{
			name: "procedure without a return",
			code: `{ const a = 1; }`,
			exp:  "() : ()",
		},
		{
			name: "nested block mutation persists at runtime",
			code: `{ int a = 1; { a = 2; } return a; }`,
			exp:  "2 : int",
		},
		{
			name: "shadowing in a block expression",
			code: `{ int a = 1; const b = { const a = 5; return a; }; return a + b; }`,
			exp:  "6 : int",
		},
		{
			name: "curried closure",
			code: `{ const add = function (int a) { return function (int b) { return a + b; }; }; return add(1)(2); }`,
			exp:  "3 : int",
		},
		{
			name: "mutation inside a function stays local",
			code: `{ int a = 1; const f = function (int x) { return { a = a + x; return a; }; }; return (f(5), a); }`,
			exp:  "(6, 1) : (int, int)",
		},
		{
			name: "type reached through a const",
			code: `{ const t = int; maybe(t) m = maybe(int).just(1); return m; }`,
			exp:  "just(1) : variant{just int; nothing}",
		},
		{
			name: "type computed by a block-local function",
			code: `{ const pick = function (universal t) { return t; }; maybe(pick(int)) m = maybe(int).just(7); return m; }`,
			exp:  "just(7) : variant{just int; nothing}",
		},
		{
			name: "block with a computed type flows into a call",
			code: `function (maybe(int) y) { return y; } ({ const t = int; maybe(t) m = maybe(int).just(2); return m; })`,
			exp:  "just(2) : variant{just int; nothing}",
		},
		{
			name: "variant construction",
			code: `maybe(int).just(3)`,
			exp:  "just(3) : variant{just int; nothing}",
		},
		{
			name: "variant without a payload",
			code: `maybe(int).nothing()`,
			exp:  "nothing : variant{just int; nothing}",
		},
		{
			name: "dependent result type",
			code: `{ const id = function (universal t) { return t; }; return (id(int), 3); }`,
			exp:  "(int, 3) : (universal, int)",
		},
		{
			name: "calling a number",
			code: `3(4)`,
			fail: true,
		},
		{
			name: "unknown variant form",
			code: `maybe(int).frob`,
			fail: true,
		},
		{
			name: "argument type mismatch",
			code: `function (int x) { return x; } (maybe(int).nothing())`,
			fail: true,
		},
		{
			name: "argument arity mismatch",
			code: `function (int a, int b) { return a; } (1, 2, 3)`,
			fail: true,
		},
		{
			name: "declared type mismatch",
			code: `{ int a = (); return a; }`,
			fail: true,
		},
		{
			name: "two returns in one block",
			code: `{ return 1; return 2; }`,
			fail: true,
		},
		{
			name: "unresolved variable",
			code: `nonexistent`,
			fail: true,
		},
		{
			name: "division by zero",
			code: `1 / 0`,
			fail: true,
		},
		{
			name: "assignment without a define",
			code: `{ a = 1; }`,
			fail: true,
		},
	}

	for index, tc := range testCases { // run all the tests
		if tc.name == "" {
			t.Errorf("test #%d: not named", index)
			continue
		}
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			out, err := interpret(t, tc.code)
			if tc.fail {
				if err == nil {
					t.Errorf("test #%d: FAIL", index)
					t.Errorf("test #%d: should have failed, got: %s", index, out)
				}
				return
			}
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: failed with: %+v", index, err)
				return
			}
			if out != tc.exp {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: got: %s", index, out)
				t.Errorf("test #%d: want: %s", index, tc.exp)
			}
		})
	}
}

func TestInterpretRules0(t *testing.T) {
	// a custom conversion rule turns an int into a pair of ints; the
	// declared type then converts the initializer instead of rejecting it
	duplicate := func(conversions types.Callable, from, to types.Value) (types.Value, bool, error) {
		if _, ok := from.(*types.BasicTypeValue); !ok {
			return nil, false, nil
		}
		tt, ok := to.(*types.TupleValue)
		if !ok || len(tt.V) != 2 {
			return nil, false, nil
		}
		conv := &types.NativeFuncValue{
			Name: "duplicate",
			Fn: func(arg types.Value) (types.Value, error) {
				return &types.TupleValue{V: []types.Value{arg, arg.Copy()}}, nil
			},
		}
		return conv, true, nil
	}

	interpreter := &Interpreter{
		Rules: []convert.Rule{duplicate},
		Logf: func(format string, v ...interface{}) {
			t.Logf("interp: "+format, v...)
		},
	}
	if err := interpreter.Init(); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	value, typ, err := interpreter.InterpretStr(`{ (int, int) p = 7; return p; }`)
	if err != nil {
		t.Fatalf("interpret failed: %+v", err)
	}
	if out := interpreter.Display(value, typ); out != "(7, 7) : (int, int)" {
		t.Errorf("got: %s", out)
	}
}

func TestInterpretFile0(t *testing.T) {
	fs := afero.NewMemMapFs()
	code := `
	// compute a pair
	int a = 2;
	int b = a * 10 + 1;
	return (a, b);
	`
	if err := afero.WriteFile(fs, "main.kp", []byte(code), 0644); err != nil {
		t.Fatalf("write failed: %+v", err)
	}

	interpreter := &Interpreter{
		Logf: func(format string, v ...interface{}) {
			t.Logf("interp: "+format, v...)
		},
	}
	if err := interpreter.Init(); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	value, typ, err := interpreter.InterpretFile(fs, "main.kp")
	if err != nil {
		t.Fatalf("interpret failed: %+v", err)
	}
	if out := interpreter.Display(value, typ); out != "(2, 21) : (int, int)" {
		t.Errorf("got: %s", out)
	}
}

func TestInterpretCorpus0(t *testing.T) {
	// the corpus holds whole programs, one statement sequence each
	type program struct {
		Name   string `yaml:"name"`
		Code   string `yaml:"code"`
		Fail   bool   `yaml:"fail"`
		Output string `yaml:"output"`
	}
	b, err := os.ReadFile("testdata/programs.yaml")
	if err != nil {
		t.Fatalf("could not read the corpus: %+v", err)
	}
	var programs []program
	if err := yaml.Unmarshal(b, &programs); err != nil {
		t.Fatalf("could not unmarshal the corpus: %+v", err)
	}
	if len(programs) == 0 {
		t.Fatalf("the corpus is empty")
	}

	for index, p := range programs { // run all the tests
		if p.Name == "" {
			t.Errorf("program #%d: not named", index)
			continue
		}
		t.Run(fmt.Sprintf("program #%d (%s)", index, p.Name), func(t *testing.T) {
			interpreter := &Interpreter{
				Logf: func(format string, v ...interface{}) {
					t.Logf("interp: "+format, v...)
				},
			}
			if err := interpreter.Init(); err != nil {
				t.Fatalf("init failed: %+v", err)
			}
			fs := afero.NewMemMapFs()
			if err := afero.WriteFile(fs, "program.kp", []byte(p.Code), 0644); err != nil {
				t.Fatalf("write failed: %+v", err)
			}
			value, typ, err := interpreter.InterpretFile(fs, "program.kp")
			if p.Fail {
				if err == nil {
					t.Errorf("program #%d: should have failed, got: %s", index, interpreter.Display(value, typ))
				}
				return
			}
			if err != nil {
				t.Errorf("program #%d: failed with: %+v", index, err)
				return
			}
			if out := interpreter.Display(value, typ); out != p.Output {
				t.Errorf("program #%d: got: %s", index, out)
				t.Errorf("program #%d: want: %s", index, p.Output)
			}
		})
	}
}
