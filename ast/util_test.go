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
	"testing"

	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/stack"
	"github.com/kappa-lang/kappa/types"
	"github.com/kappa-lang/kappa/util/errwrap"
)

func TestShift0(t *testing.T) {
	type test struct { // an individual test
		name  string
		expr  interfaces.Expr
		delta int
		exp   func(out interfaces.Expr) error
		fail  bool
	}

	expectVar := func(index, depth int) func(out interfaces.Expr) error {
		return func(out interfaces.Expr) error {
			v, ok := out.(*ExprVar)
			if !ok {
				return fmt.Errorf("not a variable: %s", out)
			}
			if v.index != index || v.depth != depth {
				return fmt.Errorf("got %d/%d, want %d/%d", v.index, v.depth, index, depth)
			}
			return nil
		}
	}

	testCases := []test{
		{
			name:  "free variable shifts",
			expr:  NewVarRef("x", 3, 0),
			delta: 1,
			exp:   expectVar(3, 1),
		},
		{
			name:  "free variable shifts down",
			expr:  NewVarRef("x", 3, 2),
			delta: -1,
			exp:   expectVar(3, 1),
		},
		{
			name:  "shift down underflows",
			expr:  NewVarRef("x", 0, 0),
			delta: -1,
			fail:  true,
		},
		{
			name:  "closed value untouched",
			expr:  &ExprValue{V: &types.IntValue{V: 5}},
			delta: 1,
			exp: func(out interfaces.Expr) error {
				if _, ok := out.(*ExprValue); !ok {
					return fmt.Errorf("not a value: %s", out)
				}
				return nil
			},
		},
		{
			name: "argument bound inside stays",
			expr: &ExprFuncDefine{
				ArgName: "a",
				ArgType: ExprUniversal,
				Body:    NewVarRef("a", 0, 0),
			},
			delta: 1,
			exp: func(out interfaces.Expr) error {
				fd, ok := out.(*ExprFuncDefine)
				if !ok {
					return fmt.Errorf("not a function: %s", out)
				}
				return expectVar(0, 0)(fd.Body)
			},
		},
		{
			name: "free variable under a binder shifts",
			expr: &ExprFuncDefine{
				ArgName: "a",
				ArgType: ExprUniversal,
				Body:    NewVarRef("x", 2, 1),
			},
			delta: 1,
			exp: func(out interfaces.Expr) error {
				fd, ok := out.(*ExprFuncDefine)
				if !ok {
					return fmt.Errorf("not a function: %s", out)
				}
				return expectVar(2, 2)(fd.Body)
			},
		},
		{
			name: "tuple break component stays",
			expr: &ExprTupleBreak{
				Source: NewVarRef("src", 0, 0),
				Names:  []string{"a", "b"},
				Body:   NewVarRef("a", 5, 0),
				start:  5,
			},
			delta: 1,
			exp: func(out interfaces.Expr) error {
				tb, ok := out.(*ExprTupleBreak)
				if !ok {
					return fmt.Errorf("not a tuple break: %s", out)
				}
				if err := expectVar(5, 0)(tb.Body); err != nil {
					return err
				}
				// the source is outside and shifts
				return expectVar(0, 1)(tb.Source)
			},
		},
		{
			name: "same level variable below the break floor shifts",
			expr: &ExprTupleBreak{
				Source: &ExprValue{V: &types.TupleValue{}},
				Names:  nil,
				Body:   NewVarRef("x", 2, 0),
				start:  5,
			},
			delta: 1,
			exp: func(out interfaces.Expr) error {
				tb, ok := out.(*ExprTupleBreak)
				if !ok {
					return fmt.Errorf("not a tuple break: %s", out)
				}
				return expectVar(2, 1)(tb.Body)
			},
		},
	}

	for index, tc := range testCases { // run all the tests
		if tc.name == "" {
			t.Errorf("test #%d: not named", index)
			continue
		}
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			out, err := Shift(tc.expr, tc.delta)
			if tc.fail {
				if err == nil {
					t.Errorf("test #%d: FAIL", index)
					t.Errorf("test #%d: shift should have failed", index)
				}
				return
			}
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: shift failed with: %+v", index, err)
				return
			}
			if err := tc.exp(out); err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: %+v", index, err)
			}
		})
	}
}

func TestShiftZero0(t *testing.T) {
	// a zero shift returns the expression itself
	expr := NewVarRef("x", 1, 1)
	out, err := Shift(expr, 0)
	if err != nil {
		t.Fatalf("shift failed: %+v", err)
	}
	if out != interfaces.Expr(expr) {
		t.Errorf("a zero shift must be the identity")
	}
}

func TestCompress0(t *testing.T) {
	type test struct { // an individual test
		name  string
		expr  interfaces.Expr
		from  int
		count int
		exp   func(out interfaces.Expr) error
		fail  bool
	}

	expectVar := func(index, depth int) func(out interfaces.Expr) error {
		return func(out interfaces.Expr) error {
			v, ok := out.(*ExprVar)
			if !ok {
				return fmt.Errorf("not a variable: %s", out)
			}
			if v.index != index || v.depth != depth {
				return fmt.Errorf("got %d/%d, want %d/%d", v.index, v.depth, index, depth)
			}
			return nil
		}
	}

	testCases := []test{
		{
			name:  "index above the range slides down",
			expr:  NewVarRef("x", 4, 0),
			from:  1,
			count: 2,
			exp:   expectVar(2, 0),
		},
		{
			name:  "index below the range stays",
			expr:  NewVarRef("x", 0, 0),
			from:  1,
			count: 2,
			exp:   expectVar(0, 0),
		},
		{
			name:  "index inside the range fails",
			expr:  NewVarRef("x", 2, 0),
			from:  1,
			count: 2,
			fail:  true,
		},
		{
			name:  "other depth level untouched",
			expr:  NewVarRef("x", 2, 1),
			from:  1,
			count: 2,
			exp:   expectVar(2, 1),
		},
		{
			name: "root level reached through a binder",
			expr: &ExprFuncDefine{
				ArgName: "a",
				ArgType: ExprUniversal,
				Body:    NewVarRef("x", 4, 1),
			},
			from:  1,
			count: 2,
			exp: func(out interfaces.Expr) error {
				fd, ok := out.(*ExprFuncDefine)
				if !ok {
					return fmt.Errorf("not a function: %s", out)
				}
				return expectVar(2, 1)(fd.Body)
			},
		},
		{
			name: "inner break start slides with its variables",
			expr: &ExprTupleBreak{
				Source: &ExprValue{V: &types.TupleValue{V: []types.Value{&types.IntValue{V: 1}}}},
				Names:  []string{"a"},
				Body:   NewVarRef("a", 5, 0),
				start:  5,
			},
			from:  1,
			count: 2,
			exp: func(out interfaces.Expr) error {
				tb, ok := out.(*ExprTupleBreak)
				if !ok {
					return fmt.Errorf("not a tuple break: %s", out)
				}
				if tb.start != 3 {
					return fmt.Errorf("start: got %d, want 3", tb.start)
				}
				return expectVar(3, 0)(tb.Body)
			},
		},
	}

	for index, tc := range testCases { // run all the tests
		if tc.name == "" {
			t.Errorf("test #%d: not named", index)
			continue
		}
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			out, err := Compress(tc.expr, tc.from, tc.count)
			if tc.fail {
				if err == nil {
					t.Errorf("test #%d: FAIL", index)
					t.Errorf("test #%d: compress should have failed", index)
					return
				}
				if errwrap.Cause(err) != ErrCompress {
					t.Errorf("test #%d: wrong cause: %+v", index, err)
				}
				return
			}
			if err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: compress failed with: %+v", index, err)
				return
			}
			if err := tc.exp(out); err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: %+v", index, err)
			}
		})
	}
}

func TestBetaExpand0(t *testing.T) {
	// the body returns the argument; expansion yields the argument itself
	def := &ExprFuncDefine{
		ArgName: "x",
		ArgType: ExprUniversal,
		Body:    NewVarRef("x", 0, 0),
	}
	arg := &ExprValue{V: &types.IntValue{V: 7}}
	out, err := betaExpand(def, arg)
	if err != nil {
		t.Fatalf("beta expansion failed: %+v", err)
	}
	v, ok := out.(*ExprValue)
	if !ok {
		t.Fatalf("not a value: %s", out)
	}
	if err := v.V.Cmp(&types.IntValue{V: 7}); err != nil {
		t.Errorf("beta expansion: got %s, want 7", v)
	}
}

func TestBetaExpand1(t *testing.T) {
	// a free variable in the body survives, shifted back to its old depth
	def := &ExprFuncDefine{
		ArgName: "x",
		ArgType: ExprUniversal,
		Body:    NewVarRef("y", 2, 1),
	}
	arg := &ExprValue{V: &types.IntValue{V: 7}}
	out, err := betaExpand(def, arg)
	if err != nil {
		t.Fatalf("beta expansion failed: %+v", err)
	}
	v, ok := out.(*ExprVar)
	if !ok {
		t.Fatalf("not a variable: %s", out)
	}
	if v.index != 2 || v.depth != 0 {
		t.Errorf("free variable: got %d/%d, want 2/0", v.index, v.depth)
	}
}

func TestBetaExpand2(t *testing.T) {
	// the argument may itself be an open variable; it lands at the body's
	// use site unshifted after the down shift cancels the up shift
	def := &ExprFuncDefine{
		ArgName: "x",
		ArgType: ExprUniversal,
		Body: &ExprCall{
			Fn:  NewVarRef("f", 1, 1),
			Arg: NewVarRef("x", 0, 0),
		},
	}
	arg := NewVarRef("a", 4, 0)
	out, err := betaExpand(def, arg)
	if err != nil {
		t.Fatalf("beta expansion failed: %+v", err)
	}
	call, ok := out.(*ExprCall)
	if !ok {
		t.Fatalf("not a call: %s", out)
	}
	fn, ok := call.Fn.(*ExprVar)
	if !ok || fn.index != 1 || fn.depth != 0 {
		t.Errorf("function position: got %s", call.Fn)
	}
	a, ok := call.Arg.(*ExprVar)
	if !ok || a.index != 4 || a.depth != 0 {
		t.Errorf("argument position: got %s", call.Arg)
	}
}

func TestTupleBreakReduce0(t *testing.T) {
	// a body that never reads the components elides the break
	tb := &ExprTupleBreak{
		Source: &ExprValue{V: &types.TupleValue{V: []types.Value{&types.IntValue{V: 1}, &types.IntValue{V: 2}}}},
		Names:  []string{"a", "b"},
		Body:   &ExprValue{V: &types.IntValue{V: 9}},
		start:  3,
	}
	out, err := tb.Reduce(5)
	if err != nil {
		t.Fatalf("reduce failed: %+v", err)
	}
	if _, ok := out.(*ExprValue); !ok {
		t.Errorf("the break should have been elided, got %s", out)
	}
}

func TestTupleBreakReduce1(t *testing.T) {
	// a body that reads a component keeps the break
	tb := &ExprTupleBreak{
		Source: &ExprValue{V: &types.TupleValue{V: []types.Value{&types.IntValue{V: 1}, &types.IntValue{V: 2}}}},
		Names:  []string{"a", "b"},
		Body:   NewVarRef("a", 3, 0),
		start:  3,
	}
	out, err := tb.Reduce(5)
	if err != nil {
		t.Fatalf("reduce failed: %+v", err)
	}
	if _, ok := out.(*ExprTupleBreak); !ok {
		t.Errorf("the break should have been kept, got %s", out)
	}
}

func TestTupleBreakEvaluate0(t *testing.T) {
	// spread a pair over the reserved slots and read them back
	tb := &ExprTupleBreak{
		Source: &ExprValue{V: &types.TupleValue{V: []types.Value{&types.IntValue{V: 10}, &types.IntValue{V: 20}}}},
		Names:  []string{"a", "b"},
		Body: &ExprTuple{Parts: []interfaces.Expr{
			NewVarRef("b", 2, 0),
			NewVarRef("a", 1, 0),
		}},
		start: 1,
	}
	var empty *stack.Stack[types.Value]
	st := empty.Append([]types.Value{&types.IntValue{V: 0}}) // slot 0 is taken
	out, err := tb.Evaluate(st)
	if err != nil {
		t.Fatalf("evaluate failed: %+v", err)
	}
	exp := &types.TupleValue{V: []types.Value{&types.IntValue{V: 20}, &types.IntValue{V: 10}}}
	if err := out.Cmp(exp); err != nil {
		t.Errorf("evaluate: got %s, want %s", out, exp)
	}
}

func TestVariantConstructor0(t *testing.T) {
	maybeInt := &types.VariantTypeValue{Forms: []types.VariantForm{
		{Name: "just", Payload: &types.BasicTypeValue{Name: "int"}},
		{Name: "nothing"},
	}}

	just := variantConstructor(maybeInt, 0)
	out, err := just.Call(&types.IntValue{V: 3})
	if err != nil {
		t.Fatalf("constructor call failed: %+v", err)
	}
	vv, ok := out.(*types.VariantValue)
	if !ok || vv.Form != 0 {
		t.Fatalf("constructor: got %s", out)
	}
	if err := vv.Payload.Cmp(&types.IntValue{V: 3}); err != nil {
		t.Errorf("payload: got %s", vv.Payload)
	}

	// payload-less forms take the empty tuple, and only that
	nothing := variantConstructor(maybeInt, 1)
	out, err = nothing.Call(&types.TupleValue{})
	if err != nil {
		t.Fatalf("constructor call failed: %+v", err)
	}
	if vv, ok := out.(*types.VariantValue); !ok || vv.Form != 1 || vv.Payload != nil {
		t.Errorf("constructor: got %s", out)
	}
	if _, err := nothing.Call(&types.IntValue{V: 1}); err == nil {
		t.Errorf("a payload-less form must reject a payload")
	}
}

func TestVarSubstitute0(t *testing.T) {
	// a slot holding a concrete expression replaces the variable; a missing
	// slot leaves it free
	var empty *stack.Stack[interfaces.Expr]
	seven := &ExprValue{V: &types.IntValue{V: 7}}
	st := empty.Append([]interfaces.Expr{seven})

	v := NewVarRef("x", 0, 0)
	out, err := v.Substitute(st)
	if err != nil {
		t.Fatalf("substitute failed: %+v", err)
	}
	if out != interfaces.Expr(seven) {
		t.Errorf("substitute: got %s, want 7", out)
	}

	free := NewVarRef("y", 5, 0)
	out, err = free.Substitute(st)
	if err != nil {
		t.Fatalf("substitute failed: %+v", err)
	}
	if out != interfaces.Expr(free) {
		t.Errorf("a missing slot must leave the variable free, got %s", out)
	}
}

func TestVarSubstituteCrossed0(t *testing.T) {
	// a replacement fetched across a functional boundary is shifted by the
	// crossing count
	var empty *stack.Stack[interfaces.Expr]
	replacement := NewVarRef("r", 2, 0)
	st := empty.
		Append([]interfaces.Expr{replacement}).
		AppendDeeper(nil)

	v := NewVarRef("x", 0, 1)
	out, err := v.Substitute(st)
	if err != nil {
		t.Fatalf("substitute failed: %+v", err)
	}
	r, ok := out.(*ExprVar)
	if !ok {
		t.Fatalf("not a variable: %s", out)
	}
	if r.index != 2 || r.depth != 1 {
		t.Errorf("shifted replacement: got %d/%d, want 2/1", r.index, r.depth)
	}
}

func TestTypeValueChain0(t *testing.T) {
	// a slot's symbolic value may itself be a variable; typeValue must keep
	// substituting until the chain bottoms out in a closed value
	var empty *stack.Stack[interfaces.Expr]
	intType := &types.BasicTypeValue{Name: "int"}
	vals := empty.Append([]interfaces.Expr{
		&ExprValue{V: intType},   // slot 0: the value
		NewVarRef("a", 0, 0),     // slot 1 points at slot 0
		NewVarRef("b", 1, 0),     // slot 2 points at slot 1
	})

	out, err := typeValue(NewVarRef("c", 2, 0), vals)
	if err != nil {
		t.Fatalf("type value failed: %+v", err)
	}
	if err := out.Cmp(intType); err != nil {
		t.Errorf("got %s, want int: %+v", out, err)
	}
}

func TestTypeValuePlaceholder0(t *testing.T) {
	// a placeholder slot holding its own variable never closes; typeValue
	// must fail instead of looping
	var empty *stack.Stack[interfaces.Expr]
	vals := empty.Append([]interfaces.Expr{
		NewVarRef("x", 0, 0), // slot 0 points at itself
	})
	if _, err := typeValue(NewVarRef("x", 0, 0), vals); err == nil {
		t.Errorf("an open type expression must fail")
	}
}

func TestTypeValueCycle0(t *testing.T) {
	// mutually referencing slots alternate forever; the substitution cap
	// must break the loop and the open result must fail
	var empty *stack.Stack[interfaces.Expr]
	vals := empty.Append([]interfaces.Expr{
		NewVarRef("b", 1, 0), // slot 0 points at slot 1
		NewVarRef("a", 0, 0), // slot 1 points at slot 0
	})
	if _, err := typeValue(NewVarRef("a", 0, 0), vals); err == nil {
		t.Errorf("a cyclic type expression must fail")
	}
}

func TestForceFuncTypeChain0(t *testing.T) {
	// a function type reached through a chain of variables still forces
	var empty *stack.Stack[interfaces.Expr]
	intType := &types.BasicTypeValue{Name: "int"}
	def := &ExprFuncDefine{
		ArgName: "x",
		ArgType: &ExprValue{V: intType},
		Body:    &ExprValue{V: intType},
	}
	vals := empty.Append([]interfaces.Expr{
		def,                  // slot 0: the function type
		NewVarRef("f", 0, 0), // slot 1 points at slot 0
	})

	out, err := forceFuncType(NewVarRef("g", 1, 0), vals, 2)
	if err != nil {
		t.Fatalf("force failed: %+v", err)
	}
	if out.ArgName != "x" {
		t.Errorf("got argument %s, want x", out.ArgName)
	}
}
