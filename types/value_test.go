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
	"testing"
)

func TestValueCmp0(t *testing.T) {
	intType := &BasicTypeValue{Name: "int"}
	type test struct { // an individual test
		name string
		a, b Value
		eq   bool
	}
	testCases := []test{
		{
			name: "universal self",
			a:    Universal,
			b:    &UniversalValue{},
			eq:   true,
		},
		{
			name: "universal vs basic",
			a:    Universal,
			b:    intType,
			eq:   false,
		},
		{
			name: "same basic type",
			a:    intType,
			b:    &BasicTypeValue{Name: "int"},
			eq:   true,
		},
		{
			name: "different basic types",
			a:    intType,
			b:    &BasicTypeValue{Name: "bool"},
			eq:   false,
		},
		{
			name: "equal ints",
			a:    &IntValue{V: 42},
			b:    &IntValue{V: 42},
			eq:   true,
		},
		{
			name: "different ints",
			a:    &IntValue{V: 42},
			b:    &IntValue{V: 13},
			eq:   false,
		},
		{
			name: "equal tuples",
			a:    &TupleValue{V: []Value{&IntValue{V: 1}, intType}},
			b:    &TupleValue{V: []Value{&IntValue{V: 1}, &BasicTypeValue{Name: "int"}}},
			eq:   true,
		},
		{
			name: "tuple length mismatch",
			a:    &TupleValue{V: []Value{&IntValue{V: 1}}},
			b:    &TupleValue{V: []Value{&IntValue{V: 1}, &IntValue{V: 2}}},
			eq:   false,
		},
		{
			name: "empty tuples",
			a:    &TupleValue{},
			b:    &TupleValue{},
			eq:   true,
		},
		{
			name: "equal variant values",
			a:    &VariantValue{Form: 0, Payload: &IntValue{V: 3}},
			b:    &VariantValue{Form: 0, Payload: &IntValue{V: 3}},
			eq:   true,
		},
		{
			name: "different variant forms",
			a:    &VariantValue{Form: 0},
			b:    &VariantValue{Form: 1},
			eq:   false,
		},
		{
			name: "equal variant types",
			a: &VariantTypeValue{Forms: []VariantForm{
				{Name: "just", Payload: intType},
				{Name: "nothing"},
			}},
			b: &VariantTypeValue{Forms: []VariantForm{
				{Name: "just", Payload: &BasicTypeValue{Name: "int"}},
				{Name: "nothing"},
			}},
			eq: true,
		},
		{
			name: "variant types with different form names",
			a: &VariantTypeValue{Forms: []VariantForm{
				{Name: "just", Payload: intType},
			}},
			b: &VariantTypeValue{Forms: []VariantForm{
				{Name: "some", Payload: intType},
			}},
			eq: false,
		},
	}

	for index, tc := range testCases { // run all the tests
		if tc.name == "" {
			t.Errorf("test #%d: not named", index)
			continue
		}
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			err := tc.a.Cmp(tc.b)
			if tc.eq && err != nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: cmp failed with: %+v", index, err)
			}
			if !tc.eq && err == nil {
				t.Errorf("test #%d: FAIL", index)
				t.Errorf("test #%d: cmp should have failed", index)
			}
		})
	}
}

func TestValueAsType0(t *testing.T) {
	intType := &BasicTypeValue{Name: "int"}
	type test struct { // an individual test
		name   string
		value  Value
		isType bool
	}
	testCases := []test{
		{"universal", Universal, true},
		{"basic", intType, true},
		{"int", &IntValue{V: 1}, false},
		{"empty tuple", &TupleValue{}, true},
		{"tuple of types", &TupleValue{V: []Value{intType, Universal}}, true},
		{"tuple of values", &TupleValue{V: []Value{&IntValue{V: 1}}}, false},
		{"mixed tuple", &TupleValue{V: []Value{intType, &IntValue{V: 1}}}, false},
		{"variant type", &VariantTypeValue{Forms: []VariantForm{{Name: "just", Payload: intType}, {Name: "nothing"}}}, true},
		{"variant type with value payload", &VariantTypeValue{Forms: []VariantForm{{Name: "just", Payload: &IntValue{V: 1}}}}, false},
		{"variant value", &VariantValue{Form: 0}, false},
		{"native function", &NativeFuncValue{Name: "f"}, true},
	}

	for index, tc := range testCases { // run all the tests
		t.Run(fmt.Sprintf("test #%d (%s)", index, tc.name), func(t *testing.T) {
			err := tc.value.AsType()
			if tc.isType && err != nil {
				t.Errorf("test #%d: as type failed with: %+v", index, err)
			}
			if !tc.isType && err == nil {
				t.Errorf("test #%d: as type should have failed", index)
			}
		})
	}
}

func TestValueDisplay0(t *testing.T) {
	intType := &BasicTypeValue{Name: "int"}
	maybeInt := &VariantTypeValue{Forms: []VariantForm{
		{Name: "just", Payload: intType},
		{Name: "nothing"},
	}}

	just3 := &VariantValue{Form: 0, Payload: &IntValue{V: 3}}
	if out := just3.Display(maybeInt); out != "just(3)" {
		t.Errorf("display: got %s, want just(3)", out)
	}
	nothing := &VariantValue{Form: 1}
	if out := nothing.Display(maybeInt); out != "nothing" {
		t.Errorf("display: got %s, want nothing", out)
	}
	// without the type the form names are not recoverable
	if out := just3.String(); out != "form<0>(3)" {
		t.Errorf("string: got %s, want form<0>(3)", out)
	}

	pair := &TupleValue{V: []Value{just3, &IntValue{V: 7}}}
	pairType := &TupleValue{V: []Value{maybeInt, intType}}
	if out := pair.Display(pairType); out != "(just(3), 7)" {
		t.Errorf("display: got %s, want (just(3), 7)", out)
	}
	// a mismatched type falls back to the raw form
	if out := pair.Display(intType); out != "(form<0>(3), 7)" {
		t.Errorf("display: got %s, want (form<0>(3), 7)", out)
	}
}

func TestValueCopy0(t *testing.T) {
	// a copy of a tuple must be detached from the original
	orig := &TupleValue{V: []Value{&IntValue{V: 1}, &IntValue{V: 2}}}
	cp, ok := orig.Copy().(*TupleValue)
	if !ok {
		t.Fatalf("copy changed kind")
	}
	cp.V[0] = &IntValue{V: 99}
	if v, ok := orig.V[0].(*IntValue); !ok || v.V != 1 {
		t.Errorf("the original was modified through the copy")
	}
}

func TestVariantTypeForm0(t *testing.T) {
	maybeInt := &VariantTypeValue{Forms: []VariantForm{
		{Name: "just", Payload: &BasicTypeValue{Name: "int"}},
		{Name: "nothing"},
	}}
	i, f, err := maybeInt.Form("nothing")
	if err != nil {
		t.Fatalf("form lookup failed: %+v", err)
	}
	if i != 1 || f.Name != "nothing" || f.Payload != nil {
		t.Errorf("form lookup: got %d %+v", i, f)
	}
	if _, _, err := maybeInt.Form("frob"); err == nil {
		t.Errorf("unknown form lookup should fail")
	}
}
