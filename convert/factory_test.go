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

package convert

import (
	"fmt"
	"testing"

	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/types"
)

var intType = &types.BasicTypeValue{Name: "int"}
var wideType = &types.BasicTypeValue{Name: "wide"}

// widen is a test rule converting int to wide. The conversion function just
// relabels the payload, which is enough to observe that it ran.
func widen(conversions types.Callable, from, to types.Value) (types.Value, bool, error) {
	if err := from.Cmp(intType); err != nil {
		return nil, false, nil
	}
	if err := to.Cmp(wideType); err != nil {
		return nil, false, nil
	}
	conv := &types.NativeFuncValue{
		Name: "widen",
		Fn: func(arg types.Value) (types.Value, error) {
			v, ok := arg.(*types.IntValue)
			if !ok {
				return nil, fmt.Errorf("widen wants an int, got %s", arg)
			}
			return &types.TupleValue{V: []types.Value{v}}, nil
		},
	}
	return conv, true, nil
}

func TestFactoryIdentity0(t *testing.T) {
	factory := &Factory{}
	if err := factory.Init(); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	// equal types are the identity and never touch the lookup
	conv, err := factory.Conversion(intType, &types.BasicTypeValue{Name: "int"})
	if err != nil {
		t.Fatalf("conversion failed: %+v", err)
	}
	if conv != nil {
		t.Errorf("identity conversion must be nil, got %s", conv)
	}
}

func TestFactoryMissing0(t *testing.T) {
	factory := &Factory{}
	if err := factory.Init(); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	if _, err := factory.Conversion(intType, types.Universal); err != interfaces.ErrNoConversion {
		t.Errorf("got %+v, want ErrNoConversion", err)
	}
	if _, err := factory.Conversion(intType, wideType); err != interfaces.ErrNoConversion {
		t.Errorf("got %+v, want ErrNoConversion", err)
	}
}

func TestFactoryRule0(t *testing.T) {
	factory := &Factory{Rules: []Rule{widen}}
	if err := factory.Init(); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	conv, err := factory.Conversion(intType, wideType)
	if err != nil {
		t.Fatalf("conversion failed: %+v", err)
	}
	fn, ok := conv.(types.Callable)
	if !ok {
		t.Fatalf("conversion is not callable: %s", conv)
	}
	out, err := fn.Call(&types.IntValue{V: 5})
	if err != nil {
		t.Fatalf("conversion call failed: %+v", err)
	}
	exp := &types.TupleValue{V: []types.Value{&types.IntValue{V: 5}}}
	if err := out.Cmp(exp); err != nil {
		t.Errorf("converted value: got %s, want %s", out, exp)
	}
}

func TestFactoryTuple0(t *testing.T) {
	factory := &Factory{Rules: []Rule{widen}}
	if err := factory.Init(); err != nil {
		t.Fatalf("init failed: %+v", err)
	}

	// (int, int) -> (wide, int): component 0 through the rule, component 1
	// by identity
	from := &types.TupleValue{V: []types.Value{intType, intType}}
	to := &types.TupleValue{V: []types.Value{wideType, intType}}
	conv, err := factory.Conversion(from, to)
	if err != nil {
		t.Fatalf("conversion failed: %+v", err)
	}
	fn, ok := conv.(types.Callable)
	if !ok {
		t.Fatalf("conversion is not callable: %s", conv)
	}
	out, err := fn.Call(&types.TupleValue{V: []types.Value{&types.IntValue{V: 3}, &types.IntValue{V: 4}}})
	if err != nil {
		t.Fatalf("conversion call failed: %+v", err)
	}
	exp := &types.TupleValue{V: []types.Value{
		&types.TupleValue{V: []types.Value{&types.IntValue{V: 3}}},
		&types.IntValue{V: 4},
	}}
	if err := out.Cmp(exp); err != nil {
		t.Errorf("converted value: got %s, want %s", out, exp)
	}
}

func TestFactoryTupleNested0(t *testing.T) {
	// the tuple rule recurses through the fixed point into nested tuples
	factory := &Factory{Rules: []Rule{widen}}
	if err := factory.Init(); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	from := &types.TupleValue{V: []types.Value{
		&types.TupleValue{V: []types.Value{intType}},
	}}
	to := &types.TupleValue{V: []types.Value{
		&types.TupleValue{V: []types.Value{wideType}},
	}}
	conv, err := factory.Conversion(from, to)
	if err != nil {
		t.Fatalf("conversion failed: %+v", err)
	}
	fn, ok := conv.(types.Callable)
	if !ok {
		t.Fatalf("conversion is not callable: %s", conv)
	}
	out, err := fn.Call(&types.TupleValue{V: []types.Value{
		&types.TupleValue{V: []types.Value{&types.IntValue{V: 9}}},
	}})
	if err != nil {
		t.Fatalf("conversion call failed: %+v", err)
	}
	exp := &types.TupleValue{V: []types.Value{
		&types.TupleValue{V: []types.Value{
			&types.TupleValue{V: []types.Value{&types.IntValue{V: 9}}},
		}},
	}}
	if err := out.Cmp(exp); err != nil {
		t.Errorf("converted value: got %s, want %s", out, exp)
	}
}

func TestFactoryTupleArity0(t *testing.T) {
	factory := &Factory{}
	if err := factory.Init(); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	from := &types.TupleValue{V: []types.Value{intType}}
	to := &types.TupleValue{V: []types.Value{intType, intType}}
	if _, err := factory.Conversion(from, to); err != interfaces.ErrNoConversion {
		t.Errorf("got %+v, want ErrNoConversion", err)
	}
}

func TestFactoryValue0(t *testing.T) {
	// the factory is usable as a language value: a function from a
	// (from, to) pair to a ResultType variant
	factory := &Factory{}
	if err := factory.Init(); err != nil {
		t.Fatalf("init failed: %+v", err)
	}
	fn, ok := factory.Value().(types.Callable)
	if !ok {
		t.Fatalf("factory value is not callable")
	}
	out, err := fn.Call(&types.TupleValue{V: []types.Value{intType, types.Universal}})
	if err != nil {
		t.Fatalf("lookup call failed: %+v", err)
	}
	vv, ok := out.(*types.VariantValue)
	if !ok {
		t.Fatalf("lookup returned %s", out)
	}
	if vv.Display(ResultType) != "nothing" {
		t.Errorf("lookup: got %s, want nothing", vv.Display(ResultType))
	}
}
