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

	"github.com/kappa-lang/kappa/interfaces"
	"github.com/kappa-lang/kappa/types"
)

// ResultType is the variant type a conversion lookup yields inside the
// language's own value model: `just` carrying the conversion function, or
// `nothing` when no conversion exists.
var ResultType = &types.VariantTypeValue{
	Forms: []types.VariantForm{
		{Name: "just", Payload: types.Universal},
		{Name: "nothing"},
	},
}

const (
	formJust = iota
	formNothing
)

func just(conv types.Value) types.Value {
	return &types.VariantValue{Form: formJust, Payload: conv}
}

func nothing() types.Value {
	return &types.VariantValue{Form: formNothing}
}

// Rule is an extension point of the factory: given the factory's own fixed
// point (for recursive lookups) and a pair of types, it may produce a
// conversion function. The bool reports whether the rule applied at all.
type Rule func(conversions types.Callable, from, to types.Value) (types.Value, bool, error)

// Factory manufactures conversion functions between types. It is itself a
// value of the language: a function from a (from, to) tuple of types to a
// ResultType variant. Because tuple conversions recurse into component
// conversions, the factory must be able to call itself; it is built as a
// fixed point, with a deferred cell standing in for the finished function
// while the function is being built. The cell is only forced when a
// conversion actually recurses, never during construction.
type Factory struct {
	// Debug enables additional log messages.
	Debug bool

	// Logf is the logging function to use.
	Logf func(format string, v ...interface{})

	// Rules are extension rules, tried in order before the built-in tuple
	// rule.
	Rules []Rule

	value types.Value
}

// Init ties the knot and builds the factory's fixed point.
func (obj *Factory) Init() error {
	if obj.Logf == nil {
		obj.Logf = func(format string, v ...interface{}) {}
	}
	builder := &types.NativeFuncValue{
		Name: "conversions",
		Fn: func(self types.Value) (types.Value, error) {
			fn, ok := self.(types.Callable)
			if !ok {
				return nil, fmt.Errorf("fixed point seed is not callable")
			}
			return obj.build(fn), nil
		},
	}
	v, err := types.Fix(builder)
	if err != nil {
		return err
	}
	obj.value = v
	return nil
}

// build creates the conversion lookup function, closed over the factory's own
// fixed point for recursive lookups.
func (obj *Factory) build(self types.Callable) types.Value {
	return &types.NativeFuncValue{
		Name: "conversion",
		Fn: func(arg types.Value) (types.Value, error) {
			pair, ok := arg.(*types.TupleValue)
			if !ok || len(pair.V) != 2 {
				return nil, fmt.Errorf("conversion lookup wants a (from, to) pair, got %s", arg)
			}
			from, to := pair.V[0], pair.V[1]

			for _, rule := range obj.Rules {
				conv, ok, err := rule(self, from, to)
				if err != nil {
					return nil, err
				}
				if ok {
					return just(conv), nil
				}
			}

			return obj.tupleRule(self, from, to)
		},
	}
}

// tupleRule converts tuple types of equal arity component-wise, recursing
// through the factory's fixed point for each component that is not already
// identical.
func (obj *Factory) tupleRule(self types.Callable, from, to types.Value) (types.Value, error) {
	ft, ok := from.(*types.TupleValue)
	if !ok {
		return nothing(), nil
	}
	tt, ok := to.(*types.TupleValue)
	if !ok || len(ft.V) != len(tt.V) {
		return nothing(), nil
	}

	// nil marks components converted by identity
	convs := make([]types.Value, len(ft.V))
	for i := range ft.V {
		if err := ft.V[i].Cmp(tt.V[i]); err == nil {
			continue
		}
		res, err := self.Call(&types.TupleValue{V: []types.Value{ft.V[i], tt.V[i]}})
		if err != nil {
			return nil, err
		}
		vv, ok := res.(*types.VariantValue)
		if !ok {
			return nil, fmt.Errorf("conversion lookup returned %s", res)
		}
		if vv.Form == formNothing {
			return nothing(), nil
		}
		convs[i] = vv.Payload
	}

	conv := &types.NativeFuncValue{
		Name: "convert tuple",
		Fn: func(arg types.Value) (types.Value, error) {
			tv, ok := arg.(*types.TupleValue)
			if !ok || len(tv.V) != len(convs) {
				return nil, fmt.Errorf("tuple conversion wants a %d-tuple, got %s", len(convs), arg)
			}
			out := make([]types.Value, len(tv.V))
			for i, v := range tv.V {
				if convs[i] == nil {
					out[i] = v
					continue
				}
				fn, ok := convs[i].(types.Callable)
				if !ok {
					return nil, fmt.Errorf("component conversion is not callable")
				}
				res, err := fn.Call(v)
				if err != nil {
					return nil, err
				}
				out[i] = res
			}
			return &types.TupleValue{V: out}, nil
		},
	}
	return just(conv), nil
}

// Value exposes the factory as a language value, a function from a
// (from, to) pair to a ResultType variant.
func (obj *Factory) Value() types.Value {
	return obj.value
}

// Conversion resolves a conversion between two evaluated types. A nil result
// with a nil error is the identity: it is decided by value comparison alone,
// before the factory is ever consulted, so equal types cost nothing. A
// missing conversion is ErrNoConversion.
func (obj *Factory) Conversion(from, to types.Value) (types.Value, error) {
	if err := from.Cmp(to); err == nil {
		return nil, nil
	}
	fn, ok := obj.value.(types.Callable)
	if !ok {
		return nil, fmt.Errorf("factory was not initialized")
	}
	if obj.Debug {
		obj.Logf("conversion lookup: %s -> %s", from, to)
	}
	res, err := fn.Call(&types.TupleValue{V: []types.Value{from, to}})
	if err != nil {
		return nil, err
	}
	vv, ok := res.(*types.VariantValue)
	if !ok {
		return nil, fmt.Errorf("conversion lookup returned %s", res)
	}
	if vv.Form == formNothing {
		return nil, interfaces.ErrNoConversion
	}
	return vv.Payload, nil
}

// ensure the factory plugs into the checker
var _ interfaces.Resolver = &Factory{}
