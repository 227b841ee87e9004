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

// Package types provides the runtime value model. Types are themselves
// values: the universal type, the named basic types, variant types, and
// functions returning types all live here alongside the plain data values
// they classify. Whether a value may stand in type position is a fallible
// projection (AsType), not a tag; tuples in particular serve as both a tuple
// of values and a tuple type.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is the interface that every runtime value implements.
type Value interface {
	fmt.Stringer // String() string

	// Display returns a representation of the value under an explicit
	// type, which may carry information the value alone does not, such as
	// the form names of a variant. The plain String is the fallback when
	// the type adds nothing.
	Display(typ Value) string

	// Cmp compares this value to the given one, and errors if they are
	// not provably equal. It is conservative: functions in particular only
	// compare equal to themselves.
	Cmp(val Value) error

	// Copy returns a copy of this value. Immutable values may return
	// themselves.
	Copy() Value

	// AsType errors if this value cannot stand in type position.
	AsType() error
}

// Callable is a value that can be applied to an argument.
type Callable interface {
	Value

	// Call applies the function to the given argument.
	Call(arg Value) (Value, error)
}

// UniversalValue is the type of all types, including itself.
type UniversalValue struct {
}

// Universal is the canonical universal type value.
var Universal = &UniversalValue{}

// String returns a visual representation of this value.
func (obj *UniversalValue) String() string { return "universal" }

// Display returns a representation of this value under an explicit type.
func (obj *UniversalValue) Display(typ Value) string { return obj.String() }

// Cmp compares this value to the given one, erroring if they are not equal.
func (obj *UniversalValue) Cmp(val Value) error {
	if _, ok := val.(*UniversalValue); !ok {
		return fmt.Errorf("not the universal type: %s", val)
	}
	return nil
}

// Copy returns this value, since it is immutable.
func (obj *UniversalValue) Copy() Value { return obj }

// AsType succeeds, the universal value is a type.
func (obj *UniversalValue) AsType() error { return nil }

// BasicTypeValue is a named primitive type, such as the bootstrap integer
// type. Two basic types are the same type iff they have the same name.
type BasicTypeValue struct {
	// Name is the name of the type.
	Name string
}

// String returns a visual representation of this value.
func (obj *BasicTypeValue) String() string { return obj.Name }

// Display returns a representation of this value under an explicit type.
func (obj *BasicTypeValue) Display(typ Value) string { return obj.String() }

// Cmp compares this value to the given one, erroring if they are not equal.
func (obj *BasicTypeValue) Cmp(val Value) error {
	v, ok := val.(*BasicTypeValue)
	if !ok {
		return fmt.Errorf("not a basic type: %s", val)
	}
	if obj.Name != v.Name {
		return fmt.Errorf("different basic types: %s vs %s", obj.Name, v.Name)
	}
	return nil
}

// Copy returns this value, since it is immutable.
func (obj *BasicTypeValue) Copy() Value { return obj }

// AsType succeeds, a basic type value is a type.
func (obj *BasicTypeValue) AsType() error { return nil }

// TupleValue is an ordered sequence of values. A tuple whose components are
// all types is itself a type, the type of component-wise typed tuples. The
// empty tuple is its own type.
type TupleValue struct {
	// V is the ordered list of component values.
	V []Value
}

// String returns a visual representation of this value.
func (obj *TupleValue) String() string {
	parts := make([]string, len(obj.V))
	for i, v := range obj.V {
		parts[i] = v.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Display returns a representation of this value under an explicit type. If
// the type is a matching tuple type, each component is displayed under its
// component type.
func (obj *TupleValue) Display(typ Value) string {
	tt, ok := typ.(*TupleValue)
	if !ok || len(tt.V) != len(obj.V) {
		return obj.String()
	}
	parts := make([]string, len(obj.V))
	for i, v := range obj.V {
		parts[i] = v.Display(tt.V[i])
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Cmp compares this value to the given one, erroring if they are not equal.
func (obj *TupleValue) Cmp(val Value) error {
	v, ok := val.(*TupleValue)
	if !ok {
		return fmt.Errorf("not a tuple: %s", val)
	}
	if len(obj.V) != len(v.V) {
		return fmt.Errorf("different tuple lengths: %d vs %d", len(obj.V), len(v.V))
	}
	for i := range obj.V {
		if err := obj.V[i].Cmp(v.V[i]); err != nil {
			return err
		}
	}
	return nil
}

// Copy returns a copy of this value.
func (obj *TupleValue) Copy() Value {
	v := make([]Value, len(obj.V))
	for i := range obj.V {
		v[i] = obj.V[i].Copy()
	}
	return &TupleValue{V: v}
}

// AsType succeeds iff every component is a type.
func (obj *TupleValue) AsType() error {
	for _, v := range obj.V {
		if err := v.AsType(); err != nil {
			return err
		}
	}
	return nil
}

// VariantForm is one alternative of a variant type: a name, and optionally
// the type of the payload it carries. A nil Payload means the form carries
// none.
type VariantForm struct {
	// Name is the form's name.
	Name string

	// Payload is the type of the form's payload, or nil if it has none.
	Payload Value
}

// VariantTypeValue is a type with a fixed, ordered set of named forms. Its
// values are VariantValue's tagged with a form index.
type VariantTypeValue struct {
	// Forms is the ordered list of alternatives.
	Forms []VariantForm
}

// String returns a visual representation of this value.
func (obj *VariantTypeValue) String() string {
	parts := make([]string, len(obj.Forms))
	for i, f := range obj.Forms {
		if f.Payload != nil {
			parts[i] = fmt.Sprintf("%s %s", f.Name, f.Payload)
		} else {
			parts[i] = f.Name
		}
	}
	return "variant{" + strings.Join(parts, "; ") + "}"
}

// Display returns a representation of this value under an explicit type.
func (obj *VariantTypeValue) Display(typ Value) string { return obj.String() }

// Form returns the index and description of the named form.
func (obj *VariantTypeValue) Form(name string) (int, *VariantForm, error) {
	for i := range obj.Forms {
		if obj.Forms[i].Name == name {
			return i, &obj.Forms[i], nil
		}
	}
	return 0, nil, fmt.Errorf("variant type has no form named `%s`", name)
}

// Cmp compares this value to the given one, erroring if they are not equal.
func (obj *VariantTypeValue) Cmp(val Value) error {
	v, ok := val.(*VariantTypeValue)
	if !ok {
		return fmt.Errorf("not a variant type: %s", val)
	}
	if len(obj.Forms) != len(v.Forms) {
		return fmt.Errorf("different form counts: %d vs %d", len(obj.Forms), len(v.Forms))
	}
	for i := range obj.Forms {
		if obj.Forms[i].Name != v.Forms[i].Name {
			return fmt.Errorf("different form names: %s vs %s", obj.Forms[i].Name, v.Forms[i].Name)
		}
		a, b := obj.Forms[i].Payload, v.Forms[i].Payload
		if (a == nil) != (b == nil) {
			return fmt.Errorf("form %s differs in payload presence", obj.Forms[i].Name)
		}
		if a != nil {
			if err := a.Cmp(b); err != nil {
				return err
			}
		}
	}
	return nil
}

// Copy returns a copy of this value.
func (obj *VariantTypeValue) Copy() Value {
	forms := make([]VariantForm, len(obj.Forms))
	for i, f := range obj.Forms {
		forms[i] = VariantForm{Name: f.Name}
		if f.Payload != nil {
			forms[i].Payload = f.Payload.Copy()
		}
	}
	return &VariantTypeValue{Forms: forms}
}

// AsType succeeds iff every form payload is a type.
func (obj *VariantTypeValue) AsType() error {
	for _, f := range obj.Forms {
		if f.Payload == nil {
			continue
		}
		if err := f.Payload.AsType(); err != nil {
			return err
		}
	}
	return nil
}

// VariantValue is a value of some variant type: the index of the form it was
// built with, and the payload if that form carries one. The value does not
// reference its type; the form names only become visible when it is displayed
// under the variant type.
type VariantValue struct {
	// Form is the index of the form within the variant type.
	Form int

	// Payload is the carried value, or nil if the form carries none.
	Payload Value
}

// String returns a visual representation of this value.
func (obj *VariantValue) String() string {
	if obj.Payload == nil {
		return fmt.Sprintf("form<%d>", obj.Form)
	}
	return fmt.Sprintf("form<%d>(%s)", obj.Form, obj.Payload)
}

// Display returns a representation of this value under an explicit type. If
// the type is a variant type with a matching form, the form's name is used.
func (obj *VariantValue) Display(typ Value) string {
	vt, ok := typ.(*VariantTypeValue)
	if !ok || obj.Form < 0 || obj.Form >= len(vt.Forms) {
		return obj.String()
	}
	f := vt.Forms[obj.Form]
	if obj.Payload == nil {
		return f.Name
	}
	if f.Payload == nil {
		return fmt.Sprintf("%s(%s)", f.Name, obj.Payload)
	}
	return fmt.Sprintf("%s(%s)", f.Name, obj.Payload.Display(f.Payload))
}

// Cmp compares this value to the given one, erroring if they are not equal.
func (obj *VariantValue) Cmp(val Value) error {
	v, ok := val.(*VariantValue)
	if !ok {
		return fmt.Errorf("not a variant value: %s", val)
	}
	if obj.Form != v.Form {
		return fmt.Errorf("different forms: %d vs %d", obj.Form, v.Form)
	}
	if (obj.Payload == nil) != (v.Payload == nil) {
		return fmt.Errorf("payload presence differs")
	}
	if obj.Payload != nil {
		return obj.Payload.Cmp(v.Payload)
	}
	return nil
}

// Copy returns a copy of this value.
func (obj *VariantValue) Copy() Value {
	v := &VariantValue{Form: obj.Form}
	if obj.Payload != nil {
		v.Payload = obj.Payload.Copy()
	}
	return v
}

// AsType fails, a variant value is not a type.
func (obj *VariantValue) AsType() error {
	return fmt.Errorf("variant value is not a type")
}

// IntValue is an integer value.
type IntValue struct {
	// V is the integer it holds.
	V int64
}

// String returns a visual representation of this value.
func (obj *IntValue) String() string { return strconv.FormatInt(obj.V, 10) }

// Display returns a representation of this value under an explicit type.
func (obj *IntValue) Display(typ Value) string { return obj.String() }

// Cmp compares this value to the given one, erroring if they are not equal.
func (obj *IntValue) Cmp(val Value) error {
	v, ok := val.(*IntValue)
	if !ok {
		return fmt.Errorf("not an int: %s", val)
	}
	if obj.V != v.V {
		return fmt.Errorf("different ints: %d vs %d", obj.V, v.V)
	}
	return nil
}

// Copy returns a copy of this value.
func (obj *IntValue) Copy() Value { return &IntValue{V: obj.V} }

// AsType fails, an integer is not a type.
func (obj *IntValue) AsType() error {
	return fmt.Errorf("%d is not a type", obj.V)
}
