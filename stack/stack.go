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

// Package stack implements the persistent "spaghetti" variable stack that the
// whole interpreter runs on. A stack is a backward-linked chain of immutable
// segments. Appending a segment never modifies the segments below it, so two
// stacks that share a common ancestor may diverge above that point without
// affecting each other. That property is what makes cheap branching possible
// during preparation and type checking; the price is that lookup walks
// linearly through the segments above the defining point.
//
// Each segment either continues the current functional depth or starts a new,
// deeper one. The depth dimension is what lets closures see variables that
// were captured from an enclosing function body: a variable is addressed by
// its slot index at its own depth, plus the number of function-body
// boundaries between the use and the definition.
//
// The zero value (a nil pointer) is the empty stack and is safe to use.
package stack

import (
	"fmt"
	"strings"
)

// Stack is one segment of a spaghetti stack, linked to the segments below it.
// The empty stack is represented by a nil pointer. All of the methods are
// usable with a nil receiver.
type Stack[T any] struct {
	parent *Stack[T]

	// start is the index of the first slot of this segment at its depth.
	start int

	// values are the slots stored in this segment. They are never written
	// to after the segment is built, unless the segment is mutable.
	values []T

	// deeper is true if this segment starts a new functional depth.
	deeper bool

	// mutable is true if this segment is a procedure activation frame. It
	// is the only kind of segment whose slots may be grown or modified in
	// place, and such a frame is never shared between two activations.
	mutable bool
}

// Append returns a new stack whose top segment holds the given values at the
// current functional depth. The receiver is not modified.
func (obj *Stack[T]) Append(values []T) *Stack[T] {
	return obj.AppendAt(obj.Next(), values)
}

// AppendAt is Append with an explicit starting slot index. It is used when the
// slot indices were already allocated during preparation, so that the runtime
// segment lines up with them exactly. A start below Next() shadows the older
// slots at those indices, which is how assignment facts overlay the symbolic
// value stack.
func (obj *Stack[T]) AppendAt(start int, values []T) *Stack[T] {
	return &Stack[T]{
		parent: obj,
		start:  start,
		values: values,
	}
}

// AppendDeeper returns a new stack whose top segment holds the given values at
// a functional depth one greater than the receiver's. It is used when entering
// a new function body.
func (obj *Stack[T]) AppendDeeper(values []T) *Stack[T] {
	return &Stack[T]{
		parent: obj,
		start:  0, // slot numbering restarts at each new depth
		values: values,
		deeper: true,
	}
}

// AppendMutable returns a new stack whose top segment is an empty, growable
// procedure frame at the current functional depth. Slots are added with Push
// and updated with Modify.
func (obj *Stack[T]) AppendMutable() *Stack[T] {
	return &Stack[T]{
		parent:  obj,
		start:   obj.Next(),
		values:  []T{},
		mutable: true,
	}
}

// Push adds one slot to the top segment, which must be mutable. It returns the
// index that the new slot was stored at.
func (obj *Stack[T]) Push(value T) (int, error) {
	if obj == nil || !obj.mutable {
		return 0, fmt.Errorf("top of stack is not a mutable frame")
	}
	obj.values = append(obj.values, value)
	return obj.start + len(obj.values) - 1, nil
}

// Lookup finds the slot with the given index, at the given number of
// functional depth boundaries below the top. The second return value is the
// total number of depth boundaries that were crossed to reach the owning
// segment; substitution uses it to shift the replacement expression. A failed
// lookup is a recoverable condition (it means the variable stays free) and is
// reported with the final bool, never with an error.
func (obj *Stack[T]) Lookup(index, depth int) (T, int, bool) {
	var zero T
	cur := obj
	d := depth
	crossed := 0
	for cur != nil {
		if d == 0 {
			if index >= cur.start && index < cur.start+len(cur.values) {
				return cur.values[index-cur.start], crossed, true
			}
			if cur.deeper {
				// the requested depth level is exhausted
				return zero, crossed, false
			}
		} else if cur.deeper {
			d--
			crossed++
		}
		cur = cur.parent
	}
	return zero, crossed, false
}

// Modify updates an existing slot in place. It is only valid for slots that
// belong to a mutable frame; segments borrowed from a shared ancestor stack
// are never written to.
func (obj *Stack[T]) Modify(index, depth int, value T) error {
	cur := obj
	d := depth
	for cur != nil {
		if d == 0 {
			if index >= cur.start && index < cur.start+len(cur.values) {
				if !cur.mutable {
					return fmt.Errorf("slot %d is not in a mutable frame", index)
				}
				cur.values[index-cur.start] = value
				return nil
			}
			if cur.deeper {
				break
			}
		} else if cur.deeper {
			d--
		}
		cur = cur.parent
	}
	return fmt.Errorf("slot %d at depth %d does not exist", index, depth)
}

// Cut truncates the stack back to a prior boundary at the current functional
// depth: every segment whose first slot is at or above the given index is
// dropped. It is used to undo speculative appends after a sub-scope has been
// type checked. Cut never crosses a depth boundary.
func (obj *Stack[T]) Cut(to int) *Stack[T] {
	cur := obj
	for cur != nil && !cur.deeper && cur.start >= to {
		cur = cur.parent
	}
	return cur
}

// Next returns the next free slot index at the current functional depth.
func (obj *Stack[T]) Next() int {
	next := 0
	cur := obj
	for cur != nil {
		if n := cur.start + len(cur.values); n > next {
			next = n
		}
		if cur.deeper {
			break
		}
		cur = cur.parent
	}
	return next
}

// Depth returns the number of functional depth boundaries in the stack.
func (obj *Stack[T]) Depth() int {
	depth := 0
	for cur := obj; cur != nil; cur = cur.parent {
		if cur.deeper {
			depth++
		}
	}
	return depth
}

// String returns a short representation of the stack for debugging.
func (obj *Stack[T]) String() string {
	segments := []string{}
	for cur := obj; cur != nil; cur = cur.parent {
		s := fmt.Sprintf("[%d:%d)", cur.start, cur.start+len(cur.values))
		if cur.mutable {
			s = "mut" + s
		}
		if cur.deeper {
			s = s + "//"
		}
		segments = append(segments, s)
	}
	return strings.Join(segments, " ")
}

// Map rebuilds a stack with the same segment structure, converting each slot
// with the given function. It is used to view a runtime value stack as an
// expression stack when a captured environment needs to be substituted back
// into an expression.
func Map[T, U any](obj *Stack[T], fn func(T) U) *Stack[U] {
	if obj == nil {
		return nil
	}
	values := make([]U, len(obj.values))
	for i, v := range obj.values {
		values[i] = fn(v)
	}
	return &Stack[U]{
		parent:  Map(obj.parent, fn),
		start:   obj.start,
		values:  values,
		deeper:  obj.deeper,
		mutable: false, // the copy is a snapshot, not a live frame
	}
}
