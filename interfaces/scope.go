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

// Ref is the resolved address of a variable: its slot index and the absolute
// functional depth it was bound at. Expressions store the relative depth (the
// number of function boundaries between use and definition), which is computed
// by subtracting the Ref depth from the depth of the scope doing the lookup.
type Ref struct {
	// Index is the slot index at the binding's functional depth.
	Index int

	// Depth is the absolute functional depth of the binding.
	Depth int
}

// Scope maps surface names to stack slots during the preparation pass. It is
// parent-linked for name shadowing, and it carries the slot counter that
// allocates indices at its functional depth. The counter is shared between the
// scopes of one procedure's statement tree, and forked at expression-level
// binders so that sibling branches may reuse the same indices. Scopes are
// discarded after preparation; only (index, depth) pairs survive in the
// expressions.
type Scope struct {
	parent *Scope
	depth  int
	next   *int
	names  map[string]Ref
}

// NewScope creates an empty root scope at depth zero.
func NewScope() *Scope {
	next := 0
	return &Scope{
		depth: 0,
		next:  &next,
		names: make(map[string]Ref),
	}
}

// Lookup resolves a name through this scope and its ancestors. The innermost
// binding wins.
func (obj *Scope) Lookup(name string) (Ref, bool) {
	for cur := obj; cur != nil; cur = cur.parent {
		if ref, exists := cur.names[name]; exists {
			return ref, true
		}
	}
	return Ref{}, false
}

// Bind allocates the next slot at this scope's functional depth and binds the
// name to it, shadowing any binding of the same name in an ancestor.
func (obj *Scope) Bind(name string) Ref {
	ref := Ref{
		Index: *obj.next,
		Depth: obj.depth,
	}
	*obj.next++
	obj.names[name] = ref
	return ref
}

// Child returns a nested scope at the same functional depth which shares this
// scope's slot counter. Statement blocks use it: their names go out of scope
// at the block's end, but the slots they burned stay burned, because the
// runtime frame is never popped between sibling blocks.
func (obj *Scope) Child() *Scope {
	return &Scope{
		parent: obj,
		depth:  obj.depth,
		next:   obj.next,
		names:  make(map[string]Ref),
	}
}

// Branch returns a nested scope at the same functional depth with a forked
// slot counter. Expression-level binders use it: the runtime segments they
// create are path-local, so sibling expressions may reuse the same indices.
func (obj *Scope) Branch() *Scope {
	next := *obj.next
	return &Scope{
		parent: obj,
		depth:  obj.depth,
		next:   &next,
		names:  make(map[string]Ref),
	}
}

// Deeper returns a nested scope one functional depth down, with a fresh slot
// counter starting at zero. Function bodies use it.
func (obj *Scope) Deeper() *Scope {
	next := 0
	return &Scope{
		parent: obj,
		depth:  obj.depth + 1,
		next:   &next,
		names:  make(map[string]Ref),
	}
}

// Depth returns the absolute functional depth of this scope.
func (obj *Scope) Depth() int {
	return obj.depth
}

// Next returns the next free slot index at this scope's functional depth.
func (obj *Scope) Next() int {
	return *obj.next
}
