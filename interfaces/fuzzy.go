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

// Fuzzy is a three-valued truth value. Type equivalence can be provably true,
// provably false, or undetermined when one of the sides contains a variable
// that nothing pins down. Consumers decide what Undetermined means for them;
// the checker treats it as "not proven" and falls back to conversions.
type Fuzzy int

const (
	// FuzzyFalse means provably false.
	FuzzyFalse Fuzzy = iota

	// FuzzyUndetermined means neither provable nor refutable.
	FuzzyUndetermined

	// FuzzyTrue means provably true.
	FuzzyTrue
)

// And returns the three-valued conjunction of the two operands. It is false if
// either operand is false, true if both are true, and undetermined otherwise.
func (obj Fuzzy) And(other Fuzzy) Fuzzy {
	if obj == FuzzyFalse || other == FuzzyFalse {
		return FuzzyFalse
	}
	if obj == FuzzyTrue && other == FuzzyTrue {
		return FuzzyTrue
	}
	return FuzzyUndetermined
}

// Or returns the three-valued disjunction of the two operands. It is true if
// either operand is true, false if both are false, and undetermined otherwise.
func (obj Fuzzy) Or(other Fuzzy) Fuzzy {
	if obj == FuzzyTrue || other == FuzzyTrue {
		return FuzzyTrue
	}
	if obj == FuzzyFalse && other == FuzzyFalse {
		return FuzzyFalse
	}
	return FuzzyUndetermined
}

// Not returns the three-valued negation. Undetermined stays undetermined.
func (obj Fuzzy) Not() Fuzzy {
	switch obj {
	case FuzzyFalse:
		return FuzzyTrue
	case FuzzyTrue:
		return FuzzyFalse
	}
	return FuzzyUndetermined
}

// String returns a human readable representation of the truth value.
func (obj Fuzzy) String() string {
	switch obj {
	case FuzzyFalse:
		return "false"
	case FuzzyTrue:
		return "true"
	}
	return "undetermined"
}
