package ty

import "fmt"

// TyVid identifies a general type inference variable
type TyVid uint32

// IntVid identifies an integral inference variable, like the type of `3`
type IntVid uint32

// FloatVid identifies a floating point inference variable, like the type of `3.0`
type FloatVid uint32

// RegionVid identifies a region inference variable
type RegionVid uint32

// DefID names an item (struct, enum, trait) in the definition database
type DefID string

// ScopeID names a lexical code extent. Scopes form a tree maintained by the Database
type ScopeID uint32

// DebruijnIndex counts binders outwards, starting at 1 for the innermost one
type DebruijnIndex uint32

const InnermostBinder DebruijnIndex = 1

func (d DebruijnIndex) Shifted(amount uint32) DebruijnIndex {
	return d + DebruijnIndex(amount)
}

func (v TyVid) String() string     { return fmt.Sprintf("?%d", uint32(v)) }
func (v IntVid) String() string    { return fmt.Sprintf("?i%d", uint32(v)) }
func (v FloatVid) String() string  { return fmt.Sprintf("?f%d", uint32(v)) }
func (v RegionVid) String() string { return fmt.Sprintf("'?%d", uint32(v)) }

// ExpectedFound orders a pair of values the way an error message should present them
type ExpectedFound[T any] struct {
	Expected T
	Found    T
}

// NewExpectedFound puts a and b in expected/found order. aIsExpected never
// changes the direction of a relation, only how it is reported
func NewExpectedFound[T any](aIsExpected bool, a, b T) ExpectedFound[T] {
	if aIsExpected {
		return ExpectedFound[T]{Expected: a, Found: b}
	}
	return ExpectedFound[T]{Expected: b, Found: a}
}
