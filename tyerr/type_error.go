package tyerr

import (
	"fmt"

	"github.com/cottand/tyinfer/ty"
)

// TypeError is a structural reason why two values could not be related.
// It says nothing about where the values came from, see Error for that
type TypeError interface {
	error
	isTypeError()
}

var (
	_ TypeError = Sorts{}
	_ TypeError = Mutability{}
	_ TypeError = TupleSize{}
	_ TypeError = FixedArraySize{}
	_ TypeError = TyParamSize{}
	_ TypeError = ArgCount{}
	_ TypeError = VariadicMismatch{}
	_ TypeError = ConvergenceMismatch{}
	_ TypeError = UnsafetyMismatch{}
	_ TypeError = IntMismatch{}
	_ TypeError = FloatMismatch{}
	_ TypeError = TraitsMismatch{}
	_ TypeError = CyclicTy{}
	_ TypeError = RegionsInsufficientlyPolymorphic{}
	_ TypeError = RegionsOverlyPolymorphic{}
)

// Sorts means the two types have different shapes altogether
type Sorts struct{ ty.ExpectedFound[ty.Ty] }

func (e Sorts) Error() string {
	return fmt.Sprintf("expected %s, found %s", describeTy(e.Expected), describeTy(e.Found))
}

type MutabilityKind uint8

const (
	References MutabilityKind = iota
	Pointers
)

type Mutability struct{ Kind MutabilityKind }

func (e Mutability) Error() string {
	if e.Kind == Pointers {
		return "pointers differ in mutability"
	}
	return "references differ in mutability"
}

type TupleSize struct{ ty.ExpectedFound[int] }

func (e TupleSize) Error() string {
	return fmt.Sprintf("expected a tuple with %d elements, found one with %d elements", e.Expected, e.Found)
}

type FixedArraySize struct{ ty.ExpectedFound[uint64] }

func (e FixedArraySize) Error() string {
	return fmt.Sprintf("expected an array with a fixed size of %d elements, found one with %d elements", e.Expected, e.Found)
}

// TyParamSize means two instantiations of the same item have a different
// number of arguments
type TyParamSize struct{ ty.ExpectedFound[int] }

func (e TyParamSize) Error() string {
	return fmt.Sprintf("expected a type with %d type params, found one with %d type params", e.Expected, e.Found)
}

type ArgCount struct{}

func (ArgCount) Error() string { return "incorrect number of function parameters" }

type VariadicMismatch struct{ ty.ExpectedFound[bool] }

func (e VariadicMismatch) Error() string {
	return fmt.Sprintf("expected %s fn, found %s function",
		pick(e.Expected, "variadic", "non-variadic"), pick(e.Found, "variadic", "non-variadic"))
}

type ConvergenceMismatch struct{ ty.ExpectedFound[bool] }

func (e ConvergenceMismatch) Error() string {
	return fmt.Sprintf("expected %s fn, found %s function",
		pick(e.Expected, "diverging", "converging"), pick(e.Found, "diverging", "converging"))
}

// UnsafetyMismatch values are true for unsafe functions
type UnsafetyMismatch struct{ ty.ExpectedFound[bool] }

func (e UnsafetyMismatch) Error() string {
	return fmt.Sprintf("expected %s fn, found %s fn", pick(e.Expected, "unsafe", "normal"), pick(e.Found, "unsafe", "normal"))
}

type IntMismatch struct{ ty.ExpectedFound[ty.IntVarValue] }

func (e IntMismatch) Error() string {
	return fmt.Sprintf("expected `%s`, found `%s`", e.Expected, e.Found)
}

type FloatMismatch struct{ ty.ExpectedFound[ty.FloatVarValue] }

func (e FloatMismatch) Error() string {
	return fmt.Sprintf("expected `%s`, found `%s`", e.Expected, e.Found)
}

type TraitsMismatch struct{ ty.ExpectedFound[ty.DefID] }

func (e TraitsMismatch) Error() string {
	return fmt.Sprintf("expected trait `%s`, found trait `%s`", e.Expected, e.Found)
}

// CyclicTy is the occurs check failing: a variable would contain itself
type CyclicTy struct{}

func (CyclicTy) Error() string { return "cyclic type of infinite size" }

// RegionsInsufficientlyPolymorphic means a bound region of the expected
// value was related to a concrete region
type RegionsInsufficientlyPolymorphic struct {
	BR     ty.BoundRegion
	Region ty.Region
}

func (e RegionsInsufficientlyPolymorphic) Error() string {
	return fmt.Sprintf("expected bound lifetime parameter %s, found concrete lifetime", e.BR)
}

// RegionsOverlyPolymorphic is RegionsInsufficientlyPolymorphic seen
// from the found side
type RegionsOverlyPolymorphic struct {
	BR     ty.BoundRegion
	Region ty.Region
}

func (e RegionsOverlyPolymorphic) Error() string {
	return fmt.Sprintf("expected concrete lifetime, found bound lifetime parameter %s", e.BR)
}

func (Sorts) isTypeError()                            {}
func (Mutability) isTypeError()                       {}
func (TupleSize) isTypeError()                        {}
func (FixedArraySize) isTypeError()                   {}
func (TyParamSize) isTypeError()                      {}
func (ArgCount) isTypeError()                         {}
func (VariadicMismatch) isTypeError()                 {}
func (ConvergenceMismatch) isTypeError()              {}
func (UnsafetyMismatch) isTypeError()                 {}
func (IntMismatch) isTypeError()                      {}
func (FloatMismatch) isTypeError()                    {}
func (TraitsMismatch) isTypeError()                   {}
func (CyclicTy) isTypeError()                         {}
func (RegionsInsufficientlyPolymorphic) isTypeError() {}
func (RegionsOverlyPolymorphic) isTypeError()         {}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

// describeTy names the sort of a type, like `tuple` or `&-ptr`, spelling out
// primitives and nominal types in full
func describeTy(t ty.Ty) string {
	switch t := t.(type) {
	case ty.Prim, ty.Param, *ty.Adt:
		return fmt.Sprintf("`%s`", t)
	case *ty.Tuple:
		if len(t.Elems) == 0 {
			return "`()`"
		}
		return "tuple"
	case *ty.Ref:
		return "&-ptr"
	case *ty.RawPtr:
		return "*-ptr"
	case *ty.Array:
		return "array"
	case *ty.Slice:
		return "slice"
	case *ty.FnPtr:
		return "fn pointer"
	case *ty.Dynamic:
		return "trait object"
	case ty.TyVar:
		return "type variable"
	case ty.IntVar:
		return "integral variable"
	case ty.FloatVar:
		return "floating-point variable"
	case ty.FreshTy:
		return "skolemized type"
	case ty.FreshIntTy:
		return "skolemized integral type"
	case ty.FreshFloatTy:
		return "skolemized floating-point type"
	case ty.ErrorTy:
		return "type error"
	}
	return fmt.Sprintf("`%s`", t)
}
